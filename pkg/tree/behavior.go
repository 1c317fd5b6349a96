package tree

import (
	"context"
	"fmt"
	"reflect"
)

// Behavior is a value attached to a node that is notified when processing of
// the node fails. Returning a *RestartResponse requests a redirect; any other
// error is reported alongside the original failure.
type Behavior interface {
	OnFailure(ctx context.Context, c Component, failure error) error
}

// BehaviorFunc adapts a function to the Behavior interface.
type BehaviorFunc func(ctx context.Context, c Component, failure error) error

// OnFailure implements Behavior.
func (f BehaviorFunc) OnFailure(ctx context.Context, c Component, failure error) error {
	return f(ctx, c, failure)
}

// Binder is implemented by behaviors that want to know their owner.
type Binder interface {
	Bind(c Component)
}

// RestartResponse asks the render entry to restart with another page.
type RestartResponse struct {
	Page Component
}

func (r *RestartResponse) Error() string {
	if r.Page == nil {
		return "restart response without target"
	}
	return fmt.Sprintf("restart with page '%s'", r.Page.AsNode().Address())
}

// Restart builds a redirect request for Behavior.OnFailure.
func Restart(page Component) error {
	return &RestartResponse{Page: page}
}

// AddBehavior attaches behaviors in order.
func (n *Node) AddBehavior(behaviors ...Behavior) {
	for _, b := range behaviors {
		if b == nil {
			continue
		}
		n.behaviors = append(n.behaviors, b)
		if binder, ok := b.(Binder); ok {
			binder.Bind(n.This())
		}
	}
}

// RemoveBehavior detaches b and reports whether it was attached.
// Behaviors of non-comparable types (such as BehaviorFunc) cannot be removed
// by value; use ClearBehaviors instead.
func (n *Node) RemoveBehavior(b Behavior) bool {
	if b == nil || !reflect.TypeOf(b).Comparable() {
		return false
	}
	for i, existing := range n.behaviors {
		if reflect.TypeOf(existing).Comparable() && existing == b {
			n.behaviors = append(n.behaviors[:i], n.behaviors[i+1:]...)
			return true
		}
	}
	return false
}

// ClearBehaviors detaches every behavior.
func (n *Node) ClearBehaviors() {
	n.behaviors = nil
}

// Behaviors returns the attached behaviors in attachment order.
func (n *Node) Behaviors() []Behavior {
	out := make([]Behavior, len(n.behaviors))
	copy(out, n.behaviors)
	return out
}
