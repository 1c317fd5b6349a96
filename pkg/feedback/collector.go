package feedback

import (
	"iter"

	"github.com/aretw0/arbor/pkg/domain"
	"github.com/aretw0/arbor/pkg/tree"
)

// Collector is a node that displays the feedback messages of its scope.
//
// An unfenced collector without an explicit scope is a catch-all: it sees
// every message that is not fenced in, including scope-less ones. A fenced
// collector keeps the messages of its scope from reaching collectors outside
// that scope.
type Collector struct {
	tree.Node

	fence  bool
	filter Filter
	scope  tree.Component
}

// CollectorOption configures a Collector at construction.
type CollectorOption func(*Collector)

// Fenced makes the collector a fence around scope. A nil scope means the
// collector's parent.
func Fenced(scope tree.Component) CollectorOption {
	return func(c *Collector) {
		c.fence = true
		c.scope = scope
	}
}

// WithScope binds the collector to scope without fencing it.
func WithScope(scope tree.Component) CollectorOption {
	return func(c *Collector) {
		c.scope = scope
	}
}

// WithFilter sets the collector filter.
func WithFilter(f Filter) CollectorOption {
	return func(c *Collector) {
		c.filter = f
	}
}

// NewCollector creates a collector node.
func NewCollector(id string, opts ...CollectorOption) *Collector {
	c := &Collector{}
	c.Init(c, id)
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// SetFence turns fencing on or off. The change applies to the next query.
func (c *Collector) SetFence(fence bool) { c.fence = fence }

// IsFence reports whether the collector fences its scope.
func (c *Collector) IsFence() bool { return c.fence }

// SetFilter replaces the filter. A nil filter accepts every candidate.
func (c *Collector) SetFilter(f Filter) { c.filter = f }

// Filter returns the current filter, or nil.
func (c *Collector) Filter() Filter { return c.filter }

// SetScope binds the collector to a scope root. Nil restores the default.
func (c *Collector) SetScope(scope tree.Component) { c.scope = scope }

// ScopeRoot returns the node whose subtree the collector covers: the bound
// scope, or for a fence without one its parent, or otherwise the absolute root.
func (c *Collector) ScopeRoot() tree.Component {
	if c.scope != nil {
		return c.scope
	}
	if c.fence {
		if p := c.Parent(); p != nil {
			return p
		}
		return c.This()
	}
	return c.Root()
}

// Messages yields the messages of store visible to this collector.
func (c *Collector) Messages(store *Store) iter.Seq[*Message] {
	return Query(store, c)
}

// AnyMessage reports whether at least one message is visible.
func (c *Collector) AnyMessage(store *Store) bool {
	for range Query(store, c) {
		return true
	}
	return false
}

// AnyMessageAt reports whether a visible message is at level or above.
func (c *Collector) AnyMessageAt(store *Store, level domain.Level) bool {
	for m := range Query(store, c) {
		if m.Level >= level {
			return true
		}
	}
	return false
}

// MarkRendered flags every visible message as rendered and returns them.
func (c *Collector) MarkRendered(store *Store) []*Message {
	var out []*Message
	for m := range Query(store, c) {
		m.MarkRendered()
		out = append(out, m)
	}
	return out
}

// PrepareLate defers the collector's render checkpoint until the other
// nodes of the page reported their feedback.
func (c *Collector) PrepareLate() {}

// fencer is implemented by Collector and by every kind embedding it.
type fencer interface {
	IsFence() bool
	ScopeRoot() tree.Component
}

// Displayer is implemented by Collector and by every kind embedding it.
// Renderers and introspection match on it rather than on *Collector.
type Displayer interface {
	tree.Component
	IsFence() bool
	ScopeRoot() tree.Component
	Messages(store *Store) iter.Seq[*Message]
}

var (
	_ fencer            = (*Collector)(nil)
	_ Displayer         = (*Collector)(nil)
	_ tree.LatePreparer = (*Collector)(nil)
)
