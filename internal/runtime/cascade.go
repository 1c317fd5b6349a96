package runtime

import (
	"context"
	"errors"
	"fmt"
	"runtime/debug"
	"slices"

	"github.com/aretw0/arbor/pkg/domain"
	"github.com/aretw0/arbor/pkg/tree"
)

// PanicError carries a value recovered from a panicking hook or behavior.
type PanicError struct {
	Value any
	Stack []byte
}

func (e *PanicError) Error() string {
	return fmt.Sprintf("panic: %v", e.Value)
}

// Unwrap exposes the panic value when it is an error.
func (e *PanicError) Unwrap() error {
	if err, ok := e.Value.(error); ok {
		return err
	}
	return nil
}

// recovered turns a recovered value into an error. A panic carrying a
// *tree.RestartResponse is returned as is, so hooks may request a redirect by
// panicking.
func recovered(r any) error {
	if err, ok := r.(error); ok {
		var restart *tree.RestartResponse
		if errors.As(err, &restart) {
			return restart
		}
	}
	return &PanicError{Value: r, Stack: debug.Stack()}
}

// DispatchFailure notifies the behaviors of origin and then of each of its
// ancestors, in attachment order, about failure. Every behavior is notified
// even after an earlier one requested a redirect; the last redirect wins and
// is returned as the page to restart with.
//
// Without a redirect the failure is returned wrapped in a
// *domain.RuntimeFailure whose cause is the original error. Other errors
// returned by behaviors are logged and joined to it.
func (e *Engine) DispatchFailure(ctx context.Context, origin tree.Component, failure error) (tree.Component, error) {
	n := origin.AsNode()

	var (
		redirect tree.Component
		errs     []error
		notified int
	)
	owners := append([]tree.Component{n.This()}, slices.Collect(n.Ancestors())...)
	for _, owner := range owners {
		for _, b := range owner.AsNode().Behaviors() {
			notified++
			err := e.notify(ctx, b, owner, failure)
			if err == nil {
				continue
			}
			var restart *tree.RestartResponse
			if errors.As(err, &restart) && restart.Page != nil {
				e.logger.DebugContext(ctx, "behavior requested restart",
					"path", owner.AsNode().Address(), "page", restart.Page.AsNode().Address())
				redirect = restart.Page
				continue
			}
			e.logger.WarnContext(ctx, "behavior failed while handling failure",
				"path", owner.AsNode().Address(), "error", err)
			errs = append(errs, err)
		}
	}

	if e.hooks.OnFailure != nil {
		e.hooks.OnFailure(ctx, &domain.FailureEvent{
			EventBase:  domain.EventBase{Timestamp: now(), Type: domain.EventFailure},
			Path:       n.Address(),
			Behaviors:  notified,
			Redirected: redirect != nil,
			Err:        failure,
		})
	}

	if redirect != nil {
		return redirect, nil
	}

	var wrapped error
	var rf *domain.RuntimeFailure
	if errors.As(failure, &rf) {
		wrapped = failure
	} else {
		wrapped = &domain.RuntimeFailure{Path: n.Address(), Kind: n.Kind(), Cause: failure}
	}
	if len(errs) > 0 {
		return nil, errors.Join(append([]error{wrapped}, errs...)...)
	}
	return nil, wrapped
}

func (e *Engine) notify(ctx context.Context, b tree.Behavior, owner tree.Component, failure error) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = recovered(r)
		}
	}()
	return b.OnFailure(ctx, owner, failure)
}
