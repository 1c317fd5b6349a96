package runtime

import (
	"context"

	"github.com/aretw0/arbor/pkg/domain"
	"github.com/aretw0/arbor/pkg/tree"
)

// EnsureInitialized initializes every node under root (inclusive) that is
// not initialized yet, in pre-order. Children added by an OnInitialize hook
// are initialized in their insertion position before the walk moves past
// their container. Calling it again on an initialized tree invokes no hooks.
//
// A hook that does not call the embedded Node.OnInitialize stops the walk
// with a *domain.LifecycleContractViolation.
func (e *Engine) EnsureInitialized(ctx context.Context, root tree.Component) error {
	if root == nil {
		return nil
	}
	var violation error
	tree.Walk(root, func(c tree.Component, _ int) tree.Visit {
		if err := e.initialize(ctx, c); err != nil {
			violation = err
			return tree.Stop
		}
		return tree.Continue
	})
	return violation
}

func (e *Engine) initialize(ctx context.Context, c tree.Component) error {
	n := c.AsNode()
	if n.Initialized() {
		return nil
	}

	c.OnInitialize()

	if !n.Initialized() {
		return e.violation(ctx, n, domain.HookInitialize)
	}
	e.logger.DebugContext(ctx, "node initialized", "path", n.Address(), "kind", n.Kind())
	if e.hooks.OnInitialize != nil {
		e.hooks.OnInitialize(ctx, e.nodeEvent(domain.EventNodeInitialize, n))
	}
	return nil
}

// PageInitialize runs the one-shot OnPageInitialize hook of page. It is a
// no-op once the hook completed, and fails with a
// *domain.LifecycleContractViolation when the override skipped the base call.
func (e *Engine) PageInitialize(ctx context.Context, page tree.Component) error {
	n := page.AsNode()
	if n.PageInitialized() {
		return nil
	}

	page.OnPageInitialize()

	if !n.PageInitialized() {
		return e.violation(ctx, n, domain.HookPageInitialize)
	}
	e.logger.DebugContext(ctx, "page initialized", "path", n.Address(), "kind", n.Kind())
	if e.hooks.OnPageInitialize != nil {
		e.hooks.OnPageInitialize(ctx, e.nodeEvent(domain.EventPageInitialize, n))
	}
	return nil
}

func (e *Engine) violation(ctx context.Context, n *tree.Node, hook string) error {
	err := &domain.LifecycleContractViolation{Path: n.Address(), Kind: n.Kind(), Hook: hook}
	e.logger.ErrorContext(ctx, "lifecycle contract violated", "path", err.Path, "kind", err.Kind, "hook", hook)
	return err
}
