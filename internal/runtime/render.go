package runtime

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/aretw0/arbor/pkg/domain"
	"github.com/aretw0/arbor/pkg/tree"
)

// Render is the render entry of a page. It runs the page hook once, ensures
// the page is initialized, prepares every visible node and then renders them
// in pre-order.
//
// Preparing a node runs OnBeforeRender followed by a fresh initialization
// pass over it, so children added by the checkpoint are initialized before
// they are rendered. Nodes implementing tree.LatePreparer are prepared after
// all the others, so feedback reported during preparation is already in the
// store when they are rendered.
//
// A failure in any step is dispatched to behaviors. A redirect restarts the
// render with the target page; the page rendered last is returned.
// Lifecycle contract violations abort the render without dispatch.
func (e *Engine) Render(ctx context.Context, page tree.Component) (tree.Component, error) {
	start := now()
	requested := page.AsNode().Address()
	current := page

	restarts := 0
	for {
		failedAt, err := e.renderPage(ctx, current)
		if err == nil {
			e.pageRendered(ctx, requested, current, restarts, start, nil)
			return current, nil
		}

		var violation *domain.LifecycleContractViolation
		if errors.As(err, &violation) {
			e.pageRendered(ctx, requested, current, restarts, start, err)
			return current, err
		}

		var redirect tree.Component
		var restart *tree.RestartResponse
		if errors.As(err, &restart) && restart.Page != nil {
			redirect = restart.Page
		} else {
			e.logger.WarnContext(ctx, "render failed, dispatching to behaviors",
				"path", failedAt.AsNode().Address(), "error", err)
			redirect, err = e.DispatchFailure(ctx, failedAt, err)
			if err != nil {
				e.pageRendered(ctx, requested, current, restarts, start, err)
				return current, err
			}
		}

		if restarts >= e.maxRestarts {
			err := fmt.Errorf("render of '%s' exceeded %d restarts", requested, e.maxRestarts)
			e.pageRendered(ctx, requested, current, restarts, start, err)
			return current, err
		}
		restarts++
		e.logger.InfoContext(ctx, "restarting render",
			"from", current.AsNode().Address(), "to", redirect.AsNode().Address(), "restart", restarts)
		current = redirect
	}
}

// renderPage performs one render attempt and returns the node where a
// failure happened.
func (e *Engine) renderPage(ctx context.Context, page tree.Component) (tree.Component, error) {
	if err := guard(func() error { return e.PageInitialize(ctx, page) }); err != nil {
		return page, err
	}
	if err := guard(func() error { return e.EnsureInitialized(ctx, page) }); err != nil {
		return page, err
	}
	if failedAt, err := e.preparePage(ctx, page); err != nil {
		return failedAt, err
	}
	if err := guard(func() error { return e.renderer.BeginPage(ctx, page) }); err != nil {
		return page, err
	}

	var (
		failedAt tree.Component
		failure  error
		open     []tree.Component
	)
	closeTo := func(depth int) error {
		for len(open) > depth {
			c := open[len(open)-1]
			open = open[:len(open)-1]
			if err := guard(func() error { return e.renderer.EndNode(ctx, c, len(open)) }); err != nil {
				failedAt = c
				return err
			}
		}
		return nil
	}

	tree.Walk(page, func(c tree.Component, depth int) tree.Visit {
		if err := closeTo(depth); err != nil {
			failure = err
			return tree.Stop
		}
		if err := ctx.Err(); err != nil {
			failedAt, failure = c, err
			return tree.Stop
		}
		if !c.AsNode().Visible() {
			return tree.SkipSubtree
		}
		if err := guard(func() error { return e.renderNode(ctx, c, depth) }); err != nil {
			failedAt, failure = c, err
			return tree.Stop
		}
		open = append(open, c)
		return tree.Continue
	})
	if failure == nil {
		failure = closeTo(0)
	}
	if failure != nil {
		return failedAt, failure
	}

	if err := guard(func() error { return e.renderer.EndPage(ctx, page) }); err != nil {
		return page, err
	}
	return nil, nil
}

// preparePage runs the pre-render checkpoint over the visible nodes of page
// in pre-order, late preparers last, and returns the node where a failure
// happened.
func (e *Engine) preparePage(ctx context.Context, page tree.Component) (tree.Component, error) {
	var (
		late     []tree.Component
		failedAt tree.Component
		failure  error
	)
	tree.Walk(page, func(c tree.Component, _ int) tree.Visit {
		if err := ctx.Err(); err != nil {
			failedAt, failure = c, err
			return tree.Stop
		}
		if !c.AsNode().Visible() {
			return tree.SkipSubtree
		}
		if _, ok := c.(tree.LatePreparer); ok {
			late = append(late, c)
			return tree.Continue
		}
		if err := guard(func() error { return e.prepareNode(ctx, c) }); err != nil {
			failedAt, failure = c, err
			return tree.Stop
		}
		return tree.Continue
	})
	if failure != nil {
		return failedAt, failure
	}

	for _, c := range late {
		if !c.AsNode().Visible() {
			continue
		}
		if err := guard(func() error { return e.prepareNode(ctx, c) }); err != nil {
			return c, err
		}
	}
	return nil, nil
}

func (e *Engine) prepareNode(ctx context.Context, c tree.Component) error {
	c.OnBeforeRender()
	return e.EnsureInitialized(ctx, c)
}

func (e *Engine) renderNode(ctx context.Context, c tree.Component, depth int) error {
	if err := e.renderer.RenderNode(ctx, c, depth); err != nil {
		return err
	}
	if e.hooks.OnRender != nil {
		e.hooks.OnRender(ctx, e.nodeEvent(domain.EventNodeRender, c.AsNode()))
	}
	return nil
}

func (e *Engine) pageRendered(ctx context.Context, requested string, page tree.Component, restarts int, start time.Time, err error) {
	elapsed := now().Sub(start)
	e.logger.DebugContext(ctx, "page rendered",
		"requested", requested, "page", page.AsNode().Address(), "restarts", restarts, "duration", elapsed, "error", err)
	if e.hooks.OnPageRender == nil {
		return
	}
	e.hooks.OnPageRender(ctx, &domain.RenderEvent{
		EventBase: domain.EventBase{Timestamp: now(), Type: domain.EventPageRender},
		Requested: requested,
		Page:      page.AsNode().Address(),
		Restarts:  restarts,
		Duration:  elapsed,
		Err:       err,
	})
}

// guard runs fn and converts a panic into an error.
func guard(fn func() error) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = recovered(r)
		}
	}()
	return fn()
}
