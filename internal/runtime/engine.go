package runtime

import (
	"context"
	"log/slog"
	"time"

	"github.com/aretw0/arbor/internal/logging"
	"github.com/aretw0/arbor/pkg/domain"
	"github.com/aretw0/arbor/pkg/ports"
	"github.com/aretw0/arbor/pkg/tree"
)

var now = time.Now

// DefaultMaxRestarts bounds how many redirects a single Render follows.
const DefaultMaxRestarts = 8

// Engine drives the lifecycle of component trees: exactly-once
// initialization, the render pass and failure dispatch to behaviors.
// An Engine holds no per-tree state and can be shared between turns.
type Engine struct {
	renderer    ports.Renderer
	hooks       domain.LifecycleHooks
	logger      *slog.Logger
	maxRestarts int
}

// EngineOption configures the Engine.
type EngineOption func(*Engine)

// WithLogger sets the engine logger.
func WithLogger(logger *slog.Logger) EngineOption {
	return func(e *Engine) {
		if logger != nil {
			e.logger = logger
		}
	}
}

// WithLifecycleHooks adds observability hooks. Hooks from repeated options
// are all called, in option order.
func WithLifecycleHooks(hooks domain.LifecycleHooks) EngineOption {
	return func(e *Engine) {
		e.hooks = e.hooks.Merge(hooks)
	}
}

// WithRenderer sets the renderer that receives render passes.
func WithRenderer(r ports.Renderer) EngineOption {
	return func(e *Engine) {
		e.renderer = r
	}
}

// WithMaxRestarts bounds the redirects followed by Render. Zero disables
// redirects: the first restart request fails the render.
func WithMaxRestarts(n int) EngineOption {
	return func(e *Engine) {
		e.maxRestarts = max(n, 0)
	}
}

// NewEngine creates an engine.
func NewEngine(opts ...EngineOption) *Engine {
	e := &Engine{
		renderer:    nopRenderer{},
		logger:      logging.NewNop(),
		maxRestarts: DefaultMaxRestarts,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Initialized reports whether c completed its initialization.
func (e *Engine) Initialized(c tree.Component) bool {
	return c.AsNode().Initialized()
}

func (e *Engine) nodeEvent(typ domain.EventType, n *tree.Node) *domain.NodeEvent {
	return &domain.NodeEvent{
		EventBase: domain.EventBase{Timestamp: now(), Type: typ},
		Path:      n.Address(),
		Kind:      n.Kind(),
		Node:      n.This(),
	}
}

type nopRenderer struct{}

func (nopRenderer) BeginPage(context.Context, tree.Component) error { return nil }
func (nopRenderer) RenderNode(context.Context, tree.Component, int) error { return nil }
func (nopRenderer) EndNode(context.Context, tree.Component, int) error { return nil }
func (nopRenderer) EndPage(context.Context, tree.Component) error { return nil }
