package arbor

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"path/filepath"

	"github.com/aretw0/arbor/internal/logging"
	"github.com/aretw0/arbor/internal/runtime"
	loamAdapter "github.com/aretw0/arbor/pkg/adapters/loam"
	"github.com/aretw0/arbor/pkg/adapters/memory"
	"github.com/aretw0/arbor/pkg/domain"
	"github.com/aretw0/arbor/pkg/feedback"
	"github.com/aretw0/arbor/pkg/layout"
	"github.com/aretw0/arbor/pkg/ports"
	"github.com/aretw0/arbor/pkg/registry"
	"github.com/aretw0/arbor/pkg/render"
	"github.com/aretw0/arbor/pkg/session"
	"github.com/aretw0/arbor/pkg/tree"
	"github.com/aretw0/loam"
)

// ErrNotWatchable is returned by Watch when the page source cannot report changes.
var ErrNotWatchable = errors.New("page source does not support watching")

// Engine is the high-level entry point for the Arbor library. It renders
// pages for sessions: every render is one turn that loads the session's
// pending feedback, builds a fresh tree, renders it and persists what was
// left unrendered.
type Engine struct {
	source      ports.PageSource
	log         ports.SessionLog
	locker      ports.DistributedLocker
	registry    *registry.Registry
	sessions    *session.Manager
	hooks       domain.LifecycleHooks
	logger      *slog.Logger
	maxRestarts int
	Name        string
}

var _ ports.PageEngine = (*Engine)(nil)

// Option defines a functional option for configuring the Engine.
type Option func(*Engine)

// WithSource injects a page source, bypassing the default Loam repository.
func WithSource(s ports.PageSource) Option {
	return func(e *Engine) {
		e.source = s
	}
}

// WithSessionLog sets where pending feedback is kept between turns
// (default: in memory).
func WithSessionLog(l ports.SessionLog) Option {
	return func(e *Engine) {
		e.log = l
	}
}

// WithLocker serializes turns of a session across processes.
func WithLocker(l ports.DistributedLocker) Option {
	return func(e *Engine) {
		e.locker = l
	}
}

// WithRegistry sets the kind registry used by the default Loam source.
func WithRegistry(r *registry.Registry) Option {
	return func(e *Engine) {
		e.registry = r
	}
}

// WithLifecycleHooks registers observability hooks. Repeated options are merged.
func WithLifecycleHooks(hooks domain.LifecycleHooks) Option {
	return func(e *Engine) {
		e.hooks = e.hooks.Merge(hooks)
	}
}

// WithLogger sets a custom structured logger for the engine.
func WithLogger(logger *slog.Logger) Option {
	return func(e *Engine) {
		e.logger = logger
	}
}

// WithMaxRestarts bounds the redirects followed by a single render.
func WithMaxRestarts(n int) Option {
	return func(e *Engine) {
		e.maxRestarts = n
	}
}

// New initializes a new Arbor Engine.
// By default, pages are read from a Loam repository at dir.
// If WithSource is provided, dir can be empty and Loam is skipped.
func New(dir string, opts ...Option) (*Engine, error) {
	eng := &Engine{maxRestarts: runtime.DefaultMaxRestarts}
	for _, opt := range opts {
		opt(eng)
	}

	if eng.logger == nil {
		eng.logger = logging.NewNop()
	}
	if eng.registry == nil {
		eng.registry = registry.Default()
	}

	if eng.source == nil {
		if dir == "" {
			return nil, errors.New("dir is required when no custom page source is provided")
		}
		absPath, err := filepath.Abs(dir)
		if err != nil {
			return nil, fmt.Errorf("invalid path: %w", err)
		}
		eng.Name = filepath.Base(absPath)

		// The engine never writes pages.
		repo, err := loam.Init(absPath,
			loam.WithStrict(true),
			loam.WithReadOnly(true),
		)
		if err != nil {
			return nil, fmt.Errorf("failed to initialize loam: %w", err)
		}
		eng.source = loamAdapter.New(
			loam.NewTypedRepository[loamAdapter.PageMetadata](repo),
			layout.WithRegistry(eng.registry),
			layout.WithLogger(eng.logger),
		)
	} else if dir != "" {
		eng.Name = filepath.Base(dir)
	}

	if eng.Name != "" {
		eng.logger = eng.logger.With("pages", eng.Name)
	}
	if eng.log == nil {
		eng.log = memory.NewLog()
	}

	sessionOpts := []session.Option{
		session.WithLogger(eng.logger),
		session.WithStoreOptions(feedback.WithLifecycleHooks(eng.hooks)),
	}
	if eng.locker != nil {
		sessionOpts = append(sessionOpts, session.WithLocker(eng.locker))
	}
	eng.sessions = session.NewManager(eng.log, sessionOpts...)

	return eng, nil
}

// Render runs one turn: the page is built, attached to the session's
// feedback store and rendered, following redirects. Feedback reported
// during the turn and not rendered is kept for the next turn, even when
// the render fails.
func (e *Engine) Render(ctx context.Context, sessionID, page string) (*domain.View, error) {
	var view *domain.View
	err := e.sessions.Turn(ctx, sessionID, func(ctx context.Context, store *feedback.Store) error {
		root, err := e.source.Page(ctx, page)
		if err != nil {
			return err
		}
		feedback.Attach(root, store)

		restarts := 0
		outline := render.NewOutline(nil)
		rt := runtime.NewEngine(
			runtime.WithRenderer(outline),
			runtime.WithLogger(e.logger),
			runtime.WithMaxRestarts(e.maxRestarts),
			runtime.WithLifecycleHooks(e.hooks),
			runtime.WithLifecycleHooks(domain.LifecycleHooks{
				OnPageRender: func(_ context.Context, ev *domain.RenderEvent) {
					restarts = ev.Restarts
				},
			}),
		)

		rendered, err := rt.Render(ctx, root)
		if err != nil {
			return err
		}
		view = &domain.View{
			SessionID: sessionID,
			Requested: page,
			Page:      rendered.AsNode().ID(),
			Restarts:  restarts,
			Output:    outline.String(),
			Feedback:  outline.Collectors(),
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return view, nil
}

// Report queues a scope-less message for the session's next render.
func (e *Engine) Report(ctx context.Context, sessionID string, level domain.Level, text string) error {
	return e.sessions.Report(ctx, sessionID, level, text)
}

// Pages lists the available pages.
func (e *Engine) Pages(ctx context.Context) ([]string, error) {
	return e.source.Pages(ctx)
}

// Inspect builds a page without rendering it and describes its tree.
func (e *Engine) Inspect(ctx context.Context, page string) (*domain.NodeView, error) {
	root, err := e.source.Page(ctx, page)
	if err != nil {
		return nil, err
	}
	view := Describe(root)
	return &view, nil
}

// Describe converts a component tree into its introspection view.
func Describe(c tree.Component) domain.NodeView {
	n := c.AsNode()
	view := domain.NodeView{
		ID:          n.ID(),
		Kind:        n.Kind(),
		Path:        n.Address(),
		Container:   n.IsContainer(),
		Visible:     n.Visible(),
		Initialized: n.Initialized(),
		Behaviors:   len(n.Behaviors()),
	}
	if collector, ok := c.(feedback.Displayer); ok {
		view.Fence = collector.IsFence()
	}
	for _, child := range n.Children() {
		view.Children = append(view.Children, Describe(child))
	}
	return view
}

// Watch returns a channel that signals when page definitions change.
func (e *Engine) Watch(ctx context.Context) (<-chan struct{}, error) {
	if w, ok := e.source.(ports.Watchable); ok {
		return w.Watch(ctx)
	}
	return nil, ErrNotWatchable
}

// Source returns the page source used by the engine.
func (e *Engine) Source() ports.PageSource {
	return e.source
}

// Sessions returns the session manager.
func (e *Engine) Sessions() *session.Manager {
	return e.sessions
}
