package layout

import (
	"errors"
	"fmt"
	"log/slog"

	"github.com/aretw0/arbor/internal/logging"
	"github.com/aretw0/arbor/pkg/domain"
	"github.com/aretw0/arbor/pkg/feedback"
	"github.com/aretw0/arbor/pkg/registry"
	"github.com/aretw0/arbor/pkg/tree"
)

// DefaultKind is used for definitions without a kind.
const DefaultKind = registry.KindContainer

// Builder turns definitions into component trees.
type Builder struct {
	registry *registry.Registry
	pages    registry.PageFunc
	logger   *slog.Logger
}

// BuilderOption configures a Builder.
type BuilderOption func(*Builder)

// WithRegistry sets the kind registry (default: registry.Default()).
func WithRegistry(r *registry.Registry) BuilderOption {
	return func(b *Builder) {
		if r != nil {
			b.registry = r
		}
	}
}

// WithPages sets how behaviors resolve other pages (redirect targets).
func WithPages(fn registry.PageFunc) BuilderOption {
	return func(b *Builder) {
		b.pages = fn
	}
}

// WithLogger sets the logger handed to behaviors.
func WithLogger(logger *slog.Logger) BuilderOption {
	return func(b *Builder) {
		if logger != nil {
			b.logger = logger
		}
	}
}

// NewBuilder creates a Builder.
func NewBuilder(opts ...BuilderOption) *Builder {
	b := &Builder{
		registry: registry.Default(),
		logger:   logging.NewNop(),
	}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

// Registry returns the kind registry used by the builder.
func (b *Builder) Registry() *registry.Registry {
	return b.registry
}

type pendingCollector struct {
	collector *feedback.Collector
	def       *Definition
}

// Build creates a fresh tree from def. Collector scopes and origin filters
// are resolved against the built page root once all nodes exist.
func (b *Builder) Build(def *Definition) (tree.Component, error) {
	if err := def.Validate(); err != nil {
		return nil, err
	}

	var pending []pendingCollector
	root, err := b.build(def, &pending)
	if err != nil {
		return nil, err
	}

	rootNode := root.AsNode()
	for _, p := range pending {
		if err := b.configure(rootNode, p.collector, p.def); err != nil {
			return nil, fmt.Errorf("feedback '%s': %w", p.collector.Address(), err)
		}
	}
	return root, nil
}

func (b *Builder) build(def *Definition, pending *[]pendingCollector) (tree.Component, error) {
	kind := def.Kind
	if kind == "" {
		kind = DefaultKind
	}

	c, err := b.registry.Create(kind, def.ID, def.Props)
	if err != nil {
		return nil, err
	}
	node := c.AsNode()
	node.SetVisible(!def.Hidden)

	if collector, ok := c.(*feedback.Collector); ok {
		*pending = append(*pending, pendingCollector{collector: collector, def: def})
	} else if def.Fence || def.Scope != "" || def.Filter != nil {
		return nil, fmt.Errorf("'%s' is a %s: only feedback nodes accept fence, scope or filter", def.ID, kind)
	}

	env := registry.Env{Pages: b.pages, Logger: b.logger}
	for _, bd := range def.Behaviors {
		behavior, err := b.registry.Behavior(bd.Kind, bd.Props, env)
		if err != nil {
			return nil, fmt.Errorf("behavior on '%s': %w", def.ID, err)
		}
		node.AddBehavior(behavior)
	}

	for i := range def.Children {
		child, err := b.build(&def.Children[i], pending)
		if err != nil {
			return nil, err
		}
		if err := node.Add(child); err != nil {
			return nil, err
		}
	}
	return c, nil
}

func (b *Builder) configure(root *tree.Node, c *feedback.Collector, def *Definition) error {
	c.SetFence(def.Fence)

	if def.Scope != "" {
		scope, ok := root.Lookup(def.Scope)
		if !ok {
			return fmt.Errorf("scope '%s' not found", def.Scope)
		}
		c.SetScope(scope)
	}

	if def.Filter == nil {
		return nil
	}
	filter, err := buildFilter(root, def.Filter)
	if err != nil {
		return err
	}
	c.SetFilter(filter)
	return nil
}

func buildFilter(root *tree.Node, def *FilterDefinition) (feedback.Filter, error) {
	var parts []feedback.Filter

	if def.MinLevel != "" {
		level, err := domain.ParseLevel(def.MinLevel)
		if err != nil {
			return nil, err
		}
		parts = append(parts, feedback.MinLevel(level))
	}

	if len(def.Levels) > 0 {
		levels := make([]domain.Level, 0, len(def.Levels))
		for _, name := range def.Levels {
			level, err := domain.ParseLevel(name)
			if err != nil {
				return nil, err
			}
			levels = append(levels, level)
		}
		parts = append(parts, feedback.ExactLevels(levels...))
	}

	if def.Origin != "" {
		origin, ok := root.Lookup(def.Origin)
		if !ok {
			return nil, fmt.Errorf("filter origin '%s' not found", def.Origin)
		}
		parts = append(parts, feedback.OriginIn(origin))
	}

	switch len(parts) {
	case 0:
		return nil, errors.New("empty filter")
	case 1:
		return parts[0], nil
	default:
		return feedback.And(parts...), nil
	}
}
