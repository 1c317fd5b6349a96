package registry

import (
	"context"
	"fmt"
	"log/slog"
	"slices"
	"sync"

	"github.com/aretw0/arbor/internal/logging"
	"github.com/aretw0/arbor/pkg/tree"
	"github.com/mitchellh/mapstructure"
)

// Props are the free-form properties of a node or behavior definition.
type Props map[string]any

// Decode copies props into the struct pointed to by out, honoring
// mapstructure tags and weak typing ("3" decodes into an int).
func (p Props) Decode(out any) error {
	dec, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		TagName:          "mapstructure",
		WeaklyTypedInput: true,
		Result:           out,
	})
	if err != nil {
		return err
	}
	return dec.Decode(map[string]any(p))
}

// PageFunc builds a fresh page tree by name.
type PageFunc func(ctx context.Context, name string) (tree.Component, error)

// Env carries what behavior factories may need at failure time.
type Env struct {
	Pages  PageFunc
	Logger *slog.Logger
}

// KindFactory creates a component of one kind.
type KindFactory func(id string, props Props) (tree.Component, error)

// BehaviorFactory creates a failure behavior.
type BehaviorFactory func(props Props, env Env) (tree.Behavior, error)

// Registry manages the available component kinds and behaviors.
type Registry struct {
	mu        sync.RWMutex
	kinds     map[string]KindFactory
	behaviors map[string]BehaviorFactory
}

// NewRegistry creates a new empty registry.
func NewRegistry() *Registry {
	return &Registry{
		kinds:     make(map[string]KindFactory),
		behaviors: make(map[string]BehaviorFactory),
	}
}

// Default returns a registry holding the built-in kinds and behaviors.
func Default() *Registry {
	r := NewRegistry()
	RegisterBuiltins(r)
	return r
}

// Register adds a kind to the registry.
// If a kind with the same name exists, it is overwritten.
func (r *Registry) Register(kind string, fn KindFactory) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.kinds[kind] = fn
}

// RegisterBehavior adds a behavior factory to the registry.
// If a behavior with the same name exists, it is overwritten.
func (r *Registry) RegisterBehavior(name string, fn BehaviorFactory) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.behaviors[name] = fn
}

// Create looks up a kind by name and builds a component with the given id.
// The component reports kind as its Kind.
func (r *Registry) Create(kind, id string, props Props) (tree.Component, error) {
	r.mu.RLock()
	fn, ok := r.kinds[kind]
	r.mu.RUnlock()

	if !ok {
		return nil, fmt.Errorf("kind not found: %s", kind)
	}

	c, err := fn(id, props)
	if err != nil {
		return nil, fmt.Errorf("failed to create %s '%s': %w", kind, id, err)
	}
	c.AsNode().SetKind(kind)
	return c, nil
}

// Behavior looks up a behavior by name and builds it.
func (r *Registry) Behavior(name string, props Props, env Env) (tree.Behavior, error) {
	r.mu.RLock()
	fn, ok := r.behaviors[name]
	r.mu.RUnlock()

	if !ok {
		return nil, fmt.Errorf("behavior not found: %s", name)
	}
	if env.Logger == nil {
		env.Logger = logging.NewNop()
	}
	return fn(props, env)
}

// Kinds lists the registered kind names, sorted.
func (r *Registry) Kinds() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	names := make([]string, 0, len(r.kinds))
	for name := range r.kinds {
		names = append(names, name)
	}
	slices.Sort(names)
	return names
}

// BehaviorNames lists the registered behavior names, sorted.
func (r *Registry) BehaviorNames() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	names := make([]string, 0, len(r.behaviors))
	for name := range r.behaviors {
		names = append(names, name)
	}
	slices.Sort(names)
	return names
}
