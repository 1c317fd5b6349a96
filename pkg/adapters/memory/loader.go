package memory

import (
	"context"
	"fmt"
	"slices"
	"sync"

	"github.com/aretw0/arbor/pkg/domain"
	"github.com/aretw0/arbor/pkg/layout"
	"github.com/aretw0/arbor/pkg/tree"
)

// Source implements ports.PageSource over in-memory layout definitions.
type Source struct {
	mu      sync.RWMutex
	pages   map[string]*layout.Definition
	builder *layout.Builder
}

// NewSource creates a page source. Redirect behaviors resolve their targets
// against the source itself.
func NewSource(defs []*layout.Definition, opts ...layout.BuilderOption) (*Source, error) {
	s := &Source{pages: make(map[string]*layout.Definition, len(defs))}
	s.builder = layout.NewBuilder(append(opts, layout.WithPages(s.Page))...)
	for _, def := range defs {
		if err := s.Put(def); err != nil {
			return nil, err
		}
	}
	return s, nil
}

// NewFromYAML parses every document and creates a Source from them.
// This improves DX for tests and examples.
func NewFromYAML(docs ...string) (*Source, error) {
	defs := make([]*layout.Definition, 0, len(docs))
	for i, doc := range docs {
		def, err := layout.Parse([]byte(doc))
		if err != nil {
			return nil, fmt.Errorf("document %d: %w", i, err)
		}
		defs = append(defs, def)
	}
	return NewSource(defs)
}

// Put adds or replaces a page definition.
func (s *Source) Put(def *layout.Definition) error {
	if err := def.Validate(); err != nil {
		return fmt.Errorf("invalid page '%s': %w", def.ID, err)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.pages[def.ID] = def
	return nil
}

// Definition returns the raw definition of a page.
func (s *Source) Definition(name string) (*layout.Definition, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	def, ok := s.pages[name]
	return def, ok
}

// Page builds a fresh tree for the named page.
func (s *Source) Page(ctx context.Context, name string) (tree.Component, error) {
	def, ok := s.Definition(name)
	if !ok {
		return nil, fmt.Errorf("%w: %s", domain.ErrPageNotFound, name)
	}
	return s.builder.Build(def)
}

// Pages returns all page names.
func (s *Source) Pages(ctx context.Context) ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	names := make([]string, 0, len(s.pages))
	for name := range s.pages {
		names = append(names, name)
	}
	slices.Sort(names) // Deterministic order
	return names, nil
}
