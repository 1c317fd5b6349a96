package dsl

import (
	"fmt"

	"github.com/aretw0/arbor/pkg/adapters/memory"
	"github.com/aretw0/arbor/pkg/layout"
)

// Builder manages the construction of a set of pages.
type Builder struct {
	pages map[string]*NodeBuilder
	order []string
}

// New creates a new page builder.
func New() *Builder {
	return &Builder{
		pages: make(map[string]*NodeBuilder),
	}
}

// Page starts the page with the given name.
// If the page already exists, it returns the existing builder.
func (b *Builder) Page(name string) *NodeBuilder {
	if nb, ok := b.pages[name]; ok {
		return nb
	}
	nb := &NodeBuilder{
		def: layout.Definition{ID: name, Kind: "page"},
	}
	b.pages[name] = nb
	b.order = append(b.order, name)
	return nb
}

// Definitions returns the layout of every page, in declaration order.
func (b *Builder) Definitions() []*layout.Definition {
	defs := make([]*layout.Definition, 0, len(b.order))
	for _, name := range b.order {
		def := b.pages[name].definition()
		defs = append(defs, &def)
	}
	return defs
}

// Build compiles the pages into an in-memory page source.
func (b *Builder) Build(opts ...layout.BuilderOption) (*memory.Source, error) {
	source, err := memory.NewSource(b.Definitions(), opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to build memory source: %w", err)
	}
	return source, nil
}
