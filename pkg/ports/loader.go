package ports

import (
	"context"

	"github.com/aretw0/arbor/pkg/tree"
)

// PageSource resolves page names into freshly built component trees.
// Every call returns a new tree: trees are owned by a single turn.
type PageSource interface {
	// Page builds the page with the given name.
	Page(ctx context.Context, name string) (tree.Component, error)

	// Pages lists the available page names, sorted.
	Pages(ctx context.Context) ([]string, error)
}

// Watchable is implemented by page sources that can report definition changes.
type Watchable interface {
	// Watch returns a channel that is signaled when page definitions change.
	Watch(ctx context.Context) (<-chan struct{}, error)
}
