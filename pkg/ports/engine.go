package ports

import (
	"context"

	"github.com/aretw0/arbor/pkg/domain"
)

// PageEngine is the surface driven by adapters (HTTP, MCP, CLI). Every call
// is one turn: pages are built fresh and session feedback is loaded and
// persisted around it.
type PageEngine interface {
	// Render builds and renders the page for the session, following redirects.
	Render(ctx context.Context, sessionID, page string) (*domain.View, error)

	// Report adds a scope-less message to the session, shown by the next render.
	Report(ctx context.Context, sessionID string, level domain.Level, text string) error

	// Pages lists the available page names.
	Pages(ctx context.Context) ([]string, error)

	// Inspect builds and initializes the page without rendering it.
	Inspect(ctx context.Context, page string) (*domain.NodeView, error)
}
