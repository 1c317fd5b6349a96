package ports

import (
	"context"

	"github.com/aretw0/arbor/pkg/tree"
)

// Renderer receives the render pass of a page. RenderNode is called in
// pre-order for every visible node, EndNode after the node's children.
// Returning an error fails the render of that node.
type Renderer interface {
	BeginPage(ctx context.Context, page tree.Component) error
	RenderNode(ctx context.Context, c tree.Component, depth int) error
	EndNode(ctx context.Context, c tree.Component, depth int) error
	EndPage(ctx context.Context, page tree.Component) error
}
