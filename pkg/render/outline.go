package render

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/aretw0/arbor/pkg/domain"
	"github.com/aretw0/arbor/pkg/feedback"
	"github.com/aretw0/arbor/pkg/tree"
)

// Content is implemented by kinds that render text of their own.
type Content interface {
	Content() string
}

// Outline renders a page as a Markdown outline: one list item per visible
// node, with the messages of each feedback collector nested below it.
//
// Messages are marked rendered only when the page completes, so an attempt
// abandoned by a redirect does not consume them.
type Outline struct {
	out io.Writer

	buf        strings.Builder
	collectors []domain.CollectorView
	pending    []*feedback.Message
	last       string
}

// NewOutline creates an outline renderer. When out is not nil, every
// completed page is written to it.
func NewOutline(out io.Writer) *Outline {
	return &Outline{out: out}
}

func (o *Outline) BeginPage(_ context.Context, page tree.Component) error {
	o.buf.Reset()
	o.collectors = nil
	o.pending = nil
	fmt.Fprintf(&o.buf, "# %s\n\n", page.AsNode().ID())
	return nil
}

func (o *Outline) RenderNode(_ context.Context, c tree.Component, depth int) error {
	if depth == 0 {
		return nil
	}
	indent := strings.Repeat("  ", depth-1)
	n := c.AsNode()

	switch v := c.(type) {
	case feedback.Displayer:
		fmt.Fprintf(&o.buf, "%s- **%s** (feedback)\n", indent, n.ID())
		o.collect(v, indent+"  ")
	case Content:
		fmt.Fprintf(&o.buf, "%s- %s: %s\n", indent, n.ID(), v.Content())
	default:
		fmt.Fprintf(&o.buf, "%s- %s (%s)\n", indent, n.ID(), n.Kind())
	}
	return nil
}

func (o *Outline) collect(c feedback.Displayer, indent string) {
	view := domain.CollectorView{Path: c.AsNode().Address(), Fenced: c.IsFence(), Messages: []domain.MessageView{}}
	store, ok := feedback.StoreOf(c)
	if ok {
		for m := range c.Messages(store) {
			fmt.Fprintf(&o.buf, "%s- %s %s\n", indent, strings.ToUpper(m.Level.String()), m.Text)
			view.Messages = append(view.Messages, domain.MessageView{
				Seq:    m.Seq,
				Level:  m.Level,
				Text:   m.Text,
				Origin: m.OriginPath,
				Time:   m.Time,
			})
			o.pending = append(o.pending, m)
		}
	}
	o.collectors = append(o.collectors, view)
}

func (o *Outline) EndNode(context.Context, tree.Component, int) error {
	return nil
}

func (o *Outline) EndPage(context.Context, tree.Component) error {
	for _, m := range o.pending {
		m.MarkRendered()
	}
	o.pending = nil
	o.last = o.buf.String()
	if o.out != nil {
		if _, err := io.WriteString(o.out, o.last); err != nil {
			return fmt.Errorf("failed to write outline: %w", err)
		}
	}
	return nil
}

// String returns the last completed page.
func (o *Outline) String() string {
	return o.last
}

// Collectors returns what each collector of the last completed page showed,
// in render order.
func (o *Outline) Collectors() []domain.CollectorView {
	return o.collectors
}
