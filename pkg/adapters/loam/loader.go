package loam

import (
	"context"
	"fmt"
	"path/filepath"
	"slices"
	"strings"

	"github.com/aretw0/arbor/pkg/domain"
	"github.com/aretw0/arbor/pkg/layout"
	"github.com/aretw0/arbor/pkg/tree"
	"github.com/aretw0/loam"
)

// Source adapts a Loam repository to ports.PageSource. Every document is a
// page: its front matter is the layout, its body an optional label.
type Source struct {
	Repo    *loam.TypedRepository[PageMetadata]
	builder *layout.Builder
}

// New creates a new Loam page source. Redirect behaviors resolve their
// targets against the source itself.
func New(repo *loam.TypedRepository[PageMetadata], opts ...layout.BuilderOption) *Source {
	s := &Source{Repo: repo}
	s.builder = layout.NewBuilder(append(opts, layout.WithPages(s.Page))...)
	return s
}

// Definition loads and decodes the layout of a page.
func (s *Source) Definition(ctx context.Context, name string) (*layout.Definition, error) {
	doc, err := s.Repo.Get(ctx, name)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %w", domain.ErrPageNotFound, name, err)
	}

	rawID := doc.Data.ID
	if rawID == "" {
		rawID = doc.ID
	}
	id := trimExtension(rawID)

	def, err := layout.Decode(doc.Data.raw(id, strings.TrimSpace(doc.Content)))
	if err != nil {
		return nil, fmt.Errorf("invalid page '%s': %w", id, err)
	}
	if err := def.Validate(); err != nil {
		return nil, fmt.Errorf("invalid page '%s': %w", id, err)
	}
	return def, nil
}

// Page builds a fresh tree for the named page.
func (s *Source) Page(ctx context.Context, name string) (tree.Component, error) {
	def, err := s.Definition(ctx, name)
	if err != nil {
		return nil, err
	}
	return s.builder.Build(def)
}

// Pages lists all pages in the repository.
func (s *Source) Pages(ctx context.Context) ([]string, error) {
	docs, err := s.Repo.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("loam list failed: %w", err)
	}

	seen := make(map[string]string, len(docs))
	names := make([]string, 0, len(docs))
	for _, doc := range docs {
		rawID := doc.Data.ID
		if rawID == "" {
			rawID = doc.ID
		}
		id := trimExtension(rawID)

		if existing, ok := seen[id]; ok {
			return nil, fmt.Errorf("collision detected: page '%s' is defined in both '%s' and '%s'", id, existing, doc.ID)
		}
		seen[id] = doc.ID
		names = append(names, id)
	}
	slices.Sort(names)
	return names, nil
}

func trimExtension(id string) string {
	return filepath.ToSlash(strings.TrimSuffix(id, filepath.Ext(id)))
}

// Watch implements ports.Watchable. Bursts of changes are coalesced into a
// single pending signal.
func (s *Source) Watch(ctx context.Context) (<-chan struct{}, error) {
	events, err := s.Repo.Watch(ctx, "**/*.{md,json,yaml,yml}")
	if err != nil {
		return nil, fmt.Errorf("failed to start loam watcher: %w", err)
	}

	ch := make(chan struct{}, 1)
	go func() {
		defer close(ch)
		for {
			select {
			case <-ctx.Done():
				return
			case _, ok := <-events:
				if !ok {
					return
				}
				select {
				case ch <- struct{}{}:
				default:
				}
			}
		}
	}()
	return ch, nil
}
