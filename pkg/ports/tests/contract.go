package tests

import (
	"context"
	"errors"
	"testing"

	"github.com/aretw0/arbor/pkg/domain"
	"github.com/aretw0/arbor/pkg/ports"
)

// PageSourceContractTest is a reusable test suite that verifies if an adapter complies with ports.PageSource.
// want lists the page names the source was set up with.
func PageSourceContractTest(t *testing.T, source ports.PageSource, want []string) {
	t.Helper()
	ctx := context.Background()

	t.Run("Page_Success", func(t *testing.T) {
		for _, name := range want {
			page, err := source.Page(ctx, name)
			if err != nil {
				t.Fatalf("unexpected error building page %s: %v", name, err)
			}
			if got := page.AsNode().ID(); got != name {
				t.Errorf("page root id mismatch: got %q, want %q", got, name)
			}
			if page.AsNode().Parent() != nil {
				t.Errorf("page %s must be a root", name)
			}
		}
	})

	t.Run("Page_FreshTree", func(t *testing.T) {
		if len(want) == 0 {
			t.Skip("no pages")
		}
		first, err := source.Page(ctx, want[0])
		if err != nil {
			t.Fatal(err)
		}
		second, err := source.Page(ctx, want[0])
		if err != nil {
			t.Fatal(err)
		}
		if first.AsNode() == second.AsNode() {
			t.Error("each call must build a new tree")
		}
	})

	t.Run("Page_NotFound", func(t *testing.T) {
		_, err := source.Page(ctx, "non-existent-page")
		if err == nil {
			t.Fatal("expected error for non-existent page, got nil")
		}
		if !errors.Is(err, domain.ErrPageNotFound) {
			t.Errorf("expected ErrPageNotFound, got %v", err)
		}
	})

	t.Run("Pages", func(t *testing.T) {
		pages, err := source.Pages(ctx)
		if err != nil {
			t.Fatalf("unexpected error listing pages: %v", err)
		}

		if len(pages) != len(want) {
			t.Errorf("expected %d pages, got %d", len(want), len(pages))
		}

		for i := 1; i < len(pages); i++ {
			if pages[i-1] > pages[i] {
				t.Errorf("pages are not sorted: %v", pages)
				break
			}
		}

		// Verify all expected names are present
		lookup := make(map[string]bool)
		for _, name := range pages {
			lookup[name] = true
		}

		for _, name := range want {
			if !lookup[name] {
				t.Errorf("page %s missing from list", name)
			}
		}
	})
}
