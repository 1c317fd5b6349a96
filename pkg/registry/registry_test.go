package registry_test

import (
	"context"
	"errors"
	"testing"

	"github.com/aretw0/arbor/pkg/domain"
	"github.com/aretw0/arbor/pkg/feedback"
	"github.com/aretw0/arbor/pkg/registry"
	"github.com/aretw0/arbor/pkg/tree"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRegistry_Create(t *testing.T) {
	r := registry.Default()

	assert.Equal(t, []string{"broken", "container", "feedback", "label", "notice", "page"}, r.Kinds())
	assert.Equal(t, []string{"log", "redirect", "report"}, r.BehaviorNames())

	t.Run("label", func(t *testing.T) {
		c, err := r.Create(registry.KindLabel, "title", registry.Props{"text": "Hello"})
		require.NoError(t, err)
		label, ok := c.(*registry.Label)
		require.True(t, ok)
		assert.Equal(t, "Hello", label.Text)
		assert.Equal(t, "label", label.Kind())
		assert.False(t, label.IsContainer())
	})

	t.Run("notice with weakly typed props", func(t *testing.T) {
		c, err := r.Create(registry.KindNotice, "n", registry.Props{"level": "warn", "text": 42})
		require.NoError(t, err)
		notice := c.(*registry.Notice)
		assert.Equal(t, domain.LevelWarning, notice.Level)
		assert.Equal(t, "42", notice.Text)
	})

	t.Run("bad notice level", func(t *testing.T) {
		_, err := r.Create(registry.KindNotice, "n", registry.Props{"level": "loud"})
		assert.ErrorContains(t, err, "notice 'n'")
	})

	t.Run("unknown kind", func(t *testing.T) {
		_, err := r.Create("carousel", "c", nil)
		assert.ErrorContains(t, err, "kind not found: carousel")
	})

	t.Run("overwrite", func(t *testing.T) {
		r := registry.NewRegistry()
		r.Register("x", func(id string, _ registry.Props) (tree.Component, error) { return tree.NewLeaf(id), nil })
		r.Register("x", func(id string, _ registry.Props) (tree.Component, error) { return tree.NewContainer(id), nil })
		c, err := r.Create("x", "a", nil)
		require.NoError(t, err)
		assert.True(t, c.AsNode().IsContainer())
	})
}

func TestNotice_ReportsOnInitialize(t *testing.T) {
	store := feedback.NewStore()
	page := tree.NewContainer("page")
	notice := registry.NewNotice("hint", domain.LevelInfo, "saved")
	require.NoError(t, page.Add(notice))
	feedback.Attach(page, store)

	notice.OnInitialize()

	require.Equal(t, 1, store.Len())
	for m := range store.All() {
		origin, ok := m.Origin()
		require.True(t, ok)
		assert.Same(t, notice, origin)
		assert.Equal(t, "saved", m.Text)
	}
}

func TestBroken_Panics(t *testing.T) {
	b := registry.NewBroken("b", "no model")
	assert.PanicsWithError(t, "broken component: no model", b.OnBeforeRender)
}

func TestBehaviors(t *testing.T) {
	r := registry.Default()
	ctx := context.Background()
	failure := errors.New("boom")

	t.Run("redirect shares the store", func(t *testing.T) {
		target := tree.NewContainer("error")
		env := registry.Env{Pages: func(_ context.Context, name string) (tree.Component, error) {
			assert.Equal(t, "error", name)
			return target, nil
		}}
		b, err := r.Behavior(registry.BehaviorRedirect, registry.Props{"target": "error"}, env)
		require.NoError(t, err)

		store := feedback.NewStore()
		page := tree.NewContainer("page")
		feedback.Attach(page, store)

		err = b.OnFailure(ctx, page, failure)

		var restart *tree.RestartResponse
		require.ErrorAs(t, err, &restart)
		assert.Same(t, target, restart.Page)
		got, ok := feedback.StoreOf(target)
		require.True(t, ok)
		assert.Same(t, store, got)
	})

	t.Run("redirect needs a target", func(t *testing.T) {
		_, err := r.Behavior(registry.BehaviorRedirect, nil, registry.Env{})
		assert.ErrorContains(t, err, "requires a target")
	})

	t.Run("report is scope-less", func(t *testing.T) {
		b, err := r.Behavior(registry.BehaviorReport, nil, registry.Env{})
		require.NoError(t, err)

		store := feedback.NewStore()
		page := tree.NewContainer("page")
		feedback.Attach(page, store)

		require.NoError(t, b.OnFailure(ctx, page, failure))
		require.Equal(t, 1, store.Len())
		for m := range store.All() {
			assert.True(t, m.Scopeless())
			assert.Equal(t, domain.LevelError, m.Level)
			assert.Equal(t, "boom", m.Text)
		}
	})

	t.Run("log", func(t *testing.T) {
		b, err := r.Behavior(registry.BehaviorLog, registry.Props{"level": "error"}, registry.Env{})
		require.NoError(t, err)
		assert.NoError(t, b.OnFailure(ctx, tree.NewLeaf("x"), failure))
	})

	t.Run("unknown", func(t *testing.T) {
		_, err := r.Behavior("retry", nil, registry.Env{})
		assert.ErrorContains(t, err, "behavior not found: retry")
	})
}
