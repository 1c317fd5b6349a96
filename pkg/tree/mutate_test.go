package tree_test

import (
	"testing"

	"github.com/aretw0/arbor/pkg/domain"
	"github.com/aretw0/arbor/pkg/tree"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNode_AddAndLookup(t *testing.T) {
	page := tree.NewContainer("page")
	form := tree.NewContainer("form")
	input := tree.NewLeaf("input")

	require.NoError(t, page.Add(form))
	require.NoError(t, form.Add(input))

	got, ok := page.Lookup("form:input")
	require.True(t, ok)
	assert.Same(t, input, got)
	assert.Equal(t, "form:input", input.Path())
	assert.Equal(t, "page:form:input", input.Address())
	assert.Same(t, page, input.Root())
	assert.True(t, page.IsAncestorOf(input))
	assert.False(t, input.IsAncestorOf(page))
	assert.Equal(t, "", page.Path())
}

func TestNode_DuplicateID(t *testing.T) {
	page := tree.NewContainer("page")
	require.NoError(t, page.Add(tree.NewLeaf("label")))

	err := page.Add(tree.NewLeaf("label"))

	var dup *domain.DuplicateIDError
	require.ErrorAs(t, err, &dup)
	assert.Equal(t, "label", dup.ID)
	assert.Equal(t, 1, page.Len())
}

func TestNode_CycleRejected(t *testing.T) {
	a := tree.NewContainer("a")
	b := tree.NewContainer("b")
	require.NoError(t, a.Add(b))

	var cycle *domain.CycleError
	assert.ErrorAs(t, b.Add(a), &cycle, "ancestor below its descendant")
	assert.ErrorAs(t, a.Add(a), &cycle, "node below itself")

	// The failed insertion must not have detached anything.
	assert.Same(t, a, b.Parent())
	assert.Nil(t, a.Parent())
}

func TestNode_LeafRejectsChildren(t *testing.T) {
	leaf := tree.NewLeaf("leaf")
	assert.ErrorIs(t, leaf.Add(tree.NewLeaf("x")), domain.ErrNotContainer)
	_, err := leaf.Remove("x")
	assert.ErrorIs(t, err, domain.ErrNotContainer)
}

func TestNode_RelocateKeepsInitialized(t *testing.T) {
	left := tree.NewContainer("left")
	right := tree.NewContainer("right")
	moving := tree.NewLeaf("moving")
	require.NoError(t, left.Add(moving))
	moving.OnInitialize()

	require.NoError(t, right.Add(moving))

	assert.Equal(t, 0, left.Len())
	assert.Same(t, right, moving.Parent())
	assert.True(t, moving.Initialized())
}

func TestNode_RemoveAndReplace(t *testing.T) {
	page := tree.NewContainer("page")
	first := tree.NewLeaf("first")
	panel := tree.NewContainer("panel")
	last := tree.NewLeaf("last")
	require.NoError(t, page.Add(first, panel, last))

	t.Run("ReplaceWith keeps position", func(t *testing.T) {
		empty := tree.NewContainer("panel")
		require.NoError(t, panel.ReplaceWith(empty))

		assert.Equal(t, []tree.Component{first, empty, last}, page.Children())
		assert.Nil(t, panel.Parent())
		assert.Same(t, page, empty.Parent())

		require.NoError(t, empty.ReplaceWith(panel))
		assert.Equal(t, []tree.Component{first, panel, last}, page.Children())
	})

	t.Run("ReplaceWith requires matching id", func(t *testing.T) {
		assert.Error(t, panel.ReplaceWith(tree.NewContainer("other")))
	})

	t.Run("Replace unknown id", func(t *testing.T) {
		var nf *domain.ChildNotFoundError
		assert.ErrorAs(t, page.Replace(tree.NewLeaf("missing")), &nf)
	})

	t.Run("Remove", func(t *testing.T) {
		removed, err := page.Remove("first")
		require.NoError(t, err)
		assert.Same(t, first, removed)
		assert.True(t, first.IsRoot())
		_, ok := page.Get("first")
		assert.False(t, ok)

		require.NoError(t, last.RemoveSelf())
		assert.ErrorIs(t, last.RemoveSelf(), domain.ErrDetached)
		assert.Equal(t, []tree.Component{panel}, page.Children())
	})
}

func TestNode_Insert(t *testing.T) {
	page := tree.NewContainer("page")
	a, b, c := tree.NewLeaf("a"), tree.NewLeaf("b"), tree.NewLeaf("c")
	require.NoError(t, page.Add(a, c))
	require.NoError(t, page.Insert(1, b))

	var ids []string
	for _, child := range page.Children() {
		ids = append(ids, child.AsNode().ID())
	}
	assert.Equal(t, []string{"a", "b", "c"}, ids)
}

type labelKind struct {
	tree.Node
}

func TestNode_KindAndInit(t *testing.T) {
	l := &labelKind{}
	l.InitLeaf(l, "label")

	assert.Equal(t, "*tree_test.labelKind", l.Kind())
	assert.Same(t, l, l.This())
	assert.NotZero(t, l.Token())

	l.SetKind("label")
	assert.Equal(t, "label", l.Kind())

	assert.Panics(t, func() {
		other := &labelKind{}
		l.Init(other, "wrong")
	})
}
