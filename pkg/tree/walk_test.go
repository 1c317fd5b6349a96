package tree_test

import (
	"testing"

	"github.com/aretw0/arbor/pkg/tree"
	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func ids(t *testing.T, root tree.Component, fn func(c tree.Component) tree.Visit) []string {
	t.Helper()
	var visited []string
	tree.Walk(root, func(c tree.Component, _ int) tree.Visit {
		visited = append(visited, c.AsNode().ID())
		if fn != nil {
			return fn(c)
		}
		return tree.Continue
	})
	return visited
}

func sample(t *testing.T) *tree.Node {
	t.Helper()
	// r
	// ├── a
	// │   ├── a1
	// │   └── a2
	// └── b
	r := tree.NewContainer("r")
	a := tree.NewContainer("a")
	require.NoError(t, a.Add(tree.NewLeaf("a1"), tree.NewLeaf("a2")))
	require.NoError(t, r.Add(a, tree.NewContainer("b")))
	return r
}

func TestWalk_PreOrder(t *testing.T) {
	got := ids(t, sample(t), nil)
	if diff := cmp.Diff([]string{"r", "a", "a1", "a2", "b"}, got); diff != "" {
		t.Errorf("walk order mismatch (-want +got):\n%s", diff)
	}
}

func TestWalk_ControlSignals(t *testing.T) {
	t.Run("SkipSubtree", func(t *testing.T) {
		got := ids(t, sample(t), func(c tree.Component) tree.Visit {
			if c.AsNode().ID() == "a" {
				return tree.SkipSubtree
			}
			return tree.Continue
		})
		assert.Equal(t, []string{"r", "a", "b"}, got)
	})

	t.Run("Stop", func(t *testing.T) {
		r := sample(t)
		var visited []string
		result := tree.Walk(r, func(c tree.Component, _ int) tree.Visit {
			visited = append(visited, c.AsNode().ID())
			if c.AsNode().ID() == "a1" {
				return tree.Stop
			}
			return tree.Continue
		})
		assert.Equal(t, tree.Stop, result)
		assert.Equal(t, []string{"r", "a", "a1"}, visited)
	})

	t.Run("Skip root", func(t *testing.T) {
		got := ids(t, sample(t), func(tree.Component) tree.Visit { return tree.SkipSubtree })
		assert.Equal(t, []string{"r"}, got)
	})
}

func TestWalk_InsertionDuringVisit(t *testing.T) {
	r := sample(t)
	a, _ := r.Get("a")

	got := ids(t, r, func(c tree.Component) tree.Visit {
		n := c.AsNode()
		switch n.ID() {
		case "a":
			// Children appended to the container about to be descended.
			require.NoError(t, n.Add(tree.NewLeaf("x"), tree.NewLeaf("y")))
		case "a1":
			// Sibling inserted behind the cursor is still visited in this walk.
			require.NoError(t, a.AsNode().Insert(0, tree.NewLeaf("front")))
		case "b":
			require.NoError(t, n.Add(tree.NewLeaf("b1")))
		}
		return tree.Continue
	})

	want := []string{"r", "a", "a1", "a2", "x", "y", "front", "b", "b1"}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("walk order mismatch (-want +got):\n%s", diff)
	}
}

func TestWalk_RemovalDuringVisit(t *testing.T) {
	t.Run("visited sibling removed", func(t *testing.T) {
		r := sample(t)
		got := ids(t, r, func(c tree.Component) tree.Visit {
			if c.AsNode().ID() == "a2" {
				_, err := r.Remove("a")
				require.NoError(t, err)
			}
			return tree.Continue
		})
		assert.Equal(t, []string{"r", "a", "a1", "a2", "b"}, got)
	})

	t.Run("node detaching itself is not descended", func(t *testing.T) {
		r := sample(t)
		got := ids(t, r, func(c tree.Component) tree.Visit {
			if c.AsNode().ID() == "a" {
				require.NoError(t, c.AsNode().RemoveSelf())
			}
			return tree.Continue
		})
		assert.Equal(t, []string{"r", "a", "b"}, got)
	})

	t.Run("unvisited sibling removed", func(t *testing.T) {
		r := sample(t)
		got := ids(t, r, func(c tree.Component) tree.Visit {
			if c.AsNode().ID() == "a1" {
				_, err := r.Remove("b")
				require.NoError(t, err)
			}
			return tree.Continue
		})
		assert.Equal(t, []string{"r", "a", "a1", "a2"}, got)
	})
}

func TestWalkOf(t *testing.T) {
	r := sample(t)
	l := &labelKind{}
	l.InitLeaf(l, "label")
	require.NoError(t, r.Add(l))

	var found []string
	tree.WalkOf(r, func(k *labelKind, depth int) tree.Visit {
		found = append(found, k.ID())
		assert.Equal(t, 1, depth)
		return tree.Continue
	})
	assert.Equal(t, []string{"label"}, found)
}

func TestAll(t *testing.T) {
	var got []string
	for c := range tree.All(sample(t)) {
		got = append(got, c.AsNode().ID())
		if len(got) == 3 {
			break
		}
	}
	assert.Equal(t, []string{"r", "a", "a1"}, got)
}

func TestDump(t *testing.T) {
	r := sample(t)
	r.OnInitialize()
	out := tree.Dump(r)
	assert.Contains(t, out, "r (*tree.Node) initialized\n")
	assert.Contains(t, out, "    a1 (*tree.Node) uninitialized\n")
}
