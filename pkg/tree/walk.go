package tree

import (
	"fmt"
	"iter"
	"strings"
)

// Visit is the control signal returned by a walk callback.
type Visit int

const (
	// Continue descends into the visited node if it is a container.
	Continue Visit = iota
	// SkipSubtree moves on to the next sibling without descending.
	SkipSubtree
	// Stop aborts the whole walk.
	Stop
)

// VisitFunc is called once per visited node with its depth below the walk root.
type VisitFunc func(c Component, depth int) Visit

// frame tracks iteration over one container. The cursor is only a hint: the
// children are re-read on every step, so children inserted by the callback are
// still visited and removed ones are skipped.
type frame struct {
	parent *Node
	cursor int
	last   *Node
	seen   map[*Node]struct{}
}

func newFrame(parent *Node) *frame {
	return &frame{parent: parent, seen: make(map[*Node]struct{})}
}

func (f *frame) next() *Node {
	kids := f.parent.children
	if len(kids) == 0 {
		return nil
	}
	if f.last != nil && (f.cursor == 0 || f.cursor > len(kids) || kids[f.cursor-1].AsNode() != f.last) {
		// The previous child moved or was removed.
		f.cursor = f.parent.indexOf(f.last) + 1
	}
	for k := range len(kids) {
		i := (f.cursor + k) % len(kids)
		c := kids[i].AsNode()
		if _, done := f.seen[c]; done {
			continue
		}
		f.seen[c] = struct{}{}
		f.cursor = i + 1
		f.last = c
		return c
	}
	return nil
}

// Walk visits root and its descendants in pre-order and returns Stop if the
// callback aborted the walk. It is safe against mutation by the callback:
// children added to a container that is being iterated are visited in their
// insertion position before the walk leaves that container.
func Walk(root Component, fn VisitFunc) Visit {
	if root == nil {
		return Continue
	}
	r := root.AsNode()
	switch fn(r.This(), 0) {
	case Stop:
		return Stop
	case SkipSubtree:
		return Continue
	}
	if !r.IsContainer() {
		return Continue
	}

	stack := []*frame{newFrame(r)}
	for len(stack) > 0 {
		top := stack[len(stack)-1]
		child := top.next()
		if child == nil {
			stack = stack[:len(stack)-1]
			continue
		}
		switch fn(child.This(), len(stack)) {
		case Stop:
			return Stop
		case SkipSubtree:
			continue
		}
		// A node detached by its own callback is not descended into.
		if child.IsContainer() && child.parent == top.parent {
			stack = append(stack, newFrame(child))
		}
	}
	return Continue
}

// WalkOf walks like Walk but only calls fn for components of type T.
func WalkOf[T any](root Component, fn func(T, int) Visit) Visit {
	return Walk(root, func(c Component, depth int) Visit {
		if t, ok := c.(T); ok {
			return fn(t, depth)
		}
		return Continue
	})
}

// All yields root and its descendants in pre-order.
func All(root Component) iter.Seq[Component] {
	return func(yield func(Component) bool) {
		Walk(root, func(c Component, _ int) Visit {
			if !yield(c) {
				return Stop
			}
			return Continue
		})
	}
}

// Dump renders the subtree as an indented outline, one node per line.
func Dump(root Component) string {
	var sb strings.Builder
	Walk(root, func(c Component, depth int) Visit {
		n := c.AsNode()
		state := "uninitialized"
		if n.Initialized() {
			state = "initialized"
		}
		fmt.Fprintf(&sb, "%s%s (%s) %s\n", strings.Repeat("  ", depth), n.id, n.Kind(), state)
		return Continue
	})
	return sb.String()
}

// VisitParents calls fn for each ancestor of c, nearest first, and returns
// Stop if fn stopped the walk. SkipSubtree behaves like Continue.
func VisitParents(c Component, fn func(parent Component) Visit) Visit {
	if c == nil {
		return Continue
	}
	for cur := c.AsNode().parent; cur != nil; cur = cur.parent {
		if fn(cur.This()) == Stop {
			return Stop
		}
	}
	return Continue
}
