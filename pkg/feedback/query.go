package feedback

import (
	"iter"

	"github.com/aretw0/arbor/pkg/tree"
)

// Query yields, in report order, the messages of store visible to c.
//
// Candidacy is derived from the live tree on every call. A message with an
// origin is a candidate when walking up from the origin (inclusive) reaches
// the collector's scope root before any other active fence. Scope-less
// messages, and messages whose origin is no longer attached under the
// collector's root, are candidates only for unfenced collectors scoped at the
// absolute root. The collector filter is applied last and affects only c.
func Query(store *Store, c *Collector) iter.Seq[*Message] {
	return func(yield func(*Message) bool) {
		if store == nil || c == nil {
			return
		}
		root := c.Root().AsNode()
		scope := c.ScopeRoot().AsNode()
		catchAll := !c.fence && scope == root
		fences := activeFences(root)

		for _, m := range store.messages {
			origin, err := m.resolve(root)
			if err != nil {
				store.logger.Debug("feedback origin unresolved, scoping as session message", "err", err)
			}

			var visible bool
			if origin == nil {
				visible = catchAll
			} else {
				visible = reaches(origin, scope, fences)
			}
			if !visible {
				continue
			}
			if c.filter != nil && !c.filter.Accept(m) {
				continue
			}
			if !yield(m) {
				return
			}
		}
	}
}

// reaches walks up from origin and reports whether scope is met before any
// fence other than scope.
func reaches(origin, scope *tree.Node, fences map[*tree.Node]struct{}) bool {
	for cur := tree.Component(origin); cur != nil; cur = cur.AsNode().Parent() {
		n := cur.AsNode()
		if n == scope {
			return true
		}
		if _, fenced := fences[n]; fenced {
			return false
		}
	}
	return false
}

// activeFences collects the scope roots of every fencing collector attached
// under root.
func activeFences(root *tree.Node) map[*tree.Node]struct{} {
	fences := make(map[*tree.Node]struct{})
	tree.WalkOf(root, func(f fencer, _ int) tree.Visit {
		if f.IsFence() {
			fences[f.ScopeRoot().AsNode()] = struct{}{}
		}
		return tree.Continue
	})
	return fences
}

// Fences returns the fenced scope roots of c's tree, in the pre-order of the
// fencing collectors.
func Fences(c tree.Component) []tree.Component {
	var out []tree.Component
	seen := make(map[*tree.Node]struct{})
	tree.WalkOf(c.AsNode().Root(), func(f fencer, _ int) tree.Visit {
		if !f.IsFence() {
			return tree.Continue
		}
		scope := f.ScopeRoot()
		if _, dup := seen[scope.AsNode()]; !dup {
			seen[scope.AsNode()] = struct{}{}
			out = append(out, scope)
		}
		return tree.Continue
	})
	return out
}
