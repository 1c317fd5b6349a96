package feedback

import (
	"slices"

	"github.com/aretw0/arbor/pkg/domain"
	"github.com/aretw0/arbor/pkg/tree"
)

// Filter narrows the candidate messages of a single collector.
type Filter interface {
	Accept(m *Message) bool
}

// FilterFunc adapts a function to the Filter interface.
type FilterFunc func(m *Message) bool

// Accept implements Filter.
func (f FilterFunc) Accept(m *Message) bool { return f(m) }

// MinLevel accepts messages at level or above.
func MinLevel(level domain.Level) Filter {
	return FilterFunc(func(m *Message) bool {
		return m.Level >= level
	})
}

// ExactLevels accepts messages whose level is one of levels.
func ExactLevels(levels ...domain.Level) Filter {
	return FilterFunc(func(m *Message) bool {
		return slices.Contains(levels, m.Level)
	})
}

// OriginIn accepts messages reported by c or one of its descendants.
// Scope-less messages and messages whose origin is gone are rejected.
func OriginIn(c tree.Component) Filter {
	return FilterFunc(func(m *Message) bool {
		origin, ok := m.Origin()
		if !ok {
			return false
		}
		return origin.AsNode() == c.AsNode() || c.AsNode().IsAncestorOf(origin)
	})
}

// And accepts messages accepted by every filter.
func And(filters ...Filter) Filter {
	return FilterFunc(func(m *Message) bool {
		for _, f := range filters {
			if f != nil && !f.Accept(m) {
				return false
			}
		}
		return true
	})
}

// Or accepts messages accepted by at least one filter.
func Or(filters ...Filter) Filter {
	return FilterFunc(func(m *Message) bool {
		for _, f := range filters {
			if f != nil && f.Accept(m) {
				return true
			}
		}
		return false
	})
}

// Not inverts f.
func Not(f Filter) Filter {
	return FilterFunc(func(m *Message) bool {
		return !f.Accept(m)
	})
}
