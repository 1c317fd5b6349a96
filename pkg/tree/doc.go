/*
Package tree implements the component tree: nodes with sibling-unique ids, a
single owning parent, ordered children and attached behaviors.

Kinds are defined by embedding Node and overriding hooks:

	type Counter struct {
		tree.Node
		count int
	}

	func NewCounter(id string) *Counter {
		c := &Counter{}
		c.Init(c, id)
		return c
	}

	func (c *Counter) OnInitialize() {
		c.Node.OnInitialize() // required
		c.count++
	}

Walk performs a pre-order traversal that tolerates structural mutation by its
own callback, which is what the lifecycle runtime relies on when
initialization hooks add children.
*/
package tree
