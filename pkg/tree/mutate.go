package tree

import (
	"fmt"
	"slices"

	"github.com/aretw0/arbor/pkg/domain"
)

// Add appends children in order. A child that already has a parent is
// relocated. Children before a failing one stay added.
func (n *Node) Add(children ...Component) error {
	for _, child := range children {
		if err := n.Insert(len(n.children), child); err != nil {
			return err
		}
	}
	return nil
}

// Insert places child at position index (clamped to the current bounds).
func (n *Node) Insert(index int, child Component) error {
	if child == nil {
		return fmt.Errorf("cannot add a nil child to '%s'", n.Address())
	}
	c := child.AsNode()
	if err := n.checkInsert(c); err != nil {
		return err
	}
	if existing, ok := n.index[c.id]; ok {
		return &domain.DuplicateIDError{Parent: n.Address(), ID: existing.AsNode().id}
	}

	if c.parent != nil {
		c.parent.detach(c)
	}
	index = max(0, min(index, len(n.children)))
	n.children = slices.Insert(n.children, index, c.This())
	n.index[c.id] = c.This()
	c.parent = n
	return nil
}

// Remove detaches the child with the given id and returns it.
func (n *Node) Remove(id string) (Component, error) {
	if !n.IsContainer() {
		return nil, domain.ErrNotContainer
	}
	child, ok := n.index[id]
	if !ok {
		return nil, &domain.ChildNotFoundError{Parent: n.Address(), ID: id}
	}
	n.detach(child.AsNode())
	return child, nil
}

// RemoveSelf detaches n from its parent.
func (n *Node) RemoveSelf() error {
	if n.parent == nil {
		return domain.ErrDetached
	}
	n.parent.detach(n)
	return nil
}

// Replace swaps the current child that has child's id for child, keeping its
// position. The previous child is detached.
func (n *Node) Replace(child Component) error {
	if !n.IsContainer() {
		return domain.ErrNotContainer
	}
	if child == nil {
		return fmt.Errorf("cannot replace a child of '%s' with nil", n.Address())
	}
	c := child.AsNode()
	old, ok := n.index[c.id]
	if !ok {
		return &domain.ChildNotFoundError{Parent: n.Address(), ID: c.id}
	}
	if old.AsNode() == c {
		return nil
	}
	if err := n.checkInsert(c); err != nil {
		return err
	}

	if c.parent != nil {
		c.parent.detach(c)
	}
	pos := n.indexOf(old.AsNode())
	n.children[pos] = c.This()
	n.index[c.id] = c.This()
	old.AsNode().parent = nil
	c.parent = n
	return nil
}

// ReplaceWith puts replacement in n's place. Both must share the same id.
func (n *Node) ReplaceWith(replacement Component) error {
	if n.parent == nil {
		return domain.ErrDetached
	}
	if replacement == nil {
		return fmt.Errorf("cannot replace '%s' with nil", n.Address())
	}
	if rid := replacement.AsNode().id; rid != n.id {
		return fmt.Errorf("replacement id '%s' does not match '%s'", rid, n.id)
	}
	return n.parent.Replace(replacement)
}

func (n *Node) checkInsert(c *Node) error {
	if !n.IsContainer() {
		return domain.ErrNotContainer
	}
	if c == n || c.IsAncestorOf(n) {
		return &domain.CycleError{Parent: n.Address(), Child: c.id}
	}
	return nil
}

func (n *Node) detach(c *Node) {
	pos := n.indexOf(c)
	if pos < 0 {
		return
	}
	n.children = slices.Delete(n.children, pos, pos+1)
	delete(n.index, c.id)
	c.parent = nil
}
