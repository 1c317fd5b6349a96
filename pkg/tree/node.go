package tree

import (
	"fmt"
	"iter"
	"strings"
	"sync/atomic"
)

// Component is implemented by every node kind in a tree.
//
// Kinds embed Node and override the hooks they care about. Overrides must
// call the embedded implementation (for example c.Node.OnInitialize()); the
// runtime verifies this right after the hook returns and reports a
// domain.LifecycleContractViolation otherwise.
type Component interface {
	// AsNode returns the embedded base node.
	AsNode() *Node

	// OnInitialize runs exactly once, before the node is first used.
	// Containers may add children here.
	OnInitialize()

	// OnPageInitialize runs at most once on the root of a render entry,
	// before its first initialization pass.
	OnPageInitialize()

	// OnBeforeRender runs before every render of the node. It may mutate the tree.
	OnBeforeRender()
}

// LatePreparer is implemented by kinds whose OnBeforeRender must run after
// every other visible node of the page ran its own, such as feedback
// collectors that display what the other nodes report while preparing.
type LatePreparer interface {
	Component
	PrepareLate()
}

type flag uint8

const (
	flagInitialized flag = 1 << iota
	flagPageInitialized
	flagContainer
	flagHidden
	flagOutputStableID
)

var tokenSeq atomic.Uint64

// Node is the base of every component: an id unique among its siblings, a
// single parent, a flag set and, for containers, an ordered id-keyed list of
// children.
type Node struct {
	id     string
	kind   string
	token  uint64
	parent *Node
	this   Component
	flags  flag

	children []Component
	index    map[string]Component

	behaviors []Behavior
	meta      map[any]any
}

var _ Component = (*Node)(nil)

// NewContainer creates a plain container node.
func NewContainer(id string) *Node {
	n := &Node{}
	n.Init(n, id)
	return n
}

// NewLeaf creates a plain leaf node.
func NewLeaf(id string) *Node {
	n := &Node{}
	n.InitLeaf(n, id)
	return n
}

// Init prepares n as a container. this must be the value embedding n, so the
// runtime can call its overriding hooks.
func (n *Node) Init(this Component, id string) {
	n.init(this, id, true)
}

// InitLeaf prepares n as a leaf. See Init.
func (n *Node) InitLeaf(this Component, id string) {
	n.init(this, id, false)
}

func (n *Node) init(this Component, id string, container bool) {
	if this == nil {
		this = n
	}
	if this.AsNode() != n {
		panic(fmt.Sprintf("tree: Init of '%s' called with a component that does not embed this node", id))
	}
	n.this = this
	n.id = id
	n.token = tokenSeq.Add(1)
	if container {
		n.flags |= flagContainer
		n.index = make(map[string]Component)
	}
}

// AsNode implements Component.
func (n *Node) AsNode() *Node { return n }

// OnInitialize implements Component. It marks the node as initialized.
func (n *Node) OnInitialize() {
	n.flags |= flagInitialized
}

// OnPageInitialize implements Component. It marks the page hook as done.
func (n *Node) OnPageInitialize() {
	n.flags |= flagPageInitialized
}

// OnBeforeRender implements Component.
func (n *Node) OnBeforeRender() {}

// This returns the outermost component value embedding n.
func (n *Node) This() Component {
	if n.this == nil {
		return n
	}
	return n.this
}

// ID returns the sibling-unique identifier.
func (n *Node) ID() string { return n.id }

// Token returns a process-unique identity for the node.
func (n *Node) Token() uint64 { return n.token }

// Kind names the concrete component type, unless overridden with SetKind.
func (n *Node) Kind() string {
	if n.kind != "" {
		return n.kind
	}
	return fmt.Sprintf("%T", n.This())
}

// SetKind overrides the reported kind (used by registry-built nodes).
func (n *Node) SetKind(kind string) { n.kind = kind }

// Initialized reports whether OnInitialize has completed. It never resets.
func (n *Node) Initialized() bool { return n.flags&flagInitialized != 0 }

// PageInitialized reports whether OnPageInitialize has completed.
func (n *Node) PageInitialized() bool { return n.flags&flagPageInitialized != 0 }

// IsContainer reports whether the node can hold children.
func (n *Node) IsContainer() bool { return n.flags&flagContainer != 0 }

// Visible reports whether the node takes part in rendering.
func (n *Node) Visible() bool { return n.flags&flagHidden == 0 }

// SetVisible toggles rendering of the node and its subtree.
func (n *Node) SetVisible(visible bool) {
	if visible {
		n.flags &^= flagHidden
	} else {
		n.flags |= flagHidden
	}
}

// OutputStableID is passed through to renderers untouched.
func (n *Node) OutputStableID() bool { return n.flags&flagOutputStableID != 0 }

// SetOutputStableID sets the output-stable-id flag.
func (n *Node) SetOutputStableID(v bool) {
	if v {
		n.flags |= flagOutputStableID
	} else {
		n.flags &^= flagOutputStableID
	}
}

// Parent returns the owning container, or nil for a root.
func (n *Node) Parent() Component {
	if n.parent == nil {
		return nil
	}
	return n.parent.This()
}

// IsRoot reports whether the node has no parent.
func (n *Node) IsRoot() bool { return n.parent == nil }

// Root returns the topmost ancestor (n itself for a root).
func (n *Node) Root() Component {
	cur := n
	for cur.parent != nil {
		cur = cur.parent
	}
	return cur.This()
}

// Ancestors yields the parent chain upward, excluding n.
// The chain is recomputed from live parent references on every call.
func (n *Node) Ancestors() iter.Seq[Component] {
	return func(yield func(Component) bool) {
		for cur := n.parent; cur != nil; cur = cur.parent {
			if !yield(cur.This()) {
				return
			}
		}
	}
}

// IsAncestorOf reports whether n lies strictly above c.
func (n *Node) IsAncestorOf(c Component) bool {
	if c == nil {
		return false
	}
	for cur := c.AsNode().parent; cur != nil; cur = cur.parent {
		if cur == n {
			return true
		}
	}
	return false
}

// Path returns the colon separated ids from the root (excluded) down to n.
// The root's path is empty.
func (n *Node) Path() string {
	var ids []string
	for cur := n; cur.parent != nil; cur = cur.parent {
		ids = append(ids, cur.id)
	}
	for i, j := 0, len(ids)-1; i < j; i, j = i+1, j-1 {
		ids[i], ids[j] = ids[j], ids[i]
	}
	return strings.Join(ids, ":")
}

// Address is the path prefixed with the root id, used in logs and errors.
func (n *Node) Address() string {
	root := n.Root().AsNode()
	if root == n {
		return n.id
	}
	return root.id + ":" + n.Path()
}

func (n *Node) String() string {
	return fmt.Sprintf("[%s path=%s]", n.Kind(), n.Address())
}

// Len returns the number of children.
func (n *Node) Len() int { return len(n.children) }

// Child returns the child at position i.
func (n *Node) Child(i int) Component { return n.children[i] }

// Children returns a copy of the current ordered children.
func (n *Node) Children() []Component {
	out := make([]Component, len(n.children))
	copy(out, n.children)
	return out
}

// Get returns the child with the given id.
func (n *Node) Get(id string) (Component, bool) {
	c, ok := n.index[id]
	return c, ok
}

// Lookup resolves a colon separated path relative to n.
func (n *Node) Lookup(path string) (Component, bool) {
	if path == "" {
		return n.This(), true
	}
	cur := n
	for _, id := range strings.Split(path, ":") {
		child, ok := cur.Get(id)
		if !ok {
			return nil, false
		}
		cur = child.AsNode()
	}
	return cur.This(), true
}

func (n *Node) indexOf(child *Node) int {
	for i, c := range n.children {
		if c.AsNode() == child {
			return i
		}
	}
	return -1
}
