package tree

// SetMeta attaches a value to the node under key. Keys should be values of
// unexported types owned by the package that reads them. A nil value deletes.
func (n *Node) SetMeta(key, value any) {
	if value == nil {
		delete(n.meta, key)
		return
	}
	if n.meta == nil {
		n.meta = make(map[any]any)
	}
	n.meta[key] = value
}

// Meta returns the value attached under key.
func (n *Node) Meta(key any) (any, bool) {
	v, ok := n.meta[key]
	return v, ok
}

// InheritedMeta returns the value under key on n or its nearest ancestor.
func (n *Node) InheritedMeta(key any) (any, bool) {
	for cur := n; cur != nil; cur = cur.parent {
		if v, ok := cur.meta[key]; ok {
			return v, true
		}
	}
	return nil, false
}
