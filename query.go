package fdt

import "strings"

// Nodes returns a lazy pre-order iterator over n and every descendant,
// in wire declaration order: n first, then each subtree in declaration
// order. Expressed as a Go 1.23 range-over-func iterator, since
// iter.Seq is the idiomatic form for exactly this shape and needs no
// allocation beyond the closure.
func (n *Node) Nodes() func(yield func(*Node) bool) {
	return func(yield func(*Node) bool) {
		var walk func(*Node) bool
		walk = func(cur *Node) bool {
			if !yield(cur) {
				return false
			}
			for i := range cur.Children {
				if !walk(&cur.Children[i]) {
					return false
				}
			}
			return true
		}
		walk(n)
	}
}

// FindNodeByPath walks a "/"-separated path from n (treated as root).
// An empty path returns n itself.
func (n *Node) FindNodeByPath(path string) (*Node, bool) {
	path = strings.Trim(path, "/")
	if path == "" {
		return n, true
	}
	cur := n
	for _, seg := range strings.Split(path, "/") {
		child, ok := cur.FindChild(seg)
		if !ok {
			return nil, false
		}
		cur = child
	}
	return cur, true
}

// FindCompatibleNodes performs a pre-order walk collecting every node
// whose `compatible` property contains s as an exact entry.
func (n *Node) FindCompatibleNodes(s string) []*Node {
	var out []*Node
	for node := range n.Nodes() {
		for _, entry := range node.CompatibleList() {
			if entry == s {
				out = append(out, node)
				break
			}
		}
	}
	return out
}
