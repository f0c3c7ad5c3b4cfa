// Package trie implements an immutable, copy-on-write trie keyed by byte strings.
// Each mutating operation (Put, Remove) returns a new Trie handle that shares as
// much structure as possible with the receiver; nodes are never mutated after they
// become reachable from a published root.
package trie

// Node is a single trie node: a mapping from a byte (0..255) to a child Node, plus
// an optional value. A node is value-bearing when hasValue is true; that status is
// independent of whether the node has children.
type Node struct {
	children map[byte]*Node
	hasValue bool
	value    any
}

// HasValue reports whether n carries a value.
func (n *Node) HasValue() bool {
	return n != nil && n.hasValue
}

// ChildCount returns the number of outgoing edges from n.
func (n *Node) ChildCount() int {
	if n == nil {
		return 0
	}
	return len(n.children)
}

// clone returns a new node carrying the same value and a shallow copy of n's
// children map (the child pointers are shared; only the map itself is new).
// clone(nil) returns a fresh, empty interior node, used when a path must be
// created where none existed before.
func clone(n *Node) *Node {
	if n == nil {
		return &Node{children: make(map[byte]*Node)}
	}
	children := make(map[byte]*Node, len(n.children))
	for b, c := range n.children {
		children[b] = c
	}
	return &Node{
		children: children,
		hasValue: n.hasValue,
		value:    n.value,
	}
}
