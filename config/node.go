package config

import (
	"slices"
	"strings"
)

// RootName is the name given to the root of every loaded tree.
const RootName = "root"

// Node is an element of a configuration tree. A node is either a named
// container of ordered children or a named leaf holding a string value.
//
// Trees are built by the loaders and are read-only afterwards, so a tree can
// be shared by concurrent readers without locking.
type Node struct {
	name     string
	value    string
	leaf     bool
	parent   *Node
	children []*Node
}

// New returns an empty container node.
func New(name string) *Node {
	return &Node{name: name}
}

// AddNode appends and returns a new container child.
func (n *Node) AddNode(name string) *Node {
	child := &Node{name: name, parent: n}
	n.children = append(n.children, child)

	return child
}

// AddValue appends and returns a new leaf child.
func (n *Node) AddValue(name, value string) *Node {
	child := &Node{name: name, value: value, leaf: true, parent: n}
	n.children = append(n.children, child)

	return child
}

// Name returns the node's name.
func (n *Node) Name() string { return n.name }

// Text returns the value of a leaf, or the empty string for a container.
func (n *Node) Text() string { return n.value }

// Parent returns the parent of n, or nil at the root.
func (n *Node) Parent() *Node { return n.parent }

// Root returns the top of the tree containing n.
func (n *Node) Root() *Node {
	for n.parent != nil {
		n = n.parent
	}

	return n
}

// Path returns the dotted names from the root to n, excluding the root.
func (n *Node) Path() string {
	var names []string
	for p := n; p.parent != nil; p = p.parent {
		names = append(names, p.name)
	}

	slices.Reverse(names)

	return strings.Join(names, ".")
}

// Children returns all children of n in document order.
func (n *Node) Children() []*Node { return n.children }

// Nodes returns the container children named name in document order.
func (n *Node) Nodes(name string) []*Node {
	return n.filter(name, false)
}

// Node returns the first container child named name, or nil.
func (n *Node) Node(name string) *Node {
	for _, c := range n.children {
		if !c.leaf && c.name == name {
			return c
		}
	}

	return nil
}

// Values returns the leaf children named name in document order.
func (n *Node) Values(name string) []*Node {
	return n.filter(name, true)
}

// Value returns the first leaf child named name. A leaf asked for its own
// name answers with its own value, so a template iterating over values can
// read the current one by name.
func (n *Node) Value(name string) (string, bool) {
	if n.leaf {
		if n.name == name {
			return n.value, true
		}

		return "", false
	}

	for _, c := range n.children {
		if c.leaf && c.name == name {
			return c.value, true
		}
	}

	return "", false
}

// Names returns the distinct child names of n in first-seen order.
func (n *Node) Names() []string {
	names := make([]string, 0, len(n.children))

	for _, c := range n.children {
		if !slices.Contains(names, c.name) {
			names = append(names, c.name)
		}
	}

	return names
}

func (n *Node) filter(name string, leaf bool) []*Node {
	var out []*Node

	for _, c := range n.children {
		if c.leaf == leaf && c.name == name {
			out = append(out, c)
		}
	}

	return out
}

// Merge moves the children of src to the end of dst. src is left empty.
func Merge(dst, src *Node) {
	for _, c := range src.children {
		c.parent = dst
		dst.children = append(dst.children, c)
	}

	src.children = nil
}
