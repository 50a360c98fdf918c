package tree

import (
	"context"
	"fmt"
	"strings"
)

// Tree represents a binary decision tree over quantized features. Its
// nodes live in an arena owned by the tree and reference each other by
// Handle, so dropping the tree or purging it releases every node at once.
type Tree struct {
	Name  string
	nodes []Node
	root  Handle
}

// Stats holds the size figures of a tree.
type Stats struct {
	Nodes  int
	Leaves int
	// Depth is the number of levels of the tree: 1 for a single leaf,
	// 0 for an empty tree.
	Depth int
}

// New returns an empty tree with the given name.
func New(name string) *Tree {
	return &Tree{Name: name, root: None}
}

// NewLeaf returns a tree made of a single leaf predicting label.
func NewLeaf(name string, label uint8) *Tree {
	t := New(name)
	t.root = t.add(Node{Header: Header{Label: label, Leaf: true}, Left: None, Right: None})
	return t
}

// FromNodes takes a name, a node arena and the handle of its root and
// returns the tree they make up. It returns an error if a handle
// reachable from the root is out of the arena or if a node is
// reachable through more than one path.
func FromNodes(name string, nodes []Node, root Handle) (*Tree, error) {
	t := &Tree{Name: name, nodes: append([]Node(nil), nodes...), root: root}
	if len(nodes) == 0 && root == None {
		return t, nil
	}
	seen := make([]bool, len(nodes))
	pending := []Handle{root}
	for len(pending) > 0 {
		h := pending[len(pending)-1]
		pending = pending[:len(pending)-1]
		n, ok := t.Node(h)
		if !ok {
			return nil, fmt.Errorf("tree %q references missing node %d", name, h)
		}
		if seen[h] {
			return nil, fmt.Errorf("tree %q reaches node %d more than once", name, h)
		}
		seen[h] = true
		if !n.Leaf {
			pending = append(pending, n.Right, n.Left)
		}
	}
	return t, nil
}

func (t *Tree) add(n Node) Handle {
	t.nodes = append(t.nodes, n)
	return Handle(len(t.nodes) - 1)
}

// Root returns the handle of the root node, None if the tree is empty.
func (t *Tree) Root() Handle {
	if t == nil {
		return None
	}
	return t.root
}

// Node takes a handle and returns the node it references and whether
// it exists.
func (t *Tree) Node(h Handle) (Node, bool) {
	if t == nil || h < 0 || int(h) >= len(t.nodes) {
		return Node{}, false
	}
	return t.nodes[h], true
}

// Len returns the number of nodes in the tree.
func (t *Tree) Len() int {
	if t == nil {
		return 0
	}
	return len(t.nodes)
}

// Empty returns whether the tree has no root.
func (t *Tree) Empty() bool {
	return t == nil || t.root == None || len(t.nodes) == 0
}

// Purge drops every node of the tree.
func (t *Tree) Purge() {
	t.nodes = nil
	t.root = None
}

/*
Classify takes the quantized features of a sample and walks the tree
from its root to a leaf, returning the leaf's label. It returns
ErrEmptyTree for empty trees and ErrMissingFeature if the sample lacks a
feature the path needs.
*/
func (t *Tree) Classify(features []uint8) (uint8, error) {
	if t.Empty() {
		return NoLabel, ErrEmptyTree
	}
	h := t.root
	for steps := 0; steps <= len(t.nodes); steps++ {
		n, ok := t.Node(h)
		if !ok {
			return NoLabel, fmt.Errorf("dangling node handle %d", h)
		}
		if n.Leaf {
			return n.Label, nil
		}
		if int(n.Feature) >= len(features) {
			return NoLabel, ErrMissingFeature
		}
		if features[n.Feature] <= n.Threshold {
			h = n.Left
		} else {
			h = n.Right
		}
	}
	return NoLabel, fmt.Errorf("tree %q has a cycle", t.Name)
}

// Predict is like Classify but returns NoLabel instead of an error.
func (t *Tree) Predict(features []uint8) uint8 {
	label, err := t.Classify(features)
	if err != nil {
		return NoLabel
	}
	return label
}

// Traverse takes a context, bottomup boolean and an
// error-returning function and goes through the tree calling
// the function with the context, the handle and the node of
// every traversed node. Parents are visited before their
// children unless bottomup is true, and left subtrees always
// before right ones. Traversing stops at the first error
// returned by the function or by the context.
func (t *Tree) Traverse(ctx context.Context, bottomup bool, f func(context.Context, Handle, Node) error) error {
	if t.Empty() {
		return nil
	}
	return t.traverse(ctx, t.root, bottomup, f)
}

func (t *Tree) traverse(ctx context.Context, h Handle, bottomup bool, f func(context.Context, Handle, Node) error) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	n, ok := t.Node(h)
	if !ok {
		return fmt.Errorf("dangling node handle %d", h)
	}
	if !bottomup {
		if err := f(ctx, h, n); err != nil {
			return err
		}
	}
	if !n.Leaf {
		if err := t.traverse(ctx, n.Left, bottomup, f); err != nil {
			return err
		}
		if err := t.traverse(ctx, n.Right, bottomup, f); err != nil {
			return err
		}
	}
	if bottomup {
		return f(ctx, h, n)
	}
	return nil
}

// Stats returns the node count, leaf count and depth of the tree.
func (t *Tree) Stats() Stats {
	var s Stats
	if t.Empty() {
		return s
	}
	s.Depth = t.stats(t.root, &s)
	return s
}

func (t *Tree) stats(h Handle, s *Stats) int {
	n, ok := t.Node(h)
	if !ok {
		return 0
	}
	s.Nodes++
	if n.Leaf {
		s.Leaves++
		return 1
	}
	l := t.stats(n.Left, s)
	r := t.stats(n.Right, s)
	if r > l {
		l = r
	}
	return l + 1
}

func (t *Tree) String() string {
	if t.Empty() {
		return "[empty]\n"
	}
	return t.subtreeString(t.root)
}

func (t *Tree) subtreeString(h Handle) string {
	n, ok := t.Node(h)
	if !ok {
		return fmt.Sprintf("ERROR: dangling node handle %d\n", h)
	}
	result := fmt.Sprintf("[%d]\n{ %v }\n", h, n)
	if n.Leaf {
		return result + " \n"
	}
	result += "|\n"
	children := []Handle{n.Left, n.Right}
	for i, child := range children {
		for j, line := range strings.Split(t.subtreeString(child), "\n") {
			if len(line) == 0 {
				continue
			}
			switch {
			case j == 0:
				result = fmt.Sprintf("%s|__%s\n", result, line)
			case i == len(children)-1:
				result = fmt.Sprintf("%s   %s\n", result, line)
			default:
				result = fmt.Sprintf("%s|  %s\n", result, line)
			}
		}
	}
	return result
}
