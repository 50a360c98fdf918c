package tree

import (
	"context"
	"strings"
	"testing"
)

func handTree(t *testing.T) *Tree {
	nodes := []Node{
		{Header: Header{Threshold: 1}, Feature: 0, Left: 1, Right: 2},
		{Header: Header{Label: 0, Leaf: true}, Left: None, Right: None},
		{Header: Header{Threshold: 0}, Feature: 2, Left: 3, Right: 4},
		{Header: Header{Label: 1, Leaf: true}, Left: None, Right: None},
		{Header: Header{Label: 2, Leaf: true}, Left: None, Right: None},
	}
	tr, err := FromNodes("hand", nodes, 0)
	if err != nil {
		t.Fatal(err)
	}
	return tr
}

func TestTreePredict(t *testing.T) {
	tr := handTree(t)
	testCases := []struct {
		features []uint8
		expected uint8
	}{
		{[]uint8{0, 3, 3}, 0},
		{[]uint8{1, 0, 0}, 0},
		{[]uint8{2, 0, 0}, 1},
		{[]uint8{3, 0, 1}, 2},
		{[]uint8{3, 0}, NoLabel},
	}
	for _, tc := range testCases {
		if got := tr.Predict(tc.features); got != tc.expected {
			t.Errorf("predicting %v: expected %d, got %d", tc.features, tc.expected, got)
		}
	}
	if _, err := tr.Classify([]uint8{3}); err != ErrMissingFeature {
		t.Errorf("expected ErrMissingFeature, got %v", err)
	}
	if _, err := New("empty").Classify([]uint8{0}); err != ErrEmptyTree {
		t.Errorf("expected ErrEmptyTree, got %v", err)
	}
}

func TestTreeStatsAndPurge(t *testing.T) {
	tr := handTree(t)
	if s := tr.Stats(); s.Nodes != 5 || s.Leaves != 3 || s.Depth != 3 {
		t.Errorf("unexpected stats %+v", s)
	}
	if s := NewLeaf("leaf", 1).Stats(); s.Nodes != 1 || s.Leaves != 1 || s.Depth != 1 {
		t.Errorf("unexpected single leaf stats %+v", s)
	}
	tr.Purge()
	if !tr.Empty() || tr.Len() != 0 || tr.Stats() != (Stats{}) {
		t.Errorf("expected a purged tree to be empty")
	}
}

func TestTreeTraverseOrder(t *testing.T) {
	tr := handTree(t)
	var topdown, bottomup []Handle
	tr.Traverse(context.Background(), false, func(_ context.Context, h Handle, _ Node) error {
		topdown = append(topdown, h)
		return nil
	})
	tr.Traverse(context.Background(), true, func(_ context.Context, h Handle, _ Node) error {
		bottomup = append(bottomup, h)
		return nil
	})
	expectedTopdown := []Handle{0, 1, 2, 3, 4}
	expectedBottomup := []Handle{1, 3, 4, 2, 0}
	for i := range expectedTopdown {
		if topdown[i] != expectedTopdown[i] || bottomup[i] != expectedBottomup[i] {
			t.Fatalf("unexpected traversal orders %v and %v", topdown, bottomup)
		}
	}
}

func TestFromNodesRejectsBrokenArenas(t *testing.T) {
	leaf := Node{Header: Header{Leaf: true}, Left: None, Right: None}
	testCases := []struct {
		name  string
		nodes []Node
		root  Handle
	}{
		{"dangling child", []Node{{Left: 1, Right: 5}, leaf}, 0},
		{"shared child", []Node{{Left: 1, Right: 1}, leaf}, 0},
		{"cycle", []Node{{Left: 0, Right: 1}, leaf}, 0},
		{"missing root", []Node{leaf}, 3},
	}
	for _, tc := range testCases {
		if _, err := FromNodes(tc.name, tc.nodes, tc.root); err == nil {
			t.Errorf("%s: expected an error", tc.name)
		}
	}
}

func TestTreeString(t *testing.T) {
	s := handTree(t).String()
	for _, expected := range []string{"feature 0 <= 1", "|__", "leaf label=2"} {
		if !strings.Contains(s, expected) {
			t.Errorf("expected drawing to contain %q, got\n%s", expected, s)
		}
	}
}
