package tree

import (
	"context"
	"math/rand"
	"testing"

	"github.com/viettran-edgeAI/MCU-sub008/dataset"
)

func newBuilder(numFeatures, numLabels int, seed int64) *Builder {
	return &Builder{
		MinSplit:          2,
		MaxDepth:          3,
		Criterion:         Gini,
		ImpurityThreshold: 0.01,
		GroupsPerFeature:  dataset.DefaultGroupsPerFeature,
		NumFeatures:       numFeatures,
		NumLabels:         numLabels,
		Rand:              rand.New(rand.NewSource(seed)),
	}
}

func scenarioSet() *dataset.Set {
	s := dataset.NewSet(10)
	for i := 0; i < 10; i++ {
		if i < 6 {
			s.Insert(dataset.ID(i), dataset.NewSample(0, 0))
		} else {
			s.Insert(dataset.ID(i), dataset.NewSample(1, 3))
		}
	}
	return s
}

func TestBuildSingleLabelIsLeaf(t *testing.T) {
	s := dataset.NewSet(0)
	for i := 0; i < 20; i++ {
		s.Insert(dataset.ID(i), dataset.NewSample(2, uint8(i%4), uint8((i+1)%4)))
	}
	for _, depth := range []int{0, 1, 10} {
		b := newBuilder(2, 3, 1)
		b.MaxDepth = depth
		tr, err := b.Build(context.Background(), "single", s)
		if err != nil {
			t.Fatal(err)
		}
		if tr.Len() != 1 {
			t.Fatalf("depth %d: expected a single node, got %d", depth, tr.Len())
		}
		n, _ := tr.Node(tr.Root())
		if !n.Leaf || n.Label != 2 {
			t.Errorf("depth %d: expected leaf with label 2, got %v", depth, n)
		}
	}
}

func TestBuildScenarioSplitsAtMiddleThreshold(t *testing.T) {
	b := newBuilder(1, 2, 7)
	tr, err := b.Build(context.Background(), "scenario", scenarioSet())
	if err != nil {
		t.Fatal(err)
	}
	root, _ := tr.Node(tr.Root())
	if root.Leaf {
		t.Fatalf("expected the root to split, got %v", root)
	}
	if root.Feature != 0 || root.Threshold != 1 {
		t.Errorf("expected split on feature 0 at threshold 1, got %v", root)
	}
	if got := tr.Predict([]uint8{0}); got != 0 {
		t.Errorf("expected label 0 for bin 0, got %d", got)
	}
	if got := tr.Predict([]uint8{3}); got != 1 {
		t.Errorf("expected label 1 for bin 3, got %d", got)
	}
}

func TestMajorityTieBreaksToLowestLabel(t *testing.T) {
	s := dataset.NewSet(0)
	for i := 0; i < 10; i++ {
		s.Insert(dataset.ID(i), dataset.NewSample(uint8(1+i%2), 0))
	}
	b := newBuilder(1, 3, 1)
	b.MaxDepth = 0
	tr, err := b.Build(context.Background(), "tie", s)
	if err != nil {
		t.Fatal(err)
	}
	n, _ := tr.Node(tr.Root())
	if !n.Leaf || n.Label != 1 {
		t.Errorf("expected a leaf predicting 1 on a 50/50 tie, got %v", n)
	}
	if label, pure := majority([]int{0, 3, 3}); label != 1 || pure {
		t.Errorf("expected majority 1 not pure, got %d %v", label, pure)
	}
}

func TestBuildChildrenPartitionParent(t *testing.T) {
	rnd := rand.New(rand.NewSource(11))
	s := dataset.NewSet(0)
	for i := 0; i < 300; i++ {
		f := []uint8{uint8(rnd.Intn(4)), uint8(rnd.Intn(4)), uint8(rnd.Intn(4)), uint8(rnd.Intn(4))}
		label := uint8(0)
		if f[0]+f[1] > 3 {
			label = 1
		}
		if f[2] == 3 {
			label = 2
		}
		s.Insert(dataset.ID(i), dataset.NewSample(label, f...))
	}
	b := newBuilder(4, 3, 3)
	b.MaxDepth = 8
	tr, err := b.Build(context.Background(), "partition", s)
	if err != nil {
		t.Fatal(err)
	}
	var check func(h Handle, samples []dataset.Sample)
	check = func(h Handle, samples []dataset.Sample) {
		n, ok := tr.Node(h)
		if !ok {
			t.Fatalf("dangling handle %d", h)
		}
		if n.Leaf {
			return
		}
		left, right := partitionSamples(samples, split{feature: int(n.Feature), threshold: int(n.Threshold)})
		if len(left)+len(right) != len(samples) {
			t.Errorf("node %d: %d + %d != %d", h, len(left), len(right), len(samples))
		}
		if len(left) == 0 || len(right) == 0 {
			t.Errorf("node %d: split leaves a side empty", h)
		}
		check(n.Left, left)
		check(n.Right, right)
	}
	check(tr.Root(), s.Samples())
	stats := tr.Stats()
	if stats.Depth > b.MaxDepth+1 {
		t.Errorf("tree depth %d exceeds the budget of %d splits", stats.Depth, b.MaxDepth)
	}
	if stats.Nodes != tr.Len() || stats.Leaves != (stats.Nodes+1)/2 {
		t.Errorf("unexpected stats %+v for %d nodes", stats, tr.Len())
	}
}

func TestDeeperTreesFitTrainingSetBetter(t *testing.T) {
	rnd := rand.New(rand.NewSource(5))
	s := dataset.NewSet(0)
	for i := 0; i < 400; i++ {
		a, c := uint8(rnd.Intn(4)), uint8(rnd.Intn(4))
		label := (a*4 + c) % 3
		if rnd.Float64() < 0.1 {
			label = uint8(rnd.Intn(3))
		}
		s.Insert(dataset.ID(i), dataset.NewSample(label, a, c))
	}
	accuracy := func(depth int) float64 {
		b := newBuilder(2, 3, 9)
		b.MaxDepth = depth
		b.ImpurityThreshold = 0
		tr, err := b.Build(context.Background(), "depth", s)
		if err != nil {
			t.Fatal(err)
		}
		correct := 0
		for _, smp := range s.Samples() {
			if tr.Predict(smp.Features) == smp.Label {
				correct++
			}
		}
		return float64(correct) / float64(s.Len())
	}
	shallow, deep := accuracy(2), accuracy(6)
	if deep < shallow {
		t.Errorf("expected depth 6 to fit at least as well as depth 2, got %v < %v", deep, shallow)
	}
}

func TestBuilderValidate(t *testing.T) {
	testCases := []struct {
		name   string
		mutate func(*Builder)
	}{
		{"too many labels", func(b *Builder) { b.NumLabels = 33 }},
		{"no labels", func(b *Builder) { b.NumLabels = 0 }},
		{"one group", func(b *Builder) { b.GroupsPerFeature = 1 }},
		{"five groups", func(b *Builder) { b.GroupsPerFeature = 5 }},
		{"too many features", func(b *Builder) { b.NumFeatures = 257 }},
		{"negative depth", func(b *Builder) { b.MaxDepth = -1 }},
	}
	for _, tc := range testCases {
		b := newBuilder(1, 2, 1)
		tc.mutate(b)
		if _, err := b.Build(context.Background(), tc.name, scenarioSet()); err == nil {
			t.Errorf("%s: expected a build error", tc.name)
		}
	}
	if _, err := newBuilder(1, 2, 1).Build(context.Background(), "empty", dataset.NewSet(0)); err == nil {
		t.Errorf("expected an error building from an empty set")
	}
}

func TestBuildHonoursCancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := newBuilder(1, 2, 1).Build(ctx, "cancelled", scenarioSet()); err == nil {
		t.Errorf("expected an error building with a cancelled context")
	}
}

func TestCriterionImpurity(t *testing.T) {
	testCases := []struct {
		c        Criterion
		counts   []int
		expected float64
	}{
		{Gini, []int{5, 5}, 0.5},
		{Gini, []int{10, 0}, 0},
		{Entropy, []int{5, 5}, 1},
		{Entropy, []int{4, 0, 0, 0}, 0},
		{Entropy, []int{2, 2, 2, 2}, 2},
	}
	for _, tc := range testCases {
		total := 0
		for _, c := range tc.counts {
			total += c
		}
		if got := tc.c.Impurity(tc.counts, total); got < tc.expected-1e-9 || got > tc.expected+1e-9 {
			t.Errorf("%v impurity of %v: expected %v, got %v", tc.c, tc.counts, tc.expected, got)
		}
	}
	if Gini.GainThreshold(0.1) != 0.05 || Entropy.GainThreshold(0.1) != 0.1 {
		t.Errorf("unexpected gain thresholds")
	}
	if c, err := ParseCriterion("Entropy"); err != nil || c != Entropy {
		t.Errorf("expected to parse entropy, got %v %v", c, err)
	}
	if _, err := ParseCriterion("variance"); err == nil {
		t.Errorf("expected an error parsing an unknown criterion")
	}
}
