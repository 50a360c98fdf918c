package tree

import (
	"context"
	"fmt"
	"math"
	"math/rand"
	"sort"

	"github.com/viettran-edgeAI/MCU-sub008/dataset"
)

/*
Builder grows decision trees from sets of quantized samples.

Every internal node splits on a single feature comparing its bin against a
threshold code. Nodes stop splitting when their samples share a label,
when there are fewer than MinSplit of them, when the depth budget is spent
or when the best split does not gain more than the impurity threshold.

A Builder is not safe for concurrent use because of its Rand. Build
trees concurrently with one Builder per goroutine.
*/
type Builder struct {
	MinSplit          int
	MaxDepth          int
	Criterion         Criterion
	ImpurityThreshold float64
	GroupsPerFeature  int
	NumFeatures       int
	NumLabels         int
	Rand              *rand.Rand
}

type split struct {
	feature   int
	threshold int
	gain      float64
}

// Validate returns an error if the builder parameters cannot produce a
// tree that fits in packed nodes.
func (b *Builder) Validate() error {
	if b.NumLabels < 1 || b.NumLabels > MaxLabels {
		return fmt.Errorf("number of labels %d is not in the 1..%d range", b.NumLabels, MaxLabels)
	}
	if b.GroupsPerFeature < 2 || b.GroupsPerFeature > MaxThreshold+2 {
		return fmt.Errorf("groups per feature %d is not in the 2..%d range", b.GroupsPerFeature, MaxThreshold+2)
	}
	if b.NumFeatures < 1 || b.NumFeatures > MaxFeatures {
		return fmt.Errorf("number of features %d is not in the 1..%d range", b.NumFeatures, MaxFeatures)
	}
	if b.MaxDepth < 0 || b.MaxDepth > maxDecodeDepth {
		return fmt.Errorf("max depth %d is not in the 0..%d range", b.MaxDepth, maxDecodeDepth)
	}
	if b.MinSplit < 0 {
		return fmt.Errorf("min split %d is negative", b.MinSplit)
	}
	return nil
}

// Build takes a context, a name and a set and returns a tree with the
// given name grown from the samples in the set, or an error if the
// builder is misconfigured, the set is empty or the context is done.
func (b *Builder) Build(ctx context.Context, name string, data *dataset.Set) (*Tree, error) {
	if err := b.Validate(); err != nil {
		return nil, err
	}
	if data.Len() == 0 {
		return nil, fmt.Errorf("cannot build tree %q from an empty set", name)
	}
	if b.Rand == nil {
		b.Rand = rand.New(rand.NewSource(rand.Int63()))
	}
	t := New(name)
	root, err := b.grow(ctx, t, data.Samples(), b.MaxDepth)
	if err != nil {
		return nil, err
	}
	t.root = root
	return t, nil
}

func (b *Builder) grow(ctx context.Context, t *Tree, samples []dataset.Sample, depth int) (Handle, error) {
	if err := ctx.Err(); err != nil {
		return None, err
	}
	counts := b.labelCounts(samples)
	label, pure := majority(counts)
	if pure || len(samples) < b.MinSplit || depth <= 0 {
		return t.add(leafNode(label)), nil
	}
	s, ok := b.bestSplit(samples)
	if !ok || s.gain <= b.Criterion.GainThreshold(b.ImpurityThreshold) {
		return t.add(leafNode(label)), nil
	}
	h := t.add(Node{
		Header:  Header{Threshold: uint8(s.threshold)},
		Feature: uint8(s.feature),
		Left:    None,
		Right:   None,
	})
	left, right := partitionSamples(samples, s)
	children := [2]Handle{}
	for i, part := range [][]dataset.Sample{left, right} {
		if len(part) == 0 {
			children[i] = t.add(leafNode(label))
			continue
		}
		child, err := b.grow(ctx, t, part, depth-1)
		if err != nil {
			return None, err
		}
		children[i] = child
	}
	t.nodes[h].Left = children[0]
	t.nodes[h].Right = children[1]
	return h, nil
}

func leafNode(label uint8) Node {
	return Node{Header: Header{Label: label, Leaf: true}, Left: None, Right: None}
}

func (b *Builder) labelCounts(samples []dataset.Sample) []int {
	counts := make([]int, b.NumLabels)
	for _, smp := range samples {
		if int(smp.Label) < b.NumLabels {
			counts[smp.Label]++
		}
	}
	return counts
}

// majority returns the label with the highest count, the lowest one on
// ties, and whether it is the only label with samples.
func majority(counts []int) (uint8, bool) {
	best, present := 0, 0
	for l, c := range counts {
		if c > 0 {
			present++
		}
		if c > counts[best] {
			best = l
		}
	}
	return uint8(best), present <= 1
}

// featureSubset draws max(1, ceil(sqrt(NumFeatures))) distinct features
// and returns them in ascending order.
func (b *Builder) featureSubset() []int {
	k := int(math.Ceil(math.Sqrt(float64(b.NumFeatures))))
	if k < 1 {
		k = 1
	}
	if k > b.NumFeatures {
		k = b.NumFeatures
	}
	features := b.Rand.Perm(b.NumFeatures)[:k]
	sort.Ints(features)
	return features
}

func (b *Builder) bestSplit(samples []dataset.Sample) (split, bool) {
	g := b.GroupsPerFeature
	best := split{gain: math.Inf(-1)}
	found := false
	table := make([][]int, g)
	for i := range table {
		table[i] = make([]int, b.NumLabels)
	}
	binTotals := make([]int, g)
	left := make([]int, b.NumLabels)
	right := make([]int, b.NumLabels)
	parent := make([]int, b.NumLabels)
	for _, f := range b.featureSubset() {
		for i := range table {
			for l := range table[i] {
				table[i][l] = 0
			}
			binTotals[i] = 0
		}
		for l := range parent {
			parent[l] = 0
		}
		total := 0
		for _, smp := range samples {
			v, ok := smp.ValueFor(f)
			if !ok || int(v) >= g || int(smp.Label) >= b.NumLabels {
				continue
			}
			table[v][smp.Label]++
			binTotals[v]++
			parent[smp.Label]++
			total++
		}
		if total == 0 {
			continue
		}
		parentImpurity := b.Criterion.Impurity(parent, total)
		for l := range left {
			left[l] = 0
		}
		nl := 0
		featureGain := math.Inf(-1)
		first, last := -1, -1
		for th := 0; th < g-1; th++ {
			for l, c := range table[th] {
				left[l] += c
			}
			nl += binTotals[th]
			nr := total - nl
			if nl == 0 || nr == 0 {
				continue
			}
			for l := range right {
				right[l] = parent[l] - left[l]
			}
			gain := parentImpurity -
				(float64(nl)/float64(total))*b.Criterion.Impurity(left, nl) -
				(float64(nr)/float64(total))*b.Criterion.Impurity(right, nr)
			switch {
			case first < 0 || gain > featureGain:
				featureGain, first, last = gain, th, th
			case gain == featureGain && last == th-1 && binTotals[th] == 0:
				last = th
			}
		}
		if first < 0 {
			continue
		}
		if !found || featureGain > best.gain {
			best = split{feature: f, threshold: (first + last) / 2, gain: featureGain}
			found = true
		}
	}
	return best, found
}

// partitionSamples sends samples whose bin for the split feature is
// lower than or equal to the threshold to the left and the rest, those
// lacking the feature included, to the right.
func partitionSamples(samples []dataset.Sample, s split) ([]dataset.Sample, []dataset.Sample) {
	var left, right []dataset.Sample
	for _, smp := range samples {
		if v, ok := smp.ValueFor(s.feature); ok && int(v) <= s.threshold {
			left = append(left, smp)
		} else {
			right = append(right, smp)
		}
	}
	return left, right
}
