package trainer

import (
	"math"

	"github.com/viettran-edgeAI/MCU-sub008/dataset"
	"github.com/viettran-edgeAI/MCU-sub008/forest"
)

// Range is an inclusive range of integer hyperparameter values.
type Range struct {
	Min int `yaml:"min" json:"min"`
	Max int `yaml:"max" json:"max"`
}

// Contains returns whether v is within the range.
func (r Range) Contains(v int) bool {
	return v >= r.Min && v <= r.Max
}

// Mid returns the midpoint of the range.
func (r Range) Mid() int {
	return (r.Min + r.Max) / 2
}

/*
Baseline holds the starting point and search space the trainer derives
from the shape of a dataset:

  - the objective, picked by the imbalance between the most and least
    frequent labels;
  - the ranges MinSplit and MaxDepth are searched in;
  - the unity threshold and combine ratio the grid search sweeps around.
*/
type Baseline struct {
	Objective      forest.Objective
	MinSplit       Range
	MaxDepth       Range
	UnityThreshold float64
	CombineRatio   float64
}

// NewBaseline takes the summary of a dataset and returns its Baseline.
func NewBaseline(sum dataset.Summary) Baseline {
	var b Baseline
	r := sum.ImbalanceRatio
	switch {
	case r > 10:
		b.Objective = forest.Recall
	case r > 3:
		b.Objective = forest.F1
	case r > 1.5:
		b.Objective = forest.Precision
	default:
		b.Objective = forest.Accuracy
	}

	n := sum.NumSamples
	ratio := 100 * (n/500 + 1)
	if ratio > 500 {
		ratio = 500
	}
	b.MinSplit.Min = max(3, n/ratio)
	b.MinSplit.Max = max(12, b.MinSplit.Min)

	base := 0
	if n > 0 && sum.NumFeatures > 0 {
		base = min(int(math.Log2(float64(n))), int(1.5*math.Log2(float64(sum.NumFeatures))))
	}
	b.MaxDepth.Min = 3
	b.MaxDepth.Max = max(3, min(8, base))

	if sum.NumFeatures == 2 {
		b.UnityThreshold = 0.4
	} else if sum.NumLabels > 0 {
		b.UnityThreshold = 1.25 / float64(sum.NumLabels)
	}
	b.UnityThreshold = math.Min(b.UnityThreshold, 1)

	b.CombineRatio = 0.4 + 0.4*math.Min(1, float64(n)/5000) + 0.2*sum.LowestShare*float64(sum.NumLabels)
	b.CombineRatio = math.Max(0, math.Min(1, b.CombineRatio))
	return b
}

// Apply returns cfg with the baseline objective, unity threshold and
// combine ratio, and MinSplit and MaxDepth at the middle of their ranges.
func (b Baseline) Apply(cfg forest.Config) forest.Config {
	cfg.Objective = b.Objective
	cfg.MinSplit = b.MinSplit.Mid()
	cfg.MaxDepth = b.MaxDepth.Mid()
	cfg.UnityThreshold = b.UnityThreshold
	cfg.CombineRatio = b.CombineRatio
	return cfg
}
