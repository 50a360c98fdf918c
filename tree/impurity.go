package tree

import (
	"fmt"
	"math"
	"strings"
)

// Criterion identifies the impurity measure used to score splits.
type Criterion int

const (
	// Gini scores a label distribution as 1 - sum(p^2).
	Gini Criterion = iota
	// Entropy scores a label distribution as -sum(p * log2(p)).
	Entropy
)

func (c Criterion) String() string {
	switch c {
	case Gini:
		return "gini"
	case Entropy:
		return "entropy"
	}
	return fmt.Sprintf("criterion(%d)", int(c))
}

// ParseCriterion takes the name of a criterion and returns it.
func ParseCriterion(name string) (Criterion, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "gini":
		return Gini, nil
	case "entropy":
		return Entropy, nil
	}
	return Gini, fmt.Errorf("unknown impurity criterion %q", name)
}

// Impurity takes per-label counts and their total and returns the
// impurity of that distribution. It returns 0 when total is 0.
func (c Criterion) Impurity(counts []int, total int) float64 {
	if total <= 0 {
		return 0
	}
	n := float64(total)
	if c == Entropy {
		var e float64
		for _, k := range counts {
			if k == 0 {
				continue
			}
			p := float64(k) / n
			e -= p * math.Log2(p)
		}
		return e
	}
	g := 1.0
	for _, k := range counts {
		p := float64(k) / n
		g -= p * p
	}
	return g
}

// GainThreshold returns the gain a split must exceed under the
// criterion given the configured impurity threshold. Binary Gini gains
// are halved against it.
func (c Criterion) GainThreshold(configured float64) float64 {
	if c == Gini {
		return configured / 2
	}
	return configured
}
