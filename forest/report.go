package forest

import (
	"fmt"
	"strings"

	"github.com/viettran-edgeAI/MCU-sub008/dataset"
)

// LabelReport holds the prediction figures of a single label.
type LabelReport struct {
	Label     uint8   `json:"label"`
	Samples   int     `json:"samples"`
	TP        int     `json:"tp"`
	FP        int     `json:"fp"`
	FN        int     `json:"fn"`
	Precision float64 `json:"precision"`
	Recall    float64 `json:"recall"`
	F1        float64 `json:"f1"`
	Accuracy  float64 `json:"accuracy"`
}

// Report holds the figures of a forest classifying a whole set.
// Samples the forest is not confident about count as misses.
type Report struct {
	Samples int           `json:"samples"`
	Correct int           `json:"correct"`
	Unknown int           `json:"unknown"`
	Labels  []LabelReport `json:"labels"`
}

// Report takes a set and returns the Report of the forest classifying
// every sample in it.
func (f *Forest) Report(s *dataset.Set) *Report {
	n := f.cfg.NumLabels
	r := &Report{Labels: make([]LabelReport, n)}
	for l := range r.Labels {
		r.Labels[l].Label = uint8(l)
	}
	v := NewVoter(n, f.cfg.UnityThreshold)
	for _, smp := range s.Samples() {
		r.Samples++
		label, ok := f.vote(v, smp.Features, nil)
		actual := int(smp.Label)
		if actual < n {
			r.Labels[actual].Samples++
		}
		if !ok {
			r.Unknown++
			if actual < n {
				r.Labels[actual].FN++
			}
			continue
		}
		if label == smp.Label {
			r.Correct++
			if actual < n {
				r.Labels[actual].TP++
			}
			continue
		}
		if actual < n {
			r.Labels[actual].FN++
		}
		if int(label) < n {
			r.Labels[label].FP++
		}
	}
	for l := range r.Labels {
		lr := &r.Labels[l]
		if d := lr.TP + lr.FP; d > 0 {
			lr.Precision = float64(lr.TP) / float64(d)
		}
		if d := lr.TP + lr.FN; d > 0 {
			lr.Recall = float64(lr.TP) / float64(d)
		}
		if lr.Precision+lr.Recall > 0 {
			lr.F1 = 2 * lr.Precision * lr.Recall / (lr.Precision + lr.Recall)
		}
		if lr.Samples > 0 {
			lr.Accuracy = float64(lr.TP) / float64(lr.Samples)
		}
	}
	return r
}

// Accuracy returns the share of samples classified correctly.
func (r *Report) Accuracy() float64 {
	if r.Samples == 0 {
		return 0
	}
	return float64(r.Correct) / float64(r.Samples)
}

// Score returns the average of the metrics in the objective, each one
// being the mean of its per-label values over the labels that were
// present in the set or predicted.
func (r *Report) Score(o Objective) float64 {
	perLabel := func(metric func(LabelReport) float64) func() float64 {
		return func() float64 {
			sum, n := 0.0, 0
			for _, lr := range r.Labels {
				if lr.Samples == 0 && lr.FP == 0 {
					continue
				}
				sum += metric(lr)
				n++
			}
			return mean(sum, n)
		}
	}
	return objectiveScore(o,
		perLabel(func(lr LabelReport) float64 { return lr.Accuracy }),
		perLabel(func(lr LabelReport) float64 { return lr.Precision }),
		perLabel(func(lr LabelReport) float64 { return lr.Recall }),
		perLabel(func(lr LabelReport) float64 { return lr.F1 }),
	)
}

func (r *Report) String() string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "samples: %d, correct: %d, unknown: %d, accuracy: %.4f\n", r.Samples, r.Correct, r.Unknown, r.Accuracy())
	fmt.Fprintf(&sb, "%6s %8s %9s %9s %9s %9s\n", "label", "samples", "precision", "recall", "f1", "accuracy")
	for _, lr := range r.Labels {
		if lr.Samples == 0 && lr.FP == 0 {
			continue
		}
		fmt.Fprintf(&sb, "%6d %8d %9.4f %9.4f %9.4f %9.4f\n", lr.Label, lr.Samples, lr.Precision, lr.Recall, lr.F1, lr.Accuracy)
	}
	return sb.String()
}
