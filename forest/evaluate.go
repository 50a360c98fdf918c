package forest

import (
	"github.com/viettran-edgeAI/MCU-sub008/dataset"
)

// Tally accumulates per-label true positives, false positives and false
// negatives of confident predictions.
type Tally struct {
	NumLabels int
	TP        []int
	FP        []int
	FN        []int
	Total     int
	Correct   int
}

// NewTally returns an empty Tally for the given number of labels.
func NewTally(numLabels int) *Tally {
	return &Tally{
		NumLabels: numLabels,
		TP:        make([]int, numLabels),
		FP:        make([]int, numLabels),
		FN:        make([]int, numLabels),
	}
}

// Add records a prediction for a sample of the actual label. Labels
// out of range are not recorded in the per-label counts.
func (t *Tally) Add(actual, predicted uint8) {
	t.Total++
	if actual == predicted {
		t.Correct++
		if int(actual) < t.NumLabels {
			t.TP[actual]++
		}
		return
	}
	if int(actual) < t.NumLabels {
		t.FN[actual]++
	}
	if int(predicted) < t.NumLabels {
		t.FP[predicted]++
	}
}

// Accuracy returns the share of correct predictions, 0 if there are none.
func (t *Tally) Accuracy() float64 {
	if t.Total == 0 {
		return 0
	}
	return float64(t.Correct) / float64(t.Total)
}

// Precision returns the mean precision over the labels that were
// predicted at least once.
func (t *Tally) Precision() float64 {
	sum, n := 0.0, 0
	for l := 0; l < t.NumLabels; l++ {
		if d := t.TP[l] + t.FP[l]; d > 0 {
			sum += float64(t.TP[l]) / float64(d)
			n++
		}
	}
	return mean(sum, n)
}

// Recall returns the mean recall over the labels with at least one
// sample.
func (t *Tally) Recall() float64 {
	sum, n := 0.0, 0
	for l := 0; l < t.NumLabels; l++ {
		if d := t.TP[l] + t.FN[l]; d > 0 {
			sum += float64(t.TP[l]) / float64(d)
			n++
		}
	}
	return mean(sum, n)
}

// F1 returns the mean F1 score over the labels with both a precision
// and a recall that are not both 0.
func (t *Tally) F1() float64 {
	sum, n := 0.0, 0
	for l := 0; l < t.NumLabels; l++ {
		pd, rd := t.TP[l]+t.FP[l], t.TP[l]+t.FN[l]
		if pd == 0 || rd == 0 {
			continue
		}
		p := float64(t.TP[l]) / float64(pd)
		r := float64(t.TP[l]) / float64(rd)
		if p+r == 0 {
			continue
		}
		sum += 2 * p * r / (p + r)
		n++
	}
	return mean(sum, n)
}

// Score returns the average of the metrics in the objective.
func (t *Tally) Score(o Objective) float64 {
	return objectiveScore(o, t.Accuracy, t.Precision, t.Recall, t.F1)
}

func objectiveScore(o Objective, accuracy, precision, recall, f1 func() float64) float64 {
	sum, n := 0.0, 0
	for _, m := range []struct {
		o Objective
		f func() float64
	}{{Accuracy, accuracy}, {Precision, precision}, {Recall, recall}, {F1, f1}} {
		if o.Has(m.o) {
			sum += m.f()
			n++
		}
	}
	return mean(sum, n)
}

func mean(sum float64, n int) float64 {
	if n == 0 {
		return 0
	}
	return sum / float64(n)
}

// Evaluation holds the scores of a forest on its objective.
type Evaluation struct {
	OOB        float64
	Validation float64
	Combined   float64
}

/*
Evaluate scores the forest on its configured objective.

The OOB score votes every train sample only with the trees that did not
have it in their bag. The validation score, computed only when
validation is enabled, votes every validation sample with the whole
forest. Samples without votes or below the certainty gate are left out
of both. Combined blends both scores with CombineRatio as weight of the
validation one, or is the OOB score when validation is disabled.
*/
func (f *Forest) Evaluate() Evaluation {
	var e Evaluation
	if f.partition == nil || len(f.trees) == 0 {
		return e
	}
	e.OOB = f.oobTally().Score(f.cfg.Objective)
	if !f.partition.UseValidation {
		e.Combined = e.OOB
		return e
	}
	e.Validation = f.tally(f.partition.Validation).Score(f.cfg.Objective)
	c := f.cfg.CombineRatio
	e.Combined = c*e.Validation + (1-c)*e.OOB
	return e
}

func (f *Forest) oobTally() *Tally {
	t := NewTally(f.cfg.NumLabels)
	v := NewVoter(f.cfg.NumLabels, f.cfg.UnityThreshold)
	for _, id := range f.partition.Train.IDs() {
		smp, _ := f.partition.Train.Find(id)
		label, ok := f.vote(v, smp.Features, func(i int) bool {
			return f.bags[i] != nil && f.bags[i].OOB.Contains(id)
		})
		if !ok {
			continue
		}
		t.Add(smp.Label, label)
	}
	return t
}

func (f *Forest) tally(s *dataset.Set) *Tally {
	t := NewTally(f.cfg.NumLabels)
	v := NewVoter(f.cfg.NumLabels, f.cfg.UnityThreshold)
	for _, smp := range s.Samples() {
		label, ok := f.vote(v, smp.Features, nil)
		if !ok {
			continue
		}
		t.Add(smp.Label, label)
	}
	return t
}
