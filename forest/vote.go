package forest

import (
	"github.com/viettran-edgeAI/MCU-sub008/tree"
)

// Unknown is the label reported when the forest cannot make a confident
// prediction.
const Unknown = tree.NoLabel

// PredictionError represents an error related with predictions
type PredictionError string

// ErrNoConfidentPrediction is returned when the trees of a forest do not
// agree enough on a label.
const ErrNoConfidentPrediction = PredictionError("no confident prediction")

func (pe PredictionError) Error() string {
	return string(pe)
}

/*
Voter tallies the labels trees predict for a single sample and elects a
winner through a certainty gate.

Votes for labels outside 0..NumLabels-1 are discarded. The winner is the
label with the most votes, the lowest one on ties, and it is only
returned when its share of the valid votes reaches UnityThreshold.

A Voter can be reused for several samples by calling Reset between them.
*/
type Voter struct {
	NumLabels      int
	UnityThreshold float64
	votes          []int
	total          int
}

// NewVoter returns a Voter for the given number of labels and unity
// threshold.
func NewVoter(numLabels int, unity float64) *Voter {
	return &Voter{NumLabels: numLabels, UnityThreshold: unity, votes: make([]int, numLabels)}
}

// Reset forgets every vote.
func (v *Voter) Reset() {
	if len(v.votes) != v.NumLabels {
		v.votes = make([]int, v.NumLabels)
	}
	for i := range v.votes {
		v.votes[i] = 0
	}
	v.total = 0
}

// Add casts a vote for the given label.
func (v *Voter) Add(label uint8) {
	if int(label) >= v.NumLabels {
		return
	}
	if len(v.votes) != v.NumLabels {
		v.Reset()
	}
	v.votes[label]++
	v.total++
}

// Total returns the number of valid votes cast.
func (v *Voter) Total() int {
	return v.total
}

// Result returns the elected label and its certainty, the share of valid
// votes it got. It returns Unknown and false when there are no valid
// votes or the certainty is below UnityThreshold.
func (v *Voter) Result() (uint8, float64, bool) {
	if v.total == 0 {
		return Unknown, 0, false
	}
	winner := 0
	for l, c := range v.votes {
		if c > v.votes[winner] {
			winner = l
		}
	}
	certainty := float64(v.votes[winner]) / float64(v.total)
	if certainty < v.UnityThreshold {
		return Unknown, certainty, false
	}
	return uint8(winner), certainty, true
}

func (f *Forest) vote(v *Voter, features []uint8, include func(i int) bool) (uint8, bool) {
	v.Reset()
	for i, t := range f.trees {
		if include != nil && !include(i) {
			continue
		}
		v.Add(t.Predict(features))
	}
	label, _, ok := v.Result()
	return label, ok
}

// Classify takes the quantized features of a sample and returns the
// label the forest elects for it and whether the election passed the
// certainty gate. Unknown is returned along with false otherwise.
func (f *Forest) Classify(features []uint8) (uint8, bool) {
	return f.vote(NewVoter(f.cfg.NumLabels, f.cfg.UnityThreshold), features, nil)
}

// Predict is like Classify but returns ErrNoConfidentPrediction when
// the forest is not certain enough.
func (f *Forest) Predict(features []uint8) (uint8, error) {
	label, ok := f.Classify(features)
	if !ok {
		return Unknown, ErrNoConfidentPrediction
	}
	return label, nil
}
