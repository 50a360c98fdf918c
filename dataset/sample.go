package dataset

import (
	"fmt"
)

// DefaultGroupsPerFeature is the number of bins a quantized feature
// value can fall into unless configured otherwise.
const DefaultGroupsPerFeature = 4

// ID identifies a sample inside a Set.
type ID uint32

/*
Sample represents a quantized item to learn from or to classify.

Features holds one bin index per feature, each one expected to be in
the 0..groupsPerFeature-1 range. Label holds the class of the sample.

Samples are immutable once inserted in a Set: updating a sample means
replacing it wholesale, so the Features slice may be shared between sets.
*/
type Sample struct {
	Features []uint8
	Label    uint8
}

// NewSample takes a label and the bin values of every feature and
// returns a sample with them.
func NewSample(label uint8, features ...uint8) Sample {
	return Sample{Features: features, Label: label}
}

// ValueFor returns the bin of the given feature index and whether the
// index is within the sample's features.
func (s Sample) ValueFor(feature int) (uint8, bool) {
	if feature < 0 || feature >= len(s.Features) {
		return 0, false
	}
	return s.Features[feature], true
}

func (s Sample) String() string {
	return fmt.Sprintf("[%d %v]", s.Label, s.Features)
}
