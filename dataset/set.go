package dataset

import (
	"sort"
)

/*
Set represents a collection of samples indexed by ID.

It offers O(1) average insertion, lookup and removal, plus explicit
capacity control through Reserve and Fit so callers running on tight
memory budgets can decide when the backing storage grows or shrinks.

A Set is not safe for concurrent mutation. Concurrent readers are fine.
*/
type Set struct {
	samples     map[ID]Sample
	numFeatures int
}

// NewSet returns an empty set with room for capacity samples.
func NewSet(capacity int) *Set {
	if capacity < 0 {
		capacity = 0
	}
	return &Set{samples: make(map[ID]Sample, capacity)}
}

// Insert stores the sample under the given id, replacing any sample
// already stored with it.
func (s *Set) Insert(id ID, smp Sample) {
	if s.samples == nil {
		s.samples = make(map[ID]Sample)
	}
	if len(smp.Features) > s.numFeatures {
		s.numFeatures = len(smp.Features)
	}
	s.samples[id] = smp
}

// Find returns the sample stored with the given id and whether it was found.
func (s *Set) Find(id ID) (Sample, bool) {
	smp, ok := s.samples[id]
	return smp, ok
}

// Contains returns whether a sample is stored with the given id.
func (s *Set) Contains(id ID) bool {
	_, ok := s.samples[id]
	return ok
}

// Erase removes the sample with the given id and returns whether there
// was one to remove.
func (s *Set) Erase(id ID) bool {
	if _, ok := s.samples[id]; !ok {
		return false
	}
	delete(s.samples, id)
	return true
}

// Len returns the number of samples in the set.
func (s *Set) Len() int {
	if s == nil {
		return 0
	}
	return len(s.samples)
}

// NumFeatures returns the widest feature vector inserted into the set.
func (s *Set) NumFeatures() int {
	return s.numFeatures
}

// Range calls f for every sample in the set in no particular order
// until f returns false.
func (s *Set) Range(f func(ID, Sample) bool) {
	for id, smp := range s.samples {
		if !f(id, smp) {
			return
		}
	}
}

// IDs returns the ids of the samples in the set in ascending order.
func (s *Set) IDs() []ID {
	if s == nil {
		return nil
	}
	ids := make([]ID, 0, len(s.samples))
	for id := range s.samples {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids
}

// Samples returns the samples of the set ordered by ascending id.
func (s *Set) Samples() []Sample {
	ids := s.IDs()
	samples := make([]Sample, 0, len(ids))
	for _, id := range ids {
		samples = append(samples, s.samples[id])
	}
	return samples
}

// Reserve makes sure the set can hold n samples without further growth.
func (s *Set) Reserve(n int) {
	if n <= len(s.samples) {
		return
	}
	s.rehash(n)
}

// Fit releases any capacity beyond the samples currently held.
func (s *Set) Fit() {
	s.rehash(len(s.samples))
}

func (s *Set) rehash(capacity int) {
	samples := make(map[ID]Sample, capacity)
	for id, smp := range s.samples {
		samples[id] = smp
	}
	s.samples = samples
}

// Clone returns an independent copy of the set. Samples are shared as
// they are immutable.
func (s *Set) Clone() *Set {
	c := &Set{samples: make(map[ID]Sample, len(s.samples)), numFeatures: s.numFeatures}
	for id, smp := range s.samples {
		c.samples[id] = smp
	}
	return c
}

// LabelCounts returns the number of samples of every label in the set.
func (s *Set) LabelCounts() map[uint8]int {
	counts := make(map[uint8]int)
	for _, smp := range s.samples {
		counts[smp.Label]++
	}
	return counts
}

// Labels returns the distinct labels in the set in ascending order.
func (s *Set) Labels() []uint8 {
	counts := s.LabelCounts()
	labels := make([]uint8, 0, len(counts))
	for l := range counts {
		labels = append(labels, l)
	}
	sort.Slice(labels, func(i, j int) bool { return labels[i] < labels[j] })
	return labels
}
