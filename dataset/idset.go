package dataset

import "sort"

// IDSet is a set of sample ids.
type IDSet map[ID]struct{}

// NewIDSet returns an empty IDSet with room for capacity ids.
func NewIDSet(capacity int) IDSet {
	return make(IDSet, capacity)
}

// Add inserts the id into the set.
func (s IDSet) Add(id ID) {
	s[id] = struct{}{}
}

// Contains returns whether id belongs to the set.
func (s IDSet) Contains(id ID) bool {
	_, ok := s[id]
	return ok
}

// Len returns the number of ids in the set.
func (s IDSet) Len() int {
	return len(s)
}

// Sorted returns the ids of the set in ascending order.
func (s IDSet) Sorted() []ID {
	ids := make([]ID, 0, len(s))
	for id := range s {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids
}
