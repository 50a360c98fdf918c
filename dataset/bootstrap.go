package dataset

import (
	"fmt"
	"math/rand"
)

// DefaultBootstrapRatio is the share of the train partition drawn into
// every in-bag subset.
const DefaultBootstrapRatio = 0.632

/*
Bag is the training material of a single tree.

Data holds the samples the tree is grown from. InBag holds the ids of
the train partition that were drawn into Data and OOB holds the rest of
the train partition ids. InBag and OOB never overlap and together they
are exactly the train partition ids. Data may hold more entries than
InBag when it was extended, but those extra entries are copies of in-bag
samples stored under otherwise unused ids.
*/
type Bag struct {
	Data  *Set
	InBag IDSet
	OOB   IDSet
}

/*
Bootstrap draws Bags from a train partition.

Samples are drawn with replacement from a materialized slice of train
ids until Data holds floor(Ratio*|train|) distinct samples. When Extend
is set, Data is then padded back up to |train| samples with Extend using
ids in [0, IDSpace).
*/
type Bootstrap struct {
	Ratio   float64
	Extend  bool
	IDSpace int
	Rand    *rand.Rand
}

// Sample takes the train partition and returns a new Bag drawn from it.
func (b *Bootstrap) Sample(train *Set) (*Bag, error) {
	if train == nil || train.Len() == 0 {
		return nil, fmt.Errorf("cannot bootstrap an empty train set")
	}
	ratio := b.Ratio
	if ratio <= 0 || ratio > 1 {
		return nil, fmt.Errorf("bootstrap ratio %v is not in the (0, 1] range", ratio)
	}
	rnd := b.Rand
	if rnd == nil {
		rnd = rand.New(rand.NewSource(rand.Int63()))
	}
	ids := train.IDs()
	n := len(ids)
	target := int(float64(n) * ratio)
	if target == 0 {
		target = 1
	}

	bag := &Bag{
		Data:  NewSet(target),
		InBag: NewIDSet(target),
		OOB:   NewIDSet(n - target),
	}
	for bag.Data.Len() < target {
		id := ids[rnd.Intn(n)]
		smp, _ := train.Find(id)
		bag.InBag.Add(id)
		bag.Data.Insert(id, smp)
	}
	for _, id := range ids {
		if !bag.InBag.Contains(id) {
			bag.OOB.Add(id)
		}
	}
	if b.Extend {
		idSpace := b.IDSpace
		if idSpace < n {
			idSpace = n
		}
		Extend(bag.Data, n, idSpace, rnd)
	}
	bag.Data.Fit()
	return bag, nil
}

/*
Extend pads data up to target samples by re-inserting randomly chosen
samples already in data under ids in [0, idSpace) that data does not
use yet. Free ids are consumed from the highest down. Padding stops
early when no free id is left. It returns the number of samples added.
*/
func Extend(data *Set, target, idSpace int, rnd *rand.Rand) int {
	current := data.Len()
	if current == 0 || current >= target {
		return 0
	}
	existing := data.IDs()
	room := idSpace - current
	if room < 0 {
		room = 0
	}
	free := make([]ID, 0, room)
	for i := 0; i < idSpace; i++ {
		if !data.Contains(ID(i)) {
			free = append(free, ID(i))
		}
	}
	data.Reserve(target)
	added := 0
	for data.Len() < target && len(free) > 0 {
		smp, _ := data.Find(existing[rnd.Intn(len(existing))])
		data.Insert(free[len(free)-1], smp)
		free = free[:len(free)-1]
		added++
	}
	return added
}
