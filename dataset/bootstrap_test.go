package dataset

import (
	"math/rand"
	"testing"
)

func TestBootstrapBagInvariants(t *testing.T) {
	rnd := rand.New(rand.NewSource(4))
	train := balancedSet(100, 3, rnd)
	for _, extend := range []bool{false, true} {
		b := &Bootstrap{Ratio: DefaultBootstrapRatio, Extend: extend, IDSpace: 150, Rand: rnd}
		bag, err := b.Sample(train)
		if err != nil {
			t.Fatal(err)
		}
		if bag.InBag.Len() != 63 {
			t.Errorf("extend=%v: expected 63 in-bag ids, got %d", extend, bag.InBag.Len())
		}
		for id := range bag.InBag {
			if bag.OOB.Contains(id) {
				t.Errorf("extend=%v: id %d is both in-bag and out-of-bag", extend, id)
			}
		}
		if bag.InBag.Len()+bag.OOB.Len() != train.Len() {
			t.Errorf("extend=%v: in-bag and OOB ids do not cover the train set", extend)
		}
		for _, id := range train.IDs() {
			if !bag.InBag.Contains(id) && !bag.OOB.Contains(id) {
				t.Errorf("extend=%v: train id %d is neither in-bag nor OOB", extend, id)
			}
		}
		if extend && bag.Data.Len() != train.Len() {
			t.Errorf("expected extended bag to hold %d samples, got %d", train.Len(), bag.Data.Len())
		}
		if !extend && bag.Data.Len() != 63 {
			t.Errorf("expected bag to hold 63 samples, got %d", bag.Data.Len())
		}
	}
}

func TestExtendStopsWithoutFreeIDs(t *testing.T) {
	rnd := rand.New(rand.NewSource(5))
	data := NewSet(0)
	data.Insert(0, NewSample(0, 1))
	data.Insert(1, NewSample(1, 2))
	added := Extend(data, 10, 4, rnd)
	if added != 2 || data.Len() != 4 {
		t.Errorf("expected 2 samples added up to 4, got %d added and %d held", added, data.Len())
	}
	for _, id := range data.IDs() {
		if id >= 4 {
			t.Errorf("extended id %d out of the id space", id)
		}
	}
}

func TestBootstrapRejectsEmptyTrainSet(t *testing.T) {
	b := &Bootstrap{Ratio: DefaultBootstrapRatio}
	if _, err := b.Sample(NewSet(0)); err == nil {
		t.Errorf("expected an error bootstrapping an empty set")
	}
}
