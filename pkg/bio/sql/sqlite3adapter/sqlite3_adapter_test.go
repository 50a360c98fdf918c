package sqlite3adapter

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/viettran-edgeAI/MCU-sub008/dataset"
	"github.com/viettran-edgeAI/MCU-sub008/pkg/bio"
	biosql "github.com/viettran-edgeAI/MCU-sub008/pkg/bio/sql"
)

func TestWriteAndReadSet(t *testing.T) {
	ctx := context.Background()
	a, err := New(filepath.Join(t.TempDir(), "set.db"))
	if err != nil {
		t.Fatalf("unexpected error opening database: %v", err)
	}
	defer a.Close()
	set := dataset.NewSet(25)
	for i := 0; i < 25; i++ {
		set.Insert(dataset.ID(i), dataset.NewSample(uint8(i%3), uint8(i%4), uint8((i/4)%4)))
	}
	n, err := biosql.WriteSet(ctx, a, set)
	if err != nil {
		t.Fatalf("unexpected error writing set: %v", err)
	}
	if n != 25 {
		t.Errorf("expected 25 samples written, got %d", n)
	}
	count, err := a.CountSamples(ctx)
	if err != nil || count != 25 {
		t.Fatalf("expected 25 samples counted, got %d (%v)", count, err)
	}
	// a row that does not fit the dataset is skipped on read
	_, err = a.AddSamples(ctx, []biosql.Row{{ID: 100, Label: 1, Features: []byte{9, 0}}})
	if err != nil {
		t.Fatalf("unexpected error adding a row: %v", err)
	}
	read, stats, err := biosql.ReadSet(ctx, a, bio.LoadOptions{})
	if err != nil {
		t.Fatalf("unexpected error reading set: %v", err)
	}
	if stats.Loaded != 25 || stats.Skipped != 1 {
		t.Errorf("expected 25 loaded and 1 skipped, got %+v", stats)
	}
	for _, id := range set.IDs() {
		want, _ := set.Find(id)
		got, ok := read.Find(id)
		if !ok || got.String() != want.String() {
			t.Errorf("expected sample %d to be %v, got %v", id, want, got)
		}
	}
	limited, _, err := biosql.ReadSet(ctx, a, bio.LoadOptions{MaxRows: 7})
	if err != nil {
		t.Fatalf("unexpected error reading set: %v", err)
	}
	if limited.Len() != 7 {
		t.Errorf("expected 7 samples with MaxRows 7, got %d", limited.Len())
	}
}
