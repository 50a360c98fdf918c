package sql

import (
	"context"

	"github.com/pkg/errors"
	"github.com/viettran-edgeAI/MCU-sub008/dataset"
	"github.com/viettran-edgeAI/MCU-sub008/pkg/bio"
)

// MaxSamplesPerWrite is the number of rows handed to the adapter in a
// single AddSamples call by WriteSet.
const MaxSamplesPerWrite = 100

/*
ReadSet takes a context, an Adapter and bio.LoadOptions and returns a
dataset.Set with the samples stored through the adapter, the LoadStats of
the read or an error.

Rows are checked with the same rules as any other source: rows with an
out of range label or bin, or a feature count different from the first
valid row, are skipped and counted. The Header option is ignored.
*/
func ReadSet(ctx context.Context, a Adapter, opts bio.LoadOptions) (*dataset.Set, bio.LoadStats, error) {
	c := bio.NewCollector(opts)
	err := a.IterateOnSamples(ctx, 0, func(r Row) (bool, error) {
		features := make([]int, len(r.Features))
		for i, b := range r.Features {
			features[i] = int(b)
		}
		c.Add(int(r.ID), r.Label, features)
		return !c.Full(), nil
	})
	if err != nil {
		return nil, bio.LoadStats{}, errors.Wrap(err, "reading samples")
	}
	set, stats := c.Finish()
	return set, stats, nil
}

/*
WriteSet takes a context, an Adapter and a dataset.Set, ensures the
samples table exists and inserts every sample of the set in ascending id
order. It returns the number of samples written or an error.
*/
func WriteSet(ctx context.Context, a Adapter, set *dataset.Set) (int, error) {
	if err := a.CreateSampleTable(ctx); err != nil {
		return 0, errors.Wrap(err, "creating samples table")
	}
	written := 0
	rows := make([]Row, 0, MaxSamplesPerWrite)
	flush := func() error {
		n, err := a.AddSamples(ctx, rows)
		written += n
		rows = rows[:0]
		return err
	}
	for _, id := range set.IDs() {
		smp, _ := set.Find(id)
		rows = append(rows, Row{
			ID:       int64(id),
			Label:    int(smp.Label),
			Features: append([]byte(nil), smp.Features...),
		})
		if len(rows) == MaxSamplesPerWrite {
			if err := flush(); err != nil {
				return written, errors.Wrapf(err, "writing samples after %d", written)
			}
		}
	}
	if len(rows) > 0 {
		if err := flush(); err != nil {
			return written, errors.Wrapf(err, "writing samples after %d", written)
		}
	}
	return written, nil
}
