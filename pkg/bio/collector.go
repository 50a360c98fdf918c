package bio

import (
	"github.com/pkg/errors"
	"github.com/viettran-edgeAI/MCU-sub008/dataset"
)

/*
Collector gathers samples read from any source into a dataset.Set,
enforcing the LoadOptions on them.

Samples are range checked and given consecutive ids starting at 0. The
number of features of the first accepted sample is expected from every
sample after it. Rejected samples are counted as skipped on the
LoadStats and logged at debug level.
*/
type Collector struct {
	opts        LoadOptions
	set         *dataset.Set
	stats       LoadStats
	numFeatures int
}

// NewCollector returns an empty Collector for the given options.
func NewCollector(opts LoadOptions) *Collector {
	opts = opts.withDefaults()
	return &Collector{opts: opts, set: dataset.NewSet(0)}
}

// Full returns whether MaxRows samples have been accepted.
func (c *Collector) Full() bool {
	return c.set.Len() >= c.opts.MaxRows
}

/*
Add takes the position of a record in its source, a label and the bin
of every feature, and adds a sample with them to the set. If they do not
make a valid sample the record is skipped and the reason returned.
*/
func (c *Collector) Add(pos int, label int, features []int) error {
	c.stats.Rows++
	smp, err := c.sample(label, features)
	if err != nil {
		c.skip(pos, err)
		return err
	}
	if c.numFeatures == 0 {
		c.numFeatures = len(smp.Features)
	}
	c.set.Insert(dataset.ID(c.set.Len()), smp)
	return nil
}

// Skip counts a record that could not be read at all.
func (c *Collector) Skip(pos int, reason error) {
	c.stats.Rows++
	c.skip(pos, reason)
}

func (c *Collector) skip(pos int, reason error) {
	c.stats.Skipped++
	c.opts.Logger.Debug("skipping malformed record", "record", pos, "error", reason)
}

// Finish returns the collected set and the LoadStats of the read,
// logging a summary warning if any record was skipped.
func (c *Collector) Finish() (*dataset.Set, LoadStats) {
	c.stats.Loaded = c.set.Len()
	if c.stats.Skipped > 0 {
		c.opts.Logger.Warn("skipped malformed records", "skipped", c.stats.Skipped, "loaded", c.stats.Loaded)
	}
	return c.set, c.stats
}

func (c *Collector) sample(label int, features []int) (dataset.Sample, error) {
	if len(features) == 0 {
		return dataset.Sample{}, errors.New("sample has no features")
	}
	if c.numFeatures > 0 && len(features) != c.numFeatures {
		return dataset.Sample{}, errors.Errorf("expected %d features, got %d", c.numFeatures, len(features))
	}
	if len(features) > MaxFeatures {
		return dataset.Sample{}, errors.Errorf("%d features exceed the maximum of %d", len(features), MaxFeatures)
	}
	if label < 0 || label >= MaxLabels {
		return dataset.Sample{}, errors.Errorf("label %d out of range [0, %d)", label, MaxLabels)
	}
	bins := make([]uint8, len(features))
	for i, v := range features {
		if v < 0 || v >= c.opts.GroupsPerFeature {
			return dataset.Sample{}, errors.Errorf("feature %d value %d out of range [0, %d)", i, v, c.opts.GroupsPerFeature)
		}
		bins[i] = uint8(v)
	}
	return dataset.NewSample(uint8(label), bins...), nil
}
