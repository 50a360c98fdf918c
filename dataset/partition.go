package dataset

import (
	"fmt"
	"math/rand"
)

const (
	// DefaultTrainRatio is the share of samples assigned to the train partition.
	DefaultTrainRatio = 0.6
	// DefaultValidRatio is the share of samples assigned to the validation partition.
	DefaultValidRatio = 0.2
	// DefaultMinValidationSamples is the minimum number of samples of the
	// rarest label the validation partition is expected to hold for
	// validation to stay enabled.
	DefaultMinValidationSamples = 10
	// DefaultFallbackTrainRatio is the train ratio used when validation
	// has to be disabled.
	DefaultFallbackTrainRatio = 0.7
)

// Partition holds the independent train, test and validation sets a
// full dataset was split into, along with the ratios actually applied.
type Partition struct {
	Train         *Set
	Test          *Set
	Validation    *Set
	UseValidation bool
	TrainRatio    float64
	ValidRatio    float64
}

/*
Partitioner splits a dataset into train, test and, optionally,
validation partitions.

Ids are shuffled with a Fisher-Yates pass driven by Rand and then sliced
by ratio: the first TrainRatio share goes to train, half of the remainder
goes to test and the rest to validation. Without validation the whole
remainder goes to test.

Validation is only kept when the rarest label is expected to contribute
at least MinValidationSamples samples to it; otherwise it is disabled
and FallbackTrainRatio is used as train ratio.
*/
type Partitioner struct {
	TrainRatio           float64
	ValidRatio           float64
	UseValidation        bool
	MinValidationSamples int
	FallbackTrainRatio   float64
	Rand                 *rand.Rand
}

// NewPartitioner returns a Partitioner with the default ratios that
// uses the given source of randomness.
func NewPartitioner(rnd *rand.Rand) *Partitioner {
	return &Partitioner{
		TrainRatio:           DefaultTrainRatio,
		ValidRatio:           DefaultValidRatio,
		UseValidation:        true,
		MinValidationSamples: DefaultMinValidationSamples,
		FallbackTrainRatio:   DefaultFallbackTrainRatio,
		Rand:                 rnd,
	}
}

// ValidationViable takes a dataset and returns whether its rarest label
// would contribute enough samples to a validation partition.
func (p *Partitioner) ValidationViable(full *Set) bool {
	if p.ValidRatio <= 0 || full.Len() == 0 {
		return false
	}
	lowestShare := Scan(full).LowestShare
	return lowestShare*float64(full.Len())*p.ValidRatio >= float64(p.MinValidationSamples)
}

// Split takes the full dataset and returns a new Partition of it.
// The viability of validation is evaluated on every call.
func (p *Partitioner) Split(full *Set) (*Partition, error) {
	if full == nil || full.Len() == 0 {
		return nil, fmt.Errorf("cannot partition an empty dataset")
	}
	trainRatio := p.TrainRatio
	validRatio := p.ValidRatio
	useValidation := p.UseValidation
	if useValidation && !p.ValidationViable(full) {
		useValidation = false
		trainRatio = p.FallbackTrainRatio
	}
	if !useValidation {
		validRatio = 0
	}
	if trainRatio <= 0 || trainRatio >= 1 {
		return nil, fmt.Errorf("train ratio %v is not in the (0, 1) range", trainRatio)
	}
	rnd := p.Rand
	if rnd == nil {
		rnd = rand.New(rand.NewSource(rand.Int63()))
	}

	ids := full.IDs()
	for i := len(ids) - 1; i > 0; i-- {
		j := rnd.Intn(i + 1)
		ids[i], ids[j] = ids[j], ids[i]
	}

	total := len(ids)
	trainSize := int(float64(total) * trainRatio)
	testSize := total - trainSize
	if useValidation {
		testSize = int(float64(total-trainSize) * 0.5)
	}
	validSize := total - trainSize - testSize

	part := &Partition{
		Train:         NewSet(trainSize),
		Test:          NewSet(testSize),
		Validation:    NewSet(validSize),
		UseValidation: useValidation,
		TrainRatio:    trainRatio,
		ValidRatio:    validRatio,
	}
	for i, id := range ids {
		smp, _ := full.Find(id)
		switch {
		case i < trainSize:
			part.Train.Insert(id, smp)
		case i < trainSize+testSize:
			part.Test.Insert(id, smp)
		case useValidation:
			part.Validation.Insert(id, smp)
		}
	}
	return part, nil
}
