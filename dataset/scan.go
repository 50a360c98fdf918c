package dataset

import "sort"

// Summary describes the shape and label distribution of a dataset.
type Summary struct {
	NumSamples  int
	NumFeatures int
	// NumLabels is one past the highest label found, so every label
	// present is a valid index in 0..NumLabels-1.
	NumLabels   int
	LabelCounts map[uint8]int
	// LowestShare is the fraction of samples of the rarest label.
	LowestShare float64
	// ImbalanceRatio is the sample count of the most frequent label
	// divided by that of the rarest one.
	ImbalanceRatio float64
	// FeatureValues holds every distinct bin value seen in any feature.
	FeatureValues []uint8
}

// Scan walks the set once and returns its Summary.
func Scan(s *Set) Summary {
	sum := Summary{LabelCounts: make(map[uint8]int)}
	if s == nil {
		return sum
	}
	seen := make(map[uint8]struct{})
	s.Range(func(_ ID, smp Sample) bool {
		sum.NumSamples++
		sum.LabelCounts[smp.Label]++
		if int(smp.Label)+1 > sum.NumLabels {
			sum.NumLabels = int(smp.Label) + 1
		}
		if len(smp.Features) > sum.NumFeatures {
			sum.NumFeatures = len(smp.Features)
		}
		for _, v := range smp.Features {
			seen[v] = struct{}{}
		}
		return true
	})
	for v := range seen {
		sum.FeatureValues = append(sum.FeatureValues, v)
	}
	sort.Slice(sum.FeatureValues, func(i, j int) bool { return sum.FeatureValues[i] < sum.FeatureValues[j] })
	if sum.NumSamples == 0 {
		return sum
	}
	minority, majority := sum.NumSamples, 0
	for _, c := range sum.LabelCounts {
		if c > majority {
			majority = c
		}
		if c < minority {
			minority = c
		}
	}
	sum.LowestShare = float64(minority) / float64(sum.NumSamples)
	if minority > 0 {
		sum.ImbalanceRatio = float64(majority) / float64(minority)
	}
	return sum
}

// Share returns the fraction of samples with the given label.
func (s Summary) Share(label uint8) float64 {
	if s.NumSamples == 0 {
		return 0
	}
	return float64(s.LabelCounts[label]) / float64(s.NumSamples)
}
