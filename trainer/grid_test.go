package trainer

import (
	"context"
	"log/slog"
	"math"
	"reflect"
	"testing"

	"github.com/viettran-edgeAI/MCU-sub008/dataset"
	"github.com/viettran-edgeAI/MCU-sub008/forest"
)

func TestSweep(t *testing.T) {
	testCases := []struct {
		base     float64
		expected []float64
	}{
		{0.625, []float64{0.425, 0.525, 0.625, 0.725}},
		{0.15, []float64{0.15, 0.25}},
		{0.9, []float64{0.7, 0.8, 0.9}},
		{2, []float64{0.95}},
	}
	for _, tc := range testCases {
		got := sweep(tc.base)
		if len(got) != len(tc.expected) {
			t.Errorf("sweeping %v: expected %v, got %v", tc.base, tc.expected, got)
			continue
		}
		for i := range got {
			if math.Abs(got[i]-tc.expected[i]) > 1e-9 {
				t.Errorf("sweeping %v: expected %v, got %v", tc.base, tc.expected, got)
				break
			}
		}
	}
}

func TestGridCombinations(t *testing.T) {
	g := NewGrid(Baseline{UnityThreshold: 0.625, CombineRatio: 0.6})
	combos := g.Combinations()
	if len(combos) != 4*3*2*2*(1+4) {
		t.Errorf("expected %d combinations, got %d", 4*3*2*2*5, len(combos))
	}
	for _, c := range combos {
		if !c.Validation && c.CombineRatio != 0 {
			t.Fatalf("combination without validation sweeps combine ratio: %+v", c)
		}
	}
	cfg := Combination{UnityThreshold: 0.3, ImpurityThreshold: 0.2, CombineRatio: 0.7, Gini: false, Validation: false}.Apply(forest.DefaultConfig())
	if cfg.TrainRatio != 0.75 || cfg.ValidRatio != 0 || cfg.CombineRatio != 0 || cfg.UseGini || cfg.UseValidation {
		t.Errorf("unexpected config without validation %+v", cfg)
	}
	cfg = Combination{CombineRatio: 0.7, Validation: true}.Apply(forest.DefaultConfig())
	if cfg.TrainRatio != 0.65 || cfg.ValidRatio != 0.15 || cfg.CombineRatio != 0.7 {
		t.Errorf("unexpected config with validation %+v", cfg)
	}
}

func TestSearchRun(t *testing.T) {
	full := noisySet(200, 2, 4)
	b := NewBaseline(dataset.Scan(full))
	cfg := b.Apply(forest.DefaultConfig())
	cfg.NumTrees = 4
	tr := New(b)
	tr.Epochs = 3
	s := &Search{
		Grid: Grid{
			UnityThresholds:    []float64{0.5},
			ImpurityThresholds: []float64{0.1},
			CombineRatios:      []float64{0.5},
			Bootstrap:          []bool{true},
			Gini:               []bool{true, false},
			Validation:         []bool{false, true},
		},
		Instances: 2,
		Trainer:   tr,
		Metrics:   NewMetrics(),
	}
	out, err := s.Run(context.Background(), full, cfg)
	if err != nil {
		t.Fatal(err)
	}
	if out.Combinations != 4 || out.Interrupted {
		t.Errorf("expected 4 uninterrupted combinations, got %d %v", out.Combinations, out.Interrupted)
	}
	if out.Forest == nil || out.Report == nil {
		t.Fatalf("expected a best forest and its report")
	}
	if out.Score < 0 || out.Score > 1 || out.MeanScore > out.Score+1e-9 {
		t.Errorf("unexpected scores %v and %v", out.Score, out.MeanScore)
	}
	if !reflect.DeepEqual(out.Config, out.Forest.Config()) {
		t.Errorf("expected the outcome config to be the best forest's")
	}
	if out.Config.UnityThreshold != 0.5 || out.Config.UseGini != out.Combination.Gini {
		t.Errorf("expected the combination values in the outcome config")
	}
}

func TestSearchCancelled(t *testing.T) {
	full := noisySet(60, 2, 5)
	b := NewBaseline(dataset.Scan(full))
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	s := &Search{Grid: NewGrid(b), Trainer: New(b)}
	if _, err := s.Run(ctx, full, b.Apply(forest.DefaultConfig())); err == nil {
		t.Errorf("expected an error from a search cancelled before its first combination")
	}
}

func TestSearchInterruptedKeepsBest(t *testing.T) {
	full := noisySet(120, 2, 7)
	b := NewBaseline(dataset.Scan(full))
	cfg := b.Apply(forest.DefaultConfig())
	cfg.NumTrees = 3
	tr := New(b)
	tr.Epochs = 1
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	s := &Search{
		Grid: Grid{
			UnityThresholds:    []float64{0.5},
			ImpurityThresholds: []float64{0.1},
			CombineRatios:      []float64{0.5},
			Bootstrap:          []bool{true},
			Gini:               []bool{true, false},
			Validation:         []bool{false},
		},
		Instances: 1,
		Trainer:   tr,
		Logger:    slog.New(&cancelOnMessage{Handler: slog.DiscardHandler, message: "grid search improved", cancel: cancel}),
	}
	out, err := s.Run(ctx, full, cfg)
	if err != nil {
		t.Fatal(err)
	}
	if !out.Interrupted || out.Combinations != 1 {
		t.Errorf("expected an interruption after 1 combination, got %v after %d", out.Interrupted, out.Combinations)
	}
	if out.Forest == nil || out.Report == nil {
		t.Fatalf("expected the best forest so far")
	}
	if !out.Combination.Gini || !out.Config.UseGini {
		t.Errorf("expected the first combination to be kept, got %+v", out.Combination)
	}
}
