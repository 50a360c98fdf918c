package trainer

import (
	"context"
	"fmt"
	"log/slog"
	"math"

	"github.com/sourcegraph/conc/pool"
	"github.com/viettran-edgeAI/MCU-sub008/dataset"
	"github.com/viettran-edgeAI/MCU-sub008/forest"
)

const (
	DefaultInstances = 3

	sweepMin = 0.1
	sweepMax = 0.95

	gridTrainRatio         = 0.65
	gridValidRatio         = 0.15
	gridFallbackTrainRatio = 0.75
)

// Grid holds the values swept by the grid search for every dimension.
type Grid struct {
	UnityThresholds    []float64
	ImpurityThresholds []float64
	CombineRatios      []float64
	Bootstrap          []bool
	Gini               []bool
	Validation         []bool
}

// NewGrid returns the grid swept around the given Baseline.
func NewGrid(b Baseline) Grid {
	return Grid{
		UnityThresholds:    sweep(b.UnityThreshold),
		ImpurityThresholds: []float64{0.05, 0.1, 0.2},
		CombineRatios:      sweep(b.CombineRatio),
		Bootstrap:          []bool{true, false},
		Gini:               []bool{true, false},
		Validation:         []bool{false, true},
	}
}

// sweep returns base+0.1*k for k in -2..1 that fall in [0.1, 0.95].
func sweep(base float64) []float64 {
	var values []float64
	for k := -2; k <= 1; k++ {
		v := math.Round((base+0.1*float64(k))*1000) / 1000
		if v >= sweepMin && v <= sweepMax {
			values = append(values, v)
		}
	}
	if len(values) == 0 {
		values = append(values, math.Max(sweepMin, math.Min(sweepMax, base)))
	}
	return values
}

// Combination is a single point of a Grid.
type Combination struct {
	UnityThreshold    float64
	ImpurityThreshold float64
	CombineRatio      float64
	Bootstrap         bool
	Gini              bool
	Validation        bool
}

// Apply returns cfg with the values of the combination. Without
// validation the train ratio is raised and the combine ratio zeroed.
func (c Combination) Apply(cfg forest.Config) forest.Config {
	cfg.UnityThreshold = c.UnityThreshold
	cfg.ImpurityThreshold = c.ImpurityThreshold
	cfg.UseBootstrap = c.Bootstrap
	cfg.UseGini = c.Gini
	cfg.UseValidation = c.Validation
	if c.Validation {
		cfg.TrainRatio, cfg.ValidRatio, cfg.CombineRatio = gridTrainRatio, gridValidRatio, c.CombineRatio
	} else {
		cfg.TrainRatio, cfg.ValidRatio, cfg.CombineRatio = gridFallbackTrainRatio, 0, 0
	}
	return cfg
}

// Combinations returns every combination of the grid. Combine ratios
// are only swept for combinations with validation since they are
// ignored otherwise.
func (g Grid) Combinations() []Combination {
	var combos []Combination
	for _, u := range g.UnityThresholds {
		for _, imp := range g.ImpurityThresholds {
			for _, bs := range g.Bootstrap {
				for _, gini := range g.Gini {
					for _, v := range g.Validation {
						ratios := g.CombineRatios
						if !v {
							ratios = []float64{0}
						}
						for _, c := range ratios {
							combos = append(combos, Combination{
								UnityThreshold:    u,
								ImpurityThreshold: imp,
								CombineRatio:      c,
								Bootstrap:         bs,
								Gini:              gini,
								Validation:        v,
							})
						}
					}
				}
			}
		}
	}
	return combos
}

/*
Search runs the Trainer on Instances independent forests for every
combination of a Grid and keeps the single forest that scores best on
its own test partition.

Instances of a combination are trained concurrently, each one with a
seed of its own derived from the base configuration's, and scored with
the objective of the base configuration. A combination's score is the
mean score of its instances.
*/
type Search struct {
	Grid      Grid
	Instances int
	Trainer   *Trainer
	Logger    *slog.Logger
	Metrics   *Metrics
	// Options are passed to every forest created.
	Options []forest.Option
}

// Outcome is the result of a grid search.
type Outcome struct {
	Forest      *forest.Forest
	Config      forest.Config
	Combination Combination
	// Score is the test score of Forest and MeanScore the mean test
	// score of the instances of its combination.
	Score        float64
	MeanScore    float64
	Report       *forest.Report
	Combinations int
	Interrupted  bool
}

type instance struct {
	forest *forest.Forest
	score  float64
	report *forest.Report
	result *Result
}

/*
Run takes a context, the full dataset and a base configuration and
sweeps the grid, returning the best Outcome found.

Cancelling the context stops the search between combinations and
returns the best outcome so far marked as Interrupted. An error is
returned if no combination could be trained.
*/
func (s *Search) Run(ctx context.Context, full *dataset.Set, base forest.Config) (*Outcome, error) {
	logger := s.Logger
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	instances := s.Instances
	if instances <= 0 {
		instances = DefaultInstances
	}
	combos := s.Grid.Combinations()
	logger.Info("grid search started", "combinations", len(combos), "instances", instances)
	var best *Outcome
	interrupted := false
	for ci, c := range combos {
		if ctx.Err() != nil {
			interrupted = true
			break
		}
		cfg := c.Apply(base)
		results, err := s.runCombination(ctx, full, cfg, ci*instances, instances)
		if err != nil {
			logger.Error("training combination", "combination", ci, "error", err)
			continue
		}
		sum := 0.0
		top := results[0]
		for _, r := range results {
			sum += r.score
			if r.score > top.score {
				top = r
			}
			if r.result.Interrupted {
				interrupted = true
			}
		}
		meanScore := sum / float64(len(results))
		if best == nil {
			best = &Outcome{}
		}
		best.Combinations++
		if best.Forest == nil || meanScore > best.MeanScore {
			best.Forest = top.forest
			best.Config = top.forest.Config()
			best.Combination = c
			best.Score = top.score
			best.MeanScore = meanScore
			best.Report = top.report
			logger.Info("grid search improved", "combination", ci, "mean_score", meanScore, "score", top.score,
				"unity", c.UnityThreshold, "impurity", c.ImpurityThreshold, "combine", c.CombineRatio,
				"bootstrap", c.Bootstrap, "gini", c.Gini, "validation", c.Validation)
		}
		s.Metrics.combination(best.MeanScore)
		if interrupted {
			break
		}
	}
	if best == nil || best.Forest == nil {
		if interrupted {
			return nil, ctx.Err()
		}
		return nil, fmt.Errorf("no grid combination could be trained")
	}
	best.Interrupted = interrupted
	return best, nil
}

func (s *Search) runCombination(ctx context.Context, full *dataset.Set, cfg forest.Config, seedOffset, instances int) ([]*instance, error) {
	p := pool.NewWithResults[*instance]().WithContext(ctx).WithMaxGoroutines(instances)
	for k := 0; k < instances; k++ {
		icfg := cfg
		icfg.Seed = cfg.Seed + int64(seedOffset+k)
		p.Go(func(ctx context.Context) (*instance, error) {
			f, err := forest.New(full, icfg, s.Options...)
			if err != nil {
				return nil, err
			}
			res, err := s.Trainer.Train(ctx, f)
			if err != nil {
				return nil, err
			}
			report := f.Report(f.Partition().Test)
			return &instance{
				forest: f,
				score:  report.Score(icfg.Objective),
				report: report,
				result: res,
			}, nil
		})
	}
	return p.Wait()
}
