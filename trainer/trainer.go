package trainer

import (
	"context"
	"fmt"
	"log/slog"
	"math"

	"github.com/viettran-edgeAI/MCU-sub008/forest"
)

// State is a step of the trainer's search for MinSplit and MaxDepth.
type State int

const (
	// Normal waits for the next adjustment.
	Normal State = iota
	// Adjust nudges MinSplit or MaxDepth.
	Adjust
	// FirstEval records the first score after a nudge.
	FirstEval
	// SecondEval decides on a nudge from two scores.
	SecondEval
	// Optimal only tracks improvements until training stalls.
	Optimal
)

func (s State) String() string {
	switch s {
	case Normal:
		return "normal"
	case Adjust:
		return "adjust"
	case FirstEval:
		return "first_eval"
	case SecondEval:
		return "second_eval"
	case Optimal:
		return "optimal"
	}
	return fmt.Sprintf("state(%d)", int(s))
}

const (
	DefaultEpochs         = 20
	DefaultPatience       = 3
	DefaultMinImprovement = 0.003

	difficultScore    = 0.82
	difficultVariance = 0.1
	noisyEvaluation   = 0.05
)

type param int

const (
	noParam param = iota
	minSplitParam
	maxDepthParam
)

func (p param) String() string {
	switch p {
	case minSplitParam:
		return "min_split"
	case maxDepthParam:
		return "max_depth"
	}
	return "none"
}

/*
Trainer tunes MinSplit and MaxDepth of a forest by rebuilding and
evaluating it once per epoch.

Every nudge of a parameter is evaluated on two consecutive builds to damp
bootstrap noise, and kept only if their average beats the best score by
more than MinImprovement, discounted by half their spread when they
disagree by more than 0.05. A rejected nudge marks its parameter optimal.
Once both parameters are optimal the trainer keeps rebuilding until
Patience epochs pass without improvement or Epochs run out.
*/
type Trainer struct {
	Epochs         int
	Patience       int
	MinImprovement float64
	Baseline       Baseline
	Logger         *slog.Logger
	Metrics        *Metrics
}

// New returns a Trainer with the default budget that searches the
// ranges in the given Baseline.
func New(b Baseline) *Trainer {
	return &Trainer{
		Epochs:         DefaultEpochs,
		Patience:       DefaultPatience,
		MinImprovement: DefaultMinImprovement,
		Baseline:       b,
	}
}

// Result describes the outcome of a training run.
type Result struct {
	// Config is the configuration the forest is left built with.
	Config forest.Config
	// Best is the best combined score seen and BestConfig the
	// configuration that reached it.
	Best       float64
	BestConfig forest.Config
	// Evaluation is the evaluation of the forest as it is left.
	Evaluation  forest.Evaluation
	Epochs      int
	Difficult   bool
	Interrupted bool
}

type run struct {
	*Trainer
	ctx         context.Context
	f           *forest.Forest
	logger      *slog.Logger
	state       State
	optimal     map[param]bool
	changed     param
	first       float64
	best        float64
	bestCfg     forest.Config
	current     forest.Evaluation
	stall       int
	interrupted bool
}

/*
Train takes a context and a forest and tunes the forest's MinSplit and
MaxDepth within the Baseline ranges, leaving it built with the best
configuration found.

Cancelling the context stops training after the current epoch; the
forest is then rebuilt with the best configuration regardless of the
cancellation and the Result is marked as Interrupted. An error is only
returned when the forest cannot be built or configured.
*/
func (tr *Trainer) Train(ctx context.Context, f *forest.Forest) (*Result, error) {
	r := &run{
		Trainer: tr,
		ctx:     ctx,
		f:       f,
		logger:  tr.Logger,
		optimal: make(map[param]bool),
	}
	if r.logger == nil {
		r.logger = slog.New(slog.DiscardHandler)
	}
	return r.train()
}

func (r *run) train() (*Result, error) {
	res := &Result{}
	e1, err := r.evaluate(r.ctx)
	if err != nil {
		return nil, err
	}
	e2, err := r.evaluate(r.ctx)
	if err != nil {
		return nil, err
	}
	useValidation := r.f.Partition() != nil && r.f.Partition().UseValidation
	oob := (e1.OOB + e2.OOB) / 2
	valid := (e1.Validation + e2.Validation) / 2
	variance := math.Abs(e1.OOB-e2.OOB) + math.Abs(e1.Validation-e2.Validation)
	res.Difficult = oob < difficultScore || (useValidation && valid < difficultScore) || variance > difficultVariance
	r.best = (e1.Combined + e2.Combined) / 2
	r.bestCfg = r.f.Config()
	r.logger.Info("baseline evaluated",
		"oob", oob, "validation", valid, "variance", variance, "difficult", res.Difficult,
		"min_split", r.bestCfg.MinSplit, "max_depth", r.bestCfg.MaxDepth)

	epoch := 0
	for epoch < r.Epochs {
		if r.ctx.Err() != nil {
			r.interrupted = true
			break
		}
		epoch++
		r.Metrics.epoch()
		if r.state == Normal {
			if err := r.adjust(res.Difficult); err != nil {
				return nil, err
			}
		}
		e, err := r.evaluate(r.ctx)
		if err != nil {
			if r.ctx.Err() != nil {
				r.interrupted = true
				break
			}
			return nil, err
		}
		stop, err := r.decide(e)
		if err != nil {
			if r.ctx.Err() != nil {
				r.interrupted = true
				break
			}
			return nil, err
		}
		if stop {
			break
		}
	}
	res.Epochs = epoch

	if r.interrupted {
		r.logger.Warn("training interrupted, restoring best config", "epoch", epoch, "best", r.best)
		if err := r.restore(context.WithoutCancel(r.ctx)); err != nil {
			return nil, err
		}
	} else if r.current.Combined < r.best-r.MinImprovement {
		r.logger.Info("restoring best config", "current", r.current.Combined, "best", r.best)
		if err := r.restore(r.ctx); err != nil {
			return nil, err
		}
	}
	res.Config = r.f.Config()
	res.Best = r.best
	res.BestConfig = r.bestCfg
	res.Evaluation = r.current
	res.Interrupted = r.interrupted
	return res, nil
}

func (r *run) setState(s State) {
	if s == r.state {
		return
	}
	r.logger.Debug("trainer state change", "from", r.state, "to", s)
	r.state = s
	r.Metrics.transition(s)
}

func (r *run) adjust(difficult bool) error {
	r.setState(Adjust)
	cfg := r.f.Config()
	r.changed = noParam
	if !r.optimal[minSplitParam] {
		step := -1
		if difficult {
			step = 1
		}
		if next := cfg.MinSplit + step; r.Baseline.MinSplit.Contains(next) {
			cfg.MinSplit = next
			r.changed = minSplitParam
		} else {
			r.optimal[minSplitParam] = true
		}
	}
	if r.changed == noParam && !r.optimal[maxDepthParam] {
		step := 1
		if difficult {
			step = -1
		}
		if next := cfg.MaxDepth + step; r.Baseline.MaxDepth.Contains(next) {
			cfg.MaxDepth = next
			r.changed = maxDepthParam
		} else {
			r.optimal[maxDepthParam] = true
		}
	}
	if r.changed == noParam {
		r.setState(Optimal)
		return nil
	}
	if err := r.f.SetConfig(cfg); err != nil {
		return err
	}
	r.logger.Debug("parameter nudged", "param", r.changed, "min_split", cfg.MinSplit, "max_depth", cfg.MaxDepth)
	r.setState(FirstEval)
	return nil
}

func (r *run) decide(e forest.Evaluation) (bool, error) {
	switch r.state {
	case FirstEval:
		r.first = e.Combined
		r.setState(SecondEval)
	case SecondEval:
		avg := (r.first + e.Combined) / 2
		effective := avg - r.best
		if spread := math.Abs(r.first - e.Combined); spread > noisyEvaluation {
			effective -= 0.5 * spread
		}
		if effective > r.MinImprovement {
			r.logger.Info("parameter change accepted", "param", r.changed, "score", avg, "previous", r.best)
			r.best = avg
			r.bestCfg = r.f.Config()
		} else {
			r.logger.Debug("parameter change rejected", "param", r.changed, "score", avg, "best", r.best)
			r.optimal[r.changed] = true
			if err := r.restore(r.ctx); err != nil {
				return false, err
			}
		}
		r.changed = noParam
		r.stall = 0
		r.setState(Normal)
	default:
		if e.Combined > r.best+r.MinImprovement {
			r.best = e.Combined
			r.bestCfg = r.f.Config()
			r.stall = 0
		} else if r.state == Optimal {
			r.stall++
		}
		if r.stall >= r.Patience {
			r.logger.Info("training stalled", "epochs_without_improvement", r.stall, "best", r.best)
			return true, nil
		}
	}
	return false, nil
}

func (r *run) restore(ctx context.Context) error {
	if err := r.f.SetConfig(r.bestCfg); err != nil {
		return err
	}
	_, err := r.evaluate(ctx)
	return err
}

func (r *run) evaluate(ctx context.Context) (forest.Evaluation, error) {
	if err := r.f.Build(ctx); err != nil {
		return forest.Evaluation{}, err
	}
	r.Metrics.build()
	r.current = r.f.Evaluate()
	r.Metrics.evaluation(r.current, math.Max(r.best, r.current.Combined))
	return r.current, nil
}
