package trainer

import (
	"context"
	"log/slog"
	"math"
	"math/rand"
	"testing"

	"github.com/viettran-edgeAI/MCU-sub008/dataset"
	"github.com/viettran-edgeAI/MCU-sub008/forest"
)

func noisySet(n, labels int, seed int64) *dataset.Set {
	rnd := rand.New(rand.NewSource(seed))
	s := dataset.NewSet(n)
	for i := 0; i < n; i++ {
		label := uint8(i % labels)
		f := []uint8{label % 4, uint8(rnd.Intn(4)), (label + uint8(rnd.Intn(2))) % 4, uint8(rnd.Intn(4))}
		if rnd.Float64() < 0.15 {
			f[0] = uint8(rnd.Intn(4))
		}
		s.Insert(dataset.ID(i), dataset.NewSample(label, f...))
	}
	return s
}

func TestNewBaseline(t *testing.T) {
	testCases := []struct {
		name      string
		sum       dataset.Summary
		objective forest.Objective
		minSplit  Range
		maxDepth  Range
		unity     float64
		combine   float64
	}{
		{
			name:      "balanced",
			sum:       dataset.Summary{NumSamples: 1000, NumFeatures: 8, NumLabels: 2, LowestShare: 0.5, ImbalanceRatio: 1},
			objective: forest.Accuracy,
			minSplit:  Range{3, 12},
			maxDepth:  Range{3, 4},
			unity:     0.625,
			combine:   0.68,
		},
		{
			name:      "large",
			sum:       dataset.Summary{NumSamples: 3000, NumFeatures: 100, NumLabels: 4, LowestShare: 0.1, ImbalanceRatio: 5},
			objective: forest.F1,
			minSplit:  Range{6, 12},
			maxDepth:  Range{3, 8},
			unity:     0.3125,
			combine:   0.4 + 0.4*0.6 + 0.2*0.4,
		},
		{
			name:      "two features",
			sum:       dataset.Summary{NumSamples: 100, NumFeatures: 2, NumLabels: 3, LowestShare: 0.05, ImbalanceRatio: 12},
			objective: forest.Recall,
			minSplit:  Range{3, 12},
			maxDepth:  Range{3, 3},
			unity:     0.4,
			combine:   0.4 + 0.4*0.02 + 0.2*0.15,
		},
		{
			name:      "mildly imbalanced",
			sum:       dataset.Summary{NumSamples: 100, NumFeatures: 16, NumLabels: 2, LowestShare: 0.4, ImbalanceRatio: 2},
			objective: forest.Precision,
			minSplit:  Range{3, 12},
			maxDepth:  Range{3, 6},
			unity:     0.625,
			combine:   0.4 + 0.4*0.02 + 0.2*0.8,
		},
	}
	for _, tc := range testCases {
		b := NewBaseline(tc.sum)
		if b.Objective != tc.objective {
			t.Errorf("%s: expected objective %v, got %v", tc.name, tc.objective, b.Objective)
		}
		if b.MinSplit != tc.minSplit || b.MaxDepth != tc.maxDepth {
			t.Errorf("%s: expected ranges %v %v, got %v %v", tc.name, tc.minSplit, tc.maxDepth, b.MinSplit, b.MaxDepth)
		}
		if math.Abs(b.UnityThreshold-tc.unity) > 1e-9 || math.Abs(b.CombineRatio-tc.combine) > 1e-9 {
			t.Errorf("%s: expected unity %v and combine %v, got %v and %v", tc.name, tc.unity, tc.combine, b.UnityThreshold, b.CombineRatio)
		}
	}
	cfg := NewBaseline(testCases[0].sum).Apply(forest.DefaultConfig())
	if cfg.MinSplit != 7 || cfg.MaxDepth != 3 || cfg.Objective != forest.Accuracy {
		t.Errorf("unexpected applied config %+v", cfg)
	}
}

func TestTrainStaysWithinRanges(t *testing.T) {
	full := noisySet(240, 3, 1)
	cfg := forest.DefaultConfig()
	cfg.NumTrees = 6
	cfg.Seed = 5
	b := NewBaseline(dataset.Scan(full))
	f, err := forest.New(full, b.Apply(cfg))
	if err != nil {
		t.Fatal(err)
	}
	tr := New(b)
	tr.Epochs = 8
	tr.Metrics = NewMetrics()
	res, err := tr.Train(context.Background(), f)
	if err != nil {
		t.Fatal(err)
	}
	if res.Epochs < 1 || res.Epochs > 8 {
		t.Errorf("expected between 1 and 8 epochs, got %d", res.Epochs)
	}
	if res.Interrupted {
		t.Errorf("did not expect an interrupted run")
	}
	for _, c := range []forest.Config{res.Config, res.BestConfig} {
		if !b.MinSplit.Contains(c.MinSplit) || !b.MaxDepth.Contains(c.MaxDepth) {
			t.Errorf("config left the search ranges: %+v", c)
		}
	}
	if res.Evaluation.Combined < res.Best-tr.MinImprovement && res.Config != res.BestConfig {
		t.Errorf("expected the forest to be restored to the best config")
	}
	if len(f.Trees()) != cfg.NumTrees || f.Config() != res.Config {
		t.Errorf("expected the forest to be left built with the result config")
	}
}

type cancelOnMessage struct {
	slog.Handler
	message string
	cancel  context.CancelFunc
}

func (h *cancelOnMessage) Enabled(context.Context, slog.Level) bool {
	return true
}

func (h *cancelOnMessage) Handle(ctx context.Context, r slog.Record) error {
	if r.Message == h.message {
		h.cancel()
	}
	return nil
}

func TestTrainInterrupted(t *testing.T) {
	full := noisySet(120, 2, 2)
	cfg := forest.DefaultConfig()
	cfg.NumTrees = 4
	b := NewBaseline(dataset.Scan(full))
	f, err := forest.New(full, b.Apply(cfg))
	if err != nil {
		t.Fatal(err)
	}
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	tr := New(b)
	tr.Logger = slog.New(&cancelOnMessage{Handler: slog.DiscardHandler, message: "baseline evaluated", cancel: cancel})
	res, err := tr.Train(ctx, f)
	if err != nil {
		t.Fatal(err)
	}
	if !res.Interrupted || res.Epochs != 0 {
		t.Errorf("expected an interruption before the first epoch, got %+v", res)
	}
	if len(f.Trees()) != 4 || f.Config() != res.BestConfig {
		t.Errorf("expected the forest to be rebuilt with the best config")
	}
}

func TestTrainFailsOnCancelledContext(t *testing.T) {
	full := noisySet(60, 2, 3)
	f, err := forest.New(full, forest.DefaultConfig())
	if err != nil {
		t.Fatal(err)
	}
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := New(NewBaseline(dataset.Scan(full))).Train(ctx, f); err == nil {
		t.Errorf("expected an error training with a cancelled context")
	}
}

func TestStateString(t *testing.T) {
	for s, expected := range map[State]string{Normal: "normal", Adjust: "adjust", FirstEval: "first_eval", SecondEval: "second_eval", Optimal: "optimal"} {
		if s.String() != expected {
			t.Errorf("expected %q, got %q", expected, s.String())
		}
	}
}

func newDecisionRun(t *testing.T) *run {
	t.Helper()
	full := noisySet(120, 2, 6)
	cfg := forest.DefaultConfig()
	cfg.NumTrees = 3
	b := NewBaseline(dataset.Scan(full))
	f, err := forest.New(full, b.Apply(cfg))
	if err != nil {
		t.Fatal(err)
	}
	if err = f.Build(context.Background()); err != nil {
		t.Fatal(err)
	}
	tr := New(b)
	return &run{
		Trainer: tr,
		ctx:     context.Background(),
		f:       f,
		logger:  slog.New(slog.DiscardHandler),
		optimal: make(map[param]bool),
		best:    0.5,
		bestCfg: f.Config(),
	}
}

// nudge moves the forest's MinSplit up by one as the adjust step would
// and leaves the run waiting for its first evaluation.
func nudge(t *testing.T, r *run) forest.Config {
	t.Helper()
	cfg := r.f.Config()
	cfg.MinSplit++
	if err := r.f.SetConfig(cfg); err != nil {
		t.Fatal(err)
	}
	r.changed = minSplitParam
	r.state = FirstEval
	return r.f.Config()
}

func decideTwice(t *testing.T, r *run, first, second float64) {
	t.Helper()
	if stop, err := r.decide(forest.Evaluation{Combined: first}); err != nil || stop {
		t.Fatalf("first evaluation: stop %v, error %v", stop, err)
	}
	if r.state != SecondEval || r.first != first {
		t.Fatalf("expected second_eval with first score %v, got %v and %v", first, r.state, r.first)
	}
	if stop, err := r.decide(forest.Evaluation{Combined: second}); err != nil || stop {
		t.Fatalf("second evaluation: stop %v, error %v", stop, err)
	}
}

func TestDecideAcceptsImprovement(t *testing.T) {
	r := newDecisionRun(t)
	nudged := nudge(t, r)
	decideTwice(t, r, 0.60, 0.58)
	if math.Abs(r.best-0.59) > 1e-9 {
		t.Errorf("expected best to become the average 0.59, got %v", r.best)
	}
	if r.bestCfg != nudged || r.f.Config() != nudged {
		t.Errorf("expected the nudged config to be kept as best, got %+v", r.bestCfg)
	}
	if r.optimal[minSplitParam] {
		t.Errorf("did not expect min_split to be marked optimal")
	}
	if r.state != Normal || r.changed != noParam {
		t.Errorf("expected to go back to normal, got %v %v", r.state, r.changed)
	}
}

func TestDecidePenalizesNoisyEvaluations(t *testing.T) {
	r := newDecisionRun(t)
	previous := r.bestCfg
	nudge(t, r)
	// The average 0.53 beats 0.5 but the 0.14 spread costs 0.07.
	decideTwice(t, r, 0.60, 0.46)
	if r.best != 0.5 || r.bestCfg != previous {
		t.Errorf("expected the noisy nudge to be rejected, got best %v", r.best)
	}
	if !r.optimal[minSplitParam] {
		t.Errorf("expected min_split to be marked optimal")
	}
}

func TestDecideRequiresMinImprovement(t *testing.T) {
	r := newDecisionRun(t)
	r.MinImprovement = 0.05
	nudge(t, r)
	decideTwice(t, r, 0.54, 0.54)
	if r.best != 0.5 || !r.optimal[minSplitParam] {
		t.Errorf("expected a gain under the margin to be rejected, got best %v", r.best)
	}
}

func TestDecideRejectionRestoresBest(t *testing.T) {
	r := newDecisionRun(t)
	previous := r.bestCfg
	nudge(t, r)
	r.current = forest.Evaluation{Combined: -1}
	decideTwice(t, r, 0.40, 0.42)
	if !r.optimal[minSplitParam] {
		t.Errorf("expected min_split to be marked optimal")
	}
	if r.f.Config() != previous {
		t.Errorf("expected the forest to be set back to %+v, got %+v", previous, r.f.Config())
	}
	if r.current.Combined < 0 || len(r.f.Trees()) != previous.NumTrees {
		t.Errorf("expected the forest to be rebuilt and evaluated with the best config")
	}
	if r.state != Normal {
		t.Errorf("expected to go back to normal, got %v", r.state)
	}
}
