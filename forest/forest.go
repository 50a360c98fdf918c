package forest

import (
	"context"
	"fmt"
	"log/slog"
	"math/rand"

	"github.com/viettran-edgeAI/MCU-sub008/dataset"
	"github.com/viettran-edgeAI/MCU-sub008/tree"
	"golang.org/x/sync/errgroup"
)

/*
Forest is a random forest of decision trees over quantized samples.

A forest built with New owns a partition of the dataset it was given and
can be rebuilt any number of times with Build, for instance after its
configuration is changed with SetConfig. A forest obtained with Load only
holds trees and can classify samples but not be rebuilt.

Forests are not safe for concurrent use while they are being rebuilt.
*/
type Forest struct {
	cfg       Config
	summary   dataset.Summary
	partition *dataset.Partition
	idSpace   int
	trees     []*tree.Tree
	bags      []*dataset.Bag
	rand      *rand.Rand
	logger    *slog.Logger
	workers   int
}

// Option configures optional aspects of a Forest.
type Option func(*Forest)

// WithLogger makes the forest log through the given logger.
func WithLogger(l *slog.Logger) Option {
	return func(f *Forest) {
		if l != nil {
			f.logger = l
		}
	}
}

// WithRand makes the forest draw every random decision from r instead
// of a source seeded with the configured Seed.
func WithRand(r *rand.Rand) Option {
	return func(f *Forest) {
		if r != nil {
			f.rand = r
		}
	}
}

// WithWorkers overrides the configured number of trees built at once.
func WithWorkers(n int) Option {
	return func(f *Forest) {
		f.workers = n
	}
}

func newForest(cfg Config, opts []Option) *Forest {
	f := &Forest{cfg: cfg, workers: cfg.Workers}
	for _, opt := range opts {
		opt(f)
	}
	if f.logger == nil {
		f.logger = slog.New(slog.DiscardHandler)
	}
	if f.rand == nil {
		f.rand = rand.New(rand.NewSource(cfg.Seed))
	}
	return f
}

/*
New takes a full dataset, a configuration and options and returns a
forest ready to be built on a partition of the dataset.

NumFeatures and NumLabels are derived from the dataset when the
configuration leaves them at 0. If validation is requested but the
rarest label is too scarce to fill a meaningful validation partition,
validation is disabled and the train ratio raised, which is reflected
on the forest's Config.

An error is returned if the configuration is invalid or the dataset
is empty or does not fit the configuration.
*/
func New(full *dataset.Set, cfg Config, opts ...Option) (*Forest, error) {
	if full.Len() == 0 {
		return nil, fmt.Errorf("cannot create a forest from an empty dataset")
	}
	sum := dataset.Scan(full)
	if cfg.NumFeatures == 0 {
		cfg.NumFeatures = sum.NumFeatures
	}
	if cfg.NumLabels == 0 {
		cfg.NumLabels = sum.NumLabels
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if sum.NumFeatures > cfg.NumFeatures {
		return nil, fmt.Errorf("dataset has %d features but the forest is configured for %d", sum.NumFeatures, cfg.NumFeatures)
	}
	if sum.NumLabels > cfg.NumLabels {
		return nil, fmt.Errorf("dataset has label %d but the forest is configured for %d labels", sum.NumLabels-1, cfg.NumLabels)
	}
	if n := len(sum.FeatureValues); n > 0 && int(sum.FeatureValues[n-1]) >= cfg.GroupsPerFeature {
		return nil, fmt.Errorf("dataset has bin %d but features are quantized in %d groups", sum.FeatureValues[n-1], cfg.GroupsPerFeature)
	}
	f := newForest(cfg, opts)
	f.summary = sum
	f.idSpace = full.Len()
	if ids := full.IDs(); int(ids[len(ids)-1])+1 > f.idSpace {
		f.idSpace = int(ids[len(ids)-1]) + 1
	}
	p := dataset.NewPartitioner(f.rand)
	p.TrainRatio = cfg.TrainRatio
	p.ValidRatio = cfg.ValidRatio
	p.UseValidation = cfg.UseValidation
	part, err := p.Split(full)
	if err != nil {
		return nil, fmt.Errorf("partitioning dataset: %v", err)
	}
	if cfg.UseValidation && !part.UseValidation {
		f.logger.Warn("validation disabled, rarest label too scarce",
			"lowest_share", sum.LowestShare, "train_ratio", part.TrainRatio)
	}
	f.cfg.UseValidation = part.UseValidation
	f.cfg.TrainRatio = part.TrainRatio
	f.cfg.ValidRatio = part.ValidRatio
	f.partition = part
	f.logger.Debug("dataset partitioned",
		"train", part.Train.Len(), "test", part.Test.Len(), "validation", part.Validation.Len())
	return f, nil
}

// Config returns the configuration of the forest.
func (f *Forest) Config() Config {
	return f.cfg
}

// SetConfig replaces the configuration used by the next Build. The
// partition and the derived NumFeatures and NumLabels are kept.
func (f *Forest) SetConfig(cfg Config) error {
	cfg.NumFeatures = f.cfg.NumFeatures
	cfg.NumLabels = f.cfg.NumLabels
	cfg.GroupsPerFeature = f.cfg.GroupsPerFeature
	cfg.TrainRatio = f.cfg.TrainRatio
	cfg.ValidRatio = f.cfg.ValidRatio
	if f.partition != nil {
		cfg.UseValidation = f.partition.UseValidation
	}
	if err := cfg.Validate(); err != nil {
		return err
	}
	f.cfg = cfg
	return nil
}

// Summary returns the scan of the dataset the forest was created from.
func (f *Forest) Summary() dataset.Summary {
	return f.summary
}

// Partition returns the partition the forest is trained and evaluated
// on, nil for loaded forests.
func (f *Forest) Partition() *dataset.Partition {
	return f.partition
}

// Trees returns the trees of the forest.
func (f *Forest) Trees() []*tree.Tree {
	return f.trees
}

// Bags returns the in-bag and out-of-bag ids every tree was built
// with. Their Data is released once the trees are built.
func (f *Forest) Bags() []*dataset.Bag {
	return f.bags
}

/*
Build takes a context and grows NumTrees trees, each one on its own
bootstrap bag of the train partition, replacing the trees and bags of
the forest once all of them are done.

Trees are built concurrently by up to Workers goroutines, each one with
its own bag and random source seeded from the forest's before the
fan-out, so results do not depend on scheduling. A tree that fails to
build is logged and replaced with an empty tree.

An error is returned if the forest has no train partition or the
context is done before every tree is built, in which case the previous
trees are kept.
*/
func (f *Forest) Build(ctx context.Context) error {
	if f.partition == nil || f.partition.Train.Len() == 0 {
		return fmt.Errorf("forest has no train partition to build trees from")
	}
	n := f.cfg.NumTrees
	seeds := make([]int64, n)
	for i := range seeds {
		seeds[i] = f.rand.Int63()
	}
	trees := make([]*tree.Tree, n)
	bags := make([]*dataset.Bag, n)
	g, gctx := errgroup.WithContext(ctx)
	workers := f.workers
	if workers <= 0 {
		workers = n
	}
	g.SetLimit(workers)
	for i := 0; i < n; i++ {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			t, bag, err := f.buildTree(gctx, i, rand.New(rand.NewSource(seeds[i])))
			if err != nil {
				if cerr := gctx.Err(); cerr != nil {
					return cerr
				}
				f.logger.Error("building tree", "tree", i, "error", err)
				t = tree.New(treeName(i))
			}
			trees[i], bags[i] = t, bag
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return err
	}
	for _, t := range f.trees {
		t.Purge()
	}
	f.trees, f.bags = trees, bags
	stats := f.Statistics()
	f.logger.Debug("forest built", "trees", n, "nodes", stats.TotalNodes,
		"min_depth", stats.MinDepth, "max_depth", stats.MaxDepth)
	return nil
}

func (f *Forest) buildTree(ctx context.Context, i int, rnd *rand.Rand) (*tree.Tree, *dataset.Bag, error) {
	bs := &dataset.Bootstrap{
		Ratio:   f.cfg.BootstrapRatio,
		Extend:  f.cfg.UseBootstrap,
		IDSpace: f.idSpace,
		Rand:    rnd,
	}
	bag, err := bs.Sample(f.partition.Train)
	if err != nil {
		return nil, nil, err
	}
	b := &tree.Builder{
		MinSplit:          f.cfg.MinSplit,
		MaxDepth:          f.cfg.MaxDepth,
		Criterion:         f.cfg.Criterion(),
		ImpurityThreshold: f.cfg.ImpurityThreshold,
		GroupsPerFeature:  f.cfg.GroupsPerFeature,
		NumFeatures:       f.cfg.NumFeatures,
		NumLabels:         f.cfg.NumLabels,
		Rand:              rnd,
	}
	t, err := b.Build(ctx, treeName(i), bag.Data)
	bag.Data = nil
	if err != nil {
		return nil, bag, err
	}
	return t, bag, nil
}

func treeName(i int) string {
	return fmt.Sprintf("tree_%d", i)
}
