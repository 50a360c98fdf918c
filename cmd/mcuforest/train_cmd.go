package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"github.com/viettran-edgeAI/MCU-sub008/dataset"
	"github.com/viettran-edgeAI/MCU-sub008/forest"
	"github.com/viettran-edgeAI/MCU-sub008/trainer"
)

type trainCmdConfig struct {
	*rootCmdConfig
	dataInput  string
	noBaseline bool
}

func trainCmd(rootConfig *rootCmdConfig) *cobra.Command {
	config := &trainCmdConfig{rootCmdConfig: rootConfig}
	cmd := &cobra.Command{
		Use:   "train",
		Short: "Train a forest on a dataset",
		Long: `Train a forest on a dataset, tuning its min split and max depth by
rebuilding it once per epoch, and save it to the model store.`,
		Run: func(cmd *cobra.Command, args []string) {
			ctx := cmd.Context()
			full, err := config.loadDataset(ctx, config.dataInput)
			if err != nil {
				config.fail(2, err)
			}
			b := trainer.NewBaseline(dataset.Scan(full))
			cfg := config.cfg.Forest
			if !config.noBaseline {
				cfg = b.Apply(cfg)
			}
			f, err := forest.New(full, cfg, forest.WithLogger(config.logger))
			if err != nil {
				config.fail(3, err)
			}
			tr := config.trainer(b)
			stop := config.exposeMetrics(tr.Metrics)
			defer stop()
			config.logger.Info("training forest", "trees", cfg.NumTrees, "min_split", cfg.MinSplit, "max_depth", cfg.MaxDepth,
				"objective", cfg.Objective, "validation", f.Config().UseValidation)
			res, err := tr.Train(ctx, f)
			if err != nil {
				config.fail(4, fmt.Errorf("training forest: %v", err))
			}
			if res.Interrupted {
				config.logger.Warn("training interrupted, keeping the best forest so far")
			}
			report := f.Report(f.Partition().Test)
			fmt.Printf("epochs: %d, best score: %.4f, test %s score: %.4f\n", res.Epochs, res.Best, res.Config.Objective, report.Score(res.Config.Objective))
			printStatistics(f.Statistics())
			if err = config.saveForest(ctx, f); err != nil {
				config.fail(5, err)
			}
		},
	}
	cmd.Flags().StringVarP(&(config.dataInput), "input", "i", "", "path to an input CSV (.csv) or SQLite3 (.db) file, or a PostgreSQL or MongoDB connection URL with the dataset to train on (defaults to STDIN, interpreted as CSV)")
	cmd.Flags().BoolVar(&(config.noBaseline), "no-baseline", false, "start from the configured min split, max depth, unity threshold and objective instead of the ones derived from the dataset")
	return cmd
}

// trainer returns a trainer with the configured budget searching the
// ranges of the given baseline.
func (rcc *rootCmdConfig) trainer(b trainer.Baseline) *trainer.Trainer {
	tr := trainer.New(b)
	tr.Epochs = rcc.cfg.Trainer.Epochs
	tr.Patience = rcc.cfg.Trainer.Patience
	tr.MinImprovement = rcc.cfg.Trainer.MinImprovement
	tr.Logger = rcc.logger
	if rcc.cfg.Metrics.Addr != "" {
		tr.Metrics = trainer.NewMetrics()
	}
	return tr
}

// exposeMetrics serves m on the configured metrics address, if any, and
// returns a function to stop serving them.
func (rcc *rootCmdConfig) exposeMetrics(m *trainer.Metrics) func() {
	if m == nil || rcc.cfg.Metrics.Addr == "" {
		return func() {}
	}
	rcc.logger.Info("exposing metrics", "addr", rcc.cfg.Metrics.Addr)
	return m.Expose(rcc.cfg.Metrics.Addr, rcc.logger)
}

func printStatistics(s forest.Statistics) {
	fmt.Fprintf(os.Stdout, "trees: %d, nodes: %d (%.1f per tree), leaves: %d (%.1f per tree), depth: %d..%d (%.1f on average)\n",
		len(s.Trees), s.TotalNodes, s.AvgNodesPerTree, s.TotalLeafNodes, s.AvgLeafNodesPerTree, s.MinDepth, s.MaxDepth, s.AvgDepth)
}
