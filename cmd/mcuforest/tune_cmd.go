package main

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/cobra"
	"github.com/viettran-edgeAI/MCU-sub008/dataset"
	"github.com/viettran-edgeAI/MCU-sub008/forest"
	"github.com/viettran-edgeAI/MCU-sub008/pkg/config"
	"github.com/viettran-edgeAI/MCU-sub008/trainer"
)

type tuneCmdConfig struct {
	*rootCmdConfig
	dataInput string
	outputDir string
}

func tuneCmd(rootConfig *rootCmdConfig) *cobra.Command {
	config := &tuneCmdConfig{rootCmdConfig: rootConfig}
	cmd := &cobra.Command{
		Use:   "tune",
		Short: "Grid search the best forest for a dataset",
		Long: `Train forests for every combination of unity threshold, impurity
threshold, bootstrap, criterion and validation settings around a baseline
derived from the dataset, keep the one scoring best on its test partition
and save it to the model store, along with its report and configuration.`,
		Run: func(cmd *cobra.Command, args []string) {
			ctx := cmd.Context()
			full, err := config.loadDataset(ctx, config.dataInput)
			if err != nil {
				config.fail(2, err)
			}
			b := trainer.NewBaseline(dataset.Scan(full))
			base := b.Apply(config.cfg.Forest)
			tr := config.trainer(b)
			search := &trainer.Search{
				Grid:      trainer.NewGrid(b),
				Instances: config.cfg.Trainer.Instances,
				Trainer:   tr,
				Logger:    config.logger,
				Metrics:   tr.Metrics,
				Options:   []forest.Option{forest.WithLogger(config.logger.With("component", "forest"))},
			}
			stop := config.exposeMetrics(tr.Metrics)
			defer stop()
			start := time.Now()
			out, err := search.Run(ctx, full, base)
			if err != nil {
				config.fail(3, fmt.Errorf("tuning forest: %v", err))
			}
			config.logger.Info("grid search done", "combinations", out.Combinations, "elapsed", time.Since(start),
				"score", out.Score, "mean_score", out.MeanScore, "interrupted", out.Interrupted)
			fmt.Print(out.Report)
			fmt.Printf("best %s score: %.4f (%.4f on average over %d instances)\n",
				out.Config.Objective, out.Score, out.MeanScore, search.Instances)
			printStatistics(out.Forest.Statistics())
			if err = config.saveForest(ctx, out.Forest); err != nil {
				config.fail(4, err)
			}
			if err = config.writeOutcome(out); err != nil {
				config.fail(5, err)
			}
		},
	}
	cmd.Flags().StringVarP(&(config.dataInput), "input", "i", "", "path to an input CSV (.csv) or SQLite3 (.db) file, or a PostgreSQL or MongoDB connection URL with the dataset to tune on (defaults to STDIN, interpreted as CSV)")
	cmd.Flags().StringVarP(&(config.outputDir), "output", "o", ".", "directory to write report.json and best_config.yml to")
	return cmd
}

func (tcc *tuneCmdConfig) writeOutcome(out *trainer.Outcome) error {
	if err := os.MkdirAll(tcc.outputDir, 0o755); err != nil {
		return fmt.Errorf("creating output directory: %v", err)
	}
	data, err := json.MarshalIndent(out.Report, "", "  ")
	if err != nil {
		return fmt.Errorf("encoding report: %v", err)
	}
	reportPath := filepath.Join(tcc.outputDir, "report.json")
	if err = os.WriteFile(reportPath, data, 0o644); err != nil {
		return fmt.Errorf("writing report: %v", err)
	}
	best := config.NewBest(out.Config, out.Score, out.MeanScore, time.Now())
	best.Interrupted = out.Interrupted
	bestPath := filepath.Join(tcc.outputDir, "best_config.yml")
	if err = config.Write(bestPath, best); err != nil {
		return err
	}
	tcc.logger.Info("tuning outcome written", "report", reportPath, "config", bestPath)
	return nil
}
