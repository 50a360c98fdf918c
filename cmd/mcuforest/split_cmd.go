package main

import (
	"fmt"
	"math/rand"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"
	"github.com/viettran-edgeAI/MCU-sub008/dataset"
	"github.com/viettran-edgeAI/MCU-sub008/pkg/bio"
)

type splitCmdConfig struct {
	*rootCmdConfig
	dataInput string
	outputDir string
}

func splitCmd(rootConfig *rootCmdConfig) *cobra.Command {
	config := &splitCmdConfig{rootCmdConfig: rootConfig}
	cmd := &cobra.Command{
		Use:   "split",
		Short: "Split a dataset into train, test and validation sets",
		Long: `Split a dataset into train, test and, unless validation is disabled or the
rarest label is too scarce, validation sets the way forests do, and write
them as train.csv, test.csv and validation.csv CSV files.`,
		Run: func(cmd *cobra.Command, args []string) {
			full, err := config.loadDataset(cmd.Context(), config.dataInput)
			if err != nil {
				config.fail(2, err)
			}
			cfg := config.cfg.Forest
			p := dataset.NewPartitioner(rand.New(rand.NewSource(cfg.Seed)))
			p.TrainRatio = cfg.TrainRatio
			p.ValidRatio = cfg.ValidRatio
			p.UseValidation = cfg.UseValidation
			part, err := p.Split(full)
			if err != nil {
				config.fail(3, fmt.Errorf("splitting dataset: %v", err))
			}
			if err = os.MkdirAll(config.outputDir, 0o755); err != nil {
				config.fail(4, fmt.Errorf("creating output directory: %v", err))
			}
			sets := []struct {
				name string
				set  *dataset.Set
			}{
				{"train.csv", part.Train},
				{"test.csv", part.Test},
			}
			if part.UseValidation {
				sets = append(sets, struct {
					name string
					set  *dataset.Set
				}{"validation.csv", part.Validation})
			}
			for _, s := range sets {
				path := filepath.Join(config.outputDir, s.name)
				if err = bio.WriteCSVSetToFilePath(path, s.set, config.cfg.Data.Header); err != nil {
					config.fail(5, err)
				}
				config.logger.Info("set written", "path", path, "samples", s.set.Len())
			}
		},
	}
	cmd.Flags().StringVarP(&(config.dataInput), "input", "i", "", "path to an input CSV (.csv) or SQLite3 (.db) file, or a PostgreSQL or MongoDB connection URL with the dataset to split (defaults to STDIN, interpreted as CSV)")
	cmd.Flags().StringVarP(&(config.outputDir), "output", "o", ".", "directory to write the sets to")
	return cmd
}
