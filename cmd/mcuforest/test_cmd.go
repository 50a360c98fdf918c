package main

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

type testCmdConfig struct {
	*rootCmdConfig
	dataInput  string
	jsonOutput bool
}

func testCmd(rootConfig *rootCmdConfig) *cobra.Command {
	config := &testCmdConfig{rootCmdConfig: rootConfig}
	cmd := &cobra.Command{
		Use:   "test",
		Short: "Test the performance of a forest",
		Long:  `Test the performance of the forest in the model store against a test set of data`,
		Run: func(cmd *cobra.Command, args []string) {
			ctx := cmd.Context()
			f, err := config.loadForest(ctx)
			if err != nil {
				config.fail(2, err)
			}
			testSet, err := config.loadDataset(ctx, config.dataInput)
			if err != nil {
				config.fail(3, err)
			}
			if testSet.NumFeatures() != f.Config().NumFeatures {
				config.logger.Warn("test set features differ from the forest's",
					"set_features", testSet.NumFeatures(), "forest_features", f.Config().NumFeatures)
			}
			report := f.Report(testSet)
			if config.jsonOutput {
				enc := json.NewEncoder(os.Stdout)
				enc.SetIndent("", "  ")
				if err = enc.Encode(report); err != nil {
					config.fail(4, fmt.Errorf("encoding report: %v", err))
				}
				return
			}
			fmt.Print(report)
			o := f.Config().Objective
			fmt.Printf("%s score: %.4f\n", o, report.Score(o))
			if config.verbose {
				printStatistics(f.Statistics())
			}
		},
	}
	cmd.Flags().StringVarP(&(config.dataInput), "input", "i", "", "path to an input CSV (.csv) or SQLite3 (.db) file, or a PostgreSQL or MongoDB connection URL with the test set (defaults to STDIN, interpreted as CSV)")
	cmd.Flags().BoolVar(&(config.jsonOutput), "json", false, "print the report as JSON")
	return cmd
}
