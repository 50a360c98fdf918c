package main

import (
	"github.com/spf13/cobra"
)

// settingFlags declares on the root command a persistent flag for every
// config setting that can be given on the command line, so that every
// subcommand shares them.
func (rcc *rootCmdConfig) settingFlags(rootCmd *cobra.Command) {
	f := rootCmd.PersistentFlags()
	f.String("model", "", "where the model is kept: a directory, a redis://host:port/db URL or an s3://bucket/prefix URL")
	f.Int("trees", 0, "number of trees in the forest")
	f.Int("max-depth", 0, "maximum depth of the trees")
	f.Int("min-split", 0, "minimum number of samples needed to split a node")
	f.Bool("gini", true, "use the Gini impurity instead of entropy")
	f.Bool("bootstrap", true, "sample tree bags with replacement")
	f.Bool("validation", true, "keep a validation partition to evaluate forests on")
	f.Float64("unity", 0, "share of the votes a label needs to be predicted")
	f.Float64("impurity", 0, "minimum impurity gain to split a node")
	f.Float64("combine-ratio", 0, "weight of the validation score on the combined score")
	f.String("objective", "", "metrics to optimize, a comma separated list of accuracy, precision, recall and f1")
	f.Int("groups", 0, "number of bins feature values are quantized in")
	f.Int64("seed", 0, "seed of the random source")
	f.Int("workers", 0, "number of trees built at the same time (defaults to one per tree)")
	f.Int("epochs", 0, "maximum number of training epochs")
	f.Int("instances", 0, "number of forests trained per grid combination")
	f.Bool("header", false, "skip the first row of CSV inputs")
	f.Int("max-rows", 0, "maximum number of samples loaded from an input")
	f.String("metrics-addr", "", "address to expose training metrics on, e.g. :9090")
	for key, name := range map[string]string{
		"storage.model":             "model",
		"forest.num_trees":          "trees",
		"forest.max_depth":          "max-depth",
		"forest.min_split":          "min-split",
		"forest.use_gini":           "gini",
		"forest.use_bootstrap":      "bootstrap",
		"forest.use_validation":     "validation",
		"forest.unity_threshold":    "unity",
		"forest.impurity_threshold": "impurity",
		"forest.combine_ratio":      "combine-ratio",
		"forest.objective":          "objective",
		"forest.groups_per_feature": "groups",
		"forest.seed":               "seed",
		"forest.workers":            "workers",
		"trainer.epochs":            "epochs",
		"trainer.instances":         "instances",
		"data.header":               "header",
		"data.max_rows":             "max-rows",
		"metrics.addr":              "metrics-addr",
	} {
		rcc.bind(rootCmd, key, name)
	}
}
