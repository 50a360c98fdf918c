package main

import (
	"fmt"

	"github.com/spf13/cobra"
	"github.com/viettran-edgeAI/MCU-sub008/pkg/bio/mongo"
	biosql "github.com/viettran-edgeAI/MCU-sub008/pkg/bio/sql"
	"github.com/viettran-edgeAI/MCU-sub008/pkg/bio/sql/pgadapter"
	"github.com/viettran-edgeAI/MCU-sub008/pkg/bio/sql/sqlite3adapter"
)

type setCmdConfig struct {
	*rootCmdConfig
	dataInput  string
	dataOutput string
}

func setCmd(rootConfig *rootCmdConfig) *cobra.Command {
	config := &setCmdConfig{rootCmdConfig: rootConfig}
	cmd := &cobra.Command{
		Use:   "set",
		Short: "Copy a dataset to a database",
		Long: `Read a dataset and store its valid samples on an SQLite3 (.db) file, a
PostgreSQL database or a MongoDB database, from which the rest of the
commands can read it.`,
		Run: func(cmd *cobra.Command, args []string) {
			if config.dataOutput == "" {
				config.fail(1, fmt.Errorf("required output flag was not set"))
			}
			ctx := cmd.Context()
			set, err := config.loadDataset(ctx, config.dataInput)
			if err != nil {
				config.fail(2, err)
			}
			var written int
			switch {
			case isPostgreSQL(config.dataOutput):
				var a biosql.Adapter
				if a, err = pgadapter.New(config.dataOutput); err == nil {
					written, err = biosql.WriteSet(ctx, a, set)
					a.Close()
				}
			case isMongoDB(config.dataOutput):
				var ds *mongo.Dataset
				if ds, err = mongo.Dial(config.dataOutput); err == nil {
					written, err = ds.Write(ctx, set)
					ds.Close()
				}
			case isSQLite3(config.dataOutput):
				var a biosql.Adapter
				if a, err = sqlite3adapter.New(config.dataOutput); err == nil {
					written, err = biosql.WriteSet(ctx, a, set)
					a.Close()
				}
			default:
				err = fmt.Errorf("unsupported output %q: expected a .db file, a PostgreSQL or a MongoDB URL", config.dataOutput)
			}
			if err != nil {
				config.fail(3, fmt.Errorf("writing set after %d samples: %v", written, err))
			}
			config.logger.Info("set written", "samples", written)
		},
	}
	cmd.Flags().StringVarP(&(config.dataInput), "input", "i", "", "path to an input CSV (.csv) or SQLite3 (.db) file, or a PostgreSQL or MongoDB connection URL with the dataset to copy (defaults to STDIN, interpreted as CSV)")
	cmd.Flags().StringVarP(&(config.dataOutput), "output", "o", "", "path to an SQLite3 (.db) file, or a PostgreSQL or MongoDB connection URL to copy the dataset to (required)")
	return cmd
}
