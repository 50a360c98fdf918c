package main

import (
	"context"
	"fmt"
	"strings"

	"github.com/viettran-edgeAI/MCU-sub008/dataset"
	"github.com/viettran-edgeAI/MCU-sub008/pkg/bio"
	"github.com/viettran-edgeAI/MCU-sub008/pkg/bio/mongo"
	biosql "github.com/viettran-edgeAI/MCU-sub008/pkg/bio/sql"
	"github.com/viettran-edgeAI/MCU-sub008/pkg/bio/sql/pgadapter"
	"github.com/viettran-edgeAI/MCU-sub008/pkg/bio/sql/sqlite3adapter"
)

func isPostgreSQL(input string) bool {
	return strings.HasPrefix(input, "postgres://") || strings.HasPrefix(input, "postgresql://")
}

func isMongoDB(input string) bool {
	return strings.HasPrefix(input, "mongodb://")
}

func isSQLite3(input string) bool {
	return strings.HasSuffix(input, ".db")
}

/*
loadDataset reads the dataset at input, which may be a path to a CSV
file, empty for STDIN, a path to an SQLite3 (.db) file, a PostgreSQL
connection URL or a MongoDB connection URL.
*/
func (rcc *rootCmdConfig) loadDataset(ctx context.Context, input string) (*dataset.Set, error) {
	opts := rcc.cfg.Data.LoadOptions()
	opts.GroupsPerFeature = rcc.cfg.Forest.GroupsPerFeature
	opts.Logger = rcc.logger
	var (
		set   *dataset.Set
		stats bio.LoadStats
		err   error
	)
	switch {
	case isPostgreSQL(input):
		rcc.logger.Debug("reading dataset from PostgreSQL")
		set, stats, err = readSQLSet(ctx, input, pgadapter.New, opts)
	case isMongoDB(input):
		rcc.logger.Debug("reading dataset from MongoDB")
		var ds *mongo.Dataset
		ds, err = mongo.Dial(input)
		if err == nil {
			defer ds.Close()
			set, stats, err = ds.Read(ctx, opts)
		}
	case isSQLite3(input):
		rcc.logger.Debug("reading dataset from SQLite3", "path", input)
		set, stats, err = readSQLSet(ctx, input, sqlite3adapter.New, opts)
	default:
		if input == "" {
			rcc.logger.Debug("reading dataset from STDIN")
		} else {
			rcc.logger.Debug("reading dataset from CSV", "path", input)
		}
		set, stats, err = bio.ReadCSVSetFromFilePath(input, opts)
	}
	if err != nil {
		return nil, fmt.Errorf("reading dataset: %v", err)
	}
	rcc.logger.Info("dataset loaded", "samples", stats.Loaded, "skipped", stats.Skipped, "features", set.NumFeatures())
	if set.Len() == 0 {
		return nil, fmt.Errorf("dataset has no valid samples")
	}
	return set, nil
}

func readSQLSet(ctx context.Context, input string, open func(string) (biosql.Adapter, error), opts bio.LoadOptions) (*dataset.Set, bio.LoadStats, error) {
	a, err := open(input)
	if err != nil {
		return nil, bio.LoadStats{}, err
	}
	defer a.Close()
	return biosql.ReadSet(ctx, a, opts)
}
