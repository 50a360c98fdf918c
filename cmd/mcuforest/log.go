package main

import (
	"fmt"

	"github.com/viettran-edgeAI/MCU-sub008/pkg/logging"
)

// setup loads the config and builds the logger every command uses.
func (rcc *rootCmdConfig) setup() error {
	cfg, err := rcc.loader.Load(rcc.configPath)
	if err != nil {
		return err
	}
	if rcc.verbose {
		cfg.Log.Level = "debug"
	}
	logger, closeLog, err := logging.New(cfg.Log)
	if err != nil {
		return fmt.Errorf("setting up logs: %v", err)
	}
	rcc.cfg, rcc.logger, rcc.closeLog = cfg, logger, closeLog
	logger.Debug("config loaded", "path", rcc.configPath, "model", cfg.Storage.Model,
		"trees", cfg.Forest.NumTrees, "objective", cfg.Forest.Objective)
	return nil
}
