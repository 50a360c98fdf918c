package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/spf13/pflag"
	"github.com/viettran-edgeAI/MCU-sub008/forest"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load("")
	if err != nil {
		t.Fatalf("unexpected error loading defaults: %v", err)
	}
	def := Default()
	if cfg.Forest != def.Forest {
		t.Errorf("expected forest defaults %+v, got %+v", def.Forest, cfg.Forest)
	}
	if cfg.Trainer != def.Trainer || cfg.Data != def.Data {
		t.Errorf("expected trainer %+v and data %+v, got %+v and %+v", def.Trainer, def.Data, cfg.Trainer, cfg.Data)
	}
}

func TestLoadFileEnvAndFlags(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yml")
	content := `forest:
  num_trees: 7
  max_depth: 5
  objective: precision,recall
  use_validation: false
trainer:
  epochs: 9
log:
  level: debug
storage:
  model: redis://localhost:6379/0
`
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("unexpected error writing config: %v", err)
	}
	t.Setenv("MCUFOREST_FOREST_MIN_SPLIT", "4")
	flags := pflag.NewFlagSet("test", pflag.ContinueOnError)
	flags.Int("trees", 20, "")
	flags.Int("depth", 13, "")
	l := NewLoader()
	if err := l.BindFlag("forest.num_trees", flags.Lookup("trees")); err != nil {
		t.Fatalf("unexpected error binding flag: %v", err)
	}
	if err := l.BindFlag("forest.max_depth", flags.Lookup("depth")); err != nil {
		t.Fatalf("unexpected error binding flag: %v", err)
	}
	if err := flags.Parse([]string{"--trees", "11"}); err != nil {
		t.Fatalf("unexpected error parsing flags: %v", err)
	}
	cfg, err := l.Load(path)
	if err != nil {
		t.Fatalf("unexpected error loading config: %v", err)
	}
	if cfg.Forest.NumTrees != 11 {
		t.Errorf("expected the flag to set 11 trees, got %d", cfg.Forest.NumTrees)
	}
	if cfg.Forest.MaxDepth != 5 {
		t.Errorf("expected the file to set max depth 5 over the unset flag, got %d", cfg.Forest.MaxDepth)
	}
	if cfg.Forest.MinSplit != 4 {
		t.Errorf("expected the environment to set min split 4, got %d", cfg.Forest.MinSplit)
	}
	if cfg.Forest.Objective != forest.Precision|forest.Recall {
		t.Errorf("expected objective precision,recall, got %v", cfg.Forest.Objective)
	}
	if cfg.Forest.UseValidation {
		t.Errorf("expected validation to be disabled")
	}
	if cfg.Trainer.Epochs != 9 || cfg.Trainer.Patience != Default().Trainer.Patience {
		t.Errorf("unexpected trainer config %+v", cfg.Trainer)
	}
	if cfg.Log.Level != "debug" || cfg.Storage.Model != "redis://localhost:6379/0" {
		t.Errorf("unexpected log %+v or storage %+v", cfg.Log, cfg.Storage)
	}
}

func TestLoadInvalid(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yml")
	if err := os.WriteFile(path, []byte("forest:\n  groups_per_feature: 9\n"), 0o644); err != nil {
		t.Fatalf("unexpected error writing config: %v", err)
	}
	if _, err := Load(path); err == nil {
		t.Errorf("expected an error for 9 groups per feature")
	}
	if _, err := Load(filepath.Join(t.TempDir(), "missing.yml")); err == nil {
		t.Errorf("expected an error for a missing file")
	}
}

func TestWriteBestLoadsBack(t *testing.T) {
	cfg := forest.DefaultConfig()
	cfg.NumTrees = 12
	cfg.UnityThreshold = 0.3
	cfg.Objective = forest.F1 | forest.Accuracy
	path := filepath.Join(t.TempDir(), "best_config.yml")
	best := NewBest(cfg, 0.91, 0.88, time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC))
	if err := Write(path, best); err != nil {
		t.Fatalf("unexpected error writing best config: %v", err)
	}
	loaded, err := Load(path)
	if err != nil {
		t.Fatalf("unexpected error loading best config: %v", err)
	}
	if loaded.Forest != cfg {
		t.Errorf("expected forest config %+v, got %+v", cfg, loaded.Forest)
	}
	if best.Objective != "accuracy,f1" || best.Generated != "2024-05-01T10:00:00Z" {
		t.Errorf("unexpected best %+v", best)
	}
}
