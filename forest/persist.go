package forest

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/viettran-edgeAI/MCU-sub008/tree"
)

// ConfigKey is the store key of the record describing a saved forest.
const ConfigKey = "model_config.json"

// TreeKey returns the store key of the i-th tree of a saved forest.
func TreeKey(i int) string {
	return fmt.Sprintf("tree_%d.bin", i)
}

type modelConfig struct {
	Config
	ForestStatistics Statistics `json:"forestStatistics"`
}

// Save takes a context and a store and puts every tree of the forest
// in the store under its TreeKey, followed by the record under
// ConfigKey holding the configuration and statistics of the forest.
func (f *Forest) Save(ctx context.Context, s tree.Store) error {
	if len(f.trees) == 0 {
		return fmt.Errorf("forest has no trees to save")
	}
	for i, t := range f.trees {
		if err := tree.SaveTree(ctx, s, TreeKey(i), t); err != nil {
			return fmt.Errorf("saving tree %d: %v", i, err)
		}
	}
	cfg := f.cfg
	cfg.NumTrees = len(f.trees)
	data, err := json.MarshalIndent(&modelConfig{Config: cfg, ForestStatistics: f.Statistics()}, "", "  ")
	if err != nil {
		return fmt.Errorf("encoding forest config: %v", err)
	}
	if err := s.Put(ctx, ConfigKey, data); err != nil {
		return fmt.Errorf("saving forest config: %v", err)
	}
	f.logger.Debug("forest saved", "trees", len(f.trees))
	return nil
}

// Load takes a context, a store and options and returns the forest
// saved in the store. The loaded forest can classify samples but has
// no partition to be rebuilt or evaluated on.
func Load(ctx context.Context, s tree.Store, opts ...Option) (*Forest, error) {
	data, err := s.Get(ctx, ConfigKey)
	if err != nil {
		return nil, fmt.Errorf("loading forest config: %v", err)
	}
	mc := &modelConfig{}
	if err := json.Unmarshal(data, mc); err != nil {
		return nil, fmt.Errorf("decoding forest config: %v", err)
	}
	if err := mc.Config.Validate(); err != nil {
		return nil, err
	}
	f := newForest(mc.Config, opts)
	f.trees = make([]*tree.Tree, mc.NumTrees)
	for i := range f.trees {
		t, err := tree.LoadTree(ctx, s, TreeKey(i))
		if err != nil {
			return nil, fmt.Errorf("loading tree %d: %v", i, err)
		}
		f.trees[i] = t
	}
	if got := f.Statistics().TotalNodes; got != mc.ForestStatistics.TotalNodes {
		f.logger.Warn("loaded forest size differs from the saved record",
			"nodes", got, "recorded_nodes", mc.ForestStatistics.TotalNodes)
	}
	return f, nil
}
