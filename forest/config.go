package forest

import (
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/viettran-edgeAI/MCU-sub008/dataset"
	"github.com/viettran-edgeAI/MCU-sub008/tree"
)

// Objective is a set of evaluation metrics. When more than one is set
// their values are averaged into a single score.
type Objective uint8

const (
	Accuracy Objective = 1 << iota
	Precision
	Recall
	F1

	allObjectives = Accuracy | Precision | Recall | F1
)

var objectiveNames = []struct {
	o    Objective
	name string
}{
	{Accuracy, "accuracy"},
	{Precision, "precision"},
	{Recall, "recall"},
	{F1, "f1"},
}

// Has returns whether every metric in other is part of o.
func (o Objective) Has(other Objective) bool {
	return other != 0 && o&other == other
}

func (o Objective) String() string {
	var names []string
	for _, on := range objectiveNames {
		if o.Has(on.o) {
			names = append(names, on.name)
		}
	}
	if len(names) == 0 {
		return "none"
	}
	return strings.Join(names, ",")
}

// ParseObjective takes a comma or pipe separated list of metric names
// and returns the Objective made of them.
func ParseObjective(s string) (Objective, error) {
	var o Objective
	for _, part := range strings.FieldsFunc(s, func(r rune) bool { return r == ',' || r == '|' }) {
		name := strings.ToLower(strings.TrimSpace(part))
		found := false
		for _, on := range objectiveNames {
			if on.name == name {
				o |= on.o
				found = true
				break
			}
		}
		if !found && name != "" {
			return 0, fmt.Errorf("unknown objective metric %q", part)
		}
	}
	if o == 0 {
		return 0, fmt.Errorf("no objective metric in %q", s)
	}
	return o, nil
}

// MarshalText implements encoding.TextMarshaler.
func (o Objective) MarshalText() ([]byte, error) {
	return []byte(o.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (o *Objective) UnmarshalText(text []byte) error {
	parsed, err := ParseObjective(string(text))
	if err != nil {
		return err
	}
	*o = parsed
	return nil
}

/*
Config holds the hyperparameters of a forest.

NumFeatures and NumLabels may be left at 0 to have them derived from the
dataset the forest is built on. Workers bounds the number of trees built
at the same time, 0 meaning one per tree.
*/
type Config struct {
	NumTrees          int       `mapstructure:"num_trees"          yaml:"num_trees"          json:"numTrees"          validate:"min=1,max=255"`
	MaxDepth          int       `mapstructure:"max_depth"          yaml:"max_depth"          json:"maxDepth"          validate:"min=0,max=255"`
	MinSplit          int       `mapstructure:"min_split"          yaml:"min_split"          json:"minSplit"          validate:"min=0"`
	UseGini           bool      `mapstructure:"use_gini"           yaml:"use_gini"           json:"useGini"`
	UseBootstrap      bool      `mapstructure:"use_bootstrap"      yaml:"use_bootstrap"      json:"useBootstrap"`
	UnityThreshold    float64   `mapstructure:"unity_threshold"    yaml:"unity_threshold"    json:"unityThreshold"    validate:"gte=0,lte=1"`
	ImpurityThreshold float64   `mapstructure:"impurity_threshold" yaml:"impurity_threshold" json:"impurityThreshold" validate:"gte=0"`
	TrainRatio        float64   `mapstructure:"train_ratio"        yaml:"train_ratio"        json:"trainRatio"        validate:"gt=0,lt=1"`
	ValidRatio        float64   `mapstructure:"valid_ratio"        yaml:"valid_ratio"        json:"validRatio"        validate:"gte=0,lt=1"`
	BootstrapRatio    float64   `mapstructure:"bootstrap_ratio"    yaml:"bootstrap_ratio"    json:"bootstrapRatio"    validate:"gt=0,lte=1"`
	CombineRatio      float64   `mapstructure:"combine_ratio"      yaml:"combine_ratio"      json:"combineRatio"      validate:"gte=0,lte=1"`
	UseValidation     bool      `mapstructure:"use_validation"     yaml:"use_validation"     json:"useValidation"`
	Objective         Objective `mapstructure:"objective"          yaml:"objective"          json:"objective"         validate:"min=1,max=15"`
	GroupsPerFeature  int       `mapstructure:"groups_per_feature" yaml:"groups_per_feature" json:"groupsPerFeature"  validate:"min=2,max=4"`
	NumFeatures       int       `mapstructure:"num_features"       yaml:"num_features"       json:"numFeatures"       validate:"min=0,max=256"`
	NumLabels         int       `mapstructure:"num_labels"         yaml:"num_labels"         json:"numLabels"         validate:"min=0,max=32"`
	Seed              int64     `mapstructure:"seed"               yaml:"seed"               json:"seed"`
	Workers           int       `mapstructure:"workers"            yaml:"workers"            json:"workers"           validate:"min=0"`
}

// DefaultConfig returns the configuration forests are built with unless
// told otherwise.
func DefaultConfig() Config {
	return Config{
		NumTrees:          20,
		MaxDepth:          13,
		MinSplit:          2,
		UseGini:           true,
		UseBootstrap:      true,
		UnityThreshold:    0.125,
		ImpurityThreshold: 0.1,
		TrainRatio:        dataset.DefaultTrainRatio,
		ValidRatio:        dataset.DefaultValidRatio,
		BootstrapRatio:    dataset.DefaultBootstrapRatio,
		CombineRatio:      0.5,
		UseValidation:     true,
		Objective:         Accuracy,
		GroupsPerFeature:  dataset.DefaultGroupsPerFeature,
		Seed:              37,
	}
}

var validate = validator.New()

// Validate returns an error describing every field out of its range,
// or nil if the configuration can be used to build a forest.
func (c Config) Validate() error {
	if err := validate.Struct(c); err != nil {
		return fmt.Errorf("invalid forest config: %v", err)
	}
	if c.Objective&^allObjectives != 0 {
		return fmt.Errorf("invalid forest config: unknown objective bits in %#02x", uint8(c.Objective))
	}
	if c.UseValidation && c.TrainRatio+c.ValidRatio >= 1 {
		return fmt.Errorf("invalid forest config: train ratio %v and validation ratio %v leave no test samples", c.TrainRatio, c.ValidRatio)
	}
	return nil
}

// Criterion returns the impurity criterion selected by UseGini.
func (c Config) Criterion() tree.Criterion {
	if c.UseGini {
		return tree.Gini
	}
	return tree.Entropy
}

// MarshalYAML makes Objective a metric list on YAML documents.
func (o Objective) MarshalYAML() (interface{}, error) {
	return o.String(), nil
}

// UnmarshalYAML reads an Objective from a metric list or its bit mask.
func (o *Objective) UnmarshalYAML(unmarshal func(interface{}) error) error {
	var mask uint8
	if err := unmarshal(&mask); err == nil {
		*o = Objective(mask)
		return nil
	}
	var s string
	if err := unmarshal(&s); err != nil {
		return err
	}
	return o.UnmarshalText([]byte(s))
}
