/*
Package config loads the configuration of the tools from YAML files,
MCUFOREST_ prefixed environment variables and command line flags, and
writes tuned configurations back out as YAML.
*/
package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/go-viper/mapstructure/v2"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
	"github.com/viettran-edgeAI/MCU-sub008/forest"
	"github.com/viettran-edgeAI/MCU-sub008/pkg/bio"
	"github.com/viettran-edgeAI/MCU-sub008/pkg/logging"
	"github.com/viettran-edgeAI/MCU-sub008/trainer"
	yaml "gopkg.in/yaml.v2"
)

// EnvPrefix prefixes every environment variable read by a Loader.
const EnvPrefix = "MCUFOREST"

// Config is the configuration of the tools.
type Config struct {
	Forest  forest.Config  `mapstructure:"forest"  yaml:"forest"`
	Trainer TrainerConfig  `mapstructure:"trainer" yaml:"trainer"`
	Data    DataConfig     `mapstructure:"data"    yaml:"data"`
	Log     logging.Config `mapstructure:"log"     yaml:"log"`
	Storage StorageConfig  `mapstructure:"storage" yaml:"storage"`
	Metrics MetricsConfig  `mapstructure:"metrics" yaml:"metrics"`
}

// TrainerConfig holds the budget of the trainer and the grid search.
type TrainerConfig struct {
	Epochs         int     `mapstructure:"epochs"          yaml:"epochs"          validate:"min=1"`
	Patience       int     `mapstructure:"patience"        yaml:"patience"        validate:"min=1"`
	MinImprovement float64 `mapstructure:"min_improvement" yaml:"min_improvement" validate:"gte=0"`
	Instances      int     `mapstructure:"instances"       yaml:"instances"       validate:"min=1"`
}

// DataConfig holds the options datasets are loaded with.
type DataConfig struct {
	Header  bool `mapstructure:"header"   yaml:"header"`
	MaxRows int  `mapstructure:"max_rows" yaml:"max_rows" validate:"min=1"`
}

// LoadOptions returns the bio.LoadOptions for the data config.
func (dc DataConfig) LoadOptions() bio.LoadOptions {
	return bio.LoadOptions{Header: dc.Header, MaxRows: dc.MaxRows}
}

/*
StorageConfig tells where models are kept.

Model is either a directory path, a redis://host:port/db URL or an
s3://bucket/prefix URL. Endpoint and the credentials are used for S3
compatible stores and Password for Redis.
*/
type StorageConfig struct {
	Model           string `mapstructure:"model"             yaml:"model"`
	Endpoint        string `mapstructure:"endpoint"          yaml:"endpoint"`
	AccessKeyID     string `mapstructure:"access_key_id"     yaml:"access_key_id"`
	SecretAccessKey string `mapstructure:"secret_access_key" yaml:"secret_access_key"`
	UseSSL          bool   `mapstructure:"use_ssl"           yaml:"use_ssl"`
	Password        string `mapstructure:"password"          yaml:"password"`
}

// MetricsConfig holds the address the metrics endpoint listens on, if
// any.
type MetricsConfig struct {
	Addr string `mapstructure:"addr" yaml:"addr"`
}

// Default returns the configuration used for every setting not given in
// a file, the environment or a flag.
func Default() Config {
	return Config{
		Forest: forest.DefaultConfig(),
		Trainer: TrainerConfig{
			Epochs:         trainer.DefaultEpochs,
			Patience:       trainer.DefaultPatience,
			MinImprovement: trainer.DefaultMinImprovement,
			Instances:      trainer.DefaultInstances,
		},
		Data: DataConfig{MaxRows: bio.DefaultMaxRows},
		Log:  logging.Config{Level: "info", Format: "text", MaxSize: 10, MaxBackups: 3, MaxAge: 28},
		Storage: StorageConfig{
			Model: "model",
		},
	}
}

var validate = validator.New()

// Validate returns an error describing every setting out of its range.
func (c *Config) Validate() error {
	if err := validate.Struct(c); err != nil {
		return fmt.Errorf("invalid config: %v", err)
	}
	return c.Forest.Validate()
}

// Loader gathers settings from a config file, the environment and
// flags bound to it, in increasing order of precedence.
type Loader struct {
	v *viper.Viper
}

// NewLoader returns a Loader with every setting defaulted as in Default.
func NewLoader() *Loader {
	v := viper.New()
	v.SetConfigType("yaml")
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	setDefaults(v, "", Default())
	return &Loader{v: v}
}

// BindFlag makes the value of the flag, when set, override the setting
// under key.
func (l *Loader) BindFlag(key string, flag *pflag.Flag) error {
	if flag == nil {
		return fmt.Errorf("no flag to bind to %s", key)
	}
	return l.v.BindPFlag(key, flag)
}

/*
Load takes the path to a YAML config file, empty for none, and returns
the Config resulting from it, the environment and the bound flags, or an
error if the file cannot be read or the result is invalid.
*/
func (l *Loader) Load(path string) (*Config, error) {
	if path != "" {
		l.v.SetConfigFile(path)
		if err := l.v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("reading config file %s: %v", path, err)
		}
	}
	cfg := &Config{}
	hook := viper.DecodeHook(mapstructure.TextUnmarshallerHookFunc())
	if err := l.v.Unmarshal(cfg, hook); err != nil {
		return nil, fmt.Errorf("decoding config: %v", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Load is a shorthand for NewLoader().Load(path).
func Load(path string) (*Config, error) {
	return NewLoader().Load(path)
}

// setDefaults registers every leaf of a yaml tagged struct as a default
// under its dotted key, so that environment variables can override it.
func setDefaults(v *viper.Viper, prefix string, value interface{}) {
	data, err := yaml.Marshal(value)
	if err != nil {
		return
	}
	var tree map[string]interface{}
	if err = yaml.Unmarshal(data, &tree); err != nil {
		return
	}
	flattenDefaults(v, prefix, tree)
}

func flattenDefaults(v *viper.Viper, prefix string, tree map[string]interface{}) {
	for k, val := range tree {
		key := k
		if prefix != "" {
			key = prefix + "." + k
		}
		if sub, ok := val.(map[interface{}]interface{}); ok {
			m := make(map[string]interface{}, len(sub))
			for sk, sv := range sub {
				m[fmt.Sprint(sk)] = sv
			}
			flattenDefaults(v, key, m)
			continue
		}
		v.SetDefault(key, val)
	}
}

/*
Best is the outcome of a tuning run as written to best_config.yml. Its
forest section can be loaded back with Load.
*/
type Best struct {
	Forest      forest.Config `yaml:"forest"`
	Objective   string        `yaml:"objective"`
	Score       float64       `yaml:"score"`
	MeanScore   float64       `yaml:"mean_score"`
	Generated   string        `yaml:"generated"`
	Interrupted bool          `yaml:"interrupted,omitempty"`
}

// NewBest returns the Best for a forest config and its scores, stamped
// with the given time.
func NewBest(cfg forest.Config, score, meanScore float64, at time.Time) Best {
	return Best{
		Forest:    cfg,
		Objective: cfg.Objective.String(),
		Score:     score,
		MeanScore: meanScore,
		Generated: at.UTC().Format(time.RFC3339),
	}
}

// Write marshals value as YAML into the file at path, creating or
// truncating it.
func Write(path string, value interface{}) error {
	data, err := yaml.Marshal(value)
	if err != nil {
		return fmt.Errorf("encoding %s: %v", path, err)
	}
	if err = os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("writing %s: %v", path, err)
	}
	return nil
}
