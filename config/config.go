// Package config holds the configuration of a training run: the model architecture, the dataset,
// the hyperparameter search and the harness around it.
package config

import (
	"os"
	"path/filepath"

	"github.com/pkg/errors"
	bs "github.com/sharnoff/seqtune"
	"github.com/sharnoff/seqtune/hyperparams"
	"github.com/sharnoff/seqtune/initializers"
	"gopkg.in/yaml.v3"
)

// Config is the complete configuration of a run.
type Config struct {
	// Architecture
	Model      string  `yaml:"model" json:"model"`
	InputDim   int     `yaml:"input_dim" json:"input_dim"`
	HidDim     int     `yaml:"hid_dim" json:"hid_dim"`
	YFrames    int     `yaml:"y_frames" json:"y_frames"`
	OutputDim  int     `yaml:"output_dim" json:"output_dim"` // 0 means y_frames
	NLayers    int     `yaml:"n_layers" json:"n_layers"`
	NFilters   int     `yaml:"n_filters" json:"n_filters"`
	FilterSize int     `yaml:"filter_size" json:"filter_size"`
	Dropout    float64 `yaml:"dropout" json:"dropout"`
	UseBN      bool    `yaml:"use_bn" json:"use_bn"` // accepted, not applied
	CNNPool    int     `yaml:"cnn_pool" json:"cnn_pool"`

	// Initial weights: one of fan-in, uniform, he, xavier, lecun. InitScale is the half-width of
	// "uniform".
	Initializer string  `yaml:"initializer" json:"initializer"`
	InitScale   float64 `yaml:"init_scale" json:"init_scale"`

	// Dataset
	StrLen      int    `yaml:"str_len" json:"str_len"`
	Stride      int    `yaml:"stride" json:"stride"`
	DataPath    string `yaml:"data_path" json:"data_path"`
	TrainPath   string `yaml:"train_path" json:"train_path"`
	ValPath     string `yaml:"val_path" json:"val_path"`
	TestPath    string `yaml:"test_path" json:"test_path"`
	LabelColumn string `yaml:"label_column" json:"label_column"`

	// Training
	Device    string `yaml:"device" json:"device"`
	Cost      string `yaml:"cost" json:"cost"`
	Optimizer string `yaml:"optimizer" json:"optimizer"`
	Seed      int64  `yaml:"seed" json:"seed"`

	// Regularization: one of none, l1, l2, elastic-net
	Penalty       string  `yaml:"penalty" json:"penalty"`
	PenaltyLambda float64 `yaml:"penalty_lambda" json:"penalty_lambda"`
	PenaltyAlpha  float64 `yaml:"penalty_alpha" json:"penalty_alpha"`

	// Search
	LR           hyperparams.Bound `yaml:"lr" json:"lr"`
	BatchSize    hyperparams.Bound `yaml:"batch_size" json:"batch_size"`
	InitPoints   int               `yaml:"init_points" json:"init_points"`
	NIter        int               `yaml:"n_iter" json:"n_iter"`
	Acq          string            `yaml:"acq" json:"acq"`
	Xi           float64           `yaml:"xi" json:"xi"`
	Kappa        float64           `yaml:"kappa" json:"kappa"`
	NWarmup      int               `yaml:"n_warmup" json:"n_warmup"`
	SearchMetric string            `yaml:"search_metric" json:"search_metric"`

	// Harness
	Epoch              int    `yaml:"epoch" json:"epoch"`
	Mode               string `yaml:"mode" json:"mode"`
	InferenceBatchSize int    `yaml:"inference_batch_size" json:"inference_batch_size"`
	Progress           bool   `yaml:"progress" json:"progress"`
	ResultsDir         string `yaml:"results_dir" json:"results_dir"`
	LogLevel           string `yaml:"log_level" json:"log_level"`
}

// Default returns the default configuration. Bounds for the search are single points, so that an
// unmodified configuration trains with fixed hyperparameters.
func Default() *Config {
	return &Config{
		Model:      "ConvLSTM",
		InputDim:   1,
		HidDim:     16,
		YFrames:    1,
		NLayers:    1,
		NFilters:   8,
		FilterSize: 3,
		Dropout:    0.1,

		Initializer: "fan-in",

		StrLen:      24,
		Stride:      1,
		DataPath:    "data/FakeData.csv",
		LabelColumn: "label",

		Device:    "cpu",
		Cost:      "cross-entropy",
		Optimizer: "adam",
		Seed:      1,
		Penalty:   "none",

		LR:           hyperparams.Constant(0.001),
		BatchSize:    hyperparams.Constant(32),
		InitPoints:   2,
		NIter:        3,
		Acq:          "ei",
		Xi:           0.01,
		Kappa:        2.576,
		NWarmup:      1000,
		SearchMetric: "train_acc",

		Epoch:              2,
		Mode:               "train",
		InferenceBatchSize: 32,
		LogLevel:           "info",
	}
}

// Load reads the YAML file at path over top of the defaults. The result is not validated.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrapf(err, "Failed to read config %q", path)
	}

	cfg := Default()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, errors.Wrapf(err, "Failed to parse config %q", path)
	}

	return cfg, nil
}

// Save writes the configuration as YAML, creating any parent directories.
func (c *Config) Save(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return errors.Wrapf(err, "Failed to create config directory")
	}

	data, err := yaml.Marshal(c)
	if err != nil {
		return errors.Wrapf(err, "Failed to marshal config")
	}

	return errors.Wrapf(os.WriteFile(path, data, 0644), "Failed to write config %q", path)
}

// Outputs returns the number of classes that models predict: OutputDim if set, else YFrames.
func (c *Config) Outputs() int {
	if c.OutputDim > 0 {
		return c.OutputDim
	}

	return c.YFrames
}

// Paths returns the train, validation and test dataset paths. Any that are unset fall back to
// DataPath.
func (c *Config) Paths() (train, val, test string) {
	or := func(p string) string {
		if p == "" {
			return c.DataPath
		}
		return p
	}

	return or(c.TrainPath), or(c.ValPath), or(c.TestPath)
}

// Validate returns a *seqtune.ConfigError for the first invalid value. The model name is not
// checked here; unknown names are rejected when the model is constructed.
func (c *Config) Validate() error {
	positive := []struct {
		field string
		value int
	}{
		{"input_dim", c.InputDim},
		{"hid_dim", c.HidDim},
		{"y_frames", c.YFrames},
		{"n_layers", c.NLayers},
		{"n_filters", c.NFilters},
		{"filter_size", c.FilterSize},
		{"str_len", c.StrLen},
		{"stride", c.Stride},
		{"epoch", c.Epoch},
		{"inference_batch_size", c.InferenceBatchSize},
		{"n_warmup", c.NWarmup},
	}

	for _, p := range positive {
		if p.value < 1 {
			return &bs.ConfigError{Field: p.field, Value: p.value, Reason: "Must be at least 1"}
		}
	}

	switch {
	case c.OutputDim < 0:
		return &bs.ConfigError{Field: "output_dim", Value: c.OutputDim, Reason: "Must not be negative"}
	case c.CNNPool < 0:
		return &bs.ConfigError{Field: "cnn_pool", Value: c.CNNPool, Reason: "Must not be negative"}
	case c.InitPoints < 0:
		return &bs.ConfigError{Field: "init_points", Value: c.InitPoints, Reason: "Must not be negative"}
	case c.NIter < 0:
		return &bs.ConfigError{Field: "n_iter", Value: c.NIter, Reason: "Must not be negative"}
	case c.InitPoints+c.NIter < 1:
		return &bs.ConfigError{Field: "n_iter", Value: c.NIter, Reason: "Search must evaluate at least one point"}
	case c.Dropout < 0 || c.Dropout >= 1:
		return &bs.ConfigError{Field: "dropout", Value: c.Dropout, Reason: "Must be within [0, 1)"}
	}

	if _, err := initializers.ByName(c.Initializer, c.InitScale); err != nil {
		return err
	}

	if err := c.LR.Validate(); err != nil {
		return &bs.ConfigError{Field: "lr", Value: c.LR, Reason: err.Error()}
	} else if c.LR.Low <= 0 {
		return &bs.ConfigError{Field: "lr", Value: c.LR, Reason: "Learning rate must be positive"}
	}

	if err := c.BatchSize.Validate(); err != nil {
		return &bs.ConfigError{Field: "batch_size", Value: c.BatchSize, Reason: err.Error()}
	} else if bs.RoundBatch(c.BatchSize.Low) < 1 {
		return &bs.ConfigError{Field: "batch_size", Value: c.BatchSize, Reason: "Batch size must round to at least 1"}
	}

	switch c.Acq {
	case "ei", "ucb", "poi":
	default:
		return &bs.ConfigError{Field: "acq", Value: c.Acq, Reason: "Must be one of: ei, ucb, poi"}
	}

	switch c.SearchMetric {
	case "train_acc", "val_acc":
	default:
		return &bs.ConfigError{Field: "search_metric", Value: c.SearchMetric, Reason: "Must be one of: train_acc, val_acc"}
	}

	switch c.Mode {
	case "train", "test":
	default:
		return &bs.ConfigError{Field: "mode", Value: c.Mode, Reason: "Must be one of: train, test"}
	}

	if c.DataPath == "" && (c.TrainPath == "" || c.ValPath == "" || c.TestPath == "") {
		return &bs.ConfigError{Field: "data_path", Value: c.DataPath, Reason: "No dataset given"}
	}

	return nil
}
