// seqtune trains a sequence classifier on windowed time-series data, tuning the learning rate and
// batch size with Bayesian optimization.
//
// The configuration is read from a YAML file (see config.Config for the keys); any flags given
// override the file. The Result of the run is written to stdout as JSON.
package main

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	arg "github.com/alexflint/go-arg"
	"github.com/pkg/errors"
	"github.com/sharnoff/seqtune/config"
	"github.com/sharnoff/seqtune/experiment"
	"github.com/sharnoff/seqtune/manager"
	"github.com/sharnoff/seqtune/results"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

type args struct {
	Config     string `arg:"-c,--config" help:"path to the YAML configuration"`
	Mode       string `arg:"--mode" help:"train or test"`
	Model      string `arg:"--model" help:"ConvLSTM, LSTM or CNN"`
	Epoch      int    `arg:"--epoch" help:"number of search cycles"`
	Device     string `arg:"--device" help:"execution device"`
	Seed       *int64 `arg:"--seed" help:"seed for every source of randomness"`
	ResultsDir string `arg:"--results-dir" help:"directory of the results database"`
	Plot       string `arg:"--plot" help:"write learning curves to this image file (.png, .svg, ...)"`
	CSV        string `arg:"--csv" help:"write per-epoch metrics to this CSV file"`
	Progress   bool   `arg:"--progress" help:"show progress bars over batches"`
}

func (args) Description() string {
	return "Trains sequence classifiers with a Bayesian search over learning rate and batch size."
}

func (a args) apply(cfg *config.Config) {
	if a.Mode != "" {
		cfg.Mode = a.Mode
	}
	if a.Model != "" {
		cfg.Model = a.Model
	}
	if a.Epoch != 0 {
		cfg.Epoch = a.Epoch
	}
	if a.Device != "" {
		cfg.Device = a.Device
	}
	if a.Seed != nil {
		cfg.Seed = *a.Seed
	}
	if a.ResultsDir != "" {
		cfg.ResultsDir = a.ResultsDir
	}
	if a.Progress {
		cfg.Progress = true
	}
}

// loadConfig reads the config file, if any, over the defaults; then applies the flags.
func loadConfig(a args) (*config.Config, error) {
	cfg := config.Default()
	if a.Config != "" {
		var err error
		if cfg, err = config.Load(a.Config); err != nil {
			return nil, err
		}
	}
	a.apply(cfg)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func newLogger(level string) (*zap.Logger, error) {
	lvl, err := zapcore.ParseLevel(level)
	if err != nil {
		return nil, errors.Wrapf(err, "Bad log level %q", level)
	}

	zc := zap.NewProductionConfig()
	if lvl == zapcore.DebugLevel {
		zc = zap.NewDevelopmentConfig()
	}
	zc.Level = zap.NewAtomicLevelAt(lvl)

	return zc.Build()
}

func main() {
	var a args
	arg.MustParse(&a)

	if err := run(a); err != nil {
		fmt.Fprintf(os.Stderr, "%+v\n", err)
		os.Exit(1)
	}
}

func run(a args) error {
	cfg, err := loadConfig(a)
	if err != nil {
		return err
	}

	logger, err := newLogger(cfg.LogLevel)
	if err != nil {
		return err
	}
	defer logger.Sync()

	m, err := manager.New(cfg, manager.WithLogger(logger))
	if err != nil {
		return errors.Wrapf(err, "Failed to set up")
	}

	opts := []experiment.RunOption{experiment.WithLogger(logger)}
	if cfg.ResultsDir != "" {
		db, err := results.OpenLevelDB(filepath.Join(cfg.ResultsDir, "records"))
		if err != nil {
			return err
		}
		defer db.Close()

		opts = append(opts, experiment.WithSaver(db))
	}

	res, err := experiment.Run(cfg, m, opts...)
	if err != nil {
		return err
	}

	if cfg.Mode == "train" {
		if err := report(res, a, logger); err != nil {
			return err
		}
	}

	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return errors.Wrapf(enc.Encode(res), "Failed to write result")
}

// report writes the optional CSV and plot, and logs a summary of the validation accuracy.
func report(res *experiment.Result, a args, logger *zap.Logger) error {
	if a.CSV != "" {
		f, err := os.Create(a.CSV)
		if err != nil {
			return errors.Wrapf(err, "Failed to create CSV file")
		}

		if err := results.WriteEpochCSV(f, res.History); err != nil {
			f.Close()
			return err
		}

		if err := f.Close(); err != nil {
			return errors.Wrapf(err, "Failed to write CSV file")
		}
	}

	if a.Plot != "" {
		if err := results.PlotCurves(res.History, a.Plot); err != nil {
			return err
		}
	}

	s, err := results.Summarize(res.ValAccs)
	if err != nil {
		return err
	}

	logger.Info("Validation accuracy over epochs",
		zap.Float64("mean", s.Mean),
		zap.Float64("stddev", s.StdDev),
		zap.Float64("min", s.Min),
		zap.Float64("max", s.Max),
	)

	return nil
}
