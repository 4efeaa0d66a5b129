// Package manager trains and evaluates a single model over its training, validation and test
// datasets.
package manager

import (
	"fmt"
	"math/rand"

	"github.com/dustin/go-humanize"
	"github.com/pkg/errors"
	"github.com/sbwhitecap/tqdm"
	"github.com/sbwhitecap/tqdm/iterators"
	bs "github.com/sharnoff/seqtune"
	"github.com/sharnoff/seqtune/config"
	"github.com/sharnoff/seqtune/dataset"
	"github.com/sharnoff/seqtune/models"
	"github.com/sharnoff/seqtune/penalties"
	"go.uber.org/zap"

	// registered by name
	_ "github.com/sharnoff/seqtune/costfuncs"
	_ "github.com/sharnoff/seqtune/optimizers"
)

// Manager owns a model, its cost function, and the three datasets. Each call to Train runs one
// pass over the training set with the given hyperparameters; Validate and Test never change the
// model.
//
// A Manager is not safe for concurrent use.
type Manager struct {
	cfg *config.Config

	model   bs.Model
	cost    bs.CostFunction
	penalty bs.Penalty // nil if none

	train, val, test dataset.Supplier
	preloaded        bool
	loader           Loader

	seed    int64
	seedSet bool
	rng     *rand.Rand

	logger *zap.Logger
}

// the only device that models can run on
const cpu string = "cpu"

// New returns the Manager for the configuration. The device is checked and the model built before
// any dataset is loaded, so an invalid configuration fails without touching the filesystem.
func New(cfg *config.Config, opts ...Option) (*Manager, error) {
	m := &Manager{cfg: cfg, logger: zap.NewNop()}
	m.loader = func(path string) (dataset.Supplier, error) {
		return dataset.Load(path, dataset.Options{
			StrLen:      cfg.StrLen,
			YFrames:     cfg.YFrames,
			Stride:      cfg.Stride,
			LabelColumn: cfg.LabelColumn,
		})
	}

	for _, opt := range opts {
		opt(m)
	}

	if !m.seedSet {
		m.seed = cfg.Seed
	}
	m.rng = rand.New(rand.NewSource(m.seed))

	if cfg.Device != cpu {
		return nil, errors.Wrapf(bs.ErrDeviceUnavailable, "Device %q", cfg.Device)
	}

	var err error
	if m.model, err = models.New(cfg, m.rng); err != nil {
		return nil, errors.Wrapf(err, "Couldn't build model")
	}

	if m.cost, err = bs.GetCostFunction(cfg.Cost); err != nil {
		return nil, err
	}
	if _, err = bs.GetOptimizer(cfg.Optimizer); err != nil {
		return nil, err
	}
	if m.penalty, err = penalties.New(cfg.Penalty, cfg.PenaltyLambda, cfg.PenaltyAlpha); err != nil {
		return nil, err
	}

	if !m.preloaded {
		trainPath, valPath, testPath := cfg.Paths()
		for _, d := range []struct {
			name string
			path string
			dst  *dataset.Supplier
		}{
			{"training", trainPath, &m.train},
			{"validation", valPath, &m.val},
			{"test", testPath, &m.test},
		} {
			if *d.dst, err = m.loader(d.path); err != nil {
				return nil, errors.Wrapf(err, "Couldn't load %s dataset", d.name)
			}
		}
	}

	for _, d := range []struct {
		name string
		data dataset.Supplier
	}{
		{"training", m.train},
		{"validation", m.val},
		{"test", m.test},
	} {
		if d.data == nil {
			return nil, errors.Errorf("No %s dataset", d.name)
		} else if d.data.InputDim() != cfg.InputDim {
			return nil, &bs.ConfigError{
				Field:  "input_dim",
				Value:  cfg.InputDim,
				Reason: fmt.Sprintf("The %s dataset has %d features", d.name, d.data.InputDim()),
			}
		} else if d.data.WindowLen() != cfg.StrLen {
			return nil, &bs.ConfigError{
				Field:  "str_len",
				Value:  cfg.StrLen,
				Reason: fmt.Sprintf("The %s dataset has windows of %d steps", d.name, d.data.WindowLen()),
			}
		}
	}

	m.logger.Info("Built model",
		zap.String("model", m.model.TypeString()),
		zap.String("params", humanize.Comma(int64(bs.NumWeights(m.model.Params())))),
		zap.Int("train_windows", m.train.Len()),
		zap.Int("val_windows", m.val.Len()),
		zap.Int("test_windows", m.test.Len()),
	)

	return m, nil
}

// Model returns the model being trained.
func (m *Manager) Model() bs.Model {
	return m.model
}

// Checksum returns a hash of the model's current weights.
func (m *Manager) Checksum() uint64 {
	return bs.Checksum(m.model.Params())
}

// CostFunction returns the cost function that Train minimizes.
func (m *Manager) CostFunction() bs.CostFunction {
	return m.cost
}

// Train runs one pass over the training set, in a freshly shuffled order, with a fresh optimizer.
// The batch size is rounded to the nearest integer, and a final partial batch is dropped.
//
// The configured penalty, if any, regularizes the weights but is not included in the returned loss.
// It returns the mean cost over batches, and the fraction of examples that were classified
// correctly.
func (m *Manager) Train(learningRate, batchSize float64) (loss, acc float64, err error) {
	size := bs.RoundBatch(batchSize)
	loader, err := m.newLoader(m.train, size, m.rng)
	if err != nil {
		return 0, 0, errors.Wrapf(err, "Couldn't train")
	}

	opt, err := bs.GetOptimizer(m.cfg.Optimizer)
	if err != nil {
		return 0, 0, err
	}

	m.model.SetMode(bs.Training)
	params := m.model.Params()

	var totalLoss float64
	var correct int

	err = m.eachBatch("Training", loader.NumBatches(), func(b int) error {
		x, labels, err := loader.Batch(b)
		if err != nil {
			return err
		}

		bs.ZeroGrads(params)

		scores, err := m.model.Predict(x)
		if err != nil {
			return err
		}

		cost, ds, err := m.cost.Cost(scores, labels)
		if err != nil {
			return err
		}

		if err = m.model.Backward(ds); err != nil {
			return err
		}

		for _, p := range params {
			if m.penalty != nil {
				m.penalty.Penalize(p)
			}
			if err = opt.Run(p, learningRate); err != nil {
				return errors.Wrapf(err, "Optimizer failed on %q", p.Name)
			}
		}

		n, err := bs.CorrectHighest(scores, labels)
		if err != nil {
			return err
		}

		totalLoss += cost
		correct += n
		return nil
	})
	if err != nil {
		return 0, 0, errors.Wrapf(err, "Training failed")
	}

	loss = totalLoss / float64(loader.NumBatches())
	acc = float64(correct) / float64(loader.NumBatches()*size)

	m.logger.Debug("Trained",
		zap.Float64("learning_rate", learningRate),
		zap.Int("batch_size", size),
		zap.Float64("loss", loss),
		zap.Float64("acc", acc),
	)

	return loss, acc, nil
}

// Validate runs one pass over the validation set in order, with the given cost function, and
// returns the mean cost over batches and the fraction of examples classified correctly. The model
// is not changed.
func (m *Manager) Validate(cost bs.CostFunction, batchSize float64) (loss, acc float64, err error) {
	loss, acc, err = m.evaluate("Validating", m.val, cost, bs.RoundBatch(batchSize))
	return loss, acc, errors.Wrapf(err, "Validation failed")
}

// Test runs one pass over the test set in order, and returns the fraction of examples classified
// correctly. The model is not changed.
func (m *Manager) Test(batchSize int) (acc float64, err error) {
	_, acc, err = m.evaluate("Testing", m.test, nil, batchSize)
	return acc, errors.Wrapf(err, "Testing failed")
}

// cost may be nil, in which case the returned loss is zero
func (m *Manager) evaluate(desc string, data dataset.Supplier, cost bs.CostFunction, size int) (loss, acc float64, err error) {
	loader, err := m.newLoader(data, size, nil)
	if err != nil {
		return 0, 0, err
	}

	m.model.SetMode(bs.Evaluation)

	var totalLoss float64
	var correct int

	err = m.eachBatch(desc, loader.NumBatches(), func(b int) error {
		x, labels, err := loader.Batch(b)
		if err != nil {
			return err
		}

		scores, err := m.model.Predict(x)
		if err != nil {
			return err
		}

		if cost != nil {
			c, _, err := cost.Cost(scores, labels)
			if err != nil {
				return err
			}
			totalLoss += c
		}

		n, err := bs.CorrectHighest(scores, labels)
		if err != nil {
			return err
		}

		correct += n
		return nil
	})
	if err != nil {
		return 0, 0, err
	}

	return totalLoss / float64(loader.NumBatches()), float64(correct) / float64(loader.NumBatches()*size), nil
}

func (m *Manager) newLoader(data dataset.Supplier, size int, rng *rand.Rand) (*dataset.Loader, error) {
	loader, err := dataset.NewLoader(data, size, rng)
	if err != nil {
		return nil, err
	} else if loader.NumBatches() == 0 {
		return nil, errors.Wrapf(bs.ErrNoBatches, "%d windows, batch size %d", data.Len(), size)
	}

	return loader, nil
}

// eachBatch calls f for every batch index in order, stopping at the first error. A progress bar is
// shown if the configuration asks for one.
func (m *Manager) eachBatch(desc string, n int, f func(b int) error) error {
	if !m.cfg.Progress {
		for b := 0; b < n; b++ {
			if err := f(b); err != nil {
				return err
			}
		}
		return nil
	}

	var ferr error
	err := tqdm.With(iterators.Interval(0, n), desc, func(v interface{}) (brk bool) {
		if ferr = f(v.(int)); ferr != nil {
			return true
		}
		return
	})

	if ferr != nil {
		return ferr
	}
	return err
}
