package experiment

import (
	"math/rand"
	"time"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	bs "github.com/sharnoff/seqtune"
	"github.com/sharnoff/seqtune/config"
	"github.com/sharnoff/seqtune/results"
	"go.uber.org/zap"
)

// Result is everything collected by a single call to Run. In "test" mode, only TestAcc is set
// (alongside the run ID and config).
type Result struct {
	RunID  string         `json:"run_id"`
	Config *config.Config `json:"config"`

	results.History

	// the metrics of the final epoch
	TrainAcc float64 `json:"train_acc"`
	ValAcc   float64 `json:"val_acc"`

	TestAcc float64 `json:"test_acc"`

	// Best is the best point found by the search, with its reward
	Best *BestPoint `json:"best,omitempty"`
}

// BestPoint is the hyperparameters with the highest reward over the whole search.
type BestPoint struct {
	LearningRate float64 `json:"learning_rate"`
	BatchSize    int     `json:"batch_size"`
	Reward       float64 `json:"reward"`
}

type runOptions struct {
	saver  results.Saver
	logger *zap.Logger
	runID  string
	update func(results.Record)
}

// RunOption configures a call to Run.
type RunOption func(*runOptions)

// WithSaver sets where the Record of each epoch is saved. The default is results.Discard.
func WithSaver(s results.Saver) RunOption {
	return func(o *runOptions) { o.saver = s }
}

// WithLogger sets the logger that epochs and sweeps are reported to.
func WithLogger(l *zap.Logger) RunOption {
	return func(o *runOptions) { o.logger = l }
}

// WithRunID sets the run ID instead of generating a random one.
func WithRunID(id string) RunOption {
	return func(o *runOptions) { o.runID = id }
}

// WithUpdate sets a function to be called with the complete Record of each epoch.
func WithUpdate(f func(results.Record)) RunOption {
	return func(o *runOptions) { o.update = f }
}

// Run runs the experiment described by the configuration on the Evaluator.
//
// In "train" mode, each epoch runs one cycle of the search (init_points + n_iter training sweeps),
// saves a Record, then validates once with the batch size of the best point found so far. The
// Record is saved again with the validation metrics filled in. The train metrics reported for an
// epoch are those of its last sweep.
//
// In "test" mode, a single test pass is run with inference_batch_size.
//
// Any error aborts the run, and no Result is returned.
func Run(cfg *config.Config, ev Evaluator, opts ...RunOption) (*Result, error) {
	o := runOptions{saver: results.Discard, logger: zap.NewNop()}
	for _, opt := range opts {
		opt(&o)
	}

	if o.runID == "" {
		o.runID = uuid.NewString()
	}

	res := &Result{RunID: o.runID, Config: cfg}
	logger := o.logger.With(zap.String("run_id", o.runID))

	switch cfg.Mode {
	case "test":
		acc, err := ev.Test(cfg.InferenceBatchSize)
		if err != nil {
			return nil, errors.Wrapf(err, "Testing failed")
		}

		res.TestAcc = acc
		logger.Info("Tested", zap.Float64("acc", acc))
		return res, nil
	case "train":
	default:
		return nil, &bs.ConfigError{Field: "mode", Value: cfg.Mode, Reason: "Must be one of: train, test"}
	}

	cost := ev.CostFunction()
	validate := func(batchSize float64) (float64, float64, error) {
		return ev.Validate(cost, batchSize)
	}

	rng := rand.New(rand.NewSource(cfg.Seed))
	driver, err := NewDriver(cfg, ev.Train, validate, rng, logger)
	if err != nil {
		return nil, err
	}

	for e := 0; e < cfg.Epoch; e++ {
		start := time.Now()

		if err := driver.Maximize(cfg.InitPoints, cfg.NIter); err != nil {
			return nil, errors.Wrapf(err, "Search failed on epoch %d", e)
		}

		best, ok := driver.Best()
		if !ok {
			return nil, errors.Errorf("Search evaluated no points on epoch %d (init_points %d, n_iter %d)", e, cfg.InitPoints, cfg.NIter)
		}
		trainLoss, trainAcc := driver.Last()

		rec := results.Record{
			RunID:        o.runID,
			Epoch:        e,
			Observations: driver.Observations(),
			Best:         best,
			TrainLoss:    trainLoss,
			TrainAcc:     trainAcc,
			Elapsed:      time.Since(start),

			ModelChecksum: ev.Checksum(),
		}

		if err := o.saver.Save(rec); err != nil {
			return nil, errors.Wrapf(err, "Failed to save epoch %d", e)
		}

		valLoss, valAcc, err := ev.Validate(cost, best.Point[BatchSize])
		if err != nil {
			return nil, errors.Wrapf(err, "Validation failed on epoch %d", e)
		}

		rec.ValLoss, rec.ValAcc = valLoss, valAcc
		rec.Elapsed = time.Since(start)
		if err := o.saver.Save(rec); err != nil {
			return nil, errors.Wrapf(err, "Failed to save epoch %d", e)
		}

		res.Append(trainLoss, valLoss, trainAcc, valAcc)
		res.TrainAcc, res.ValAcc = trainAcc, valAcc
		res.Best = &BestPoint{
			LearningRate: best.Point[LearningRate],
			BatchSize:    bs.RoundBatch(best.Point[BatchSize]),
			Reward:       best.Value,
		}

		logger.Info("Finished epoch",
			zap.Int("epoch", e),
			zap.Float64("train_acc", trainAcc),
			zap.Float64("val_acc", valAcc),
			zap.Float64("train_loss", trainLoss),
			zap.Float64("val_loss", valLoss),
			zap.Duration("elapsed", rec.Elapsed),
		)

		if o.update != nil {
			o.update(rec)
		}
	}

	return res, nil
}
