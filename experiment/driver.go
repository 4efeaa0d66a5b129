// Package experiment runs hyperparameter searches over training runs: the Driver exposes training
// as an objective to maximize, and Run repeats the search for a number of epochs, recording
// metrics as it goes.
package experiment

import (
	"math/rand"

	"github.com/pkg/errors"
	bs "github.com/sharnoff/seqtune"
	"github.com/sharnoff/seqtune/bayesopt"
	"github.com/sharnoff/seqtune/config"
	"github.com/sharnoff/seqtune/hyperparams"
	"go.uber.org/zap"
)

// The names of the searched hyperparameters.
const (
	LearningRate string = "learning_rate"
	BatchSize    string = "batch_size"
)

// Evaluator is the set of operations that experiments run. *manager.Manager satisfies it.
type Evaluator interface {
	Train(learningRate, batchSize float64) (loss, acc float64, err error)
	Validate(cost bs.CostFunction, batchSize float64) (loss, acc float64, err error)
	Test(batchSize int) (acc float64, err error)
	CostFunction() bs.CostFunction

	// Checksum identifies the current weights of the model.
	Checksum() uint64
}

// TrainFunc is a single training sweep with the given hyperparameters.
type TrainFunc func(learningRate, batchSize float64) (loss, acc float64, err error)

// ValidateFunc is a single validation pass with the given batch size.
type ValidateFunc func(batchSize float64) (loss, acc float64, err error)

// Driver wraps a TrainFunc as the objective of a Bayesian search over the learning rate and batch
// size. Every evaluation of the search is one call to the TrainFunc, so it is the Driver that performs
// gradient updates.
type Driver struct {
	train    TrainFunc
	validate ValidateFunc // nil unless the search is scored by validation accuracy

	opt    *bayesopt.Optimizer
	logger *zap.Logger

	// metrics of the most recent call to train
	lastLoss, lastAcc float64
	sweeps            int
}

// NewDriver returns a Driver searching the bounds, acquisition and metric given by the config.
// If the search metric is "val_acc", validate must not be nil; it is called after each training
// sweep and its accuracy is the reward.
func NewDriver(cfg *config.Config, train TrainFunc, validate ValidateFunc, rng *rand.Rand, logger *zap.Logger) (*Driver, error) {
	if train == nil {
		return nil, errors.New("Training function must not be nil")
	}

	if logger == nil {
		logger = zap.NewNop()
	}

	d := &Driver{train: train, logger: logger}

	switch cfg.SearchMetric {
	case "train_acc":
	case "val_acc":
		if validate == nil {
			return nil, errors.New("Validation function must not be nil when searching by val_acc")
		}
		d.validate = validate
	default:
		return nil, &bs.ConfigError{Field: "search_metric", Value: cfg.SearchMetric, Reason: "Must be one of: train_acc, val_acc"}
	}

	acq, ok := bayesopt.AcquisitionByName(cfg.Acq, cfg.Xi, cfg.Kappa)
	if !ok {
		return nil, &bs.ConfigError{Field: "acq", Value: cfg.Acq, Reason: "Must be one of: ei, ucb, poi"}
	}

	bounds := map[string]hyperparams.Bound{
		LearningRate: cfg.LR,
		BatchSize:    cfg.BatchSize,
	}

	var err error
	d.opt, err = bayesopt.New(d.objective, bounds,
		bayesopt.WithAcquisition(acq),
		bayesopt.WithWarmup(cfg.NWarmup),
		bayesopt.WithRand(rng),
		bayesopt.WithLogger(logger),
	)
	if err != nil {
		return nil, errors.Wrapf(err, "Failed to set up search")
	}

	return d, nil
}

func (d *Driver) objective(p bayesopt.Point) (float64, error) {
	lr, size := p[LearningRate], p[BatchSize]

	loss, acc, err := d.train(lr, size)
	if err != nil {
		return 0, errors.Wrapf(err, "Training with learning rate %g, batch size %d failed", lr, bs.RoundBatch(size))
	}

	d.lastLoss, d.lastAcc = loss, acc
	d.sweeps++

	d.logger.Info("Trained",
		zap.Float64("learning_rate", lr),
		zap.Int("batch_size", bs.RoundBatch(size)),
		zap.Float64("loss", loss),
		zap.Float64("acc", acc),
	)

	if d.validate == nil {
		return acc, nil
	}

	_, valAcc, err := d.validate(size)
	if err != nil {
		return 0, errors.Wrapf(err, "Scoring by validation failed")
	}

	return valAcc, nil
}

// Maximize runs one cycle of the search: initPoints random sweeps followed by nIter sweeps chosen
// by the acquisition function.
func (d *Driver) Maximize(initPoints, nIter int) error {
	return d.opt.Maximize(initPoints, nIter)
}

// Last returns the loss and accuracy of the most recent training sweep. They are not averaged over
// the sweeps of a cycle.
func (d *Driver) Last() (loss, acc float64) {
	return d.lastLoss, d.lastAcc
}

// Sweeps returns the number of training sweeps run so far.
func (d *Driver) Sweeps() int {
	return d.sweeps
}

// Best returns the observation with the highest reward. It is only valid after a successful
// call to Maximize.
func (d *Driver) Best() (bayesopt.Observation, bool) {
	return d.opt.Max()
}

// Observations returns every evaluated point and its reward, in order.
func (d *Driver) Observations() []bayesopt.Observation {
	return d.opt.Observations()
}
