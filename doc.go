// Package seqtune provides the core types for training sequence-prediction networks on windowed
// time-series data, and for tuning their hyperparameters with a Bayesian optimizer.
//
// Tensors and Parameters
//
// All values flowing between layers are held in a Tensor, a row-major block of float64 with a list
// of dimensions. Sequences are always batch-first:
//
//		x := seqtune.NewTensor(batchSize, windowLen, inputDim)
//
// A single example of a 3-dimensional Tensor can be viewed as a gonum matrix (time × features)
// without copying, through *Tensor.Example(). Learnable weights are stored in Params, each of which
// pairs a weight matrix with a gradient accumulator of the same shape.
//
// Layers and Models
//
// Layers are analagous to the Operators of other frameworks: each one computes its outputs in
// Forward, caching whatever it needs, and in Backward it adds to the gradients of its Params and
// returns the deltas of its inputs. Implementations live in the subpackage "operators".
//
// Models compose Layers into one of the supported architectures, found in the subpackage
// "models":
//
//		m, err := models.New(cfg, rand.New(rand.NewSource(cfg.Seed)))
//		if err != nil {
//			return err // *seqtune.ConfigError if cfg.Model is not recognized
//		}
//
//		scores, err := m.Predict(x) // dims: (batch, output_dim)
//
// Training
//
// Training, validation, and testing are driven by the subpackage "manager", which owns a Model,
// its datasets, and a CostFunction. Hyperparameter search and the per-epoch experiment loop are in
// "experiment", built on the Gaussian-process optimizer in "bayesopt".
//
// Optimizers, cost functions, initializers, weight penalties, and search bounds are - as with the
// layers - subpackages of seqtune: "optimizers", "costfuncs", "initializers", "penalties", and
// "hyperparams". Results of each epoch are persisted by "results".
package seqtune
