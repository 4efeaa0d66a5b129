package seqtune

import "math/rand"

// Layer is an interface for defining the stages of a Model -- layers with weights and activation
// functions alike.
type Layer interface {
	// TypeString returns the string corresponding to the type of the Layer. For example: the
	// Layer "ReLU" should return "relu", or something to that effect.
	TypeString() string

	// Forward computes the outputs of the Layer for the given input. If training is false, any
	// training-only behavior (such as dropout) is disabled.
	//
	// Forward may cache whatever is needed by the following call to Backward. It must not modify
	// its input.
	Forward(x *Tensor, training bool) (*Tensor, error)

	// Backward is given the derivative of the total cost w.r.t. each output of the most recent
	// call to Forward. It adds to the gradients of the Layer's Params (if any), and returns the
	// derivative of the cost w.r.t. each input.
	Backward(dy *Tensor) (*Tensor, error)

	// Params returns the learnable weights of the Layer. Layers without weights return nil.
	Params() []*Param
}

// Mode indicates whether a Model is being trained or evaluated.
type Mode int8

const (
	Training   Mode = iota // 0
	Evaluation Mode = iota // 1
)

func (m Mode) String() string {
	if m == Training {
		return "training"
	}

	return "evaluation"
}

// Model is a complete predictor: a batch of input windows is mapped to per-class scores.
type Model interface {
	// TypeString returns the architecture name that the Model was constructed with.
	TypeString() string

	// Predict consumes a Tensor of dimensions (batch, window, features) and returns scores of
	// dimensions (batch, classes).
	Predict(x *Tensor) (*Tensor, error)

	// Backward propagates the derivatives of the cost w.r.t. the scores of the last call to
	// Predict through the Model, accumulating the gradients of each Param.
	Backward(dScores *Tensor) error

	// Params returns every learnable Param of the Model, in a stable order.
	Params() []*Param

	// SetMode switches the Model between training and evaluation.
	SetMode(Mode)
}

// Optimizer applies a single update step to a Param, given its accumulated gradient.
type Optimizer interface {
	// TypeString returns the string corresponding to the type of the Optimizer. For example: the
	// Optimizer "Adam" should return "adam", or something to that effect.
	TypeString() string

	// Run adjusts the weights of the given Param using its gradient and the learning rate.
	// Optimizers with internal state keep it per-Param.
	Run(p *Param, learningRate float64) error
}

// CostFunction scores predictions against integer class labels.
type CostFunction interface {
	// TypeString returns the string corresponding to the type of the CostFunction.
	TypeString() string

	// Cost returns the mean cost over the batch, and the derivative of that cost w.r.t. each
	// score. The number of rows of scores must equal len(labels), and every label must be a valid
	// class index; otherwise a *ShapeError is returned.
	Cost(scores *Tensor, labels []int) (float64, *Tensor, error)
}

// Initializer sets the starting weights of a Param. fanIn and fanOut are the number of inputs to
// and outputs from the operator owning the weights.
//
// All randomness must come from the given source, so that a seeded construction is reproducible.
type Initializer interface {
	Set(rng *rand.Rand, fanIn, fanOut int, ws []float64)
}

// Penalty regularizes weights during training. Penalize adds the gradient of the penalty term to
// the Param's gradient, and is run after backpropagation and before the Optimizer.
type Penalty interface {
	TypeString() string
	Penalize(p *Param)
}
