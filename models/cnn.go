package models

import (
	"math/rand"

	bs "github.com/sharnoff/seqtune"
	"github.com/sharnoff/seqtune/config"
	"github.com/sharnoff/seqtune/operators"
)

const cnnConvs int = 3

type cnn struct {
	base
	layers chain
}

// NewCNN returns the convolutional Model: three convolution + ReLU stages, flattened and
// projected to the output classes. If cfg.CNNPool is positive, max pooling of that size follows
// the final convolution.
func NewCNN(cfg *config.Config, init bs.Initializer, rng *rand.Rand) (bs.Model, error) {
	steps, err := convolvedLen(cfg.StrLen, cfg.FilterSize, cnnConvs)
	if err != nil {
		return nil, err
	}

	m := &cnn{base: base{name: "CNN", inputDim: cfg.InputDim, strLen: cfg.StrLen}}

	in := cfg.InputDim
	for i := 0; i < cnnConvs; i++ {
		m.layers = append(m.layers, operators.Conv1D(in, cfg.NFilters, cfg.FilterSize).Init(init), operators.ReLU())
		in = cfg.NFilters
	}

	if cfg.CNNPool > 0 {
		pool := operators.MaxPool1D(cfg.CNNPool)
		if steps = pool.OutputLen(steps); steps < 1 {
			return nil, &bs.ConfigError{Field: "cnn_pool", Value: cfg.CNNPool, Reason: "Pool is larger than the convolved window"}
		}
		m.layers = append(m.layers, pool)
	}

	m.layers = append(m.layers, operators.Flatten(), operators.Neurons(steps*cfg.NFilters, cfg.Outputs()).Init(init))

	operators.Initialize(rng, m.layers...)
	return m, nil
}

func (m *cnn) Predict(x *bs.Tensor) (*bs.Tensor, error) {
	if err := m.checkInput(x); err != nil {
		return nil, err
	}

	return m.layers.forward(x, m.training())
}

func (m *cnn) Backward(dScores *bs.Tensor) error {
	_, err := m.layers.backward(dScores)
	return err
}

func (m *cnn) Params() []*bs.Param {
	return m.layers.params()
}
