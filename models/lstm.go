package models

import (
	"math/rand"

	bs "github.com/sharnoff/seqtune"
	"github.com/sharnoff/seqtune/config"
	"github.com/sharnoff/seqtune/operators"
)

type lstm struct {
	base
	layers chain
}

// NewLSTM returns the plain recurrent Model: a single LSTM stack of cfg.NLayers layers, with a
// linear projection of the hidden output at the final time step.
func NewLSTM(cfg *config.Config, init bs.Initializer, rng *rand.Rand) (bs.Model, error) {
	m := &lstm{
		base: base{name: "LSTM", inputDim: cfg.InputDim, strLen: cfg.StrLen},
		layers: chain{
			operators.LSTM(cfg.InputDim, cfg.HidDim, cfg.NLayers).Init(init),
			operators.LastStep(),
			operators.Neurons(cfg.HidDim, cfg.Outputs()).Init(init),
		},
	}

	operators.Initialize(rng, m.layers...)
	return m, nil
}

func (m *lstm) Predict(x *bs.Tensor) (*bs.Tensor, error) {
	if err := m.checkInput(x); err != nil {
		return nil, err
	}

	return m.layers.forward(x, m.training())
}

func (m *lstm) Backward(dScores *bs.Tensor) error {
	_, err := m.layers.backward(dScores)
	return err
}

func (m *lstm) Params() []*bs.Param {
	return m.layers.params()
}
