package models

import (
	"math/rand"

	"github.com/pkg/errors"
	bs "github.com/sharnoff/seqtune"
	"github.com/sharnoff/seqtune/config"
	"github.com/sharnoff/seqtune/operators"
)

const (
	convLSTMConvs  int = 4
	convLSTMBlocks int = 5
)

// recurrent is the part of *operators.lstm used by the models
type recurrent interface {
	bs.Layer
	ZeroState(batch int) operators.State
	ForwardState(x *bs.Tensor, s operators.State) (*bs.Tensor, operators.State, error)
	BackwardState(dy *bs.Tensor, ds operators.State) (*bs.Tensor, operators.State, error)
}

type convLSTM struct {
	base

	convs  chain
	blocks []recurrent
	head   chain
}

// NewConvLSTM returns the convolutional-recurrent Model: four convolution + ReLU stages, then five
// stacked LSTM blocks of cfg.NLayers layers each, then dropout, and a linear projection of the
// final time step.
//
// The hidden state starts at zero for every call to Predict, and the final state of each block is
// the initial state of the next.
func NewConvLSTM(cfg *config.Config, init bs.Initializer, rng *rand.Rand) (bs.Model, error) {
	if _, err := convolvedLen(cfg.StrLen, cfg.FilterSize, convLSTMConvs); err != nil {
		return nil, err
	}

	m := &convLSTM{base: base{name: "ConvLSTM", inputDim: cfg.InputDim, strLen: cfg.StrLen}}

	in := cfg.InputDim
	for i := 0; i < convLSTMConvs; i++ {
		m.convs = append(m.convs, operators.Conv1D(in, cfg.NFilters, cfg.FilterSize).Init(init), operators.ReLU())
		in = cfg.NFilters
	}

	for i := 0; i < convLSTMBlocks; i++ {
		m.blocks = append(m.blocks, operators.LSTM(in, cfg.HidDim, cfg.NLayers).Init(init))
		in = cfg.HidDim
	}

	m.head = chain{
		operators.Dropout(cfg.Dropout, rand.New(rand.NewSource(rng.Int63()))),
		operators.LastStep(),
		operators.Neurons(cfg.HidDim, cfg.Outputs()).Init(init),
	}

	operators.Initialize(rng, m.convs...)
	for _, b := range m.blocks {
		operators.Initialize(rng, b)
	}
	operators.Initialize(rng, m.head...)

	return m, nil
}

func (m *convLSTM) Predict(x *bs.Tensor) (*bs.Tensor, error) {
	if err := m.checkInput(x); err != nil {
		return nil, err
	}

	h, err := m.convs.forward(x, m.training())
	if err != nil {
		return nil, err
	}

	s := m.blocks[0].ZeroState(x.Batch())
	for i, b := range m.blocks {
		if h, s, err = b.ForwardState(h, s); err != nil {
			return nil, errors.Wrapf(err, "Forward through recurrent block %d failed", i)
		}
	}

	return m.head.forward(h, m.training())
}

func (m *convLSTM) Backward(dScores *bs.Tensor) error {
	d, err := m.head.backward(dScores)
	if err != nil {
		return err
	}

	// the final state of the last block is unused, so its derivative is zero
	var ds operators.State
	for i := len(m.blocks) - 1; i >= 0; i-- {
		if d, ds, err = m.blocks[i].BackwardState(d, ds); err != nil {
			return errors.Wrapf(err, "Backward through recurrent block %d failed", i)
		}
	}

	_, err = m.convs.backward(d)
	return err
}

func (m *convLSTM) Params() []*bs.Param {
	ps := m.convs.params()
	for _, b := range m.blocks {
		ps = append(ps, b.Params()...)
	}

	return append(ps, m.head.params()...)
}
