package models

import (
	"github.com/pkg/errors"
	bs "github.com/sharnoff/seqtune"
)

// chain runs a fixed sequence of Layers, each consuming the output of the last
type chain []bs.Layer

func (c chain) forward(x *bs.Tensor, training bool) (*bs.Tensor, error) {
	for _, l := range c {
		var err error
		if x, err = l.Forward(x, training); err != nil {
			return nil, errors.Wrapf(err, "Forward through %s failed", l.TypeString())
		}
	}

	return x, nil
}

func (c chain) backward(d *bs.Tensor) (*bs.Tensor, error) {
	for i := len(c) - 1; i >= 0; i-- {
		var err error
		if d, err = c[i].Backward(d); err != nil {
			return nil, errors.Wrapf(err, "Backward through %s failed", c[i].TypeString())
		}
	}

	return d, nil
}

func (c chain) params() []*bs.Param {
	var ps []*bs.Param
	for _, l := range c {
		ps = append(ps, l.Params()...)
	}

	return ps
}

// base holds what every Model has in common
type base struct {
	name     string
	mode     bs.Mode
	inputDim int
	strLen   int
}

func (b *base) TypeString() string {
	return b.name
}

func (b *base) SetMode(m bs.Mode) {
	b.mode = m
}

func (b *base) training() bool {
	return b.mode == bs.Training
}

func (b *base) checkInput(x *bs.Tensor) error {
	return x.CheckDims(b.name, -1, b.strLen, b.inputDim)
}

// returns the length of a window after n valid convolutions with the given filter size, or a
// *ConfigError if nothing would be left
func convolvedLen(strLen, filter, n int) (int, error) {
	l := strLen - n*(filter-1)
	if l < 1 {
		return 0, &bs.ConfigError{
			Field:  "str_len",
			Value:  strLen,
			Reason: "Window is too short for the convolutions of the model",
		}
	}

	return l, nil
}
