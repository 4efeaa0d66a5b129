package operators

import (
	"math"

	"github.com/pkg/errors"
	bs "github.com/sharnoff/seqtune"
)

// ****************************************
// ReLU
// ****************************************

type relu struct {
	input *bs.Tensor
}

// ReLU returns the standard rectified linear unit. It accepts a Tensor of any dimensions.
func ReLU() *relu {
	return &relu{}
}

func (r *relu) TypeString() string {
	return "relu"
}

func (r *relu) Params() []*bs.Param {
	return nil
}

func (r *relu) Forward(x *bs.Tensor, training bool) (*bs.Tensor, error) {
	r.input = x

	y := bs.ZerosLike(x)
	for i, v := range x.Values {
		y.Values[i] = math.Max(v, 0)
	}

	return y, nil
}

func (r *relu) Backward(dy *bs.Tensor) (*bs.Tensor, error) {
	if r.input == nil {
		return nil, errors.Errorf("%s: Backward called before Forward", r.TypeString())
	} else if !dy.SameDims(r.input) {
		return nil, &bs.ShapeError{Op: r.TypeString() + " backward", Expected: r.input.Dims, Actual: dy.Dims}
	}

	dx := bs.ZerosLike(dy)
	for i, v := range r.input.Values {
		if v > 0 {
			dx.Values[i] = dy.Values[i]
		}
	}

	return dx, nil
}

// ****************************************
// Leaky ReLU
// ****************************************

type lrelu struct {
	alpha float64
	input *bs.Tensor
}

// LeakyReLU returns a standard 'leaky ReLU', where the leaky factor is given by alpha.
func LeakyReLU(alpha float64) *lrelu {
	return &lrelu{alpha: alpha}
}

func (r *lrelu) TypeString() string {
	return "leaky-relu"
}

func (r *lrelu) Params() []*bs.Param {
	return nil
}

func (r *lrelu) Forward(x *bs.Tensor, training bool) (*bs.Tensor, error) {
	r.input = x

	y := bs.ZerosLike(x)
	for i, v := range x.Values {
		if v < 0 {
			v *= r.alpha
		}
		y.Values[i] = v
	}

	return y, nil
}

func (r *lrelu) Backward(dy *bs.Tensor) (*bs.Tensor, error) {
	if r.input == nil {
		return nil, errors.Errorf("%s: Backward called before Forward", r.TypeString())
	} else if !dy.SameDims(r.input) {
		return nil, &bs.ShapeError{Op: r.TypeString() + " backward", Expected: r.input.Dims, Actual: dy.Dims}
	}

	dx := bs.ZerosLike(dy)
	for i, v := range r.input.Values {
		if v < 0 {
			dx.Values[i] = r.alpha * dy.Values[i]
		} else {
			dx.Values[i] = dy.Values[i]
		}
	}

	return dx, nil
}
