package operators

import (
	"fmt"
	"math/rand"

	"github.com/pkg/errors"
	bs "github.com/sharnoff/seqtune"
)

type dropout struct {
	p   float64
	rng *rand.Rand

	// scale applied to each value by the most recent Forward: 0 for dropped values, 1/(1-p) for
	// kept ones. nil if the last Forward was not training.
	mask []float64
	dims []int
}

// Dropout returns a Layer that, while training, zeroes each value with probability p and scales the
// rest by 1/(1-p). Outside of training it is the identity.
//
// Dropout will panic if p is not within [0, 1).
func Dropout(p float64, rng *rand.Rand) *dropout {
	if p < 0 || p >= 1 {
		panic(fmt.Sprintf("Dropout: probability must be within [0, 1), got %v", p))
	}

	return &dropout{p: p, rng: rng}
}

func (d *dropout) TypeString() string {
	return "dropout"
}

func (d *dropout) Params() []*bs.Param {
	return nil
}

func (d *dropout) Forward(x *bs.Tensor, training bool) (*bs.Tensor, error) {
	d.dims = x.Dims
	if !training || d.p == 0 {
		d.mask = nil
		return x.Copy(), nil
	}

	scale := 1 / (1 - d.p)
	d.mask = make([]float64, x.Size())

	y := bs.ZerosLike(x)
	for i, v := range x.Values {
		if d.rng.Float64() >= d.p {
			d.mask[i] = scale
			y.Values[i] = v * scale
		}
	}

	return y, nil
}

func (d *dropout) Backward(dy *bs.Tensor) (*bs.Tensor, error) {
	if d.dims == nil {
		return nil, errors.Errorf("%s: Backward called before Forward", d.TypeString())
	} else if err := dy.CheckDims(d.TypeString()+" backward", d.dims...); err != nil {
		return nil, err
	}

	if d.mask == nil {
		return dy.Copy(), nil
	}

	dx := bs.ZerosLike(dy)
	for i, m := range d.mask {
		dx.Values[i] = dy.Values[i] * m
	}

	return dx, nil
}
