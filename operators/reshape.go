package operators

import (
	"github.com/pkg/errors"
	bs "github.com/sharnoff/seqtune"
)

// ****************************************
// LastStep
// ****************************************

type lastStep struct {
	inputDims []int
}

// LastStep returns a Layer that selects the final time step of a (batch, time, features) Tensor,
// giving (batch, features).
func LastStep() *lastStep {
	return &lastStep{}
}

func (l *lastStep) TypeString() string {
	return "last-step"
}

func (l *lastStep) Params() []*bs.Param {
	return nil
}

func (l *lastStep) Forward(x *bs.Tensor, training bool) (*bs.Tensor, error) {
	if len(x.Dims) != 3 {
		return nil, &bs.ShapeError{Op: l.TypeString(), Expected: []int{-1, -1, -1}, Actual: x.Dims}
	}

	batch, steps, feats := x.Dims[0], x.Dims[1], x.Dims[2]
	y := bs.NewTensor(batch, feats)
	for b := 0; b < batch; b++ {
		start := x.Index(b, steps-1, 0)
		copy(y.Values[b*feats:(b+1)*feats], x.Values[start:start+feats])
	}

	l.inputDims = x.Dims
	return y, nil
}

func (l *lastStep) Backward(dy *bs.Tensor) (*bs.Tensor, error) {
	if l.inputDims == nil {
		return nil, errors.Errorf("%s: Backward called before Forward", l.TypeString())
	}

	batch, steps, feats := l.inputDims[0], l.inputDims[1], l.inputDims[2]
	if err := dy.CheckDims(l.TypeString()+" backward", batch, feats); err != nil {
		return nil, err
	}

	dx := bs.NewTensor(l.inputDims...)
	for b := 0; b < batch; b++ {
		start := dx.Index(b, steps-1, 0)
		copy(dx.Values[start:start+feats], dy.Values[b*feats:(b+1)*feats])
	}

	return dx, nil
}

// ****************************************
// Flatten
// ****************************************

type flatten struct {
	inputDims []int
}

// Flatten returns a Layer that collapses every dimension after the first, so that (batch, ...)
// becomes (batch, size/batch).
func Flatten() *flatten {
	return &flatten{}
}

func (f *flatten) TypeString() string {
	return "flatten"
}

func (f *flatten) Params() []*bs.Param {
	return nil
}

func (f *flatten) Forward(x *bs.Tensor, training bool) (*bs.Tensor, error) {
	f.inputDims = x.Dims

	y := x.Copy()
	y.Dims = []int{x.Dims[0], x.Size() / x.Dims[0]}
	return y, nil
}

func (f *flatten) Backward(dy *bs.Tensor) (*bs.Tensor, error) {
	if f.inputDims == nil {
		return nil, errors.Errorf("%s: Backward called before Forward", f.TypeString())
	}

	width := 1
	for _, d := range f.inputDims[1:] {
		width *= d
	}

	if err := dy.CheckDims(f.TypeString()+" backward", f.inputDims[0], width); err != nil {
		return nil, err
	}

	dx := dy.Copy()
	dx.Dims = f.inputDims
	return dx, nil
}
