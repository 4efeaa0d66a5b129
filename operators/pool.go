package operators

import (
	"fmt"

	"github.com/pkg/errors"
	bs "github.com/sharnoff/seqtune"
	"github.com/sharnoff/seqtune/utils"
)

type maxPool struct {
	size int

	// for each output, the index of the input value that was largest
	argmax    []int
	inputDims []int
}

// MaxPool1D returns a Layer that takes the maximum over non-overlapping windows of the time axis,
// from (batch, time, features) to (batch, time/size, features). Any trailing steps that do not fill
// a window are discarded.
//
// MaxPool1D will panic if size is less than one.
func MaxPool1D(size int) *maxPool {
	if size < 1 {
		panic(fmt.Sprintf("MaxPool1D: size must be >= 1, got %d", size))
	}

	return &maxPool{size: size}
}

func (p *maxPool) TypeString() string {
	return "max-pool"
}

func (p *maxPool) Params() []*bs.Param {
	return nil
}

// OutputLen returns the length of the time axis of the output, given the length of the input
func (p *maxPool) OutputLen(inputLen int) int {
	return inputLen / p.size
}

func (p *maxPool) Forward(x *bs.Tensor, training bool) (*bs.Tensor, error) {
	if len(x.Dims) != 3 {
		return nil, &bs.ShapeError{Op: p.TypeString(), Expected: []int{-1, -1, -1}, Actual: x.Dims}
	}

	batch, steps, feats := x.Dims[0], x.Dims[1], x.Dims[2]
	outSteps := p.OutputLen(steps)
	if outSteps < 1 {
		return nil, &bs.ConfigError{
			Field:  "pool",
			Value:  p.size,
			Reason: fmt.Sprintf("Window of %d steps is too short to pool", steps),
		}
	}

	y := bs.NewTensor(batch, outSteps, feats)
	p.argmax = make([]int, y.Size())

	err := utils.MultiThread(0, batch, func(b int) error {
		for t := 0; t < outSteps; t++ {
			for f := 0; f < feats; f++ {
				best := x.Index(b, t*p.size, f)
				for k := 1; k < p.size; k++ {
					if i := x.Index(b, t*p.size+k, f); x.Values[i] > x.Values[best] {
						best = i
					}
				}

				out := y.Index(b, t, f)
				y.Values[out] = x.Values[best]
				p.argmax[out] = best
			}
		}
		return nil
	}, opsPerThread, threadsPerCPU)
	if err != nil {
		return nil, err
	}

	p.inputDims = x.Dims
	return y, nil
}

func (p *maxPool) Backward(dy *bs.Tensor) (*bs.Tensor, error) {
	if p.inputDims == nil {
		return nil, errors.Errorf("%s: Backward called before Forward", p.TypeString())
	} else if dy.Size() != len(p.argmax) {
		return nil, &bs.ShapeError{Op: p.TypeString() + " backward", Expected: []int{len(p.argmax)}, Actual: dy.Dims}
	}

	// windows don't overlap, so each input receives from at most one output
	dx := bs.NewTensor(p.inputDims...)
	for out, in := range p.argmax {
		dx.Values[in] = dy.Values[out]
	}

	return dx, nil
}
