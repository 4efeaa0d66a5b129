package operators

import (
	"fmt"
	"math/rand"

	"github.com/pkg/errors"
	bs "github.com/sharnoff/seqtune"
	"github.com/sharnoff/seqtune/utils"
	"gonum.org/v1/gonum/mat"
)

type conv1d struct {
	in, out, filter int

	init bs.Initializer

	// weights are stored by the output channel they correspond to, with the filter position as the
	// major index within each row and input channel as the minor: (out × filter*in)
	w *bs.Param
	b *bs.Param

	// cached by Forward
	inputDims []int
	cols      *mat.Dense
}

// Conv1D returns a one-dimensional convolution over the time axis of a (batch, time, in) Tensor,
// producing (batch, time-filter+1, out). There is no padding, and the stride is always 1.
//
// Conv1D will panic if any argument is less than one.
func Conv1D(in, out, filter int) *conv1d {
	if in < 1 || out < 1 || filter < 1 {
		panic(fmt.Sprintf("Conv1D: all sizes must be >= 1 (in %d, out %d, filter %d)", in, out, filter))
	}

	return &conv1d{
		in:     in,
		out:    out,
		filter: filter,
		w:      bs.NewParam("conv-weights", out, filter*in),
		b:      bs.NewParam("conv-biases", 1, out),
	}
}

// Init sets the Initializer for the weights of the convolution. The biases always use the default.
func (c *conv1d) Init(i bs.Initializer) *conv1d {
	c.init = i
	return c
}

func (c *conv1d) TypeString() string {
	return "conv1d"
}

func (c *conv1d) Initialize(rng *rand.Rand) {
	fanIn := c.filter * c.in
	initOr(c.init).Set(rng, fanIn, c.out, c.w.Weights())
	initOr(nil).Set(rng, fanIn, c.out, c.b.Weights())
}

func (c *conv1d) Params() []*bs.Param {
	return []*bs.Param{c.w, c.b}
}

// OutputLen returns the length of the time axis of the output, given the length of the input
func (c *conv1d) OutputLen(inputLen int) int {
	return inputLen - c.filter + 1
}

func (c *conv1d) Forward(x *bs.Tensor, training bool) (*bs.Tensor, error) {
	if err := x.CheckDims(c.TypeString(), -1, -1, c.in); err != nil {
		return nil, err
	}

	batch, steps := x.Dims[0], x.Dims[1]
	outSteps := c.OutputLen(steps)
	if outSteps < 1 {
		return nil, &bs.ConfigError{
			Field:  "filter_size",
			Value:  c.filter,
			Reason: fmt.Sprintf("Window of %d steps is too short to convolve", steps),
		}
	}

	// each row of cols is the window of inputs that produces one output step. Because inputs are
	// stored (time × in), each window is a contiguous run of values.
	width := c.filter * c.in
	c.cols = mat.NewDense(batch*outSteps, width, nil)
	err := utils.MultiThread(0, batch, func(b int) error {
		for t := 0; t < outSteps; t++ {
			start := (b*steps + t) * c.in
			copy(c.cols.RawRowView(b*outSteps+t), x.Values[start:start+width])
		}
		return nil
	}, opsPerThread, threadsPerCPU)
	if err != nil {
		return nil, err
	}

	y := bs.NewTensor(batch, outSteps, c.out)
	ym := view(y, batch*outSteps, c.out)
	ym.Mul(c.cols, c.w.W.T())
	addRow(ym, c.b.W)

	c.inputDims = x.Dims
	return y, nil
}

func (c *conv1d) Backward(dy *bs.Tensor) (*bs.Tensor, error) {
	if c.cols == nil {
		return nil, errors.Errorf("%s: Backward called before Forward", c.TypeString())
	}

	batch, steps := c.inputDims[0], c.inputDims[1]
	outSteps := c.OutputLen(steps)
	if err := dy.CheckDims(c.TypeString()+" backward", batch, outSteps, c.out); err != nil {
		return nil, err
	}

	dym := view(dy, batch*outSteps, c.out)

	var dw mat.Dense
	dw.Mul(dym.T(), c.cols)
	c.w.Grad.Add(c.w.Grad, &dw)
	addColSums(c.b.Grad, dym)

	var dcols mat.Dense
	dcols.Mul(dym, c.w.W)

	width := c.filter * c.in
	dx := bs.NewTensor(c.inputDims...)
	err := utils.MultiThread(0, batch, func(b int) error {
		for t := 0; t < outSteps; t++ {
			start := (b*steps + t) * c.in
			row := dcols.RawRowView(b*outSteps + t)
			for i := 0; i < width; i++ {
				dx.Values[start+i] += row[i]
			}
		}
		return nil
	}, opsPerThread, threadsPerCPU)

	return dx, err
}
