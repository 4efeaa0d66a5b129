package operators

import (
	"fmt"
	"math/rand"

	"github.com/pkg/errors"
	bs "github.com/sharnoff/seqtune"
	"gonum.org/v1/gonum/mat"
)

type neurons struct {
	in, out int

	init bs.Initializer

	w *bs.Param // (out × in)
	b *bs.Param // (1 × out)

	input *mat.Dense
}

// Neurons returns a fully-connected affine Layer from (batch, in) to (batch, out).
//
// Neurons will panic if either size is less than one.
func Neurons(in, out int) *neurons {
	if in < 1 || out < 1 {
		panic(fmt.Sprintf("Neurons: all sizes must be >= 1 (in %d, out %d)", in, out))
	}

	return &neurons{
		in:  in,
		out: out,
		w:   bs.NewParam("neurons-weights", out, in),
		b:   bs.NewParam("neurons-biases", 1, out),
	}
}

// Init sets the Initializer for the weights. The biases always use the default.
func (n *neurons) Init(i bs.Initializer) *neurons {
	n.init = i
	return n
}

func (n *neurons) TypeString() string {
	return "neurons"
}

func (n *neurons) Initialize(rng *rand.Rand) {
	initOr(n.init).Set(rng, n.in, n.out, n.w.Weights())
	initOr(nil).Set(rng, n.in, n.out, n.b.Weights())
}

func (n *neurons) Params() []*bs.Param {
	return []*bs.Param{n.w, n.b}
}

func (n *neurons) Forward(x *bs.Tensor, training bool) (*bs.Tensor, error) {
	if err := x.CheckDims(n.TypeString(), -1, n.in); err != nil {
		return nil, err
	}

	n.input = mat.DenseCopyOf(x.Matrix())

	y := bs.NewTensor(x.Dims[0], n.out)
	ym := y.Matrix()
	ym.Mul(n.input, n.w.W.T())
	addRow(ym, n.b.W)

	return y, nil
}

func (n *neurons) Backward(dy *bs.Tensor) (*bs.Tensor, error) {
	if n.input == nil {
		return nil, errors.Errorf("%s: Backward called before Forward", n.TypeString())
	}

	batch, _ := n.input.Dims()
	if err := dy.CheckDims(n.TypeString()+" backward", batch, n.out); err != nil {
		return nil, err
	}

	dym := dy.Matrix()

	var dw mat.Dense
	dw.Mul(dym.T(), n.input)
	n.w.Grad.Add(n.w.Grad, &dw)
	addColSums(n.b.Grad, dym)

	dx := bs.NewTensor(batch, n.in)
	dx.Matrix().Mul(dym, n.w.W)
	return dx, nil
}
