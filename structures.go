package seqtune

import (
	"gonum.org/v1/gonum/mat"
)

// Tensor is the container for all values passed between Layers. Values are stored row-major: the
// last dimension varies fastest. Sequences are batch-first, with dimensions (batch, time,
// features).
type Tensor struct {
	Dims   []int
	Values []float64
}

// NewTensor returns a zeroed Tensor with the given dimensions. NewTensor will panic if any
// dimension is less than one.
func NewTensor(dims ...int) *Tensor {
	size := 1
	for _, d := range dims {
		if d < 1 {
			panic("Tensor dimensions must be >= 1")
		}
		size *= d
	}

	d := make([]int, len(dims))
	copy(d, dims)
	return &Tensor{Dims: d, Values: make([]float64, size)}
}

// Size returns the total number of values in the Tensor.
func (t *Tensor) Size() int {
	return len(t.Values)
}

// Index returns the position in Values of the given point. It does not check bounds.
func (t *Tensor) Index(point ...int) int {
	index := 0
	for i, p := range point {
		index = index*t.Dims[i] + p
	}

	return index
}

// At returns the value at the given point.
func (t *Tensor) At(point ...int) float64 {
	return t.Values[t.Index(point...)]
}

// Set sets the value at the given point.
func (t *Tensor) Set(v float64, point ...int) {
	t.Values[t.Index(point...)] = v
}

// Batch returns the first dimension of the Tensor.
func (t *Tensor) Batch() int {
	return t.Dims[0]
}

// Example returns a view of the b'th entry along the first dimension as a matrix. For a Tensor
// with dimensions (batch, time, features), this is a (time × features) matrix; for (batch,
// features), a (1 × features) matrix. Changes to the matrix change the Tensor.
func (t *Tensor) Example(b int) *mat.Dense {
	rows, cols := 1, 1
	switch len(t.Dims) {
	case 2:
		cols = t.Dims[1]
	case 3:
		rows, cols = t.Dims[1], t.Dims[2]
	default:
		panic("Example requires a 2- or 3-dimensional Tensor")
	}

	n := rows * cols
	return mat.NewDense(rows, cols, t.Values[b*n:(b+1)*n])
}

// Matrix returns a view of a 2-dimensional Tensor as a matrix.
func (t *Tensor) Matrix() *mat.Dense {
	if len(t.Dims) != 2 {
		panic("Matrix requires a 2-dimensional Tensor")
	}

	return mat.NewDense(t.Dims[0], t.Dims[1], t.Values)
}

// FromMatrix copies the contents of m into a new 2-dimensional Tensor.
func FromMatrix(m mat.Matrix) *Tensor {
	r, c := m.Dims()
	t := NewTensor(r, c)
	t.Matrix().Copy(m)
	return t
}

// Copy returns a deep copy of the Tensor.
func (t *Tensor) Copy() *Tensor {
	c := NewTensor(t.Dims...)
	copy(c.Values, t.Values)
	return c
}

// ZerosLike returns a zeroed Tensor with the same dimensions as t.
func ZerosLike(t *Tensor) *Tensor {
	return NewTensor(t.Dims...)
}

// Squeeze returns a Tensor sharing the same values, with all dimensions of size one removed. If
// every dimension has size one, a single dimension is kept.
func (t *Tensor) Squeeze() *Tensor {
	var dims []int
	for _, d := range t.Dims {
		if d != 1 {
			dims = append(dims, d)
		}
	}

	if len(dims) == 0 {
		dims = []int{1}
	}

	return &Tensor{Dims: dims, Values: t.Values}
}

// SameDims returns whether or not both Tensors have identical dimensions.
func (t *Tensor) SameDims(o *Tensor) bool {
	return sameDims(t.Dims, o.Dims)
}

func sameDims(a, b []int) bool {
	if len(a) != len(b) {
		return false
	}

	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}

	return true
}

// CheckDims returns a *ShapeError if the dimensions of t are not equal to expected. A negative
// expected dimension matches any size.
func (t *Tensor) CheckDims(op string, expected ...int) error {
	ok := len(expected) == len(t.Dims)
	for i := 0; ok && i < len(expected); i++ {
		if expected[i] >= 0 && expected[i] != t.Dims[i] {
			ok = false
		}
	}

	if !ok {
		return &ShapeError{Op: op, Expected: expected, Actual: t.Dims}
	}

	return nil
}

// Param is a single set of learnable weights, along with the accumulated gradient of the cost with
// respect to each of them.
type Param struct {
	// Name is only used for printing and may be empty.
	Name string

	W    *mat.Dense
	Grad *mat.Dense
}

// NewParam returns a Param with zeroed weights and gradient of the given shape.
func NewParam(name string, rows, cols int) *Param {
	return &Param{
		Name: name,
		W:    mat.NewDense(rows, cols, nil),
		Grad: mat.NewDense(rows, cols, nil),
	}
}

// Size returns the number of weights in the Param.
func (p *Param) Size() int {
	r, c := p.W.Dims()
	return r * c
}

// ZeroGrad resets the accumulated gradient.
func (p *Param) ZeroGrad() {
	p.Grad.Zero()
}

// Weights returns the underlying slice of weights. Changes to the slice change the Param.
func (p *Param) Weights() []float64 {
	return p.W.RawMatrix().Data
}

// Gradients returns the underlying slice of the gradient.
func (p *Param) Gradients() []float64 {
	return p.Grad.RawMatrix().Data
}
