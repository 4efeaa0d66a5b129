package dataset

import (
	"math/rand"

	"github.com/pkg/errors"
	bs "github.com/sharnoff/seqtune"
)

// Loader collates the examples of a Supplier into batches. The final batch is dropped if it would
// be smaller than the rest.
type Loader struct {
	data      Supplier
	batchSize int
	order     []int
}

// NewLoader returns a Loader over the Supplier. If rng is nil, examples are given in order;
// otherwise they are shuffled once, at construction.
func NewLoader(data Supplier, batchSize int, rng *rand.Rand) (*Loader, error) {
	if batchSize < 1 {
		return nil, &bs.ConfigError{Field: "batch_size", Value: batchSize, Reason: "Must be at least 1"}
	}

	var order []int
	if rng != nil {
		order = rng.Perm(data.Len())
	} else {
		order = make([]int, data.Len())
		for i := range order {
			order[i] = i
		}
	}

	return &Loader{data: data, batchSize: batchSize, order: order}, nil
}

// BatchSize returns the number of examples in each batch.
func (l *Loader) BatchSize() int {
	return l.batchSize
}

// NumBatches returns the number of full batches.
func (l *Loader) NumBatches() int {
	return len(l.order) / l.batchSize
}

// Batch returns the inputs of the b'th batch as a (batch, window, features) Tensor, along with the
// label of each example.
func (l *Loader) Batch(b int) (*bs.Tensor, []int, error) {
	if b < 0 || b >= l.NumBatches() {
		return nil, nil, errors.Errorf("Batch index %d out of range [0, %d)", b, l.NumBatches())
	}

	x := bs.NewTensor(l.batchSize, l.data.WindowLen(), l.data.InputDim())
	labels := make([]int, l.batchSize)
	width := l.data.WindowLen() * l.data.InputDim()

	for i := 0; i < l.batchSize; i++ {
		d, err := l.data.Get(l.order[b*l.batchSize+i])
		if err != nil {
			return nil, nil, err
		} else if len(d.Inputs) != width {
			return nil, nil, &bs.ShapeError{
				Op:       "collate",
				Expected: []int{l.data.WindowLen(), l.data.InputDim()},
				Actual:   []int{len(d.Inputs)},
			}
		}

		copy(x.Values[i*width:], d.Inputs)
		labels[i] = d.Label()
	}

	return x, labels, nil
}
