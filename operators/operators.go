// Package operators provides the Layers that the models are built from. Each Layer owns its
// weights and caches what it needs for the following call to Backward; nothing is shared between
// Layers.
//
// Layers with weights are constructed with zeroed Params and must be given their starting values
// with Initialize before use.
package operators

import (
	"math"
	"math/rand"

	bs "github.com/sharnoff/seqtune"
	"github.com/sharnoff/seqtune/initializers"
	"gonum.org/v1/gonum/mat"
)

// Initializable is implemented by every Layer that has weights.
type Initializable interface {
	// Initialize sets the starting value of every weight, drawing randomness only from rng.
	Initialize(rng *rand.Rand)
}

// Initialize calls Initialize on every given Layer that implements Initializable, in order.
func Initialize(rng *rand.Rand, layers ...bs.Layer) {
	for _, l := range layers {
		if i, ok := l.(Initializable); ok {
			i.Initialize(rng)
		}
	}
}

// the number of examples handed to each goroutine by per-example loops
const opsPerThread, threadsPerCPU int = 1, 1

func initOr(i bs.Initializer) bs.Initializer {
	if i == nil {
		return initializers.Default()
	}

	return i
}

func logistic(x float64) float64 {
	return 1 / (1 + math.Exp(-x))
}

// adds the row vector b to every row of m
func addRow(m *mat.Dense, b *mat.Dense) {
	r, c := m.Dims()
	bias := b.RawRowView(0)
	for y := 0; y < r; y++ {
		row := m.RawRowView(y)
		for x := 0; x < c; x++ {
			row[x] += bias[x]
		}
	}
}

// adds the sum of every row of m to the row vector dst
func addColSums(dst *mat.Dense, m *mat.Dense) {
	r, c := m.Dims()
	sums := dst.RawRowView(0)
	for y := 0; y < r; y++ {
		row := m.RawRowView(y)
		for x := 0; x < c; x++ {
			sums[x] += row[x]
		}
	}
}

// returns a (rows × cols) matrix view of the Tensor's values
func view(t *bs.Tensor, rows, cols int) *mat.Dense {
	return mat.NewDense(rows, cols, t.Values)
}
