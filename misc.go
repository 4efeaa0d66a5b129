package seqtune

import (
	"encoding/binary"
	"math"

	"github.com/dgryski/go-spooky"
)

// Argmax returns the index of the largest value. Ties resolve to the lowest index.
func Argmax(values []float64) int {
	best := 0
	for i := 1; i < len(values); i++ {
		if values[i] > values[best] {
			best = i
		}
	}

	return best
}

// CorrectHighest returns the number of rows of scores whose highest value is at the index given by
// the corresponding label. A mismatch between the number of rows and labels is a *ShapeError.
func CorrectHighest(scores *Tensor, labels []int) (int, error) {
	if err := scores.CheckDims("top-1 accuracy", len(labels), -1); err != nil {
		return 0, err
	}

	classes := scores.Dims[1]
	correct := 0
	for b, l := range labels {
		if Argmax(scores.Values[b*classes:(b+1)*classes]) == l {
			correct++
		}
	}

	return correct, nil
}

// RoundBatch rounds a real-valued batch size (as proposed by a hyperparameter search) to the
// nearest integer, with halves rounded away from zero.
func RoundBatch(size float64) int {
	return int(math.Round(size))
}

// Checksum returns a hash over every weight of the given Params. It changes if and only if (with
// overwhelming probability) any weight changes.
func Checksum(params []*Param) uint64 {
	var size int
	for _, p := range params {
		size += p.Size()
	}

	buf := make([]byte, 8*size)
	i := 0
	for _, p := range params {
		r, c := p.W.Dims()
		for y := 0; y < r; y++ {
			for x := 0; x < c; x++ {
				binary.LittleEndian.PutUint64(buf[i:], math.Float64bits(p.W.At(y, x)))
				i += 8
			}
		}
	}

	return spooky.Hash64(buf)
}

// NumWeights returns the total number of weights in the given Params.
func NumWeights(params []*Param) int {
	n := 0
	for _, p := range params {
		n += p.Size()
	}

	return n
}

// ZeroGrads resets the gradient of every given Param.
func ZeroGrads(params []*Param) {
	for _, p := range params {
		p.ZeroGrad()
	}
}
