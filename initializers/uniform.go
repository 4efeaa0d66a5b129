package initializers

import (
	"math"
	"math/rand"
)

type uniform struct {
	lower, upper float64

	// if true, the bounds are ±1/√fanIn, not lower and upper
	fanIn bool
}

// Uniform returns an Initializer that draws from a uniform distribution within a range, which can
// be set by Range. Without a call to Range, the range is [-1, 1).
//
// The result of Uniform is a type that implements seqtune.Initializer.
func Uniform() *uniform {
	return &uniform{lower: -1, upper: 1}
}

// FanIn returns a uniform Initializer with bounds of ±1/√fanIn, recomputed for each set of weights.
// This is the usual initialization of linear, convolutional and recurrent layers.
func FanIn() *uniform {
	return &uniform{fanIn: true}
}

// Range sets the Range of a Uniform Initializer, returning the same Initializer
func (u *uniform) Range(lower, upper float64) *uniform {
	if lower > upper {
		lower, upper = upper, lower
	}

	u.lower = lower
	u.upper = upper
	u.fanIn = false
	return u
}

func (u *uniform) TypeString() string {
	return "uniform"
}

func (u *uniform) Set(rng *rand.Rand, fanIn, fanOut int, ws []float64) {
	lower, upper := u.lower, u.upper
	if u.fanIn {
		k := 1 / math.Sqrt(float64(max(fanIn, 1)))
		lower, upper = -k, k
	}

	for i := range ws {
		ws[i] = rng.Float64()*(upper-lower) + lower
	}
}
