package initializers

import (
	"math"
	"math/rand"
)

type varianceScaling struct {
	// either: "in", "avg"
	mode   string
	factor float64
	trunc  float64
}

const defaultVarianceMode string = "avg"

// VarianceScaling returns the variance scaling initializer, which has 2 modes and a user-defined
// scaling factor. The modes can be set by In and Avg. It defaults to Avg.
//
// Weights are drawn from a normal distribution truncated at two standard deviations.
func VarianceScaling() *varianceScaling {
	return &varianceScaling{defaultVarianceMode, defaultFactor, defaultTruncSDs}
}

// He is variance scaling by the number of inputs, with a factor of 2.
func He() *varianceScaling {
	return VarianceScaling().In().Factor(2)
}

// Xavier is variance scaling by the average of the number of inputs and outputs.
func Xavier() *varianceScaling {
	return VarianceScaling().Avg()
}

// Factor sets the scaling factor to be used for the Initializer. The default factor is 1.
func (v *varianceScaling) Factor(f float64) *varianceScaling {
	v.factor = f
	return v
}

// In sets the scaling to be based on the number of input values to the operator.
func (v *varianceScaling) In() *varianceScaling {
	v.mode = "in"
	return v
}

// Avg sets the scaling to be based on the average of the numbers of input and output values.
func (v *varianceScaling) Avg() *varianceScaling {
	v.mode = "avg"
	return v
}

func (v *varianceScaling) TypeString() string {
	return "variance-scaling-" + v.mode
}

// Set is the implementation of seqtune.Initializer
func (v *varianceScaling) Set(rng *rand.Rand, fanIn, fanOut int, ws []float64) {
	var scale float64
	if v.mode == "in" {
		scale = float64(fanIn)
	} else { // must be "avg"
		scale = float64(fanIn+fanOut) / 2
	}

	sd := math.Sqrt(v.factor / math.Max(scale, 1))

	for i := range ws {
		x := rng.NormFloat64()
		for x < -v.trunc || x > v.trunc {
			x = rng.NormFloat64()
		}

		ws[i] = x * sd
	}
}
