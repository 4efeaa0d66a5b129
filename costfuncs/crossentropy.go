package costfuncs

import (
	"math"

	bs "github.com/sharnoff/seqtune"
)

type crossEntropy int8

// CrossEntropy returns softmax cross-entropy, which implements seqtune.CostFunction. Scores are
// unnormalized; the softmax is applied internally.
func CrossEntropy() crossEntropy {
	return crossEntropy(0)
}

// NegativeLog is a proxy for CrossEntropy
func NegativeLog() crossEntropy {
	return CrossEntropy()
}

func (c crossEntropy) TypeString() string {
	return "cross-entropy"
}

func (c crossEntropy) Cost(scores *bs.Tensor, labels []int) (float64, *bs.Tensor, error) {
	classes, err := checkLabels(c.TypeString(), scores, labels)
	if err != nil {
		return 0, nil, err
	}

	n := float64(len(labels))
	ds := bs.ZerosLike(scores)

	var sum float64
	for b, l := range labels {
		row := scores.Values[b*classes : (b+1)*classes]
		grad := ds.Values[b*classes : (b+1)*classes]

		// shift by the max for stability
		max := row[bs.Argmax(row)]
		var total float64
		for i, v := range row {
			grad[i] = math.Exp(v - max)
			total += grad[i]
		}

		sum += math.Log(total) + max - row[l]

		for i := range grad {
			grad[i] /= total * n
		}
		grad[l] -= 1 / n
	}

	return sum / n, ds, nil
}
