package costfuncs

import (
	bs "github.com/sharnoff/seqtune"
)

type mse int8

// MSE returns the mean squared error between the scores and a one-hot encoding of each label,
// which implements seqtune.CostFunction.
func MSE() mse {
	return mse(0)
}

// L2 is a proxy for MSE
func L2() mse {
	return MSE()
}

func (m mse) TypeString() string {
	return "mse"
}

func (m mse) Cost(scores *bs.Tensor, labels []int) (float64, *bs.Tensor, error) {
	classes, err := checkLabels(m.TypeString(), scores, labels)
	if err != nil {
		return 0, nil, err
	}

	n := float64(len(labels))
	ds := bs.ZerosLike(scores)

	var sum float64
	for b, l := range labels {
		for i := 0; i < classes; i++ {
			diff := scores.Values[b*classes+i]
			if i == l {
				diff -= 1
			}

			sum += 0.5 * diff * diff
			ds.Values[b*classes+i] = diff / n
		}
	}

	return sum / n, ds, nil
}
