// Package costfuncs provides the CostFunctions that models are trained against. Each is registered
// under its TypeString, so it can be selected by name with seqtune.GetCostFunction.
package costfuncs

import (
	"fmt"

	bs "github.com/sharnoff/seqtune"
)

func init() {
	list := map[string]func() bs.CostFunction{
		CrossEntropy().TypeString(): func() bs.CostFunction { return CrossEntropy() },
		MSE().TypeString():          func() bs.CostFunction { return MSE() },
	}

	for s, f := range list {
		err := bs.RegisterCostFunction(s, f)
		if err != nil {
			panic(err.Error())
		}
	}
}

// returns the number of classes, or a *ShapeError if the scores and labels do not line up
func checkLabels(op string, scores *bs.Tensor, labels []int) (int, error) {
	if len(labels) == 0 {
		return 0, &bs.ShapeError{Op: op, Expected: []int{-1, -1}, Actual: scores.Dims}
	} else if err := scores.CheckDims(op, len(labels), -1); err != nil {
		return 0, err
	}

	classes := scores.Dims[1]
	for _, l := range labels {
		if l < 0 || l >= classes {
			return 0, &bs.ShapeError{
				Op:       fmt.Sprintf("%s (label %d)", op, l),
				Expected: []int{len(labels), l + 1},
				Actual:   scores.Dims,
			}
		}
	}

	return classes, nil
}
