package bayesopt

import (
	"gonum.org/v1/gonum/stat/distuv"
)

// Acquisition scores a candidate point from the posterior mean and standard deviation there, and
// the best value observed so far. Larger scores are more worth probing.
type Acquisition interface {
	TypeString() string
	Score(mean, std, best float64) float64
}

type expectedImprovement float64

// ExpectedImprovement returns the expected amount by which a candidate improves upon the best
// value, less xi. Larger values of xi favor exploration.
func ExpectedImprovement(xi float64) expectedImprovement {
	return expectedImprovement(xi)
}

func (e expectedImprovement) TypeString() string {
	return "ei"
}

func (e expectedImprovement) Score(mean, std, best float64) float64 {
	diff := mean - best - float64(e)
	if std == 0 {
		if diff > 0 {
			return diff
		}
		return 0
	}

	z := diff / std
	return diff*distuv.UnitNormal.CDF(z) + std*distuv.UnitNormal.Prob(z)
}

type upperConfidenceBound float64

// UpperConfidenceBound returns the optimistic estimate mean + kappa·std.
func UpperConfidenceBound(kappa float64) upperConfidenceBound {
	return upperConfidenceBound(kappa)
}

func (u upperConfidenceBound) TypeString() string {
	return "ucb"
}

func (u upperConfidenceBound) Score(mean, std, best float64) float64 {
	return mean + float64(u)*std
}

type probabilityOfImprovement float64

// ProbabilityOfImprovement returns the probability that a candidate exceeds the best value by at
// least xi.
func ProbabilityOfImprovement(xi float64) probabilityOfImprovement {
	return probabilityOfImprovement(xi)
}

func (p probabilityOfImprovement) TypeString() string {
	return "poi"
}

func (p probabilityOfImprovement) Score(mean, std, best float64) float64 {
	diff := mean - best - float64(p)
	if std == 0 {
		if diff > 0 {
			return 1
		}
		return 0
	}

	return distuv.UnitNormal.CDF(diff / std)
}

// AcquisitionByName returns the Acquisition for the short name "ei", "ucb" or "poi". xi is used by
// "ei" and "poi"; kappa by "ucb".
func AcquisitionByName(name string, xi, kappa float64) (Acquisition, bool) {
	switch name {
	case "ei":
		return ExpectedImprovement(xi), true
	case "ucb":
		return UpperConfidenceBound(kappa), true
	case "poi":
		return ProbabilityOfImprovement(xi), true
	}

	return nil, false
}
