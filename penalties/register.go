package penalties

import (
	bs "github.com/sharnoff/seqtune"
)

// New returns the Penalty with the given name: "l1", "l2" or "elastic-net". An empty name or
// "none" gives a nil Penalty. Invalid values give a *seqtune.ConfigError.
func New(name string, λ, α float64) (bs.Penalty, error) {
	switch name {
	case "", "none":
		return nil, nil
	case "l1", "l2", "elastic-net":
	default:
		return nil, &bs.ConfigError{Field: "penalty", Value: name, Reason: "Must be one of: none, l1, l2, elastic-net"}
	}

	if !(λ > 0) {
		return nil, &bs.ConfigError{Field: "penalty_lambda", Value: λ, Reason: "Must be positive"}
	}

	switch name {
	case "l1":
		return L1(λ), nil
	case "l2":
		return L2(λ), nil
	}

	if !(α >= 0 && α <= 1) {
		return nil, &bs.ConfigError{Field: "penalty_alpha", Value: α, Reason: "Must be within [0, 1]"}
	}
	return ElasticNet(α, λ), nil
}
