package initializers

import (
	bs "github.com/sharnoff/seqtune"
)

// default values, because 'default' is a keyword
const (
	defaultFactor   float64 = 1
	defaultTruncSDs float64 = 2
)

// Default returns the Initializer used by operators when none is given: uniform within
// ±1/√fanIn.
func Default() bs.Initializer {
	return FanIn()
}

// ByName returns the Initializer for the configured name:
//
//	"fan-in"  (or empty) uniform within ±1/√fanIn
//	"uniform" uniform within ±scale, or [-1, 1) if scale is zero
//	"he"      variance scaling by fan-in, factor 2
//	"xavier"  variance scaling by the average of fan-in and fan-out
//	"lecun"   variance scaling by fan-in, factor 1
//
// Anything else, or a negative scale, is a *seqtune.ConfigError.
func ByName(name string, scale float64) (bs.Initializer, error) {
	switch name {
	case "", "fan-in":
		return FanIn(), nil
	case "uniform":
		if scale < 0 {
			return nil, &bs.ConfigError{Field: "init_scale", Value: scale, Reason: "Must not be negative"}
		} else if scale == 0 {
			return Uniform(), nil
		}
		return Uniform().Range(-scale, scale), nil
	case "he":
		return He(), nil
	case "xavier":
		return Xavier(), nil
	case "lecun":
		return VarianceScaling().In(), nil
	}

	return nil, &bs.ConfigError{Field: "initializer", Value: name, Reason: "Must be one of: fan-in, uniform, he, xavier, lecun"}
}
