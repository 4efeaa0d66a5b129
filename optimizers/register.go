// Package optimizers provides the Optimizers that adjust model weights from their gradients. Each
// is registered by name for seqtune.GetOptimizer; Adam is the default.
package optimizers

import (
	"math"

	"github.com/pkg/errors"
	bs "github.com/sharnoff/seqtune"
)

// default values, because 'default' is a keyword
var defaultValue map[string]float64

func init() {
	defaultValue = map[string]float64{
		"adam-beta1":   0.9,
		"adam-beta2":   0.999,
		"adam-epsilon": 1e-8,
	}

	list := map[string]func() bs.Optimizer{
		"adam": func() bs.Optimizer { return Adam() },
		"sgd":  func() bs.Optimizer { return GradientDescent() },
	}

	for s, f := range list {
		err := bs.RegisterOptimizer(s, f)
		if err != nil {
			panic(err.Error())
		}
	}

	bs.SetDefaultOptimizer(func() bs.Optimizer { return Adam() })
}

// SetDefault sets the default values used by Optimizers constructed afterwards. The values that
// can be set are: "adam-beta1", "adam-beta2", and "adam-epsilon".
func SetDefault(name string, value float64) error {
	if _, ok := defaultValue[name]; !ok {
		return errors.Errorf("Value with name %q does not exist", name)
	} else if math.IsNaN(value) || math.IsInf(value, 0) {
		return errors.Errorf("Value is invalid (%v)", value)
	}

	defaultValue[name] = value
	return nil
}
