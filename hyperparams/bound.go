// Package hyperparams defines the search dimensions for hyperparameter optimization. Each dimension
// is a closed interval; an interval whose ends are equal is a single fixed point.
package hyperparams

import (
	"encoding/json"
	"fmt"
	"math"
	"math/rand"

	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"
)

// Bound is a closed interval [Low, High] of values for a single hyperparameter.
type Bound struct {
	Low, High float64
}

// Constant returns the degenerate Bound containing only the given value.
func Constant(value float64) Bound {
	return Bound{value, value}
}

// Range returns the Bound between the two values, in either order.
func Range(a, b float64) Bound {
	if a > b {
		a, b = b, a
	}

	return Bound{a, b}
}

func (b Bound) TypeString() string {
	if b.IsConstant() {
		return "constant"
	}

	return "range"
}

func (b Bound) String() string {
	if b.IsConstant() {
		return fmt.Sprint(b.Low)
	}

	return fmt.Sprintf("[%v, %v]", b.Low, b.High)
}

// IsConstant returns whether or not the Bound contains exactly one value.
func (b Bound) IsConstant() bool {
	return b.Low == b.High
}

// Width returns High - Low.
func (b Bound) Width() float64 {
	return b.High - b.Low
}

// Validate returns an error if either end is not finite, or if Low > High.
func (b Bound) Validate() error {
	for _, v := range []float64{b.Low, b.High} {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return errors.Errorf("Bound %v has a non-finite end", b)
		}
	}

	if b.Low > b.High {
		return errors.Errorf("Bound has lower end greater than upper (%v > %v)", b.Low, b.High)
	}

	return nil
}

// Contains returns whether or not v is within the Bound.
func (b Bound) Contains(v float64) bool {
	return v >= b.Low && v <= b.High
}

// Clip returns the value within the Bound nearest to v.
func (b Bound) Clip(v float64) float64 {
	return math.Min(math.Max(v, b.Low), b.High)
}

// Sample returns a uniformly random value within the Bound.
func (b Bound) Sample(rng *rand.Rand) float64 {
	if b.IsConstant() {
		return b.Low
	}

	return b.Low + rng.Float64()*b.Width()
}

// Normalize maps v from the Bound onto [0, 1]. Every value maps to 0 for a constant Bound.
func (b Bound) Normalize(v float64) float64 {
	if b.IsConstant() {
		return 0
	}

	return (v - b.Low) / b.Width()
}

// Denormalize is the inverse of Normalize.
func (b Bound) Denormalize(u float64) float64 {
	return b.Low + u*b.Width()
}

// UnmarshalYAML allows a Bound to be given either as a single number (a constant) or as a list of
// two numbers.
func (b *Bound) UnmarshalYAML(value *yaml.Node) error {
	switch value.Kind {
	case yaml.ScalarNode:
		var v float64
		if err := value.Decode(&v); err != nil {
			return errors.Wrapf(err, "Line %d: bound must be a number or a list of two", value.Line)
		}

		*b = Constant(v)
	case yaml.SequenceNode:
		var vs []float64
		if err := value.Decode(&vs); err != nil {
			return errors.Wrapf(err, "Line %d: bound must be a number or a list of two", value.Line)
		} else if len(vs) != 2 {
			return errors.Errorf("Line %d: bound list must have exactly two elements, has %d", value.Line, len(vs))
		}

		*b = Range(vs[0], vs[1])
	default:
		return errors.Errorf("Line %d: bound must be a number or a list of two", value.Line)
	}

	return b.Validate()
}

// MarshalYAML is the inverse of UnmarshalYAML.
func (b Bound) MarshalYAML() (interface{}, error) {
	if b.IsConstant() {
		return b.Low, nil
	}

	return []float64{b.Low, b.High}, nil
}

// MarshalJSON uses the same forms as MarshalYAML: a number for a constant, else a pair.
func (b Bound) MarshalJSON() ([]byte, error) {
	v, _ := b.MarshalYAML()
	return json.Marshal(v)
}

// UnmarshalJSON accepts either form given by MarshalJSON.
func (b *Bound) UnmarshalJSON(data []byte) error {
	var v float64
	if err := json.Unmarshal(data, &v); err == nil {
		*b = Constant(v)
		return nil
	}

	var vs []float64
	if err := json.Unmarshal(data, &vs); err != nil {
		return errors.Wrapf(err, "Bound must be a number or a list of two")
	} else if len(vs) != 2 {
		return errors.Errorf("Bound list must have exactly two elements, has %d", len(vs))
	}

	*b = Range(vs[0], vs[1])
	return nil
}
