package hyperparams

import (
	"math/rand"
	"sort"

	"github.com/pkg/errors"
)

// Space is a set of named Bounds, kept in a fixed (sorted) order so that points can be represented
// as vectors.
type Space struct {
	names  []string
	bounds []Bound
}

// NewSpace returns the Space for the given Bounds. It returns an error if there are none, or if
// any is invalid.
func NewSpace(bounds map[string]Bound) (*Space, error) {
	if len(bounds) == 0 {
		return nil, errors.New("Space must have at least one dimension")
	}

	s := &Space{names: make([]string, 0, len(bounds))}
	for n := range bounds {
		s.names = append(s.names, n)
	}
	sort.Strings(s.names)

	s.bounds = make([]Bound, len(s.names))
	for i, n := range s.names {
		if err := bounds[n].Validate(); err != nil {
			return nil, errors.Wrapf(err, "Invalid bound for %q", n)
		}
		s.bounds[i] = bounds[n]
	}

	return s, nil
}

// Dims returns the number of dimensions of the Space.
func (s *Space) Dims() int {
	return len(s.names)
}

// Names returns the name of each dimension, in order. The returned slice must not be modified.
func (s *Space) Names() []string {
	return s.names
}

// Bound returns the Bound of the i'th dimension.
func (s *Space) Bound(i int) Bound {
	return s.bounds[i]
}

// Sample returns a uniformly random vector within the Space.
func (s *Space) Sample(rng *rand.Rand) []float64 {
	v := make([]float64, len(s.bounds))
	for i, b := range s.bounds {
		v[i] = b.Sample(rng)
	}

	return v
}

// Normalize maps a vector of the Space onto the unit hypercube.
func (s *Space) Normalize(v []float64) []float64 {
	u := make([]float64, len(v))
	for i, b := range s.bounds {
		u[i] = b.Normalize(v[i])
	}

	return u
}

// Clip moves each element of v into its Bound, in place.
func (s *Space) Clip(v []float64) {
	for i, b := range s.bounds {
		v[i] = b.Clip(v[i])
	}
}

// ToMap converts a vector of the Space into named values.
func (s *Space) ToMap(v []float64) map[string]float64 {
	m := make(map[string]float64, len(v))
	for i, n := range s.names {
		m[n] = v[i]
	}

	return m
}

// FromMap converts named values into a vector of the Space. Every dimension must be present.
func (s *Space) FromMap(m map[string]float64) ([]float64, error) {
	v := make([]float64, len(s.names))
	for i, n := range s.names {
		x, ok := m[n]
		if !ok {
			return nil, errors.Errorf("Point is missing dimension %q", n)
		}
		v[i] = x
	}

	return v, nil
}
