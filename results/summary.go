package results

import (
	"github.com/montanaflynn/stats"
	"github.com/pkg/errors"
)

// Summary describes the spread of a series of metric values, e.g. the validation accuracy of every
// epoch.
type Summary struct {
	Mean   float64 `json:"mean"`
	StdDev float64 `json:"stddev"`
	Min    float64 `json:"min"`
	Max    float64 `json:"max"`
}

// Summarize returns the Summary of the given values. The standard deviation is that of the
// population. An empty series is an error.
func Summarize(values []float64) (Summary, error) {
	if len(values) == 0 {
		return Summary{}, errors.New("Can't summarize an empty series")
	}

	data := stats.Float64Data(values)

	var s Summary
	var err error
	if s.Mean, err = stats.Mean(data); err != nil {
		return Summary{}, errors.Wrapf(err, "Couldn't summarize")
	}
	if s.StdDev, err = stats.StandardDeviation(data); err != nil {
		return Summary{}, errors.Wrapf(err, "Couldn't summarize")
	}
	if s.Min, err = stats.Min(data); err != nil {
		return Summary{}, errors.Wrapf(err, "Couldn't summarize")
	}
	if s.Max, err = stats.Max(data); err != nil {
		return Summary{}, errors.Wrapf(err, "Couldn't summarize")
	}

	return s, nil
}
