package initializers

import (
	"math"
	"math/rand"
	"testing"

	bs "github.com/sharnoff/seqtune"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFanInBounds(t *testing.T) {
	ws := make([]float64, 1000)
	FanIn().Set(rand.New(rand.NewSource(1)), 16, 4, ws)

	for _, w := range ws {
		assert.True(t, w >= -0.25 && w < 0.25, "weight %v outside of ±1/√16", w)
	}
}

func TestUniformRangeSwapsBounds(t *testing.T) {
	ws := make([]float64, 200)
	Uniform().Range(3, 2).Set(rand.New(rand.NewSource(2)), 1, 1, ws)

	for _, w := range ws {
		assert.True(t, w >= 2 && w < 3)
	}
}

func TestSeededSetIsReproducible(t *testing.T) {
	a, b := make([]float64, 50), make([]float64, 50)
	He().Set(rand.New(rand.NewSource(7)), 10, 10, a)
	He().Set(rand.New(rand.NewSource(7)), 10, 10, b)

	assert.Equal(t, a, b)
}

func TestVarianceScalingTruncated(t *testing.T) {
	ws := make([]float64, 5000)
	VarianceScaling().In().Set(rand.New(rand.NewSource(3)), 4, 1, ws)

	sd := math.Sqrt(1.0 / 4)
	for _, w := range ws {
		assert.LessOrEqual(t, math.Abs(w), 2*sd+1e-12)
	}
}

func TestByName(t *testing.T) {
	cases := map[string]string{
		"":        "uniform",
		"fan-in":  "uniform",
		"uniform": "uniform",
		"he":      "variance-scaling-in",
		"xavier":  "variance-scaling-avg",
		"lecun":   "variance-scaling-in",
	}

	for name, typ := range cases {
		i, err := ByName(name, 0)
		require.NoError(t, err, name)
		assert.Equal(t, typ, i.(interface{ TypeString() string }).TypeString(), name)
	}

	he, err := ByName("he", 0)
	require.NoError(t, err)
	assert.Equal(t, 2.0, he.(*varianceScaling).factor)

	_, err = ByName("orthogonal", 0)
	assert.True(t, bs.IsConfigError(err))

	_, err = ByName("uniform", -1)
	assert.True(t, bs.IsConfigError(err))
}

func TestByNameUniformScale(t *testing.T) {
	i, err := ByName("uniform", 0.01)
	require.NoError(t, err)

	ws := make([]float64, 500)
	i.Set(rand.New(rand.NewSource(4)), 1, 1, ws)
	for _, w := range ws {
		assert.True(t, w >= -0.01 && w < 0.01)
	}
}
