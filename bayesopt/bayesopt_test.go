package bayesopt

import (
	"math"
	"math/rand"
	"testing"

	"github.com/pkg/errors"
	"github.com/sharnoff/seqtune/hyperparams"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func quadratic(p Point) (float64, error) {
	x := p["x"]
	return -(x - 0.3) * (x - 0.3), nil
}

func TestMaximizeQuadratic(t *testing.T) {
	o, err := New(quadratic, map[string]hyperparams.Bound{"x": hyperparams.Range(-1, 1)},
		WithRand(rand.New(rand.NewSource(42))), WithWarmup(500))
	require.NoError(t, err)

	require.NoError(t, o.Maximize(3, 20))
	assert.Len(t, o.Observations(), 23)

	best, ok := o.Max()
	require.True(t, ok)
	assert.InDelta(t, 0.3, best.Point["x"], 0.05)
	assert.Greater(t, best.Value, -0.0025)
}

func TestObservationsPersist(t *testing.T) {
	o, err := New(quadratic, map[string]hyperparams.Bound{"x": hyperparams.Range(0, 1)})
	require.NoError(t, err)

	require.NoError(t, o.Maximize(2, 1))
	require.NoError(t, o.Maximize(0, 2))
	assert.Len(t, o.Observations(), 5)
}

func TestDegenerateBounds(t *testing.T) {
	calls := 0
	f := func(p Point) (float64, error) {
		calls++
		assert.Equal(t, 0.001, p["learning_rate"])
		assert.Equal(t, 32.0, p["batch_size"])
		return 0.5, nil
	}

	o, err := New(f, map[string]hyperparams.Bound{
		"learning_rate": hyperparams.Constant(0.001),
		"batch_size":    hyperparams.Constant(32),
	})
	require.NoError(t, err)

	// every evaluation lands on the same point
	require.NoError(t, o.Maximize(2, 3))
	assert.Equal(t, 5, calls)

	best, ok := o.Max()
	require.True(t, ok)
	assert.Equal(t, Point{"learning_rate": 0.001, "batch_size": 32}, best.Point)
}

func TestPartlyDegenerateBounds(t *testing.T) {
	f := func(p Point) (float64, error) {
		return -math.Abs(p["x"]-0.7) + p["fixed"], nil
	}

	o, err := New(f, map[string]hyperparams.Bound{"x": hyperparams.Range(0, 1), "fixed": hyperparams.Constant(4)},
		WithAcquisition(UpperConfidenceBound(2.576)))
	require.NoError(t, err)

	require.NoError(t, o.Maximize(2, 5))
	for _, ob := range o.Observations() {
		assert.Equal(t, 4.0, ob.Point["fixed"])
		assert.True(t, ob.Point["x"] >= 0 && ob.Point["x"] <= 1)
	}
}

func TestFirstMaximizeWithoutInitPoints(t *testing.T) {
	o, err := New(quadratic, map[string]hyperparams.Bound{"x": hyperparams.Range(0, 1)},
		WithAcquisition(ProbabilityOfImprovement(0)))
	require.NoError(t, err)

	require.NoError(t, o.Maximize(0, 2))
	assert.Len(t, o.Observations(), 3)
}

func TestObjectiveErrors(t *testing.T) {
	boom := errors.New("boom")
	o, err := New(func(Point) (float64, error) { return 0, boom }, map[string]hyperparams.Bound{"x": hyperparams.Range(0, 1)})
	require.NoError(t, err)

	err = o.Maximize(1, 0)
	assert.Equal(t, boom, errors.Cause(err))
	_, ok := o.Max()
	assert.False(t, ok)

	o, err = New(func(Point) (float64, error) { return math.NaN(), nil }, map[string]hyperparams.Bound{"x": hyperparams.Range(0, 1)})
	require.NoError(t, err)
	assert.Error(t, o.Maximize(1, 0))
}

func TestEvaluateClips(t *testing.T) {
	o, err := New(quadratic, map[string]hyperparams.Bound{"x": hyperparams.Range(0, 1)})
	require.NoError(t, err)

	_, err = o.Evaluate(Point{"x": 5})
	require.NoError(t, err)
	assert.Equal(t, 1.0, o.Observations()[0].Point["x"])

	_, err = o.Evaluate(Point{"y": 0})
	assert.Error(t, err)
}

func TestNewErrors(t *testing.T) {
	_, err := New(nil, map[string]hyperparams.Bound{"x": hyperparams.Range(0, 1)})
	assert.Error(t, err)

	_, err = New(quadratic, nil)
	assert.Error(t, err)
}

func TestAcquisitions(t *testing.T) {
	ei := ExpectedImprovement(0)
	assert.InDelta(t, 0.3989422804, ei.Score(0, 1, 0), 1e-9)
	assert.Equal(t, 0.0, ei.Score(0, 0, 1))
	assert.Equal(t, 2.0, ei.Score(3, 0, 1))

	assert.Equal(t, 5.0, UpperConfidenceBound(2).Score(1, 2, 100))
	assert.InDelta(t, 0.5, ProbabilityOfImprovement(0).Score(1, 1, 1), 1e-12)

	for _, name := range []string{"ei", "ucb", "poi"} {
		a, ok := AcquisitionByName(name, 0.01, 2)
		require.True(t, ok)
		assert.Equal(t, name, a.TypeString())
	}
	_, ok := AcquisitionByName("random", 0, 0)
	assert.False(t, ok)
}

func TestGPInterpolates(t *testing.T) {
	g := newGP()
	xs := [][]float64{{0}, {0.5}, {1}}
	require.NoError(t, g.fit(xs, []float64{1, 3, 2}))

	for i, x := range xs {
		mean, std := g.predict(x)
		assert.InDelta(t, g.ys[i], mean, 1e-3)
		assert.Less(t, std, 1e-2)
	}

	_, far := g.predict([]float64{0.25})
	assert.Greater(t, far, 0.01)

	// duplicate points are tolerated
	require.NoError(t, g.fit([][]float64{{0.1}, {0.1}, {0.1}}, []float64{1, 1, 1}))
}
