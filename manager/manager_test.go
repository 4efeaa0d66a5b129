package manager

import (
	"math/rand"
	"testing"

	"github.com/pkg/errors"
	bs "github.com/sharnoff/seqtune"
	"github.com/sharnoff/seqtune/config"
	"github.com/sharnoff/seqtune/costfuncs"
	"github.com/sharnoff/seqtune/dataset"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testConfig(model string) *config.Config {
	cfg := config.Default()
	cfg.Model = model
	cfg.InputDim = 2
	cfg.HidDim = 6
	cfg.NLayers = 1
	cfg.NFilters = 4
	cfg.FilterSize = 2
	cfg.StrLen = 6
	cfg.YFrames = 1
	cfg.OutputDim = 3
	cfg.Dropout = 0
	return cfg
}

// returns a dataset with the given number of windows, in which every label is the same
func constantDataset(t *testing.T, cfg *config.Config, windows, label int, seed int64) *dataset.NumDataset {
	rng := rand.New(rand.NewSource(seed))

	n := windows + cfg.StrLen + cfg.YFrames - 1
	rows := make([][]float64, n)
	labels := make([]int, n)
	for i := range rows {
		rows[i] = make([]float64, cfg.InputDim)
		for j := range rows[i] {
			rows[i][j] = rng.Float64()
		}
		labels[i] = label
	}

	d, err := dataset.New(rows, labels, dataset.Options{StrLen: cfg.StrLen, YFrames: cfg.YFrames})
	require.NoError(t, err)
	require.Equal(t, windows, d.Len())
	return d
}

func newManager(t *testing.T, cfg *config.Config, windows int) *Manager {
	d := constantDataset(t, cfg, windows, 1, 1)

	m, err := New(cfg, WithDatasets(d, d, d), WithSeed(7))
	require.NoError(t, err)
	return m
}

func TestUnsupportedModelFailsBeforeLoading(t *testing.T) {
	loaded := false
	loader := func(string) (dataset.Supplier, error) {
		loaded = true
		return nil, errors.New("should not be called")
	}

	_, err := New(testConfig("Unsupported"), WithLoader(loader))
	require.Error(t, err)
	assert.True(t, bs.IsConfigError(err))
	assert.False(t, loaded)
}

func TestUnavailableDevice(t *testing.T) {
	loaded := false
	loader := func(string) (dataset.Supplier, error) {
		loaded = true
		return nil, errors.New("should not be called")
	}

	cfg := testConfig("LSTM")
	cfg.Device = "cuda"

	_, err := New(cfg, WithLoader(loader))
	assert.Equal(t, bs.ErrDeviceUnavailable, errors.Cause(err))
	assert.False(t, loaded)
}

func TestLoaderUsesConfiguredPaths(t *testing.T) {
	cfg := testConfig("LSTM")
	cfg.TrainPath, cfg.ValPath, cfg.TestPath = "a.csv", "b.csv", "c.csv"

	var paths []string
	loader := func(path string) (dataset.Supplier, error) {
		paths = append(paths, path)
		return constantDataset(t, cfg, 4, 0, 2), nil
	}

	_, err := New(cfg, WithLoader(loader))
	require.NoError(t, err)
	assert.Equal(t, []string{"a.csv", "b.csv", "c.csv"}, paths)
}

func TestDatasetMismatch(t *testing.T) {
	cfg := testConfig("LSTM")
	d := constantDataset(t, cfg, 4, 0, 3)

	cfg.InputDim = 5
	_, err := New(cfg, WithDatasets(d, d, d))
	assert.True(t, bs.IsConfigError(err))
}

func TestTrainConvergesOnConstantLabels(t *testing.T) {
	for _, model := range []string{"ConvLSTM", "LSTM", "CNN"} {
		m := newManager(t, testConfig(model), 4)

		var acc float64
		for i := 0; i < 100 && acc < 1; i++ {
			var err error
			_, acc, err = m.Train(0.05, 2)
			require.NoError(t, err, model)
		}

		assert.Equal(t, 1.0, acc, model)
	}
}

func TestTrainLossDecreases(t *testing.T) {
	m := newManager(t, testConfig("LSTM"), 8)

	first, _, err := m.Train(0.01, 4)
	require.NoError(t, err)

	var last float64
	for i := 0; i < 20; i++ {
		last, _, err = m.Train(0.01, 4)
		require.NoError(t, err)
	}

	assert.Less(t, last, first)
}

func TestTrainRoundsBatchSize(t *testing.T) {
	// 3*4+1 windows: with batches of 4 the final window is dropped
	m := newManager(t, testConfig("LSTM"), 13)

	_, acc, err := m.Train(0.01, 3.6)
	require.NoError(t, err)
	assert.True(t, acc >= 0 && acc <= 1)

	_, _, err = m.Train(0.01, 13.6)
	assert.Equal(t, bs.ErrNoBatches, errors.Cause(err))
}

func TestEvaluationDoesNotChangeModel(t *testing.T) {
	for _, model := range []string{"ConvLSTM", "LSTM", "CNN"} {
		cfg := testConfig(model)
		cfg.Dropout = 0.5
		m := newManager(t, cfg, 9)

		_, _, err := m.Train(0.01, 3)
		require.NoError(t, err)

		params := m.Model().Params()
		sum := bs.Checksum(params)

		_, _, err = m.Validate(costfuncs.CrossEntropy(), 3)
		require.NoError(t, err)
		assert.Equal(t, sum, bs.Checksum(params), model)

		_, err = m.Test(2)
		require.NoError(t, err)
		assert.Equal(t, sum, bs.Checksum(params), model)

		// and neither is repeated evaluation affected by dropout
		l1, a1, err := m.Validate(costfuncs.CrossEntropy(), 3)
		require.NoError(t, err)
		l2, a2, err := m.Validate(costfuncs.CrossEntropy(), 3)
		require.NoError(t, err)
		assert.Equal(t, l1, l2)
		assert.Equal(t, a1, a2)
	}
}

func TestTrainChangesModel(t *testing.T) {
	m := newManager(t, testConfig("CNN"), 4)
	sum := bs.Checksum(m.Model().Params())

	_, _, err := m.Train(0.01, 2)
	require.NoError(t, err)
	assert.NotEqual(t, sum, bs.Checksum(m.Model().Params()))
}

func TestSeedIsReproducible(t *testing.T) {
	a := newManager(t, testConfig("ConvLSTM"), 6)
	b := newManager(t, testConfig("ConvLSTM"), 6)

	la, aa, err := a.Train(0.01, 2)
	require.NoError(t, err)
	lb, ab, err := b.Train(0.01, 2)
	require.NoError(t, err)

	assert.Equal(t, la, lb)
	assert.Equal(t, aa, ab)
}

func TestPenaltyChangesTraining(t *testing.T) {
	cfg := testConfig("CNN")
	cfg.Optimizer = "sgd"
	plain := newManager(t, cfg, 4)

	cfg = testConfig("CNN")
	cfg.Optimizer = "sgd"
	cfg.Penalty = "l2"
	cfg.PenaltyLambda = 0.5
	penalized := newManager(t, cfg, 4)

	// identical seeds: the initial weights match
	require.Equal(t, bs.Checksum(plain.Model().Params()), bs.Checksum(penalized.Model().Params()))

	_, _, err := plain.Train(0.01, 2)
	require.NoError(t, err)
	_, _, err = penalized.Train(0.01, 2)
	require.NoError(t, err)

	assert.NotEqual(t, bs.Checksum(plain.Model().Params()), bs.Checksum(penalized.Model().Params()))
}

func TestInvalidPenalty(t *testing.T) {
	cfg := testConfig("LSTM")
	cfg.Penalty = "l2"
	d := constantDataset(t, cfg, 4, 0, 3)

	_, err := New(cfg, WithDatasets(d, d, d))
	assert.True(t, bs.IsConfigError(err))
}
