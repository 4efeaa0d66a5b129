package models

import (
	"math/rand"
	"testing"

	bs "github.com/sharnoff/seqtune"
	"github.com/sharnoff/seqtune/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func smallConfig(model string) *config.Config {
	cfg := config.Default()
	cfg.Model = model
	cfg.InputDim = 3
	cfg.HidDim = 4
	cfg.NLayers = 2
	cfg.NFilters = 5
	cfg.FilterSize = 2
	cfg.StrLen = 8
	cfg.YFrames = 2
	cfg.OutputDim = 3
	cfg.Dropout = 0
	return cfg
}

func randInput(rng *rand.Rand, dims ...int) *bs.Tensor {
	x := bs.NewTensor(dims...)
	for i := range x.Values {
		x.Values[i] = rng.NormFloat64()
	}
	return x
}

func TestOutputShapes(t *testing.T) {
	for _, name := range []string{"ConvLSTM", "LSTM", "CNN"} {
		rng := rand.New(rand.NewSource(1))
		cfg := smallConfig(name)

		m, err := New(cfg, rng)
		require.NoError(t, err, name)
		assert.Equal(t, name, m.TypeString())

		for _, batch := range []int{1, 6} {
			scores, err := m.Predict(randInput(rng, batch, cfg.StrLen, cfg.InputDim))
			require.NoError(t, err, name)
			assert.Equal(t, []int{batch, cfg.OutputDim}, scores.Dims, name)
		}
	}
}

func TestSqueezedSingleExample(t *testing.T) {
	cfg := smallConfig("CNN")
	cfg.OutputDim = 0 // defaults to y_frames

	m, err := New(cfg, rand.New(rand.NewSource(2)))
	require.NoError(t, err)

	scores, err := m.Predict(bs.NewTensor(1, cfg.StrLen, cfg.InputDim))
	require.NoError(t, err)
	assert.Equal(t, []int{cfg.YFrames}, scores.Squeeze().Dims)
}

func TestUnknownModel(t *testing.T) {
	_, err := New(smallConfig("Unsupported"), rand.New(rand.NewSource(3)))
	require.Error(t, err)
	assert.True(t, bs.IsConfigError(err))
	assert.Contains(t, err.Error(), "In-valid model choice")
}

func TestRegister(t *testing.T) {
	assert.Equal(t, []string{"CNN", "ConvLSTM", "LSTM"}, Names())
	assert.Error(t, Register("LSTM", NewLSTM))
	assert.Equal(t, bs.ErrRegisterNilReturn, Register("Nothing", nil))
}

func TestWindowTooShort(t *testing.T) {
	cfg := smallConfig("ConvLSTM")
	cfg.StrLen = 4 // four convolutions of width 2 leave nothing

	_, err := New(cfg, rand.New(rand.NewSource(4)))
	assert.True(t, bs.IsConfigError(err))

	cfg = smallConfig("CNN")
	cfg.CNNPool = 8
	_, err = New(cfg, rand.New(rand.NewSource(4)))
	assert.True(t, bs.IsConfigError(err))
}

func TestCNNPool(t *testing.T) {
	cfg := smallConfig("CNN")
	cfg.CNNPool = 2

	m, err := New(cfg, rand.New(rand.NewSource(5)))
	require.NoError(t, err)

	scores, err := m.Predict(bs.NewTensor(2, cfg.StrLen, cfg.InputDim))
	require.NoError(t, err)
	assert.Equal(t, []int{2, cfg.OutputDim}, scores.Dims)
}

func TestWrongInputShape(t *testing.T) {
	m, err := New(smallConfig("LSTM"), rand.New(rand.NewSource(6)))
	require.NoError(t, err)

	_, err = m.Predict(bs.NewTensor(2, 8, 4))
	assert.True(t, bs.IsShapeError(err))
}

// the hidden state is reset for every call, so identical inputs give identical outputs
func TestPredictIsStateless(t *testing.T) {
	rng := rand.New(rand.NewSource(7))
	for _, name := range []string{"ConvLSTM", "LSTM"} {
		cfg := smallConfig(name)
		m, err := New(cfg, rng)
		require.NoError(t, err)
		m.SetMode(bs.Evaluation)

		x := randInput(rng, 3, cfg.StrLen, cfg.InputDim)
		first, err := m.Predict(x)
		require.NoError(t, err)

		_, err = m.Predict(randInput(rng, 5, cfg.StrLen, cfg.InputDim))
		require.NoError(t, err)

		again, err := m.Predict(x)
		require.NoError(t, err)
		assert.Equal(t, first.Values, again.Values, name)
	}
}

func TestConvLSTMGradients(t *testing.T) {
	rng := rand.New(rand.NewSource(8))
	cfg := smallConfig("ConvLSTM")
	cfg.HidDim = 2
	cfg.NFilters = 2
	cfg.StrLen = 6

	m, err := New(cfg, rng)
	require.NoError(t, err)
	m.SetMode(bs.Evaluation)

	x := randInput(rng, 2, cfg.StrLen, cfg.InputDim)
	r := randInput(rng, 2, cfg.OutputDim)

	cost := func() float64 {
		y, err := m.Predict(x)
		require.NoError(t, err)

		var sum float64
		for i := range y.Values {
			sum += y.Values[i] * r.Values[i]
		}
		return sum
	}

	bs.ZeroGrads(m.Params())
	cost()
	require.NoError(t, m.Backward(r))

	// checking a sample of weights from every Param keeps this quick
	const eps = 1e-6
	for _, p := range m.Params() {
		ws, grads := p.Weights(), p.Gradients()
		for i := 0; i < len(ws); i += 3 {
			orig := ws[i]
			ws[i] = orig + eps
			plus := cost()
			ws[i] = orig - eps
			minus := cost()
			ws[i] = orig

			assert.InDelta(t, (plus-minus)/(2*eps), grads[i], 1e-5, "%s %d", p.Name, i)
		}
	}
}

func TestInitializerChangesWeights(t *testing.T) {
	for _, name := range []string{"ConvLSTM", "LSTM", "CNN"} {
		sums := make(map[string]uint64)
		for _, init := range []string{"fan-in", "he", "xavier", "uniform"} {
			cfg := smallConfig(name)
			cfg.Initializer = init

			m, err := New(cfg, rand.New(rand.NewSource(9)))
			require.NoError(t, err, init)
			sums[init] = bs.Checksum(m.Params())
		}

		assert.NotEqual(t, sums["fan-in"], sums["he"], name)
		assert.NotEqual(t, sums["fan-in"], sums["xavier"], name)
		assert.NotEqual(t, sums["fan-in"], sums["uniform"], name)
		assert.NotEqual(t, sums["he"], sums["xavier"], name)

		// the default is fan-in
		cfg := smallConfig(name)
		cfg.Initializer = ""
		m, err := New(cfg, rand.New(rand.NewSource(9)))
		require.NoError(t, err)
		assert.Equal(t, sums["fan-in"], bs.Checksum(m.Params()), name)
	}
}

func TestUnknownInitializer(t *testing.T) {
	cfg := smallConfig("LSTM")
	cfg.Initializer = "orthogonal"

	_, err := New(cfg, rand.New(rand.NewSource(1)))
	assert.True(t, bs.IsConfigError(err))
}
