package experiment

import (
	"encoding/json"
	"math/rand"
	"path/filepath"
	"testing"

	"github.com/pkg/errors"
	bs "github.com/sharnoff/seqtune"
	"github.com/sharnoff/seqtune/config"
	"github.com/sharnoff/seqtune/costfuncs"
	"github.com/sharnoff/seqtune/dataset"
	"github.com/sharnoff/seqtune/hyperparams"
	"github.com/sharnoff/seqtune/manager"
	"github.com/sharnoff/seqtune/results"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeEvaluator records its calls. Each call to Train returns an accuracy that increases with the
// call count, so that the last sweep is distinguishable from the others.
type fakeEvaluator struct {
	trains     []float64 // batch sizes
	validates  []float64
	tests      []int
	trainErrAt int // 1-indexed; 0 means never
}

func (f *fakeEvaluator) Train(lr, size float64) (float64, float64, error) {
	f.trains = append(f.trains, size)
	n := len(f.trains)
	if n == f.trainErrAt {
		return 0, 0, errors.New("train failed")
	}
	return 1 / float64(n), float64(n) / 100, nil
}

func (f *fakeEvaluator) Validate(cost bs.CostFunction, size float64) (float64, float64, error) {
	f.validates = append(f.validates, size)
	return 0.5, 0.25, nil
}

func (f *fakeEvaluator) Test(size int) (float64, error) {
	f.tests = append(f.tests, size)
	return 0.75, nil
}

// the weights change with every training sweep
func (f *fakeEvaluator) Checksum() uint64 {
	return uint64(1000 + len(f.trains))
}

func (f *fakeEvaluator) CostFunction() bs.CostFunction {
	return costfuncs.CrossEntropy()
}

type memSaver struct {
	records []results.Record
}

func (m *memSaver) Save(r results.Record) error {
	m.records = append(m.records, r)
	return nil
}

func searchConfig() *config.Config {
	cfg := config.Default()
	cfg.Epoch = 3
	cfg.InitPoints = 2
	cfg.NIter = 1
	cfg.NWarmup = 50
	cfg.LR = hyperparams.Constant(0.01)
	cfg.BatchSize = hyperparams.Constant(4)
	return cfg
}

func TestRunTrain(t *testing.T) {
	cfg := searchConfig()
	ev := &fakeEvaluator{}
	saver := &memSaver{}
	var updates []results.Record

	res, err := Run(cfg, ev, WithSaver(saver), WithRunID("run"), WithUpdate(func(r results.Record) {
		updates = append(updates, r)
	}))
	require.NoError(t, err)

	// 3 epochs of 3 sweeps each; one validation per epoch
	assert.Len(t, ev.trains, 9)
	assert.Equal(t, []float64{4, 4, 4}, ev.validates)
	assert.Empty(t, ev.tests)

	assert.Equal(t, "run", res.RunID)
	assert.Equal(t, 3, res.Epochs())
	// the last sweep of each epoch, not the average
	assert.Equal(t, []float64{0.03, 0.06, 0.09}, res.TrainAccs)
	assert.Equal(t, []float64{1.0 / 3, 1.0 / 6, 1.0 / 9}, res.TrainLosses)
	assert.Equal(t, []float64{0.25, 0.25, 0.25}, res.ValAccs)
	assert.Equal(t, 0.09, res.TrainAcc)
	assert.Equal(t, 0.25, res.ValAcc)
	require.NotNil(t, res.Best)
	assert.Equal(t, 4, res.Best.BatchSize)
	assert.Equal(t, 0.09, res.Best.Reward)

	// saved before and after validation
	require.Len(t, saver.records, 6)
	assert.Zero(t, saver.records[0].ValAcc)
	assert.Equal(t, 0.25, saver.records[1].ValAcc)
	assert.Len(t, saver.records[5].Observations, 9)
	for i, r := range saver.records {
		assert.Equal(t, uint64(1000+3*(i/2+1)), r.ModelChecksum)
	}

	require.Len(t, updates, 3)
	for i, u := range updates {
		assert.Equal(t, i, u.Epoch)
		assert.Equal(t, "run", u.RunID)
	}
}

func TestRunTest(t *testing.T) {
	cfg := searchConfig()
	cfg.Mode = "test"
	cfg.InferenceBatchSize = 5
	ev := &fakeEvaluator{}

	res, err := Run(cfg, ev)
	require.NoError(t, err)
	assert.Equal(t, []int{5}, ev.tests)
	assert.Empty(t, ev.trains)
	assert.Equal(t, 0.75, res.TestAcc)
	assert.Zero(t, res.Epochs())
	assert.NotEmpty(t, res.RunID)
}

func TestRunAbortsOnError(t *testing.T) {
	ev := &fakeEvaluator{trainErrAt: 5}
	saver := &memSaver{}

	res, err := Run(searchConfig(), ev, WithSaver(saver))
	require.Error(t, err)
	assert.Nil(t, res)
	assert.Len(t, ev.trains, 5)
	// only the first epoch completed
	assert.Len(t, saver.records, 2)
}

func TestRunWithEmptySearch(t *testing.T) {
	cfg := searchConfig()
	cfg.InitPoints, cfg.NIter = 0, 0
	ev := &fakeEvaluator{}

	res, err := Run(cfg, ev)
	require.Error(t, err)
	assert.Nil(t, res)
	assert.Contains(t, err.Error(), "evaluated no points")
	assert.Empty(t, ev.validates)
}

func TestRunBadMode(t *testing.T) {
	cfg := searchConfig()
	cfg.Mode = "predict"

	_, err := Run(cfg, &fakeEvaluator{})
	assert.True(t, bs.IsConfigError(err))
}

func TestDriverScoresByValidation(t *testing.T) {
	cfg := searchConfig()
	cfg.SearchMetric = "val_acc"
	ev := &fakeEvaluator{}

	validate := func(size float64) (float64, float64, error) {
		return ev.Validate(nil, size)
	}

	d, err := NewDriver(cfg, ev.Train, validate, rand.New(rand.NewSource(1)), nil)
	require.NoError(t, err)
	require.NoError(t, d.Maximize(1, 1))

	assert.Equal(t, 2, d.Sweeps())
	assert.Len(t, ev.validates, 2)
	for _, ob := range d.Observations() {
		assert.Equal(t, 0.25, ob.Value)
	}

	_, err = NewDriver(cfg, ev.Train, nil, nil, nil)
	assert.Error(t, err)
}

func TestDriverConfigErrors(t *testing.T) {
	ev := &fakeEvaluator{}

	cfg := searchConfig()
	cfg.Acq = "thompson"
	_, err := NewDriver(cfg, ev.Train, nil, nil, nil)
	assert.True(t, bs.IsConfigError(err))

	cfg = searchConfig()
	cfg.SearchMetric = "test_acc"
	_, err = NewDriver(cfg, ev.Train, nil, nil, nil)
	assert.True(t, bs.IsConfigError(err))

	_, err = NewDriver(searchConfig(), nil, nil, nil, nil)
	assert.Error(t, err)
}

func TestDriverSearchesWithinBounds(t *testing.T) {
	cfg := searchConfig()
	cfg.LR = hyperparams.Range(0.001, 0.1)
	cfg.BatchSize = hyperparams.Range(2, 8)

	var lrs []float64
	train := func(lr, size float64) (float64, float64, error) {
		lrs = append(lrs, lr)
		assert.True(t, size >= 2 && size <= 8)
		return 0, -lr, nil
	}

	d, err := NewDriver(cfg, train, nil, rand.New(rand.NewSource(3)), nil)
	require.NoError(t, err)
	require.NoError(t, d.Maximize(3, 4))

	assert.Len(t, lrs, 7)
	for _, lr := range lrs {
		assert.True(t, lr >= 0.001 && lr <= 0.1)
	}

	best, ok := d.Best()
	require.True(t, ok)
	for _, ob := range d.Observations() {
		assert.True(t, best.Value >= ob.Value)
	}
}

func TestResultJSON(t *testing.T) {
	res, err := Run(searchConfig(), &fakeEvaluator{}, WithRunID("id"))
	require.NoError(t, err)

	data, err := json.Marshal(res)
	require.NoError(t, err)

	var fields map[string]interface{}
	require.NoError(t, json.Unmarshal(data, &fields))
	for _, k := range []string{"run_id", "config", "train_losses", "val_losses", "train_accs", "val_accs", "train_acc", "val_acc", "test_acc", "best"} {
		assert.Contains(t, fields, k)
	}
}

func TestRunWithManager(t *testing.T) {
	cfg := config.Default()
	cfg.Model = "LSTM"
	cfg.InputDim = 2
	cfg.HidDim = 4
	cfg.StrLen = 5
	cfg.OutputDim = 2
	cfg.Dropout = 0
	cfg.Epoch = 2
	cfg.InitPoints = 1
	cfg.NIter = 1
	cfg.NWarmup = 20
	cfg.LR = hyperparams.Constant(0.01)
	cfg.BatchSize = hyperparams.Constant(2)

	rng := rand.New(rand.NewSource(2))
	n := 10 + cfg.StrLen
	rows := make([][]float64, n)
	labels := make([]int, n)
	for i := range rows {
		rows[i] = []float64{rng.Float64(), rng.Float64()}
		labels[i] = i % 2
	}
	d, err := dataset.New(rows, labels, dataset.Options{StrLen: cfg.StrLen, YFrames: 1})
	require.NoError(t, err)

	m, err := manager.New(cfg, manager.WithDatasets(d, d, d), manager.WithSeed(1))
	require.NoError(t, err)

	db, err := results.OpenLevelDB(filepath.Join(t.TempDir(), "db"))
	require.NoError(t, err)
	defer db.Close()

	res, err := Run(cfg, m, WithSaver(db), WithRunID("lstm"))
	require.NoError(t, err)
	assert.Equal(t, 2, res.Epochs())
	for _, acc := range append(res.TrainAccs, res.ValAccs...) {
		assert.True(t, acc >= 0 && acc <= 1)
	}

	recs, err := db.Records("lstm")
	require.NoError(t, err)
	require.Len(t, recs, 2)
	assert.Equal(t, res.ValAccs[1], recs[1].ValAcc)
	assert.Len(t, recs[1].Observations, 4)

	// the saved checksum identifies the weights left by the last epoch
	assert.Equal(t, m.Checksum(), recs[1].ModelChecksum)
	assert.NotEqual(t, recs[0].ModelChecksum, recs[1].ModelChecksum)
}
