package results

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sharnoff/seqtune/bayesopt"
)

func history() History {
	var h History
	h.Append(1.2, 1.3, 0.25, 0.5)
	h.Append(0.8, 0.9, 0.5, 0.5)
	h.Append(0.4, 0.7, 0.75, 0.625)
	return h
}

func TestHistoryAppend(t *testing.T) {
	h := history()
	assert.Equal(t, 3, h.Epochs())
	assert.Equal(t, []float64{1.2, 0.8, 0.4}, h.TrainLosses)
	assert.Equal(t, []float64{0.5, 0.5, 0.625}, h.ValAccs)
}

func TestDiscard(t *testing.T) {
	assert.NoError(t, Discard.Save(Record{RunID: "x"}))
}

func TestLevelDBRoundTrip(t *testing.T) {
	db, err := OpenLevelDB(filepath.Join(t.TempDir(), "results"))
	require.NoError(t, err)
	defer db.Close()

	best := bayesopt.Observation{Point: bayesopt.Point{"learning_rate": 0.01, "batch_size": 16}, Value: 0.75}

	// saved out of order, with more than ten epochs so that ordering depends on the padding
	for _, e := range []int{10, 2, 0, 1} {
		require.NoError(t, db.Save(Record{
			RunID:        "a",
			Epoch:        e,
			Observations: []bayesopt.Observation{best},
			Best:         best,
			TrainAcc:     float64(e),
			Elapsed:      time.Second,
		}))
	}
	require.NoError(t, db.Save(Record{RunID: "ab", Epoch: 0}))

	rs, err := db.Records("a")
	require.NoError(t, err)
	require.Len(t, rs, 4)
	for i, e := range []int{0, 1, 2, 10} {
		assert.Equal(t, e, rs[i].Epoch)
		assert.Equal(t, float64(e), rs[i].TrainAcc)
		assert.Equal(t, best, rs[i].Best)
		assert.Equal(t, time.Second, rs[i].Elapsed)
	}

	rs, err = db.Records("missing")
	require.NoError(t, err)
	assert.Empty(t, rs)
}

func TestLevelDBOverwrite(t *testing.T) {
	db, err := OpenLevelDB(t.TempDir())
	require.NoError(t, err)
	defer db.Close()

	require.NoError(t, db.Save(Record{RunID: "a", Epoch: 0, ValAcc: 0.1}))
	require.NoError(t, db.Save(Record{RunID: "a", Epoch: 0, ValAcc: 0.9}))

	rs, err := db.Records("a")
	require.NoError(t, err)
	require.Len(t, rs, 1)
	assert.Equal(t, 0.9, rs[0].ValAcc)
}

func TestWriteEpochCSV(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteEpochCSV(&buf, history()))

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	require.Len(t, lines, 4)
	assert.Equal(t, "epoch,train_loss,val_loss,train_acc,val_acc", lines[0])
	assert.Equal(t, "0,1.2,1.3,0.25,0.5", lines[1])
	assert.Equal(t, "2,0.4,0.7,0.75,0.625", lines[3])
}

func TestPlotCurves(t *testing.T) {
	dir := t.TempDir()

	for _, name := range []string{"curves.png", "curves.svg"} {
		path := filepath.Join(dir, name)
		require.NoError(t, PlotCurves(history(), path))

		info, err := os.Stat(path)
		require.NoError(t, err)
		assert.NotZero(t, info.Size())
	}

	assert.Error(t, PlotCurves(History{}, filepath.Join(dir, "empty.png")))
	assert.Error(t, PlotCurves(history(), filepath.Join(dir, "curves.bmp")))
}

func TestSummarize(t *testing.T) {
	s, err := Summarize([]float64{2, 4, 4, 4, 5, 5, 7, 9})
	require.NoError(t, err)
	assert.InDelta(t, 5, s.Mean, 1e-12)
	assert.InDelta(t, 2, s.StdDev, 1e-12)
	assert.Equal(t, 2.0, s.Min)
	assert.Equal(t, 9.0, s.Max)

	_, err = Summarize(nil)
	assert.Error(t, err)
}
