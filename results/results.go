// Package results records the progress of experiments: a Record is saved after every epoch of a
// search, and the per-epoch metrics of a finished run can be exported as CSV, plotted, and
// summarized.
package results

import (
	"time"

	"github.com/sharnoff/seqtune/bayesopt"
)

// Record is the state of a run after a single epoch.
type Record struct {
	RunID string `json:"run_id"`
	Epoch int    `json:"epoch"`

	// Observations holds every point evaluated by the search so far.
	Observations []bayesopt.Observation `json:"observations"`
	Best         bayesopt.Observation   `json:"best"`

	// metrics of the last training pass of the epoch, and of validation afterwards
	TrainLoss float64 `json:"train_loss"`
	TrainAcc  float64 `json:"train_acc"`
	ValLoss   float64 `json:"val_loss"`
	ValAcc    float64 `json:"val_acc"`

	Elapsed time.Duration `json:"elapsed"`

	// ModelChecksum identifies the weights of the model at the end of the epoch.
	ModelChecksum uint64 `json:"model_checksum"`
}

// History is the ordered per-epoch metrics of a run.
type History struct {
	TrainLosses []float64 `json:"train_losses"`
	ValLosses   []float64 `json:"val_losses"`
	TrainAccs   []float64 `json:"train_accs"`
	ValAccs     []float64 `json:"val_accs"`
}

// Append adds the metrics of one epoch.
func (h *History) Append(trainLoss, valLoss, trainAcc, valAcc float64) {
	h.TrainLosses = append(h.TrainLosses, trainLoss)
	h.ValLosses = append(h.ValLosses, valLoss)
	h.TrainAccs = append(h.TrainAccs, trainAcc)
	h.ValAccs = append(h.ValAccs, valAcc)
}

// Epochs returns the number of epochs recorded.
func (h *History) Epochs() int {
	return len(h.TrainLosses)
}

// Saver persists Records as they are produced.
type Saver interface {
	Save(r Record) error
}

type discard struct{}

// Discard is a Saver that does nothing.
var Discard Saver = discard{}

func (discard) Save(Record) error {
	return nil
}
