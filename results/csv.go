package results

import (
	"io"

	"github.com/gocarina/gocsv"
	"github.com/pkg/errors"
)

type epochRow struct {
	Epoch     int     `csv:"epoch"`
	TrainLoss float64 `csv:"train_loss"`
	ValLoss   float64 `csv:"val_loss"`
	TrainAcc  float64 `csv:"train_acc"`
	ValAcc    float64 `csv:"val_acc"`
}

// WriteEpochCSV writes one row per epoch of the History, with a header.
func WriteEpochCSV(w io.Writer, h History) error {
	rows := make([]*epochRow, h.Epochs())
	for i := range rows {
		rows[i] = &epochRow{
			Epoch:     i,
			TrainLoss: h.TrainLosses[i],
			ValLoss:   h.ValLosses[i],
			TrainAcc:  h.TrainAccs[i],
			ValAcc:    h.ValAccs[i],
		}
	}

	return errors.Wrapf(gocsv.Marshal(&rows, w), "Couldn't write epoch CSV")
}
