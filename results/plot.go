package results

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/pkg/errors"
	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/plotutil"
	"gonum.org/v1/plot/vg"
	"gonum.org/v1/plot/vg/draw"
)

const (
	plotWidth  = 6 * vg.Inch
	plotHeight = 4 * vg.Inch
)

func series(values []float64) plotter.XYs {
	xys := make(plotter.XYs, len(values))
	for i, v := range values {
		xys[i].X = float64(i)
		xys[i].Y = v
	}
	return xys
}

func curves(title, yLabel string, lines map[string][]float64, order []string) (*plot.Plot, error) {
	p := plot.New()
	p.Title.Text = title
	p.X.Label.Text = "epoch"
	p.Y.Label.Text = yLabel

	for i, name := range order {
		l, err := plotter.NewLine(series(lines[name]))
		if err != nil {
			return nil, errors.Wrapf(err, "Couldn't plot %s", name)
		}

		l.Color = plotutil.Color(i)
		p.Add(l)
		p.Legend.Add(name, l)
	}

	return p, nil
}

// PlotCurves draws the loss and accuracy of each epoch side by side, and saves the image at path.
// The format is taken from the extension of path (e.g. ".png", ".svg").
func PlotCurves(h History, path string) error {
	if h.Epochs() == 0 {
		return errors.New("No epochs to plot")
	}

	loss, err := curves("Loss", "loss", map[string][]float64{"train": h.TrainLosses, "val": h.ValLosses}, []string{"train", "val"})
	if err != nil {
		return err
	}

	acc, err := curves("Accuracy", "accuracy", map[string][]float64{"train": h.TrainAccs, "val": h.ValAccs}, []string{"train", "val"})
	if err != nil {
		return err
	}

	format := strings.TrimPrefix(strings.ToLower(filepath.Ext(path)), ".")
	img, err := draw.NewFormattedCanvas(2*plotWidth, plotHeight, format)
	if err != nil {
		return errors.Wrapf(err, "Couldn't plot to %q", path)
	}

	canvases := plot.Align([][]*plot.Plot{{loss, acc}}, draw.Tiles{Rows: 1, Cols: 2}, draw.New(img))
	loss.Draw(canvases[0][0])
	acc.Draw(canvases[0][1])

	f, err := os.Create(path)
	if err != nil {
		return errors.Wrapf(err, "Couldn't create plot file")
	}

	if _, err = img.WriteTo(f); err != nil {
		f.Close()
		return errors.Wrapf(err, "Couldn't write plot")
	}

	return f.Close()
}
