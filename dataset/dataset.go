// Package dataset provides windowed time-series datasets and the batch iteration over them.
//
// A dataset is a table of rows, each holding a vector of numeric features and an integer class
// label. Each example is a window of consecutive rows, with the labels of the rows immediately
// after the window as its targets.
package dataset

import (
	"io"
	"math"
	"os"
	"strconv"

	"github.com/gocarina/gocsv"
	"github.com/pkg/errors"
	bs "github.com/sharnoff/seqtune"
)

// Datum is a single example: a window of inputs and the labels that follow it.
type Datum struct {
	// Inputs holds the window, row-major: time × features.
	Inputs []float64

	// Targets holds the labels of the YFrames rows after the window. Targets[0] is the label
	// that the example is scored against.
	Targets []int
}

// Label returns the class label that the Datum is scored against.
func (d Datum) Label() int {
	return d.Targets[0]
}

// Supplier is the source of examples for a Loader.
type Supplier interface {
	// Len returns the number of examples.
	Len() int

	// Get returns the i'th example, for 0 <= i < Len().
	Get(i int) (Datum, error)

	// InputDim returns the number of features at each step of a window.
	InputDim() int

	// WindowLen returns the number of steps in each window.
	WindowLen() int
}

// Options determines how rows are cut into windows.
type Options struct {
	// StrLen is the number of rows in each window.
	StrLen int
	// YFrames is the number of rows after each window whose labels form its targets.
	YFrames int
	// Stride is the number of rows between the starts of consecutive windows. Zero means one.
	Stride int
	// LabelColumn is the name of the CSV column holding labels. Empty means "label".
	LabelColumn string
}

func (o Options) withDefaults() Options {
	if o.Stride == 0 {
		o.Stride = 1
	}
	if o.LabelColumn == "" {
		o.LabelColumn = "label"
	}

	return o
}

func (o Options) validate() error {
	switch {
	case o.StrLen < 1:
		return &bs.ConfigError{Field: "str_len", Value: o.StrLen, Reason: "Must be at least 1"}
	case o.YFrames < 1:
		return &bs.ConfigError{Field: "y_frames", Value: o.YFrames, Reason: "Must be at least 1"}
	case o.Stride < 1:
		return &bs.ConfigError{Field: "stride", Value: o.Stride, Reason: "Must be at least 1"}
	}

	return nil
}

// NumDataset is an in-memory Supplier of windows over a table of numeric rows.
type NumDataset struct {
	opts     Options
	features []string
	rows     [][]float64
	labels   []int
}

// New returns the NumDataset windowing the given rows, where labels[i] is the label of rows[i].
// Every row must have the same, non-zero number of features.
func New(rows [][]float64, labels []int, opts Options) (*NumDataset, error) {
	opts = opts.withDefaults()
	if err := opts.validate(); err != nil {
		return nil, err
	}

	if len(rows) != len(labels) {
		return nil, errors.Errorf("Number of rows and labels differ (%d != %d)", len(rows), len(labels))
	} else if len(rows) == 0 {
		return nil, bs.ErrEmptyDataset
	}

	width := len(rows[0])
	if width == 0 {
		return nil, errors.New("Rows have no features")
	}
	for i, r := range rows {
		if len(r) != width {
			return nil, errors.Errorf("Row %d has %d features, expected %d", i, len(r), width)
		}
	}

	for i, l := range labels {
		if l < 0 {
			return nil, errors.Errorf("Row %d has negative label %d", i, l)
		}
	}

	d := &NumDataset{opts: opts, rows: rows, labels: labels}
	if d.Len() == 0 {
		return nil, errors.Wrapf(bs.ErrEmptyDataset, "%d rows is too few for windows of %d + %d",
			len(rows), opts.StrLen, opts.YFrames)
	}

	return d, nil
}

// Load reads a CSV file with a header row. See ReadCSV.
func Load(path string, opts Options) (*NumDataset, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, errors.Wrapf(err, "Couldn't open dataset")
	}
	defer f.Close()

	d, err := ReadCSV(f, opts)
	return d, errors.Wrapf(err, "Couldn't load dataset %q", path)
}

// ReadCSV reads a dataset from CSV with a header row. The column named by opts.LabelColumn holds
// integer class labels; every other column is a numeric feature, in the order of the header.
func ReadCSV(r io.Reader, opts Options) (*NumDataset, error) {
	opts = opts.withDefaults()

	records, err := gocsv.LazyCSVReader(r).ReadAll()
	if err != nil {
		return nil, errors.Wrapf(err, "Failed to read CSV")
	} else if len(records) < 2 {
		return nil, bs.ErrEmptyDataset
	}

	header := records[0]
	labelCol := -1
	var features []string
	for i, name := range header {
		if name == opts.LabelColumn {
			labelCol = i
		} else {
			features = append(features, name)
		}
	}

	if labelCol == -1 {
		return nil, &bs.ConfigError{Field: "label_column", Value: opts.LabelColumn, Reason: "Column not present in header"}
	}

	rows := make([][]float64, 0, len(records)-1)
	labels := make([]int, 0, len(records)-1)
	for line, rec := range records[1:] {
		if len(rec) != len(header) {
			return nil, errors.Errorf("Line %d: has %d fields, header has %d", line+2, len(rec), len(header))
		}

		row := make([]float64, 0, len(features))
		for i, field := range rec {
			v, err := strconv.ParseFloat(field, 64)
			if err != nil {
				return nil, errors.Wrapf(err, "Line %d: column %q", line+2, header[i])
			}

			if i == labelCol {
				if v != math.Trunc(v) {
					return nil, errors.Errorf("Line %d: label %v is not an integer", line+2, v)
				}
				labels = append(labels, int(v))
			} else {
				row = append(row, v)
			}
		}

		rows = append(rows, row)
	}

	d, err := New(rows, labels, opts)
	if err != nil {
		return nil, err
	}

	d.features = features
	return d, nil
}

// Features returns the names of the feature columns, if the NumDataset was read from CSV.
func (d *NumDataset) Features() []string {
	return d.features
}

// Len returns the number of complete windows.
func (d *NumDataset) Len() int {
	span := d.opts.StrLen + d.opts.YFrames
	if len(d.rows) < span {
		return 0
	}

	return (len(d.rows)-span)/d.opts.Stride + 1
}

func (d *NumDataset) InputDim() int {
	return len(d.rows[0])
}

func (d *NumDataset) WindowLen() int {
	return d.opts.StrLen
}

// Get returns a copy of the i'th window.
func (d *NumDataset) Get(i int) (Datum, error) {
	if i < 0 || i >= d.Len() {
		return Datum{}, errors.Errorf("Window index %d out of range [0, %d)", i, d.Len())
	}

	start := i * d.opts.Stride
	width := d.InputDim()

	datum := Datum{
		Inputs:  make([]float64, d.opts.StrLen*width),
		Targets: make([]int, d.opts.YFrames),
	}

	for t := 0; t < d.opts.StrLen; t++ {
		copy(datum.Inputs[t*width:], d.rows[start+t])
	}
	copy(datum.Targets, d.labels[start+d.opts.StrLen:])

	return datum, nil
}
