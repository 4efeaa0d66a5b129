package operators

import (
	"fmt"
	"math"
	"math/rand"

	"github.com/pkg/errors"
	bs "github.com/sharnoff/seqtune"
	"gonum.org/v1/gonum/mat"
)

// State is the hidden state of a stacked LSTM: one (batch × hidden) matrix per layer for each of
// the hidden output H and the cell state C.
//
// A State is never stored by the LSTM between calls; it is given to and returned from each call
// to ForwardState, so that the caller decides where it flows.
type State struct {
	H []*mat.Dense
	C []*mat.Dense
}

// Batch returns the batch size that the State is sized for.
func (s State) Batch() int {
	if len(s.H) == 0 {
		return 0
	}

	r, _ := s.H[0].Dims()
	return r
}

type lstmLayer struct {
	in int

	// gates are ordered: input, forget, cell, output
	wih *bs.Param // (4·hidden × in)
	whh *bs.Param // (4·hidden × hidden)
	b   *bs.Param // (1 × 4·hidden)
}

// values cached for a single layer at a single time step
type lstmStep struct {
	x, hPrev, cPrev *mat.Dense
	i, f, g, o      *mat.Dense
	c, tanhC        *mat.Dense
}

type lstm struct {
	in, hidden int
	layers     []lstmLayer

	init bs.Initializer

	// cached by ForwardState: cache[layer][step]
	cache [][]lstmStep
	batch int
}

// LSTM returns a stacked long short-term memory Layer, consuming (batch, time, in) and producing
// the (batch, time, hidden) outputs of the final layer. Each layer after the first takes the
// outputs of the previous one as its input sequence.
//
// LSTM will panic if any argument is less than one.
func LSTM(in, hidden, numLayers int) *lstm {
	if in < 1 || hidden < 1 || numLayers < 1 {
		panic(fmt.Sprintf("LSTM: all sizes must be >= 1 (in %d, hidden %d, layers %d)", in, hidden, numLayers))
	}

	l := &lstm{in: in, hidden: hidden, layers: make([]lstmLayer, numLayers)}
	for i := range l.layers {
		layerIn := hidden
		if i == 0 {
			layerIn = in
		}

		l.layers[i] = lstmLayer{
			in:  layerIn,
			wih: bs.NewParam(fmt.Sprintf("lstm-%d-input-weights", i), 4*hidden, layerIn),
			whh: bs.NewParam(fmt.Sprintf("lstm-%d-hidden-weights", i), 4*hidden, hidden),
			b:   bs.NewParam(fmt.Sprintf("lstm-%d-biases", i), 1, 4*hidden),
		}
	}

	return l
}

// Init sets the Initializer for every weight of the LSTM.
func (l *lstm) Init(i bs.Initializer) *lstm {
	l.init = i
	return l
}

func (l *lstm) TypeString() string {
	return "lstm"
}

// NumLayers returns the depth of the stack
func (l *lstm) NumLayers() int {
	return len(l.layers)
}

// Initialize sets all weights within ±1/√hidden
func (l *lstm) Initialize(rng *rand.Rand) {
	init := initOr(l.init)
	for _, ly := range l.layers {
		for _, p := range []*bs.Param{ly.wih, ly.whh, ly.b} {
			init.Set(rng, l.hidden, 4*l.hidden, p.Weights())
		}
	}
}

func (l *lstm) Params() []*bs.Param {
	ps := make([]*bs.Param, 0, 3*len(l.layers))
	for _, ly := range l.layers {
		ps = append(ps, ly.wih, ly.whh, ly.b)
	}

	return ps
}

// ZeroState returns a State of all zeros, sized for the given batch.
func (l *lstm) ZeroState(batch int) State {
	s := State{H: make([]*mat.Dense, len(l.layers)), C: make([]*mat.Dense, len(l.layers))}
	for i := range l.layers {
		s.H[i] = mat.NewDense(batch, l.hidden, nil)
		s.C[i] = mat.NewDense(batch, l.hidden, nil)
	}

	return s
}

func (l *lstm) checkState(s State, batch int) error {
	if len(s.H) != len(l.layers) || len(s.C) != len(l.layers) {
		return &bs.ShapeError{
			Op:       l.TypeString() + " state",
			Expected: []int{len(l.layers)},
			Actual:   []int{len(s.H), len(s.C)},
		}
	}

	for i := range s.H {
		for _, m := range []*mat.Dense{s.H[i], s.C[i]} {
			if r, c := m.Dims(); r != batch || c != l.hidden {
				return &bs.ShapeError{
					Op:       l.TypeString() + " state",
					Expected: []int{batch, l.hidden},
					Actual:   []int{r, c},
				}
			}
		}
	}

	return nil
}

// Forward is ForwardState with a zero initial state.
func (l *lstm) Forward(x *bs.Tensor, training bool) (*bs.Tensor, error) {
	if len(x.Dims) != 3 {
		return nil, &bs.ShapeError{Op: l.TypeString(), Expected: []int{-1, -1, l.in}, Actual: x.Dims}
	}

	y, _, err := l.ForwardState(x, l.ZeroState(x.Dims[0]))
	return y, err
}

// ForwardState runs the full sequence x through every layer, starting from the given State, and
// returns the outputs of the final layer along with the State after the last time step.
//
// The given State is not modified.
func (l *lstm) ForwardState(x *bs.Tensor, s State) (*bs.Tensor, State, error) {
	if err := x.CheckDims(l.TypeString(), -1, -1, l.in); err != nil {
		return nil, State{}, err
	}

	batch, steps := x.Dims[0], x.Dims[1]
	if err := l.checkState(s, batch); err != nil {
		return nil, State{}, err
	}

	// split the input into one (batch × in) matrix per time step
	inputs := make([]*mat.Dense, steps)
	for t := range inputs {
		inputs[t] = mat.NewDense(batch, l.in, nil)
		for b := 0; b < batch; b++ {
			start := (b*steps + t) * l.in
			copy(inputs[t].RawRowView(b), x.Values[start:start+l.in])
		}
	}

	h := l.hidden
	final := State{H: make([]*mat.Dense, len(l.layers)), C: make([]*mat.Dense, len(l.layers))}
	l.cache = make([][]lstmStep, len(l.layers))

	for li, ly := range l.layers {
		l.cache[li] = make([]lstmStep, steps)
		hPrev, cPrev := s.H[li], s.C[li]

		for t := 0; t < steps; t++ {
			gates := mat.NewDense(batch, 4*h, nil)
			var rec mat.Dense
			gates.Mul(inputs[t], ly.wih.W.T())
			rec.Mul(hPrev, ly.whh.W.T())
			gates.Add(gates, &rec)
			addRow(gates, ly.b.W)

			st := lstmStep{
				x:     inputs[t],
				hPrev: hPrev,
				cPrev: cPrev,
				i:     mat.NewDense(batch, h, nil),
				f:     mat.NewDense(batch, h, nil),
				g:     mat.NewDense(batch, h, nil),
				o:     mat.NewDense(batch, h, nil),
				c:     mat.NewDense(batch, h, nil),
				tanhC: mat.NewDense(batch, h, nil),
			}
			hNext := mat.NewDense(batch, h, nil)

			for b := 0; b < batch; b++ {
				row := gates.RawRowView(b)
				ig, fg, gg, og := st.i.RawRowView(b), st.f.RawRowView(b), st.g.RawRowView(b), st.o.RawRowView(b)
				cp, cn, tc, hn := cPrev.RawRowView(b), st.c.RawRowView(b), st.tanhC.RawRowView(b), hNext.RawRowView(b)

				for j := 0; j < h; j++ {
					ig[j] = logistic(row[j])
					fg[j] = logistic(row[h+j])
					gg[j] = math.Tanh(row[2*h+j])
					og[j] = logistic(row[3*h+j])

					cn[j] = fg[j]*cp[j] + ig[j]*gg[j]
					tc[j] = math.Tanh(cn[j])
					hn[j] = og[j] * tc[j]
				}
			}

			l.cache[li][t] = st
			inputs[t] = hNext
			hPrev, cPrev = hNext, st.c
		}

		final.H[li], final.C[li] = hPrev, cPrev
	}

	// inputs now holds the outputs of the final layer
	y := bs.NewTensor(batch, steps, h)
	for t, m := range inputs {
		for b := 0; b < batch; b++ {
			start := (b*steps + t) * h
			copy(y.Values[start:start+h], m.RawRowView(b))
		}
	}

	l.batch = batch
	return y, final, nil
}

// Backward is BackwardState with no derivative for the final State.
func (l *lstm) Backward(dy *bs.Tensor) (*bs.Tensor, error) {
	dx, _, err := l.BackwardState(dy, State{})
	return dx, err
}

// BackwardState is given the derivatives of the cost w.r.t. the outputs and the final State of the
// most recent call to ForwardState, and returns the derivatives w.r.t. its input sequence and its
// initial State. Gradients of the weights are accumulated.
//
// A State with no matrices is treated as all zeros.
func (l *lstm) BackwardState(dy *bs.Tensor, ds State) (*bs.Tensor, State, error) {
	if l.cache == nil {
		return nil, State{}, errors.Errorf("%s: Backward called before Forward", l.TypeString())
	}

	batch, steps, h := l.batch, len(l.cache[0]), l.hidden
	if err := dy.CheckDims(l.TypeString()+" backward", batch, steps, h); err != nil {
		return nil, State{}, err
	}

	if len(ds.H) == 0 {
		ds = l.ZeroState(batch)
	} else if err := l.checkState(ds, batch); err != nil {
		return nil, State{}, err
	}

	// derivatives w.r.t. the outputs of the current layer, per time step
	dOut := make([]*mat.Dense, steps)
	for t := range dOut {
		dOut[t] = mat.NewDense(batch, h, nil)
		for b := 0; b < batch; b++ {
			start := (b*steps + t) * h
			copy(dOut[t].RawRowView(b), dy.Values[start:start+h])
		}
	}

	initial := State{H: make([]*mat.Dense, len(l.layers)), C: make([]*mat.Dense, len(l.layers))}

	for li := len(l.layers) - 1; li >= 0; li-- {
		ly := l.layers[li]
		dIn := make([]*mat.Dense, steps)

		dhNext := mat.DenseCopyOf(ds.H[li])
		dcNext := mat.DenseCopyOf(ds.C[li])

		for t := steps - 1; t >= 0; t-- {
			st := l.cache[li][t]
			dGates := mat.NewDense(batch, 4*h, nil)

			for b := 0; b < batch; b++ {
				dh, dhn, dcn := dOut[t].RawRowView(b), dhNext.RawRowView(b), dcNext.RawRowView(b)
				ig, fg, gg, og := st.i.RawRowView(b), st.f.RawRowView(b), st.g.RawRowView(b), st.o.RawRowView(b)
				cp, tc := st.cPrev.RawRowView(b), st.tanhC.RawRowView(b)
				row := dGates.RawRowView(b)

				for j := 0; j < h; j++ {
					dH := dh[j] + dhn[j]
					dC := dcn[j] + dH*og[j]*(1-tc[j]*tc[j])

					row[j] = dC * gg[j] * ig[j] * (1 - ig[j])
					row[h+j] = dC * cp[j] * fg[j] * (1 - fg[j])
					row[2*h+j] = dC * ig[j] * (1 - gg[j]*gg[j])
					row[3*h+j] = dH * tc[j] * og[j] * (1 - og[j])

					dcn[j] = dC * fg[j]
				}
			}

			var dw mat.Dense
			dw.Mul(dGates.T(), st.x)
			ly.wih.Grad.Add(ly.wih.Grad, &dw)
			dw.Reset()
			dw.Mul(dGates.T(), st.hPrev)
			ly.whh.Grad.Add(ly.whh.Grad, &dw)
			addColSums(ly.b.Grad, dGates)

			dIn[t] = mat.NewDense(batch, ly.in, nil)
			dIn[t].Mul(dGates, ly.wih.W)
			dhNext.Mul(dGates, ly.whh.W)
		}

		initial.H[li], initial.C[li] = dhNext, dcNext
		dOut = dIn
	}

	dx := bs.NewTensor(batch, steps, l.in)
	for t, m := range dOut {
		for b := 0; b < batch; b++ {
			start := (b*steps + t) * l.in
			copy(dx.Values[start:start+l.in], m.RawRowView(b))
		}
	}

	return dx, initial, nil
}
