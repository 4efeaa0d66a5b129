package optimizers

import (
	"math"

	"github.com/pkg/errors"
	bs "github.com/sharnoff/seqtune"
)

type adamState struct {
	// first and second moment estimates
	m, v []float64

	// number of steps taken
	t int
}

type adam struct {
	beta1, beta2, epsilon float64

	states map[*bs.Param]*adamState
}

// Adam returns the Adam optimizer, which implements seqtune.Optimizer. Moment estimates are kept
// separately for each Param it is run on. The coefficients default to those given by SetDefault,
// and can be changed with Betas and Epsilon.
func Adam() *adam {
	return &adam{
		beta1:   defaultValue["adam-beta1"],
		beta2:   defaultValue["adam-beta2"],
		epsilon: defaultValue["adam-epsilon"],
		states:  make(map[*bs.Param]*adamState),
	}
}

// Betas sets the decay rates of the first and second moment estimates
func (a *adam) Betas(beta1, beta2 float64) *adam {
	a.beta1, a.beta2 = beta1, beta2
	return a
}

// Epsilon sets the term added to the denominator of each update
func (a *adam) Epsilon(e float64) *adam {
	a.epsilon = e
	return a
}

func (a *adam) TypeString() string {
	return "adam"
}

func (a *adam) Run(p *bs.Param, learningRate float64) error {
	ws, grads := p.Weights(), p.Gradients()

	st, ok := a.states[p]
	if !ok {
		st = &adamState{m: make([]float64, len(ws)), v: make([]float64, len(ws))}
		a.states[p] = st
	} else if len(st.m) != len(ws) {
		return errors.Errorf("Param %q changed size between steps (%d != %d)", p.Name, len(st.m), len(ws))
	}

	st.t++
	c1 := 1 - math.Pow(a.beta1, float64(st.t))
	c2 := 1 - math.Pow(a.beta2, float64(st.t))

	for i, g := range grads {
		st.m[i] = a.beta1*st.m[i] + (1-a.beta1)*g
		st.v[i] = a.beta2*st.v[i] + (1-a.beta2)*g*g

		mHat := st.m[i] / c1
		vHat := st.v[i] / c2
		ws[i] -= learningRate * mHat / (math.Sqrt(vHat) + a.epsilon)
	}

	return nil
}
