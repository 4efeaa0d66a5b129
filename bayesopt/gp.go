package bayesopt

import (
	"math"

	"github.com/pkg/errors"
	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/stat"
)

// default hyperparameters of the Gaussian process, on inputs normalized to the unit hypercube and
// standardized targets
const (
	defaultLengthScale float64 = 0.3
	defaultAlpha       float64 = 1e-6

	// jitter is multiplied by 10 after each failed factorization, up to maxJitter
	initialJitter float64 = 1e-10
	maxJitter     float64 = 1e-2
)

// gp is a Gaussian process regressor with a Matérn 5/2 kernel. Targets are standardized before
// fitting, and predictions are given on that standardized scale.
type gp struct {
	lengthScale float64
	alpha       float64

	xs [][]float64

	// mean and standard deviation used to standardize the targets
	mean, std float64
	ys        []float64

	chol    mat.Cholesky
	weights *mat.VecDense // K⁻¹ y
}

func newGP() *gp {
	return &gp{lengthScale: defaultLengthScale, alpha: defaultAlpha}
}

// Matérn 5/2 with unit variance
func (g *gp) kernel(a, b []float64) float64 {
	var sq float64
	for i := range a {
		d := a[i] - b[i]
		sq += d * d
	}

	r := math.Sqrt(5*sq) / g.lengthScale
	return (1 + r + r*r/3) * math.Exp(-r)
}

// fit conditions the process on the given points and values, replacing any earlier fit.
func (g *gp) fit(xs [][]float64, ys []float64) error {
	n := len(xs)
	if n == 0 || n != len(ys) {
		return errors.Errorf("Cannot fit %d points to %d values", n, len(ys))
	}

	g.mean, g.std = stat.MeanStdDev(ys, nil)
	if n == 1 || !(g.std > 1e-12) {
		g.std = 1
	}

	g.xs = xs
	g.ys = make([]float64, n)
	for i, y := range ys {
		g.ys[i] = (y - g.mean) / g.std
	}

	k := mat.NewSymDense(n, nil)
	for i := 0; i < n; i++ {
		for j := i; j < n; j++ {
			k.SetSym(i, j, g.kernel(xs[i], xs[j]))
		}
	}

	// duplicate points make K singular; alpha usually covers it, but escalate if not
	jitter := 0.0
	for {
		noisy := mat.NewSymDense(n, nil)
		noisy.CopySym(k)
		for i := 0; i < n; i++ {
			noisy.SetSym(i, i, k.At(i, i)+g.alpha+jitter)
		}

		if g.chol.Factorize(noisy) {
			break
		}

		if jitter == 0 {
			jitter = initialJitter
		} else if jitter *= 10; jitter > maxJitter {
			return errors.New("Covariance matrix is not positive definite")
		}
	}

	g.weights = mat.NewVecDense(n, nil)
	if err := g.chol.SolveVecTo(g.weights, mat.NewVecDense(n, g.ys)); err != nil {
		return errors.Wrapf(err, "Failed to solve for GP weights")
	}

	return nil
}

// predict returns the posterior mean and standard deviation at x, on the standardized scale.
func (g *gp) predict(x []float64) (mean, std float64) {
	n := len(g.xs)
	kStar := mat.NewVecDense(n, nil)
	for i, xi := range g.xs {
		kStar.SetVec(i, g.kernel(x, xi))
	}

	mean = mat.Dot(kStar, g.weights)

	var v mat.VecDense
	if err := g.chol.SolveVecTo(&v, kStar); err != nil {
		return mean, 0
	}

	variance := g.kernel(x, x) - mat.Dot(kStar, &v)
	if variance < 0 {
		variance = 0
	}

	return mean, math.Sqrt(variance)
}

// standardize maps a raw target value onto the scale used by predict.
func (g *gp) standardize(y float64) float64 {
	return (y - g.mean) / g.std
}
