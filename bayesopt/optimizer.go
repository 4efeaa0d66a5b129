// Package bayesopt maximizes black-box functions over bounded real-valued spaces, using a Gaussian
// process as a surrogate for the function and an acquisition function to choose where to sample.
//
// Each evaluation is an expensive call to the objective (in this module, a full training sweep), so the
// surrogate is refit after every one.
package bayesopt

import (
	"math"
	"math/rand"

	"github.com/pkg/errors"
	"github.com/sharnoff/seqtune/hyperparams"
	"go.uber.org/zap"
	"gonum.org/v1/gonum/optimize"
)

// Point is a set of named parameter values.
type Point map[string]float64

// Objective is the function to maximize. It is called once for each evaluated Point.
type Objective func(p Point) (float64, error)

// Observation is a single evaluated Point and the value of the Objective there.
type Observation struct {
	Point Point   `json:"point"`
	Value float64 `json:"value"`
}

const (
	defaultWarmup int = 1000

	// the number of function evaluations allowed to refine the best warmup candidate
	refineEvaluations int = 200
)

// Optimizer is a Bayesian optimizer. Observations are kept across calls to Maximize.
//
// An Optimizer is not safe for concurrent use.
type Optimizer struct {
	f     Objective
	space *hyperparams.Space

	acq     Acquisition
	nWarmup int
	rng     *rand.Rand
	logger  *zap.Logger

	xs  [][]float64
	obs []Observation
	gp  *gp
}

// Option configures an Optimizer.
type Option func(*Optimizer)

// WithAcquisition sets the acquisition function. The default is ExpectedImprovement(0.01).
func WithAcquisition(a Acquisition) Option {
	return func(o *Optimizer) { o.acq = a }
}

// WithWarmup sets the number of random candidates scored by the acquisition function for each
// suggestion. Values less than one are ignored.
func WithWarmup(n int) Option {
	return func(o *Optimizer) {
		if n > 0 {
			o.nWarmup = n
		}
	}
}

// WithRand sets the source of randomness. The default is seeded with 1.
func WithRand(rng *rand.Rand) Option {
	return func(o *Optimizer) { o.rng = rng }
}

// WithLogger sets the logger that each evaluation is reported to.
func WithLogger(l *zap.Logger) Option {
	return func(o *Optimizer) { o.logger = l }
}

// New returns an Optimizer for f over the given bounds. Bounds that are a single point are
// allowed; that dimension is then always given its one value.
func New(f Objective, bounds map[string]hyperparams.Bound, opts ...Option) (*Optimizer, error) {
	if f == nil {
		return nil, errors.New("Objective must not be nil")
	}

	space, err := hyperparams.NewSpace(bounds)
	if err != nil {
		return nil, err
	}

	o := &Optimizer{
		f:       f,
		space:   space,
		acq:     ExpectedImprovement(0.01),
		nWarmup: defaultWarmup,
		logger:  zap.NewNop(),
		gp:      newGP(),
	}

	for _, opt := range opts {
		opt(o)
	}

	if o.rng == nil {
		o.rng = rand.New(rand.NewSource(1))
	}

	return o, nil
}

// Maximize evaluates initPoints uniformly random points, then nIter points chosen by the acquisition
// function. If there are no observations yet and initPoints is zero, one random point is evaluated
// first so that the surrogate has something to fit.
func (o *Optimizer) Maximize(initPoints, nIter int) error {
	if initPoints < 0 || nIter < 0 {
		return errors.Errorf("Counts must not be negative (init points %d, iterations %d)", initPoints, nIter)
	}

	if len(o.obs) == 0 && initPoints == 0 && nIter > 0 {
		initPoints = 1
	}

	for i := 0; i < initPoints; i++ {
		if _, err := o.evaluate(o.space.Sample(o.rng), "random"); err != nil {
			return err
		}
	}

	for i := 0; i < nIter; i++ {
		x, err := o.suggest()
		if err != nil {
			return err
		}

		if _, err := o.evaluate(x, o.acq.TypeString()); err != nil {
			return err
		}
	}

	return nil
}

// Evaluate calls the Objective at the given Point and records the result. Every dimension of the
// space must be present; values outside the bounds are clipped.
func (o *Optimizer) Evaluate(p Point) (float64, error) {
	x, err := o.space.FromMap(p)
	if err != nil {
		return 0, err
	}

	o.space.Clip(x)
	return o.evaluate(x, "given")
}

func (o *Optimizer) evaluate(x []float64, source string) (float64, error) {
	p := Point(o.space.ToMap(x))

	v, err := o.f(p)
	if err != nil {
		return 0, errors.Wrapf(err, "Objective failed at %v", p)
	} else if math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, errors.Errorf("Objective gave non-finite value %v at %v", v, p)
	}

	o.xs = append(o.xs, o.space.Normalize(x))
	o.obs = append(o.obs, Observation{Point: p, Value: v})

	fields := []zap.Field{
		zap.Int("iteration", len(o.obs)),
		zap.String("source", source),
		zap.Float64("value", v),
	}
	for _, n := range o.space.Names() {
		fields = append(fields, zap.Float64(n, p[n]))
	}
	o.logger.Debug("Evaluated point", fields...)

	return v, nil
}

// suggest returns the point in the space that maximizes the acquisition function, given the
// current observations.
func (o *Optimizer) suggest() ([]float64, error) {
	ys := make([]float64, len(o.obs))
	for i, ob := range o.obs {
		ys[i] = ob.Value
	}

	if err := o.gp.fit(o.xs, ys); err != nil {
		return nil, errors.Wrapf(err, "Failed to fit surrogate")
	}

	best, _ := o.Max()
	bestStd := o.gp.standardize(best.Value)

	dims := o.space.Dims()
	clip := func(u []float64) []float64 {
		c := make([]float64, dims)
		for i, v := range u {
			c[i] = math.Min(math.Max(v, 0), 1)
			if o.space.Bound(i).IsConstant() {
				c[i] = 0
			}
		}
		return c
	}

	score := func(u []float64) float64 {
		mean, std := o.gp.predict(clip(u))
		return o.acq.Score(mean, std, bestStd)
	}

	var bestU []float64
	bestScore := math.Inf(-1)
	for i := 0; i < o.nWarmup; i++ {
		u := o.space.Normalize(o.space.Sample(o.rng))
		if s := score(u); s > bestScore {
			bestU, bestScore = u, s
		}
	}

	// refine locally from the best candidate. Failure here is not fatal: the candidate stands.
	problem := optimize.Problem{Func: func(u []float64) float64 { return -score(u) }}
	settings := &optimize.Settings{FuncEvaluations: refineEvaluations}
	if res, err := optimize.Minimize(problem, bestU, settings, &optimize.NelderMead{}); res != nil && -res.F > bestScore {
		if err != nil {
			o.logger.Debug("Refinement stopped early", zap.Error(err))
		}
		bestU = res.X
	}

	u := clip(bestU)
	x := make([]float64, dims)
	for i := range u {
		x[i] = o.space.Bound(i).Denormalize(u[i])
	}

	o.space.Clip(x)
	return x, nil
}

// Max returns the Observation with the largest value. The earliest is returned if there are ties.
// The boolean is false if there are no observations.
func (o *Optimizer) Max() (Observation, bool) {
	if len(o.obs) == 0 {
		return Observation{}, false
	}

	best := o.obs[0]
	for _, ob := range o.obs[1:] {
		if ob.Value > best.Value {
			best = ob
		}
	}

	return best, true
}

// Observations returns every Observation, in the order that they were evaluated.
func (o *Optimizer) Observations() []Observation {
	out := make([]Observation, len(o.obs))
	copy(out, o.obs)
	return out
}

// Names returns the names of the dimensions of the space, sorted.
func (o *Optimizer) Names() []string {
	return o.space.Names()
}
