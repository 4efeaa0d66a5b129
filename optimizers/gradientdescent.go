package optimizers

import (
	bs "github.com/sharnoff/seqtune"
)

type gradientdescent int8

// GradientDescent returns plain stochastic gradient descent, which implements seqtune.Optimizer.
func GradientDescent() gradientdescent {
	return gradientdescent(0)
}

// SGD is a proxy for GradientDescent
func SGD() gradientdescent {
	return GradientDescent()
}

func (g gradientdescent) TypeString() string {
	return "sgd"
}

func (g gradientdescent) Run(p *bs.Param, learningRate float64) error {
	p.W.Apply(func(y, x int, w float64) float64 {
		return w - learningRate*p.Grad.At(y, x)
	}, p.W)

	return nil
}
