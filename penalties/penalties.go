// Package penalties provides weight regularization: each Penalty adds the gradient of its term to
// a Param's gradient before the Optimizer is run.
package penalties

import (
	"math"

	bs "github.com/sharnoff/seqtune"
)

// l1 penalizes the absolute value of each weight, pushing small weights to exactly zero.
type l1 struct{ λ float64 }

// L1 returns the lasso penalty λ·|w|. λ should be small and positive.
func L1(λ float64) *l1 {
	return &l1{λ}
}

func (p *l1) TypeString() string {
	return "l1"
}

func (p *l1) Penalize(param *bs.Param) {
	addGrad(param, func(w float64) float64 { return p.λ * sign(w) })
}

// l2 penalizes the square of each weight.
type l2 struct{ λ float64 }

// L2 returns the ridge penalty λ·w². λ should be small and positive.
func L2(λ float64) *l2 {
	return &l2{λ}
}

func (p *l2) TypeString() string {
	return "l2"
}

func (p *l2) Penalize(param *bs.Param) {
	addGrad(param, func(w float64) float64 { return 2 * p.λ * w })
}

type elasticNet struct {
	α, λ float64
}

// ElasticNet mixes the two: λ·(α·|w| + (1-α)·w²), with 0 ≤ α ≤ 1. α = 1 is L1 and α = 0 is L2.
func ElasticNet(α, λ float64) *elasticNet {
	return &elasticNet{α: α, λ: λ}
}

func (p *elasticNet) TypeString() string {
	return "elastic-net"
}

func (p *elasticNet) Penalize(param *bs.Param) {
	addGrad(param, func(w float64) float64 {
		return p.λ * (p.α*sign(w) + (1-p.α)*2*w)
	})
}

// the subgradient at zero is taken to be zero
func sign(w float64) float64 {
	if w == 0 {
		return 0
	}
	return math.Copysign(1, w)
}

func addGrad(p *bs.Param, grad func(w float64) float64) {
	gs := p.Gradients()
	for i, w := range p.Weights() {
		gs[i] += grad(w)
	}
}
