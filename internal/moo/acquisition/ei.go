// Package acquisition provides the scoring functions used to pick the
// next candidate design from a surrogate posterior.
package acquisition

import (
	"gonum.org/v1/gonum/stat/distuv"
)

// ExpectedImprovement scores a candidate by the expected amount it
// improves on the incumbent under a Gaussian posterior. All objectives
// are minimized internally, so improvement means a lower value.
type ExpectedImprovement struct {
	// incumbent value to improve on
	best float64
	// exploration margin, larger values favor uncertain regions
	xi float64
}

// NewExpectedImprovement creates an EI function around the given
// incumbent.
func NewExpectedImprovement(best, xi float64) *ExpectedImprovement {
	return &ExpectedImprovement{best: best, xi: xi}
}

// Compute evaluates EI for a posterior with the given mean and
// standard deviation. The result is non-negative.
func (ei *ExpectedImprovement) Compute(mu, sigma float64) float64 {
	improvement := ei.best - mu - ei.xi
	if improvement <= 0 && sigma <= 1e-10 {
		return 0
	}
	if sigma <= 1e-10 {
		return improvement
	}

	z := improvement / sigma
	norm := distuv.UnitNormal
	return improvement*norm.CDF(z) + sigma*norm.Prob(z)
}

// Gradient evaluates dEI given the derivatives of the posterior mean
// and standard deviation along one coordinate.
func (ei *ExpectedImprovement) Gradient(mu, dmu, sigma, dsigma float64) float64 {
	if sigma <= 1e-10 {
		return -dmu
	}
	improvement := ei.best - mu - ei.xi
	if improvement <= 0 {
		return 0
	}

	z := improvement / sigma
	norm := distuv.UnitNormal
	return -norm.CDF(z)*dmu + norm.Prob(z)*dsigma
}

// UpdateBest replaces the incumbent.
func (ei *ExpectedImprovement) UpdateBest(best float64) { ei.best = best }

// SetXi replaces the exploration margin.
func (ei *ExpectedImprovement) SetXi(xi float64) { ei.xi = xi }

// Best returns the current incumbent.
func (ei *ExpectedImprovement) Best() float64 { return ei.best }
