package acquisition

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"gonum.org/v1/gonum/stat/distuv"
)

func TestComputeImprovement(t *testing.T) {
	ei := NewExpectedImprovement(1.0, 0.0)

	// mu well below the incumbent with some uncertainty
	got := ei.Compute(0.0, 0.5)
	z := 1.0 / 0.5
	want := 1.0*distuv.UnitNormal.CDF(z) + 0.5*distuv.UnitNormal.Prob(z)
	assert.InDelta(t, want, got, 1e-12)
}

func TestComputeNoImprovementZeroSigma(t *testing.T) {
	ei := NewExpectedImprovement(1.0, 0.0)
	assert.Zero(t, ei.Compute(2.0, 0.0))
}

func TestComputeCertainImprovement(t *testing.T) {
	// With zero uncertainty EI reduces to the plain improvement.
	ei := NewExpectedImprovement(1.0, 0.0)
	assert.InDelta(t, 0.7, ei.Compute(0.3, 0.0), 1e-12)
}

func TestComputeNonNegative(t *testing.T) {
	ei := NewExpectedImprovement(0.0, 0.0)
	for _, mu := range []float64{-2, -0.5, 0, 0.5, 2} {
		for _, sigma := range []float64{0, 0.1, 1, 10} {
			assert.GreaterOrEqual(t, ei.Compute(mu, sigma), 0.0,
				"mu=%v sigma=%v", mu, sigma)
		}
	}
}

func TestXiShiftsThreshold(t *testing.T) {
	plain := NewExpectedImprovement(1.0, 0.0)
	cautious := NewExpectedImprovement(1.0, 0.5)
	assert.Greater(t, plain.Compute(0.5, 0.2), cautious.Compute(0.5, 0.2))
}

func TestExplorationRewardsUncertainty(t *testing.T) {
	ei := NewExpectedImprovement(1.0, 0.0)
	// Same mean slightly above the incumbent: only the uncertain
	// candidate has appreciable EI.
	certain := ei.Compute(1.1, 1e-12)
	uncertain := ei.Compute(1.1, 1.0)
	assert.Less(t, certain, uncertain)
}

func TestGradientZeroSigma(t *testing.T) {
	ei := NewExpectedImprovement(1.0, 0.0)
	assert.InDelta(t, -2.0, ei.Gradient(0.0, 2.0, 0.0, 0.0), 1e-12)
}

func TestGradientMatchesFiniteDifference(t *testing.T) {
	ei := NewExpectedImprovement(1.0, 0.0)
	mu, sigma := 0.4, 0.3
	h := 1e-7

	dMu := (ei.Compute(mu+h, sigma) - ei.Compute(mu-h, sigma)) / (2 * h)
	dSigma := (ei.Compute(mu, sigma+h) - ei.Compute(mu, sigma-h)) / (2 * h)

	assert.InDelta(t, dMu, ei.Gradient(mu, 1.0, sigma, 0.0), 1e-5)
	assert.InDelta(t, dSigma, ei.Gradient(mu, 0.0, sigma, 1.0), 1e-5)
}

func TestUpdateBest(t *testing.T) {
	ei := NewExpectedImprovement(math.Inf(1), 0.0)
	ei.UpdateBest(3.0)
	assert.Equal(t, 3.0, ei.Best())
}
