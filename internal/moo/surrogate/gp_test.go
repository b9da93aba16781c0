package surrogate

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/mat"

	"github.com/ppadillaq/sammoo/internal/moo/kernels"
)

func trainingData() (*mat.Dense, *mat.VecDense) {
	// y = x^2 sampled on a coarse grid
	xs := []float64{-2, -1, 0, 1, 2}
	x := mat.NewDense(len(xs), 1, nil)
	y := mat.NewVecDense(len(xs), nil)
	for i, v := range xs {
		x.Set(i, 0, v)
		y.SetVec(i, v*v)
	}
	return x, y
}

func TestFitAndPredict(t *testing.T) {
	gp := NewGP(kernels.NewRBF(1.0, 1.0), 1e-6, nil)
	x, y := trainingData()
	require.NoError(t, gp.Fit(x, y))
	require.True(t, gp.Trained())

	// Posterior mean should reproduce training targets closely.
	for i := 0; i < y.Len(); i++ {
		mean, variance, err := gp.Predict(x.RawRowView(i))
		require.NoError(t, err)
		assert.InDelta(t, y.AtVec(i), mean, 0.05)
		assert.Less(t, variance, 0.01, "variance at a training point should be near zero")
	}

	// Far from the data the variance grows toward the prior.
	_, farVar, err := gp.Predict([]float64{10})
	require.NoError(t, err)
	assert.Greater(t, farVar, 0.5)
}

func TestPredictUntrained(t *testing.T) {
	gp := NewGP(kernels.NewMatern52(1.0, 1.0), 1e-6, nil)
	_, _, err := gp.Predict([]float64{0})
	assert.Error(t, err)
}

func TestFitDimensionMismatch(t *testing.T) {
	gp := NewGP(kernels.NewRBF(1.0, 1.0), 1e-6, nil)
	x := mat.NewDense(3, 1, []float64{0, 1, 2})
	y := mat.NewVecDense(2, []float64{0, 1})
	assert.Error(t, gp.Fit(x, y))
}

func TestFitNil(t *testing.T) {
	gp := NewGP(kernels.NewRBF(1.0, 1.0), 1e-6, nil)
	assert.Error(t, gp.Fit(nil, nil))
}

func TestPredictWrongFeatureCount(t *testing.T) {
	gp := NewGP(kernels.NewRBF(1.0, 1.0), 1e-6, nil)
	x, y := trainingData()
	require.NoError(t, gp.Fit(x, y))

	_, _, err := gp.Predict([]float64{0, 0})
	assert.Error(t, err)
}

func TestDuplicatePointsStillFactorize(t *testing.T) {
	// Repeated rows make the kernel matrix singular without jitter.
	gp := NewGP(kernels.NewRBF(1.0, 1.0), 0, nil)
	x := mat.NewDense(4, 1, []float64{1, 1, 2, 2})
	y := mat.NewVecDense(4, []float64{1, 1, 4, 4})
	require.NoError(t, gp.Fit(x, y))

	mean, _, err := gp.Predict([]float64{1})
	require.NoError(t, err)
	assert.InDelta(t, 1.0, mean, 0.1)
}

func TestPredictBatch(t *testing.T) {
	gp := NewGP(kernels.NewMatern52(1.0, 1.0), 1e-6, nil)
	x, y := trainingData()
	require.NoError(t, gp.Fit(x, y))

	test := mat.NewDense(3, 1, []float64{-1.5, 0, 1.5})
	means, variances, err := gp.PredictBatch(test)
	require.NoError(t, err)
	require.Len(t, means, 3)
	require.Len(t, variances, 3)
	for _, v := range variances {
		assert.GreaterOrEqual(t, v, 0.0)
	}
}

func TestMinObserved(t *testing.T) {
	gp := NewGP(kernels.NewRBF(1.0, 1.0), 1e-6, nil)
	assert.True(t, math.IsInf(gp.MinObserved(), 1))

	x, y := trainingData()
	require.NoError(t, gp.Fit(x, y))
	assert.InDelta(t, 0.0, gp.MinObserved(), 1e-12)
}
