// Package surrogate implements Gaussian process regression models that
// stand in for the expensive plant simulation during acquisition
// search.
package surrogate

import (
	"math"

	"go.uber.org/zap"
	"gonum.org/v1/gonum/mat"

	"github.com/ppadillaq/sammoo/internal/errors"
	"github.com/ppadillaq/sammoo/internal/moo/kernels"
)

// GP is a Gaussian process regression model with a zero mean function.
// One GP is fitted per objective and refitted after every batch of
// simulator evaluations.
type GP struct {
	kernel   kernels.Kernel
	noiseVar float64

	// training data, retained for prediction
	x *mat.Dense
	y *mat.VecDense

	alpha *mat.VecDense
	chol  *mat.Cholesky

	pool *matrixPool
	log  *zap.Logger
}

// NewGP creates an untrained model. A nil logger disables logging.
func NewGP(kernel kernels.Kernel, noiseVar float64, log *zap.Logger) *GP {
	if log == nil {
		log = zap.NewNop()
	}
	if noiseVar < 0 {
		noiseVar = 0
	}
	return &GP{
		kernel:   kernel,
		noiseVar: noiseVar,
		pool:     newMatrixPool(),
		log:      log.Named("gp"),
	}
}

// Trained reports whether Fit has succeeded at least once.
func (gp *GP) Trained() bool { return gp.alpha != nil }

// Fit conditions the model on the given observations. X holds one
// design vector per row and y the matching objective values.
func (gp *GP) Fit(x *mat.Dense, y *mat.VecDense) error {
	const op = "GP.Fit"

	if x == nil || y == nil {
		return errors.New(errors.KindEvaluation, "training data must not be nil").
			WithOp(op).WithComponent("surrogate")
	}
	n, d := x.Dims()
	if n == 0 || d == 0 {
		return errors.New(errors.KindEvaluation, "training matrix is empty").
			WithOp(op).WithComponent("surrogate")
	}
	if n != y.Len() {
		return errors.Newf(errors.KindEvaluation,
			"dimension mismatch: %d samples but %d targets", n, y.Len()).
			WithOp(op).WithComponent("surrogate")
	}

	gp.log.Debug("fitting model",
		zap.Int("samples", n),
		zap.Int("features", d),
		zap.String("kernel", gp.kernel.Name()),
	)

	k := gp.pool.getSym(n)
	defer gp.pool.putSym(k)
	for i := 0; i < n; i++ {
		xi := x.RawRowView(i)
		k.SetSym(i, i, gp.kernel.Eval(xi, xi)+gp.noiseVar)
		for j := i + 1; j < n; j++ {
			k.SetSym(i, j, gp.kernel.Eval(xi, x.RawRowView(j)))
		}
	}

	chol, jitter, err := factorizeWithJitter(k)
	if err != nil {
		return errors.Wrap(err, errors.KindEvaluation, "kernel matrix factorization").
			WithOp(op).WithComponent("surrogate")
	}
	if jitter > 0 {
		gp.log.Debug("added jitter for positive definiteness",
			zap.Float64("jitter", jitter))
	}

	alpha := mat.NewVecDense(n, nil)
	if err := chol.SolveVecTo(alpha, y); err != nil {
		return errors.Wrap(err, errors.KindEvaluation, "solve for alpha").
			WithOp(op).WithComponent("surrogate")
	}

	gp.x = mat.DenseCopyOf(x)
	gp.y = mat.VecDenseCopyOf(y)
	gp.alpha = alpha
	gp.chol = chol
	return nil
}

// factorizeWithJitter attempts a Cholesky factorization, escalating a
// diagonal jitter until the matrix is positive definite. Returns the
// jitter that succeeded.
func factorizeWithJitter(k *mat.SymDense) (*mat.Cholesky, float64, error) {
	n := k.SymmetricDim()

	var chol mat.Cholesky
	if chol.Factorize(k) {
		return &chol, 0, nil
	}

	jitter := 1e-10
	for attempt := 0; attempt < 8; attempt++ {
		kj := mat.NewSymDense(n, nil)
		kj.CopySym(k)
		for i := 0; i < n; i++ {
			kj.SetSym(i, i, kj.At(i, i)+jitter)
		}
		if chol.Factorize(kj) {
			return &chol, jitter, nil
		}
		jitter *= 10
	}
	return nil, jitter, errors.New(errors.KindEvaluation,
		"matrix not positive definite after jitter escalation")
}

// Predict returns the posterior mean and variance at a single design
// vector.
func (gp *GP) Predict(x []float64) (mean, variance float64, err error) {
	const op = "GP.Predict"

	if !gp.Trained() {
		return 0, 0, errors.New(errors.KindEvaluation, "model not trained").
			WithOp(op).WithComponent("surrogate")
	}
	nTrain, d := gp.x.Dims()
	if len(x) != d {
		return 0, 0, errors.Newf(errors.KindEvaluation,
			"point has %d features, model expects %d", len(x), d).
			WithOp(op).WithComponent("surrogate")
	}

	kstar := gp.pool.getVec(nTrain)
	defer gp.pool.putVec(kstar)
	for j := 0; j < nTrain; j++ {
		kstar.SetVec(j, gp.kernel.Eval(x, gp.x.RawRowView(j)))
	}

	mean = mat.Dot(kstar, gp.alpha)

	// variance = k(x,x) - k*^T K^-1 k*
	v := gp.pool.getVec(nTrain)
	defer gp.pool.putVec(v)
	if err := gp.chol.SolveVecTo(v, kstar); err != nil {
		return 0, 0, errors.Wrap(err, errors.KindEvaluation, "solve for variance").
			WithOp(op).WithComponent("surrogate")
	}
	variance = gp.kernel.Eval(x, x) + gp.noiseVar - mat.Dot(kstar, v)
	if variance < 0 {
		variance = 0
	}
	return mean, variance, nil
}

// PredictBatch evaluates the posterior at each row of X.
func (gp *GP) PredictBatch(x *mat.Dense) (means, variances []float64, err error) {
	if x == nil {
		return nil, nil, errors.New(errors.KindEvaluation, "input matrix is nil").
			WithComponent("surrogate")
	}
	n, _ := x.Dims()
	means = make([]float64, n)
	variances = make([]float64, n)
	for i := 0; i < n; i++ {
		m, v, err := gp.Predict(x.RawRowView(i))
		if err != nil {
			return nil, nil, err
		}
		means[i] = m
		variances[i] = v
	}
	return means, variances, nil
}

// MinObserved returns the smallest training target seen by the last
// Fit. Acquisition functions use it as the incumbent.
func (gp *GP) MinObserved() float64 {
	if gp.y == nil {
		return math.Inf(1)
	}
	best := math.Inf(1)
	for i := 0; i < gp.y.Len(); i++ {
		if v := gp.y.AtVec(i); v < best {
			best = v
		}
	}
	return best
}
