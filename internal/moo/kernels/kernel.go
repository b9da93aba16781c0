// Package kernels provides covariance functions for the Gaussian
// process surrogates used during optimization.
package kernels

import (
	"math"

	"github.com/ppadillaq/sammoo/internal/errors"
)

// Kernel is a stationary covariance function over design vectors.
type Kernel interface {
	// Eval computes the covariance between two points of equal length.
	Eval(x1, x2 []float64) float64

	// Hyperparameters returns the current hyperparameters.
	Hyperparameters() []float64

	// SetHyperparameters replaces the kernel's hyperparameters.
	SetHyperparameters(params []float64) error

	// Name identifies the kernel family.
	Name() string
}

func sqDist(x1, x2 []float64) float64 {
	var sum float64
	for i := range x1 {
		d := x1[i] - x2[i]
		sum += d * d
	}
	return sum
}

func checkParams(params []float64) error {
	if len(params) != 2 {
		return errors.Newf(errors.KindConfiguration,
			"expected 2 hyperparameters, got %d", len(params)).WithComponent("kernels")
	}
	if params[0] <= 0 || params[1] <= 0 {
		return errors.Newf(errors.KindConfiguration,
			"hyperparameters must be positive, got %v", params).WithComponent("kernels")
	}
	return nil
}

// RBF is the squared exponential kernel. Larger length scales produce
// smoother surrogate functions.
type RBF struct {
	lengthScale float64
	variance    float64
}

// NewRBF creates an RBF kernel. Non-positive parameters fall back to 1.
func NewRBF(lengthScale, variance float64) *RBF {
	if lengthScale <= 0 {
		lengthScale = 1.0
	}
	if variance <= 0 {
		variance = 1.0
	}
	return &RBF{lengthScale: lengthScale, variance: variance}
}

func (k *RBF) Eval(x1, x2 []float64) float64 {
	r2 := sqDist(x1, x2) / (2.0 * k.lengthScale * k.lengthScale)
	return k.variance * math.Exp(-r2)
}

func (k *RBF) Hyperparameters() []float64 {
	return []float64{k.lengthScale, k.variance}
}

func (k *RBF) SetHyperparameters(params []float64) error {
	if err := checkParams(params); err != nil {
		return err
	}
	k.lengthScale = params[0]
	k.variance = params[1]
	return nil
}

func (k *RBF) Name() string { return "rbf" }

// Matern52 is the Matérn kernel with smoothness 5/2, a common default
// for engineering response surfaces that are not infinitely smooth.
type Matern52 struct {
	lengthScale float64
	variance    float64
}

// NewMatern52 creates a Matérn 5/2 kernel. Non-positive parameters
// fall back to 1.
func NewMatern52(lengthScale, variance float64) *Matern52 {
	if lengthScale <= 0 {
		lengthScale = 1.0
	}
	if variance <= 0 {
		variance = 1.0
	}
	return &Matern52{lengthScale: lengthScale, variance: variance}
}

func (k *Matern52) Eval(x1, x2 []float64) float64 {
	r := math.Sqrt(sqDist(x1, x2)) / k.lengthScale
	sqrt5r := math.Sqrt(5) * r
	poly := 1.0 + sqrt5r + (5.0/3.0)*r*r
	return k.variance * poly * math.Exp(-sqrt5r)
}

func (k *Matern52) Hyperparameters() []float64 {
	return []float64{k.lengthScale, k.variance}
}

func (k *Matern52) SetHyperparameters(params []float64) error {
	if err := checkParams(params); err != nil {
		return err
	}
	k.lengthScale = params[0]
	k.variance = params[1]
	return nil
}

func (k *Matern52) Name() string { return "matern52" }
