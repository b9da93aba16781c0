package kernels

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRBF(t *testing.T) {
	tests := []struct {
		name     string
		x1, x2   []float64
		ls, sv   float64
		expected float64
	}{
		{
			name:     "same point",
			x1:       []float64{1.0, 2.0},
			x2:       []float64{1.0, 2.0},
			ls:       1.0,
			sv:       1.0,
			expected: 1.0,
		},
		{
			name:     "unit distance in two dims",
			x1:       []float64{0.0, 0.0},
			x2:       []float64{1.0, 1.0},
			ls:       1.0,
			sv:       1.0,
			expected: math.Exp(-1.0),
		},
		{
			name:     "length scale rescales distance",
			x1:       []float64{0.0, 0.0},
			x2:       []float64{2.0, 2.0},
			ls:       2.0,
			sv:       1.0,
			expected: math.Exp(-1.0),
		},
		{
			name:     "variance scales amplitude",
			x1:       []float64{0.5},
			x2:       []float64{0.5},
			ls:       1.0,
			sv:       3.0,
			expected: 3.0,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			k := NewRBF(tt.ls, tt.sv)
			got := k.Eval(tt.x1, tt.x2)
			assert.InDelta(t, tt.expected, got, 1e-10)
			assert.InDelta(t, got, k.Eval(tt.x2, tt.x1), 1e-10, "kernel must be symmetric")
		})
	}
}

func TestMatern52(t *testing.T) {
	k := NewMatern52(1.0, 1.0)

	assert.InDelta(t, 1.0, k.Eval([]float64{1, 2}, []float64{1, 2}), 1e-10)

	// Hand-computed at r = 1.
	r := 1.0
	want := (1 + math.Sqrt(5)*r + 5.0/3.0*r*r) * math.Exp(-math.Sqrt(5)*r)
	assert.InDelta(t, want, k.Eval([]float64{0}, []float64{1}), 1e-10)

	// Covariance decays with distance.
	near := k.Eval([]float64{0, 0}, []float64{0.1, 0.1})
	far := k.Eval([]float64{0, 0}, []float64{2, 2})
	assert.Greater(t, near, far)
}

func TestSetHyperparameters(t *testing.T) {
	for _, k := range []Kernel{NewRBF(1, 1), NewMatern52(1, 1)} {
		t.Run(k.Name(), func(t *testing.T) {
			require.NoError(t, k.SetHyperparameters([]float64{2.0, 0.5}))
			assert.Equal(t, []float64{2.0, 0.5}, k.Hyperparameters())

			assert.Error(t, k.SetHyperparameters([]float64{1.0}))
			assert.Error(t, k.SetHyperparameters([]float64{-1.0, 1.0}))
		})
	}
}

func TestConstructorDefaults(t *testing.T) {
	k := NewRBF(-1, 0)
	assert.Equal(t, []float64{1.0, 1.0}, k.Hyperparameters())
}
