package moo

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ppadillaq/sammoo/internal/design"
)

func obs(values ...float64) Observation {
	return Observation{
		Point:      design.Point{"x": 0},
		Raw:        values,
		Objectives: values,
	}
}

func TestDominates(t *testing.T) {
	tests := []struct {
		name string
		a, b []float64
		want bool
	}{
		{"strictly better on both", []float64{1, 1}, []float64{2, 2}, true},
		{"better on one, equal on other", []float64{1, 3}, []float64{2, 3}, true},
		{"equal points", []float64{2, 3}, []float64{2, 3}, false},
		{"trade-off", []float64{1, 5}, []float64{2, 3}, false},
		{"strictly worse", []float64{3, 3}, []float64{2, 3}, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, dominates(tt.a, tt.b))
		})
	}
}

func TestParetoFrontHandComputed(t *testing.T) {
	archive := []Observation{
		obs(1, 5),
		obs(2, 3),
		obs(3, 3),
		obs(4, 1),
	}
	front := paretoFront(archive)

	require.Len(t, front, 3)
	assert.Equal(t, []float64{1, 5}, front[0].Objectives)
	assert.Equal(t, []float64{2, 3}, front[1].Objectives)
	assert.Equal(t, []float64{4, 1}, front[2].Objectives)
}

func TestParetoFrontExcludesNaN(t *testing.T) {
	archive := []Observation{
		obs(math.NaN(), 0),
		obs(2, 3),
		obs(0, math.NaN()),
	}
	front := paretoFront(archive)

	require.Len(t, front, 1)
	assert.Equal(t, []float64{2, 3}, front[0].Objectives)
}

func TestParetoFrontEmpty(t *testing.T) {
	assert.Empty(t, paretoFront(nil))
	assert.Empty(t, paretoFront([]Observation{obs(math.NaN())}))
}

func TestParetoFrontPreservesArchiveOrder(t *testing.T) {
	archive := []Observation{
		obs(4, 1),
		obs(1, 5),
		obs(2, 3),
	}
	front := paretoFront(archive)
	require.Len(t, front, 3)
	assert.Equal(t, []float64{4, 1}, front[0].Objectives)
	assert.Equal(t, []float64{1, 5}, front[1].Objectives)
	assert.Equal(t, []float64{2, 3}, front[2].Objectives)
}
