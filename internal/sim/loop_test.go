package sim

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ppadillaq/sammoo/internal/design"
)

func TestTroughLoopControl(t *testing.T) {
	loop := NewSolarLoopConfiguration(6)

	assert.Equal(t,
		[]int{6, 1, 1, 6, 1, 1, 5, 1, 1, 4, 1, 1, 3, 1, 1, 2, 1, 1, 1},
		loop.TroughLoopControl())
}

func TestTroughLoopControlDefault(t *testing.T) {
	loop := NewSolarLoopConfiguration(0)

	control := loop.TroughLoopControl()
	assert.Equal(t, 8, control[0])
	assert.Len(t, control, 1+3*8)
}

func TestSolarLoopApplyTo(t *testing.T) {
	modules, err := DefaultChain(PresetLCOHCalculator)
	require.NoError(t, err)

	cs, err := NewConfigSelection(PresetLCOHCalculator, modules, []string{"LCOE"},
		[]design.Variable{{Name: "tshours", Lower: 0, Upper: 12, Type: design.Integer}})
	require.NoError(t, err)

	require.NoError(t, NewSolarLoopConfiguration(4).ApplyTo(cs))

	v, err := cs.Input("trough_loop_control")
	require.NoError(t, err)
	assert.Equal(t, []int{4, 1, 1, 4, 1, 1, 3, 1, 1, 2, 1, 1, 1}, v)
}
