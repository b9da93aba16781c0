package sim

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ppadillaq/sammoo/internal/design"
	"github.com/ppadillaq/sammoo/internal/errors"
)

func commercialOwnerSelection(t *testing.T, outputs []string, vars []design.Variable) *ConfigSelection {
	t.Helper()

	modules, err := DefaultChain(PresetCommercialOwner)
	require.NoError(t, err)

	cs, err := NewConfigSelection(PresetCommercialOwner, modules, outputs, vars)
	require.NoError(t, err)
	return cs
}

func TestDefaultChainPresets(t *testing.T) {
	lcoh, err := DefaultChain(PresetLCOHCalculator)
	require.NoError(t, err)
	assert.Len(t, lcoh, 2)

	commercial, err := DefaultChain(PresetCommercialOwner)
	require.NoError(t, err)
	assert.Len(t, commercial, 4)

	_, err = DefaultChain("Residential rooftop")
	require.Error(t, err)
	assert.True(t, errors.IsKind(err, errors.KindConfiguration))
}

func TestEvaluateProducesFixedArity(t *testing.T) {
	vars := []design.Variable{{Name: "Row_Distance", Lower: 5, Upper: 15, Type: design.Continuous}}
	cs := commercialOwnerSelection(t, []string{"LCOE", "Payback", "-Savings"}, vars)

	out := cs.Evaluate(design.Point{"Row_Distance": 10})
	require.Len(t, out, 3)
	for i, v := range out[1:] {
		assert.False(t, math.IsNaN(v), "objective %d should be defined", i+1)
	}
	// LCOE is served by the LCOH Calculator chain, not this one.
	assert.True(t, math.IsNaN(out[0]))
}

func TestEvaluateLCOHChain(t *testing.T) {
	modules, err := DefaultChain(PresetLCOHCalculator)
	require.NoError(t, err)

	vars := []design.Variable{{Name: "Row_Distance", Lower: 5, Upper: 15, Type: design.Continuous}}
	cs, err := NewConfigSelection(PresetLCOHCalculator, modules, []string{"LCOE", "CF"}, vars)
	require.NoError(t, err)

	wide := cs.Evaluate(design.Point{"Row_Distance": 15})
	tight := cs.Evaluate(design.Point{"Row_Distance": 5})

	require.Len(t, wide, 2)
	assert.False(t, math.IsNaN(wide[0]))
	assert.False(t, math.IsNaN(wide[1]))

	// Tighter row spacing means more shading, less energy, higher cost.
	assert.Greater(t, tight[0], wide[0])
	assert.Less(t, tight[1], wide[1])
}

func TestEvaluateUnmappedVariableSkipped(t *testing.T) {
	vars := []design.Variable{
		{Name: "Row_Distance", Lower: 5, Upper: 15, Type: design.Continuous},
		{Name: "no_such_knob", Lower: 0, Upper: 1, Type: design.Continuous},
	}
	cs := commercialOwnerSelection(t, []string{"-Savings"}, vars)

	// The unmapped variable must not abort the evaluation.
	out := cs.Evaluate(design.Point{"Row_Distance": 12, "no_such_knob": 0.5})
	require.Len(t, out, 1)
	assert.False(t, math.IsNaN(out[0]))
}

func TestEvaluateFailureYieldsNaNVector(t *testing.T) {
	vars := []design.Variable{
		{Name: "T_loop_out", Lower: 0, Upper: 500, Type: design.Continuous},
	}
	cs := commercialOwnerSelection(t, []string{"LCOE", "Payback", "-Savings"}, vars)

	// Outlet below inlet makes the physical module fail; the adapter must
	// still return a full-length vector.
	out := cs.Evaluate(design.Point{"T_loop_out": 10})
	require.Len(t, out, 3)
	for i, v := range out {
		assert.True(t, math.IsNaN(v), "slot %d should be NaN", i)
	}
}

func TestNameTranslationAndSignConvention(t *testing.T) {
	tr := DefaultTranslation()

	assert.Equal(t, "npv", tr.Resolve("-NPV"))
	assert.Equal(t, "lcoe_real", tr.Resolve("LCOE"))
	assert.Equal(t, "capacity_factor", tr.Resolve("-Capacity Factor"))
	// Unmapped names fall back to the bare name with the prefix stripped.
	assert.Equal(t, "custom_field", tr.Resolve("-custom_field"))
}

func TestTranslationMergeAndNPVExtraction(t *testing.T) {
	vars := []design.Variable{{Name: "Row_Distance", Lower: 5, Upper: 15, Type: design.Continuous}}
	cs := commercialOwnerSelection(t, []string{"-NPV"}, vars)

	out := cs.Evaluate(design.Point{"Row_Distance": 12})
	require.Len(t, out, 1)
	assert.False(t, math.IsNaN(out[0]), "npv field should be found through the translation table")
}

func TestVectorOutputUsesLastElement(t *testing.T) {
	vars := []design.Variable{{Name: "Row_Distance", Lower: 5, Upper: 15, Type: design.Continuous}}
	cs := commercialOwnerSelection(t, []string{"-LCS"}, vars)

	out := cs.Evaluate(design.Point{"Row_Distance": 12})
	require.Len(t, out, 1)
	require.False(t, math.IsNaN(out[0]))

	// Compare against the raw cumulative series from the cash-flow module.
	var loan Module
	for _, m := range cs.Modules() {
		if m.Name() == "cashloan_heat" {
			loan = m
		}
	}
	require.NotNil(t, loan)

	raw, ok := loan.Output("cf_discounted_savings")
	require.True(t, ok)
	series := raw.([]float64)
	assert.Equal(t, series[len(series)-1], out[0])
}

func TestSetDebugOutputsPreservesOrder(t *testing.T) {
	vars := []design.Variable{{Name: "Row_Distance", Lower: 5, Upper: 15, Type: design.Continuous}}
	cs := commercialOwnerSelection(t, []string{"Payback", "-Savings"}, vars)

	cs.SetDebugOutputs([]string{"-NPV", "Payback", "utility_bill_wo_sys_year1"})

	assert.Equal(t,
		[]string{"Payback", "-Savings", "-NPV", "utility_bill_wo_sys_year1"},
		cs.SelectedOutputs())
	assert.Equal(t, 4, cs.Arity())

	out := cs.Evaluate(design.Point{"Row_Distance": 12})
	assert.Len(t, out, 4)
}

func TestSetInputsRoutesAcrossModules(t *testing.T) {
	vars := []design.Variable{{Name: "Row_Distance", Lower: 5, Upper: 15, Type: design.Continuous}}
	cs := commercialOwnerSelection(t, []string{"-Savings"}, vars)

	cs.SetInputs(map[string]interface{}{
		"tshours":         8,
		"heat_price":      0.07,
		"analysis_period": 20.0,
	})

	v, err := cs.Input("tshours")
	require.NoError(t, err)
	assert.Equal(t, 8, v)

	v, err = cs.Input("heat_price")
	require.NoError(t, err)
	assert.Equal(t, 0.07, v)

	_, err = cs.Input("does_not_exist")
	require.Error(t, err)
	assert.True(t, errors.IsKind(err, errors.KindUnmappedVariable))
}

func TestApplyTemplateSkipsUnknownKeys(t *testing.T) {
	vars := []design.Variable{{Name: "Row_Distance", Lower: 5, Upper: 15, Type: design.Continuous}}
	cs := commercialOwnerSelection(t, []string{"-Savings"}, vars)

	cs.ApplyTemplate(Template{
		"trough_physical_iph": {
			"tshours":       9.0,
			"number_inputs": 42,
			"bogus_key":     1.0,
		},
	})

	v, err := cs.Input("tshours")
	require.NoError(t, err)
	assert.Equal(t, 9.0, v)
}

func TestFinanceModuleRequiresExecutedSource(t *testing.T) {
	system := NewTroughPhysical()
	loan := NewCashLoan(system, NewUtilityRate(system))

	err := loan.Execute()
	require.Error(t, err)
	assert.True(t, errors.IsKind(err, errors.KindEvaluation))
}
