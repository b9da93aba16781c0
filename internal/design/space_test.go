package design

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ppadillaq/sammoo/internal/errors"
)

func TestAddVariableValidation(t *testing.T) {
	tests := []struct {
		name    string
		varName string
		lower   float64
		upper   float64
		typ     VarType
		wantErr bool
	}{
		{"valid continuous", "Row_Distance", 5, 15, Continuous, false},
		{"valid integer", "tshours", 0, 12, Integer, false},
		{"equal bounds", "fixed", 3, 3, Continuous, false},
		{"inverted bounds", "bad", 10, 5, Continuous, true},
		{"empty name", "", 0, 1, Continuous, true},
		{"invalid type", "odd", 0, 1, VarType(99), true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := NewSpace()
			err := s.AddVariable(tt.varName, tt.lower, tt.upper, tt.typ)
			if tt.wantErr {
				require.Error(t, err)
				assert.True(t, errors.IsKind(err, errors.KindConfiguration))
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestAddVariableDuplicate(t *testing.T) {
	s := NewSpace()
	require.NoError(t, s.AddVariable("tshours", 0, 12, Integer))

	err := s.AddVariable("tshours", 0, 12, Integer)
	require.Error(t, err)
	assert.True(t, errors.IsKind(err, errors.KindConfiguration))
}

func TestAddObjectiveSignConvention(t *testing.T) {
	s := NewSpace()
	require.NoError(t, s.AddObjective("LCOE"))
	require.NoError(t, s.AddObjective("-NPV"))

	objs := s.Objectives()
	require.Len(t, objs, 2)

	assert.Equal(t, "LCOE", objs[0].Name)
	assert.False(t, objs[0].Maximize)
	assert.Equal(t, 1.0, objs[0].Sign())

	assert.Equal(t, "-NPV", objs[1].Name)
	assert.True(t, objs[1].Maximize)
	assert.Equal(t, -1.0, objs[1].Sign())
}

func TestAddObjectiveDuplicate(t *testing.T) {
	s := NewSpace()
	require.NoError(t, s.AddObjective("Payback"))
	assert.Error(t, s.AddObjective("Payback"))
	assert.Error(t, s.AddObjective(""))
}

func TestParseVarType(t *testing.T) {
	typ, err := ParseVarType("Integer")
	require.NoError(t, err)
	assert.Equal(t, Integer, typ)

	_, err = ParseVarType("fuzzy")
	assert.Error(t, err)
}

func TestValidatePoint(t *testing.T) {
	s := NewSpace()
	require.NoError(t, s.AddVariable("Row_Distance", 5, 15, Continuous))
	require.NoError(t, s.AddVariable("tshours", 0, 12, Integer))

	assert.NoError(t, s.Validate(Point{"Row_Distance": 7.3, "tshours": 6}))
	assert.Error(t, s.Validate(Point{"Row_Distance": 20, "tshours": 6}), "out of bounds")
	assert.Error(t, s.Validate(Point{"Row_Distance": 7.3, "tshours": 6.5}), "non-integral")
	assert.Error(t, s.Validate(Point{"Row_Distance": 7.3}), "missing variable")
}

func TestVariableLookup(t *testing.T) {
	s := NewSpace()
	require.NoError(t, s.AddVariable("h_tank_in", 10, 20, Continuous))

	v, ok := s.Variable("h_tank_in")
	require.True(t, ok)
	assert.Equal(t, 10.0, v.Lower)

	_, ok = s.Variable("missing")
	assert.False(t, ok)
}
