package errors

import (
	stderrors "errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestErrorMessage(t *testing.T) {
	err := New(KindConfiguration, "lower bound above upper bound").
		WithComponent("design").
		WithOp("AddVariable")

	assert.Equal(t, "configuration: design: AddVariable: lower bound above upper bound", err.Error())
}

func TestWrapNil(t *testing.T) {
	assert.Nil(t, Wrap(nil, KindIO, "should be nil"))
	assert.Nil(t, Wrapf(nil, KindIO, "should be %s", "nil"))
}

func TestWrapPreservesCause(t *testing.T) {
	cause := stderrors.New("disk full")
	err := Wrap(cause, KindIO, "export failed")

	require.NotNil(t, err)
	assert.ErrorIs(t, err, cause)
	assert.Contains(t, err.Error(), "disk full")
}

func TestKindOf(t *testing.T) {
	tests := []struct {
		name string
		err  error
		kind Kind
		ok   bool
	}{
		{"direct", New(KindModeViolation, "step in batch mode"), KindModeViolation, true},
		{"wrapped in fmt", fmt.Errorf("outer: %w", New(KindEvaluation, "boom")), KindEvaluation, true},
		{"plain error", stderrors.New("plain"), 0, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			k, ok := KindOf(tt.err)
			assert.Equal(t, tt.ok, ok)
			if tt.ok {
				assert.Equal(t, tt.kind, k)
			}
		})
	}
}

func TestIsKind(t *testing.T) {
	err := Newf(KindUnmappedVariable, "variable %q not mapped", "foo")

	assert.True(t, IsKind(err, KindUnmappedVariable))
	assert.False(t, IsKind(err, KindConfiguration))
	assert.False(t, IsKind(nil, KindConfiguration))
}
