// Package sim wraps the plant/financial simulator behind a narrow
// collaborator interface and adapts it into a fixed-shape objective
// oracle for the optimization engine.
package sim

import (
	"sort"

	"github.com/ppadillaq/sammoo/internal/errors"
)

// Module is one simulator compute module: a named group of configuration
// inputs, an execute step, and a read-only output namespace. Modules are
// chained in a fixed order; a module may read outputs only from modules
// that executed before it.
type Module interface {
	// Name identifies the module in logs and templates.
	Name() string
	// SetInput assigns a configuration input. Unknown keys return an
	// unmapped-variable error.
	SetInput(key string, value interface{}) error
	// Input reads back a configuration input.
	Input(key string) (interface{}, error)
	// Execute runs the module's compute step.
	Execute() error
	// Output reads a computed output by its internal field name.
	Output(field string) (interface{}, bool)
}

// baseModule implements the input/output bookkeeping shared by the
// reduced-order plant modules.
type baseModule struct {
	name     string
	inputs   map[string]interface{}
	outputs  map[string]interface{}
	executed bool
}

func newBaseModule(name string, defaults map[string]interface{}) baseModule {
	inputs := make(map[string]interface{}, len(defaults))
	for k, v := range defaults {
		inputs[k] = v
	}
	return baseModule{name: name, inputs: inputs}
}

func (m *baseModule) Name() string { return m.name }

func (m *baseModule) SetInput(key string, value interface{}) error {
	if _, ok := m.inputs[key]; !ok {
		return errors.Newf(errors.KindUnmappedVariable, "module %s has no input %q", m.name, key).
			WithComponent("sim")
	}
	m.inputs[key] = value
	// Stale outputs must not leak across reconfigurations.
	m.outputs = nil
	m.executed = false
	return nil
}

func (m *baseModule) Input(key string) (interface{}, error) {
	v, ok := m.inputs[key]
	if !ok {
		return nil, errors.Newf(errors.KindUnmappedVariable, "module %s has no input %q", m.name, key).
			WithComponent("sim")
	}
	return v, nil
}

func (m *baseModule) Output(field string) (interface{}, bool) {
	v, ok := m.outputs[field]
	return v, ok
}

// InputNames returns the module's input keys in sorted order.
func (m *baseModule) InputNames() []string {
	names := make([]string, 0, len(m.inputs))
	for k := range m.inputs {
		names = append(names, k)
	}
	sort.Strings(names)
	return names
}

func (m *baseModule) setOutput(field string, value interface{}) {
	if m.outputs == nil {
		m.outputs = make(map[string]interface{})
	}
	m.outputs[field] = value
}

// floatInput coerces a numeric input to float64. Non-numeric values
// surface as an evaluation error naming the offending key.
func (m *baseModule) floatInput(key string) (float64, error) {
	v, err := m.Input(key)
	if err != nil {
		return 0, err
	}
	f, ok := toFloat(v)
	if !ok {
		return 0, errors.Newf(errors.KindEvaluation, "module %s: input %q is not numeric", m.name, key).
			WithComponent("sim")
	}
	return f, nil
}

func toFloat(v interface{}) (float64, bool) {
	switch x := v.(type) {
	case float64:
		return x, true
	case float32:
		return float64(x), true
	case int:
		return float64(x), true
	case int64:
		return float64(x), true
	default:
		return 0, false
	}
}

// sourceOutput reads a float output from an upstream module, failing if
// the upstream has not executed yet or the field is missing.
func sourceOutput(src Module, field string) (float64, error) {
	v, ok := src.Output(field)
	if !ok {
		return 0, errors.Newf(errors.KindEvaluation,
			"upstream module %s has no output %q (not executed yet?)", src.Name(), field).
			WithComponent("sim")
	}
	f, ok := toFloat(v)
	if !ok {
		return 0, errors.Newf(errors.KindEvaluation,
			"upstream module %s: output %q is not numeric", src.Name(), field).
			WithComponent("sim")
	}
	return f, nil
}
