package sim

import (
	"math"
	"os"

	"go.uber.org/zap"
	"gopkg.in/yaml.v3"

	"github.com/ppadillaq/sammoo/internal/design"
	"github.com/ppadillaq/sammoo/internal/errors"
)

// Template holds per-module key/value defaults, keyed by module name.
// Unrecognized keys are logged and skipped, not fatal.
type Template map[string]map[string]interface{}

// LoadTemplate reads a module template from a YAML file.
func LoadTemplate(path string) (Template, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrapf(err, errors.KindIO, "read template %q", path).
			WithComponent("sim")
	}

	var tpl Template
	if err := yaml.Unmarshal(data, &tpl); err != nil {
		return nil, errors.Wrapf(err, errors.KindConfiguration, "parse template %q", path).
			WithComponent("sim")
	}
	return tpl, nil
}

// ConfigSelection drives a chained simulator configuration and adapts it
// into an objective oracle: a pure function from design point to a
// fixed-shape objective vector.
//
// A ConfigSelection is stateful and non-reentrant: each evaluation
// mutates the shared module configuration before executing, so at most
// one evaluation may be in flight per instance. Concurrent evaluation
// requires independently constructed instances.
type ConfigSelection struct {
	preset      string
	modules     []Module
	selected    []string
	translation Translation

	// routes maps each design variable to the module that owns it,
	// resolved and validated once at construction.
	routes map[string]Module
	// owners caches module lookup for ad-hoc SetInput keys.
	owners map[string]Module

	log *zap.Logger
}

// Option configures a ConfigSelection.
type Option func(*ConfigSelection)

// WithTranslation merges extra name mappings over the built-in table.
func WithTranslation(t Translation) Option {
	return func(c *ConfigSelection) { c.translation.Merge(t) }
}

// WithWeatherFile points the system module at a weather resource file.
func WithWeatherFile(path string) Option {
	return func(c *ConfigSelection) {
		if err := c.SetInput("file_name", path); err == nil {
			c.log.Info("using user-provided weather file", zap.String("file", path))
		}
	}
}

// WithLogger sets the structured logger. Defaults to a no-op logger.
func WithLogger(log *zap.Logger) Option {
	return func(c *ConfigSelection) { c.log = log }
}

// NewConfigSelection builds the oracle adapter over a module chain.
// Design variables are routed to their owning modules here, once, and
// variables with no owner are reported immediately rather than on every
// evaluation.
func NewConfigSelection(preset string, modules []Module, selectedOutputs []string,
	variables []design.Variable, opts ...Option) (*ConfigSelection, error) {
	const op = "NewConfigSelection"

	if len(modules) == 0 {
		return nil, errors.New(errors.KindConfiguration, "module chain must not be empty").
			WithComponent("sim").WithOp(op)
	}
	if len(selectedOutputs) == 0 {
		return nil, errors.New(errors.KindConfiguration, "at least one output must be selected").
			WithComponent("sim").WithOp(op)
	}

	c := &ConfigSelection{
		preset:      preset,
		modules:     modules,
		selected:    append([]string(nil), selectedOutputs...),
		translation: DefaultTranslation(),
		routes:      make(map[string]Module, len(variables)),
		owners:      make(map[string]Module),
		log:         zap.NewNop(),
	}

	for _, opt := range opts {
		opt(c)
	}

	for _, v := range variables {
		m := c.findOwner(v.Name)
		if m == nil {
			// Deliberately non-fatal: robustness over strictness.
			c.log.Warn("design variable not mapped to any module",
				zap.String("variable", v.Name))
			continue
		}
		c.routes[v.Name] = m
	}

	return c, nil
}

// findOwner probes the chain for the module that accepts a given input key.
func (c *ConfigSelection) findOwner(key string) Module {
	if m, ok := c.owners[key]; ok {
		return m
	}
	for _, m := range c.modules {
		if _, err := m.Input(key); err == nil {
			c.owners[key] = m
			return m
		}
	}
	return nil
}

// Preset returns the configuration preset name.
func (c *ConfigSelection) Preset() string { return c.preset }

// Modules returns the module chain in execution order.
func (c *ConfigSelection) Modules() []Module { return c.modules }

// ApplyTemplate assigns template defaults to their modules. Unrecognized
// modules or keys are logged and skipped.
func (c *ConfigSelection) ApplyTemplate(tpl Template) {
	for _, m := range c.modules {
		values, ok := tpl[m.Name()]
		if !ok {
			continue
		}
		for k, v := range values {
			if k == "number_inputs" {
				continue
			}
			if err := m.SetInput(k, v); err != nil {
				c.log.Warn("template key not recognized",
					zap.String("module", m.Name()),
					zap.String("key", k))
			}
		}
	}
}

// SetInput assigns an input value to whichever module owns the key.
// Unknown keys are logged and skipped.
func (c *ConfigSelection) SetInput(key string, value interface{}) error {
	m := c.findOwner(key)
	if m == nil {
		c.log.Warn("input variable not found in any loaded module", zap.String("key", key))
		return errors.Newf(errors.KindUnmappedVariable, "input %q not found in any module", key).
			WithComponent("sim").WithOp("SetInput")
	}
	return m.SetInput(key, value)
}

// SetInputs assigns multiple input values at once.
func (c *ConfigSelection) SetInputs(inputs map[string]interface{}) {
	for k, v := range inputs {
		if err := c.SetInput(k, v); err != nil {
			c.log.Warn("failed to set input", zap.String("key", k), zap.Error(err))
		}
	}
}

// Input reads an input value from whichever module owns the key.
func (c *ConfigSelection) Input(key string) (interface{}, error) {
	m := c.findOwner(key)
	if m == nil {
		return nil, errors.Newf(errors.KindUnmappedVariable, "input %q not found in any module", key).
			WithComponent("sim").WithOp("Input")
	}
	return m.Input(key)
}

// SelectedOutputs returns the current extraction list in order.
func (c *ConfigSelection) SelectedOutputs() []string {
	return append([]string(nil), c.selected...)
}

// SetDebugOutputs appends extra extraction names for extended
// diagnostics. Existing names keep their positions so previously
// collected archive entries stay aligned; duplicates are dropped.
func (c *ConfigSelection) SetDebugOutputs(extra []string) {
	seen := make(map[string]bool, len(c.selected))
	for _, name := range c.selected {
		seen[name] = true
	}
	added := 0
	for _, name := range extra {
		if !seen[name] {
			seen[name] = true
			c.selected = append(c.selected, name)
			added++
		}
	}
	c.log.Info("extraction list extended", zap.Int("added", added))
}

// Arity returns the length of the vectors Evaluate produces.
func (c *ConfigSelection) Arity() int { return len(c.selected) }

// Evaluate configures the simulator for one design point, executes the
// module chain in its fixed order, and extracts the selected outputs.
//
// The returned vector always has exactly Arity() elements. Any failure
// in configuration, execution, or extraction yields NaN sentinels for
// the affected positions (or the whole vector) with the cause logged;
// the search strategy never sees an error.
func (c *ConfigSelection) Evaluate(p design.Point) []float64 {
	out := nanVector(len(c.selected))

	for name, value := range p {
		m, ok := c.routes[name]
		if !ok {
			c.log.Warn("design variable not mapped to any module, skipping",
				zap.String("variable", name))
			continue
		}
		if err := m.SetInput(name, value); err != nil {
			c.log.Error("failed to configure design variable",
				zap.String("variable", name), zap.Error(err))
			return out
		}
	}

	for _, m := range c.modules {
		if err := m.Execute(); err != nil {
			c.log.Error("simulation failed",
				zap.String("module", m.Name()),
				zap.Any("point", p),
				zap.Error(err))
			return out
		}
	}

	c.collectOutputs(out)
	return out
}

// collectOutputs extracts each selected output into its slot. Vector
// outputs contribute their final cumulative value (last element).
func (c *ConfigSelection) collectOutputs(out []float64) {
	for i, name := range c.selected {
		field := c.translation.Resolve(name)

		found := false
		for _, m := range c.modules {
			v, ok := m.Output(field)
			if !ok {
				continue
			}
			val, ok := scalarize(v)
			if !ok {
				c.log.Warn("output has no usable value",
					zap.String("field", field), zap.String("module", m.Name()))
				break
			}
			out[i] = val
			found = true
			break
		}

		if !found {
			c.log.Warn("output not found in any module",
				zap.String("objective", name),
				zap.String("field", field))
		}
	}
}

// scalarize reduces an output value to a single float64. Time series and
// vectors pick the last element.
func scalarize(v interface{}) (float64, bool) {
	switch x := v.(type) {
	case []float64:
		if len(x) == 0 {
			return 0, false
		}
		return x[len(x)-1], true
	default:
		return toFloat(v)
	}
}

func nanVector(n int) []float64 {
	out := make([]float64, n)
	for i := range out {
		out[i] = math.NaN()
	}
	return out
}
