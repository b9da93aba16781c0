// Package design declares the optimization design space: design variables
// with bounds and types, and objectives with their sign convention.
package design

import (
	"math"
	"strings"

	"github.com/ppadillaq/sammoo/internal/errors"
)

// VarType determines how the search strategy perturbs and samples a
// design variable.
type VarType int

const (
	// Continuous variables take any value inside their bounds.
	Continuous VarType = iota
	// Integer variables are rounded to whole values by the sampler.
	Integer
	// Categorical variables hold integer level IDs.
	Categorical
)

// String returns the name of the variable type.
func (t VarType) String() string {
	switch t {
	case Continuous:
		return "continuous"
	case Integer:
		return "integer"
	case Categorical:
		return "categorical"
	default:
		return "unknown"
	}
}

// ParseVarType converts a string into a VarType.
func ParseVarType(s string) (VarType, error) {
	switch strings.ToLower(s) {
	case "continuous":
		return Continuous, nil
	case "integer":
		return Integer, nil
	case "categorical":
		return Categorical, nil
	default:
		return 0, errors.Newf(errors.KindConfiguration, "unknown variable type %q", s).
			WithComponent("design")
	}
}

// Variable declares one design variable. Immutable once registered.
type Variable struct {
	Name  string
	Lower float64
	Upper float64
	Type  VarType
}

// Objective declares one optimization objective. A leading "-" on the
// user-facing name marks a maximize objective, handled by negation so the
// engine always minimizes.
type Objective struct {
	// Name is the user-facing name as registered, sign prefix included.
	// It is used both as the report column and as the oracle lookup key.
	Name string
	// Maximize is true when the name carries the negation marker.
	Maximize bool
}

// ParseObjective builds an Objective from a user-facing name.
func ParseObjective(name string) Objective {
	return Objective{
		Name:     name,
		Maximize: strings.HasPrefix(name, "-"),
	}
}

// Sign returns the factor that normalizes the objective to minimization.
func (o Objective) Sign() float64 {
	if o.Maximize {
		return -1
	}
	return 1
}

// Point is one candidate assignment of values to design variables.
type Point map[string]float64

// Clone returns an independent copy of the point.
func (p Point) Clone() Point {
	c := make(Point, len(p))
	for k, v := range p {
		c[k] = v
	}
	return c
}

// Space is a pure declarative registry of design variables and objectives.
// Registration validates bounds ordering and type membership; entries are
// immutable once registered.
type Space struct {
	vars   []Variable
	objs   []Objective
	byName map[string]int
}

// NewSpace creates an empty design space.
func NewSpace() *Space {
	return &Space{byName: make(map[string]int)}
}

// AddVariable registers a design variable. It fails with a configuration
// error on duplicate names, inverted bounds, or an invalid type.
func (s *Space) AddVariable(name string, lower, upper float64, typ VarType) error {
	const op = "AddVariable"

	if name == "" {
		return errors.New(errors.KindConfiguration, "variable name must not be empty").
			WithComponent("design").WithOp(op)
	}
	if _, ok := s.byName[name]; ok {
		return errors.Newf(errors.KindConfiguration, "variable %q already registered", name).
			WithComponent("design").WithOp(op)
	}
	if lower > upper {
		return errors.Newf(errors.KindConfiguration, "variable %q: lower bound %v above upper bound %v",
			name, lower, upper).WithComponent("design").WithOp(op)
	}
	if typ != Continuous && typ != Integer && typ != Categorical {
		return errors.Newf(errors.KindConfiguration, "variable %q: invalid type %d", name, typ).
			WithComponent("design").WithOp(op)
	}

	s.byName[name] = len(s.vars)
	s.vars = append(s.vars, Variable{Name: name, Lower: lower, Upper: upper, Type: typ})
	return nil
}

// AddObjective registers an objective by its user-facing name. The sign
// convention (leading "-") is parsed here.
func (s *Space) AddObjective(name string) error {
	const op = "AddObjective"

	if name == "" || name == "-" {
		return errors.New(errors.KindConfiguration, "objective name must not be empty").
			WithComponent("design").WithOp(op)
	}
	for _, o := range s.objs {
		if o.Name == name {
			return errors.Newf(errors.KindConfiguration, "objective %q already registered", name).
				WithComponent("design").WithOp(op)
		}
	}

	s.objs = append(s.objs, ParseObjective(name))
	return nil
}

// Variables returns a copy of the registered variables in registration order.
func (s *Space) Variables() []Variable {
	out := make([]Variable, len(s.vars))
	copy(out, s.vars)
	return out
}

// Objectives returns a copy of the registered objectives in registration
// order. Oracle output vectors must align positionally with this order.
func (s *Space) Objectives() []Objective {
	out := make([]Objective, len(s.objs))
	copy(out, s.objs)
	return out
}

// Variable looks up a registered variable by name.
func (s *Space) Variable(name string) (Variable, bool) {
	i, ok := s.byName[name]
	if !ok {
		return Variable{}, false
	}
	return s.vars[i], true
}

// NumVariables returns the number of registered variables.
func (s *Space) NumVariables() int { return len(s.vars) }

// NumObjectives returns the number of registered objectives.
func (s *Space) NumObjectives() int { return len(s.objs) }

// Validate checks that a point satisfies every variable's bounds and type.
func (s *Space) Validate(p Point) error {
	const op = "Validate"

	for _, v := range s.vars {
		val, ok := p[v.Name]
		if !ok {
			return errors.Newf(errors.KindConfiguration, "point is missing variable %q", v.Name).
				WithComponent("design").WithOp(op)
		}
		if val < v.Lower || val > v.Upper {
			return errors.Newf(errors.KindConfiguration, "variable %q: value %v outside bounds [%v, %v]",
				v.Name, val, v.Lower, v.Upper).WithComponent("design").WithOp(op)
		}
		if v.Type != Continuous && val != math.Trunc(val) {
			return errors.Newf(errors.KindConfiguration, "variable %q: value %v not integral", v.Name, val).
				WithComponent("design").WithOp(op)
		}
	}
	return nil
}
