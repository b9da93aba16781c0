package moo

import (
	"math"
	"math/rand"

	"gonum.org/v1/gonum/optimize"

	"github.com/ppadillaq/sammoo/internal/design"
	"github.com/ppadillaq/sammoo/internal/errors"
	"github.com/ppadillaq/sammoo/internal/moo/acquisition"
	"github.com/ppadillaq/sammoo/internal/moo/surrogate"
)

// Proposal bundles the state an acquisition sees when asked for the
// next candidate.
type Proposal struct {
	RNG     *rand.Rand
	Models  []*surrogate.GP
	Vars    []design.Variable
	Archive []Observation
}

// Acquisition is a candidate-generation policy over the fitted
// surrogates. Policies are stateless between calls; randomness comes
// from the problem's seeded generator.
type Acquisition interface {
	Name() string
	Propose(p *Proposal) (design.Point, error)
}

// ScalarizedImprovement draws a random weight vector, scalarizes the
// objectives, and maximizes Expected Improvement of the scalarized
// posterior over the design bounds.
type ScalarizedImprovement struct {
	// exploration margin passed to EI
	Xi float64
}

func (s *ScalarizedImprovement) Name() string { return "scalarized_ei" }

func (s *ScalarizedImprovement) Propose(p *Proposal) (design.Point, error) {
	w := randomWeights(p.RNG, len(p.Models))

	// Incumbent: best scalarized value among valid observations.
	best := math.Inf(1)
	for _, obs := range p.Archive {
		if !obs.Valid() {
			continue
		}
		var v float64
		for i, o := range obs.Objectives {
			v += w[i] * o
		}
		if v < best {
			best = v
		}
	}
	ei := acquisition.NewExpectedImprovement(best, s.Xi)

	score := func(x []float64) float64 {
		var mu, varSum float64
		for i, gp := range p.Models {
			m, v, err := gp.Predict(x)
			if err != nil {
				return math.Inf(1)
			}
			mu += w[i] * m
			varSum += w[i] * w[i] * v
		}
		return -ei.Compute(mu, math.Sqrt(varSum))
	}
	x, err := searchMin(p.RNG, p.Vars, score)
	if err != nil {
		return nil, err
	}
	return vecToPoint(x, p.Vars), nil
}

// RandomScalarization draws a random weight vector and minimizes the
// scalarized posterior mean. Cheap and exploratory, used to widen the
// front during batch solving.
type RandomScalarization struct{}

func (RandomScalarization) Name() string { return "random_scalarization" }

func (RandomScalarization) Propose(p *Proposal) (design.Point, error) {
	w := randomWeights(p.RNG, len(p.Models))

	score := func(x []float64) float64 {
		var mu float64
		for i, gp := range p.Models {
			m, _, err := gp.Predict(x)
			if err != nil {
				return math.Inf(1)
			}
			mu += w[i] * m
		}
		return mu
	}
	x, err := searchMin(p.RNG, p.Vars, score)
	if err != nil {
		return nil, err
	}
	return vecToPoint(x, p.Vars), nil
}

// randomWeights draws a weight vector on the unit simplex.
func randomWeights(rng *rand.Rand, n int) []float64 {
	w := make([]float64, n)
	var sum float64
	for i := range w {
		w[i] = rng.Float64() + 1e-6
		sum += w[i]
	}
	for i := range w {
		w[i] /= sum
	}
	return w
}

// searchMin minimizes f over the variable bounds with multi-start
// Nelder-Mead. f must clamp nothing itself; out-of-bounds probes are
// clamped before evaluation.
func searchMin(rng *rand.Rand, vars []design.Variable, f func([]float64) float64) ([]float64, error) {
	d := len(vars)
	if d == 0 {
		return nil, errors.New(errors.KindConfiguration, "no design variables").
			WithComponent("moo")
	}

	problem := optimize.Problem{
		Func: func(x []float64) float64 {
			for i := range x {
				x[i] = math.Max(vars[i].Lower, math.Min(x[i], vars[i].Upper))
			}
			return f(x)
		},
	}
	settings := &optimize.Settings{
		Converger: &optimize.FunctionConverge{
			Absolute:   1e-6,
			Relative:   1e-6,
			Iterations: 100,
		},
	}

	nStarts := 5 + int(5*math.Sqrt(float64(d)))
	bestX := make([]float64, d)
	bestVal := math.Inf(1)
	found := false

	for s := 0; s < nStarts; s++ {
		start := make([]float64, d)
		for i, v := range vars {
			start[i] = v.Lower + rng.Float64()*(v.Upper-v.Lower)
		}

		method := &optimize.NelderMead{
			Reflection:  1.0,
			Expansion:   2.0,
			Contraction: 0.5,
			Shrink:      0.5,
			SimplexSize: 0.2,
		}
		result, err := optimize.Minimize(problem, start, settings, method)
		if err != nil || result == nil {
			continue
		}
		if result.F < bestVal {
			bestVal = result.F
			copy(bestX, result.X)
			found = true
		}
	}
	if !found {
		return nil, errors.New(errors.KindEvaluation, "acquisition search failed from every start").
			WithComponent("moo")
	}
	for i := range bestX {
		bestX[i] = math.Max(vars[i].Lower, math.Min(bestX[i], vars[i].Upper))
	}
	return bestX, nil
}

// latinHypercube generates n space-filling samples inside the variable
// bounds, one stratum per sample and dimension.
func latinHypercube(rng *rand.Rand, vars []design.Variable, n int) []design.Point {
	d := len(vars)
	samples := make([][]float64, n)
	for j := range samples {
		samples[j] = make([]float64, d)
	}

	for i := 0; i < d; i++ {
		strata := make([]float64, n)
		for j := 0; j < n; j++ {
			strata[j] = (float64(j) + rng.Float64()) / float64(n)
		}
		rng.Shuffle(n, func(k, l int) {
			strata[k], strata[l] = strata[l], strata[k]
		})
		for j := 0; j < n; j++ {
			samples[j][i] = vars[i].Lower + strata[j]*(vars[i].Upper-vars[i].Lower)
		}
	}

	points := make([]design.Point, n)
	for j := range samples {
		points[j] = vecToPoint(samples[j], vars)
	}
	return points
}

// vecToPoint maps a raw vector onto a design point, rounding integer
// and categorical variables and keeping everything inside bounds.
func vecToPoint(x []float64, vars []design.Variable) design.Point {
	p := make(design.Point, len(vars))
	for i, v := range vars {
		val := math.Max(v.Lower, math.Min(x[i], v.Upper))
		if v.Type != design.Continuous {
			val = math.Round(val)
			val = math.Max(v.Lower, math.Min(val, v.Upper))
		}
		p[v.Name] = val
	}
	return p
}

// pointToVec maps a design point onto a vector in variable
// registration order.
func pointToVec(p design.Point, vars []design.Variable) []float64 {
	x := make([]float64, len(vars))
	for i, v := range vars {
		x[i] = p[v.Name]
	}
	return x
}
