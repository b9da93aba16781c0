// Package moo implements the multi-objective optimization engine: a
// surrogate-assisted search over a design space against an expensive
// simulation oracle, with sequential and batch acquisition modes.
package moo

import (
	"math"
	"math/rand"
	"sync"

	"go.uber.org/zap"
	"gonum.org/v1/gonum/mat"

	"github.com/ppadillaq/sammoo/internal/design"
	"github.com/ppadillaq/sammoo/internal/errors"
	"github.com/ppadillaq/sammoo/internal/moo/kernels"
	"github.com/ppadillaq/sammoo/internal/moo/surrogate"
)

// Oracle is the simulation the problem searches against. Evaluate
// must always return a vector of Arity() values, NaN-filled on
// failure, and is assumed stateful and non-reentrant.
type Oracle interface {
	Evaluate(p design.Point) []float64
	Arity() int
}

// Observation is one oracle evaluation. Raw holds the oracle vector
// as returned; Objectives holds the same values after sign
// normalization, so dominance always minimizes. Records are never
// mutated after creation.
type Observation struct {
	Point      design.Point
	Raw        []float64
	Objectives []float64
}

// Valid reports whether every objective value is defined.
func (o Observation) Valid() bool {
	for _, v := range o.Objectives {
		if math.IsNaN(v) {
			return false
		}
	}
	return true
}

// Config holds the campaign parameters.
type Config struct {
	// Seed for the search generator. The same seed reproduces the
	// same archive.
	Seed int64
	// EvalBudget caps total oracle evaluations across the campaign.
	EvalBudget int
	// AutoSwitch enables the sequential-to-batch latch.
	AutoSwitch bool
	// SwitchEpsilon is the strict threshold on the front-mean delta.
	SwitchEpsilon float64
	// ExtraAcquisitions are added when the latch fires.
	ExtraAcquisitions int
	// NoiseVar is the surrogate observation noise. Zero selects a
	// small stabilizing default.
	NoiseVar float64
}

const defaultNoiseVar = 1e-6

// Problem owns one optimization campaign: the design space, the
// oracle, the fitted surrogates, the acquisition policies, and the
// archive of every evaluation made. The search itself is
// single-threaded; the mutex only makes state visible to concurrent
// readers such as the monitor server.
type Problem struct {
	mu sync.RWMutex

	space  *design.Space
	oracle Oracle
	cfg    Config

	rng        *rand.Rand
	controller *ModeController
	models     []*surrogate.GP

	// user-registered policies and the ones the controller adds when
	// it latches to batch mode; Reset drops only the latter
	acqs      []Acquisition
	extraAcqs []Acquisition

	archive  []Observation
	step     int
	evals    int
	failures int

	log *zap.Logger
}

// NewProblem wires a design space and an oracle into a campaign. The
// oracle's output arity must match the number of registered
// objectives, positionally aligned with registration order.
func NewProblem(space *design.Space, oracle Oracle, cfg Config, log *zap.Logger) (*Problem, error) {
	const op = "NewProblem"
	if log == nil {
		log = zap.NewNop()
	}
	if space == nil || oracle == nil {
		return nil, errors.New(errors.KindConfiguration, "space and oracle are required").
			WithOp(op).WithComponent("moo")
	}
	if space.NumVariables() == 0 {
		return nil, errors.New(errors.KindConfiguration, "no design variables registered").
			WithOp(op).WithComponent("moo")
	}
	if n := space.NumObjectives(); n == 0 || oracle.Arity() != n {
		return nil, errors.Newf(errors.KindConfiguration,
			"oracle arity %d does not match %d registered objectives",
			oracle.Arity(), space.NumObjectives()).
			WithOp(op).WithComponent("moo")
	}
	if cfg.NoiseVar <= 0 {
		cfg.NoiseVar = defaultNoiseVar
	}

	p := &Problem{
		space:      space,
		oracle:     oracle,
		cfg:        cfg,
		rng:        rand.New(rand.NewSource(cfg.Seed)),
		controller: NewModeController(cfg.AutoSwitch, cfg.SwitchEpsilon, log),
		log:        log.Named("problem"),
	}
	p.models = p.freshModels()
	return p, nil
}

func (p *Problem) freshModels() []*surrogate.GP {
	models := make([]*surrogate.GP, p.space.NumObjectives())
	for i := range models {
		models[i] = surrogate.NewGP(kernels.NewMatern52(1.0, 1.0), p.cfg.NoiseVar, p.log)
	}
	return models
}

// AddAcquisition registers one more candidate-generation policy.
// Policies coexist; each sequential step proposes one candidate per
// policy.
func (p *Problem) AddAcquisition(a Acquisition) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.acqs = append(p.acqs, a)
}

// RunInitialSampling evaluates a space-filling Latin hypercube batch
// of the given size and archives every result.
func (p *Problem) RunInitialSampling(budget int) error {
	if budget <= 0 {
		return errors.Newf(errors.KindConfiguration, "sampling budget %d must be positive", budget).
			WithComponent("moo")
	}
	points := latinHypercube(p.rng, p.space.Variables(), budget)
	for _, pt := range points {
		p.evaluate(pt)
	}
	p.log.Info("initial sampling complete",
		zap.Int("samples", budget),
		zap.Int("failures", p.Failures()),
	)
	return nil
}

// evaluate runs the oracle on one point and appends the observation.
func (p *Problem) evaluate(pt design.Point) Observation {
	raw := p.oracle.Evaluate(pt)

	objs := p.space.Objectives()
	normalized := make([]float64, len(objs))
	for i := range objs {
		normalized[i] = objs[i].Sign() * raw[i]
	}
	obs := Observation{Point: pt.Clone(), Raw: raw, Objectives: normalized}

	p.mu.Lock()
	p.archive = append(p.archive, obs)
	p.evals++
	if !obs.Valid() {
		p.failures++
	}
	p.mu.Unlock()
	return obs
}

// refit trains one surrogate per objective on the valid observations.
// With fewer than two valid points the surrogates stay untrained and
// proposals fall back to random sampling.
func (p *Problem) refit() error {
	var valid []Observation
	for _, obs := range p.archive {
		if obs.Valid() {
			valid = append(valid, obs)
		}
	}
	if len(valid) < 2 {
		return nil
	}

	vars := p.space.Variables()
	x := mat.NewDense(len(valid), len(vars), nil)
	for i, obs := range valid {
		x.SetRow(i, pointToVec(obs.Point, vars))
	}
	for j, gp := range p.models {
		y := mat.NewVecDense(len(valid), nil)
		for i, obs := range valid {
			y.SetVec(i, obs.Objectives[j])
		}
		if err := gp.Fit(x, y); err != nil {
			return errors.Wrapf(err, errors.KindEvaluation, "refit surrogate %d", j).
				WithComponent("moo")
		}
	}
	return nil
}

// propose asks one acquisition for a candidate, falling back to a
// uniform random point while the surrogates are untrained or the
// search fails.
func (p *Problem) propose(a Acquisition) design.Point {
	vars := p.space.Variables()
	if !p.models[0].Trained() {
		return randomPoint(p.rng, vars)
	}
	pt, err := a.Propose(&Proposal{
		RNG:     p.rng,
		Models:  p.models,
		Vars:    vars,
		Archive: p.archive,
	})
	if err != nil {
		p.log.Warn("acquisition failed, sampling randomly",
			zap.String("acquisition", a.Name()),
			zap.Error(err),
		)
		return randomPoint(p.rng, vars)
	}
	return pt
}

func randomPoint(rng *rand.Rand, vars []design.Variable) design.Point {
	x := make([]float64, len(vars))
	for i, v := range vars {
		x[i] = v.Lower + rng.Float64()*(v.Upper-v.Lower)
	}
	return vecToPoint(x, vars)
}

// OptimizeStep performs one sequential iteration: refit surrogates,
// propose and evaluate one candidate per registered acquisition, and
// feed the convergence signal to the mode controller. While in batch
// mode the call is a logged no-op.
func (p *Problem) OptimizeStep() error {
	if p.controller.Mode() == ModeBatch {
		p.log.Warn("sequential step rejected in batch mode",
			zap.String("kind", errors.KindModeViolation.String()),
			zap.Int("step", p.Step()),
		)
		return nil
	}
	if len(p.acqs) == 0 {
		return errors.New(errors.KindConfiguration, "no acquisitions registered").
			WithOp("OptimizeStep").WithComponent("moo")
	}

	if err := p.refit(); err != nil {
		return err
	}
	for _, a := range p.acqs {
		pt := p.propose(a)
		p.evaluate(pt)
	}

	p.mu.Lock()
	p.step++
	step := p.step
	p.mu.Unlock()

	mean := p.FrontMean()
	p.log.Debug("sequential step complete",
		zap.Int("step", step),
		zap.Float64("front_mean", mean),
	)

	if p.controller.Observe(mean) {
		for i := 0; i < p.cfg.ExtraAcquisitions; i++ {
			p.mu.Lock()
			p.extraAcqs = append(p.extraAcqs, RandomScalarization{})
			p.mu.Unlock()
		}
		remaining := p.cfg.EvalBudget - p.Evaluations()
		if remaining > 0 {
			return p.SolveAll(remaining)
		}
	}
	return nil
}

// SolveAll runs batch iterations until the evaluation budget is spent
// or no acquisitions are pending. Deterministic under a fixed seed.
func (p *Problem) SolveAll(evalBudget int) error {
	all := p.allAcquisitions()
	if len(all) == 0 {
		return errors.New(errors.KindConfiguration, "no acquisitions registered").
			WithOp("SolveAll").WithComponent("moo")
	}

	spent := 0
	for spent < evalBudget {
		if err := p.refit(); err != nil {
			return err
		}
		for _, a := range all {
			if spent >= evalBudget {
				break
			}
			pt := p.propose(a)
			p.evaluate(pt)
			spent++
		}
		p.mu.Lock()
		p.step++
		p.mu.Unlock()
	}
	p.log.Info("batch solve complete",
		zap.Int("evaluations", spent),
		zap.Int("archive", p.ArchiveSize()),
	)
	return nil
}

func (p *Problem) allAcquisitions() []Acquisition {
	p.mu.RLock()
	defer p.mu.RUnlock()
	out := make([]Acquisition, 0, len(p.acqs)+len(p.extraAcqs))
	out = append(out, p.acqs...)
	out = append(out, p.extraAcqs...)
	return out
}

// ParetoFront returns the non-dominated observations in archive
// order. NaN-valued observations never appear.
func (p *Problem) ParetoFront() []Observation {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return paretoFront(p.archive)
}

// FrontMean is the convergence signal: the arithmetic mean over the
// front's per-objective column means. NaN while the front is empty.
func (p *Problem) FrontMean() float64 {
	front := p.ParetoFront()
	if len(front) == 0 {
		return math.NaN()
	}
	n := len(front[0].Objectives)
	var total float64
	for j := 0; j < n; j++ {
		var col float64
		for _, obs := range front {
			col += obs.Objectives[j]
		}
		total += col / float64(len(front))
	}
	return total / float64(n)
}

// Reset clears the archive, surrogates, convergence state, and the
// acquisitions the controller added, re-seeding the generator with
// the construction seed. Variable, objective, and oracle definitions
// are preserved. Idempotent.
func (p *Problem) Reset() {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.archive = nil
	p.step = 0
	p.evals = 0
	p.failures = 0
	p.extraAcqs = nil
	p.rng = rand.New(rand.NewSource(p.cfg.Seed))
	p.controller.Reset()
	p.models = p.freshModels()
	p.log.Info("problem reset", zap.Int64("seed", p.cfg.Seed))
}

// Mode returns the controller's current acquisition mode.
func (p *Problem) Mode() Mode { return p.controller.Mode() }

// Controller exposes the mode controller for inspection.
func (p *Problem) Controller() *ModeController { return p.controller }

// Space returns the design space definition.
func (p *Problem) Space() *design.Space { return p.space }

// OracleAdapter returns the registered oracle.
func (p *Problem) OracleAdapter() Oracle { return p.oracle }

// Step returns the number of completed optimization steps.
func (p *Problem) Step() int {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.step
}

// Evaluations returns the number of oracle calls made.
func (p *Problem) Evaluations() int {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.evals
}

// Failures returns the number of NaN-filled evaluations.
func (p *Problem) Failures() int {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.failures
}

// ArchiveSize returns the number of archived observations.
func (p *Problem) ArchiveSize() int {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return len(p.archive)
}

// FrontSize returns the current Pareto front cardinality.
func (p *Problem) FrontSize() int {
	return len(p.ParetoFront())
}

// Archive returns a copy of the observation archive.
func (p *Problem) Archive() []Observation {
	p.mu.RLock()
	defer p.mu.RUnlock()
	out := make([]Observation, len(p.archive))
	copy(out, p.archive)
	return out
}
