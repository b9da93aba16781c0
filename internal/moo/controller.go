package moo

import (
	"math"

	"go.uber.org/zap"
)

// Mode is the acquisition mode of a campaign.
type Mode int

const (
	// ModeSequential evaluates one candidate per acquisition per step.
	ModeSequential Mode = iota
	// ModeBatch runs the remaining budget in one solve. Terminal, only
	// Reset returns to sequential.
	ModeBatch
)

func (m Mode) String() string {
	switch m {
	case ModeSequential:
		return "sequential"
	case ModeBatch:
		return "batch"
	default:
		return "unknown"
	}
}

// ModeController latches a campaign from sequential to batch mode once
// the front stops moving. The signal is the mean over the Pareto
// front's per-objective column means, a coarse scalar proxy for front
// movement, not a proof of optimality.
type ModeController struct {
	autoSwitch bool
	epsilon    float64

	mode     Mode
	switched bool
	history  []float64

	log *zap.Logger
}

// NewModeController creates a controller in sequential mode.
func NewModeController(autoSwitch bool, epsilon float64, log *zap.Logger) *ModeController {
	if log == nil {
		log = zap.NewNop()
	}
	return &ModeController{
		autoSwitch: autoSwitch,
		epsilon:    epsilon,
		log:        log.Named("mode"),
	}
}

// Observe records one sequential step's mean-objective value and
// reports whether the switch to batch mode fires on this step. NaN
// values, produced while the front is still empty, are not recorded.
// The delta comparison is strict, so epsilon 0 never switches.
func (c *ModeController) Observe(mean float64) bool {
	if math.IsNaN(mean) {
		c.log.Debug("skipping undefined front mean")
		return false
	}
	c.history = append(c.history, mean)

	if c.mode == ModeBatch || !c.autoSwitch || len(c.history) < 2 {
		return false
	}
	delta := math.Abs(c.history[len(c.history)-1] - c.history[len(c.history)-2])
	if delta < c.epsilon {
		c.mode = ModeBatch
		c.switched = true
		c.log.Info("switching to batch mode",
			zap.Float64("delta", delta),
			zap.Float64("epsilon", c.epsilon),
			zap.Int("steps_recorded", len(c.history)),
		)
		return true
	}
	return false
}

// Mode returns the current mode.
func (c *ModeController) Mode() Mode { return c.mode }

// Switched reports whether the one-way latch has fired.
func (c *ModeController) Switched() bool { return c.switched }

// History returns the recorded per-step mean-objective values.
func (c *ModeController) History() []float64 {
	out := make([]float64, len(c.history))
	copy(out, c.history)
	return out
}

// Reset returns the controller to sequential mode with an empty
// history. The auto-switch flag and epsilon are preserved.
func (c *ModeController) Reset() {
	c.mode = ModeSequential
	c.switched = false
	c.history = c.history[:0]
}
