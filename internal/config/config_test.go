package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, 8080, cfg.HTTP.Port)
	assert.Equal(t, int64(1), cfg.Optimization.Seed)
	assert.Equal(t, 10, cfg.Optimization.SearchBudget)
	assert.Equal(t, 40, cfg.Optimization.EvalBudget)
	assert.True(t, cfg.Optimization.AutoSwitch)
	assert.InDelta(t, 0.01, cfg.Optimization.SwitchEpsilon, 1e-12)
	assert.Equal(t, "pareto_front.csv", cfg.Problem.ExportPath)
}

func TestLoadFromEnvironment(t *testing.T) {
	t.Setenv("OPT_SEED", "42")
	t.Setenv("OPT_AUTO_SWITCH", "false")
	t.Setenv("OPT_SWITCH_EPSILON", "0.5")
	t.Setenv("LOG_LEVEL", "debug")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, int64(42), cfg.Optimization.Seed)
	assert.False(t, cfg.Optimization.AutoSwitch)
	assert.InDelta(t, 0.5, cfg.Optimization.SwitchEpsilon, 1e-12)
	assert.Equal(t, "debug", cfg.Logging.Level)
}
