// Package config loads runtime configuration for the sammoo campaign
// driver from the environment.
package config

import (
	"time"

	"github.com/caarlos0/env/v10"
	"github.com/joho/godotenv"
)

// Config holds the full runtime configuration.
type Config struct {
	Environment string `env:"ENV" envDefault:"development"`
	HTTP        struct {
		Port            int           `env:"HTTP_PORT" envDefault:"8080"`
		ShutdownTimeout time.Duration `env:"HTTP_SHUTDOWN_TIMEOUT" envDefault:"10s"`
	}
	Logging struct {
		Level  string `env:"LOG_LEVEL" envDefault:"info"`
		Format string `env:"LOG_FORMAT" envDefault:"json"`
		Output string `env:"LOG_OUTPUT" envDefault:"stderr"`
	}
	Optimization struct {
		Seed              int64   `env:"OPT_SEED" envDefault:"1"`
		SearchBudget      int     `env:"OPT_SEARCH_BUDGET" envDefault:"10"`
		EvalBudget        int     `env:"OPT_EVAL_BUDGET" envDefault:"40"`
		Acquisitions      int     `env:"OPT_ACQUISITIONS" envDefault:"3"`
		AutoSwitch        bool    `env:"OPT_AUTO_SWITCH" envDefault:"true"`
		SwitchEpsilon     float64 `env:"OPT_SWITCH_EPSILON" envDefault:"0.01"`
		ExtraAcquisitions int     `env:"OPT_EXTRA_ACQUISITIONS" envDefault:"3"`
	}
	Problem struct {
		File       string `env:"PROBLEM_FILE" envDefault:"problem.yaml"`
		ExportPath string `env:"EXPORT_PATH" envDefault:"pareto_front.csv"`
	}
}

// Load reads an optional .env file and parses the environment into a Config.
func Load() (*Config, error) {
	// Missing .env is fine, the environment alone is authoritative.
	_ = godotenv.Load()

	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, err
	}

	if cfg.Environment == "development" && cfg.Logging.Level == "" {
		cfg.Logging.Level = "debug"
	}

	return cfg, nil
}
