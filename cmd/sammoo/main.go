// Command sammoo runs a multi-objective optimization campaign over a
// solar-thermal plant simulation and exports the resulting Pareto
// front.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"
	"gopkg.in/yaml.v3"

	"github.com/ppadillaq/sammoo/internal/config"
	"github.com/ppadillaq/sammoo/internal/design"
	"github.com/ppadillaq/sammoo/internal/logging"
	"github.com/ppadillaq/sammoo/internal/moo"
	"github.com/ppadillaq/sammoo/internal/profile"
	"github.com/ppadillaq/sammoo/internal/report"
	"github.com/ppadillaq/sammoo/internal/server"
	"github.com/ppadillaq/sammoo/internal/sim"
)

// problemSpec is the YAML description of one campaign.
type problemSpec struct {
	Preset      string `yaml:"preset"`
	WeatherFile string `yaml:"weather_file"`
	// strategy for the design-point DNI: nearest_noon or max_window
	DNIStrategy      string          `yaml:"dni_strategy"`
	DNIWindowMinutes int             `yaml:"dni_window_minutes"`
	Template         string          `yaml:"template"`
	Translation      string          `yaml:"translation"`
	SCAsPerLoop      int             `yaml:"scas_per_loop"`
	MonthlyLPGKg     map[int]float64 `yaml:"monthly_lpg_kg"`

	Inputs map[string]interface{} `yaml:"inputs"`

	Variables []struct {
		Name  string  `yaml:"name"`
		Lower float64 `yaml:"lower"`
		Upper float64 `yaml:"upper"`
		Type  string  `yaml:"type"`
	} `yaml:"variables"`

	Objectives []string `yaml:"objectives"`
}

func loadProblemSpec(path string) (*problemSpec, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read problem file %q: %w", path, err)
	}
	var spec problemSpec
	if err := yaml.Unmarshal(data, &spec); err != nil {
		return nil, fmt.Errorf("parse problem file %q: %w", path, err)
	}
	return &spec, nil
}

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	logger, err := logging.New(&logging.Config{
		Level:  cfg.Logging.Level,
		Format: cfg.Logging.Format,
		Output: cfg.Logging.Output,
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync() //nolint:errcheck

	if err := run(cfg, logger); err != nil {
		logger.Fatal("campaign failed", zap.Error(err))
	}
}

func run(cfg *config.Config, logger *zap.Logger) error {
	spec, err := loadProblemSpec(cfg.Problem.File)
	if err != nil {
		return err
	}

	space, err := buildSpace(spec)
	if err != nil {
		return err
	}

	oracle, err := buildOracle(spec, space, logger)
	if err != nil {
		return err
	}

	problem, err := moo.NewProblem(space, oracle, moo.Config{
		Seed:              cfg.Optimization.Seed,
		EvalBudget:        cfg.Optimization.EvalBudget,
		AutoSwitch:        cfg.Optimization.AutoSwitch,
		SwitchEpsilon:     cfg.Optimization.SwitchEpsilon,
		ExtraAcquisitions: cfg.Optimization.ExtraAcquisitions,
	}, logger)
	if err != nil {
		return err
	}
	for i := 0; i < cfg.Optimization.Acquisitions; i++ {
		problem.AddAcquisition(&moo.ScalarizedImprovement{Xi: 0.01})
	}

	monitor := server.NewMonitor(problem, cfg.HTTP.Port, logger)
	go func() {
		if err := monitor.Start(); err != nil {
			logger.Error("monitor server stopped", zap.Error(err))
		}
	}()

	done := make(chan error, 1)
	go func() { done <- runCampaign(cfg, problem, logger) }()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-done:
		if err != nil {
			return err
		}
	case sig := <-quit:
		logger.Warn("interrupted, exporting partial results", zap.String("signal", sig.String()))
	}

	table := report.FrontTable(problem)
	if err := table.Export(cfg.Problem.ExportPath); err != nil {
		return err
	}
	logger.Info("pareto front exported",
		zap.String("path", cfg.Problem.ExportPath),
		zap.Int("rows", len(table.Rows)),
	)

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.HTTP.ShutdownTimeout)
	defer cancel()
	if err := monitor.Shutdown(shutdownCtx); err != nil {
		logger.Error("monitor shutdown", zap.Error(err))
	}
	return nil
}

// runCampaign drives the search: initial sampling, then sequential
// steps until the controller latches to batch mode or the budget is
// gone. The batch solve itself runs inside OptimizeStep on switch.
func runCampaign(cfg *config.Config, problem *moo.Problem, logger *zap.Logger) error {
	start := time.Now()
	if err := problem.RunInitialSampling(cfg.Optimization.SearchBudget); err != nil {
		return err
	}

	for problem.Mode() == moo.ModeSequential &&
		problem.Evaluations() < cfg.Optimization.EvalBudget {
		if err := problem.OptimizeStep(); err != nil {
			return err
		}
		logger.Info("step complete",
			zap.Int("step", problem.Step()),
			zap.Int("evaluations", problem.Evaluations()),
			zap.Int("front_size", problem.FrontSize()),
			zap.String("mode", problem.Mode().String()),
		)
	}

	logger.Info("campaign finished",
		zap.Duration("elapsed", time.Since(start)),
		zap.Int("evaluations", problem.Evaluations()),
		zap.Int("failures", problem.Failures()),
		zap.Int("front_size", problem.FrontSize()),
		zap.Bool("switched_to_batch", problem.Controller().Switched()),
	)
	return nil
}

func buildSpace(spec *problemSpec) (*design.Space, error) {
	space := design.NewSpace()
	for _, v := range spec.Variables {
		typ, err := design.ParseVarType(v.Type)
		if err != nil {
			return nil, err
		}
		if err := space.AddVariable(v.Name, v.Lower, v.Upper, typ); err != nil {
			return nil, err
		}
	}
	for _, name := range spec.Objectives {
		if err := space.AddObjective(name); err != nil {
			return nil, err
		}
	}
	return space, nil
}

// buildOracle assembles the plant chain and every configured
// collaborator: template defaults, fixed inputs, loop layout, weather
// design point, and thermal load profile.
func buildOracle(spec *problemSpec, space *design.Space, logger *zap.Logger) (*sim.ConfigSelection, error) {
	modules, err := sim.DefaultChain(spec.Preset)
	if err != nil {
		return nil, err
	}

	opts := []sim.Option{sim.WithLogger(logger)}
	if spec.Translation != "" {
		tr, err := sim.LoadTranslation(spec.Translation)
		if err != nil {
			return nil, err
		}
		opts = append(opts, sim.WithTranslation(tr))
	}
	if spec.WeatherFile != "" {
		opts = append(opts, sim.WithWeatherFile(spec.WeatherFile))
	}

	oracle, err := sim.NewConfigSelection(spec.Preset, modules, spec.Objectives,
		space.Variables(), opts...)
	if err != nil {
		return nil, err
	}

	if spec.Template != "" {
		tpl, err := sim.LoadTemplate(spec.Template)
		if err != nil {
			return nil, err
		}
		oracle.ApplyTemplate(tpl)
	}
	if len(spec.Inputs) > 0 {
		oracle.SetInputs(spec.Inputs)
	}
	if spec.SCAsPerLoop > 0 {
		loop := sim.NewSolarLoopConfiguration(spec.SCAsPerLoop)
		if err := loop.ApplyTo(oracle); err != nil {
			return nil, err
		}
	}
	if spec.WeatherFile != "" && spec.DNIStrategy != "" {
		w, err := sim.NewWeatherDesignPoint(spec.WeatherFile, logger)
		if err != nil {
			return nil, err
		}
		strategy := sim.NearestNoon
		if spec.DNIStrategy == string(sim.MaxWindow) {
			strategy = sim.MaxWindow
		}
		dni, err := w.ApplyTo(oracle, strategy, spec.DNIWindowMinutes)
		if err != nil {
			return nil, err
		}
		logger.Info("design-point DNI assigned", zap.Float64("dni", dni))
	}
	if len(spec.MonthlyLPGKg) > 0 {
		monthly := make(map[time.Month]float64, len(spec.MonthlyLPGKg))
		for m, kg := range spec.MonthlyLPGKg {
			monthly[time.Month(m)] = kg
		}
		load, err := profile.NewThermalLoadLPG(monthly, profile.WithLoadLogger(logger))
		if err != nil {
			return nil, err
		}
		if err := load.ApplyTo(oracle); err != nil {
			return nil, err
		}
	}
	return oracle, nil
}
