// Package server exposes a small HTTP monitor for long optimization
// campaigns: liveness, campaign status as JSON, and Prometheus
// metrics.
package server

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/ppadillaq/sammoo/internal/errors"
	"github.com/ppadillaq/sammoo/internal/moo"
)

// Monitor serves read-only views of a running campaign. The problem's
// own synchronization makes the reads safe while the optimization
// loop runs.
type Monitor struct {
	problem *moo.Problem
	log     *zap.Logger

	registry *prometheus.Registry
	srv      *http.Server
}

// NewMonitor wires the monitor's routes and metrics for one problem.
func NewMonitor(problem *moo.Problem, port int, log *zap.Logger) *Monitor {
	if log == nil {
		log = zap.NewNop()
	}
	m := &Monitor{
		problem:  problem,
		log:      log.Named("monitor"),
		registry: prometheus.NewRegistry(),
	}
	m.registerMetrics()

	r := chi.NewRouter()
	r.Use(errors.RecoveryMiddleware(m.log))
	r.Get("/healthz", m.handleHealth)
	r.Route("/api/v1", func(r chi.Router) {
		r.Get("/status", m.handleStatus)
	})
	r.Handle("/metrics", promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{}))

	m.srv = &http.Server{
		Addr:              fmt.Sprintf(":%d", port),
		Handler:           r,
		ReadHeaderTimeout: 5 * time.Second,
	}
	return m
}

func (m *Monitor) registerMetrics() {
	m.registry.MustRegister(
		prometheus.NewGaugeFunc(prometheus.GaugeOpts{
			Name: "sammoo_evaluations_total",
			Help: "Oracle evaluations made so far.",
		}, func() float64 { return float64(m.problem.Evaluations()) }),
		prometheus.NewGaugeFunc(prometheus.GaugeOpts{
			Name: "sammoo_evaluation_failures_total",
			Help: "Evaluations that returned an undefined objective vector.",
		}, func() float64 { return float64(m.problem.Failures()) }),
		prometheus.NewGaugeFunc(prometheus.GaugeOpts{
			Name: "sammoo_pareto_front_size",
			Help: "Current Pareto front cardinality.",
		}, func() float64 { return float64(m.problem.FrontSize()) }),
		prometheus.NewGaugeFunc(prometheus.GaugeOpts{
			Name: "sammoo_optimization_steps_total",
			Help: "Completed optimization steps.",
		}, func() float64 { return float64(m.problem.Step()) }),
		prometheus.NewGaugeFunc(prometheus.GaugeOpts{
			Name: "sammoo_batch_mode",
			Help: "1 once the campaign has latched to batch mode.",
		}, func() float64 {
			if m.problem.Mode() == moo.ModeBatch {
				return 1
			}
			return 0
		}),
	)
}

// Handler returns the monitor's HTTP handler, useful for tests.
func (m *Monitor) Handler() http.Handler { return m.srv.Handler }

// Start serves until Shutdown. Blocking.
func (m *Monitor) Start() error {
	m.log.Info("monitor listening", zap.String("addr", m.srv.Addr))
	if err := m.srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return errors.Wrap(err, errors.KindIO, "monitor server").WithComponent("server")
	}
	return nil
}

// Shutdown stops the server gracefully.
func (m *Monitor) Shutdown(ctx context.Context) error {
	return m.srv.Shutdown(ctx)
}

func (m *Monitor) handleHealth(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(map[string]string{"status": "ok"})
}

// statusResponse is the campaign snapshot served at /api/v1/status.
type statusResponse struct {
	Step        int    `json:"step"`
	Mode        string `json:"mode"`
	Switched    bool   `json:"switched"`
	Evaluations int    `json:"evaluations"`
	Failures    int    `json:"failures"`
	ArchiveSize int    `json:"archive_size"`
	FrontSize   int    `json:"front_size"`
}

func (m *Monitor) handleStatus(w http.ResponseWriter, _ *http.Request) {
	resp := statusResponse{
		Step:        m.problem.Step(),
		Mode:        m.problem.Mode().String(),
		Switched:    m.problem.Controller().Switched(),
		Evaluations: m.problem.Evaluations(),
		Failures:    m.problem.Failures(),
		ArchiveSize: m.problem.ArchiveSize(),
		FrontSize:   m.problem.FrontSize(),
	}
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(resp); err != nil {
		m.log.Error("encoding status response", zap.Error(err))
	}
}
