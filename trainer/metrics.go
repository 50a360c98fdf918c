package trainer

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/viettran-edgeAI/MCU-sub008/forest"
)

// Metrics holds the prometheus collectors training progress is reported
// through. A nil *Metrics is valid and records nothing.
type Metrics struct {
	registry *prometheus.Registry

	Epochs       prometheus.Counter
	Builds       prometheus.Counter
	Scores       *prometheus.GaugeVec
	Transitions  *prometheus.CounterVec
	Combinations prometheus.Counter
	GridBest     prometheus.Gauge
}

// NewMetrics returns Metrics registered on a registry of their own,
// along with the Go runtime and process collectors.
func NewMetrics() *Metrics {
	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector())
	reg.MustRegister(collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	m := &Metrics{
		registry: reg,
		Epochs: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "mcuforest_trainer_epochs_total",
			Help: "Number of training epochs run",
		}),
		Builds: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "mcuforest_forest_builds_total",
			Help: "Number of forest builds run by the trainer",
		}),
		Scores: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Name: "mcuforest_trainer_score",
			Help: "Latest forest scores by kind",
		}, []string{"kind"}),
		Transitions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "mcuforest_trainer_state_transitions_total",
			Help: "Number of trainer state transitions by target state",
		}, []string{"state"}),
		Combinations: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "mcuforest_grid_combinations_total",
			Help: "Number of grid search combinations evaluated",
		}),
		GridBest: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "mcuforest_grid_best_score",
			Help: "Best test score found by the grid search",
		}),
	}
	reg.MustRegister(m.Epochs, m.Builds, m.Scores, m.Transitions, m.Combinations, m.GridBest)
	return m
}

func (m *Metrics) epoch() {
	if m != nil {
		m.Epochs.Inc()
	}
}

func (m *Metrics) build() {
	if m != nil {
		m.Builds.Inc()
	}
}

func (m *Metrics) evaluation(e forest.Evaluation, best float64) {
	if m == nil {
		return
	}
	m.Scores.WithLabelValues("oob").Set(e.OOB)
	m.Scores.WithLabelValues("validation").Set(e.Validation)
	m.Scores.WithLabelValues("combined").Set(e.Combined)
	m.Scores.WithLabelValues("best").Set(best)
}

func (m *Metrics) transition(s State) {
	if m != nil {
		m.Transitions.WithLabelValues(s.String()).Inc()
	}
}

func (m *Metrics) combination(best float64) {
	if m != nil {
		m.Combinations.Inc()
		m.GridBest.Set(best)
	}
}

// Handler returns the HTTP handler exposing the metrics.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// Expose starts an HTTP server exposing the metrics on addr and
// returns a function that shuts it down.
func (m *Metrics) Expose(addr string, logger *slog.Logger) func() {
	mux := http.NewServeMux()
	mux.Handle("/metrics", m.Handler())
	srv := &http.Server{Addr: addr, Handler: mux, ReadHeaderTimeout: 5 * time.Second}
	go func() {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("metrics server error", "error", err)
		}
	}()
	return func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := srv.Shutdown(ctx); err != nil {
			logger.Error("shutting down metrics server", "error", err)
		}
	}
}
