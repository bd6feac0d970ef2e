package observability

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/cory-johannsen/skirmish/internal/config"
)

// Metrics records encounter activity in Prometheus. Every label carries a
// bounded value set: action kinds, outcomes, combatant kinds and phases.
type Metrics struct {
	actions   *prometheus.CounterVec
	turns     *prometheus.HistogramVec
	finished  *prometheus.CounterVec
	gatherer  prometheus.Gatherer
	namespace string
}

// NewMetrics registers the encounter collectors on reg.
//
// Precondition: cfg.Namespace must be a valid Prometheus name; reg must be non-nil.
// Postcondition: Returns Metrics whose collectors are registered on reg.
func NewMetrics(cfg config.MetricsConfig, reg *prometheus.Registry) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		actions: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: cfg.Namespace,
			Name:      "actions_resolved_total",
			Help:      "Resolved actions by action kind and best outcome",
		}, []string{"kind", "outcome"}),
		turns: factory.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: cfg.Namespace,
			Name:      "turn_duration_seconds",
			Help:      "Time spent deciding and resolving an autonomous turn",
			Buckets:   []float64{0.0005, 0.001, 0.005, 0.01, 0.025, 0.05, 0.1},
		}, []string{"kind"}),
		finished: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: cfg.Namespace,
			Name:      "encounters_finished_total",
			Help:      "Finished encounters by outcome",
		}, []string{"outcome"}),
		gatherer:  reg,
		namespace: cfg.Namespace,
	}
}

// ActionResolved counts one committed action.
func (m *Metrics) ActionResolved(kind, outcome string) {
	m.actions.WithLabelValues(kind, outcome).Inc()
}

// TurnExecuted observes the duration of one autonomous turn.
func (m *Metrics) TurnExecuted(kind string, elapsed time.Duration) {
	m.turns.WithLabelValues(kind).Observe(elapsed.Seconds())
}

// EncounterFinished counts an encounter reaching victory or defeat.
func (m *Metrics) EncounterFinished(outcome string) {
	m.finished.WithLabelValues(outcome).Inc()
}

// Handler exposes the registry in the Prometheus text format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.gatherer, promhttp.HandlerOpts{})
}

// Serve runs a /metrics endpoint on addr until ctx is cancelled.
//
// Postcondition: Returns nil after a clean shutdown, or the listen error.
func (m *Metrics) Serve(ctx context.Context, addr string, logger *zap.Logger) error {
	mux := http.NewServeMux()
	mux.Handle("/metrics", m.Handler())
	srv := &http.Server{
		Addr:              addr,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("metrics endpoint listening", zap.String("addr", addr), zap.String("namespace", m.namespace))
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("serving metrics: %w", err)
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("shutting down metrics: %w", err)
		}
		return nil
	}
}
