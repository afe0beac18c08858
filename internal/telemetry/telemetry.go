// Package telemetry counts workflow outcomes and optionally serves them.
package telemetry

import (
	"context"
	"errors"
	"log"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const (
	OutcomeSuccess = "success"
	OutcomeFailure = "failure"
	OutcomeSkipped = "skipped"
)

// Recorder receives one observation per finished workflow.
type Recorder interface {
	Observe(workflow, outcome string, elapsed time.Duration)
}

// Nop discards observations.
type Nop struct{}

func (Nop) Observe(string, string, time.Duration) {}

// Metrics is a Recorder backed by a private Prometheus registry.
type Metrics struct {
	registry *prometheus.Registry
	total    *prometheus.CounterVec
	duration *prometheus.HistogramVec
}

// NewMetrics registers the workflow collectors.
func NewMetrics() *Metrics {
	registry := prometheus.NewRegistry()
	total := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "chromaseek_workflow_total",
		Help: "Finished client workflows by outcome.",
	}, []string{"workflow", "outcome"})
	duration := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "chromaseek_workflow_duration_seconds",
		Help:    "Round-trip time of client workflows.",
		Buckets: prometheus.ExponentialBuckets(0.01, 2, 14),
	}, []string{"workflow"})
	registry.MustRegister(total, duration)
	return &Metrics{registry: registry, total: total, duration: duration}
}

// Observe implements Recorder.
func (m *Metrics) Observe(workflow, outcome string, elapsed time.Duration) {
	m.total.WithLabelValues(workflow, outcome).Inc()
	if outcome != OutcomeSkipped {
		m.duration.WithLabelValues(workflow).Observe(elapsed.Seconds())
	}
}

// Handler exposes /metrics and /healthz.
func (m *Metrics) Handler() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Handle("/metrics", promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{}))
	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"status":"ok"}`))
	})
	return r
}

// Serve listens on addr until ctx is cancelled.
func (m *Metrics) Serve(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           m.Handler(),
		ReadHeaderTimeout: 5 * time.Second,
	}
	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			log.Printf("[telemetry] shutdown: %v", err)
		}
	}()
	log.Printf("[telemetry] serving metrics on %s", addr)
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}
