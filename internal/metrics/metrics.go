// Package metrics holds the Prometheus collectors for backend calls.
package metrics

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
)

// Registry holds every collector the application exposes.
var Registry = prometheus.NewRegistry()

var factory = promauto.With(Registry)

var (
	// APIRequestDuration measures backend round trips in seconds.
	APIRequestDuration = factory.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "inbox_copilot_api_request_duration_seconds",
			Help:    "Backend API request duration in seconds",
			Buckets: prometheus.ExponentialBuckets(0.01, 2, 12), // 10ms to ~20s
		},
		[]string{"method", "endpoint", "outcome"},
	)

	// APIFailures counts failed backend requests by error kind.
	APIFailures = factory.NewCounterVec(
		prometheus.CounterOpts{
			Name: "inbox_copilot_api_failures_total",
			Help: "Total number of failed backend API requests",
		},
		[]string{"endpoint", "kind"},
	)

	// BreakerState is 0 closed, 1 half-open, 2 open.
	BreakerState = factory.NewGauge(
		prometheus.GaugeOpts{
			Name: "inbox_copilot_api_breaker_state",
			Help: "Circuit breaker state for the backend API",
		},
	)

	// EmailsSynced counts new emails reported by mailbox syncs.
	EmailsSynced = factory.NewCounter(
		prometheus.CounterOpts{
			Name: "inbox_copilot_emails_synced_total",
			Help: "Total number of new emails pulled in by sync",
		},
	)
)

func init() {
	Registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
}

// RecordAPIRequest records one backend call.
func RecordAPIRequest(method, endpoint, outcome string, d time.Duration) {
	APIRequestDuration.WithLabelValues(method, endpoint, outcome).Observe(d.Seconds())
}

// RecordAPIFailure counts a failed backend call.
func RecordAPIFailure(endpoint, kind string) {
	APIFailures.WithLabelValues(endpoint, kind).Inc()
}

// Handler exposes Registry in the Prometheus text format.
func Handler() http.Handler {
	return promhttp.HandlerFor(Registry, promhttp.HandlerOpts{})
}

// Serve runs a metrics endpoint on addr until ctx is cancelled.
func Serve(ctx context.Context, addr string, logger *zap.Logger) error {
	mux := http.NewServeMux()
	mux.Handle("/metrics", Handler())

	srv := &http.Server{
		Addr:              addr,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
	}()

	logger.Info("metrics endpoint listening", zap.String("addr", addr))
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}
