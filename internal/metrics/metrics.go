package metrics

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const (
	metricsNamespace = "tealcounter"
)

var (
	// Algod request metrics
	AlgodRequests = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Subsystem: "algod",
			Name:      "requests_total",
			Help:      "Total number of algod API requests",
		},
		[]string{"endpoint", "status"},
	)

	AlgodRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: metricsNamespace,
			Subsystem: "algod",
			Name:      "request_duration_seconds",
			Help:      "Time taken by algod API requests",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"endpoint"},
	)

	// Verification outcome metrics
	Verifications = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Subsystem: "verify",
			Name:      "verifications_total",
			Help:      "Total number of verifications by kind and result",
		},
		[]string{"kind", "result"},
	)

	// Counter contract metrics
	ContractCalls = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Subsystem: "counter",
			Name:      "calls_total",
			Help:      "Total number of counter application transactions submitted",
		},
		[]string{"method", "result"},
	)

	// Extraction metrics
	RoundsScanned = promauto.NewCounter(
		prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Subsystem: "extractor",
			Name:      "rounds_scanned_total",
			Help:      "Total number of rounds scanned for application calls",
		},
	)
)

// Result labels an outcome for the result label.
func Result(err error) string {
	if err != nil {
		return "error"
	}
	return "ok"
}

// Serve exposes /metrics on addr until ctx is cancelled.
func Serve(ctx context.Context, addr string) error {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())

	srv := &http.Server{
		Addr:              addr,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			slog.Warn("Failed to shut down metrics server", "error", err)
		}
	}()

	slog.Info("Serving metrics", "addr", addr)
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}
