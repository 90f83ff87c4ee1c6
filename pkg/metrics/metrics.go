// Package metrics exposes the Prometheus metrics of the search tool.
// All metrics are defined in their respective packages (client, ratelimit,
// listing, search) and registered via promauto on the default registry.
package metrics

import (
	"context"
	"errors"
	"net"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/Sternrassler/carsearch/pkg/logging"
)

// Handler serves the default registry in the Prometheus text format.
func Handler() http.Handler {
	return promhttp.Handler()
}

// Serve exposes /metrics on addr until ctx is done. The listener is bound
// before Serve returns so bind errors surface immediately.
func Serve(ctx context.Context, addr string) (net.Addr, <-chan error, error) {
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return nil, nil, err
	}

	mux := http.NewServeMux()
	mux.Handle("/metrics", Handler())
	srv := &http.Server{
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}

	logger := logging.NewLogger("metrics")
	logger.Info().Str("addr", ln.Addr().String()).Msg("Metrics server listening")

	done := make(chan error, 1)
	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		srv.Shutdown(shutdownCtx)
	}()
	go func() {
		err := srv.Serve(ln)
		if errors.Is(err, http.ErrServerClosed) {
			err = nil
		}
		logger.Info().Msg("Metrics server stopped")
		done <- err
		close(done)
	}()

	return ln.Addr(), done, nil
}

// Metrics Documentation
//
// Request Metrics (pkg/client):
//   - carsearch_requests_total{status} (Counter): Requests by HTTP status
//   - carsearch_request_duration_seconds (Histogram): Request duration
//   - carsearch_fetch_errors_total{class} (Counter): Failures by class (client, server, rate_limit, network)
//
// Failure Streak Metrics (pkg/ratelimit):
//   - carsearch_consecutive_failures (Gauge): Current streak of failed responses
//   - carsearch_throttle_waits_total{level} (Counter): Requests delayed by a streak (warning, critical)
//
// Listing Metrics (pkg/listing):
//   - carsearch_listing_parse_failures_total{field} (Counter): Listings skipped by the field that failed
//
// Search Metrics (pkg/search):
//   - carsearch_pages_total{outcome} (Counter): Pages by outcome (ok, empty, skipped)
//   - carsearch_page_retries_total (Counter): Repeated attempts at a page
//   - carsearch_records_total (Counter): Records built
//
// Example Prometheus Queries:
//
//   # Skipped page ratio
//   rate(carsearch_pages_total{outcome="skipped"}[5m]) / rate(carsearch_pages_total[5m])
//
//   # Challenge responses
//   rate(carsearch_requests_total{status="403"}[5m])
//
//   # P95 Request Latency
//   histogram_quantile(0.95, rate(carsearch_request_duration_seconds_bucket[5m]))
