// Package client provides the HTTP fetch capability used by the search
// controller, with request pacing, error classification, and metrics.
package client

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"golang.org/x/time/rate"

	"github.com/Sternrassler/carsearch/pkg/logging"
	"github.com/Sternrassler/carsearch/pkg/ratelimit"
)

// Prometheus metrics for catalog requests.
var (
	requestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "carsearch_requests_total",
		Help: "Total catalog requests by HTTP status",
	}, []string{"status"})

	requestDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "carsearch_request_duration_seconds",
		Help:    "Catalog request duration in seconds",
		Buckets: []float64{0.1, 0.5, 1, 2, 5, 10, 30},
	})

	fetchErrorsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "carsearch_fetch_errors_total",
		Help: "Failed catalog requests by error class",
	}, []string{"class"})
)

// ErrorClass represents a classification of failed requests.
type ErrorClass string

const (
	// ErrorClassClient represents 4xx client errors, including anti-bot refusals.
	ErrorClassClient ErrorClass = "client"

	// ErrorClassServer represents 5xx server errors.
	ErrorClassServer ErrorClass = "server"

	// ErrorClassRateLimit represents 429 Too Many Requests.
	ErrorClassRateLimit ErrorClass = "rate_limit"

	// ErrorClassNetwork represents transport failures and timeouts.
	ErrorClassNetwork ErrorClass = "network"

	// ErrorClassUnexpected represents any other status than 200, e.g. 204 or
	// a redirect the transport did not follow.
	ErrorClassUnexpected ErrorClass = "unexpected"
)

const defaultMaxBodyBytes = 16 << 20

// Client performs catalog requests.
type Client struct {
	httpClient *http.Client
	limiter    *rate.Limiter
	tracker    *ratelimit.Tracker
	config     Config
	logger     zerolog.Logger
}

// Config holds the client configuration.
type Config struct {
	// Redis shares the failure streak across processes. Optional; without it
	// the streak is tracked in memory.
	Redis *redis.Client

	// User-Agent header (REQUIRED)
	UserAgent string

	// Timeout bounds each request, including reading the body.
	Timeout time.Duration

	// Pacing
	RequestsPerSecond float64 // 0 disables pacing
	Burst             int

	// Throttle holds the pauses applied during failure streaks.
	Throttle ratelimit.Config

	// MaxBodyBytes caps how much of a response body is read.
	MaxBodyBytes int64
}

// DefaultConfig returns a polite default configuration.
func DefaultConfig(userAgent string) Config {
	return Config{
		UserAgent:         userAgent,
		Timeout:           30 * time.Second,
		RequestsPerSecond: 1,
		Burst:             1,
		Throttle:          ratelimit.DefaultConfig(),
		MaxBodyBytes:      defaultMaxBodyBytes,
	}
}

// New creates a new catalog client.
func New(cfg Config) (*Client, error) {
	if cfg.UserAgent == "" {
		return nil, fmt.Errorf("user-agent is required")
	}

	if cfg.Timeout < 0 {
		return nil, fmt.Errorf("timeout must be >= 0 (got %s)", cfg.Timeout)
	}

	if cfg.RequestsPerSecond < 0 {
		return nil, fmt.Errorf("requests_per_second must be >= 0 (got %g)", cfg.RequestsPerSecond)
	}

	if cfg.MaxBodyBytes <= 0 {
		cfg.MaxBodyBytes = defaultMaxBodyBytes
	}

	logger := logging.NewLogger("catalog-client")

	var store ratelimit.Store = ratelimit.NewMemoryStore()
	if cfg.Redis != nil {
		store = ratelimit.NewRedisStore(cfg.Redis, cfg.Throttle.StateTTL)
	}

	var limiter *rate.Limiter
	if cfg.RequestsPerSecond > 0 {
		burst := cfg.Burst
		if burst < 1 {
			burst = 1
		}
		limiter = rate.NewLimiter(rate.Limit(cfg.RequestsPerSecond), burst)
	}

	return &Client{
		httpClient: &http.Client{
			Timeout: cfg.Timeout,
		},
		limiter: limiter,
		tracker: ratelimit.NewTracker(store, cfg.Throttle, logger),
		config:  cfg,
		logger:  logger,
	}, nil
}

// Fetch issues one GET of rawURL with query merged into its query string.
// A response with any status is returned with a nil error; only transport
// failures and cancellation produce an error.
func (c *Client) Fetch(ctx context.Context, rawURL string, query url.Values) (int, []byte, error) {
	u, err := url.Parse(rawURL)
	if err != nil {
		return 0, nil, fmt.Errorf("parse url: %w", err)
	}
	merged := u.Query()
	for key, values := range query {
		merged[key] = values
	}
	u.RawQuery = merged.Encode()

	// Step 1: Pace
	if err := c.tracker.Wait(ctx); err != nil {
		return 0, nil, fmt.Errorf("throttle wait: %w", err)
	}
	if c.limiter != nil {
		if err := c.limiter.Wait(ctx); err != nil {
			return 0, nil, fmt.Errorf("rate limit wait: %w", err)
		}
	}

	// Step 2: Build request
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		return 0, nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("User-Agent", c.config.UserAgent)
	req.Header.Set("Accept", "application/json")
	req.Header.Set("X-Requested-With", "XMLHttpRequest")

	c.logger.Debug().
		Str("url", u.String()).
		Msg("Executing catalog request")

	// Step 3: Execute
	startTime := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		requestDuration.Observe(time.Since(startTime).Seconds())
		return 0, nil, c.networkError(ctx, "request failed", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, c.config.MaxBodyBytes))
	requestDuration.Observe(time.Since(startTime).Seconds())
	if err != nil {
		return resp.StatusCode, nil, c.networkError(ctx, "read body", err)
	}

	requestsTotal.WithLabelValues(strconv.Itoa(resp.StatusCode)).Inc()

	// Step 4: Classify and record the outcome. Only 200 counts as success.
	success := resp.StatusCode == http.StatusOK
	if !success {
		errClass := c.classifyError(resp.StatusCode, nil)
		fetchErrorsTotal.WithLabelValues(string(errClass)).Inc()
		c.logger.Warn().
			Int("status", resp.StatusCode).
			Str("error_class", string(errClass)).
			Msg("Catalog request error")
	}
	if err := c.tracker.Record(ctx, success); err != nil {
		c.logger.Warn().Err(err).Msg("Failed to record response outcome")
	}

	return resp.StatusCode, body, nil
}

func (c *Client) networkError(ctx context.Context, msg string, err error) error {
	errClass := c.classifyError(0, err)
	fetchErrorsTotal.WithLabelValues(string(errClass)).Inc()
	requestsTotal.WithLabelValues("network_error").Inc()
	c.logger.Error().Err(err).Msg("Catalog " + msg)

	if ctx.Err() == nil {
		if recErr := c.tracker.Record(ctx, false); recErr != nil {
			c.logger.Warn().Err(recErr).Msg("Failed to record response outcome")
		}
	}

	return &FetchError{
		ErrorClass: errClass,
		Message:    msg,
		Err:        err,
	}
}

// classifyError categorizes a failure for observability.
func (c *Client) classifyError(status int, err error) ErrorClass {
	if err != nil {
		return ErrorClassNetwork
	}

	switch {
	case status == http.StatusTooManyRequests:
		return ErrorClassRateLimit
	case status >= 400 && status < 500:
		return ErrorClassClient
	case status >= 500:
		return ErrorClassServer
	case status == http.StatusOK:
		return ""
	default:
		return ErrorClassUnexpected
	}
}

// Close releases idle connections.
func (c *Client) Close() error {
	c.httpClient.CloseIdleConnections()
	return nil
}

// SetHTTPClient sets a custom HTTP client (for testing).
func (c *Client) SetHTTPClient(client *http.Client) {
	c.httpClient = client
}
