package search

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/rs/zerolog"
	"github.com/tidwall/gjson"

	"github.com/Sternrassler/carsearch/pkg/listing"
	"github.com/Sternrassler/carsearch/pkg/logging"
)

// DefaultBaseURL is the results endpoint of the catalog service.
const DefaultBaseURL = listing.DefaultOrigin + "/results-car-search"

var (
	pagesTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "carsearch_pages_total",
		Help: "Result pages processed, by outcome (ok, empty, skipped)",
	}, []string{"outcome"})

	pageRetriesTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "carsearch_page_retries_total",
		Help: "Repeated attempts at a page after a failure",
	})

	recordsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "carsearch_records_total",
		Help: "Records built from result pages",
	})
)

// Fetcher issues one GET and returns the status and body. Implemented by
// *client.Client.
type Fetcher interface {
	Fetch(ctx context.Context, url string, query url.Values) (int, []byte, error)
}

// State is the phase of the controller.
type State int

const (
	StateIdle State = iota
	StatePaging
	StateComplete
	StateAborted
)

// String returns the state name.
func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StatePaging:
		return "paging"
	case StateComplete:
		return "complete"
	case StateAborted:
		return "aborted"
	default:
		return "unknown"
	}
}

// Config holds the controller configuration.
type Config struct {
	// BaseURL is the results endpoint.
	BaseURL string

	// Origin resolves listing links. Empty selects listing.DefaultOrigin.
	Origin string

	// Retry spaces out repeated attempts at a page.
	Retry RetryConfig
}

// DefaultConfig returns the default controller configuration.
func DefaultConfig() Config {
	return Config{
		BaseURL: DefaultBaseURL,
		Origin:  listing.DefaultOrigin,
		Retry:   DefaultRetryConfig(),
	}
}

// SearchOptions control one Search call.
type SearchOptions struct {
	// Sort is a name from SortOptions.
	Sort string

	// Limit caps the accumulated records. Zero or less means no cap, and the
	// search then runs until a page comes back without listings.
	Limit int

	// MaxAttemptsPerPage is how many failed attempts a page gets before it
	// is skipped.
	MaxAttemptsPerPage int

	// ResetResults drops records left from an earlier search first.
	ResetResults bool
}

// DefaultSearchOptions returns relevance order, no limit, five attempts per
// page and a fresh result set.
func DefaultSearchOptions() SearchOptions {
	return SearchOptions{
		Sort:               "Relevance",
		MaxAttemptsPerPage: 5,
		ResetResults:       true,
	}
}

type cursor struct {
	page    int
	attempt int
}

func (c cursor) retry() cursor {
	return cursor{page: c.page, attempt: c.attempt + 1}
}

func (c cursor) advance() cursor {
	return cursor{page: c.page + 1, attempt: 1}
}

// Controller runs searches against one catalog session. It is not safe for
// concurrent use.
type Controller struct {
	fetcher Fetcher
	builder *listing.Builder
	session *Session
	config  Config
	state   State
	logger  zerolog.Logger
	sleep   func(ctx context.Context, d time.Duration) error
}

// NewController creates a controller over a new session with params.
func NewController(fetcher Fetcher, params Parameters, cfg Config) (*Controller, error) {
	if fetcher == nil {
		return nil, fmt.Errorf("fetcher is required")
	}
	if cfg.BaseURL == "" {
		cfg.BaseURL = DefaultBaseURL
	}
	if _, err := url.Parse(cfg.BaseURL); err != nil {
		return nil, fmt.Errorf("invalid base url %q: %w", cfg.BaseURL, err)
	}

	session := NewSession(params)
	return &Controller{
		fetcher: fetcher,
		builder: listing.NewBuilder(cfg.Origin),
		session: session,
		config:  cfg,
		state:   StateIdle,
		logger:  logging.ForSession("search-controller", session.ID),
		sleep:   sleepContext,
	}, nil
}

// State returns the current phase.
func (c *Controller) State() State {
	return c.state
}

// Session returns the session the controller works on.
func (c *Controller) Session() *Session {
	return c.session
}

// Results returns a copy of the accumulated records.
func (c *Controller) Results() []listing.Record {
	return c.session.Results()
}

// Search pages through results until a page has no listings, the limit is
// exceeded or ctx is done, and returns the accumulated records.
//
// An unknown sort name or an attempt budget below one fails with a
// *ConfigError before any request. Cancellation is not an error: the records
// gathered so far are returned and State reports StateAborted.
func (c *Controller) Search(ctx context.Context, opts SearchOptions) ([]listing.Record, error) {
	token, err := SortToken(opts.Sort)
	if err != nil {
		return nil, err
	}
	if opts.MaxAttemptsPerPage < 1 {
		return nil, &ConfigError{
			Option: "max_attempts_per_page",
			Value:  strconv.Itoa(opts.MaxAttemptsPerPage),
		}
	}

	if opts.ResetResults {
		c.session.Reset()
	}
	c.session.Params[KeySort] = token
	c.session.Params[KeyPriceType] = priceTypeTotal

	c.state = StatePaging
	start := time.Now()

	c.logger.Info().
		Str("sort", token).
		Int("limit", opts.Limit).
		Int("max_attempts", opts.MaxAttemptsPerPage).
		Msg("Starting search")

	cur := cursor{page: 1, attempt: 1}
	for {
		if ctx.Err() != nil {
			return c.finish(StateAborted, start), nil
		}

		records, nodes, err := c.fetchPage(ctx, cur.page)
		switch {
		case err != nil:
			if ctx.Err() != nil {
				continue
			}
			cur = c.failed(ctx, cur, opts.MaxAttemptsPerPage, err)

		case nodes == 0:
			pagesTotal.WithLabelValues("empty").Inc()
			c.logger.Debug().Int("page", cur.page).Msg("Page has no listings")
			return c.finish(StateComplete, start), nil

		default:
			c.session.append(records)
			pagesTotal.WithLabelValues("ok").Inc()
			recordsTotal.Add(float64(len(records)))

			c.logger.Info().
				Int("page", cur.page).
				Int("listings", nodes).
				Int("records", len(records)).
				Int("total", c.session.Len()).
				Msg("Page processed")

			cur = cur.advance()
			if opts.Limit > 0 && c.session.Len() > opts.Limit {
				c.session.truncate(opts.Limit)
				return c.finish(StateComplete, start), nil
			}
		}
	}
}

// failed accounts for one failed attempt and returns where to go next.
func (c *Controller) failed(ctx context.Context, cur cursor, maxAttempts int, err error) cursor {
	event := c.logger.Error()
	var se *StatusError
	if errors.As(err, &se) {
		event = c.logger.Warn()
	}
	event.Err(err).
		Int("page", cur.page).
		Int("attempt", cur.attempt).
		Int("max_attempts", maxAttempts).
		Msg("Page attempt failed")

	next := cur.retry()
	if next.attempt <= maxAttempts {
		pageRetriesTotal.Inc()
		// A cancelled wait is picked up at the top of the loop.
		_ = c.sleep(ctx, c.config.Retry.Backoff(cur.attempt))
		return next
	}

	pagesTotal.WithLabelValues("skipped").Inc()
	c.logger.Warn().
		Int("page", cur.page).
		Int("attempts", maxAttempts).
		Msg("Skipping page after exhausting attempts")
	return cur.advance()
}

func (c *Controller) finish(state State, start time.Time) []listing.Record {
	c.state = state
	c.logger.Info().
		Str("state", state.String()).
		Int("records", c.session.Len()).
		Dur("duration", time.Since(start)).
		Msg("Search finished")
	return c.session.Results()
}

func (c *Controller) fetchPage(ctx context.Context, page int) ([]listing.Record, int, error) {
	c.session.Params[KeyPage] = strconv.Itoa(page)

	status, body, err := c.fetcher.Fetch(ctx, c.config.BaseURL, c.session.Params.Values())
	if err != nil {
		return nil, 0, fmt.Errorf("fetch page %d: %w", page, err)
	}
	if status != http.StatusOK {
		return nil, 0, &StatusError{Page: page, StatusCode: status}
	}

	html, err := pageHTML(body)
	if err != nil {
		return nil, 0, fmt.Errorf("page %d: %w", page, err)
	}

	records, nodes, err := c.builder.BuildPage(html)
	if err != nil {
		return nil, 0, fmt.Errorf("page %d: %w", page, err)
	}
	return records, nodes, nil
}

// pageHTML extracts the results fragment from a page envelope.
func pageHTML(body []byte) (string, error) {
	if !gjson.ValidBytes(body) {
		return "", fmt.Errorf("%w: body is not JSON", ErrEnvelope)
	}
	html := gjson.GetBytes(body, "html")
	if html.Type != gjson.String {
		return "", fmt.Errorf("%w: missing html field", ErrEnvelope)
	}
	return html.Str, nil
}
