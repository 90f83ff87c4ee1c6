// Package testutil provides testing utilities for the catalog search client.
package testutil

import (
	"net/http"
	"net/http/httptest"
	"net/url"
	"strconv"
	"sync"
	"time"
)

// MockResponse defines one canned response of the mock catalog.
type MockResponse struct {
	StatusCode int
	Body       string
	Headers    map[string]string
	Delay      time.Duration
}

// MockCatalog is a results endpoint that serves canned pages keyed by the
// page query parameter. Pages with no configured response return an empty
// results fragment.
type MockCatalog struct {
	server *httptest.Server
	mu     sync.RWMutex
	pages  map[int][]MockResponse

	// Tracking
	RequestCount int
	PageRequests map[int]int
	LastQuery    url.Values
	LastHeader   http.Header
}

// NewMockCatalog creates a new mock catalog server.
func NewMockCatalog() *MockCatalog {
	mock := &MockCatalog{
		pages:        make(map[int][]MockResponse),
		PageRequests: make(map[int]int),
	}

	mock.server = httptest.NewServer(http.HandlerFunc(mock.handle))

	return mock
}

// URL returns the results endpoint URL.
func (m *MockCatalog) URL() string {
	return m.server.URL + "/results-car-search"
}

// Close shuts down the mock server.
func (m *MockCatalog) Close() {
	m.server.Close()
}

// SetPage serves resp for every request of page.
func (m *MockCatalog) SetPage(page int, resp MockResponse) {
	m.SetPageSequence(page, resp)
}

// SetPageSequence serves the responses in order for successive requests of
// page; the last one repeats once the sequence is used up.
func (m *MockCatalog) SetPageSequence(page int, resps ...MockResponse) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.pages[page] = resps
}

// GetRequestCount returns the number of requests made to the server.
func (m *MockCatalog) GetRequestCount() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.RequestCount
}

// GetPageRequests returns how many times page was requested.
func (m *MockCatalog) GetPageRequests(page int) int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.PageRequests[page]
}

// GetLastQuery returns the query of the most recent request.
func (m *MockCatalog) GetLastQuery() url.Values {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.LastQuery
}

func (m *MockCatalog) handle(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()
	page, _ := strconv.Atoi(query.Get("page"))

	m.mu.Lock()
	m.RequestCount++
	m.PageRequests[page]++
	n := m.PageRequests[page]
	m.LastQuery = query
	m.LastHeader = r.Header.Clone()
	seq := m.pages[page]
	m.mu.Unlock()

	if len(seq) == 0 {
		NewPageResponse().write(w)
		return
	}
	if n > len(seq) {
		n = len(seq)
	}
	seq[n-1].write(w)
}

func (resp MockResponse) write(w http.ResponseWriter) {
	if resp.Delay > 0 {
		time.Sleep(resp.Delay)
	}
	for key, value := range resp.Headers {
		w.Header().Set(key, value)
	}
	w.WriteHeader(resp.StatusCode)
	if resp.Body != "" {
		w.Write([]byte(resp.Body))
	}
}

// NewPageResponse creates a 200 OK results page holding listings.
func NewPageResponse(listings ...Listing) MockResponse {
	return MockResponse{
		StatusCode: http.StatusOK,
		Body:       PageJSON(listings...),
		Headers: map[string]string{
			"Content-Type": "application/json; charset=utf-8",
		},
	}
}

// NewServerErrorResponse creates a 500 Internal Server Error response.
func NewServerErrorResponse() MockResponse {
	return MockResponse{
		StatusCode: http.StatusInternalServerError,
		Body:       `{"error": "Internal server error"}`,
		Headers: map[string]string{
			"Content-Type": "application/json; charset=utf-8",
		},
	}
}

// NewChallengeResponse creates the 403 served when the anti-bot check trips.
func NewChallengeResponse() MockResponse {
	return MockResponse{
		StatusCode: http.StatusForbidden,
		Body:       "<html><title>Just a moment...</title></html>",
		Headers: map[string]string{
			"Content-Type": "text/html; charset=utf-8",
		},
	}
}

// NewMalformedResponse creates a 200 OK whose body is not the JSON envelope.
func NewMalformedResponse() MockResponse {
	return MockResponse{
		StatusCode: http.StatusOK,
		Body:       `{"status": "ok"}`,
		Headers: map[string]string{
			"Content-Type": "application/json; charset=utf-8",
		},
	}
}
