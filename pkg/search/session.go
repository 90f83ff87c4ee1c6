package search

import (
	"github.com/google/uuid"

	"github.com/Sternrassler/carsearch/pkg/listing"
)

// Session owns the search parameters and the records accumulated so far,
// in page order and on-page order.
type Session struct {
	ID      string
	Params  Parameters
	results []listing.Record
}

// NewSession creates a session over a copy of params.
func NewSession(params Parameters) *Session {
	return &Session{
		ID:     uuid.NewString(),
		Params: params.Clone(),
	}
}

// Results returns a copy of the accumulated records.
func (s *Session) Results() []listing.Record {
	out := make([]listing.Record, len(s.results))
	copy(out, s.results)
	return out
}

// Len returns the number of accumulated records.
func (s *Session) Len() int {
	return len(s.results)
}

// Reset drops every accumulated record.
func (s *Session) Reset() {
	s.results = nil
}

func (s *Session) append(records []listing.Record) {
	s.results = append(s.results, records...)
}

func (s *Session) truncate(n int) {
	if n < len(s.results) {
		s.results = s.results[:n]
	}
}
