package search

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrInvalidConfig is matched by every ConfigError.
	ErrInvalidConfig = errors.New("invalid search configuration")

	// ErrEnvelope is returned when a 200 response is not the expected JSON
	// envelope with an "html" string field.
	ErrEnvelope = errors.New("unexpected response envelope")
)

// ConfigError rejects a search option before any request is made.
type ConfigError struct {
	Option string
	Value  string
	Valid  []string
}

// Error implements the error interface.
func (e *ConfigError) Error() string {
	if len(e.Valid) > 0 {
		return fmt.Sprintf("invalid %s option %q: must be one of [%s]",
			e.Option, e.Value, strings.Join(e.Valid, ", "))
	}
	return fmt.Sprintf("invalid %s option %q", e.Option, e.Value)
}

// Is matches ErrInvalidConfig.
func (e *ConfigError) Is(target error) bool {
	return target == ErrInvalidConfig
}

// StatusError is a page request answered with a non-200 status.
type StatusError struct {
	Page       int
	StatusCode int
}

// Error implements the error interface.
func (e *StatusError) Error() string {
	return fmt.Sprintf("page %d: status %d", e.Page, e.StatusCode)
}
