package client

import (
	"context"
	"errors"
	"testing"
)

func TestFetchError_Error(t *testing.T) {
	tests := []struct {
		name     string
		err      *FetchError
		expected string
	}{
		{
			name: "error with wrapped error",
			err: &FetchError{
				ErrorClass: ErrorClassNetwork,
				Message:    "request failed",
				Err:        errors.New("connection refused"),
			},
			expected: "catalog network error (status 0): request failed: connection refused",
		},
		{
			name: "error without wrapped error",
			err: &FetchError{
				StatusCode: 502,
				ErrorClass: ErrorClassServer,
				Message:    "bad gateway",
			},
			expected: "catalog server error (status 502): bad gateway",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.err.Error(); got != tt.expected {
				t.Errorf("Error() = %q, want %q", got, tt.expected)
			}
		})
	}
}

func TestFetchError_Unwrap(t *testing.T) {
	err := &FetchError{
		ErrorClass: ErrorClassNetwork,
		Message:    "request failed",
		Err:        context.DeadlineExceeded,
	}

	if !errors.Is(err, context.DeadlineExceeded) {
		t.Error("errors.Is should find the wrapped cause")
	}

	var fetchErr *FetchError
	if !errors.As(error(err), &fetchErr) {
		t.Error("errors.As should match *FetchError")
	}
}
