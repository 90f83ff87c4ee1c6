package listing

import (
	"errors"
	"fmt"
)

// ErrStructural marks a listing whose markup lacks a required node or value.
var ErrStructural = errors.New("listing markup mismatch")

// StructuralError names the record field that could not be read and the
// selector that was expected to provide it.
type StructuralError struct {
	Field    string
	Selector string
	Err      error
}

// Error implements the error interface.
func (e *StructuralError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("listing field %s (%s): %v", e.Field, e.Selector, e.Err)
	}
	return fmt.Sprintf("listing field %s: %s not found", e.Field, e.Selector)
}

// Unwrap returns the underlying cause.
func (e *StructuralError) Unwrap() error {
	return e.Err
}

// Is lets errors.Is match every StructuralError against ErrStructural.
func (e *StructuralError) Is(target error) bool {
	return target == ErrStructural
}

func missing(field, selector string) error {
	return &StructuralError{Field: field, Selector: selector}
}
