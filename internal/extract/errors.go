package extract

import (
	"errors"
	"fmt"
)

var (
	// ErrMissingField is matched when a required field is absent.
	ErrMissingField = errors.New("field not found")

	// ErrInvalidValue is matched when a field value cannot be converted.
	ErrInvalidValue = errors.New("invalid field value")

	// ErrNoPreviousPage is matched when the oldest page has been reached.
	ErrNoPreviousPage = errors.New("no previous page found")
)

// FieldError reports a field that could not be extracted.
type FieldError struct {
	// Source is the source name.
	Source string

	// Field is the field path, e.g. "item.title".
	Field string

	// Err is ErrMissingField, ErrInvalidValue, ErrNoPreviousPage or a
	// normalizer error.
	Err error
}

// Error implements the error interface.
func (e *FieldError) Error() string {
	return fmt.Sprintf("[extractor] %s: %s: %v", e.Source, e.Field, e.Err)
}

// Unwrap returns the underlying error.
func (e *FieldError) Unwrap() error {
	return e.Err
}
