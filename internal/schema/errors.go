package schema

import (
	"errors"
	"fmt"
)

// Definition and normalizer errors.
var (
	// ErrNoName is returned when a source definition has no name.
	ErrNoName = errors.New("source name is required")

	// ErrInvalidBaseURL is returned when the base address is missing or not absolute.
	ErrInvalidBaseURL = errors.New("source url must be an absolute http(s) address")

	// ErrMissingSelector is returned when a required field has no selector.
	ErrMissingSelector = errors.New("selector is required")

	// ErrUnknownNormalizer is returned for a normalizer name that is not registered.
	ErrUnknownNormalizer = errors.New("unknown normalizer")

	// ErrUnexpectedArgument is returned when a normalizer that takes no argument is given one.
	ErrUnexpectedArgument = errors.New("normalizer takes no argument")

	// ErrMissingArgument is returned when a normalizer that needs an argument has none.
	ErrMissingArgument = errors.New("normalizer requires an argument")

	// ErrNoBaseURL is returned when resolve_url is used without a base address.
	ErrNoBaseURL = errors.New("resolve_url needs a base url")

	// ErrInvalidDuration is returned by hms_seconds for values that are not clock times.
	ErrInvalidDuration = errors.New("invalid duration")

	// ErrInvalidValue is returned by normalizers that reject a value.
	ErrInvalidValue = errors.New("invalid value")

	// ErrSourceNotFound is returned by Catalog.Get for an unknown name.
	ErrSourceNotFound = errors.New("source not found")

	// ErrDuplicateSource is returned when two definitions share a name.
	ErrDuplicateSource = errors.New("duplicate source name")
)

// DefinitionError reports an invalid field in a source definition.
type DefinitionError struct {
	// Source is the definition name, or the file path when the name is unknown.
	Source string

	// Field is the field path, e.g. "item.duration".
	Field string

	// Err is the underlying problem.
	Err error
}

// Error implements the error interface.
func (e *DefinitionError) Error() string {
	if e.Field == "" {
		return fmt.Sprintf("source %s: %v", e.Source, e.Err)
	}
	return fmt.Sprintf("source %s: field %s: %v", e.Source, e.Field, e.Err)
}

// Unwrap returns the underlying error.
func (e *DefinitionError) Unwrap() error {
	return e.Err
}
