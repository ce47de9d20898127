package document

import (
	"errors"
	"fmt"
)

// ErrParse is matched by every *ParseError.
var ErrParse = errors.New("document could not be parsed")

// ErrEmptyQuery is returned by Compile when the query is blank.
var ErrEmptyQuery = errors.New("selector query is empty")

// ParseError reports that no tree could be built from the input.
type ParseError struct {
	// Err is the underlying read or tokenizer failure.
	Err error
}

// Error implements the error interface.
func (e *ParseError) Error() string {
	return fmt.Sprintf("parse document: %v", e.Err)
}

// Unwrap returns the underlying error.
func (e *ParseError) Unwrap() error {
	return e.Err
}

// Is makes errors.Is(err, ErrParse) true for any *ParseError.
func (e *ParseError) Is(target error) bool {
	return target == ErrParse
}

// SelectorError reports a query that failed to compile.
type SelectorError struct {
	// Query is the query as written by the caller, including any dialect prefix.
	Query string

	// Err is the compiler error.
	Err error
}

// Error implements the error interface.
func (e *SelectorError) Error() string {
	return fmt.Sprintf("invalid selector %q: %v", e.Query, e.Err)
}

// Unwrap returns the underlying error.
func (e *SelectorError) Unwrap() error {
	return e.Err
}
