package sink

import (
	"errors"
	"fmt"
	"net/http"
)

var (
	// ErrNoEndpoint is returned when a GraphQL sink has no usable endpoint.
	ErrNoEndpoint = errors.New("no graphql endpoint")

	// ErrRejected is returned when the remote API answers with errors.
	ErrRejected = errors.New("item rejected")
)

// SubmissionError reports an item the sink did not accept.
type SubmissionError struct {
	// URL is the item's detail address.
	URL string

	// StatusCode is the HTTP status for remote sinks, zero otherwise.
	StatusCode int

	// Err is the underlying failure.
	Err error
}

// Error implements the error interface.
func (e *SubmissionError) Error() string {
	if e.StatusCode != 0 && e.Err == nil {
		return fmt.Sprintf("submit %s: %d %s", e.URL, e.StatusCode, http.StatusText(e.StatusCode))
	}
	return fmt.Sprintf("submit %s: %v", e.URL, e.Err)
}

// Unwrap returns the underlying error.
func (e *SubmissionError) Unwrap() error {
	return e.Err
}
