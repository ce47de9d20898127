package crawler

import (
	"context"
	"errors"
	"fmt"
	"net/http"
)

var (
	// ErrLengthMismatch is returned when a listing page yields a different
	// number of item links and thumbnails.
	ErrLengthMismatch = errors.New("item links and thumbnails differ in length")

	// ErrPaginationCycle is returned when a previous-page link points back to
	// a page already walked in this run.
	ErrPaginationCycle = errors.New("pagination revisits a page")

	// ErrNoStartURL is returned when neither a start address nor an entry point is known.
	ErrNoStartURL = errors.New("no start url")

	// ErrInvalidProxyAddress is returned when the proxy address is not "host:port".
	ErrInvalidProxyAddress = errors.New("invalid proxy address format: expected host:port")

	// ErrUnsupportedScheme is returned for addresses the fetcher cannot retrieve.
	ErrUnsupportedScheme = errors.New("unsupported url scheme")
)

// FetchError reports a failed retrieval.
type FetchError struct {
	// URL is the address that was requested.
	URL string

	// StatusCode is the HTTP status, or zero for transport failures.
	StatusCode int

	// Err is the transport error, if any.
	Err error
}

// Error implements the error interface.
func (e *FetchError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("fetch %s: %d %s", e.URL, e.StatusCode, http.StatusText(e.StatusCode))
	}
	return fmt.Sprintf("fetch %s: %v", e.URL, e.Err)
}

// Unwrap returns the transport error.
func (e *FetchError) Unwrap() error {
	return e.Err
}

// Timeout reports whether the fetch failed because a deadline passed.
func (e *FetchError) Timeout() bool {
	var te interface{ Timeout() bool }
	if errors.As(e.Err, &te) && te.Timeout() {
		return true
	}
	return errors.Is(e.Err, context.DeadlineExceeded)
}

// PageError wraps a fatal failure on a listing page.
type PageError struct {
	// Page is the listing page address.
	Page string

	// Err is the underlying failure.
	Err error
}

// Error implements the error interface.
func (e *PageError) Error() string {
	return fmt.Sprintf("page %s: %v", e.Page, e.Err)
}

// Unwrap returns the underlying error.
func (e *PageError) Unwrap() error {
	return e.Err
}
