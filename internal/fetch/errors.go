package fetch

import (
	"errors"
	"fmt"
)

// Fetch error taxonomy. Only the primary page fetch surfaces these; external
// script failures are swallowed inside the fetcher.
var (
	// ErrInvalidURL is returned for malformed or non-absolute URLs.
	// It fails fast, before any network call.
	ErrInvalidURL = errors.New("invalid url: must be an absolute http(s) URL")

	// ErrTimeout is returned when the primary page fetch exceeds its deadline.
	ErrTimeout = errors.New("page fetch timed out")
)

// HTTPError reports a non-2xx response on the primary page fetch.
type HTTPError struct {
	// Status is the HTTP status code received.
	Status int
}

// Error implements the error interface.
func (e *HTTPError) Error() string {
	return fmt.Sprintf("page fetch failed with HTTP status %d", e.Status)
}

// IsHTTPError reports whether err wraps an HTTPError and returns it.
func IsHTTPError(err error) (*HTTPError, bool) {
	var httpErr *HTTPError
	if errors.As(err, &httpErr) {
		return httpErr, true
	}
	return nil, false
}
