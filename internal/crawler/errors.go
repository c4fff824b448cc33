package crawler

import (
	"errors"
	"fmt"
)

// Configuration errors. These are fatal: Run returns them before any
// network activity takes place.
var (
	// ErrInvalidStartURL is returned when the start URL is empty, unparsable,
	// or not an http(s) URL with a host.
	ErrInvalidStartURL = errors.New("invalid start URL: must be an absolute http or https URL")

	// ErrInvalidMaxPages is returned when MaxPages is less than 1.
	ErrInvalidMaxPages = errors.New("invalid max pages: must be at least 1")

	// ErrInvalidMaxDepth is returned when MaxDepth is negative.
	ErrInvalidMaxDepth = errors.New("invalid max depth: must be non-negative (0 means unlimited)")

	// ErrInvalidDelay is returned when Delay is outside [0, MaxDelay].
	ErrInvalidDelay = errors.New("invalid delay: must be between 0 and 10 seconds")

	// ErrNoOutputDir is returned when OutputDir is empty.
	ErrNoOutputDir = errors.New("no output directory specified")

	// ErrOutputNotWritable is returned when the output directory cannot be
	// created or written to.
	ErrOutputNotWritable = errors.New("output directory is not writable")
)

// FetchError describes a failed page or file request: a transport error,
// a timeout, or a non-success HTTP status.
type FetchError struct {
	// URL is the requested URL.
	URL string

	// StatusCode is the HTTP status, or 0 when no response was received.
	StatusCode int

	// Err is the underlying error, nil for status failures.
	Err error
}

// Error implements the error interface.
func (e *FetchError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("fetch %s: %v", e.URL, e.Err)
	}
	return fmt.Sprintf("fetch %s: unexpected status %d", e.URL, e.StatusCode)
}

// Unwrap returns the underlying error.
func (e *FetchError) Unwrap() error {
	return e.Err
}
