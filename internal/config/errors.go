package config

import "errors"

// Configuration validation errors returned by Config.Validate.
var (
	// ErrNoStartURL is returned when no URL to crawl was given.
	ErrNoStartURL = errors.New("no start URL specified")

	// ErrInvalidMaxPages is returned when the page budget is below 1.
	ErrInvalidMaxPages = errors.New("invalid max pages: must be at least 1")

	// ErrInvalidMaxDepth is returned when the depth limit is negative.
	ErrInvalidMaxDepth = errors.New("invalid max depth: must be non-negative (0 means unlimited)")

	// ErrInvalidDelay is returned when the delay is negative or above MaxDelay.
	ErrInvalidDelay = errors.New("invalid delay: must be between 0s and 10s")

	// ErrInvalidTimeout is returned when the timeout is not positive.
	ErrInvalidTimeout = errors.New("invalid timeout: must be positive")

	// ErrInvalidRobotsTimeout is returned when the robots.txt timeout is not positive.
	ErrInvalidRobotsTimeout = errors.New("invalid robots timeout: must be positive")

	// ErrInvalidMaxBodySize is returned when the max body size is negative.
	ErrInvalidMaxBodySize = errors.New("invalid max body size: must be non-negative")

	// ErrConflictingReportFormats is returned when both --json and
	// --markdown are given.
	ErrConflictingReportFormats = errors.New("conflicting report formats: --json and --markdown cannot be used together")
)
