package config

import "errors"

// Configuration validation errors.
//
// Design decision: We use package-level sentinel errors rather than creating
// new error instances in Validate(). Callers can use errors.Is() for
// programmatic handling while still getting human-readable messages.
var (
	// ErrNoTarget is returned when no page URL is specified.
	ErrNoTarget = errors.New("no target specified: provide one or more page URLs")

	// ErrInvalidTimeout is returned when a timeout is not positive.
	ErrInvalidTimeout = errors.New("invalid timeout: must be positive")

	// ErrInvalidConcurrency is returned when the fetch concurrency is not positive.
	ErrInvalidConcurrency = errors.New("invalid fetch concurrency: must be positive")

	// ErrInvalidBatchSize is returned when the batch size is not positive.
	ErrInvalidBatchSize = errors.New("invalid batch size: must be positive")

	// ErrInvalidMaxScripts is returned when the script cap is negative.
	// Use 0 to disable external script fetching entirely.
	ErrInvalidMaxScripts = errors.New("invalid max scripts: must be non-negative")

	// ErrConflictingReportFormats is returned when both --json and
	// --markdown are specified.
	ErrConflictingReportFormats = errors.New("conflicting report formats: --json and --markdown cannot be used together")
)
