package config

import "errors"

// Configuration validation errors returned by Config.Validate.
var (
	// ErrInvalidBaseURL is returned when the base URL is empty or not http(s).
	ErrInvalidBaseURL = errors.New("invalid base url: must be an absolute http or https url")

	// ErrInvalidRegionsPath is returned when no region list endpoint is set.
	ErrInvalidRegionsPath = errors.New("invalid regions path: must not be empty")

	// ErrInvalidTimeout is returned when the timeout is not positive.
	ErrInvalidTimeout = errors.New("invalid timeout: must be positive")

	// ErrInvalidDelay is returned when a page or region delay is negative.
	// Use 0 for no delay.
	ErrInvalidDelay = errors.New("invalid delay: must be non-negative")

	// ErrInvalidRequestRate is returned when the request rate is negative.
	ErrInvalidRequestRate = errors.New("invalid request rate: must be non-negative")

	// ErrInvalidConcurrency is returned when fewer than one region would run at a time.
	ErrInvalidConcurrency = errors.New("invalid concurrency: must be at least 1")

	// ErrInvalidMaxBodySize is returned when the max body size is negative.
	// Use 0 for the transport default.
	ErrInvalidMaxBodySize = errors.New("invalid max body size: must be non-negative")

	ErrInvalidCheckpointBackend = errors.New("invalid checkpoint backend: must be json or sqlite")

	ErrInvalidLogLevel = errors.New("invalid log level: must be debug, info, warn or error")
)
