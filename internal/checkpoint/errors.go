package checkpoint

import "errors"

var (
	// ErrUnknownBackend is returned by Open for a backend name it does not know.
	ErrUnknownBackend = errors.New("unknown checkpoint backend: expected json or sqlite")

	// ErrEmptyPath is returned when a store is opened without a path.
	ErrEmptyPath = errors.New("checkpoint path is empty")

	// ErrCorrupt is returned when an existing checkpoint database cannot be read.
	ErrCorrupt = errors.New("checkpoint database is corrupt")
)
