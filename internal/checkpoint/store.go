package checkpoint

import (
	"context"
	"fmt"
	"log/slog"
)

// Backend names accepted by Open.
const (
	BackendJSON   = "json"
	BackendSQLite = "sqlite"
)

// Store loads and saves checkpoint State.
type Store interface {
	// Load returns the persisted state. A missing or unreadable checkpoint
	// yields an empty State; the only error is a cancelled context.
	Load(ctx context.Context) (*State, error)

	// Save persists the state atomically: a reader never observes a
	// partially written checkpoint.
	Save(ctx context.Context, state *State) error

	// Path returns where the checkpoint lives.
	Path() string

	// Close releases the store's resources.
	Close() error
}

// options holds settings shared by all stores.
type options struct {
	logger *slog.Logger
	sqlite SQLiteOptions
}

// Option configures a Store.
type Option func(*options)

// WithLogger sets the logger used to report recovered checkpoint problems.
func WithLogger(logger *slog.Logger) Option {
	return func(o *options) {
		o.logger = logger
	}
}

// WithSQLiteOptions sets the options used when the SQLite backend is opened.
func WithSQLiteOptions(opts SQLiteOptions) Option {
	return func(o *options) {
		o.sqlite = opts
	}
}

func newOptions(opts []Option) options {
	o := options{sqlite: DefaultSQLiteOptions()}
	for _, opt := range opts {
		opt(&o)
	}
	if o.logger == nil {
		o.logger = slog.Default()
	}
	return o
}

// Open opens the store for backend at path.
func Open(backend, path string, opts ...Option) (Store, error) {
	if path == "" {
		return nil, ErrEmptyPath
	}
	switch backend {
	case BackendJSON, "":
		return NewFileStore(path, opts...), nil
	case BackendSQLite:
		return OpenSQLite(path, opts...)
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownBackend, backend)
	}
}
