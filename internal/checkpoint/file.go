package checkpoint

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/moby/sys/atomicwriter"
)

// FileStore keeps the checkpoint in a single JSON document:
//
//	{"regions": {"/tehran": 3}, "knownIdentities": ["..."]}
//
// Saves go through a temporary file that is synced and renamed over the
// previous checkpoint.
type FileStore struct {
	path   string
	logger *slog.Logger
}

// NewFileStore returns a FileStore for the JSON document at path.
func NewFileStore(path string, opts ...Option) *FileStore {
	o := newOptions(opts)
	return &FileStore{path: path, logger: o.logger}
}

// Path returns the location of the JSON document.
func (f *FileStore) Path() string {
	return f.path
}

// Load reads the checkpoint. A missing file starts a fresh State silently;
// an unreadable or corrupt one is logged and also starts fresh.
func (f *FileStore) Load(ctx context.Context) (*State, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	data, err := os.ReadFile(f.path)
	if err != nil {
		if !errors.Is(err, os.ErrNotExist) {
			f.logger.Warn("checkpoint unreadable, starting fresh", "path", f.path, "error", err)
		}
		return NewState(), nil
	}

	st, err := decodeDocument(data)
	if err != nil {
		f.logger.Warn("checkpoint corrupt, starting fresh", "path", f.path, "error", err)
		return NewState(), nil
	}

	f.logger.Debug("checkpoint loaded",
		"path", f.path,
		"regions", len(st.regions),
		"known", len(st.known),
	)
	return st, nil
}

// decodeDocument parses a checkpoint document, accepting the legacy layout.
func decodeDocument(data []byte) (*State, error) {
	var doc document
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, err
	}
	if doc.Regions != nil || doc.KnownIdentities != nil {
		return stateFromDocument(doc.Regions, doc.KnownIdentities), nil
	}

	var legacy legacyDocument
	if err := json.Unmarshal(data, &legacy); err != nil {
		return nil, err
	}
	return stateFromDocument(legacy.VisitedCities, legacy.VisitedDoctors), nil
}

// Save replaces the JSON document with the current state.
func (f *FileStore) Save(ctx context.Context, state *State) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	doc := state.toDocument()
	if doc.Regions == nil {
		doc.Regions = map[string]int{}
	}
	if doc.KnownIdentities == nil {
		doc.KnownIdentities = []string{}
	}

	data, err := json.Marshal(doc)
	if err != nil {
		return fmt.Errorf("failed to encode checkpoint: %w", err)
	}

	if dir := filepath.Dir(f.path); dir != "" && dir != "." {
		if err := os.MkdirAll(dir, 0750); err != nil {
			return fmt.Errorf("failed to create checkpoint directory: %w", err)
		}
	}

	if err := atomicwriter.WriteFile(f.path, data, 0600); err != nil {
		return fmt.Errorf("failed to write checkpoint: %w", err)
	}
	return nil
}

// Close is a no-op; FileStore holds no open handles.
func (f *FileStore) Close() error {
	return nil
}
