package checkpoint

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"time"

	"modernc.org/sqlite"
	sqlite3 "modernc.org/sqlite/lib"
)

// SQLiteStore keeps the checkpoint in a SQLite database.
// Region progress and known identities live in their own tables, and every
// Save runs inside one transaction.
type SQLiteStore struct {
	db     *sql.DB
	path   string
	logger *slog.Logger

	// mu guards saved.
	mu sync.Mutex

	// saved holds the identities already present in the database, so a
	// Save only inserts the ones added since.
	saved map[string]struct{}
}

// SQLiteOptions configures how the database is opened.
type SQLiteOptions struct {
	// CreateIfNotExists creates the database file if it doesn't exist.
	CreateIfNotExists bool

	// EnableWAL turns on write-ahead logging.
	EnableWAL bool
}

// DefaultSQLiteOptions returns the default database options.
func DefaultSQLiteOptions() SQLiteOptions {
	return SQLiteOptions{
		CreateIfNotExists: true,
		EnableWAL:         true,
	}
}

// OpenSQLite opens or creates the checkpoint database at path.
//
// A file that is not a usable database is logged and moved aside to
// path+".corrupt", and a fresh database takes its place. When
// CreateIfNotExists is off the file is left alone and ErrCorrupt is
// returned instead.
func OpenSQLite(path string, opts ...Option) (*SQLiteStore, error) {
	if path == "" {
		return nil, ErrEmptyPath
	}
	o := newOptions(opts)

	store, err := openSQLite(path, o)
	if err == nil || !isCorrupt(err) {
		return store, err
	}
	if !o.sqlite.CreateIfNotExists {
		return nil, fmt.Errorf("%w: %s: %w", ErrCorrupt, path, err)
	}

	aside := path + ".corrupt"
	o.logger.Warn("checkpoint database unreadable, starting fresh",
		"path", path,
		"moved_to", aside,
		"error", err,
	)
	if err := quarantine(path, aside); err != nil {
		return nil, err
	}
	return openSQLite(path, o)
}

func openSQLite(path string, o options) (*SQLiteStore, error) {
	if !o.sqlite.CreateIfNotExists {
		if _, err := os.Stat(path); os.IsNotExist(err) {
			return nil, fmt.Errorf("checkpoint database not found: %s", path)
		} else if err != nil {
			return nil, fmt.Errorf("failed to check checkpoint database path: %w", err)
		}
	} else if dir := filepath.Dir(path); dir != "" && dir != "." {
		if err := os.MkdirAll(dir, 0750); err != nil {
			return nil, fmt.Errorf("failed to create checkpoint directory: %w", err)
		}
	}

	dsn := path + "?mode=rw"
	if o.sqlite.CreateIfNotExists {
		dsn = path + "?mode=rwc"
	}

	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open checkpoint database: %w", err)
	}

	// SQLite has a single writer.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(time.Hour)

	store := &SQLiteStore{
		db:     db,
		path:   path,
		logger: o.logger,
		saved:  make(map[string]struct{}),
	}

	if o.sqlite.EnableWAL {
		if _, err := db.ExecContext(context.Background(), "PRAGMA journal_mode=WAL"); err != nil {
			_ = db.Close()
			return nil, fmt.Errorf("failed to enable WAL mode: %w", err)
		}
	}

	if err := store.createTables(context.Background()); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to create checkpoint tables: %w", err)
	}

	return store, nil
}

// isCorrupt reports whether err says the file is not a readable database.
func isCorrupt(err error) bool {
	var serr *sqlite.Error
	if !errors.As(err, &serr) {
		return false
	}
	switch serr.Code() & 0xff {
	case sqlite3.SQLITE_NOTADB, sqlite3.SQLITE_CORRUPT:
		return true
	default:
		return false
	}
}

// quarantine renames the database at path to aside and drops its journal
// files, which belong to the bad database.
func quarantine(path, aside string) error {
	if err := os.Rename(path, aside); err != nil {
		return fmt.Errorf("failed to move corrupt checkpoint aside: %w", err)
	}
	for _, suffix := range []string{"-wal", "-shm"} {
		if err := os.Remove(path + suffix); err != nil && !errors.Is(err, os.ErrNotExist) {
			return fmt.Errorf("failed to remove checkpoint journal: %w", err)
		}
	}
	return nil
}

// createTables creates the schema if it doesn't exist.
func (s *SQLiteStore) createTables(ctx context.Context) error {
	schema := `
	CREATE TABLE IF NOT EXISTS regions (
		id TEXT PRIMARY KEY,
		last_page INTEGER NOT NULL DEFAULT 0,
		updated_at DATETIME DEFAULT CURRENT_TIMESTAMP
	);

	CREATE TABLE IF NOT EXISTS known_identities (
		identity TEXT PRIMARY KEY,
		first_seen DATETIME DEFAULT CURRENT_TIMESTAMP
	);
	`
	_, err := s.db.ExecContext(ctx, schema)
	return err
}

// Path returns the database file path.
func (s *SQLiteStore) Path() string {
	return s.path
}

// Load reads the whole checkpoint. Query failures are logged and yield an
// empty State.
func (s *SQLiteStore) Load(ctx context.Context) (*State, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	st, err := s.load(ctx)
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, ctxErr
		}
		s.logger.Warn("checkpoint database unreadable, starting fresh", "path", s.path, "error", err)
		return NewState(), nil
	}

	s.mu.Lock()
	s.saved = make(map[string]struct{}, len(st.known))
	for id := range st.known {
		s.saved[id] = struct{}{}
	}
	s.mu.Unlock()

	return st, nil
}

func (s *SQLiteStore) load(ctx context.Context) (*State, error) {
	st := NewState()

	rows, err := s.db.QueryContext(ctx, `SELECT id, last_page FROM regions`)
	if err != nil {
		return nil, fmt.Errorf("failed to query regions: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var id string
		var page int
		if err := rows.Scan(&id, &page); err != nil {
			return nil, fmt.Errorf("failed to scan region: %w", err)
		}
		st.RecordProgress(id, page)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	idRows, err := s.db.QueryContext(ctx, `SELECT identity FROM known_identities`)
	if err != nil {
		return nil, fmt.Errorf("failed to query identities: %w", err)
	}
	defer idRows.Close()

	for idRows.Next() {
		var id string
		if err := idRows.Scan(&id); err != nil {
			return nil, fmt.Errorf("failed to scan identity: %w", err)
		}
		st.MarkKnown(id)
	}
	return st, idRows.Err()
}

// Save writes the state in one transaction. Region pages are merged with
// MAX so a stale snapshot can never move a region backwards.
func (s *SQLiteStore) Save(ctx context.Context, state *State) (err error) {
	snap := state.Snapshot()

	s.mu.Lock()
	defer s.mu.Unlock()

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin checkpoint transaction: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	regionStmt, err := tx.PrepareContext(ctx, `
	INSERT INTO regions (id, last_page) VALUES (?, ?)
	ON CONFLICT(id) DO UPDATE SET
		last_page = MAX(regions.last_page, excluded.last_page),
		updated_at = CURRENT_TIMESTAMP
	`)
	if err != nil {
		return fmt.Errorf("failed to prepare region upsert: %w", err)
	}
	defer regionStmt.Close()

	for id, page := range snap.regions {
		if _, err = regionStmt.ExecContext(ctx, id, page); err != nil {
			return fmt.Errorf("failed to save region %s: %w", id, err)
		}
	}

	idStmt, err := tx.PrepareContext(ctx, `INSERT OR IGNORE INTO known_identities (identity) VALUES (?)`)
	if err != nil {
		return fmt.Errorf("failed to prepare identity insert: %w", err)
	}
	defer idStmt.Close()

	added := make([]string, 0)
	for id := range snap.known {
		if _, ok := s.saved[id]; ok {
			continue
		}
		if _, err = idStmt.ExecContext(ctx, id); err != nil {
			return fmt.Errorf("failed to save identity: %w", err)
		}
		added = append(added, id)
	}

	if err = tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit checkpoint: %w", err)
	}

	for _, id := range added {
		s.saved[id] = struct{}{}
	}
	return nil
}

// Close closes the database connection.
func (s *SQLiteStore) Close() error {
	if s.db == nil {
		return nil
	}
	err := s.db.Close()
	if errors.Is(err, sql.ErrConnDone) {
		return nil
	}
	return err
}
