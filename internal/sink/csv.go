package sink

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/jszwec/csvutil"

	"github.com/nao1215/dirharvest/internal/model"
)

// Sink receives output rows.
type Sink interface {
	// Write appends one row.
	Write(row model.Row) error
	// Sync makes every row written so far durable.
	Sync() error
}

// CSV is an append-only CSV file of model.Row values.
//
// The header is written once, when the file is empty at open time. Each
// row is encoded into a buffer and appended with a single write so a row
// is either fully present or absent. Rows already in the file are never
// rewritten.
type CSV struct {
	mu   sync.Mutex
	path string
	file *os.File

	buf  bytes.Buffer
	csvw *csv.Writer
	enc  *csvutil.Encoder

	rows int
}

var _ Sink = (*CSV)(nil)

// OpenCSV opens path for appending, creating it and its parent directories
// when missing.
func OpenCSV(path string) (*CSV, error) {
	if dir := filepath.Dir(path); dir != "" && dir != "." {
		if err := os.MkdirAll(dir, 0750); err != nil {
			return nil, fmt.Errorf("failed to create output directory: %w", err)
		}
	}

	f, err := os.OpenFile(path, os.O_RDWR|os.O_CREATE|os.O_APPEND, 0644) //nolint:gosec // output is meant to be shared
	if err != nil {
		return nil, fmt.Errorf("failed to open output file: %w", err)
	}

	c := &CSV{path: path, file: f}
	c.csvw = csv.NewWriter(&c.buf)
	c.enc = csvutil.NewEncoder(c.csvw)
	c.enc.AutoHeader = false

	if err := c.prepare(); err != nil {
		_ = f.Close()
		return nil, err
	}
	return c, nil
}

// prepare writes the header into an empty file, or terminates a torn last
// line left by an interrupted write.
func (c *CSV) prepare() error {
	info, err := c.file.Stat()
	if err != nil {
		return fmt.Errorf("failed to stat output file: %w", err)
	}

	if info.Size() == 0 {
		if err := c.enc.EncodeHeader(model.Row{}); err != nil {
			return fmt.Errorf("failed to encode header: %w", err)
		}
		return c.flush()
	}

	last := make([]byte, 1)
	if _, err := c.file.ReadAt(last, info.Size()-1); err != nil {
		return fmt.Errorf("failed to read output file: %w", err)
	}
	if last[0] != '\n' {
		if _, err := c.file.Write([]byte{'\n'}); err != nil {
			return fmt.Errorf("failed to repair output file: %w", err)
		}
	}
	return nil
}

// Path returns the output file path.
func (c *CSV) Path() string {
	return c.path
}

// Write appends row.
func (c *CSV) Write(row model.Row) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if err := c.enc.Encode(row); err != nil {
		c.buf.Reset()
		return fmt.Errorf("failed to encode row: %w", err)
	}
	if err := c.flush(); err != nil {
		return err
	}
	c.rows++
	return nil
}

// flush moves the encoded buffer to the file in one write.
func (c *CSV) flush() error {
	c.csvw.Flush()
	defer c.buf.Reset()
	if err := c.csvw.Error(); err != nil {
		return fmt.Errorf("failed to encode row: %w", err)
	}
	if _, err := c.file.Write(c.buf.Bytes()); err != nil {
		return fmt.Errorf("failed to write output file: %w", err)
	}
	return nil
}

// Rows returns the number of rows written through this CSV.
func (c *CSV) Rows() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.rows
}

// Sync flushes the file to stable storage.
func (c *CSV) Sync() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if err := c.file.Sync(); err != nil {
		return fmt.Errorf("failed to sync output file: %w", err)
	}
	return nil
}

// Close syncs and closes the file.
func (c *CSV) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if err := c.file.Sync(); err != nil {
		_ = c.file.Close()
		return fmt.Errorf("failed to sync output file: %w", err)
	}
	return c.file.Close()
}
