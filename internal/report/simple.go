package report

import (
	"fmt"
	"io"
	"strings"
	"time"
)

// SimpleWriter outputs a short plain-text report for the terminal.
type SimpleWriter struct {
	baseWriter

	// verbose lists every region, not only the failed ones.
	verbose bool
}

// SimpleWriterOption configures a SimpleWriter.
type SimpleWriterOption func(*SimpleWriter)

// WithVerbose lists every region in run reports.
func WithVerbose(verbose bool) SimpleWriterOption {
	return func(w *SimpleWriter) {
		w.verbose = verbose
	}
}

// NewSimpleWriter creates a SimpleWriter that outputs to the given writer.
func NewSimpleWriter(output io.Writer, opts ...SimpleWriterOption) *SimpleWriter {
	w := &SimpleWriter{baseWriter: newBaseWriter(output)}
	for _, opt := range opts {
		opt(w)
	}
	return w
}

// WriteRun outputs the run summary.
func (w *SimpleWriter) WriteRun(r *RunReport) (int, error) {
	s := r.Summary
	var b strings.Builder

	fmt.Fprintf(&b, "Run %s: %s in %s\n", s.RunID, r.status(), s.Elapsed().Round(time.Second))
	fmt.Fprintf(&b, "  Regions:          %d (%d failed)\n", len(s.Regions), len(s.FailedRegions()))
	fmt.Fprintf(&b, "  New records:      %d\n", s.TotalRecords())
	fmt.Fprintf(&b, "  Rows written:     %d\n", s.TotalRows())
	fmt.Fprintf(&b, "  Known identities: %d\n", s.KnownIdentities)
	if r.OutputPath != "" {
		fmt.Fprintf(&b, "  Output:           %s\n", r.OutputPath)
	}
	if r.Checkpoint != "" {
		fmt.Fprintf(&b, "  Checkpoint:       %s\n", r.Checkpoint)
	}

	if w.verbose {
		b.WriteString("\n")
		for _, rs := range s.Regions {
			fmt.Fprintf(&b, "  %-24s pages %d-%d  records %d  rows %d  duplicates %d\n",
				rs.Region.String(), rs.StartPage, rs.LastPage, rs.Records, rs.Rows, rs.Duplicates)
		}
	}

	if failed := s.FailedRegions(); len(failed) > 0 {
		b.WriteString("\nFailed regions:\n")
		for _, rs := range failed {
			fmt.Fprintf(&b, "  %s: %s\n", rs.Region.ID, rs.Error)
		}
	}

	return io.WriteString(w.output, b.String())
}

// WriteStatus outputs the checkpoint status.
func (w *SimpleWriter) WriteStatus(st *Status) (int, error) {
	var b strings.Builder

	fmt.Fprintf(&b, "Checkpoint: %s (%s)\n", st.Path, st.Backend)
	fmt.Fprintf(&b, "Known identities: %d\n", st.KnownIdentities)
	if len(st.Regions) == 0 {
		b.WriteString("No region progress recorded.\n")
		return io.WriteString(w.output, b.String())
	}

	fmt.Fprintf(&b, "Regions: %d, completed pages: %d\n", len(st.Regions), st.TotalPages())
	for _, r := range st.Regions {
		fmt.Fprintf(&b, "  %-24s page %d\n", r.Region, r.LastPage)
	}
	return io.WriteString(w.output, b.String())
}
