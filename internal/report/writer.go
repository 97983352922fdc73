package report

import (
	"io"
	"sort"

	"github.com/nao1215/dirharvest/internal/checkpoint"
)

// Writer renders reports.
type Writer interface {
	// WriteRun renders the summary of one crawl run.
	WriteRun(summary *RunReport) (int, error)

	// WriteStatus renders the progress held in a checkpoint.
	WriteStatus(status *Status) (int, error)
}

// MultiWriter writes to several Writers in turn and stops at the first
// error.
type MultiWriter struct {
	writers []Writer
}

// NewMultiWriter creates a Writer that writes to all provided Writers.
func NewMultiWriter(writers ...Writer) *MultiWriter {
	return &MultiWriter{writers: writers}
}

// WriteRun writes the run report to every Writer.
func (m *MultiWriter) WriteRun(summary *RunReport) (int, error) {
	var total int
	for _, w := range m.writers {
		n, err := w.WriteRun(summary)
		total += n
		if err != nil {
			return total, err
		}
	}
	return total, nil
}

// WriteStatus writes the status to every Writer.
func (m *MultiWriter) WriteStatus(status *Status) (int, error) {
	var total int
	for _, w := range m.writers {
		n, err := w.WriteStatus(status)
		total += n
		if err != nil {
			return total, err
		}
	}
	return total, nil
}

// RegionProgress is the checkpointed page of one region.
type RegionProgress struct {
	Region   string `json:"region"`
	LastPage int    `json:"last_page"`
}

// Status describes a checkpoint.
type Status struct {
	Path            string           `json:"path"`
	Backend         string           `json:"backend"`
	Regions         []RegionProgress `json:"regions"`
	KnownIdentities int              `json:"known_identities"`
}

// NewStatus builds a Status from a loaded checkpoint state. Regions are
// sorted by ID.
func NewStatus(path, backend string, state *checkpoint.State) *Status {
	pages := state.Regions()
	regions := make([]RegionProgress, 0, len(pages))
	for id, page := range pages {
		regions = append(regions, RegionProgress{Region: id, LastPage: page})
	}
	sort.Slice(regions, func(i, j int) bool { return regions[i].Region < regions[j].Region })

	return &Status{
		Path:            path,
		Backend:         backend,
		Regions:         regions,
		KnownIdentities: state.KnownCount(),
	}
}

// TotalPages returns the sum of completed pages over all regions.
func (s *Status) TotalPages() int {
	total := 0
	for _, r := range s.Regions {
		total += r.LastPage
	}
	return total
}

// baseWriter provides common functionality for report writers.
type baseWriter struct {
	output io.Writer
}

func newBaseWriter(output io.Writer) baseWriter {
	return baseWriter{output: output}
}
