package report

import (
	"github.com/nao1215/dirharvest/internal/model"
)

// RunReport is a run summary together with where its output went.
type RunReport struct {
	Version    string            `json:"version,omitempty"`
	OutputPath string            `json:"output_path"`
	Checkpoint string            `json:"checkpoint"`
	Summary    *model.RunSummary `json:"summary"`
}

// NewRunReport wraps summary.
func NewRunReport(summary *model.RunSummary, version, outputPath, checkpointPath string) *RunReport {
	return &RunReport{
		Version:    version,
		OutputPath: outputPath,
		Checkpoint: checkpointPath,
		Summary:    summary,
	}
}

// status returns a one-word outcome of the run.
func (r *RunReport) status() string {
	switch {
	case r.Summary.Cancelled:
		return "interrupted"
	case len(r.Summary.FailedRegions()) > 0:
		return "completed with failures"
	default:
		return "completed"
	}
}
