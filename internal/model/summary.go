package model

import "time"

// RunSummary collects what one crawl run did, region by region.
type RunSummary struct {
	// RunID identifies the run in logs and reports.
	RunID string `json:"run_id"`

	StartedAt  time.Time `json:"started_at"`
	FinishedAt time.Time `json:"finished_at"`

	// Regions is in enumeration order.
	Regions []*RegionSummary `json:"regions"`

	// KnownIdentities is the size of the known-identity set at the end of the run.
	KnownIdentities int `json:"known_identities"`

	// Cancelled is true when the run stopped because its context was cancelled.
	Cancelled bool `json:"cancelled"`
}

// RegionSummary holds the counters of one region within a run.
type RegionSummary struct {
	Region Region `json:"region"`

	// StartPage is the page the crawl resumed at.
	StartPage int `json:"start_page"`

	// LastPage is the last completed page with content, as recorded in the checkpoint.
	LastPage int `json:"last_page"`

	PagesFetched int `json:"pages_fetched"`
	Entries      int `json:"entries"`
	Duplicates   int `json:"duplicates"`
	Unresolved   int `json:"unresolved"`
	Records      int `json:"records"`
	Rows         int `json:"rows"`

	// Completed is true when the region reached its stop condition.
	Completed bool `json:"completed"`

	// Error is the failure that aborted the region, if any.
	Error string `json:"error,omitempty"`
}

// TotalRows returns the number of rows written across all regions.
func (s *RunSummary) TotalRows() int {
	total := 0
	for _, r := range s.Regions {
		total += r.Rows
	}
	return total
}

// TotalRecords returns the number of new records across all regions.
func (s *RunSummary) TotalRecords() int {
	total := 0
	for _, r := range s.Regions {
		total += r.Records
	}
	return total
}

// FailedRegions returns the regions that were aborted by an error.
func (s *RunSummary) FailedRegions() []*RegionSummary {
	var failed []*RegionSummary
	for _, r := range s.Regions {
		if r.Error != "" {
			failed = append(failed, r)
		}
	}
	return failed
}

// Elapsed returns the wall-clock duration of the run.
func (s *RunSummary) Elapsed() time.Duration {
	if s.FinishedAt.IsZero() {
		return 0
	}
	return s.FinishedAt.Sub(s.StartedAt)
}
