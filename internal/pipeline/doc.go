// Package pipeline drives a harvest run.
//
// The Orchestrator enumerates regions and, for each one, resumes its pager
// at the checkpointed page, resolves new listing entries into records,
// appends their rows to the sink and persists progress after every
// completed page. Regions are dispatched through a RegionBatch, which runs
// them one at a time by default and concurrently when configured.
//
// Each new identity is saved to the checkpoint before its rows are
// written, and a page is recorded only after all of its rows are synced.
// An interrupted run re-reads the unfinished page on resume and never
// emits a record twice.
package pipeline
