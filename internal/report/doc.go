// Package report renders run summaries and checkpoint status.
//
// Three formats are available: plain text for the terminal, Markdown for
// sharing a run report, and JSON for other tools.
package report
