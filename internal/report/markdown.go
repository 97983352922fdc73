package report

import (
	"io"
	"strconv"
	"time"

	"github.com/nao1215/markdown"
	"github.com/nao1215/markdown/mermaid/piechart"
)

// MarkdownWriter outputs reports in Markdown.
type MarkdownWriter struct {
	baseWriter
}

// NewMarkdownWriter creates a MarkdownWriter that outputs to the given writer.
func NewMarkdownWriter(output io.Writer) *MarkdownWriter {
	return &MarkdownWriter{baseWriter: newBaseWriter(output)}
}

// WriteRun outputs the run report.
func (w *MarkdownWriter) WriteRun(r *RunReport) (int, error) {
	md := markdown.NewMarkdown(w.output)
	s := r.Summary

	md.H1("Directory Harvest Report")
	md.PlainText("")
	md.Table(markdown.TableSet{
		Header: []string{"Property", "Value"},
		Rows: [][]string{
			{"Run ID", "`" + s.RunID + "`"},
			{"Started", s.StartedAt.Format("2006-01-02 15:04:05 MST")},
			{"Elapsed", s.Elapsed().Round(time.Second).String()},
			{"Status", r.status()},
			{"Output", "`" + r.OutputPath + "`"},
			{"Checkpoint", "`" + r.Checkpoint + "`"},
		},
	})
	md.PlainText("")

	md.H2("Totals")
	md.PlainText("")
	md.BulletList(
		"Regions: "+strconv.Itoa(len(s.Regions)),
		"New records: "+strconv.Itoa(s.TotalRecords()),
		"Rows written: "+strconv.Itoa(s.TotalRows()),
		"Known identities: "+strconv.Itoa(s.KnownIdentities),
	)
	md.PlainText("")

	w.writeAlert(md, r)
	w.writeRegions(md, r)
	if s.TotalRows() > 0 {
		w.writePieChart(md, r)
	}
	w.writeFooter(md, r)

	return len(md.String()), md.Build()
}

func (w *MarkdownWriter) writeAlert(md *markdown.Markdown, r *RunReport) {
	failed := r.Summary.FailedRegions()
	switch {
	case r.Summary.Cancelled:
		md.Warningf("The run was interrupted. Rerun to resume from the checkpoint.")
	case len(failed) > 0:
		md.Warningf("%d region(s) failed. Rerun to resume them from their last completed page.", len(failed))
	case r.Summary.TotalRows() == 0:
		md.Note("No new records were found.")
	default:
		md.Tip("All regions completed.")
	}
	md.PlainText("")
}

func (w *MarkdownWriter) writeRegions(md *markdown.Markdown, r *RunReport) {
	md.H2("Regions")
	md.PlainText("")

	if len(r.Summary.Regions) == 0 {
		md.PlainText("No regions were crawled.")
		md.PlainText("")
		return
	}

	rows := make([][]string, 0, len(r.Summary.Regions))
	for _, rs := range r.Summary.Regions {
		state := "done"
		switch {
		case rs.Error != "":
			state = "failed: " + truncateString(rs.Error, 60)
		case !rs.Completed:
			state = "not finished"
		}
		rows = append(rows, []string{
			rs.Region.String(),
			"`" + rs.Region.ID + "`",
			strconv.Itoa(rs.StartPage),
			strconv.Itoa(rs.LastPage),
			strconv.Itoa(rs.Records),
			strconv.Itoa(rs.Rows),
			strconv.Itoa(rs.Duplicates),
			state,
		})
	}
	md.Table(markdown.TableSet{
		Header: []string{"Region", "ID", "Start page", "Last page", "Records", "Rows", "Duplicates", "State"},
		Rows:   rows,
	})
	md.PlainText("")
}

// writePieChart writes a mermaid pie chart of rows per region.
func (w *MarkdownWriter) writePieChart(md *markdown.Markdown, r *RunReport) {
	chart := piechart.NewPieChart(
		io.Discard,
		piechart.WithTitle("Rows per Region"),
		piechart.WithShowData(true),
	)
	for _, rs := range r.Summary.Regions {
		if rs.Rows > 0 {
			chart.LabelAndIntValue(rs.Region.String(), uint64(rs.Rows))
		}
	}

	md.CodeBlocks(markdown.SyntaxHighlightMermaid, chart.String())
	md.PlainText("")
}

func (w *MarkdownWriter) writeFooter(md *markdown.Markdown, r *RunReport) {
	md.HorizontalRule()
	md.PlainText("")
	if r.Version != "" {
		md.PlainTextf("*Report generated by dirharvest %s*", r.Version)
		return
	}
	md.PlainText("*Report generated by dirharvest*")
}

// WriteStatus outputs the checkpoint status.
func (w *MarkdownWriter) WriteStatus(st *Status) (int, error) {
	md := markdown.NewMarkdown(w.output)

	md.H1("Checkpoint Status")
	md.PlainText("")
	md.Table(markdown.TableSet{
		Header: []string{"Property", "Value"},
		Rows: [][]string{
			{"Checkpoint", "`" + st.Path + "`"},
			{"Backend", st.Backend},
			{"Known identities", strconv.Itoa(st.KnownIdentities)},
			{"Completed pages", strconv.Itoa(st.TotalPages())},
		},
	})
	md.PlainText("")

	md.H2("Regions")
	md.PlainText("")
	if len(st.Regions) == 0 {
		md.Note("No region progress recorded yet.")
		md.PlainText("")
		return len(md.String()), md.Build()
	}

	rows := make([][]string, 0, len(st.Regions))
	for _, r := range st.Regions {
		rows = append(rows, []string{"`" + r.Region + "`", strconv.Itoa(r.LastPage)})
	}
	md.Table(markdown.TableSet{
		Header: []string{"Region", "Last completed page"},
		Rows:   rows,
	})
	md.PlainText("")

	return len(md.String()), md.Build()
}

// truncateString truncates s to maxLen runes with an ellipsis.
func truncateString(s string, maxLen int) string {
	r := []rune(s)
	if len(r) <= maxLen {
		return s
	}
	if maxLen <= 3 {
		return string(r[:maxLen])
	}
	return string(r[:maxLen-3]) + "..."
}
