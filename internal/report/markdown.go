package report

import (
	"io"
	"strconv"
	"time"

	"github.com/nao1215/markdown"
	"github.com/nao1215/markdown/mermaid/piechart"

	"github.com/nao1215/pagewalk/internal/model"
)

// MarkdownWriter outputs reports in Markdown format for sharing.
type MarkdownWriter struct {
	baseWriter
}

// NewMarkdownWriter creates a MarkdownWriter that outputs to the given writer.
func NewMarkdownWriter(output io.Writer) *MarkdownWriter {
	return &MarkdownWriter{baseWriter: newBaseWriter(output)}
}

// Write outputs the run in Markdown format.
func (w *MarkdownWriter) Write(run *model.RunSummary) (int, error) {
	md := markdown.NewMarkdown(w.output)

	w.writeHeader(md, run)
	w.writeOutcome(md, run)
	w.writeFailures(md, run)
	w.writeFooter(md)

	return len(md.String()), md.Build()
}

// WriteHistory outputs the runs as a table.
func (w *MarkdownWriter) WriteHistory(runs []*model.RunSummary) (int, error) {
	md := markdown.NewMarkdown(w.output)
	md.H1("Run History")
	md.PlainText("")

	if len(runs) == 0 {
		md.PlainText("No runs recorded.")
		md.PlainText("")
		return len(md.String()), md.Build()
	}

	rows := make([][]string, len(runs))
	for i, run := range runs {
		rows[i] = []string{
			strconv.FormatInt(run.ID, 10),
			run.StartedAt.Format(timeLayout),
			run.Source,
			statusText(run),
			strconv.Itoa(run.Pages),
			strconv.Itoa(run.Submitted) + "/" + strconv.Itoa(run.Items),
			strconv.Itoa(run.Failed()),
		}
	}
	md.Table(markdown.TableSet{
		Header: []string{"ID", "Started", "Source", "Status", "Pages", "Submitted", "Failed"},
		Rows:   rows,
	})
	md.PlainText("")
	w.writeFooter(md)

	return len(md.String()), md.Build()
}

// writeHeader writes the run information table.
func (w *MarkdownWriter) writeHeader(md *markdown.Markdown, run *model.RunSummary) {
	md.H1("Pagewalk Run")
	md.PlainText("")

	rows := [][]string{
		{"Source", "`" + run.Source + "`"},
		{"Start Page", run.StartURL},
		{"Started", run.StartedAt.Format(timeLayout)},
		{"Elapsed", run.Elapsed().Round(time.Millisecond).String()},
		{"Status", statusText(run)},
	}
	if run.Resumable() {
		rows = append(rows, []string{"Resume At", run.LastPage})
	}
	md.Table(markdown.TableSet{
		Header: []string{"Property", "Value"},
		Rows:   rows,
	})
	md.PlainText("")
}

// statusText returns the status with a marker.
func statusText(run *model.RunSummary) string {
	switch run.Status {
	case model.RunStatusCompleted:
		return "✅ Completed"
	case model.RunStatusTruncated:
		return "⏸️ Truncated (page limit)"
	case model.RunStatusCancelled:
		return "⚠️ Cancelled"
	case model.RunStatusFailed:
		return "❌ Failed"
	case model.RunStatusRunning:
		return "⏳ Running"
	default:
		return string(run.Status)
	}
}

// writeOutcome writes totals, a distribution chart and an alert.
func (w *MarkdownWriter) writeOutcome(md *markdown.Markdown, run *model.RunSummary) {
	md.H2("Totals")
	md.PlainText("")

	md.Table(markdown.TableSet{
		Header: []string{"Counter", "Value"},
		Rows: [][]string{
			{"Pages", strconv.Itoa(run.Pages)},
			{"Items", strconv.Itoa(run.Items)},
			{"Submitted", strconv.Itoa(run.Submitted)},
			{"Failed", strconv.Itoa(run.Failed())},
		},
	})
	md.PlainText("")

	if run.Items > 0 {
		w.writePieChart(md, run)
	}

	switch {
	case run.Status == model.RunStatusFailed:
		md.Cautionf("The run stopped on a fatal error: %s", run.Error)
	case run.Status == model.RunStatusCancelled:
		md.Warningf("The run was cancelled after %d page(s).", run.Pages)
	case run.Failed() > 0:
		md.Importantf("%d item(s) were skipped. See the failures below.", run.Failed())
	case run.Status == model.RunStatusTruncated:
		md.Note("The page limit was reached. Continue with --resume.")
	default:
		md.Tip("Every item was submitted.")
	}
	md.PlainText("")
}

// writePieChart writes a mermaid pie chart of item outcomes.
func (w *MarkdownWriter) writePieChart(md *markdown.Markdown, run *model.RunSummary) {
	chart := piechart.NewPieChart(
		io.Discard,
		piechart.WithTitle("Item Outcomes"),
		piechart.WithShowData(true),
	)

	if run.Submitted > 0 {
		chart.LabelAndIntValue("Submitted", uint64(run.Submitted))
	}
	for _, sc := range stageCounts(run) {
		if sc.count > 0 {
			chart.LabelAndIntValue("Failed at "+string(sc.stage), uint64(sc.count))
		}
	}

	md.PlainText("")
	md.CodeBlocks(markdown.SyntaxHighlightMermaid, chart.String())
	md.PlainText("")
}

// writeFailures writes a table of skipped items.
func (w *MarkdownWriter) writeFailures(md *markdown.Markdown, run *model.RunSummary) {
	md.H2("Failures")
	md.PlainText("")

	if run.Failed() == 0 {
		md.PlainText("No failures.")
		md.PlainText("")
		return
	}

	rows := make([][]string, len(run.Failures))
	for i, f := range run.Failures {
		rows[i] = []string{
			string(f.Stage),
			truncateString(f.URL, 60),
			truncateString(f.Error, 80),
		}
	}
	md.Table(markdown.TableSet{
		Header: []string{"Stage", "Item", "Error"},
		Rows:   rows,
	})
	md.PlainText("")

	for _, f := range run.Failures {
		if len(f.Error) > 80 {
			md.Details(f.URL, f.Error)
		}
	}
	md.PlainText("")
}

// writeFooter writes the report footer.
func (w *MarkdownWriter) writeFooter(md *markdown.Markdown) {
	md.HorizontalRule()
	md.PlainText("")
	md.PlainTextf("*Report generated by [pagewalk](https://github.com/nao1215/pagewalk)*")
}
