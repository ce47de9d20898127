package report

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/nao1215/pagewalk/internal/model"
)

// SimpleWriter outputs human-readable text reports for terminal display.
type SimpleWriter struct {
	baseWriter

	// showEmpty prints the failure section even when nothing failed.
	showEmpty bool

	// verbose lists every failure instead of per-stage counts only.
	verbose bool
}

// SimpleWriterOption configures a SimpleWriter.
type SimpleWriterOption func(*SimpleWriter)

// WithShowEmpty configures the writer to show empty sections.
func WithShowEmpty(show bool) SimpleWriterOption {
	return func(w *SimpleWriter) {
		w.showEmpty = show
	}
}

// WithVerbose enables verbose output with additional details.
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

// Write outputs the run in human-readable format.
func (w *SimpleWriter) Write(run *model.RunSummary) (int, error) {
	var sb strings.Builder

	w.writeHeader(&sb, run)
	w.writeTotals(&sb, run)
	w.writeFailures(&sb, run)
	writeRule(&sb, "=")

	return w.output.Write([]byte(sb.String()))
}

// WriteHistory outputs one line per run.
func (w *SimpleWriter) WriteHistory(runs []*model.RunSummary) (int, error) {
	var sb strings.Builder

	if len(runs) == 0 {
		sb.WriteString("No runs recorded\n")
		return w.output.Write([]byte(sb.String()))
	}

	fmt.Fprintf(&sb, "%-6s %-20s %-16s %-10s %6s %6s %6s %6s\n",
		"ID", "STARTED", "SOURCE", "STATUS", "PAGES", "ITEMS", "SENT", "FAILED")
	for _, run := range runs {
		fmt.Fprintf(&sb, "%-6d %-20s %-16s %-10s %6d %6d %6d %6d\n",
			run.ID,
			run.StartedAt.Local().Format("2006-01-02 15:04:05"),
			truncateString(run.Source, 16),
			run.Status,
			run.Pages,
			run.Items,
			run.Submitted,
			run.Failed(),
		)
		if w.verbose && run.Resumable() {
			fmt.Fprintf(&sb, "       resume at %s\n", run.LastPage)
		}
	}
	return w.output.Write([]byte(sb.String()))
}

// writeHeader writes the run identity and status.
func (w *SimpleWriter) writeHeader(sb *strings.Builder, run *model.RunSummary) {
	sb.WriteString("\n")
	writeRule(sb, "=")
	sb.WriteString("                          PAGEWALK RUN\n")
	writeRule(sb, "=")
	sb.WriteString("\n")

	fmt.Fprintf(sb, "Source:     %s\n", run.Source)
	fmt.Fprintf(sb, "Start:      %s\n", run.StartURL)
	fmt.Fprintf(sb, "Started:    %s\n", run.StartedAt.Format(timeLayout))
	fmt.Fprintf(sb, "Elapsed:    %s\n", run.Elapsed().Round(time.Millisecond))

	switch {
	case run.Error != "":
		fmt.Fprintf(sb, "Status:     %s - %s\n", strings.ToUpper(string(run.Status)), run.Error)
	default:
		fmt.Fprintf(sb, "Status:     %s\n", strings.ToUpper(string(run.Status)))
	}
	if run.Resumable() {
		fmt.Fprintf(sb, "Resume at:  %s\n", run.LastPage)
	}
	sb.WriteString("\n")
}

// writeTotals writes the page and item counters.
func (w *SimpleWriter) writeTotals(sb *strings.Builder, run *model.RunSummary) {
	writeRule(sb, "-")
	sb.WriteString("TOTALS\n")
	writeRule(sb, "-")
	sb.WriteString("\n")

	fmt.Fprintf(sb, "  PAGES:     %d\n", run.Pages)
	fmt.Fprintf(sb, "  ITEMS:     %d\n", run.Items)
	fmt.Fprintf(sb, "  SUBMITTED: %d\n", run.Submitted)
	fmt.Fprintf(sb, "  FAILED:    %d\n", run.Failed())
	sb.WriteString("\n")
}

// writeFailures writes failed items grouped by stage.
func (w *SimpleWriter) writeFailures(sb *strings.Builder, run *model.RunSummary) {
	if run.Failed() == 0 && !w.showEmpty {
		return
	}

	writeRule(sb, "-")
	sb.WriteString("FAILURES\n")
	writeRule(sb, "-")
	sb.WriteString("\n")

	if run.Failed() == 0 {
		sb.WriteString("  No failures\n\n")
		return
	}

	for _, sc := range stageCounts(run) {
		if sc.count == 0 && !w.showEmpty {
			continue
		}
		fmt.Fprintf(sb, "[%s] %d\n", strings.ToUpper(string(sc.stage)), sc.count)
		if !w.verbose {
			continue
		}
		for _, f := range run.Failures {
			if f.Stage != sc.stage {
				continue
			}
			fmt.Fprintf(sb, "  * %s\n", f.URL)
			fmt.Fprintf(sb, "    Error: %s\n", f.Error)
		}
	}
	sb.WriteString("\n")
}

func writeRule(sb *strings.Builder, char string) {
	sb.WriteString(strings.Repeat(char, 70))
	sb.WriteString("\n")
}
