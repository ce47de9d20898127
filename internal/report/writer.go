package report

import (
	"io"

	"github.com/nao1215/pagewalk/internal/model"
)

// Writer defines the interface for report output.
type Writer interface {
	// Write outputs a single run summary.
	// Returns the number of bytes written and any error encountered.
	Write(run *model.RunSummary) (int, error)

	// WriteHistory outputs a list of runs, newest first.
	WriteHistory(runs []*model.RunSummary) (int, error)
}

// MultiWriter writes to multiple Writers in order.
// It stops on the first error.
type MultiWriter struct {
	writers []Writer
}

// NewMultiWriter creates a Writer that writes to all provided Writers.
func NewMultiWriter(writers ...Writer) *MultiWriter {
	return &MultiWriter{writers: writers}
}

// Write outputs the run to all configured Writers.
// Returns the total bytes written across all writers.
func (m *MultiWriter) Write(run *model.RunSummary) (int, error) {
	var total int
	for _, w := range m.writers {
		n, err := w.Write(run)
		total += n
		if err != nil {
			return total, err
		}
	}
	return total, nil
}

// WriteHistory outputs the runs to all configured Writers.
func (m *MultiWriter) WriteHistory(runs []*model.RunSummary) (int, error) {
	var total int
	for _, w := range m.writers {
		n, err := w.WriteHistory(runs)
		total += n
		if err != nil {
			return total, err
		}
	}
	return total, nil
}

// baseWriter provides common functionality for report writers.
type baseWriter struct {
	output io.Writer
}

// newBaseWriter creates a baseWriter with the given output destination.
func newBaseWriter(output io.Writer) baseWriter {
	return baseWriter{output: output}
}

// timeLayout is used for all human-readable timestamps.
const timeLayout = "2006-01-02 15:04:05 MST"

// stageCounts returns the number of failures per stage in a fixed order.
func stageCounts(run *model.RunSummary) []stageCount {
	counts := []stageCount{
		{stage: model.StageFetch},
		{stage: model.StageExtract},
		{stage: model.StageSubmit},
	}
	for _, f := range run.Failures {
		for i := range counts {
			if counts[i].stage == f.Stage {
				counts[i].count++
			}
		}
	}
	return counts
}

type stageCount struct {
	stage model.Stage
	count int
}

// truncateString truncates a string to maxLen bytes with ellipsis.
func truncateString(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	if maxLen <= 3 {
		return s[:maxLen]
	}
	return s[:maxLen-3] + "..."
}
