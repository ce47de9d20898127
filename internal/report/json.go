package report

import (
	"encoding/json"
	"io"

	"github.com/nao1215/pagewalk/internal/model"
)

// JSONWriter outputs reports in JSON format for tool integration.
type JSONWriter struct {
	baseWriter

	// indent enables pretty-printed JSON output.
	indent bool

	// indentPrefix is the prefix for each line in indented output.
	indentPrefix string

	// indentString is the indentation string (typically "  " or "\t").
	indentString string

	// version is recorded in every document when set.
	version string
}

// JSONWriterOption configures a JSONWriter.
type JSONWriterOption func(*JSONWriter)

// WithIndent enables pretty-printed JSON output.
func WithIndent(prefix, indent string) JSONWriterOption {
	return func(w *JSONWriter) {
		w.indent = true
		w.indentPrefix = prefix
		w.indentString = indent
	}
}

// WithPrettyPrint enables pretty-printed JSON with two-space indentation.
func WithPrettyPrint() JSONWriterOption {
	return WithIndent("", "  ")
}

// WithVersion records the pagewalk version in the output.
func WithVersion(version string) JSONWriterOption {
	return func(w *JSONWriter) {
		w.version = version
	}
}

// NewJSONWriter creates a JSONWriter that outputs to the given writer.
func NewJSONWriter(output io.Writer, opts ...JSONWriterOption) *JSONWriter {
	w := &JSONWriter{baseWriter: newBaseWriter(output)}
	for _, opt := range opts {
		opt(w)
	}
	return w
}

// RunDocument is the JSON form of a single run.
type RunDocument struct {
	// Version is the pagewalk version that produced the run.
	Version string `json:"version,omitempty"`

	// ElapsedSeconds is the run duration.
	ElapsedSeconds float64 `json:"elapsed_seconds"`

	// Resumable reports whether the run can be continued with --resume.
	Resumable bool `json:"resumable"`

	// Run is the summary itself.
	Run *model.RunSummary `json:"run"`
}

// HistoryDocument is the JSON form of a run list.
type HistoryDocument struct {
	Version string              `json:"version,omitempty"`
	Runs    []*model.RunSummary `json:"runs"`
}

// Write outputs the run wrapped in a RunDocument.
func (w *JSONWriter) Write(run *model.RunSummary) (int, error) {
	return w.writeJSON(RunDocument{
		Version:        w.version,
		ElapsedSeconds: run.Elapsed().Seconds(),
		Resumable:      run.Resumable(),
		Run:            run,
	})
}

// WriteHistory outputs the runs wrapped in a HistoryDocument.
func (w *JSONWriter) WriteHistory(runs []*model.RunSummary) (int, error) {
	if runs == nil {
		runs = []*model.RunSummary{}
	}
	return w.writeJSON(HistoryDocument{Version: w.version, Runs: runs})
}

// writeJSON marshals the given value to JSON and writes it to the output.
func (w *JSONWriter) writeJSON(v any) (int, error) {
	var (
		data []byte
		err  error
	)
	if w.indent {
		data, err = json.MarshalIndent(v, w.indentPrefix, w.indentString)
	} else {
		data, err = json.Marshal(v)
	}
	if err != nil {
		return 0, err
	}

	data = append(data, '\n')
	return w.output.Write(data)
}
