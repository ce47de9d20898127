package report

import (
	"bytes"
	"encoding/json"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/nao1215/pagewalk/internal/model"
)

// createTestRun creates a finished run with sample data for testing.
func createTestRun() *model.RunSummary {
	run := model.NewRunSummary("youjizz", "https://www.youjizz.com/newest-clips/2.html")
	run.ID = 7
	run.StartedAt = time.Date(2026, 10, 19, 8, 0, 0, 0, time.UTC)
	run.Pages = 2
	run.Items = 5
	run.Submitted = 3
	run.LastPage = "https://www.youjizz.com/newest-clips/1.html"
	run.Failures = append(run.Failures,
		model.ItemFailure{
			Page:  "https://www.youjizz.com/newest-clips/2.html",
			URL:   "https://www.youjizz.com/videos/a.html",
			Stage: model.StageFetch,
			Error: "fetch https://www.youjizz.com/videos/a.html: 404 Not Found",
		},
		model.ItemFailure{
			Page:  "https://www.youjizz.com/newest-clips/1.html",
			URL:   "https://www.youjizz.com/videos/b.html",
			Stage: model.StageExtract,
			Error: "[extractor] youjizz: item.tags: required field is missing",
		},
	)
	run.Finish(model.RunStatusCompleted, nil)
	run.FinishedAt = run.StartedAt.Add(90 * time.Second)
	return run
}

// TestSimpleWriter tests the human-readable report writer.
func TestSimpleWriter(t *testing.T) {
	t.Parallel()

	t.Run("writes header and totals", func(t *testing.T) {
		t.Parallel()

		var buf bytes.Buffer
		if _, err := NewSimpleWriter(&buf).Write(createTestRun()); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		output := buf.String()
		for _, want := range []string{"PAGEWALK RUN", "youjizz", "COMPLETED", "1m30s", "SUBMITTED: 3", "FAILED:    2"} {
			if !strings.Contains(output, want) {
				t.Errorf("expected output to contain %q", want)
			}
		}
		if strings.Contains(output, "Resume at") {
			t.Error("completed runs must not show a resume point")
		}
	})

	t.Run("groups failures by stage", func(t *testing.T) {
		t.Parallel()

		var buf bytes.Buffer
		if _, err := NewSimpleWriter(&buf, WithVerbose(true)).Write(createTestRun()); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		output := buf.String()
		if !strings.Contains(output, "[FETCH] 1") || !strings.Contains(output, "[EXTRACT] 1") {
			t.Errorf("expected per-stage counts, got:\n%s", output)
		}
		if strings.Contains(output, "[SUBMIT]") {
			t.Error("expected empty stages to be hidden")
		}
		if !strings.Contains(output, "videos/a.html") {
			t.Error("expected verbose output to list failed items")
		}
	})

	t.Run("failed run shows error and resume point", func(t *testing.T) {
		t.Parallel()

		run := createTestRun()
		run.Failures = run.Failures[:0]
		run.Finish(model.RunStatusFailed, errors.New("page https://www.youjizz.com/newest-clips/1.html: fetch failed"))

		var buf bytes.Buffer
		if _, err := NewSimpleWriter(&buf).Write(run); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		output := buf.String()
		if !strings.Contains(output, "FAILED - page") {
			t.Error("expected error in status line")
		}
		if !strings.Contains(output, "Resume at:  https://www.youjizz.com/newest-clips/1.html") {
			t.Error("expected resume point")
		}
		if strings.Contains(output, "FAILURES") {
			t.Error("expected failure section to be hidden when empty")
		}
	})

	t.Run("show empty", func(t *testing.T) {
		t.Parallel()

		run := createTestRun()
		run.Failures = run.Failures[:0]

		var buf bytes.Buffer
		if _, err := NewSimpleWriter(&buf, WithShowEmpty(true)).Write(run); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if !strings.Contains(buf.String(), "No failures") {
			t.Error("expected empty failure section")
		}
	})

	t.Run("history", func(t *testing.T) {
		t.Parallel()

		var buf bytes.Buffer
		if _, err := NewSimpleWriter(&buf).WriteHistory([]*model.RunSummary{createTestRun()}); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
		if len(lines) != 2 {
			t.Fatalf("expected header and one row, got %d lines", len(lines))
		}
		if !strings.HasPrefix(lines[1], "7 ") || !strings.Contains(lines[1], "completed") {
			t.Errorf("unexpected row %q", lines[1])
		}

		buf.Reset()
		if _, err := NewSimpleWriter(&buf).WriteHistory(nil); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if !strings.Contains(buf.String(), "No runs recorded") {
			t.Error("expected empty history message")
		}
	})
}

// TestJSONWriter tests the JSON report writer.
func TestJSONWriter(t *testing.T) {
	t.Parallel()

	t.Run("writes run document", func(t *testing.T) {
		t.Parallel()

		var buf bytes.Buffer
		if _, err := NewJSONWriter(&buf, WithVersion("v1.2.3")).Write(createTestRun()); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		var doc RunDocument
		if err := json.Unmarshal(buf.Bytes(), &doc); err != nil {
			t.Fatalf("invalid JSON: %v", err)
		}
		if doc.Version != "v1.2.3" {
			t.Errorf("expected version, got %q", doc.Version)
		}
		if doc.ElapsedSeconds != 90 {
			t.Errorf("expected 90 seconds, got %v", doc.ElapsedSeconds)
		}
		if doc.Resumable {
			t.Error("expected completed run not to be resumable")
		}
		if doc.Run.Submitted != 3 || len(doc.Run.Failures) != 2 {
			t.Errorf("unexpected run %+v", doc.Run)
		}
		if strings.Count(buf.String(), "\n") != 1 {
			t.Error("expected compact single-line output")
		}
	})

	t.Run("pretty print", func(t *testing.T) {
		t.Parallel()

		var buf bytes.Buffer
		if _, err := NewJSONWriter(&buf, WithPrettyPrint()).Write(createTestRun()); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if !strings.Contains(buf.String(), "\n  \"run\": {") {
			t.Errorf("expected indented output, got:\n%s", buf.String())
		}
	})

	t.Run("empty history is an empty array", func(t *testing.T) {
		t.Parallel()

		var buf bytes.Buffer
		if _, err := NewJSONWriter(&buf).WriteHistory(nil); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if strings.TrimSpace(buf.String()) != `{"runs":[]}` {
			t.Errorf("unexpected output %q", buf.String())
		}
	})
}

// TestMarkdownWriter tests the Markdown report writer.
func TestMarkdownWriter(t *testing.T) {
	t.Parallel()

	t.Run("writes run report", func(t *testing.T) {
		t.Parallel()

		var buf bytes.Buffer
		if _, err := NewMarkdownWriter(&buf).Write(createTestRun()); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		output := buf.String()
		for _, want := range []string{
			"# Pagewalk Run",
			"## Totals",
			"## Failures",
			"```mermaid",
			"Item Outcomes",
			"[!IMPORTANT]",
			"videos/a.html",
		} {
			if !strings.Contains(output, want) {
				t.Errorf("expected output to contain %q", want)
			}
		}
	})

	t.Run("clean run gets a tip", func(t *testing.T) {
		t.Parallel()

		run := createTestRun()
		run.Failures = run.Failures[:0]

		var buf bytes.Buffer
		if _, err := NewMarkdownWriter(&buf).Write(run); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if !strings.Contains(buf.String(), "[!TIP]") || !strings.Contains(buf.String(), "No failures.") {
			t.Errorf("unexpected output:\n%s", buf.String())
		}
	})

	t.Run("history table", func(t *testing.T) {
		t.Parallel()

		var buf bytes.Buffer
		if _, err := NewMarkdownWriter(&buf).WriteHistory([]*model.RunSummary{createTestRun()}); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if !strings.Contains(buf.String(), "# Run History") || !strings.Contains(buf.String(), "3/5") {
			t.Errorf("unexpected output:\n%s", buf.String())
		}
	})
}

// TestMultiWriter tests writing to several writers.
func TestMultiWriter(t *testing.T) {
	t.Parallel()

	var text, js bytes.Buffer
	m := NewMultiWriter(NewSimpleWriter(&text), NewJSONWriter(&js))

	n, err := m.Write(createTestRun())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if n != text.Len()+js.Len() {
		t.Errorf("expected total %d, got %d", text.Len()+js.Len(), n)
	}
	if text.Len() == 0 || js.Len() == 0 {
		t.Error("expected both writers to receive output")
	}
}

// TestTruncateString tests string truncation.
func TestTruncateString(t *testing.T) {
	t.Parallel()

	tests := []struct {
		in   string
		max  int
		want string
	}{
		{"short", 10, "short"},
		{"exactly10!", 10, "exactly10!"},
		{"this is too long", 10, "this is..."},
		{"abcdef", 3, "abc"},
	}
	for _, tt := range tests {
		if got := truncateString(tt.in, tt.max); got != tt.want {
			t.Errorf("truncateString(%q, %d) = %q, want %q", tt.in, tt.max, got, tt.want)
		}
	}
}
