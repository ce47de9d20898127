package model

import (
	"errors"
	"testing"
	"time"
)

func TestNewRunSummary(t *testing.T) {
	t.Parallel()

	run := NewRunSummary("example", "https://example.com/list/3.html")
	if run.Status != RunStatusRunning {
		t.Errorf("expected running, got %s", run.Status)
	}
	if run.StartedAt.IsZero() || !run.FinishedAt.IsZero() {
		t.Error("expected start time set and finish time zero")
	}
	if run.Failures == nil || run.Failed() != 0 {
		t.Error("expected empty failure list")
	}
	if run.Elapsed() < 0 {
		t.Error("expected non-negative elapsed time")
	}
}

func TestRunSummaryFinish(t *testing.T) {
	t.Parallel()

	run := NewRunSummary("example", "https://example.com/list/3.html")
	run.StartedAt = time.Now().Add(-2 * time.Second)
	run.Failures = append(run.Failures, ItemFailure{URL: "https://example.com/v/1.html", Stage: StageFetch, Error: "404"})
	run.Finish(RunStatusFailed, errors.New("page failed"))

	if run.Status != RunStatusFailed || run.Error != "page failed" {
		t.Errorf("unexpected status %s / error %q", run.Status, run.Error)
	}
	if run.Failed() != 1 {
		t.Errorf("expected 1 failure, got %d", run.Failed())
	}
	if e := run.Elapsed(); e < 2*time.Second {
		t.Errorf("expected elapsed >= 2s, got %s", e)
	}
}

func TestRunSummaryResumable(t *testing.T) {
	t.Parallel()

	tests := []struct {
		status   RunStatus
		lastPage string
		want     bool
	}{
		{status: RunStatusFailed, lastPage: "https://example.com/list/2.html", want: true},
		{status: RunStatusCancelled, lastPage: "https://example.com/list/2.html", want: true},
		{status: RunStatusTruncated, lastPage: "https://example.com/list/2.html", want: true},
		{status: RunStatusRunning, lastPage: "https://example.com/list/2.html", want: true},
		{status: RunStatusCompleted, lastPage: "https://example.com/list/1.html", want: false},
		{status: RunStatusFailed, lastPage: "", want: false},
	}

	for _, tt := range tests {
		t.Run(string(tt.status)+"/"+tt.lastPage, func(t *testing.T) {
			t.Parallel()
			run := &RunSummary{Status: tt.status, LastPage: tt.lastPage}
			if got := run.Resumable(); got != tt.want {
				t.Errorf("Resumable() = %v, want %v", got, tt.want)
			}
		})
	}
}
