package model

import (
	"time"
)

// RunStatus is the terminal state of a crawl run.
type RunStatus string

const (
	// RunStatusRunning marks a run that has not finished yet.
	RunStatusRunning RunStatus = "running"
	// RunStatusCompleted marks a run that reached the oldest page.
	RunStatusCompleted RunStatus = "completed"
	// RunStatusTruncated marks a run stopped by the page limit.
	RunStatusTruncated RunStatus = "truncated"
	// RunStatusCancelled marks a run stopped by the caller.
	RunStatusCancelled RunStatus = "cancelled"
	// RunStatusFailed marks a run stopped by a fatal error.
	RunStatusFailed RunStatus = "failed"
)

// Stage names the step at which an item failed.
type Stage string

const (
	// StageFetch is the item detail fetch.
	StageFetch Stage = "fetch"
	// StageExtract is the item detail extraction.
	StageExtract Stage = "extract"
	// StageSubmit is the hand-off to the sink.
	StageSubmit Stage = "submit"
)

// ItemFailure records one item that could not be processed.
type ItemFailure struct {
	// Page is the listing page the item was found on.
	Page string `json:"page"`

	// URL is the item's detail address.
	URL string `json:"url"`

	// Stage is where processing stopped.
	Stage Stage `json:"stage"`

	// Error is the failure message.
	Error string `json:"error"`
}

// RunSummary describes one crawl run from start to termination.
type RunSummary struct {
	// ID is the database identifier, zero until the summary is persisted.
	ID int64 `json:"id,omitempty"`

	// Source is the name of the source definition the run used.
	Source string `json:"source"`

	// StartURL is the first page fetched.
	StartURL string `json:"start_url"`

	// LastPage is the most recent page fetched. A resumed run starts here.
	LastPage string `json:"last_page,omitempty"`

	// StartedAt is when the run began.
	StartedAt time.Time `json:"started_at"`

	// FinishedAt is when the run ended. Zero while running.
	FinishedAt time.Time `json:"finished_at,omitzero"`

	// Status is the terminal state.
	Status RunStatus `json:"status"`

	// Pages is the number of listing pages processed.
	Pages int `json:"pages"`

	// Items is the number of items discovered on listing pages.
	Items int `json:"items"`

	// Submitted is the number of items accepted by the sink.
	Submitted int `json:"submitted"`

	// Failures lists items that were skipped.
	Failures []ItemFailure `json:"failures,omitempty"`

	// Error is the fatal error message, if any.
	Error string `json:"error,omitempty"`
}

// NewRunSummary creates a summary for a run that is starting now.
func NewRunSummary(source, startURL string) *RunSummary {
	return &RunSummary{
		Source:    source,
		StartURL:  startURL,
		StartedAt: time.Now(),
		Status:    RunStatusRunning,
		Failures:  make([]ItemFailure, 0),
	}
}

// Finish stamps the end time and terminal status.
// A non-nil err is recorded verbatim.
func (r *RunSummary) Finish(status RunStatus, err error) {
	r.FinishedAt = time.Now()
	r.Status = status
	if err != nil {
		r.Error = err.Error()
	}
}

// Elapsed returns the run duration. For a running summary it is the time
// since StartedAt.
func (r *RunSummary) Elapsed() time.Duration {
	if r.FinishedAt.IsZero() {
		return time.Since(r.StartedAt)
	}
	return r.FinishedAt.Sub(r.StartedAt)
}

// Failed returns the number of skipped items.
func (r *RunSummary) Failed() int {
	return len(r.Failures)
}

// Resumable reports whether a later run can continue from LastPage.
func (r *RunSummary) Resumable() bool {
	if r.LastPage == "" {
		return false
	}
	switch r.Status {
	case RunStatusFailed, RunStatusCancelled, RunStatusTruncated, RunStatusRunning:
		return true
	default:
		return false
	}
}
