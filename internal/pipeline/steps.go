package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/nao1215/pagewalk/internal/model"
)

// RunStore persists run history. *database.Store satisfies it.
type RunStore interface {
	LatestRun(ctx context.Context, source string) (*model.RunSummary, error)
	SaveRun(ctx context.Context, run *model.RunSummary) error
}

// Runner walks one chain. *crawler.Crawler satisfies it.
type Runner interface {
	Run(ctx context.Context, startURL string) (*model.RunSummary, error)
}

// RunnerFactory builds the runner for a job's source.
type RunnerFactory func(job *Job) (Runner, error)

// ResumeStep replaces a job's start address with the last page of the
// source's latest unfinished run.
type ResumeStep struct {
	store  RunStore
	logger *slog.Logger
}

// NewResumeStep creates a ResumeStep reading history from store.
func NewResumeStep(store RunStore, logger *slog.Logger) *ResumeStep {
	if logger == nil {
		logger = slog.Default()
	}
	return &ResumeStep{store: store, logger: logger}
}

// Name implements Step.
func (s *ResumeStep) Name() string { return "resume" }

// Do implements Step. Jobs without Resume are left untouched. When the
// latest run finished normally, or there is none, the job starts from the
// entry point.
func (s *ResumeStep) Do(ctx context.Context, job *Job) error {
	if !job.Resume {
		return nil
	}
	last, err := s.store.LatestRun(ctx, job.Source)
	if err != nil {
		return fmt.Errorf("load latest run: %w", err)
	}
	if last == nil || !last.Resumable() {
		s.logger.Info("no unfinished run, starting from the entry point", "source", job.Source)
		return nil
	}

	job.StartURL = last.LastPage
	job.ResumedFrom = last.ID
	s.logger.Info("resuming run",
		"source", job.Source,
		"run", last.ID,
		"status", last.Status,
		"page", last.LastPage,
	)
	return nil
}

// CrawlStep runs the crawler for a job.
type CrawlStep struct {
	factory RunnerFactory
}

// NewCrawlStep creates a CrawlStep building its runner with factory.
func NewCrawlStep(factory RunnerFactory) *CrawlStep {
	return &CrawlStep{factory: factory}
}

// Name implements Step.
func (s *CrawlStep) Name() string { return "crawl" }

// Do implements Step. A fatal crawl error is recorded in job.Err while the
// partial summary is kept, so that later steps can still persist it.
func (s *CrawlStep) Do(ctx context.Context, job *Job) error {
	runner, err := s.factory(job)
	if err != nil {
		return err
	}

	run, err := runner.Run(ctx, job.StartURL)
	if run == nil {
		if err == nil {
			err = errors.New("crawler returned no summary")
		}
		return err
	}
	job.Run = run
	if err != nil && job.Err == nil {
		job.Err = err
	}
	return nil
}

// RecordStep stores the job's run summary.
type RecordStep struct {
	store RunStore
}

// NewRecordStep creates a RecordStep writing to store.
func NewRecordStep(store RunStore) *RecordStep {
	return &RecordStep{store: store}
}

// Name implements Step.
func (s *RecordStep) Name() string { return "record" }

// Do implements Step. The save is not bound to ctx so that cancelled runs
// are still recorded and can be resumed.
func (s *RecordStep) Do(ctx context.Context, job *Job) error {
	if job.Run == nil {
		return nil
	}
	if err := s.store.SaveRun(context.WithoutCancel(ctx), job.Run); err != nil {
		return fmt.Errorf("save run: %w", err)
	}
	return nil
}
