package pipeline

import (
	"context"
	"log/slog"
	"time"

	"golang.org/x/sync/errgroup"
)

// DefaultBatchConcurrency is the number of jobs run at once.
const DefaultBatchConcurrency = 2

// BatchProcessor runs several jobs concurrently, one pipeline per job.
// Each job's own chain is still walked sequentially by its crawler.
type BatchProcessor struct {
	// pipelineFactory creates a fresh pipeline for each job.
	pipelineFactory func() *Pipeline

	// concurrency is the maximum number of concurrent jobs.
	concurrency int

	logger *slog.Logger
}

// BatchOption configures a BatchProcessor.
type BatchOption func(*BatchProcessor)

// WithBatchLogger sets a custom logger for batch processing.
func WithBatchLogger(logger *slog.Logger) BatchOption {
	return func(b *BatchProcessor) {
		b.logger = logger
	}
}

// WithConcurrency sets the maximum number of concurrent jobs.
func WithConcurrency(n int) BatchOption {
	return func(b *BatchProcessor) {
		if n > 0 {
			b.concurrency = n
		}
	}
}

// NewBatchProcessor creates a new BatchProcessor.
func NewBatchProcessor(pipelineFactory func() *Pipeline, opts ...BatchOption) *BatchProcessor {
	bp := &BatchProcessor{
		pipelineFactory: pipelineFactory,
		concurrency:     DefaultBatchConcurrency,
	}
	for _, opt := range opts {
		opt(bp)
	}
	if bp.logger == nil {
		bp.logger = slog.Default()
	}
	return bp
}

// ProcessBatch executes every job and returns them in input order.
// A failed job does not stop the others; its error stays in Job.Err.
// The returned error is non-nil only when ctx was cancelled.
func (bp *BatchProcessor) ProcessBatch(ctx context.Context, jobs []*Job) ([]*Job, error) {
	err := bp.ProcessBatchWithCallback(ctx, jobs, nil)
	return jobs, err
}

// ProcessBatchWithCallback executes every job and calls callback with
// each finished job and its index. The callback is called from the job's
// goroutine and must be safe for concurrent use.
func (bp *BatchProcessor) ProcessBatchWithCallback(
	ctx context.Context,
	jobs []*Job,
	callback func(job *Job, index int),
) error {
	bp.logger.Info("starting batch processing",
		"total_sources", len(jobs),
		"concurrency", bp.concurrency,
	)
	startTime := time.Now()

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(bp.concurrency)

	for i, job := range jobs {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				job.Err = err
				return err
			}

			bp.logger.Info("crawling source",
				"source", job.Source,
				"index", i+1,
				"total", len(jobs),
			)

			// Job errors are recorded in the job and do not cancel siblings.
			if err := bp.pipelineFactory().Execute(gctx, job); err != nil {
				bp.logger.Warn("source failed", "source", job.Source, "error", err)
			} else {
				bp.logger.Info("source completed", "source", job.Source)
			}

			if callback != nil {
				callback(job, i)
			}
			return nil
		})
	}

	err := g.Wait()
	bp.logger.Info("batch processing complete",
		"total_sources", len(jobs),
		"elapsed", time.Since(startTime),
	)
	if err == nil {
		err = ctx.Err()
	}
	return err
}
