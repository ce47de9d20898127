package pipeline

import (
	"context"
	"log/slog"

	"github.com/nao1215/pagewalk/internal/model"
)

// Job is one source to crawl together with everything the steps learn
// about it along the way.
type Job struct {
	// Source is the name of the source definition.
	Source string

	// StartURL is the first listing page. Empty means the source's entry
	// point. ResumeStep may replace it.
	StartURL string

	// Resume asks ResumeStep to continue the latest unfinished run.
	Resume bool

	// ResumedFrom is the ID of the run being continued, if any.
	ResumedFrom int64

	// Run is the summary produced by CrawlStep. It is partial when the run
	// stopped early.
	Run *model.RunSummary

	// Err is the fatal error that stopped the job, if any.
	Err error

	// Steps lists the steps that completed.
	Steps []string
}

// NewJob creates a job for the named source.
func NewJob(source string) *Job {
	return &Job{Source: source, Steps: make([]string, 0)}
}

// Step is one stage of a job.
type Step interface {
	// Do executes the step. A returned error is fatal for the job.
	Do(ctx context.Context, job *Job) error

	// Name returns the step's name for logging purposes.
	Name() string
}

// Pipeline executes its steps in order for one job.
type Pipeline struct {
	steps []Step

	// final steps run after steps, even when one failed or ctx is done.
	final []Step

	logger *slog.Logger

	// continueOnError keeps executing steps after one fails.
	continueOnError bool
}

// Option is a function that configures a Pipeline.
type Option func(*Pipeline)

// WithLogger sets a custom logger for the pipeline.
func WithLogger(logger *slog.Logger) Option {
	return func(p *Pipeline) {
		p.logger = logger
	}
}

// WithContinueOnError configures the pipeline to run the remaining steps
// after a failure. The first error is still recorded in the job.
func WithContinueOnError(continueOnError bool) Option {
	return func(p *Pipeline) {
		p.continueOnError = continueOnError
	}
}

// New creates a new Pipeline with the given options.
func New(opts ...Option) *Pipeline {
	p := &Pipeline{steps: make([]Step, 0)}
	for _, opt := range opts {
		opt(p)
	}
	if p.logger == nil {
		p.logger = slog.Default()
	}
	return p
}

// AddStep appends a step to the pipeline.
func (p *Pipeline) AddStep(step Step) {
	p.steps = append(p.steps, step)
}

// AddSteps appends multiple steps to the pipeline.
func (p *Pipeline) AddSteps(steps ...Step) {
	p.steps = append(p.steps, steps...)
}

// AddFinalStep appends a step that runs after all other steps regardless
// of their outcome, like a deferred call.
func (p *Pipeline) AddFinalStep(step Step) {
	p.final = append(p.final, step)
}

// Execute runs all steps in sequence followed by the final steps.
// Cancellation is checked between steps; steps handle it themselves while
// running. The returned error is the first one recorded in the job.
func (p *Pipeline) Execute(ctx context.Context, job *Job) error {
	p.run(ctx, job)
	for _, step := range p.final {
		p.do(ctx, job, step)
	}
	return job.Err
}

func (p *Pipeline) run(ctx context.Context, job *Job) {
	for _, step := range p.steps {
		if err := ctx.Err(); err != nil {
			p.logger.Warn("pipeline cancelled",
				"step", step.Name(),
				"source", job.Source,
				"reason", err,
			)
			if job.Err == nil {
				job.Err = err
			}
			return
		}
		if !p.do(ctx, job, step) && !p.continueOnError {
			return
		}
	}
}

// do executes one step and records its outcome. It reports success.
func (p *Pipeline) do(ctx context.Context, job *Job, step Step) bool {
	p.logger.Debug("executing step",
		"step", step.Name(),
		"source", job.Source,
	)

	if err := step.Do(ctx, job); err != nil {
		p.logger.Error("step failed",
			"step", step.Name(),
			"source", job.Source,
			"error", err,
		)
		if job.Err == nil {
			job.Err = err
		}
		return false
	}

	job.Steps = append(job.Steps, step.Name())
	return true
}

// StepCount returns the number of steps in the pipeline, final steps included.
func (p *Pipeline) StepCount() int {
	return len(p.steps) + len(p.final)
}

// StepNames returns the names of all steps in execution order.
func (p *Pipeline) StepNames() []string {
	names := make([]string, 0, p.StepCount())
	for _, step := range p.steps {
		names = append(names, step.Name())
	}
	for _, step := range p.final {
		names = append(names, step.Name())
	}
	return names
}
