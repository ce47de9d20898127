package config

import "errors"

// Configuration validation errors returned by Config.Validate.
var (
	// ErrNoSource is returned when no source name or definition file is given.
	ErrNoSource = errors.New("no source specified: provide a source name or a definition file")

	// ErrStartWithMultipleSources is returned when --start is combined with
	// more than one source.
	ErrStartWithMultipleSources = errors.New("--start can only be used with a single source")

	// ErrConflictingStart is returned when both --start and --resume are set.
	ErrConflictingStart = errors.New("conflicting start options: --start and --resume cannot be used together")

	// ErrInvalidConcurrency is returned when the item fan-out is not positive.
	ErrInvalidConcurrency = errors.New("invalid concurrency: must be positive")

	// ErrInvalidMaxPages is returned when the page limit is negative.
	ErrInvalidMaxPages = errors.New("invalid max pages: must be non-negative")

	// ErrInvalidMaxItems is returned when the item limit is negative.
	ErrInvalidMaxItems = errors.New("invalid max items: must be non-negative")

	// ErrInvalidBatchSize is returned when the batch size is not positive.
	ErrInvalidBatchSize = errors.New("invalid batch size: must be positive")

	// ErrInvalidTimeout is returned when the timeout is not positive.
	ErrInvalidTimeout = errors.New("invalid timeout: must be positive")

	// ErrInvalidCrawlDelay is returned when the crawl delay is negative.
	ErrInvalidCrawlDelay = errors.New("invalid crawl delay: must be non-negative")

	// ErrInvalidRetries is returned when the retry count is negative.
	ErrInvalidRetries = errors.New("invalid retries: must be non-negative")

	// ErrInvalidMaxBodySize is returned when the max body size is negative.
	ErrInvalidMaxBodySize = errors.New("invalid max body size: must be non-negative")

	// ErrInvalidFormat is returned for an unknown report format.
	ErrInvalidFormat = errors.New("invalid report format: must be text, json or markdown")

	// ErrNoSink is returned when items would be neither submitted, stored nor printed.
	ErrNoSink = errors.New("no sink: set an endpoint, keep the database enabled or use --dry-run")

	// ErrResumeWithoutStore is returned when --resume is used with --no-store.
	ErrResumeWithoutStore = errors.New("--resume needs the run history: remove --no-store")
)
