package config

import (
	"path/filepath"
	"time"

	"github.com/adrg/xdg"
)

// Default configuration values.
const (
	// AppName is the application name used for XDG directory paths.
	AppName = "pagewalk"

	// DefaultConcurrency is the number of item pages fetched at once per
	// listing page.
	DefaultConcurrency = 4

	// DefaultMaxPages of 0 walks the chain until the oldest page.
	DefaultMaxPages = 0

	// DefaultMaxItems of 0 does not limit the items of a run.
	DefaultMaxItems = 0

	// DefaultBatchSize is the number of sources crawled at the same time
	// with --batch. Each source is still walked one page after another.
	DefaultBatchSize = 2

	// DefaultTimeout applies to every single HTTP request.
	DefaultTimeout = 30 * time.Second

	// DefaultCrawlDelay is the minimum gap between two requests to a site.
	DefaultCrawlDelay = 500 * time.Millisecond

	// DefaultUserAgent identifies pagewalk in HTTP requests.
	DefaultUserAgent = "pagewalk/1.0 (+https://github.com/nao1215/pagewalk)"

	// DefaultMaxBodySize limits how much of a response body is read.
	DefaultMaxBodySize = 5 * 1024 * 1024 // 5MB

	// DefaultRetries is the number of retries for transient HTTP failures.
	DefaultRetries = 2

	// DefaultSubmitTimeout bounds a single submission to the endpoint.
	DefaultSubmitTimeout = 15 * time.Second
)

// Report formats accepted by Format.
const (
	FormatText     = "text"
	FormatJSON     = "json"
	FormatMarkdown = "markdown"
)

// Config holds every option of a crawl. It is built from defaults, the
// .pagewalk file, the environment and CLI flags, in that order, and then
// passed down explicitly.
type Config struct {
	// Sources are source names or paths to YAML definitions.
	Sources []string

	// StartURL overrides the entry point of a single source.
	StartURL string

	// Resume continues the latest unfinished run of each source.
	Resume bool

	// Concurrency bounds in-flight item fetches per listing page.
	Concurrency int

	// MaxPages stops a run after this many listing pages. 0 means no limit.
	MaxPages int

	// MaxItems stops a run after this many items. 0 means no limit.
	MaxItems int

	// BatchSize is the number of sources crawled concurrently.
	BatchSize int

	// StrictSubmit ends a run on the first submission failure.
	StrictSubmit bool

	// Timeout is the per-request HTTP timeout.
	Timeout time.Duration

	// CrawlDelay is the politeness delay between requests.
	CrawlDelay time.Duration

	// Retries is the number of retries for 5xx and 429 responses.
	Retries int

	// UserAgent is sent with every request.
	UserAgent string

	// MaxBodySize is the maximum response body size in bytes.
	MaxBodySize int64

	// ProxyAddress is an optional SOCKS5 proxy in "host:port" form.
	ProxyAddress string

	// Cookie is sent with every request unless a site entry overrides it.
	Cookie string

	// Endpoint is the GraphQL endpoint items are submitted to.
	// Empty means items are not submitted anywhere remote.
	Endpoint string

	// APIKey is sent as the x-auth-token header.
	APIKey string

	// SubmitTimeout bounds one submission.
	SubmitTimeout time.Duration

	// DryRun prints items as JSON lines instead of submitting them.
	DryRun bool

	// DBDir is the directory of the SQLite database.
	DBDir string

	// SaveToDB stores items and run history in the database.
	SaveToDB bool

	// Format is the report format: text, json or markdown.
	Format string

	// ReportFile writes the report to a file instead of stdout.
	ReportFile string

	// Verbose enables debug logging.
	Verbose bool

	// LogJSON switches the log output to JSON.
	LogJSON bool

	// ConfigFilePath is the explicit path of the configuration file.
	ConfigFilePath string

	// SiteConfigs holds the loaded configuration file, if any.
	SiteConfigs *File
}

// NewConfig creates a Config with default values.
func NewConfig() *Config {
	return &Config{
		Concurrency:   DefaultConcurrency,
		MaxPages:      DefaultMaxPages,
		MaxItems:      DefaultMaxItems,
		BatchSize:     DefaultBatchSize,
		Timeout:       DefaultTimeout,
		CrawlDelay:    DefaultCrawlDelay,
		Retries:       DefaultRetries,
		UserAgent:     DefaultUserAgent,
		MaxBodySize:   DefaultMaxBodySize,
		SubmitTimeout: DefaultSubmitTimeout,
		DBDir:         XDGDataDir(),
		SaveToDB:      true,
		Format:        FormatText,
	}
}

// XDGDataDir returns the XDG data directory for pagewalk.
// On Linux: ~/.local/share/pagewalk
func XDGDataDir() string {
	return filepath.Join(xdg.DataHome, AppName)
}

// XDGConfigDir returns the XDG config directory for pagewalk.
// On Linux: ~/.config/pagewalk
func XDGConfigDir() string {
	return filepath.Join(xdg.ConfigHome, AppName)
}

// SourcesDir returns the directory scanned for user source definitions.
func SourcesDir() string {
	return filepath.Join(XDGConfigDir(), "sources")
}

// Site returns the effective site configuration for the named source.
// Without a configuration file it is the zero SiteConfig.
func (c *Config) Site(name string) SiteConfig {
	if c.SiteConfigs == nil {
		return SiteConfig{}
	}
	return c.SiteConfigs.GetSiteConfig(name)
}

// HasSink reports whether crawled items go anywhere.
func (c *Config) HasSink() bool {
	return c.DryRun || c.Endpoint != "" || c.SaveToDB
}

// Validate checks the configuration and returns the first problem found.
func (c *Config) Validate() error {
	if len(c.Sources) == 0 {
		return ErrNoSource
	}
	if c.StartURL != "" && len(c.Sources) > 1 {
		return ErrStartWithMultipleSources
	}
	if c.StartURL != "" && c.Resume {
		return ErrConflictingStart
	}
	if c.Concurrency <= 0 {
		return ErrInvalidConcurrency
	}
	if c.MaxPages < 0 {
		return ErrInvalidMaxPages
	}
	if c.MaxItems < 0 {
		return ErrInvalidMaxItems
	}
	if c.BatchSize <= 0 {
		return ErrInvalidBatchSize
	}
	if c.Timeout <= 0 {
		return ErrInvalidTimeout
	}
	if c.CrawlDelay < 0 {
		return ErrInvalidCrawlDelay
	}
	if c.Retries < 0 {
		return ErrInvalidRetries
	}
	if c.MaxBodySize < 0 {
		return ErrInvalidMaxBodySize
	}
	switch c.Format {
	case FormatText, FormatJSON, FormatMarkdown:
	default:
		return ErrInvalidFormat
	}
	if !c.HasSink() {
		return ErrNoSink
	}
	if c.Resume && !c.SaveToDB {
		return ErrResumeWithoutStore
	}
	return nil
}
