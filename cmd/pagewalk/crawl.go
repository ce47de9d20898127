package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"sync"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/nao1215/pagewalk/internal/config"
	"github.com/nao1215/pagewalk/internal/crawler"
	"github.com/nao1215/pagewalk/internal/database"
	"github.com/nao1215/pagewalk/internal/pipeline"
	"github.com/nao1215/pagewalk/internal/report"
	"github.com/nao1215/pagewalk/internal/schema"
	"github.com/nao1215/pagewalk/internal/sink"
)

// NewCrawlCmd creates the crawl command.
func NewCrawlCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "crawl <source|definition.yaml>...",
		Short: "Walk a source's listing pages and submit every item",
		Long: `Crawl starts at a source's entry point (or --start) and follows the
"previous page" link of every listing page until the oldest page is reached.
Each item on a page is fetched concurrently, its fields are extracted and the
record is handed to the sinks:

- the GraphQL endpoint (--endpoint or PAGEWALK_ENDPOINT, token from
  --token or PAGEWALK_API_KEY)
- the local SQLite database (disable with --no-store)
- standard output as JSON lines (--dry-run, replaces the endpoint)

Items that cannot be fetched, extracted or submitted are skipped and listed
in the run report. A listing page that fails stops the run; resume it later
with --resume.

Examples:
  # Crawl a builtin source into the local database
  pagewalk crawl youjizz

  # Print items instead of submitting them, first two pages only
  pagewalk crawl --dry-run --max-pages 2 youjizz

  # Stop after the first 100 items
  pagewalk crawl --max-items 100 youjizz

  # Continue the last unfinished run
  pagewalk crawl --resume youjizz

  # Crawl a custom definition from a given page
  pagewalk crawl --start https://example.com/latest/40.html ./mysite.yaml

  # Crawl two sources at the same time and write a Markdown report
  pagewalk crawl --batch 2 -f markdown -o report.md youjizz ./mysite.yaml

Configuration file (.pagewalk) example:
  defaults:
    cookie: "age_verified=1"
  sites:
    youjizz:
      maxPages: 20
      ignorePatterns:
        - "/videos/vr-*"`,
		Args: cobra.ArbitraryArgs,
		RunE: runCrawlCmd,
	}

	// Walk flags
	cmd.Flags().StringP("start", "s", "", "Start at this listing page instead of the entry point")
	cmd.Flags().BoolP("resume", "r", false, "Continue the latest unfinished run of each source")
	cmd.Flags().IntP("max-pages", "p", config.DefaultMaxPages, "Stop after this many listing pages (0 = no limit)")
	cmd.Flags().Int("max-items", config.DefaultMaxItems, "Stop after this many items (0 = no limit)")
	cmd.Flags().IntP("concurrency", "n", config.DefaultConcurrency, "Item pages fetched at once")
	cmd.Flags().IntP("batch", "b", config.DefaultBatchSize, "Sources crawled at once")
	cmd.Flags().Bool("strict", false, "Stop the run on the first submission failure")

	// HTTP flags
	cmd.Flags().DurationP("timeout", "t", config.DefaultTimeout, "Timeout for each request")
	cmd.Flags().DurationP("delay", "d", config.DefaultCrawlDelay, "Minimum delay between requests")
	cmd.Flags().Int("retries", config.DefaultRetries, "Retries for 5xx and 429 responses")
	cmd.Flags().String("user-agent", config.DefaultUserAgent, "User-Agent header")
	cmd.Flags().Int64("max-body", config.DefaultMaxBodySize, "Maximum response body size in bytes")
	cmd.Flags().String("proxy", "", "SOCKS5 proxy address (host:port)")
	cmd.Flags().String("cookie", "", "Cookie header sent with every request")

	// Sink flags
	cmd.Flags().StringP("endpoint", "e", "", "GraphQL endpoint items are submitted to")
	cmd.Flags().String("token", "", "API token sent as "+sink.TokenHeader+" (prefer PAGEWALK_API_KEY)")
	cmd.Flags().Duration("submit-timeout", config.DefaultSubmitTimeout, "Timeout for each submission")
	cmd.Flags().Bool("dry-run", false, "Print items as JSON lines instead of submitting them")
	cmd.Flags().Bool("no-store", false, "Do not store items and runs in the local database")
	cmd.Flags().String("db-dir", "", "Database directory (default: XDG data directory)")

	// Report flags
	cmd.Flags().StringP("format", "f", config.FormatText, "Report format: text, json or markdown")
	cmd.Flags().StringP("output", "o", "", "Write the report to this file (creates directories if needed)")

	return cmd
}

// runCrawlCmd executes the crawl command.
func runCrawlCmd(cmd *cobra.Command, args []string) error {
	cfg, err := buildCrawlConfig(cmd, args)
	if err != nil {
		return err
	}
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("configuration error: %w", err)
	}

	logger := setupLogger(cmd)

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	return runCrawl(ctx, cmd, cfg, logger)
}

// buildCrawlConfig layers the crawl flags over the loaded settings.
// Flags the user did not set leave the environment and per-site values
// in place.
func buildCrawlConfig(cmd *cobra.Command, args []string) (*config.Config, error) {
	cfg, err := loadSettings(cmd)
	if err != nil {
		return nil, err
	}
	cfg.Sources = args

	flags := cmd.Flags()
	if cfg.StartURL, err = flags.GetString("start"); err != nil {
		return nil, err
	}
	if cfg.Resume, err = flags.GetBool("resume"); err != nil {
		return nil, err
	}
	if cfg.MaxPages, err = flags.GetInt("max-pages"); err != nil {
		return nil, err
	}
	if cfg.MaxItems, err = flags.GetInt("max-items"); err != nil {
		return nil, err
	}
	if cfg.Concurrency, err = flags.GetInt("concurrency"); err != nil {
		return nil, err
	}
	if cfg.BatchSize, err = flags.GetInt("batch"); err != nil {
		return nil, err
	}
	if cfg.StrictSubmit, err = flags.GetBool("strict"); err != nil {
		return nil, err
	}
	if cfg.Timeout, err = flags.GetDuration("timeout"); err != nil {
		return nil, err
	}
	if cfg.CrawlDelay, err = flags.GetDuration("delay"); err != nil {
		return nil, err
	}
	if cfg.Retries, err = flags.GetInt("retries"); err != nil {
		return nil, err
	}
	if cfg.UserAgent, err = flags.GetString("user-agent"); err != nil {
		return nil, err
	}
	if cfg.MaxBodySize, err = flags.GetInt64("max-body"); err != nil {
		return nil, err
	}
	if cfg.ProxyAddress, err = flags.GetString("proxy"); err != nil {
		return nil, err
	}
	if cfg.Cookie, err = flags.GetString("cookie"); err != nil {
		return nil, err
	}
	if cfg.Endpoint, err = flags.GetString("endpoint"); err != nil {
		return nil, err
	}
	if cfg.APIKey, err = flags.GetString("token"); err != nil {
		return nil, err
	}
	if cfg.SubmitTimeout, err = flags.GetDuration("submit-timeout"); err != nil {
		return nil, err
	}
	if cfg.DryRun, err = flags.GetBool("dry-run"); err != nil {
		return nil, err
	}
	noStore, err := flags.GetBool("no-store")
	if err != nil {
		return nil, err
	}
	cfg.SaveToDB = !noStore

	dbDir, err := flags.GetString("db-dir")
	if err != nil {
		return nil, err
	}
	if dbDir != "" {
		cfg.DBDir = dbDir
	}
	if cfg.Format, err = flags.GetString("format"); err != nil {
		return nil, err
	}
	if cfg.ReportFile, err = flags.GetString("output"); err != nil {
		return nil, err
	}
	if cfg.Verbose, err = flags.GetBool("verbose"); err != nil {
		return nil, err
	}
	if cfg.LogJSON, err = flags.GetBool("log-json"); err != nil {
		return nil, err
	}

	cfg.ApplyEnv()
	return cfg, nil
}

// crawlRun holds what every job of one crawl invocation shares.
type crawlRun struct {
	cfg       *config.Config
	cmd       *cobra.Command
	logger    *slog.Logger
	sources   map[string]*schema.Source
	submitter crawler.Submitter
	db        *database.Store
}

// runCrawl resolves the sources, opens the sinks and walks every source.
func runCrawl(ctx context.Context, cmd *cobra.Command, cfg *config.Config, logger *slog.Logger) error {
	catalog, err := loadCatalog(cfg)
	if err != nil {
		return err
	}

	r := &crawlRun{
		cfg:     cfg,
		cmd:     cmd,
		logger:  logger,
		sources: make(map[string]*schema.Source, len(cfg.Sources)),
	}

	jobs := make([]*pipeline.Job, 0, len(cfg.Sources))
	for _, arg := range cfg.Sources {
		src, err := resolveSource(catalog, arg)
		if err != nil {
			return err
		}
		if _, dup := r.sources[src.Name]; dup {
			return fmt.Errorf("source %q given twice", src.Name)
		}
		r.sources[src.Name] = src

		job := pipeline.NewJob(src.Name)
		job.Resume = cfg.Resume
		job.StartURL = cfg.StartURL
		if job.StartURL == "" && !cfg.Resume {
			job.StartURL = cfg.Site(src.Name).Start
		}
		jobs = append(jobs, job)
	}

	if cfg.ProxyAddress != "" {
		if err := crawler.CheckProxy(ctx, cfg.ProxyAddress); err != nil {
			return fmt.Errorf("proxy check failed: %w", err)
		}
		logger.Info("proxy connection verified", "address", cfg.ProxyAddress)
	}

	if cfg.SaveToDB {
		r.db, err = database.Open(cfg.DBDir, database.DefaultOptions())
		if err != nil {
			return fmt.Errorf("failed to open database: %w", err)
		}
		defer r.db.Close()
		logger.Info("database opened", "path", r.db.Path())
	}

	r.submitter, err = r.buildSubmitter()
	if err != nil {
		return err
	}

	out, closeOut, err := r.reportOutput()
	if err != nil {
		return err
	}
	defer closeOut()
	writer := newReportWriter(cfg.Format, out)

	bp := pipeline.NewBatchProcessor(r.newPipeline,
		pipeline.WithConcurrency(cfg.BatchSize),
		pipeline.WithBatchLogger(logger),
	)

	var mu sync.Mutex
	batchErr := bp.ProcessBatchWithCallback(ctx, jobs, func(job *pipeline.Job, _ int) {
		mu.Lock()
		defer mu.Unlock()

		if job.Run == nil {
			return
		}
		if _, err := writer.Write(job.Run); err != nil {
			logger.Error("report failed", "source", job.Source, "error", err)
		}
	})

	return jobErrors(jobs, batchErr)
}

// buildSubmitter combines the configured sinks. A dry run replaces the
// remote endpoint and the item store.
func (r *crawlRun) buildSubmitter() (crawler.Submitter, error) {
	if r.cfg.DryRun {
		return sink.NewJSONLines(r.cmd.OutOrStdout()), nil
	}

	var sinks sink.Multi
	if r.cfg.Endpoint != "" {
		g, err := sink.NewGraphQL(r.cfg.Endpoint,
			sink.WithToken(r.cfg.APIKey),
			sink.WithSubmitTimeout(r.cfg.SubmitTimeout),
			sink.WithSubmitLogger(r.logger),
		)
		if err != nil {
			return nil, err
		}
		r.logger.Info("submitting items", "endpoint", g.Endpoint())
		sinks = append(sinks, g)
	}
	// Stored items are the ones the endpoint accepted.
	if r.db != nil {
		sinks = append(sinks, sink.NewStore(r.db))
	}
	return sinks, nil
}

// newPipeline builds the pipeline for one job.
func (r *crawlRun) newPipeline() *pipeline.Pipeline {
	p := pipeline.New(pipeline.WithLogger(r.logger))
	if r.db != nil {
		p.AddStep(pipeline.NewResumeStep(r.db, r.logger))
	}
	p.AddStep(pipeline.NewCrawlStep(r.newRunner))
	if r.db != nil {
		p.AddFinalStep(pipeline.NewRecordStep(r.db))
	}
	return p
}

// newRunner builds the crawler of a job from its source and site settings.
func (r *crawlRun) newRunner(job *pipeline.Job) (pipeline.Runner, error) {
	src, ok := r.sources[job.Source]
	if !ok {
		return nil, fmt.Errorf("%w: %s", schema.ErrSourceNotFound, job.Source)
	}
	site := r.cfg.Site(src.Name)

	cookie := r.cfg.Cookie
	if cookie == "" {
		cookie = site.Cookie
	}
	fetcher, err := crawler.NewHTTPFetcher(
		crawler.WithTimeout(r.cfg.Timeout),
		crawler.WithUserAgent(r.cfg.UserAgent),
		crawler.WithCookie(cookie),
		crawler.WithHeaders(site.Headers),
		crawler.WithProxy(r.cfg.ProxyAddress),
		crawler.WithDelay(r.cfg.CrawlDelay),
		crawler.WithRetries(r.cfg.Retries, crawler.DefaultRetryWait),
		crawler.WithMaxBodySize(r.cfg.MaxBodySize),
		crawler.WithFetcherLogger(r.logger),
	)
	if err != nil {
		return nil, err
	}

	// Flags win over the configuration file when they were set explicitly.
	concurrency := r.cfg.Concurrency
	if site.Concurrency > 0 && !r.cmd.Flags().Changed("concurrency") {
		concurrency = site.Concurrency
	}
	maxPages := r.cfg.MaxPages
	if site.MaxPages > 0 && !r.cmd.Flags().Changed("max-pages") {
		maxPages = site.MaxPages
	}
	maxItems := r.cfg.MaxItems
	if site.MaxItems > 0 && !r.cmd.Flags().Changed("max-items") {
		maxItems = site.MaxItems
	}

	progress := r.cmd.ErrOrStderr()
	return crawler.New(src, fetcher, r.submitter,
		crawler.WithConcurrency(concurrency),
		crawler.WithMaxPages(maxPages),
		crawler.WithMaxItems(maxItems),
		crawler.WithStrictSubmit(r.cfg.StrictSubmit),
		crawler.WithIgnorePatterns(site.IgnorePatterns),
		crawler.WithLogger(r.logger),
		crawler.WithProgress(func(p crawler.Progress) {
			fmt.Fprintf(progress, "[%s] page %d: %d items, %d submitted, %d failed\n",
				src.Name, p.Pages, p.Items, p.Submitted, p.Failed)
		}),
	), nil
}

// reportOutput opens the report destination. With --dry-run the items
// own stdout, so the report goes to stderr.
func (r *crawlRun) reportOutput() (io.Writer, func(), error) {
	if r.cfg.ReportFile == "" {
		if r.cfg.DryRun {
			return r.cmd.ErrOrStderr(), func() {}, nil
		}
		return r.cmd.OutOrStdout(), func() {}, nil
	}
	f, err := createReportFile(r.cfg.ReportFile)
	if err != nil {
		return nil, nil, err
	}
	return f, func() { _ = f.Close() }, nil //nolint:errcheck // best effort close of the report file
}

// createReportFile creates path and its directories. Reports may contain
// cookies in failure messages, so the file is private to the owner.
func createReportFile(path string) (*os.File, error) {
	dir := filepath.Dir(path)
	if dir != "" && dir != "." {
		if err := os.MkdirAll(dir, 0750); err != nil {
			return nil, fmt.Errorf("failed to create output directory: %w", err)
		}
	}
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0600) //nolint:gosec // user-provided report path is intentional
	if err != nil {
		return nil, fmt.Errorf("failed to create output file: %w", err)
	}
	return f, nil
}

// newReportWriter returns the writer for format.
func newReportWriter(format string, out io.Writer) report.Writer {
	switch format {
	case config.FormatJSON:
		return report.NewJSONWriter(out, report.WithPrettyPrint(), report.WithVersion(getVersion()))
	case config.FormatMarkdown:
		return report.NewMarkdownWriter(out)
	default:
		return report.NewSimpleWriter(out, report.WithVerbose(true))
	}
}

// jobErrors joins the fatal errors of all jobs, prefixed by source.
func jobErrors(jobs []*pipeline.Job, batchErr error) error {
	errs := make([]error, 0, len(jobs)+1)
	for _, job := range jobs {
		if job.Err != nil && !errors.Is(job.Err, batchErr) {
			errs = append(errs, fmt.Errorf("%s: %w", job.Source, job.Err))
		}
	}
	if batchErr != nil {
		errs = append(errs, batchErr)
	}
	return errors.Join(errs...)
}
