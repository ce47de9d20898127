package crawler

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/url"
	"path/filepath"
	"strings"
	"sync"

	"golang.org/x/sync/errgroup"

	"github.com/nao1215/pagewalk/internal/extract"
	"github.com/nao1215/pagewalk/internal/model"
	"github.com/nao1215/pagewalk/internal/schema"
)

// DefaultConcurrency is the number of item detail pages fetched at once.
const DefaultConcurrency = 4

// Submitter accepts completed items.
type Submitter interface {
	Submit(ctx context.Context, item *model.Item) error
}

// Progress is reported after every listing page.
type Progress struct {
	// Page is the listing page just processed.
	Page string

	// Pages, Items, Submitted and Failed are running totals.
	Pages     int
	Items     int
	Submitted int
	Failed    int
}

// Crawler walks a source's listing pages backward through its
// previous-page links, scraping and submitting every item on the way.
//
// Listing pages are processed strictly one after another; only the item
// detail fetches of a single page run concurrently.
type Crawler struct {
	source    *schema.Source
	site      *model.Site
	fetcher   Fetcher
	submitter Submitter

	// concurrency bounds in-flight item detail fetches per page.
	concurrency int

	// maxPages stops the walk after this many pages. Zero means no limit.
	maxPages int

	// maxItems caps the items scheduled in one run. Zero means no limit.
	maxItems int

	// strictSubmit makes a submission failure end the run.
	strictSubmit bool

	// ignorePatterns are item URL path patterns that are skipped.
	ignorePatterns []string

	logger   *slog.Logger
	progress func(Progress)
}

// Option configures a Crawler.
type Option func(*Crawler)

// WithConcurrency sets the item fan-out limit. Non-positive values are ignored.
func WithConcurrency(n int) Option {
	return func(c *Crawler) {
		if n > 0 {
			c.concurrency = n
		}
	}
}

// WithMaxPages stops the walk after n pages. Zero means no limit.
func WithMaxPages(n int) Option {
	return func(c *Crawler) {
		if n >= 0 {
			c.maxPages = n
		}
	}
}

// WithMaxItems stops the walk once n items have been scheduled. Items of
// the page that reaches the limit beyond it are skipped. Zero means no limit.
func WithMaxItems(n int) Option {
	return func(c *Crawler) {
		if n >= 0 {
			c.maxItems = n
		}
	}
}

// WithStrictSubmit makes any submission failure fatal for the run.
// By default failed submissions are recorded and the run continues.
func WithStrictSubmit(strict bool) Option {
	return func(c *Crawler) {
		c.strictSubmit = strict
	}
}

// WithIgnorePatterns skips items whose URL path matches any glob pattern
// (e.g. "/premium/*", "*.php").
func WithIgnorePatterns(patterns []string) Option {
	return func(c *Crawler) {
		c.ignorePatterns = patterns
	}
}

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) Option {
	return func(c *Crawler) {
		c.logger = logger
	}
}

// WithProgress registers a callback invoked after each listing page.
// It runs on the goroutine that called Run.
func WithProgress(fn func(Progress)) Option {
	return func(c *Crawler) {
		c.progress = fn
	}
}

// New creates a Crawler for source. A nil submitter drops completed items.
func New(source *schema.Source, fetcher Fetcher, submitter Submitter, opts ...Option) *Crawler {
	c := &Crawler{
		source:      source,
		site:        source.Site(),
		fetcher:     fetcher,
		submitter:   submitter,
		concurrency: DefaultConcurrency,
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.logger == nil {
		c.logger = slog.Default()
	}
	c.logger = c.logger.With("source", source.Name)
	return c
}

// Run walks the chain starting at startURL, or at the source's entry point
// when startURL is empty.
//
// The returned summary is never nil once the start address is known. It is
// complete on success and partial on failure. Run returns nil when the
// oldest page has been processed or the page limit was reached; any other
// outcome returns the fatal error, which is also recorded in the summary.
//
// A truncated summary's LastPage is where a later run should resume: the
// next older page, or the page itself when the item limit cut it short.
func (c *Crawler) Run(ctx context.Context, startURL string) (*model.RunSummary, error) {
	if startURL == "" {
		startURL = c.source.EntryPoint
	}
	if startURL == "" {
		return nil, ErrNoStartURL
	}

	summary := model.NewRunSummary(c.source.Name, startURL)
	visited := make(map[string]bool)
	page := startURL

	c.logger.Info("run started", "start", startURL, "concurrency", c.concurrency)

	for {
		if err := ctx.Err(); err != nil {
			return c.finish(summary, err)
		}

		key := normalizeURL(page)
		if visited[key] {
			return c.finish(summary, &PageError{Page: page, Err: ErrPaginationCycle})
		}
		visited[key] = true
		summary.LastPage = page

		res, err := c.processPage(ctx, page, summary)
		if err != nil {
			return c.finish(summary, err)
		}
		summary.Pages++

		c.logger.Info("page processed",
			"page", page,
			"pages", summary.Pages,
			"items", summary.Items,
			"submitted", summary.Submitted,
			"failed", summary.Failed(),
		)
		if c.progress != nil {
			c.progress(Progress{
				Page:      page,
				Pages:     summary.Pages,
				Items:     summary.Items,
				Submitted: summary.Submitted,
				Failed:    summary.Failed(),
			})
		}

		if res.cut {
			c.logger.Info("item limit reached", "limit", c.maxItems, "page", page)
			summary.Finish(model.RunStatusTruncated, nil)
			return summary, nil
		}
		if !res.found {
			c.logger.Info("oldest page reached", "page", page)
			summary.Finish(model.RunStatusCompleted, nil)
			return summary, nil
		}
		if c.maxItems > 0 && summary.Items >= c.maxItems {
			c.logger.Info("item limit reached", "limit", c.maxItems, "next", res.next)
			summary.LastPage = res.next
			summary.Finish(model.RunStatusTruncated, nil)
			return summary, nil
		}
		if c.maxPages > 0 && summary.Pages >= c.maxPages {
			c.logger.Info("page limit reached", "limit", c.maxPages, "next", res.next)
			summary.LastPage = res.next
			summary.Finish(model.RunStatusTruncated, nil)
			return summary, nil
		}
		page = res.next
	}
}

// finish records a fatal error and the matching terminal status.
func (c *Crawler) finish(summary *model.RunSummary, err error) (*model.RunSummary, error) {
	status := model.RunStatusFailed
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		status = model.RunStatusCancelled
	}
	summary.Finish(status, err)
	c.logger.Error("run stopped", "status", status, "page", summary.LastPage, "error", err)
	return summary, err
}

// pageResult is the outcome of one listing page.
type pageResult struct {
	// next is the previous-page link, valid when found is true.
	next  string
	found bool

	// cut is set when the item limit skipped items of this page.
	cut bool
}

// processPage handles one listing page and returns its previous-page link.
func (c *Crawler) processPage(ctx context.Context, page string, summary *model.RunSummary) (pageResult, error) {
	raw, err := c.fetcher.Fetch(ctx, page)
	if err != nil {
		return pageResult{}, &PageError{Page: page, Err: err}
	}

	ex, err := extract.ParseString(c.source, raw)
	if err != nil {
		return pageResult{}, &PageError{Page: page, Err: err}
	}

	links, err := ex.ItemLinks()
	if err != nil {
		return pageResult{}, &PageError{Page: page, Err: err}
	}
	thumbs, err := ex.ItemThumbnails()
	if err != nil {
		return pageResult{}, &PageError{Page: page, Err: err}
	}
	if len(links) != len(thumbs) {
		return pageResult{}, &PageError{
			Page: page,
			Err:  fmt.Errorf("%w: %d links, %d thumbnails", ErrLengthMismatch, len(links), len(thumbs)),
		}
	}

	items := make([]*model.Item, 0, len(links))
	for i, link := range links {
		if c.ignored(link) {
			c.logger.Debug("item ignored", "url", link)
			continue
		}
		items = append(items, &model.Item{
			Site:         c.site,
			URL:          link,
			ThumbnailURL: thumbs[i],
		})
	}

	var res pageResult
	if c.maxItems > 0 {
		if remaining := c.maxItems - summary.Items; len(items) > remaining {
			c.logger.Debug("items over limit skipped", "page", page, "skipped", len(items)-remaining)
			items = items[:remaining]
			res.cut = true
		}
	}
	summary.Items += len(items)

	if err := c.processItems(ctx, page, items, summary); err != nil {
		return pageResult{}, &PageError{Page: page, Err: err}
	}
	if res.cut {
		return res, nil
	}

	res.next, res.found, err = ex.PreviousPage()
	if err != nil {
		return pageResult{}, &PageError{Page: page, Err: err}
	}
	return res, nil
}

// processItems completes and submits items with bounded concurrency.
// Item failures are recorded in summary; only cancellation and, in strict
// mode, submission failures are returned.
func (c *Crawler) processItems(ctx context.Context, page string, items []*model.Item, summary *model.RunSummary) error {
	var mu sync.Mutex

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(c.concurrency)

	for _, item := range items {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}

			stage, err := c.processItem(gctx, item)

			mu.Lock()
			defer mu.Unlock()

			if err == nil {
				summary.Submitted++
				c.logger.Debug("item submitted", "url", item.URL, "title", item.Title)
				return nil
			}
			if ctxErr := gctx.Err(); ctxErr != nil {
				return ctxErr
			}
			if stage == model.StageSubmit && c.strictSubmit {
				return err
			}

			summary.Failures = append(summary.Failures, model.ItemFailure{
				Page:  page,
				URL:   item.URL,
				Stage: stage,
				Error: err.Error(),
			})
			c.logger.Warn("item skipped", "url", item.URL, "stage", stage, "error", err)
			return nil
		})
	}

	return g.Wait()
}

// processItem fetches the detail page of item, fills in its fields and
// submits it. The returned stage tells where a failure happened.
func (c *Crawler) processItem(ctx context.Context, item *model.Item) (model.Stage, error) {
	raw, err := c.fetcher.Fetch(ctx, item.URL)
	if err != nil {
		return model.StageFetch, err
	}

	ex, err := extract.ParseString(c.source, raw)
	if err != nil {
		return model.StageExtract, err
	}
	if item.Title, err = ex.Title(); err != nil {
		return model.StageExtract, err
	}
	if item.Duration, err = ex.Duration(); err != nil {
		return model.StageExtract, err
	}
	if item.Tags, err = ex.Tags(); err != nil {
		return model.StageExtract, err
	}

	if c.submitter == nil {
		return "", nil
	}
	if err := c.submitter.Submit(ctx, item); err != nil {
		return model.StageSubmit, err
	}
	return "", nil
}

// ignored reports whether link matches an ignore pattern.
func (c *Crawler) ignored(link string) bool {
	if len(c.ignorePatterns) == 0 {
		return false
	}
	u, err := url.Parse(link)
	if err != nil {
		return false
	}
	path := u.Path
	if path == "" {
		path = "/"
	}
	for _, pattern := range c.ignorePatterns {
		if matchPattern(pattern, path) {
			return true
		}
	}
	return false
}

// normalizeURL canonicalizes a page address for cycle detection.
// The fragment is dropped, scheme and host are lowercased and an empty path
// becomes "/".
func normalizeURL(pageURL string) string {
	u, err := url.Parse(pageURL)
	if err != nil {
		return pageURL
	}
	u.Fragment = ""
	u.Scheme = strings.ToLower(u.Scheme)
	u.Host = strings.ToLower(u.Host)
	if u.Path == "" {
		u.Path = "/"
	}
	return u.String()
}

// matchPattern checks if a path matches a glob pattern.
//
//   - "/premium/*" matches "/premium/x" and "/premium"
//   - "*.php" matches "/watch/video.php"
//   - "/v?/x" matches "/v1/x"
func matchPattern(pattern, path string) bool {
	if prefix, ok := strings.CutSuffix(pattern, "/*"); ok {
		if strings.HasPrefix(path, prefix+"/") || path == prefix {
			return true
		}
	}
	if ext, ok := strings.CutPrefix(pattern, "*"); ok && strings.HasPrefix(ext, ".") {
		if strings.HasSuffix(path, ext) {
			return true
		}
	}
	if matched, err := filepath.Match(pattern, path); err == nil && matched {
		return true
	}
	if strings.Contains(pattern, "*") && !strings.Contains(pattern, "/") {
		if matched, err := filepath.Match(pattern, filepath.Base(path)); err == nil && matched {
			return true
		}
	}
	return false
}
