// Package crawler walks a source's paginated listing backward and turns
// every item it finds into a submitted record.
//
// # Architecture
//
// A Crawler starts at a listing page (usually the source's entry point),
// extracts the item links and thumbnails, completes each item from its
// detail page and hands it to a Submitter. It then follows the page's
// previous-page link and repeats until the oldest page has no such link.
//
//	FetchPage -> ExtractPageFields -> FetchItemDetails -> Submit -> DetermineNextPage
//
// Listing pages are strictly sequential. Item detail fetches of one page run
// concurrently with a bounded fan-out (WithConcurrency).
//
// # Failures
//
// A failure on a listing page ends the run with a *PageError. A failure on a
// single item is recorded in the run summary and the run continues, unless
// WithStrictSubmit is set and the failure happened while submitting.
// Pagination that revisits a page ends the run with ErrPaginationCycle.
//
// # Fetching
//
// HTTPFetcher is a resty-based Fetcher with retries, a politeness delay,
// charset decoding and an optional SOCKS5 proxy. FileFetcher reads saved
// pages from disk.
//
// # Usage
//
//	fetcher, err := crawler.NewHTTPFetcher(crawler.WithDelay(time.Second))
//	c := crawler.New(source, fetcher, submitter, crawler.WithConcurrency(4))
//	summary, err := c.Run(ctx, "")
package crawler
