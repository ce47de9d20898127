// Package pipeline runs crawl jobs.
//
// A Job is one source to crawl. A Pipeline executes Steps over a job:
// ResumeStep picks the start page from the run history, CrawlStep walks
// the chain and RecordStep, added as a final step, stores the run summary
// even when the crawl failed or was cancelled.
//
// BatchProcessor runs the pipelines of several sources concurrently with
// an errgroup limit. Sources are independent chains, so a failing source
// never stops the others.
package pipeline
