// Package model defines the data shared by the crawler, the sinks, the
// database and the report writers.
//
//   - Site: the source an item belongs to
//   - Item: one scraped record, identified by Fingerprint
//   - RunSummary: the outcome of one crawl run, including skipped items
//
// The types carry JSON tags; they are the wire format of the JSON lines sink
// and of the JSON report.
package model
