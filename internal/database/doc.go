// Package database provides SQLite-based storage for pagewalk.
//
// A Store keeps:
//   - Sites, keyed by host
//   - Items, keyed by a fingerprint of site host and detail address, so a
//     re-crawl updates rows instead of duplicating them
//   - Run summaries, used by the history command and by --resume
//
// The driver is modernc.org/sqlite, which needs no cgo. The database is a
// single file (pagewalk.db) in the data directory.
package database
