package database

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite" // SQLite driver

	"github.com/nao1215/pagewalk/internal/model"
)

// FileName is the database file created inside the data directory.
const FileName = "pagewalk.db"

// ErrNotExist is returned by Open when the database is required to exist but does not.
var ErrNotExist = errors.New("database does not exist")

// Store provides SQLite-based storage for scraped items and run history.
type Store struct {
	// db is the underlying SQL database connection.
	db *sql.DB

	// dbPath is the path to the SQLite database file.
	dbPath string
}

// Options configures Store behavior.
type Options struct {
	// CreateIfNotExists creates the database file if it doesn't exist.
	CreateIfNotExists bool

	// EnableWAL enables Write-Ahead Logging.
	EnableWAL bool
}

// DefaultOptions returns the default database options.
func DefaultOptions() Options {
	return Options{
		CreateIfNotExists: true,
		EnableWAL:         true,
	}
}

// Open opens or creates the Store in dbDir.
// If CreateIfNotExists is false and the database doesn't exist, ErrNotExist is returned.
func Open(dbDir string, opts Options) (*Store, error) {
	dbPath := filepath.Join(dbDir, FileName)

	var dsn string
	if opts.CreateIfNotExists {
		if err := os.MkdirAll(dbDir, 0750); err != nil {
			return nil, fmt.Errorf("failed to create database directory: %w", err)
		}
		dsn = dbPath + "?mode=rwc"
	} else {
		if _, err := os.Stat(dbPath); errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("%w: %s", ErrNotExist, dbPath)
		} else if err != nil {
			return nil, fmt.Errorf("failed to check database path: %w", err)
		}
		dsn = dbPath + "?mode=rw"
	}

	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// SQLite has a single writer; item submissions from concurrent workers
	// queue on this one connection.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(time.Hour)

	s := &Store{db: db, dbPath: dbPath}

	if opts.EnableWAL {
		if _, err := db.ExecContext(context.Background(), "PRAGMA journal_mode=WAL"); err != nil {
			_ = db.Close()
			return nil, fmt.Errorf("failed to enable WAL mode: %w", err)
		}
	}

	if err := s.createTables(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to create tables: %w", err)
	}

	return s, nil
}

// Path returns the database file path.
func (s *Store) Path() string {
	return s.dbPath
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// createTables creates the database schema if it doesn't exist.
func (s *Store) createTables() error {
	schema := `
	CREATE TABLE IF NOT EXISTS sites (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		host TEXT NOT NULL UNIQUE,
		name TEXT NOT NULL,
		url TEXT NOT NULL,
		favicon TEXT
	);

	CREATE TABLE IF NOT EXISTS items (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		fingerprint TEXT NOT NULL UNIQUE,
		site_id INTEGER NOT NULL REFERENCES sites(id),
		url TEXT NOT NULL,
		thumbnail_url TEXT,
		title TEXT,
		duration INTEGER DEFAULT 0,
		tags TEXT,
		created_at DATETIME DEFAULT CURRENT_TIMESTAMP,
		updated_at DATETIME DEFAULT CURRENT_TIMESTAMP
	);

	CREATE INDEX IF NOT EXISTS idx_items_site ON items(site_id);
	CREATE INDEX IF NOT EXISTS idx_items_url ON items(url);

	CREATE TABLE IF NOT EXISTS runs (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		source TEXT NOT NULL,
		start_url TEXT NOT NULL,
		last_page TEXT,
		status TEXT NOT NULL,
		pages INTEGER DEFAULT 0,
		items INTEGER DEFAULT 0,
		submitted INTEGER DEFAULT 0,
		failures TEXT,
		error TEXT,
		started_at DATETIME NOT NULL,
		finished_at DATETIME
	);

	CREATE INDEX IF NOT EXISTS idx_runs_source ON runs(source);
	CREATE INDEX IF NOT EXISTS idx_runs_started ON runs(started_at);
	`

	_, err := s.db.ExecContext(context.Background(), schema)
	return err
}

// SaveItem inserts or updates an item and its site.
// Items are matched by model.Item.Fingerprint. It returns the item row ID.
func (s *Store) SaveItem(ctx context.Context, item *model.Item) (int64, error) {
	if item.Site == nil {
		return 0, errors.New("item has no site")
	}

	tagsJSON, err := json.Marshal(item.Tags)
	if err != nil {
		return 0, fmt.Errorf("failed to serialize tags: %w", err)
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	siteID, err := upsertSite(ctx, tx, item.Site)
	if err != nil {
		return 0, err
	}

	fingerprint := item.Fingerprint()
	query := `
	INSERT INTO items (fingerprint, site_id, url, thumbnail_url, title, duration, tags)
	VALUES (?, ?, ?, ?, ?, ?, ?)
	ON CONFLICT(fingerprint) DO UPDATE SET
		thumbnail_url = excluded.thumbnail_url,
		title = excluded.title,
		duration = excluded.duration,
		tags = excluded.tags,
		updated_at = CURRENT_TIMESTAMP
	`
	if _, err := tx.ExecContext(ctx, query,
		fingerprint,
		siteID,
		item.URL,
		item.ThumbnailURL,
		item.Title,
		item.Duration,
		string(tagsJSON),
	); err != nil {
		return 0, fmt.Errorf("failed to save item: %w", err)
	}

	var id int64
	if err := tx.QueryRowContext(ctx, `SELECT id FROM items WHERE fingerprint = ?`, fingerprint).Scan(&id); err != nil {
		return 0, fmt.Errorf("failed to read item id: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("failed to commit item: %w", err)
	}
	return id, nil
}

// upsertSite stores site by host and returns its row ID.
func upsertSite(ctx context.Context, tx *sql.Tx, site *model.Site) (int64, error) {
	host := site.Host()
	query := `
	INSERT INTO sites (host, name, url, favicon)
	VALUES (?, ?, ?, ?)
	ON CONFLICT(host) DO UPDATE SET
		name = excluded.name,
		url = excluded.url,
		favicon = excluded.favicon
	`
	if _, err := tx.ExecContext(ctx, query, host, site.Name, site.URL, site.Favicon); err != nil {
		return 0, fmt.Errorf("failed to save site: %w", err)
	}

	var id int64
	if err := tx.QueryRowContext(ctx, `SELECT id FROM sites WHERE host = ?`, host).Scan(&id); err != nil {
		return 0, fmt.Errorf("failed to read site id: %w", err)
	}
	return id, nil
}

// GetItem retrieves an item by fingerprint. It returns nil when no item matches.
func (s *Store) GetItem(ctx context.Context, fingerprint string) (*model.Item, error) {
	query := `
	SELECT i.url, i.thumbnail_url, i.title, i.duration, i.tags, s.name, s.url, s.favicon
	FROM items i JOIN sites s ON s.id = i.site_id
	WHERE i.fingerprint = ?
	`

	var (
		item     model.Item
		site     model.Site
		tagsJSON sql.NullString
		thumb    sql.NullString
		title    sql.NullString
		favicon  sql.NullString
	)
	err := s.db.QueryRowContext(ctx, query, fingerprint).Scan(
		&item.URL,
		&thumb,
		&title,
		&item.Duration,
		&tagsJSON,
		&site.Name,
		&site.URL,
		&favicon,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get item: %w", err)
	}

	item.ThumbnailURL = thumb.String
	item.Title = title.String
	site.Favicon = favicon.String
	item.Site = &site

	if tagsJSON.Valid && tagsJSON.String != "" {
		if err := json.Unmarshal([]byte(tagsJSON.String), &item.Tags); err != nil {
			return nil, fmt.Errorf("failed to parse tags: %w", err)
		}
	}
	return &item, nil
}

// HasItem reports whether an item with fingerprint is stored.
func (s *Store) HasItem(ctx context.Context, fingerprint string) (bool, error) {
	var count int
	err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM items WHERE fingerprint = ?`, fingerprint).Scan(&count)
	if err != nil {
		return false, fmt.Errorf("failed to check item: %w", err)
	}
	return count > 0, nil
}

// CountItems returns the number of stored items for host, or for all sites
// when host is empty.
func (s *Store) CountItems(ctx context.Context, host string) (int, error) {
	query := `SELECT COUNT(*) FROM items`
	args := make([]any, 0, 1)
	if host != "" {
		query = `SELECT COUNT(*) FROM items i JOIN sites s ON s.id = i.site_id WHERE s.host = ?`
		args = append(args, host)
	}

	var count int
	if err := s.db.QueryRowContext(ctx, query, args...).Scan(&count); err != nil {
		return 0, fmt.Errorf("failed to count items: %w", err)
	}
	return count, nil
}

// SaveRun stores a run summary. A summary with ID zero is inserted and
// receives its new ID; otherwise the existing row is updated.
func (s *Store) SaveRun(ctx context.Context, run *model.RunSummary) error {
	failuresJSON, err := json.Marshal(run.Failures)
	if err != nil {
		return fmt.Errorf("failed to serialize failures: %w", err)
	}

	var finishedAt any
	if !run.FinishedAt.IsZero() {
		finishedAt = formatTimestamp(run.FinishedAt)
	}

	if run.ID == 0 {
		query := `
		INSERT INTO runs (source, start_url, last_page, status, pages, items, submitted, failures, error, started_at, finished_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		`
		result, err := s.db.ExecContext(ctx, query,
			run.Source,
			run.StartURL,
			run.LastPage,
			string(run.Status),
			run.Pages,
			run.Items,
			run.Submitted,
			string(failuresJSON),
			run.Error,
			formatTimestamp(run.StartedAt),
			finishedAt,
		)
		if err != nil {
			return fmt.Errorf("failed to insert run: %w", err)
		}
		id, err := result.LastInsertId()
		if err != nil {
			return fmt.Errorf("failed to read run id: %w", err)
		}
		run.ID = id
		return nil
	}

	query := `
	UPDATE runs SET
		last_page = ?, status = ?, pages = ?, items = ?, submitted = ?,
		failures = ?, error = ?, finished_at = ?
	WHERE id = ?
	`
	result, err := s.db.ExecContext(ctx, query,
		run.LastPage,
		string(run.Status),
		run.Pages,
		run.Items,
		run.Submitted,
		string(failuresJSON),
		run.Error,
		finishedAt,
		run.ID,
	)
	if err != nil {
		return fmt.Errorf("failed to update run: %w", err)
	}
	if n, err := result.RowsAffected(); err == nil && n == 0 {
		return fmt.Errorf("failed to update run: no run with id %d", run.ID)
	}
	return nil
}

const runColumns = `id, source, start_url, last_page, status, pages, items, submitted, failures, error, started_at, finished_at`

// GetRun retrieves a run by ID. It returns nil when no run matches.
func (s *Store) GetRun(ctx context.Context, id int64) (*model.RunSummary, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+runColumns+` FROM runs WHERE id = ?`, id)
	run, err := scanRun(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get run: %w", err)
	}
	return run, nil
}

// LatestRun returns the most recent run of source. It returns nil when the
// source has never run.
func (s *Store) LatestRun(ctx context.Context, source string) (*model.RunSummary, error) {
	query := `SELECT ` + runColumns + ` FROM runs WHERE source = ? ORDER BY started_at DESC, id DESC LIMIT 1`
	run, err := scanRun(s.db.QueryRowContext(ctx, query, source))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get latest run: %w", err)
	}
	return run, nil
}

// ListRuns returns runs newest first, optionally filtered by source.
// A non-positive limit returns every run.
func (s *Store) ListRuns(ctx context.Context, source string, limit int) ([]*model.RunSummary, error) {
	query := `SELECT ` + runColumns + ` FROM runs WHERE 1=1`
	args := make([]any, 0, 2)

	if source != "" {
		query += " AND source = ?"
		args = append(args, source)
	}
	query += " ORDER BY started_at DESC, id DESC"
	if limit > 0 {
		query += " LIMIT ?"
		args = append(args, limit)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list runs: %w", err)
	}
	defer rows.Close()

	runs := make([]*model.RunSummary, 0)
	for rows.Next() {
		run, err := scanRun(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan run: %w", err)
		}
		runs = append(runs, run)
	}
	return runs, rows.Err()
}

// rowScanner is implemented by *sql.Row and *sql.Rows.
type rowScanner interface {
	Scan(dest ...any) error
}

func scanRun(row rowScanner) (*model.RunSummary, error) {
	var (
		run          model.RunSummary
		status       string
		lastPage     sql.NullString
		failuresJSON sql.NullString
		errMsg       sql.NullString
		startedAt    string
		finishedAt   sql.NullString
	)
	if err := row.Scan(
		&run.ID,
		&run.Source,
		&run.StartURL,
		&lastPage,
		&status,
		&run.Pages,
		&run.Items,
		&run.Submitted,
		&failuresJSON,
		&errMsg,
		&startedAt,
		&finishedAt,
	); err != nil {
		return nil, err
	}

	run.Status = model.RunStatus(status)
	run.LastPage = lastPage.String
	run.Error = errMsg.String
	run.StartedAt = parseTimestamp(startedAt)
	if finishedAt.Valid {
		run.FinishedAt = parseTimestamp(finishedAt.String)
	}

	run.Failures = make([]model.ItemFailure, 0)
	if failuresJSON.Valid && failuresJSON.String != "" && failuresJSON.String != "null" {
		if err := json.Unmarshal([]byte(failuresJSON.String), &run.Failures); err != nil {
			return nil, fmt.Errorf("failed to parse failures: %w", err)
		}
	}
	return &run, nil
}

// timestampLayout has a fixed-width fraction so stored values sort as text.
const timestampLayout = "2006-01-02T15:04:05.000000000Z07:00"

// formatTimestamp renders t in UTC.
func formatTimestamp(t time.Time) string {
	return t.UTC().Format(timestampLayout)
}

// timestampFormats contains the timestamp formats that SQLite may return.
// The order matters: more specific formats should come first.
var timestampFormats = []string{
	"2006-01-02 15:04:05",     // SQLite default datetime format
	"2006-01-02T15:04:05Z",    // ISO 8601 with Z suffix
	"2006-01-02T15:04:05",     // ISO 8601 without timezone
	time.RFC3339,              // Full RFC3339 format
	time.RFC3339Nano,          // RFC3339 with nanoseconds
	"2006-01-02 15:04:05.999", // SQLite with milliseconds
}

// parseTimestamp attempts to parse a timestamp string using multiple formats.
// It returns the zero time if no format matches.
func parseTimestamp(s string) time.Time {
	for _, format := range timestampFormats {
		if t, err := time.Parse(format, s); err == nil {
			return t
		}
	}
	return time.Time{}
}
