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

	"github.com/nao1215/filecrawl/internal/model"
)

// FileName is the name of the database file inside the database directory.
const FileName = "filecrawl.db"

// HistoryDB stores finished crawls and their per-file outcomes.
type HistoryDB struct {
	db     *sql.DB
	dbPath string
}

// Options configures HistoryDB behavior.
type Options struct {
	// CreateIfNotExists creates the directory and database file when missing.
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

// CrawlSummary is one row of the crawl history.
type CrawlSummary struct {
	ID         int64
	StartURL   string
	Host       string
	OutputDir  string
	Extensions []string
	StartedAt  time.Time
	FinishedAt time.Time
	Cancelled  bool
	Stats      model.Stats
}

// Duration returns how long the crawl ran.
func (s CrawlSummary) Duration() time.Duration {
	if s.FinishedAt.IsZero() {
		return 0
	}
	return s.FinishedAt.Sub(s.StartedAt)
}

// Open opens or creates the history database in dbDir.
// With CreateIfNotExists false, a missing database file is an error.
func Open(dbDir string, opts Options) (*HistoryDB, error) {
	dbPath := filepath.Join(dbDir, FileName)

	if !opts.CreateIfNotExists {
		if _, err := os.Stat(dbPath); os.IsNotExist(err) {
			return nil, fmt.Errorf("database not found at %s (use CreateIfNotExists option to create)", dbPath)
		} else if err != nil {
			return nil, fmt.Errorf("failed to check database path: %w", err)
		}
	} else {
		if err := os.MkdirAll(dbDir, 0750); err != nil {
			return nil, fmt.Errorf("failed to create database directory: %w", err)
		}
	}

	// mode=rw refuses to create a new file, mode=rwc allows it.
	dsn := dbPath + "?mode=rw"
	if opts.CreateIfNotExists {
		dsn = dbPath + "?mode=rwc"
	}

	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// SQLite has a single writer.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(time.Hour)

	hdb := &HistoryDB{
		db:     db,
		dbPath: dbPath,
	}

	if opts.EnableWAL {
		if _, err := db.ExecContext(context.Background(), "PRAGMA journal_mode=WAL"); err != nil {
			_ = db.Close()
			return nil, fmt.Errorf("failed to enable WAL mode: %w", err)
		}
	}

	if err := hdb.createTables(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to create tables: %w", err)
	}

	return hdb, nil
}

// Path returns the database file path.
func (h *HistoryDB) Path() string {
	return h.dbPath
}

// Close closes the database connection.
func (h *HistoryDB) Close() error {
	return h.db.Close()
}

// createTables creates the schema if it doesn't exist.
func (h *HistoryDB) createTables() error {
	schema := `
	-- One row per finished crawl
	CREATE TABLE IF NOT EXISTS crawls (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		start_url TEXT NOT NULL,
		host TEXT NOT NULL,
		output_dir TEXT NOT NULL,
		extensions TEXT NOT NULL DEFAULT '[]',
		started_at TEXT,
		finished_at TEXT,
		cancelled INTEGER NOT NULL DEFAULT 0,
		pages_crawled INTEGER NOT NULL DEFAULT 0,
		files_downloaded INTEGER NOT NULL DEFAULT 0,
		files_existing INTEGER NOT NULL DEFAULT 0,
		duplicates_skipped INTEGER NOT NULL DEFAULT 0,
		robots_blocked INTEGER NOT NULL DEFAULT 0,
		errors INTEGER NOT NULL DEFAULT 0,
		pages_saved INTEGER NOT NULL DEFAULT 0
	);

	CREATE INDEX IF NOT EXISTS idx_crawls_host ON crawls(host);
	CREATE INDEX IF NOT EXISTS idx_crawls_started_at ON crawls(started_at);

	-- One row per file URL a crawl attempted
	CREATE TABLE IF NOT EXISTS files (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		crawl_id INTEGER NOT NULL REFERENCES crawls(id) ON DELETE CASCADE,
		url TEXT NOT NULL,
		path TEXT,
		status TEXT NOT NULL,
		hash TEXT,
		duplicate_of TEXT,
		bytes INTEGER NOT NULL DEFAULT 0,
		error TEXT
	);

	CREATE INDEX IF NOT EXISTS idx_files_crawl_id ON files(crawl_id);
	CREATE INDEX IF NOT EXISTS idx_files_hash ON files(hash);
	`

	_, err := h.db.ExecContext(context.Background(), schema)
	return err
}

// SaveCrawlReport stores a finished crawl and its file records in one
// transaction and returns the new crawl ID.
func (h *HistoryDB) SaveCrawlReport(ctx context.Context, report *model.CrawlReport) (int64, error) {
	if report == nil {
		return 0, errors.New("report is nil")
	}

	extensions := report.Extensions
	if extensions == nil {
		extensions = []string{}
	}
	extJSON, err := json.Marshal(extensions)
	if err != nil {
		return 0, fmt.Errorf("failed to serialize extensions: %w", err)
	}

	tx, err := h.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	query := `
	INSERT INTO crawls (
		start_url, host, output_dir, extensions, started_at, finished_at, cancelled,
		pages_crawled, files_downloaded, files_existing, duplicates_skipped,
		robots_blocked, errors, pages_saved
	) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`
	s := report.Stats
	result, err := tx.ExecContext(ctx, query,
		report.StartURL,
		report.Host,
		report.OutputDir,
		string(extJSON),
		formatTimestamp(report.StartedAt),
		formatTimestamp(report.FinishedAt),
		report.Cancelled,
		s.PagesCrawled,
		s.FilesDownloaded,
		s.FilesExisting,
		s.DuplicatesSkipped,
		s.RobotsBlocked,
		s.Errors,
		s.PagesSaved,
	)
	if err != nil {
		return 0, fmt.Errorf("failed to insert crawl: %w", err)
	}
	id, err := result.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("failed to get crawl id: %w", err)
	}

	if len(report.Files) > 0 {
		stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO files (crawl_id, url, path, status, hash, duplicate_of, bytes, error)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		`)
		if err != nil {
			return 0, fmt.Errorf("failed to prepare file insert: %w", err)
		}
		defer stmt.Close()

		for _, f := range report.Files {
			if _, err := stmt.ExecContext(ctx, id,
				f.URL, f.Path, f.Status.String(), f.Hash, f.DuplicateOf, f.Bytes, f.Error,
			); err != nil {
				return 0, fmt.Errorf("failed to insert file %s: %w", f.URL, err)
			}
		}
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("failed to commit crawl: %w", err)
	}
	return id, nil
}

const summaryColumns = `
	id, start_url, host, output_dir, extensions, started_at, finished_at, cancelled,
	pages_crawled, files_downloaded, files_existing, duplicates_skipped,
	robots_blocked, errors, pages_saved
`

// ListCrawls returns past crawls, newest first. An empty host lists every
// host; limit <= 0 means no limit.
func (h *HistoryDB) ListCrawls(ctx context.Context, host string, limit int) ([]CrawlSummary, error) {
	query := `SELECT ` + summaryColumns + ` FROM crawls`
	args := make([]any, 0, 2)
	if host != "" {
		query += ` WHERE host = ?`
		args = append(args, host)
	}
	query += ` ORDER BY started_at DESC, id DESC`
	if limit > 0 {
		query += ` LIMIT ?`
		args = append(args, limit)
	}

	rows, err := h.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list crawls: %w", err)
	}
	defer rows.Close()

	var results []CrawlSummary
	for rows.Next() {
		summary, err := scanSummary(rows)
		if err != nil {
			return nil, err
		}
		results = append(results, *summary)
	}
	return results, rows.Err()
}

// GetCrawl returns the crawl with the given ID, or nil if none exists.
func (h *HistoryDB) GetCrawl(ctx context.Context, id int64) (*CrawlSummary, error) {
	row := h.db.QueryRowContext(ctx, `SELECT `+summaryColumns+` FROM crawls WHERE id = ?`, id)
	summary, err := scanSummary(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil //nolint:nilnil // nil means not found
	}
	if err != nil {
		return nil, err
	}
	return summary, nil
}

// GetCrawlFiles returns the file records of a crawl in the order they were
// attempted.
func (h *HistoryDB) GetCrawlFiles(ctx context.Context, crawlID int64) ([]model.FileRecord, error) {
	query := `
	SELECT url, path, status, hash, duplicate_of, bytes, error
	FROM files
	WHERE crawl_id = ?
	ORDER BY id
	`
	rows, err := h.db.QueryContext(ctx, query, crawlID)
	if err != nil {
		return nil, fmt.Errorf("failed to query files: %w", err)
	}
	defer rows.Close()

	var results []model.FileRecord
	for rows.Next() {
		var (
			rec                          model.FileRecord
			path, hash, duplicateOf, msg sql.NullString
			status                       string
		)
		if err := rows.Scan(&rec.URL, &path, &status, &hash, &duplicateOf, &rec.Bytes, &msg); err != nil {
			return nil, fmt.Errorf("failed to scan file: %w", err)
		}
		rec.Path = path.String
		rec.Status = model.ParseDownloadStatus(status)
		rec.Hash = hash.String
		rec.DuplicateOf = duplicateOf.String
		rec.Error = msg.String
		results = append(results, rec)
	}
	return results, rows.Err()
}

// GetCrawlReport rebuilds the full report of a stored crawl, or returns nil
// if none exists.
func (h *HistoryDB) GetCrawlReport(ctx context.Context, id int64) (*model.CrawlReport, error) {
	summary, err := h.GetCrawl(ctx, id)
	if err != nil || summary == nil {
		return nil, err
	}
	files, err := h.GetCrawlFiles(ctx, id)
	if err != nil {
		return nil, err
	}
	if files == nil {
		files = make([]model.FileRecord, 0)
	}
	return &model.CrawlReport{
		StartURL:   summary.StartURL,
		Host:       summary.Host,
		OutputDir:  summary.OutputDir,
		Extensions: summary.Extensions,
		StartedAt:  summary.StartedAt,
		FinishedAt: summary.FinishedAt,
		Cancelled:  summary.Cancelled,
		Stats:      summary.Stats,
		Files:      files,
	}, nil
}

// FindByHash returns the files stored under any crawl whose content hash
// equals hash, oldest first.
func (h *HistoryDB) FindByHash(ctx context.Context, hash string) ([]model.FileRecord, error) {
	query := `
	SELECT url, path, status, bytes
	FROM files
	WHERE hash = ?
	ORDER BY id
	`
	rows, err := h.db.QueryContext(ctx, query, hash)
	if err != nil {
		return nil, fmt.Errorf("failed to query files by hash: %w", err)
	}
	defer rows.Close()

	var results []model.FileRecord
	for rows.Next() {
		var (
			rec    model.FileRecord
			path   sql.NullString
			status string
		)
		if err := rows.Scan(&rec.URL, &path, &status, &rec.Bytes); err != nil {
			return nil, fmt.Errorf("failed to scan file: %w", err)
		}
		rec.Path = path.String
		rec.Status = model.ParseDownloadStatus(status)
		rec.Hash = hash
		results = append(results, rec)
	}
	return results, rows.Err()
}

// rowScanner is implemented by *sql.Row and *sql.Rows.
type rowScanner interface {
	Scan(dest ...any) error
}

func scanSummary(row rowScanner) (*CrawlSummary, error) {
	var (
		s          CrawlSummary
		extJSON    string
		startedAt  sql.NullString
		finishedAt sql.NullString
	)
	err := row.Scan(
		&s.ID, &s.StartURL, &s.Host, &s.OutputDir, &extJSON, &startedAt, &finishedAt, &s.Cancelled,
		&s.Stats.PagesCrawled, &s.Stats.FilesDownloaded, &s.Stats.FilesExisting, &s.Stats.DuplicatesSkipped,
		&s.Stats.RobotsBlocked, &s.Stats.Errors, &s.Stats.PagesSaved,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, err
	}
	if err != nil {
		return nil, fmt.Errorf("failed to scan crawl: %w", err)
	}
	if err := json.Unmarshal([]byte(extJSON), &s.Extensions); err != nil {
		return nil, fmt.Errorf("failed to parse extensions: %w", err)
	}
	if startedAt.Valid {
		s.StartedAt = parseTimestamp(startedAt.String)
	}
	if finishedAt.Valid {
		s.FinishedAt = parseTimestamp(finishedAt.String)
	}
	return &s, nil
}

// storedTimeFormat has a fixed width so stored times sort as text.
const storedTimeFormat = "2006-01-02T15:04:05.000000000Z07:00"

// formatTimestamp stores times in UTC. The zero time is stored as NULL.
func formatTimestamp(t time.Time) any {
	if t.IsZero() {
		return nil
	}
	return t.UTC().Format(storedTimeFormat)
}

// timestampFormats contains the timestamp formats that SQLite may return.
// The order matters: more specific formats should come first.
var timestampFormats = []string{
	time.RFC3339Nano,
	time.RFC3339,
	"2006-01-02 15:04:05",
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05.999",
}

// parseTimestamp attempts to parse a timestamp string using multiple formats.
// It returns the zero time if none match.
func parseTimestamp(s string) time.Time {
	for _, format := range timestampFormats {
		if t, err := time.Parse(format, s); err == nil {
			return t
		}
	}
	return time.Time{}
}
