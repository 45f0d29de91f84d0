// Package store keeps video metadata and the history of conversions in SQLite.
package store

import (
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/oklog/ulid/v2"
	_ "modernc.org/sqlite"

	"github.com/robertmeta/ytcomments/model"
)

// ErrNotFound is returned when a lookup matches nothing.
var ErrNotFound = errors.New("not found")

// Store manages the SQLite database.
type Store struct {
	db *sql.DB
}

// QueryOptions specifies how to query runs.
type QueryOptions struct {
	Limit      int
	Offset     int
	FailedOnly bool
	URL        string
	SinceTime  *int64 // Unix timestamp
}

// New creates a new Store with the given database path.
// Use ":memory:" for an in-memory database (useful for testing).
func New(dbPath string) (*Store, error) {
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// Every connection to ":memory:" is a separate database
	db.SetMaxOpenConns(1)

	store := &Store{db: db}

	// Initialize schema
	if err := store.createSchema(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to create schema: %w", err)
	}

	return store, nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// createSchema creates the database tables and indexes.
func (s *Store) createSchema() error {
	schema := `
	CREATE TABLE IF NOT EXISTS videos (
		url TEXT PRIMARY KEY,
		title TEXT,
		uploader TEXT,
		uploader_id TEXT,
		uploader_url TEXT,
		description TEXT,
		fetched INTEGER NOT NULL
	);

	CREATE TABLE IF NOT EXISTS runs (
		id TEXT PRIMARY KEY,
		started INTEGER NOT NULL,
		url TEXT,
		title TEXT,
		json_file TEXT,
		outputs TEXT,
		total INTEGER DEFAULT 0,
		kept INTEGER DEFAULT 0,
		lost INTEGER DEFAULT 0,
		duration_ms INTEGER DEFAULT 0,
		error TEXT
	);

	CREATE INDEX IF NOT EXISTS idx_runs_started ON runs(started DESC);
	CREATE INDEX IF NOT EXISTS idx_runs_url ON runs(url);
	`

	_, err := s.db.Exec(schema)
	return err
}

// SaveVideo caches the metadata of a video, replacing any earlier entry.
func (s *Store) SaveVideo(url string, v model.VideoInfo) error {
	_, err := s.db.Exec(
		`INSERT INTO videos (url, title, uploader, uploader_id, uploader_url, description, fetched)
		VALUES (?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(url) DO UPDATE SET
			title = excluded.title,
			uploader = excluded.uploader,
			uploader_id = excluded.uploader_id,
			uploader_url = excluded.uploader_url,
			description = excluded.description,
			fetched = excluded.fetched`,
		url, v.Title, v.Uploader, v.UploaderID, v.UploaderURL, v.Description, time.Now().Unix(),
	)
	if err != nil {
		return fmt.Errorf("failed to save video: %w", err)
	}
	return nil
}

// GetVideo returns the cached metadata of a video. Entries older than maxAge
// are treated as missing; a zero maxAge accepts any age.
func (s *Store) GetVideo(url string, maxAge time.Duration) (model.VideoInfo, error) {
	var v model.VideoInfo
	var fetchedUnix int64

	err := s.db.QueryRow(
		"SELECT title, uploader, uploader_id, uploader_url, description, fetched FROM videos WHERE url = ?",
		url,
	).Scan(&v.Title, &v.Uploader, &v.UploaderID, &v.UploaderURL, &v.Description, &fetchedUnix)

	if errors.Is(err, sql.ErrNoRows) {
		return model.VideoInfo{}, fmt.Errorf("video %s: %w", url, ErrNotFound)
	}
	if err != nil {
		return model.VideoInfo{}, fmt.Errorf("failed to get video: %w", err)
	}

	if maxAge > 0 && time.Since(unixToTime(fetchedUnix)) > maxAge {
		return model.VideoInfo{}, fmt.Errorf("video %s: %w", url, ErrNotFound)
	}

	return v, nil
}

// SaveRun records a run. A run without an ID gets a new ULID.
func (s *Store) SaveRun(r *model.Run) error {
	if r.ID == "" {
		r.ID = ulid.Make().String()
	}
	if r.Started.IsZero() {
		r.Started = time.Now()
	}

	_, err := s.db.Exec(
		`INSERT OR REPLACE INTO runs (id, started, url, title, json_file, outputs, total, kept, lost, duration_ms, error)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		r.ID, r.Started.Unix(), r.URL, r.Title, r.JSONFile, strings.Join(r.Outputs, "\n"),
		r.Total, r.Kept, r.Lost, r.Duration.Milliseconds(), r.Error,
	)
	if err != nil {
		return fmt.Errorf("failed to save run: %w", err)
	}
	return nil
}

// GetRun retrieves a run by ID.
func (s *Store) GetRun(id string) (*model.Run, error) {
	row := s.db.QueryRow(
		"SELECT id, started, url, title, json_file, outputs, total, kept, lost, duration_ms, error FROM runs WHERE id = ?",
		id,
	)

	r, err := scanRun(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("run %s: %w", id, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get run: %w", err)
	}
	return r, nil
}

// GetRuns retrieves runs with optional filtering and pagination, newest first.
func (s *Store) GetRuns(opts QueryOptions) ([]*model.Run, error) {
	query := "SELECT id, started, url, title, json_file, outputs, total, kept, lost, duration_ms, error FROM runs WHERE 1=1"
	args := []interface{}{}

	// Apply filters
	if opts.FailedOnly {
		query += " AND error != ''"
	}

	if opts.URL != "" {
		query += " AND url = ?"
		args = append(args, opts.URL)
	}

	if opts.SinceTime != nil {
		query += " AND started >= ?"
		args = append(args, *opts.SinceTime)
	}

	// ULIDs sort by creation time
	query += " ORDER BY started DESC, id DESC"

	// Apply pagination
	if opts.Limit > 0 {
		query += " LIMIT ?"
		args = append(args, opts.Limit)
	} else if opts.Offset > 0 {
		query += " LIMIT -1"
	}

	if opts.Offset > 0 {
		query += " OFFSET ?"
		args = append(args, opts.Offset)
	}

	rows, err := s.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query runs: %w", err)
	}
	defer rows.Close()

	var runs []*model.Run
	for rows.Next() {
		r, err := scanRun(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan run: %w", err)
		}
		runs = append(runs, r)
	}

	return runs, rows.Err()
}

// DeleteRuns removes runs started before t and returns how many were removed.
func (s *Store) DeleteRuns(before time.Time) (int64, error) {
	result, err := s.db.Exec("DELETE FROM runs WHERE started < ?", before.Unix())
	if err != nil {
		return 0, fmt.Errorf("failed to delete runs: %w", err)
	}
	return result.RowsAffected()
}

type scanner interface {
	Scan(dest ...any) error
}

func scanRun(row scanner) (*model.Run, error) {
	r := &model.Run{}
	var startedUnix, durationMS int64
	var url, title, jsonFile, outputs, errText sql.NullString

	err := row.Scan(&r.ID, &startedUnix, &url, &title, &jsonFile, &outputs, &r.Total, &r.Kept, &r.Lost, &durationMS, &errText)
	if err != nil {
		return nil, err
	}

	r.Started = unixToTime(startedUnix)
	r.URL = url.String
	r.Title = title.String
	r.JSONFile = jsonFile.String
	if outputs.String != "" {
		r.Outputs = strings.Split(outputs.String, "\n")
	}
	r.Duration = time.Duration(durationMS) * time.Millisecond
	r.Error = errText.String

	return r, nil
}

// Helper to convert Unix timestamp to time.Time
func unixToTime(unix int64) time.Time {
	return time.Unix(unix, 0)
}
