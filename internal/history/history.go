// Package history keeps a local SQLite catalog of completed downloads across
// sessions, independent of any single output directory's manifest.
package history

import (
	"database/sql"
	"fmt"
	"sync"
	"time"

	_ "modernc.org/sqlite"
)

// Record is one completed download.
type Record struct {
	ID          int64
	SessionID   string
	VideoID     string
	Title       string
	Quality     string
	AudioOnly   bool
	Fallback    bool
	Retries     int
	FilePath    string
	SizeBytes   int64
	TargetURL   string
	CompletedAt time.Time
}

const createTableSQL = `
CREATE TABLE IF NOT EXISTS downloads (
    id           INTEGER PRIMARY KEY AUTOINCREMENT,
    session_id   TEXT NOT NULL DEFAULT '',
    video_id     TEXT NOT NULL,
    title        TEXT NOT NULL DEFAULT '',
    quality      TEXT NOT NULL DEFAULT '',
    audio_only   INTEGER NOT NULL DEFAULT 0,
    fallback     INTEGER NOT NULL DEFAULT 0,
    retries      INTEGER NOT NULL DEFAULT 0,
    file_path    TEXT NOT NULL DEFAULT '',
    size_bytes   INTEGER NOT NULL DEFAULT 0,
    target_url   TEXT NOT NULL DEFAULT '',
    completed_at DATETIME NOT NULL DEFAULT (datetime('now'))
);

CREATE INDEX IF NOT EXISTS idx_downloads_video_id ON downloads(video_id);
CREATE INDEX IF NOT EXISTS idx_downloads_completed_at ON downloads(completed_at);
`

// DB wraps an SQLite connection for the download catalog.
type DB struct {
	db *sql.DB
	mu sync.Mutex
}

// Open opens or creates the catalog at the given path.
func Open(path string) (*DB, error) {
	sqlDB, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("opening history database at %s: %w", path, err)
	}

	pragmas := []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA synchronous=NORMAL",
		"PRAGMA busy_timeout=5000",
	}
	for _, pragma := range pragmas {
		if _, err := sqlDB.Exec(pragma); err != nil {
			sqlDB.Close()
			return nil, fmt.Errorf("setting pragma %q: %w", pragma, err)
		}
	}

	if _, err := sqlDB.Exec(createTableSQL); err != nil {
		sqlDB.Close()
		return nil, fmt.Errorf("creating history schema: %w", err)
	}
	return &DB{db: sqlDB}, nil
}

// Close closes the underlying connection.
func (d *DB) Close() error {
	if d == nil || d.db == nil {
		return nil
	}
	return d.db.Close()
}

// Insert adds a completed download and returns its row id.
func (d *DB) Insert(rec Record) (int64, error) {
	if d == nil || d.db == nil {
		return 0, fmt.Errorf("history database not initialized")
	}
	d.mu.Lock()
	defer d.mu.Unlock()

	boolInt := func(b bool) int {
		if b {
			return 1
		}
		return 0
	}
	completed := rec.CompletedAt
	if completed.IsZero() {
		completed = time.Now().UTC()
	}

	result, err := d.db.Exec(`
		INSERT INTO downloads (
			session_id, video_id, title, quality, audio_only,
			fallback, retries, file_path, size_bytes, target_url, completed_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`,
		rec.SessionID, rec.VideoID, rec.Title, rec.Quality, boolInt(rec.AudioOnly),
		boolInt(rec.Fallback), rec.Retries, rec.FilePath, rec.SizeBytes, rec.TargetURL,
		completed.Format(time.RFC3339),
	)
	if err != nil {
		return 0, fmt.Errorf("inserting history record: %w", err)
	}
	return result.LastInsertId()
}

// Recent returns up to limit records, newest first.
func (d *DB) Recent(limit int) ([]Record, error) {
	if d == nil || d.db == nil {
		return nil, fmt.Errorf("history database not initialized")
	}
	if limit <= 0 {
		limit = 20
	}
	d.mu.Lock()
	defer d.mu.Unlock()

	rows, err := d.db.Query(`
		SELECT id, session_id, video_id, title, quality, audio_only,
		       fallback, retries, file_path, size_bytes, target_url, completed_at
		FROM downloads
		ORDER BY completed_at DESC, id DESC
		LIMIT ?
	`, limit)
	if err != nil {
		return nil, fmt.Errorf("querying history: %w", err)
	}
	defer rows.Close()

	var out []Record
	for rows.Next() {
		var rec Record
		var audioOnly, fb int
		var completed string
		if err := rows.Scan(
			&rec.ID, &rec.SessionID, &rec.VideoID, &rec.Title, &rec.Quality, &audioOnly,
			&fb, &rec.Retries, &rec.FilePath, &rec.SizeBytes, &rec.TargetURL, &completed,
		); err != nil {
			return nil, fmt.Errorf("scanning history row: %w", err)
		}
		rec.AudioOnly = audioOnly != 0
		rec.Fallback = fb != 0
		if t, err := time.Parse(time.RFC3339, completed); err == nil {
			rec.CompletedAt = t
		}
		out = append(out, rec)
	}
	return out, rows.Err()
}
