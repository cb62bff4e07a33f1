// Package history provides a SQLite-backed journal of transfer invocations:
// one job row per top-level call plus per-file outcome rows. It is a record
// for `shift history`, not resume state; the engine itself stays stateless
// between invocations.
package history

import (
	"database/sql"
	"encoding/hex"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/zeebo/blake3"
	_ "modernc.org/sqlite"
)

// DB wraps the history database.
type DB struct {
	db   *sql.DB
	path string
}

// Job is one recorded transfer invocation.
type Job struct {
	ID       string
	Src      string
	Dst      string
	Mode     string
	Status   string
	Started  time.Time
	Finished time.Time
	Files    int64
	Bytes    int64
}

// FileOutcome is one per-file row within a job.
type FileOutcome struct {
	Path     string
	Size     int64
	Achieved string
	Err      string
}

// Open opens (or creates) the history database at its default path:
// $XDG_STATE_HOME/shift/history.db, falling back to ~/.local/state.
func Open() (*DB, error) {
	return OpenAt(defaultPath())
}

// OpenAt opens (or creates) the history database at path.
func OpenAt(path string) (*DB, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return nil, fmt.Errorf("create history dir: %w", err)
	}

	db, err := sql.Open("sqlite", path+"?_journal_mode=WAL&_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("open history db: %w", err)
	}

	h := &DB{db: db, path: path}
	if err := h.init(); err != nil {
		db.Close()
		return nil, err
	}
	return h, nil
}

func (h *DB) init() error {
	_, err := h.db.Exec(`
		CREATE TABLE IF NOT EXISTS jobs (
			id       TEXT PRIMARY KEY,
			src      TEXT NOT NULL,
			dst      TEXT NOT NULL,
			mode     TEXT NOT NULL,
			status   TEXT NOT NULL,
			started  INTEGER NOT NULL,
			finished INTEGER NOT NULL DEFAULT 0,
			files    INTEGER NOT NULL DEFAULT 0,
			bytes    INTEGER NOT NULL DEFAULT 0
		);
		CREATE TABLE IF NOT EXISTS files (
			job_id   TEXT NOT NULL,
			path     TEXT NOT NULL,
			size     INTEGER NOT NULL,
			achieved TEXT NOT NULL,
			error    TEXT NOT NULL DEFAULT ''
		);
		CREATE INDEX IF NOT EXISTS idx_files_job ON files(job_id);
	`)
	if err != nil {
		return fmt.Errorf("create tables: %w", err)
	}
	return nil
}

// Begin records a new job and returns its handle.
func (h *DB) Begin(src, dst, mode string) (*JobWriter, error) {
	started := time.Now()
	id := jobID(src, dst, started)

	_, err := h.db.Exec(
		"INSERT INTO jobs (id, src, dst, mode, status, started) VALUES (?, ?, ?, ?, 'running', ?)",
		id, src, dst, mode, started.UnixNano(),
	)
	if err != nil {
		return nil, fmt.Errorf("insert job: %w", err)
	}
	return &JobWriter{db: h.db, id: id}, nil
}

// Recent returns the most recent jobs, newest first.
func (h *DB) Recent(limit int) ([]Job, error) {
	if limit <= 0 {
		limit = 20
	}
	rows, err := h.db.Query(
		"SELECT id, src, dst, mode, status, started, finished, files, bytes FROM jobs ORDER BY started DESC LIMIT ?",
		limit,
	)
	if err != nil {
		return nil, fmt.Errorf("query jobs: %w", err)
	}
	defer rows.Close()

	var jobs []Job
	for rows.Next() {
		var j Job
		var started, finished int64
		if err := rows.Scan(&j.ID, &j.Src, &j.Dst, &j.Mode, &j.Status, &started, &finished, &j.Files, &j.Bytes); err != nil {
			return nil, fmt.Errorf("scan job: %w", err)
		}
		j.Started = time.Unix(0, started)
		if finished > 0 {
			j.Finished = time.Unix(0, finished)
		}
		jobs = append(jobs, j)
	}
	return jobs, rows.Err()
}

// Failures returns the per-file failure rows of a job.
func (h *DB) Failures(jobID string) ([]FileOutcome, error) {
	rows, err := h.db.Query(
		"SELECT path, size, achieved, error FROM files WHERE job_id = ? AND error != ''", jobID,
	)
	if err != nil {
		return nil, fmt.Errorf("query failures: %w", err)
	}
	defer rows.Close()

	var out []FileOutcome
	for rows.Next() {
		var f FileOutcome
		if err := rows.Scan(&f.Path, &f.Size, &f.Achieved, &f.Err); err != nil {
			return nil, fmt.Errorf("scan failure: %w", err)
		}
		out = append(out, f)
	}
	return out, rows.Err()
}

// Close closes the database.
func (h *DB) Close() error {
	return h.db.Close()
}

// Path returns the database file path.
func (h *DB) Path() string {
	return h.path
}

// JobWriter appends per-file outcomes to a running job.
type JobWriter struct {
	db    *sql.DB
	id    string
	files int64
	bytes int64
}

// ID returns the job's identifier.
func (w *JobWriter) ID() string { return w.id }

// RecordFile records one file outcome. errMsg is empty on success.
func (w *JobWriter) RecordFile(path string, size int64, achieved, errMsg string) error {
	_, err := w.db.Exec(
		"INSERT INTO files (job_id, path, size, achieved, error) VALUES (?, ?, ?, ?, ?)",
		w.id, path, size, achieved, errMsg,
	)
	if err != nil {
		return fmt.Errorf("insert file outcome: %w", err)
	}
	if errMsg == "" {
		w.files++
		w.bytes += size
	}
	return nil
}

// Finish marks the job complete with the given status ("ok" or "failed").
func (w *JobWriter) Finish(status string) error {
	_, err := w.db.Exec(
		"UPDATE jobs SET status = ?, finished = ?, files = ?, bytes = ? WHERE id = ?",
		status, time.Now().UnixNano(), w.files, w.bytes, w.id,
	)
	if err != nil {
		return fmt.Errorf("finish job: %w", err)
	}
	return nil
}

// jobID computes a deterministic job ID from the transfer endpoints and
// start time. Only paths are hashed, never file contents.
func jobID(src, dst string, started time.Time) string {
	h := blake3.New()
	h.Write([]byte(src))
	h.Write([]byte{0})
	h.Write([]byte(dst))
	h.Write([]byte{0})
	h.Write([]byte(started.Format(time.RFC3339Nano)))
	digest := h.Sum(nil)
	return hex.EncodeToString(digest[:8])
}

func defaultPath() string {
	if dir := os.Getenv("XDG_STATE_HOME"); dir != "" {
		return filepath.Join(dir, "shift", "history.db")
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return filepath.Join(os.TempDir(), "shift-history.db")
	}
	return filepath.Join(home, ".local", "state", "shift", "history.db")
}
