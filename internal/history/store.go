// Package history records job runs in a SQLite database. It uses
// modernc.org/sqlite (pure Go, no CGO) in WAL mode.
package history

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/flemzord/every/internal/schedule"

	_ "modernc.org/sqlite" // SQLite driver registration
)

// Run statuses.
const (
	StatusSucceeded = "succeeded"
	StatusFailed    = "failed"
)

// Run is one recorded job run.
type Run struct {
	ID       int64         `json:"id"`
	JobID    string        `json:"job_id"`
	Job      string        `json:"job"`
	Interval int           `json:"interval"`
	Unit     string        `json:"unit"`
	Started  time.Time     `json:"started_at"`
	Finished time.Time     `json:"finished_at"`
	NextRun  time.Time     `json:"next_run_at"`
	Duration time.Duration `json:"duration_ns"`
	Status   string        `json:"status"`
	Error    string        `json:"error,omitempty"`
}

// Store persists run records.
type Store struct {
	db *sql.DB
}

// Open opens (creating if needed) the database at path and migrates the
// schema. The store uses a single connection; SQLite serialises writes.
func Open(ctx context.Context, path string, busyTimeout int) (*Store, error) {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o700); err != nil {
			return nil, fmt.Errorf("history: create directory %s: %w", dir, err)
		}
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("history: open %s: %w", path, err)
	}
	db.SetMaxOpenConns(1)

	if _, err := db.ExecContext(ctx, "PRAGMA journal_mode=WAL"); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("history: enable WAL: %w", err)
	}
	if _, err := db.ExecContext(ctx, fmt.Sprintf("PRAGMA busy_timeout=%d", busyTimeout)); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("history: set busy_timeout: %w", err)
	}
	if err := migrate(ctx, db); err != nil {
		_ = db.Close()
		return nil, err
	}

	return &Store{db: db}, nil
}

// Close closes the database.
func (s *Store) Close() error {
	return s.db.Close()
}

// Record inserts one run.
func (s *Store) Record(ctx context.Context, r schedule.RunRecord) error {
	status, errText := StatusSucceeded, ""
	if r.Err != nil {
		status, errText = StatusFailed, r.Err.Error()
	}

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO runs (job_id, job, interval, unit, started_at, finished_at, next_run_at, duration_ms, status, error)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		r.JobID, r.Job, r.Interval, r.Unit.String(),
		formatTime(r.Started), formatTime(r.Finished), formatTime(r.NextRun),
		r.Duration().Milliseconds(), status, errText,
	)
	if err != nil {
		return fmt.Errorf("history: record run: %w", err)
	}
	return nil
}

// Recent returns up to limit runs of the named job, newest first. An empty
// job name returns runs of every job.
func (s *Store) Recent(ctx context.Context, job string, limit int) ([]Run, error) {
	if limit <= 0 {
		return nil, nil
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT id, job_id, job, interval, unit, started_at, finished_at, next_run_at, duration_ms, status, error
		FROM runs
		WHERE ? = '' OR job = ?
		ORDER BY id DESC
		LIMIT ?`,
		job, job, limit,
	)
	if err != nil {
		return nil, fmt.Errorf("history: query recent: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var runs []Run
	for rows.Next() {
		run, err := scanRun(rows)
		if err != nil {
			return nil, err
		}
		runs = append(runs, run)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("history: recent rows: %w", err)
	}
	return runs, nil
}

// Prune deletes runs that finished before cutoff and returns how many were
// removed.
func (s *Store) Prune(ctx context.Context, cutoff time.Time) (int64, error) {
	res, err := s.db.ExecContext(ctx, "DELETE FROM runs WHERE finished_at < ?", formatTime(cutoff))
	if err != nil {
		return 0, fmt.Errorf("history: prune: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("history: prune rows affected: %w", err)
	}
	return n, nil
}

func scanRun(rows *sql.Rows) (Run, error) {
	var (
		run                        Run
		started, finished, nextRun string
		durationMs                 int64
	)
	if err := rows.Scan(&run.ID, &run.JobID, &run.Job, &run.Interval, &run.Unit,
		&started, &finished, &nextRun, &durationMs, &run.Status, &run.Error); err != nil {
		return Run{}, fmt.Errorf("history: scan run: %w", err)
	}

	var err error
	if run.Started, err = parseTime(started); err != nil {
		return Run{}, err
	}
	if run.Finished, err = parseTime(finished); err != nil {
		return Run{}, err
	}
	if run.NextRun, err = parseTime(nextRun); err != nil {
		return Run{}, err
	}
	run.Duration = time.Duration(durationMs) * time.Millisecond
	return run, nil
}

// Timestamps are stored as fixed-width UTC text so that string comparison
// in SQL matches chronological order.
const timeLayout = "2006-01-02T15:04:05.000000000Z"

func formatTime(t time.Time) string {
	return t.UTC().Format(timeLayout)
}

func parseTime(s string) (time.Time, error) {
	t, err := time.Parse(timeLayout, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("history: parse time %q: %w", s, err)
	}
	return t, nil
}
