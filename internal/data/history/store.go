package history

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"
)

const (
	driverName   = "sqlite"
	maxAttempts  = 5
	defaultLimit = 50

	// Fixed-width so stored timestamps sort as text.
	timestampLayout = "2006-01-02T15:04:05.000000000Z07:00"
)

// Store persists generation runs in sqlite.
type Store struct {
	path string
	db   *sql.DB
	mu   sync.Mutex
}

func Open(path string) (*Store, error) {
	cleanPath := strings.TrimSpace(path)
	if cleanPath == "" {
		return nil, fmt.Errorf("history path must not be empty")
	}
	if info, err := os.Stat(cleanPath); err == nil && info.IsDir() {
		return nil, fmt.Errorf("history path %q is a directory, expected file", cleanPath)
	}

	dir := filepath.Dir(cleanPath)
	if dir != "" && dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("create history directory %q: %w", dir, err)
		}
	}

	// busy_timeout + WAL reduce lock conflicts during watch-mode churn.
	dsn := fmt.Sprintf("file:%s?_pragma=busy_timeout(2000)&_pragma=journal_mode(WAL)", cleanPath)
	db, err := sql.Open(driverName, dsn)
	if err != nil {
		return nil, fmt.Errorf("open sqlite history %q: %w", cleanPath, err)
	}
	db.SetMaxOpenConns(1)
	db.SetConnMaxLifetime(0)
	db.SetConnMaxIdleTime(0)

	if err := db.Ping(); err != nil {
		_ = db.Close()
		return nil, openError("ping sqlite history", cleanPath, err)
	}
	if err := EnsureSchema(db); err != nil {
		_ = db.Close()
		return nil, openError("initialize sqlite schema", cleanPath, err)
	}

	return &Store{path: cleanPath, db: db}, nil
}

func (s *Store) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

// RecordRun inserts run, assigning an ID and start time when missing.
// Re-recording an existing ID overwrites it.
func (s *Store) RecordRun(ctx context.Context, run Run) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if run.ID == "" {
		run.ID = uuid.NewString()
	}
	if run.StartedAt.IsZero() {
		run.StartedAt = time.Now().UTC()
	}
	if run.Status == "" {
		run.Status = StatusSuccess
	}

	query := `
INSERT INTO generation_runs (
  run_id, batch_id, kind, source, output, status, error, started_at_utc, duration_ms
) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
ON CONFLICT(run_id) DO UPDATE SET
  batch_id=excluded.batch_id,
  kind=excluded.kind,
  source=excluded.source,
  output=excluded.output,
  status=excluded.status,
  error=excluded.error,
  started_at_utc=excluded.started_at_utc,
  duration_ms=excluded.duration_ms
`
	return s.withRetry("record run", func() error {
		_, err := s.db.ExecContext(ctx, query,
			run.ID,
			run.BatchID,
			run.Kind,
			run.Source,
			run.Output,
			string(run.Status),
			run.Error,
			run.StartedAt.UTC().Format(timestampLayout),
			run.Duration.Milliseconds(),
		)
		return err
	})
}

// RecentRuns returns runs newest first.
func (s *Store) RecentRuns(ctx context.Context, filter Filter) ([]Run, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	base := `
SELECT run_id, batch_id, kind, source, output, status, error, started_at_utc, duration_ms
FROM generation_runs
WHERE 1=1`
	args := make([]any, 0, 4)
	if filter.Kind != "" {
		base += " AND kind = ?"
		args = append(args, filter.Kind)
	}
	if filter.Status != "" {
		base += " AND status = ?"
		args = append(args, string(filter.Status))
	}
	if !filter.Since.IsZero() {
		base += " AND started_at_utc >= ?"
		args = append(args, filter.Since.UTC().Format(timestampLayout))
	}
	limit := filter.Limit
	if limit <= 0 {
		limit = defaultLimit
	}
	base += " ORDER BY started_at_utc DESC, run_id ASC LIMIT ?"
	args = append(args, limit)

	var rows *sql.Rows
	err := s.withRetry("load runs", func() error {
		var qErr error
		rows, qErr = s.db.QueryContext(ctx, base, args...)
		return qErr
	})
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	runs := make([]Run, 0)
	for rows.Next() {
		var (
			run        Run
			status     string
			startedRaw string
			durationMS int64
		)
		if err := rows.Scan(
			&run.ID,
			&run.BatchID,
			&run.Kind,
			&run.Source,
			&run.Output,
			&status,
			&run.Error,
			&startedRaw,
			&durationMS,
		); err != nil {
			return nil, fmt.Errorf("scan run row: %w", err)
		}
		started, err := time.Parse(timestampLayout, startedRaw)
		if err != nil {
			return nil, fmt.Errorf("parse run timestamp %q: %w", startedRaw, err)
		}
		run.Status = Status(status)
		run.StartedAt = started.UTC()
		run.Duration = time.Duration(durationMS) * time.Millisecond
		runs = append(runs, run)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate run rows: %w", err)
	}
	return runs, nil
}

// Summary aggregates outcomes per kind, ordered by kind.
func (s *Store) Summary(ctx context.Context) ([]KindSummary, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	query := `
SELECT kind,
  SUM(CASE WHEN status = 'success' THEN 1 ELSE 0 END),
  SUM(CASE WHEN status = 'failed' THEN 1 ELSE 0 END),
  MAX(started_at_utc)
FROM generation_runs
GROUP BY kind
ORDER BY kind ASC`

	var rows *sql.Rows
	err := s.withRetry("summarize runs", func() error {
		var qErr error
		rows, qErr = s.db.QueryContext(ctx, query)
		return qErr
	})
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []KindSummary
	for rows.Next() {
		var (
			sum     KindSummary
			lastRaw string
		)
		if err := rows.Scan(&sum.Kind, &sum.Succeeded, &sum.Failed, &lastRaw); err != nil {
			return nil, fmt.Errorf("scan summary row: %w", err)
		}
		if last, err := time.Parse(timestampLayout, lastRaw); err == nil {
			sum.LastRun = last.UTC()
		}
		out = append(out, sum)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate summary rows: %w", err)
	}
	return out, nil
}

func (s *Store) withRetry(op string, fn func() error) error {
	var lastErr error
	for attempt := 1; attempt <= maxAttempts; attempt++ {
		err := fn()
		if err == nil {
			return nil
		}
		lastErr = err
		if !isLockError(err) || attempt == maxAttempts {
			break
		}
		time.Sleep(time.Duration(attempt*25) * time.Millisecond)
	}
	return fmt.Errorf("%s: %w", op, lastErr)
}

func isLockError(err error) bool {
	if err == nil {
		return false
	}
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "database is locked") || strings.Contains(msg, "busy")
}

func (s *Store) Path() string {
	if s == nil {
		return ""
	}
	return s.path
}

func openError(op, path string, err error) error {
	if IsCorruptError(err) {
		return fmt.Errorf("history database %q is corrupt; remove it to start a new history: %w", path, err)
	}
	return fmt.Errorf("%s %q: %w", op, path, err)
}

func IsCorruptError(err error) bool {
	if err == nil {
		return false
	}
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "malformed") || strings.Contains(msg, "not a database") || errors.Is(err, os.ErrInvalid)
}
