package history

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"

	"relocator/internal/relocate"
)

// Status is the terminal state of a run.
type Status string

const (
	StatusCompleted Status = "completed"
	StatusDryRun    Status = "dry_run"
	StatusTimeout   Status = "timeout"
	StatusCanceled  Status = "canceled"
	StatusFailed    Status = "failed"
)

// Run is one invocation of the relocator.
type Run struct {
	ID        string
	StartedAt time.Time
	Catalog   string
	Root      string
	DryRun    bool
	Total     int
	Relocated int
	Missing   int
	Skipped   int
	Duration  time.Duration
	Status    Status
	Error     string
}

// NewRunID returns a fresh run identifier.
func NewRunID() string {
	return uuid.NewString()
}

// Store persists runs in SQLite.
type Store struct {
	db   *sql.DB
	path string
}

// Open creates or opens the history database at path and applies migrations.
func Open(ctx context.Context, path string) (*Store, error) {
	if path == "" {
		return nil, errors.New("history path required")
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("ensure history directory: %w", err)
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite db: %w", err)
	}

	pragmas := []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA foreign_keys = ON",
		"PRAGMA busy_timeout = 5000",
	}
	for _, pragma := range pragmas {
		if _, execErr := db.ExecContext(ctx, pragma); execErr != nil {
			_ = db.Close()
			return nil, fmt.Errorf("apply pragma %q: %w", pragma, execErr)
		}
	}

	store := &Store{db: db, path: path}
	if err := store.applyMigrations(ctx); err != nil {
		_ = db.Close()
		return nil, err
	}
	return store, nil
}

// Path returns the database file path.
func (s *Store) Path() string {
	return s.path
}

// Close closes the underlying database connection.
func (s *Store) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

// RecordRun stores run and its per-record results in one transaction. A run
// without an ID is assigned one; the ID used is returned.
func (s *Store) RecordRun(ctx context.Context, run Run, results []relocate.Result) (string, error) {
	if run.ID == "" {
		run.ID = NewRunID()
	}
	if run.StartedAt.IsZero() {
		run.StartedAt = time.Now()
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return "", fmt.Errorf("begin run tx: %w", err)
	}
	defer func() {
		_ = tx.Rollback()
	}()

	_, err = tx.ExecContext(ctx, `INSERT INTO runs
        (id, started_at, catalog, root, dry_run, total, relocated, missing, skipped, duration_ms, status, error)
        VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		run.ID,
		run.StartedAt.UTC().Format(time.RFC3339Nano),
		run.Catalog,
		run.Root,
		boolToInt(run.DryRun),
		run.Total,
		run.Relocated,
		run.Missing,
		run.Skipped,
		run.Duration.Milliseconds(),
		string(run.Status),
		run.Error,
	)
	if err != nil {
		return "", fmt.Errorf("insert run: %w", err)
	}

	if len(results) > 0 {
		stmt, err := tx.PrepareContext(ctx, `INSERT INTO run_items
            (run_id, record_id, filename, kind, relative_path, location)
            VALUES (?, ?, ?, ?, ?, ?)`)
		if err != nil {
			return "", fmt.Errorf("prepare run items: %w", err)
		}
		defer stmt.Close()
		for _, r := range results {
			loc := r.NewLocation
			if r.Kind != relocate.KindRelocated {
				loc = r.SearchedPath
			}
			if _, err := stmt.ExecContext(ctx, run.ID, r.RecordID, r.Filename, r.Kind.String(), r.RelativePath, loc); err != nil {
				return "", fmt.Errorf("insert run item %s: %w", r.RecordID, err)
			}
		}
	}

	if err := tx.Commit(); err != nil {
		return "", fmt.Errorf("commit run: %w", err)
	}
	return run.ID, nil
}

// ListRuns returns the most recent runs, newest first. limit <= 0 returns all.
func (s *Store) ListRuns(ctx context.Context, limit int) ([]Run, error) {
	query := `SELECT id, started_at, catalog, root, dry_run, total, relocated, missing, skipped, duration_ms, status, error
        FROM runs ORDER BY started_at DESC, id`
	args := []any{}
	if limit > 0 {
		query += " LIMIT ?"
		args = append(args, limit)
	}
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list runs: %w", err)
	}
	defer rows.Close()

	var runs []Run
	for rows.Next() {
		var (
			run        Run
			startedAt  string
			dryRun     int
			durationMS int64
			status     string
		)
		if err := rows.Scan(&run.ID, &startedAt, &run.Catalog, &run.Root, &dryRun, &run.Total,
			&run.Relocated, &run.Missing, &run.Skipped, &durationMS, &status, &run.Error); err != nil {
			return nil, fmt.Errorf("scan run: %w", err)
		}
		if ts, err := time.Parse(time.RFC3339Nano, startedAt); err == nil {
			run.StartedAt = ts
		}
		run.DryRun = dryRun != 0
		run.Duration = time.Duration(durationMS) * time.Millisecond
		run.Status = Status(status)
		runs = append(runs, run)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate runs: %w", err)
	}
	return runs, nil
}

// Item is a stored per-record result.
type Item struct {
	RecordID     string
	Filename     string
	Kind         string
	RelativePath string
	Location     string
}

// ListItems returns the stored results of one run in record order.
func (s *Store) ListItems(ctx context.Context, runID string) ([]Item, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT record_id, filename, kind, relative_path, location
        FROM run_items WHERE run_id = ? ORDER BY rowid`, runID)
	if err != nil {
		return nil, fmt.Errorf("list run items: %w", err)
	}
	defer rows.Close()

	var items []Item
	for rows.Next() {
		var item Item
		if err := rows.Scan(&item.RecordID, &item.Filename, &item.Kind, &item.RelativePath, &item.Location); err != nil {
			return nil, fmt.Errorf("scan run item: %w", err)
		}
		items = append(items, item)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate run items: %w", err)
	}
	return items, nil
}

func boolToInt(v bool) int {
	if v {
		return 1
	}
	return 0
}
