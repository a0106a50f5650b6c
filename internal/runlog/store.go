// Package runlog persists run summaries to a SQLite database so past syncs
// can be inspected with the history command.
package runlog

import (
	"context"
	"database/sql"
	_ "embed"
	"errors"
	"fmt"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"

	"absync/internal/config"
	"absync/internal/reconcile"
)

//go:embed schema.sql
var schemaSQL string

// schemaVersion is the current schema version. Bump this when the schema
// changes; an existing database with a different version is rejected.
const schemaVersion = 1

// ErrSchemaMismatch indicates the database was created by an incompatible
// version.
var ErrSchemaMismatch = errors.New("schema version mismatch")

// Store manages run-history persistence backed by SQLite.
type Store struct {
	db   *sql.DB
	path string
}

// Open initializes or connects to the run-history database under the
// configured log directory.
func Open(cfg *config.Config) (*Store, error) {
	if err := cfg.EnsureDirectories(); err != nil {
		return nil, fmt.Errorf("ensure directories: %w", err)
	}

	logDir, err := config.ExpandPath(cfg.Paths.LogDir)
	if err != nil {
		return nil, fmt.Errorf("expand log dir: %w", err)
	}

	dbPath := filepath.Join(logDir, "runs.db")
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite db: %w", err)
	}

	pragmas := []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA foreign_keys = ON",
		"PRAGMA busy_timeout = 5000",
	}
	for _, pragma := range pragmas {
		if _, execErr := db.Exec(pragma); execErr != nil {
			_ = db.Close()
			return nil, fmt.Errorf("apply pragma %q: %w", pragma, execErr)
		}
	}

	store := &Store{db: db, path: dbPath}
	if err := store.initSchema(context.Background()); err != nil {
		_ = db.Close()
		return nil, err
	}
	return store, nil
}

// Path returns the database file location.
func (s *Store) Path() string { return s.path }

func (s *Store) Close() error {
	if s.db == nil {
		return nil
	}
	return s.db.Close()
}

func (s *Store) initSchema(ctx context.Context) error {
	var tableExists int
	err := s.db.QueryRowContext(ctx,
		"SELECT COUNT(1) FROM sqlite_master WHERE type='table' AND name='schema_version'",
	).Scan(&tableExists)
	if err != nil {
		return fmt.Errorf("check schema_version table: %w", err)
	}
	if tableExists == 0 {
		if _, err := s.db.ExecContext(ctx, schemaSQL); err != nil {
			return fmt.Errorf("create schema: %w", err)
		}
		return nil
	}

	var version int
	if err := s.db.QueryRowContext(ctx, "SELECT version FROM schema_version LIMIT 1").Scan(&version); err != nil {
		return fmt.Errorf("read schema version: %w", err)
	}
	if version != schemaVersion {
		return fmt.Errorf("%w: database has version %d, expected %d (delete %s to reset)",
			ErrSchemaMismatch, version, schemaVersion, s.path)
	}
	return nil
}

// RecordRun persists one summary with all of its per-book outcomes in a
// single transaction.
func (s *Store) RecordRun(ctx context.Context, summary *reconcile.Summary) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin run tx: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	counts := summary.Counts()
	_, err = tx.ExecContext(ctx,
		`INSERT INTO runs (id, started_at, finished_at, dry_run, processed, downloaded, skipped_existing, skipped_invalid, failed)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		summary.RunID,
		summary.Started.UTC().Format(time.RFC3339Nano),
		summary.Finished.UTC().Format(time.RFC3339Nano),
		boolToInt(summary.DryRun),
		counts.Processed, counts.Downloaded, counts.SkippedExisting, counts.SkippedInvalid, counts.Failed,
	)
	if err != nil {
		return fmt.Errorf("insert run: %w", err)
	}

	for _, o := range summary.Outcomes {
		_, err = tx.ExecContext(ctx,
			`INSERT INTO run_books (run_id, book_id, title, author, path, status, reason, downloaded)
			 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
			summary.RunID, o.BookID, o.Title, o.Author, o.Path, string(o.Status), o.Reason, boolToInt(o.Downloaded),
		)
		if err != nil {
			return fmt.Errorf("insert run book %s: %w", o.BookID, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit run tx: %w", err)
	}
	return nil
}

// RecentRuns returns up to limit runs, newest first.
func (s *Store) RecentRuns(ctx context.Context, limit int) ([]RunRecord, error) {
	if limit <= 0 {
		limit = 10
	}
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, started_at, finished_at, dry_run, processed, downloaded, skipped_existing, skipped_invalid, failed
		 FROM runs ORDER BY started_at DESC LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("query runs: %w", err)
	}
	defer rows.Close()

	var records []RunRecord
	for rows.Next() {
		var (
			record            RunRecord
			started, finished string
			dryRun            int
		)
		if err := rows.Scan(&record.ID, &started, &finished, &dryRun,
			&record.Counts.Processed, &record.Counts.Downloaded,
			&record.Counts.SkippedExisting, &record.Counts.SkippedInvalid,
			&record.Counts.Failed); err != nil {
			return nil, fmt.Errorf("scan run: %w", err)
		}
		record.Started, _ = time.Parse(time.RFC3339Nano, started)
		record.Finished, _ = time.Parse(time.RFC3339Nano, finished)
		record.DryRun = dryRun != 0
		record.Counts.Total = record.Counts.Processed + record.Counts.SkippedInvalid + record.Counts.Failed
		records = append(records, record)
	}
	return records, rows.Err()
}

// RunBooks returns the per-book outcomes of one run in insertion order.
func (s *Store) RunBooks(ctx context.Context, runID string) ([]BookRecord, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT run_id, book_id, title, author, path, status, reason, downloaded
		 FROM run_books WHERE run_id = ? ORDER BY id`, runID)
	if err != nil {
		return nil, fmt.Errorf("query run books: %w", err)
	}
	defer rows.Close()

	var records []BookRecord
	for rows.Next() {
		var (
			record     BookRecord
			status     string
			downloaded int
		)
		if err := rows.Scan(&record.RunID, &record.BookID, &record.Title, &record.Author,
			&record.Path, &status, &record.Reason, &downloaded); err != nil {
			return nil, fmt.Errorf("scan run book: %w", err)
		}
		record.Status = reconcile.Status(status)
		record.Downloaded = downloaded != 0
		records = append(records, record)
	}
	return records, rows.Err()
}

func boolToInt(v bool) int {
	if v {
		return 1
	}
	return 0
}
