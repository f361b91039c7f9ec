// Package history records completed scans in a local SQLite database.
//
// History is write-only from the scanner's point of view: nothing recorded
// here is read back to speed up or alter later scans.
package history

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	_ "github.com/mattn/go-sqlite3"

	"github.com/harrison/nextaudit/internal/models"
)

// ErrRunNotFound is returned when a run id matches no recorded run
var ErrRunNotFound = errors.New("run not found")

// Run is the summary row of one recorded scan
type Run struct {
	ID             string
	Root           string
	StartedAt      time.Time
	Duration       time.Duration
	FilesFound     int
	FilesEvaluated int
	FilesSkipped   int
	WalkErrors     int
	IssueCount     int
	HighCount      int
	WarningCount   int
	InfoCount      int
}

// Store manages the scan history database
type Store struct {
	db     *sql.DB
	dbPath string
}

// NewStore opens (creating if needed) the history database at dbPath and applies migrations.
func NewStore(dbPath string) (*Store, error) {
	if dbPath != ":memory:" {
		dir := filepath.Dir(dbPath)
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("create database directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite3", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	// Every connection to :memory: is a separate database
	if dbPath == ":memory:" {
		db.SetMaxOpenConns(1)
	}

	pragmas := []string{
		"PRAGMA busy_timeout=5000", // Must be first
		"PRAGMA journal_mode=WAL",
		"PRAGMA synchronous=NORMAL",
	}
	for _, pragma := range pragmas {
		if err := execWithRetry(db, pragma, 5, 10*time.Millisecond); err != nil {
			db.Close()
			return nil, fmt.Errorf("set %s: %w", pragma, err)
		}
	}

	store := &Store{db: db, dbPath: dbPath}
	if err := store.ApplyMigrations(context.Background()); err != nil {
		db.Close()
		return nil, fmt.Errorf("apply migrations: %w", err)
	}

	return store, nil
}

// execWithRetry executes a statement with exponential backoff on lock errors.
func execWithRetry(db *sql.DB, stmt string, maxRetries int, baseDelay time.Duration) error {
	var lastErr error
	for attempt := 0; attempt < maxRetries; attempt++ {
		_, err := db.Exec(stmt)
		if err == nil {
			return nil
		}
		if !strings.Contains(err.Error(), "database is locked") {
			return err
		}
		lastErr = err
		time.Sleep(baseDelay * time.Duration(1<<attempt))
	}
	return lastErr
}

// Close closes the database connection
func (s *Store) Close() error {
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}

// RecordRun stores result and its issues. A result without a run id gets a new one.
func (s *Store) RecordRun(ctx context.Context, result *models.ScanResult) error {
	if result == nil {
		return fmt.Errorf("record run: nil result")
	}
	if result.RunID == "" {
		result.RunID = uuid.New().String()
	}

	counts := models.CountBySeverity(result.Issues)
	skipped := 0
	for _, n := range result.Stats.FilesSkipped {
		skipped += n
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx, `INSERT INTO runs
		(id, root, started_at, duration_ms, files_found, files_evaluated, files_skipped, walk_errors, issue_count, high_count, warning_count, info_count)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		result.RunID,
		result.Root,
		result.StartedAt.UTC(),
		result.Duration.Milliseconds(),
		result.Stats.FilesFound,
		result.Stats.FilesEvaluated,
		skipped,
		result.Stats.WalkErrors,
		len(result.Issues),
		counts[models.SeverityHigh],
		counts[models.SeverityWarning],
		counts[models.SeverityInfo],
	)
	if err != nil {
		return fmt.Errorf("insert run: %w", err)
	}

	stmt, err := tx.PrepareContext(ctx, `INSERT INTO run_issues (run_id, seq, rule_id, severity, message) VALUES (?, ?, ?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("prepare issue insert: %w", err)
	}
	defer stmt.Close()

	for i, issue := range result.Issues {
		if _, err := stmt.ExecContext(ctx, result.RunID, i, issue.ID, issue.Severity, issue.Message); err != nil {
			return fmt.Errorf("insert issue %d: %w", i, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit run: %w", err)
	}
	return nil
}

// ListRuns returns up to limit runs, most recent first. A limit <= 0 returns all runs.
func (s *Store) ListRuns(ctx context.Context, limit int) ([]*Run, error) {
	query := `SELECT id, root, started_at, duration_ms, files_found, files_evaluated, files_skipped, walk_errors, issue_count, high_count, warning_count, info_count
		FROM runs
		ORDER BY started_at DESC, rowid DESC`
	args := []interface{}{}
	if limit > 0 {
		query += " LIMIT ?"
		args = append(args, limit)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query runs: %w", err)
	}
	defer rows.Close()

	var runs []*Run
	for rows.Next() {
		run := &Run{}
		var durationMs int64
		if err := rows.Scan(&run.ID, &run.Root, &run.StartedAt, &durationMs,
			&run.FilesFound, &run.FilesEvaluated, &run.FilesSkipped, &run.WalkErrors,
			&run.IssueCount, &run.HighCount, &run.WarningCount, &run.InfoCount); err != nil {
			return nil, fmt.Errorf("scan run: %w", err)
		}
		run.Duration = time.Duration(durationMs) * time.Millisecond
		runs = append(runs, run)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate runs: %w", err)
	}

	return runs, nil
}

// RunIssues returns the issues of one run in the order they were recorded.
// runID may be a unique prefix of the full id.
func (s *Store) RunIssues(ctx context.Context, runID string) ([]models.Issue, error) {
	fullID, err := s.resolveRunID(ctx, runID)
	if err != nil {
		return nil, err
	}

	rows, err := s.db.QueryContext(ctx,
		`SELECT rule_id, severity, message FROM run_issues WHERE run_id = ? ORDER BY seq ASC`, fullID)
	if err != nil {
		return nil, fmt.Errorf("query issues: %w", err)
	}
	defer rows.Close()

	issues := make([]models.Issue, 0)
	for rows.Next() {
		var issue models.Issue
		if err := rows.Scan(&issue.ID, &issue.Severity, &issue.Message); err != nil {
			return nil, fmt.Errorf("scan issue: %w", err)
		}
		issues = append(issues, issue)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate issues: %w", err)
	}

	return issues, nil
}

func (s *Store) resolveRunID(ctx context.Context, prefix string) (string, error) {
	if prefix == "" {
		return "", fmt.Errorf("%w: empty id", ErrRunNotFound)
	}

	rows, err := s.db.QueryContext(ctx, `SELECT id FROM runs WHERE substr(id, 1, ?) = ? LIMIT 2`, len(prefix), prefix)
	if err != nil {
		return "", fmt.Errorf("query run id: %w", err)
	}
	defer rows.Close()

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return "", fmt.Errorf("scan run id: %w", err)
		}
		ids = append(ids, id)
	}
	if err := rows.Err(); err != nil {
		return "", fmt.Errorf("iterate run ids: %w", err)
	}

	switch len(ids) {
	case 0:
		return "", fmt.Errorf("%w: %s", ErrRunNotFound, prefix)
	case 1:
		return ids[0], nil
	default:
		return "", fmt.Errorf("run id prefix %q is ambiguous", prefix)
	}
}
