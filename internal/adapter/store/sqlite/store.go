package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/rrowland/crit/internal/store"
	_ "github.com/mattn/go-sqlite3"
)

// Store implements the store.Store interface using SQLite.
type Store struct {
	db *sql.DB
}

// NewStore creates a new SQLite store at the given path.
// Use ":memory:" for in-memory database (useful for testing).
func NewStore(dbPath string) (*Store, error) {
	db, err := sql.Open("sqlite3", dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// Enable foreign keys
	if _, err := db.Exec("PRAGMA foreign_keys = ON"); err != nil {
		return nil, fmt.Errorf("failed to enable foreign keys: %w", err)
	}

	s := &Store{db: db}

	if err := s.createSchema(); err != nil {
		return nil, fmt.Errorf("failed to create schema: %w", err)
	}

	return s, nil
}

// createSchema creates all tables and indexes if they don't exist.
func (s *Store) createSchema() error {
	schema := `
	-- Pull request head commits that have already been reviewed
	CREATE TABLE IF NOT EXISTS reviewed_prs (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		owner TEXT NOT NULL,
		repo TEXT NOT NULL,
		pr_number INTEGER NOT NULL,
		head_sha TEXT NOT NULL,
		provider TEXT NOT NULL,
		model TEXT NOT NULL,
		finding_count INTEGER NOT NULL DEFAULT 0,
		reviewed_at INTEGER NOT NULL,
		UNIQUE(owner, repo, pr_number, head_sha)
	);

	-- History of local (branch-to-branch) review runs
	CREATE TABLE IF NOT EXISTS runs (
		run_id TEXT PRIMARY KEY,
		repository TEXT NOT NULL,
		base_ref TEXT NOT NULL,
		target_ref TEXT NOT NULL,
		provider TEXT NOT NULL,
		model TEXT NOT NULL,
		finding_count INTEGER NOT NULL DEFAULT 0,
		timestamp INTEGER NOT NULL
	);

	-- Indexes for performance
	CREATE INDEX IF NOT EXISTS idx_reviewed_prs_lookup ON reviewed_prs(owner, repo, pr_number, head_sha);
	CREATE INDEX IF NOT EXISTS idx_reviewed_prs_recent ON reviewed_prs(owner, repo, reviewed_at DESC);
	CREATE INDEX IF NOT EXISTS idx_runs_timestamp ON runs(timestamp DESC);
	`

	_, err := s.db.Exec(schema)
	return err
}

// MarkReviewed records that a PR head commit has been reviewed. Marking
// the same head again refreshes the record instead of failing.
func (s *Store) MarkReviewed(ctx context.Context, rec store.ReviewedPR) error {
	query := `
		INSERT INTO reviewed_prs (owner, repo, pr_number, head_sha, provider, model, finding_count, reviewed_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(owner, repo, pr_number, head_sha) DO UPDATE SET
			provider = excluded.provider,
			model = excluded.model,
			finding_count = excluded.finding_count,
			reviewed_at = excluded.reviewed_at
	`

	_, err := s.db.ExecContext(ctx, query,
		rec.Owner,
		rec.Repo,
		rec.Number,
		rec.HeadSHA,
		rec.Provider,
		rec.Model,
		rec.FindingCount,
		rec.ReviewedAt.Unix(),
	)

	if err != nil {
		return fmt.Errorf("failed to mark reviewed: %w", err)
	}

	return nil
}

// WasReviewed reports whether the given PR head commit has a review record.
func (s *Store) WasReviewed(ctx context.Context, owner, repo string, number int, headSHA string) (bool, error) {
	query := `
		SELECT 1 FROM reviewed_prs
		WHERE owner = ? AND repo = ? AND pr_number = ? AND head_sha = ?
	`

	var one int
	err := s.db.QueryRowContext(ctx, query, owner, repo, number, headSHA).Scan(&one)
	if err == sql.ErrNoRows {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("failed to query reviewed state: %w", err)
	}

	return true, nil
}

// ListReviewed retrieves the most recent review records for a repository,
// newest first, limited by the given count.
func (s *Store) ListReviewed(ctx context.Context, owner, repo string, limit int) ([]store.ReviewedPR, error) {
	query := `
		SELECT owner, repo, pr_number, head_sha, provider, model, finding_count, reviewed_at
		FROM reviewed_prs
		WHERE owner = ? AND repo = ?
		ORDER BY reviewed_at DESC
		LIMIT ?
	`

	rows, err := s.db.QueryContext(ctx, query, owner, repo, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list reviewed PRs: %w", err)
	}
	defer rows.Close()

	var records []store.ReviewedPR
	for rows.Next() {
		var rec store.ReviewedPR
		var reviewedAt int64

		if err := rows.Scan(
			&rec.Owner,
			&rec.Repo,
			&rec.Number,
			&rec.HeadSHA,
			&rec.Provider,
			&rec.Model,
			&rec.FindingCount,
			&reviewedAt,
		); err != nil {
			return nil, fmt.Errorf("failed to scan reviewed PR: %w", err)
		}

		rec.ReviewedAt = time.Unix(reviewedAt, 0)
		records = append(records, rec)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating reviewed PRs: %w", err)
	}

	return records, nil
}

// SaveRun stores a local review run record.
func (s *Store) SaveRun(ctx context.Context, run store.Run) error {
	query := `
		INSERT INTO runs (run_id, repository, base_ref, target_ref, provider, model, finding_count, timestamp)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`

	_, err := s.db.ExecContext(ctx, query,
		run.RunID,
		run.Repository,
		run.BaseRef,
		run.TargetRef,
		run.Provider,
		run.Model,
		run.FindingCount,
		run.Timestamp.Unix(),
	)

	if err != nil {
		return fmt.Errorf("failed to save run: %w", err)
	}

	return nil
}

// ListRuns retrieves the most recent runs, limited by the given count.
func (s *Store) ListRuns(ctx context.Context, limit int) ([]store.Run, error) {
	query := `
		SELECT run_id, repository, base_ref, target_ref, provider, model, finding_count, timestamp
		FROM runs
		ORDER BY timestamp DESC
		LIMIT ?
	`

	rows, err := s.db.QueryContext(ctx, query, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list runs: %w", err)
	}
	defer rows.Close()

	var runs []store.Run
	for rows.Next() {
		var run store.Run
		var timestamp int64

		if err := rows.Scan(
			&run.RunID,
			&run.Repository,
			&run.BaseRef,
			&run.TargetRef,
			&run.Provider,
			&run.Model,
			&run.FindingCount,
			&timestamp,
		); err != nil {
			return nil, fmt.Errorf("failed to scan run: %w", err)
		}

		run.Timestamp = time.Unix(timestamp, 0)
		runs = append(runs, run)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating runs: %w", err)
	}

	return runs, nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}
