package store

import (
	"context"
	"time"
)

// Store defines the persistence layer interface for review history.
type Store interface {
	// Pull request tracking
	MarkReviewed(ctx context.Context, rec ReviewedPR) error
	WasReviewed(ctx context.Context, owner, repo string, number int, headSHA string) (bool, error)
	ListReviewed(ctx context.Context, owner, repo string, limit int) ([]ReviewedPR, error)

	// Local run history
	SaveRun(ctx context.Context, run Run) error
	ListRuns(ctx context.Context, limit int) ([]Run, error)

	// Utility
	Close() error
}

// ReviewedPR records that a pull request head commit has been reviewed.
// A new head SHA on the same PR counts as unreviewed.
type ReviewedPR struct {
	Owner        string
	Repo         string
	Number       int
	HeadSHA      string
	Provider     string
	Model        string
	FindingCount int
	ReviewedAt   time.Time
}

// Run represents a single local review execution.
type Run struct {
	RunID        string
	Repository   string
	BaseRef      string
	TargetRef    string
	Provider     string
	Model        string
	FindingCount int
	Timestamp    time.Time
}
