// Package store bridges the persistence layer to the review use case.
package store

import (
	"context"

	"github.com/rrowland/crit/internal/store"
	"github.com/rrowland/crit/internal/usecase/review"
)

// Bridge adapts a store.Store to the review.Store port. Run IDs are
// generated here so the use case stays free of ID formatting.
type Bridge struct {
	store store.Store
}

// NewBridge creates a bridge around the given store.
func NewBridge(s store.Store) *Bridge {
	return &Bridge{store: s}
}

// WasReviewed reports whether the pull request head commit was already reviewed.
func (b *Bridge) WasReviewed(ctx context.Context, owner, repo string, number int, headSHA string) (bool, error) {
	return b.store.WasReviewed(ctx, owner, repo, number, headSHA)
}

// MarkReviewed records a reviewed pull request head commit.
func (b *Bridge) MarkReviewed(ctx context.Context, rec review.ReviewedRecord) error {
	return b.store.MarkReviewed(ctx, store.ReviewedPR{
		Owner:        rec.Owner,
		Repo:         rec.Repo,
		Number:       rec.Number,
		HeadSHA:      rec.HeadSHA,
		Provider:     rec.Provider,
		Model:        rec.Model,
		FindingCount: rec.FindingCount,
		ReviewedAt:   rec.ReviewedAt,
	})
}

// SaveRun records a local review execution under a fresh run ID.
func (b *Bridge) SaveRun(ctx context.Context, run review.RunRecord) error {
	return b.store.SaveRun(ctx, store.Run{
		RunID:        store.GenerateRunID(run.Timestamp, run.BaseRef, run.TargetRef),
		Repository:   run.Repository,
		BaseRef:      run.BaseRef,
		TargetRef:    run.TargetRef,
		Provider:     run.Provider,
		Model:        run.Model,
		FindingCount: run.FindingCount,
		Timestamp:    run.Timestamp,
	})
}

// Close releases the underlying store.
func (b *Bridge) Close() error {
	return b.store.Close()
}
