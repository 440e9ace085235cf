package review

import (
	"context"
	"time"

	"github.com/rrowland/crit/internal/domain"
)

// Provider defines the outbound port for LLM reviews.
type Provider interface {
	Review(ctx context.Context, req ProviderRequest) (domain.Review, error)
}

// ProviderRequest describes the payload the LLM provider expects.
type ProviderRequest struct {
	Prompt    string
	Seed      uint64
	MaxTokens int
}

// GitEngine abstracts local git operations for code review.
type GitEngine interface {
	// GetCumulativeDiff returns the diff between two refs (branches or commits).
	GetCumulativeDiff(ctx context.Context, baseRef, targetRef string, includeUncommitted bool) (domain.Diff, error)

	// CurrentBranch returns the name of the checked-out branch.
	CurrentBranch(ctx context.Context) (string, error)
}

// PullRequestHost defines the outbound port for fetching pull request
// metadata and diffs from a hosting service.
type PullRequestHost interface {
	GetPullRequest(ctx context.Context, owner, repo string, number int) (domain.PullRequest, error)
	GetPullRequestDiff(ctx context.Context, owner, repo string, number int) (string, error)
}

// ReviewPoster defines the outbound port for posting reviews to pull requests.
type ReviewPoster interface {
	PostReview(ctx context.Context, req PostRequest) (*PostResult, error)
}

// PostRequest contains all data needed to post a review to a pull request.
type PostRequest struct {
	Owner     string
	Repo      string
	PRNumber  int
	CommitSHA string
	Review    domain.Review
	Diff      domain.Diff // For anchoring inline comments

	// Review action per severity level. Empty values use sensible defaults.
	// Values: "approve", "comment", "request_changes" (case-insensitive).
	ActionOnCritical string
	ActionOnHigh     string
	ActionOnMedium   string
	ActionOnLow      string
	ActionOnClean    string

	// BotUsername is the bot username for auto-dismissing stale reviews.
	// If set, previous reviews from this user are dismissed AFTER the new
	// review posts successfully. This ensures the PR always has review signal.
	BotUsername string
}

// PostResult contains the result of posting a review.
type PostResult struct {
	ReviewID        int64
	CommentsPosted  int
	CommentsSkipped int
	HTMLURL         string
}

// MarkdownWriter persists provider output to disk.
type MarkdownWriter interface {
	Write(ctx context.Context, artifact domain.MarkdownArtifact) (string, error)
}

// Store defines the outbound port for persisting review history.
type Store interface {
	// WasReviewed reports whether the given head commit of a pull request
	// has already been reviewed. A new head SHA counts as unreviewed.
	WasReviewed(ctx context.Context, owner, repo string, number int, headSHA string) (bool, error)

	// MarkReviewed records that a pull request head commit was reviewed.
	MarkReviewed(ctx context.Context, rec ReviewedRecord) error

	// SaveRun records a local review execution.
	SaveRun(ctx context.Context, run RunRecord) error
}

// ReviewedRecord captures a reviewed pull request head commit.
type ReviewedRecord struct {
	Owner        string
	Repo         string
	Number       int
	HeadSHA      string
	Provider     string
	Model        string
	FindingCount int
	ReviewedAt   time.Time
}

// RunRecord captures a local review execution.
type RunRecord struct {
	Repository   string
	BaseRef      string
	TargetRef    string
	Provider     string
	Model        string
	FindingCount int
	Timestamp    time.Time
}

// SeedFunc generates deterministic seeds per review scope.
type SeedFunc func(baseRef, targetRef string) uint64

// TokenEstimator returns the estimated token count of a prompt. Used to
// cap the amount of changed code sent to a provider.
type TokenEstimator func(text string) int
