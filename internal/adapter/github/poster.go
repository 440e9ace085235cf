package github

import (
	"context"
	"fmt"
	"strings"

	"github.com/rrowland/crit/internal/diff"
	"github.com/rrowland/crit/internal/usecase/review"
)

// dismissDisabled is the BotUsername sentinel that turns off
// auto-dismissal of stale reviews.
const dismissDisabled = "none"

// ReviewAPI is the subset of the GitHub client the poster uses.
type ReviewAPI interface {
	CreateReview(ctx context.Context, input CreateReviewInput) (*CreateReviewResponse, error)
	ListReviews(ctx context.Context, owner, repo string, pullNumber int) ([]ReviewSummary, error)
	DismissReview(ctx context.Context, owner, repo string, pullNumber int, reviewID int64, message string) (*DismissReviewResponse, error)
}

// Poster assembles and submits pull request reviews. It implements the
// review.ReviewPoster port by anchoring findings to diff lines,
// choosing the review event from finding severities, and building the
// summary body with its edge-case appendix.
type Poster struct {
	api    ReviewAPI
	logger review.Logger
}

// NewPoster creates a poster backed by the given GitHub API client.
func NewPoster(api ReviewAPI) *Poster {
	return &Poster{api: api}
}

// SetLogger enables structured logging of dismissal outcomes.
func (p *Poster) SetLogger(logger review.Logger) {
	p.logger = logger
}

// PostReview submits the review to GitHub. Findings that cannot be
// anchored to a diff line are reported in the summary appendix instead
// of as inline comments. When BotUsername is set, stale reviews from
// that user are dismissed after the new review posts.
func (p *Poster) PostReview(ctx context.Context, req review.PostRequest) (*review.PostResult, error) {
	actions := ReviewActions{
		OnCritical: req.ActionOnCritical,
		OnHigh:     req.ActionOnHigh,
		OnMedium:   req.ActionOnMedium,
		OnLow:      req.ActionOnLow,
		OnClean:    req.ActionOnClean,
	}

	positioned := MapFindings(req.Review.Findings, req.Diff)
	event := DetermineReviewEvent(positioned, actions)
	stats := diff.Analyze(diff.Parse(req.Diff.Raw))

	body := BuildProgrammaticSummary(positioned, stats, actions)
	if summary := strings.TrimSpace(req.Review.Summary); summary != "" {
		body = summary + "\n\n" + body
	}
	body = AppendSections(body, BuildSummaryAppendix(positioned, req.Diff))

	resp, err := p.api.CreateReview(ctx, CreateReviewInput{
		Owner:      req.Owner,
		Repo:       req.Repo,
		PullNumber: req.PRNumber,
		CommitSHA:  req.CommitSHA,
		Event:      event,
		Summary:    body,
		Findings:   positioned,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create review: %w", err)
	}

	posted := CountInDiffFindings(positioned)
	result := &review.PostResult{
		ReviewID:        resp.ID,
		CommentsPosted:  posted,
		CommentsSkipped: len(positioned) - posted,
		HTMLURL:         resp.HTMLURL,
	}

	if req.BotUsername != "" && req.BotUsername != dismissDisabled {
		p.dismissStaleReviews(ctx, req, resp.ID)
	}

	return result, nil
}

// dismissStaleReviews dismisses previous reviews from the bot user so
// only the newest review carries signal. Failures are logged and never
// fail the post: the new review is already live.
func (p *Poster) dismissStaleReviews(ctx context.Context, req review.PostRequest, newReviewID int64) {
	reviews, err := p.api.ListReviews(ctx, req.Owner, req.Repo, req.PRNumber)
	if err != nil {
		p.logWarning(ctx, "failed to list reviews for dismissal", map[string]interface{}{
			"prNumber": req.PRNumber,
			"error":    err.Error(),
		})
		return
	}

	for _, r := range reviews {
		if r.ID == newReviewID || r.User.Login != req.BotUsername {
			continue
		}
		if !dismissableState(r.State) {
			continue
		}

		if _, err := p.api.DismissReview(ctx, req.Owner, req.Repo, req.PRNumber, r.ID,
			"Superseded by a newer automated review."); err != nil {
			p.logWarning(ctx, "failed to dismiss stale review", map[string]interface{}{
				"prNumber": req.PRNumber,
				"reviewID": r.ID,
				"error":    err.Error(),
			})
			continue
		}

		if p.logger != nil {
			p.logger.LogInfo(ctx, "dismissed stale review", map[string]interface{}{
				"prNumber": req.PRNumber,
				"reviewID": r.ID,
			})
		}
	}
}

// dismissableState reports whether GitHub allows dismissing a review
// in the given state. COMMENTED reviews cannot be dismissed.
func dismissableState(state string) bool {
	return state == "APPROVED" || state == "CHANGES_REQUESTED"
}

func (p *Poster) logWarning(ctx context.Context, message string, fields map[string]interface{}) {
	if p.logger != nil {
		p.logger.LogWarning(ctx, message, fields)
	}
}
