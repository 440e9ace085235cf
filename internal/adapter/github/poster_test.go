package github_test

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rrowland/crit/internal/adapter/github"
	"github.com/rrowland/crit/internal/domain"
	"github.com/rrowland/crit/internal/usecase/review"
)

type stubReviewAPI struct {
	createResp  *github.CreateReviewResponse
	createErr   error
	createInput github.CreateReviewInput

	listResp []github.ReviewSummary
	listErr  error
	listed   int

	dismissed  []int64
	dismissErr error
}

func (s *stubReviewAPI) CreateReview(ctx context.Context, input github.CreateReviewInput) (*github.CreateReviewResponse, error) {
	s.createInput = input
	if s.createErr != nil {
		return nil, s.createErr
	}
	return s.createResp, nil
}

func (s *stubReviewAPI) ListReviews(ctx context.Context, owner, repo string, pullNumber int) ([]github.ReviewSummary, error) {
	s.listed++
	if s.listErr != nil {
		return nil, s.listErr
	}
	return s.listResp, nil
}

func (s *stubReviewAPI) DismissReview(ctx context.Context, owner, repo string, pullNumber int, reviewID int64, message string) (*github.DismissReviewResponse, error) {
	if s.dismissErr != nil {
		return nil, s.dismissErr
	}
	s.dismissed = append(s.dismissed, reviewID)
	return &github.DismissReviewResponse{ID: reviewID, State: "DISMISSED"}, nil
}

func samplePostRequest() review.PostRequest {
	return review.PostRequest{
		Owner:     "octocat",
		Repo:      "hello",
		PRNumber:  42,
		CommitSHA: "abc123",
		Review: domain.Review{
			ProviderName: "openai",
			ModelName:    "test-model",
			Summary:      "One concern about the new line.",
			Findings: []domain.Finding{
				domain.NewFinding(domain.FindingInput{
					File:        "pkg/server.go",
					LineStart:   11,
					LineEnd:     11,
					Severity:    "high",
					Category:    "correctness",
					Description: "Unchecked addition",
				}),
			},
		},
		Diff: sampleDomainDiff(),
	}
}

func TestPosterPostReview(t *testing.T) {
	api := &stubReviewAPI{
		createResp: &github.CreateReviewResponse{
			ID:      100,
			HTMLURL: "https://github.com/octocat/hello/pull/42#pullrequestreview-100",
		},
	}
	poster := github.NewPoster(api)

	result, err := poster.PostReview(context.Background(), samplePostRequest())
	require.NoError(t, err)

	assert.Equal(t, int64(100), result.ReviewID)
	assert.Equal(t, 1, result.CommentsPosted)
	assert.Equal(t, 0, result.CommentsSkipped)
	assert.Contains(t, result.HTMLURL, "pullrequestreview-100")

	// High severity blocks by default.
	assert.Equal(t, github.EventRequestChanges, api.createInput.Event)
	assert.Equal(t, "abc123", api.createInput.CommitSHA)
	require.Len(t, api.createInput.Findings, 1)
	assert.True(t, api.createInput.Findings[0].InDiff())

	// Provider summary leads, the stats summary follows.
	assert.Contains(t, api.createInput.Summary, "One concern about the new line.")
	assert.Contains(t, api.createInput.Summary, "Reviewed 2 files")
}

func TestPosterPostReviewOutOfDiffFindingSkipped(t *testing.T) {
	api := &stubReviewAPI{createResp: &github.CreateReviewResponse{ID: 101}}
	poster := github.NewPoster(api)

	req := samplePostRequest()
	req.Review.Findings = append(req.Review.Findings, domain.NewFinding(domain.FindingInput{
		File:        "pkg/missing.go",
		LineStart:   7,
		LineEnd:     7,
		Severity:    "low",
		Category:    "style",
		Description: "Stray naming nit",
	}))

	result, err := poster.PostReview(context.Background(), req)
	require.NoError(t, err)

	assert.Equal(t, 1, result.CommentsPosted)
	assert.Equal(t, 1, result.CommentsSkipped)

	// The unanchorable finding surfaces in the summary appendix.
	assert.Contains(t, api.createInput.Summary, "pkg/missing.go")
}

func TestPosterPostReviewCreateFailure(t *testing.T) {
	api := &stubReviewAPI{createErr: errors.New("422 unprocessable")}
	poster := github.NewPoster(api)

	_, err := poster.PostReview(context.Background(), samplePostRequest())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to create review")
}

func TestPosterDismissesStaleReviews(t *testing.T) {
	api := &stubReviewAPI{
		createResp: &github.CreateReviewResponse{ID: 200},
		listResp: []github.ReviewSummary{
			{ID: 50, User: github.User{Login: "crit[bot]"}, State: "CHANGES_REQUESTED"},
			{ID: 51, User: github.User{Login: "crit[bot]"}, State: "COMMENTED"},
			{ID: 52, User: github.User{Login: "human-reviewer"}, State: "APPROVED"},
			{ID: 200, User: github.User{Login: "crit[bot]"}, State: "CHANGES_REQUESTED"},
		},
	}
	poster := github.NewPoster(api)

	req := samplePostRequest()
	req.BotUsername = "crit[bot]"

	_, err := poster.PostReview(context.Background(), req)
	require.NoError(t, err)

	// Only the stale dismissable bot review goes: COMMENTED cannot be
	// dismissed, other users are untouched, and the new review stays.
	assert.Equal(t, []int64{50}, api.dismissed)
}

func TestPosterDismissalDisabled(t *testing.T) {
	api := &stubReviewAPI{createResp: &github.CreateReviewResponse{ID: 201}}
	poster := github.NewPoster(api)

	req := samplePostRequest()
	req.BotUsername = "none"

	_, err := poster.PostReview(context.Background(), req)
	require.NoError(t, err)
	assert.Equal(t, 0, api.listed)
}

func TestPosterDismissalFailureDoesNotFailPost(t *testing.T) {
	api := &stubReviewAPI{
		createResp: &github.CreateReviewResponse{ID: 202},
		listErr:    errors.New("rate limited"),
	}
	poster := github.NewPoster(api)

	req := samplePostRequest()
	req.BotUsername = "crit[bot]"

	result, err := poster.PostReview(context.Background(), req)
	require.NoError(t, err)
	assert.Equal(t, int64(202), result.ReviewID)
}
