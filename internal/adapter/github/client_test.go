package github_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/rrowland/crit/internal/adapter/github"
	llmhttp "github.com/rrowland/crit/internal/adapter/llm/http"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestClient(serverURL string) *github.Client {
	client := github.NewClient("test-token")
	client.SetBaseURL(serverURL)
	client.SetMaxRetries(1)
	client.SetInitialBackoff(time.Millisecond)
	return client
}

func TestCreateReview_Success(t *testing.T) {
	var gotPath string
	var gotBody github.CreateReviewRequest
	var gotHeaders http.Header

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotHeaders = r.Header
		require.NoError(t, json.NewDecoder(r.Body).Decode(&gotBody))

		w.WriteHeader(http.StatusOK)
		json.NewEncoder(w).Encode(github.CreateReviewResponse{
			ID:    42,
			State: "COMMENTED",
		})
	}))
	defer server.Close()

	client := newTestClient(server.URL)

	resp, err := client.CreateReview(context.Background(), github.CreateReviewInput{
		Owner:      "octocat",
		Repo:       "hello-world",
		PullNumber: 7,
		CommitSHA:  "abc123",
		Event:      github.EventComment,
		Summary:    "looks mostly fine",
		Findings: []github.PositionedFinding{
			positionedAt(11, "medium"),
		},
	})

	require.NoError(t, err)
	assert.Equal(t, int64(42), resp.ID)
	assert.Equal(t, "COMMENTED", resp.State)

	assert.Equal(t, "/repos/octocat/hello-world/pulls/7/reviews", gotPath)
	assert.Equal(t, "Bearer test-token", gotHeaders.Get("Authorization"))
	assert.Equal(t, "application/vnd.github+json", gotHeaders.Get("Accept"))
	assert.Equal(t, "2022-11-28", gotHeaders.Get("X-GitHub-Api-Version"))

	assert.Equal(t, "abc123", gotBody.CommitID)
	assert.Equal(t, github.EventComment, gotBody.Event)
	require.Len(t, gotBody.Comments, 1)
	assert.Equal(t, "pkg/server.go", gotBody.Comments[0].Path)
	assert.Equal(t, 11, gotBody.Comments[0].Line)
	assert.Equal(t, "RIGHT", gotBody.Comments[0].Side)
}

func TestCreateReview_ValidationErrorNotRetried(t *testing.T) {
	attempts := 0
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		attempts++
		w.WriteHeader(http.StatusUnprocessableEntity)
		w.Write([]byte(`{"message": "Validation Failed"}`))
	}))
	defer server.Close()

	client := newTestClient(server.URL)

	_, err := client.CreateReview(context.Background(), github.CreateReviewInput{
		Owner: "octocat", Repo: "hello-world", PullNumber: 7,
		CommitSHA: "abc123", Event: github.EventComment,
	})

	require.Error(t, err)
	var apiErr *llmhttp.Error
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, llmhttp.ErrTypeInvalidRequest, apiErr.Type)
	assert.Equal(t, 1, attempts)
}

func TestCreateReview_RetriesServerErrors(t *testing.T) {
	attempts := 0
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		attempts++
		if attempts == 1 {
			w.WriteHeader(http.StatusBadGateway)
			return
		}
		json.NewEncoder(w).Encode(github.CreateReviewResponse{ID: 1, State: "APPROVED"})
	}))
	defer server.Close()

	client := newTestClient(server.URL)

	resp, err := client.CreateReview(context.Background(), github.CreateReviewInput{
		Owner: "octocat", Repo: "hello-world", PullNumber: 7,
		CommitSHA: "abc123", Event: github.EventApprove,
	})

	require.NoError(t, err)
	assert.Equal(t, 2, attempts)
	assert.Equal(t, "APPROVED", resp.State)
}

func TestGetPullRequest(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/repos/octocat/hello-world/pulls/7", r.URL.Path)
		assert.Equal(t, "application/vnd.github+json", r.Header.Get("Accept"))

		w.Write([]byte(`{
			"number": 7,
			"title": "Add retry support",
			"head": {"sha": "feedface", "ref": "feature/retries"},
			"base": {"sha": "cafebabe", "ref": "main"}
		}`))
	}))
	defer server.Close()

	client := newTestClient(server.URL)

	pr, err := client.GetPullRequest(context.Background(), "octocat", "hello-world", 7)

	require.NoError(t, err)
	assert.Equal(t, "octocat", pr.Owner)
	assert.Equal(t, "hello-world", pr.Repo)
	assert.Equal(t, 7, pr.Number)
	assert.Equal(t, "Add retry support", pr.Title)
	assert.Equal(t, "feedface", pr.HeadSHA)
	assert.Equal(t, "cafebabe", pr.BaseSHA)
}

func TestGetPullRequestDiff(t *testing.T) {
	rawDiff := "diff --git a/main.go b/main.go\n--- a/main.go\n+++ b/main.go\n@@ -1 +1,2 @@\n package main\n+// hello\n"

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/repos/octocat/hello-world/pulls/7", r.URL.Path)
		assert.Equal(t, "application/vnd.github.diff", r.Header.Get("Accept"))
		w.Write([]byte(rawDiff))
	}))
	defer server.Close()

	client := newTestClient(server.URL)

	diffText, err := client.GetPullRequestDiff(context.Background(), "octocat", "hello-world", 7)

	require.NoError(t, err)
	assert.Equal(t, rawDiff, diffText)
}

func TestGetPullRequestDiff_NotFound(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
		w.Write([]byte(`{"message": "Not Found"}`))
	}))
	defer server.Close()

	client := newTestClient(server.URL)

	_, err := client.GetPullRequestDiff(context.Background(), "octocat", "hello-world", 999)

	require.Error(t, err)
	var apiErr *llmhttp.Error
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, llmhttp.ErrTypeInvalidRequest, apiErr.Type)
	assert.Equal(t, http.StatusNotFound, apiErr.StatusCode)
}

func TestListReviews(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/repos/octocat/hello-world/pulls/7/reviews", r.URL.Path)
		assert.Equal(t, "GET", r.Method)

		w.Write([]byte(`[
			{"id": 1, "state": "COMMENTED", "user": {"login": "github-actions[bot]", "type": "Bot"}},
			{"id": 2, "state": "APPROVED", "user": {"login": "octocat", "type": "User"}}
		]`))
	}))
	defer server.Close()

	client := newTestClient(server.URL)

	reviews, err := client.ListReviews(context.Background(), "octocat", "hello-world", 7)

	require.NoError(t, err)
	require.Len(t, reviews, 2)
	assert.Equal(t, int64(1), reviews[0].ID)
	assert.Equal(t, "github-actions[bot]", reviews[0].User.Login)
	assert.Equal(t, "APPROVED", reviews[1].State)
}

func TestDismissReview(t *testing.T) {
	var gotBody github.DismissReviewRequest

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/repos/octocat/hello-world/pulls/7/reviews/42/dismissals", r.URL.Path)
		assert.Equal(t, "PUT", r.Method)
		require.NoError(t, json.NewDecoder(r.Body).Decode(&gotBody))

		json.NewEncoder(w).Encode(github.DismissReviewResponse{ID: 42, State: "DISMISSED"})
	}))
	defer server.Close()

	client := newTestClient(server.URL)

	resp, err := client.DismissReview(context.Background(), "octocat", "hello-world", 7, 42, "superseded by newer review")

	require.NoError(t, err)
	assert.Equal(t, "DISMISSED", resp.State)
	assert.Equal(t, "superseded by newer review", gotBody.Message)
}
