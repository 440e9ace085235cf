package review

import (
	"context"
	"errors"
	"fmt"
	"log"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/rrowland/crit/internal/diff"
	"github.com/rrowland/crit/internal/domain"
	"github.com/rrowland/crit/internal/usecase/skip"
)

// defaultMaxOutputTokens sets the maximum output tokens requested from
// providers. 64K stays within the output limits of all current models
// while leaving headroom for reasoning models, which spend output
// tokens on internal reasoning before producing visible text.
const defaultMaxOutputTokens = 64000

// Deps captures the inbound dependencies for the orchestrator.
type Deps struct {
	Git           GitEngine           // Local diff source (required for ReviewLocal)
	Host          PullRequestHost     // Hosting API (required for ReviewPullRequest)
	Providers     map[string]Provider // At least one is required
	Poster        ReviewPoster        // Optional: posts reviews to pull requests
	Markdown      MarkdownWriter      // Optional: writes local report files
	Store         Store               // Optional: persistence for review history
	Logger        Logger              // Optional: structured logging
	PromptBuilder *PromptBuilder      // Auto-created if nil
	SeedGenerator SeedFunc            // Optional: deterministic provider seeds
	ContextLines  int                 // Unchanged lines kept around changes; defaults when <= 0
}

// PullRequestRequest represents an inbound request to review a hosted
// pull request.
type PullRequestRequest struct {
	Owner  string
	Repo   string
	Number int

	// Force reviews the PR even when its head commit was already reviewed.
	Force bool

	// OutputDir enables writing a Markdown report alongside posting.
	OutputDir string

	// Review action configuration, passed through to the poster.
	// Values: "approve", "comment", "request_changes" (case-insensitive).
	ActionOnCritical string
	ActionOnHigh     string
	ActionOnMedium   string
	ActionOnLow      string
	ActionOnClean    string

	// BotUsername is the bot username for auto-dismissing stale reviews.
	BotUsername string
}

// PullRequestResult captures the outcome of a pull request review.
type PullRequestResult struct {
	PullRequest  domain.PullRequest
	Skipped      bool
	Review       domain.Review
	Reviews      []domain.Review
	Stats        diff.Stats
	Posted       *PostResult
	MarkdownPath string
}

// LocalRequest represents an inbound request to review a local diff.
type LocalRequest struct {
	BaseRef            string
	TargetRef          string // Empty means the checked-out branch
	IncludeUncommitted bool
	Repository         string
	OutputDir          string
}

// LocalResult captures the outcome of a local review.
type LocalResult struct {
	TargetRef    string
	Review       domain.Review
	Reviews      []domain.Review
	Stats        diff.Stats
	MarkdownPath string
}

// Orchestrator implements the core review flow.
type Orchestrator struct {
	deps Deps
}

// NewOrchestrator wires the orchestrator dependencies.
func NewOrchestrator(deps Deps) *Orchestrator {
	if deps.PromptBuilder == nil {
		deps.PromptBuilder = NewPromptBuilder()
	}
	if deps.ContextLines <= 0 {
		deps.ContextLines = diff.DefaultContextLines
	}
	return &Orchestrator{deps: deps}
}

// ReviewPullRequest executes a review of a hosted pull request: fetch
// the diff, run providers over the changed code, post the review, and
// record the head commit as reviewed.
func (o *Orchestrator) ReviewPullRequest(ctx context.Context, req PullRequestRequest) (PullRequestResult, error) {
	if o.deps.Host == nil {
		return PullRequestResult{}, errors.New("pull request host is required")
	}
	if len(o.deps.Providers) == 0 {
		return PullRequestResult{}, errors.New("at least one provider is required")
	}
	if err := validatePullRequestRequest(req); err != nil {
		return PullRequestResult{}, err
	}

	pr, err := o.deps.Host.GetPullRequest(ctx, req.Owner, req.Repo, req.Number)
	if err != nil {
		return PullRequestResult{}, fmt.Errorf("failed to fetch pull request: %w", err)
	}

	if trigger := skip.Check(skip.CheckRequest{PRTitle: pr.Title}); trigger.ShouldSkip && !req.Force {
		o.logInfo(ctx, "skipping review due to opt-out trigger", map[string]interface{}{
			"prNumber": req.Number,
			"source":   trigger.Reason,
		})
		return PullRequestResult{PullRequest: pr, Skipped: true}, nil
	}

	if o.deps.Store != nil && !req.Force {
		reviewed, err := o.deps.Store.WasReviewed(ctx, req.Owner, req.Repo, req.Number, pr.HeadSHA)
		if err != nil {
			o.logWarning(ctx, "failed to check review history", map[string]interface{}{
				"prNumber": req.Number,
				"error":    err.Error(),
			})
		} else if reviewed {
			o.logInfo(ctx, "skipping already-reviewed head commit", map[string]interface{}{
				"prNumber": req.Number,
				"headSHA":  pr.HeadSHA,
			})
			return PullRequestResult{PullRequest: pr, Skipped: true}, nil
		}
	}

	raw, err := o.deps.Host.GetPullRequestDiff(ctx, req.Owner, req.Repo, req.Number)
	if err != nil {
		return PullRequestResult{}, fmt.Errorf("failed to fetch pull request diff: %w", err)
	}

	d := domain.Diff{
		BaseRef:   pr.BaseSHA,
		TargetRef: pr.HeadSHA,
		Raw:       raw,
	}

	changes := diff.Parse(raw)
	d.Files = fileDiffsFromChanges(changes)
	stats := diff.Analyze(changes)
	blocks := diff.ExtractContext(changes, o.deps.ContextLines)

	prompt, err := o.deps.PromptBuilder.Build(d, stats, blocks)
	if err != nil {
		return PullRequestResult{}, fmt.Errorf("prompt building failed: %w", err)
	}

	reviews, err := o.runProviders(ctx, prompt, o.seed(pr.BaseSHA, pr.HeadSHA))
	if err != nil {
		return PullRequestResult{}, err
	}
	merged := mergeReviews(reviews)

	result := PullRequestResult{
		PullRequest: pr,
		Review:      merged,
		Reviews:     reviews,
		Stats:       stats,
	}

	if o.deps.Poster != nil {
		posted, err := o.deps.Poster.PostReview(ctx, PostRequest{
			Owner:            req.Owner,
			Repo:             req.Repo,
			PRNumber:         req.Number,
			CommitSHA:        pr.HeadSHA,
			Review:           merged,
			Diff:             d,
			ActionOnCritical: req.ActionOnCritical,
			ActionOnHigh:     req.ActionOnHigh,
			ActionOnMedium:   req.ActionOnMedium,
			ActionOnLow:      req.ActionOnLow,
			ActionOnClean:    req.ActionOnClean,
			BotUsername:      req.BotUsername,
		})
		if err != nil {
			return PullRequestResult{}, fmt.Errorf("failed to post review: %w", err)
		}
		result.Posted = posted
		o.logInfo(ctx, "posted review", map[string]interface{}{
			"prNumber":        req.Number,
			"reviewID":        posted.ReviewID,
			"commentsPosted":  posted.CommentsPosted,
			"commentsSkipped": posted.CommentsSkipped,
			"url":             posted.HTMLURL,
		})
	}

	if o.deps.Markdown != nil && req.OutputDir != "" {
		path, err := o.deps.Markdown.Write(ctx, domain.MarkdownArtifact{
			OutputDir:    req.OutputDir,
			Repository:   fmt.Sprintf("%s/%s", req.Owner, req.Repo),
			BaseRef:      pr.BaseSHA,
			TargetRef:    pr.HeadSHA,
			Diff:         d,
			Review:       merged,
			ProviderName: merged.ProviderName,
		})
		if err != nil {
			return PullRequestResult{}, fmt.Errorf("markdown write failed: %w", err)
		}
		result.MarkdownPath = path
	}

	if o.deps.Store != nil {
		rec := ReviewedRecord{
			Owner:        req.Owner,
			Repo:         req.Repo,
			Number:       req.Number,
			HeadSHA:      pr.HeadSHA,
			Provider:     merged.ProviderName,
			Model:        merged.ModelName,
			FindingCount: len(merged.Findings),
			ReviewedAt:   time.Now(),
		}
		if err := o.deps.Store.MarkReviewed(ctx, rec); err != nil {
			o.logWarning(ctx, "failed to record reviewed commit", map[string]interface{}{
				"prNumber": req.Number,
				"headSHA":  pr.HeadSHA,
				"error":    err.Error(),
			})
		}
	}

	return result, nil
}

// ReviewLocal executes a review of a local git diff between two refs.
func (o *Orchestrator) ReviewLocal(ctx context.Context, req LocalRequest) (LocalResult, error) {
	if o.deps.Git == nil {
		return LocalResult{}, errors.New("git engine is required")
	}
	if len(o.deps.Providers) == 0 {
		return LocalResult{}, errors.New("at least one provider is required")
	}
	if strings.TrimSpace(req.BaseRef) == "" {
		return LocalResult{}, errors.New("base ref is required")
	}

	targetRef := strings.TrimSpace(req.TargetRef)
	if targetRef == "" {
		branch, err := o.deps.Git.CurrentBranch(ctx)
		if err != nil {
			return LocalResult{}, fmt.Errorf("failed to resolve current branch: %w", err)
		}
		targetRef = branch
	}

	d, err := o.deps.Git.GetCumulativeDiff(ctx, req.BaseRef, targetRef, req.IncludeUncommitted)
	if err != nil {
		return LocalResult{}, fmt.Errorf("failed to compute diff: %w", err)
	}

	changes := diff.Parse(d.Raw)
	stats := diff.Analyze(changes)
	blocks := diff.ExtractContext(changes, o.deps.ContextLines)

	prompt, err := o.deps.PromptBuilder.Build(d, stats, blocks)
	if err != nil {
		return LocalResult{}, fmt.Errorf("prompt building failed: %w", err)
	}

	reviews, err := o.runProviders(ctx, prompt, o.seed(req.BaseRef, targetRef))
	if err != nil {
		return LocalResult{}, err
	}
	merged := mergeReviews(reviews)

	result := LocalResult{
		TargetRef: targetRef,
		Review:    merged,
		Reviews:   reviews,
		Stats:     stats,
	}

	if o.deps.Markdown != nil && req.OutputDir != "" {
		path, err := o.deps.Markdown.Write(ctx, domain.MarkdownArtifact{
			OutputDir:    req.OutputDir,
			Repository:   req.Repository,
			BaseRef:      req.BaseRef,
			TargetRef:    targetRef,
			Diff:         d,
			Review:       merged,
			ProviderName: merged.ProviderName,
		})
		if err != nil {
			return LocalResult{}, fmt.Errorf("markdown write failed: %w", err)
		}
		result.MarkdownPath = path
	}

	if o.deps.Store != nil {
		run := RunRecord{
			Repository:   req.Repository,
			BaseRef:      req.BaseRef,
			TargetRef:    targetRef,
			Provider:     merged.ProviderName,
			Model:        merged.ModelName,
			FindingCount: len(merged.Findings),
			Timestamp:    time.Now(),
		}
		if err := o.deps.Store.SaveRun(ctx, run); err != nil {
			o.logWarning(ctx, "failed to save run record", map[string]interface{}{
				"baseRef":   req.BaseRef,
				"targetRef": targetRef,
				"error":     err.Error(),
			})
		}
	}

	return result, nil
}

// CurrentBranch returns the checked-out branch name.
func (o *Orchestrator) CurrentBranch(ctx context.Context) (string, error) {
	if o.deps.Git == nil {
		return "", errors.New("git engine is required")
	}
	return o.deps.Git.CurrentBranch(ctx)
}

// runProviders fans out the prompt to all configured providers and
// collects their reviews. Any provider failure fails the run.
func (o *Orchestrator) runProviders(ctx context.Context, prompt string, seed uint64) ([]domain.Review, error) {
	var wg sync.WaitGroup
	resultsChan := make(chan struct {
		review domain.Review
		err    error
	}, len(o.deps.Providers))

	for name, provider := range o.deps.Providers {
		wg.Add(1)
		go func(name string, provider Provider) {
			defer func() {
				if r := recover(); r != nil {
					resultsChan <- struct {
						review domain.Review
						err    error
					}{err: fmt.Errorf("provider %s panicked: %v", name, r)}
				}
				wg.Done()
			}()

			review, err := provider.Review(ctx, ProviderRequest{
				Prompt:    prompt,
				Seed:      seed,
				MaxTokens: defaultMaxOutputTokens,
			})
			if err != nil {
				resultsChan <- struct {
					review domain.Review
					err    error
				}{err: fmt.Errorf("provider %s failed: %w", name, err)}
				return
			}

			resultsChan <- struct {
				review domain.Review
				err    error
			}{review: review}
		}(name, provider)
	}

	wg.Wait()
	close(resultsChan)

	var reviews []domain.Review
	var errMsgs []string
	for res := range resultsChan {
		if res.err != nil {
			errMsgs = append(errMsgs, res.err.Error())
		} else {
			reviews = append(reviews, res.review)
		}
	}

	if len(errMsgs) > 0 {
		sort.Strings(errMsgs)
		return nil, fmt.Errorf("%d provider(s) failed: %s", len(errMsgs), strings.Join(errMsgs, "; "))
	}

	sort.Slice(reviews, func(i, j int) bool {
		return reviews[i].ProviderName < reviews[j].ProviderName
	})
	return reviews, nil
}

// mergeReviews combines provider reviews into a single review. A lone
// review passes through unchanged. Findings with the same ID collapse
// to one; the rest are ordered by file and line for stable output.
func mergeReviews(reviews []domain.Review) domain.Review {
	if len(reviews) == 0 {
		return domain.Review{ProviderName: "merged"}
	}
	if len(reviews) == 1 {
		return reviews[0]
	}

	seen := make(map[string]bool)
	var findings []domain.Finding
	var summaries []string
	for _, review := range reviews {
		if review.Summary != "" {
			summaries = append(summaries, fmt.Sprintf("**%s:** %s", review.ProviderName, review.Summary))
		}
		for _, f := range review.Findings {
			if seen[f.ID] {
				continue
			}
			seen[f.ID] = true
			findings = append(findings, f)
		}
	}

	sort.Slice(findings, func(i, j int) bool {
		if findings[i].File != findings[j].File {
			return findings[i].File < findings[j].File
		}
		if findings[i].LineStart != findings[j].LineStart {
			return findings[i].LineStart < findings[j].LineStart
		}
		return findings[i].ID < findings[j].ID
	})

	return domain.Review{
		ProviderName: "merged",
		Summary:      strings.Join(summaries, "\n\n"),
		Findings:     findings,
	}
}

// fileDiffsFromChanges maps parsed file changes onto the domain model.
func fileDiffsFromChanges(changes []diff.FileChange) []domain.FileDiff {
	if len(changes) == 0 {
		return nil
	}
	files := make([]domain.FileDiff, 0, len(changes))
	for _, fc := range changes {
		fd := domain.FileDiff{
			Path:     fc.Path,
			IsBinary: fc.IsBinary,
			Status:   domain.FileStatusModified,
		}
		switch {
		case fc.IsNew:
			fd.Status = domain.FileStatusAdded
		case fc.IsDeleted:
			fd.Status = domain.FileStatusDeleted
		case fc.IsRenamed:
			fd.Status = domain.FileStatusRenamed
			fd.OldPath = fc.OldPath
		}
		files = append(files, fd)
	}
	return files
}

func (o *Orchestrator) seed(baseRef, targetRef string) uint64 {
	if o.deps.SeedGenerator == nil {
		return 0
	}
	return o.deps.SeedGenerator(baseRef, targetRef)
}

func (o *Orchestrator) logWarning(ctx context.Context, message string, fields map[string]interface{}) {
	if o.deps.Logger != nil {
		o.deps.Logger.LogWarning(ctx, message, fields)
		return
	}
	log.Printf("warning: %s: %v\n", message, fields)
}

func (o *Orchestrator) logInfo(ctx context.Context, message string, fields map[string]interface{}) {
	if o.deps.Logger != nil {
		o.deps.Logger.LogInfo(ctx, message, fields)
	}
}

func validatePullRequestRequest(req PullRequestRequest) error {
	if strings.TrimSpace(req.Owner) == "" {
		return errors.New("owner is required")
	}
	if strings.TrimSpace(req.Repo) == "" {
		return errors.New("repo is required")
	}
	if req.Number <= 0 {
		return errors.New("pull request number must be positive")
	}
	return nil
}
