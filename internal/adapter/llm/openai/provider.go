package openai

import (
	"context"

	"github.com/rrowland/crit/internal/domain"
	"github.com/rrowland/crit/internal/usecase/review"
)

const providerName = "openai"

// Request is the provider-level request handed to a Client.
type Request struct {
	Model     string
	Prompt    string
	Seed      uint64
	MaxTokens int
}

// Response is the provider-level result returned by a Client.
type Response struct {
	Model    string
	Summary  string
	Findings []domain.Finding
}

// Client abstracts the transport so the Provider can be exercised
// without the real API.
type Client interface {
	CreateReview(ctx context.Context, req Request) (Response, error)
}

// Provider adapts an OpenAI client to the usecase Provider port.
type Provider struct {
	model  string
	client Client
}

// NewProvider constructs a Provider for the given model.
func NewProvider(model string, client Client) *Provider {
	return &Provider{
		model:  model,
		client: client,
	}
}

// Review requests a review from the model and normalizes the result.
// Finding IDs are regenerated so they are deterministic regardless of
// what the model returned.
func (p *Provider) Review(ctx context.Context, req review.ProviderRequest) (domain.Review, error) {
	resp, err := p.client.CreateReview(ctx, Request{
		Model:     p.model,
		Prompt:    req.Prompt,
		Seed:      req.Seed,
		MaxTokens: req.MaxTokens,
	})
	if err != nil {
		return domain.Review{}, err
	}

	findings := make([]domain.Finding, 0, len(resp.Findings))
	for _, f := range resp.Findings {
		findings = append(findings, domain.NewFinding(domain.FindingInput{
			File:        f.File,
			LineStart:   f.LineStart,
			LineEnd:     f.LineEnd,
			Severity:    f.Severity,
			Category:    f.Category,
			Description: f.Description,
			Suggestion:  f.Suggestion,
		}))
	}

	model := resp.Model
	if model == "" {
		model = p.model
	}

	return domain.Review{
		ProviderName: providerName,
		ModelName:    model,
		Summary:      resp.Summary,
		Findings:     findings,
	}, nil
}
