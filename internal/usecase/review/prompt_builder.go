package review

import (
	"bytes"
	"fmt"
	"strings"
	"text/template"

	"github.com/rrowland/crit/internal/diff"
	"github.com/rrowland/crit/internal/domain"
)

// PromptBuilder renders review prompts from changed code blocks.
// Blocks are sent instead of the raw diff so the provider sees real
// line numbers and bounded context instead of hunk headers.
type PromptBuilder struct {
	templateText string
	instructions string
	maxTokens    int
	estimate     TokenEstimator
}

// NewPromptBuilder creates a prompt builder with the default template.
func NewPromptBuilder() *PromptBuilder {
	return &PromptBuilder{
		templateText: defaultPromptTemplate(),
	}
}

// SetTemplate overrides the prompt template.
func (b *PromptBuilder) SetTemplate(templateText string) {
	b.templateText = templateText
}

// SetInstructions sets custom review instructions included in every prompt.
func (b *PromptBuilder) SetInstructions(instructions string) {
	b.instructions = instructions
}

// SetTokenLimit caps the estimated token size of rendered prompts.
// When a prompt exceeds the limit, trailing changed code blocks are
// dropped until it fits. A limit of zero disables capping.
func (b *PromptBuilder) SetTokenLimit(maxTokens int, estimate TokenEstimator) {
	b.maxTokens = maxTokens
	b.estimate = estimate
}

// promptData holds all data available to prompt templates.
type promptData struct {
	Instructions  string
	BaseRef       string
	TargetRef     string
	TotalFiles    int
	TotalAdded    int
	TotalRemoved  int
	Changes       string
	OmittedBlocks int
}

// Build renders the prompt for a parsed diff. Blocks are dropped from
// the end when the rendered prompt exceeds the token limit; the prompt
// notes how many were omitted.
func (b *PromptBuilder) Build(d domain.Diff, stats diff.Stats, blocks []diff.ChangedCodeBlock) (string, error) {
	kept := blocks
	omitted := 0

	for {
		prompt, err := b.render(d, stats, kept, omitted)
		if err != nil {
			return "", err
		}
		if b.maxTokens <= 0 || b.estimate == nil || len(kept) == 0 {
			return prompt, nil
		}
		if b.estimate(prompt) <= b.maxTokens {
			return prompt, nil
		}
		kept = kept[:len(kept)-1]
		omitted++
	}
}

func (b *PromptBuilder) render(d domain.Diff, stats diff.Stats, blocks []diff.ChangedCodeBlock, omitted int) (string, error) {
	data := promptData{
		Instructions:  b.instructions,
		BaseRef:       d.BaseRef,
		TargetRef:     d.TargetRef,
		TotalFiles:    stats.TotalFiles,
		TotalAdded:    stats.TotalAdded,
		TotalRemoved:  stats.TotalRemoved,
		Changes:       formatBlocks(blocks),
		OmittedBlocks: omitted,
	}

	tmpl, err := template.New("prompt").Parse(b.templateText)
	if err != nil {
		return "", fmt.Errorf("failed to parse prompt template: %w", err)
	}

	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, data); err != nil {
		return "", fmt.Errorf("failed to execute prompt template: %w", err)
	}

	return buf.String(), nil
}

// formatBlocks renders changed code blocks with new-file line numbers.
// Changed lines carry a ">" marker so the provider can tell changes
// from surrounding context.
func formatBlocks(blocks []diff.ChangedCodeBlock) string {
	if len(blocks) == 0 {
		return "(no reviewable changes)"
	}

	var builder strings.Builder
	for i, block := range blocks {
		if i > 0 {
			builder.WriteString("\n")
		}
		builder.WriteString(fmt.Sprintf("### %s (lines %d-%d)\n", block.Path, block.StartLine, block.EndLine))
		for _, line := range block.Lines {
			marker := " "
			if line.IsChange {
				marker = ">"
			}
			builder.WriteString(fmt.Sprintf("%s %4d | %s\n", marker, line.Number, line.Content))
		}
	}
	return builder.String()
}

// defaultPromptTemplate returns the template used when none is configured.
func defaultPromptTemplate() string {
	return `You are an expert software engineer performing a code review.
Provide actionable findings in JSON format matching the expected schema.

{{if .Instructions}}## Review Instructions
{{.Instructions}}

{{end}}## Changes to Review
Base Ref: {{.BaseRef}}
Target Ref: {{.TargetRef}}
Files Changed: {{.TotalFiles}} (+{{.TotalAdded}}/-{{.TotalRemoved}})

Lines marked ">" were changed; unmarked lines are unchanged context.
Line numbers refer to the new version of each file.

{{.Changes}}
{{if .OmittedBlocks}}
({{.OmittedBlocks}} changed region(s) omitted to fit the prompt size limit.)
{{end}}
Analyze these changes and provide structured feedback in JSON format with severity, category, file, line numbers, description, and actionable suggestions.`
}
