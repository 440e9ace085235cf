package github_test

import (
	"testing"

	"github.com/rrowland/crit/internal/adapter/github"
	"github.com/rrowland/crit/internal/diff"
	"github.com/rrowland/crit/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func positionedAt(line int, severity string) github.PositionedFinding {
	return github.PositionedFinding{
		Finding: domain.NewFinding(domain.FindingInput{
			File:        "pkg/server.go",
			LineStart:   line,
			LineEnd:     line,
			Severity:    severity,
			Category:    "correctness",
			Description: "something is off",
		}),
		Location: diff.Location{Line: line, Exists: true, InDiff: true},
	}
}

func outOfDiffAt(line int, severity string) github.PositionedFinding {
	return github.PositionedFinding{
		Finding: domain.NewFinding(domain.FindingInput{
			File:        "pkg/server.go",
			LineStart:   line,
			Severity:    severity,
			Description: "something is off",
		}),
		Location: diff.Location{Line: line},
	}
}

func TestBuildReviewComments_SkipsOutOfDiff(t *testing.T) {
	findings := []github.PositionedFinding{
		positionedAt(11, "high"),
		outOfDiffAt(500, "low"),
	}

	comments := github.BuildReviewComments(findings)

	require.Len(t, comments, 1)
	assert.Equal(t, "pkg/server.go", comments[0].Path)
	assert.Equal(t, 11, comments[0].Line)
	assert.Equal(t, "RIGHT", comments[0].Side)
}

func TestBuildReviewComments_AdjustedNote(t *testing.T) {
	pf := positionedAt(12, "medium")
	pf.Location.Adjusted = true
	pf.Location.OriginalLine = 500

	comments := github.BuildReviewComments([]github.PositionedFinding{pf})

	require.Len(t, comments, 1)
	assert.Contains(t, comments[0].Body, "Reported on line 500")
}

func TestFormatFindingComment(t *testing.T) {
	pf := github.PositionedFinding{
		Finding: domain.NewFinding(domain.FindingInput{
			File:        "pkg/server.go",
			LineStart:   10,
			LineEnd:     12,
			Severity:    "high",
			Category:    "security",
			Description: "token logged in plaintext",
			Suggestion:  "redact before logging",
		}),
		Location: diff.Location{Line: 10, Exists: true, InDiff: true},
	}

	body := github.FormatFindingComment(pf)

	assert.Contains(t, body, "**Severity:** high")
	assert.Contains(t, body, "**Category:** security")
	assert.Contains(t, body, "Lines 10-12")
	assert.Contains(t, body, "token logged in plaintext")
	assert.Contains(t, body, "**Suggestion:** redact before logging")
	assert.NotContains(t, body, "Reported on line")
}

func TestNormalizeAction(t *testing.T) {
	tests := []struct {
		input string
		event github.ReviewEvent
		valid bool
	}{
		{"approve", github.EventApprove, true},
		{"COMMENT", github.EventComment, true},
		{"Request_Changes", github.EventRequestChanges, true},
		{"  approve  ", github.EventApprove, true},
		{"", "", false},
		{"block", "", false},
	}

	for _, tt := range tests {
		event, valid := github.NormalizeAction(tt.input)
		assert.Equal(t, tt.valid, valid, "input %q", tt.input)
		if tt.valid {
			assert.Equal(t, tt.event, event, "input %q", tt.input)
		}
	}
}

func TestDetermineReviewEvent_CleanApprovesByDefault(t *testing.T) {
	event := github.DetermineReviewEvent(nil, github.ReviewActions{})
	assert.Equal(t, github.EventApprove, event)
}

func TestDetermineReviewEvent_CleanActionConfigurable(t *testing.T) {
	event := github.DetermineReviewEvent(nil, github.ReviewActions{OnClean: "comment"})
	assert.Equal(t, github.EventComment, event)
}

func TestDetermineReviewEvent_OutOfDiffOnlyCountsAsClean(t *testing.T) {
	findings := []github.PositionedFinding{outOfDiffAt(500, "critical")}
	event := github.DetermineReviewEvent(findings, github.ReviewActions{})
	assert.Equal(t, github.EventApprove, event)
}

func TestDetermineReviewEvent_CriticalBlocksByDefault(t *testing.T) {
	findings := []github.PositionedFinding{positionedAt(11, "critical")}
	event := github.DetermineReviewEvent(findings, github.ReviewActions{})
	assert.Equal(t, github.EventRequestChanges, event)
}

func TestDetermineReviewEvent_MediumCommentsByDefault(t *testing.T) {
	findings := []github.PositionedFinding{positionedAt(11, "medium")}
	event := github.DetermineReviewEvent(findings, github.ReviewActions{})
	assert.Equal(t, github.EventComment, event)
}

func TestDetermineReviewEvent_HighDowngradedToComment(t *testing.T) {
	findings := []github.PositionedFinding{positionedAt(11, "high")}
	event := github.DetermineReviewEvent(findings, github.ReviewActions{OnHigh: "comment"})
	assert.Equal(t, github.EventComment, event)
}

func TestDetermineReviewEvent_LowEscalatedToBlock(t *testing.T) {
	findings := []github.PositionedFinding{positionedAt(11, "low")}
	event := github.DetermineReviewEvent(findings, github.ReviewActions{OnLow: "request_changes"})
	assert.Equal(t, github.EventRequestChanges, event)
}

func TestHasBlockingFindings(t *testing.T) {
	blocking := []github.PositionedFinding{positionedAt(11, "high")}
	assert.True(t, github.HasBlockingFindings(blocking, github.ReviewActions{}))

	nonBlocking := []github.PositionedFinding{positionedAt(11, "low")}
	assert.False(t, github.HasBlockingFindings(nonBlocking, github.ReviewActions{}))

	// Out-of-diff findings never block.
	outside := []github.PositionedFinding{outOfDiffAt(500, "critical")}
	assert.False(t, github.HasBlockingFindings(outside, github.ReviewActions{}))
}

func TestCountInDiffFindings(t *testing.T) {
	findings := []github.PositionedFinding{
		positionedAt(11, "high"),
		outOfDiffAt(500, "low"),
		positionedAt(12, "low"),
	}
	assert.Equal(t, 2, github.CountInDiffFindings(findings))
}
