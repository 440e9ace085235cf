package skip_test

import (
	"testing"

	"github.com/rrowland/crit/internal/usecase/skip"
)

func TestContainsTrigger(t *testing.T) {
	tests := []struct {
		name     string
		text     string
		expected bool
	}{
		{
			name:     "space format",
			text:     "[skip review]",
			expected: true,
		},
		{
			name:     "space format in commit message",
			text:     "fix: update README [skip review]",
			expected: true,
		},
		{
			name:     "hyphen format",
			text:     "[skip-review]",
			expected: true,
		},
		{
			name:     "tool name format",
			text:     "chore: vendor bump [skip crit]",
			expected: true,
		},
		{
			name:     "tool name hyphen format",
			text:     "[skip-crit] WIP",
			expected: true,
		},
		{
			name:     "uppercase",
			text:     "[SKIP REVIEW]",
			expected: true,
		},
		{
			name:     "mixed case",
			text:     "[Skip-Review]",
			expected: true,
		},
		{
			name:     "multiline with trigger in middle",
			text:     "## Description\n\nThis is a WIP PR.\n\n[skip review]\n\n## Changes",
			expected: true,
		},
		{
			name:     "no trigger",
			text:     "fix: update tests",
			expected: false,
		},
		{
			name:     "empty string",
			text:     "",
			expected: false,
		},
		{
			name:     "missing brackets",
			text:     "skip review",
			expected: false,
		},
		{
			name:     "only opening bracket",
			text:     "[skip review",
			expected: false,
		},
		{
			name:     "different ci trigger",
			text:     "[skip ci]",
			expected: false,
		},
		{
			name:     "typo without separator",
			text:     "[skipreview]",
			expected: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := skip.ContainsTrigger(tt.text)
			if result != tt.expected {
				t.Errorf("ContainsTrigger(%q) = %v, want %v", tt.text, result, tt.expected)
			}
		})
	}
}

func TestCheck(t *testing.T) {
	tests := []struct {
		name           string
		request        skip.CheckRequest
		expectedSkip   bool
		expectedReason string
	}{
		{
			name: "skip from commit message",
			request: skip.CheckRequest{
				CommitMessages: []string{"feat: add new feature [skip review]"},
			},
			expectedSkip:   true,
			expectedReason: "commit message",
		},
		{
			name: "skip from later commit message",
			request: skip.CheckRequest{
				CommitMessages: []string{
					"feat: initial work",
					"fix: follow up [skip-review]",
				},
			},
			expectedSkip:   true,
			expectedReason: "commit message",
		},
		{
			name: "skip from PR title",
			request: skip.CheckRequest{
				PRTitle: "WIP: Draft feature [skip review]",
			},
			expectedSkip:   true,
			expectedReason: "PR title",
		},
		{
			name: "skip from PR description",
			request: skip.CheckRequest{
				PRDescription: "## WIP\n\n[skip crit]\n\nNot ready yet.",
			},
			expectedSkip:   true,
			expectedReason: "PR description",
		},
		{
			name: "commit message takes precedence",
			request: skip.CheckRequest{
				CommitMessages: []string{"[skip review]"},
				PRDescription:  "[skip review]",
			},
			expectedSkip:   true,
			expectedReason: "commit message",
		},
		{
			name: "no trigger anywhere",
			request: skip.CheckRequest{
				CommitMessages: []string{"feat: add feature"},
				PRTitle:        "Add feature",
				PRDescription:  "This is a normal PR",
			},
			expectedSkip: false,
		},
		{
			name:         "empty request",
			request:      skip.CheckRequest{},
			expectedSkip: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := skip.Check(tt.request)
			if result.ShouldSkip != tt.expectedSkip {
				t.Errorf("Check() ShouldSkip = %v, want %v", result.ShouldSkip, tt.expectedSkip)
			}
			if result.Reason != tt.expectedReason {
				t.Errorf("Check() Reason = %q, want %q", result.Reason, tt.expectedReason)
			}
		})
	}
}
