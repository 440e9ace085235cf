package github

import (
	"fmt"
	"strings"
)

// commentSideRight anchors inline comments to the new version of the file.
const commentSideRight = "RIGHT"

// ReviewActions maps finding severities to review events. Values are the
// lowercase action names "approve", "comment", and "request_changes";
// empty fields fall back to the defaults (critical and high block,
// medium and low comment, a clean review approves).
type ReviewActions struct {
	OnCritical string
	OnHigh     string
	OnMedium   string
	OnLow      string
	OnClean    string
}

// NormalizeAction parses a configured action name into a ReviewEvent.
// Matching is case-insensitive; the second return value reports whether
// the name was recognized.
func NormalizeAction(action string) (ReviewEvent, bool) {
	switch strings.ToLower(strings.TrimSpace(action)) {
	case "approve":
		return EventApprove, true
	case "comment":
		return EventComment, true
	case "request_changes":
		return EventRequestChanges, true
	default:
		return "", false
	}
}

// BuildReviewComments converts positioned findings to GitHub review
// comments. Only findings with a resolvable diff location (InDiff() ==
// true) are included. This function is pure and does not modify the
// input.
func BuildReviewComments(findings []PositionedFinding) []ReviewComment {
	var comments []ReviewComment

	for _, pf := range findings {
		if !pf.InDiff() {
			continue
		}

		comments = append(comments, ReviewComment{
			Path: pf.Finding.File,
			Line: pf.Location.Line,
			Side: commentSideRight,
			Body: FormatFindingComment(pf),
		})
	}

	return comments
}

// FormatFindingComment formats a positioned finding as a GitHub-flavored
// Markdown comment. Adjusted anchors get a note naming the line the
// finding was originally reported on.
func FormatFindingComment(pf PositionedFinding) string {
	f := pf.Finding
	var sb strings.Builder

	// Header with severity and category
	sb.WriteString(fmt.Sprintf("**Severity:** %s", f.Severity))
	if f.Category != "" {
		sb.WriteString(fmt.Sprintf(" | **Category:** %s", f.Category))
	}
	sb.WriteString("\n\n")

	// Line reference
	if f.LineStart == f.LineEnd || f.LineEnd == 0 {
		sb.WriteString(fmt.Sprintf("📍 Line %d\n\n", f.LineStart))
	} else {
		sb.WriteString(fmt.Sprintf("📍 Lines %d-%d\n\n", f.LineStart, f.LineEnd))
	}

	// Description
	sb.WriteString(f.Description)
	sb.WriteString("\n")

	// Suggestion if present
	if f.Suggestion != "" {
		sb.WriteString("\n**Suggestion:** ")
		sb.WriteString(f.Suggestion)
		sb.WriteString("\n")
	}

	if pf.Adjusted() {
		sb.WriteString(fmt.Sprintf(
			"\n_Reported on line %d, which is not part of this diff; anchored to the nearest changed line._\n",
			pf.Location.OriginalLine))
	}

	return sb.String()
}

// DetermineReviewEvent picks the review event from the configured
// severity actions:
//   - the OnClean action (default APPROVE) when no findings are in the diff
//   - EventRequestChanges when any in-diff finding's severity is
//     configured to block
//   - EventComment otherwise
func DetermineReviewEvent(findings []PositionedFinding, actions ReviewActions) ReviewEvent {
	inDiff := filterInDiff(findings)

	if len(inDiff) == 0 {
		if event, ok := NormalizeAction(actions.OnClean); ok {
			return event
		}
		return EventApprove
	}

	if HasBlockingFindings(findings, actions) {
		return EventRequestChanges
	}

	return EventComment
}

// HasBlockingFindings reports whether any in-diff finding is at a
// severity configured to trigger REQUEST_CHANGES.
func HasBlockingFindings(findings []PositionedFinding, actions ReviewActions) bool {
	for _, pf := range filterInDiff(findings) {
		if severityEvent(pf.Finding.Severity, actions) == EventRequestChanges {
			return true
		}
	}
	return false
}

// severityEvent resolves the event a finding at the given severity
// contributes. Unrecognized severities never block.
func severityEvent(severity string, actions ReviewActions) ReviewEvent {
	var configured string
	var fallback ReviewEvent

	switch strings.ToLower(severity) {
	case "critical":
		configured, fallback = actions.OnCritical, EventRequestChanges
	case "high":
		configured, fallback = actions.OnHigh, EventRequestChanges
	case "medium":
		configured, fallback = actions.OnMedium, EventComment
	case "low":
		configured, fallback = actions.OnLow, EventComment
	default:
		return EventComment
	}

	if event, ok := NormalizeAction(configured); ok {
		return event
	}
	return fallback
}

// CountInDiffFindings returns the count of findings that are in the diff.
func CountInDiffFindings(findings []PositionedFinding) int {
	count := 0
	for _, pf := range findings {
		if pf.InDiff() {
			count++
		}
	}
	return count
}

// filterInDiff returns only findings that are in the diff.
func filterInDiff(findings []PositionedFinding) []PositionedFinding {
	var result []PositionedFinding
	for _, pf := range findings {
		if pf.InDiff() {
			result = append(result, pf)
		}
	}
	return result
}

// severityOrder defines the display order for severity levels (highest first).
var severityOrder = []string{"critical", "high", "medium", "low"}

// countBySeverity returns in-diff finding counts for each severity level.
func countBySeverity(findings []PositionedFinding) map[string]int {
	counts := map[string]int{"critical": 0, "high": 0, "medium": 0, "low": 0}
	for _, pf := range findings {
		severity := strings.ToLower(pf.Finding.Severity)
		if _, ok := counts[severity]; ok {
			counts[severity]++
		}
	}
	return counts
}
