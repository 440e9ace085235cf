// Package skip detects opt-out triggers for automated reviews. Authors
// bypass a review by including a trigger pattern in a commit message,
// PR title, or PR description.
package skip

import (
	"regexp"
	"strings"
)

// triggerPattern matches [skip review], [skip-review], [skip crit] or
// [skip-crit], case-insensitive.
var triggerPattern = regexp.MustCompile(`(?i)\[skip[ -](review|crit)\]`)

// ContainsTrigger checks if text contains a skip trigger pattern.
func ContainsTrigger(text string) bool {
	return triggerPattern.MatchString(text)
}

// CheckRequest contains the inputs to check for skip triggers.
type CheckRequest struct {
	CommitMessages []string
	PRTitle        string
	PRDescription  string
}

// CheckResult reports whether a trigger was found and where.
type CheckResult struct {
	ShouldSkip bool
	Reason     string // "commit message", "PR title", or "PR description"
}

// Check examines commit messages and PR metadata for skip triggers,
// in that order, and reports the first match.
func Check(req CheckRequest) CheckResult {
	for _, msg := range req.CommitMessages {
		if ContainsTrigger(msg) {
			return CheckResult{ShouldSkip: true, Reason: "commit message"}
		}
	}

	if ContainsTrigger(strings.TrimSpace(req.PRTitle)) {
		return CheckResult{ShouldSkip: true, Reason: "PR title"}
	}

	if ContainsTrigger(req.PRDescription) {
		return CheckResult{ShouldSkip: true, Reason: "PR description"}
	}

	return CheckResult{}
}
