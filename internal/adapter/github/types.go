package github

import (
	"github.com/rrowland/crit/internal/diff"
	"github.com/rrowland/crit/internal/domain"
)

// PositionedFinding wraps a domain.Finding with its resolved location in
// the pull request diff. This type lives in the adapter layer to keep the
// domain layer pure and platform-agnostic.
type PositionedFinding struct {
	// Finding is the original domain finding with all review details.
	Finding domain.Finding

	// Location is the finding's start line resolved against the file's
	// hunks. When Location.InDiff is false the finding cannot receive an
	// inline comment and goes into the summary appendix instead.
	Location diff.Location
}

// InDiff reports whether the finding can receive an inline PR comment.
func (pf PositionedFinding) InDiff() bool {
	return pf.Location.InDiff
}

// Adjusted reports whether the finding's comment anchor was moved to the
// nearest line present in the diff.
func (pf PositionedFinding) Adjusted() bool {
	return pf.Location.Adjusted
}
