package github

import (
	"github.com/rrowland/crit/internal/diff"
	"github.com/rrowland/crit/internal/domain"
)

// MapFindings resolves each finding's start line against the pull
// request diff so it can anchor an inline review comment.
//
// A finding whose exact line is not in the diff is moved to the nearest
// line that is; the resulting Location records the adjustment. Findings
// in files that are absent from the diff, deleted, or binary get a
// Location with InDiff false and are reported in the summary appendix
// instead.
//
// This function is pure and does not modify the input findings.
func MapFindings(findings []domain.Finding, d domain.Diff) []PositionedFinding {
	if len(findings) == 0 {
		return []PositionedFinding{}
	}

	// Index the parsed diff by new-file path for O(1) lookup.
	changes := make(map[string]diff.FileChange)
	for _, fc := range diff.Parse(d.Raw) {
		if fc.IsDeleted || fc.IsBinary {
			continue
		}
		changes[fc.Path] = fc
	}

	result := make([]PositionedFinding, len(findings))
	for i, finding := range findings {
		pf := PositionedFinding{
			Finding:  finding,
			Location: diff.Location{Line: finding.LineStart},
		}
		if fc, ok := changes[finding.File]; ok {
			pf.Location = diff.Locate(fc.Hunks, finding.LineStart)
		}
		result[i] = pf
	}

	return result
}
