package diff

import "sort"

// Location is the result of resolving a target line number against a
// file's hunks.
type Location struct {
	// Line is the resolved new-file line number. When no line in the
	// file is addressable it echoes the requested target.
	Line int

	// Exists reports whether Line refers to an actual diff line.
	Exists bool

	// Kind is the resolved line's kind; nil when Exists is false.
	Kind *LineKind

	// InDiff reports whether an inline comment can be anchored at
	// Line. When false the caller must fall back to a non-positional
	// comment.
	InDiff bool

	// Adjusted is set when the target was moved to the nearest
	// addressable line; OriginalLine then holds the requested target.
	Adjusted     bool
	OriginalLine int
}

// Locate resolves targetLine to the nearest line of the file that can
// anchor an inline comment, searching every hunk's new-file lines.
//
// An exact match is returned as-is. Otherwise the addressable line
// with the minimum absolute distance wins, ties going to the lower
// line number. When the file has no addressable lines at all, the
// returned Location reports InDiff false and the caller must fall
// back to a general comment.
func Locate(hunks []Hunk, targetLine int) Location {
	kinds := newLineKinds(hunks)

	if kind, ok := kinds[targetLine]; ok {
		return Location{
			Line:   targetLine,
			Exists: true,
			Kind:   &kind,
			InDiff: true,
		}
	}

	if len(kinds) == 0 {
		return Location{Line: targetLine}
	}

	numbers := make([]int, 0, len(kinds))
	for n := range kinds {
		numbers = append(numbers, n)
	}
	sort.Ints(numbers)

	// Ascending scan with a strict improvement test: on a distance
	// tie the lower line number is kept.
	best := numbers[0]
	bestDist := abs(targetLine - best)
	for _, n := range numbers[1:] {
		if d := abs(targetLine - n); d < bestDist {
			best = n
			bestDist = d
		}
	}

	kind := kinds[best]
	return Location{
		Line:         best,
		Exists:       true,
		Kind:         &kind,
		InDiff:       true,
		Adjusted:     true,
		OriginalLine: targetLine,
	}
}

// IsCommentable reports whether lineNumber names a new-file line of
// kind added or context somewhere in the file's hunks. Removed lines
// exist only in the old file and are never commentable in the
// new-file view.
func IsCommentable(hunks []Hunk, lineNumber int) bool {
	kind, ok := newLineKinds(hunks)[lineNumber]
	return ok && (kind == LineAdded || kind == LineContext)
}

// newLineKinds indexes every line carrying a new-file number by that
// number.
func newLineKinds(hunks []Hunk) map[int]LineKind {
	kinds := make(map[int]LineKind)
	for _, hunk := range hunks {
		for _, line := range hunk.Lines {
			if line.NewLine != nil {
				kinds[*line.NewLine] = line.Kind
			}
		}
	}
	return kinds
}

func abs(n int) int {
	if n < 0 {
		return -n
	}
	return n
}
