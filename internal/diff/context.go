package diff

// DefaultContextLines is the surrounding-context window used when the
// caller has no preference.
const DefaultContextLines = 3

// BlockLine is one retained row of a changed code block, numbered in
// the new file.
type BlockLine struct {
	Content  string
	Number   int
	IsChange bool
}

// ChangedCodeBlock is a contiguous span of new-file lines containing
// at least one change plus a bounded window of unchanged neighbors.
type ChangedCodeBlock struct {
	Path      string
	StartLine int
	EndLine   int
	Lines     []BlockLine
}

// ExtractContext reconstructs the changed code blocks of a parsed
// diff. Within each hunk, runs of changed lines become blocks carrying
// at most contextLines unchanged lines before and after the run.
// Blocks never merge across the boundary where a full trailing window
// has been emitted, and a block containing no change is never
// produced. Deleted and binary files are skipped: they have no
// new-file lines to report.
//
// Only lines that exist in the new file appear as block entries.
// Removed lines cannot (they have no new-file number) but still count
// as changes: they open a block and reset its trailing window, so a
// deletion-only region surfaces as a block of its surrounding context.
func ExtractContext(changes []FileChange, contextLines int) []ChangedCodeBlock {
	if contextLines < 0 {
		contextLines = 0
	}

	var blocks []ChangedCodeBlock
	for _, fc := range changes {
		if fc.IsDeleted || fc.IsBinary {
			continue
		}
		for _, hunk := range fc.Hunks {
			blocks = append(blocks, extractHunkBlocks(fc.Path, hunk, contextLines)...)
		}
	}
	return blocks
}

// extractHunkBlocks partitions a single hunk into blocks. Hunks are
// independent: context never carries over from one to the next.
func extractHunkBlocks(path string, hunk Hunk, contextLines int) []ChangedCodeBlock {
	var (
		blocks  []ChangedCodeBlock
		leading []BlockLine // most recent unchanged lines, capped at contextLines
		open    []BlockLine
		started bool
		trail   int
	)

	begin := func() {
		if !started {
			open = append(open, leading...)
			leading = nil
			started = true
		}
		trail = 0
	}
	finish := func() {
		if started && len(open) > 0 {
			blocks = append(blocks, ChangedCodeBlock{
				Path:      path,
				StartLine: open[0].Number,
				EndLine:   open[len(open)-1].Number,
				Lines:     open,
			})
		}
		open = nil
		started = false
		trail = 0
	}

	for _, line := range hunk.Lines {
		if line.Kind == LineRemoved {
			begin()
			continue
		}

		entry := BlockLine{
			Content:  line.Content,
			Number:   *line.NewLine,
			IsChange: line.Kind == LineAdded,
		}

		if entry.IsChange {
			begin()
			open = append(open, entry)
			continue
		}

		// Unchanged line. It always feeds the sliding window of
		// candidate leading context, even while a block is open:
		// a block's trailing window doubles as the next block's
		// leading window.
		leading = append(leading, entry)
		if len(leading) > contextLines {
			leading = leading[1:]
		}
		if started {
			if contextLines == 0 {
				finish()
				continue
			}
			open = append(open, entry)
			trail++
			if trail == contextLines {
				finish()
			}
		}
	}
	finish()

	return blocks
}
