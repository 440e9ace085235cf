package diff

import (
	"strconv"
	"strings"
)

// LineKind classifies a single line within a diff hunk.
type LineKind int

const (
	// LineContext is an unchanged line present in both file versions (prefix ' ').
	LineContext LineKind = iota
	// LineAdded is a line present only in the new file (prefix '+').
	LineAdded
	// LineRemoved is a line present only in the old file (prefix '-').
	LineRemoved
)

// String returns a human-readable name for the line kind.
func (k LineKind) String() string {
	switch k {
	case LineContext:
		return "context"
	case LineAdded:
		return "added"
	case LineRemoved:
		return "removed"
	default:
		return "unknown"
	}
}

// Line is one physical row inside a hunk, with the prefix character stripped.
//
// OldLine is nil for added lines and NewLine is nil for removed lines;
// context lines carry both. Numbers are 1-based file line numbers.
type Line struct {
	Content string
	Kind    LineKind
	OldLine *int
	NewLine *int
}

// Hunk is one contiguous change region within a file, bounded by an
// "@@ -oldStart,oldLength +newStart,newLength @@" header.
type Hunk struct {
	OldStart  int
	OldLength int
	NewStart  int
	NewLength int

	// Context is the trailing text on the hunk header (typically the
	// enclosing function signature). Informational only.
	Context string

	Lines []Line
}

// FileChange is the complete diff record for a single file.
type FileChange struct {
	// Path is the new (current) file path.
	Path string
	// OldPath equals Path unless the file was renamed.
	OldPath string

	IsNew     bool
	IsDeleted bool
	IsRenamed bool
	IsBinary  bool

	// Hunks appear in source-text order. Binary files and pure
	// rename/mode changes carry none.
	Hunks []Hunk
}

// Parse scans unified diff text and returns one FileChange per file.
//
// It never fails: unrecognized lines are ignored and any record that
// never receives a usable path is dropped. Carriage returns are
// stripped before processing so CRLF input parses identically to LF.
func Parse(diffText string) []FileChange {
	diffText = strings.ReplaceAll(diffText, "\r", "")

	var (
		files   []FileChange
		current *FileChange
		hunk    *Hunk
		oldNum  int
		newNum  int
	)

	closeHunk := func() {
		if current != nil && hunk != nil {
			current.Hunks = append(current.Hunks, *hunk)
		}
		hunk = nil
	}
	closeFile := func() {
		closeHunk()
		if current == nil {
			return
		}
		if current.Path == "" {
			// A deletion-only record without git headers only ever
			// sees "--- a/path"; fall back to the old path rather
			// than losing the file.
			current.Path = current.OldPath
		}
		if current.Path != "" {
			files = append(files, *current)
		}
		current = nil
	}
	// Lines such as "+++ b/a.js" or a bare "@@" header may arrive
	// before any "diff --git" marker (hosts differ on whether they
	// emit one), so a record is opened on demand.
	ensureFile := func() {
		if current == nil {
			current = &FileChange{}
		}
	}

	for _, raw := range strings.Split(diffText, "\n") {
		switch {
		case strings.HasPrefix(raw, "diff --git "):
			closeFile()
			current = &FileChange{}
			if oldPath, newPath, ok := parseGitHeader(raw); ok {
				current.OldPath = oldPath
				current.Path = newPath
			}

		case strings.HasPrefix(raw, "new file mode"):
			ensureFile()
			current.IsNew = true

		case strings.HasPrefix(raw, "deleted file mode"):
			ensureFile()
			current.IsDeleted = true

		case strings.HasPrefix(raw, "similarity index"):
			ensureFile()
			current.IsRenamed = true

		case strings.HasPrefix(raw, "rename from "):
			ensureFile()
			current.IsRenamed = true
			current.OldPath = strings.TrimPrefix(raw, "rename from ")

		case strings.HasPrefix(raw, "rename to "):
			ensureFile()
			current.IsRenamed = true
			current.Path = strings.TrimPrefix(raw, "rename to ")

		case strings.HasPrefix(raw, "Binary files ") && strings.HasSuffix(raw, " differ"):
			ensureFile()
			closeHunk()
			current.IsBinary = true

		// While a hunk is open these are hunk content, not file headers:
		// a removed line reading "-- x" arrives as "--- x" and an added
		// line reading "++ y" as "+++ y".
		case hunk == nil && strings.HasPrefix(raw, "--- "):
			ensureFile()
			if path, ok := headerPath(strings.TrimPrefix(raw, "--- "), "a/"); ok {
				current.OldPath = path
			}

		case hunk == nil && strings.HasPrefix(raw, "+++ "):
			ensureFile()
			if path, ok := headerPath(strings.TrimPrefix(raw, "+++ "), "b/"); ok {
				current.Path = path
			}

		case strings.HasPrefix(raw, "@@"):
			ensureFile()
			if current.IsBinary {
				continue
			}
			parsed, ok := parseHunkHeader(raw)
			if !ok {
				continue
			}
			closeHunk()
			hunk = &parsed
			oldNum = parsed.OldStart
			newNum = parsed.NewStart

		default:
			if hunk == nil || raw == "" {
				continue
			}
			switch raw[0] {
			case ' ':
				hunk.Lines = append(hunk.Lines, Line{
					Content: raw[1:],
					Kind:    LineContext,
					OldLine: intPtr(oldNum),
					NewLine: intPtr(newNum),
				})
				oldNum++
				newNum++
			case '+':
				hunk.Lines = append(hunk.Lines, Line{
					Content: raw[1:],
					Kind:    LineAdded,
					NewLine: intPtr(newNum),
				})
				newNum++
			case '-':
				hunk.Lines = append(hunk.Lines, Line{
					Content: raw[1:],
					Kind:    LineRemoved,
					OldLine: intPtr(oldNum),
				})
				oldNum++
			}
			// Anything else ("\ No newline at end of file", index
			// lines, mode lines) is diff metadata and skipped.
		}
	}

	closeFile()
	return files
}

// parseGitHeader extracts the old and new paths from a
// "diff --git a/<old> b/<new>" line.
func parseGitHeader(line string) (oldPath, newPath string, ok bool) {
	rest := strings.TrimPrefix(line, "diff --git ")
	if !strings.HasPrefix(rest, "a/") {
		return "", "", false
	}
	sep := strings.Index(rest, " b/")
	if sep < 0 {
		return "", "", false
	}
	oldPath = rest[len("a/"):sep]
	newPath = rest[sep+len(" b/"):]
	if newPath == "" {
		return "", "", false
	}
	return oldPath, newPath, true
}

// headerPath interprets the payload of a "---"/"+++" line. The
// /dev/null sentinel marks creation or deletion and must not
// overwrite a real path.
func headerPath(payload, stripPrefix string) (string, bool) {
	// Some generators append a tab plus a timestamp after the path.
	if tab := strings.IndexByte(payload, '\t'); tab >= 0 {
		payload = payload[:tab]
	}
	if payload == "/dev/null" || payload == "" {
		return "", false
	}
	return strings.TrimPrefix(payload, stripPrefix), true
}

// parseHunkHeader parses "@@ -a[,b] +c[,d] @@ [context]".
// An omitted length defaults to 1.
func parseHunkHeader(line string) (Hunk, bool) {
	rest := strings.TrimPrefix(line, "@@")
	end := strings.Index(rest, "@@")
	if end < 0 {
		return Hunk{}, false
	}

	var hunk Hunk
	hunk.Context = strings.TrimSpace(rest[end+2:])

	var haveOld, haveNew bool
	for _, field := range strings.Fields(rest[:end]) {
		switch {
		case strings.HasPrefix(field, "-"):
			start, length, ok := parseRange(field[1:])
			if !ok {
				return Hunk{}, false
			}
			hunk.OldStart, hunk.OldLength = start, length
			haveOld = true
		case strings.HasPrefix(field, "+"):
			start, length, ok := parseRange(field[1:])
			if !ok {
				return Hunk{}, false
			}
			hunk.NewStart, hunk.NewLength = start, length
			haveNew = true
		}
	}
	if !haveOld || !haveNew {
		return Hunk{}, false
	}
	return hunk, true
}

// parseRange parses "start,length" or "start" (length defaults to 1).
func parseRange(s string) (start, length int, ok bool) {
	length = 1
	if comma := strings.IndexByte(s, ','); comma >= 0 {
		var err error
		length, err = strconv.Atoi(s[comma+1:])
		if err != nil {
			return 0, 0, false
		}
		s = s[:comma]
	}
	start, err := strconv.Atoi(s)
	if err != nil {
		return 0, 0, false
	}
	return start, length, true
}

func intPtr(n int) *int {
	return &n
}
