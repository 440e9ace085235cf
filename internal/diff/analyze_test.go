package diff_test

import (
	"testing"

	"github.com/rrowland/crit/internal/diff"
)

func TestAnalyze_EmptyInput(t *testing.T) {
	stats := diff.Analyze(diff.Parse(""))
	if stats.TotalFiles != 0 || stats.TotalAdded != 0 || stats.TotalRemoved != 0 {
		t.Errorf("expected all-zero stats, got %+v", stats)
	}
	if len(stats.Files) != 0 {
		t.Errorf("expected no per-file stats, got %d", len(stats.Files))
	}
}

func TestAnalyze_CountsPerFile(t *testing.T) {
	text := `diff --git a/a.go b/a.go
--- a/a.go
+++ b/a.go
@@ -1,3 +1,4 @@
 context
+added one
-removed one
+added two
@@ -10,2 +11,2 @@
-removed two
+added three
diff --git a/b.go b/b.go
--- a/b.go
+++ b/b.go
@@ -1,1 +1,2 @@
 context
+added four
`

	stats := diff.Analyze(diff.Parse(text))
	if stats.TotalFiles != 2 {
		t.Fatalf("expected 2 files, got %d", stats.TotalFiles)
	}
	if stats.TotalAdded != 4 {
		t.Errorf("expected 4 added, got %d", stats.TotalAdded)
	}
	if stats.TotalRemoved != 2 {
		t.Errorf("expected 2 removed, got %d", stats.TotalRemoved)
	}

	// Per-file stats preserve input order.
	if stats.Files[0].Path != "a.go" || stats.Files[1].Path != "b.go" {
		t.Errorf("unexpected file order: %q, %q", stats.Files[0].Path, stats.Files[1].Path)
	}
	if stats.Files[0].Added != 3 || stats.Files[0].Removed != 2 {
		t.Errorf("a.go: expected 3/2, got %d/%d", stats.Files[0].Added, stats.Files[0].Removed)
	}
	if stats.Files[1].Added != 1 || stats.Files[1].Removed != 0 {
		t.Errorf("b.go: expected 1/0, got %d/%d", stats.Files[1].Added, stats.Files[1].Removed)
	}
}

func TestAnalyze_BinaryContributesZero(t *testing.T) {
	text := `diff --git a/img.png b/img.png
Binary files a/img.png and b/img.png differ
diff --git a/a.go b/a.go
--- a/a.go
+++ b/a.go
@@ -1,1 +1,2 @@
 context
+added
`

	stats := diff.Analyze(diff.Parse(text))
	if stats.TotalFiles != 2 {
		t.Fatalf("expected 2 files, got %d", stats.TotalFiles)
	}
	if stats.TotalAdded != 1 || stats.TotalRemoved != 0 {
		t.Errorf("binary file must contribute zero: got %d/%d", stats.TotalAdded, stats.TotalRemoved)
	}
	if !stats.Files[0].IsBinary {
		t.Errorf("expected first file stat to be binary")
	}
}

func TestAnalyze_HunklessFile(t *testing.T) {
	text := `diff --git a/old.js b/new.js
similarity index 100%
rename from old.js
rename to new.js
`

	stats := diff.Analyze(diff.Parse(text))
	if stats.TotalFiles != 1 {
		t.Fatalf("expected 1 file, got %d", stats.TotalFiles)
	}
	if stats.TotalAdded != 0 || stats.TotalRemoved != 0 {
		t.Errorf("rename-only file must contribute zero, got %d/%d", stats.TotalAdded, stats.TotalRemoved)
	}
}
