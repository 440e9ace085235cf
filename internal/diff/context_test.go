package diff_test

import (
	"testing"

	"github.com/rrowland/crit/internal/diff"
)

func TestExtractContext_SingleChange(t *testing.T) {
	text := `diff --git a/a.go b/a.go
--- a/a.go
+++ b/a.go
@@ -1,7 +1,8 @@
 c1
 c2
 c3
+a4
 c5
 c6
 c7
 c8
`

	blocks := diff.ExtractContext(diff.Parse(text), 3)
	if len(blocks) != 1 {
		t.Fatalf("expected 1 block, got %d", len(blocks))
	}

	b := blocks[0]
	if b.Path != "a.go" {
		t.Errorf("expected path a.go, got %q", b.Path)
	}
	if b.StartLine != 1 || b.EndLine != 7 {
		t.Errorf("expected span 1-7, got %d-%d", b.StartLine, b.EndLine)
	}
	if len(b.Lines) != 7 {
		t.Fatalf("expected 7 lines, got %d", len(b.Lines))
	}
	if !b.Lines[3].IsChange || b.Lines[3].Number != 4 {
		t.Errorf("expected change at line 4, got %+v", b.Lines[3])
	}
	// Exactly three trailing unchanged lines are retained.
	if b.Lines[len(b.Lines)-1].Number != 7 {
		t.Errorf("expected trailing window to end at 7, got %d", b.Lines[len(b.Lines)-1].Number)
	}
}

func TestExtractContext_SeparateRunsStaySeparate(t *testing.T) {
	text := `diff --git a/a.go b/a.go
--- a/a.go
+++ b/a.go
@@ -1,12 +1,14 @@
 c1
+a2
 c3
 c4
 c5
 c6
 c7
 c8
 c9
 c10
+a11
 c12
 c13
 c14
`

	blocks := diff.ExtractContext(diff.Parse(text), 3)
	if len(blocks) != 2 {
		t.Fatalf("expected 2 blocks, got %d", len(blocks))
	}
	if blocks[0].StartLine != 1 || blocks[0].EndLine != 5 {
		t.Errorf("block 0: expected span 1-5, got %d-%d", blocks[0].StartLine, blocks[0].EndLine)
	}
	if blocks[1].StartLine != 8 || blocks[1].EndLine != 14 {
		t.Errorf("block 1: expected span 8-14, got %d-%d", blocks[1].StartLine, blocks[1].EndLine)
	}
}

func TestExtractContext_DeletionOnlyRegion(t *testing.T) {
	text := `diff --git a/a.go b/a.go
--- a/a.go
+++ b/a.go
@@ -5,7 +5,6 @@
 c5
 c6
-gone
 c7
 c8
 c9
 c10
`

	blocks := diff.ExtractContext(diff.Parse(text), 2)
	if len(blocks) != 1 {
		t.Fatalf("expected 1 block for a deletion-only region, got %d", len(blocks))
	}

	b := blocks[0]
	if b.StartLine != 5 || b.EndLine != 8 {
		t.Errorf("expected span 5-8, got %d-%d", b.StartLine, b.EndLine)
	}
	for _, line := range b.Lines {
		if line.IsChange {
			t.Errorf("deletion-only block should carry only context entries, got %+v", line)
		}
	}
}

func TestExtractContext_ZeroWindow(t *testing.T) {
	text := `diff --git a/a.go b/a.go
--- a/a.go
+++ b/a.go
@@ -1,4 +1,5 @@
 c1
+a2
 c3
 c4
 c5
`

	blocks := diff.ExtractContext(diff.Parse(text), 0)
	if len(blocks) != 1 {
		t.Fatalf("expected 1 block, got %d", len(blocks))
	}

	b := blocks[0]
	if len(b.Lines) != 1 {
		t.Fatalf("expected only the changed line, got %d lines", len(b.Lines))
	}
	if b.StartLine != 2 || b.EndLine != 2 {
		t.Errorf("expected span 2-2, got %d-%d", b.StartLine, b.EndLine)
	}
}

func TestExtractContext_SkipsDeletedAndBinaryFiles(t *testing.T) {
	text := `diff --git a/gone.go b/gone.go
deleted file mode 100644
--- a/gone.go
+++ /dev/null
@@ -1,2 +0,0 @@
-one
-two
diff --git a/img.png b/img.png
Binary files a/img.png and b/img.png differ
`

	blocks := diff.ExtractContext(diff.Parse(text), 3)
	if len(blocks) != 0 {
		t.Errorf("expected no blocks for deleted/binary files, got %d", len(blocks))
	}
}

func TestExtractContext_NoBlockWithoutChanges(t *testing.T) {
	// A hand-built hunk with only context lines must yield nothing.
	hunk := diff.Hunk{OldStart: 1, OldLength: 2, NewStart: 1, NewLength: 2}
	for i := 1; i <= 2; i++ {
		n := i
		hunk.Lines = append(hunk.Lines, diff.Line{
			Content: "ctx",
			Kind:    diff.LineContext,
			OldLine: &n,
			NewLine: &n,
		})
	}
	changes := []diff.FileChange{{Path: "a.go", OldPath: "a.go", Hunks: []diff.Hunk{hunk}}}

	if blocks := diff.ExtractContext(changes, 3); len(blocks) != 0 {
		t.Errorf("expected no blocks, got %d", len(blocks))
	}
}

func TestExtractContext_ChangeAtHunkEnd(t *testing.T) {
	text := `diff --git a/a.go b/a.go
--- a/a.go
+++ b/a.go
@@ -1,2 +1,3 @@
 c1
 c2
+a3
`

	blocks := diff.ExtractContext(diff.Parse(text), 3)
	if len(blocks) != 1 {
		t.Fatalf("expected 1 block, got %d", len(blocks))
	}
	b := blocks[0]
	if b.StartLine != 1 || b.EndLine != 3 {
		t.Errorf("expected span 1-3, got %d-%d", b.StartLine, b.EndLine)
	}
}
