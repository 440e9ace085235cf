package diff_test

import (
	"testing"

	"github.com/rrowland/crit/internal/diff"
)

// aJSHunks parses a small patch whose new-file lines 9-12 are addressable:
// 9, 10, 12 as context and 11 as the added line.
func aJSHunks(t *testing.T) []diff.Hunk {
	t.Helper()

	text := `--- a/a.js
+++ b/a.js
@@ -9,3 +9,4 @@ function handler() {
 const x = 1;
 const y = 2;
+const newline = true;
 return x + y;
`
	changes := diff.Parse(text)
	if len(changes) != 1 {
		t.Fatalf("expected 1 file, got %d", len(changes))
	}
	return changes[0].Hunks
}

func TestLocate_ExactMatch(t *testing.T) {
	loc := diff.Locate(aJSHunks(t), 11)
	if !loc.Exists || !loc.InDiff {
		t.Fatalf("expected line 11 to exist in diff, got %+v", loc)
	}
	if loc.Adjusted {
		t.Errorf("exact match must not report adjustment: %+v", loc)
	}
	if loc.Line != 11 {
		t.Errorf("expected line 11, got %d", loc.Line)
	}
	if loc.Kind == nil || *loc.Kind != diff.LineAdded {
		t.Errorf("expected added kind, got %v", loc.Kind)
	}
}

func TestLocate_AdjustsToNearest(t *testing.T) {
	loc := diff.Locate(aJSHunks(t), 500)
	if !loc.Exists || !loc.InDiff {
		t.Fatalf("expected an adjusted location, got %+v", loc)
	}
	if !loc.Adjusted {
		t.Errorf("expected adjustment flag for out-of-range target")
	}
	if loc.Line != 12 {
		t.Errorf("expected nearest addressable line 12, got %d", loc.Line)
	}
	if loc.OriginalLine != 500 {
		t.Errorf("expected original line 500, got %d", loc.OriginalLine)
	}
}

func TestLocate_TieBreaksToLowerLine(t *testing.T) {
	// Addressable lines 10 and 12; target 11 is equidistant from both.
	text := `--- a/a.js
+++ b/a.js
@@ -10,1 +10,1 @@
 keep
@@ -12,1 +12,1 @@
 also
`
	hunks := diff.Parse(text)[0].Hunks

	loc := diff.Locate(hunks, 11)
	if !loc.Adjusted {
		t.Fatalf("expected adjustment, got %+v", loc)
	}
	if loc.Line != 10 {
		t.Errorf("expected tie to resolve to lower line 10, got %d", loc.Line)
	}
}

func TestLocate_NoAddressableLines(t *testing.T) {
	loc := diff.Locate(nil, 42)
	if loc.Exists || loc.InDiff || loc.Adjusted {
		t.Errorf("expected empty result for no hunks, got %+v", loc)
	}
	if loc.Line != 42 {
		t.Errorf("expected target line echoed back, got %d", loc.Line)
	}

	// Removal-only hunks have no new-file lines either.
	text := `--- a/a.js
+++ /dev/null
@@ -1,2 +0,0 @@
-one
-two
`
	hunks := diff.Parse(text)[0].Hunks
	if loc := diff.Locate(hunks, 1); loc.InDiff {
		t.Errorf("expected no addressable lines in removal-only hunks, got %+v", loc)
	}
}

func TestIsCommentable(t *testing.T) {
	hunks := aJSHunks(t)

	cases := []struct {
		line int
		want bool
	}{
		{9, true},   // context
		{11, true},  // added
		{12, true},  // context
		{13, false}, // past the hunk
		{8, false},  // before the hunk
		{500, false},
	}
	for _, tc := range cases {
		if got := diff.IsCommentable(hunks, tc.line); got != tc.want {
			t.Errorf("IsCommentable(%d) = %v, want %v", tc.line, got, tc.want)
		}
	}
}

func TestIsCommentable_RemovedLinesExcluded(t *testing.T) {
	text := `--- a/a.js
+++ b/a.js
@@ -1,2 +1,1 @@
-gone
 keep
`
	hunks := diff.Parse(text)[0].Hunks

	if !diff.IsCommentable(hunks, 1) {
		t.Errorf("expected context line 1 to be commentable")
	}
	if diff.IsCommentable(hunks, 2) {
		t.Errorf("line 2 is not present in the new file")
	}
}
