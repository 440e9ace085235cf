// Package diff parses unified diff text into a structured model of
// file, hunk, and line changes, and resolves file line numbers to
// lines that can legally anchor inline review comments.
//
// The parser is deliberately lenient: unrecognized lines are skipped,
// malformed headers are ignored, and a best-effort result is always
// returned. Hosting providers disagree on the finer points of the
// unified format (git headers present or absent, CRLF artifacts,
// rename and binary markers), and a review tool is better served by a
// partial parse than by an error.
//
// All functions in this package are pure: they read immutable input
// and return freshly allocated output, so concurrent reviews can
// share nothing and race on nothing.
package diff
