// Package github is the adapter for the GitHub Pull Request API: it
// fetches PR metadata and raw diffs, anchors findings to diff lines,
// and submits reviews with inline comments.
//
// Key types:
//
//   - Client: HTTP client for the pulls and reviews endpoints
//   - PositionedFinding: wraps domain.Finding with a resolved diff location
//   - MapFindings: resolves finding line numbers against the PR diff
//
// The adapter keeps the domain layer platform-agnostic; everything
// GitHub-specific (review events, comment sides, API error shapes)
// lives here.
package github
