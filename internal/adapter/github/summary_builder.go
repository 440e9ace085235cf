package github

import (
	"fmt"
	"sort"
	"strings"

	"github.com/rrowland/crit/internal/diff"
	"github.com/rrowland/crit/internal/domain"
)

// BuildSummaryAppendix creates structured appendix sections for edge cases.
// Returns an empty string if there are no edge cases to report.
// The appendix includes sections for:
//   - Findings outside the diff (deleted files, files without hunks)
//   - Binary files changed
//   - Renamed files
func BuildSummaryAppendix(findings []PositionedFinding, d domain.Diff) string {
	var sections []string

	outOfDiff := FilterOutOfDiff(findings)
	if len(outOfDiff) > 0 {
		sections = append(sections, formatOutOfDiffSection(outOfDiff))
	}

	binaryFiles := FilterBinaryFiles(d.Files)
	if len(binaryFiles) > 0 {
		sections = append(sections, formatBinaryFilesSection(binaryFiles))
	}

	renamedFiles := FilterRenamedFiles(d.Files)
	if len(renamedFiles) > 0 {
		sections = append(sections, formatRenamedFilesSection(renamedFiles))
	}

	if len(sections) == 0 {
		return ""
	}

	return "\n\n---\n\n" + strings.Join(sections, "\n\n")
}

// AppendSections appends the summary appendix to the original summary.
// If the appendix is empty, returns the original summary unchanged.
func AppendSections(originalSummary, appendix string) string {
	if appendix == "" {
		return originalSummary
	}
	return originalSummary + appendix
}

// FilterOutOfDiff returns findings that could not be anchored to any diff line.
func FilterOutOfDiff(findings []PositionedFinding) []PositionedFinding {
	var result []PositionedFinding
	for _, pf := range findings {
		if !pf.InDiff() {
			result = append(result, pf)
		}
	}
	return result
}

// FilterBinaryFiles returns files that are binary.
func FilterBinaryFiles(files []domain.FileDiff) []domain.FileDiff {
	var result []domain.FileDiff
	for _, f := range files {
		if f.IsBinary {
			result = append(result, f)
		}
	}
	return result
}

// FilterRenamedFiles returns files that were renamed.
func FilterRenamedFiles(files []domain.FileDiff) []domain.FileDiff {
	var result []domain.FileDiff
	for _, f := range files {
		if f.Status == domain.FileStatusRenamed {
			result = append(result, f)
		}
	}
	return result
}

// formatOutOfDiffSection formats the "Findings Outside Diff" section.
func formatOutOfDiffSection(findings []PositionedFinding) string {
	var sb strings.Builder

	sb.WriteString("## Findings Outside Diff\n\n")
	sb.WriteString("The following findings are in files or on lines not included in this diff:\n\n")

	for _, pf := range findings {
		f := pf.Finding
		sb.WriteString(fmt.Sprintf("- **%s** in `%s` (line %d): %s\n",
			f.Severity, escapeMarkdownInlineCode(f.File), f.LineStart, f.Description))
	}

	return sb.String()
}

// formatBinaryFilesSection formats the "Binary Files Changed" section.
func formatBinaryFilesSection(files []domain.FileDiff) string {
	var sb strings.Builder

	sb.WriteString("## Binary Files Changed\n\n")
	sb.WriteString("The following binary files were changed and excluded from review:\n\n")

	for _, f := range files {
		sb.WriteString(fmt.Sprintf("- `%s` (%s)\n", escapeMarkdownInlineCode(f.Path), f.Status))
	}

	return sb.String()
}

// formatRenamedFilesSection formats the "Files Renamed" section.
func formatRenamedFilesSection(files []domain.FileDiff) string {
	var sb strings.Builder

	sb.WriteString("## Files Renamed\n\n")

	for _, f := range files {
		sb.WriteString(fmt.Sprintf("- `%s` → `%s`\n", escapeMarkdownInlineCode(f.OldPath), escapeMarkdownInlineCode(f.Path)))
	}

	return sb.String()
}

// =============================================================================
// Markdown Escaping Helpers
// =============================================================================

// escapeMarkdownInlineCode escapes characters that could break inline code formatting.
// Specifically handles backticks and newlines which would break `code` spans.
func escapeMarkdownInlineCode(s string) string {
	s = strings.ReplaceAll(s, "`", "\\`")
	// Newlines break inline code spans
	s = strings.ReplaceAll(s, "\n", " ")
	s = strings.ReplaceAll(s, "\r", "")
	return s
}

// escapeMarkdownTableCell escapes characters that could break table cell formatting.
// Specifically handles pipes and newlines which would break | cell | structure.
func escapeMarkdownTableCell(s string) string {
	s = strings.ReplaceAll(s, "|", "\\|")
	// Newlines break table rows
	s = strings.ReplaceAll(s, "\n", " ")
	s = strings.ReplaceAll(s, "\r", "")
	return s
}

// =============================================================================
// Programmatic Summary Builder
// =============================================================================

// BuildProgrammaticSummary generates a structured code review summary from
// findings and diff statistics. This replaces the LLM-generated summary
// with a consistent, programmatic format.
//
// The summary includes:
//   - Badge line with file and line-change counts plus severity counts
//     (only in-diff findings)
//   - Files Requiring Attention section (files with severities that
//     trigger REQUEST_CHANGES under the given actions)
//   - Findings by Category table
func BuildProgrammaticSummary(findings []PositionedFinding, stats diff.Stats, actions ReviewActions) string {
	inDiffFindings := filterInDiff(findings)

	counts := countBySeverity(inDiffFindings)
	totalFindings := counts["critical"] + counts["high"] + counts["medium"] + counts["low"]

	if totalFindings == 0 {
		return fmt.Sprintf("✅ **No issues found.** Reviewed %d files (+%d/-%d lines).",
			stats.TotalFiles, stats.TotalAdded, stats.TotalRemoved)
	}

	var sb strings.Builder

	sb.WriteString(formatBadgeLine(stats, counts))
	sb.WriteString("\n\n")

	if section := formatFilesRequiringAttention(inDiffFindings, blockingSeverities(actions)); section != "" {
		sb.WriteString(section)
		sb.WriteString("\n")
	}

	categoryGroups := groupByCategory(inDiffFindings)
	if table := formatCategoryTable(categoryGroups); table != "" {
		sb.WriteString(table)
	}

	return strings.TrimRight(sb.String(), "\n")
}

// formatBadgeLine creates the emoji badge summary line.
// Example: 📊 **Reviewed 12 files (+240/-31)** | 🔴 2 critical | 🟠 5 high | 🟡 3 medium | 🟢 1 low
func formatBadgeLine(stats diff.Stats, counts map[string]int) string {
	parts := []string{
		fmt.Sprintf("📊 **Reviewed %d files (+%d/-%d)**",
			stats.TotalFiles, stats.TotalAdded, stats.TotalRemoved),
	}

	// Always show all severity levels for consistency
	parts = append(parts, fmt.Sprintf("🔴 %d critical", counts["critical"]))
	parts = append(parts, fmt.Sprintf("🟠 %d high", counts["high"]))
	parts = append(parts, fmt.Sprintf("🟡 %d medium", counts["medium"]))
	parts = append(parts, fmt.Sprintf("🟢 %d low", counts["low"]))

	return strings.Join(parts, " | ")
}

// blockingSeverities returns the set of severities that trigger
// REQUEST_CHANGES under the given actions.
func blockingSeverities(actions ReviewActions) map[string]bool {
	result := make(map[string]bool)
	for _, severity := range severityOrder {
		if severityEvent(severity, actions) == EventRequestChanges {
			result[severity] = true
		}
	}
	return result
}

// formatFilesRequiringAttention creates the "Files Requiring Attention" section.
// Only includes files with findings at blocking severities.
func formatFilesRequiringAttention(findings []PositionedFinding, attentionSeverities map[string]bool) string {
	if len(attentionSeverities) == 0 {
		return ""
	}

	fileFindings := make(map[string]map[string]int)

	for _, pf := range findings {
		severity := strings.ToLower(pf.Finding.Severity)
		if !attentionSeverities[severity] {
			continue
		}

		if fileFindings[pf.Finding.File] == nil {
			fileFindings[pf.Finding.File] = make(map[string]int)
		}
		fileFindings[pf.Finding.File][severity]++
	}

	if len(fileFindings) == 0 {
		return ""
	}

	var sb strings.Builder
	sb.WriteString("### Files Requiring Attention\n\n")

	// Sort files for deterministic output
	var files []string
	for file := range fileFindings {
		files = append(files, file)
	}
	sort.Strings(files)

	for _, file := range files {
		counts := fileFindings[file]

		var badges []string
		for _, severity := range severityOrder {
			if count := counts[severity]; count > 0 {
				badges = append(badges, fmt.Sprintf("%d %s", count, severity))
			}
		}

		sb.WriteString(fmt.Sprintf("- `%s` (%s)\n", escapeMarkdownInlineCode(file), strings.Join(badges, ", ")))
	}

	return sb.String()
}

// groupByCategory groups findings by their category.
func groupByCategory(findings []PositionedFinding) map[string]int {
	groups := make(map[string]int)
	for _, pf := range findings {
		category := pf.Finding.Category
		if category == "" {
			category = "general"
		}
		groups[category]++
	}
	return groups
}

// formatCategoryTable creates the "Findings by Category" table.
func formatCategoryTable(categoryCounts map[string]int) string {
	if len(categoryCounts) == 0 {
		return ""
	}

	var sb strings.Builder
	sb.WriteString("### Findings by Category\n\n")
	sb.WriteString("| Category | Count |\n")
	sb.WriteString("|----------|-------|\n")

	// Sort categories for deterministic output
	var categories []string
	for cat := range categoryCounts {
		categories = append(categories, cat)
	}
	sort.Strings(categories)

	for _, cat := range categories {
		sb.WriteString(fmt.Sprintf("| %s | %d |\n", escapeMarkdownTableCell(cat), categoryCounts[cat]))
	}

	return sb.String()
}
