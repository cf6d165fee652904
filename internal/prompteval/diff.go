package prompteval

import (
	"fmt"
	"strings"

	"github.com/promptforge/promptforge/internal/domain/models"
)

// ComputeDiff builds a line diff between two prompt versions' templates.
// AddedLines/RemovedLines are exact line sets, so ComputeDiff(a,b).AddedLines
// equals ComputeDiff(b,a).RemovedLines.
func ComputeDiff(a, b *models.PromptVersion) *models.Diff {
	added, removed, unified := lineDiff(a.TemplateText, b.TemplateText, a.Label(), b.Label())
	return &models.Diff{
		VersionA:       a.Label(),
		VersionB:       b.Label(),
		DiffText:       unified,
		ChangesSummary: fmt.Sprintf("Added %d lines, removed %d lines", len(added), len(removed)),
		AddedLines:     added,
		RemovedLines:   removed,
	}
}

// Changelog renders a human-readable change record for a diff.
func Changelog(d *models.Diff) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "## Changes from %s to %s\n\n", d.VersionA, d.VersionB)
	sb.WriteString(d.ChangesSummary)
	sb.WriteString("\n")
	if len(d.AddedLines) > 0 {
		sb.WriteString("\n### Added\n")
		for _, line := range d.AddedLines {
			fmt.Fprintf(&sb, "+ %s\n", line)
		}
	}
	if len(d.RemovedLines) > 0 {
		sb.WriteString("\n### Removed\n")
		for _, line := range d.RemovedLines {
			fmt.Fprintf(&sb, "- %s\n", line)
		}
	}
	return sb.String()
}

// lineDiff computes an LCS-based line diff and renders it in unified style.
func lineDiff(textA, textB, labelA, labelB string) (added, removed []string, unified string) {
	linesA := splitLines(textA)
	linesB := splitLines(textB)

	// LCS table
	m, n := len(linesA), len(linesB)
	lcs := make([][]int, m+1)
	for i := range lcs {
		lcs[i] = make([]int, n+1)
	}
	for i := m - 1; i >= 0; i-- {
		for j := n - 1; j >= 0; j-- {
			if linesA[i] == linesB[j] {
				lcs[i][j] = lcs[i+1][j+1] + 1
			} else if lcs[i+1][j] > lcs[i][j+1] {
				lcs[i][j] = lcs[i+1][j]
			} else {
				lcs[i][j] = lcs[i][j+1]
			}
		}
	}

	added = []string{}
	removed = []string{}
	var body strings.Builder
	i, j := 0, 0
	for i < m && j < n {
		switch {
		case linesA[i] == linesB[j]:
			fmt.Fprintf(&body, "  %s\n", linesA[i])
			i++
			j++
		// Ties break on line content, not on which side is A, so a diff
		// and its mirror select the same matching and stay exact inverses.
		case lcs[i+1][j] > lcs[i][j+1] || (lcs[i+1][j] == lcs[i][j+1] && linesA[i] < linesB[j]):
			removed = append(removed, linesA[i])
			fmt.Fprintf(&body, "- %s\n", linesA[i])
			i++
		default:
			added = append(added, linesB[j])
			fmt.Fprintf(&body, "+ %s\n", linesB[j])
			j++
		}
	}
	for ; i < m; i++ {
		removed = append(removed, linesA[i])
		fmt.Fprintf(&body, "- %s\n", linesA[i])
	}
	for ; j < n; j++ {
		added = append(added, linesB[j])
		fmt.Fprintf(&body, "+ %s\n", linesB[j])
	}

	unified = fmt.Sprintf("--- %s\n+++ %s\n%s", labelA, labelB, body.String())
	return added, removed, unified
}

func splitLines(text string) []string {
	if text == "" {
		return nil
	}
	return strings.Split(strings.TrimRight(text, "\n"), "\n")
}
