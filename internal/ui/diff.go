package ui

import (
	"strings"

	"github.com/pmezard/go-difflib/difflib"
)

// UnifiedDiff renders a unified diff between two texts with three lines of
// context. Returns "" when the texts are equal or rendering fails.
func UnifiedDiff(from, to, fromLabel, toLabel string) string {
	if from == to {
		return ""
	}
	from = strings.TrimRight(from, "\n")
	to = strings.TrimRight(to, "\n")
	ud := difflib.UnifiedDiff{
		A:        difflib.SplitLines(from + "\n"),
		B:        difflib.SplitLines(to + "\n"),
		FromFile: fromLabel,
		ToFile:   toLabel,
		Context:  3,
	}
	text, err := difflib.GetUnifiedDiffString(ud)
	if err != nil {
		return ""
	}
	return text
}
