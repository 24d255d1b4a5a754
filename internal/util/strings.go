// Package util holds small text helpers shared by the board, the attention
// classifier and the TUI.
package util

import (
	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/x/ansi"
)

const ellipsis = "..."

// TruncateString cuts s to at most maxLen runes, ending in "..." when cut.
// It counts runes, not cells; use TruncateANSI for styled terminal text.
func TruncateString(s string, maxLen int) string {
	if maxLen <= len(ellipsis) {
		return ellipsis
	}
	if r := []rune(s); len(r) > maxLen {
		return string(r[:maxLen-len(ellipsis)]) + ellipsis
	}
	return s
}

// TruncateANSI cuts s to at most maxWidth terminal cells, keeping escape
// sequences intact and ending in "..." when cut.
func TruncateANSI(s string, maxWidth int) string {
	if maxWidth <= len(ellipsis) {
		return ellipsis
	}
	if lipgloss.Width(s) <= maxWidth {
		return s
	}
	return ansi.Truncate(s, maxWidth, ellipsis)
}
