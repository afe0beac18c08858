package tui

import (
	"strings"
	"unicode"

	"github.com/charmbracelet/x/ansi"
)

// termSafe removes escape sequences and control characters from text the
// backend supplied, keeping newlines and tabs. Styling is applied after.
func termSafe(s string) string {
	s = ansi.Strip(s)
	return strings.Map(func(r rune) rune {
		if r == '\n' || r == '\t' {
			return r
		}
		if unicode.IsControl(r) {
			return -1
		}
		return r
	}, s)
}
