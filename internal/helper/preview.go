package helper

import (
	"strings"
	"unicode/utf8"
)

// TruncatePreview shortens s to at most maxRunes runes, marking the cut with an ellipsis.
func TruncatePreview(s string, maxRunes int) string {
	s = strings.Join(strings.Fields(s), " ")
	if maxRunes <= 0 || utf8.RuneCountInString(s) <= maxRunes {
		return s
	}

	runes := []rune(s)
	return strings.TrimRight(string(runes[:maxRunes]), " ") + "…"
}
