package util

import "unicode/utf8"

// Truncate shortens s to at most max runes, replacing the tail with an
// ellipsis. A max below 1 returns s unchanged.
func Truncate(s string, max int) string {
	if max < 1 || utf8.RuneCountInString(s) <= max {
		return s
	}
	runes := []rune(s)
	if max == 1 {
		return "…"
	}
	return string(runes[:max-1]) + "…"
}
