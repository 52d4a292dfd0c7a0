// Package textutil holds rune-safe truncation helpers shared by the payload builders.
package textutil

import "strings"

// Ellipsis is appended to text cut by Clip.
const Ellipsis = "…"

// Truncate cuts raw to at most max runes. A non-positive max disables truncation.
func Truncate(raw string, max int) (string, bool) {
	if max <= 0 {
		return raw, false
	}
	runes := []rune(raw)
	if len(runes) <= max {
		return raw, false
	}
	return string(runes[:max]), true
}

// Clip truncates raw so that the result, including marker, fits in max runes.
func Clip(raw string, max int, marker string) string {
	if max <= 0 || len([]rune(raw)) <= max {
		return raw
	}
	keep := max - len([]rune(marker))
	if keep < 0 {
		keep = 0
	}
	cut, _ := Truncate(raw, keep)
	return strings.TrimRightFunc(cut, isSpace) + marker
}

// OneLine collapses all whitespace runs to single spaces.
func OneLine(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

func isSpace(r rune) bool {
	return r == ' ' || r == '\n' || r == '\t' || r == '\r'
}
