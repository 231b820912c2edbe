package ingest

import (
	"strings"
	"unicode"
	"unicode/utf8"
)

// Truncate cuts s to at most n characters. It is a raw cut with no
// word-boundary awareness and no ellipsis.
func Truncate(s string, n int) string {
	if n < 0 || utf8.RuneCountInString(s) <= n {
		return s
	}
	runes := []rune(s)
	return string(runes[:n])
}

// CollapseSpace replaces every run of whitespace with a single space and
// trims the ends.
func CollapseSpace(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

// SentenceCase uppercases only the first character of the trimmed string.
func SentenceCase(s string) string {
	s = strings.TrimSpace(s)
	if s == "" {
		return ""
	}
	r, size := utf8.DecodeRuneInString(s)
	return string(unicode.ToUpper(r)) + s[size:]
}

// Len returns the length of s in characters.
func Len(s string) int { return utf8.RuneCountInString(s) }
