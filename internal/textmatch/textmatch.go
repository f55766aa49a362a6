// Package textmatch holds case-insensitive phrase matching shared by the parsers.
package textmatch

import (
	"strings"
	"unicode"
	"unicode/utf8"
)

// ContainsWord finds needle in haystack only where it is not glued to other
// letters or digits, so "soho" matches "in Soho," but not "sohoist".
// Both arguments are expected to be lower-cased already.
func ContainsWord(haystack, needle string) bool {
	if needle == "" {
		return false
	}
	from := 0
	for from <= len(haystack) {
		idx := strings.Index(haystack[from:], needle)
		if idx < 0 {
			return false
		}
		start := from + idx
		end := start + len(needle)
		if boundaryBefore(haystack, start) && boundaryAfter(haystack, end) {
			return true
		}
		_, size := utf8.DecodeRuneInString(haystack[start:])
		from = start + size
	}
	return false
}

// ContainsAny reports whether any of words occurs in text as a whole word.
func ContainsAny(text string, words []string) bool {
	for _, w := range words {
		if ContainsWord(text, w) {
			return true
		}
	}
	return false
}

// FirstWord returns the first of words found in text, in slice order.
func FirstWord(text string, words []string) (string, bool) {
	for _, w := range words {
		if ContainsWord(text, w) {
			return w, true
		}
	}
	return "", false
}

func boundaryBefore(s string, i int) bool {
	if i == 0 {
		return true
	}
	r, _ := utf8.DecodeLastRuneInString(s[:i])
	return !isWordRune(r)
}

func boundaryAfter(s string, i int) bool {
	if i >= len(s) {
		return true
	}
	r, _ := utf8.DecodeRuneInString(s[i:])
	return !isWordRune(r)
}

func isWordRune(r rune) bool {
	return unicode.IsLetter(r) || unicode.IsDigit(r) || r == '_'
}
