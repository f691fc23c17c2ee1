package session

import (
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"

	"github.com/mazvydas/kasdien/plugin/distractor"
)

// foldDiacritics decomposes composed characters and drops the combining
// marks, so "katė" and "kate" compare equal.
var foldDiacritics = transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)

// normalizeAnswer produces the comparison form for grading: annotation
// stripped, diacritics folded to base Latin letters, lowercased.
func normalizeAnswer(s string) string {
	s = distractor.Normalize(s)
	if folded, _, err := transform.String(foldDiacritics, s); err == nil {
		s = folded
	}
	return strings.ToLower(strings.TrimSpace(s))
}

// answersMatch grades a submitted answer against the expected one.
func answersMatch(submitted, expected string) bool {
	return normalizeAnswer(submitted) == normalizeAnswer(expected)
}
