// Package distractor generates plausible-but-wrong multiple-choice options
// from a vocabulary pool, ranked by edit-distance similarity to the correct
// answer.
package distractor

import (
	"regexp"
	"strings"
)

// annotationPattern matches parenthetical grammatical annotations such as
// "run (verb)".
var annotationPattern = regexp.MustCompile(`\s*\([^)]*\)`)

// Normalize lowercases a surface form and strips parenthetical annotations,
// producing the comparison form used for scoring and deduplication.
func Normalize(s string) string {
	s = annotationPattern.ReplaceAllString(s, "")
	return strings.ToLower(strings.TrimSpace(s))
}

// Levenshtein computes the classic edit distance (insert/delete/substitute,
// unit cost) between two strings, over runes.
func Levenshtein(a, b string) int {
	ra, rb := []rune(a), []rune(b)
	if len(ra) == 0 {
		return len(rb)
	}
	if len(rb) == 0 {
		return len(ra)
	}

	prev := make([]int, len(rb)+1)
	curr := make([]int, len(rb)+1)
	for j := range prev {
		prev[j] = j
	}

	for i := 1; i <= len(ra); i++ {
		curr[0] = i
		for j := 1; j <= len(rb); j++ {
			cost := 1
			if ra[i-1] == rb[j-1] {
				cost = 0
			}
			curr[j] = min3(
				prev[j]+1,      // deletion
				curr[j-1]+1,    // insertion
				prev[j-1]+cost, // substitution
			)
		}
		prev, curr = curr, prev
	}

	return prev[len(rb)]
}

// Score computes a similarity score in (0, 1] between two surface forms,
// higher meaning more similar. Identical forms score 1.0. The score is
// symmetric, deterministic and total: 1 / (1 + editDistance) over normalized
// strings.
func Score(a, b string) float64 {
	return 1.0 / float64(1+Levenshtein(Normalize(a), Normalize(b)))
}

func min3(a, b, c int) int {
	m := a
	if b < m {
		m = b
	}
	if c < m {
		m = c
	}
	return m
}
