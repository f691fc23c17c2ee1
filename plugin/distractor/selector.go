package distractor

import (
	"math/rand"
	"sort"
	"sync"
	"time"
)

// numberWords recognizes bare numeral words, which make trivially-wrong
// distractors and would degenerate the option set. Covers the English and
// Lithuanian number words appearing in the vocabulary pools.
var numberWords = newNumberWordSet()

func newNumberWordSet() map[string]struct{} {
	words := []string{
		"zero", "one", "two", "three", "four", "five", "six", "seven", "eight", "nine", "ten",
		"eleven", "twelve", "twenty", "thirty", "forty", "fifty", "sixty", "seventy", "eighty", "ninety", "hundred", "thousand",
		"nulis", "vienas", "viena", "du", "dvi", "trys", "keturi", "penki", "šeši", "septyni", "aštuoni", "devyni",
		"dešimt", "dvidešimt", "trisdešimt", "šimtas", "tūkstantis",
	}
	set := make(map[string]struct{}, len(words))
	for _, w := range words {
		set[w] = struct{}{}
	}
	return set
}

// isNumberWord reports whether the normalized form is a recognized numeral word.
func isNumberWord(normalized string) bool {
	_, ok := numberWords[normalized]
	return ok
}

// Selector picks distractors for a multiple-choice question: the closest
// near-misses by similarity make the question meaningfully hard, and a few
// random wildcards keep the options from all being near-synonyms.
type Selector struct {
	// Wildcards is how many options are drawn uniformly at random instead of
	// by similarity rank. The 2 near-miss + 1 wildcard split at the default
	// option count is an empirical tuning choice, hence configurable.
	Wildcards int

	// randMu guards rand: one selector is shared by every concurrent
	// session-creation and practice request.
	randMu sync.Mutex
	rand   *rand.Rand
}

// NewSelector creates a selector with the given wildcard count.
func NewSelector(wildcards int) *Selector {
	if wildcards < 0 {
		wildcards = 0
	}
	return &Selector{
		Wildcards: wildcards,
		rand:      rand.New(rand.NewSource(time.Now().UnixNano())),
	}
}

// NewSeededSelector creates a selector with a deterministic random source.
func NewSeededSelector(wildcards int, seed int64) *Selector {
	s := NewSelector(wildcards)
	s.rand = rand.New(rand.NewSource(seed))
	return s
}

type candidate struct {
	surface string
	score   float64
}

// Select returns up to count distractors for the correct answer, drawn from
// pool: none equal to the correct answer (normalized comparison), all mutually
// distinct, shuffled. When the eligible pool holds fewer than count entries it
// returns as many as available; the caller tolerates short option sets, this
// is data sparsity rather than an error.
func (s *Selector) Select(correctAnswer string, pool []string, count int) []string {
	if count <= 0 {
		return nil
	}

	normalizedCorrect := Normalize(correctAnswer)

	// Normalize, dedupe and filter the pool, preserving pool order so that
	// similarity ties break stably.
	seen := make(map[string]struct{}, len(pool))
	candidates := make([]candidate, 0, len(pool))
	for _, surface := range pool {
		normalized := Normalize(surface)
		if normalized == "" || normalized == normalizedCorrect {
			continue
		}
		if isNumberWord(normalized) {
			continue
		}
		if _, dup := seen[normalized]; dup {
			continue
		}
		seen[normalized] = struct{}{}
		candidates = append(candidates, candidate{
			surface: surface,
			score:   Score(normalized, normalizedCorrect),
		})
	}

	if len(candidates) <= count {
		picked := make([]string, 0, len(candidates))
		for _, c := range candidates {
			picked = append(picked, c.surface)
		}
		s.shuffle(picked)
		return picked
	}

	sort.SliceStable(candidates, func(i, j int) bool {
		return candidates[i].score > candidates[j].score
	})

	wildcards := s.Wildcards
	if wildcards > count {
		wildcards = count
	}
	nearMisses := count - wildcards

	picked := make([]string, 0, count)
	for _, c := range candidates[:nearMisses] {
		picked = append(picked, c.surface)
	}

	// Wildcards come uniformly from the rest of the ranked pool.
	rest := candidates[nearMisses:]
	for _, idx := range s.perm(len(rest))[:wildcards] {
		picked = append(picked, rest[idx].surface)
	}

	s.shuffle(picked)
	return picked
}

func (s *Selector) perm(n int) []int {
	s.randMu.Lock()
	defer s.randMu.Unlock()
	return s.rand.Perm(n)
}

func (s *Selector) shuffle(options []string) {
	s.randMu.Lock()
	defer s.randMu.Unlock()
	s.rand.Shuffle(len(options), func(i, j int) {
		options[i], options[j] = options[j], options[i]
	})
}
