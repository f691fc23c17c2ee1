package distractor

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSelector_LithuanianPool(t *testing.T) {
	pool := []string{"katė", "šuo", "namas", "knyga", "arbata"}
	selector := NewSeededSelector(1, 42)

	got := selector.Select("katė", pool, 3)

	require.Len(t, got, 3)
	seen := make(map[string]struct{})
	for _, option := range got {
		assert.NotEqual(t, "katė", Normalize(option))
		assert.Contains(t, pool, option)
		seen[Normalize(option)] = struct{}{}
	}
	assert.Len(t, seen, 3, "options must be mutually distinct")
}

func TestSelector_ExcludesCorrectAnswerNormalized(t *testing.T) {
	pool := []string{"KATĖ", "katė (daiktavardis)", "šuo", "namas", "knyga"}
	selector := NewSeededSelector(1, 1)

	got := selector.Select("katė", pool, 3)

	for _, option := range got {
		assert.NotEqual(t, "katė", Normalize(option))
	}
	assert.Len(t, got, 3)
}

func TestSelector_SparsePoolReturnsFewer(t *testing.T) {
	selector := NewSeededSelector(1, 7)

	got := selector.Select("katė", []string{"šuo", "namas"}, 3)
	assert.Len(t, got, 2)

	got = selector.Select("katė", nil, 3)
	assert.Empty(t, got)
}

func TestSelector_FiltersNumberWords(t *testing.T) {
	pool := []string{"vienas", "du", "trys", "one", "two", "šuo", "namas", "knyga", "arbata"}
	selector := NewSeededSelector(1, 3)

	got := selector.Select("katė", pool, 3)

	require.Len(t, got, 3)
	for _, option := range got {
		assert.False(t, isNumberWord(Normalize(option)), "numeral %q must be filtered", option)
	}
}

func TestSelector_DeduplicatesPool(t *testing.T) {
	pool := []string{"šuo", "ŠUO", "šuo (daiktavardis)", "namas"}
	selector := NewSeededSelector(0, 5)

	got := selector.Select("katė", pool, 3)

	seen := make(map[string]struct{})
	for _, option := range got {
		seen[Normalize(option)] = struct{}{}
	}
	assert.Len(t, got, len(seen))
	assert.Len(t, got, 2)
}

func TestSelector_NearMissesRankHighest(t *testing.T) {
	// With no wildcards every pick is similarity-ranked, so the two closest
	// near-misses must always be present.
	pool := []string{"kava", "kate (pažodžiui)", "traukinys", "sviestas", "geležinkelis"}
	selector := NewSeededSelector(0, 11)

	got := selector.Select("katė", pool, 2)

	require.Len(t, got, 2)
	assert.ElementsMatch(t, []string{"kava", "kate (pažodžiui)"}, got)
}

func TestSelector_WildcardSplitConfigurable(t *testing.T) {
	pool := []string{"kava", "kate", "kita", "traukinys", "sviestas", "geležinkelis", "obuolys"}

	// All wildcards: any eligible entry may appear, near-miss rank ignored.
	all := NewSeededSelector(3, 5).Select("katė", pool, 3)
	require.Len(t, all, 3)

	// Default split keeps count-1 near misses.
	split := NewSeededSelector(1, 5).Select("katė", pool, 3)
	require.Len(t, split, 3)
	assert.Subset(t, pool, split)
	assert.Contains(t, split, "kate", "closest near miss must survive the split")
}

func TestSelector_SharedAcrossGoroutines(t *testing.T) {
	// One selector serves every concurrent session-creation and practice
	// request; run under -race.
	pool := []string{"šuo", "namas", "knyga", "arbata", "kava", "stalas", "kėdė", "langas"}
	selector := NewSelector(1)

	var wg sync.WaitGroup
	for i := 0; i < 4; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 50; j++ {
				got := selector.Select("katė", pool, 3)
				assert.Len(t, got, 3)
			}
		}()
	}
	wg.Wait()
}

func TestSelector_LargePoolProperty(t *testing.T) {
	pool := []string{
		"šuo", "namas", "knyga", "arbata", "kava", "stalas", "kėdė", "langas",
		"durys", "miestas", "gatvė", "medis", "gėlė", "saulė", "mėnulis",
	}

	for seed := int64(0); seed < 20; seed++ {
		selector := NewSeededSelector(1, seed)
		got := selector.Select("katė", pool, 3)

		require.Len(t, got, 3, "seed %d", seed)
		seen := make(map[string]struct{})
		for _, option := range got {
			assert.NotEqual(t, "katė", Normalize(option))
			assert.Contains(t, pool, option)
			seen[Normalize(option)] = struct{}{}
		}
		assert.Len(t, seen, 3)
	}
}
