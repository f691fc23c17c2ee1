package profile

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestProfileFromEnv(t *testing.T) {
	t.Setenv("KASDIEN_QUESTION_SOURCE_URL", "https://questions.example.test")
	t.Setenv("KASDIEN_STATS_BACKEND_URL", "https://stats.example.test")
	t.Setenv("KASDIEN_TIME_SYNC_ENABLED", "true")

	p := &Profile{}
	p.FromEnv()

	assert.Equal(t, "https://questions.example.test", p.QuestionSourceURL)
	assert.Equal(t, "https://stats.example.test", p.StatsBackendURL)
	assert.True(t, p.TimeSyncEnabled)
}

func TestProfileValidate(t *testing.T) {
	t.Run("unknown mode falls back to demo", func(t *testing.T) {
		p := &Profile{Mode: "staging", Data: t.TempDir(), Driver: "sqlite"}
		require.NoError(t, p.Validate())
		assert.Equal(t, "demo", p.Mode)
	})

	t.Run("sqlite DSN defaults into data dir", func(t *testing.T) {
		dir := t.TempDir()
		p := &Profile{Mode: "dev", Data: dir, Driver: "sqlite"}
		require.NoError(t, p.Validate())
		assert.Contains(t, p.DSN, "kasdien_dev.db")
	})

	t.Run("option count defaults to 3", func(t *testing.T) {
		p := &Profile{Mode: "dev", Data: t.TempDir(), Driver: "sqlite"}
		require.NoError(t, p.Validate())
		assert.Equal(t, 3, p.OptionCount)
	})

	t.Run("wildcards must leave room for near misses", func(t *testing.T) {
		p := &Profile{Mode: "dev", Data: t.TempDir(), Driver: "sqlite", DistractorWildcards: 3, OptionCount: 3}
		assert.Error(t, p.Validate())
	})
}
