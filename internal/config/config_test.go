package config

import (
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadFrom_Defaults(t *testing.T) {
	cfg, err := LoadFrom(map[string]string{})
	require.NoError(t, err)

	assert.Equal(t, 60, cfg.FPS)
	assert.False(t, cfg.ReducedMotion)
	assert.Empty(t, cfg.TimelinesDir)
	assert.Equal(t, slog.LevelInfo, cfg.LogLevel)
	_, ok := cfg.Journal("")
	assert.False(t, ok)
}

func TestLoadFrom_Overrides(t *testing.T) {
	cfg, err := LoadFrom(map[string]string{
		"CEREMONY_FPS":            "120",
		"CEREMONY_REDUCED_MOTION": "true",
		"CEREMONY_TIMELINES":      "/etc/ceremony/timelines",
		"CEREMONY_DB":             "/tmp/journal.db",
		"CEREMONY_LOG_LEVEL":      "debug",
		"FPS":                     "1",
	})
	require.NoError(t, err)

	assert.Equal(t, 120, cfg.FPS)
	assert.True(t, cfg.ReducedMotion)
	assert.Equal(t, "/etc/ceremony/timelines", cfg.TimelinesDir)
	assert.Equal(t, "/tmp/journal.db", cfg.DBPath)
	assert.Equal(t, slog.LevelDebug, cfg.LogLevel)
	path, ok := cfg.Journal("")
	assert.True(t, ok)
	assert.Equal(t, "/tmp/journal.db", path)
}

func TestJournalFlagWins(t *testing.T) {
	cfg := &Config{DBPath: "/tmp/env.db"}

	path, ok := cfg.Journal("/tmp/flag.db")
	assert.True(t, ok)
	assert.Equal(t, "/tmp/flag.db", path)

	path, ok = (&Config{}).Journal("/tmp/flag.db")
	assert.True(t, ok)
	assert.Equal(t, "/tmp/flag.db", path)
}

func TestLoadFrom_Invalid(t *testing.T) {
	tests := []struct {
		name    string
		environ map[string]string
	}{
		{"non-numeric fps", map[string]string{"CEREMONY_FPS": "fast"}},
		{"zero fps", map[string]string{"CEREMONY_FPS": "0"}},
		{"bad bool", map[string]string{"CEREMONY_REDUCED_MOTION": "sometimes"}},
		{"bad level", map[string]string{"CEREMONY_LOG_LEVEL": "loud"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := LoadFrom(tt.environ)
			require.Error(t, err)
			assert.Contains(t, err.Error(), "parsing environment")
		})
	}
}
