package config

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv("BRIO_STATE_DIR", t.TempDir())
	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, "http://localhost:8080/api/v1", cfg.API.BaseURL)
	assert.Equal(t, "info", cfg.Logging.Level)
	assert.Equal(t, uint32(16000), cfg.Audio.SampleRate)
	assert.Equal(t, uint32(1), cfg.Audio.Channels)
}

func TestLoadEnvOverrides(t *testing.T) {
	dir := t.TempDir()
	t.Setenv("BRIO_STATE_DIR", dir)
	t.Setenv("BRIO_API_URL", "http://example.com/api/v1")
	t.Setenv("BRIO_LOG_LEVEL", "debug")

	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, "http://example.com/api/v1", cfg.API.BaseURL)
	assert.Equal(t, "debug", cfg.Logging.Level)
	assert.Equal(t, filepath.Join(dir, "briochat.log"), cfg.LogPath())
}

func TestLogPathOverride(t *testing.T) {
	cfg := &Config{Logging: Logging{File: "/tmp/custom.log"}, StateDir: "/nope"}
	assert.Equal(t, "/tmp/custom.log", cfg.LogPath())
}
