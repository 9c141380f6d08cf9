package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultLiteConfig(t *testing.T) {
	cfg := DefaultLiteConfig()

	assert.NotEmpty(t, cfg.DataDir)
	assert.Equal(t, 1000, cfg.CacheMaxItems)
	assert.Equal(t, 15*time.Minute, cfg.CacheTTL)
	assert.Equal(t, "stdio", cfg.Transport)
	assert.True(t, cfg.RecordCheckups)
	assert.Equal(t, "info", cfg.LogLevel)
	assert.Equal(t, "json", cfg.LogFormat)
}

func TestLoadLiteConfig_Defaults(t *testing.T) {
	clearEnvVars(t)

	cfg := LoadLiteConfig()

	assert.NotEmpty(t, cfg.DataDir)
	assert.Equal(t, 1000, cfg.CacheMaxItems)
	assert.Equal(t, "stdio", cfg.Transport)
}

func TestLoadLiteConfig_EnvironmentOverrides(t *testing.T) {
	clearEnvVars(t)

	t.Setenv("SCREENING_DATA_DIR", "/tmp/test-screening")
	t.Setenv("SCREENING_CACHE_MAX_ITEMS", "500")
	t.Setenv("SCREENING_CACHE_TTL", "1h")
	t.Setenv("SCREENING_RECORD_CHECKUPS", "false")
	t.Setenv("SCREENING_LOG_LEVEL", "debug")
	t.Setenv("SCREENING_LOG_FORMAT", "text")

	cfg := LoadLiteConfig()

	assert.Equal(t, "/tmp/test-screening", cfg.DataDir)
	assert.Equal(t, 500, cfg.CacheMaxItems)
	assert.Equal(t, time.Hour, cfg.CacheTTL)
	assert.False(t, cfg.RecordCheckups)
	assert.Equal(t, "debug", cfg.LogLevel)
	assert.Equal(t, "text", cfg.LogFormat)
}

func TestLoadLiteConfig_InvalidValuesKeepDefaults(t *testing.T) {
	clearEnvVars(t)

	t.Setenv("SCREENING_CACHE_MAX_ITEMS", "-3")
	t.Setenv("SCREENING_CACHE_TTL", "soon")
	t.Setenv("SCREENING_RECORD_CHECKUPS", "maybe")

	cfg := LoadLiteConfig()

	assert.Equal(t, 1000, cfg.CacheMaxItems)
	assert.Equal(t, 15*time.Minute, cfg.CacheTTL)
	assert.True(t, cfg.RecordCheckups)
}

func TestLiteConfig_Paths(t *testing.T) {
	cfg := &LiteConfig{DataDir: "/home/user/.screening-engine"}

	assert.Equal(t, "/home/user/.screening-engine/checkups.db", cfg.CheckupDBPath())
	assert.Equal(t, "/home/user/.screening-engine/exports", cfg.ExportDir())
}

func TestLiteConfig_EnsureDataDir(t *testing.T) {
	cfg := &LiteConfig{DataDir: filepath.Join(t.TempDir(), "screening")}

	err := cfg.EnsureDataDir()
	require.NoError(t, err)

	_, err = os.Stat(cfg.DataDir)
	assert.NoError(t, err)

	_, err = os.Stat(cfg.ExportDir())
	assert.NoError(t, err)
}

func clearEnvVars(t *testing.T) {
	t.Helper()
	vars := []string{
		"SCREENING_DATA_DIR",
		"SCREENING_CACHE_MAX_ITEMS",
		"SCREENING_CACHE_TTL",
		"SCREENING_TRANSPORT",
		"SCREENING_RECORD_CHECKUPS",
		"SCREENING_LOG_LEVEL",
		"SCREENING_LOG_FORMAT",
	}
	for _, v := range vars {
		t.Setenv(v, "")
	}
}
