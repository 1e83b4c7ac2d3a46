package config_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/Ccjx3/KVDatabase/internal/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultConfig_PassesValidation(t *testing.T) {
	cfg := config.DefaultConfig()
	assert.NoError(t, cfg.Validate())
	assert.Equal(t, 32, cfg.SkipList.MaxLevel)
	assert.Equal(t, 16, cfg.SkipList.SegmentCount)
	assert.False(t, cfg.GC.Enabled)
}

func TestLoadConfig_FillsDefaultsForUnspecifiedFields(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "store.yaml")
	require.NoError(t, os.WriteFile(path, []byte("skiplist:\n  max_level: 20\n"), 0o644))

	cfg, err := config.LoadConfig(path)
	require.NoError(t, err)
	assert.Equal(t, 20, cfg.SkipList.MaxLevel)
	assert.Equal(t, 16, cfg.SkipList.SegmentCount, "unspecified field should fall back to default")
}

func TestLoadConfig_MissingFileReturnsError(t *testing.T) {
	_, err := config.LoadConfig("/nonexistent/store.yaml")
	assert.Error(t, err)
}

func TestValidate_RejectsOutOfRangeMaxLevel(t *testing.T) {
	cfg := config.DefaultConfig()
	cfg.SkipList.MaxLevel = 0
	assert.Error(t, cfg.Validate())

	cfg.SkipList.MaxLevel = 100
	assert.Error(t, cfg.Validate())
}

func TestValidate_RejectsGCEnabledWithoutInterval(t *testing.T) {
	cfg := config.DefaultConfig()
	cfg.GC.Enabled = true
	cfg.GC.Interval = 0
	assert.Error(t, cfg.Validate())
}

func TestValidate_RejectsUnknownLoggingLevel(t *testing.T) {
	cfg := config.DefaultConfig()
	cfg.Logging.Level = "verbose"
	assert.Error(t, cfg.Validate())
}
