package main

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadConfig_MissingFileUsesDefaults(t *testing.T) {
	cfg, err := LoadConfig(filepath.Join(t.TempDir(), "absent.yml"))
	require.NoError(t, err)

	assert.Equal(t, "warehouse", cfg.Warehouse)
	assert.Equal(t, "icebergctl.db", cfg.Catalog.Path)
	assert.Equal(t, 4, cfg.Commit.MaxRetries)
	assert.Equal(t, "info", cfg.Logging.Level)
}

func TestLoadConfig_PartialFileKeepsDefaultsForUnsetFields(t *testing.T) {
	path := filepath.Join(t.TempDir(), "icebergctl.yml")
	require.NoError(t, os.WriteFile(path, []byte("warehouse: /srv/wh\nlogging:\n  level: debug\n"), 0o644))

	cfg, err := LoadConfig(path)
	require.NoError(t, err)

	assert.Equal(t, "/srv/wh", cfg.Warehouse)
	assert.Equal(t, "debug", cfg.Logging.Level)
	assert.Equal(t, "icebergctl.db", cfg.Catalog.Path)
	assert.Equal(t, 4, cfg.Commit.MaxRetries)
}

func TestLoadConfig_MalformedFileFails(t *testing.T) {
	path := filepath.Join(t.TempDir(), "icebergctl.yml")
	require.NoError(t, os.WriteFile(path, []byte("warehouse: [unclosed"), 0o644))

	_, err := LoadConfig(path)
	require.Error(t, err)
}
