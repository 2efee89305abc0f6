package conf

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadFromFile(t *testing.T) {
	dir := t.TempDir()
	configPath := filepath.Join(dir, "navtool.toml")
	content := `
[database]
path = "/var/lib/navtool/charts.db"

[loader]
verbose_diagnostics = true

[queue]
subscriber_buffer = 16

[discovery]
watch_dir = "/srv/enc-dropbox"
settle_ms = 250
`
	require.NoError(t, os.WriteFile(configPath, []byte(content), 0o644))

	cfg, err := LoadFromFile(configPath)
	require.NoError(t, err)

	assert.Equal(t, "/var/lib/navtool/charts.db", cfg.Database.Path)
	assert.True(t, cfg.Loader.VerboseDiagnostics)
	assert.Equal(t, 16, cfg.Queue.SubscriberBuffer)
	assert.Equal(t, "/srv/enc-dropbox", cfg.Discovery.WatchDir)
	assert.Equal(t, 250, cfg.Discovery.SettleMS)
}

func TestLoadFromFileDefaults(t *testing.T) {
	dir := t.TempDir()
	configPath := filepath.Join(dir, "navtool.toml")
	require.NoError(t, os.WriteFile(configPath, []byte("[database]\n"), 0o644))

	cfg, err := LoadFromFile(configPath)
	require.NoError(t, err)

	assert.NotEmpty(t, cfg.Database.Path, "database path should default")
	assert.False(t, cfg.Loader.VerboseDiagnostics)
	assert.Equal(t, 100, cfg.Queue.SubscriberBuffer)
	assert.Empty(t, cfg.Discovery.WatchDir, "discovery disabled by default")
	assert.Equal(t, 500, cfg.Discovery.SettleMS)
}

func TestLoadFromFileMissing(t *testing.T) {
	_, err := LoadFromFile(filepath.Join(t.TempDir(), "does-not-exist.toml"))
	assert.Error(t, err)
}

func TestLoadCachesResult(t *testing.T) {
	Reset()
	t.Cleanup(Reset)

	first, err := Load()
	require.NoError(t, err)
	second, err := Load()
	require.NoError(t, err)

	assert.Same(t, first, second, "Load should return the cached config")
}
