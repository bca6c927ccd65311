package server

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, ":8080", cfg.ListenAddr)
	assert.Equal(t, "acra_data", cfg.DataDir)
	assert.Equal(t, "acra.db", cfg.DBPath)
	assert.Equal(t, "info", cfg.LogLevel)
}

func TestLoadFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
listen_addr: ":9000"
data_dir: /tmp/decks
log_level: debug
colors:
  orange: FFA500
`), 0o644))

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, ":9000", cfg.ListenAddr)
	assert.Equal(t, "/tmp/decks", cfg.DataDir)
	assert.Equal(t, "debug", cfg.LogLevel)
	// File values override defaults; untouched fields keep theirs.
	assert.Equal(t, "acra.db", cfg.DBPath)

	p := cfg.Palette()
	assert.Equal(t, "FFA500", p["orange"])
	assert.Equal(t, "00B050", p["green"])
}

func TestLoadEnvOverrides(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("listen_addr: \":9000\"\n"), 0o644))

	t.Setenv("ACRA_LISTEN_ADDR", ":7070")
	t.Setenv("ACRA_DB_PATH", "override.db")

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, ":7070", cfg.ListenAddr)
	assert.Equal(t, "override.db", cfg.DBPath)
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "absent.yaml"))
	assert.Error(t, err)
}
