package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	var c Config
	c.LoadDefaults()

	assert.Equal(t, "journal.db", c.DatabasePath)
	assert.Equal(t, "journal-appdata", c.RemoteBucket)
	assert.Equal(t, 30*time.Second, c.SyncDebounce)
	assert.Equal(t, "all-minilm-l6-v2@1", c.EmbeddingModel)
}

func TestLoadConfig_UsesDefaultsBeforeParsing(t *testing.T) {
	restoreArgs(t)
	os.Args = []string{"journal"}

	cfg := LoadConfig()

	require.NotNil(t, cfg, "LoadConfig must not return nil")
	assert.Equal(t, "journal.db", cfg.DatabasePath)
	assert.Equal(t, 30*time.Second, cfg.SyncDebounce)
}

func TestLoadConfig_JsonOverlay(t *testing.T) {
	restoreArgs(t)

	path := filepath.Join(t.TempDir(), "config.json")
	require.NoError(t, os.WriteFile(path, []byte(`{
		"database_path": "/data/journal.db",
		"remote_endpoint": "https://files.example.com",
		"sync_debounce": "45s"
	}`), 0o600))

	os.Args = []string{"journal", "-c", path}
	cfg := LoadConfig()

	assert.Equal(t, "/data/journal.db", cfg.DatabasePath)
	assert.Equal(t, "https://files.example.com", cfg.RemoteEndpoint)
	assert.Equal(t, 45*time.Second, cfg.SyncDebounce)
	// Absent fields keep their defaults.
	assert.Equal(t, "journal-appdata", cfg.RemoteBucket)
}

func TestLoadConfig_FlagsOverrideJson(t *testing.T) {
	restoreArgs(t)

	path := filepath.Join(t.TempDir(), "config.json")
	require.NoError(t, os.WriteFile(path, []byte(`{"database_path": "/from/json.db", "sync_debounce": "45s"}`), 0o600))

	os.Args = []string{"journal", "-c", path, "-d", "/from/flag.db", "-s", "10"}
	cfg := LoadConfig()

	assert.Equal(t, "/from/flag.db", cfg.DatabasePath)
	assert.Equal(t, 10*time.Second, cfg.SyncDebounce)
}

func restoreArgs(t *testing.T) {
	t.Helper()
	orig := os.Args
	t.Cleanup(func() { os.Args = orig })
}
