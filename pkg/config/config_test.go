package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultConfigIsValid(t *testing.T) {
	cfg := DefaultConfig()
	require.NoError(t, cfg.Validate())

	sc := cfg.SharingConfig()
	assert.Equal(t, 3, sc.Parts)
	assert.Equal(t, 2, sc.Threshold)
	assert.Equal(t, "hmac-sha256", sc.MACAlgorithm)
}

func TestNewConfigManagerCreatesDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "rss", "config.json")

	cm, err := NewConfigManagerAt(path)
	require.NoError(t, err)
	assert.Equal(t, DefaultConfig(), cm.GetConfig())
	assert.Equal(t, path, cm.Path())

	info, err := os.Stat(path)
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0600), info.Mode().Perm())
}

func TestSaveAndReload(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.json")

	cm, err := NewConfigManagerAt(path)
	require.NoError(t, err)

	cfg := cm.GetConfig()
	cfg.Defaults.Parts = 7
	cfg.Defaults.Threshold = 4
	cfg.Defaults.MACAlgorithm = "blake2b-256"
	require.NoError(t, cm.SaveConfig())

	reloaded, err := NewConfigManagerAt(path)
	require.NoError(t, err)
	assert.Equal(t, 7, reloaded.GetConfig().Defaults.Parts)
	assert.Equal(t, 4, reloaded.GetConfig().Defaults.Threshold)
	assert.Equal(t, "blake2b-256", reloaded.GetConfig().Defaults.MACAlgorithm)
}

func TestPartialFileKeepsDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.json")
	require.NoError(t, os.WriteFile(path, []byte(`{"defaults":{"parts":5,"threshold":3}}`), 0600))

	cm, err := NewConfigManagerAt(path)
	require.NoError(t, err)
	assert.Equal(t, 5, cm.GetConfig().Defaults.Parts)
	assert.Equal(t, "hmac-sha256", cm.GetConfig().Defaults.MACAlgorithm)
	assert.Equal(t, 8, cm.GetConfig().Security.MinPasswordLength)
}

func TestInvalidFileIsRejected(t *testing.T) {
	tests := []struct {
		name    string
		content string
	}{
		{name: "malformed", content: `{"defaults":`},
		{name: "threshold above parts", content: `{"defaults":{"parts":2,"threshold":3}}`},
		{name: "unknown mac", content: `{"defaults":{"mac_algorithm":"md5"}}`},
		{name: "unknown verbosity", content: `{"ui":{"verbosity":"loud"}}`},
		{name: "negative password length", content: `{"security":{"min_password_length":-1}}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), "config.json")
			require.NoError(t, os.WriteFile(path, []byte(tt.content), 0600))

			_, err := NewConfigManagerAt(path)
			assert.Error(t, err)
		})
	}
}

func TestGetConfigPath(t *testing.T) {
	t.Setenv("RSS_CONFIG", "/tmp/custom.json")
	path, err := getConfigPath()
	require.NoError(t, err)
	assert.Equal(t, "/tmp/custom.json", path)

	t.Setenv("RSS_CONFIG", "")
	t.Setenv("XDG_CONFIG_HOME", "/tmp/xdg")
	path, err = getConfigPath()
	require.NoError(t, err)
	assert.Equal(t, filepath.Join("/tmp/xdg", "rss", "config.json"), path)
}

func TestValidatePassword(t *testing.T) {
	cfg := DefaultConfig()
	assert.Error(t, cfg.ValidatePassword([]byte("short")))
	assert.NoError(t, cfg.ValidatePassword([]byte("long enough")))
}

func TestStorageDir(t *testing.T) {
	home, err := os.UserHomeDir()
	require.NoError(t, err)

	cfg := DefaultConfig()
	dir, err := cfg.StorageDir()
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(home, ".rss", "shares"), dir)

	cfg.Storage.DefaultPath = "/var/lib/rss"
	dir, err = cfg.StorageDir()
	require.NoError(t, err)
	assert.Equal(t, "/var/lib/rss", dir)
}
