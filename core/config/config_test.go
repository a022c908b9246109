package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadConfig_Defaults(t *testing.T) {
	cfg, err := LoadConfig(t.TempDir())
	require.NoError(t, err)

	assert.Equal(t, "8080", cfg.Server.Port)
	assert.Equal(t, "mysql", cfg.Database.Driver)
	assert.Equal(t, 24, cfg.Sync.StaleHours)
	assert.Equal(t, 36000, cfg.Battlenet.ReservoirSize)
	assert.Equal(t, "https://oauth.battle.net/token", cfg.Battlenet.TokenURL)
	assert.False(t, cfg.Storage.Enabled)
	assert.False(t, cfg.Redis.Enabled())
}

func TestLoadConfig_EnvOverrides(t *testing.T) {
	dir := t.TempDir()
	env := "BATTLENET_CLIENT_ID=abc\nSYNC_STALE_HOURS=6\nDATABASE_DRIVER=sqlite\n"
	require.NoError(t, os.WriteFile(filepath.Join(dir, ".env"), []byte(env), 0o600))
	t.Cleanup(func() {
		os.Unsetenv("BATTLENET_CLIENT_ID")
		os.Unsetenv("SYNC_STALE_HOURS")
		os.Unsetenv("DATABASE_DRIVER")
	})

	cfg, err := LoadConfig(dir)
	require.NoError(t, err)

	assert.Equal(t, "abc", cfg.Battlenet.ClientID)
	assert.Equal(t, 6, cfg.Sync.StaleHours)
	assert.Equal(t, "sqlite", cfg.Database.Driver)
}
