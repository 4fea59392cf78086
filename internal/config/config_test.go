package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadConfigDefaults(t *testing.T) {
	cfg, err := LoadConfig("")
	require.NoError(t, err)

	assert.Equal(t, "0.0.0.0", cfg.Server.Host)
	assert.Equal(t, 7000, cfg.Server.Port)
	assert.Equal(t, "keys/private.key", cfg.Keys.PrivateKeyPath)
	assert.Equal(t, "carbonchain-key-1", cfg.Keys.KeyID)
	assert.Equal(t, "data/projects.json", cfg.Data.ProjectsPath)
	assert.Equal(t, 0.025, cfg.Market.FeeRate)
	assert.False(t, cfg.Market.AllowForeignCancel)
	assert.Equal(t, "@every 1m", cfg.Market.SnapshotSchedule)
	assert.Equal(t, "https://api.sandbox.air3.com", cfg.Air.APIURL)
	assert.False(t, cfg.Air.Enabled)
	assert.Equal(t, "0.0.0.0:7000", cfg.Server.GetServerAddr())
}

func TestLoadConfigFromFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.json")
	require.NoError(t, os.WriteFile(path, []byte(`{
		"server": {"host": "127.0.0.1", "port": 9000},
		"market": {"fee_rate": 0.05, "allow_foreign_cancel": true}
	}`), 0644))

	cfg, err := LoadConfig(path)
	require.NoError(t, err)

	assert.Equal(t, "127.0.0.1", cfg.Server.Host)
	assert.Equal(t, 9000, cfg.Server.Port)
	assert.Equal(t, 0.05, cfg.Market.FeeRate)
	assert.True(t, cfg.Market.AllowForeignCancel)
	// untouched sections keep their defaults
	assert.Equal(t, "keys/private.key", cfg.Keys.PrivateKeyPath)
}

func TestLoadConfigInvalidFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.json")
	require.NoError(t, os.WriteFile(path, []byte(`{not json`), 0644))

	_, err := LoadConfig(path)
	assert.Error(t, err)
}

func TestLoadConfigMissingFileUsesDefaults(t *testing.T) {
	cfg, err := LoadConfig("does/not/exist.json")
	require.NoError(t, err)
	assert.Equal(t, 7000, cfg.Server.Port)
}

func TestEnvOverrides(t *testing.T) {
	t.Setenv("PORT", "8080")
	t.Setenv("MARKET_FEE_RATE", "0.03")
	t.Setenv("AIR_ENABLED", "true")
	t.Setenv("AIR_PARTNER_ID", "partner-123")
	t.Setenv("LOG_LEVEL", "debug")

	cfg, err := LoadConfig("")
	require.NoError(t, err)

	assert.Equal(t, 8080, cfg.Server.Port)
	assert.Equal(t, 0.03, cfg.Market.FeeRate)
	assert.True(t, cfg.Air.Enabled)
	assert.Equal(t, "partner-123", cfg.Air.PartnerID)
	assert.Equal(t, "debug", cfg.Logging.Level)
}

func TestEnvOverrideInvalidPortIgnored(t *testing.T) {
	t.Setenv("PORT", "not-a-port")

	cfg, err := LoadConfig("")
	require.NoError(t, err)
	assert.Equal(t, 7000, cfg.Server.Port)
}
