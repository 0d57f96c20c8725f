package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewConfigIsValid(t *testing.T) {
	cfg := NewConfig()
	require.NoError(t, cfg.Validate())
	assert.Equal(t, "blockcypher", cfg.BalanceProvider)
	assert.Equal(t, RolePrimary, cfg.Role)
	assert.False(t, cfg.SkipWriteOnFetchFailure)
}

func TestLoadFromEnvironment(t *testing.T) {
	t.Setenv("WALLET_WATCH_DATA_DIR", "/tmp/ww")
	t.Setenv("WALLET_WATCH_BALANCE_PROVIDER", "blockchain")
	t.Setenv("WALLET_WATCH_HTTP_TIMEOUT", "1500")
	t.Setenv("WALLET_WATCH_ROLE", "companion")
	t.Setenv("WALLET_WATCH_SYNC_MAX_RETRIES", "2")
	t.Setenv("WALLET_WATCH_SKIP_WRITE_ON_FAILURE", "true")
	t.Setenv("WALLET_WATCH_SYNC_RETRY_DELAY", "not-a-number")

	cfg := NewConfig()
	cfg.LoadFromEnvironment()

	assert.Equal(t, "/tmp/ww", cfg.DataDir)
	assert.Equal(t, "blockchain", cfg.BalanceProvider)
	assert.Equal(t, 1500*time.Millisecond, cfg.HTTPTimeout)
	assert.Equal(t, RoleCompanion, cfg.Role)
	assert.Equal(t, 2, cfg.SyncMaxRetries)
	assert.True(t, cfg.SkipWriteOnFetchFailure)
	// unparsable values keep the default
	assert.Equal(t, 500*time.Millisecond, cfg.SyncRetryDelay)
}

func TestLoadFromFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	content := "balanceProvider: blockchain\nhttpTimeout: 5s\npairURL: ws://watch.local:59011/pair\n"
	require.NoError(t, os.WriteFile(path, []byte(content), 0600))

	cfg := NewConfig()
	require.NoError(t, cfg.LoadFromFile(path))

	assert.Equal(t, "blockchain", cfg.BalanceProvider)
	assert.Equal(t, 5*time.Second, cfg.HTTPTimeout)
	assert.Equal(t, "ws://watch.local:59011/pair", cfg.PairURL)
	// untouched keys keep their defaults
	assert.Equal(t, "https://api.coinbase.com", cfg.PriceBaseURL)
}

func TestLoadFromFileMissing(t *testing.T) {
	cfg := NewConfig()
	err := cfg.LoadFromFile(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"empty data dir", func(c *Config) { c.DataDir = "" }},
		{"unknown provider", func(c *Config) { c.BalanceProvider = "etherscan" }},
		{"zero timeout", func(c *Config) { c.HTTPTimeout = 0 }},
		{"bad role", func(c *Config) { c.Role = "tablet" }},
		{"negative retries", func(c *Config) { c.SyncMaxRetries = -1 }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := NewConfig()
			tt.mutate(cfg)
			assert.Error(t, cfg.Validate())
		})
	}
}

func TestExpandPaths(t *testing.T) {
	home, err := os.UserHomeDir()
	require.NoError(t, err)

	cfg := NewConfig()
	cfg.LogDir = "relative/logs"
	require.NoError(t, cfg.ExpandPaths())

	assert.Equal(t, filepath.Join(home, ".wallet-watch"), cfg.DataDir)
	assert.Equal(t, "relative/logs", cfg.LogDir)
}
