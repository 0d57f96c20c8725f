package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

const (
	RolePrimary   = "primary"
	RoleCompanion = "companion"
)

// Config holds all application configuration
type Config struct {
	// Storage settings
	DataDir   string `yaml:"dataDir"`
	BackupDir string `yaml:"backupDir"`
	LogDir    string `yaml:"logDir"`

	// Source settings
	PriceBaseURL          string        `yaml:"priceBaseURL"`
	BalanceProvider       string        `yaml:"balanceProvider"`
	BlockCypherBaseURL    string        `yaml:"blockCypherBaseURL"`
	BlockchainInfoBaseURL string        `yaml:"blockchainInfoBaseURL"`
	HTTPTimeout           time.Duration `yaml:"httpTimeout"`

	// Refresh settings
	SkipWriteOnFetchFailure bool `yaml:"skipWriteOnFetchFailure"`

	// Pairing settings
	Role           string        `yaml:"role"`
	PairListenAddr string        `yaml:"pairListenAddr"`
	PairURL        string        `yaml:"pairURL"`
	SyncMaxRetries int           `yaml:"syncMaxRetries"`
	SyncRetryDelay time.Duration `yaml:"syncRetryDelay"`
}

// NewConfig creates a new configuration with default values
func NewConfig() *Config {
	return &Config{
		DataDir:               "~/.wallet-watch",
		BackupDir:             "~/backups",
		LogDir:                "logs",
		PriceBaseURL:          "https://api.coinbase.com",
		BalanceProvider:       "blockcypher",
		BlockCypherBaseURL:    "https://api.blockcypher.com",
		BlockchainInfoBaseURL: "https://blockchain.info",
		HTTPTimeout:           30 * time.Second,
		Role:                  RolePrimary,
		PairListenAddr:        "127.0.0.1:59011",
		SyncMaxRetries:        5,
		SyncRetryDelay:        500 * time.Millisecond,
	}
}

// LoadFromFile overlays the values present in a YAML file
func (c *Config) LoadFromFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read config file %s: %w", path, err)
	}

	if err := yaml.Unmarshal(data, c); err != nil {
		return fmt.Errorf("failed to unmarshal config data from %s: %w", path, err)
	}

	return nil
}

// LoadFromEnvironment loads configuration from environment variables
func (c *Config) LoadFromEnvironment() {
	if dataDir := os.Getenv("WALLET_WATCH_DATA_DIR"); dataDir != "" {
		c.DataDir = dataDir
	}

	if backupDir := os.Getenv("WALLET_WATCH_BACKUP_DIR"); backupDir != "" {
		c.BackupDir = backupDir
	}

	if logDir := os.Getenv("WALLET_WATCH_LOG_DIR"); logDir != "" {
		c.LogDir = logDir
	}

	if priceURL := os.Getenv("WALLET_WATCH_PRICE_URL"); priceURL != "" {
		c.PriceBaseURL = priceURL
	}

	if provider := os.Getenv("WALLET_WATCH_BALANCE_PROVIDER"); provider != "" {
		c.BalanceProvider = provider
	}

	if url := os.Getenv("WALLET_WATCH_BLOCKCYPHER_URL"); url != "" {
		c.BlockCypherBaseURL = url
	}

	if url := os.Getenv("WALLET_WATCH_BLOCKCHAIN_INFO_URL"); url != "" {
		c.BlockchainInfoBaseURL = url
	}

	if timeout := os.Getenv("WALLET_WATCH_HTTP_TIMEOUT"); timeout != "" {
		if t, err := strconv.Atoi(timeout); err == nil {
			c.HTTPTimeout = time.Duration(t) * time.Millisecond
		}
	}

	if skip := os.Getenv("WALLET_WATCH_SKIP_WRITE_ON_FAILURE"); skip != "" {
		if b, err := strconv.ParseBool(skip); err == nil {
			c.SkipWriteOnFetchFailure = b
		}
	}

	if role := os.Getenv("WALLET_WATCH_ROLE"); role != "" {
		c.Role = role
	}

	if addr := os.Getenv("WALLET_WATCH_PAIR_LISTEN"); addr != "" {
		c.PairListenAddr = addr
	}

	if url := os.Getenv("WALLET_WATCH_PAIR_URL"); url != "" {
		c.PairURL = url
	}

	if retries := os.Getenv("WALLET_WATCH_SYNC_MAX_RETRIES"); retries != "" {
		if r, err := strconv.Atoi(retries); err == nil {
			c.SyncMaxRetries = r
		}
	}

	if delay := os.Getenv("WALLET_WATCH_SYNC_RETRY_DELAY"); delay != "" {
		if d, err := strconv.Atoi(delay); err == nil {
			c.SyncRetryDelay = time.Duration(d) * time.Millisecond
		}
	}
}

// ExpandPaths resolves a leading ~ in the directory settings
func (c *Config) ExpandPaths() error {
	for _, p := range []*string{&c.DataDir, &c.BackupDir, &c.LogDir} {
		expanded, err := expandHome(*p)
		if err != nil {
			return err
		}
		*p = expanded
	}
	return nil
}

func expandHome(path string) (string, error) {
	if path != "~" && !strings.HasPrefix(path, "~/") {
		return path, nil
	}

	homeDir, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("failed to get user home directory: %w", err)
	}

	return filepath.Join(homeDir, strings.TrimPrefix(path, "~")), nil
}

// Validate checks if the configuration is valid
func (c *Config) Validate() error {
	if c.DataDir == "" {
		return fmt.Errorf("data directory cannot be empty")
	}

	if c.PriceBaseURL == "" {
		return fmt.Errorf("price base URL cannot be empty")
	}

	switch c.BalanceProvider {
	case "blockcypher", "blockchain":
	default:
		return fmt.Errorf("unknown balance provider: %q", c.BalanceProvider)
	}

	if c.HTTPTimeout <= 0 {
		return fmt.Errorf("HTTP timeout must be positive, got: %v", c.HTTPTimeout)
	}

	if c.Role != RolePrimary && c.Role != RoleCompanion {
		return fmt.Errorf("role must be %q or %q, got: %q", RolePrimary, RoleCompanion, c.Role)
	}

	if c.SyncMaxRetries < 0 {
		return fmt.Errorf("sync max retries must be non-negative, got: %d", c.SyncMaxRetries)
	}

	return nil
}
