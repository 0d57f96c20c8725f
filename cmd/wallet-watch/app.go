package main

import (
	"fmt"

	"github.com/kelsos/wallet-watch/internal/balances"
	"github.com/kelsos/wallet-watch/internal/config"
	"github.com/kelsos/wallet-watch/internal/logger"
	"github.com/kelsos/wallet-watch/internal/pairing"
	"github.com/kelsos/wallet-watch/internal/prices"
	"github.com/kelsos/wallet-watch/internal/services"
	"github.com/kelsos/wallet-watch/internal/storage"
)

type options struct {
	configPath string
	dataDir    string
	role       string
}

type app struct {
	cfg     *config.Config
	store   *storage.FileStore
	state   *services.AppState
	refresh *services.RefreshService
	params  *services.ParamsService
}

func loadConfig(opts options) (*config.Config, error) {
	cfg := config.NewConfig()

	if opts.configPath != "" {
		if err := cfg.LoadFromFile(opts.configPath); err != nil {
			return nil, err
		}
	}
	cfg.LoadFromEnvironment()

	if opts.dataDir != "" {
		cfg.DataDir = opts.dataDir
	}
	if opts.role != "" {
		cfg.Role = opts.role
	}

	if err := cfg.ExpandPaths(); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return cfg, nil
}

func newApp(opts options) (*app, error) {
	cfg, err := loadConfig(opts)
	if err != nil {
		return nil, err
	}

	store, err := storage.NewFileStore(cfg.DataDir)
	if err != nil {
		return nil, err
	}

	provider, err := balances.New(cfg.BalanceProvider, cfg)
	if err != nil {
		return nil, err
	}
	logger.Debug("Using balance provider %s and data dir %s", provider.Name(), store.Dir())

	priceSource := prices.NewCoinbaseSource(cfg.PriceBaseURL, cfg.HTTPTimeout)
	refresh := services.NewRefreshService(store, priceSource, provider, services.RefreshOptions{
		SkipWriteOnFetchFailure: cfg.SkipWriteOnFetchFailure,
	})

	return &app{
		cfg:     cfg,
		store:   store,
		state:   services.NewAppState(),
		refresh: refresh,
		params:  services.NewParamsService(store, newSender(cfg)),
	}, nil
}

func newSender(cfg *config.Config) pairing.Sender {
	if cfg.Role != config.RolePrimary || cfg.PairURL == "" {
		return nil
	}
	return pairing.NewWSSender(cfg.PairURL, cfg.SyncMaxRetries, cfg.SyncRetryDelay)
}
