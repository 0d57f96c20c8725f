package services

import (
	"context"
	"errors"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/shopspring/decimal"
	"golang.org/x/sync/errgroup"

	"github.com/kelsos/wallet-watch/internal/balances"
	"github.com/kelsos/wallet-watch/internal/logger"
	"github.com/kelsos/wallet-watch/internal/models"
	"github.com/kelsos/wallet-watch/internal/prices"
	"github.com/kelsos/wallet-watch/internal/storage"
	"github.com/kelsos/wallet-watch/internal/valuation"
)

var (
	// ErrNotConfigured is returned when no wallet parameters have been saved yet
	ErrNotConfigured = errors.New("bitcoin data not found: wallet parameters are not configured")
	// ErrRefreshInProgress is returned when a refresh is triggered while another is running
	ErrRefreshInProgress = errors.New("refresh already in progress")
)

// RefreshState is the pipeline's busy flag as seen from outside
type RefreshState int32

const (
	Idle RefreshState = iota
	Refreshing
)

func (s RefreshState) String() string {
	if s == Refreshing {
		return "Refreshing"
	}
	return "Idle"
}

type RefreshOptions struct {
	// SkipWriteOnFetchFailure keeps the stored snapshot when either fetch failed
	// instead of overwriting it with zero values
	SkipWriteOnFetchFailure bool
}

// RefreshResult describes what one refresh computed and whether it was stored
type RefreshResult struct {
	Data       models.BitcoinData
	Variation  models.Variation
	PriceErr   error
	BalanceErr error
	Persisted  bool
}

// FetchFailed reports whether either source degraded to zero
func (r RefreshResult) FetchFailed() bool {
	return r.PriceErr != nil || r.BalanceErr != nil
}

// RefreshService fetches price and balance, values the wallet and stores the snapshot
type RefreshService struct {
	store   storage.Store
	price   prices.Source
	balance balances.Provider
	options RefreshOptions
	busy    atomic.Bool
	now     func() time.Time
}

func NewRefreshService(store storage.Store, priceSource prices.Source, balanceProvider balances.Provider, opts RefreshOptions) *RefreshService {
	return &RefreshService{
		store:   store,
		price:   priceSource,
		balance: balanceProvider,
		options: opts,
		now:     time.Now,
	}
}

func (s *RefreshService) State() RefreshState {
	if s.busy.Load() {
		return Refreshing
	}
	return Idle
}

// LoadOnly shows the last stored snapshot and display preferences without any
// network call. It reports whether a snapshot was found.
func (s *RefreshService) LoadOnly(state *AppState) bool {
	if params := storage.GetStoredParams(s.store); params.BitcoinParams != nil {
		state.ApplyParams(params.BitcoinParams)
	}

	data := storage.GetStoredData(s.store)
	if data.BitcoinData == nil {
		logger.Debug("No stored snapshot to load: %s", data.Error)
		return false
	}

	state.loadSnapshot(*data.BitcoinData)
	return true
}

// Refresh runs one pass of the pipeline. Fetch failures degrade to zero and
// are reported in the result; the returned error covers only conditions that
// stop the pass before anything is computed.
func (s *RefreshService) Refresh(ctx context.Context, state *AppState) (RefreshResult, error) {
	if !s.busy.CompareAndSwap(false, true) {
		logger.Debug("Ignoring refresh trigger: %v", ErrRefreshInProgress)
		return RefreshResult{}, ErrRefreshInProgress
	}
	defer s.busy.Store(false)

	stored := storage.GetStoredParams(s.store)
	if stored.BitcoinParams == nil {
		logger.Warn("Refresh aborted: %v", ErrNotConfigured)
		return RefreshResult{}, ErrNotConfigured
	}
	params := stored.BitcoinParams.Normalize()

	price, amount, priceErr, balanceErr := s.fetch(ctx, params)
	if err := ctx.Err(); err != nil {
		return RefreshResult{}, fmt.Errorf("refresh cancelled: %w", err)
	}

	if priceErr != nil {
		logger.Warn("Price fetch failed, using 0: %v", priceErr)
	}
	if balanceErr != nil {
		logger.Warn("Balance fetch failed, using 0: %v", balanceErr)
	}

	data, variation := valuation.Evaluate(params, amount, price, state.current())
	result := RefreshResult{
		Data:       data,
		Variation:  variation,
		PriceErr:   priceErr,
		BalanceErr: balanceErr,
	}

	state.ApplyParams(&params)
	state.applyRefresh(data, variation, s.now())

	if s.options.SkipWriteOnFetchFailure && result.FetchFailed() {
		logger.Warn("Keeping stored snapshot because a fetch failed")
		state.SetError("Could not reach price or balance source")
		return result, nil
	}

	result.Persisted = storage.StoreData(s.store, models.StoredData{BitcoinData: &data})
	switch {
	case !result.Persisted:
		state.SetError("Failed to save the latest values")
	case result.FetchFailed():
		state.SetError("Could not reach price or balance source")
	default:
		state.SetError("")
	}

	logger.Info("Refreshed %s: price=%.2f balance=%.2f profit=%.2f",
		params.Currency, data.BitcoinPrice, data.BitcoinBalance, data.BitcoinProfit)
	return result, nil
}

func (s *RefreshService) fetch(ctx context.Context, params models.WalletParams) (price, amount decimal.Decimal, priceErr, balanceErr error) {
	var g errgroup.Group

	g.Go(func() error {
		price, priceErr = s.price.FetchPrice(ctx, params.Currency)
		return nil
	})

	g.Go(func() error {
		joined := balances.JoinAddresses(s.balance, params.Address)
		amount, balanceErr = s.balance.FetchBalance(ctx, joined)
		return nil
	})

	_ = g.Wait()

	if priceErr != nil {
		price = decimal.Zero
	}
	if balanceErr != nil {
		amount = decimal.Zero
	}
	return price, amount, priceErr, balanceErr
}
