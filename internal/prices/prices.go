package prices

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/kelsos/wallet-watch/internal/client"
	"github.com/kelsos/wallet-watch/internal/models"
	"github.com/kelsos/wallet-watch/internal/utils"
)

// Source returns the current buy price of one bitcoin in a fiat currency
type Source interface {
	FetchPrice(ctx context.Context, currency string) (decimal.Decimal, error)
}

// CoinbaseSource reads the public Coinbase buy price endpoint
type CoinbaseSource struct {
	api *client.APIClient
}

// NewCoinbaseSource creates a price source rooted at baseURL
func NewCoinbaseSource(baseURL string, timeout time.Duration) *CoinbaseSource {
	return &CoinbaseSource{api: client.NewAPIClient(baseURL, timeout)}
}

// FetchPrice performs one unauthenticated round-trip. Failures are returned as
// errors; no retry or caching happens here.
func (s *CoinbaseSource) FetchPrice(ctx context.Context, currency string) (decimal.Decimal, error) {
	currency = strings.ToUpper(strings.TrimSpace(currency))
	if currency == "" {
		return decimal.Zero, fmt.Errorf("price lookup: %w", models.ErrMissingCurrency)
	}

	url := s.api.BuildURL(fmt.Sprintf("/v2/prices/BTC-%s/buy", currency))
	resp, err := utils.FetchWithValidation[models.SpotPriceResponse](ctx, s.api.HTTPClient(), url)
	if err != nil {
		return decimal.Zero, fmt.Errorf("failed to fetch BTC-%s price: %w", currency, err)
	}

	return resp.Data.Amount, nil
}
