package balances

import (
	"context"
	"fmt"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/kelsos/wallet-watch/internal/config"
)

// SatoshisPerBitcoin converts the integer base unit into BTC
const SatoshisPerBitcoin = 100_000_000

const (
	ProviderBlockCypher    = "blockcypher"
	ProviderBlockchainInfo = "blockchain"
)

var satoshisPerBitcoin = decimal.NewFromInt(SatoshisPerBitcoin)

// Provider reports the combined balance of a set of addresses in BTC. Each
// provider expects its addresses joined with its own delimiter.
type Provider interface {
	Name() string
	Delimiter() string
	FetchBalance(ctx context.Context, joinedAddresses string) (decimal.Decimal, error)
}

// SatoshisToBTC divides exactly, so 250000000 becomes 2.5
func SatoshisToBTC(satoshis int64) decimal.Decimal {
	return decimal.NewFromInt(satoshis).Div(satoshisPerBitcoin)
}

// JoinAddresses trims the addresses, drops blank entries and joins the rest
// with the provider's delimiter
func JoinAddresses(provider Provider, addresses []string) string {
	cleaned := make([]string, 0, len(addresses))
	for _, address := range addresses {
		if address = strings.TrimSpace(address); address != "" {
			cleaned = append(cleaned, address)
		}
	}
	return strings.Join(cleaned, provider.Delimiter())
}

// New selects a provider by name. An empty name selects BlockCypher.
func New(name string, cfg *config.Config) (Provider, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "", ProviderBlockCypher:
		return NewBlockCypher(cfg.BlockCypherBaseURL, cfg.HTTPTimeout), nil
	case ProviderBlockchainInfo:
		return NewBlockchainInfo(cfg.BlockchainInfoBaseURL, cfg.HTTPTimeout), nil
	default:
		return nil, fmt.Errorf("unknown balance provider: %q", name)
	}
}
