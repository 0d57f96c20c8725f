package balances

import (
	"context"
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"github.com/kelsos/wallet-watch/internal/client"
	"github.com/kelsos/wallet-watch/internal/models"
	"github.com/kelsos/wallet-watch/internal/utils"
)

type BlockchainInfo struct {
	api *client.APIClient
}

func NewBlockchainInfo(baseURL string, timeout time.Duration) *BlockchainInfo {
	return &BlockchainInfo{api: client.NewAPIClient(baseURL, timeout)}
}

func (p *BlockchainInfo) Name() string      { return ProviderBlockchainInfo }
func (p *BlockchainInfo) Delimiter() string { return "|" }

func (p *BlockchainInfo) FetchBalance(ctx context.Context, joinedAddresses string) (decimal.Decimal, error) {
	if joinedAddresses == "" {
		return decimal.Zero, errEmptyAddresses
	}

	url := p.api.BuildURL(client.BuildURLWithParams("/multiaddr", map[string]string{
		"active": joinedAddresses,
		"n":      "0",
		"format": "json",
	}))

	resp, err := utils.FetchWithValidation[models.MultiAddrResponse](ctx, p.api.HTTPClient(), url)
	if err != nil {
		return decimal.Zero, fmt.Errorf("failed to fetch blockchain.info balance: %w", err)
	}

	if len(resp.Addresses) == 0 && resp.Wallet != nil {
		return SatoshisToBTC(resp.Wallet.FinalBalance), nil
	}

	var total int64
	for _, entry := range resp.Addresses {
		total += entry.FinalBalance
	}
	return SatoshisToBTC(total), nil
}
