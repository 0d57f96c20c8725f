package balances

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/kelsos/wallet-watch/internal/client"
	"github.com/kelsos/wallet-watch/internal/models"
)

var errEmptyAddresses = errors.New("no addresses to look up")

type BlockCypher struct {
	api *client.APIClient
}

func NewBlockCypher(baseURL string, timeout time.Duration) *BlockCypher {
	return &BlockCypher{api: client.NewAPIClient(baseURL, timeout)}
}

func (p *BlockCypher) Name() string      { return ProviderBlockCypher }
func (p *BlockCypher) Delimiter() string { return ";" }

// FetchBalance handles both response shapes: a single address object for one
// address and an array of address objects for several.
func (p *BlockCypher) FetchBalance(ctx context.Context, joinedAddresses string) (decimal.Decimal, error) {
	if joinedAddresses == "" {
		return decimal.Zero, errEmptyAddresses
	}

	var raw json.RawMessage
	if err := p.api.Get(ctx, "/v1/btc/main/addrs/"+escapePath(joinedAddresses, p.Delimiter()), &raw); err != nil {
		return decimal.Zero, fmt.Errorf("failed to fetch blockcypher balance: %w", err)
	}

	satoshis, err := sumBlockCypher(raw)
	if err != nil {
		return decimal.Zero, err
	}

	return SatoshisToBTC(satoshis), nil
}

// escapePath escapes each address so none can leave its path segment
func escapePath(joined, delimiter string) string {
	parts := strings.Split(joined, delimiter)
	for i, part := range parts {
		parts[i] = url.PathEscape(part)
	}
	return strings.Join(parts, delimiter)
}

func sumBlockCypher(raw json.RawMessage) (int64, error) {
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) > 0 && trimmed[0] == '[' {
		var records []models.AddressBalance
		if err := json.Unmarshal(trimmed, &records); err != nil {
			return 0, fmt.Errorf("error decoding blockcypher address list: %w", err)
		}

		var total int64
		for _, record := range records {
			if record.Balance != nil {
				total += *record.Balance
			}
		}
		return total, nil
	}

	var record models.AddressBalance
	if err := json.Unmarshal(trimmed, &record); err != nil {
		return 0, fmt.Errorf("error decoding blockcypher address: %w", err)
	}
	if record.Balance == nil {
		return 0, errors.New("blockcypher response has no balance field")
	}
	return *record.Balance, nil
}
