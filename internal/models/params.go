package models

import (
	"errors"
	"fmt"
	"math"
	"strings"
)

// WalletParams is the user-entered configuration shared between paired devices.
type WalletParams struct {
	Address        []string `json:"address"`
	InvestedAmount float64  `json:"investedAmount"`
	Currency       string   `json:"currency"`
	DarkMode       bool     `json:"darkMode"`
}

// StoredParams is the document kept under the "bitcoin-params" key.
type StoredParams struct {
	BitcoinParams *WalletParams `json:"bitcoinParams,omitempty"`
	Error         string        `json:"Error,omitempty"`
}

var (
	ErrNoAddresses     = errors.New("at least one wallet address is required")
	ErrMissingCurrency = errors.New("currency cannot be empty")
	ErrInvalidInvested = errors.New("invested amount must be a finite number")
)

// Validate checks the invariants a saved parameter document must hold.
func (p WalletParams) Validate() error {
	if math.IsNaN(p.InvestedAmount) || math.IsInf(p.InvestedAmount, 0) {
		return ErrInvalidInvested
	}

	if strings.TrimSpace(p.Currency) == "" {
		return ErrMissingCurrency
	}

	for _, address := range p.Address {
		if strings.TrimSpace(address) != "" {
			return nil
		}
	}

	return ErrNoAddresses
}

// Normalize trims addresses and upper-cases the currency code.
// Duplicates are kept: the balance lookup tolerates them.
func (p WalletParams) Normalize() WalletParams {
	addresses := make([]string, 0, len(p.Address))
	for _, address := range p.Address {
		if trimmed := strings.TrimSpace(address); trimmed != "" {
			addresses = append(addresses, trimmed)
		}
	}

	p.Address = addresses
	p.Currency = strings.ToUpper(strings.TrimSpace(p.Currency))
	return p
}

// ParseAddressList splits the comma separated address field of the settings form.
func ParseAddressList(text string) []string {
	parts := strings.Split(text, ",")
	addresses := make([]string, 0, len(parts))
	for _, part := range parts {
		if trimmed := strings.TrimSpace(part); trimmed != "" {
			addresses = append(addresses, trimmed)
		}
	}
	return addresses
}

func (p WalletParams) String() string {
	return fmt.Sprintf("%d address(es), invested %.2f %s, dark mode %t",
		len(p.Address), p.InvestedAmount, p.Currency, p.DarkMode)
}
