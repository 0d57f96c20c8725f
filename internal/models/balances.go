package models

import (
	"github.com/shopspring/decimal"
)

// BitcoinData is the valuation snapshot written after every refresh.
type BitcoinData struct {
	BitcoinPrice   float64 `json:"bitcoinPrice"`
	BitcoinBalance float64 `json:"bitcoinBalance"`
	BitcoinProfit  float64 `json:"bitcoinProfit"`
}

// StoredData is the document kept under the "bitcoin-data" key.
type StoredData struct {
	BitcoinData *BitcoinData `json:"bitcoinData,omitempty"`
	Error       string       `json:"Error,omitempty"`
}

// Variation holds the percentage change of each snapshot field against the
// value shown before the current refresh. It is never persisted.
type Variation struct {
	Price   float64
	Balance float64
	Profit  float64
}

// SpotPrice is the payload of the Coinbase price endpoint. Amount arrives as a
// JSON string but numbers are accepted too.
type SpotPrice struct {
	Amount   decimal.Decimal `json:"amount"`
	Base     string          `json:"base"`
	Currency string          `json:"currency"`
}

type SpotPriceResponse = DataEnvelope[SpotPrice]

// AddressBalance is a single BlockCypher address record. Balance is in satoshis.
type AddressBalance struct {
	Address string `json:"address"`
	Balance *int64 `json:"balance,omitempty"`
}

// MultiAddrEntry is one element of the blockchain.info multiaddr "addresses" list.
type MultiAddrEntry struct {
	Address      string `json:"address"`
	FinalBalance int64  `json:"final_balance"`
}

type MultiAddrWallet struct {
	FinalBalance int64 `json:"final_balance"`
}

type MultiAddrResponse struct {
	Addresses []MultiAddrEntry `json:"addresses"`
	Wallet    *MultiAddrWallet `json:"wallet,omitempty"`
}
