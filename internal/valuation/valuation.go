// Package valuation turns fetched amounts into a snapshot and its variations.
// Nothing here performs I/O.
package valuation

import (
	"math"

	"github.com/shopspring/decimal"

	"github.com/kelsos/wallet-watch/internal/models"
)

var hundred = decimal.NewFromInt(100)

// CalculateVariation returns the percentage change of current against
// previous. It is exactly 0 when either side is 0 or not finite.
func CalculateVariation(current, previous float64) float64 {
	if current == 0 || previous == 0 || !finite(current) || !finite(previous) {
		return 0
	}

	ratio := decimal.NewFromFloat(current).Div(decimal.NewFromFloat(previous))
	variation, _ := ratio.Mul(hundred).Sub(hundred).Float64()
	return variation
}

// Evaluate computes balance = amount * price and profit = balance - invested,
// then the variation of each field against previous.
func Evaluate(params models.WalletParams, amountBTC, price decimal.Decimal, previous models.BitcoinData) (models.BitcoinData, models.Variation) {
	balance := amountBTC.Mul(price)
	profit := balance.Sub(fromFloat(params.InvestedAmount))

	current := models.BitcoinData{
		BitcoinPrice:   toFloat(price),
		BitcoinBalance: toFloat(balance),
		BitcoinProfit:  toFloat(profit),
	}

	return current, Compare(current, previous)
}

// Compare computes the per-field variations between two snapshots
func Compare(current, previous models.BitcoinData) models.Variation {
	return models.Variation{
		Price:   CalculateVariation(current.BitcoinPrice, previous.BitcoinPrice),
		Balance: CalculateVariation(current.BitcoinBalance, previous.BitcoinBalance),
		Profit:  CalculateVariation(current.BitcoinProfit, previous.BitcoinProfit),
	}
}

func finite(f float64) bool {
	return !math.IsNaN(f) && !math.IsInf(f, 0)
}

func fromFloat(f float64) decimal.Decimal {
	if !finite(f) {
		return decimal.Zero
	}
	return decimal.NewFromFloat(f)
}

func toFloat(d decimal.Decimal) float64 {
	f, _ := d.Float64()
	return f
}
