// Package navcalc computes derived per-share metrics for bitcoin treasuries.
//
// All functions are pure. Division guards return 0 rather than NaN/Inf; callers
// rely on that sentinel instead of checking errors.
package navcalc

import "github.com/shopspring/decimal"

// BitcoinPerShare returns btcHeld / sharesOutstanding, or 0 when there are no shares
func BitcoinPerShare(btcHeld, sharesOutstanding float64) float64 {
	if sharesOutstanding <= 0 {
		return 0
	}
	return btcHeld / sharesOutstanding
}

// BSP is the USD value of the bitcoin attributable to one share
func BSP(bitcoinPerShare, btcPriceUSD float64) float64 {
	if bitcoinPerShare == 0 || btcPriceUSD == 0 {
		return 0
	}
	return bitcoinPerShare * btcPriceUSD
}

// PremiumPct is the percentage difference between market price and reference
// value per share. Returns 0 when the reference is zero or negative.
func PremiumPct(marketPricePerShare, referenceValuePerShare float64) float64 {
	if referenceValuePerShare <= 0 {
		return 0
	}
	return (marketPricePerShare - referenceValuePerShare) / referenceValuePerShare * 100
}

// Round2 rounds a currency-scale value to 2 decimal places for display
func Round2(v float64) float64 {
	f, _ := decimal.NewFromFloat(v).Round(2).Float64()
	return f
}

// RoundPct rounds a percentage to 2 decimal places for display
func RoundPct(v float64) float64 {
	f, _ := decimal.NewFromFloat(v).Round(2).Float64()
	return f
}
