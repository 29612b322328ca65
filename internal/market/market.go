package market

import (
	"fmt"
	"strings"
	"time"
)

// PriceQuote represents a normalized spot price from any provider
type PriceQuote struct {
	AssetID      string    `json:"asset_id"`       // e.g. "bitcoin"
	PriceUSD     float64   `json:"price_usd"`      // Spot price in USD
	Change24hPct float64   `json:"change_24h_pct"` // 24h change percentage
	MarketCapUSD float64   `json:"market_cap_usd"` // Total market cap, 0 if unknown
	Volume24hUSD float64   `json:"volume_24h_usd"` // 24h volume, 0 if unknown
	AsOf         time.Time `json:"as_of"`          // Quote timestamp
	Source       string    `json:"source"`         // "coingecko"|"binance"|"coinbase"|...
}

// HoldingEntity represents a company or ETF holding bitcoin on its balance sheet
type HoldingEntity struct {
	Ticker              string  `json:"ticker"`
	DisplayName         string  `json:"name"`
	BTCHeld             float64 `json:"btc_held"`
	SharesOutstanding   float64 `json:"shares_outstanding"`
	MarketPricePerShare float64 `json:"market_price_per_share"`
	MarketCapUSD        float64 `json:"market_cap_usd"`
	BusinessModel       string  `json:"business_model,omitempty"` // "treasury"|"miner"|"etf"|...
	DataSource          string  `json:"data_source"`

	// Derived metrics, filled by navcalc during enrichment
	BitcoinPerShare float64 `json:"bitcoin_per_share"`
	BSP             float64 `json:"bsp"`         // USD value of BTC per share
	PremiumPct      float64 `json:"premium_pct"` // Market price vs BSP/NAV
}

// ValidatePriceQuote rejects quotes that cannot be served to callers
func ValidatePriceQuote(q *PriceQuote) error {
	if q == nil {
		return fmt.Errorf("quote is nil")
	}

	q.AssetID = strings.ToLower(strings.TrimSpace(q.AssetID))
	if q.AssetID == "" {
		return fmt.Errorf("empty asset id")
	}

	if q.PriceUSD <= 0 {
		return fmt.Errorf("invalid price: %.4f", q.PriceUSD)
	}

	if q.AsOf.After(time.Now().Add(5 * time.Minute)) {
		return fmt.Errorf("quote timestamp too far in future: %v", q.AsOf)
	}

	return nil
}

// NormalizeTicker uppercases and trims an exchange ticker
func NormalizeTicker(ticker string) string {
	return strings.ToUpper(strings.TrimSpace(ticker))
}
