// Package providers holds one adapter per upstream data source.
//
// Each adapter issues exactly one outbound call per invocation, applies its
// cooperative rate limit before the call, and normalizes the provider-specific
// response into the shared market types. Failures are typed
// *market.ProviderError values; nothing panics past an adapter boundary.
package providers

import (
	"context"
	"net/http"
	"time"

	"golang.org/x/time/rate"

	"github.com/btcnav/btcnav/internal/market"
)

// PriceProvider fetches the bitcoin spot price from one upstream source
type PriceProvider interface {
	Name() string
	FetchPrice(ctx context.Context) (*market.PriceQuote, error)
}

// StockQuote is a normalized per-ticker equity quote used during enrichment
type StockQuote struct {
	Ticker            string  `json:"ticker"`
	PriceUSD          float64 `json:"price_usd"`
	MarketCapUSD      float64 `json:"market_cap_usd"`
	SharesOutstanding float64 `json:"shares_outstanding"`
	Source            string  `json:"source"`
}

// QuoteProvider fetches one equity quote per call
type QuoteProvider interface {
	Name() string
	FetchQuote(ctx context.Context, ticker string) (*StockQuote, error)
}

// DiscoveryProvider lists entities known to hold bitcoin
type DiscoveryProvider interface {
	Name() string
	FetchHoldings(ctx context.Context) ([]market.HoldingEntity, error)
}

// throttle blocks until the provider's rate limiter admits one call.
// Cancellation of ctx surfaces as a network-kind failure.
func throttle(ctx context.Context, provider string, limiter *rate.Limiter) error {
	if limiter == nil {
		return nil
	}
	if err := limiter.Wait(ctx); err != nil {
		return market.NewNetworkError(provider, "rate limit wait cancelled", err)
	}
	return nil
}

// newHTTPClient builds the per-adapter client with the provider's timeout
func newHTTPClient(timeout time.Duration) *http.Client {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &http.Client{Timeout: timeout}
}

// perMinute builds a limiter admitting n calls per minute with burst 1
func perMinute(n int) *rate.Limiter {
	if n <= 0 {
		return nil
	}
	return rate.NewLimiter(rate.Limit(float64(n)/60), 1)
}
