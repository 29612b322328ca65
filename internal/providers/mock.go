package providers

import (
	"context"
	"sync/atomic"
	"time"

	"github.com/btcnav/btcnav/internal/market"
)

// MockPriceProvider returns a fixed quote or error, counting invocations.
// Used by sequencer and handler tests.
type MockPriceProvider struct {
	ProviderName string
	Quote        *market.PriceQuote
	Err          error
	calls        atomic.Int64
}

func (m *MockPriceProvider) Name() string { return m.ProviderName }

func (m *MockPriceProvider) FetchPrice(ctx context.Context) (*market.PriceQuote, error) {
	m.calls.Add(1)
	if m.Err != nil {
		return nil, m.Err
	}
	return m.Quote, nil
}

func (m *MockPriceProvider) Calls() int64 { return m.calls.Load() }

// FixedPriceQuote builds a plausible quote for tests
func FixedPriceQuote(source string, price float64) *market.PriceQuote {
	return &market.PriceQuote{
		AssetID:      "bitcoin",
		PriceUSD:     price,
		Change24hPct: 1.2,
		MarketCapUSD: price * 19_800_000,
		Volume24hUSD: 31_000_000_000,
		AsOf:         time.Now().Add(-30 * time.Second),
		Source:       source,
	}
}

// MockQuoteProvider serves quotes from a fixed map; unknown tickers fail
type MockQuoteProvider struct {
	ProviderName string
	Quotes       map[string]*StockQuote
	Err          error
}

func (m *MockQuoteProvider) Name() string { return m.ProviderName }

func (m *MockQuoteProvider) FetchQuote(ctx context.Context, ticker string) (*StockQuote, error) {
	if m.Err != nil {
		return nil, m.Err
	}
	q, ok := m.Quotes[market.NormalizeTicker(ticker)]
	if !ok {
		return nil, market.NewBadPayloadError(m.ProviderName, "no quote for "+ticker, nil)
	}
	return q, nil
}

// MockDiscoveryProvider returns a fixed holdings list or error
type MockDiscoveryProvider struct {
	ProviderName string
	Holdings     []market.HoldingEntity
	Err          error
}

func (m *MockDiscoveryProvider) Name() string { return m.ProviderName }

func (m *MockDiscoveryProvider) FetchHoldings(ctx context.Context) ([]market.HoldingEntity, error) {
	if m.Err != nil {
		return nil, m.Err
	}
	return m.Holdings, nil
}

var (
	_ PriceProvider     = (*MockPriceProvider)(nil)
	_ QuoteProvider     = (*MockQuoteProvider)(nil)
	_ DiscoveryProvider = (*MockDiscoveryProvider)(nil)
)
