package providers

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/btcnav/btcnav/internal/market"
)

func quietLogger() *logrus.Logger {
	logger := logrus.New()
	logger.SetOutput(io.Discard)
	return logger
}

func providerKind(t *testing.T, err error) string {
	t.Helper()
	var provErr *market.ProviderError
	require.ErrorAs(t, err, &provErr)
	return provErr.Kind
}

func TestCoinGeckoFetchPrice(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/simple/price", r.URL.Path)
		assert.Equal(t, "test-key", r.Header.Get("x-cg-demo-api-key"))
		_, _ = w.Write([]byte(`{"bitcoin":{"usd":107000.25,"usd_market_cap":2.1e12,` +
			`"usd_24h_vol":3.1e10,"usd_24h_change":-1.35,"last_updated_at":1735000000}}`))
	}))
	defer srv.Close()

	c := NewCoinGeckoClient("test-key", 0, 5*time.Second, quietLogger())
	c.baseURL = srv.URL

	quote, err := c.FetchPrice(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "bitcoin", quote.AssetID)
	assert.Equal(t, 107000.25, quote.PriceUSD)
	assert.Equal(t, -1.35, quote.Change24hPct)
	assert.Equal(t, "coingecko", quote.Source)
	assert.Equal(t, time.Unix(1735000000, 0).Unix(), quote.AsOf.Unix())
}

func TestCoinGeckoFetchPriceFailures(t *testing.T) {
	tests := []struct {
		name     string
		status   int
		body     string
		wantKind string
	}{
		{"rate limited", http.StatusTooManyRequests, `{}`, "rate_limited"},
		{"server error", http.StatusBadGateway, `upstream sad`, "bad_status"},
		{"malformed json", http.StatusOK, `{"bitcoin":`, "bad_payload"},
		{"missing asset", http.StatusOK, `{"ethereum":{"usd":3000}}`, "bad_payload"},
		{"zero price", http.StatusOK, `{"bitcoin":{"usd":0}}`, "bad_payload"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
				_, _ = w.Write([]byte(tt.body))
			}))
			defer srv.Close()

			c := NewCoinGeckoClient("", 0, 5*time.Second, quietLogger())
			c.baseURL = srv.URL

			_, err := c.FetchPrice(context.Background())
			require.Error(t, err)
			assert.Equal(t, tt.wantKind, providerKind(t, err))
		})
	}
}

func TestCoinGeckoFetchHoldings(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/companies/public_treasury/bitcoin", r.URL.Path)
		_, _ = w.Write([]byte(`{"companies":[
			{"name":"Strategy","symbol":"NASDAQ:MSTR","total_holdings":439000},
			{"name":"MARA Holdings","symbol":"NASDAQ:MARA","total_holdings":44893},
			{"name":"No Ticker Co","symbol":"","total_holdings":12}
		]}`))
	}))
	defer srv.Close()

	c := NewCoinGeckoClient("", 0, 5*time.Second, quietLogger())
	c.baseURL = srv.URL

	entities, err := c.FetchHoldings(context.Background())
	require.NoError(t, err)
	require.Len(t, entities, 2, "entries without tickers are skipped")

	assert.Equal(t, "MSTR", entities[0].Ticker)
	assert.Equal(t, 439000.0, entities[0].BTCHeld)
	assert.Equal(t, "treasury", entities[0].BusinessModel)
	assert.Equal(t, "coingecko", entities[0].DataSource)
	assert.Equal(t, "MARA", entities[1].Ticker)
}

func TestBinanceFetchPrice(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/v3/ticker/24hr", r.URL.Path)
		assert.Equal(t, "BTCUSDT", r.URL.Query().Get("symbol"))
		_, _ = w.Write([]byte(`{"symbol":"BTCUSDT","lastPrice":"106950.10","priceChangePercent":"2.04",` +
			`"quoteVolume":"28100000000.5","closeTime":1735000000000}`))
	}))
	defer srv.Close()

	c := NewBinanceClient(5*time.Second, quietLogger())
	c.baseURL = srv.URL

	quote, err := c.FetchPrice(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 106950.10, quote.PriceUSD)
	assert.Equal(t, 2.04, quote.Change24hPct)
	assert.Equal(t, "binance", quote.Source)
}

func TestBinanceFetchPriceBadPayload(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"symbol":"BTCUSDT","lastPrice":"not-a-number"}`))
	}))
	defer srv.Close()

	c := NewBinanceClient(5*time.Second, quietLogger())
	c.baseURL = srv.URL

	_, err := c.FetchPrice(context.Background())
	require.Error(t, err)
	assert.Equal(t, "bad_payload", providerKind(t, err))
}

func TestCoinbaseFetchPrice(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v2/prices/BTC-USD/spot", r.URL.Path)
		_, _ = w.Write([]byte(`{"data":{"amount":"107123.45","base":"BTC","currency":"USD"}}`))
	}))
	defer srv.Close()

	c := NewCoinbaseClient(5*time.Second, quietLogger())
	c.baseURL = srv.URL

	quote, err := c.FetchPrice(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 107123.45, quote.PriceUSD)
	assert.Equal(t, "coinbase", quote.Source)
	assert.Zero(t, quote.MarketCapUSD)
}

func TestAlphaVantageFetchQuote(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "GLOBAL_QUOTE", r.URL.Query().Get("function"))
		assert.Equal(t, "MSTR", r.URL.Query().Get("symbol"))
		_, _ = w.Write([]byte(`{"Global Quote":{"01. symbol":"MSTR","05. price":"367.0000","06. volume":"12000000"}}`))
	}))
	defer srv.Close()

	c := NewAlphaVantageClient("key", 0, 5*time.Second, quietLogger())
	c.baseURL = srv.URL

	quote, err := c.FetchQuote(context.Background(), "mstr")
	require.NoError(t, err)
	assert.Equal(t, "MSTR", quote.Ticker)
	assert.Equal(t, 367.0, quote.PriceUSD)
	assert.Equal(t, "alphavantage", quote.Source)
}

func TestAlphaVantageMissingKeyFailsFast(t *testing.T) {
	called := false
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		called = true
	}))
	defer srv.Close()

	c := NewAlphaVantageClient("", 0, 5*time.Second, quietLogger())
	c.baseURL = srv.URL

	_, err := c.FetchQuote(context.Background(), "MSTR")
	require.Error(t, err)
	assert.Equal(t, "missing_key", providerKind(t, err))
	assert.False(t, called, "no network call without a key")
}

func TestAlphaVantageThrottleNote(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"Information":"API call frequency is 5 calls per minute"}`))
	}))
	defer srv.Close()

	c := NewAlphaVantageClient("key", 0, 5*time.Second, quietLogger())
	c.baseURL = srv.URL

	_, err := c.FetchQuote(context.Background(), "MSTR")
	require.Error(t, err)
	assert.Equal(t, "rate_limited", providerKind(t, err))
}

func TestYahooFetchQuote(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v8/finance/chart/IBIT", r.URL.Path)
		assert.NotEmpty(t, r.Header.Get("User-Agent"))
		_, _ = w.Write([]byte(`{"chart":{"result":[{"meta":{"symbol":"IBIT","regularMarketPrice":57.81}}],"error":null}}`))
	}))
	defer srv.Close()

	c := NewYahooClient(5*time.Second, quietLogger())
	c.baseURL = srv.URL

	quote, err := c.FetchQuote(context.Background(), "ibit")
	require.NoError(t, err)
	assert.Equal(t, "IBIT", quote.Ticker)
	assert.Equal(t, 57.81, quote.PriceUSD)
}

func TestYahooFetchQuoteError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"chart":{"result":[],"error":{"code":"Not Found","description":"No data found"}}}`))
	}))
	defer srv.Close()

	c := NewYahooClient(5*time.Second, quietLogger())
	c.baseURL = srv.URL

	_, err := c.FetchQuote(context.Background(), "NOPE")
	require.Error(t, err)
	assert.Equal(t, "bad_payload", providerKind(t, err))
}
