package providers

import (
	"context"
	"encoding/json"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/sirupsen/logrus"
	"golang.org/x/time/rate"

	"github.com/btcnav/btcnav/internal/market"
)

const alphaVantageBaseURL = "https://www.alphavantage.co/query"

// AlphaVantageClient fetches equity quotes via the GLOBAL_QUOTE function.
// The response provides price only; market cap and share counts come from
// other quote providers or the seed registry.
type AlphaVantageClient struct {
	httpClient *http.Client
	baseURL    string
	apiKey     string
	limiter    *rate.Limiter
	logger     *logrus.Entry
}

// NewAlphaVantageClient creates an Alpha Vantage client. An empty API key is
// tolerated: every fetch fails fast without touching the network, so the
// fallback chain moves straight on.
func NewAlphaVantageClient(apiKey string, ratePerMin int, timeout time.Duration, logger *logrus.Logger) *AlphaVantageClient {
	return &AlphaVantageClient{
		httpClient: newHTTPClient(timeout),
		baseURL:    alphaVantageBaseURL,
		apiKey:     apiKey,
		limiter:    perMinute(ratePerMin),
		logger:     logger.WithField("component", "alphavantage"),
	}
}

func (c *AlphaVantageClient) Name() string { return "alphavantage" }

func (c *AlphaVantageClient) FetchQuote(ctx context.Context, ticker string) (*StockQuote, error) {
	ticker = market.NormalizeTicker(ticker)
	if ticker == "" {
		return nil, market.NewBadPayloadError(c.Name(), "empty ticker", nil)
	}
	if c.apiKey == "" {
		return nil, market.NewMissingKeyError(c.Name())
	}

	if err := throttle(ctx, c.Name(), c.limiter); err != nil {
		return nil, err
	}

	params := url.Values{
		"function": {"GLOBAL_QUOTE"},
		"symbol":   {ticker},
		"apikey":   {c.apiKey},
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"?"+params.Encode(), nil)
	if err != nil {
		return nil, market.NewNetworkError(c.Name(), "failed to create request", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, market.NewNetworkError(c.Name(), "request failed", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusTooManyRequests {
		return nil, market.NewRateLimitedError(c.Name(), "API rate limit exceeded")
	}
	if resp.StatusCode != http.StatusOK {
		return nil, market.NewBadStatusError(c.Name(), resp.StatusCode, "")
	}

	// Alpha Vantage uses numbered keys inside "Global Quote" and signals
	// throttling via 200 responses carrying an "Information" note
	var payload struct {
		GlobalQuote  map[string]string `json:"Global Quote"`
		ErrorMessage string            `json:"Error Message"`
		Information  string            `json:"Information"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return nil, market.NewBadPayloadError(c.Name(), "failed to parse response", err)
	}
	if payload.ErrorMessage != "" {
		return nil, market.NewBadPayloadError(c.Name(), payload.ErrorMessage, nil)
	}
	if payload.Information != "" {
		return nil, market.NewRateLimitedError(c.Name(), payload.Information)
	}
	if len(payload.GlobalQuote) == 0 {
		return nil, market.NewBadPayloadError(c.Name(), "no quote data returned", nil)
	}

	price, err := strconv.ParseFloat(payload.GlobalQuote["05. price"], 64)
	if err != nil || price <= 0 {
		return nil, market.NewBadPayloadError(c.Name(), "missing or invalid price field", err)
	}

	return &StockQuote{
		Ticker:   ticker,
		PriceUSD: price,
		Source:   c.Name(),
	}, nil
}

var _ QuoteProvider = (*AlphaVantageClient)(nil)
