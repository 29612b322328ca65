package providers

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/sirupsen/logrus"
	"golang.org/x/time/rate"

	"github.com/btcnav/btcnav/internal/market"
)

const yahooBaseURL = "https://query1.finance.yahoo.com"

// YahooClient fetches equity quotes from the Yahoo Finance chart endpoint.
// No API key is required, which makes it the default quote fallback. The chart
// meta carries the regular market price; share counts come from the registry.
type YahooClient struct {
	httpClient *http.Client
	baseURL    string
	limiter    *rate.Limiter
	logger     *logrus.Entry
}

func NewYahooClient(timeout time.Duration, logger *logrus.Logger) *YahooClient {
	return &YahooClient{
		httpClient: newHTTPClient(timeout),
		baseURL:    yahooBaseURL,
		limiter:    rate.NewLimiter(rate.Limit(2), 1),
		logger:     logger.WithField("component", "yahoo"),
	}
}

func (c *YahooClient) Name() string { return "yahoo" }

func (c *YahooClient) FetchQuote(ctx context.Context, ticker string) (*StockQuote, error) {
	ticker = market.NormalizeTicker(ticker)
	if ticker == "" {
		return nil, market.NewBadPayloadError(c.Name(), "empty ticker", nil)
	}

	if err := throttle(ctx, c.Name(), c.limiter); err != nil {
		return nil, err
	}

	endpoint := c.baseURL + "/v8/finance/chart/" + url.PathEscape(ticker) + "?range=1d&interval=1d"
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, market.NewNetworkError(c.Name(), "failed to create request", err)
	}
	// Yahoo rejects requests without a browser-ish user agent
	req.Header.Set("User-Agent", "Mozilla/5.0 (compatible; btcnav/1.0)")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, market.NewNetworkError(c.Name(), "request failed", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return nil, market.NewNetworkError(c.Name(), "failed to read body", err)
	}

	if resp.StatusCode == http.StatusTooManyRequests {
		return nil, market.NewRateLimitedError(c.Name(), "API rate limit exceeded")
	}
	if resp.StatusCode != http.StatusOK {
		return nil, market.NewBadStatusError(c.Name(), resp.StatusCode, strings.TrimSpace(string(body)))
	}

	var payload struct {
		Chart struct {
			Result []struct {
				Meta struct {
					Symbol             string  `json:"symbol"`
					RegularMarketPrice float64 `json:"regularMarketPrice"`
				} `json:"meta"`
			} `json:"result"`
			Error *struct {
				Code        string `json:"code"`
				Description string `json:"description"`
			} `json:"error"`
		} `json:"chart"`
	}
	if err := json.Unmarshal(body, &payload); err != nil {
		return nil, market.NewBadPayloadError(c.Name(), "failed to parse chart response", err)
	}
	if payload.Chart.Error != nil {
		return nil, market.NewBadPayloadError(c.Name(), payload.Chart.Error.Description, nil)
	}
	if len(payload.Chart.Result) == 0 {
		return nil, market.NewBadPayloadError(c.Name(), "empty chart result", nil)
	}

	price := payload.Chart.Result[0].Meta.RegularMarketPrice
	if price <= 0 {
		return nil, market.NewBadPayloadError(c.Name(), "missing regularMarketPrice", nil)
	}

	return &StockQuote{
		Ticker:   ticker,
		PriceUSD: price,
		Source:   c.Name(),
	}, nil
}

var _ QuoteProvider = (*YahooClient)(nil)
