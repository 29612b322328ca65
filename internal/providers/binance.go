package providers

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/sirupsen/logrus"
	"golang.org/x/time/rate"

	"github.com/btcnav/btcnav/internal/market"
)

const binanceBaseURL = "https://api.binance.com"

// BinanceClient fetches the BTCUSDT spot price from Binance's public REST API.
// No API key is required for market data endpoints.
type BinanceClient struct {
	httpClient *http.Client
	baseURL    string
	limiter    *rate.Limiter
	logger     *logrus.Entry
}

func NewBinanceClient(timeout time.Duration, logger *logrus.Logger) *BinanceClient {
	return &BinanceClient{
		httpClient: newHTTPClient(timeout),
		baseURL:    binanceBaseURL,
		// Binance allows far more, but one call per second is plenty here
		limiter: rate.NewLimiter(rate.Limit(1), 1),
		logger:  logger.WithField("component", "binance"),
	}
}

func (c *BinanceClient) Name() string { return "binance" }

// FetchPrice returns the spot price from the 24hr ticker statistics endpoint
func (c *BinanceClient) FetchPrice(ctx context.Context) (*market.PriceQuote, error) {
	if err := throttle(ctx, c.Name(), c.limiter); err != nil {
		return nil, err
	}

	url := c.baseURL + "/api/v3/ticker/24hr?symbol=BTCUSDT"
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, market.NewNetworkError(c.Name(), "failed to create request", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, market.NewNetworkError(c.Name(), "request failed", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return nil, market.NewNetworkError(c.Name(), "failed to read body", err)
	}

	if resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode == 418 {
		return nil, market.NewRateLimitedError(c.Name(), "API rate limit exceeded")
	}
	if resp.StatusCode != http.StatusOK {
		return nil, market.NewBadStatusError(c.Name(), resp.StatusCode, strings.TrimSpace(string(body)))
	}

	// Binance encodes numbers as strings in this endpoint
	var payload struct {
		Symbol             string `json:"symbol"`
		LastPrice          string `json:"lastPrice"`
		PriceChangePercent string `json:"priceChangePercent"`
		QuoteVolume        string `json:"quoteVolume"`
		CloseTime          int64  `json:"closeTime"`
	}
	if err := json.Unmarshal(body, &payload); err != nil {
		return nil, market.NewBadPayloadError(c.Name(), "failed to parse ticker response", err)
	}

	price, err := strconv.ParseFloat(payload.LastPrice, 64)
	if err != nil || price <= 0 {
		return nil, market.NewBadPayloadError(c.Name(), "missing or invalid lastPrice", err)
	}
	change, _ := strconv.ParseFloat(payload.PriceChangePercent, 64)
	volume, _ := strconv.ParseFloat(payload.QuoteVolume, 64)

	asOf := time.Now()
	if payload.CloseTime > 0 {
		asOf = time.UnixMilli(payload.CloseTime)
	}

	quote := &market.PriceQuote{
		AssetID:      "bitcoin",
		PriceUSD:     price,
		Change24hPct: change,
		Volume24hUSD: volume,
		AsOf:         asOf,
		Source:       c.Name(),
	}
	if err := market.ValidatePriceQuote(quote); err != nil {
		return nil, market.NewBadPayloadError(c.Name(), err.Error(), nil)
	}
	return quote, nil
}

var _ PriceProvider = (*BinanceClient)(nil)
