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

const coinbaseBaseURL = "https://api.coinbase.com"

// CoinbaseClient fetches the BTC-USD spot price from Coinbase's public API.
// It is the last resort in the price chain: the spot endpoint carries no
// market cap or change data, so those fields stay zero.
type CoinbaseClient struct {
	httpClient *http.Client
	baseURL    string
	limiter    *rate.Limiter
	logger     *logrus.Entry
}

func NewCoinbaseClient(timeout time.Duration, logger *logrus.Logger) *CoinbaseClient {
	return &CoinbaseClient{
		httpClient: newHTTPClient(timeout),
		baseURL:    coinbaseBaseURL,
		limiter:    rate.NewLimiter(rate.Limit(1), 1),
		logger:     logger.WithField("component", "coinbase"),
	}
}

func (c *CoinbaseClient) Name() string { return "coinbase" }

func (c *CoinbaseClient) FetchPrice(ctx context.Context) (*market.PriceQuote, error) {
	if err := throttle(ctx, c.Name(), c.limiter); err != nil {
		return nil, err
	}

	url := c.baseURL + "/v2/prices/BTC-USD/spot"
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

	if resp.StatusCode == http.StatusTooManyRequests {
		return nil, market.NewRateLimitedError(c.Name(), "API rate limit exceeded")
	}
	if resp.StatusCode != http.StatusOK {
		return nil, market.NewBadStatusError(c.Name(), resp.StatusCode, strings.TrimSpace(string(body)))
	}

	var payload struct {
		Data struct {
			Amount   string `json:"amount"`
			Base     string `json:"base"`
			Currency string `json:"currency"`
		} `json:"data"`
	}
	if err := json.Unmarshal(body, &payload); err != nil {
		return nil, market.NewBadPayloadError(c.Name(), "failed to parse spot response", err)
	}

	price, err := strconv.ParseFloat(payload.Data.Amount, 64)
	if err != nil || price <= 0 {
		return nil, market.NewBadPayloadError(c.Name(), "missing or invalid amount", err)
	}

	quote := &market.PriceQuote{
		AssetID:  "bitcoin",
		PriceUSD: price,
		AsOf:     time.Now(),
		Source:   c.Name(),
	}
	if err := market.ValidatePriceQuote(quote); err != nil {
		return nil, market.NewBadPayloadError(c.Name(), err.Error(), nil)
	}
	return quote, nil
}

var _ PriceProvider = (*CoinbaseClient)(nil)
