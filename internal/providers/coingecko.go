package providers

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/sirupsen/logrus"
	"golang.org/x/time/rate"

	"github.com/btcnav/btcnav/internal/market"
)

const coinGeckoBaseURL = "https://api.coingecko.com/api/v3"

// CoinGeckoClient talks to the CoinGecko REST API. It serves two needs: the
// bitcoin spot price and the public-treasury company discovery list.
type CoinGeckoClient struct {
	httpClient *http.Client
	baseURL    string
	apiKey     string
	limiter    *rate.Limiter
	logger     *logrus.Entry
}

// NewCoinGeckoClient creates a CoinGecko client. The API key is optional for
// the free tier; when set it is passed via the demo-key header.
func NewCoinGeckoClient(apiKey string, ratePerMin int, timeout time.Duration, logger *logrus.Logger) *CoinGeckoClient {
	return &CoinGeckoClient{
		httpClient: newHTTPClient(timeout),
		baseURL:    coinGeckoBaseURL,
		apiKey:     apiKey,
		limiter:    perMinute(ratePerMin),
		logger:     logger.WithField("component", "coingecko"),
	}
}

func (c *CoinGeckoClient) Name() string { return "coingecko" }

func (c *CoinGeckoClient) get(ctx context.Context, path string) ([]byte, error) {
	if err := throttle(ctx, c.Name(), c.limiter); err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path, nil)
	if err != nil {
		return nil, market.NewNetworkError(c.Name(), "failed to create request", err)
	}
	if c.apiKey != "" {
		req.Header.Set("x-cg-demo-api-key", c.apiKey)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, market.NewNetworkError(c.Name(), "request failed", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 4<<20))
	if err != nil {
		return nil, market.NewNetworkError(c.Name(), "failed to read body", err)
	}

	if resp.StatusCode == http.StatusTooManyRequests {
		return nil, market.NewRateLimitedError(c.Name(), "API rate limit exceeded")
	}
	if resp.StatusCode != http.StatusOK {
		return nil, market.NewBadStatusError(c.Name(), resp.StatusCode, strings.TrimSpace(string(body)))
	}

	return body, nil
}

// FetchPrice returns the bitcoin spot price via /simple/price
func (c *CoinGeckoClient) FetchPrice(ctx context.Context) (*market.PriceQuote, error) {
	body, err := c.get(ctx, "/simple/price?ids=bitcoin&vs_currencies=usd"+
		"&include_market_cap=true&include_24hr_vol=true&include_24hr_change=true&include_last_updated_at=true")
	if err != nil {
		return nil, err
	}

	var payload map[string]struct {
		USD           float64 `json:"usd"`
		USDMarketCap  float64 `json:"usd_market_cap"`
		USD24hVol     float64 `json:"usd_24h_vol"`
		USD24hChange  float64 `json:"usd_24h_change"`
		LastUpdatedAt int64   `json:"last_updated_at"`
	}
	if err := json.Unmarshal(body, &payload); err != nil {
		return nil, market.NewBadPayloadError(c.Name(), "failed to parse price response", err)
	}

	btc, ok := payload["bitcoin"]
	if !ok || btc.USD <= 0 {
		return nil, market.NewBadPayloadError(c.Name(), "no bitcoin price in response", nil)
	}

	asOf := time.Now()
	if btc.LastUpdatedAt > 0 {
		asOf = time.Unix(btc.LastUpdatedAt, 0)
	}

	quote := &market.PriceQuote{
		AssetID:      "bitcoin",
		PriceUSD:     btc.USD,
		Change24hPct: btc.USD24hChange,
		MarketCapUSD: btc.USDMarketCap,
		Volume24hUSD: btc.USD24hVol,
		AsOf:         asOf,
		Source:       c.Name(),
	}
	if err := market.ValidatePriceQuote(quote); err != nil {
		return nil, market.NewBadPayloadError(c.Name(), err.Error(), nil)
	}
	return quote, nil
}

// FetchHoldings returns the public companies CoinGecko tracks as bitcoin
// treasuries. Symbols arrive as "NASDAQ:MSTR"; only the ticker is kept.
func (c *CoinGeckoClient) FetchHoldings(ctx context.Context) ([]market.HoldingEntity, error) {
	body, err := c.get(ctx, "/companies/public_treasury/bitcoin")
	if err != nil {
		return nil, err
	}

	var payload struct {
		Companies []struct {
			Name          string  `json:"name"`
			Symbol        string  `json:"symbol"`
			TotalHoldings float64 `json:"total_holdings"`
		} `json:"companies"`
	}
	if err := json.Unmarshal(body, &payload); err != nil {
		return nil, market.NewBadPayloadError(c.Name(), "failed to parse companies response", err)
	}
	if len(payload.Companies) == 0 {
		return nil, market.NewBadPayloadError(c.Name(), "empty companies list", nil)
	}

	entities := make([]market.HoldingEntity, 0, len(payload.Companies))
	for _, company := range payload.Companies {
		ticker := company.Symbol
		if idx := strings.LastIndex(ticker, ":"); idx >= 0 {
			ticker = ticker[idx+1:]
		}
		ticker = market.NormalizeTicker(ticker)
		if ticker == "" {
			c.logger.WithField("name", company.Name).Debug("skipping company without ticker")
			continue
		}

		entities = append(entities, market.HoldingEntity{
			Ticker:        ticker,
			DisplayName:   company.Name,
			BTCHeld:       company.TotalHoldings,
			BusinessModel: "treasury",
			DataSource:    c.Name(),
		})
	}

	if len(entities) == 0 {
		return nil, market.NewBadPayloadError(c.Name(), "no usable companies in response", nil)
	}
	return entities, nil
}

var _ PriceProvider = (*CoinGeckoClient)(nil)
var _ DiscoveryProvider = (*CoinGeckoClient)(nil)
