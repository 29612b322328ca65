package config

import (
	"context"
	"fmt"
	"time"

	"github.com/joho/godotenv"
	"github.com/sethvargo/go-envconfig"
)

// Config represents the application configuration
type Config struct {
	Server    ServerConfig    `env:", prefix=SERVER_"`
	Cache     CacheConfig     `env:", prefix=CACHE_"`
	Providers ProvidersConfig `env:", prefix=PROVIDER_"`
	Enrich    EnrichConfig    `env:", prefix=ENRICH_"`
	Logging   LoggingConfig   `env:", prefix=LOG_"`
}

// ServerConfig holds HTTP server configuration
type ServerConfig struct {
	Host         string        `env:"HOST, default=0.0.0.0"`
	Port         int           `env:"PORT, default=8080"`
	ReadTimeout  time.Duration `env:"READ_TIMEOUT, default=30s"`
	WriteTimeout time.Duration `env:"WRITE_TIMEOUT, default=60s"`
	IdleTimeout  time.Duration `env:"IDLE_TIMEOUT, default=120s"`
}

// CacheConfig holds the file cache layout and freshness policy
type CacheConfig struct {
	Dir string `env:"DIR, default=data/cache"`

	PriceFreshFor    time.Duration `env:"PRICE_FRESH_FOR, default=2m"`
	ListingsFreshFor time.Duration `env:"LISTINGS_FRESH_FOR, default=6h"`
	StaleHorizon     time.Duration `env:"STALE_HORIZON, default=168h"`
}

// ProvidersConfig holds API keys and per-provider limits.
// A missing key is not fatal: the provider reports failure without calling out.
type ProvidersConfig struct {
	CoinGeckoAPIKey    string `env:"COINGECKO_API_KEY"`
	AlphaVantageAPIKey string `env:"ALPHAVANTAGE_API_KEY"`

	CoinGeckoRatePerMin    int `env:"COINGECKO_RATE_PER_MIN, default=30"`
	AlphaVantageRatePerMin int `env:"ALPHAVANTAGE_RATE_PER_MIN, default=5"`

	PriceTimeout    time.Duration `env:"PRICE_TIMEOUT, default=10s"`
	QuoteTimeout    time.Duration `env:"QUOTE_TIMEOUT, default=15s"`
	ListingsTimeout time.Duration `env:"LISTINGS_TIMEOUT, default=30s"`
}

// EnrichConfig bounds the concurrent per-ticker quote fan-out
type EnrichConfig struct {
	Concurrency int `env:"CONCURRENCY, default=4"`
}

// LoggingConfig holds logging configuration
type LoggingConfig struct {
	Level  string `env:"LEVEL, default=info"`
	Format string `env:"FORMAT, default=text"`
}

// Load reads configuration from the environment, preferring an optional .env file
func Load(ctx context.Context) (*Config, error) {
	// Missing .env is fine, system env vars still apply
	_ = godotenv.Load()

	var cfg Config
	if err := envconfig.Process(ctx, &cfg); err != nil {
		return nil, fmt.Errorf("failed to process config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// Validate checks configuration invariants
func (c *Config) Validate() error {
	if c.Server.Port < 1 || c.Server.Port > 65535 {
		return fmt.Errorf("invalid server port: %d", c.Server.Port)
	}
	if c.Cache.Dir == "" {
		return fmt.Errorf("cache dir must not be empty")
	}
	if c.Enrich.Concurrency < 1 {
		return fmt.Errorf("enrich concurrency must be at least 1, got %d", c.Enrich.Concurrency)
	}
	if c.Cache.StaleHorizon < c.Cache.PriceFreshFor || c.Cache.StaleHorizon < c.Cache.ListingsFreshFor {
		return fmt.Errorf("stale horizon must not be shorter than the fresh windows")
	}
	return nil
}
