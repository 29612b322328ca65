package commands

import (
	"context"
	"os/signal"
	"syscall"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/btcnav/btcnav/internal/cachestore"
	"github.com/btcnav/btcnav/internal/config"
	"github.com/btcnav/btcnav/internal/logging"
	"github.com/btcnav/btcnav/internal/providers"
	"github.com/btcnav/btcnav/internal/server"
)

var serverPort int

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the aggregation HTTP server",
	Long: `Start the btcnav HTTP server.

Endpoints:
  GET /api/v1/price      bitcoin spot price with provider fallback
  GET /api/v1/companies  public-company treasury holdings with NAV metrics
  GET /api/v1/etfs       spot ETF holdings with NAV metrics
  GET /healthz           liveness
  GET /metrics           in-process metrics dump

Provider API keys are read from the environment (see .env.example); a missing
key disables that provider without failing startup.`,
	RunE: runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)
	serveCmd.Flags().IntVarP(&serverPort, "port", "p", 0, "override server port")
}

func runServe(cmd *cobra.Command, args []string) error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg, logger, err := loadConfigAndLogger(ctx)
	if err != nil {
		return err
	}
	if serverPort != 0 {
		cfg.Server.Port = serverPort
	}

	store := cachestore.NewFileStore(cfg.Cache.Dir, logger)
	srv := server.New(cfg, logger, store, buildProviders(cfg, logger))

	return srv.Start(ctx)
}

// buildProviders wires the per-domain fallback chains in priority order
func buildProviders(cfg *config.Config, logger *logrus.Logger) server.Providers {
	coingecko := providers.NewCoinGeckoClient(
		cfg.Providers.CoinGeckoAPIKey, cfg.Providers.CoinGeckoRatePerMin, cfg.Providers.PriceTimeout, logger)
	binance := providers.NewBinanceClient(cfg.Providers.PriceTimeout, logger)
	coinbase := providers.NewCoinbaseClient(cfg.Providers.PriceTimeout, logger)
	yahoo := providers.NewYahooClient(cfg.Providers.QuoteTimeout, logger)
	alphavantage := providers.NewAlphaVantageClient(
		cfg.Providers.AlphaVantageAPIKey, cfg.Providers.AlphaVantageRatePerMin, cfg.Providers.QuoteTimeout, logger)
	registry := providers.NewSeedRegistry()

	return server.Providers{
		Price:  []providers.PriceProvider{coingecko, binance, coinbase},
		Quotes: []providers.QuoteProvider{yahoo, alphavantage},
		CompanyDiscovery: []providers.DiscoveryProvider{
			coingecko,
			providers.CompanyDiscovery{Registry: registry},
		},
		ETFDiscovery: []providers.DiscoveryProvider{
			providers.ETFDiscovery{Registry: registry},
		},
		Registry: registry,
	}
}

// loadConfigAndLogger is shared by every subcommand needing configuration
func loadConfigAndLogger(ctx context.Context) (*config.Config, *logrus.Logger, error) {
	cfg, err := config.Load(ctx)
	if err != nil {
		return nil, nil, err
	}

	if logLevel != "" {
		cfg.Logging.Level = logLevel
	}
	if logFormat != "" {
		cfg.Logging.Format = logFormat
	}

	logger, err := logging.New(cfg.Logging.Level, cfg.Logging.Format)
	if err != nil {
		return nil, nil, err
	}
	return cfg, logger, nil
}
