package server

import (
	"context"
	"sync"

	"github.com/sirupsen/logrus"

	"github.com/btcnav/btcnav/internal/market"
	"github.com/btcnav/btcnav/internal/navcalc"
	"github.com/btcnav/btcnav/internal/observ"
	"github.com/btcnav/btcnav/internal/providers"
)

// enrichEntities attaches live quote data and derived metrics to each entity.
//
// Quote fetches for distinct tickers are independent, so they run
// concurrently, bounded by the configured concurrency cap to stay inside
// provider rate limits. A failed enrichment never drops the entity: numeric
// fields stay zero and the derived metrics follow the guard-returns-0 policy.
func (s *Server) enrichEntities(ctx context.Context, entities []market.HoldingEntity, btcPriceUSD float64) []market.HoldingEntity {
	sem := make(chan struct{}, s.cfg.Enrich.Concurrency)
	var wg sync.WaitGroup

	for i := range entities {
		wg.Add(1)
		go func(entity *market.HoldingEntity) {
			defer wg.Done()
			sem <- struct{}{}
			defer func() { <-sem }()

			s.enrichOne(ctx, entity, btcPriceUSD)
		}(&entities[i])
	}
	wg.Wait()

	return entities
}

func (s *Server) enrichOne(ctx context.Context, entity *market.HoldingEntity, btcPriceUSD float64) {
	quote := s.fetchStockQuote(ctx, entity.Ticker)
	if quote != nil {
		entity.MarketPricePerShare = quote.PriceUSD
		if quote.MarketCapUSD > 0 {
			entity.MarketCapUSD = quote.MarketCapUSD
		}
		if quote.SharesOutstanding > 0 {
			entity.SharesOutstanding = quote.SharesOutstanding
		}
	}

	// Back-fill share counts from the seed registry when no live source had them
	if entity.SharesOutstanding == 0 && s.providers.Registry != nil {
		if seed, ok := s.providers.Registry.Lookup(entity.Ticker); ok {
			entity.SharesOutstanding = seed.SharesOutstanding
			if entity.BusinessModel == "" {
				entity.BusinessModel = seed.BusinessModel
			}
		}
	}

	if entity.MarketCapUSD == 0 && entity.MarketPricePerShare > 0 {
		entity.MarketCapUSD = navcalc.Round2(entity.MarketPricePerShare * entity.SharesOutstanding)
	}

	entity.BitcoinPerShare = navcalc.BitcoinPerShare(entity.BTCHeld, entity.SharesOutstanding)
	entity.BSP = navcalc.Round2(navcalc.BSP(entity.BitcoinPerShare, btcPriceUSD))

	// A partial entity without a live market price keeps the zero sentinel
	// instead of reporting a meaningless -100% discount
	if entity.MarketPricePerShare > 0 {
		entity.PremiumPct = navcalc.RoundPct(navcalc.PremiumPct(entity.MarketPricePerShare, entity.BSP))
	}
}

// fetchStockQuote walks the quote provider chain in priority order. All
// providers failing is tolerated; the entity keeps defaulted fields.
func (s *Server) fetchStockQuote(ctx context.Context, ticker string) *providers.StockQuote {
	for _, p := range s.providers.Quotes {
		quote, err := p.FetchQuote(ctx, ticker)
		if err != nil {
			observ.IncCounter("enrich_quote_failure_total", map[string]string{
				"provider": p.Name(),
			})
			s.logger.WithError(err).WithFields(logrus.Fields{
				"ticker":   ticker,
				"provider": p.Name(),
			}).Debug("quote fetch failed")
			continue
		}
		observ.IncCounter("enrich_quote_success_total", map[string]string{
			"provider": p.Name(),
		})
		return quote
	}
	return nil
}
