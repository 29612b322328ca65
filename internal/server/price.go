package server

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/btcnav/btcnav/internal/fallback"
	"github.com/btcnav/btcnav/internal/market"
)

const priceCacheKey = "price:bitcoin"

// handlePrice serves GET /api/v1/price.
//
// State machine: CheckCache -> Fetch (fallback chain) -> Persist -> Respond,
// with stale cache as the final fallback and 503 only when both the chain and
// the stale cache come up empty.
func (s *Server) handlePrice(w http.ResponseWriter, r *http.Request) {
	cacheControl(w, s.cfg.Cache.PriceFreshFor, 5*time.Minute)

	if clearRequested(r) {
		s.store.Clear(priceCacheKey)
	} else if payload, ok := s.store.Get(priceCacheKey, s.cfg.Cache.PriceFreshFor); ok {
		writeSuccess(w, payload, meta{Source: "cache", Cache: true, DataFreshness: freshnessCached})
		return
	}

	quote, source, err := s.fetchBitcoinPrice(r.Context())
	if err == nil {
		payload, merr := json.Marshal(quote)
		if merr == nil {
			// Cache write errors degrade to a miss next time; nothing to do here
			_ = s.store.Set(priceCacheKey, payload)
			writeSuccess(w, payload, meta{Source: source, DataFreshness: freshnessLive})
			return
		}
		err = merr
	}

	s.logger.WithError(err).Warn("price fetch failed, trying stale cache")
	if payload, age, ok := s.store.GetStale(priceCacheKey, s.cfg.Cache.StaleHorizon); ok {
		writeSuccess(w, payload, meta{
			Source:        "cache",
			Cache:         true,
			DataFreshness: freshnessStale,
			StaleAge:      age.Round(time.Second).String(),
			Warning:       "all price providers failed; serving stale data",
		})
		return
	}

	writeServiceUnavailable(w, "bitcoin price unavailable: all providers failed and no cached data")
}

// fetchBitcoinPrice runs the configured price fallback chain
func (s *Server) fetchBitcoinPrice(ctx context.Context) (*market.PriceQuote, string, error) {
	attempts := make([]fallback.Attempt[*market.PriceQuote], 0, len(s.providers.Price))
	for _, p := range s.providers.Price {
		attempts = append(attempts, fallback.Attempt[*market.PriceQuote]{
			Name:  p.Name(),
			Fetch: p.FetchPrice,
		})
	}

	seq := fallback.NewSequencer("price", s.logger, attempts...)
	result, err := seq.Fetch(ctx)
	if err != nil {
		return nil, "", err
	}
	return result.Value, result.Source, nil
}

// bitcoinPriceForEnrichment reuses the price endpoint's cache-first flow when
// the listings handlers need a reference price. A stale price is acceptable
// here; only a complete absence of data fails.
func (s *Server) bitcoinPriceForEnrichment(ctx context.Context) (*market.PriceQuote, error) {
	if payload, ok := s.store.Get(priceCacheKey, s.cfg.Cache.PriceFreshFor); ok {
		var quote market.PriceQuote
		if err := json.Unmarshal(payload, &quote); err == nil {
			return &quote, nil
		}
	}

	quote, _, err := s.fetchBitcoinPrice(ctx)
	if err == nil {
		if payload, merr := json.Marshal(quote); merr == nil {
			_ = s.store.Set(priceCacheKey, payload)
		}
		return quote, nil
	}

	if payload, _, ok := s.store.GetStale(priceCacheKey, s.cfg.Cache.StaleHorizon); ok {
		var quote market.PriceQuote
		if uerr := json.Unmarshal(payload, &quote); uerr == nil {
			return &quote, nil
		}
	}

	return nil, err
}
