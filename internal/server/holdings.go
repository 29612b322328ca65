package server

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/btcnav/btcnav/internal/market"
	"github.com/btcnav/btcnav/internal/providers"
)

const (
	companiesCacheKey = "holdings:companies"
	etfsCacheKey      = "holdings:etfs"
)

// handleCompanies serves GET /api/v1/companies
func (s *Server) handleCompanies(w http.ResponseWriter, r *http.Request) {
	s.handleHoldings(w, r, companiesCacheKey, "companies", s.providers.CompanyDiscovery)
}

// handleETFs serves GET /api/v1/etfs
func (s *Server) handleETFs(w http.ResponseWriter, r *http.Request) {
	s.handleHoldings(w, r, etfsCacheKey, "etfs", s.providers.ETFDiscovery)
}

// handleHoldings is the shared listings state machine: CheckCache -> Discover
// (union of independent sources) -> Enrich -> Persist -> Respond, falling back
// to stale cache and finally 503.
func (s *Server) handleHoldings(w http.ResponseWriter, r *http.Request, cacheKey, domain string, discovery []providers.DiscoveryProvider) {
	cacheControl(w, s.cfg.Cache.ListingsFreshFor, 6*time.Hour)

	if clearRequested(r) {
		s.store.Clear(cacheKey)
	} else if payload, ok := s.store.Get(cacheKey, s.cfg.Cache.ListingsFreshFor); ok {
		writeSuccess(w, payload, meta{
			Source:         "cache",
			Cache:          true,
			DataFreshness:  freshnessCached,
			TotalCompanies: countEntities(payload),
		})
		return
	}

	entities, source, err := s.discoverHoldings(r, domain, discovery)
	if err == nil {
		var price *market.PriceQuote
		price, err = s.bitcoinPriceForEnrichment(r.Context())
		if err == nil {
			entities = s.enrichEntities(r.Context(), entities, price.PriceUSD)
			entities = market.SortAndFilter(entities)

			payload, merr := json.Marshal(entities)
			if merr == nil {
				_ = s.store.Set(cacheKey, payload)
				writeSuccess(w, payload, meta{
					Source:         source,
					DataFreshness:  freshnessLive,
					TotalCompanies: len(entities),
				})
				return
			}
			err = merr
		}
	}

	s.logger.WithError(err).WithField("domain", domain).Warn("holdings fetch failed, trying stale cache")
	if payload, age, ok := s.store.GetStale(cacheKey, s.cfg.Cache.StaleHorizon); ok {
		writeSuccess(w, payload, meta{
			Source:         "cache",
			Cache:          true,
			DataFreshness:  freshnessStale,
			StaleAge:       age.Round(time.Second).String(),
			Warning:        "discovery failed; serving stale data",
			TotalCompanies: countEntities(payload),
		})
		return
	}

	writeServiceUnavailable(w, domain+" unavailable: discovery failed and no cached data")
}

// discoverHoldings unions every reachable discovery source, deduplicated by
// ticker. Sources are independent: one failing does not abort the rest, but
// every source failing does.
func (s *Server) discoverHoldings(r *http.Request, domain string, discovery []providers.DiscoveryProvider) ([]market.HoldingEntity, string, error) {
	lists := make([][]market.HoldingEntity, 0, len(discovery))
	source := ""
	var lastErr error

	for _, d := range discovery {
		entities, err := d.FetchHoldings(r.Context())
		if err != nil {
			lastErr = err
			s.logger.WithError(err).WithFields(logrus.Fields{
				"domain":   domain,
				"provider": d.Name(),
			}).Warn("discovery source failed")
			continue
		}
		lists = append(lists, entities)
		if source == "" {
			source = d.Name()
		} else {
			source += "+" + d.Name()
		}
	}

	if len(lists) == 0 {
		return nil, "", lastErr
	}
	return market.MergeHoldings(lists...), source, nil
}

// countEntities recovers the list length from a cached payload for meta
func countEntities(payload []byte) int {
	var entities []json.RawMessage
	if err := json.Unmarshal(payload, &entities); err != nil {
		return 0
	}
	return len(entities)
}
