package market

import "sort"

// MergeHoldings unions discovery results from independent sources,
// deduplicated by ticker. When a ticker appears more than once the entry
// carrying a non-zero holdings figure wins; otherwise the earlier source
// (higher priority) is kept. Missing share counts and business-model tags are
// back-filled from later duplicates.
func MergeHoldings(lists ...[]HoldingEntity) []HoldingEntity {
	merged := make([]HoldingEntity, 0)
	index := make(map[string]int)

	for _, list := range lists {
		for _, entity := range list {
			ticker := NormalizeTicker(entity.Ticker)
			if ticker == "" {
				continue
			}
			entity.Ticker = ticker

			pos, seen := index[ticker]
			if !seen {
				index[ticker] = len(merged)
				merged = append(merged, entity)
				continue
			}

			existing := &merged[pos]
			if existing.BTCHeld == 0 && entity.BTCHeld > 0 {
				// Keep back-filled fields from the earlier entry when the
				// replacement lacks them
				if entity.SharesOutstanding == 0 {
					entity.SharesOutstanding = existing.SharesOutstanding
				}
				if entity.BusinessModel == "" {
					entity.BusinessModel = existing.BusinessModel
				}
				*existing = entity
				continue
			}

			if existing.SharesOutstanding == 0 {
				existing.SharesOutstanding = entity.SharesOutstanding
			}
			if existing.BusinessModel == "" {
				existing.BusinessModel = entity.BusinessModel
			}
			if existing.DisplayName == "" {
				existing.DisplayName = entity.DisplayName
			}
		}
	}

	return merged
}

// SortAndFilter drops entities without holdings and orders the rest by
// descending BTCHeld, tickers breaking ties for a stable order.
func SortAndFilter(entities []HoldingEntity) []HoldingEntity {
	out := make([]HoldingEntity, 0, len(entities))
	for _, e := range entities {
		if e.BTCHeld > 0 {
			out = append(out, e)
		}
	}

	sort.Slice(out, func(i, j int) bool {
		if out[i].BTCHeld != out[j].BTCHeld {
			return out[i].BTCHeld > out[j].BTCHeld
		}
		return out[i].Ticker < out[j].Ticker
	})

	return out
}
