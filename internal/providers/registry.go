package providers

import (
	"context"
	"fmt"
	"sync"

	_ "embed"

	"gopkg.in/yaml.v3"

	"github.com/btcnav/btcnav/internal/market"
)

//go:embed seed.yaml
var seedYAML []byte

type seedEntry struct {
	Ticker            string  `yaml:"ticker"`
	Name              string  `yaml:"name"`
	BTCHeld           float64 `yaml:"btc_held"`
	SharesOutstanding float64 `yaml:"shares_outstanding"`
	BusinessModel     string  `yaml:"business_model"`
}

type seedFile struct {
	Companies []seedEntry `yaml:"companies"`
	ETFs      []seedEntry `yaml:"etfs"`
}

// SeedRegistry serves the bundled list of known bitcoin holders. It acts as
// the discovery provider of last resort and as the baseline for share-count
// back-fill when live quote providers do not report them.
type SeedRegistry struct {
	once      sync.Once
	loadErr   error
	companies []market.HoldingEntity
	etfs      []market.HoldingEntity
	byTicker  map[string]market.HoldingEntity
}

// NewSeedRegistry returns the registry; the embedded YAML is parsed lazily
func NewSeedRegistry() *SeedRegistry {
	return &SeedRegistry{}
}

func (r *SeedRegistry) load() error {
	r.once.Do(func() {
		var file seedFile
		if err := yaml.Unmarshal(seedYAML, &file); err != nil {
			r.loadErr = fmt.Errorf("failed to parse seed registry: %w", err)
			return
		}

		r.byTicker = make(map[string]market.HoldingEntity, len(file.Companies)+len(file.ETFs))
		convert := func(entries []seedEntry) []market.HoldingEntity {
			out := make([]market.HoldingEntity, 0, len(entries))
			for _, e := range entries {
				entity := market.HoldingEntity{
					Ticker:            market.NormalizeTicker(e.Ticker),
					DisplayName:       e.Name,
					BTCHeld:           e.BTCHeld,
					SharesOutstanding: e.SharesOutstanding,
					BusinessModel:     e.BusinessModel,
					DataSource:        "registry",
				}
				out = append(out, entity)
				r.byTicker[entity.Ticker] = entity
			}
			return out
		}

		r.companies = convert(file.Companies)
		r.etfs = convert(file.ETFs)
	})
	return r.loadErr
}

// Companies returns the seeded treasury company list
func (r *SeedRegistry) Companies() ([]market.HoldingEntity, error) {
	if err := r.load(); err != nil {
		return nil, err
	}
	out := make([]market.HoldingEntity, len(r.companies))
	copy(out, r.companies)
	return out, nil
}

// ETFs returns the seeded spot ETF list
func (r *SeedRegistry) ETFs() ([]market.HoldingEntity, error) {
	if err := r.load(); err != nil {
		return nil, err
	}
	out := make([]market.HoldingEntity, len(r.etfs))
	copy(out, r.etfs)
	return out, nil
}

// Lookup returns the seed entry for a ticker, used for share-count back-fill
func (r *SeedRegistry) Lookup(ticker string) (market.HoldingEntity, bool) {
	if err := r.load(); err != nil {
		return market.HoldingEntity{}, false
	}
	entity, ok := r.byTicker[market.NormalizeTicker(ticker)]
	return entity, ok
}

// CompanyDiscovery adapts the registry's company list to DiscoveryProvider
type CompanyDiscovery struct{ Registry *SeedRegistry }

func (d CompanyDiscovery) Name() string { return "registry" }

func (d CompanyDiscovery) FetchHoldings(ctx context.Context) ([]market.HoldingEntity, error) {
	return d.Registry.Companies()
}

// ETFDiscovery adapts the registry's ETF list to DiscoveryProvider
type ETFDiscovery struct{ Registry *SeedRegistry }

func (d ETFDiscovery) Name() string { return "registry" }

func (d ETFDiscovery) FetchHoldings(ctx context.Context) ([]market.HoldingEntity, error) {
	return d.Registry.ETFs()
}

var _ DiscoveryProvider = CompanyDiscovery{}
var _ DiscoveryProvider = ETFDiscovery{}
