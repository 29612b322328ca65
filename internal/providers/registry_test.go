package providers

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSeedRegistryLoads(t *testing.T) {
	r := NewSeedRegistry()

	companies, err := r.Companies()
	require.NoError(t, err)
	assert.NotEmpty(t, companies)

	etfs, err := r.ETFs()
	require.NoError(t, err)
	assert.NotEmpty(t, etfs)

	for _, e := range companies {
		assert.NotEmpty(t, e.Ticker)
		assert.NotEmpty(t, e.DisplayName)
		assert.Greater(t, e.SharesOutstanding, 0.0, "seed entries carry share counts for back-fill")
		assert.Equal(t, "registry", e.DataSource)
	}
	for _, e := range etfs {
		assert.Equal(t, "etf", e.BusinessModel)
	}
}

func TestSeedRegistryLookup(t *testing.T) {
	r := NewSeedRegistry()

	entity, ok := r.Lookup("mstr")
	require.True(t, ok)
	assert.Equal(t, "MSTR", entity.Ticker)
	assert.Greater(t, entity.BTCHeld, 0.0)

	_, ok = r.Lookup("UNKNOWN")
	assert.False(t, ok)
}

func TestDiscoveryAdapters(t *testing.T) {
	r := NewSeedRegistry()

	companies, err := CompanyDiscovery{Registry: r}.FetchHoldings(context.Background())
	require.NoError(t, err)
	assert.NotEmpty(t, companies)

	etfs, err := ETFDiscovery{Registry: r}.FetchHoldings(context.Background())
	require.NoError(t, err)
	assert.NotEmpty(t, etfs)

	// Mutating a returned slice must not corrupt the registry
	companies[0].BTCHeld = -1
	again, err := CompanyDiscovery{Registry: r}.FetchHoldings(context.Background())
	require.NoError(t, err)
	assert.NotEqual(t, -1.0, again[0].BTCHeld)
}
