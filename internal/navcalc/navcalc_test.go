package navcalc

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestBitcoinPerShare(t *testing.T) {
	tests := []struct {
		name   string
		btc    float64
		shares float64
		want   float64
	}{
		{"normal", 439000, 11_700_000, 439000.0 / 11_700_000},
		{"zero shares", 1000, 0, 0},
		{"negative shares", 1000, -5, 0},
		{"zero btc", 0, 1_000_000, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := BitcoinPerShare(tt.btc, tt.shares)
			assert.Equal(t, tt.want, got)
			assert.False(t, math.IsNaN(got))
			assert.False(t, math.IsInf(got, 0))
		})
	}
}

func TestBSP(t *testing.T) {
	assert.Equal(t, 0.0, BSP(0, 107000))
	assert.Equal(t, 0.0, BSP(0.01, 0))
	assert.InDelta(t, 1070.0, BSP(0.01, 107000), 1e-9)
}

func TestPremiumPct(t *testing.T) {
	tests := []struct {
		name   string
		price  float64
		ref    float64
		want   float64
		approx bool
	}{
		{"premium", 150, 100, 50, false},
		{"discount", 50, 100, -50, false},
		{"zero reference", 367, 0, 0, false},
		{"negative reference", 367, -10, 0, false},
		{"equal", 100, 100, 0, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := PremiumPct(tt.price, tt.ref)
			assert.Equal(t, tt.want, got)
			assert.False(t, math.IsNaN(got))
		})
	}
}

// Mirrors the documented worked example: a large treasury trading far below
// the value of its bitcoin per share must yield a large discount, not a
// fired zero-guard.
func TestWorkedExample(t *testing.T) {
	bps := BitcoinPerShare(439000, 11_700_000)
	assert.InDelta(t, 0.0375, bps, 0.0002)

	bsp := BSP(bps, 107000)
	assert.InDelta(t, 4014.8, bsp, 1.0)

	premium := PremiumPct(367, bsp)
	assert.InDelta(t, -90.9, premium, 0.1)
}

func TestRounding(t *testing.T) {
	assert.Equal(t, 4014.79, Round2(4014.786324))
	assert.Equal(t, -90.86, RoundPct(-90.8592))
	assert.Equal(t, 0.0, Round2(0))
	assert.Equal(t, 2.5, Round2(2.5))
}
