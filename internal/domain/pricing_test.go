package domain

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
)

var noAdjust = AdjustConfig{}

func TestFairValue_AtTheMoney(t *testing.T) {
	p := FairValue(100000, 100000, 900, 0.50, 0, noAdjust)
	// d = −σ²τ/2 / (σ√τ) is slightly negative at the money with r=0.
	assert.InDelta(t, 0.5, p.PUp, 0.01)
	assert.InDelta(t, 1.0, p.PUp+p.PDown, 1e-12)
}

func TestFairValue_DeepInTheMoney(t *testing.T) {
	p := FairValue(101000, 100000, 900, 0.50, 0.05, noAdjust)
	assert.Greater(t, p.PUp, 0.99)
}

func TestFairValue_ComplementExact(t *testing.T) {
	for _, spot := range []float64{99000, 99990, 100000, 100010, 101500} {
		p := FairValue(spot, 100000, 600, 0.80, 0.05, noAdjust)
		assert.Equal(t, 1.0, p.PUp+p.PDown)
	}
}

func TestFairValue_MonotonicInSpot(t *testing.T) {
	prev := -1.0
	for spot := 99000.0; spot <= 101000; spot += 50 {
		p := FairValue(spot, 100000, 900, 0.60, 0.05, noAdjust)
		assert.GreaterOrEqual(t, p.PUp, prev)
		prev = p.PUp
	}
}

func TestFairValue_ConvergesAsExpiryApproaches(t *testing.T) {
	// S > K: P(up) → 1 as τ → 0.
	prev := 0.0
	for _, secs := range []float64{900, 300, 60, 10, 1} {
		p := FairValue(100500, 100000, secs, 0.60, 0.05, noAdjust)
		assert.GreaterOrEqual(t, p.PUp, prev)
		prev = p.PUp
	}
	assert.Greater(t, prev, 0.99)

	// S < K: P(up) → 0.
	p := FairValue(99500, 100000, 1, 0.60, 0.05, noAdjust)
	assert.Less(t, p.PUp, 0.01)
}

// --- degenerate inputs ---

func TestFairValue_ZeroTimeLeft(t *testing.T) {
	assert.Equal(t, 1.0, FairValue(100100, 100000, 0, 0.50, 0.05, noAdjust).PUp)
	assert.Equal(t, 0.0, FairValue(99900, 100000, 0, 0.50, 0.05, noAdjust).PUp)
	assert.Equal(t, 0.5, FairValue(100000, 100000, 0, 0.50, 0.05, noAdjust).PUp)
}

func TestFairValue_ZeroVol(t *testing.T) {
	p := FairValue(100100, 100000, 900, 0, 0.05, noAdjust)
	assert.Equal(t, 1.0, p.PUp)
	assert.False(t, math.IsNaN(p.PDown))
}

// --- adjustments ---

func TestFairValue_KurtosisShrinksExtremes(t *testing.T) {
	base := FairValue(100800, 100000, 900, 0.40, 0.05, noAdjust)
	adj := FairValue(100800, 100000, 900, 0.40, 0.05, AdjustConfig{KurtosisOn: true, Kurtosis: 0.5})
	assert.Less(t, adj.PUp, base.PUp)
	assert.Greater(t, adj.PUp, 0.5)
}

func TestFairValue_AdjustmentsOffMatchBase(t *testing.T) {
	// Factors set but not enabled: base path must be untouched.
	base := FairValue(100300, 100000, 600, 0.55, 0.05, noAdjust)
	off := FairValue(100300, 100000, 600, 0.55, 0.05, AdjustConfig{Kurtosis: 0.5, Smile: 0.3})
	assert.Equal(t, base.PUp, off.PUp)
}

// --- normal CDF reference values ---

func TestNormCDF_MatchesReference(t *testing.T) {
	// Φ values from standard tables.
	cases := map[float64]float64{
		0:     0.5,
		1:     0.841345,
		-1:    0.158655,
		1.96:  0.975002,
		-2.33: 0.009903,
		3:     0.998650,
	}
	for x, want := range cases {
		assert.InDelta(t, want, normCDF(x), 1e-4, "x=%v", x)
	}
}
