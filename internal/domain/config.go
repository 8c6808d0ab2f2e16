package domain

// config.go — the simulator's configuration surface. Everything is an
// explicit named field with a documented default; validation happens
// once at setup (a configuration error is fatal before any simulation
// work begins), never ad hoc at call sites.

import (
	"errors"
	"fmt"
)

// SizingMode is the closed set of order-sizing strategies.
type SizingMode interface{ sizingMode() }

// FixedShares buys a constant number of shares per signal.
type FixedShares struct {
	Shares float64 `json:"shares"`
}

// BankrollFraction stakes capital × fraction × edge dollars per
// signal, marking capital to realized P&L at resolutions only.
type BankrollFraction struct {
	Fraction float64 `json:"fraction"`
}

func (FixedShares) sizingMode()      {}
func (BankrollFraction) sizingMode() {}

// SpotAdjust is the closed set of spot/oracle basis-adjustment
// methods. Each variant carries exactly the parameters it needs.
type SpotAdjust interface{ spotAdjust() }

// StaticAdjust adds a fixed dollar offset to spot.
type StaticAdjust struct {
	Value float64 `json:"value"`
}

// RollingMeanAdjust tracks the mean of the last Window observed
// oracle−spot differences.
type RollingMeanAdjust struct {
	Window int `json:"window"`
}

// EMAAdjust tracks an exponential moving average of the observed
// differences with the given half-life.
type EMAAdjust struct {
	HalfLifeMS int64 `json:"half_life_ms"`
}

// MedianAdjust tracks the median of the last Window observed
// differences.
type MedianAdjust struct {
	Window int `json:"window"`
}

func (StaticAdjust) spotAdjust()      {}
func (RollingMeanAdjust) spotAdjust() {}
func (EMAAdjust) spotAdjust()         {}
func (MedianAdjust) spotAdjust()      {}

// SimConfig is one run's full parameter set. Zero values fall back to
// DefaultSimConfig at load time; Validate rejects invalid combinations.
type SimConfig struct {
	From int64 `json:"from"` // unix ms, inclusive
	To   int64 `json:"to"`   // unix ms, exclusive

	SpreadTicks float64 `json:"spread_ticks"`
	TickSize    float64 `json:"tick_size"`
	SlippageBps float64 `json:"slippage_bps"`
	MinEdge     float64 `json:"min_edge"`
	MinPrice    float64 `json:"min_price"`
	MaxPrice    float64 `json:"max_price"`
	FeesOn      bool    `json:"fees_on"`

	Sizing         SizingMode `json:"sizing"`
	InitialCapital float64    `json:"initial_capital"` // 0 = unbounded
	MaxMarketCost  float64    `json:"max_market_cost"` // per-market position cap in $, 0 = none

	ExecLagMS          int64   `json:"exec_lag_ms"`
	CooldownMS         int64   `json:"cooldown_ms"` // per market+side
	MaxTradesPerMarket int     `json:"max_trades_per_market"`
	MinSecondsLeft     float64 `json:"min_seconds_left"`

	SpotAdjust    SpotAdjust   `json:"spot_adjust,omitempty"`
	Conservative  bool         `json:"conservative"`
	VolMultiplier float64      `json:"vol_multiplier"`
	RiskFree      float64      `json:"risk_free"`
	Pricing       AdjustConfig `json:"pricing"`
}

// DefaultSimConfig returns the documented defaults, date range unset.
func DefaultSimConfig() SimConfig {
	return SimConfig{
		SpreadTicks:        1,
		TickSize:           0.01,
		SlippageBps:        0,
		MinEdge:            0.05,
		MinPrice:           0.02,
		MaxPrice:           0.98,
		FeesOn:             true,
		Sizing:             FixedShares{Shares: 10},
		MaxMarketCost:      50,
		ExecLagMS:          2000,
		CooldownMS:         60000,
		MaxTradesPerMarket: 6,
		MinSecondsLeft:     60,
		VolMultiplier:      1,
		RiskFree:           0.05,
	}
}

// Validate rejects invalid parameter combinations. Fatal at setup.
func (c SimConfig) Validate() error {
	if c.From >= c.To {
		return fmt.Errorf("SimConfig: from %d must precede to %d", c.From, c.To)
	}
	if c.SpreadTicks < 0 || c.SlippageBps < 0 {
		return errors.New("SimConfig: spread and slippage must be non-negative")
	}
	if c.TickSize <= 0 {
		return errors.New("SimConfig: tick size must be positive")
	}
	if c.MinPrice < 0 || c.MaxPrice > 1 || c.MinPrice >= c.MaxPrice {
		return errors.New("SimConfig: price bounds must satisfy 0 ≤ min < max ≤ 1")
	}
	if c.InitialCapital < 0 {
		return errors.New("SimConfig: initial capital must be non-negative")
	}
	if c.VolMultiplier <= 0 {
		return errors.New("SimConfig: vol multiplier must be positive")
	}
	switch s := c.Sizing.(type) {
	case FixedShares:
		if s.Shares <= 0 {
			return errors.New("SimConfig: fixed share size must be positive")
		}
	case BankrollFraction:
		if s.Fraction <= 0 || s.Fraction > 1 {
			return errors.New("SimConfig: bankroll fraction must be in (0, 1]")
		}
		if c.InitialCapital == 0 {
			return errors.New("SimConfig: bankroll sizing requires bounded capital")
		}
	case nil:
		return errors.New("SimConfig: sizing mode is required")
	}
	switch a := c.SpotAdjust.(type) {
	case RollingMeanAdjust:
		if a.Window <= 0 {
			return errors.New("SimConfig: rolling-mean window must be positive")
		}
	case MedianAdjust:
		if a.Window <= 0 {
			return errors.New("SimConfig: median window must be positive")
		}
	case EMAAdjust:
		if a.HalfLifeMS <= 0 {
			return errors.New("SimConfig: EMA half-life must be positive")
		}
	}
	return nil
}
