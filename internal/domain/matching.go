package domain

// matching.go — maps an observed mid price to an executable price under
// a fixed spread plus optional slippage, and computes the taker fee.

import "math"

// Matcher converts mid prices into executable prices. Zero value is
// not usable; build one through config defaults.
type Matcher struct {
	SpreadTicks float64 // half the spread is applied on each side
	TickSize    float64 // price granularity, e.g. 0.01
	SlippageBps float64 // extra adverse move in basis points
	MinPrice    float64
	MaxPrice    float64
	MinEdge     float64 // minimum admissible fair-value edge
	FeesOn      bool
}

// BuyPrice is the executable ask for a buy at the given mid: half the
// spread, clamped to the price bounds, then slippage, rounded to the
// tick. Slippage may push the result past MaxPrice — CanBuy rejects
// those rather than silently clamping them back.
func (m Matcher) BuyPrice(mid float64) float64 {
	p := m.clamp(mid + m.SpreadTicks*m.TickSize/2)
	p *= 1 + m.SlippageBps/10000
	return m.roundTick(p)
}

// SellPrice is the executable bid for a sell at the given mid.
func (m Matcher) SellPrice(mid float64) float64 {
	p := m.clamp(mid - m.SpreadTicks*m.TickSize/2)
	p *= 1 - m.SlippageBps/10000
	return m.roundTick(p)
}

// Fee reproduces the exchange's published taker-fee curve: it peaks
// near mid-price and vanishes toward 0 and 1. The exact shape matters,
// it feeds straight into realized P&L.
func (m Matcher) Fee(size, price float64) float64 {
	if !m.FeesOn || size <= 0 {
		return 0
	}
	q := price * (1 - price)
	return size * price * 0.25 * q * q
}

// CanBuy returns the executable price and edge for buying at mid, and
// whether the trade is admissible: edge ≥ MinEdge and the price inside
// [MinPrice, MaxPrice].
func (m Matcher) CanBuy(fairValue, mid float64) (price, edge float64, ok bool) {
	price = m.BuyPrice(mid)
	edge = fairValue - price
	ok = edge >= m.MinEdge && price >= m.MinPrice && price <= m.MaxPrice
	return price, edge, ok
}

// CanSell mirrors CanBuy for the sell side.
func (m Matcher) CanSell(fairValue, mid float64) (price, edge float64, ok bool) {
	price = m.SellPrice(mid)
	edge = price - fairValue
	ok = edge >= m.MinEdge && price >= m.MinPrice && price <= m.MaxPrice
	return price, edge, ok
}

func (m Matcher) clamp(p float64) float64 {
	return math.Min(math.Max(p, m.MinPrice), m.MaxPrice)
}

func (m Matcher) roundTick(p float64) float64 {
	if m.TickSize <= 0 {
		return p
	}
	return math.Round(p/m.TickSize) * m.TickSize
}
