package domain

// book.go — per-market position bookkeeping and settlement.
//
// State machine per market: no position → OPEN on the first trade →
// destroyed the instant the market resolves, leaving only the
// immutable MarketResolution. The Book owns its position table
// exclusively; nothing outside may hold a reference into it.

import "log/slog"

// MarketPosition is the mutable per-market aggregate while a market is
// open: signed shares and cumulative signed cost per outcome.
type MarketPosition struct {
	MarketID   string
	UpShares   float64
	UpCost     float64
	DownShares float64
	DownCost   float64
	TradeIDs   []int64
}

// TotalCost is the net cash committed to the market so far.
func (p *MarketPosition) TotalCost() float64 {
	return p.UpCost + p.DownCost
}

// Trades returns the number of fills recorded against the market.
func (p *MarketPosition) Trades() int {
	return len(p.TradeIDs)
}

// Book tracks open positions, the ordered trade log, resolutions and
// the realized P&L curve for one simulation run.
type Book struct {
	positions   map[string]*MarketPosition
	trades      []Trade
	resolutions []MarketResolution
	pnlCurve    []PnLPoint
	realized    float64
	fees        float64
	nextID      int64
}

// NewBook returns an empty book.
func NewBook() *Book {
	return &Book{positions: make(map[string]*MarketPosition)}
}

// Execute turns an admissible signal into a fill at the given
// executable price, assigns the next trade ID, and updates the
// market's position. Sells carry negative Size and produce negative
// share/cost deltas; the fee always adds to cost.
func (b *Book) Execute(sig TradeSignal, price, fee float64) Trade {
	b.nextID++
	cost := sig.Size*price + fee
	t := Trade{
		ID:        b.nextID,
		MarketID:  sig.MarketID,
		Side:      sig.Side,
		Timestamp: sig.Timestamp,
		FairValue: sig.FairValue,
		MidPrice:  sig.MidPrice,
		Price:     price,
		Edge:      sig.Edge,
		Size:      sig.Size,
		Fee:       fee,
		Cost:      cost,
	}

	pos, ok := b.positions[sig.MarketID]
	if !ok {
		pos = &MarketPosition{MarketID: sig.MarketID}
		b.positions[sig.MarketID] = pos
	}
	if sig.Side == OutcomeUp {
		pos.UpShares += sig.Size
		pos.UpCost += cost
	} else {
		pos.DownShares += sig.Size
		pos.DownCost += cost
	}
	pos.TradeIDs = append(pos.TradeIDs, t.ID)

	b.trades = append(b.trades, t)
	b.fees += fee
	return t
}

// Resolve settles a market: winning shares pay $1, losing shares pay
// nothing, P&L = payout − cumulative cost. Returns nil without side
// effects when the market has no open position — callers resolve
// speculatively and an already-settled or never-traded market is not
// an error. The position is deleted here; only the resolution record
// survives.
func (b *Book) Resolve(marketID string, outcome Outcome, finalPrice, strike float64, ts int64) *MarketResolution {
	pos, ok := b.positions[marketID]
	if !ok {
		return nil
	}
	delete(b.positions, marketID)

	res := MarketResolution{
		MarketID:   marketID,
		Outcome:    outcome,
		Timestamp:  ts,
		FinalPrice: finalPrice,
		Strike:     strike,
		UpShares:   pos.UpShares,
		UpCost:     pos.UpCost,
		DownShares: pos.DownShares,
		DownCost:   pos.DownCost,
	}
	if outcome == OutcomeUp {
		res.UpPayout = pos.UpShares
	} else {
		res.DownPayout = pos.DownShares
	}
	res.UpPnL = res.UpPayout - res.UpCost
	res.DownPnL = res.DownPayout - res.DownCost
	res.PnL = res.UpPnL + res.DownPnL

	b.realized += res.PnL
	b.resolutions = append(b.resolutions, res)
	b.pnlCurve = append(b.pnlCurve, PnLPoint{Timestamp: ts, Cumulative: b.realized})

	slog.Debug("market resolved",
		"market", marketID,
		"outcome", outcome,
		"final", finalPrice,
		"strike", strike,
		"pnl", res.PnL,
	)
	return &res
}

// Position returns a copy of the open position for the market, or nil.
// A copy, so the book keeps exclusive ownership of its table.
func (b *Book) Position(marketID string) *MarketPosition {
	pos, ok := b.positions[marketID]
	if !ok {
		return nil
	}
	cp := *pos
	cp.TradeIDs = append([]int64(nil), pos.TradeIDs...)
	return &cp
}

// OpenPositions returns the number of currently open markets.
func (b *Book) OpenPositions() int { return len(b.positions) }

// Trades returns the ordered trade log.
func (b *Book) Trades() []Trade { return b.trades }

// Resolutions returns the settlement log.
func (b *Book) Resolutions() []MarketResolution { return b.resolutions }

// PnLCurve returns the per-resolution cumulative realized P&L samples.
func (b *Book) PnLCurve() []PnLPoint { return b.pnlCurve }

// RealizedPnL returns cumulative realized P&L across resolutions.
func (b *Book) RealizedPnL() float64 { return b.realized }

// TotalFees returns the fees accumulated across all fills.
func (b *Book) TotalFees() float64 { return b.fees }
