package sim

// simulator.go — the tick aligner and replay loop.
//
// Each market's own mid-price samples are the execution backbone: they
// decide *when* anything happens. Spot is looked up at timestamp−lag
// to model decision/execution latency, volatility is blended from the
// candle series plus the implied index, and markets settle against the
// oracle series at their end time. One Simulator instance is single
// threaded; concurrency lives a level up, one instance per grid run.

import (
	"fmt"
	"log/slog"
	"math"

	"github.com/alejandrodnm/polysim/internal/domain"
)

const (
	// Spot klines are 1-minute; a lagged lookup further back than one
	// interval is a data gap, not a stale-but-usable sample.
	spotSampleIntervalMS = 60000

	// Orders below this notional are not executable on the venue.
	minOrderNotional = 0.50

	// Oracle vs execution-source disagreement worth logging, in $.
	oracleDivergenceWarn = 5.0
)

// Simulator replays one History snapshot through the strategy.
type Simulator struct {
	hist    *domain.History
	cfg     domain.SimConfig
	matcher domain.Matcher
}

// New validates the configuration and builds a Simulator. The History
// is shared read-only; the Simulator never mutates it.
func New(hist *domain.History, cfg domain.SimConfig) (*Simulator, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("sim.New: %w", err)
	}
	return &Simulator{
		hist: hist,
		cfg:  cfg,
		matcher: domain.Matcher{
			SpreadTicks: cfg.SpreadTicks,
			TickSize:    cfg.TickSize,
			SlippageBps: cfg.SlippageBps,
			MinPrice:    cfg.MinPrice,
			MaxPrice:    cfg.MaxPrice,
			MinEdge:     cfg.MinEdge,
			FeesOn:      cfg.FeesOn,
		},
	}, nil
}

type runState struct {
	book    *domain.Book
	capital float64 // cash when bounded; ignored otherwise
	gaps    int
}

// Run replays every market whose window starts inside the configured
// date range and returns the aggregated result. It never fails: data
// gaps skip ticks or markets, they do not abort the run.
func (s *Simulator) Run() domain.RunResult {
	st := &runState{book: domain.NewBook(), capital: s.cfg.InitialCapital}

	markets := s.hist.MarketsBetween(s.cfg.From, s.cfg.To)
	for _, m := range markets {
		s.runMarket(st, m)
	}

	return domain.RunResult{
		From:        s.cfg.From,
		To:          s.cfg.To,
		Trades:      st.book.Trades(),
		Resolutions: st.book.Resolutions(),
		PnLCurve:    st.book.PnLCurve(),
		Markets:     len(markets),
		SkippedGaps: st.gaps,
		TotalPnL:    st.book.RealizedPnL(),
		TotalFees:   st.book.TotalFees(),
	}
}

func (s *Simulator) runMarket(st *runState, m domain.Market) {
	adj := newAdjuster(s.cfg.SpotAdjust)
	lastTrade := make(map[domain.Outcome]int64)

	for _, pt := range s.hist.Prices[m.UpTokenID] {
		if !m.Contains(pt.Timestamp) {
			continue
		}
		tick, ok := s.buildTick(st, m, pt, adj)
		if !ok {
			continue
		}
		s.maybeTrade(st, m, tick, lastTrade)
	}

	s.resolveMarket(st, m)
}

// buildTick aligns one backbone sample with the lagged spot candle,
// the blended vol and the down-side mid. Returns ok=false on a data
// gap or when the market is too close to resolution.
func (s *Simulator) buildTick(st *runState, m domain.Market, pt domain.PricePoint, adj *adjuster) (domain.Tick, bool) {
	ts := pt.Timestamp
	spotTS := ts - s.cfg.ExecLagMS

	c := domain.CandleAt(s.hist.Candles, spotTS)
	if c == nil || spotTS-c.Timestamp > spotSampleIntervalMS {
		st.gaps++
		return domain.Tick{}, false
	}

	if o := domain.PriceAt(s.hist.Oracle, spotTS); o != nil {
		adj.observe(o.Price-c.Close, spotTS)
	}

	secondsLeft := float64(m.EndTime-ts) / 1000
	if secondsLeft < s.cfg.MinSecondsLeft {
		return domain.Tick{}, false
	}

	downMid := 1 - pt.Price
	if dp := domain.PriceAt(s.hist.Prices[m.DownTokenID], ts); dp != nil {
		downMid = dp.Price
	}

	off := adj.offset()
	return domain.Tick{
		Timestamp:   ts,
		MarketID:    m.ID,
		Spot:        c.Close + off,
		SpotLow:     c.Low + off,
		SpotHigh:    c.High + off,
		Vol:         blendedVol(s.hist, spotTS) * s.cfg.VolMultiplier,
		UpMid:       pt.Price,
		DownMid:     downMid,
		SecondsLeft: secondsLeft,
	}, true
}

// maybeTrade prices both sides, picks the one with the best admissible
// edge, and executes if the cooldown, trade-cap, position-cap and
// capital checks all pass.
func (s *Simulator) maybeTrade(st *runState, m domain.Market, tick domain.Tick, lastTrade map[domain.Outcome]int64) {
	pos := st.book.Position(m.ID)
	if pos != nil && s.cfg.MaxTradesPerMarket > 0 && pos.Trades() >= s.cfg.MaxTradesPerMarket {
		return
	}

	// Conservative mode prices each side off its worst-case spot: the
	// interval low for the up side, the interval high for the down
	// side. Strictly more pessimistic edges than using the close.
	spotUp, spotDown := tick.Spot, tick.Spot
	if s.cfg.Conservative {
		spotUp, spotDown = tick.SpotLow, tick.SpotHigh
	}
	fairUp := domain.FairValue(spotUp, m.Strike, tick.SecondsLeft, tick.Vol, s.cfg.RiskFree, s.cfg.Pricing).PUp
	fairDown := domain.FairValue(spotDown, m.Strike, tick.SecondsLeft, tick.Vol, s.cfg.RiskFree, s.cfg.Pricing).PDown

	side := domain.OutcomeUp
	fair, mid := fairUp, tick.UpMid
	price, edge, ok := s.matcher.CanBuy(fairUp, tick.UpMid)
	if dnPrice, dnEdge, dnOK := s.matcher.CanBuy(fairDown, tick.DownMid); dnOK && (!ok || dnEdge > edge) {
		side, fair, mid = domain.OutcomeDown, fairDown, tick.DownMid
		price, edge, ok = dnPrice, dnEdge, dnOK
	}
	if !ok {
		return
	}

	if s.cfg.CooldownMS > 0 {
		if last, traded := lastTrade[side]; traded && tick.Timestamp-last < s.cfg.CooldownMS {
			return
		}
	}

	size := s.orderSize(st, edge, price)
	if size <= 0 || size*price < minOrderNotional {
		return
	}

	fee := s.matcher.Fee(size, price)
	cost := size*price + fee
	committed := cost
	if pos != nil {
		committed += pos.TotalCost()
	}
	if s.cfg.MaxMarketCost > 0 && committed > s.cfg.MaxMarketCost {
		return
	}
	if s.cfg.InitialCapital > 0 && cost > st.capital {
		return
	}

	st.book.Execute(domain.TradeSignal{
		MarketID:  m.ID,
		Side:      side,
		Timestamp: tick.Timestamp,
		FairValue: fair,
		MidPrice:  mid,
		Edge:      edge,
		Size:      size,
	}, price, fee)
	if s.cfg.InitialCapital > 0 {
		st.capital -= cost
	}
	lastTrade[side] = tick.Timestamp
}

// orderSize sizes one order in shares according to the sizing mode.
func (s *Simulator) orderSize(st *runState, edge, price float64) float64 {
	switch mode := s.cfg.Sizing.(type) {
	case domain.FixedShares:
		return mode.Shares
	case domain.BankrollFraction:
		stake := st.capital * mode.Fraction * edge
		if stake <= 0 || price <= 0 {
			return 0
		}
		return stake / price
	default:
		return 0
	}
}

// resolveMarket settles against the oracle at the market's end time.
// The oracle is authoritative; the execution-timeline spot close is
// only a fallback, and a large disagreement between the two sources is
// logged because it is informative, never fatal.
func (s *Simulator) resolveMarket(st *runState, m domain.Market) {
	op := domain.PriceAt(s.hist.Oracle, m.EndTime)
	c := domain.CandleAt(s.hist.Candles, m.EndTime)

	var final float64
	switch {
	case op != nil:
		final = op.Price
	case c != nil:
		final = c.Close
		slog.Warn("no oracle sample at expiry, settling on spot close",
			"market", m.ID, "end", m.EndTime)
	default:
		if st.book.Position(m.ID) != nil {
			slog.Warn("cannot settle market, no price data at expiry",
				"market", m.ID, "end", m.EndTime)
		}
		return
	}

	if op != nil && c != nil && math.Abs(op.Price-c.Close) > oracleDivergenceWarn {
		slog.Warn("oracle and spot source disagree at settlement",
			"market", m.ID,
			"oracle", op.Price,
			"spot", c.Close,
			"diff", op.Price-c.Close,
		)
	}

	outcome := domain.OutcomeDown
	if final > m.Strike {
		outcome = domain.OutcomeUp
	}
	if m.Resolved != nil && *m.Resolved != outcome {
		slog.Warn("oracle-derived outcome differs from recorded resolution",
			"market", m.ID, "derived", outcome, "recorded", *m.Resolved)
		outcome = *m.Resolved
	}

	res := st.book.Resolve(m.ID, outcome, final, m.Strike, m.EndTime)
	if res != nil && s.cfg.InitialCapital > 0 {
		st.capital += res.UpPayout + res.DownPayout
	}
}
