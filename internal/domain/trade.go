package domain

// Tick is one aligned observation for a single market: spot at the
// lagged execution time, blended vol, and the market's own mid prices.
// Ticks are derived per timestamp and consumed immediately.
type Tick struct {
	Timestamp   int64
	MarketID    string
	Spot        float64
	SpotLow     float64 // interval low, used by conservative pricing
	SpotHigh    float64 // interval high, used by conservative pricing
	Vol         float64 // blended annualized vol
	UpMid       float64
	DownMid     float64
	SecondsLeft float64
}

// TradeSignal is a proposed order before matching.
type TradeSignal struct {
	MarketID  string
	Side      Outcome // the favorable outcome
	Timestamp int64
	FairValue float64
	MidPrice  float64
	Edge      float64 // fair value − executable price
	Size      float64 // requested shares; negative = sell
}

// Trade is an executed fill. Immutable once created; IDs increase
// monotonically within a run.
type Trade struct {
	ID        int64
	MarketID  string
	Side      Outcome
	Timestamp int64
	FairValue float64
	MidPrice  float64
	Price     float64 // executable price actually paid/received
	Edge      float64
	Size      float64 // signed shares
	Fee       float64
	Cost      float64 // signed cash: positive = cash out (buy)
}

// MarketResolution is the immutable settlement record for one market.
type MarketResolution struct {
	MarketID   string
	Outcome    Outcome
	Timestamp  int64
	FinalPrice float64
	Strike     float64

	UpShares   float64
	UpCost     float64
	UpPayout   float64
	UpPnL      float64
	DownShares float64
	DownCost   float64
	DownPayout float64
	DownPnL    float64

	PnL float64 // total payout − total cost
}

// PnLPoint samples cumulative realized P&L, appended once per
// resolution. Trade-time samples would bias the variance estimates
// behind Sharpe/Sortino.
type PnLPoint struct {
	Timestamp  int64
	Cumulative float64
}

// RunResult bundles everything a completed simulation produced.
type RunResult struct {
	From, To    int64
	Trades      []Trade
	Resolutions []MarketResolution
	PnLCurve    []PnLPoint
	Markets     int // markets whose window fell inside the run
	SkippedGaps int // ticks dropped for missing spot data
	TotalPnL    float64
	TotalFees   float64
}
