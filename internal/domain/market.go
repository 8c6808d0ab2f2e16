package domain

// Outcome is one of the two sides of an up/down market.
type Outcome string

const (
	OutcomeUp   Outcome = "UP"
	OutcomeDown Outcome = "DOWN"
)

// Market is one historical 15-minute up/down prediction market.
// Records are immutable after fetch; Resolved stays nil until the
// market's settlement is known.
type Market struct {
	ID          string
	Strike      float64
	StartTime   int64 // unix ms
	EndTime     int64 // unix ms
	UpTokenID   string
	DownTokenID string
	Resolved    *Outcome
}

// DurationMS returns the market's lifetime in milliseconds.
func (m Market) DurationMS() int64 {
	return m.EndTime - m.StartTime
}

// Contains reports whether ts falls inside the market's trading window.
func (m Market) Contains(ts int64) bool {
	return ts >= m.StartTime && ts < m.EndTime
}

// TokenFor returns the token ID that pays out on the given outcome.
func (m Market) TokenFor(o Outcome) string {
	if o == OutcomeUp {
		return m.UpTokenID
	}
	return m.DownTokenID
}

// History is the read-only snapshot of everything a run consumes:
// the market list plus the four independently-sampled series. It is
// loaded once per invocation and shared by reference across grid
// cells — nothing in here may be mutated after load.
type History struct {
	Markets    []Market
	Candles    []Candle                // 1m spot klines, ascending
	Prices     map[string][]PricePoint // token ID → mid-price samples, ascending
	ImpliedVol []VolPoint              // ascending
	Oracle     []PricePoint            // settlement oracle samples, ascending
}

// MarketsBetween returns the markets whose trading window starts
// inside [from, to).
func (h *History) MarketsBetween(from, to int64) []Market {
	var out []Market
	for _, m := range h.Markets {
		if m.StartTime >= from && m.StartTime < to {
			out = append(out, m)
		}
	}
	return out
}
