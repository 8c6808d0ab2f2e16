package optimizer

import (
	"testing"

	"github.com/alejandrodnm/polysim/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const minuteMS = int64(60000)

// profitableHistory builds a flat spot tape at 100 with one 15-minute
// market every two hours, strike 99 and the up token quoted at 0.90:
// every market is a near-certain winner bought at a discount, so any
// sane cell survives the gates.
func profitableHistory(days int) *domain.History {
	start := int64(1_700_000_000_000)
	end := start + int64(days)*24*60*minuteMS

	var candles []domain.Candle
	var oracle []domain.PricePoint
	for ts := start; ts <= end; ts += minuteMS {
		candles = append(candles, domain.Candle{Timestamp: ts, Open: 100, High: 100, Low: 100, Close: 100})
		oracle = append(oracle, domain.PricePoint{Timestamp: ts, Price: 100})
	}

	hist := &domain.History{
		Candles:    candles,
		Oracle:     oracle,
		ImpliedVol: []domain.VolPoint{{Timestamp: start, Vol: 0.5}},
		Prices:     make(map[string][]domain.PricePoint),
	}

	i := 0
	for ts := start + 60*minuteMS; ts+15*minuteMS < end; ts += 2 * 60 * minuteMS {
		m := domain.Market{
			ID:          markID(i),
			Strike:      99,
			StartTime:   ts,
			EndTime:     ts + 15*minuteMS,
			UpTokenID:   markID(i) + "-up",
			DownTokenID: markID(i) + "-down",
		}
		for t := m.StartTime; t < m.EndTime; t += minuteMS {
			hist.Prices[m.UpTokenID] = append(hist.Prices[m.UpTokenID], domain.PricePoint{Timestamp: t, Price: 0.90})
			hist.Prices[m.DownTokenID] = append(hist.Prices[m.DownTokenID], domain.PricePoint{Timestamp: t, Price: 0.10})
		}
		hist.Markets = append(hist.Markets, m)
		i++
	}
	return hist
}

func markID(i int) string {
	return "mkt-" + string(rune('a'+i/26)) + string(rune('a'+i%26))
}

func sweepConfig(hist *domain.History) Config {
	cfg := DefaultConfig()
	cfg.Edges = []float64{0.02, 0.05}
	cfg.Fractions = []float64{0.10, 0.25}
	cfg.Workers = 2

	base := domain.DefaultSimConfig()
	base.From = hist.Candles[0].Timestamp
	base.To = hist.Candles[len(hist.Candles)-1].Timestamp
	base.InitialCapital = 1000
	base.CooldownMS = 0
	base.MaxTradesPerMarket = 1
	base.MaxMarketCost = 0
	cfg.Base = base
	return cfg
}

func TestRun_TwoByTwoGridProducesFourCells(t *testing.T) {
	hist := profitableHistory(10)
	report, err := Run(hist, sweepConfig(hist))
	require.NoError(t, err)

	assert.Equal(t, 4, report.GridSize)
	require.Len(t, report.Cells, 4)
	for _, c := range report.Cells {
		assert.Greater(t, c.TrainStats.Trades, 0)
		assert.Greater(t, c.TestStats.Trades, 0)
		assert.NotEqual(t, c.TrainStats.Trades, 0)
	}
}

func TestRun_SplitIsGapless(t *testing.T) {
	hist := profitableHistory(10)
	cfg := sweepConfig(hist)
	report, err := Run(hist, cfg)
	require.NoError(t, err)

	assert.Equal(t, cfg.Base.From, report.Split.TrainStart)
	assert.Equal(t, cfg.Base.To, report.Split.TestEnd)
	assert.Equal(t, report.Split.TrainEnd, report.Split.TestStart)
}

func TestRun_ProfitableGridPicksWinner(t *testing.T) {
	hist := profitableHistory(10)
	report, err := Run(hist, sweepConfig(hist))
	require.NoError(t, err)

	assert.False(t, report.NoViable)
	require.NotNil(t, report.Winner)
	assert.Greater(t, report.GateSurvivors, 0)
	assert.Greater(t, report.Winner.TestStats.TotalPnL, 0.0)
	assert.Greater(t, report.Winner.MinBankroll, 0.0)

	// Winner has the top score in the active pool.
	for _, c := range report.Cells {
		if c.Gate.Passed {
			assert.GreaterOrEqual(t, report.Winner.Score, c.Score)
		}
	}
}

func TestRun_NoTradesMeansNoViable(t *testing.T) {
	hist := profitableHistory(10)
	cfg := sweepConfig(hist)
	// No spot tape at all: every tick is a data gap, gate 1 fails every
	// cell, and the optimizer must still emit a report.
	hist.Candles = nil
	hist.Oracle = nil

	report, err := Run(hist, cfg)
	require.NoError(t, err)
	assert.True(t, report.NoViable)
	assert.Nil(t, report.Winner)
	assert.Equal(t, 0, report.GateSurvivors)
	for _, c := range report.Cells {
		assert.False(t, c.Gate.Passed)
		assert.NotEmpty(t, c.Gate.Reason)
	}
}

func TestRun_RejectsBadTrainRatio(t *testing.T) {
	hist := profitableHistory(2)
	cfg := sweepConfig(hist)
	cfg.TrainRatio = 1.5
	_, err := Run(hist, cfg)
	assert.Error(t, err)
}

func TestRun_RejectsUnboundedCapital(t *testing.T) {
	hist := profitableHistory(2)
	cfg := sweepConfig(hist)
	cfg.Base.InitialCapital = 0
	_, err := Run(hist, cfg)
	assert.Error(t, err)
}

// --- grid construction ---

func TestBuildGrid_CartesianProduct(t *testing.T) {
	cells := BuildGrid([]float64{0.02, 0.05}, []float64{0.1, 0.2, 0.3})
	require.Len(t, cells, 6)
	assert.Equal(t, domain.GridCell{MinEdge: 0.02, Fraction: 0.1}, cells[0])
	assert.Equal(t, domain.GridCell{MinEdge: 0.05, Fraction: 0.3}, cells[5])
}

func TestCellConfig_OverridesOnlyCellParams(t *testing.T) {
	base := domain.DefaultSimConfig()
	base.SlippageBps = 10
	cell := domain.GridCell{MinEdge: 0.07, Fraction: 0.2}

	cfg := cellConfig(base, cell, 100, 200)
	assert.Equal(t, 0.07, cfg.MinEdge)
	assert.Equal(t, domain.BankrollFraction{Fraction: 0.2}, cfg.Sizing)
	assert.Equal(t, int64(100), cfg.From)
	assert.Equal(t, int64(200), cfg.To)
	assert.Equal(t, 10.0, cfg.SlippageBps) // untouched
}
