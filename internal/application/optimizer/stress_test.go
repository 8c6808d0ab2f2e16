package optimizer

import (
	"testing"

	"github.com/alejandrodnm/polysim/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRunStress_AllScenariosPositivePasses(t *testing.T) {
	hist := profitableHistory(10)
	cfg := sweepConfig(hist)
	split := domain.SplitDates(cfg.Base.From, cfg.Base.To, cfg.TrainRatio)

	sr := RunStress(hist, cfg.Base, domain.GridCell{MinEdge: 0.02, Fraction: 0.10}, split)

	require.Len(t, sr.Scenarios, 3)
	for _, sc := range sr.Scenarios {
		assert.True(t, sc.Passed, sc.Scenario)
		assert.Greater(t, sc.PnL, 0.0, sc.Scenario)
	}
	assert.True(t, sr.AllPassed)
}

func TestRunStress_OneFailureFailsTheCell(t *testing.T) {
	hist := profitableHistory(10)
	cfg := sweepConfig(hist)
	split := domain.SplitDates(cfg.Base.From, cfg.Base.To, cfg.TrainRatio)

	// No spot data in the test window: the stress runs produce no
	// trades, so P&L is never positive and every scenario fails.
	cut := domain.CandleIndexAt(hist.Candles, split.TestStart)
	hist.Candles = hist.Candles[:cut]
	hist.Oracle = hist.Oracle[:cut]

	sr := RunStress(hist, cfg.Base, domain.GridCell{MinEdge: 0.02, Fraction: 0.10}, split)
	assert.False(t, sr.AllPassed)
}

func TestRunStress_ScenariosLayerOnCellParams(t *testing.T) {
	base := domain.DefaultSimConfig()
	base.SlippageBps = 10

	cfg := cellConfig(base, domain.GridCell{MinEdge: 0.04, Fraction: 0.2}, 0, 1000)
	stressScenarios[0].apply(&cfg)
	assert.Equal(t, 35.0, cfg.SlippageBps) // cell's 10 + scenario's 25
	assert.Equal(t, 0.04, cfg.MinEdge)     // cell param preserved
}
