package optimizer

// stress.go — adverse-scenario re-runs on the test period.
//
// Scenarios are overrides on top of the cell's own parameters. A cell
// passes only if test P&L stays positive under every scenario; one
// failure fails the cell for primary ranking. No partial credit.

import (
	"github.com/alejandrodnm/polysim/internal/domain"
)

type scenario struct {
	name  string
	apply func(*domain.SimConfig)
}

// stressScenarios is the fixed set applied to every stressed cell.
var stressScenarios = []scenario{
	{"slippage+25bps", func(c *domain.SimConfig) { c.SlippageBps += 25 }},
	{"vol×0.8", func(c *domain.SimConfig) { c.VolMultiplier *= 0.8 }},
	{"vol×1.2", func(c *domain.SimConfig) { c.VolMultiplier *= 1.2 }},
}

// RunStress re-runs one cell on the test period under each scenario.
func RunStress(hist *domain.History, base domain.SimConfig, cell domain.GridCell, split domain.DateSplit) domain.StressResult {
	result := domain.StressResult{AllPassed: true}

	for _, sc := range stressScenarios {
		cfg := cellConfig(base, cell, split.TestStart, split.TestEnd)
		sc.apply(&cfg)

		outcome := domain.StressOutcome{Scenario: sc.name}
		if run, err := runOnce(hist, cfg); err == nil {
			outcome.PnL = run.TotalPnL
			outcome.Passed = run.TotalPnL > 0
		}
		if !outcome.Passed {
			result.AllPassed = false
		}
		result.Scenarios = append(result.Scenarios, outcome)
	}
	return result
}
