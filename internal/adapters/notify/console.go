package notify

import (
	"context"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/alejandrodnm/polysim/internal/domain"
	"github.com/olekukonko/tablewriter"
)

// Console implements ports.ReportSink, rendering optimizer reports to
// a terminal.
type Console struct {
	out     io.Writer
	verbose bool
}

// NewConsole creates a sink that writes to stdout.
func NewConsole(verbose bool) *Console {
	return &Console{out: os.Stdout, verbose: verbose}
}

// NewConsoleWriter creates a sink for tests.
func NewConsoleWriter(w io.Writer, verbose bool) *Console {
	return &Console{out: w, verbose: verbose}
}

// Publish renders the full report: header, grid table, stress table
// and the winner block (or the no-viable verdict).
func (c *Console) Publish(_ context.Context, r *domain.Report) error {
	c.printHeader(r)
	c.printGrid(r)
	c.printStress(r)
	c.printWinner(r)
	return nil
}

func (c *Console) printHeader(r *domain.Report) {
	fmt.Fprintf(c.out, "\n=== PARAMETER SWEEP %s ===\n", r.RunID)
	fmt.Fprintf(c.out, "  Generated: %s\n", r.GeneratedAt.Format(time.RFC3339))
	fmt.Fprintf(c.out, "  Window:    %s → %s\n", dateLabel(r.From), dateLabel(r.To))
	fmt.Fprintf(c.out, "  Train:     %s → %s\n", dateLabel(r.Split.TrainStart), dateLabel(r.Split.TrainEnd))
	fmt.Fprintf(c.out, "  Test:      %s → %s\n", dateLabel(r.Split.TestStart), dateLabel(r.Split.TestEnd))
	fmt.Fprintf(c.out, "  Cells:     %d | gates passed: %d | stress tested: %d | stress passed: %d\n",
		r.GridSize, r.GateSurvivors, r.StressTested, r.StressSurvivors)
}

func (c *Console) printGrid(r *domain.Report) {
	if len(r.Cells) == 0 {
		return
	}

	table := tablewriter.NewWriter(c.out)
	table.Header("Edge", "Frac", "TrainPnL", "TestPnL", "TestDD", "Sharpe", "WinRate", "Trades", "Score", "Verdict")

	for _, sc := range r.Cells {
		verdict := sc.Gate.Reason
		if sc.Gate.Passed {
			verdict = "PASS"
			if sc.Stress != nil && !sc.Stress.AllPassed {
				verdict = "PASS (stress fail)"
			}
		}

		table.Append(
			fmt.Sprintf("%.3f", sc.Cell.MinEdge),
			fmt.Sprintf("%.2f", sc.Cell.Fraction),
			fmt.Sprintf("$%.2f", sc.TrainStats.TotalPnL),
			fmt.Sprintf("$%.2f", sc.TestStats.TotalPnL),
			fmt.Sprintf("$%.2f", sc.TestStats.MaxDrawdown),
			sharpeLabel(sc.TestStats.Sharpe),
			fmt.Sprintf("%.1f%%", sc.TestStats.WinRate*100),
			fmt.Sprintf("%d", sc.TrainStats.Trades+sc.TestStats.Trades),
			fmt.Sprintf("%.2f", sc.Score),
			verdict,
		)
	}
	table.Render()

	fmt.Fprintln(c.out, "  Score = test PnL − 0.5 × |test drawdown| | Sharpe 999 = degenerate daily series")
}

func (c *Console) printStress(r *domain.Report) {
	if !c.verbose {
		return
	}

	printed := false
	for _, sc := range r.Cells {
		if sc.Stress == nil {
			continue
		}
		if !printed {
			fmt.Fprintf(c.out, "\n--- STRESS (test period only) ---\n")
			printed = true
		}

		table := tablewriter.NewWriter(c.out)
		table.Header("Scenario", "PnL", "Result")
		for _, s := range sc.Stress.Scenarios {
			result := "FAIL"
			if s.Passed {
				result = "pass"
			}
			table.Append(s.Scenario, fmt.Sprintf("$%.2f", s.PnL), result)
		}
		fmt.Fprintf(c.out, "  edge=%.3f frac=%.2f:\n", sc.Cell.MinEdge, sc.Cell.Fraction)
		table.Render()
	}
}

func (c *Console) printWinner(r *domain.Report) {
	if r.NoViable {
		fmt.Fprintf(c.out, "\n  VERDICT: NO VIABLE CONFIGURATION\n")
		fmt.Fprintf(c.out, "  Every cell failed the hard gates. Do not trade this strategy\n")
		fmt.Fprintf(c.out, "  as configured; the per-cell reasons above say why.\n\n")
		return
	}

	w := r.Winner
	fmt.Fprintf(c.out, "\n=== WINNER: edge=%.3f fraction=%.2f (score %.2f) ===\n",
		w.Cell.MinEdge, w.Cell.Fraction, w.Score)

	table := tablewriter.NewWriter(c.out)
	table.Header("", "Train", "Test")
	table.Append("PnL", money(w.TrainStats.TotalPnL), money(w.TestStats.TotalPnL))
	table.Append("Fees", money(w.TrainStats.TotalFees), money(w.TestStats.TotalFees))
	table.Append("Trades", fmt.Sprintf("%d", w.TrainStats.Trades), fmt.Sprintf("%d", w.TestStats.Trades))
	table.Append("Win rate", pctLabel(w.TrainStats.WinRate), pctLabel(w.TestStats.WinRate))
	table.Append("Avg edge", fmt.Sprintf("%.4f", w.TrainStats.AvgEdge), fmt.Sprintf("%.4f", w.TestStats.AvgEdge))
	table.Append("Edge capture", captureLabel(w.TrainStats), captureLabel(w.TestStats))
	table.Append("Sharpe", sharpeLabel(w.TrainStats.Sharpe), sharpeLabel(w.TestStats.Sharpe))
	table.Append("Sortino", sharpeLabel(w.TrainStats.Sortino), sharpeLabel(w.TestStats.Sortino))
	table.Append("Max drawdown", money(w.TrainStats.MaxDrawdown), money(w.TestStats.MaxDrawdown))
	table.Append("DD days", fmt.Sprintf("%.1f", w.TrainStats.DrawdownDays), fmt.Sprintf("%.1f", w.TestStats.DrawdownDays))
	table.Render()

	if w.MinBankroll > 0 {
		fmt.Fprintf(c.out, "  Min bankroll for $0.50 orders: $%.0f\n", w.MinBankroll)
	}

	if r.StressAdvisory {
		fmt.Fprintf(c.out, "\n  ADVISORY: no cell survived all stress scenarios. The winner is\n")
		fmt.Fprintf(c.out, "  the best gate survivor only — treat the parameters as fragile.\n")
	}
	fmt.Fprintln(c.out)
}

// PrintRun renders a single simulation's statistics.
func (c *Console) PrintRun(stats domain.Stats, run domain.RunResult) {
	fmt.Fprintf(c.out, "\n=== SIMULATION %s → %s ===\n", dateLabel(run.From), dateLabel(run.To))
	fmt.Fprintf(c.out, "  Markets: %d traded | %d tick gaps skipped\n", stats.Markets, run.SkippedGaps)

	table := tablewriter.NewWriter(c.out)
	table.Header("Metric", "Value")
	table.Append("Total PnL", money(stats.TotalPnL))
	table.Append("Fees paid", money(stats.TotalFees))
	table.Append("Trades", fmt.Sprintf("%d", stats.Trades))
	table.Append("Win rate", pctLabel(stats.WinRate))
	table.Append("Up-side PnL", money(stats.UpPnL))
	table.Append("Down-side PnL", money(stats.DownPnL))
	table.Append("Avg edge", fmt.Sprintf("%.4f", stats.AvgEdge))
	table.Append("Edge capture", captureLabel(stats))
	table.Append("Sharpe", sharpeLabel(stats.Sharpe))
	table.Append("Sortino", sharpeLabel(stats.Sortino))
	table.Append("Max drawdown", money(stats.MaxDrawdown))
	table.Append("Drawdown days", fmt.Sprintf("%.1f", stats.DrawdownDays))
	table.Append("Trading days", fmt.Sprintf("%d", stats.TradingDays))
	table.Render()

	if c.verbose {
		c.printResolutions(run)
	}
	fmt.Fprintln(c.out)
}

func (c *Console) printResolutions(run domain.RunResult) {
	if len(run.Resolutions) == 0 {
		return
	}
	fmt.Fprintf(c.out, "\n--- RESOLUTIONS ---\n")
	table := tablewriter.NewWriter(c.out)
	table.Header("Market", "Outcome", "UpShares", "DownShares", "Payout", "PnL")
	for _, r := range run.Resolutions {
		table.Append(
			r.MarketID,
			string(r.Outcome),
			fmt.Sprintf("%.2f", r.UpShares),
			fmt.Sprintf("%.2f", r.DownShares),
			money(r.UpPayout+r.DownPayout),
			money(r.PnL),
		)
	}
	table.Render()
}

// --- helpers ---

func dateLabel(ms int64) string {
	return time.UnixMilli(ms).UTC().Format("2006-01-02 15:04")
}

func money(v float64) string {
	return fmt.Sprintf("$%.2f", v)
}

func pctLabel(v float64) string {
	return fmt.Sprintf("%.1f%%", v*100)
}

func sharpeLabel(v float64) string {
	if v == domain.RatioSentinel || v == -domain.RatioSentinel {
		return "999*"
	}
	return fmt.Sprintf("%.2f", v)
}

func captureLabel(s domain.Stats) string {
	if !s.EdgeCaptureDefined {
		return "n/a"
	}
	return fmt.Sprintf("%.2f", s.EdgeCapture)
}
