package optimizer

// optimizer.go — the grid search over (edge threshold × Kelly fraction).
//
// Each cell runs the simulator twice, once on the chronological train
// window and once on the test window, with identical settings apart
// from the parameterized edge and fraction. Cells are independent, so
// they run on a worker pool; the History snapshot is shared read-only.
// The optimizer always terminates with a report, including the
// explicit no-viable-configuration state.

import (
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"time"

	"github.com/alejandrodnm/polysim/internal/application/sim"
	"github.com/alejandrodnm/polysim/internal/domain"
	"github.com/google/uuid"
)

// Config drives one optimizer sweep.
type Config struct {
	Edges      []float64 // minimum-edge thresholds
	Fractions  []float64 // Kelly sizing fractions
	TrainRatio float64   // chronological split point, in (0,1)
	StressTopN int       // survivors re-run under stress scenarios
	Workers    int       // concurrent cells; <=0 = NumCPU

	// Base carries every non-parameterized simulator setting. Its date
	// range is the full sweep range before splitting. InitialCapital
	// must be bounded: bankroll-fraction sizing needs it.
	Base domain.SimConfig
}

// DefaultConfig returns the stock 8×5 grid.
func DefaultConfig() Config {
	return Config{
		Edges:      []float64{0.02, 0.03, 0.04, 0.05, 0.06, 0.08, 0.10, 0.12},
		Fractions:  []float64{0.05, 0.10, 0.15, 0.25, 0.50},
		TrainRatio: 0.7,
		StressTopN: 5,
	}
}

// Validate rejects invalid sweeps before any simulation work begins.
func (c Config) Validate() error {
	if c.TrainRatio <= 0 || c.TrainRatio >= 1 {
		return fmt.Errorf("optimizer.Config: train ratio %v outside (0,1)", c.TrainRatio)
	}
	if len(c.Edges) == 0 || len(c.Fractions) == 0 {
		return errors.New("optimizer.Config: empty parameter grid")
	}
	if c.Base.InitialCapital <= 0 {
		return errors.New("optimizer.Config: bounded initial capital required")
	}
	if c.Base.From >= c.Base.To {
		return fmt.Errorf("optimizer.Config: from %d must precede to %d", c.Base.From, c.Base.To)
	}
	return nil
}

// BuildGrid returns the cartesian product of edges and fractions, in
// deterministic order.
func BuildGrid(edges, fractions []float64) []domain.GridCell {
	cells := make([]domain.GridCell, 0, len(edges)*len(fractions))
	for _, e := range edges {
		for _, f := range fractions {
			cells = append(cells, domain.GridCell{MinEdge: e, Fraction: f})
		}
	}
	return cells
}

// cellConfig specializes the base settings for one cell and period.
func cellConfig(base domain.SimConfig, cell domain.GridCell, from, to int64) domain.SimConfig {
	cfg := base
	cfg.From = from
	cfg.To = to
	cfg.MinEdge = cell.MinEdge
	cfg.Sizing = domain.BankrollFraction{Fraction: cell.Fraction}
	return cfg
}

// Run executes the full sweep and assembles the report.
func Run(hist *domain.History, cfg Config) (*domain.Report, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	split := domain.SplitDates(cfg.Base.From, cfg.Base.To, cfg.TrainRatio)
	cells := BuildGrid(cfg.Edges, cfg.Fractions)

	// Specializing the base with the first cell exercises the full
	// simulator validation once, before any work is queued.
	if err := cellConfig(cfg.Base, cells[0], split.TrainStart, split.TrainEnd).Validate(); err != nil {
		return nil, fmt.Errorf("optimizer.Run: base settings: %w", err)
	}

	slog.Info("optimizer sweep starting",
		"grid", len(cells),
		"train_start", split.TrainStart,
		"test_start", split.TestStart,
		"test_end", split.TestEnd,
	)

	results := runGrid(hist, cfg, split, cells)

	scored := make([]domain.ScoredCell, 0, len(results))
	var survivors []int // indices into scored
	for _, cr := range results {
		gate := EvaluateGates(cr, cfg.Base.InitialCapital)
		sc := domain.ScoredCell{
			Cell:       cr.Cell,
			TrainStats: cr.TrainStats,
			TestStats:  cr.TestStats,
			Gate:       gate,
			Score:      Score(cr.TestStats),
		}
		if gate.Passed {
			sc.MinBankroll = MinBankroll(cr.Cell)
			survivors = append(survivors, len(scored))
		}
		scored = append(scored, sc)
	}

	// Stress the top survivors by provisional score, test period only.
	sort.SliceStable(survivors, func(i, j int) bool {
		return scored[survivors[i]].Score > scored[survivors[j]].Score
	})
	topN := survivors
	if cfg.StressTopN > 0 && len(topN) > cfg.StressTopN {
		topN = topN[:cfg.StressTopN]
	}

	var stressSurvivors []int
	for _, idx := range topN {
		sr := RunStress(hist, cfg.Base, scored[idx].Cell, split)
		scored[idx].Stress = &sr
		if sr.AllPassed {
			stressSurvivors = append(stressSurvivors, idx)
		}
	}

	report := &domain.Report{
		RunID:           uuid.New().String(),
		GeneratedAt:     time.Now().UTC(),
		From:            cfg.Base.From,
		To:              cfg.Base.To,
		Split:           split,
		GridSize:        len(cells),
		GateSurvivors:   len(survivors),
		StressTested:    len(topN),
		StressSurvivors: len(stressSurvivors),
		Cells:           scored,
		BaseConfig:      cfg.Base,
	}

	// Ranking pool: stress survivors when any exist, otherwise all gate
	// survivors with stress demoted to advisory. The weaker guarantee
	// is flagged so report readers know.
	pool := stressSurvivors
	if len(pool) == 0 && len(survivors) > 0 {
		pool = survivors
		report.StressAdvisory = len(topN) > 0
	}
	if len(pool) == 0 {
		report.NoViable = true
		slog.Warn("optimizer found no viable configuration", "grid", len(cells))
		return report, nil
	}

	best := pool[0]
	for _, idx := range pool[1:] {
		if scored[idx].Score > scored[best].Score {
			best = idx
		}
	}
	winner := scored[best]
	report.Winner = &winner

	slog.Info("optimizer sweep finished",
		"winner_edge", winner.Cell.MinEdge,
		"winner_fraction", winner.Cell.Fraction,
		"score", winner.Score,
		"stress_advisory", report.StressAdvisory,
	)
	return report, nil
}

// runOnce builds and runs one simulator; config errors cannot occur
// past Validate, so a failure here is a programming error.
func runOnce(hist *domain.History, cfg domain.SimConfig) (domain.RunResult, error) {
	s, err := sim.New(hist, cfg)
	if err != nil {
		return domain.RunResult{}, err
	}
	return s.Run(), nil
}
