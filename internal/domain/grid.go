package domain

// grid.go — the optimizer's search-space records and verdict types.
// Everything here is immutable once created; later stages attach new
// records instead of mutating earlier ones.

import "time"

// GridCell is one point in the search space: a minimum-edge threshold
// paired with a Kelly sizing fraction.
type GridCell struct {
	MinEdge  float64 `json:"min_edge"`
	Fraction float64 `json:"fraction"`
}

// DateSplit is a strict chronological partition of a date range into
// disjoint, contiguous train and test windows. Never shuffled —
// temporal leakage is a correctness bug, not a style choice.
type DateSplit struct {
	TrainStart int64 `json:"train_start"`
	TrainEnd   int64 `json:"train_end"`
	TestStart  int64 `json:"test_start"`
	TestEnd    int64 `json:"test_end"`
}

// SplitDates partitions [start, end) at start + floor((end−start)·ratio).
// TrainEnd == TestStart by construction.
func SplitDates(start, end int64, ratio float64) DateSplit {
	split := start + int64(float64(end-start)*ratio)
	return DateSplit{
		TrainStart: start,
		TrainEnd:   split,
		TestStart:  split,
		TestEnd:    end,
	}
}

// CellResult bundles one cell's train and test runs with their stats.
type CellResult struct {
	Cell       GridCell  `json:"cell"`
	Train      RunResult `json:"-"`
	TrainStats Stats     `json:"train_stats"`
	Test       RunResult `json:"-"`
	TestStats  Stats     `json:"test_stats"`
}

// GateResult is the verdict of the hard statistical gates. Reason
// carries the first failing gate's human-readable explanation.
type GateResult struct {
	Passed     bool   `json:"passed"`
	FailedGate int    `json:"failed_gate,omitempty"` // 1-based, 0 when passed
	Reason     string `json:"reason,omitempty"`
}

// StressOutcome is one adverse scenario's result on the test period.
type StressOutcome struct {
	Scenario string  `json:"scenario"`
	PnL      float64 `json:"pnl"`
	Passed   bool    `json:"passed"`
}

// StressResult aggregates all scenarios for one cell. AllPassed means
// test P&L stayed positive under every override — no partial credit.
type StressResult struct {
	AllPassed bool            `json:"all_passed"`
	Scenarios []StressOutcome `json:"scenarios"`
}

// ScoredCell is a cell's final standing in the report.
type ScoredCell struct {
	Cell        GridCell      `json:"cell"`
	TrainStats  Stats         `json:"train_stats"`
	TestStats   Stats         `json:"test_stats"`
	Gate        GateResult    `json:"gate"`
	Stress      *StressResult `json:"stress,omitempty"`
	Score       float64       `json:"score"`
	MinBankroll float64       `json:"min_bankroll,omitempty"`
}

// Report is the optimizer's output artifact. It marshals directly to
// JSON for the machine-readable rendering; the console notifier
// renders the same structure for humans.
type Report struct {
	RunID       string    `json:"run_id"`
	GeneratedAt time.Time `json:"generated_at"`
	From        int64     `json:"from"`
	To          int64     `json:"to"`
	Split       DateSplit `json:"split"`

	GridSize        int `json:"grid_size"`
	GateSurvivors   int `json:"gate_survivors"`
	StressTested    int `json:"stress_tested"`
	StressSurvivors int `json:"stress_survivors"`

	// StressAdvisory is set when no cell cleared stress and the ranking
	// pool fell back to gate survivors: the robustness guarantee is
	// weaker and users need to know.
	StressAdvisory bool `json:"stress_advisory"`

	Cells    []ScoredCell `json:"cells"`
	Winner   *ScoredCell  `json:"winner,omitempty"`
	NoViable bool         `json:"no_viable"`

	BaseConfig SimConfig `json:"base_config"`
}
