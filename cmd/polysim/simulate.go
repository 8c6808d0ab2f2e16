package main

import (
	"encoding/json"
	"os"

	"github.com/alejandrodnm/polysim/config"
	"github.com/alejandrodnm/polysim/internal/adapters/notify"
	"github.com/alejandrodnm/polysim/internal/application/sim"
	"github.com/alejandrodnm/polysim/internal/domain"
)

// runSimulate executes one simulation with the configured settings and
// renders its statistics.
func runSimulate(cfg *config.Config, hist *domain.History, from, to int64, jsonOut bool) error {
	sc, err := cfg.DomainSim(from, to)
	if err != nil {
		return err
	}

	s, err := sim.New(hist, sc)
	if err != nil {
		return err
	}

	run := s.Run()
	stats := domain.ComputeStats(run)

	if jsonOut {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(struct {
			Config domain.SimConfig `json:"config"`
			Stats  domain.Stats     `json:"stats"`
			Run    domain.RunResult `json:"run"`
		}{sc, stats, run})
	}

	notify.NewConsole(cfg.Log.Level == "debug").PrintRun(stats, run)
	return nil
}
