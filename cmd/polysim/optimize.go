package main

import (
	"context"
	"log/slog"

	"github.com/alejandrodnm/polysim/config"
	"github.com/alejandrodnm/polysim/internal/application/optimizer"
	"github.com/alejandrodnm/polysim/internal/domain"
	"github.com/alejandrodnm/polysim/internal/ports"
)

// runOptimize executes the parameter sweep, publishes the report and
// persists it for later inspection.
func runOptimize(ctx context.Context, cfg *config.Config, hist *domain.History,
	from, to int64, sink ports.ReportSink, store ports.ReportStore) error {

	base, err := cfg.DomainSim(from, to)
	if err != nil {
		return err
	}

	report, err := optimizer.Run(hist, cfg.OptimizerRun(base))
	if err != nil {
		return err
	}

	if err := sink.Publish(ctx, report); err != nil {
		return err
	}

	if err := store.SaveReport(ctx, report); err != nil {
		slog.Warn("failed to persist report", "err", err, "run_id", report.RunID)
	} else {
		slog.Info("report persisted", "run_id", report.RunID)
	}
	return nil
}
