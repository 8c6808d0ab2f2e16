package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/alejandrodnm/polysim/config"
	"github.com/alejandrodnm/polysim/internal/adapters/histdata"
	"github.com/alejandrodnm/polysim/internal/adapters/notify"
	"github.com/alejandrodnm/polysim/internal/adapters/storage"
	"github.com/alejandrodnm/polysim/internal/ports"
)

func main() {
	configPath := flag.String("config", "", "path to config file (optional)")
	fromFlag := flag.String("from", "", "window start, YYYY-MM-DD or RFC3339 (required)")
	toFlag := flag.String("to", "", "window end, YYYY-MM-DD or RFC3339 (required)")
	optimize := flag.Bool("optimize", false, "run the parameter sweep instead of a single simulation")
	refresh := flag.Bool("refresh", false, "bypass the history cache and re-fetch")
	verbose := flag.Bool("verbose", false, "set log level to debug")
	logFormat := flag.String("log-format", "", "log format: text|json (overrides config)")
	jsonOut := flag.Bool("json", false, "emit the report as JSON instead of tables")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		slog.Error("failed to load config", "err", err, "path", *configPath)
		os.Exit(1)
	}

	if *verbose {
		cfg.Log.Level = "debug"
	}
	if *logFormat != "" {
		cfg.Log.Format = *logFormat
	}
	setupLogger(cfg.Log)

	from, to, err := parseWindow(*fromFlag, *toFlag)
	if err != nil {
		slog.Error("invalid window", "err", err)
		flag.Usage()
		os.Exit(2)
	}

	slog.Info("polysim starting",
		"config", *configPath,
		"from", time.UnixMilli(from).UTC().Format(time.RFC3339),
		"to", time.UnixMilli(to).UTC().Format(time.RFC3339),
		"optimize", *optimize,
	)

	store, err := storage.New(cfg.Storage.DSN)
	if err != nil {
		slog.Error("failed to open storage", "err", err, "dsn", cfg.Storage.DSN)
		os.Exit(1)
	}
	defer store.Close()

	client := histdata.NewClient(histdata.ClientOpts{
		CLOBBase:   cfg.API.CLOBBase,
		GammaBase:  cfg.API.GammaBase,
		SpotBase:   cfg.API.SpotBase,
		VolBase:    cfg.API.VolBase,
		OracleBase: cfg.API.OracleBase,
	})
	provider := histdata.NewProvider(client, cfg.API.Series, cfg.API.Symbol, cfg.API.VolIndex, cfg.API.Feed)
	loader := histdata.NewLoader(provider, store)

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	hist, err := loader.Load(ctx, from, to, *refresh)
	if err != nil {
		slog.Error("failed to load history", "err", err)
		os.Exit(1)
	}

	var sink ports.ReportSink
	if *jsonOut {
		sink = notify.NewJSON()
	} else {
		sink = notify.NewConsole(*verbose)
	}

	if *optimize {
		if err := runOptimize(ctx, cfg, hist, from, to, sink, store); err != nil {
			slog.Error("optimizer failed", "err", err)
			os.Exit(1)
		}
		return
	}

	if err := runSimulate(cfg, hist, from, to, *jsonOut); err != nil {
		slog.Error("simulation failed", "err", err)
		os.Exit(1)
	}
}

// parseWindow turns the date flags into a validated [from, to) pair of
// unix-ms timestamps.
func parseWindow(fromStr, toStr string) (int64, int64, error) {
	if fromStr == "" || toStr == "" {
		return 0, 0, fmt.Errorf("both -from and -to are required")
	}
	from, err := parseTime(fromStr)
	if err != nil {
		return 0, 0, fmt.Errorf("-from: %w", err)
	}
	to, err := parseTime(toStr)
	if err != nil {
		return 0, 0, fmt.Errorf("-to: %w", err)
	}
	if from >= to {
		return 0, 0, fmt.Errorf("-from %s must precede -to %s", fromStr, toStr)
	}
	return from, to, nil
}

func parseTime(s string) (int64, error) {
	for _, layout := range []string{time.RFC3339, "2006-01-02"} {
		if t, err := time.Parse(layout, s); err == nil {
			return t.UnixMilli(), nil
		}
	}
	return 0, fmt.Errorf("unrecognized time %q (want YYYY-MM-DD or RFC3339)", s)
}

func setupLogger(cfg config.LogConfig) {
	var level slog.Level
	switch cfg.Level {
	case "debug":
		level = slog.LevelDebug
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	default:
		level = slog.LevelInfo
	}

	opts := &slog.HandlerOptions{Level: level}
	var handler slog.Handler
	if cfg.Format == "json" {
		handler = slog.NewJSONHandler(os.Stderr, opts)
	} else {
		handler = slog.NewTextHandler(os.Stderr, opts)
	}
	slog.SetDefault(slog.New(handler))
}
