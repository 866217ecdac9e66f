package main

import (
	"context"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/i474232898/weather-daymatch/internal/app"
	"github.com/i474232898/weather-daymatch/internal/chart"
	"github.com/i474232898/weather-daymatch/internal/config"
	"github.com/i474232898/weather-daymatch/internal/similarity"
	"github.com/i474232898/weather-daymatch/internal/store"
	"github.com/i474232898/weather-daymatch/internal/weather"
	"github.com/i474232898/weather-daymatch/internal/weather/providers"
)

func main() {
	// Load configuration.
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	logger := newLogger(cfg.LogLevel)

	if err := run(cfg, logger); err != nil {
		logger.Error("run failed", "error", err)
		os.Exit(1)
	}
}

func run(cfg *config.AppConfig, logger *slog.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Shared HTTP client for outbound provider calls.
	httpClient := &http.Client{
		Timeout: cfg.HTTPTimeout,
	}

	provider := providers.NewOpenMeteoProvider(httpClient, providers.OpenMeteoConfig{
		ArchiveURL:  cfg.ArchiveURL,
		ForecastURL: cfg.ForecastURL,
		Backoff: providers.BackoffConfig{
			MaxRetries:      cfg.MaxRetries,
			InitialInterval: 500 * time.Millisecond,
			MaxInterval:     5 * time.Second,
		},
	}, logger)

	// Dataset lives in memory for the duration of the run.
	memStore := store.NewMemoryStore(weather.DuplicatePolicy(cfg.DuplicateDates))
	service := weather.NewService(memStore, provider, logger)
	matcher := similarity.NewMatcher(similarity.PartialPolicy(cfg.PartialDays), logger)

	var renderer chart.Renderer = chart.Discard{}
	if !cfg.DisableCharts {
		pr, err := chart.NewPlotRenderer(cfg.ChartDir, cfg.ChartFormat, logger)
		if err != nil {
			return err
		}
		renderer = pr
	}

	runner := app.NewRunner(service, matcher, renderer, logger, time.Now)

	from, to, err := cfg.HistoryRange(runner.Today())
	if err != nil {
		return err
	}

	report, err := runner.Run(ctx, app.Options{
		Location:    cfg.Location(),
		HistoryFrom: from,
		HistoryTo:   to,
		TopK:        cfg.TopK,
		DTWWindow:   cfg.DTWWindow,
		DayChart:    cfg.ChartDay,
		WarpChart:   cfg.ChartWarping,
	})
	if err != nil {
		return err
	}

	logger.Info("run complete",
		"run_id", report.ID,
		"today", report.Today,
		"days", report.Days,
		"charts", len(report.ChartPath))
	return nil
}

func newLogger(level string) *slog.Logger {
	var lvl slog.Level
	if err := lvl.UnmarshalText([]byte(level)); err != nil {
		lvl = slog.LevelInfo
	}
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: lvl}))
}
