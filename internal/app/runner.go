// Package app wires the dataset service, the matcher and the chart renderer
// into the fixed run sequence of the command.
package app

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/i474232898/weather-daymatch/internal/chart"
	"github.com/i474232898/weather-daymatch/internal/similarity"
	"github.com/i474232898/weather-daymatch/internal/weather"
)

// Options are the run parameters taken from configuration.
type Options struct {
	Location    weather.Location
	HistoryFrom time.Time
	HistoryTo   time.Time
	TopK        int
	DTWWindow   int
	DayChart    bool
	WarpChart   bool
}

// Report is what a run found and drew.
type Report struct {
	ID        string
	Today     string
	Days      int
	Best      similarity.Match
	TopK      []similarity.Match
	ChartPath []string
}

// Runner executes one run: build the dataset, find the global best match,
// then the closest days to today, rendering each result.
type Runner struct {
	service  *weather.Service
	matcher  *similarity.Matcher
	renderer chart.Renderer
	logger   *slog.Logger
	now      func() time.Time
}

// NewRunner creates a Runner. now defaults to time.Now.
func NewRunner(service *weather.Service, matcher *similarity.Matcher, renderer chart.Renderer, logger *slog.Logger, now func() time.Time) *Runner {
	if renderer == nil {
		renderer = chart.Discard{}
	}
	if logger == nil {
		logger = slog.Default()
	}
	if now == nil {
		now = time.Now
	}
	return &Runner{
		service:  service,
		matcher:  matcher,
		renderer: renderer,
		logger:   logger,
		now:      now,
	}
}

// Today returns the current UTC calendar day.
func (r *Runner) Today() time.Time {
	t := r.now().UTC()
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

// Run performs the full sequence. Any error aborts the run.
func (r *Runner) Run(ctx context.Context, opts Options) (*Report, error) {
	today := r.Today()
	report := &Report{ID: uuid.NewString(), Today: today.Format(weather.DateLayout)}
	logger := r.logger.With("run_id", report.ID)

	err := r.service.BuildDataset(ctx, weather.DatasetRequest{
		Location:    opts.Location,
		HistoryFrom: opts.HistoryFrom,
		HistoryTo:   opts.HistoryTo,
		Today:       today,
	})
	if err != nil {
		return nil, fmt.Errorf("build dataset: %w", err)
	}

	days := r.service.Store()
	report.Days = days.Len()

	best, err := r.matcher.BestMatch(days)
	if err != nil {
		return nil, fmt.Errorf("best match: %w", err)
	}
	report.Best = best
	logger.Info("best match", "a", best.A, "b", best.B, "score", best.Score)

	if err := r.renderMatch(ctx, report, days, opts, best); err != nil {
		return nil, err
	}

	top, err := r.matcher.TopK(days, report.Today, opts.TopK)
	if err != nil {
		return nil, fmt.Errorf("top matches for %s: %w", report.Today, err)
	}
	report.TopK = top

	for rank, m := range top {
		logger.Info("top match", "rank", rank+1, "target", m.A, "date", m.B, "score", m.Score)
		if err := r.renderMatch(ctx, report, days, opts, m); err != nil {
			return nil, err
		}
	}

	if opts.DayChart {
		day, err := days.GetDay(report.Today)
		if err != nil {
			return nil, err
		}
		if err := r.render(ctx, report, chart.DaySpec{Day: day}); err != nil {
			return nil, err
		}
	}

	return report, nil
}

func (r *Runner) renderMatch(ctx context.Context, report *Report, days weather.Store, opts Options, m similarity.Match) error {
	a, err := days.GetDay(m.A)
	if err != nil {
		return err
	}
	b, err := days.GetDay(m.B)
	if err != nil {
		return err
	}

	err = r.render(ctx, report, chart.OverlaySpec{
		Days:     []weather.DayRecord{a, b},
		Text:     fmt.Sprintf("Score: %g", m.Score),
		Location: opts.Location,
	})
	if err != nil {
		return err
	}

	if !opts.WarpChart {
		return nil
	}

	path, dist, err := similarity.WarpingPath(a.Temperatures, b.Temperatures, opts.DTWWindow)
	if err != nil {
		return fmt.Errorf("warping path %s/%s: %w", a.Date, b.Date, err)
	}
	r.logger.Debug("warping path", "a", a.Date, "b", b.Date, "steps", len(path), "distance", dist)

	return r.render(ctx, report, chart.WarpingSpec{A: a, B: b, Path: path, Distance: dist})
}

func (r *Runner) render(ctx context.Context, report *Report, spec chart.Spec) error {
	path, err := r.renderer.Render(ctx, spec)
	if err != nil {
		return fmt.Errorf("render %s: %w", spec.Name(), err)
	}
	if path != "" {
		report.ChartPath = append(report.ChartPath, path)
	}
	return nil
}
