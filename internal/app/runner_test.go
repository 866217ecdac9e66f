package app_test

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/i474232898/weather-daymatch/internal/app"
	"github.com/i474232898/weather-daymatch/internal/chart"
	"github.com/i474232898/weather-daymatch/internal/similarity"
	"github.com/i474232898/weather-daymatch/internal/store"
	"github.com/i474232898/weather-daymatch/internal/weather"
)

type fakeProvider struct {
	archive  []weather.DayBucket
	forecast []weather.DayBucket
	err      error
}

func (f *fakeProvider) Name() string { return "fake" }

func (f *fakeProvider) FetchHourly(_ context.Context, _ weather.Location, req weather.FetchRequest) ([]weather.DayBucket, error) {
	if f.err != nil {
		return nil, &weather.FetchError{Provider: "fake", Mode: req.Mode, Err: f.err}
	}
	if req.Mode == weather.ModeArchive {
		return f.archive, nil
	}
	return f.forecast, nil
}

type recordingRenderer struct {
	specs []chart.Spec
	err   error
}

func (r *recordingRenderer) Render(_ context.Context, spec chart.Spec) (string, error) {
	if r.err != nil {
		return "", r.err
	}
	r.specs = append(r.specs, spec)
	return spec.Name() + ".png", nil
}

func bucket(date string, reverse bool) weather.DayBucket {
	var b weather.DayBucket
	for h := 0; h < weather.HoursPerDay; h++ {
		b.Times = append(b.Times, fmt.Sprintf("%sT%02d:00", date, h))
		v := float64(h)
		if reverse {
			v = float64(weather.HoursPerDay - 1 - h)
		}
		b.Temperatures = append(b.Temperatures, v)
	}
	return b
}

func fixedClock() time.Time {
	return time.Date(2022, 1, 10, 13, 45, 0, 0, time.UTC)
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newRunner(p weather.Provider, r chart.Renderer) *app.Runner {
	logger := discardLogger()
	svc := weather.NewService(store.NewMemoryStore(weather.DuplicateReject), p, logger)
	return app.NewRunner(svc, similarity.NewMatcher(similarity.PartialStrict, logger), r, logger, fixedClock)
}

func defaultProvider() *fakeProvider {
	return &fakeProvider{
		archive: []weather.DayBucket{
			bucket("2022-01-01", false),
			bucket("2022-01-02", false),
			bucket("2022-01-03", true),
		},
		forecast: []weather.DayBucket{bucket("2022-01-10", false)},
	}
}

func defaultOptions() app.Options {
	return app.Options{
		Location:    weather.Location{Latitude: 60.1905, Longitude: 11.9977, Timezone: "GMT"},
		HistoryFrom: time.Date(2022, 1, 1, 0, 0, 0, 0, time.UTC),
		HistoryTo:   time.Date(2022, 1, 5, 0, 0, 0, 0, time.UTC),
		TopK:        2,
		DTWWindow:   similarity.DefaultWindow,
		WarpChart:   true,
	}
}

func specNames(specs []chart.Spec) []string {
	names := make([]string, len(specs))
	for i, s := range specs {
		names[i] = s.Name()
	}
	return names
}

func TestRunnerRun(t *testing.T) {
	renderer := &recordingRenderer{}
	runner := newRunner(defaultProvider(), renderer)

	report, err := runner.Run(context.Background(), defaultOptions())
	require.NoError(t, err)

	_, err = uuid.Parse(report.ID)
	assert.NoError(t, err)
	assert.Equal(t, "2022-01-10", report.Today)
	assert.Equal(t, 4, report.Days)
	assert.Equal(t, similarity.Match{A: "2022-01-01", B: "2022-01-02", Score: 0}, report.Best)
	assert.Equal(t, []similarity.Match{
		{A: "2022-01-10", B: "2022-01-01", Score: 0},
		{A: "2022-01-10", B: "2022-01-02", Score: 0},
	}, report.TopK)

	want := []string{
		"overlay_2022-01-01_2022-01-02",
		"warping_2022-01-01_2022-01-02",
		"overlay_2022-01-10_2022-01-01",
		"warping_2022-01-10_2022-01-01",
		"overlay_2022-01-10_2022-01-02",
		"warping_2022-01-10_2022-01-02",
	}
	assert.Equal(t, want, specNames(renderer.specs))
	assert.Len(t, report.ChartPath, len(want))

	overlay, ok := renderer.specs[0].(chart.OverlaySpec)
	require.True(t, ok)
	assert.Equal(t, "Score: 0", overlay.Text)
	assert.Equal(t, 60.1905, overlay.Location.Latitude)

	warp, ok := renderer.specs[1].(chart.WarpingSpec)
	require.True(t, ok)
	assert.Len(t, warp.Path, weather.HoursPerDay)
	assert.Zero(t, warp.Distance)
}

func TestRunnerDayChartWithoutWarping(t *testing.T) {
	renderer := &recordingRenderer{}
	runner := newRunner(defaultProvider(), renderer)

	opts := defaultOptions()
	opts.TopK = 1
	opts.WarpChart = false
	opts.DayChart = true

	_, err := runner.Run(context.Background(), opts)
	require.NoError(t, err)

	assert.Equal(t, []string{
		"overlay_2022-01-01_2022-01-02",
		"overlay_2022-01-10_2022-01-01",
		"day_2022-01-10",
	}, specNames(renderer.specs))
}

func TestRunnerDiscardRenderer(t *testing.T) {
	runner := newRunner(defaultProvider(), nil)

	report, err := runner.Run(context.Background(), defaultOptions())
	require.NoError(t, err)
	assert.Empty(t, report.ChartPath)
	assert.Len(t, report.TopK, 2)
}

func TestRunnerFetchError(t *testing.T) {
	p := defaultProvider()
	p.err = errors.New("connection refused")

	_, err := newRunner(p, &recordingRenderer{}).Run(context.Background(), defaultOptions())
	require.Error(t, err)
	assert.ErrorIs(t, err, weather.ErrFetch)
}

func TestRunnerTodayMissingFromForecast(t *testing.T) {
	p := defaultProvider()
	p.forecast = []weather.DayBucket{bucket("2022-01-11", false)}

	_, err := newRunner(p, &recordingRenderer{}).Run(context.Background(), defaultOptions())
	require.Error(t, err)
	assert.ErrorIs(t, err, weather.ErrUnknownDate)
}

func TestRunnerRenderError(t *testing.T) {
	renderer := &recordingRenderer{err: errors.New("disk full")}

	_, err := newRunner(defaultProvider(), renderer).Run(context.Background(), defaultOptions())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "disk full")
}

func TestRunnerToday(t *testing.T) {
	runner := newRunner(defaultProvider(), nil)
	assert.Equal(t, time.Date(2022, 1, 10, 0, 0, 0, 0, time.UTC), runner.Today())
}
