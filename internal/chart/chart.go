// Package chart describes the charts a run produces and renders them.
// Matching code never imports a plotting library; it hands a Spec to a
// Renderer.
package chart

import (
	"context"
	"strings"

	"github.com/i474232898/weather-daymatch/internal/similarity"
	"github.com/i474232898/weather-daymatch/internal/weather"
)

// Spec is one chart to draw. Name is used as the output file stem.
type Spec interface {
	Name() string
}

// Renderer draws a Spec and returns where it went.
type Renderer interface {
	Render(ctx context.Context, spec Spec) (string, error)
}

// DaySpec is a single-day temperature line chart.
type DaySpec struct {
	Day weather.DayRecord
}

func (s DaySpec) Name() string {
	return "day_" + s.Day.Date
}

// OverlaySpec overlays several days on one chart. Text is prefixed to the
// title (e.g. the score); Location is printed as a footer.
type OverlaySpec struct {
	Days     []weather.DayRecord
	Text     string
	Location weather.Location
}

func (s OverlaySpec) Name() string {
	return "overlay_" + strings.Join(s.Dates(), "_")
}

// Dates returns the dates of the overlaid days in order.
func (s OverlaySpec) Dates() []string {
	dates := make([]string, len(s.Days))
	for i, d := range s.Days {
		dates[i] = d.Date
	}
	return dates
}

// WarpingSpec is a DTW alignment diagram between two days.
type WarpingSpec struct {
	A, B     weather.DayRecord
	Path     similarity.Path
	Distance float64
}

func (s WarpingSpec) Name() string {
	return "warping_" + s.A.Date + "_" + s.B.Date
}

// Discard renders nothing. It is used for headless runs.
type Discard struct{}

func (Discard) Render(ctx context.Context, _ Spec) (string, error) {
	return "", ctx.Err()
}
