package chart

import (
	"context"
	"fmt"
	"image/color"
	"io"
	"log/slog"
	"math"
	"os"
	"path/filepath"
	"strings"

	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"
	"gonum.org/v1/plot/vg/draw"

	"github.com/i474232898/weather-daymatch/internal/weather"
)

const (
	xLabel = "Time (H)"
	yLabel = "Celsius (C)"
)

// Overlay colours, in legend order.
var palette = []color.Color{
	color.RGBA{R: 214, G: 39, B: 40, A: 255},
	color.RGBA{R: 44, G: 160, B: 44, A: 255},
	color.RGBA{R: 31, G: 119, B: 180, A: 255},
	color.RGBA{R: 255, G: 127, B: 14, A: 255},
}

var connectorColor = color.Gray{Y: 170}

// PlotRenderer writes charts as image files using gonum/plot.
type PlotRenderer struct {
	dir    string
	format string
	width  vg.Length
	height vg.Length
	logger *slog.Logger
}

// NewPlotRenderer creates a renderer writing <name>.<format> files into dir.
// Supported formats are png, svg and pdf.
func NewPlotRenderer(dir, format string, logger *slog.Logger) (*PlotRenderer, error) {
	switch format {
	case "png", "svg", "pdf":
	default:
		return nil, fmt.Errorf("unsupported chart format %q", format)
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &PlotRenderer{
		dir:    dir,
		format: format,
		width:  vg.Points(1280 * 72 / 96),
		height: vg.Points(720 * 72 / 96),
		logger: logger,
	}, nil
}

// Render draws spec and returns the written file path.
func (r *PlotRenderer) Render(ctx context.Context, spec Spec) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}

	var (
		out io.WriterTo
		err error
	)
	switch s := spec.(type) {
	case DaySpec:
		out, err = r.day(s)
	case OverlaySpec:
		out, err = r.overlay(s)
	case WarpingSpec:
		out, err = r.warping(s)
	default:
		err = fmt.Errorf("unsupported chart spec %T", spec)
	}
	if err != nil {
		return "", fmt.Errorf("render %s: %w", spec.Name(), err)
	}

	path, err := r.write(spec.Name(), out)
	if err != nil {
		return "", err
	}
	r.logger.Debug("chart written", "path", path)
	return path, nil
}

func (r *PlotRenderer) write(name string, out io.WriterTo) (string, error) {
	if err := os.MkdirAll(r.dir, 0o755); err != nil {
		return "", fmt.Errorf("create chart dir: %w", err)
	}

	path := filepath.Join(r.dir, name+"."+r.format)
	f, err := os.Create(path)
	if err != nil {
		return "", fmt.Errorf("create chart file: %w", err)
	}
	if _, err := out.WriteTo(f); err != nil {
		f.Close()
		return "", fmt.Errorf("write chart %s: %w", path, err)
	}
	if err := f.Close(); err != nil {
		return "", fmt.Errorf("close chart %s: %w", path, err)
	}
	return path, nil
}

func (r *PlotRenderer) day(s DaySpec) (io.WriterTo, error) {
	if s.Day.Len() == 0 {
		return nil, fmt.Errorf("day %s has no samples", s.Day.Date)
	}

	p := newPlot(fmt.Sprintf("%s @ %dh -> %dh", s.Day.Date, s.Day.StartHour(), s.Day.EndHour()))

	line, err := plotter.NewLine(dayXYs(s.Day))
	if err != nil {
		return nil, err
	}
	line.Color = palette[2]
	p.Add(line)

	return p.WriterTo(r.width, r.height, r.format)
}

func (r *PlotRenderer) overlay(s OverlaySpec) (io.WriterTo, error) {
	if len(s.Days) == 0 {
		return nil, fmt.Errorf("overlay has no days")
	}

	title := strings.Join(s.Dates(), " & ")
	if s.Text != "" {
		title = s.Text + " @ " + title
	}
	p := newPlot(title)
	p.Legend.Top = true

	lo, hi := math.Inf(1), math.Inf(-1)
	maxHour := 0.0
	for i, d := range s.Days {
		if d.Len() == 0 {
			return nil, fmt.Errorf("day %s has no samples", d.Date)
		}
		line, points, err := plotter.NewLinePoints(dayXYs(d))
		if err != nil {
			return nil, err
		}
		c := palette[i%len(palette)]
		line.Color = c
		points.Color = c
		points.Shape = draw.CircleGlyph{}
		points.Radius = vg.Points(2)

		p.Add(line, points)
		p.Legend.Add(d.Date, line, points)

		for _, t := range d.Temperatures {
			lo = math.Min(lo, t)
			hi = math.Max(hi, t)
		}
		maxHour = math.Max(maxHour, float64(d.EndHour()))
	}

	footer, err := plotter.NewLabels(plotter.XYLabels{
		XYs:    plotter.XYs{{X: maxHour, Y: lo}},
		Labels: []string{fmt.Sprintf("lon: %g, lat: %g", s.Location.Longitude, s.Location.Latitude)},
	})
	if err != nil {
		return nil, err
	}
	for i := range footer.TextStyle {
		footer.TextStyle[i].XAlign = draw.XRight
		footer.TextStyle[i].YAlign = draw.YBottom
		footer.TextStyle[i].Color = color.Gray{Y: 90}
	}
	p.Add(footer)
	p.Y.Min = math.Min(p.Y.Min, lo-0.05*(hi-lo+1))

	return p.WriterTo(r.width, r.height, r.format)
}

// warping stacks two panels: both series with alignment connectors (B shifted
// below A), and the path in index space against the diagonal.
func (r *PlotRenderer) warping(s WarpingSpec) (io.WriterTo, error) {
	if len(s.Path) == 0 {
		return nil, fmt.Errorf("empty warping path")
	}
	a, b := s.A.Temperatures, s.B.Temperatures

	lo, hi := math.Inf(1), math.Inf(-1)
	for _, v := range append(append([]float64{}, a...), b...) {
		lo = math.Min(lo, v)
		hi = math.Max(hi, v)
	}
	offset := (hi - lo) + 2

	top := newPlot(fmt.Sprintf("DTW Warping Path Between %s %s", s.A.Date, s.B.Date))
	top.X.Label.Text = "Index"
	top.Y.Label.Text = fmt.Sprintf("%s (%s shifted by %.1f)", yLabel, s.B.Date, -offset)
	top.Legend.Top = true

	for _, st := range s.Path {
		if st.I >= len(a) || st.J >= len(b) {
			return nil, fmt.Errorf("path step (%d,%d) outside series", st.I, st.J)
		}
		conn, err := plotter.NewLine(plotter.XYs{
			{X: float64(st.I), Y: a[st.I]},
			{X: float64(st.J), Y: b[st.J] - offset},
		})
		if err != nil {
			return nil, err
		}
		conn.Color = connectorColor
		conn.Dashes = []vg.Length{vg.Points(2), vg.Points(2)}
		top.Add(conn)
	}

	for i, series := range []struct {
		label string
		xys   plotter.XYs
	}{
		{s.A.Date, indexXYs(a, 0)},
		{s.B.Date, indexXYs(b, -offset)},
	} {
		line, points, err := plotter.NewLinePoints(series.xys)
		if err != nil {
			return nil, err
		}
		line.Color = palette[i]
		points.Color = palette[i]
		points.Shape = draw.CircleGlyph{}
		points.Radius = vg.Points(2)
		top.Add(line, points)
		top.Legend.Add(series.label, line, points)
	}

	bottom := newPlot(fmt.Sprintf("DTW distance %.3f", s.Distance))
	bottom.X.Label.Text = s.A.Date + " index"
	bottom.Y.Label.Text = s.B.Date + " index"

	steps := make(plotter.XYs, len(s.Path))
	for i, st := range s.Path {
		steps[i] = plotter.XY{X: float64(st.I), Y: float64(st.J)}
	}
	diag, err := plotter.NewLine(plotter.XYs{
		{X: 0, Y: 0},
		{X: float64(len(a) - 1), Y: float64(len(b) - 1)},
	})
	if err != nil {
		return nil, err
	}
	diag.Color = connectorColor
	diag.Dashes = []vg.Length{vg.Points(4), vg.Points(2)}

	pathLine, pathPoints, err := plotter.NewLinePoints(steps)
	if err != nil {
		return nil, err
	}
	pathLine.Color = palette[2]
	pathPoints.Color = palette[2]
	pathPoints.Shape = draw.CircleGlyph{}
	pathPoints.Radius = vg.Points(1.5)
	bottom.Add(diag, pathLine, pathPoints)

	c, err := draw.NewFormattedCanvas(r.width, r.height, r.format)
	if err != nil {
		return nil, err
	}
	plots := [][]*plot.Plot{{top}, {bottom}}
	tiles := draw.Tiles{
		Rows: 2,
		Cols: 1,
		PadX: vg.Millimeter,
		PadY: 4 * vg.Millimeter,
	}
	canvases := plot.Align(plots, tiles, draw.New(c))
	top.Draw(canvases[0][0])
	bottom.Draw(canvases[1][0])

	return c, nil
}

func newPlot(title string) *plot.Plot {
	p := plot.New()
	p.Title.Text = title
	p.X.Label.Text = xLabel
	p.Y.Label.Text = yLabel
	p.Add(plotter.NewGrid())
	return p
}

func dayXYs(d weather.DayRecord) plotter.XYs {
	xys := make(plotter.XYs, d.Len())
	for i := range d.Temperatures {
		xys[i] = plotter.XY{X: float64(d.Hours[i]), Y: d.Temperatures[i]}
	}
	return xys
}

func indexXYs(values []float64, shift float64) plotter.XYs {
	xys := make(plotter.XYs, len(values))
	for i, v := range values {
		xys[i] = plotter.XY{X: float64(i), Y: v + shift}
	}
	return xys
}
