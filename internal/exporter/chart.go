package exporter

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/wcharczuk/go-chart/v2"

	"fpcli/internal/config"
	"fpcli/internal/photometry"
)

// ChartExporter renders per-subject trace charts.
type ChartExporter struct {
	paths     *config.Paths
	plotStart float64
}

// NewChartExporter creates a new trace chart exporter
func NewChartExporter(paths *config.Paths, plotStart float64) *ChartExporter {
	return &ChartExporter{paths: paths, plotStart: plotStart}
}

// WriteChart renders one subject's normalized trace over the analyzed span
// to SVG, with detected peaks marked. Peaks at time zero stay in the counts
// but are never drawn.
func (e *ChartExporter) WriteChart(res *photometry.SubjectResult) error {
	var xs, ys []float64
	for i, t := range res.Trace.Time {
		if t < e.plotStart || t > res.PlotEnd {
			continue
		}
		xs = append(xs, t)
		ys = append(ys, res.Derived.Normalized[i])
	}
	if len(xs) < 2 {
		return fmt.Errorf("subject %s: nothing to plot in [%g, %g]", res.Subject, e.plotStart, res.PlotEnd)
	}

	series := []chart.Series{
		chart.ContinuousSeries{
			Name:    "normalized",
			XValues: xs,
			YValues: ys,
		},
	}

	var px, py []float64
	for _, p := range res.Peaks {
		if p.Time == 0 || p.Time < e.plotStart || p.Time > res.PlotEnd {
			continue
		}
		px = append(px, p.Time)
		py = append(py, p.Value)
	}
	if len(px) > 0 {
		series = append(series, chart.ContinuousSeries{
			Name:    "peaks",
			XValues: px,
			YValues: py,
			Style: chart.Style{
				StrokeWidth: chart.Disabled,
				DotWidth:    4,
				DotColor:    chart.ColorRed,
			},
		})
	}

	graph := chart.Chart{
		Title:  res.Subject,
		Width:  1024,
		Height: 400,
		XAxis:  chart.XAxis{Name: "time (s)"},
		YAxis:  chart.YAxis{Name: "normalized"},
		Series: series,
	}

	path := e.paths.ChartPath(res.Subject)
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("failed to create chart directory: %w", err)
	}

	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create chart for %s: %w", res.Subject, err)
	}
	defer f.Close()

	if err := graph.Render(chart.SVG, f); err != nil {
		return fmt.Errorf("failed to render chart for %s: %w", res.Subject, err)
	}
	return nil
}
