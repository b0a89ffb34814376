package stats

import (
	"errors"
	"fmt"
	"io"
	"math"
	"os"
	"path/filepath"

	chart "github.com/wcharczuk/go-chart/v2"
	"github.com/wcharczuk/go-chart/v2/drawing"
)

// ErrEmptySeries is returned when a chart has no plottable points.
var ErrEmptySeries = errors.New("series has no plottable points")

type trace struct {
	name   string
	series Series
	color  string
}

type plot struct {
	suffix string
	title  string
	traces []trace
}

func (a *Aggregate) plots() []plot {
	return []plot{
		{"demand-chart", "Fulfilled vs lost demand", []trace{
			{"Fulfilled", a.Fulfilled, "08A045"},
			{"Lost", a.Lost, "0B6E4F"},
		}},
		{"cost-chart", "Cost", []trace{{"Cost", a.Cost, "21D375"}}},
		{"loss-chart", "Loss", []trace{{"Loss", a.Loss, "6BBF59"}}},
	}
}

// RenderCharts writes the demand, cost and loss charts of a as PNG files
// named <kind>-<chart>.png under dir and returns their paths. A chart that
// cannot be rendered is reported in the returned error; the others are
// still written.
func RenderCharts(dir string, a *Aggregate) ([]string, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create chart dir: %w", err)
	}
	var paths []string
	var errs []error
	for _, p := range a.plots() {
		path := filepath.Join(dir, fmt.Sprintf("%s-%s.png", a.Kind, p.suffix))
		if err := writeChart(path, p); err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", p.title, err))
			continue
		}
		paths = append(paths, path)
	}
	return paths, errors.Join(errs...)
}

func writeChart(path string, p plot) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := renderPlot(f, p); err != nil {
		f.Close()
		os.Remove(path)
		return err
	}
	return f.Close()
}

func renderPlot(w io.Writer, p plot) error {
	var series []chart.Series
	for _, t := range p.traces {
		xs, ys := finitePoints(t.series)
		if len(xs) == 0 {
			continue
		}
		col := drawing.ColorFromHex(t.color)
		series = append(series, chart.ContinuousSeries{
			Name:    t.name,
			XValues: xs,
			YValues: ys,
			Style: chart.Style{
				StrokeColor: col,
				StrokeWidth: 2,
				DotColor:    col,
				DotWidth:    3,
			},
		})
	}
	if len(series) == 0 {
		return ErrEmptySeries
	}

	ch := chart.Chart{
		Title:      p.title,
		Width:      1000,
		Height:     360,
		Background: chart.Style{Padding: chart.Box{Top: 50, Left: 16, Right: 16, Bottom: 16}},
		XAxis:      chart.XAxis{Name: "day"},
		YAxis:      chart.YAxis{Name: "value"},
		Series:     series,
	}
	ch.Elements = []chart.Renderable{chart.Legend(&ch)}
	return ch.Render(chart.PNG, w)
}

// finitePoints drops NaN/Inf values; go-chart cannot place them.
func finitePoints(s Series) (xs, ys []float64) {
	for i := range s.X {
		if math.IsNaN(s.Y[i]) || math.IsInf(s.Y[i], 0) {
			continue
		}
		xs = append(xs, s.X[i])
		ys = append(ys, s.Y[i])
	}
	return xs, ys
}
