// Package report renders analysis results as PNG plots and HTML charts.
package report

import (
	"errors"
	"fmt"

	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/plotutil"
	"gonum.org/v1/plot/vg"

	"github.com/banshee-data/can-delay/internal/analysis"
	"github.com/banshee-data/can-delay/internal/delay"
)

// ErrNoData is returned when a result has nothing to draw.
var ErrNoData = errors.New("no data to plot")

func depthPoints(res *analysis.Result) map[delay.Kind]plotter.XYs {
	pts := make(map[delay.Kind]plotter.XYs)
	for _, s := range res.DelaySeries {
		pts[s.Kind] = append(pts[s.Kind], plotter.XY{X: s.Time, Y: float64(s.Depth)})
	}
	return pts
}

func legendTopRight(p *plot.Plot) {
	p.Legend.Top = true
	p.Legend.Left = false
	p.Legend.XOffs = -10
	p.Legend.YOffs = -10
}

// PlotDelay writes queue depth against frame time, one line per tracked
// kind. The image format follows the extension of path.
func PlotDelay(res *analysis.Result, path string) error {
	pts := depthPoints(res)
	if len(pts) == 0 {
		return ErrNoData
	}

	p := plot.New()
	p.Title.Text = fmt.Sprintf("Cross-stream delay - run %s", res.RunID)
	p.X.Label.Text = "Frame time (s)"
	p.Y.Label.Text = "Queue depth (samples)"

	for i, k := range delay.Kinds {
		xy := pts[k]
		if len(xy) == 0 {
			continue
		}
		line, err := plotter.NewLine(xy)
		if err != nil {
			return err
		}
		line.Color = plotutil.Color(i)
		line.Width = vg.Points(1)
		p.Add(line)
		p.Legend.Add(k.String(), line)
	}
	legendTopRight(p)

	if err := p.Save(14*vg.Inch, 6*vg.Inch, path); err != nil {
		return fmt.Errorf("failed to save delay plot: %w", err)
	}
	return nil
}

// PlotLatency writes the trigger latency of every matched edge, in
// milliseconds, against edge time.
func PlotLatency(res *analysis.Result, path string) error {
	if len(res.Matches) == 0 {
		return ErrNoData
	}

	xy := make(plotter.XYs, len(res.Matches))
	for i, m := range res.Matches {
		xy[i] = plotter.XY{X: m.Edge.Time, Y: m.Latency * 1000}
	}

	p := plot.New()
	p.Title.Text = fmt.Sprintf("Trigger latency - mean %.3f ms over %d edges",
		res.Summary.Latency.Mean*1000, res.Summary.Latency.N)
	p.X.Label.Text = "Edge time (s)"
	p.Y.Label.Text = "Latency (ms)"

	scatter, err := plotter.NewScatter(xy)
	if err != nil {
		return err
	}
	scatter.Color = plotutil.Color(0)
	p.Add(scatter, plotter.NewGrid())

	if err := p.Save(14*vg.Inch, 6*vg.Inch, path); err != nil {
		return fmt.Errorf("failed to save latency plot: %w", err)
	}
	return nil
}
