package report

import (
	"bytes"
	"fmt"
	"io"
	"net/http"

	"github.com/go-echarts/go-echarts/v2/charts"
	"github.com/go-echarts/go-echarts/v2/components"
	"github.com/go-echarts/go-echarts/v2/opts"

	"github.com/banshee-data/can-delay/internal/analysis"
	"github.com/banshee-data/can-delay/internal/delay"
)

// AssetsHost is where the rendered page loads echarts from.
var AssetsHost = "https://go-echarts.github.io/go-echarts-assets/assets/"

func delayChart(res *analysis.Result) *charts.Line {
	line := charts.NewLine()
	line.SetGlobalOptions(
		charts.WithInitializationOpts(opts.Initialization{PageTitle: "CAN delay", Width: "100%", Height: "480px", AssetsHost: AssetsHost}),
		charts.WithTitleOpts(opts.Title{Title: "Cross-stream delay", Subtitle: fmt.Sprintf("run=%s observations=%d", res.RunID, len(res.DelaySeries))}),
		charts.WithTooltipOpts(opts.Tooltip{Show: opts.Bool(true)}),
		charts.WithLegendOpts(opts.Legend{Show: opts.Bool(true)}),
		charts.WithXAxisOpts(opts.XAxis{Type: "value", Name: "Frame time (s)", NameLocation: "middle", NameGap: 25}),
		charts.WithYAxisOpts(opts.YAxis{Name: "Queue depth", NameLocation: "middle", NameGap: 30}),
	)

	series := make(map[delay.Kind][]opts.LineData)
	for _, s := range res.DelaySeries {
		series[s.Kind] = append(series[s.Kind], opts.LineData{Value: []interface{}{s.Time, s.Depth}})
	}
	for _, k := range delay.Kinds {
		if len(series[k]) == 0 {
			continue
		}
		line.AddSeries(k.String(), series[k])
	}
	return line
}

func latencyChart(res *analysis.Result) *charts.Scatter {
	scatter := charts.NewScatter()
	scatter.SetGlobalOptions(
		charts.WithInitializationOpts(opts.Initialization{Width: "100%", Height: "360px", AssetsHost: AssetsHost}),
		charts.WithTitleOpts(opts.Title{Title: "Trigger latency", Subtitle: fmt.Sprintf("matched=%d of %d edges", len(res.Matches), len(res.Edges))}),
		charts.WithTooltipOpts(opts.Tooltip{Show: opts.Bool(true)}),
		charts.WithXAxisOpts(opts.XAxis{Type: "value", Name: "Edge time (s)", NameLocation: "middle", NameGap: 25}),
		charts.WithYAxisOpts(opts.YAxis{Name: "Latency (ms)", NameLocation: "middle", NameGap: 30}),
	)

	data := make([]opts.ScatterData, 0, len(res.Matches))
	for _, m := range res.Matches {
		data = append(data, opts.ScatterData{Value: []interface{}{m.Edge.Time, m.Latency * 1000}})
	}
	scatter.AddSeries("latency", data, charts.WithScatterChartOpts(opts.ScatterChart{SymbolSize: 8}))
	return scatter
}

// RenderChart writes an HTML page with the delay and latency charts.
func RenderChart(res *analysis.Result, w io.Writer) error {
	page := components.NewPage()
	page.SetAssetsHost(AssetsHost)
	page.AddCharts(delayChart(res), latencyChart(res))
	return page.Render(w)
}

// ChartHandler serves RenderChart for res.
func ChartHandler(res *analysis.Result) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var buf bytes.Buffer
		if err := RenderChart(res, &buf); err != nil {
			http.Error(w, fmt.Sprintf("render error: %v", err), http.StatusInternalServerError)
			return
		}
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		_, _ = w.Write(buf.Bytes())
	})
}
