package report

import (
	"bytes"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/banshee-data/can-delay/internal/analysis"
	"github.com/banshee-data/can-delay/internal/can"
	"github.com/banshee-data/can-delay/internal/correlate"
	"github.com/banshee-data/can-delay/internal/delay"
	"github.com/banshee-data/can-delay/internal/trace"
)

func testResult() *analysis.Result {
	res := &analysis.Result{
		RunID: "test-run",
		Edges: []trace.Edge{{Time: 2.0}, {Time: 2.5}},
		Matches: []correlate.Match{
			{Edge: trace.Edge{Time: 2.0}, Frame: can.Frame{ID: can.IDPrimaryTime, Time: 2.0005}, Latency: 0.0005},
			{Edge: trace.Edge{Time: 2.5}, Frame: can.Frame{ID: can.IDPrimaryTime, Time: 2.5008}, EdgeIndex: 1, Latency: 0.0008},
		},
	}
	depth := 0
	for i := 0; i < 20; i++ {
		k := delay.Kinds[i%len(delay.Kinds)]
		depth = (depth + 1) % 4
		res.DelaySeries = append(res.DelaySeries, analysis.DelaySample{
			Time:  float64(i) * 0.1,
			Kind:  k,
			Depth: depth,
		})
	}
	return res
}

func TestPlotDelay(t *testing.T) {
	path := filepath.Join(t.TempDir(), "delay.png")
	if err := PlotDelay(testResult(), path); err != nil {
		t.Fatalf("PlotDelay failed: %v", err)
	}
	info, err := os.Stat(path)
	if err != nil {
		t.Fatalf("plot file missing: %v", err)
	}
	if info.Size() == 0 {
		t.Error("plot file is empty")
	}
}

func TestPlotLatency(t *testing.T) {
	path := filepath.Join(t.TempDir(), "latency.svg")
	if err := PlotLatency(testResult(), path); err != nil {
		t.Fatalf("PlotLatency failed: %v", err)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("plot file missing: %v", err)
	}
	if !strings.Contains(string(data), "<svg") {
		t.Error("expected an SVG document")
	}
}

func TestPlotNoData(t *testing.T) {
	empty := &analysis.Result{RunID: "empty"}
	dir := t.TempDir()
	if err := PlotDelay(empty, filepath.Join(dir, "d.png")); !errors.Is(err, ErrNoData) {
		t.Errorf("PlotDelay on empty result: got %v, want ErrNoData", err)
	}
	if err := PlotLatency(empty, filepath.Join(dir, "l.png")); !errors.Is(err, ErrNoData) {
		t.Errorf("PlotLatency on empty result: got %v, want ErrNoData", err)
	}
}

func TestRenderChart(t *testing.T) {
	var buf bytes.Buffer
	if err := RenderChart(testResult(), &buf); err != nil {
		t.Fatalf("RenderChart failed: %v", err)
	}
	html := buf.String()
	for _, want := range []string{"Cross-stream delay", "Trigger latency", "run=test-run", "heading"} {
		if !strings.Contains(html, want) {
			t.Errorf("chart HTML missing %q", want)
		}
	}
}

func TestChartHandler(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/chart", nil)
	w := httptest.NewRecorder()
	ChartHandler(testResult()).ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", w.Code)
	}
	if ct := w.Header().Get("Content-Type"); !strings.HasPrefix(ct, "text/html") {
		t.Errorf("Content-Type = %q, want text/html", ct)
	}
	if !strings.Contains(w.Body.String(), "matched=2 of 2 edges") {
		t.Error("chart subtitle missing match count")
	}
}
