package analysis

import (
	"fmt"
	"io"
	"sort"

	"github.com/banshee-data/can-delay/internal/can"
	"github.com/banshee-data/can-delay/internal/delay"
	"github.com/banshee-data/can-delay/internal/units"
)

// StatusLines renders the run as human-readable lines: inputs, trigger
// latency, the latest decoded value per identifier and the final queue
// depths.
func (res *Result) StatusLines() []string {
	lines := []string{
		fmt.Sprintf("run %s", res.RunID),
		fmt.Sprintf("digital: %d samples, %d trigger edges", res.Samples, len(res.Edges)),
		fmt.Sprintf("can: %d records, %d frames (%d partial dropped, %d unrecognised)",
			res.Records, res.Frames, res.Dropped, res.Unrecognised),
	}

	if m := res.Trigger; m != nil {
		lines = append(lines, fmt.Sprintf(
			"trigger: %s at %.6f s matched edge %d at %.6f s, latency %.3f ms",
			can.FormatID(m.Frame.ID), m.Frame.Time, m.EdgeIndex, m.Edge.Time, m.Latency*1000))
	} else {
		lines = append(lines, fmt.Sprintf("trigger: no %s frame within %.3f ms of any edge",
			can.FormatID(res.timeCarrierID), res.tolerance*1000))
	}
	if l := res.Summary.Latency; l.N > 0 {
		lines = append(lines, fmt.Sprintf(
			"latency: n=%d mean=%.3f ms sd=%.3f ms min=%.3f ms max=%.3f ms",
			l.N, l.Mean*1000, l.StdDev*1000, l.Min*1000, l.Max*1000))
	}

	latest := make([]can.Signal, len(res.Latest))
	copy(latest, res.Latest)
	sort.SliceStable(latest, func(i, j int) bool {
		if latest[i].ID != latest[j].ID {
			return latest[i].ID < latest[j].ID
		}
		return latest[i].Kind < latest[j].Kind
	})
	for _, sig := range latest {
		lines = append(lines, res.formatSignal(sig))
	}

	for _, k := range delay.Kinds {
		d := res.Summary.Depth[k]
		lines = append(lines, fmt.Sprintf("delay %s: %d samples (mean %.2f, max %.0f over %d observations)",
			k, res.Final.Get(k), d.Mean, d.Max, d.N))
	}

	if res.SkippedCount > 0 {
		lines = append(lines, fmt.Sprintf("skipped: %d malformed rows", res.SkippedCount))
		for _, err := range res.Skipped {
			lines = append(lines, "  "+err.Error())
		}
	}
	return lines
}

func (res *Result) formatSignal(sig can.Signal) string {
	if sig.Kind != can.SignalSpeed || res.speedUnits == "" || res.speedUnits == units.KMPH {
		return sig.String()
	}
	return fmt.Sprintf("%s %s speed=%.2f %s", can.FormatID(sig.ID), sig.Source,
		units.ConvertFromKMPH(sig.Value, res.speedUnits), res.speedUnits)
}

// WriteStatus writes StatusLines to w, one per line.
func (res *Result) WriteStatus(w io.Writer) error {
	for _, line := range res.StatusLines() {
		if _, err := fmt.Fprintln(w, line); err != nil {
			return err
		}
	}
	return nil
}
