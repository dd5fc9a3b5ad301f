package analysis

import (
	"github.com/banshee-data/can-delay/internal/can"
	"github.com/banshee-data/can-delay/internal/db"
	"github.com/banshee-data/can-delay/internal/version"
)

// Store persists analysis runs. *db.DB satisfies it.
type Store interface {
	SaveRun(run *db.AnalysisRun, matches []db.TriggerMatch, samples []db.DelaySample) error
}

// Rows converts a result into the rows Save writes.
func (res *Result) Rows(digitalPath, canPath string) (*db.AnalysisRun, []db.TriggerMatch, []db.DelaySample) {
	run := &db.AnalysisRun{
		RunID:             res.RunID,
		CreatedUnix:       float64(res.CreatedAt.UnixNano()) / 1e9,
		DigitalPath:       digitalPath,
		CANPath:           canPath,
		Version:           version.String(),
		TimeCarrierID:     can.FormatID(res.timeCarrierID),
		ToleranceSeconds:  res.tolerance,
		Samples:           res.Samples,
		Edges:             len(res.Edges),
		Records:           res.Records,
		Frames:            res.Frames,
		Dropped:           res.Dropped,
		Unrecognised:      res.Unrecognised,
		Skipped:           res.SkippedCount,
		Matched:           res.Trigger != nil,
		FinalTimeDepth:    res.Final.Time,
		FinalSpeedDepth:   res.Final.Speed,
		FinalHeadingDepth: res.Final.Heading,
	}
	if res.Trigger != nil {
		latency := res.Trigger.Latency
		run.LatencySeconds = &latency
	}

	matches := make([]db.TriggerMatch, len(res.Matches))
	for i, m := range res.Matches {
		matches[i] = db.TriggerMatch{
			RunID:          res.RunID,
			EdgeIndex:      m.EdgeIndex,
			EdgeTime:       m.Edge.Time,
			FrameTime:      m.Frame.Time,
			LatencySeconds: m.Latency,
			First:          res.Trigger != nil && m.EdgeIndex == res.Trigger.EdgeIndex && m.Frame.Time == res.Trigger.Frame.Time,
		}
	}

	samples := make([]db.DelaySample, len(res.DelaySeries))
	for i, s := range res.DelaySeries {
		samples[i] = db.DelaySample{
			RunID:     res.RunID,
			Seq:       i,
			FrameTime: s.Time,
			Kind:      s.Kind.String(),
			Source:    s.Source.String(),
			Outcome:   s.Outcome.String(),
			Depth:     s.Depth,
		}
	}
	return run, matches, samples
}

// Save writes res to store.
func Save(store Store, res *Result, digitalPath, canPath string) error {
	run, matches, samples := res.Rows(digitalPath, canPath)
	return store.SaveRun(run, matches, samples)
}
