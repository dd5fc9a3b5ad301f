package analysis

import (
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"

	"github.com/banshee-data/can-delay/internal/delay"
)

// Stats describes one series.
type Stats struct {
	N      int
	Mean   float64
	StdDev float64
	Min    float64
	Max    float64
}

// Summary aggregates a run.
type Summary struct {
	// Latency covers every edge that matched a time-carrier frame, in
	// seconds.
	Latency Stats
	// Depth holds queue depth statistics per tracked kind, over every
	// observation of that kind.
	Depth map[delay.Kind]Stats
}

func newStats(xs []float64) Stats {
	s := Stats{N: len(xs)}
	if s.N == 0 {
		return s
	}
	s.Mean = stat.Mean(xs, nil)
	if s.N > 1 {
		s.StdDev = stat.StdDev(xs, nil)
	}
	s.Min = floats.Min(xs)
	s.Max = floats.Max(xs)
	return s
}

func summarise(res *Result) Summary {
	latency := make([]float64, len(res.Matches))
	for i, m := range res.Matches {
		latency[i] = m.Latency
	}

	perKind := make(map[delay.Kind][]float64)
	for _, s := range res.DelaySeries {
		perKind[s.Kind] = append(perKind[s.Kind], float64(s.Depth))
	}

	sum := Summary{
		Latency: newStats(latency),
		Depth:   make(map[delay.Kind]Stats, len(delay.Kinds)),
	}
	for _, k := range delay.Kinds {
		sum.Depth[k] = newStats(perKind[k])
	}
	return sum
}
