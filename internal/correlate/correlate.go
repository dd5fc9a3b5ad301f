// Package correlate pairs trigger edges with the CAN frames that follow
// them on the time-carrier identifier.
package correlate

import (
	"math"
	"sort"

	"github.com/banshee-data/can-delay/internal/can"
	"github.com/banshee-data/can-delay/internal/trace"
)

// DefaultTolerance is the widest edge-to-frame gap, in seconds, that still
// counts as a match.
const DefaultTolerance = 0.001

// Match is a frame paired with the edge it was found near.
type Match struct {
	Frame     can.Frame
	Edge      trace.Edge
	EdgeIndex int
	// Latency is frame time minus edge time, in seconds. It is negative
	// when the frame was timestamped ahead of the edge.
	Latency float64
}

func byTime(frames []can.Frame) []can.Frame {
	sorted := make([]can.Frame, len(frames))
	copy(sorted, frames)
	sort.SliceStable(sorted, func(i, j int) bool { return sorted[i].Time < sorted[j].Time })
	return sorted
}

func within(a, b, tol float64) bool {
	return math.Abs(a-b) <= tol
}

// FirstMatch walks frames in ascending time and, for each, scans edges in
// order. The first pair within tol wins, even if a later pair is closer.
// ok is false when no frame lands within tol of any edge.
func FirstMatch(edges []trace.Edge, frames []can.Frame, tol float64) (m Match, ok bool) {
	for _, f := range byTime(frames) {
		for i, e := range edges {
			if within(f.Time, e.Time, tol) {
				return Match{Frame: f, Edge: e, EdgeIndex: i, Latency: f.Time - e.Time}, true
			}
		}
	}
	return Match{}, false
}

// All pairs every edge with the first frame, in ascending time, that lies
// within tol of it. Edges with no such frame are left out.
func All(edges []trace.Edge, frames []can.Frame, tol float64) []Match {
	sorted := byTime(frames)
	var matches []Match
	for i, e := range edges {
		for _, f := range sorted {
			if within(f.Time, e.Time, tol) {
				matches = append(matches, Match{Frame: f, Edge: e, EdgeIndex: i, Latency: f.Time - e.Time})
				break
			}
			if f.Time > e.Time+tol {
				break
			}
		}
	}
	return matches
}
