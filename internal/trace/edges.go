package trace

// Edge is the time at which the monitored channel was seen rising to 1.
type Edge struct {
	Time float64
}

// EdgeExtractor turns a sample stream into trigger edges. It stays
// disarmed until the channel is first seen low, so a capture that starts
// with the line already high does not produce a spurious trigger.
type EdgeExtractor struct {
	armed bool
	edges []Edge
}

// Push feeds one sample and reports the edge it produced, if any.
func (e *EdgeExtractor) Push(s Sample) (Edge, bool) {
	if !e.armed {
		if !s.Level {
			e.armed = true
		}
		return Edge{}, false
	}
	if !s.Level {
		return Edge{}, false
	}
	edge := Edge{Time: s.Time}
	e.edges = append(e.edges, edge)
	return edge, true
}

// Armed reports whether a low sample has been seen yet.
func (e *EdgeExtractor) Armed() bool { return e.armed }

// Edges returns the edges extracted so far, in sample order.
func (e *EdgeExtractor) Edges() []Edge { return e.edges }

// ExtractEdges runs a fresh extractor over samples. A channel that never
// goes low yields no edges; that is a result, not an error.
func ExtractEdges(samples []Sample) []Edge {
	var e EdgeExtractor
	for _, s := range samples {
		e.Push(s)
	}
	return e.Edges()
}
