// Package delay estimates how many samples the secondary stream lags the
// primary stream, per redundant signal.
//
// The speed and heading rules are a heuristic: the queue grows while the
// two streams diverge and is reset when the primary value crosses the
// pending secondary value. The depth is a proxy for latency, not an exact
// value-for-value pairing.
package delay

import (
	"fmt"
	"math"
)

// Kind is a redundant signal tracked on both streams.
type Kind int

const (
	Time Kind = iota
	Speed
	Heading
	numKinds
)

// Kinds lists every tracked kind in report order.
var Kinds = []Kind{Time, Speed, Heading}

func (k Kind) String() string {
	switch k {
	case Time:
		return "time"
	case Speed:
		return "speed"
	case Heading:
		return "heading"
	}
	return "unknown"
}

// Outcome says what an observation did to its queue.
type Outcome int

const (
	// Appended: a secondary value joined the queue.
	Appended Outcome = iota
	// Matched: a secondary time joined and a pending entry equal to the
	// latest primary time was removed.
	Matched
	// Recorded: a primary time was stored for later matching.
	Recorded
	// Popped: the primary value reached the head after changing.
	Popped
	// Cleared: the primary trend crossed the head and every pending entry
	// was dropped.
	Cleared
	// Held: the queue was left as it was.
	Held
	// NoPrevious: first primary observation; nothing to compare against.
	NoPrevious
	// EmptyQueue: no secondary value is pending.
	EmptyQueue
)

var outcomeNames = map[Outcome]string{
	Appended:   "appended",
	Matched:    "matched",
	Recorded:   "recorded",
	Popped:     "popped",
	Cleared:    "cleared",
	Held:       "held",
	NoPrevious: "no-previous",
	EmptyQueue: "empty-queue",
}

func (o Outcome) String() string {
	if n, ok := outcomeNames[o]; ok {
		return n
	}
	return fmt.Sprintf("outcome(%d)", int(o))
}

// Config sets the comparison resolution per kind. Values are rounded to
// whole multiples of the resolution before comparing.
type Config struct {
	TimeResolution    float64 // seconds
	SpeedResolution   float64 // km/h
	HeadingResolution float64 // degrees
	// ClearOnFlatMatch also clears the queue when the primary value sits
	// flat exactly on the head.
	ClearOnFlatMatch bool
}

// DefaultConfig matches the wire resolution of each secondary field.
func DefaultConfig() Config {
	return Config{
		TimeResolution:    0.01,
		SpeedResolution:   1,
		HeadingResolution: 0.01,
	}
}

type optional struct {
	value int64
	ok    bool
}

// Tracker owns one queue per kind. It is driven by a single sequential
// pass and is not safe for concurrent use.
type Tracker struct {
	cfg        Config
	resolution [numKinds]float64
	queues     [numKinds]Queue
	latestTime optional
	previous   [numKinds]optional
}

// NewTracker returns a tracker with empty queues. Non-positive
// resolutions fall back to DefaultConfig.
func NewTracker(cfg Config) *Tracker {
	def := DefaultConfig()
	t := &Tracker{cfg: cfg}
	t.resolution[Time] = positiveOr(cfg.TimeResolution, def.TimeResolution)
	t.resolution[Speed] = positiveOr(cfg.SpeedResolution, def.SpeedResolution)
	t.resolution[Heading] = positiveOr(cfg.HeadingResolution, def.HeadingResolution)
	return t
}

func positiveOr(v, def float64) float64 {
	if v > 0 {
		return v
	}
	return def
}

func (t *Tracker) quantise(k Kind, v float64) int64 {
	return int64(math.Round(v / t.resolution[k]))
}

// ObserveSecondary queues a secondary value.
func (t *Tracker) ObserveSecondary(k Kind, v float64) Outcome {
	q := &t.queues[k]
	q.Push(t.quantise(k, v))
	if k == Time && t.latestTime.ok && q.RemoveValue(t.latestTime.value) {
		return Matched
	}
	return Appended
}

// ObservePrimary compares a primary value against the pending secondary
// values of the same kind.
func (t *Tracker) ObservePrimary(k Kind, v float64) Outcome {
	cur := t.quantise(k, v)
	if k == Time {
		t.latestTime = optional{value: cur, ok: true}
		return Recorded
	}

	prev := t.previous[k]
	t.previous[k] = optional{value: cur, ok: true}
	if !prev.ok {
		return NoPrevious
	}

	q := &t.queues[k]
	head, ok := q.Head()
	if !ok {
		return EmptyQueue
	}

	rising := cur > prev.value
	falling := cur < prev.value
	switch {
	case cur == head && cur != prev.value:
		q.Pop()
		return Popped
	case rising && cur > head, falling && cur < head:
		q.Clear()
		return Cleared
	case !rising && !falling && cur == head && t.cfg.ClearOnFlatMatch:
		q.Clear()
		return Cleared
	}
	return Held
}

// Depth is the pending queue length for k, the delay in samples.
func (t *Tracker) Depth(k Kind) int { return t.queues[k].Len() }

// Pending returns the queued values for k in natural units, head first.
func (t *Tracker) Pending(k Kind) []float64 {
	raw := t.queues[k].Values()
	out := make([]float64, len(raw))
	for i, v := range raw {
		out[i] = float64(v) * t.resolution[k]
	}
	return out
}

// Depths is a snapshot of every queue length.
type Depths struct {
	Time    int
	Speed   int
	Heading int
}

// Get returns the depth for k.
func (d Depths) Get(k Kind) int {
	switch k {
	case Time:
		return d.Time
	case Speed:
		return d.Speed
	case Heading:
		return d.Heading
	}
	return 0
}

// Snapshot captures the current depths.
func (t *Tracker) Snapshot() Depths {
	return Depths{
		Time:    t.Depth(Time),
		Speed:   t.Depth(Speed),
		Heading: t.Depth(Heading),
	}
}
