// Package analysis runs the full offline pass over a digital trace export
// and a CAN decode table: edge extraction, frame reassembly, field
// decoding, delay tracking and trigger correlation.
package analysis

import (
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/google/uuid"

	"github.com/banshee-data/can-delay/internal/can"
	"github.com/banshee-data/can-delay/internal/config"
	"github.com/banshee-data/can-delay/internal/correlate"
	"github.com/banshee-data/can-delay/internal/delay"
	"github.com/banshee-data/can-delay/internal/export"
	"github.com/banshee-data/can-delay/internal/monitoring"
	"github.com/banshee-data/can-delay/internal/timeutil"
	"github.com/banshee-data/can-delay/internal/trace"
	"github.com/banshee-data/can-delay/internal/units"
)

// maxSkippedKept bounds how many skipped-row errors a Result keeps.
const maxSkippedKept = 20

// Options controls one run.
type Options struct {
	Catalog       can.Catalog
	DigitalColumn int
	CANColumns    can.Columns
	TimeCarrierID uint32
	Tolerance     float64
	// SkipMalformed skips malformed rows and reports them instead of
	// failing. Out-of-order rows always fail.
	SkipMalformed bool
	Tracker       delay.Config
	SpeedUnits    string
	Clock         timeutil.Clock
}

// DefaultOptions returns the options used when no config file is given.
func DefaultOptions() Options {
	return Options{
		Catalog:       can.DefaultCatalog,
		DigitalColumn: trace.DefaultChannelColumn,
		CANColumns:    can.DefaultColumns,
		TimeCarrierID: can.IDPrimaryTime,
		Tolerance:     correlate.DefaultTolerance,
		Tracker:       delay.DefaultConfig(),
		SpeedUnits:    units.KMPH,
		Clock:         timeutil.RealClock{},
	}
}

// OptionsFromConfig maps a loaded config onto run options.
func OptionsFromConfig(cfg *config.AnalysisConfig) Options {
	opts := DefaultOptions()
	opts.DigitalColumn = cfg.GetDigitalChannelColumn()
	opts.CANColumns = can.Columns{
		Type:       cfg.GetCANTypeColumn(),
		Time:       cfg.GetCANTimeColumn(),
		Identifier: cfg.GetCANIdentifierColumn(),
		Data:       cfg.GetCANDataColumn(),
	}
	opts.TimeCarrierID = cfg.GetTimeCarrierID()
	opts.Tolerance = cfg.GetToleranceSeconds()
	opts.SkipMalformed = cfg.GetSkipMalformed()
	opts.Tracker = delay.Config{
		TimeResolution:    cfg.GetTimeResolution().Seconds(),
		SpeedResolution:   cfg.GetSpeedResolutionKMPH(),
		HeadingResolution: cfg.GetHeadingResolutionDeg(),
		ClearOnFlatMatch:  cfg.GetClearOnFlatMatch(),
	}
	opts.SpeedUnits = cfg.GetSpeedUnits()
	return opts
}

// DelaySample records the queue depth after one tracked observation.
type DelaySample struct {
	Time    float64
	Kind    delay.Kind
	Source  can.Source
	Outcome delay.Outcome
	Depth   int
}

// Result is everything one run produced.
type Result struct {
	RunID     string
	CreatedAt time.Time
	Elapsed   time.Duration

	Samples int
	Edges   []trace.Edge

	Records      int
	Frames       int
	Dropped      int
	Unrecognised int
	FramesByID   map[uint32]int

	// Trigger is the first time-carrier frame within tolerance of an
	// edge, or nil when none was found.
	Trigger *correlate.Match
	// Matches pairs every edge that has one with its frame.
	Matches []correlate.Match

	Latest      []can.Signal
	DelaySeries []DelaySample
	Final       delay.Depths

	SkippedCount int
	Skipped      []error

	Summary Summary

	timeCarrierID uint32
	tolerance     float64
	speedUnits    string
}

type signalKey struct {
	id     uint32
	kind   can.SignalKind
	source can.Source
}

var trackedKinds = map[can.SignalKind]delay.Kind{
	can.SignalUTC:     delay.Time,
	can.SignalSpeed:   delay.Speed,
	can.SignalHeading: delay.Heading,
}

type run struct {
	opts    Options
	res     *Result
	tracker *delay.Tracker
	latest  map[signalKey]int
	carrier []can.Frame
}

// Run analyses the two exports. Both readers are consumed once, in order.
func Run(digital, canExport io.Reader, opts Options) (*Result, error) {
	if opts.Catalog == nil {
		opts.Catalog = can.DefaultCatalog
	}
	if opts.Clock == nil {
		opts.Clock = timeutil.RealClock{}
	}
	start := opts.Clock.Now()

	r := &run{
		opts: opts,
		res: &Result{
			RunID:         uuid.New().String(),
			CreatedAt:     start,
			FramesByID:    make(map[uint32]int),
			timeCarrierID: opts.TimeCarrierID,
			tolerance:     opts.Tolerance,
			speedUnits:    opts.SpeedUnits,
		},
		tracker: delay.NewTracker(opts.Tracker),
		latest:  make(map[signalKey]int),
	}

	if err := r.readDigital(digital); err != nil {
		return nil, fmt.Errorf("digital export: %w", err)
	}
	if err := r.readCAN(canExport); err != nil {
		return nil, fmt.Errorf("can export: %w", err)
	}

	res := r.res
	if m, ok := correlate.FirstMatch(res.Edges, r.carrier, opts.Tolerance); ok {
		res.Trigger = &m
	}
	res.Matches = correlate.All(res.Edges, r.carrier, opts.Tolerance)
	res.Final = r.tracker.Snapshot()
	res.Summary = summarise(res)
	res.Elapsed = opts.Clock.Since(start)
	return res, nil
}

// skip decides whether err can be stepped over.
func (r *run) skip(err error) bool {
	if !r.opts.SkipMalformed || !errors.Is(err, export.ErrMalformedRow) {
		return false
	}
	r.res.SkippedCount++
	if len(r.res.Skipped) < maxSkippedKept {
		r.res.Skipped = append(r.res.Skipped, err)
	}
	monitoring.Debugf("skipping %v", err)
	return true
}

func (r *run) readDigital(in io.Reader) error {
	sr := trace.NewSampleReader(in, r.opts.DigitalColumn)
	var ex trace.EdgeExtractor
	for {
		s, err := sr.Next()
		if err == io.EOF {
			break
		}
		if err != nil {
			if r.skip(err) {
				continue
			}
			return err
		}
		r.res.Samples++
		if e, ok := ex.Push(s); ok {
			monitoring.Debugf("trigger edge at %.9f s", e.Time)
		}
	}
	r.res.Edges = ex.Edges()
	return nil
}

func (r *run) readCAN(in io.Reader) error {
	rr := can.NewRecordReader(in, r.opts.CANColumns)
	var asm can.Reassembler
	for {
		rec, err := rr.Next()
		if err == io.EOF {
			break
		}
		if err != nil {
			if r.skip(err) {
				// byte ownership follows row order, so nothing after a lost
				// row belongs to the open identifier
				asm.Reset()
				continue
			}
			return err
		}
		r.res.Records++
		if f, ok := asm.Push(rec); ok {
			r.frame(f)
		}
	}
	asm.Flush()
	r.res.Frames = asm.Emitted()
	r.res.Dropped = asm.Dropped()
	return nil
}

func (r *run) frame(f can.Frame) {
	r.res.FramesByID[f.ID]++
	if f.ID == r.opts.TimeCarrierID {
		r.carrier = append(r.carrier, f)
	}

	role, ok := r.opts.Catalog.Lookup(f.ID)
	if !ok {
		r.res.Unrecognised++
		return
	}
	monitoring.Debugf("%s % X", can.FormatID(f.ID), f.Data[:])

	for _, sig := range can.Decode(role, f) {
		r.keepLatest(sig)
		r.track(sig)
	}
}

func (r *run) keepLatest(sig can.Signal) {
	key := signalKey{id: sig.ID, kind: sig.Kind, source: sig.Source}
	if i, ok := r.latest[key]; ok {
		r.res.Latest[i] = sig
		return
	}
	r.latest[key] = len(r.res.Latest)
	r.res.Latest = append(r.res.Latest, sig)
}

func (r *run) track(sig can.Signal) {
	kind, ok := trackedKinds[sig.Kind]
	if !ok {
		return
	}
	var out delay.Outcome
	if sig.Source == can.Secondary {
		out = r.tracker.ObserveSecondary(kind, sig.Value)
	} else {
		out = r.tracker.ObservePrimary(kind, sig.Value)
	}
	s := DelaySample{
		Time:    sig.Time,
		Kind:    kind,
		Source:  sig.Source,
		Outcome: out,
		Depth:   r.tracker.Depth(kind),
	}
	r.res.DelaySeries = append(r.res.DelaySeries, s)
	monitoring.Debugf("%s -> %s %s depth=%d", sig, kind, out, s.Depth)
}
