package can

import (
	"fmt"
	"time"

	"github.com/banshee-data/can-delay/internal/units"
)

// Field layouts. Primary frames are big-endian, secondary frames are
// little-endian and read byte-reversed.
const (
	timeResolution    = 10 * time.Millisecond // 0.01 s per LSB
	speedResolution   = 0.01                  // knots per LSB
	headingResolution = 0.01                  // degrees per LSB
	statusByte        = 7
)

type byteRange struct{ lo, hi int }

var (
	primaryTimeRange      = byteRange{1, 4}
	primarySpeedRange     = byteRange{4, 6}
	primaryHeadingRange   = byteRange{6, 8}
	secondaryTimeRange    = byteRange{0, 4}
	secondarySpeedRange   = byteRange{0, 4}
	secondaryHeadingRange = byteRange{0, 2}
)

func bigEndian(data []byte) uint64 {
	var v uint64
	for _, b := range data {
		v = v<<8 | uint64(b)
	}
	return v
}

func littleEndian(data []byte) uint64 {
	var v uint64
	for i := len(data) - 1; i >= 0; i-- {
		v = v<<8 | uint64(data[i])
	}
	return v
}

func (f Frame) be(r byteRange) uint64 { return bigEndian(f.Data[r.lo:r.hi]) }
func (f Frame) le(r byteRange) uint64 { return littleEndian(f.Data[r.lo:r.hi]) }

// PrimaryUTC decodes the time since UTC midnight from a primary time frame.
func PrimaryUTC(f Frame) time.Duration {
	return time.Duration(f.be(primaryTimeRange)) * timeResolution
}

// SecondaryUTC decodes the time since UTC midnight from a secondary time
// frame.
func SecondaryUTC(f Frame) time.Duration {
	return time.Duration(f.le(secondaryTimeRange)) * timeResolution
}

// PrimarySpeed decodes ground speed in km/h. The wire value is in
// hundredths of a knot.
func PrimarySpeed(f Frame) float64 {
	return units.KnotsToKMPH(float64(f.be(primarySpeedRange)) * speedResolution)
}

// SecondarySpeed returns the secondary speed count. The secondary stream
// reports whole km/h, so no scaling applies.
func SecondarySpeed(f Frame) float64 {
	return float64(f.le(secondarySpeedRange))
}

// PrimaryHeading decodes heading in degrees.
func PrimaryHeading(f Frame) float64 {
	return float64(f.be(primaryHeadingRange)) * headingResolution
}

// SecondaryHeading decodes heading in degrees.
func SecondaryHeading(f Frame) float64 {
	return float64(f.le(secondaryHeadingRange)) * headingResolution
}

// Status decodes the status flags from the last data byte.
func Status(f Frame) Flags {
	return FlagsFromByte(f.Data[statusByte])
}

// SignalKind is the physical quantity a Signal carries.
type SignalKind int

const (
	SignalUTC SignalKind = iota
	SignalSpeed
	SignalHeading
	SignalStatus
)

func (k SignalKind) String() string {
	switch k {
	case SignalUTC:
		return "time"
	case SignalSpeed:
		return "speed"
	case SignalHeading:
		return "heading"
	case SignalStatus:
		return "status"
	}
	return "unknown"
}

// Source says which stream a Signal came from.
type Source int

const (
	Primary Source = iota
	Secondary
)

func (s Source) String() string {
	if s == Secondary {
		return "secondary"
	}
	return "primary"
}

// Signal is one decoded value. Value holds seconds for SignalUTC, km/h
// for SignalSpeed and degrees for SignalHeading; Flags is set for
// SignalStatus.
type Signal struct {
	Kind   SignalKind
	Source Source
	ID     uint32
	Time   float64
	Value  float64
	UTC    time.Duration
	Flags  Flags
}

func (s Signal) String() string {
	switch s.Kind {
	case SignalUTC:
		return fmt.Sprintf("%s %s time=%s", FormatID(s.ID), s.Source, FormatUTC(s.UTC))
	case SignalSpeed:
		return fmt.Sprintf("%s %s speed=%.2f km/h", FormatID(s.ID), s.Source, s.Value)
	case SignalHeading:
		return fmt.Sprintf("%s %s heading=%.2f deg", FormatID(s.ID), s.Source, s.Value)
	case SignalStatus:
		return fmt.Sprintf("%s %s status=%s", FormatID(s.ID), s.Source, s.Flags)
	}
	return FormatID(s.ID)
}

// FormatUTC renders a time-of-day offset as hh:mm:ss.cc.
func FormatUTC(d time.Duration) string {
	cs := int64(d / timeResolution)
	h := cs / 360000
	m := cs / 6000 % 60
	sec := cs / 100 % 60
	return fmt.Sprintf("%02d:%02d:%02d.%02d", h, m, sec, cs%100)
}

// Decode returns the signals carried by a frame of the given role. Ignored
// roles yield nothing.
func Decode(role Role, f Frame) []Signal {
	base := Signal{ID: f.ID, Time: f.Time}
	with := func(kind SignalKind, src Source) Signal {
		s := base
		s.Kind = kind
		s.Source = src
		return s
	}

	switch role {
	case RolePrimaryTime:
		s := with(SignalUTC, Primary)
		s.UTC = PrimaryUTC(f)
		s.Value = s.UTC.Seconds()
		return []Signal{s}
	case RolePrimaryMotion:
		speed := with(SignalSpeed, Primary)
		speed.Value = PrimarySpeed(f)
		heading := with(SignalHeading, Primary)
		heading.Value = PrimaryHeading(f)
		return []Signal{speed, heading}
	case RolePrimaryStatus:
		s := with(SignalStatus, Primary)
		s.Flags = Status(f)
		return []Signal{s}
	case RoleSecondaryTime:
		s := with(SignalUTC, Secondary)
		s.UTC = SecondaryUTC(f)
		s.Value = s.UTC.Seconds()
		return []Signal{s}
	case RoleSecondarySpeed:
		s := with(SignalSpeed, Secondary)
		s.Value = SecondarySpeed(f)
		return []Signal{s}
	case RoleSecondaryHeading:
		s := with(SignalHeading, Secondary)
		s.Value = SecondaryHeading(f)
		return []Signal{s}
	}
	return nil
}
