package can

import (
	"fmt"
	"strings"
)

// Flags is the status byte of the primary status frame, masked to the
// bits we name.
type Flags uint8

// Bit 3 (0x08) is unassigned.
const (
	BrakeTestStarted   Flags = 0x40
	BrakeTriggerActive Flags = 0x20
	DGPSActive         Flags = 0x10
	DualAntennaActive  Flags = 0x04
)

// NoAdditionalInformation is reported when none of the named bits are set.
const NoAdditionalInformation = "no-additional-information"

var flagTable = []struct {
	flag Flags
	name string
}{
	{BrakeTestStarted, "brake-test-started"},
	{BrakeTriggerActive, "brake-trigger-active"},
	{DGPSActive, "DGPS-active"},
	{DualAntennaActive, "dual-antenna-active"},
}

const knownFlags = BrakeTestStarted | BrakeTriggerActive | DGPSActive | DualAntennaActive

// FlagsFromByte keeps only the named bits of b.
func FlagsFromByte(b byte) Flags {
	return Flags(b) & knownFlags
}

// Has reports whether every bit of x is set.
func (f Flags) Has(x Flags) bool { return f&x == x }

// Names lists the set flags in table order.
func (f Flags) Names() []string {
	var names []string
	for _, e := range flagTable {
		if f&e.flag != 0 {
			names = append(names, e.name)
		}
	}
	if len(names) == 0 {
		return []string{NoAdditionalInformation}
	}
	return names
}

func (f Flags) String() string {
	return fmt.Sprintf("%08b {%s}", uint8(f), strings.Join(f.Names(), ", "))
}
