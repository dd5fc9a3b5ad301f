// Package units provides shared constants and conversions for speed units
package units

// Unit constants
const (
	MPS   = "mps"
	KMPH  = "kmph"
	KPH   = "kph"
	KNOTS = "knots"
)

// Conversion factors to km/h
const (
	kmphPerKnot = 1.852
	kmphPerMPS  = 3.6
)

// ValidUnits contains all valid unit values
var ValidUnits = []string{MPS, KMPH, KPH, KNOTS}

// IsValid checks if the given unit is in the list of valid units
func IsValid(unit string) bool {
	for _, validUnit := range ValidUnits {
		if unit == validUnit {
			return true
		}
	}
	return false
}

// KnotsToKMPH converts knots, as reported on the GNSS stream, to km/h.
func KnotsToKMPH(knots float64) float64 {
	return knots * kmphPerKnot
}

// ConvertFromKMPH converts a speed in km/h to the target units.
// Decoded speeds are held in km/h.
func ConvertFromKMPH(speedKMPH float64, targetUnits string) float64 {
	switch targetUnits {
	case MPS:
		return speedKMPH / kmphPerMPS
	case KNOTS:
		return speedKMPH / kmphPerKnot
	default:
		return speedKMPH
	}
}
