// Package trace reads a digital channel export and extracts trigger edges
// from it.
package trace

import (
	"io"

	"github.com/banshee-data/can-delay/internal/export"
)

// DefaultChannelColumn is the column of the monitored channel in a
// single-channel digital export ("Time [s],Channel 1").
const DefaultChannelColumn = 1

// Sample is one row of the digital export.
type Sample struct {
	Time  float64
	Level bool
}

// SampleReader streams samples for one channel column.
type SampleReader struct {
	r      *export.Reader
	column int
}

// NewSampleReader reads samples of the given channel column from r.
func NewSampleReader(r io.Reader, column int) *SampleReader {
	return &SampleReader{
		r: export.NewReader(r, export.Schema{
			Name:       "digital",
			MinColumns: column + 1,
			TimeColumn: 0,
		}),
		column: column,
	}
}

// Next returns the next sample or io.EOF.
func (sr *SampleReader) Next() (Sample, error) {
	row, err := sr.r.Next()
	if err != nil {
		return Sample{}, err
	}
	switch v := row.Field(sr.column); v {
	case "0":
		return Sample{Time: row.Time, Level: false}, nil
	case "1":
		return Sample{Time: row.Time, Level: true}, nil
	default:
		return Sample{}, export.Malformed("digital", row.Line, "channel value %q", v)
	}
}

// ReadSamples reads every sample, failing on the first bad row.
func ReadSamples(r io.Reader, column int) ([]Sample, error) {
	sr := NewSampleReader(r, column)
	var samples []Sample
	for {
		s, err := sr.Next()
		if err == io.EOF {
			return samples, nil
		}
		if err != nil {
			return nil, err
		}
		samples = append(samples, s)
	}
}
