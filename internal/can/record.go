package can

import (
	"io"
	"strings"

	"github.com/banshee-data/can-delay/internal/export"
)

// RecordKind distinguishes the rows of the decode table.
type RecordKind int

const (
	KindOther RecordKind = iota
	KindIdentifier
	KindData
)

// Type column markers written by the CAN analyser.
const (
	identifierMarker = "identifier_field"
	dataMarker       = "data_field"
)

// Record is one row of the decode table. ID is set for identifier rows and
// Byte for data rows.
type Record struct {
	Kind RecordKind
	Time float64
	ID   uint32
	Byte byte
	Line int
}

// Columns locates the fields of the decode table. The export is configured
// with columns "Type, Start, identifier, data" and the tool prepends the
// analyser name.
type Columns struct {
	Type       int
	Time       int
	Identifier int
	Data       int
}

// DefaultColumns matches "name,type,start_time,identifier,data".
var DefaultColumns = Columns{Type: 1, Time: 2, Identifier: 3, Data: 4}

func (c Columns) min() int {
	m := c.Type
	for _, v := range []int{c.Time, c.Identifier, c.Data} {
		if v > m {
			m = v
		}
	}
	return m + 1
}

// RecordReader streams decode table rows in export order.
type RecordReader struct {
	r    *export.Reader
	cols Columns
}

// NewRecordReader reads decode records from r using cols.
func NewRecordReader(r io.Reader, cols Columns) *RecordReader {
	return &RecordReader{
		r: export.NewReader(r, export.Schema{
			Name:       "can",
			MinColumns: cols.min(),
			TimeColumn: cols.Time,
		}),
		cols: cols,
	}
}

// Next returns the next record or io.EOF.
func (rr *RecordReader) Next() (Record, error) {
	row, err := rr.r.Next()
	if err != nil {
		return Record{}, err
	}
	rec := Record{Time: row.Time, Line: row.Line}

	kind := row.Field(rr.cols.Type)
	switch {
	case strings.Contains(kind, identifierMarker):
		v, err := export.ParseHex(row.Field(rr.cols.Identifier), 32)
		if err != nil {
			return Record{}, export.Malformed("can", row.Line, "identifier %q", row.Field(rr.cols.Identifier))
		}
		rec.Kind = KindIdentifier
		rec.ID = uint32(v)
	case strings.Contains(kind, dataMarker):
		v, err := export.ParseHex(row.Field(rr.cols.Data), 8)
		if err != nil {
			return Record{}, export.Malformed("can", row.Line, "data byte %q", row.Field(rr.cols.Data))
		}
		rec.Kind = KindData
		rec.Byte = byte(v)
	default:
		rec.Kind = KindOther
	}
	return rec, nil
}

// ReadRecords reads every record, failing on the first bad row.
func ReadRecords(r io.Reader, cols Columns) ([]Record, error) {
	rr := NewRecordReader(r, cols)
	var recs []Record
	for {
		rec, err := rr.Next()
		if err == io.EOF {
			return recs, nil
		}
		if err != nil {
			return nil, err
		}
		recs = append(recs, rec)
	}
}
