// Package export reads the delimited text files produced by the capture
// tool's export step. It owns row shape validation so that the decoders
// above it only ever see rows with the columns they index.
package export

import (
	"encoding/csv"
	"errors"
	"io"
	"strconv"
	"strings"
)

// Schema describes the fixed column layout of one export file.
type Schema struct {
	// Name labels errors, e.g. "digital" or "can".
	Name string
	// MinColumns is the number of columns every data row must carry.
	MinColumns int
	// TimeColumn is the column holding the row timestamp in seconds.
	TimeColumn int
}

// Row is one validated data row.
type Row struct {
	Line   int
	Time   float64
	Fields []string
}

// Field returns the trimmed value of column i. The schema guarantees i is
// in range for any i < MinColumns.
func (r Row) Field(i int) string {
	if i < 0 || i >= len(r.Fields) {
		return ""
	}
	return strings.TrimSpace(r.Fields[i])
}

// Reader yields rows in file order, rejecting rows whose timestamp goes
// backwards.
type Reader struct {
	schema   Schema
	csv      *csv.Reader
	checked  bool
	lastTime float64
	haveTime bool
}

// NewReader wraps r. A leading header row is recognised by a non-numeric
// time column and is validated against the schema once.
func NewReader(r io.Reader, schema Schema) *Reader {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1
	cr.TrimLeadingSpace = true
	return &Reader{schema: schema, csv: cr}
}

// Next returns the next data row, or io.EOF when the input is exhausted.
// Errors for individual rows are *RowError values; the reader can keep
// going after a malformed row but not after an out-of-order one.
func (r *Reader) Next() (Row, error) {
	for {
		fields, err := r.csv.Read()
		if err == io.EOF {
			return Row{}, io.EOF
		}
		if err != nil {
			var perr *csv.ParseError
			if errors.As(err, &perr) {
				return Row{}, Malformed(r.schema.Name, perr.Line, "%v", perr.Err)
			}
			return Row{}, err
		}
		line, _ := r.csv.FieldPos(0)

		if !r.checked {
			r.checked = true
			if r.isHeader(fields) {
				if len(fields) < r.schema.MinColumns {
					return Row{}, rowErrorf(r.schema.Name, line, ErrSchema,
						"header has %d columns, want at least %d", len(fields), r.schema.MinColumns)
				}
				continue
			}
		}

		if len(fields) < r.schema.MinColumns {
			return Row{}, Malformed(r.schema.Name, line, "got %d columns, want at least %d", len(fields), r.schema.MinColumns)
		}

		ts, err := strconv.ParseFloat(strings.TrimSpace(fields[r.schema.TimeColumn]), 64)
		if err != nil {
			return Row{}, Malformed(r.schema.Name, line, "timestamp %q", fields[r.schema.TimeColumn])
		}
		if r.haveTime && ts < r.lastTime {
			return Row{}, rowErrorf(r.schema.Name, line, ErrOutOfOrder, "%.9f after %.9f", ts, r.lastTime)
		}
		r.lastTime = ts
		r.haveTime = true

		return Row{Line: line, Time: ts, Fields: fields}, nil
	}
}

func (r *Reader) isHeader(fields []string) bool {
	if r.schema.TimeColumn >= len(fields) {
		return true
	}
	_, err := strconv.ParseFloat(strings.TrimSpace(fields[r.schema.TimeColumn]), 64)
	return err != nil
}

// ParseHex parses an unsigned hex value with an optional 0x prefix.
func ParseHex(s string, bitSize int) (uint64, error) {
	s = strings.TrimSpace(s)
	s = strings.TrimPrefix(strings.TrimPrefix(s, "0x"), "0X")
	if s == "" {
		return 0, strconv.ErrSyntax
	}
	return strconv.ParseUint(s, 16, bitSize)
}
