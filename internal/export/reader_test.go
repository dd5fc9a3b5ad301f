package export

import (
	"errors"
	"io"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var testSchema = Schema{Name: "digital", MinColumns: 2, TimeColumn: 0}

func readAll(t *testing.T, r *Reader) ([]Row, []error) {
	t.Helper()
	var rows []Row
	var errs []error
	for {
		row, err := r.Next()
		if err == io.EOF {
			return rows, errs
		}
		if err != nil {
			errs = append(errs, err)
			if errors.Is(err, ErrOutOfOrder) || errors.Is(err, ErrSchema) {
				return rows, errs
			}
			continue
		}
		rows = append(rows, row)
	}
}

func TestReader_SkipsHeader(t *testing.T) {
	in := "Time [s],Channel 1\n0.000000000,1\n0.500000000,0\n"
	rows, errs := readAll(t, NewReader(strings.NewReader(in), testSchema))
	require.Empty(t, errs)
	require.Len(t, rows, 2)
	assert.Equal(t, 2, rows[0].Line)
	assert.Equal(t, 0.5, rows[1].Time)
	assert.Equal(t, "0", rows[1].Field(1))
}

func TestReader_NoHeader(t *testing.T) {
	rows, errs := readAll(t, NewReader(strings.NewReader("1.0,1\n2.0,0\n"), testSchema))
	require.Empty(t, errs)
	require.Len(t, rows, 2)
	assert.Equal(t, 1, rows[0].Line)
}

func TestReader_ShortHeaderIsSchemaError(t *testing.T) {
	_, errs := readAll(t, NewReader(strings.NewReader("Time [s]\n1.0,1\n"), testSchema))
	require.Len(t, errs, 1)
	assert.ErrorIs(t, errs[0], ErrSchema)
}

func TestReader_MalformedRows(t *testing.T) {
	in := "0.1,1\n0.2\nabc,1\n0.3,0\n"
	rows, errs := readAll(t, NewReader(strings.NewReader(in), testSchema))
	require.Len(t, rows, 2)
	require.Len(t, errs, 2)

	var rowErr *RowError
	require.ErrorAs(t, errs[0], &rowErr)
	assert.Equal(t, 2, rowErr.Line)
	assert.ErrorIs(t, errs[0], ErrMalformedRow)
	assert.ErrorIs(t, errs[1], ErrMalformedRow)
	assert.Contains(t, errs[1].Error(), "line 3")
}

func TestReader_OutOfOrder(t *testing.T) {
	_, errs := readAll(t, NewReader(strings.NewReader("0.2,1\n0.1,0\n"), testSchema))
	require.Len(t, errs, 1)
	assert.ErrorIs(t, errs[0], ErrOutOfOrder)
}

func TestReader_EqualTimestampsAllowed(t *testing.T) {
	rows, errs := readAll(t, NewReader(strings.NewReader("0.2,1\n0.2,0\n"), testSchema))
	assert.Empty(t, errs)
	assert.Len(t, rows, 2)
}

func TestParseHex(t *testing.T) {
	tests := []struct {
		in      string
		bits    int
		want    uint64
		wantErr bool
	}{
		{"0x0000000000000301", 32, 0x301, false},
		{"0x05", 8, 5, false},
		{"ff", 8, 255, false},
		{" 0X1A ", 8, 0x1a, false},
		{"0x", 8, 0, true},
		{"zz", 8, 0, true},
		{"0x100", 8, 0, true},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseHex(tt.in, tt.bits)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}
