package dsbs

import (
	"encoding/csv"
	"errors"
	"fmt"
	"strconv"
	"strings"
)

var (
	ErrSchemaMismatch = errors.New("correlator output schema mismatch")
	ErrDecode         = errors.New("correlator output decode failure")
)

// Required header columns of the two correlator output tables.
const (
	colFreq = "freq[GHz]"
	colOut0 = "out0"
	colOut1 = "out1"
	colReal = "real"
	colImag = "imag"
)

// ColumnSet holds the per-channel columns decoded from one integration:
// measured frequency, the two auto-correlation spectra, and the complex
// cross-correlation between sidebands.
type ColumnSet struct {
	Freq     []float64
	AutoUSB  []float64
	AutoLSB  []float64
	Cross2SB []complex128
}

// Len returns the number of channels in the set.
func (c *ColumnSet) Len() int { return len(c.Freq) }

// DecodeColumns parses the power and phase tables read back from the
// correlator. The power table carries freq[GHz], out0 (USB auto) and out1
// (LSB auto); the phase table carries real and imag, combined positionally
// into cross_2sb. The two tables describe the same channels, so differing
// row counts are rejected rather than zipped to the shortest.
func DecodeColumns(powerCSV, phaseCSV string) (*ColumnSet, error) {
	power, err := parseTable("power", powerCSV, []string{colFreq, colOut0, colOut1})
	if err != nil {
		return nil, err
	}
	phase, err := parseTable("phase", phaseCSV, []string{colReal, colImag})
	if err != nil {
		return nil, err
	}

	n := len(power[colFreq])
	if m := len(phase[colReal]); m != n {
		return nil, fmt.Errorf("%w: power table has %d rows, phase table has %d", ErrSchemaMismatch, n, m)
	}

	cols := &ColumnSet{
		Freq:     power[colFreq],
		AutoUSB:  power[colOut0],
		AutoLSB:  power[colOut1],
		Cross2SB: make([]complex128, n),
	}
	for i := 0; i < n; i++ {
		cols.Cross2SB[i] = complex(phase[colReal][i], phase[colImag][i])
	}
	return cols, nil
}

// parseTable decodes a header-bearing CSV payload and extracts the named
// columns as float slices.
func parseTable(name, text string, want []string) (map[string][]float64, error) {
	r := csv.NewReader(strings.NewReader(text))
	r.TrimLeadingSpace = true

	records, err := r.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("%w: %s table: %v", ErrDecode, name, err)
	}
	if len(records) == 0 {
		return nil, fmt.Errorf("%w: %s table is empty", ErrSchemaMismatch, name)
	}

	header := records[0]
	index := make(map[string]int, len(header))
	for i, h := range header {
		index[strings.TrimSpace(h)] = i
	}

	out := make(map[string][]float64, len(want))
	for _, col := range want {
		pos, ok := index[col]
		if !ok {
			return nil, fmt.Errorf("%w: %s table is missing column %q", ErrSchemaMismatch, name, col)
		}
		vals := make([]float64, 0, len(records)-1)
		for row, rec := range records[1:] {
			if pos >= len(rec) {
				return nil, fmt.Errorf("%w: %s table row %d has no %q field", ErrSchemaMismatch, name, row+1, col)
			}
			v, err := strconv.ParseFloat(strings.TrimSpace(rec[pos]), 64)
			if err != nil {
				return nil, fmt.Errorf("%w: %s table row %d column %q: %q is not numeric", ErrDecode, name, row+1, col, rec[pos])
			}
			vals = append(vals, v)
		}
		out[col] = vals
	}
	return out, nil
}
