// Package dsbs defines the double-sideband measurement set produced by the
// DRS4 correlator: the CSV column decoder, the labeled measurement record,
// and the merge operation that stacks per-sideband records along time.
package dsbs

import (
	"errors"
	"fmt"
	"time"
)

var ErrMerge = errors.New("incompatible measurement records")

// Record is a double-sideband measurement set. The first axis is time (one
// entry per acquisition), the second is correlator channel. Scalar
// acquisition settings that cannot differ between stacked rows live in the
// attribute fields.
type Record struct {
	// dims
	Time []time.Time
	Chan []int64
	// coords (per time)
	SignalChan []int64
	SignalSB   []Sideband
	// coords (per time x chan)
	Freq [][]float64 // GHz
	// vars (per time x chan)
	AutoUSB  [][]float64
	AutoLSB  [][]float64
	Cross2SB [][]complex128
	// attrs
	InputNum  int
	IntegTime int // ms
}

// Assemble builds a single-acquisition Record from decoded columns and the
// acquisition settings. The chan coordinate is the dense index sequence over
// the decoded rows.
func Assemble(ts time.Time, signalChan int, sb Sideband, inputNum, integTime int, cols *ColumnSet) (*Record, error) {
	if _, err := sb.Sign(); err != nil {
		return nil, err
	}

	n := cols.Len()
	chans := make([]int64, n)
	for i := range chans {
		chans[i] = int64(i)
	}

	r := &Record{
		Time:       []time.Time{ts},
		Chan:       chans,
		SignalChan: []int64{int64(signalChan)},
		SignalSB:   []Sideband{sb},
		Freq:       [][]float64{cols.Freq},
		AutoUSB:    [][]float64{cols.AutoUSB},
		AutoLSB:    [][]float64{cols.AutoLSB},
		Cross2SB:   [][]complex128{cols.Cross2SB},
		InputNum:   inputNum,
		IntegTime:  integTime,
	}
	if err := r.Validate(); err != nil {
		return nil, err
	}
	return r, nil
}

// Validate checks the structural invariants of the record: every array on
// the time axis has the same length, every per-channel row matches the chan
// coordinate, and the scalar attributes are inside their hardware domains.
func (r *Record) Validate() error {
	nt := len(r.Time)
	if len(r.SignalChan) != nt || len(r.SignalSB) != nt ||
		len(r.Freq) != nt || len(r.AutoUSB) != nt || len(r.AutoLSB) != nt || len(r.Cross2SB) != nt {
		return fmt.Errorf("record: time axis length mismatch (time=%d)", nt)
	}
	nc := len(r.Chan)
	for t := 0; t < nt; t++ {
		if len(r.Freq[t]) != nc || len(r.AutoUSB[t]) != nc || len(r.AutoLSB[t]) != nc || len(r.Cross2SB[t]) != nc {
			return fmt.Errorf("record: chan axis length mismatch at time %d (chan=%d)", t, nc)
		}
		if _, err := r.SignalSB[t].Sign(); err != nil {
			return err
		}
	}
	if r.InputNum != 1 && r.InputNum != 2 {
		return fmt.Errorf("record: input number %d outside {1,2}", r.InputNum)
	}
	if !ValidIntegTime(r.IntegTime) {
		return fmt.Errorf("record: integration time %d ms outside %v", r.IntegTime, ValidIntegTimes)
	}
	return nil
}

// NumChan returns the length of the chan axis.
func (r *Record) NumChan() int { return len(r.Chan) }

// Merge stacks the USB and LSB acquisitions of one calibration run along the
// time axis. Both records must target the same signal channel with the same
// input and integration time over an identical chan axis; anything else is a
// different run and fails with ErrMerge.
func Merge(usb, lsb *Record) (*Record, error) {
	if err := usb.Validate(); err != nil {
		return nil, fmt.Errorf("%w: usb: %v", ErrMerge, err)
	}
	if err := lsb.Validate(); err != nil {
		return nil, fmt.Errorf("%w: lsb: %v", ErrMerge, err)
	}
	if usb.NumChan() != lsb.NumChan() {
		return nil, fmt.Errorf("%w: chan length %d vs %d", ErrMerge, usb.NumChan(), lsb.NumChan())
	}
	if len(usb.SignalChan) == 0 || len(lsb.SignalChan) == 0 || usb.SignalChan[0] != lsb.SignalChan[0] {
		return nil, fmt.Errorf("%w: signal channel differs", ErrMerge)
	}
	if usb.InputNum != lsb.InputNum {
		return nil, fmt.Errorf("%w: input number %d vs %d", ErrMerge, usb.InputNum, lsb.InputNum)
	}
	if usb.IntegTime != lsb.IntegTime {
		return nil, fmt.Errorf("%w: integration time %d vs %d", ErrMerge, usb.IntegTime, lsb.IntegTime)
	}

	merged := &Record{
		Time:       append(append([]time.Time{}, usb.Time...), lsb.Time...),
		Chan:       append([]int64{}, usb.Chan...),
		SignalChan: append(append([]int64{}, usb.SignalChan...), lsb.SignalChan...),
		SignalSB:   append(append([]Sideband{}, usb.SignalSB...), lsb.SignalSB...),
		Freq:       appendRows(usb.Freq, lsb.Freq),
		AutoUSB:    appendRows(usb.AutoUSB, lsb.AutoUSB),
		AutoLSB:    appendRows(usb.AutoLSB, lsb.AutoLSB),
		Cross2SB:   appendRows(usb.Cross2SB, lsb.Cross2SB),
		InputNum:   usb.InputNum,
		IntegTime:  usb.IntegTime,
	}
	return merged, nil
}

func appendRows[T any](a, b [][]T) [][]T {
	out := make([][]T, 0, len(a)+len(b))
	for _, row := range a {
		out = append(out, append([]T{}, row...))
	}
	for _, row := range b {
		out = append(out, append([]T{}, row...))
	}
	return out
}
