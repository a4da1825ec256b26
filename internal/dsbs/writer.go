package dsbs

import (
	"encoding/csv"
	"fmt"
	"os"
	"strconv"
	"time"
)

// Writer persists a measurement record. The archive format is up to the
// implementation; the acquisition pipeline only depends on this interface.
type Writer interface {
	Write(r *Record) error
}

// CSVWriter flattens a record into a single CSV table with one row per
// (time, chan) pair. Scalar attributes are repeated on every row so the file
// is self-describing.
type CSVWriter struct {
	Path string
}

var csvHeader = []string{
	"time", "chan", "signal_chan", "signal_sb",
	"freq", "auto_usb", "auto_lsb", "cross_2sb_real", "cross_2sb_imag",
	"input_num", "integ_time",
}

func (w *CSVWriter) Write(r *Record) error {
	if err := r.Validate(); err != nil {
		return fmt.Errorf("write %s: %w", w.Path, err)
	}

	f, err := os.Create(w.Path)
	if err != nil {
		return fmt.Errorf("write %s: %w", w.Path, err)
	}

	cw := csv.NewWriter(f)
	if err := cw.Write(csvHeader); err != nil {
		f.Close()
		return fmt.Errorf("write %s: %w", w.Path, err)
	}
	for t := range r.Time {
		for c := range r.Chan {
			row := []string{
				r.Time[t].UTC().Format(time.RFC3339Nano),
				strconv.FormatInt(r.Chan[c], 10),
				strconv.FormatInt(r.SignalChan[t], 10),
				string(r.SignalSB[t]),
				formatFloat(r.Freq[t][c]),
				formatFloat(r.AutoUSB[t][c]),
				formatFloat(r.AutoLSB[t][c]),
				formatFloat(real(r.Cross2SB[t][c])),
				formatFloat(imag(r.Cross2SB[t][c])),
				strconv.Itoa(r.InputNum),
				strconv.Itoa(r.IntegTime),
			}
			if err := cw.Write(row); err != nil {
				f.Close()
				return fmt.Errorf("write %s: %w", w.Path, err)
			}
		}
	}
	cw.Flush()
	if err := cw.Error(); err != nil {
		f.Close()
		return fmt.Errorf("write %s: %w", w.Path, err)
	}
	return f.Close()
}

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'g', -1, 64)
}
