package dsbs

import (
	"errors"
	"reflect"
	"testing"
	"time"
)

func testColumns(t *testing.T) *ColumnSet {
	t.Helper()
	cols, err := DecodeColumns(powerTwoRows, phaseTwoRows)
	if err != nil {
		t.Fatalf("DecodeColumns failed: %v", err)
	}
	return cols
}

func TestAssemble(t *testing.T) {
	ts := time.Date(2025, 11, 3, 12, 0, 0, 0, time.UTC)
	rec, err := Assemble(ts, 10, USB, 1, 200, testColumns(t))
	if err != nil {
		t.Fatalf("Assemble failed: %v", err)
	}

	if len(rec.Time) != 1 || !rec.Time[0].Equal(ts) {
		t.Errorf("Time = %v, want [%v]", rec.Time, ts)
	}
	if want := []int64{0, 1}; !reflect.DeepEqual(rec.Chan, want) {
		t.Errorf("Chan = %v, want %v", rec.Chan, want)
	}
	if rec.SignalChan[0] != 10 || rec.SignalSB[0] != USB {
		t.Errorf("coords = (%d, %s), want (10, USB)", rec.SignalChan[0], rec.SignalSB[0])
	}
	if rec.InputNum != 1 || rec.IntegTime != 200 {
		t.Errorf("attrs = (%d, %d), want (1, 200)", rec.InputNum, rec.IntegTime)
	}
	if want := []float64{90.0, 90.02}; !reflect.DeepEqual(rec.Freq[0], want) {
		t.Errorf("Freq[0] = %v, want %v", rec.Freq[0], want)
	}
}

func TestAssembleRejectsBadSettings(t *testing.T) {
	ts := time.Now()
	cols := testColumns(t)

	if _, err := Assemble(ts, 10, Sideband("DSB"), 1, 200, cols); !errors.Is(err, ErrInvalidSideband) {
		t.Errorf("bad sideband: got %v, want ErrInvalidSideband", err)
	}
	if _, err := Assemble(ts, 10, USB, 3, 200, cols); err == nil {
		t.Error("input number 3 should be rejected")
	}
	if _, err := Assemble(ts, 10, USB, 1, 300, cols); err == nil {
		t.Error("integration time 300 should be rejected")
	}
}

func makeRecord(t *testing.T, signalChan int, sb Sideband) *Record {
	t.Helper()
	rec, err := Assemble(time.Now(), signalChan, sb, 1, 200, testColumns(t))
	if err != nil {
		t.Fatalf("Assemble failed: %v", err)
	}
	return rec
}

func TestMerge(t *testing.T) {
	usb := makeRecord(t, 10, USB)
	lsb := makeRecord(t, 10, LSB)

	merged, err := Merge(usb, lsb)
	if err != nil {
		t.Fatalf("Merge failed: %v", err)
	}
	if len(merged.Time) != 2 {
		t.Errorf("time length = %d, want 2", len(merged.Time))
	}
	if merged.NumChan() != usb.NumChan() {
		t.Errorf("chan length = %d, want %d", merged.NumChan(), usb.NumChan())
	}
	if merged.SignalSB[0] != USB || merged.SignalSB[1] != LSB {
		t.Errorf("SignalSB = %v, want [USB LSB]", merged.SignalSB)
	}
	if err := merged.Validate(); err != nil {
		t.Errorf("merged record invalid: %v", err)
	}
}

func TestMergeDoesNotAliasInputs(t *testing.T) {
	usb := makeRecord(t, 10, USB)
	lsb := makeRecord(t, 10, LSB)

	merged, err := Merge(usb, lsb)
	if err != nil {
		t.Fatalf("Merge failed: %v", err)
	}
	merged.AutoUSB[0][0] = -1
	if usb.AutoUSB[0][0] == -1 {
		t.Error("merge shares backing arrays with its inputs")
	}
}

func TestMergeIncompatible(t *testing.T) {
	base := makeRecord(t, 10, USB)

	otherChan := makeRecord(t, 11, LSB)
	if _, err := Merge(base, otherChan); !errors.Is(err, ErrMerge) {
		t.Errorf("differing signal_chan: got %v, want ErrMerge", err)
	}

	otherInput := makeRecord(t, 10, LSB)
	otherInput.InputNum = 2
	if _, err := Merge(base, otherInput); !errors.Is(err, ErrMerge) {
		t.Errorf("differing input_num: got %v, want ErrMerge", err)
	}

	otherInteg := makeRecord(t, 10, LSB)
	otherInteg.IntegTime = 500
	if _, err := Merge(base, otherInteg); !errors.Is(err, ErrMerge) {
		t.Errorf("differing integ_time: got %v, want ErrMerge", err)
	}

	shorter := makeRecord(t, 10, LSB)
	shorter.Chan = shorter.Chan[:1]
	shorter.Freq[0] = shorter.Freq[0][:1]
	shorter.AutoUSB[0] = shorter.AutoUSB[0][:1]
	shorter.AutoLSB[0] = shorter.AutoLSB[0][:1]
	shorter.Cross2SB[0] = shorter.Cross2SB[0][:1]
	if _, err := Merge(base, shorter); !errors.Is(err, ErrMerge) {
		t.Errorf("differing chan length: got %v, want ErrMerge", err)
	}
}

func TestParseSideband(t *testing.T) {
	tests := []struct {
		in      string
		want    Sideband
		wantErr bool
	}{
		{"USB", USB, false},
		{"lsb", LSB, false},
		{" usb ", USB, false},
		{"DSB", "", true},
		{"", "", true},
	}
	for _, tt := range tests {
		got, err := ParseSideband(tt.in)
		if tt.wantErr {
			if !errors.Is(err, ErrInvalidSideband) {
				t.Errorf("ParseSideband(%q): got %v, want ErrInvalidSideband", tt.in, err)
			}
			continue
		}
		if err != nil || got != tt.want {
			t.Errorf("ParseSideband(%q) = (%v, %v), want %v", tt.in, got, err, tt.want)
		}
	}
}

func TestValidIntegTime(t *testing.T) {
	for _, ms := range ValidIntegTimes {
		if !ValidIntegTime(ms) {
			t.Errorf("ValidIntegTime(%d) = false", ms)
		}
	}
	for _, ms := range []int{0, 50, 300, 1500, -100} {
		if ValidIntegTime(ms) {
			t.Errorf("ValidIntegTime(%d) = true", ms)
		}
	}
}
