package acquire

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/obslab/drs4cal/internal/dsbs"
)

// mockGenerator records programmed frequencies and disable calls.
type mockGenerator struct {
	programmed []float64
	disabled   int
	programErr error
	disableErr error
}

func (m *mockGenerator) Program(freqGHz float64) error {
	if m.programErr != nil {
		return m.programErr
	}
	m.programmed = append(m.programmed, freqGHz)
	return nil
}

func (m *mockGenerator) Disable() error {
	m.disabled++
	return m.disableErr
}

// mockCorrelator serves canned CSV payloads and records trigger settings.
type mockCorrelator struct {
	triggers   [][2]int
	power      string
	phase      string
	triggerErr error
	fetchErr   error
}

func (m *mockCorrelator) Trigger(_ context.Context, inputNum, integTime int) error {
	if m.triggerErr != nil {
		return m.triggerErr
	}
	m.triggers = append(m.triggers, [2]int{inputNum, integTime})
	return nil
}

func (m *mockCorrelator) Fetch(_ context.Context) (string, string, error) {
	if m.fetchErr != nil {
		return "", "", m.fetchErr
	}
	return m.power, m.phase, nil
}

func newMockCorrelator() *mockCorrelator {
	return &mockCorrelator{
		power: "freq[GHz],out0,out1\n90.0,1.5,2.5\n90.02,1.6,2.6\n",
		phase: "real,imag\n0.1,0.2\n0.3,0.4\n",
	}
}

func testConfig() Config {
	return Config{SignalChan: 10, InputNum: 1, IntegTime: 200, LOFreq: 90.0, LOMux: 5}
}

func TestRunnerRun(t *testing.T) {
	gen := &mockGenerator{}
	corr := newMockCorrelator()
	r := NewRunner(gen, corr, testConfig(), Options{SettleDelay: -1})

	rec, err := r.Run(context.Background())
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}

	// USB first, then LSB.
	if len(gen.programmed) != 2 || gen.programmed[0] != 18.04 || gen.programmed[1] != 17.96 {
		t.Errorf("programmed = %v, want [18.04 17.96]", gen.programmed)
	}
	if len(corr.triggers) != 2 {
		t.Fatalf("triggers = %v, want two", corr.triggers)
	}
	for _, trig := range corr.triggers {
		if trig != [2]int{1, 200} {
			t.Errorf("trigger = %v, want [1 200]", trig)
		}
	}

	if len(rec.Time) != 2 || rec.NumChan() != 2 {
		t.Errorf("record dims = (time=%d, chan=%d), want (2, 2)", len(rec.Time), rec.NumChan())
	}
	if rec.SignalSB[0] != dsbs.USB || rec.SignalSB[1] != dsbs.LSB {
		t.Errorf("SignalSB = %v, want [USB LSB]", rec.SignalSB)
	}
	if gen.disabled != 0 {
		t.Errorf("generator disabled %d times during a clean run", gen.disabled)
	}
}

func TestRunnerAbortsOnTriggerFailure(t *testing.T) {
	trigErr := fmt.Errorf("remote exec failed")
	gen := &mockGenerator{}
	corr := newMockCorrelator()
	corr.triggerErr = trigErr
	r := NewRunner(gen, corr, testConfig(), Options{SettleDelay: -1})

	rec, err := r.Run(context.Background())
	if !errors.Is(err, trigErr) {
		t.Fatalf("expected the trigger error, got %v", err)
	}
	if rec != nil {
		t.Error("a failed run must not return a partial record")
	}
}

func TestRunnerDisableOnFailure(t *testing.T) {
	fetchErr := fmt.Errorf("remote read failed")
	gen := &mockGenerator{}
	corr := newMockCorrelator()
	corr.fetchErr = fetchErr
	r := NewRunner(gen, corr, testConfig(), Options{SettleDelay: -1, DisableOnFailure: true})

	_, err := r.Run(context.Background())
	if !errors.Is(err, fetchErr) {
		t.Fatalf("expected the fetch error, got %v", err)
	}
	if gen.disabled != 1 {
		t.Errorf("generator disabled %d times, want 1", gen.disabled)
	}
}

func TestRunnerDisableFailureDoesNotMask(t *testing.T) {
	fetchErr := fmt.Errorf("remote read failed")
	gen := &mockGenerator{disableErr: fmt.Errorf("generator gone too")}
	corr := newMockCorrelator()
	corr.fetchErr = fetchErr
	r := NewRunner(gen, corr, testConfig(), Options{SettleDelay: -1, DisableOnFailure: true})

	_, err := r.Run(context.Background())
	if !errors.Is(err, fetchErr) {
		t.Fatalf("cleanup failure masked the original error: got %v", err)
	}
}

func TestRunnerDecodeFailurePropagates(t *testing.T) {
	gen := &mockGenerator{}
	corr := newMockCorrelator()
	corr.phase = "real,imag\n0.1,0.2\n" // one row short of the power table
	r := NewRunner(gen, corr, testConfig(), Options{SettleDelay: -1})

	_, err := r.Run(context.Background())
	if !errors.Is(err, dsbs.ErrSchemaMismatch) {
		t.Fatalf("expected ErrSchemaMismatch, got %v", err)
	}
}

func TestRunnerCancelledContext(t *testing.T) {
	gen := &mockGenerator{}
	corr := newMockCorrelator()
	r := NewRunner(gen, corr, testConfig(), Options{}) // default settle delay

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if _, err := r.Run(ctx); !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled from the settle wait, got %v", err)
	}
}

func TestRunnerStop(t *testing.T) {
	gen := &mockGenerator{}
	r := NewRunner(gen, newMockCorrelator(), testConfig(), Options{SettleDelay: -1})
	if err := r.Stop(); err != nil {
		t.Fatalf("Stop failed: %v", err)
	}
	if gen.disabled != 1 {
		t.Errorf("Stop disabled %d times, want 1", gen.disabled)
	}
}
