package acquire

import (
	"context"
	"fmt"
	"time"

	"github.com/obslab/drs4cal/internal/dsbs"
	"github.com/obslab/drs4cal/internal/logging"
)

// Generator steers the calibration signal generator.
type Generator interface {
	Program(freqGHz float64) error
	Disable() error
}

// Correlator triggers integrations and reads back the raw result tables.
type Correlator interface {
	Trigger(ctx context.Context, inputNum, integTime int) error
	Fetch(ctx context.Context) (power, phase string, err error)
}

// state tracks where the runner is in the acquisition sequence, for logging.
type state string

const (
	stateIdle        state = "idle"
	stateProgramming state = "programming"
	stateTriggering  state = "triggering"
	stateFetching    state = "fetching"
	stateAssembled   state = "assembled"
	stateMerging     state = "merging"
)

// Config carries the acquisition settings for one calibration run.
type Config struct {
	SignalChan int
	InputNum   int
	IntegTime  int // ms
	LOFreq     float64
	LOMux      float64
}

// Options tune run behaviors that differ between operator workflows.
type Options struct {
	// SettleDelay is slept between programming the generator and
	// triggering an integration, giving the synthesizer time to lock.
	SettleDelay time.Duration
	// DisableOnFailure sends a best-effort output-off to the generator
	// when a run fails partway. The disable's own failure never replaces
	// the original error.
	DisableOnFailure bool
	Logger           logging.Logger
}

// DefaultSettleDelay matches the pause operators have always put between
// retuning and integrating.
const DefaultSettleDelay = time.Second

// Runner executes the two-sideband acquisition sequence. It is the sole
// mutator of the generator and correlator state; callers needing parallel
// runs must serialize them externally.
type Runner struct {
	gen   Generator
	corr  Correlator
	cfg   Config
	opts  Options
	state state
	now   func() time.Time
}

// NewRunner builds a runner over the given instruments. A zero
// Options.SettleDelay means DefaultSettleDelay; pass a negative value to
// disable the pause entirely.
func NewRunner(gen Generator, corr Correlator, cfg Config, opts Options) *Runner {
	if opts.SettleDelay == 0 {
		opts.SettleDelay = DefaultSettleDelay
	}
	if opts.Logger == nil {
		opts.Logger = logging.Default()
	}
	return &Runner{gen: gen, corr: corr, cfg: cfg, opts: opts, state: stateIdle, now: time.Now}
}

// Run acquires the calibration tone in USB then LSB and merges the two
// records along time. Any step failure aborts the whole run: no partial
// pair is ever returned.
func (r *Runner) Run(ctx context.Context) (*dsbs.Record, error) {
	rec, err := r.run(ctx)
	if err != nil && r.opts.DisableOnFailure {
		if derr := r.gen.Disable(); derr != nil {
			r.opts.Logger.Warn("generator disable after failure also failed",
				logging.F("error", derr))
		}
	}
	r.setState(stateIdle)
	return rec, err
}

func (r *Runner) run(ctx context.Context) (*dsbs.Record, error) {
	var records [2]*dsbs.Record
	for i, sb := range []dsbs.Sideband{dsbs.USB, dsbs.LSB} {
		rec, err := r.acquire(ctx, sb)
		if err != nil {
			return nil, err
		}
		records[i] = rec
	}

	r.setState(stateMerging)
	return dsbs.Merge(records[0], records[1])
}

// acquire runs one full programming/triggering/fetching pass for a sideband.
func (r *Runner) acquire(ctx context.Context, sb dsbs.Sideband) (*dsbs.Record, error) {
	log := r.opts.Logger.With(
		logging.F("signal_chan", r.cfg.SignalChan),
		logging.F("signal_sb", string(sb)),
	)

	r.setState(stateProgramming)
	freq, err := PlanFrequency(r.cfg.SignalChan, sb, r.cfg.LOFreq, r.cfg.LOMux)
	if err != nil {
		return nil, err
	}
	log.Info("programming generator", logging.F("freq_ghz", freq))
	if err := r.gen.Program(freq); err != nil {
		return nil, err
	}

	if r.opts.SettleDelay > 0 {
		if err := sleepCtx(ctx, r.opts.SettleDelay); err != nil {
			return nil, err
		}
	}

	r.setState(stateTriggering)
	log.Info("triggering integration",
		logging.F("input_num", r.cfg.InputNum),
		logging.F("integ_time_ms", r.cfg.IntegTime))
	if err := r.corr.Trigger(ctx, r.cfg.InputNum, r.cfg.IntegTime); err != nil {
		return nil, err
	}

	r.setState(stateFetching)
	power, phase, err := r.corr.Fetch(ctx)
	if err != nil {
		return nil, err
	}
	cols, err := dsbs.DecodeColumns(power, phase)
	if err != nil {
		return nil, err
	}
	rec, err := dsbs.Assemble(r.now(), r.cfg.SignalChan, sb, r.cfg.InputNum, r.cfg.IntegTime, cols)
	if err != nil {
		return nil, err
	}

	r.setState(stateAssembled)
	log.Info("sideband acquired", logging.F("num_chan", rec.NumChan()))
	return rec, nil
}

func (r *Runner) setState(s state) {
	if s != r.state {
		r.opts.Logger.Debug("state change",
			logging.F("from", string(r.state)), logging.F("to", string(s)))
	}
	r.state = s
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}

// Stop drops the generator output. Operator scripts call this from their
// cleanup path regardless of how the run ended.
func (r *Runner) Stop() error {
	if err := r.gen.Disable(); err != nil {
		return fmt.Errorf("stop generator: %w", err)
	}
	return nil
}
