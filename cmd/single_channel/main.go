// Command single_channel runs one two-sideband calibration acquisition: it
// places a CW tone on the requested correlator channel in USB then LSB,
// integrates, and writes the merged measurement set to a CSV archive.
package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"log"
	"net"
	"os"
	"strconv"
	"time"

	"github.com/cenkalti/backoff"

	"github.com/obslab/drs4cal/internal/acquire"
	"github.com/obslab/drs4cal/internal/analysis"
	"github.com/obslab/drs4cal/internal/discovery"
	"github.com/obslab/drs4cal/internal/drs4"
	"github.com/obslab/drs4cal/internal/dsbs"
	"github.com/obslab/drs4cal/internal/logging"
	"github.com/obslab/drs4cal/scpi"
)

func main() {
	cfg, err := parseConfig(os.Args[1:], os.LookupEnv)
	if err != nil {
		log.Fatalf("parse config: %v", err)
	}

	logger, closeLog, err := setupLogging(cfg)
	if err != nil {
		log.Fatalf("setup logging: %v", err)
	}
	defer closeLog()
	logging.SetDefault(logger)

	if err := run(context.Background(), cfg, logger); err != nil {
		logger.Error("acquisition failed", logging.F("error", err))
		os.Exit(1)
	}
}

func run(ctx context.Context, cfg cliConfig, logger logging.Logger) error {
	sgAddr := cfg.sgAddr
	if sgAddr == "" {
		addr, err := discoverGenerator(cfg.discoverTimeout, logger)
		if err != nil {
			return fmt.Errorf("no generator address given and discovery failed: %w", err)
		}
		sgAddr = addr
	}

	session, err := drs4.NewSession(drs4.Config{
		Host:     cfg.drs4Host,
		Port:     cfg.drs4Port,
		User:     cfg.drs4User,
		Password: cfg.drs4Password,
		KeyPath:  cfg.drs4KeyPath,
		Timeout:  cfg.timeout,
	})
	if err != nil {
		return err
	}

	// The correlator host may still be booting after a power cycle; wait
	// for its SSH port before committing to a run. The acquisition itself
	// never retries.
	if err := waitReachable(net.JoinHostPort(cfg.drs4Host, strconv.Itoa(cfg.drs4Port)), cfg.timeout); err != nil {
		return fmt.Errorf("correlator host unreachable: %w", err)
	}

	gen := scpi.NewGenerator(scpi.NewClient(sgAddr, cfg.timeout))
	runner := acquire.NewRunner(gen, session,
		acquire.Config{
			SignalChan: cfg.signalChan,
			InputNum:   cfg.inputNum,
			IntegTime:  cfg.integTime,
			LOFreq:     cfg.loFreq,
			LOMux:      cfg.loMux,
		},
		acquire.Options{
			SettleDelay:      cfg.settleDelay,
			DisableOnFailure: !cfg.noCleanup,
			Logger:           logger,
		},
	)
	defer func() {
		if err := runner.Stop(); err != nil {
			logger.Warn("stop generator", logging.F("error", err))
		}
	}()

	rec, err := runner.Run(ctx)
	if err != nil {
		return err
	}

	logger.Debug("record assembled", logging.F("schema", rec.Describe()))
	reportTone(rec, logger)

	w := &dsbs.CSVWriter{Path: cfg.outPath}
	if err := w.Write(rec); err != nil {
		return err
	}
	logger.Info("measurement set written",
		logging.F("path", cfg.outPath),
		logging.F("num_time", len(rec.Time)),
		logging.F("num_chan", rec.NumChan()))
	return nil
}

// reportTone logs where the tone landed in each acquired sideband row.
func reportTone(rec *dsbs.Record, logger logging.Logger) {
	for t := range rec.Time {
		auto := rec.AutoUSB[t]
		image := rec.AutoLSB[t]
		if rec.SignalSB[t] == dsbs.LSB {
			auto, image = image, auto
		}

		check, err := analysis.CheckTone(auto, int(rec.SignalChan[t]))
		if err != nil {
			logger.Warn("tone check failed", logging.F("error", err))
			continue
		}
		fields := []logging.Field{
			logging.F("signal_sb", string(rec.SignalSB[t])),
			logging.F("peak_chan", check.PeakChan),
			logging.F("peak_ratio", check.PeakRatio),
		}
		if rej, err := analysis.SidebandRejection(auto, image); err == nil {
			fields = append(fields, logging.F("sb_rejection_db", rej))
		}
		if mean, std, err := analysis.CrossPhase(rec.Cross2SB[t]); err == nil {
			fields = append(fields, logging.F("cross_phase_mean_deg", mean), logging.F("cross_phase_std_deg", std))
		}
		if check.OnChannel {
			logger.Info("tone on channel", fields...)
		} else {
			logger.Warn("tone off channel", fields...)
		}
	}
}

func discoverGenerator(timeout time.Duration, logger logging.Logger) (string, error) {
	instruments, err := discovery.Discover(timeout)
	if err != nil {
		return "", err
	}
	if len(instruments) == 0 {
		return "", fmt.Errorf("no SCPI instruments found on the local network")
	}
	in := instruments[0]
	logger.Info("using discovered generator",
		logging.F("instance", in.Instance),
		logging.F("addr", in.Addr()))
	if in.Addr() == "" {
		return "", fmt.Errorf("instrument %q advertised no address", in.Instance)
	}
	return in.Addr(), nil
}

// waitReachable probes addr with capped exponential backoff until the TCP
// port accepts a connection or maxElapsed runs out.
func waitReachable(addr string, maxElapsed time.Duration) error {
	b := backoff.NewExponentialBackOff()
	b.InitialInterval = 500 * time.Millisecond
	b.MaxInterval = 5 * time.Second
	b.MaxElapsedTime = maxElapsed

	return backoff.Retry(func() error {
		conn, err := net.DialTimeout("tcp", addr, 2*time.Second)
		if err != nil {
			return err
		}
		return conn.Close()
	}, b)
}

type cliConfig struct {
	signalChan int
	outPath    string

	sgAddr          string
	discoverTimeout time.Duration

	drs4Host     string
	drs4Port     int
	drs4User     string
	drs4Password string
	drs4KeyPath  string

	inputNum  int
	integTime int
	loFreq    float64
	loMux     float64

	settleDelay time.Duration
	noCleanup   bool
	timeout     time.Duration

	logLevel string
	logJSON  bool
	logFile  string
}

func parseConfig(args []string, lookup func(string) (string, bool)) (cliConfig, error) {
	cfg := cliConfig{}
	fs := flag.NewFlagSet("single_channel", flag.ContinueOnError)
	fs.IntVar(&cfg.signalChan, "chan", envInt(lookup, "DSBS_SIGNAL_CHAN", -1), "Correlator channel to place the tone on")
	fs.StringVar(&cfg.outPath, "out", envString(lookup, "DSBS_OUT", "single_channel.csv"), "Output CSV path for the measurement set")
	fs.StringVar(&cfg.sgAddr, "sg-addr", envString(lookup, "DSBS_SG_ADDR", ""), "Signal generator address (host:port); empty triggers mDNS discovery")
	fs.DurationVar(&cfg.discoverTimeout, "discover-timeout", 5*time.Second, "mDNS browse duration when discovering the generator")
	fs.StringVar(&cfg.drs4Host, "drs4-host", envString(lookup, "DSBS_DRS4_HOST", ""), "Correlator SSH host")
	fs.IntVar(&cfg.drs4Port, "drs4-port", envInt(lookup, "DSBS_DRS4_PORT", 22), "Correlator SSH port")
	fs.StringVar(&cfg.drs4User, "drs4-user", envString(lookup, "DSBS_DRS4_USER", "drs4"), "Correlator SSH user")
	fs.StringVar(&cfg.drs4Password, "drs4-pass", envString(lookup, "DSBS_DRS4_PASSWORD", ""), "Correlator SSH password")
	fs.StringVar(&cfg.drs4KeyPath, "drs4-key", envString(lookup, "DSBS_DRS4_KEY", ""), "Correlator SSH private key path")
	fs.IntVar(&cfg.inputNum, "input", envInt(lookup, "DSBS_INPUT_NUM", 1), "Correlator input number (1 or 2)")
	fs.IntVar(&cfg.integTime, "integ", envInt(lookup, "DSBS_INTEG_TIME", 100), "Integration time in ms (100, 200, 500 or 1000)")
	fs.Float64Var(&cfg.loFreq, "lo-freq", envFloat(lookup, "DSBS_LO_FREQ", 90.0), "LO frequency in GHz")
	fs.Float64Var(&cfg.loMux, "lo-mux", envFloat(lookup, "DSBS_LO_MUX", 5.0), "LO multiplication factor")
	fs.DurationVar(&cfg.settleDelay, "settle", acquire.DefaultSettleDelay, "Generator settling delay before each integration (negative disables)")
	fs.BoolVar(&cfg.noCleanup, "no-cleanup", false, "Skip the generator output-off on failed runs")
	fs.DurationVar(&cfg.timeout, "timeout", 30*time.Second, "Per-operation network timeout")
	fs.StringVar(&cfg.logLevel, "log-level", envString(lookup, "DSBS_LOG_LEVEL", "info"), "Log level (debug|info|warn|error)")
	fs.BoolVar(&cfg.logJSON, "log-json", false, "Emit JSON log entries")
	fs.StringVar(&cfg.logFile, "log-file", "single_channel.log", "Log file path (empty disables the file copy)")

	if err := fs.Parse(args); err != nil {
		return cliConfig{}, err
	}
	if cfg.signalChan < 0 {
		return cliConfig{}, fmt.Errorf("a non-negative -chan is required")
	}
	if cfg.drs4Host == "" {
		return cliConfig{}, fmt.Errorf("-drs4-host (or DSBS_DRS4_HOST) is required")
	}
	return cfg, nil
}

func setupLogging(cfg cliConfig) (logging.Logger, func(), error) {
	level, err := logging.ParseLevel(cfg.logLevel)
	if err != nil {
		return nil, nil, err
	}

	out := io.Writer(os.Stderr)
	closeLog := func() {}
	if cfg.logFile != "" {
		f, err := os.OpenFile(cfg.logFile, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
		if err != nil {
			return nil, nil, err
		}
		out = io.MultiWriter(os.Stderr, f)
		closeLog = func() { f.Close() }
	}
	return logging.New(level, cfg.logJSON, out), closeLog, nil
}

func envFloat(lookup func(string) (string, bool), key string, def float64) float64 {
	if val, ok := lookup(key); ok {
		if parsed, err := strconv.ParseFloat(val, 64); err == nil {
			return parsed
		}
	}
	return def
}

func envInt(lookup func(string) (string, bool), key string, def int) int {
	if val, ok := lookup(key); ok {
		if parsed, err := strconv.Atoi(val); err == nil {
			return parsed
		}
	}
	return def
}

func envString(lookup func(string) (string, bool), key, def string) string {
	if val, ok := lookup(key); ok {
		return val
	}
	return def
}
