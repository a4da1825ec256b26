// Package logging provides the small structured logger used by the
// calibration tooling: leveled, key=value text by default, JSON on request.
package logging

import (
	"encoding/json"
	"fmt"
	"io"
	"log"
	"strings"
	"time"
)

// Level represents a logging severity.
type Level int

const (
	Debug Level = iota
	Info
	Warn
	Error
)

func (l Level) String() string {
	switch l {
	case Debug:
		return "DEBUG"
	case Info:
		return "INFO"
	case Warn:
		return "WARN"
	case Error:
		return "ERROR"
	default:
		return "UNKNOWN"
	}
}

// ParseLevel converts a string to a Level.
func ParseLevel(s string) (Level, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "debug":
		return Debug, nil
	case "info", "":
		return Info, nil
	case "warn", "warning":
		return Warn, nil
	case "error":
		return Error, nil
	default:
		return Level(0), fmt.Errorf("unsupported log level %q", s)
	}
}

// Field is one structured key/value pair attached to a log entry.
type Field struct {
	Key   string
	Value any
}

// F is shorthand for constructing a Field.
func F(key string, value any) Field { return Field{Key: key, Value: value} }

// Logger defines leveled structured logging operations.
type Logger interface {
	Debug(msg string, fields ...Field)
	Info(msg string, fields ...Field)
	Warn(msg string, fields ...Field)
	Error(msg string, fields ...Field)
	With(fields ...Field) Logger
}

var defaultLogger Logger

// Default returns the process-wide logger.
func Default() Logger {
	if defaultLogger == nil {
		defaultLogger = New(Info, false, io.Discard)
	}
	return defaultLogger
}

// SetDefault replaces the process-wide logger.
func SetDefault(l Logger) {
	if l != nil {
		defaultLogger = l
	}
}

type logger struct {
	level  Level
	asJSON bool
	bound  []Field
	out    *log.Logger
}

// New constructs a Logger writing to out at the given level. When asJSON is
// set, entries are emitted as single-line JSON objects.
func New(level Level, asJSON bool, out io.Writer) Logger {
	return &logger{level: level, asJSON: asJSON, out: log.New(out, "", log.LstdFlags)}
}

func (l *logger) With(fields ...Field) Logger {
	bound := append(append([]Field{}, l.bound...), fields...)
	return &logger{level: l.level, asJSON: l.asJSON, bound: bound, out: l.out}
}

func (l *logger) Debug(msg string, fields ...Field) { l.emit(Debug, msg, fields) }
func (l *logger) Info(msg string, fields ...Field)  { l.emit(Info, msg, fields) }
func (l *logger) Warn(msg string, fields ...Field)  { l.emit(Warn, msg, fields) }
func (l *logger) Error(msg string, fields ...Field) { l.emit(Error, msg, fields) }

func (l *logger) emit(level Level, msg string, fields []Field) {
	if level < l.level {
		return
	}
	all := append(append([]Field{}, l.bound...), fields...)
	if l.asJSON {
		l.emitJSON(level, msg, all)
		return
	}

	var b strings.Builder
	for _, f := range all {
		if f.Key == "" {
			continue
		}
		if b.Len() > 0 {
			b.WriteByte(' ')
		}
		fmt.Fprintf(&b, "%s=%v", f.Key, f.Value)
	}
	if b.Len() == 0 {
		l.out.Printf("[%s] %s", level.String(), msg)
		return
	}
	l.out.Printf("[%s] %s %s", level.String(), msg, b.String())
}

func (l *logger) emitJSON(level Level, msg string, fields []Field) {
	payload := map[string]any{
		"time":  time.Now().Format(time.RFC3339Nano),
		"level": level.String(),
		"msg":   msg,
	}
	for _, f := range fields {
		if f.Key != "" {
			payload[f.Key] = f.Value
		}
	}
	data, err := json.Marshal(payload)
	if err != nil {
		l.out.Printf("[ERROR] marshal log payload failed: %v", err)
		return
	}
	l.out.Print(string(data))
}
