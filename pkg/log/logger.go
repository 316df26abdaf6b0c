package log

import (
	"bytes"
	"fmt"
	stdlog "log"
	"os"
	"slices"
	"time"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Logger writes structured JSON logs to stderr.
//
// Records below the configured level are dropped, unless the logger's
// subsystem is one of the enabled subsystems in which case every record is
// written.
type Logger interface {
	Subsystem() string
	// WithSubsystem creates a new logger with the given subsystem.
	WithSubsystem(s string) Logger
	With(fields ...zap.Field) Logger
	Debug(msg string, fields ...zap.Field)
	Info(msg string, fields ...zap.Field)
	Warn(msg string, fields ...zap.Field)
	Error(msg string, fields ...zap.Field)
	Sync() error
	// StdLogger returns a standard library log.Logger that writes records at
	// the given level, such as for http.Server.ErrorLog.
	StdLogger(level zapcore.Level) *stdlog.Logger
}

type logger struct {
	core zapcore.Core

	subsystem string
	// verbose is true when subsystem is enabled, so level filtering is
	// skipped.
	verbose           bool
	enabledSubsystems []string

	errorOutput zapcore.WriteSyncer
}

// NewLogger creates a logger filtering with the given level and enabled
// subsystems.
func NewLogger(lvl string, enabledSubsystems []string) (Logger, error) {
	level, err := levelFromString(lvl)
	if err != nil {
		return nil, err
	}

	encoderConfig := zap.NewProductionEncoderConfig()
	// The logger name is written as 'subsystem'.
	encoderConfig.NameKey = "subsystem"
	encoderConfig.EncodeTime = zapcore.TimeEncoderOfLayout(
		"2006-01-02T15:04:05.999Z07:00",
	)

	sink, _, err := zap.Open("stderr")
	if err != nil {
		return nil, fmt.Errorf("open sink: %w", err)
	}

	return &logger{
		core: &unfilteredCore{
			inner: zapcore.NewCore(
				zapcore.NewJSONEncoder(encoderConfig),
				sink,
				zap.NewAtomicLevelAt(level),
			),
		},
		subsystem:         "main",
		verbose:           slices.Contains(enabledSubsystems, "main"),
		enabledSubsystems: enabledSubsystems,
		errorOutput:       zapcore.Lock(os.Stderr),
	}, nil
}

func (l *logger) Subsystem() string {
	return l.subsystem
}

func (l *logger) WithSubsystem(s string) Logger {
	if s == l.subsystem {
		return l
	}

	clone := *l
	clone.subsystem = s
	clone.verbose = slices.Contains(l.enabledSubsystems, s)
	return &clone
}

func (l *logger) With(fields ...zap.Field) Logger {
	if len(fields) == 0 {
		return l
	}

	clone := *l
	clone.core = l.core.With(fields)
	return &clone
}

func (l *logger) Debug(msg string, fields ...zap.Field) {
	l.write(zap.DebugLevel, msg, fields)
}

func (l *logger) Info(msg string, fields ...zap.Field) {
	l.write(zap.InfoLevel, msg, fields)
}

func (l *logger) Warn(msg string, fields ...zap.Field) {
	l.write(zap.WarnLevel, msg, fields)
}

func (l *logger) Error(msg string, fields ...zap.Field) {
	l.write(zap.ErrorLevel, msg, fields)
}

func (l *logger) Sync() error {
	return l.core.Sync()
}

func (l *logger) StdLogger(level zapcore.Level) *stdlog.Logger {
	return stdlog.New(writerFunc(func(msg string) {
		l.write(level, msg, nil)
	}), "", 0)
}

func (l *logger) write(lvl zapcore.Level, msg string, fields []zap.Field) {
	if !l.verbose && lvl < zapcore.DPanicLevel && !l.core.Enabled(lvl) {
		return
	}

	ce := l.core.Check(zapcore.Entry{
		LoggerName: l.subsystem,
		Time:       time.Now(),
		Level:      lvl,
		Message:    msg,
	}, nil)
	if ce == nil {
		return
	}
	ce.ErrorOutput = l.errorOutput
	ce.Write(fields...)
}

// writerFunc adapts a function to an io.Writer for the standard library
// logger, trimming the trailing newline.
type writerFunc func(msg string)

func (f writerFunc) Write(p []byte) (int, error) {
	f(string(bytes.TrimSpace(p)))
	return len(p), nil
}

func levelFromString(s string) (zapcore.Level, error) {
	switch s {
	case "debug":
		return zap.DebugLevel, nil
	case "info":
		return zap.InfoLevel, nil
	case "warn":
		return zap.WarnLevel, nil
	case "error":
		return zap.ErrorLevel, nil
	default:
		return zapcore.Level(0), fmt.Errorf("unsupported level: %s", s)
	}
}

// unfilteredCore wraps a core so Check never filters by level. Filtering is
// done by logger so enabled subsystems can bypass it.
type unfilteredCore struct {
	inner zapcore.Core
}

func (c *unfilteredCore) Enabled(lvl zapcore.Level) bool {
	return c.inner.Enabled(lvl)
}

func (c *unfilteredCore) With(fields []zap.Field) zapcore.Core {
	return &unfilteredCore{inner: c.inner.With(fields)}
}

func (c *unfilteredCore) Check(ent zapcore.Entry, ce *zapcore.CheckedEntry) *zapcore.CheckedEntry {
	return ce.AddCore(ent, c.inner)
}

func (c *unfilteredCore) Write(ent zapcore.Entry, fields []zapcore.Field) error {
	return c.inner.Write(ent, fields)
}

func (c *unfilteredCore) Sync() error {
	return c.inner.Sync()
}
