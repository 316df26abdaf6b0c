package log

import (
	"io"
	stdlog "log"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

type nopLogger struct{}

// NewNopLogger returns a logger that discards every record.
func NewNopLogger() Logger {
	return nopLogger{}
}

func (nopLogger) Subsystem() string { return "" }

func (l nopLogger) WithSubsystem(_ string) Logger { return l }

func (l nopLogger) With(_ ...zap.Field) Logger { return l }

func (nopLogger) Debug(_ string, _ ...zap.Field) {}

func (nopLogger) Info(_ string, _ ...zap.Field) {}

func (nopLogger) Warn(_ string, _ ...zap.Field) {}

func (nopLogger) Error(_ string, _ ...zap.Field) {}

func (nopLogger) Sync() error { return nil }

func (nopLogger) StdLogger(_ zapcore.Level) *stdlog.Logger {
	return stdlog.New(io.Discard, "", 0)
}
