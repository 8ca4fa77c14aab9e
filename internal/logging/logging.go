// Package logging wraps zap for the two audiences the pipeline writes to:
// a sugared logger for CLI-facing progress, and a structured logger for
// per-stage diagnostics (timing, drift, capture failures) a render-failure
// postmortem needs.
package logging

import (
	"go.uber.org/zap"
)

// Logger pairs a structured *zap.Logger with its sugared form.
type Logger struct {
	base   *zap.Logger
	sugar  *zap.SugaredLogger
}

// New builds a production logger, or a development logger with a friendlier
// console encoder when debug is true.
func New(debug bool) (*Logger, error) {
	var cfg zap.Config
	if debug {
		cfg = zap.NewDevelopmentConfig()
	} else {
		cfg = zap.NewProductionConfig()
	}
	base, err := cfg.Build()
	if err != nil {
		return nil, err
	}
	return &Logger{base: base, sugar: base.Sugar()}, nil
}

// Noop returns a Logger that discards everything, for tests.
func Noop() *Logger {
	return &Logger{base: zap.NewNop(), sugar: zap.NewNop().Sugar()}
}

func (l *Logger) Warnf(format string, args ...interface{}) {
	if l == nil {
		return
	}
	l.sugar.Warnf(format, args...)
}

func (l *Logger) Infof(format string, args ...interface{}) {
	if l == nil {
		return
	}
	l.sugar.Infof(format, args...)
}

func (l *Logger) Errorf(format string, args ...interface{}) {
	if l == nil {
		return
	}
	l.sugar.Errorf(format, args...)
}

// With returns a structured child logger for a pipeline stage, e.g.
// logging.With("stage", "capture").
func (l *Logger) With(fields ...interface{}) *zap.SugaredLogger {
	return l.sugar.With(fields...)
}

// Sync flushes buffered log entries; call before process exit.
func (l *Logger) Sync() error {
	if l == nil {
		return nil
	}
	return l.base.Sync()
}
