// Copyright (C) 2025, ADXYZ Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package log

import (
	"fmt"
	"time"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Field is a structured logging field.
type Field = zap.Field

// Logger is the logging interface used across the engine
type Logger interface {
	Debug(msg string, fields ...Field)
	Info(msg string, fields ...Field)
	Warn(msg string, fields ...Field)
	Error(msg string, fields ...Field)
	Fatal(msg string, fields ...Field)
	With(fields ...Field) Logger
	Sync() error
}

// zapLogger wraps a zap.Logger
type zapLogger struct {
	log *zap.Logger
}

// NewWithLevel creates a new logger with specific level
func NewWithLevel(level string) Logger {
	lvl := zapcore.InfoLevel
	switch level {
	case "debug":
		lvl = zapcore.DebugLevel
	case "info":
		lvl = zapcore.InfoLevel
	case "warn":
		lvl = zapcore.WarnLevel
	case "error":
		lvl = zapcore.ErrorLevel
	case "fatal":
		lvl = zapcore.FatalLevel
	}

	config := zap.NewProductionConfig()
	config.Level = zap.NewAtomicLevelAt(lvl)
	config.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	config.EncoderConfig.TimeKey = "time"

	log, err := config.Build()
	if err != nil {
		return &noOpLogger{}
	}

	return &zapLogger{log: log}
}

// FromZap wraps an existing zap logger.
func FromZap(l *zap.Logger) Logger {
	return &zapLogger{log: l}
}

// NoOp returns a no-op logger
func NoOp() Logger {
	return &noOpLogger{}
}

func (l *zapLogger) Debug(msg string, fields ...Field) { l.log.Debug(msg, fields...) }
func (l *zapLogger) Info(msg string, fields ...Field)  { l.log.Info(msg, fields...) }
func (l *zapLogger) Warn(msg string, fields ...Field)  { l.log.Warn(msg, fields...) }
func (l *zapLogger) Error(msg string, fields ...Field) { l.log.Error(msg, fields...) }

// Fatal logs a fatal message and exits
func (l *zapLogger) Fatal(msg string, fields ...Field) { l.log.Fatal(msg, fields...) }

// With returns a child logger carrying fields on every entry
func (l *zapLogger) With(fields ...Field) Logger {
	return &zapLogger{log: l.log.With(fields...)}
}

// Sync flushes any buffered log entries
func (l *zapLogger) Sync() error {
	return l.log.Sync()
}

// noOpLogger is a logger that does nothing
type noOpLogger struct{}

func (n *noOpLogger) Debug(msg string, fields ...Field) {}
func (n *noOpLogger) Info(msg string, fields ...Field)  {}
func (n *noOpLogger) Warn(msg string, fields ...Field)  {}
func (n *noOpLogger) Error(msg string, fields ...Field) {}
func (n *noOpLogger) Fatal(msg string, fields ...Field) {}
func (n *noOpLogger) With(fields ...Field) Logger       { return n }
func (n *noOpLogger) Sync() error                       { return nil }

func String(key, val string) Field {
	return zap.String(key, val)
}

func Int(key string, val int) Field {
	return zap.Int(key, val)
}

func Uint64(key string, val uint64) Field {
	return zap.Uint64(key, val)
}

func Stringer(key string, val fmt.Stringer) Field {
	return zap.Stringer(key, val)
}

func Duration(key string, val time.Duration) Field {
	return zap.Duration(key, val)
}

func Error(err error) Field {
	return zap.Error(err)
}
