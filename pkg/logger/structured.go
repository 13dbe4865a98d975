// Package logger provides structured logging utilities with consistent formatting
// Copyright (C) 2025 Joshua Goldstein

package logger

import (
	"fmt"
	"sort"
	"strings"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Logger provides structured logging on top of zap with an optional component prefix
type Logger struct {
	prefix string
	z      *zap.Logger
}

// NewLogger creates a new logger with an optional prefix. It writes through the
// process-wide zap logger configured by Init.
func NewLogger(prefix string) *Logger {
	return &Logger{prefix: prefix}
}

// New wraps an existing zap logger. Used by tests to capture output.
func New(z *zap.Logger) *Logger {
	return &Logger{z: z}
}

// Init configures the process-wide zap logger.
// level is one of debug, info, warn, error; format is "json" or "console".
func Init(level, format string) error {
	lvl, err := zapcore.ParseLevel(strings.ToLower(level))
	if err != nil {
		return fmt.Errorf("invalid log level %q: %w", level, err)
	}

	var cfg zap.Config
	switch format {
	case "", "console":
		cfg = zap.NewDevelopmentConfig()
		cfg.EncoderConfig.EncodeLevel = zapcore.CapitalColorLevelEncoder
	case "json":
		cfg = zap.NewProductionConfig()
	default:
		return fmt.Errorf("invalid log format %q", format)
	}
	cfg.Level = zap.NewAtomicLevelAt(lvl)

	z, err := cfg.Build()
	if err != nil {
		return err
	}
	zap.ReplaceGlobals(z)
	return nil
}

// Sync flushes buffered log entries.
func Sync() {
	_ = zap.L().Sync()
}

// With returns a child logger with an extended prefix
func (l *Logger) With(prefix string) *Logger {
	if l.prefix != "" {
		prefix = l.prefix + "." + prefix
	}
	return &Logger{prefix: prefix, z: l.z}
}

func (l *Logger) sugar() *zap.SugaredLogger {
	z := l.z
	if z == nil {
		z = zap.L()
	}
	if l.prefix != "" {
		z = z.Named(l.prefix)
	}
	return z.WithOptions(zap.AddCallerSkip(1)).Sugar()
}

// Info logs an informational message. args are alternating key/value pairs.
func (l *Logger) Info(msg string, args ...interface{}) {
	l.sugar().Infow(msg, args...)
}

// Debug logs a debug message
func (l *Logger) Debug(msg string, args ...interface{}) {
	l.sugar().Debugw(msg, args...)
}

// Success logs the successful completion of an operation
func (l *Logger) Success(msg string, args ...interface{}) {
	l.sugar().Infow(msg, append([]interface{}{"outcome", "success"}, args...)...)
}

// Warning logs a warning message
func (l *Logger) Warning(msg string, args ...interface{}) {
	l.sugar().Warnw(msg, args...)
}

// Error logs an error message with optional error object
func (l *Logger) Error(msg string, err error, args ...interface{}) {
	if err != nil {
		args = append(args, "error", err.Error())
	}
	l.sugar().Errorw(msg, args...)
}

// Security logs a security-related event
func (l *Logger) Security(event string, details map[string]interface{}) {
	keys := make([]string, 0, len(details))
	for k := range details {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	args := make([]interface{}, 0, 2+2*len(details))
	args = append(args, "security", true)
	for _, k := range keys {
		args = append(args, k, details[k])
	}
	l.sugar().Warnw("SECURITY: "+event, args...)
}

// Default logger instance
var Default = NewLogger("")

// Convenience functions for default logger
func Info(msg string, args ...interface{})                  { Default.Info(msg, args...) }
func Debug(msg string, args ...interface{})                 { Default.Debug(msg, args...) }
func Success(msg string, args ...interface{})               { Default.Success(msg, args...) }
func Warning(msg string, args ...interface{})               { Default.Warning(msg, args...) }
func Error(msg string, err error, args ...interface{})      { Default.Error(msg, err, args...) }
func Security(event string, details map[string]interface{}) { Default.Security(event, details) }
