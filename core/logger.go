package core

import (
	"strings"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

const DefaultLogLevel = "info"

// Logger provides structured logging functionality on top of zap
type Logger struct {
	level zap.AtomicLevel
	base  *zap.Logger
	sugar *zap.SugaredLogger
}

// NewLogger creates a JSON logger writing to stdout. An unknown level falls back to info.
func NewLogger(level string) *Logger {
	return newLogger(level, "stdout")
}

// NewStderrLogger is NewLogger writing to stderr, for commands that print their result to stdout
func NewStderrLogger(level string) *Logger {
	return newLogger(level, "stderr")
}

func newLogger(level, output string) *Logger {
	atomic := zap.NewAtomicLevel()
	if err := atomic.UnmarshalText([]byte(strings.ToLower(strings.TrimSpace(level)))); err != nil {
		_ = atomic.UnmarshalText([]byte(DefaultLogLevel))
	}

	encoderCfg := zapcore.EncoderConfig{
		MessageKey: "message",
		TimeKey:    "timestamp",
		LevelKey:   "severity",
		EncodeTime: zapcore.RFC3339NanoTimeEncoder,
		EncodeLevel: func(level zapcore.Level, enc zapcore.PrimitiveArrayEncoder) {
			enc.AppendString(strings.ToUpper(level.String()))
		},
		CallerKey:    "caller",
		EncodeCaller: zapcore.ShortCallerEncoder,
	}

	cfg := zap.Config{
		Level:             atomic,
		Encoding:          "json",
		EncoderConfig:     encoderCfg,
		OutputPaths:       []string{output},
		ErrorOutputPaths:  []string{"stderr"},
		DisableStacktrace: true,
	}

	base, err := cfg.Build(zap.AddCallerSkip(2))
	if err != nil {
		base = zap.NewNop()
	}
	return &Logger{level: atomic, base: base, sugar: base.Sugar()}
}

// NewNopLogger returns a logger that discards everything (used by tests)
func NewNopLogger() *Logger {
	base := zap.NewNop()
	return &Logger{level: zap.NewAtomicLevel(), base: base, sugar: base.Sugar()}
}

// SetLevel changes the minimum log level
func (l *Logger) SetLevel(level string) error {
	return l.level.UnmarshalText([]byte(strings.ToLower(strings.TrimSpace(level))))
}

// Zap exposes the underlying logger for structured fields
func (l *Logger) Zap() *zap.Logger {
	return l.base.WithOptions(zap.AddCallerSkip(-2))
}

// Sync flushes buffered entries
func (l *Logger) Sync() {
	_ = l.base.Sync()
}

func (l *Logger) logf(level zapcore.Level, format string, args ...interface{}) {
	switch level {
	case zapcore.DebugLevel:
		l.sugar.Debugf(format, args...)
	case zapcore.InfoLevel:
		l.sugar.Infof(format, args...)
	case zapcore.WarnLevel:
		l.sugar.Warnf(format, args...)
	case zapcore.ErrorLevel:
		l.sugar.Errorf(format, args...)
	case zapcore.FatalLevel:
		l.sugar.Fatalf(format, args...)
	}
}

// Debug logs a debug message
func (l *Logger) Debug(format string, args ...interface{}) {
	l.logf(zapcore.DebugLevel, format, args...)
}

// Info logs an info message
func (l *Logger) Info(format string, args ...interface{}) {
	l.logf(zapcore.InfoLevel, format, args...)
}

// Warn logs a warning message
func (l *Logger) Warn(format string, args ...interface{}) {
	l.logf(zapcore.WarnLevel, format, args...)
}

// Error logs an error message
func (l *Logger) Error(format string, args ...interface{}) {
	l.logf(zapcore.ErrorLevel, format, args...)
}

// Fatal logs a fatal message and exits
func (l *Logger) Fatal(format string, args ...interface{}) {
	l.logf(zapcore.FatalLevel, format, args...)
}

// Global logger instance
var GlobalLogger = NewLogger(DefaultLogLevel)

// SetGlobalLogger replaces the package-level logger
func SetGlobalLogger(l *Logger) {
	if l != nil {
		GlobalLogger = l
	}
}

// Package-level logging functions
func Debug(format string, args ...interface{}) {
	GlobalLogger.logf(zapcore.DebugLevel, format, args...)
}

func Info(format string, args ...interface{}) {
	GlobalLogger.logf(zapcore.InfoLevel, format, args...)
}

func Warn(format string, args ...interface{}) {
	GlobalLogger.logf(zapcore.WarnLevel, format, args...)
}

func Error(format string, args ...interface{}) {
	GlobalLogger.logf(zapcore.ErrorLevel, format, args...)
}

func Fatal(format string, args ...interface{}) {
	GlobalLogger.logf(zapcore.FatalLevel, format, args...)
}
