// Package logger provides leveled logging for the sorta CLI.
// When verbose mode is enabled via the --verbose flag, debug and info
// messages are printed to stderr to help users follow the watch, classify
// and relocate pipeline. Warnings and errors are always printed.
//
// The package-level helpers format printf-style. Services take a named
// *zap.Logger from Named and log with structured fields.
package logger

import (
	"fmt"
	"io"
	"os"
	"sync"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

var (
	mu      sync.RWMutex
	verbose bool
	out     = &switchWriter{w: os.Stderr}
	level   = zap.NewAtomicLevelAt(zapcore.WarnLevel)
	base    = zap.New(zapcore.NewCore(newEncoder(), zapcore.AddSync(out), level))
)

// switchWriter lets SetOutput redirect loggers that were already handed out.
type switchWriter struct {
	mu sync.Mutex
	w  io.Writer
}

func (s *switchWriter) Write(p []byte) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.w.Write(p)
}

func (s *switchWriter) set(w io.Writer) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.w = w
}

func newEncoder() zapcore.Encoder {
	return zapcore.NewConsoleEncoder(zapcore.EncoderConfig{
		LevelKey:         "level",
		NameKey:          "logger",
		MessageKey:       "msg",
		LineEnding:       zapcore.DefaultLineEnding,
		ConsoleSeparator: " ",
		EncodeLevel: func(l zapcore.Level, enc zapcore.PrimitiveArrayEncoder) {
			enc.AppendString("[" + l.CapitalString() + "]")
		},
		EncodeName:     zapcore.FullNameEncoder,
		EncodeDuration: zapcore.StringDurationEncoder,
	})
}

// SetVerbose enables or disables verbose logging.
func SetVerbose(v bool) {
	mu.Lock()
	defer mu.Unlock()
	verbose = v
	if v {
		level.SetLevel(zapcore.DebugLevel)
	} else {
		level.SetLevel(zapcore.WarnLevel)
	}
}

// IsVerbose returns true if verbose mode is enabled.
func IsVerbose() bool {
	mu.RLock()
	defer mu.RUnlock()
	return verbose
}

// SetOutput sets the output writer for logs.
// Defaults to os.Stderr. Useful for testing.
func SetOutput(w io.Writer) {
	out.set(w)
}

// Named returns a structured logger for a component.
func Named(name string) *zap.Logger {
	return base.Named(name)
}

// L returns the root structured logger.
func L() *zap.Logger {
	return base
}

// Debug prints a message if verbose mode is enabled.
func Debug(format string, args ...any) {
	base.Sugar().Debugf(format, args...)
}

// Section prints a section header if verbose mode is enabled.
func Section(name string) {
	if IsVerbose() {
		fmt.Fprintf(out, "\n=== %s ===\n", name)
	}
}

// Info prints an informational message if verbose mode is enabled.
func Info(format string, args ...any) {
	base.Sugar().Infof(format, args...)
}

// Warn prints a warning message.
func Warn(format string, args ...any) {
	base.Sugar().Warnf(format, args...)
}

// Error prints an error message.
func Error(format string, args ...any) {
	base.Sugar().Errorf(format, args...)
}

// Sync flushes buffered log entries.
func Sync() {
	_ = base.Sync()
}
