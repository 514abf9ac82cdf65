package xlog

import "log/slog"

// Level mirrors the teacher's own log package's six-level scheme
// (Trace below Debug, Crit above Error) layered directly on
// log/slog.Level's int scale rather than slog's default four levels —
// the same gap sizes (4 apart) the teacher's own log/slog-backed
// implementation uses, so a handler that only understands slog's
// built-in levels still orders these sensibly.
type Level slog.Level

const (
	LevelTrace Level = Level(slog.LevelDebug - 4)
	LevelDebug Level = Level(slog.LevelDebug)
	LevelInfo  Level = Level(slog.LevelInfo)
	LevelWarn  Level = Level(slog.LevelWarn)
	LevelError Level = Level(slog.LevelError)
	LevelCrit  Level = Level(slog.LevelError + 4)
)

func (l Level) slog() slog.Level { return slog.Level(l) }

// String renders the short, fixed-width label a terminal handler prints
// ("TRACE", "DEBUG", "INFO ", "WARN ", "ERROR", "CRIT ").
func (l Level) String() string {
	switch {
	case l <= LevelTrace:
		return "TRACE"
	case l <= LevelDebug:
		return "DEBUG"
	case l <= LevelInfo:
		return "INFO "
	case l <= LevelWarn:
		return "WARN "
	case l <= LevelError:
		return "ERROR"
	default:
		return "CRIT "
	}
}
