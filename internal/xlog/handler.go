package xlog

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"log/slog"
	"sort"
	"sync"
)

// NewTerminalHandler builds a human-readable slog.Handler writing one
// line per record — "LEVEL [timestamp] message key=value ..." — the
// same shape the teacher's own terminal log handler produces, minus its
// ANSI colouring and locale-aware number pretty-printing (no script
// running inside this engine emits big.Int-scale log fields, so that
// machinery has nothing to exercise here — see DESIGN.md).
func NewTerminalHandler(w io.Writer, minLevel Level) slog.Handler {
	return &terminalHandler{w: w, minLevel: minLevel}
}

type terminalHandler struct {
	mu       sync.Mutex
	w        io.Writer
	minLevel Level
	attrs    []slog.Attr
}

func (h *terminalHandler) Enabled(_ context.Context, level slog.Level) bool {
	return level >= h.minLevel.slog()
}

func (h *terminalHandler) Handle(_ context.Context, r slog.Record) error {
	var buf bytes.Buffer
	buf.WriteString(Level(r.Level).String())
	buf.WriteString(" [")
	buf.WriteString(r.Time.Format("01-02|15:04:05.000"))
	buf.WriteString("] ")
	buf.WriteString(r.Message)

	fields := make(map[string]string, len(h.attrs)+r.NumAttrs())
	for _, a := range h.attrs {
		fields[a.Key] = a.Value.String()
	}
	r.Attrs(func(a slog.Attr) bool {
		fields[a.Key] = a.Value.String()
		return true
	})
	if len(fields) > 0 {
		keys := make([]string, 0, len(fields))
		for k := range fields {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		for _, k := range keys {
			fmt.Fprintf(&buf, " %s=%s", k, fields[k])
		}
	}
	buf.WriteByte('\n')

	h.mu.Lock()
	defer h.mu.Unlock()
	_, err := h.w.Write(buf.Bytes())
	return err
}

func (h *terminalHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	return &terminalHandler{w: h.w, minLevel: h.minLevel, attrs: append(append([]slog.Attr{}, h.attrs...), attrs...)}
}

func (h *terminalHandler) WithGroup(_ string) slog.Handler {
	// Groups are not given their own key-prefix here — no caller in this
	// engine nests logger groups, unlike the teacher's own handler which
	// supports them for its RPC/p2p subsystems.
	return h
}

// JSONHandler is a thin naming wrapper over slog.NewJSONHandler, for a
// host that wants machine-readable log output instead of the terminal
// format — the same "pick a handler, same Logger either way" shape the
// teacher's own NewGlogHandler/JSONHandler pairing offers.
func JSONHandler(w io.Writer) slog.Handler {
	return slog.NewJSONHandler(w, nil)
}
