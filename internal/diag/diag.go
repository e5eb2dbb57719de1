// Package diag is a small structured-logging wrapper around log/slog, in
// the style of a board-support logger: one place to point the hypervisor's
// diagnostic output at a destination (stderr in production, a captured
// buffer in tests), without the engine packages importing slog handler
// details directly.
package diag

import (
	"context"
	"io"
	"log/slog"
	"sync"
	"time"
)

// Handler is a minimal slog.Handler that timestamps, serializes, and writes
// each record to out under a mutex, the same shape as a typical emulator's
// single-writer console logger.
type Handler struct {
	out   io.Writer
	mu    *sync.Mutex
	level slog.Leveler
}

// NewHandler returns a Handler writing to out. level may be nil, in which
// case slog.LevelInfo is used.
func NewHandler(out io.Writer, level slog.Leveler) *Handler {
	if level == nil {
		level = slog.LevelInfo
	}
	return &Handler{out: out, mu: &sync.Mutex{}, level: level}
}

func (h *Handler) Enabled(_ context.Context, level slog.Level) bool {
	return level >= h.level.Level()
}

func (h *Handler) WithAttrs(_ []slog.Attr) slog.Handler { return h }
func (h *Handler) WithGroup(_ string) slog.Handler      { return h }

func (h *Handler) Handle(_ context.Context, r slog.Record) error {
	line := r.Time.Format(time.RFC3339) + " " + r.Level.String() + ": " + r.Message
	r.Attrs(func(a slog.Attr) bool {
		line += " " + a.Key + "=" + a.Value.String()
		return true
	})
	line += "\n"

	h.mu.Lock()
	defer h.mu.Unlock()
	_, err := io.WriteString(h.out, line)
	return err
}

// New returns a *slog.Logger backed by Handler.
func New(out io.Writer, level slog.Leveler) *slog.Logger {
	return slog.New(NewHandler(out, level))
}
