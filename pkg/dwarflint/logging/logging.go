// Package logging provides dwarflint's process-wide structured logger:
// trace lines fan out, via github.com/samber/slog-multi, to a
// human-readable stderr stream (only under --verbose) and into a
// fixed-capacity in-memory ring always available for Tail.
package logging

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"sync"

	slogmulti "github.com/samber/slog-multi"
)

const defaultCapacity = 512

// Logger wraps a *slog.Logger with a Tail method over its ring buffer.
type Logger struct {
	*slog.Logger
	ring *ringHandler
}

// New builds a Logger. verbose additionally fans trace records out to
// stderr as human-readable text at slog.LevelDebug; capacity bounds the
// ring buffer (<=0 selects a sane default). The scheduler logs check
// start/finish/failure at LevelDebug; the top-level driver logs a failed
// top-level check at LevelDebug too.
func New(stderr io.Writer, verbose bool, capacity int) *Logger {
	ring := newRingHandler(capacity)
	handlers := []slog.Handler{ring}
	if verbose {
		handlers = append(handlers, slog.NewTextHandler(stderr, &slog.HandlerOptions{Level: slog.LevelDebug}))
	}
	return &Logger{Logger: slog.New(slogmulti.Fanout(handlers...)), ring: ring}
}

// Tail writes the last n recorded trace lines to w, oldest first,
// formatted as "tag: message".
func (l *Logger) Tail(w io.Writer, n int) {
	l.ring.tail(w, n)
}

type ringEntry struct {
	tag     string
	message string
}

// ringHandler is a slog.Handler that only ever retains the most recent
// capacity records, keyed for display by a "check" or "tag" attribute.
type ringHandler struct {
	mu       sync.Mutex
	capacity int
	entries  []ringEntry
}

func newRingHandler(capacity int) *ringHandler {
	if capacity <= 0 {
		capacity = defaultCapacity
	}
	return &ringHandler{capacity: capacity}
}

func (h *ringHandler) Enabled(context.Context, slog.Level) bool { return true }

func (h *ringHandler) Handle(_ context.Context, r slog.Record) error {
	tag := "dwarflint"
	r.Attrs(func(a slog.Attr) bool {
		switch a.Key {
		case "check", "tag":
			tag = a.Value.String()
			return false
		}
		return true
	})

	h.mu.Lock()
	defer h.mu.Unlock()
	h.entries = append(h.entries, ringEntry{tag: tag, message: r.Message})
	if len(h.entries) > h.capacity {
		h.entries = h.entries[len(h.entries)-h.capacity:]
	}
	return nil
}

func (h *ringHandler) WithAttrs(_ []slog.Attr) slog.Handler { return h }
func (h *ringHandler) WithGroup(_ string) slog.Handler      { return h }

func (h *ringHandler) tail(w io.Writer, n int) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if n > len(h.entries) {
		n = len(h.entries)
	}
	if n < 0 {
		n = 0
	}
	for _, e := range h.entries[len(h.entries)-n:] {
		fmt.Fprintf(w, "%s: %s\n", e.tag, e.message)
	}
}
