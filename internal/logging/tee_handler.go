package logging

import (
	"context"
	"errors"
	"log/slog"
)

// teeHandler duplicates records to the console and the log file. Each branch
// keeps its own level, so the file can record debug output while the console
// stays at the configured level.
type teeHandler struct {
	branches []slog.Handler
}

func newTeeHandler(branches ...slog.Handler) slog.Handler {
	kept := branches[:0:0]
	for _, b := range branches {
		if b != nil {
			kept = append(kept, b)
		}
	}
	if len(kept) == 0 {
		return NoopHandler{}
	}
	if len(kept) == 1 {
		return kept[0]
	}
	return &teeHandler{branches: kept}
}

func (h *teeHandler) Enabled(ctx context.Context, level slog.Level) bool {
	for _, b := range h.branches {
		if b.Enabled(ctx, level) {
			return true
		}
	}
	return false
}

func (h *teeHandler) Handle(ctx context.Context, record slog.Record) error {
	var errs []error
	for _, b := range h.branches {
		if !b.Enabled(ctx, record.Level) {
			continue
		}
		if err := b.Handle(ctx, record.Clone()); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

func (h *teeHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	return h.each(func(b slog.Handler) slog.Handler { return b.WithAttrs(attrs) })
}

func (h *teeHandler) WithGroup(name string) slog.Handler {
	return h.each(func(b slog.Handler) slog.Handler { return b.WithGroup(name) })
}

func (h *teeHandler) each(fn func(slog.Handler) slog.Handler) slog.Handler {
	next := make([]slog.Handler, len(h.branches))
	for i, b := range h.branches {
		next[i] = fn(b)
	}
	return &teeHandler{branches: next}
}
