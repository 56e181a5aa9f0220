package logging

import (
	"context"
	"log/slog"
	"sync/atomic"
)

// handlerRef is a swappable handler target shared by all loggers of a module.
type handlerRef struct {
	p atomic.Pointer[slog.Handler]
}

func (r *handlerRef) set(h slog.Handler) { r.p.Store(&h) }

func (r *handlerRef) load() slog.Handler { return *r.p.Load() }

// dynamicHandler resolves its target on every record, so loggers handed out
// before Initialize pick up sinks added later.
type dynamicHandler struct {
	ref *handlerRef
	ops []func(slog.Handler) slog.Handler // WithAttrs/WithGroup calls in order
}

func (d *dynamicHandler) resolve() slog.Handler {
	h := d.ref.load()
	for _, op := range d.ops {
		h = op(h)
	}
	return h
}

// Enabled implements slog.Handler.
func (d *dynamicHandler) Enabled(ctx context.Context, level slog.Level) bool {
	return d.ref.load().Enabled(ctx, level)
}

// Handle implements slog.Handler.
func (d *dynamicHandler) Handle(ctx context.Context, r slog.Record) error {
	return d.resolve().Handle(ctx, r)
}

// WithAttrs implements slog.Handler.
func (d *dynamicHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	return d.with(func(h slog.Handler) slog.Handler { return h.WithAttrs(attrs) })
}

// WithGroup implements slog.Handler.
func (d *dynamicHandler) WithGroup(name string) slog.Handler {
	if name == "" {
		return d
	}
	return d.with(func(h slog.Handler) slog.Handler { return h.WithGroup(name) })
}

func (d *dynamicHandler) with(op func(slog.Handler) slog.Handler) *dynamicHandler {
	ops := make([]func(slog.Handler) slog.Handler, len(d.ops), len(d.ops)+1)
	copy(ops, d.ops)
	return &dynamicHandler{ref: d.ref, ops: append(ops, op)}
}
