package redact

import (
	"context"
	"log/slog"
)

// Handler is a slog.Handler that masks secrets in the message and in
// every string, error or Stringer attribute before passing the record on.
type Handler struct {
	inner slog.Handler
	r     *Redactor
}

// Compile-time check.
var _ slog.Handler = (*Handler)(nil)

// NewHandler wraps inner.
func NewHandler(inner slog.Handler, r *Redactor) *Handler {
	return &Handler{inner: inner, r: r}
}

// Logger returns a logger whose output passes through r.
func Logger(l *slog.Logger, r *Redactor) *slog.Logger {
	return slog.New(NewHandler(l.Handler(), r))
}

// Enabled delegates to the inner handler.
func (h *Handler) Enabled(ctx context.Context, level slog.Level) bool {
	return h.inner.Enabled(ctx, level)
}

// Handle implements slog.Handler.
func (h *Handler) Handle(ctx context.Context, record slog.Record) error {
	out := slog.NewRecord(record.Time, record.Level, h.r.String(record.Message), record.PC)
	record.Attrs(func(a slog.Attr) bool {
		out.AddAttrs(h.attr(a))
		return true
	})
	return h.inner.Handle(ctx, out)
}

// WithAttrs implements slog.Handler.
func (h *Handler) WithAttrs(attrs []slog.Attr) slog.Handler {
	masked := make([]slog.Attr, len(attrs))
	for i, a := range attrs {
		masked[i] = h.attr(a)
	}
	return &Handler{inner: h.inner.WithAttrs(masked), r: h.r}
}

// WithGroup implements slog.Handler.
func (h *Handler) WithGroup(name string) slog.Handler {
	return &Handler{inner: h.inner.WithGroup(name), r: h.r}
}

func (h *Handler) attr(a slog.Attr) slog.Attr {
	a.Value = a.Value.Resolve()
	switch a.Value.Kind() {
	case slog.KindString:
		a.Value = slog.StringValue(h.r.String(a.Value.String()))
	case slog.KindGroup:
		group := a.Value.Group()
		masked := make([]slog.Attr, len(group))
		for i, ga := range group {
			masked[i] = h.attr(ga)
		}
		a.Value = slog.GroupValue(masked...)
	case slog.KindAny:
		// Errors and Stringers are flattened only when they carry a secret.
		if s := a.Value.String(); h.r.String(s) != s {
			a.Value = slog.StringValue(h.r.String(s))
		}
	}
	return a
}
