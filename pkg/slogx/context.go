package slogx

import (
	"context"
	"log/slog"
	"sync"
)

type ctxKey struct{}

type attrsKey struct{}

// WithContext stores logger in ctx.
func WithContext(ctx context.Context, logger *slog.Logger) context.Context {
	return context.WithValue(ctx, ctxKey{}, logger)
}

// FromContext returns the request logger, falling back to slog.Default.
func FromContext(ctx context.Context) *slog.Logger {
	l, ok := ctx.Value(ctxKey{}).(*slog.Logger)
	if !ok {
		return slog.Default()
	}
	return l
}

// requestAttrs collects attributes discovered while a request is being served
// (e.g. the authenticated user) so the access log line can carry them.
type requestAttrs struct {
	mu    sync.Mutex
	attrs []slog.Attr
}

// Annotate adds attrs to the request log line and to the contextual logger
// returned for ctx. Outside HTTPMiddleware it only enriches the logger.
func Annotate(ctx context.Context, attrs ...slog.Attr) context.Context {
	if ra, ok := ctx.Value(attrsKey{}).(*requestAttrs); ok {
		ra.mu.Lock()
		ra.attrs = append(ra.attrs, attrs...)
		ra.mu.Unlock()
	}

	args := make([]any, 0, len(attrs))
	for _, a := range attrs {
		args = append(args, a)
	}
	return WithContext(ctx, FromContext(ctx).With(args...))
}

func (ra *requestAttrs) snapshot() []any {
	ra.mu.Lock()
	defer ra.mu.Unlock()

	out := make([]any, 0, len(ra.attrs))
	for _, a := range ra.attrs {
		out = append(out, a)
	}
	return out
}
