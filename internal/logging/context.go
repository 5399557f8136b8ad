package logging

import (
	"context"
	"log/slog"
)

type ctxKey int

const (
	graphIDKey ctxKey = iota
	resourceKey
	channelIDKey
)

// WithGraphID returns a context with the DAG/job graph ID set.
func WithGraphID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, graphIDKey, id)
}

// WithResource returns a context with the resource (collection) name set.
func WithResource(ctx context.Context, name string) context.Context {
	return context.WithValue(ctx, resourceKey, name)
}

// WithChannelID returns a context with the channel client ID set.
func WithChannelID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, channelIDKey, id)
}

// GraphID extracts the graph ID from the context, or "" if absent.
func GraphID(ctx context.Context) string {
	v, _ := ctx.Value(graphIDKey).(string)
	return v
}

// Resource extracts the resource name from the context, or "" if absent.
func Resource(ctx context.Context) string {
	v, _ := ctx.Value(resourceKey).(string)
	return v
}

// ChannelID extracts the channel client ID from the context, or "" if absent.
func ChannelID(ctx context.Context) string {
	v, _ := ctx.Value(channelIDKey).(string)
	return v
}

// LogWith returns a logger enriched with correlation IDs from the context.
// Only non-empty values are added as attributes.
func LogWith(ctx context.Context, logger *slog.Logger) *slog.Logger {
	if gID := GraphID(ctx); gID != "" {
		logger = logger.With(slog.String("graph_id", gID))
	}
	if res := Resource(ctx); res != "" {
		logger = logger.With(slog.String("resource", res))
	}
	if cID := ChannelID(ctx); cID != "" {
		logger = logger.With(slog.String("channel_id", cID))
	}
	return logger
}

// CorrelationHandler wraps an slog.Handler, automatically injecting
// correlation IDs from the context into every log record.
// Use with slog.New(NewCorrelationHandler(inner)) so callers can use
// logger.InfoContext(ctx, ...) and IDs appear automatically.
type CorrelationHandler struct {
	inner slog.Handler
}

// NewCorrelationHandler wraps the given handler with automatic correlation ID injection.
func NewCorrelationHandler(inner slog.Handler) *CorrelationHandler {
	return &CorrelationHandler{inner: inner}
}

func (h *CorrelationHandler) Enabled(ctx context.Context, level slog.Level) bool {
	return h.inner.Enabled(ctx, level)
}

func (h *CorrelationHandler) Handle(ctx context.Context, r slog.Record) error {
	if v := GraphID(ctx); v != "" {
		r.AddAttrs(slog.String("graph_id", v))
	}
	if v := Resource(ctx); v != "" {
		r.AddAttrs(slog.String("resource", v))
	}
	if v := ChannelID(ctx); v != "" {
		r.AddAttrs(slog.String("channel_id", v))
	}
	return h.inner.Handle(ctx, r)
}

func (h *CorrelationHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	return &CorrelationHandler{inner: h.inner.WithAttrs(attrs)}
}

func (h *CorrelationHandler) WithGroup(name string) slog.Handler {
	return &CorrelationHandler{inner: h.inner.WithGroup(name)}
}
