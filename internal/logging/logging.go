// Package logging configures slog and carries request ids through contexts.
package logging

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"strings"
)

type requestIDKey struct{}

// WithRequestID returns a context whose log records carry id.
func WithRequestID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, requestIDKey{}, id)
}

// RequestIDFromContext returns the request id, or "" if none is set.
func RequestIDFromContext(ctx context.Context) string {
	id, _ := ctx.Value(requestIDKey{}).(string)
	return id
}

// contextHandler adds service and request_id attributes to every record.
type contextHandler struct {
	handler slog.Handler
	service string
}

func (h *contextHandler) Enabled(ctx context.Context, level slog.Level) bool {
	return h.handler.Enabled(ctx, level)
}

func (h *contextHandler) Handle(ctx context.Context, r slog.Record) error {
	r.AddAttrs(slog.String("service", h.service))
	if id := RequestIDFromContext(ctx); id != "" {
		r.AddAttrs(slog.String("request_id", id))
	}
	return h.handler.Handle(ctx, r)
}

func (h *contextHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	return &contextHandler{handler: h.handler.WithAttrs(attrs), service: h.service}
}

func (h *contextHandler) WithGroup(name string) slog.Handler {
	return &contextHandler{handler: h.handler.WithGroup(name), service: h.service}
}

// ParseLevel converts a level name into a slog.Level.
func ParseLevel(s string) (slog.Level, error) {
	var level slog.Level
	if err := level.UnmarshalText([]byte(strings.ToUpper(s))); err != nil {
		return slog.LevelInfo, fmt.Errorf("parse log level %q: %w", s, err)
	}
	return level, nil
}

// Setup builds a logger. format is "json", "text", or "both" (text to out,
// JSON to errOut).
func Setup(service, format string, level slog.Level, out, errOut io.Writer) *slog.Logger {
	opts := &slog.HandlerOptions{Level: level}

	var base slog.Handler
	switch format {
	case "text":
		base = slog.NewTextHandler(out, opts)
	case "both":
		base = slog.NewMultiHandler(
			slog.NewTextHandler(out, opts),
			slog.NewJSONHandler(errOut, opts),
		)
	default:
		base = slog.NewJSONHandler(out, opts)
	}

	return slog.New(&contextHandler{handler: base, service: service})
}
