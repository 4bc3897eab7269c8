package telemetry

import (
	"context"
	"io"
	"log/slog"
	"strings"

	"go.opentelemetry.io/otel/trace"
)

const redacted = "[REDACTED]"

// secretKeys are attribute keys whose values never reach the log output.
var secretKeys = map[string]struct{}{
	"password":      {},
	"pwd":           {},
	"app_password":  {},
	"root_password": {},
}

// NewLogger returns a JSON logger writing to w at level, with secret
// attributes redacted and trace_id / span_id attached to records logged with
// a span in their context.
func NewLogger(w io.Writer, level slog.Level) *slog.Logger {
	h := slog.NewJSONHandler(w, &slog.HandlerOptions{
		Level:       level,
		ReplaceAttr: RedactSecrets,
	})
	return slog.New(NewTraceHandler(h))
}

// ParseLevel maps a config or flag value to a slog.Level. Unknown values
// fall back to info.
func ParseLevel(level string) slog.Level {
	switch strings.ToLower(level) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// RedactSecrets is a slog ReplaceAttr func that masks password-like keys at
// any group depth.
func RedactSecrets(_ []string, a slog.Attr) slog.Attr {
	if _, ok := secretKeys[strings.ToLower(a.Key)]; ok {
		return slog.String(a.Key, redacted)
	}
	return a
}

// TraceHandler wraps a slog.Handler and adds "trace_id" and "span_id" to
// records whose context carries a valid span. Only the *Context logging
// calls carry the span through.
type TraceHandler struct {
	slog.Handler
}

// NewTraceHandler wraps h with trace-context injection.
func NewTraceHandler(h slog.Handler) *TraceHandler {
	return &TraceHandler{Handler: h}
}

func (t *TraceHandler) Handle(ctx context.Context, r slog.Record) error {
	if sc := trace.SpanContextFromContext(ctx); sc.IsValid() {
		r.AddAttrs(
			slog.String("trace_id", sc.TraceID().String()),
			slog.String("span_id", sc.SpanID().String()),
		)
	}
	return t.Handler.Handle(ctx, r)
}

func (t *TraceHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	return &TraceHandler{Handler: t.Handler.WithAttrs(attrs)}
}

func (t *TraceHandler) WithGroup(name string) slog.Handler {
	return &TraceHandler{Handler: t.Handler.WithGroup(name)}
}
