package context

import (
	"context"
)

const contextKeyTraceID = contextKey("trace.id")

// TraceIDFromContext returns the request trace id set by the tracing middleware.
// An empty id is reported as absent.
func TraceIDFromContext(ctx context.Context) (string, bool) {
	traceID, ok := ctx.Value(contextKeyTraceID).(string)

	return traceID, ok && traceID != ""
}

// WithTraceID attaches the trace id echoed in X-Request-ID and added to every log record.
func WithTraceID(ctx context.Context, traceID string) context.Context {
	return context.WithValue(ctx, contextKeyTraceID, traceID)
}
