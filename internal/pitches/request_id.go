package pitches

import "context"

type requestIDKey struct{}

// WithRequestID attaches a request ID for logs and events emitted while
// processing a pitch.
func WithRequestID(ctx context.Context, requestID string) context.Context {
	if requestID == "" {
		return ctx
	}
	return context.WithValue(ctx, requestIDKey{}, requestID)
}

func RequestIDFromContext(ctx context.Context) string {
	if id, ok := ctx.Value(requestIDKey{}).(string); ok {
		return id
	}
	return ""
}

// detached keeps the request ID but drops the request's deadline and
// cancellation, for work that outlives the HTTP call.
func detached(ctx context.Context) context.Context {
	return WithRequestID(context.Background(), RequestIDFromContext(ctx))
}
