package maxitaxi

import "context"

type requestIDContextKey struct{}

// WithRequestID attaches a caller-chosen request identifier to ctx. The
// dispatcher propagates it as the X-Request-ID header; when absent, a fresh
// UUID is generated per call.
func WithRequestID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, requestIDContextKey{}, id)
}

func requestIDFromContext(ctx context.Context) string {
	if ctx == nil {
		return ""
	}

	id, _ := ctx.Value(requestIDContextKey{}).(string)
	return id
}
