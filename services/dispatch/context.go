package dispatch

import "context"

type contextKey string

const callerContextKey contextKey = "aimux.caller"

// WithCaller attaches the caller identity used for audit records.
func WithCaller(ctx context.Context, callerID string) context.Context {
	return context.WithValue(ctx, callerContextKey, callerID)
}

// CallerFromContext returns the caller identity, or "" when none was set.
func CallerFromContext(ctx context.Context) string {
	if v, ok := ctx.Value(callerContextKey).(string); ok {
		return v
	}
	return ""
}
