package ratelimit

import "context"

type callerIDKey struct{}

// WithCallerID attaches the authenticated caller ID to ctx, so Middleware
// (which runs after auth middleware in the chain) can key the limiter on it.
func WithCallerID(ctx context.Context, callerID string) context.Context {
	return context.WithValue(ctx, callerIDKey{}, callerID)
}

// CallerIDFromContext returns the caller ID attached by WithCallerID, or ""
// if none was set (unauthenticated request).
func CallerIDFromContext(ctx context.Context) string {
	v, _ := ctx.Value(callerIDKey{}).(string)
	return v
}
