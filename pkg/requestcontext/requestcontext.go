// Package requestcontext carries per-request metadata through context values
// so domain services can enrich logs and audit events without depending on
// the transport layer.
package requestcontext

import "context"

type requestIDKey struct{}
type userAgentKey struct{}
type deviceKey struct{}

// WithRequestID stores the correlation ID for this request.
func WithRequestID(ctx context.Context, requestID string) context.Context {
	return context.WithValue(ctx, requestIDKey{}, requestID)
}

// RequestID retrieves the correlation ID, or "" when absent.
func RequestID(ctx context.Context) string {
	if id, ok := ctx.Value(requestIDKey{}).(string); ok {
		return id
	}
	return ""
}

// WithUserAgent stores the raw User-Agent header value.
func WithUserAgent(ctx context.Context, userAgent string) context.Context {
	return context.WithValue(ctx, userAgentKey{}, userAgent)
}

// UserAgent retrieves the raw User-Agent header value, or "" when absent.
func UserAgent(ctx context.Context) string {
	if ua, ok := ctx.Value(userAgentKey{}).(string); ok {
		return ua
	}
	return ""
}

// WithDevice stores a parsed device summary (browser/OS) for audit trails.
func WithDevice(ctx context.Context, device string) context.Context {
	return context.WithValue(ctx, deviceKey{}, device)
}

// Device retrieves the parsed device summary, or "" when absent.
func Device(ctx context.Context) string {
	if d, ok := ctx.Value(deviceKey{}).(string); ok {
		return d
	}
	return ""
}
