package services

import "context"

type contextKey string

const (
	captureIDKey contextKey = "capture_id"
	requestIDKey contextKey = "request_id"
)

// WithCaptureID annotates context with the capture cycle identifier.
func WithCaptureID(ctx context.Context, id string) context.Context {
	if id == "" {
		return ctx
	}
	return context.WithValue(ctx, captureIDKey, id)
}

// CaptureIDFromContext extracts the capture cycle identifier if present.
func CaptureIDFromContext(ctx context.Context) (string, bool) {
	if v, ok := ctx.Value(captureIDKey).(string); ok && v != "" {
		return v, true
	}
	return "", false
}

// WithRequestID annotates context with a correlation identifier.
func WithRequestID(ctx context.Context, id string) context.Context {
	if id == "" {
		return ctx
	}
	return context.WithValue(ctx, requestIDKey, id)
}

// RequestIDFromContext extracts the correlation identifier if present.
func RequestIDFromContext(ctx context.Context) (string, bool) {
	if v, ok := ctx.Value(requestIDKey).(string); ok && v != "" {
		return v, true
	}
	return "", false
}
