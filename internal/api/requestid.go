package api

import (
	"context"

	"github.com/google/uuid"
)

type requestIDKey struct{}

// HeaderRequestID carries the workflow correlation id.
const HeaderRequestID = "X-Request-ID"

// NewRequestID returns a fresh correlation id.
func NewRequestID() string {
	return uuid.NewString()
}

// WithRequestID attaches a correlation id to ctx. All remote calls made with
// the returned context send the same X-Request-ID.
func WithRequestID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, requestIDKey{}, id)
}

// RequestIDFromContext returns the id attached by WithRequestID, or "".
func RequestIDFromContext(ctx context.Context) string {
	id, _ := ctx.Value(requestIDKey{}).(string)
	return id
}
