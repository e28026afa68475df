package localauth

import (
	"context"

	"github.com/google/uuid"
)

type requestIDContextKey struct{}

// WithRequestID attaches a correlation id to ctx. Audit events emitted while
// handling ctx carry it in request_id.
func WithRequestID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, requestIDContextKey{}, id)
}

// NewRequestContext attaches a freshly generated request id to ctx. Page
// handlers call it once per form submission.
func NewRequestContext(ctx context.Context) context.Context {
	return WithRequestID(ctx, uuid.NewString())
}

func requestIDFromContext(ctx context.Context) string {
	if ctx == nil {
		return ""
	}

	id, _ := ctx.Value(requestIDContextKey{}).(string)
	return id
}
