package httpclient

import (
	"context"

	"github.com/gofrs/uuid/v5"
)

// RequestIDHeader carries the correlation id of each request.
const RequestIDHeader = "X-Request-ID"

type ctxKey string

const requestIDKey ctxKey = "eco.requestID"

// WithRequestID stores a correlation id used for the next requests made with ctx.
func WithRequestID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, requestIDKey, id)
}

// RequestIDFromCtx fetches the correlation id from context.
func RequestIDFromCtx(ctx context.Context) (string, bool) {
	id, ok := ctx.Value(requestIDKey).(string)
	return id, ok && id != ""
}

func requestID(ctx context.Context) string {
	if id, ok := RequestIDFromCtx(ctx); ok {
		return id
	}
	id, err := uuid.NewV4()
	if err != nil {
		return ""
	}
	return id.String()
}
