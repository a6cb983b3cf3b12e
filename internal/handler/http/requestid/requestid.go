// Package requestid tags every HTTP request with a correlation ID so a
// single request can be followed through the gateway audit log and the
// access log.
package requestid

import (
	"context"
	"net/http"

	"github.com/google/uuid"
)

// contextKey keeps the request ID key private to this package so other
// context values cannot collide with it.
type contextKey string

const (
	// RequestIDKey is the context key under which the ID is stored.
	RequestIDKey contextKey = "request_id"
	// RequestIDHeader is the header the ID is read from and echoed on.
	RequestIDHeader = "X-Request-ID"
)

// FromContext returns the request ID stored in ctx, or "" when none was set.
func FromContext(ctx context.Context) string {
	if id, ok := ctx.Value(RequestIDKey).(string); ok {
		return id
	}
	return ""
}

// WithRequestID returns a child context carrying the given ID.
func WithRequestID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, RequestIDKey, id)
}

// Middleware assigns each request an ID: a caller-supplied X-Request-ID is
// kept, otherwise a fresh UUID v4 is minted. The ID is echoed on the
// response header and stored in the request context for the loggers
// downstream.
func Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		// 呼び出し側が付けたIDを優先する
		requestID := r.Header.Get(RequestIDHeader)
		if requestID == "" {
			requestID = uuid.New().String()
		}

		w.Header().Set(RequestIDHeader, requestID)

		ctx := WithRequestID(r.Context(), requestID)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}
