package middleware

import (
	"context"
	"net/http"

	"formquery/internal/domain"
)

type ctxKeyRequestID struct{}

const requestIDHeader = "X-Request-ID"

// maxRequestIDLen bounds client-supplied ids so they stay log-friendly.
const maxRequestIDLen = 128

// RequestID tags each request with an id for log correlation. A
// well-formed id supplied by the client is kept so a caller can trace
// its request through our logs; anything else is replaced with a fresh
// id to keep header content out of the logs.
func RequestID(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := r.Header.Get(requestIDHeader)
		if !validRequestID(id) {
			id = domain.NewID()
		}
		w.Header().Set(requestIDHeader, id)
		ctx := context.WithValue(r.Context(), ctxKeyRequestID{}, id)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// RequestIDFromContext returns the id set by RequestID, or "".
func RequestIDFromContext(ctx context.Context) string {
	id, _ := ctx.Value(ctxKeyRequestID{}).(string)
	return id
}

// validRequestID accepts only the charset safe to echo into logs and
// response headers.
func validRequestID(id string) bool {
	if id == "" || len(id) > maxRequestIDLen {
		return false
	}
	for i := 0; i < len(id); i++ {
		c := id[i]
		switch {
		case c >= 'a' && c <= 'z':
		case c >= 'A' && c <= 'Z':
		case c >= '0' && c <= '9':
		case c == '-' || c == '_':
		default:
			return false
		}
	}
	return true
}
