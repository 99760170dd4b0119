package middleware

import (
	"net/http"

	"github.com/google/uuid"

	"blogapi/pkg/tracing"
)

const RequestIDHeader = "X-Request-ID"

// RequestIDMiddleware keeps a caller supplied X-Request-ID or generates one,
// echoes it back and stores it in the request context for the logger.
func RequestIDMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requestID := r.Header.Get(RequestIDHeader)
		if requestID == "" {
			requestID = uuid.NewString()
		}

		w.Header().Set(RequestIDHeader, requestID)
		next.ServeHTTP(w, r.WithContext(tracing.WithRequestID(r.Context(), requestID)))
	})
}

// Chain applies middlewares so the first one listed is the outermost.
func Chain(h http.Handler, middlewares ...func(http.Handler) http.Handler) http.Handler {
	for i := len(middlewares) - 1; i >= 0; i-- {
		h = middlewares[i](h)
	}
	return h
}
