package middleware

import (
	"net/http"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"

	"blogapi/pkg/tracing"
)

// TracingMiddleware names spans after the matched route pattern, never the
// raw path, so ids stay out of span names. Unmatched requests keep the
// method-only name.
func TracingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracing.StartSpan(r.Context(), "HTTP "+r.Method)
		defer span.End()

		span.SetAttributes(
			attribute.String("http.method", r.Method),
			attribute.String("http.target", r.URL.Path),
			attribute.String("http.user_agent", r.UserAgent()),
			attribute.String("http.remote_addr", r.RemoteAddr),
		)
		if requestID := tracing.GetRequestID(ctx); requestID != "" {
			span.SetAttributes(attribute.String("http.request_id", requestID))
		}

		if traceID := tracing.GetTraceID(ctx); traceID != "" {
			w.Header().Set("X-Trace-ID", traceID)
		}

		rw := &responseWriter{
			ResponseWriter: w,
			statusCode:     http.StatusOK,
		}

		// The mux records the pattern on the request it is handed.
		req := r.WithContext(ctx)
		next.ServeHTTP(rw, req)

		if req.Pattern != "" {
			span.SetName(req.Pattern)
			span.SetAttributes(attribute.String("http.route", req.Pattern))
		}
		span.SetAttributes(attribute.Int("http.status_code", rw.statusCode))
		if rw.statusCode >= 500 {
			span.SetStatus(codes.Error, http.StatusText(rw.statusCode))
		}
	})
}
