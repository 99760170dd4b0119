package middleware

import (
	"net/http"
	"time"

	"blogapi/pkg/logger"
)

func LoggingMiddleware(log logger.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			rw := &responseWriter{
				ResponseWriter: w,
				statusCode:     http.StatusOK,
			}

			next.ServeHTTP(rw, r)

			fields := map[string]interface{}{
				"method":   r.Method,
				"path":     r.URL.Path,
				"status":   rw.statusCode,
				"duration": time.Since(start).String(),
			}
			if rw.statusCode >= http.StatusInternalServerError {
				log.ErrorContext(r.Context(), "Requisição HTTP", fields)
				return
			}
			log.InfoContext(r.Context(), "Requisição HTTP", fields)
		})
	}
}
