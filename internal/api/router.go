package api

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"blogapi/internal/api/middleware"
	"blogapi/pkg/factory"
)

// NewRouter registers every route on a fresh mux and wraps it in the
// middleware chain. The metrics middleware sits closest to the mux.
func NewRouter(f factory.Factory) http.Handler {
	log := f.GetLogger()
	mux := http.NewServeMux()

	NewUserHandler(f.GetUserService(), log).RegisterRoutes(mux)
	NewPostHandler(f.GetPostService(), log).RegisterRoutes(mux)
	NewAuditLogHandler(f.GetAuditLogService(), log).RegisterRoutes(mux)
	NewHealthHandler(f, log).RegisterRoutes(mux)

	mux.Handle("GET /metrics", promhttp.Handler())

	return middleware.Chain(mux,
		middleware.RequestIDMiddleware,
		middleware.TracingMiddleware,
		middleware.LoggingMiddleware(log),
		middleware.MetricsMiddleware,
	)
}
