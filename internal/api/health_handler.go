package api

import (
	"context"
	"net/http"
	"time"

	"blogapi/pkg/factory"
	"blogapi/pkg/logger"
)

const healthCheckTimeout = 2 * time.Second

type HealthHandler struct {
	factory factory.Factory
	logger  logger.Logger
}

type HealthResponse struct {
	Status    string                 `json:"status"`
	Timestamp time.Time              `json:"timestamp"`
	Services  map[string]interface{} `json:"services"`
	Version   string                 `json:"version"`
}

func NewHealthHandler(factory factory.Factory, logger logger.Logger) *HealthHandler {
	return &HealthHandler{
		factory: factory,
		logger:  logger,
	}
}

// HealthCheck reports every backing component. A disabled cache is not a
// failure; an unreachable one is.
func (h *HealthHandler) HealthCheck(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), healthCheckTimeout)
	defer cancel()

	services := map[string]interface{}{
		"audit_db":   h.checkAuditDB(ctx),
		"cache":      h.checkCache(ctx),
		"audit_pool": h.checkAuditPool(),
		"stores":     h.checkStores(ctx),
	}

	status := "healthy"
	for _, service := range services {
		if serviceMap, ok := service.(map[string]interface{}); ok {
			if s := serviceMap["status"]; s == "unhealthy" {
				status = "degraded"
				break
			}
		}
	}

	code := http.StatusOK
	if status != "healthy" {
		code = http.StatusServiceUnavailable
		h.logger.WarnContext(r.Context(), "Serviço degradado", map[string]interface{}{"services": services})
	}

	writeJSON(w, code, HealthResponse{
		Status:    status,
		Timestamp: time.Now().UTC(),
		Services:  services,
		Version:   "1.0.0",
	})
}

func (h *HealthHandler) checkAuditDB(ctx context.Context) map[string]interface{} {
	db := h.factory.GetDB()
	if db == nil {
		return map[string]interface{}{
			"status": "unhealthy",
			"error":  "ligação à base de dados inexistente",
		}
	}

	if err := db.PingContext(ctx); err != nil {
		return map[string]interface{}{
			"status": "unhealthy",
			"error":  err.Error(),
		}
	}

	stats := db.Stats()
	return map[string]interface{}{
		"status":           "healthy",
		"driver":           h.factory.GetConfig().Audit.Driver,
		"open_connections": stats.OpenConnections,
		"in_use":           stats.InUse,
		"idle":             stats.Idle,
		"wait_count":       stats.WaitCount,
		"wait_duration":    stats.WaitDuration.String(),
	}
}

func (h *HealthHandler) checkCache(ctx context.Context) map[string]interface{} {
	c := h.factory.GetCache()
	if c == nil {
		return map[string]interface{}{"status": "disabled"}
	}

	result := map[string]interface{}{"status": "healthy"}
	if cb := h.factory.GetCircuitBreaker(); cb != nil {
		result["circuit_breaker"] = cb.Stats()
	}

	if err := c.Ping(ctx); err != nil {
		result["status"] = "unhealthy"
		result["error"] = err.Error()
	}

	return result
}

func (h *HealthHandler) checkAuditPool() map[string]interface{} {
	pool := h.factory.GetAuditPool()
	if pool == nil {
		return map[string]interface{}{"status": "disabled"}
	}

	return map[string]interface{}{
		"status":         "healthy",
		"queue_length":   pool.QueueLength(),
		"queue_capacity": pool.QueueCapacity(),
		"stats":          pool.GetStats(),
	}
}

func (h *HealthHandler) checkStores(ctx context.Context) map[string]interface{} {
	users, err := h.factory.GetUserRepository().Count(ctx)
	if err != nil {
		return map[string]interface{}{"status": "unhealthy", "error": err.Error()}
	}
	posts, err := h.factory.GetPostRepository().Count(ctx)
	if err != nil {
		return map[string]interface{}{"status": "unhealthy", "error": err.Error()}
	}

	return map[string]interface{}{
		"status": "healthy",
		"users":  users,
		"posts":  posts,
	}
}

func (h *HealthHandler) LivenessCheck(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"status":    "alive",
		"timestamp": time.Now().UTC(),
	})
}

// ReadinessCheck requires the audit database, and Redis only while the cache
// is enabled.
func (h *HealthHandler) ReadinessCheck(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), healthCheckTimeout)
	defer cancel()

	issues := make([]string, 0)

	if db := h.factory.GetDB(); db != nil {
		if err := db.PingContext(ctx); err != nil {
			issues = append(issues, "audit_db: "+err.Error())
		}
	} else {
		issues = append(issues, "audit_db: ligação inexistente")
	}

	if c := h.factory.GetCache(); c != nil {
		if err := c.Ping(ctx); err != nil {
			issues = append(issues, "cache: "+err.Error())
		}
	}

	response := map[string]interface{}{
		"timestamp": time.Now().UTC(),
	}

	if len(issues) == 0 {
		response["status"] = "ready"
		writeJSON(w, http.StatusOK, response)
		return
	}

	response["status"] = "not_ready"
	response["issues"] = issues
	writeJSON(w, http.StatusServiceUnavailable, response)
}

func (h *HealthHandler) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("GET /health", h.HealthCheck)
	mux.HandleFunc("GET /health/live", h.LivenessCheck)
	mux.HandleFunc("GET /health/ready", h.ReadinessCheck)
}
