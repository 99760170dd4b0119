package api

import (
	"net/http"
	"strconv"

	"blogapi/internal/domain"
	"blogapi/pkg/logger"
)

type AuditLogHandler struct {
	service domain.AuditLogService
	logger  logger.Logger
}

func NewAuditLogHandler(service domain.AuditLogService, logger logger.Logger) *AuditLogHandler {
	return &AuditLogHandler{
		service: service,
		logger:  logger,
	}
}

// GetLogs lists every audit entry, or only those of one entity when both
// entity_type and entity_id are given.
func (h *AuditLogHandler) GetLogs(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()
	entityTypeStr := query.Get("entity_type")
	entityIDStr := query.Get("entity_id")

	if entityTypeStr == "" && entityIDStr == "" {
		logs, err := h.service.GetAllLogs(r.Context())
		if err != nil {
			writeError(w, r, h.logger, err)
			return
		}
		writeJSON(w, http.StatusOK, logs)
		return
	}

	if entityTypeStr == "" || entityIDStr == "" {
		writeError(w, r, h.logger, domain.InvalidInput(domain.MsgAuditFilterIncomplete))
		return
	}

	entityType := domain.EntityType(entityTypeStr)
	if !entityType.Valid() {
		writeError(w, r, h.logger, domain.InvalidInput(domain.MsgInvalidAuditEntity))
		return
	}

	entityID, err := strconv.ParseInt(entityIDStr, 10, 64)
	if err != nil {
		writeError(w, r, h.logger, domain.InvalidInput(domain.MsgInvalidAuditEntityID))
		return
	}

	logs, err := h.service.GetEntityLogs(r.Context(), entityType, entityID)
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}

	writeJSON(w, http.StatusOK, logs)
}

func (h *AuditLogHandler) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("GET /audit-logs", h.GetLogs)
}
