package api

import (
	"net/http"

	"blogapi/internal/domain"
	"blogapi/pkg/logger"
)

type UserHandler struct {
	service domain.UserService
	logger  logger.Logger
}

func NewUserHandler(service domain.UserService, logger logger.Logger) *UserHandler {
	return &UserHandler{
		service: service,
		logger:  logger,
	}
}

func (h *UserHandler) GetUserByID(w http.ResponseWriter, r *http.Request) {
	user, err := h.service.GetUserByID(r.Context(), r.PathValue("id"))
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}

	writeJSON(w, http.StatusOK, user)
}

func (h *UserHandler) GetUsersByAgeRange(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()

	users, err := h.service.GetUsersByAgeRange(r.Context(), query.Get("min"), query.Get("max"))
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}

	writeJSON(w, http.StatusOK, users)
}

func (h *UserHandler) UpdateUser(w http.ResponseWriter, r *http.Request) {
	body, err := decodeBody(r)
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}

	user, err := h.service.UpdateUser(r.Context(), r.PathValue("id"), body)
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"message": domain.MsgUserUpdated,
		"user":    user,
	})
}

func (h *UserHandler) CleanupInactiveUsers(w http.ResponseWriter, r *http.Request) {
	removed, err := h.service.CleanupInactiveUsers(r.Context(), r.URL.Query().Get("confirm"))
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"message":      domain.MsgCleanupDone,
		"removedUsers": removed,
	})
}

func (h *UserHandler) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("GET /users/age-range", h.GetUsersByAgeRange)
	mux.HandleFunc("GET /users/{id}", h.GetUserByID)
	mux.HandleFunc("PUT /users/{id}", h.UpdateUser)
	mux.HandleFunc("DELETE /users/cleanup-inactive", h.CleanupInactiveUsers)
}
