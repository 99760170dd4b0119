package api

import (
	"net/http"

	"blogapi/internal/domain"
	"blogapi/pkg/logger"
)

// UserIDHeader identifies the acting user on post deletion.
const UserIDHeader = "User-Id"

type PostHandler struct {
	service domain.PostService
	logger  logger.Logger
}

func NewPostHandler(service domain.PostService, logger logger.Logger) *PostHandler {
	return &PostHandler{
		service: service,
		logger:  logger,
	}
}

func (h *PostHandler) CreatePost(w http.ResponseWriter, r *http.Request) {
	body, err := decodeBody(r)
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}

	post, err := h.service.CreatePost(r.Context(), body)
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}

	writeJSON(w, http.StatusCreated, map[string]interface{}{
		"message": domain.MsgPostCreated,
		"post":    post,
	})
}

func (h *PostHandler) PatchPost(w http.ResponseWriter, r *http.Request) {
	body, err := decodeBody(r)
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}

	post, err := h.service.PatchPost(r.Context(), r.PathValue("id"), body)
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"message": domain.MsgPostUpdated,
		"post":    post,
	})
}

func (h *PostHandler) DeletePost(w http.ResponseWriter, r *http.Request) {
	if err := h.service.DeletePost(r.Context(), r.PathValue("id"), r.Header.Get(UserIDHeader)); err != nil {
		writeError(w, r, h.logger, err)
		return
	}

	writeJSON(w, http.StatusOK, messageResponse{Message: domain.MsgPostDeleted})
}

func (h *PostHandler) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("POST /posts", h.CreatePost)
	mux.HandleFunc("PATCH /posts/{id}", h.PatchPost)
	mux.HandleFunc("DELETE /posts/{id}", h.DeletePost)
}
