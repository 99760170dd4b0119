package api

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"blogapi/internal/domain"
	"blogapi/pkg/logger"
	"blogapi/pkg/metrics"
)

type messageResponse struct {
	Message string `json:"message"`
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

// writeError sends gate failures with their own message and status. Any
// other error is logged and reported as a generic 500.
func writeError(w http.ResponseWriter, r *http.Request, log logger.Logger, err error) {
	var gateErr *domain.Error
	if errors.As(err, &gateErr) {
		status, kind := statusFor(gateErr.Kind)
		metrics.RecordGateRejection(routeLabel(r), kind)
		writeJSON(w, status, messageResponse{Message: gateErr.Message})
		return
	}

	log.ErrorContext(r.Context(), "Erro interno ao processar requisição", map[string]interface{}{
		"method": r.Method,
		"path":   r.URL.Path,
		"error":  err.Error(),
	})
	writeJSON(w, http.StatusInternalServerError, messageResponse{Message: domain.MsgInternalError})
}

func statusFor(kind error) (int, string) {
	switch {
	case errors.Is(kind, domain.ErrInvalidInput):
		return http.StatusBadRequest, "invalid_input"
	case errors.Is(kind, domain.ErrNotFound):
		return http.StatusNotFound, "not_found"
	case errors.Is(kind, domain.ErrConflict):
		return http.StatusConflict, "conflict"
	case errors.Is(kind, domain.ErrForbidden):
		return http.StatusForbidden, "forbidden"
	default:
		return http.StatusInternalServerError, "internal"
	}
}

func routeLabel(r *http.Request) string {
	if r.Pattern == "" {
		return "unmatched"
	}
	return r.Pattern
}

// decodeBody reads a JSON object keeping every value raw so the services can
// tell absent, null and mistyped fields apart. An empty body is an empty
// object; `null` is one too.
func decodeBody(r *http.Request) (map[string]json.RawMessage, error) {
	body := make(map[string]json.RawMessage)
	if r.Body == nil {
		return body, nil
	}

	err := json.NewDecoder(r.Body).Decode(&body)
	if errors.Is(err, io.EOF) {
		return make(map[string]json.RawMessage), nil
	}
	if err != nil {
		return nil, domain.InvalidInput(domain.MsgInvalidBody)
	}
	if body == nil {
		body = make(map[string]json.RawMessage)
	}
	return body, nil
}
