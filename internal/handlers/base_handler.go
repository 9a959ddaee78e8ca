package handlers

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"github.com/caiinstall/caictl/internal/services"
	"go.uber.org/zap"
)

// BaseHandler provides the JSON helpers shared by panel handlers
type BaseHandler struct {
	logger *zap.Logger
}

// respondJSON sends a JSON response
func (h *BaseHandler) respondJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		h.logger.Error("failed to encode JSON response", zap.Error(err))
	}
}

// respondError sends an error JSON response
func (h *BaseHandler) respondError(w http.ResponseWriter, status int, message string) {
	h.respondJSON(w, status, map[string]string{"error": message})
}

// decodeJSON reads a JSON body into dst
func (h *BaseHandler) decodeJSON(r *http.Request, dst any) error {
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
		return fmt.Errorf("invalid request body: %w", err)
	}
	return nil
}

// respondTaskError maps task lifecycle errors to status codes
func (h *BaseHandler) respondTaskError(w http.ResponseWriter, err error) {
	var (
		validationErr *services.ValidationError
		submissionErr *services.SubmissionError
	)
	switch {
	case errors.As(err, &validationErr):
		h.respondError(w, http.StatusBadRequest, validationErr.Error())
	case errors.Is(err, services.ErrTaskRunning), errors.Is(err, services.ErrSelectionNotReady):
		h.respondError(w, http.StatusConflict, err.Error())
	case errors.Is(err, services.ErrNoSelection):
		h.respondError(w, http.StatusNotFound, err.Error())
	case errors.Is(err, services.ErrInvalidCandidate):
		h.respondError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, services.ErrHistoryDisabled):
		h.respondError(w, http.StatusServiceUnavailable, err.Error())
	case errors.As(err, &submissionErr):
		h.respondError(w, http.StatusBadGateway, err.Error())
	default:
		h.logger.Error("task request failed", zap.Error(err))
		h.respondError(w, http.StatusInternalServerError, "internal server error")
	}
}
