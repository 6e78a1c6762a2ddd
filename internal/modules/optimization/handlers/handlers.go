// Package handlers provides HTTP handlers for portfolio optimization.
package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"github.com/aegisos/riskengine/internal/modules/optimization"
	"github.com/rs/zerolog"
)

// Optimizer is the optimization service as seen by the handlers.
type Optimizer interface {
	Optimize(ctx context.Context, req optimization.Request) (*optimization.Response, error)
}

// Handler handles optimization HTTP requests
type Handler struct {
	service Optimizer
	log     zerolog.Logger
}

// NewHandler creates a new optimization handler
func NewHandler(service Optimizer, log zerolog.Logger) *Handler {
	return &Handler{
		service: service,
		log:     log.With().Str("handler", "optimization").Logger(),
	}
}

// HandleOptimize handles POST /optimize
func (h *Handler) HandleOptimize(w http.ResponseWriter, r *http.Request) {
	var req optimization.Request
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil && !errors.Is(err, io.EOF) {
		h.writeError(w, http.StatusBadRequest, "Invalid request body: "+err.Error())
		return
	}

	resp, err := h.service.Optimize(r.Context(), req)
	if err != nil {
		switch {
		case errors.Is(err, optimization.ErrInvalidRequest), errors.Is(err, optimization.ErrNoData):
			h.writeError(w, http.StatusBadRequest, err.Error())
		case errors.Is(err, optimization.ErrOptimizationInfeasible):
			h.writeError(w, http.StatusUnprocessableEntity, err.Error())
		default:
			h.log.Error().Err(err).Msg("Failed to optimize portfolio")
			h.writeError(w, http.StatusInternalServerError, "Failed to optimize portfolio")
		}
		return
	}

	h.writeJSON(w, http.StatusOK, resp)
}

func (h *Handler) writeError(w http.ResponseWriter, status int, detail string) {
	h.writeJSON(w, status, map[string]string{"detail": detail})
}

func (h *Handler) writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	if err := json.NewEncoder(w).Encode(data); err != nil {
		h.log.Error().Err(err).Msg("Failed to encode JSON response")
	}
}
