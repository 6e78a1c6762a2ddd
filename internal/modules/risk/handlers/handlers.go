// Package handlers provides HTTP handlers for VaR and volatility calculations.
package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"github.com/aegisos/riskengine/internal/modules/risk"
	"github.com/rs/zerolog"
)

// Calculator is the risk service as seen by the handlers.
type Calculator interface {
	Calculate(ctx context.Context, req risk.Request) (*risk.Response, error)
}

// Handler handles risk HTTP requests
type Handler struct {
	service Calculator
	log     zerolog.Logger
}

// NewHandler creates a new risk handler
func NewHandler(service Calculator, log zerolog.Logger) *Handler {
	return &Handler{
		service: service,
		log:     log.With().Str("handler", "risk").Logger(),
	}
}

// HandleCalculateVaR handles POST /var
func (h *Handler) HandleCalculateVaR(w http.ResponseWriter, r *http.Request) {
	var req risk.Request
	// An empty body means all defaults
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil && !errors.Is(err, io.EOF) {
		h.writeError(w, http.StatusBadRequest, "Invalid request body: "+err.Error())
		return
	}

	resp, err := h.service.Calculate(r.Context(), req)
	if err != nil {
		switch {
		case errors.Is(err, risk.ErrInvalidRequest), errors.Is(err, risk.ErrNoData):
			h.writeError(w, http.StatusBadRequest, err.Error())
		default:
			h.log.Error().Err(err).Msg("Failed to calculate VaR")
			h.writeError(w, http.StatusInternalServerError, "Failed to calculate VaR")
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
