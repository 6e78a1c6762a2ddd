package handlers

import "github.com/go-chi/chi/v5"

// RegisterRoutes registers the risk routes
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Post("/var", h.HandleCalculateVaR)
}
