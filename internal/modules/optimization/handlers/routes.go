package handlers

import "github.com/go-chi/chi/v5"

// RegisterRoutes registers the optimization routes
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Post("/optimize", h.HandleOptimize)
}
