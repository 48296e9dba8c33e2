package handlers

import (
	"github.com/go-chi/chi/v5"
)

// RegisterRoutes registers all optimization routes
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Route("/optimization", func(r chi.Router) {
		r.Post("/frontier", h.HandleFrontier)
		r.Get("/runs", h.HandleListRuns)
		r.Get("/runs/{id}", h.HandleGetRun)
	})
}
