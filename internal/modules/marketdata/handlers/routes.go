package handlers

import (
	"github.com/go-chi/chi/v5"
)

// RegisterRoutes registers all market data routes
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Route("/marketdata", func(r chi.Router) {
		r.Get("/assets", h.HandleGetAssets)
		r.Post("/import", h.HandleImportCSV)
		r.Get("/prices/{asset}", h.HandleGetPrices)
		r.Post("/prices/{asset}", h.HandlePostPrices)
	})
}
