package handlers

import (
	"github.com/go-chi/chi/v5"
)

// RegisterRoutes registers all history routes
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Route("/history/{name}", func(r chi.Router) {
		r.Get("/", h.HandleGetHistory)    // Recorded entries, oldest first
		r.Get("/trend", h.HandleGetTrend) // PnL statistics and moving average
	})
}
