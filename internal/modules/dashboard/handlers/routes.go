package handlers

import (
	"github.com/go-chi/chi/v5"
)

// RegisterRoutes registers the request/response dashboard routes
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Get("/dashboard", h.HandleGetDashboard) // Latest view (tables + chart)
	r.Get("/chart", h.HandleGetChart)         // Grouped PnL bar chart
	r.Post("/refresh", h.HandleRefresh)       // Run one cycle now

	r.Route("/portfolios", func(r chi.Router) {
		r.Get("/", h.HandleGetPortfolios)      // Configured holdings
		r.Get("/{name}", h.HandleGetPortfolio) // Latest table of one portfolio
	})
}

// RegisterStreamRoutes registers the long-lived WebSocket route. It must not
// sit behind request timeouts or response compression.
func (h *Handler) RegisterStreamRoutes(r chi.Router) {
	r.Get("/ws", h.HandleStream)
}
