// Package handlers provides HTTP handlers for the dashboard.
package handlers

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"

	"github.com/ltpboard/ltpboard/internal/domain"
	"github.com/ltpboard/ltpboard/internal/modules/dashboard"
	"github.com/ltpboard/ltpboard/internal/modules/portfolio"
	"github.com/ltpboard/ltpboard/internal/scheduler"
)

// Refresher runs a refresh cycle on demand
type Refresher interface {
	Refresh() error
}

// Handler handles dashboard HTTP requests
type Handler struct {
	state      *dashboard.StateManager
	portfolios []domain.Portfolio
	refresher  Refresher
	log        zerolog.Logger
}

// NewHandler creates a new dashboard handler
func NewHandler(
	state *dashboard.StateManager,
	portfolios []domain.Portfolio,
	refresher Refresher,
	log zerolog.Logger,
) *Handler {
	return &Handler{
		state:      state,
		portfolios: portfolios,
		refresher:  refresher,
		log:        log.With().Str("handler", "dashboard").Logger(),
	}
}

// HandleGetDashboard returns the latest published view
func (h *Handler) HandleGetDashboard(w http.ResponseWriter, r *http.Request) {
	view, ok := h.currentView(w)
	if !ok {
		return
	}
	h.writeJSON(w, http.StatusOK, view)
}

// HandleGetPortfolios returns the configured portfolios and their holdings
func (h *Handler) HandleGetPortfolios(w http.ResponseWriter, r *http.Request) {
	h.writeJSON(w, http.StatusOK, map[string]interface{}{
		"portfolios": h.portfolios,
	})
}

// HandleGetPortfolio returns the latest table of one portfolio
func (h *Handler) HandleGetPortfolio(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "name")
	if _, ok := portfolio.FindPortfolio(h.portfolios, name); !ok {
		h.writeError(w, http.StatusNotFound, "unknown portfolio: "+name)
		return
	}

	view, ok := h.currentView(w)
	if !ok {
		return
	}

	table, ok := view.Table(name)
	if !ok {
		h.writeError(w, http.StatusServiceUnavailable, "portfolio not computed yet: "+name)
		return
	}

	h.writeJSON(w, http.StatusOK, map[string]interface{}{
		"table":        table,
		"last_updated": view.LastUpdated,
		"cycle_id":     view.CycleID,
	})
}

// HandleGetChart returns the grouped PnL bar chart data
func (h *Handler) HandleGetChart(w http.ResponseWriter, r *http.Request) {
	view, ok := h.currentView(w)
	if !ok {
		return
	}
	h.writeJSON(w, http.StatusOK, view.Chart)
}

// HandleRefresh runs one refresh cycle now and returns the new view
func (h *Handler) HandleRefresh(w http.ResponseWriter, r *http.Request) {
	err := h.refresher.Refresh()
	switch {
	case errors.Is(err, scheduler.ErrCycleInFlight):
		h.writeError(w, http.StatusConflict, err.Error())
		return
	case errors.Is(err, scheduler.ErrCycleCancelled):
		h.writeError(w, http.StatusServiceUnavailable, err.Error())
		return
	case err != nil:
		// The view was still published; only a sink failed
		h.log.Error().Err(err).Msg("Manual refresh completed with errors")
		h.writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	h.writeJSON(w, http.StatusOK, h.state.Current())
}

func (h *Handler) currentView(w http.ResponseWriter) (dashboard.View, bool) {
	view := h.state.Current()
	if view.IsZero() {
		h.writeError(w, http.StatusServiceUnavailable, "dashboard not ready: first refresh still running")
		return dashboard.View{}, false
	}
	return view, true
}

func (h *Handler) writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		h.log.Error().Err(err).Msg("Failed to encode JSON response")
	}
}

func (h *Handler) writeError(w http.ResponseWriter, status int, message string) {
	h.writeJSON(w, status, map[string]string{"error": message})
}
