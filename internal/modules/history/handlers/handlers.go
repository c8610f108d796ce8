// Package handlers provides HTTP handlers for portfolio history.
package handlers

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"

	"github.com/ltpboard/ltpboard/internal/domain"
	"github.com/ltpboard/ltpboard/internal/modules/history"
	"github.com/ltpboard/ltpboard/internal/modules/portfolio"
)

// maxLimit caps the number of entries one request may ask for
const maxLimit = 5000

// Handler handles history HTTP requests
type Handler struct {
	service    *history.Service
	portfolios []domain.Portfolio
	log        zerolog.Logger
}

// NewHandler creates a new history handler
func NewHandler(service *history.Service, portfolios []domain.Portfolio, log zerolog.Logger) *Handler {
	return &Handler{
		service:    service,
		portfolios: portfolios,
		log:        log.With().Str("handler", "history").Logger(),
	}
}

// HandleGetHistory returns recorded entries for a portfolio, oldest first
func (h *Handler) HandleGetHistory(w http.ResponseWriter, r *http.Request) {
	name, ok := h.portfolioParam(w, r)
	if !ok {
		return
	}

	limit, err := intQuery(r, "limit", history.DefaultListLimit)
	if err != nil {
		h.writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	entries, err := h.service.List(r.Context(), name, limit)
	if err != nil {
		h.log.Error().Err(err).Str("portfolio", name).Msg("Failed to list history")
		h.writeError(w, http.StatusInternalServerError, "failed to load history")
		return
	}
	if entries == nil {
		entries = []history.Entry{}
	}

	h.writeJSON(w, http.StatusOK, map[string]interface{}{
		"portfolio": name,
		"count":     len(entries),
		"entries":   entries,
	})
}

// HandleGetTrend returns PnL statistics over recent entries of a portfolio
func (h *Handler) HandleGetTrend(w http.ResponseWriter, r *http.Request) {
	name, ok := h.portfolioParam(w, r)
	if !ok {
		return
	}

	limit, err := intQuery(r, "limit", history.DefaultListLimit)
	if err != nil {
		h.writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	window, err := intQuery(r, "window", history.DefaultTrendWindow)
	if err != nil {
		h.writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	trend, err := h.service.Trend(r.Context(), name, limit, window)
	if err != nil {
		h.log.Error().Err(err).Str("portfolio", name).Msg("Failed to compute trend")
		h.writeError(w, http.StatusInternalServerError, "failed to compute trend")
		return
	}

	h.writeJSON(w, http.StatusOK, trend)
}

func (h *Handler) portfolioParam(w http.ResponseWriter, r *http.Request) (string, bool) {
	name := chi.URLParam(r, "name")
	if _, ok := portfolio.FindPortfolio(h.portfolios, name); !ok {
		h.writeError(w, http.StatusNotFound, "unknown portfolio: "+name)
		return "", false
	}
	return name, true
}

// intQuery reads a positive integer query parameter
func intQuery(r *http.Request, key string, defaultValue int) (int, error) {
	raw := r.URL.Query().Get(key)
	if raw == "" {
		return defaultValue, nil
	}
	v, err := strconv.Atoi(raw)
	if err != nil || v <= 0 {
		return 0, fmt.Errorf("%s must be a positive integer", key)
	}
	if v > maxLimit {
		v = maxLimit
	}
	return v, nil
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
