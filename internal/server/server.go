// Package server provides the HTTP server and routing for ltpboard.
package server

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/rs/zerolog"

	"github.com/ltpboard/ltpboard/internal/database"
	"github.com/ltpboard/ltpboard/internal/domain"
	"github.com/ltpboard/ltpboard/internal/modules/dashboard"
	dashboardhandlers "github.com/ltpboard/ltpboard/internal/modules/dashboard/handlers"
	"github.com/ltpboard/ltpboard/internal/modules/history"
	historyhandlers "github.com/ltpboard/ltpboard/internal/modules/history/handlers"
	"github.com/ltpboard/ltpboard/pkg/embedded"
)

// Config holds server configuration
type Config struct {
	Log             zerolog.Logger
	Port            int
	DevMode         bool
	Portfolios      []domain.Portfolio
	State           *dashboard.StateManager
	Refresher       Refresher
	RefreshInterval time.Duration
	History         *history.Service // nil when history is disabled
	HistoryDB       *database.DB     // nil when history is disabled
	Backups         BackupLister     // nil when backups are not configured
}

// Server represents the HTTP server
type Server struct {
	router         *chi.Mux
	server         *http.Server
	log            zerolog.Logger
	port           int
	state          *dashboard.StateManager
	historyDB      *database.DB
	dashboard      *dashboardhandlers.Handler
	history        *historyhandlers.Handler
	systemHandlers *SystemHandlers
	statusMonitor  *StatusMonitor
}

// New creates a new HTTP server
func New(cfg Config) *Server {
	systemHandlers := NewSystemHandlers(
		cfg.Log,
		cfg.State,
		cfg.Refresher,
		cfg.RefreshInterval,
		cfg.HistoryDB,
		cfg.Backups,
	)

	s := &Server{
		router:         chi.NewRouter(),
		log:            cfg.Log.With().Str("component", "server").Logger(),
		port:           cfg.Port,
		state:          cfg.State,
		historyDB:      cfg.HistoryDB,
		dashboard:      dashboardhandlers.NewHandler(cfg.State, cfg.Portfolios, cfg.Refresher, cfg.Log),
		systemHandlers: systemHandlers,
		statusMonitor:  NewStatusMonitor(systemHandlers, cfg.Log),
	}
	if cfg.History != nil {
		s.history = historyhandlers.NewHandler(cfg.History, cfg.Portfolios, cfg.Log)
	}

	s.setupMiddleware()
	s.setupRoutes(cfg.DevMode)

	// No WriteTimeout: it would cut off long-lived WebSocket connections.
	// Regular routes are bounded by the Timeout middleware instead.
	s.server = &http.Server{
		Addr:              fmt.Sprintf("0.0.0.0:%d", cfg.Port),
		Handler:           s.router,
		ReadHeaderTimeout: 15 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	return s
}

// Handler returns the root HTTP handler
func (s *Server) Handler() http.Handler {
	return s.router
}

func (s *Server) setupMiddleware() {
	// Recovery from panics
	s.router.Use(middleware.Recoverer)

	// Request ID
	s.router.Use(middleware.RequestID)

	// Real IP
	s.router.Use(middleware.RealIP)

	// Logging
	s.router.Use(s.loggingMiddleware)

	// CORS
	s.router.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"*"},
		AllowedMethods:   []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		ExposedHeaders:   []string{"Link"},
		AllowCredentials: true,
		MaxAge:           300,
	}))
}

// requestLimits applies the per-request timeout and response compression.
// The WebSocket route stays outside of both.
func requestLimits(r chi.Router, devMode bool) {
	r.Use(middleware.Timeout(60 * time.Second))
	if !devMode {
		r.Use(middleware.Compress(5))
	}
}

// setupRoutes configures all routes
func (s *Server) setupRoutes(devMode bool) {
	s.router.Group(func(r chi.Router) {
		requestLimits(r, devMode)
		r.Get("/", s.handleDashboard)
		r.Get("/health", s.handleHealth)
	})

	s.router.Route("/api", func(r chi.Router) {
		// Live view push
		s.dashboard.RegisterStreamRoutes(r)

		r.Group(func(r chi.Router) {
			requestLimits(r, devMode)

			// Dashboard view, portfolios, chart and manual refresh
			s.dashboard.RegisterRoutes(r)

			// PnL history and trends
			if s.history != nil {
				s.history.RegisterRoutes(r)
			} else {
				r.Get("/history/*", s.handleFeatureDisabled("history"))
			}

			// System monitoring
			r.Route("/system", func(r chi.Router) {
				r.Get("/status", s.systemHandlers.HandleSystemStatus)
				r.Get("/database", s.systemHandlers.HandleDatabaseStats)
			})

			// Off-site backups
			r.Get("/backups", s.systemHandlers.HandleListBackups)
		})
	})
}

// Start starts the HTTP server and background monitors
func (s *Server) Start() error {
	s.statusMonitor.Start(time.Minute)
	s.log.Info().Msg("Status monitor started")

	s.log.Info().Int("port", s.port).Str("addr", s.server.Addr).Msg("Starting HTTP server")
	return s.server.ListenAndServe()
}

// Shutdown gracefully shuts down the server
func (s *Server) Shutdown(ctx context.Context) error {
	s.log.Info().Msg("Shutting down HTTP server")
	s.statusMonitor.Stop()
	return s.server.Shutdown(ctx)
}

// handleDashboard serves the dashboard page from the embedded filesystem
func (s *Server) handleDashboard(w http.ResponseWriter, r *http.Request) {
	data, err := embedded.Files.ReadFile(embedded.IndexPath)
	if err != nil {
		s.log.Error().Err(err).Msg("Failed to read embedded index.html")
		http.Error(w, "Dashboard not available", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if _, err := w.Write(data); err != nil {
		s.log.Error().Err(err).Msg("Failed to write index.html response")
	}
}

// handleHealth reports liveness, whether a view has been published and,
// when history is enabled, whether its database answers
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	status := http.StatusOK
	response := map[string]interface{}{
		"status": "healthy",
		"ready":  !s.state.Current().IsZero(),
	}

	if s.historyDB != nil {
		ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
		defer cancel()
		if err := s.historyDB.HealthCheck(ctx); err != nil {
			s.log.Error().Err(err).Msg("History database health check failed")
			status = http.StatusServiceUnavailable
			response["status"] = "unhealthy"
			response["error"] = err.Error()
		}
	}

	writeJSON(w, status, response, s.log)
}

func (s *Server) handleFeatureDisabled(feature string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusServiceUnavailable, map[string]string{
			"error": feature + " is disabled",
		}, s.log)
	}
}

// loggingMiddleware logs HTTP requests
func (s *Server) loggingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()

		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)

		s.log.Info().
			Str("method", r.Method).
			Str("path", r.URL.Path).
			Int("status", ww.Status()).
			Int("bytes", ww.BytesWritten()).
			Dur("duration_ms", time.Since(start)).
			Str("request_id", middleware.GetReqID(r.Context())).
			Msg("HTTP request")
	})
}

// writeJSON writes a JSON response
func writeJSON(w http.ResponseWriter, status int, data interface{}, log zerolog.Logger) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		log.Error().Err(err).Msg("Failed to encode JSON response")
	}
}
