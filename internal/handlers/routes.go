package handlers

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
)

// conditionalHTTPLogger only logs HTTP requests when HTTP logging is enabled
func (h *Handlers) conditionalHTTPLogger(next http.Handler) http.Handler {
	logger := middleware.Logger(next)
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if h.Log != nil && h.Log.IsHTTPLoggingEnabled() {
			logger.ServeHTTP(w, r)
		} else {
			next.ServeHTTP(w, r)
		}
	})
}

// Router returns a configured chi router with all routes
func (h *Handlers) Router() chi.Router {
	r := chi.NewRouter()

	// Middleware
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(h.conditionalHTTPLogger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.RedirectSlashes)
	r.Use(middleware.Timeout(60 * time.Second))

	// WebSocket
	if h.Hub != nil {
		r.Get("/ws", h.Hub.ServeWs)
	}

	// Observer API (public, read-only)
	r.Get("/api/config", h.handleGetPublicConfig)
	r.Get("/api/rounds", h.handleListRounds)
	r.Get("/api/rounds/active", h.handleGetActiveRound)
	r.Get("/api/rounds/{id}", h.handleGetRound)
	r.Get("/api/rounds/{id}/clock", h.handleGetClock)
	r.Get("/api/rounds/{id}/elimination", h.handleGetEliminationState)
	r.Get("/api/rounds/{id}/events", h.handleListEvents)
	r.Get("/api/rounds/{id}/results", h.handleListResults)
	r.Get("/api/rankings", h.handleGetRankings)
	r.Get("/api/rankings/qualifiers", h.handleGetQualifiers)

	// Auth routes (public)
	r.Post("/api/admin/login", h.handleLogin)
	r.Post("/api/admin/logout", h.handleLogout)

	// Admin API (protected)
	r.Group(func(r chi.Router) {
		r.Use(h.Auth.RequireAuthAPI)

		// Round lifecycle
		r.Post("/api/admin/rounds", h.handleCreateRound)
		r.Post("/api/admin/rounds/{id}/activate", h.handleActivateRound)

		// Clock
		r.Post("/api/admin/rounds/{id}/start", h.handleStartRound)
		r.Put("/api/admin/rounds/{id}/paused", h.handleSetPaused)
		r.Post("/api/admin/rounds/{id}/toggle-pause", h.handleTogglePause)
		r.Put("/api/admin/rounds/{id}/level", h.handleSetLevel)
		r.Post("/api/admin/rounds/{id}/advance", h.handleAdvanceLevel)

		// Seats
		r.Post("/api/admin/rounds/{id}/eliminate", h.handleEliminate)
		r.Post("/api/admin/rounds/{id}/rebuy", h.handleRebuy)
		r.Post("/api/admin/rounds/{id}/restore", h.handleRestore)
		r.Delete("/api/admin/rounds/{id}/players/{playerID}", h.handleRemovePlayer)

		// Completion
		r.Get("/api/admin/rounds/{id}/payouts", h.handleProposePayouts)
		r.Post("/api/admin/rounds/{id}/complete", h.handleCompleteRound)

		// Spectator link
		r.Get("/api/admin/rounds/{id}/spectator", h.handleGetSpectatorURL)
		r.Get("/api/admin/rounds/{id}/qr", h.handleGetSpectatorQR)

		// Settings
		r.Get("/api/admin/settings", h.handleGetSettings)
		r.Put("/api/admin/settings", h.handleUpdateSettings)
		r.Get("/api/admin/settings/app", h.handleGetAppSettings)
		r.Put("/api/admin/settings/app", h.handleUpdateAppSettings)
	})

	return r
}
