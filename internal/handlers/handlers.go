package handlers

import (
	"github.com/abrezinsky/pokerleague/internal/auth"
	"github.com/abrezinsky/pokerleague/internal/services"
	"github.com/abrezinsky/pokerleague/internal/websocket"
)

// Handlers holds all HTTP handler dependencies
type Handlers struct {
	Rounds   services.RoundServicer
	Settings services.SettingsServicer
	Rankings services.RankingServicer
	Auth     *auth.Auth
	Hub      *websocket.Hub
	Log      HTTPLogger
}

// HTTPLogger is an interface for loggers that support HTTP logging control
type HTTPLogger interface {
	IsHTTPLoggingEnabled() bool
}

// New creates a new Handlers instance with all dependencies
func New(
	rounds services.RoundServicer,
	settings services.SettingsServicer,
	rankings services.RankingServicer,
	adminAuth *auth.Auth,
	hub *websocket.Hub,
	log HTTPLogger,
) *Handlers {
	return &Handlers{
		Rounds:   rounds,
		Settings: settings,
		Rankings: rankings,
		Auth:     adminAuth,
		Hub:      hub,
		Log:      log,
	}
}

// NoopHTTPLogger is a test logger that always returns false for HTTP logging
type NoopHTTPLogger struct{}

func (NoopHTTPLogger) IsHTTPLoggingEnabled() bool { return false }
