package handlers

import (
	"github.com/abrezinsky/pokerleague/internal/clock"
	"github.com/abrezinsky/pokerleague/internal/models"
	"github.com/abrezinsky/pokerleague/internal/services"
)

// ActiveRoundResponse bundles everything an observer screen polls for
type ActiveRoundResponse struct {
	Round       *models.Round              `json:"round"`
	Clock       *services.ClockView        `json:"clock"`
	Elimination *services.EliminationState `json:"elimination"`
}

// AdvanceResponse reports whether the level moved
type AdvanceResponse struct {
	Clock   *services.ClockView `json:"clock"`
	Changed bool                `json:"changed"`
}

// PublicConfigResponse is what observers need to render a clock
type PublicConfigResponse struct {
	PollIntervalSeconds int          `json:"poll_interval_seconds"`
	Ladder              clock.Ladder `json:"ladder"`
	RebuyDeadlineLevel  int          `json:"rebuy_deadline_level"`
}

// AppSettingsResponse represents the app settings
type AppSettingsResponse struct {
	BaseURL             string `json:"base_url"`
	PollIntervalSeconds int    `json:"poll_interval_seconds"`
}

// SpectatorResponse holds the public clock link for a round
type SpectatorResponse struct {
	URL string `json:"url"`
}

// QualifiersResponse lists the players seated at the final table
type QualifiersResponse struct {
	PlayerIDs []int64 `json:"player_ids"`
}
