package services

import (
	"context"

	"github.com/abrezinsky/pokerleague/internal/models"
	"github.com/abrezinsky/pokerleague/internal/prize"
	"github.com/abrezinsky/pokerleague/internal/ranking"
)

// RoundServicer defines the interface for round operations
type RoundServicer interface {
	CreateRound(ctx context.Context, req CreateRoundRequest) (*models.Round, error)
	ActivateRound(ctx context.Context, id int64, playerIDs []int64) (*models.Round, error)
	GetRound(ctx context.Context, id int64) (*models.Round, error)
	GetActiveRound(ctx context.Context) (*models.Round, error)
	ListRounds(ctx context.Context) ([]models.Round, error)
	ListEvents(ctx context.Context, id int64, limit int) ([]models.RoundEvent, error)
	ListResults(ctx context.Context, id int64) ([]models.RoundResult, error)

	StartRound(ctx context.Context, id int64) (*ClockView, error)
	SetPaused(ctx context.Context, id int64, paused bool) (*ClockView, error)
	TogglePause(ctx context.Context, id int64) (*ClockView, error)
	SetLevel(ctx context.Context, id int64, req SetLevelRequest) (*ClockView, error)
	AdvanceLevel(ctx context.Context, id int64, direction int) (*ClockView, bool, error)
	GetClock(ctx context.Context, id int64) (*ClockView, error)
	Tick(ctx context.Context) (ClockTick, error)

	Eliminate(ctx context.Context, id int64, req EliminateRequest) (*EliminationResult, error)
	Rebuy(ctx context.Context, id int64, playerID int64) (*EliminationState, error)
	Restore(ctx context.Context, id int64, playerID int64) (*RestoreResult, error)
	RemovePlayer(ctx context.Context, id int64, playerID int64) (*EliminationState, error)
	GetEliminationState(ctx context.Context, id int64) (*EliminationState, error)

	ProposePayouts(ctx context.Context, id int64) (*prize.Distribution, error)
	CompleteRound(ctx context.Context, id int64, req CompleteRoundRequest) ([]models.RoundResult, error)

	SpectatorURL(ctx context.Context, id int64) (string, error)
	SpectatorQR(ctx context.Context, id int64) ([]byte, error)
	SetBroadcaster(b Broadcaster)
}

// SettingsServicer defines the interface for settings operations
type SettingsServicer interface {
	GetTournamentSettings(ctx context.Context) (models.TournamentSettings, error)
	UpdateTournamentSettings(ctx context.Context, settings models.TournamentSettings) error
	Config(ctx context.Context) (TournamentConfig, error)
	GetBaseURL(ctx context.Context) (string, error)
	SetBaseURL(ctx context.Context, url string) error
	GetPollInterval(ctx context.Context) (int, error)
	SetPollInterval(ctx context.Context, seconds int) error
}

// RankingServicer defines the interface for season standings
type RankingServicer interface {
	GetRankings(ctx context.Context) (*ranking.Standings, error)
	GetQualifiers(ctx context.Context) ([]int64, error)
}

// Ensure concrete types implement interfaces
var (
	_ RoundServicer    = (*RoundService)(nil)
	_ SettingsServicer = (*SettingsService)(nil)
	_ RankingServicer  = (*RankingService)(nil)
)
