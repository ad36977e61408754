package repository

import (
	"context"
	"time"

	"github.com/shopspring/decimal"

	"github.com/abrezinsky/pokerleague/internal/models"
)

// RoundRepository defines round lifecycle and clock data operations
type RoundRepository interface {
	CreateRound(ctx context.Context, round *models.Round, seats []models.SeatedPlayer, event *models.RoundEvent) (int64, error)
	ActivateRound(ctx context.Context, roundID int64, seats []models.SeatedPlayer, event *models.RoundEvent) error
	GetRound(ctx context.Context, id int64) (*models.Round, error)
	GetActiveRound(ctx context.Context) (*models.Round, error)
	ListRounds(ctx context.Context) ([]models.Round, error)
	RoundNumberExists(ctx context.Context, roundNumber int) (bool, error)
	SaveClock(ctx context.Context, round *models.Round, event *models.RoundEvent) error
}

// SeatRepository defines elimination snapshot operations
type SeatRepository interface {
	SaveSeats(ctx context.Context, roundID int64, seats []models.SeatedPlayer, event *models.RoundEvent) error
	ListSeats(ctx context.Context, roundID int64) ([]models.SeatedPlayer, error)
}

// ResultRepository defines completed round data operations
type ResultRepository interface {
	CompleteRound(ctx context.Context, roundID int64, results []models.RoundResult, finalTableCut decimal.Decimal, completedAt time.Time, event *models.RoundEvent) error
	ListResults(ctx context.Context, roundID int64) ([]models.RoundResult, error)
	ListCompletedRounds(ctx context.Context) ([]models.CompletedRound, error)
}

// EventRepository defines round event log operations
type EventRepository interface {
	AppendEvent(ctx context.Context, event *models.RoundEvent) error
	ListEvents(ctx context.Context, roundID int64, limit int) ([]models.RoundEvent, error)
}

// SettingsRepository defines settings data operations
type SettingsRepository interface {
	GetSetting(ctx context.Context, key string) (string, error)
	SetSetting(ctx context.Context, key, value string) error
}

// FullRepository combines all repository interfaces
// Use this when a service needs access to multiple domains
type FullRepository interface {
	RoundRepository
	SeatRepository
	ResultRepository
	EventRepository
	SettingsRepository
}

// Ensure Repository implements all interfaces
var _ FullRepository = (*Repository)(nil)
