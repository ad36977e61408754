package mock

import (
	"context"
	"time"

	"github.com/shopspring/decimal"

	"github.com/abrezinsky/pokerleague/internal/models"
	"github.com/abrezinsky/pokerleague/internal/repository"
)

// Repository wraps a real repository and allows injecting errors for testing.
// This provides a flexible way to test error paths without complex database manipulation.
//
// Usage:
//
//	realRepo := testutil.NewTestRepository(t)
//	mockRepo := mock.NewRepository(realRepo)
//	mockRepo.CompleteRoundError = errors.New("database is locked")
//	svc := services.NewRoundService(log, mockRepo, settingsSvc)
//	_, err := svc.CompleteRound(ctx, roundID, req)
//	// err will now carry the injected error
type Repository struct {
	repository.FullRepository

	// ===== Round Errors =====
	CreateRoundError       error
	ActivateRoundError     error
	GetRoundError          error
	GetActiveRoundError    error
	ListRoundsError        error
	RoundNumberExistsError error
	SaveClockError         error

	// ===== Seat Errors =====
	SaveSeatsError error
	ListSeatsError error

	// ===== Result Errors =====
	CompleteRoundError       error
	ListResultsError         error
	ListCompletedRoundsError error

	// ===== Event Errors =====
	AppendEventError error
	ListEventsError  error

	// ===== Settings Errors =====
	GetSettingError error
	SetSettingError error

	// SaveClockCalls counts SaveClock invocations that reached the real repository
	SaveClockCalls int
}

// NewRepository creates a mock repository wrapping a real one
func NewRepository(real repository.FullRepository) *Repository {
	return &Repository{
		FullRepository: real,
	}
}

// ===== Round Methods =====

func (m *Repository) CreateRound(ctx context.Context, round *models.Round, seats []models.SeatedPlayer, event *models.RoundEvent) (int64, error) {
	if m.CreateRoundError != nil {
		return 0, m.CreateRoundError
	}
	return m.FullRepository.CreateRound(ctx, round, seats, event)
}

func (m *Repository) ActivateRound(ctx context.Context, roundID int64, seats []models.SeatedPlayer, event *models.RoundEvent) error {
	if m.ActivateRoundError != nil {
		return m.ActivateRoundError
	}
	return m.FullRepository.ActivateRound(ctx, roundID, seats, event)
}

func (m *Repository) GetRound(ctx context.Context, id int64) (*models.Round, error) {
	if m.GetRoundError != nil {
		return nil, m.GetRoundError
	}
	return m.FullRepository.GetRound(ctx, id)
}

func (m *Repository) GetActiveRound(ctx context.Context) (*models.Round, error) {
	if m.GetActiveRoundError != nil {
		return nil, m.GetActiveRoundError
	}
	return m.FullRepository.GetActiveRound(ctx)
}

func (m *Repository) ListRounds(ctx context.Context) ([]models.Round, error) {
	if m.ListRoundsError != nil {
		return nil, m.ListRoundsError
	}
	return m.FullRepository.ListRounds(ctx)
}

func (m *Repository) RoundNumberExists(ctx context.Context, roundNumber int) (bool, error) {
	if m.RoundNumberExistsError != nil {
		return false, m.RoundNumberExistsError
	}
	return m.FullRepository.RoundNumberExists(ctx, roundNumber)
}

func (m *Repository) SaveClock(ctx context.Context, round *models.Round, event *models.RoundEvent) error {
	if m.SaveClockError != nil {
		return m.SaveClockError
	}
	m.SaveClockCalls++
	return m.FullRepository.SaveClock(ctx, round, event)
}

// ===== Seat Methods =====

func (m *Repository) SaveSeats(ctx context.Context, roundID int64, seats []models.SeatedPlayer, event *models.RoundEvent) error {
	if m.SaveSeatsError != nil {
		return m.SaveSeatsError
	}
	return m.FullRepository.SaveSeats(ctx, roundID, seats, event)
}

func (m *Repository) ListSeats(ctx context.Context, roundID int64) ([]models.SeatedPlayer, error) {
	if m.ListSeatsError != nil {
		return nil, m.ListSeatsError
	}
	return m.FullRepository.ListSeats(ctx, roundID)
}

// ===== Result Methods =====

func (m *Repository) CompleteRound(ctx context.Context, roundID int64, results []models.RoundResult, finalTableCut decimal.Decimal, completedAt time.Time, event *models.RoundEvent) error {
	if m.CompleteRoundError != nil {
		return m.CompleteRoundError
	}
	return m.FullRepository.CompleteRound(ctx, roundID, results, finalTableCut, completedAt, event)
}

func (m *Repository) ListResults(ctx context.Context, roundID int64) ([]models.RoundResult, error) {
	if m.ListResultsError != nil {
		return nil, m.ListResultsError
	}
	return m.FullRepository.ListResults(ctx, roundID)
}

func (m *Repository) ListCompletedRounds(ctx context.Context) ([]models.CompletedRound, error) {
	if m.ListCompletedRoundsError != nil {
		return nil, m.ListCompletedRoundsError
	}
	return m.FullRepository.ListCompletedRounds(ctx)
}

// ===== Event Methods =====

func (m *Repository) AppendEvent(ctx context.Context, event *models.RoundEvent) error {
	if m.AppendEventError != nil {
		return m.AppendEventError
	}
	return m.FullRepository.AppendEvent(ctx, event)
}

func (m *Repository) ListEvents(ctx context.Context, roundID int64, limit int) ([]models.RoundEvent, error) {
	if m.ListEventsError != nil {
		return nil, m.ListEventsError
	}
	return m.FullRepository.ListEvents(ctx, roundID, limit)
}

// ===== Settings Methods =====

func (m *Repository) GetSetting(ctx context.Context, key string) (string, error) {
	if m.GetSettingError != nil {
		return "", m.GetSettingError
	}
	return m.FullRepository.GetSetting(ctx, key)
}

func (m *Repository) SetSetting(ctx context.Context, key, value string) error {
	if m.SetSettingError != nil {
		return m.SetSettingError
	}
	return m.FullRepository.SetSetting(ctx, key, value)
}
