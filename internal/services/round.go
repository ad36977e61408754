package services

import (
	"context"
	stderrors "errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/shopspring/decimal"
	"github.com/skip2/go-qrcode"

	"github.com/abrezinsky/pokerleague/internal/clock"
	"github.com/abrezinsky/pokerleague/internal/elimination"
	"github.com/abrezinsky/pokerleague/internal/errors"
	"github.com/abrezinsky/pokerleague/internal/logger"
	"github.com/abrezinsky/pokerleague/internal/models"
	"github.com/abrezinsky/pokerleague/internal/prize"
	"github.com/abrezinsky/pokerleague/internal/ranking"
	"github.com/abrezinsky/pokerleague/internal/repository"
)

// Broadcaster pushes round changes to connected observers
type Broadcaster interface {
	BroadcastRoundEvent(roundID int64, event models.EventType)
	BroadcastLevelChanged(roundID int64, level int)
}

// CreateRoundRequest describes a new round. Without players the round is
// scheduled; with players it becomes the active round immediately.
type CreateRoundRequest struct {
	RoundNumber   int              `json:"round_number"`
	Type          models.RoundType `json:"round_type"`
	BuyIn         decimal.Decimal  `json:"buy_in_value"`
	RebuyValue    decimal.Decimal  `json:"rebuy_value"`
	KnockoutValue decimal.Decimal  `json:"knockout_value"`
	IsFinalTable  bool             `json:"is_final_table"`
	PlayerIDs     []int64          `json:"player_ids"`
}

// SetLevelRequest is a direct write of the clock snapshot
type SetLevelRequest struct {
	Level            int        `json:"level"`
	TimerStartedAt   *time.Time `json:"timer_started_at"`
	RemainingSeconds int        `json:"remaining_seconds"`
}

// EliminateRequest knocks one player out. Bounty defaults to the round's
// knockout value in knockout rounds and is always zero otherwise.
type EliminateRequest struct {
	PlayerID     int64            `json:"player_id"`
	EliminatorID *int64           `json:"eliminator_id"`
	Bounty       *decimal.Decimal `json:"bounty"`
}

// ResultInput is one confirmed result line
type ResultInput struct {
	PlayerID         int64            `json:"player_id"`
	Position         int              `json:"position"`
	Rebuys           *int             `json:"rebuys"`
	KnockoutEarnings *decimal.Decimal `json:"knockout_earnings"`
	Prize            decimal.Decimal  `json:"prize"`
}

// CompleteRoundRequest confirms the payouts of a round. When Results is empty
// the proposed distribution is used as-is.
type CompleteRoundRequest struct {
	Results            []ResultInput   `json:"results"`
	Dealer             decimal.Decimal `json:"dealer"`
	ConfirmEarlyFinish bool            `json:"confirm_early_finish"`
}

// ClockView is the authoritative clock plus the values observers derive from it
type ClockView struct {
	RoundID int64 `json:"round_id"`
	clock.Snapshot
	Label            string    `json:"label"`
	IsBreak          bool      `json:"is_break"`
	LevelSeconds     int       `json:"level_seconds"`
	DisplayRemaining int       `json:"display_remaining_seconds"`
	NextLabel        string    `json:"next_label,omitempty"`
	LevelCount       int       `json:"level_count"`
	RebuysOpen       bool      `json:"rebuys_open"`
	ServerNow        time.Time `json:"server_now"`
}

// EliminationState is the read-only seat snapshot polled by observers
type EliminationState struct {
	RoundID       int64                 `json:"round_id"`
	Status        models.RoundStatus    `json:"status"`
	Players       []models.SeatedPlayer `json:"players"`
	SeatedCount   int                   `json:"seated_count"`
	ActiveCount   int                   `json:"active_count"`
	NextPosition  int                   `json:"next_position"`
	TotalRebuys   int                   `json:"total_rebuys"`
	RebuysOpen    bool                  `json:"rebuys_open"`
	CompletionDue bool                  `json:"completion_due"`
}

// EliminationResult is returned by Eliminate
type EliminationResult struct {
	Outcome elimination.Outcome `json:"outcome"`
	State   *EliminationState   `json:"state"`
}

// RestoreResult is returned by Restore
type RestoreResult struct {
	Outcome elimination.RestoreOutcome `json:"outcome"`
	State   *EliminationState          `json:"state"`
}

// ClockTick reports what a clock driver tick did
type ClockTick struct {
	RoundID      int64
	Level        int
	Changed      bool
	LevelChanged bool
}

// RoundService drives the lifecycle of rounds: clock, eliminations and completion.
// Writes to one round are serialized; reads never take the round lock.
type RoundService struct {
	log         logger.Logger
	repo        repository.FullRepository
	settings    SettingsServicer
	broadcaster Broadcaster
	now         func() time.Time

	mu         sync.Mutex
	createMu   sync.Mutex
	locks      map[int64]*sync.Mutex
	completing map[int64]bool
}

// NewRoundService creates a new RoundService
func NewRoundService(log logger.Logger, repo repository.FullRepository, settings SettingsServicer) *RoundService {
	return &RoundService{
		log:        log,
		repo:       repo,
		settings:   settings,
		now:        time.Now,
		locks:      make(map[int64]*sync.Mutex),
		completing: make(map[int64]bool),
	}
}

// SetBroadcaster sets the broadcaster for sending updates to clients
func (s *RoundService) SetBroadcaster(b Broadcaster) {
	s.broadcaster = b
}

// SetClock replaces the wall clock, for tests
func (s *RoundService) SetClock(now func() time.Time) {
	s.now = now
}

func (s *RoundService) lock(roundID int64) func() {
	s.mu.Lock()
	l, ok := s.locks[roundID]
	if !ok {
		l = &sync.Mutex{}
		s.locks[roundID] = l
	}
	s.mu.Unlock()
	l.Lock()
	return l.Unlock
}

// markCompletionDue records the zero crossing and reports whether this call was first
func (s *RoundService) markCompletionDue(roundID int64) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.completing[roundID] {
		return false
	}
	s.completing[roundID] = true
	return true
}

func (s *RoundService) clearCompletionDue(roundID int64) {
	s.mu.Lock()
	delete(s.completing, roundID)
	s.mu.Unlock()
}

func (s *RoundService) emit(roundID int64, event models.EventType) {
	if s.broadcaster != nil {
		s.broadcaster.BroadcastRoundEvent(roundID, event)
	}
}

func (s *RoundService) emitLevel(roundID int64, level int) {
	if s.broadcaster != nil {
		s.broadcaster.BroadcastLevelChanged(roundID, level)
	}
}

// ==================== Lookups ====================

// GetRound returns one round
func (s *RoundService) GetRound(ctx context.Context, id int64) (*models.Round, error) {
	round, err := s.repo.GetRound(ctx, id)
	if err != nil {
		return nil, storeErr(err, fmt.Sprintf("round %d", id))
	}
	return round, nil
}

// GetActiveRound returns the active round
func (s *RoundService) GetActiveRound(ctx context.Context) (*models.Round, error) {
	round, err := s.repo.GetActiveRound(ctx)
	if err != nil {
		return nil, storeErr(err, "active round")
	}
	return round, nil
}

// ListRounds returns every round of the season
func (s *RoundService) ListRounds(ctx context.Context) ([]models.Round, error) {
	rounds, err := s.repo.ListRounds(ctx)
	if err != nil {
		return nil, storeErr(err, "rounds")
	}
	return rounds, nil
}

// ListEvents returns the most recent events of a round, oldest first
func (s *RoundService) ListEvents(ctx context.Context, id int64, limit int) ([]models.RoundEvent, error) {
	if _, err := s.GetRound(ctx, id); err != nil {
		return nil, err
	}
	events, err := s.repo.ListEvents(ctx, id, limit)
	if err != nil {
		return nil, storeErr(err, "events")
	}
	return events, nil
}

// ListResults returns the persisted results of a completed round
func (s *RoundService) ListResults(ctx context.Context, id int64) ([]models.RoundResult, error) {
	results, err := s.repo.ListResults(ctx, id)
	if err != nil {
		return nil, storeErr(err, "results")
	}
	return results, nil
}

func requireActive(round *models.Round) error {
	switch round.Status {
	case models.StatusActive:
		return nil
	case models.StatusCompleted:
		return errors.InvalidTransitionf("round %d is already completed", round.ID)
	default:
		return errors.InvalidTransitionf("round %d has not been activated", round.ID)
	}
}

// ==================== Lifecycle ====================

// CreateRound creates a scheduled round, or an active one when players are given
func (s *RoundService) CreateRound(ctx context.Context, req CreateRoundRequest) (*models.Round, error) {
	if req.RoundNumber < 1 {
		return nil, errors.InvalidInput("round number must be at least 1")
	}
	if req.Type == "" {
		req.Type = models.RoundRegular
	}
	if !req.Type.Valid() {
		return nil, errors.InvalidInputf("unknown round type %q", req.Type)
	}
	if req.BuyIn.IsNegative() || req.RebuyValue.IsNegative() || req.KnockoutValue.IsNegative() {
		return nil, errors.InvalidInput("money values must not be negative")
	}

	cfg, err := s.settings.Config(ctx)
	if err != nil {
		return nil, err
	}
	if req.BuyIn.IsZero() && !req.IsFinalTable {
		req.BuyIn = cfg.Settings.DefaultBuyIn
	}
	if req.Type == models.RoundKnockout && req.KnockoutValue.IsZero() {
		req.KnockoutValue = cfg.Settings.DefaultKnockoutValue
	}

	round := &models.Round{
		RoundNumber:   req.RoundNumber,
		Type:          req.Type,
		BuyIn:         req.BuyIn,
		RebuyValue:    req.RebuyValue,
		KnockoutValue: req.KnockoutValue,
		IsFinalTable:  req.IsFinalTable,
		Status:        models.StatusScheduled,
		CreatedAt:     s.now(),
	}

	var seats []models.SeatedPlayer
	if len(req.PlayerIDs) > 0 {
		tracker, err := elimination.New(req.Type, req.PlayerIDs)
		if err != nil {
			return nil, err
		}
		seats = tracker.Snapshot()
		round.Status = models.StatusActive
	}

	s.createMu.Lock()
	defer s.createMu.Unlock()

	exists, err := s.repo.RoundNumberExists(ctx, req.RoundNumber)
	if err != nil {
		return nil, storeErr(err, "round")
	}
	if exists {
		return nil, errors.DuplicateRoundNumber(req.RoundNumber)
	}
	if err := s.ensureNoActiveRound(ctx, 0); err != nil {
		return nil, err
	}

	id, err := s.repo.CreateRound(ctx, round, seats, &models.RoundEvent{Type: models.EventRoundCreated, CreatedAt: s.now()})
	if err != nil {
		return nil, s.createErr(ctx, err, req.RoundNumber)
	}

	s.log.Info("Round created", "round_id", id, "round_number", req.RoundNumber,
		"type", req.Type, "status", round.Status, "players", len(seats))
	s.emit(id, models.EventRoundCreated)
	return s.GetRound(ctx, id)
}

func (s *RoundService) ensureNoActiveRound(ctx context.Context, except int64) error {
	active, err := s.repo.GetActiveRound(ctx)
	if err != nil {
		if stderrors.Is(err, repository.ErrNotFound) {
			return nil
		}
		return storeErr(err, "active round")
	}
	if active.ID != except {
		return errors.RoundAlreadyActive(active.ID)
	}
	return nil
}

func (s *RoundService) createErr(ctx context.Context, err error, roundNumber int) error {
	switch {
	case stderrors.Is(err, repository.ErrDuplicateRoundNumber):
		return errors.DuplicateRoundNumber(roundNumber)
	case stderrors.Is(err, repository.ErrActiveRoundExists):
		if active, getErr := s.repo.GetActiveRound(ctx); getErr == nil {
			return errors.RoundAlreadyActive(active.ID)
		}
		return errors.Conflict("another round is already active")
	}
	return storeErr(err, "round")
}

// ActivateRound seats players in a scheduled round and makes it the active round
func (s *RoundService) ActivateRound(ctx context.Context, id int64, playerIDs []int64) (*models.Round, error) {
	s.createMu.Lock()
	defer s.createMu.Unlock()
	unlock := s.lock(id)
	defer unlock()

	round, err := s.GetRound(ctx, id)
	if err != nil {
		return nil, err
	}
	if round.Status != models.StatusScheduled {
		return nil, errors.InvalidTransitionf("round %d is %s, only scheduled rounds can be activated", id, round.Status)
	}
	if err := s.ensureNoActiveRound(ctx, id); err != nil {
		return nil, err
	}
	tracker, err := elimination.New(round.Type, playerIDs)
	if err != nil {
		return nil, err
	}

	event := &models.RoundEvent{Type: models.EventRoundActivated, CreatedAt: s.now()}
	if err := s.repo.ActivateRound(ctx, id, tracker.Snapshot(), event); err != nil {
		return nil, s.createErr(ctx, err, round.RoundNumber)
	}

	s.log.Info("Round activated", "round_id", id, "players", len(playerIDs))
	s.emit(id, models.EventRoundActivated)
	return s.GetRound(ctx, id)
}

// ==================== Clock ====================

func snapshotOf(round *models.Round) clock.Snapshot {
	return clock.Snapshot{
		Started:          round.IsStarted,
		Level:            round.CurrentLevel,
		Paused:           round.IsPaused,
		StartedAt:        round.TimerStartedAt,
		RemainingSeconds: round.TimeRemainingSeconds,
	}
}

func applySnapshot(round *models.Round, snap clock.Snapshot) {
	round.IsStarted = snap.Started
	round.CurrentLevel = snap.Level
	round.IsPaused = snap.Paused
	round.TimerStartedAt = snap.StartedAt
	round.TimeRemainingSeconds = snap.RemainingSeconds
}

func (s *RoundService) clockView(round *models.Round, cfg TournamentConfig, now time.Time) *ClockView {
	snap := snapshotOf(round)
	view := &ClockView{
		RoundID:          round.ID,
		Snapshot:         snap,
		LevelSeconds:     cfg.Ladder.Duration(snap.Level),
		DisplayRemaining: snap.Remaining(now),
		LevelCount:       len(cfg.Ladder),
		RebuysOpen:       round.Status == models.StatusActive && round.Type == models.RoundRegular && cfg.RebuysOpen(snap.Level),
		ServerNow:        now,
	}
	if snap.Level < len(cfg.Ladder) {
		view.Label = cfg.Ladder[snap.Level].Label
		view.IsBreak = cfg.Ladder[snap.Level].Break
	}
	if snap.Level+1 < len(cfg.Ladder) {
		view.NextLabel = cfg.Ladder[snap.Level+1].Label
	}
	return view
}

// GetClock returns the clock of a round with its derived display values. It never writes.
func (s *RoundService) GetClock(ctx context.Context, id int64) (*ClockView, error) {
	round, err := s.GetRound(ctx, id)
	if err != nil {
		return nil, err
	}
	cfg, err := s.settings.Config(ctx)
	if err != nil {
		return nil, err
	}
	return s.clockView(round, cfg, s.now()), nil
}

// clockOp loads an active round under its lock, applies op and persists the
// new snapshot when op reports a change.
func (s *RoundService) clockOp(ctx context.Context, id int64, op func(*models.Round, TournamentConfig, time.Time) (clock.Snapshot, *models.RoundEvent, error)) (*ClockView, bool, error) {
	unlock := s.lock(id)
	defer unlock()

	round, err := s.GetRound(ctx, id)
	if err != nil {
		return nil, false, err
	}
	if err := requireActive(round); err != nil {
		return nil, false, err
	}
	cfg, err := s.settings.Config(ctx)
	if err != nil {
		return nil, false, err
	}

	now := s.now()
	next, event, err := op(round, cfg, now)
	if err != nil {
		return nil, false, err
	}
	if event == nil {
		return s.clockView(round, cfg, now), false, nil
	}

	previousLevel := round.CurrentLevel
	applySnapshot(round, next)
	event.CreatedAt = now
	if err := s.repo.SaveClock(ctx, round, event); err != nil {
		return nil, false, storeErr(err, "round")
	}

	s.emit(id, event.Type)
	if round.CurrentLevel != previousLevel || event.Type == models.EventRoundStarted {
		s.emitLevel(id, round.CurrentLevel)
	}
	return s.clockView(round, cfg, now), true, nil
}

func levelEvent(t models.EventType, level int) *models.RoundEvent {
	l := level
	return &models.RoundEvent{Type: t, Level: &l}
}

// StartRound starts the clock at level 0
func (s *RoundService) StartRound(ctx context.Context, id int64) (*ClockView, error) {
	view, _, err := s.clockOp(ctx, id, func(round *models.Round, cfg TournamentConfig, now time.Time) (clock.Snapshot, *models.RoundEvent, error) {
		next, err := clock.Start(snapshotOf(round), cfg.Ladder, now)
		if err != nil {
			return next, nil, err
		}
		return next, levelEvent(models.EventRoundStarted, 0), nil
	})
	if err == nil {
		s.log.Info("Round started", "round_id", id)
	}
	return view, err
}

// SetPaused pauses or resumes the clock. Repeating the current state is a no-op.
func (s *RoundService) SetPaused(ctx context.Context, id int64, paused bool) (*ClockView, error) {
	view, _, err := s.clockOp(ctx, id, func(round *models.Round, cfg TournamentConfig, now time.Time) (clock.Snapshot, *models.RoundEvent, error) {
		next, changed, err := clock.SetPaused(snapshotOf(round), paused, now)
		if err != nil || !changed {
			return next, nil, err
		}
		t := models.EventClockResumed
		if paused {
			t = models.EventClockPaused
		}
		return next, levelEvent(t, next.Level), nil
	})
	return view, err
}

// TogglePause flips the paused state of the clock
func (s *RoundService) TogglePause(ctx context.Context, id int64) (*ClockView, error) {
	round, err := s.GetRound(ctx, id)
	if err != nil {
		return nil, err
	}
	return s.SetPaused(ctx, id, !round.IsPaused)
}

// SetLevel writes the clock snapshot chosen by the admin
func (s *RoundService) SetLevel(ctx context.Context, id int64, req SetLevelRequest) (*ClockView, error) {
	view, _, err := s.clockOp(ctx, id, func(round *models.Round, cfg TournamentConfig, now time.Time) (clock.Snapshot, *models.RoundEvent, error) {
		next, err := clock.Set(snapshotOf(round), cfg.Ladder, req.Level, req.TimerStartedAt, req.RemainingSeconds, now)
		if err != nil {
			return next, nil, err
		}
		return next, levelEvent(models.EventLevelChanged, next.Level), nil
	})
	return view, err
}

// AdvanceLevel moves the clock one level forward (+1) or back (-1). The bool
// result is false when the clock was already at the end of the ladder.
func (s *RoundService) AdvanceLevel(ctx context.Context, id int64, direction int) (*ClockView, bool, error) {
	return s.clockOp(ctx, id, func(round *models.Round, cfg TournamentConfig, now time.Time) (clock.Snapshot, *models.RoundEvent, error) {
		if !round.IsStarted {
			return clock.Snapshot{}, nil, errors.InvalidTransitionf("round %d has not started", id)
		}
		next, changed, err := clock.Advance(snapshotOf(round), cfg.Ladder, direction, now)
		if err != nil || !changed {
			return next, nil, err
		}
		return next, levelEvent(models.EventLevelChanged, next.Level), nil
	})
}

// Tick applies the zero boundary to the active round. It is called by the
// single clock driver; observers only derive display values.
func (s *RoundService) Tick(ctx context.Context) (ClockTick, error) {
	active, err := s.repo.GetActiveRound(ctx)
	if err != nil {
		if stderrors.Is(err, repository.ErrNotFound) {
			return ClockTick{}, nil
		}
		return ClockTick{}, storeErr(err, "active round")
	}
	if !active.IsStarted || active.IsPaused {
		return ClockTick{RoundID: active.ID, Level: active.CurrentLevel}, nil
	}

	tick := ClockTick{RoundID: active.ID}
	_, changed, err := s.clockOp(ctx, active.ID, func(round *models.Round, cfg TournamentConfig, now time.Time) (clock.Snapshot, *models.RoundEvent, error) {
		next, changed := clock.Tick(snapshotOf(round), cfg.Ladder, now)
		tick.Level = next.Level
		if !changed {
			return next, nil, nil
		}
		// on the final level the clock stays at zero without a level change
		tick.LevelChanged = next.Level != round.CurrentLevel
		return next, levelEvent(models.EventLevelChanged, next.Level), nil
	})
	if err != nil {
		return ClockTick{}, err
	}
	tick.Changed = changed
	if tick.LevelChanged {
		s.log.Debug("Level advanced by clock", "round_id", active.ID, "level", tick.Level)
	}
	return tick, nil
}

// ==================== Eliminations ====================

func (s *RoundService) loadTracker(ctx context.Context, round *models.Round) (*elimination.Tracker, error) {
	seats, err := s.repo.ListSeats(ctx, round.ID)
	if err != nil {
		return nil, storeErr(err, "seats")
	}
	return elimination.FromSnapshot(round.Type, seats), nil
}

func (s *RoundService) state(round *models.Round, tracker *elimination.Tracker, cfg TournamentConfig) *EliminationState {
	return &EliminationState{
		RoundID:       round.ID,
		Status:        round.Status,
		Players:       tracker.Snapshot(),
		SeatedCount:   tracker.SeatedCount(),
		ActiveCount:   tracker.ActiveCount(),
		NextPosition:  tracker.NextPosition(),
		TotalRebuys:   tracker.TotalRebuys(),
		RebuysOpen:    round.Status == models.StatusActive && round.Type == models.RoundRegular && cfg.RebuysOpen(round.CurrentLevel),
		CompletionDue: round.Status == models.StatusActive && tracker.SeatedCount() > 0 && tracker.ActiveCount() == 0,
	}
}

// GetEliminationState returns the seat snapshot of a round. It never writes.
func (s *RoundService) GetEliminationState(ctx context.Context, id int64) (*EliminationState, error) {
	round, err := s.GetRound(ctx, id)
	if err != nil {
		return nil, err
	}
	cfg, err := s.settings.Config(ctx)
	if err != nil {
		return nil, err
	}
	tracker, err := s.loadTracker(ctx, round)
	if err != nil {
		return nil, err
	}
	return s.state(round, tracker, cfg), nil
}

// seatOp runs op against the tracker of an active round and persists the
// whole seat snapshot with the event op returns.
func (s *RoundService) seatOp(ctx context.Context, id int64, op func(*models.Round, *elimination.Tracker, TournamentConfig) (*models.RoundEvent, error)) (*models.Round, *elimination.Tracker, TournamentConfig, error) {
	round, err := s.GetRound(ctx, id)
	if err != nil {
		return nil, nil, TournamentConfig{}, err
	}
	if err := requireActive(round); err != nil {
		return nil, nil, TournamentConfig{}, err
	}
	cfg, err := s.settings.Config(ctx)
	if err != nil {
		return nil, nil, TournamentConfig{}, err
	}
	tracker, err := s.loadTracker(ctx, round)
	if err != nil {
		return nil, nil, TournamentConfig{}, err
	}

	event, err := op(round, tracker, cfg)
	if err != nil {
		return nil, nil, TournamentConfig{}, err
	}
	event.CreatedAt = s.now()
	if err := s.repo.SaveSeats(ctx, id, tracker.Snapshot(), event); err != nil {
		return nil, nil, TournamentConfig{}, storeErr(err, "seats")
	}
	s.emit(id, event.Type)
	return round, tracker, cfg, nil
}

// Eliminate knocks a player out of the active round
func (s *RoundService) Eliminate(ctx context.Context, id int64, req EliminateRequest) (*EliminationResult, error) {
	unlock := s.lock(id)
	defer unlock()

	var outcome elimination.Outcome
	round, tracker, cfg, err := s.seatOp(ctx, id, func(round *models.Round, tracker *elimination.Tracker, _ TournamentConfig) (*models.RoundEvent, error) {
		bounty := decimal.Zero
		if round.Type == models.RoundKnockout {
			bounty = round.KnockoutValue
			if req.Bounty != nil {
				bounty = *req.Bounty
			}
		}
		var err error
		outcome, err = tracker.Eliminate(req.PlayerID, req.EliminatorID, bounty, s.now())
		if err != nil {
			return nil, err
		}
		playerID, position := req.PlayerID, outcome.Position
		return &models.RoundEvent{
			Type:         models.EventPlayerEliminated,
			PlayerID:     &playerID,
			EliminatorID: outcome.EliminatorID,
			Position:     &position,
			Amount:       outcome.Bounty,
		}, nil
	})
	if err != nil {
		return nil, err
	}

	if outcome.CompletionDue {
		outcome.CompletionDue = s.markCompletionDue(id)
	}
	s.log.Info("Player eliminated", "round_id", id, "player_id", req.PlayerID,
		"position", outcome.Position, "active", tracker.ActiveCount())
	if outcome.CompletionDue {
		s.log.Info("All positions decided, round ready to complete", "round_id", id)
	}
	return &EliminationResult{Outcome: outcome, State: s.state(round, tracker, cfg)}, nil
}

// Rebuy records a rebuy for an active player
func (s *RoundService) Rebuy(ctx context.Context, id int64, playerID int64) (*EliminationState, error) {
	unlock := s.lock(id)
	defer unlock()

	round, tracker, cfg, err := s.seatOp(ctx, id, func(round *models.Round, tracker *elimination.Tracker, cfg TournamentConfig) (*models.RoundEvent, error) {
		policy := elimination.RebuyPolicy{
			Open:      cfg.RebuysOpen(round.CurrentLevel),
			MaxRebuys: cfg.MaxRebuys,
		}
		if _, err := tracker.Rebuy(playerID, policy); err != nil {
			return nil, err
		}
		pid := playerID
		return &models.RoundEvent{Type: models.EventPlayerRebought, PlayerID: &pid, Amount: round.EffectiveRebuyValue()}, nil
	})
	if err != nil {
		return nil, err
	}
	s.log.Info("Player rebought", "round_id", id, "player_id", playerID)
	return s.state(round, tracker, cfg), nil
}

// Restore undoes the elimination of a player
func (s *RoundService) Restore(ctx context.Context, id int64, playerID int64) (*RestoreResult, error) {
	unlock := s.lock(id)
	defer unlock()

	var outcome elimination.RestoreOutcome
	round, tracker, cfg, err := s.seatOp(ctx, id, func(_ *models.Round, tracker *elimination.Tracker, _ TournamentConfig) (*models.RoundEvent, error) {
		var err error
		outcome, err = tracker.Restore(playerID)
		if err != nil {
			return nil, err
		}
		pid, previous := playerID, outcome.PreviousPosition
		return &models.RoundEvent{Type: models.EventPlayerRestored, PlayerID: &pid, Position: &previous}, nil
	})
	if err != nil {
		return nil, err
	}
	s.clearCompletionDue(id)
	s.log.Info("Player restored", "round_id", id, "player_id", playerID, "previous_position", outcome.PreviousPosition)
	return &RestoreResult{Outcome: outcome, State: s.state(round, tracker, cfg)}, nil
}

// RemovePlayer drops a no-show from the round
func (s *RoundService) RemovePlayer(ctx context.Context, id int64, playerID int64) (*EliminationState, error) {
	unlock := s.lock(id)
	defer unlock()

	round, tracker, cfg, err := s.seatOp(ctx, id, func(_ *models.Round, tracker *elimination.Tracker, _ TournamentConfig) (*models.RoundEvent, error) {
		if err := tracker.Remove(playerID); err != nil {
			return nil, err
		}
		pid := playerID
		return &models.RoundEvent{Type: models.EventPlayerRemoved, PlayerID: &pid}, nil
	})
	if err != nil {
		return nil, err
	}
	s.log.Info("Player removed", "round_id", id, "player_id", playerID)
	return s.state(round, tracker, cfg), nil
}

// ==================== Payouts & completion ====================

func placements(tracker *elimination.Tracker) []prize.Placement {
	var out []prize.Placement
	for _, seat := range tracker.Snapshot() {
		if seat.Position != nil {
			out = append(out, prize.Placement{PlayerID: seat.PlayerID, Position: *seat.Position})
		}
	}
	return out
}

func (s *RoundService) finalTablePot(ctx context.Context, cfg TournamentConfig) (decimal.Decimal, error) {
	completed, err := s.repo.ListCompletedRounds(ctx)
	if err != nil {
		return decimal.Zero, storeErr(err, "completed rounds")
	}
	return ranking.Compute(completed, cfg.Ranking).FinalTablePot, nil
}

func (s *RoundService) distribution(ctx context.Context, round *models.Round, tracker *elimination.Tracker, cfg TournamentConfig) (prize.Distribution, error) {
	if round.IsFinalTable {
		pot, err := s.finalTablePot(ctx, cfg)
		if err != nil {
			return prize.Distribution{}, err
		}
		return prize.FinalTable(pot, cfg.FinalTablePercentages, placements(tracker))
	}
	entry := prize.EntryFor(*round, tracker.SeatedCount(), tracker.TotalRebuys())
	return prize.Regular(entry, cfg.Cut, cfg.Percentages, placements(tracker))
}

func (s *RoundService) netPool(ctx context.Context, round *models.Round, tracker *elimination.Tracker, cfg TournamentConfig) (decimal.Decimal, error) {
	if round.IsFinalTable {
		return s.finalTablePot(ctx, cfg)
	}
	entry := prize.EntryFor(*round, tracker.SeatedCount(), tracker.TotalRebuys())
	return prize.ComputePool(entry, cfg.Cut).Net, nil
}

// ProposePayouts computes the prize distribution from the positions decided so far
func (s *RoundService) ProposePayouts(ctx context.Context, id int64) (*prize.Distribution, error) {
	round, err := s.GetRound(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := requireActive(round); err != nil {
		return nil, err
	}
	cfg, err := s.settings.Config(ctx)
	if err != nil {
		return nil, err
	}
	tracker, err := s.loadTracker(ctx, round)
	if err != nil {
		return nil, err
	}
	dist, err := s.distribution(ctx, round, tracker, cfg)
	if err != nil {
		return nil, err
	}
	return &dist, nil
}

// CompleteRound persists one result per placed player and marks the round
// completed. Results, status flip and seat cleanup are written atomically.
func (s *RoundService) CompleteRound(ctx context.Context, id int64, req CompleteRoundRequest) ([]models.RoundResult, error) {
	unlock := s.lock(id)
	defer unlock()

	round, err := s.GetRound(ctx, id)
	if err != nil {
		return nil, err
	}
	if round.Status == models.StatusCompleted {
		return nil, errors.AlreadyCompleted(id)
	}
	if round.Status != models.StatusActive {
		return nil, errors.InvalidTransitionf("round %d has not been activated", id)
	}
	if req.Dealer.IsNegative() {
		return nil, errors.InvalidInput("dealer amount must not be negative")
	}
	cfg, err := s.settings.Config(ctx)
	if err != nil {
		return nil, err
	}
	tracker, err := s.loadTracker(ctx, round)
	if err != nil {
		return nil, err
	}

	if unplaced := tracker.Unplaced(); len(unplaced) > 0 && !req.ConfirmEarlyFinish {
		return nil, errors.RoundNotEliminated(len(unplaced))
	}

	inputs := req.Results
	if len(inputs) == 0 {
		dist, err := s.distribution(ctx, round, tracker, cfg)
		if err != nil {
			return nil, err
		}
		inputs = resultsFromDistribution(tracker, dist)
	}

	results, total, err := buildResults(id, tracker, inputs, cfg)
	if err != nil {
		return nil, err
	}

	net, err := s.netPool(ctx, round, tracker, cfg)
	if err != nil {
		return nil, err
	}
	if err := prize.CheckBalance(total, req.Dealer, net); err != nil {
		return nil, err
	}

	cut := decimal.Zero
	if !round.IsFinalTable {
		cut = prize.Cut(prize.EntryFor(*round, tracker.SeatedCount(), tracker.TotalRebuys()), cfg.Cut)
	}

	event := &models.RoundEvent{Type: models.EventRoundCompleted, Amount: total, CreatedAt: s.now()}
	if err := s.repo.CompleteRound(ctx, id, results, cut, s.now(), event); err != nil {
		if stderrors.Is(err, repository.ErrRoundCompleted) {
			return nil, errors.AlreadyCompleted(id)
		}
		s.log.Error("Failed to complete round", "round_id", id, "error", err)
		return nil, storeErr(err, "round")
	}

	s.clearCompletionDue(id)
	s.log.Info("Round completed", "round_id", id, "results", len(results), "paid", total.String())
	s.emit(id, models.EventRoundCompleted)
	return results, nil
}

func resultsFromDistribution(tracker *elimination.Tracker, dist prize.Distribution) []ResultInput {
	paid := make(map[int64]decimal.Decimal, len(dist.Payouts))
	for _, p := range dist.Payouts {
		paid[p.PlayerID] = p.Amount
	}
	var inputs []ResultInput
	for _, seat := range tracker.Snapshot() {
		if seat.Position == nil {
			continue
		}
		inputs = append(inputs, ResultInput{PlayerID: seat.PlayerID, Position: *seat.Position, Prize: paid[seat.PlayerID]})
	}
	return inputs
}

// buildResults checks the confirmed lines against the seat snapshot and looks
// up points. Rebuys and knockout earnings default to the tracked values.
func buildResults(roundID int64, tracker *elimination.Tracker, inputs []ResultInput, cfg TournamentConfig) ([]models.RoundResult, decimal.Decimal, error) {
	total := decimal.Zero
	seenPlayers := make(map[int64]bool, len(inputs))
	seenPositions := make(map[int]bool, len(inputs))
	results := make([]models.RoundResult, 0, len(inputs))

	for _, in := range inputs {
		seat, ok := tracker.Seat(in.PlayerID)
		if !ok {
			return nil, decimal.Zero, errors.InvalidInputf("player %d is not seated in this round", in.PlayerID)
		}
		if seenPlayers[in.PlayerID] {
			return nil, decimal.Zero, errors.InvalidInputf("player %d appears twice", in.PlayerID)
		}
		seenPlayers[in.PlayerID] = true

		if in.Position < 1 || in.Position > tracker.SeatedCount() {
			return nil, decimal.Zero, errors.InvalidInputf("position %d is outside 1..%d", in.Position, tracker.SeatedCount())
		}
		if seenPositions[in.Position] {
			return nil, decimal.Zero, errors.InvalidInputf("position %d is assigned twice", in.Position)
		}
		seenPositions[in.Position] = true

		if seat.Position == nil {
			// unplaced players forfeit their place on an early finish
			continue
		}
		if in.Prize.IsNegative() {
			return nil, decimal.Zero, errors.InvalidInputf("prize for player %d must not be negative", in.PlayerID)
		}

		rebuys := seat.Rebuys
		if in.Rebuys != nil {
			rebuys = *in.Rebuys
		}
		earnings := seat.KnockoutEarnings
		if in.KnockoutEarnings != nil {
			earnings = *in.KnockoutEarnings
		}
		if rebuys < 0 || earnings.IsNegative() {
			return nil, decimal.Zero, errors.InvalidInputf("rebuys and knockout earnings for player %d must not be negative", in.PlayerID)
		}

		results = append(results, models.RoundResult{
			RoundID:          roundID,
			PlayerID:         in.PlayerID,
			Position:         in.Position,
			Points:           cfg.Scoring.Points(in.Position),
			Rebuys:           rebuys,
			KnockoutEarnings: earnings,
			Prize:            in.Prize,
		})
		total = total.Add(in.Prize)
	}

	for _, seat := range tracker.Snapshot() {
		if seat.Position != nil && !seenPlayers[seat.PlayerID] {
			return nil, decimal.Zero, errors.IncompletePositionsf("no result for player %d in position %d", seat.PlayerID, *seat.Position)
		}
	}
	return results, total, nil
}

// SpectatorURL returns the address observers open to follow a round
func (s *RoundService) SpectatorURL(ctx context.Context, id int64) (string, error) {
	baseURL, err := s.settings.GetBaseURL(ctx)
	if err != nil {
		return "", err
	}
	if baseURL == "" {
		return "", errors.Validation("base_url not configured")
	}
	return fmt.Sprintf("%s/api/rounds/%d/clock", strings.TrimSuffix(baseURL, "/"), id), nil
}

// SpectatorQR renders the spectator URL of a round as a PNG QR code
func (s *RoundService) SpectatorQR(ctx context.Context, id int64) ([]byte, error) {
	if _, err := s.GetRound(ctx, id); err != nil {
		return nil, err
	}
	url, err := s.SpectatorURL(ctx, id)
	if err != nil {
		return nil, err
	}
	png, err := qrcode.Encode(url, qrcode.Medium, 256)
	if err != nil {
		return nil, errors.Internal(err)
	}
	return png, nil
}
