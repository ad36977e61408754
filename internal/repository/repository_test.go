package repository

import (
	"context"
	stderrors "errors"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"github.com/abrezinsky/pokerleague/internal/models"
)

// newTestRepo creates a new in-memory repository for testing.
func newTestRepo(t *testing.T) *Repository {
	t.Helper()
	repo, err := New(":memory:")
	if err != nil {
		t.Fatalf("failed to create test repository: %v", err)
	}
	t.Cleanup(func() { repo.Close() })
	return repo
}

func newRound(number int, status models.RoundStatus) *models.Round {
	return &models.Round{
		RoundNumber:   number,
		Type:          models.RoundRegular,
		BuyIn:         decimal.NewFromInt(600),
		RebuyValue:    decimal.NewFromInt(300),
		KnockoutValue: decimal.Zero,
		Status:        status,
		CreatedAt:     time.Date(2026, 3, 1, 20, 0, 0, 0, time.UTC),
	}
}

func seatsFor(ids ...int64) []models.SeatedPlayer {
	seats := make([]models.SeatedPlayer, len(ids))
	for i, id := range ids {
		seats[i] = models.SeatedPlayer{PlayerID: id, IsActive: true, BountyPaid: decimal.Zero, KnockoutEarnings: decimal.Zero}
	}
	return seats
}

func createActive(t *testing.T, repo *Repository, number int, ids ...int64) int64 {
	t.Helper()
	id, err := repo.CreateRound(context.Background(), newRound(number, models.StatusActive), seatsFor(ids...),
		&models.RoundEvent{Type: models.EventRoundCreated})
	if err != nil {
		t.Fatalf("CreateRound failed: %v", err)
	}
	return id
}

// ==================== Round Tests ====================

func TestCreateRound_RoundTrip(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	id := createActive(t, repo, 1, 10, 11, 12)

	round, err := repo.GetRound(ctx, id)
	if err != nil {
		t.Fatalf("GetRound failed: %v", err)
	}
	if round.RoundNumber != 1 || round.Status != models.StatusActive || round.Type != models.RoundRegular {
		t.Errorf("unexpected round %+v", round)
	}
	if !round.BuyIn.Equal(decimal.NewFromInt(600)) || !round.RebuyValue.Equal(decimal.NewFromInt(300)) {
		t.Errorf("money did not round-trip: buy-in %s rebuy %s", round.BuyIn, round.RebuyValue)
	}
	if round.IsStarted || round.TimerStartedAt != nil {
		t.Error("new round must not be started")
	}

	seats, err := repo.ListSeats(ctx, id)
	if err != nil {
		t.Fatalf("ListSeats failed: %v", err)
	}
	if len(seats) != 3 || seats[0].PlayerID != 10 || seats[2].PlayerID != 12 {
		t.Errorf("unexpected seats %+v", seats)
	}

	events, err := repo.ListEvents(ctx, id, 0)
	if err != nil {
		t.Fatalf("ListEvents failed: %v", err)
	}
	if len(events) != 1 || events[0].Type != models.EventRoundCreated || events[0].ID == "" {
		t.Errorf("unexpected events %+v", events)
	}
}

func TestCreateRound_DuplicateNumber(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	if _, err := repo.CreateRound(ctx, newRound(4, models.StatusScheduled), nil, nil); err != nil {
		t.Fatalf("first CreateRound failed: %v", err)
	}
	_, err := repo.CreateRound(ctx, newRound(4, models.StatusScheduled), nil, nil)
	if err != ErrDuplicateRoundNumber {
		t.Errorf("expected ErrDuplicateRoundNumber, got %v", err)
	}

	exists, err := repo.RoundNumberExists(ctx, 4)
	if err != nil || !exists {
		t.Errorf("expected round 4 to exist, got %v, %v", exists, err)
	}
}

func TestCreateRound_SecondActiveRefused(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	createActive(t, repo, 1, 1, 2)
	_, err := repo.CreateRound(ctx, newRound(2, models.StatusActive), seatsFor(3, 4), nil)
	if err != ErrActiveRoundExists {
		t.Errorf("expected ErrActiveRoundExists, got %v", err)
	}

	// nothing from the failed attempt is left behind
	if exists, _ := repo.RoundNumberExists(ctx, 2); exists {
		t.Error("round 2 should not have been written")
	}

	_, err = repo.CreateRound(ctx, newRound(3, models.StatusScheduled), nil, nil)
	if err != ErrActiveRoundExists {
		t.Errorf("expected a scheduled round to be refused too, got %v", err)
	}
}

func TestActivateRound(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	id, err := repo.CreateRound(ctx, newRound(1, models.StatusScheduled), nil, nil)
	if err != nil {
		t.Fatalf("CreateRound failed: %v", err)
	}
	if _, err := repo.GetActiveRound(ctx); err != ErrNotFound {
		t.Errorf("expected no active round, got %v", err)
	}

	if err := repo.ActivateRound(ctx, id, seatsFor(5, 6), &models.RoundEvent{Type: models.EventRoundActivated}); err != nil {
		t.Fatalf("ActivateRound failed: %v", err)
	}
	active, err := repo.GetActiveRound(ctx)
	if err != nil || active.ID != id {
		t.Fatalf("expected round %d active, got %v, %v", id, active, err)
	}

	if err := repo.ActivateRound(ctx, id, nil, nil); err != ErrActiveRoundExists {
		t.Errorf("expected ErrActiveRoundExists on re-activation, got %v", err)
	}
	if err := repo.ActivateRound(ctx, 999, nil, nil); err != ErrNotFound {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}

func TestGetRound_NotFound(t *testing.T) {
	repo := newTestRepo(t)
	if _, err := repo.GetRound(context.Background(), 42); err != ErrNotFound {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}

func TestListRounds_OrderedByNumber(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	for _, n := range []int{3, 1, 2} {
		if _, err := repo.CreateRound(ctx, newRound(n, models.StatusScheduled), nil, nil); err != nil {
			t.Fatalf("CreateRound(%d) failed: %v", n, err)
		}
	}
	rounds, err := repo.ListRounds(ctx)
	if err != nil {
		t.Fatalf("ListRounds failed: %v", err)
	}
	for i, r := range rounds {
		if r.RoundNumber != i+1 {
			t.Errorf("position %d has round %d", i, r.RoundNumber)
		}
	}
}

func TestSaveClock(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()
	id := createActive(t, repo, 1, 1, 2)

	round, _ := repo.GetRound(ctx, id)
	started := time.Date(2026, 3, 1, 20, 5, 0, 0, time.UTC)
	round.IsStarted = true
	round.CurrentLevel = 2
	round.TimerStartedAt = &started
	round.TimeRemainingSeconds = 900
	level := 2

	if err := repo.SaveClock(ctx, round, &models.RoundEvent{Type: models.EventLevelChanged, Level: &level}); err != nil {
		t.Fatalf("SaveClock failed: %v", err)
	}

	got, _ := repo.GetRound(ctx, id)
	if !got.IsStarted || got.CurrentLevel != 2 || got.TimeRemainingSeconds != 900 {
		t.Errorf("unexpected clock %+v", got)
	}
	if got.TimerStartedAt == nil || !got.TimerStartedAt.Equal(started) {
		t.Errorf("expected started at %v, got %v", started, got.TimerStartedAt)
	}

	got.IsPaused = true
	got.TimerStartedAt = nil
	if err := repo.SaveClock(ctx, got, nil); err != nil {
		t.Fatalf("SaveClock(pause) failed: %v", err)
	}
	paused, _ := repo.GetRound(ctx, id)
	if !paused.IsPaused || paused.TimerStartedAt != nil {
		t.Errorf("expected paused clock without start time, got %+v", paused)
	}

	events, _ := repo.ListEvents(ctx, id, 0)
	if len(events) != 2 || events[1].Level == nil || *events[1].Level != 2 {
		t.Errorf("unexpected events %+v", events)
	}
}

func TestSaveClock_NotActive(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	id, _ := repo.CreateRound(ctx, newRound(1, models.StatusScheduled), nil, nil)
	round, _ := repo.GetRound(ctx, id)
	if err := repo.SaveClock(ctx, round, nil); err != ErrRoundNotActive {
		t.Errorf("expected ErrRoundNotActive, got %v", err)
	}
	if err := repo.SaveClock(ctx, &models.Round{ID: 77}, nil); err != ErrNotFound {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}

// ==================== Seat Tests ====================

func TestSaveSeats_ReplacesSnapshot(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()
	id := createActive(t, repo, 1, 1, 2, 3)

	seats, _ := repo.ListSeats(ctx, id)
	pos := 3
	at := time.Date(2026, 3, 1, 21, 0, 0, 0, time.UTC)
	by := int64(2)
	seats[0].IsActive = false
	seats[0].Position = &pos
	seats[0].EliminatedAt = &at
	seats[0].EliminatedBy = &by
	seats[0].BountyPaid = decimal.NewFromInt(50)
	seats[1].KnockoutEarnings = decimal.NewFromInt(50)
	seats[2].Rebuys = 2

	player := int64(1)
	if err := repo.SaveSeats(ctx, id, seats, &models.RoundEvent{Type: models.EventPlayerEliminated, PlayerID: &player}); err != nil {
		t.Fatalf("SaveSeats failed: %v", err)
	}

	got, err := repo.ListSeats(ctx, id)
	if err != nil {
		t.Fatalf("ListSeats failed: %v", err)
	}
	if got[0].IsActive || got[0].Position == nil || *got[0].Position != 3 {
		t.Errorf("unexpected eliminated seat %+v", got[0])
	}
	if got[0].EliminatedBy == nil || *got[0].EliminatedBy != 2 || !got[0].EliminatedAt.Equal(at) {
		t.Errorf("elimination details lost: %+v", got[0])
	}
	if !got[0].BountyPaid.Equal(decimal.NewFromInt(50)) || !got[1].KnockoutEarnings.Equal(decimal.NewFromInt(50)) {
		t.Error("bounty amounts lost")
	}
	if got[2].Rebuys != 2 {
		t.Errorf("expected 2 rebuys, got %d", got[2].Rebuys)
	}

	// removing a seat shrinks the snapshot
	if err := repo.SaveSeats(ctx, id, got[:2], nil); err != nil {
		t.Fatalf("SaveSeats failed: %v", err)
	}
	if after, _ := repo.ListSeats(ctx, id); len(after) != 2 {
		t.Errorf("expected 2 seats, got %d", len(after))
	}
}

func TestSaveSeats_RoundNotActive(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	id, _ := repo.CreateRound(ctx, newRound(1, models.StatusScheduled), nil, nil)
	if err := repo.SaveSeats(ctx, id, seatsFor(1), nil); err != ErrRoundNotActive {
		t.Errorf("expected ErrRoundNotActive, got %v", err)
	}
	if err := repo.SaveSeats(ctx, 404, seatsFor(1), nil); err != ErrNotFound {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}

// ==================== Result Tests ====================

func results(roundID int64) []models.RoundResult {
	return []models.RoundResult{
		{RoundID: roundID, PlayerID: 1, Position: 1, Points: 25, Prize: decimal.NewFromInt(1920), KnockoutEarnings: decimal.Zero},
		{RoundID: roundID, PlayerID: 2, Position: 2, Points: 18, Rebuys: 1, Prize: decimal.NewFromInt(960), KnockoutEarnings: decimal.NewFromInt(20)},
	}
}

func TestCompleteRound(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()
	id := createActive(t, repo, 1, 1, 2)
	completedAt := time.Date(2026, 3, 1, 23, 30, 0, 0, time.UTC)

	if err := repo.CompleteRound(ctx, id, results(id), decimal.NewFromInt(300), completedAt, &models.RoundEvent{Type: models.EventRoundCompleted}); err != nil {
		t.Fatalf("CompleteRound failed: %v", err)
	}

	round, _ := repo.GetRound(ctx, id)
	if round.Status != models.StatusCompleted || round.IsStarted || round.CompletedAt == nil {
		t.Errorf("unexpected completed round %+v", round)
	}
	if !round.FinalTableCut.Valid || !round.FinalTableCut.Decimal.Equal(decimal.NewFromInt(300)) {
		t.Errorf("expected stored final table cut 300, got %+v", round.FinalTableCut)
	}
	if seats, _ := repo.ListSeats(ctx, id); len(seats) != 0 {
		t.Errorf("expected seats to be dropped, got %d", len(seats))
	}

	got, err := repo.ListResults(ctx, id)
	if err != nil {
		t.Fatalf("ListResults failed: %v", err)
	}
	if len(got) != 2 || got[1].Rebuys != 1 || !got[1].KnockoutEarnings.Equal(decimal.NewFromInt(20)) {
		t.Errorf("unexpected results %+v", got)
	}

	err = repo.CompleteRound(ctx, id, results(id), decimal.Zero, completedAt, nil)
	if err != ErrRoundCompleted {
		t.Errorf("expected ErrRoundCompleted, got %v", err)
	}
}

func TestCompleteRound_AtomicOnFailure(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()
	id := createActive(t, repo, 1, 1, 2)

	// duplicate player rows violate the primary key half way through
	bad := append(results(id), models.RoundResult{RoundID: id, PlayerID: 1, Position: 3, Prize: decimal.Zero, KnockoutEarnings: decimal.Zero})
	if err := repo.CompleteRound(ctx, id, bad, decimal.Zero, time.Now(), nil); err == nil {
		t.Fatal("expected an error")
	}

	round, _ := repo.GetRound(ctx, id)
	if round.Status != models.StatusActive {
		t.Errorf("expected round to stay active, got %s", round.Status)
	}
	if got, _ := repo.ListResults(ctx, id); len(got) != 0 {
		t.Errorf("expected no partial results, got %d", len(got))
	}
	if seats, _ := repo.ListSeats(ctx, id); len(seats) != 2 {
		t.Errorf("expected seats to survive, got %d", len(seats))
	}
}

func TestListCompletedRounds(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	first := createActive(t, repo, 1, 1, 2)
	if err := repo.CompleteRound(ctx, first, results(first), decimal.NewFromInt(300), time.Now(), nil); err != nil {
		t.Fatalf("CompleteRound failed: %v", err)
	}
	second := createActive(t, repo, 2, 1, 2)
	if err := repo.CompleteRound(ctx, second, results(second)[:1], decimal.NewFromInt(120), time.Now(), nil); err != nil {
		t.Fatalf("CompleteRound failed: %v", err)
	}
	createActive(t, repo, 3, 1, 2)

	completed, err := repo.ListCompletedRounds(ctx)
	if err != nil {
		t.Fatalf("ListCompletedRounds failed: %v", err)
	}
	if len(completed) != 2 {
		t.Fatalf("expected 2 completed rounds, got %d", len(completed))
	}
	if len(completed[0].Results) != 2 || len(completed[1].Results) != 1 {
		t.Errorf("results grouped wrongly: %d / %d", len(completed[0].Results), len(completed[1].Results))
	}
	if !completed[1].Round.FinalTableCut.Decimal.Equal(decimal.NewFromInt(120)) {
		t.Errorf("expected second round cut 120, got %s", completed[1].Round.FinalTableCut.Decimal)
	}
}

// ==================== Event Tests ====================

func TestListEvents_Limit(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()
	id := createActive(t, repo, 1, 1, 2)

	for level := 1; level <= 4; level++ {
		l := level
		if err := repo.AppendEvent(ctx, &models.RoundEvent{RoundID: id, Type: models.EventLevelChanged, Level: &l}); err != nil {
			t.Fatalf("AppendEvent failed: %v", err)
		}
	}

	events, err := repo.ListEvents(ctx, id, 2)
	if err != nil {
		t.Fatalf("ListEvents failed: %v", err)
	}
	if len(events) != 2 || *events[0].Level != 3 || *events[1].Level != 4 {
		t.Errorf("expected the newest two events oldest first, got %+v", events)
	}
}

// ==================== Settings Tests ====================

func TestSettings(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	if _, err := repo.GetSetting(ctx, "missing"); err != ErrNotFound {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
	if v, err := repo.GetSetting(ctx, "poll_interval_seconds"); err != nil || v != "5" {
		t.Errorf("expected default poll interval, got %q, %v", v, err)
	}
	if err := repo.SetSetting(ctx, "base_url", "http://10.0.0.2:8080"); err != nil {
		t.Fatalf("SetSetting failed: %v", err)
	}
	if err := repo.SetSetting(ctx, "base_url", "http://10.0.0.3:8080"); err != nil {
		t.Fatalf("SetSetting overwrite failed: %v", err)
	}
	if v, _ := repo.GetSetting(ctx, "base_url"); v != "http://10.0.0.3:8080" {
		t.Errorf("unexpected base_url %q", v)
	}
}

func TestPingAndClose(t *testing.T) {
	repo, err := New(":memory:")
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}
	if err := repo.Ping(context.Background()); err != nil {
		t.Errorf("Ping failed: %v", err)
	}
	if repo.DB() == nil {
		t.Error("expected DB handle")
	}
	if err := repo.Close(); err != nil {
		t.Errorf("Close failed: %v", err)
	}
	if err := repo.Ping(context.Background()); err == nil {
		t.Error("expected Ping to fail after Close")
	}
}

func TestIsTransient(t *testing.T) {
	if IsTransient(nil) {
		t.Error("nil is not transient")
	}
	if !IsTransient(context.DeadlineExceeded) {
		t.Error("deadline should be transient")
	}
	if IsTransient(stderrors.New("syntax error")) {
		t.Error("plain errors are not transient")
	}
}
