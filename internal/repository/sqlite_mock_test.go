package repository

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/mattn/go-sqlite3"
	"github.com/shopspring/decimal"

	"github.com/abrezinsky/pokerleague/internal/models"
)

func newMockRepo(t *testing.T) (*Repository, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("failed to create mock: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return &Repository{db: db}, mock
}

// TestCompleteRound_BusyRollsBack tests that a locked database aborts the whole completion
func TestCompleteRound_BusyRollsBack(t *testing.T) {
	repo, mock := newMockRepo(t)

	mock.ExpectBegin()
	mock.ExpectQuery("SELECT status FROM rounds").
		WithArgs(int64(1)).
		WillReturnRows(sqlmock.NewRows([]string{"status"}).AddRow("active"))
	mock.ExpectPrepare("INSERT INTO round_results").
		ExpectExec().
		WillReturnError(sqlite3.Error{Code: sqlite3.ErrBusy})
	mock.ExpectRollback()

	err := repo.CompleteRound(context.Background(), 1, results(1), decimal.Zero, time.Now(), nil)
	if err == nil {
		t.Fatal("expected error")
	}
	if !IsTransient(err) {
		t.Errorf("expected busy error to be transient, got %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("unmet expectations: %v", err)
	}
}

// TestCompleteRound_StatusFlipFails tests that a failed status update rolls back inserted results
func TestCompleteRound_StatusFlipFails(t *testing.T) {
	repo, mock := newMockRepo(t)

	mock.ExpectBegin()
	mock.ExpectQuery("SELECT status FROM rounds").
		WillReturnRows(sqlmock.NewRows([]string{"status"}).AddRow("active"))
	prep := mock.ExpectPrepare("INSERT INTO round_results")
	prep.ExpectExec().WillReturnResult(sqlmock.NewResult(1, 1))
	prep.ExpectExec().WillReturnResult(sqlmock.NewResult(2, 1))
	mock.ExpectExec("UPDATE rounds SET status = 'completed'").
		WillReturnError(errors.New("disk I/O error"))
	mock.ExpectRollback()

	if err := repo.CompleteRound(context.Background(), 1, results(1), decimal.Zero, time.Now(), nil); err == nil {
		t.Fatal("expected error")
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("unmet expectations: %v", err)
	}
}

// TestCreateRound_UniqueViolation tests mapping of the round_number constraint
func TestCreateRound_UniqueViolation(t *testing.T) {
	repo, mock := newMockRepo(t)

	mock.ExpectBegin()
	mock.ExpectQuery("SELECT id FROM rounds WHERE status = 'active'").
		WillReturnRows(sqlmock.NewRows([]string{"id"}))
	mock.ExpectExec("INSERT INTO rounds").
		WillReturnError(sqlite3.Error{Code: sqlite3.ErrConstraint, ExtendedCode: sqlite3.ErrConstraintUnique})
	mock.ExpectRollback()

	_, err := repo.CreateRound(context.Background(), newRound(1, models.StatusScheduled), nil, nil)
	if err != ErrDuplicateRoundNumber {
		t.Errorf("expected ErrDuplicateRoundNumber, got %v", err)
	}
}

// TestSaveSeats_BeginError tests that a failed transaction start is returned as-is
func TestSaveSeats_BeginError(t *testing.T) {
	repo, mock := newMockRepo(t)

	mock.ExpectBegin().WillReturnError(sqlite3.Error{Code: sqlite3.ErrLocked})

	err := repo.SaveSeats(context.Background(), 1, seatsFor(1, 2), nil)
	if !IsTransient(err) {
		t.Errorf("expected locked error to be transient, got %v", err)
	}
}

// TestGetRound_ScanError tests row scanning error
func TestGetRound_ScanError(t *testing.T) {
	repo, mock := newMockRepo(t)

	rows := sqlmock.NewRows([]string{"id", "round_number", "round_type", "buy_in_value", "rebuy_value",
		"knockout_value", "is_final_table", "status", "is_started", "current_level", "is_paused",
		"timer_started_at", "time_remaining_seconds", "created_at", "completed_at", "final_table_cut"}).
		AddRow("not-a-number", 1, "regular", "600", "0", "0", false, "active", false, 0, false, nil, 0, time.Now(), nil, nil)
	mock.ExpectQuery("SELECT (.+) FROM rounds WHERE id").WillReturnRows(rows)

	_, err := repo.GetRound(context.Background(), 1)
	if err == nil || err == ErrNotFound {
		t.Errorf("expected scan error, got %v", err)
	}
}

// TestListSeats_ScanError tests that a corrupt money column fails the read
func TestListSeats_ScanError(t *testing.T) {
	repo, mock := newMockRepo(t)

	rows := sqlmock.NewRows([]string{"player_id", "is_active", "position", "eliminated_at", "eliminated_by",
		"bounty_paid", "rebuys", "knockout_earnings"}).
		AddRow(1, true, nil, nil, nil, "not-money", 0, "0")
	mock.ExpectQuery("SELECT (.+) FROM round_players").WillReturnRows(rows)

	if _, err := repo.ListSeats(context.Background(), 1); err == nil {
		t.Error("expected error from scan failure, got nil")
	}
}

// TestListCompletedRounds_ResultQueryError tests failure of the second query
func TestListCompletedRounds_ResultQueryError(t *testing.T) {
	repo, mock := newMockRepo(t)

	rows := sqlmock.NewRows([]string{"id", "round_number", "round_type", "buy_in_value", "rebuy_value",
		"knockout_value", "is_final_table", "status", "is_started", "current_level", "is_paused",
		"timer_started_at", "time_remaining_seconds", "created_at", "completed_at", "final_table_cut"}).
		AddRow(1, 1, "regular", "600", "0", "0", false, "completed", false, 0, false, nil, 0, time.Now(), time.Now(), "60")
	mock.ExpectQuery("SELECT (.+) FROM rounds WHERE status = 'completed'").WillReturnRows(rows)
	mock.ExpectQuery("SELECT (.+) FROM round_results").WillReturnError(sqlite3.Error{Code: sqlite3.ErrBusy})

	_, err := repo.ListCompletedRounds(context.Background())
	if !IsTransient(err) {
		t.Errorf("expected transient error, got %v", err)
	}
}

func TestIsTransient_SQLiteCodes(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want bool
	}{
		{"busy", sqlite3.Error{Code: sqlite3.ErrBusy}, true},
		{"locked", sqlite3.Error{Code: sqlite3.ErrLocked}, true},
		{"constraint", sqlite3.Error{Code: sqlite3.ErrConstraint}, false},
		{"wrapped deadline", errors.Join(errors.New("query"), context.DeadlineExceeded), true},
		{"canceled", context.Canceled, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := IsTransient(tt.err); got != tt.want {
				t.Errorf("IsTransient(%v) = %v, want %v", tt.err, got, tt.want)
			}
		})
	}
}
