package repository

import (
	"context"
	"errors"

	"github.com/mattn/go-sqlite3"
)

// ErrNotFound is returned when a requested record is not found in the repository.
// This abstracts away the underlying storage implementation from the service layer.
var ErrNotFound = errors.New("record not found")

// ErrDuplicateRoundNumber is returned when a round number is already taken.
var ErrDuplicateRoundNumber = errors.New("round number already exists")

// ErrActiveRoundExists is returned when a second round would become active.
var ErrActiveRoundExists = errors.New("another round is already active")

// ErrRoundCompleted is returned when writing to a round that has been completed.
var ErrRoundCompleted = errors.New("round already completed")

// ErrRoundNotActive is returned when seat or clock state is written to a round
// that is not active.
var ErrRoundNotActive = errors.New("round is not active")

// IsTransient reports whether err is a storage condition worth retrying:
// a busy or locked database, or a context deadline.
func IsTransient(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var sqliteErr sqlite3.Error
	if errors.As(err, &sqliteErr) {
		return sqliteErr.Code == sqlite3.ErrBusy || sqliteErr.Code == sqlite3.ErrLocked
	}
	return false
}

func isUniqueViolation(err error) bool {
	var sqliteErr sqlite3.Error
	if errors.As(err, &sqliteErr) {
		return sqliteErr.ExtendedCode == sqlite3.ErrConstraintUnique ||
			sqliteErr.ExtendedCode == sqlite3.ErrConstraintPrimaryKey
	}
	return false
}
