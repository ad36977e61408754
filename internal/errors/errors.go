package errors

import (
	stderrors "errors"
	"fmt"
)

// Kind represents the type of error
type Kind int

const (
	ErrInternal Kind = iota
	ErrNotFound
	ErrValidation
	ErrConflict
	ErrInvalidInput

	// Round engine failures. Each one leaves the persisted round untouched.
	ErrInvalidTransition
	ErrMissingEliminator
	ErrImbalancedDistribution
	ErrIncompletePositions
	ErrRoundNotEliminated
	ErrAlreadyCompleted
	ErrDuplicateRoundNumber
	ErrRoundAlreadyActive
	ErrTransientIO
)

var kindNames = map[Kind]string{
	ErrInternal:               "internal",
	ErrNotFound:               "not_found",
	ErrValidation:             "validation",
	ErrConflict:               "conflict",
	ErrInvalidInput:           "invalid_input",
	ErrInvalidTransition:      "invalid_transition",
	ErrMissingEliminator:      "missing_eliminator",
	ErrImbalancedDistribution: "imbalanced_distribution",
	ErrIncompletePositions:    "incomplete_positions",
	ErrRoundNotEliminated:     "round_not_eliminated",
	ErrAlreadyCompleted:       "already_completed",
	ErrDuplicateRoundNumber:   "duplicate_round_number",
	ErrRoundAlreadyActive:     "round_already_active",
	ErrTransientIO:            "transient_io",
}

func (k Kind) String() string {
	if name, ok := kindNames[k]; ok {
		return name
	}
	return fmt.Sprintf("kind(%d)", int(k))
}

// Error is an application-level error with a kind for classification
type Error struct {
	Kind    Kind
	Message string
	Err     error // underlying error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *Error) Unwrap() error {
	return e.Err
}

// KindOf returns the kind of the first *Error in err's chain, or ErrInternal.
func KindOf(err error) Kind {
	var appErr *Error
	if stderrors.As(err, &appErr) {
		return appErr.Kind
	}
	return ErrInternal
}

// Is reports whether err carries the given kind.
func Is(err error, kind Kind) bool {
	if err == nil {
		return false
	}
	var appErr *Error
	return stderrors.As(err, &appErr) && appErr.Kind == kind
}

// Constructor functions for common error types

func NotFound(msg string) *Error {
	return &Error{Kind: ErrNotFound, Message: msg}
}

func NotFoundf(format string, args ...interface{}) *Error {
	return &Error{Kind: ErrNotFound, Message: fmt.Sprintf(format, args...)}
}

func Validation(msg string) *Error {
	return &Error{Kind: ErrValidation, Message: msg}
}

func Validationf(format string, args ...interface{}) *Error {
	return &Error{Kind: ErrValidation, Message: fmt.Sprintf(format, args...)}
}

func Conflict(msg string) *Error {
	return &Error{Kind: ErrConflict, Message: msg}
}

func Conflictf(format string, args ...interface{}) *Error {
	return &Error{Kind: ErrConflict, Message: fmt.Sprintf(format, args...)}
}

func InvalidInput(msg string) *Error {
	return &Error{Kind: ErrInvalidInput, Message: msg}
}

func InvalidInputf(format string, args ...interface{}) *Error {
	return &Error{Kind: ErrInvalidInput, Message: fmt.Sprintf(format, args...)}
}

func Internal(err error) *Error {
	return &Error{Kind: ErrInternal, Message: "internal error", Err: err}
}

func Internalf(format string, args ...interface{}) *Error {
	return &Error{Kind: ErrInternal, Message: fmt.Sprintf(format, args...)}
}

// InvalidTransitionf reports an operation that is not legal in the round's current state.
func InvalidTransitionf(format string, args ...interface{}) *Error {
	return &Error{Kind: ErrInvalidTransition, Message: fmt.Sprintf(format, args...)}
}

func MissingEliminator(playerID int64) *Error {
	return &Error{Kind: ErrMissingEliminator, Message: fmt.Sprintf("knockout elimination of player %d requires an eliminator", playerID)}
}

func ImbalancedDistributionf(format string, args ...interface{}) *Error {
	return &Error{Kind: ErrImbalancedDistribution, Message: fmt.Sprintf(format, args...)}
}

func IncompletePositionsf(format string, args ...interface{}) *Error {
	return &Error{Kind: ErrIncompletePositions, Message: fmt.Sprintf(format, args...)}
}

func RoundNotEliminated(active int) *Error {
	return &Error{Kind: ErrRoundNotEliminated, Message: fmt.Sprintf("%d players are still active", active)}
}

func AlreadyCompleted(roundID int64) *Error {
	return &Error{Kind: ErrAlreadyCompleted, Message: fmt.Sprintf("round %d is already completed", roundID)}
}

func DuplicateRoundNumber(number int) *Error {
	return &Error{Kind: ErrDuplicateRoundNumber, Message: fmt.Sprintf("round number %d already exists", number)}
}

func RoundAlreadyActive(activeID int64) *Error {
	return &Error{Kind: ErrRoundAlreadyActive, Message: fmt.Sprintf("round %d is already active", activeID)}
}

// TransientIO marks a store failure the caller may retry.
func TransientIO(err error) *Error {
	return &Error{Kind: ErrTransientIO, Message: "storage temporarily unavailable", Err: err}
}

// Wrap wraps an error with additional context
func Wrap(err error, kind Kind, msg string) *Error {
	return &Error{Kind: kind, Message: msg, Err: err}
}
