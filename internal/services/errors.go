package services

import (
	stderrors "errors"

	"github.com/abrezinsky/pokerleague/internal/errors"
	"github.com/abrezinsky/pokerleague/internal/repository"
)

// storeErr classifies a repository error for callers. Busy, locked and
// timed-out writes become TransientIO so the client can retry; anything
// unrecognised is internal.
func storeErr(err error, what string) error {
	if err == nil {
		return nil
	}
	var appErr *errors.Error
	switch {
	case stderrors.As(err, &appErr):
		return err
	case stderrors.Is(err, repository.ErrNotFound):
		return errors.NotFoundf("%s not found", what)
	case repository.IsTransient(err):
		return errors.TransientIO(err)
	default:
		return errors.Internal(err)
	}
}
