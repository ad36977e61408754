package app

import (
	"context"

	"github.com/abrezinsky/pokerleague/internal/services"
)

// The console controls act on whichever round is active.

// TogglePause pauses or resumes the active round's clock
func (a *App) TogglePause(ctx context.Context) (*services.ClockView, error) {
	round, err := a.rounds.GetActiveRound(ctx)
	if err != nil {
		return nil, err
	}
	return a.rounds.TogglePause(ctx, round.ID)
}

// StepLevel moves the active round one level forward (1) or back (-1)
func (a *App) StepLevel(ctx context.Context, direction int) (*services.ClockView, bool, error) {
	round, err := a.rounds.GetActiveRound(ctx)
	if err != nil {
		return nil, false, err
	}
	return a.rounds.AdvanceLevel(ctx, round.ID, direction)
}

// ActiveClockURL is the spectator link of the active round
func (a *App) ActiveClockURL(ctx context.Context) (string, error) {
	round, err := a.rounds.GetActiveRound(ctx)
	if err != nil {
		return "", err
	}
	return a.rounds.SpectatorURL(ctx, round.ID)
}
