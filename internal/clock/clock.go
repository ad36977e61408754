// Package clock derives and transitions the blind-level clock of a round.
//
// The persisted Snapshot is authoritative. Readers call Remaining with their own
// wall-clock time and never write back, so any number of observers converge on
// the same display without a shared channel.
package clock

import (
	"strings"
	"time"

	"github.com/abrezinsky/pokerleague/internal/errors"
)

// Level is one rung of the blind ladder.
type Level struct {
	Label   string `json:"label"`
	Break   bool   `json:"is_break"`
	Seconds int    `json:"duration_seconds"`
}

// Ladder is the ordered list of blind levels for a season.
type Ladder []Level

// BuildLadder resolves labels, break markers and per-level minute overrides.
// A label counts as a break when it contains breakMarker, case-insensitively.
func BuildLadder(labels []string, breakMarker string, defaultMinutes int, overrides map[int]int) Ladder {
	marker := strings.ToLower(strings.TrimSpace(breakMarker))
	ladder := make(Ladder, len(labels))
	for i, label := range labels {
		minutes := defaultMinutes
		if m, ok := overrides[i]; ok && m > 0 {
			minutes = m
		}
		ladder[i] = Level{
			Label:   label,
			Break:   marker != "" && strings.Contains(strings.ToLower(label), marker),
			Seconds: minutes * 60,
		}
	}
	return ladder
}

// Duration returns the configured length of level in seconds, or 0 outside the ladder.
func (l Ladder) Duration(level int) int {
	if level < 0 || level >= len(l) {
		return 0
	}
	return l[level].Seconds
}

// IsBreak reports whether level is a break.
func (l Ladder) IsBreak(level int) bool {
	return level >= 0 && level < len(l) && l[level].Break
}

// FirstBreak returns the index of the first break level, or -1.
func (l Ladder) FirstBreak() int {
	for i, level := range l {
		if level.Break {
			return i
		}
	}
	return -1
}

// clamp keeps level a valid index; one past the end means the clock is exhausted
// and stays on the last level.
func (l Ladder) clamp(level int) int {
	if level < 0 {
		return 0
	}
	if level >= len(l) {
		return len(l) - 1
	}
	return level
}

// Snapshot is the persisted clock state of a round.
type Snapshot struct {
	Started          bool       `json:"is_started"`
	Level            int        `json:"current_level"`
	Paused           bool       `json:"is_paused"`
	StartedAt        *time.Time `json:"timer_started_at"`
	RemainingSeconds int        `json:"time_remaining_seconds"`
}

// Running reports whether the clock is counting down.
func (s Snapshot) Running() bool {
	return s.Started && !s.Paused && s.StartedAt != nil
}

// Remaining returns the displayed seconds left in the current level at now.
func (s Snapshot) Remaining(now time.Time) int {
	if !s.Running() {
		return s.RemainingSeconds
	}
	elapsedMs := now.Sub(*s.StartedAt).Milliseconds()
	if elapsedMs < 0 {
		elapsedMs = 0
	}
	remaining := s.RemainingSeconds - int(elapsedMs/1000)
	if remaining < 0 {
		return 0
	}
	return remaining
}

// Start begins level 0. It fails if the clock has already started.
func Start(s Snapshot, ladder Ladder, now time.Time) (Snapshot, error) {
	if s.Started {
		return s, errors.InvalidTransitionf("clock already started")
	}
	if len(ladder) == 0 {
		return s, errors.InvalidTransitionf("no blind levels configured")
	}
	at := now
	return Snapshot{
		Started:          true,
		Level:            0,
		Paused:           false,
		StartedAt:        &at,
		RemainingSeconds: ladder.Duration(0),
	}, nil
}

// SetPaused freezes or resumes the clock. Pausing stores the displayed
// remaining time; resuming restarts the countdown from it at now.
// The bool result is false when the clock was already in the requested state.
func SetPaused(s Snapshot, paused bool, now time.Time) (Snapshot, bool, error) {
	if !s.Started {
		return s, false, errors.InvalidTransitionf("clock has not started")
	}
	if s.Paused == paused {
		return s, false, nil
	}
	next := s
	if paused {
		next.RemainingSeconds = s.Remaining(now)
		next.Paused = true
		next.StartedAt = nil
		return next, true, nil
	}
	at := now
	next.Paused = false
	next.StartedAt = &at
	return next, true, nil
}

// TogglePause flips the paused flag.
func TogglePause(s Snapshot, now time.Time) (Snapshot, error) {
	next, _, err := SetPaused(s, !s.Paused, now)
	return next, err
}

// Advance moves one level in direction (+1 or -1), clamped to the ladder.
// The bool result reports whether the level actually changed.
func Advance(s Snapshot, ladder Ladder, direction int, now time.Time) (Snapshot, bool, error) {
	if direction != 1 && direction != -1 {
		return s, false, errors.InvalidInputf("direction must be +1 or -1, got %d", direction)
	}
	if len(ladder) == 0 {
		return s, false, errors.InvalidTransitionf("no blind levels configured")
	}
	target := ladder.clamp(s.Level + direction)
	if target == s.Level {
		return s, false, nil
	}
	return moveTo(s, ladder, target, now), true, nil
}

func moveTo(s Snapshot, ladder Ladder, level int, now time.Time) Snapshot {
	next := s
	next.Level = level
	next.RemainingSeconds = ladder.Duration(level)
	next.StartedAt = nil
	if s.Started && !s.Paused {
		at := now
		next.StartedAt = &at
	}
	return next
}

// Tick applies the zero boundary: when a running level has no time left and a
// next level exists, the clock advances exactly as Advance(+1) would. On the
// last level the remaining time clamps at zero. Only the writer should call it.
func Tick(s Snapshot, ladder Ladder, now time.Time) (Snapshot, bool) {
	if !s.Running() || s.Remaining(now) > 0 {
		return s, false
	}
	if s.Level+1 >= len(ladder) {
		if s.RemainingSeconds == 0 {
			return s, false
		}
		next := s
		next.RemainingSeconds = 0
		at := now
		next.StartedAt = &at
		return next, true
	}
	return moveTo(s, ladder, s.Level+1, now), true
}

// Set writes an explicit snapshot chosen by the admin client. A level past
// the end of the ladder is clamped to the last level. When running without
// an explicit start time, the countdown starts at now.
func Set(s Snapshot, ladder Ladder, level int, startedAt *time.Time, remaining int, now time.Time) (Snapshot, error) {
	if !s.Started {
		return s, errors.InvalidTransitionf("clock has not started")
	}
	if len(ladder) == 0 {
		return s, errors.InvalidTransitionf("no blind levels configured")
	}
	if level < 0 {
		return s, errors.InvalidInputf("level must be >= 0, got %d", level)
	}
	if remaining < 0 {
		return s, errors.InvalidInputf("remaining seconds must be >= 0, got %d", remaining)
	}
	next := s
	next.Level = ladder.clamp(level)
	next.RemainingSeconds = remaining
	next.StartedAt = nil
	if !s.Paused {
		at := now
		if startedAt != nil {
			at = *startedAt
		}
		next.StartedAt = &at
	}
	return next, nil
}
