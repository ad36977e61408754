package clock

import (
	"testing"
	"time"

	"github.com/abrezinsky/pokerleague/internal/errors"
)

var t0 = time.Date(2025, 3, 14, 20, 0, 0, 0, time.UTC)

func testLadder() Ladder {
	return BuildLadder([]string{"25/50", "50/100", "Break", "100/200"}, "break", 15, map[int]int{2: 10})
}

func running(level, remaining int, startedAt time.Time) Snapshot {
	return Snapshot{Started: true, Level: level, StartedAt: &startedAt, RemainingSeconds: remaining}
}

func TestBuildLadder(t *testing.T) {
	ladder := testLadder()

	if len(ladder) != 4 {
		t.Fatalf("expected 4 levels, got %d", len(ladder))
	}
	if ladder.Duration(0) != 900 {
		t.Errorf("expected default 900s, got %d", ladder.Duration(0))
	}
	if ladder.Duration(2) != 600 {
		t.Errorf("expected override 600s, got %d", ladder.Duration(2))
	}
	if !ladder.IsBreak(2) || ladder.IsBreak(1) {
		t.Error("expected only level 2 to be a break")
	}
	if ladder.FirstBreak() != 2 {
		t.Errorf("expected first break at 2, got %d", ladder.FirstBreak())
	}
	if ladder.Duration(9) != 0 {
		t.Error("expected 0 duration outside ladder")
	}
}

func TestRemaining(t *testing.T) {
	tests := []struct {
		name string
		snap Snapshot
		now  time.Time
		want int
	}{
		{"running 65s later", running(0, 600, t0), t0.Add(65000 * time.Millisecond), 535},
		{"partial second truncates", running(0, 600, t0), t0.Add(65999 * time.Millisecond), 535},
		{"clock skew clamps elapsed", running(0, 600, t0), t0.Add(-5 * time.Second), 600},
		{"never below zero", running(0, 30, t0), t0.Add(time.Hour), 0},
		{"paused ignores wall clock", Snapshot{Started: true, Paused: true, RemainingSeconds: 600}, t0.Add(time.Hour), 600},
		{"not started", Snapshot{RemainingSeconds: 0}, t0, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.snap.Remaining(tt.now); got != tt.want {
				t.Errorf("Remaining() = %d, want %d", got, tt.want)
			}
		})
	}
}

func TestStart(t *testing.T) {
	s, err := Start(Snapshot{}, testLadder(), t0)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !s.Started || s.Paused || s.Level != 0 {
		t.Errorf("unexpected snapshot %+v", s)
	}
	if s.RemainingSeconds != 900 || s.StartedAt == nil || !s.StartedAt.Equal(t0) {
		t.Errorf("unexpected timing %+v", s)
	}

	_, err = Start(s, testLadder(), t0)
	if !errors.Is(err, errors.ErrInvalidTransition) {
		t.Errorf("expected InvalidTransition on second start, got %v", err)
	}

	_, err = Start(Snapshot{}, nil, t0)
	if !errors.Is(err, errors.ErrInvalidTransition) {
		t.Errorf("expected InvalidTransition without ladder, got %v", err)
	}
}

func TestSetPaused_FreezesAndResumes(t *testing.T) {
	s := running(1, 600, t0)

	paused, changed, err := SetPaused(s, true, t0.Add(100*time.Second))
	if err != nil || !changed {
		t.Fatalf("expected pause to apply, got changed=%v err=%v", changed, err)
	}
	if paused.RemainingSeconds != 500 || paused.StartedAt != nil || !paused.Paused {
		t.Errorf("unexpected paused snapshot %+v", paused)
	}
	if paused.Remaining(t0.Add(time.Hour)) != 500 {
		t.Error("expected paused display to be frozen")
	}

	_, changed, _ = SetPaused(paused, true, t0)
	if changed {
		t.Error("expected second pause to be a no-op")
	}

	resumeAt := t0.Add(300 * time.Second)
	resumed, changed, err := SetPaused(paused, false, resumeAt)
	if err != nil || !changed {
		t.Fatalf("expected resume to apply, got changed=%v err=%v", changed, err)
	}
	if resumed.Remaining(resumeAt.Add(20*time.Second)) != 480 {
		t.Errorf("expected 480 after resuming, got %d", resumed.Remaining(resumeAt.Add(20*time.Second)))
	}

	if _, _, err := SetPaused(Snapshot{}, true, t0); !errors.Is(err, errors.ErrInvalidTransition) {
		t.Errorf("expected InvalidTransition before start, got %v", err)
	}
}

func TestTogglePause(t *testing.T) {
	s, err := TogglePause(running(0, 600, t0), t0)
	if err != nil || !s.Paused {
		t.Fatalf("expected paused, got %+v err=%v", s, err)
	}
	s, err = TogglePause(s, t0)
	if err != nil || s.Paused {
		t.Fatalf("expected running, got %+v err=%v", s, err)
	}
}

func TestAdvance(t *testing.T) {
	ladder := testLadder()
	now := t0.Add(time.Minute)

	next, changed, err := Advance(running(1, 12, t0), ladder, 1, now)
	if err != nil || !changed {
		t.Fatalf("expected advance, got changed=%v err=%v", changed, err)
	}
	if next.Level != 2 || next.RemainingSeconds != 600 || !next.StartedAt.Equal(now) {
		t.Errorf("unexpected snapshot %+v", next)
	}

	paused := Snapshot{Started: true, Paused: true, Level: 1, RemainingSeconds: 40}
	next, changed, _ = Advance(paused, ladder, -1, now)
	if !changed || next.Level != 0 || next.StartedAt != nil || next.RemainingSeconds != 900 {
		t.Errorf("unexpected paused advance %+v", next)
	}

	_, changed, _ = Advance(running(0, 10, t0), ladder, -1, now)
	if changed {
		t.Error("expected no change below level 0")
	}
	_, changed, _ = Advance(running(3, 10, t0), ladder, 1, now)
	if changed {
		t.Error("expected no change past last level")
	}

	if _, _, err := Advance(running(0, 10, t0), ladder, 2, now); !errors.Is(err, errors.ErrInvalidInput) {
		t.Errorf("expected InvalidInput for direction 2, got %v", err)
	}
}

func TestTick(t *testing.T) {
	ladder := testLadder()

	s := running(0, 900, t0)
	if _, changed := Tick(s, ladder, t0.Add(899*time.Second)); changed {
		t.Error("expected no advance before zero")
	}

	at := t0.Add(900 * time.Second)
	next, changed := Tick(s, ladder, at)
	if !changed || next.Level != 1 || next.RemainingSeconds != 900 || !next.StartedAt.Equal(at) {
		t.Errorf("unexpected tick result %+v", next)
	}

	last := running(3, 5, t0)
	next, changed = Tick(last, ladder, t0.Add(10*time.Second))
	if !changed || next.Level != 3 || next.RemainingSeconds != 0 {
		t.Errorf("expected clamp at last level, got %+v", next)
	}
	if _, changed = Tick(next, ladder, t0.Add(time.Hour)); changed {
		t.Error("expected exhausted clock to stay put")
	}

	paused := Snapshot{Started: true, Paused: true, RemainingSeconds: 0}
	if _, changed = Tick(paused, ladder, t0); changed {
		t.Error("expected paused clock not to advance")
	}
}

func TestSet(t *testing.T) {
	ladder := testLadder()
	start := t0.Add(-30 * time.Second)

	next, err := Set(running(0, 900, t0), ladder, 2, &start, 300, t0)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if next.Level != 2 || next.Remaining(t0) != 270 {
		t.Errorf("unexpected snapshot %+v", next)
	}

	next, err = Set(running(0, 900, t0), ladder, 4, nil, 60, t0)
	if err != nil || next.Level != 3 || !next.StartedAt.Equal(t0) {
		t.Errorf("expected clamp to last level starting now, got %+v err=%v", next, err)
	}

	paused := Snapshot{Started: true, Paused: true}
	next, _ = Set(paused, ladder, 1, &start, 100, t0)
	if next.StartedAt != nil || next.Remaining(t0.Add(time.Hour)) != 100 {
		t.Errorf("expected paused snapshot to stay frozen, got %+v", next)
	}

	if _, err := Set(running(0, 900, t0), ladder, 1, nil, -1, t0); !errors.Is(err, errors.ErrInvalidInput) {
		t.Errorf("expected InvalidInput for negative remaining, got %v", err)
	}
	if _, err := Set(Snapshot{}, ladder, 1, nil, 10, t0); !errors.Is(err, errors.ErrInvalidTransition) {
		t.Errorf("expected InvalidTransition before start, got %v", err)
	}
}
