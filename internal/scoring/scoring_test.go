package scoring

import "testing"

func TestPoints(t *testing.T) {
	table := Table{1: 10, 2: 6, 3: 3}

	tests := []struct {
		position int
		want     int
	}{
		{1, 10},
		{2, 6},
		{3, 3},
		{4, 0},
		{0, 0},
		{-1, 0},
	}

	for _, tt := range tests {
		if got := table.Points(tt.position); got != tt.want {
			t.Errorf("Points(%d) = %d, want %d", tt.position, got, tt.want)
		}
	}
}

func TestDefault(t *testing.T) {
	table := Default()

	if table.Points(1) != 25 {
		t.Errorf("expected 25 points for first, got %d", table.Points(1))
	}
	if table.Points(11) != 0 {
		t.Errorf("expected no points past tenth, got %d", table.Points(11))
	}
	if positions := table.Positions(); len(positions) != 10 || positions[0] != 1 || positions[9] != 10 {
		t.Errorf("unexpected positions %v", positions)
	}
}

func TestValidate(t *testing.T) {
	if _, ok := Default().Validate(); !ok {
		t.Error("expected default table to be valid")
	}
	if p, ok := (Table{1: 5, 0: 3}).Validate(); ok || p != 0 {
		t.Errorf("expected position 0 to be rejected, got %d %v", p, ok)
	}
	if p, ok := (Table{1: 5, 2: -1}).Validate(); ok || p != 2 {
		t.Errorf("expected negative points at 2 to be rejected, got %d %v", p, ok)
	}
}
