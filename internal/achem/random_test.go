package achem

import "testing"

func TestNewRandom_Reproducible(t *testing.T) {
	a, b := NewRandom(99), NewRandom(99)
	for i := range 100 {
		x, y := a.Float64(), b.Float64()
		if x != y {
			t.Fatalf("draw %d differs: %g vs %g", i, x, y)
		}
		if x < 0 || x >= 1 {
			t.Fatalf("draw %d out of range: %g", i, x)
		}
	}

	if NewRandom(1).Float64() == NewRandom(2).Float64() {
		t.Error("Expected different seeds to diverge")
	}
}

func TestPick(t *testing.T) {
	tests := []struct {
		draw float64
		n    int
		want int
	}{
		{0, 3, 0},
		{0.33, 3, 0},
		{0.34, 3, 1},
		{0.999, 3, 2},
		{0.5, 1, 0},
	}
	for _, tt := range tests {
		if got := pick(script(tt.draw), tt.n); got != tt.want {
			t.Errorf("pick(%g, %d) = %d, want %d", tt.draw, tt.n, got, tt.want)
		}
	}
}
