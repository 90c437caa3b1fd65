package achem

import (
	"testing"

	"github.com/daniacca/achemsim/internal/geom"
)

func TestBodyKind_String(t *testing.T) {
	tests := []struct {
		kind BodyKind
		want string
	}{
		{KindCircle, "circle"},
		{KindParticle, "particle"},
		{BodyKind(42), "unknown"},
	}
	for _, tt := range tests {
		if got := tt.kind.String(); got != tt.want {
			t.Errorf("BodyKind(%d).String() = %q, want %q", tt.kind, got, tt.want)
		}
	}
}

func TestNewCircle(t *testing.T) {
	b := NewCircle(geom.V(3, 4), 2, 5)

	if b.Kind() != KindCircle {
		t.Errorf("Expected circle kind, got %s", b.Kind())
	}
	if b.Position() != geom.V(3, 4) || b.Center() != geom.V(3, 4) {
		t.Errorf("Expected position (3, 4), got %v", b.Position())
	}
	if b.Radius() != 2 || b.Mass != 5 {
		t.Errorf("Expected radius 2 and mass 5, got %g and %g", b.Radius(), b.Mass)
	}
	if b.ID() != 0 || b.Dead() || b.Pending() {
		t.Error("Detached body should have no ID and not be dead or pending")
	}
	if b.Particle() != nil || b.Species() != "" || b.IsEnergy() {
		t.Error("Plain circle should carry no particle state")
	}
}

func TestBody_Energy(t *testing.T) {
	b := NewCircle(geom.Zero, 1, 2)
	b.Velocity = geom.V(3, 4)

	if got := b.KineticEnergy(); got != 25 {
		t.Errorf("Expected kinetic energy 25, got %g", got)
	}
	if got := b.TotalEnergy(); got != 25 {
		t.Errorf("Expected total energy 25 for a plain circle, got %g", got)
	}
	if got := b.Momentum(); got != geom.V(6, 8) {
		t.Errorf("Expected momentum (6, 8), got %v", got)
	}

	p := NewBlueprint("X", 2, 1).NewParticle(geom.Zero)
	p.Velocity = geom.V(3, 4)
	p.particle.InternalEnergy = 7
	if got := p.TotalEnergy(); got != 32 {
		t.Errorf("Expected total energy 32, got %g", got)
	}
}

func TestBody_SetPositionDetached(t *testing.T) {
	b := NewCircle(geom.Zero, 1, 1)
	b.SetPosition(geom.V(5, 5))
	b.Move(geom.V(1, -1))

	if b.Position() != geom.V(6, 4) {
		t.Errorf("Expected (6, 4), got %v", b.Position())
	}
	if b.cells != nil {
		t.Error("Detached body should not track grid cells")
	}
}

func TestBody_SetPositionUpdatesGrid(t *testing.T) {
	w := newTestWorld(t, nil, nil)
	b := spawnCircle(t, w, geom.V(5, 5), geom.Zero, 1, 1)

	if cells := w.Grid().CellsOf(b); len(cells) != 1 || cells[0] != [2]int{0, 0} {
		t.Fatalf("Expected body in cell (0,0), got %v", cells)
	}

	b.SetPosition(geom.V(55, 35))
	cells := w.Grid().CellsOf(b)
	if len(cells) != 1 || cells[0] != [2]int{5, 3} {
		t.Errorf("Expected body in cell (5,3), got %v", cells)
	}

	// straddling a cell corner covers four cells
	b.SetPosition(geom.V(60, 60))
	if n := len(w.Grid().CellsOf(b)); n != 4 {
		t.Errorf("Expected 4 cells at a corner, got %d", n)
	}
}

func TestBody_Remove(t *testing.T) {
	w := newTestWorld(t, nil, nil)
	b := spawnCircle(t, w, geom.V(15, 15), geom.Zero, 3, 1)

	b.Remove()
	if !b.Dead() {
		t.Error("Expected body to be dead after Remove")
	}
	if cells := w.Grid().CellsOf(b); len(cells) != 0 {
		t.Errorf("Expected no grid cells after Remove, got %v", cells)
	}

	// idempotent, and dead bodies no longer move
	b.Remove()
	b.SetPosition(geom.V(80, 80))
	if b.Position() != geom.V(15, 15) {
		t.Errorf("Dead body should not move, got %v", b.Position())
	}
	if w.Grid().OccupiedCells() != 0 {
		t.Error("Expected empty grid")
	}
}
