package achem

import (
	"math"
	"testing"

	"github.com/daniacca/achemsim/internal/geom"
)

// scriptedRandom replays fixed values and fails loudly when it runs out.
type scriptedRandom struct {
	values []float64
	next   int
}

func script(values ...float64) *scriptedRandom {
	return &scriptedRandom{values: values}
}

func (s *scriptedRandom) Float64() float64 {
	if s.next >= len(s.values) {
		panic("scripted random exhausted")
	}
	v := s.values[s.next]
	s.next++
	return v
}

func (s *scriptedRandom) remaining() int {
	return len(s.values) - s.next
}

func stability(v float64) *float64 { return &v }

// testRulesConfig is a small chemistry:
//
//	Re, Gr: mass 1, radius 1
//	Bl:     mass 2, radius 2, product of Re + Gr
//	Ux:     mass 2, splits into Re + Gr when over-energized
//	U:      mass 4, splits into Re + Gr or Bl + Bl, also on collision
//	energy: inert
func testRulesConfig() RulesConfig {
	return RulesConfig{
		Name: "test",
		Species: []SpeciesConfig{
			{Symbol: "Re", Name: "Red", Mass: 1, Radius: 1, Color: [3]uint8{255, 0, 0}},
			{Symbol: "Gr", Name: "Green", Mass: 1, Radius: 1, Color: [3]uint8{0, 255, 0}},
			{Symbol: "Bl", Name: "Blue", Mass: 2, Radius: 2, Color: [3]uint8{0, 0, 255}},
			{Symbol: "Ux", Mass: 2, Radius: 2, MaxEnergy: 10, FissionStability: stability(0.5)},
			{
				Symbol:                    "U",
				Mass:                      4,
				Radius:                    2,
				MaxEnergy:                 10,
				FissionStability:          stability(0.5),
				CollisionFissionStability: stability(0.5),
			},
			{Symbol: "energy", Mass: 0.1, Radius: 0.5},
		},
		Reactions: []ReactionConfig{
			{Reactants: [2]string{"Re", "Gr"}, Product: "Bl"},
		},
		Fissions: []FissionConfig{
			{Species: "Ux", Products: [][2]string{{"Re", "Gr"}}},
			{Species: "U", Products: [][2]string{{"Re", "Gr"}, {"Bl", "Bl"}}},
		},
	}
}

func testRules(t *testing.T) *Rules {
	t.Helper()
	rules, err := BuildRulesFromConfig(testRulesConfig())
	if err != nil {
		t.Fatalf("BuildRulesFromConfig failed: %v", err)
	}
	return rules
}

// newTestWorld creates a 100x100 world with 10-unit cells.
func newTestWorld(t *testing.T, rules RuleBook, rng Random) *World {
	t.Helper()
	w, err := NewWorld(100, 100, 10, rules)
	if err != nil {
		t.Fatalf("NewWorld failed: %v", err)
	}
	if rng != nil {
		w.SetRandom(rng)
	}
	return w
}

func spawn(t *testing.T, w *World, species SpeciesName, pos, vel geom.Vector2) *Body {
	t.Helper()
	b, err := w.SpawnSpecies(species, pos, vel)
	if err != nil {
		t.Fatalf("SpawnSpecies(%s) failed: %v", species, err)
	}
	return b
}

func spawnCircle(t *testing.T, w *World, pos, vel geom.Vector2, radius, mass float64) *Body {
	t.Helper()
	b := NewCircle(pos, radius, mass)
	b.Velocity = vel
	if err := w.Spawn(b); err != nil {
		t.Fatalf("Spawn failed: %v", err)
	}
	return b
}

const eps = 1e-9

func near(a, b float64) bool {
	return math.Abs(a-b) <= eps*math.Max(1, math.Max(math.Abs(a), math.Abs(b)))
}

func nearVec(a, b geom.Vector2) bool {
	return near(a.X, b.X) && near(a.Y, b.Y)
}

func contains(bodies []*Body, b *Body) bool {
	for _, it := range bodies {
		if it == b {
			return true
		}
	}
	return false
}
