package achem

import "github.com/daniacca/achemsim/internal/geom"

// SpeciesName is the symbol identifying a particle species (e.g. "Re", "He").
type SpeciesName string

// EnergySpecies is the reserved symbol of the energy pseudo-species. Energy
// particles pass through other bodies inertly: they never react and are never
// destabilized by collisions.
const EnergySpecies SpeciesName = "energy"

// Color is an RGB triple used by renderers.
type Color struct {
	R, G, B uint8
}

// Blueprint holds the fixed physical parameters of a species.
type Blueprint struct {
	Species SpeciesName
	Name    string
	Mass    float64
	Radius  float64
	Color   Color

	// MaxEnergy is the internal energy above which the particle may split.
	MaxEnergy float64

	// FissionStability is the threshold a uniform roll must exceed for an
	// over-energized particle to split. 1 means never.
	FissionStability float64

	// CollisionFissionStability is the threshold a uniform roll must exceed
	// for a collision with a lighter body to split the particle. 1 means never.
	CollisionFissionStability float64
}

// NewBlueprint creates a stable blueprint: both stabilities are 1, so the
// species never splits until configured otherwise.
func NewBlueprint(species SpeciesName, mass, radius float64) Blueprint {
	return Blueprint{
		Species:                   species,
		Name:                      string(species),
		Mass:                      mass,
		Radius:                    radius,
		FissionStability:          1,
		CollisionFissionStability: 1,
	}
}

// Fissile reports whether a particle of this species can ever reach the
// fission branch. Only fissile species need registered fission products.
func (bp Blueprint) Fissile() bool {
	if bp.FissionStability < 1 {
		return true
	}
	return bp.Species != EnergySpecies && bp.CollisionFissionStability < 1
}

// NewParticle creates a detached particle body of this species at pos.
// The body joins a world through World.Spawn.
func (bp Blueprint) NewParticle(pos geom.Vector2) *Body {
	b := NewCircle(pos, bp.Radius, bp.Mass)
	b.kind = KindParticle
	b.particle = &ParticleState{
		Species:                   bp.Species,
		Name:                      bp.Name,
		Color:                     bp.Color,
		MaxEnergy:                 bp.MaxEnergy,
		FissionStability:          bp.FissionStability,
		CollisionFissionStability: bp.CollisionFissionStability,
	}
	return b
}

// FissionProducts is one possible outcome of a split.
type FissionProducts struct {
	First  SpeciesName
	Second SpeciesName
}
