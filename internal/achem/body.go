package achem

import (
	"github.com/daniacca/achemsim/internal/geom"
	"github.com/daniacca/achemsim/internal/grid"
)

// BodyID identifies a body within its world. IDs are assigned sequentially
// by World.Spawn, starting at 1.
type BodyID uint64

// BodyKind selects the motion and collision behaviour of a body.
type BodyKind uint8

const (
	// KindCircle is a plain physics circle: it moves and bounces elastically.
	KindCircle BodyKind = iota
	// KindParticle is a chemistry particle: it can react and split.
	KindParticle
)

// String returns the name of the kind.
func (k BodyKind) String() string {
	switch k {
	case KindCircle:
		return "circle"
	case KindParticle:
		return "particle"
	default:
		return "unknown"
	}
}

// ParticleState is the chemistry extension of a particle body.
type ParticleState struct {
	Species                   SpeciesName
	Name                      string
	Color                     Color
	InternalEnergy            float64
	MaxEnergy                 float64
	FissionStability          float64
	CollisionFissionStability float64
}

// Body is a simulated circle. Position is private: SetPosition is the only
// way to move a body, which keeps grid membership in sync.
type Body struct {
	Velocity geom.Vector2
	Mass     float64

	id       BodyID
	kind     BodyKind
	position geom.Vector2
	radius   float64
	cells    *grid.CellRange
	dead     bool
	pending  bool
	world    *World
	particle *ParticleState
}

// Fissile reports whether the particle can reach a fission branch with the
// stabilities it carries.
func (p *ParticleState) Fissile() bool {
	if p.FissionStability < 1 {
		return true
	}
	return p.Species != EnergySpecies && p.CollisionFissionStability < 1
}

// NewCircle creates a detached plain physics body.
func NewCircle(pos geom.Vector2, radius, mass float64) *Body {
	return &Body{
		Mass:     mass,
		kind:     KindCircle,
		position: pos,
		radius:   radius,
	}
}

// ID returns the identifier assigned by World.Spawn, or 0 while detached.
func (b *Body) ID() BodyID { return b.id }

// Kind returns the body kind.
func (b *Body) Kind() BodyKind { return b.kind }

// Position returns the center of the body.
func (b *Body) Position() geom.Vector2 { return b.position }

// Center implements grid.Occupant.
func (b *Body) Center() geom.Vector2 { return b.position }

// Radius implements grid.Occupant.
func (b *Body) Radius() float64 { return b.radius }

// Dead reports whether the body was removed. Dead bodies stay in the active
// set until the end of the tick and are never queried again afterwards.
func (b *Body) Dead() bool { return b.dead }

// Pending reports whether the body was spawned but not yet admitted to the
// collision pass.
func (b *Body) Pending() bool { return b.pending }

// Particle returns the chemistry extension, or nil for plain circles.
func (b *Body) Particle() *ParticleState { return b.particle }

// Species returns the particle species, or "" for plain circles.
func (b *Body) Species() SpeciesName {
	if b.particle == nil {
		return ""
	}
	return b.particle.Species
}

// IsEnergy reports whether the body is an energy pseudo-particle.
func (b *Body) IsEnergy() bool {
	return b.particle != nil && b.particle.Species == EnergySpecies
}

// InternalEnergy returns the stored internal energy (0 for plain circles).
func (b *Body) InternalEnergy() float64 {
	if b.particle == nil {
		return 0
	}
	return b.particle.InternalEnergy
}

// KineticEnergy returns ½·m·|v|².
func (b *Body) KineticEnergy() float64 {
	return 0.5 * b.Mass * b.Velocity.LenSq()
}

// TotalEnergy returns kinetic plus internal energy.
func (b *Body) TotalEnergy() float64 {
	return b.KineticEnergy() + b.InternalEnergy()
}

// Momentum returns m·v.
func (b *Body) Momentum() geom.Vector2 {
	return b.Velocity.Scale(b.Mass)
}

// SetPosition moves the body and diffs its grid membership.
func (b *Body) SetPosition(pos geom.Vector2) {
	if b.dead {
		return
	}
	b.position = pos
	if b.world == nil {
		return
	}
	next := b.world.grid.RangeFor(pos, b.radius)
	b.world.grid.Update(b, b.cells, &next)
	b.cells = &next
}

// Move shifts the body by delta.
func (b *Body) Move(delta geom.Vector2) {
	b.SetPosition(b.position.Add(delta))
}

// Remove drops the body from the grid and marks it dead. The world purges it
// from the active set at the end of the tick.
func (b *Body) Remove() {
	if b.dead {
		return
	}
	if b.world != nil {
		b.world.grid.Update(b, b.cells, nil)
	}
	b.cells = nil
	b.dead = true
}

// behavior is the per-kind dispatch table entry.
type behavior struct {
	integrate func(w *World, b *Body, dt float64)
	collide   func(w *World, self, other *Body)
}

var behaviors = [...]behavior{
	KindCircle:   {integrate: integrateMotion, collide: collideElastic},
	KindParticle: {integrate: integrateParticle, collide: collideParticle},
}

func integrateMotion(_ *World, b *Body, dt float64) {
	b.Move(b.Velocity.Scale(dt))
}
