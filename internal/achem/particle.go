package achem

import (
	"fmt"
	"math"

	"github.com/daniacca/achemsim/internal/geom"
)

// FissionCause tells why a particle split.
type FissionCause string

const (
	FissionByEnergy    FissionCause = "energy"
	FissionByCollision FissionCause = "collision"
)

// integrateParticle runs the energy-threshold check before moving. A particle
// that splits does not move this tick.
func integrateParticle(w *World, b *Body, dt float64) {
	p := b.particle
	if p.InternalEnergy > p.MaxEnergy && w.rng.Float64() > p.FissionStability {
		w.fission(b, FissionByEnergy)
		return
	}
	integrateMotion(w, b, dt)
}

// collideParticle resolves a particle touching another body: a registered
// reaction merges the pair, otherwise the pair bounces and self may be
// destabilized by the lighter partner.
func collideParticle(w *World, self, other *Body) {
	if self.dead || other.dead || self.IsEnergy() || other.IsEnergy() {
		return
	}

	if product, ok := w.rules.LookupReaction(self.Species(), other.Species()); ok {
		w.react(self, other, product)
		return
	}

	Elastic(self, other)

	if other.Mass < self.Mass && w.rng.Float64() > self.particle.CollisionFissionStability {
		w.fission(self, FissionByCollision)
	}
}

// react merges a and b into one product particle. Momentum is conserved and
// the kinetic energy lost to the merge becomes internal energy.
func (w *World) react(a, b *Body, product SpeciesName) {
	energy := a.TotalEnergy() + b.TotalEnergy()
	total := a.Mass + b.Mass

	vel := a.Momentum().Add(b.Momentum()).Div(total)
	pos := a.position.Scale(a.Mass).Add(b.position.Scale(b.Mass)).Div(total)
	kinetic := 0.5 * total * vel.LenSq()

	internal := energy - kinetic
	if internal < 0 {
		w.logger.Warnf("world %s: reaction %s + %s -> %s would leave negative internal energy %g, clamping to 0",
			w.id, a.Species(), b.Species(), product, internal)
		internal = 0
	}

	p := w.mustSpawnSpecies(product, pos, vel)
	p.particle.InternalEnergy = internal

	a.Remove()
	b.Remove()
	w.current.Reactions++

	w.logger.Debugf("world %s tick %d: %s(%d) + %s(%d) -> %s(%d) internal=%g",
		w.id, w.current.Tick, a.Species(), a.id, b.Species(), b.id, product, p.id, internal)

	if w.notifier != nil {
		w.publish(NotificationEvent{
			Kind:      EventReaction,
			Reactants: []BodyState{a.State(), b.State()},
			Products:  []BodyState{p.State()},
		})
	}
}

// fission splits parent into one of its registered product pairs, ejecting
// the products back to back along a random axis. The parent's internal
// energy becomes the products' kinetic energy relative to the parent.
func (w *World) fission(parent *Body, cause FissionCause) {
	species := parent.Species()
	options, ok := w.rules.LookupFissionProducts(species)
	if !ok {
		w.invariant(fmt.Errorf("%w: %q", ErrNoFissionProducts, species))
	}

	choice := options[0]
	if len(options) > 1 {
		choice = options[pick(w.rng, len(options))]
	}
	theta := w.rng.Float64() * 2 * math.Pi

	first := w.mustLookup(choice.First)
	second := w.mustLookup(choice.Second)

	energy := parent.particle.InternalEnergy
	if energy < 0 {
		w.logger.Warnf("world %s: %s(%d) split with negative internal energy %g, using 0",
			w.id, species, parent.id, energy)
		energy = 0
	}

	m1, m2 := first.Mass, second.Mass
	base := 2 * energy / (m1 + m2)
	speed1 := math.Sqrt(base * m2 / m1)
	speed2 := math.Sqrt(base * m1 / m2)

	pos := parent.position
	p1 := w.mustSpawnSpecies(choice.First,
		pos.Add(geom.Polar(theta, first.Radius)),
		geom.Polar(theta, speed1).Add(parent.Velocity))
	p2 := w.mustSpawnSpecies(choice.Second,
		pos.Add(geom.Polar(theta+math.Pi, second.Radius)),
		geom.Polar(theta+math.Pi, speed2).Add(parent.Velocity))

	parent.Remove()
	switch cause {
	case FissionByEnergy:
		w.current.EnergyFissions++
	case FissionByCollision:
		w.current.CollisionFissions++
	}

	w.logger.Debugf("world %s tick %d: %s(%d) split (%s) -> %s(%d) + %s(%d)",
		w.id, w.current.Tick, species, parent.id, cause, p1.Species(), p1.id, p2.Species(), p2.id)

	if w.notifier != nil {
		w.publish(NotificationEvent{
			Kind:      EventFission,
			Cause:     cause,
			Reactants: []BodyState{parent.State()},
			Products:  []BodyState{p1.State(), p2.State()},
		})
	}
}

func (w *World) mustLookup(species SpeciesName) Blueprint {
	bp, err := w.rules.LookupSpecies(species)
	if err != nil {
		w.invariant(err)
	}
	return bp
}
