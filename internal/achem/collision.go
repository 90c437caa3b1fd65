package achem

// Elastic applies a one-dimensional elastic impulse along the line of centers
// of a and b. It reports whether velocities changed: coincident centers and
// separating pairs are left alone, so visiting a pair twice in one tick is
// harmless.
func Elastic(a, b *Body) bool {
	direction := b.position.Sub(a.position)
	dist := direction.Len()
	if dist == 0 {
		return false
	}

	closing := direction.Dot(a.Velocity.Sub(b.Velocity))
	if closing <= 0 {
		return false
	}

	approach := direction.Normalize().Scale(closing / dist)
	total := a.Mass + b.Mass
	v1 := approach.Scale((a.Mass - b.Mass) / total)
	v2 := approach.Scale(2 * a.Mass / total)

	a.Velocity = a.Velocity.Add(v1.Sub(approach))
	b.Velocity = b.Velocity.Add(v2)
	return true
}

// collideElastic bounces a plain circle off its partner. Energy particles
// pass through.
func collideElastic(_ *World, self, other *Body) {
	if self.dead || other.dead || self.IsEnergy() || other.IsEnergy() {
		return
	}
	Elastic(self, other)
}
