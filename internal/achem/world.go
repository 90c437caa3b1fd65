package achem

import (
	"fmt"
	"slices"

	"github.com/daniacca/achemsim/internal/geom"
	"github.com/daniacca/achemsim/internal/grid"
)

// WorldID identifies a world inside a WorldManager.
type WorldID string

// TickStats counts what happened during a single Simulate call.
type TickStats struct {
	Tick              int64 `json:"tick"`
	Promoted          int   `json:"promoted"`
	WallBounces       int   `json:"wall_bounces"`
	Collisions        int   `json:"collisions"`
	Reactions         int   `json:"reactions"`
	EnergyFissions    int   `json:"energy_fissions"`
	CollisionFissions int   `json:"collision_fissions"`
	Purged            int   `json:"purged"`
}

// Stats accumulates TickStats over the lifetime of a world.
type Stats struct {
	Ticks             int64 `json:"ticks"`
	Spawned           int64 `json:"spawned"`
	WallBounces       int64 `json:"wall_bounces"`
	Collisions        int64 `json:"collisions"`
	Reactions         int64 `json:"reactions"`
	EnergyFissions    int64 `json:"energy_fissions"`
	CollisionFissions int64 `json:"collision_fissions"`
	Purged            int64 `json:"purged"`

	Last TickStats `json:"last"`
}

func (s *Stats) add(t TickStats) {
	s.Ticks++
	s.WallBounces += int64(t.WallBounces)
	s.Collisions += int64(t.Collisions)
	s.Reactions += int64(t.Reactions)
	s.EnergyFissions += int64(t.EnergyFissions)
	s.CollisionFissions += int64(t.CollisionFissions)
	s.Purged += int64(t.Purged)
	s.Last = t
}

// World owns the grid, the active bodies and the bodies waiting for admission.
// It is not safe for concurrent use; ManagedWorld serializes access when a
// world is shared.
type World struct {
	id       WorldID
	width    float64
	height   float64
	grid     *grid.Grid[*Body]
	rules    RuleBook
	rng      Random
	logger   Logger
	notifier *NotificationManager

	active  []*Body
	pending []*Body
	nextID  BodyID
	tick    int64
	stats   Stats
	current TickStats
}

// NewWorld creates an empty world covering [0, width] x [0, height].
// A nil rules value is replaced by an empty rule set, which is enough for
// plain circles.
func NewWorld(width, height, cellSize float64, rules RuleBook) (*World, error) {
	g, err := grid.New[*Body](width, height, cellSize)
	if err != nil {
		return nil, err
	}
	if rules == nil {
		rules = NewRules("empty")
	}
	return &World{
		width:  width,
		height: height,
		grid:   g,
		rules:  rules,
		rng:    newTimeSeededRandom(),
		logger: NewNoOpLogger(),
	}, nil
}

// SetWorldID sets the identifier stamped on published events.
func (w *World) SetWorldID(id WorldID) {
	w.id = id
}

// SetRandom replaces the random source.
func (w *World) SetRandom(rng Random) {
	if rng == nil {
		rng = newTimeSeededRandom()
	}
	w.rng = rng
}

// SetLogger sets the logger for the world.
func (w *World) SetLogger(logger Logger) {
	if logger == nil {
		logger = NewNoOpLogger()
	}
	w.logger = logger
}

// SetNotificationManager sets the manager receiving reaction and fission events.
func (w *World) SetNotificationManager(nm *NotificationManager) {
	w.notifier = nm
}

// SetRules swaps the rule set. Bodies already in the world keep the
// parameters they were created with, so the new rules must know every live
// species and give every fissile particle somewhere to split to. On error
// the old rules stay in place.
func (w *World) SetRules(rules RuleBook) error {
	if rules == nil {
		rules = NewRules("empty")
	}
	if err := w.checkRules(rules); err != nil {
		return err
	}
	w.rules = rules
	return nil
}

// checkRules reports the first live particle that rules cannot serve.
func (w *World) checkRules(rules RuleBook) error {
	for _, set := range [][]*Body{w.active, w.pending} {
		for _, b := range set {
			if b.dead || b.particle == nil {
				continue
			}
			species := b.particle.Species
			if _, err := rules.LookupSpecies(species); err != nil {
				return fmt.Errorf("%w: body %d: %w", ErrRulesConflict, b.id, err)
			}
			if !b.particle.Fissile() {
				continue
			}
			if _, ok := rules.LookupFissionProducts(species); !ok {
				return fmt.Errorf("%w: body %d: %w: %q", ErrRulesConflict, b.id, ErrNoFissionProducts, species)
			}
		}
	}
	return nil
}

// ID returns the identifier stamped on published events.
func (w *World) ID() WorldID { return w.id }

// Width returns the horizontal extent of the world.
func (w *World) Width() float64 { return w.width }

// Height returns the vertical extent of the world.
func (w *World) Height() float64 { return w.height }

// Tick returns the number of completed Simulate calls.
func (w *World) Tick() int64 { return w.tick }

// Stats returns the cumulative counters.
func (w *World) Stats() Stats { return w.stats }

// Rules returns the active rule set.
func (w *World) Rules() RuleBook { return w.rules }

// Grid returns the spatial index holding every attached body.
func (w *World) Grid() *grid.Grid[*Body] { return w.grid }

// PendingCount returns the number of bodies waiting for the next tick.
func (w *World) PendingCount() int {
	return len(w.pending)
}

// Spawn attaches b to the world. The body is registered in the grid right
// away but stays out of collision queries until the next Simulate call.
func (w *World) Spawn(b *Body) error {
	switch {
	case b == nil:
		return fmt.Errorf("%w: nil body", ErrInvalidBody)
	case b.world != nil:
		return fmt.Errorf("%w: body %d already belongs to a world", ErrInvalidBody, b.id)
	case b.dead:
		return fmt.Errorf("%w: body was removed", ErrInvalidBody)
	case b.Mass <= 0:
		return fmt.Errorf("%w: mass must be positive, got %g", ErrInvalidBody, b.Mass)
	case b.radius <= 0:
		return fmt.Errorf("%w: radius must be positive, got %g", ErrInvalidBody, b.radius)
	}

	w.nextID++
	b.id = w.nextID
	b.world = w
	b.pending = true
	b.SetPosition(b.position)
	w.pending = append(w.pending, b)
	w.stats.Spawned++
	return nil
}

// SpawnSpecies creates a particle of the given species and spawns it.
func (w *World) SpawnSpecies(species SpeciesName, pos, vel geom.Vector2) (*Body, error) {
	bp, err := w.rules.LookupSpecies(species)
	if err != nil {
		return nil, err
	}
	b := bp.NewParticle(pos)
	b.Velocity = vel
	if err := w.Spawn(b); err != nil {
		return nil, err
	}
	return b, nil
}

// mustSpawnSpecies is used for reaction and fission products. Validated
// rules guarantee the species exists.
func (w *World) mustSpawnSpecies(species SpeciesName, pos, vel geom.Vector2) *Body {
	b, err := w.SpawnSpecies(species, pos, vel)
	if err != nil {
		w.invariant(err)
	}
	return b
}

// invariant reports a broken rule-set promise. It never returns.
func (w *World) invariant(err error) {
	w.logger.Errorf("world %s tick %d: invariant violated: %v", w.id, w.tick, err)
	panic(err)
}

// Simulate advances the world by one step of length dt.
func (w *World) Simulate(dt float64) {
	w.current = TickStats{Tick: w.tick + 1}

	w.promote()

	for _, b := range w.active {
		if b.dead {
			continue
		}
		behaviors[b.kind].integrate(w, b, dt)
	}

	for _, b := range w.active {
		if b.dead {
			continue
		}
		w.bounce(b)
	}

	for _, a := range w.active {
		if a.dead {
			continue
		}
		for _, other := range w.grid.QueryCircle(a.position, a.radius) {
			if a.dead {
				break
			}
			if other == a || other.dead || other.pending {
				continue
			}
			w.current.Collisions++
			behaviors[a.kind].collide(w, a, other)
		}
	}

	w.purge()

	w.tick++
	w.stats.add(w.current)
}

// promote admits every pending body into the active set.
func (w *World) promote() {
	for _, b := range w.pending {
		b.pending = false
		if b.dead {
			continue
		}
		w.active = append(w.active, b)
		w.current.Promoted++
	}
	clear(w.pending)
	w.pending = w.pending[:0]
}

// bounce reflects velocity components that push b further out of the domain.
func (w *World) bounce(b *Body) {
	p, r := b.position, b.radius
	if (p.X-r < 0 && b.Velocity.X < 0) || (p.X+r > w.width && b.Velocity.X > 0) {
		b.Velocity.X = -b.Velocity.X
		w.current.WallBounces++
	}
	if (p.Y-r < 0 && b.Velocity.Y < 0) || (p.Y+r > w.height && b.Velocity.Y > 0) {
		b.Velocity.Y = -b.Velocity.Y
		w.current.WallBounces++
	}
}

// purge drops dead bodies from the active set, preserving order.
func (w *World) purge() {
	before := len(w.active)
	w.active = slices.DeleteFunc(w.active, func(b *Body) bool {
		return b.dead
	})
	w.current.Purged = before - len(w.active)
}

// QueryCircle returns the live, admitted bodies overlapping the circle.
func (w *World) QueryCircle(center geom.Vector2, radius float64) []*Body {
	found := w.grid.QueryCircle(center, radius)
	return slices.DeleteFunc(found, func(b *Body) bool {
		return b.dead || b.pending
	})
}

// Bodies returns a copy of the active set.
func (w *World) Bodies() []*Body {
	return slices.Clone(w.active)
}

// Each calls fn for every active body until fn returns false.
func (w *World) Each(fn func(*Body) bool) {
	for _, b := range w.active {
		if b.dead {
			continue
		}
		if !fn(b) {
			return
		}
	}
}

// TotalEnergy sums kinetic and internal energy over active bodies.
func (w *World) TotalEnergy() (kinetic, internal float64) {
	for _, b := range w.active {
		if b.dead {
			continue
		}
		kinetic += b.KineticEnergy()
		internal += b.InternalEnergy()
	}
	return kinetic, internal
}

// Momentum sums m·v over active bodies.
func (w *World) Momentum() geom.Vector2 {
	var p geom.Vector2
	for _, b := range w.active {
		if b.dead {
			continue
		}
		p = p.Add(b.Momentum())
	}
	return p
}

func (w *World) publish(event NotificationEvent) {
	if w.notifier == nil {
		return
	}
	event.WorldID = w.id
	if event.Tick == 0 {
		event.Tick = w.current.Tick
	}
	w.notifier.Publish(event)
}
