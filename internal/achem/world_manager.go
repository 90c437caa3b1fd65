package achem

import (
	"fmt"
	"slices"
	"sync"
	"time"

	"github.com/daniacca/achemsim/internal/geom"
)

// WorldConfig holds the construction parameters of a managed world.
type WorldConfig struct {
	Width    float64 `json:"width"`
	Height   float64 `json:"height"`
	CellSize float64 `json:"cell_size"`
	TimeStep float64 `json:"dt"`

	// Seed makes the world reproducible. Nil seeds from the clock.
	Seed *uint64 `json:"seed,omitempty"`
}

// DefaultWorldConfig returns an 800x600 world with 40-unit cells and a 0.05 step.
func DefaultWorldConfig() WorldConfig {
	return WorldConfig{
		Width:    DefaultWidth,
		Height:   DefaultHeight,
		CellSize: DefaultCellSize,
		TimeStep: DefaultTimeStep,
	}
}

func (c WorldConfig) withDefaults() WorldConfig {
	d := DefaultWorldConfig()
	if c.Width == 0 {
		c.Width = d.Width
	}
	if c.Height == 0 {
		c.Height = d.Height
	}
	if c.CellSize == 0 {
		c.CellSize = d.CellSize
	}
	if c.TimeStep == 0 {
		c.TimeStep = d.TimeStep
	}
	return c
}

// ManagedWorld wraps a World with a mutex and an optional background ticker.
// All access to the inner world goes through its methods.
type ManagedWorld struct {
	mu         sync.Mutex
	id         WorldID
	cfg        WorldConfig
	world      *World
	notifier   *NotificationManager
	frameEvery int

	stopCh    chan struct{}
	isRunning bool
}

func newManagedWorld(id WorldID, cfg WorldConfig, rules RuleBook) (*ManagedWorld, error) {
	cfg = cfg.withDefaults()
	if cfg.TimeStep < 0 {
		return nil, fmt.Errorf("time step must not be negative, got %g", cfg.TimeStep)
	}
	w, err := NewWorld(cfg.Width, cfg.Height, cfg.CellSize, rules)
	if err != nil {
		return nil, err
	}
	w.SetWorldID(id)
	if cfg.Seed != nil {
		w.SetRandom(NewRandom(*cfg.Seed))
	}
	return &ManagedWorld{id: id, cfg: cfg, world: w}, nil
}

// ID returns the world identifier.
func (mw *ManagedWorld) ID() WorldID { return mw.id }

// Config returns the configuration the world was created with.
func (mw *ManagedWorld) Config() WorldConfig { return mw.cfg }

// With runs fn with exclusive access to the inner world.
func (mw *ManagedWorld) With(fn func(w *World)) {
	mw.mu.Lock()
	defer mw.mu.Unlock()
	fn(mw.world)
}

// SetLogger sets the logger of the inner world.
func (mw *ManagedWorld) SetLogger(logger Logger) {
	mw.mu.Lock()
	defer mw.mu.Unlock()
	mw.world.SetLogger(logger)
}

// SetNotificationManager routes reaction, fission and frame events.
func (mw *ManagedWorld) SetNotificationManager(nm *NotificationManager) {
	mw.mu.Lock()
	defer mw.mu.Unlock()
	mw.notifier = nm
	mw.world.SetNotificationManager(nm)
}

// SetFrameEveryTicks publishes a frame event with a full snapshot every n
// ticks. Zero or negative disables frames.
func (mw *ManagedWorld) SetFrameEveryTicks(n int) {
	mw.mu.Lock()
	defer mw.mu.Unlock()
	mw.frameEvery = n
}

// SetRules swaps the rule set used for future lookups. It fails with
// ErrRulesConflict when the rules cannot serve the bodies already in the
// world.
func (mw *ManagedWorld) SetRules(rules RuleBook) error {
	mw.mu.Lock()
	defer mw.mu.Unlock()
	return mw.world.SetRules(rules)
}

// Spawn creates a particle of the given species.
func (mw *ManagedWorld) Spawn(species SpeciesName, pos, vel geom.Vector2) (BodyState, error) {
	mw.mu.Lock()
	defer mw.mu.Unlock()
	b, err := mw.world.SpawnSpecies(species, pos, vel)
	if err != nil {
		return BodyState{}, err
	}
	return b.State(), nil
}

// SpawnCircle creates a plain physics circle.
func (mw *ManagedWorld) SpawnCircle(pos, vel geom.Vector2, radius, mass float64) (BodyState, error) {
	mw.mu.Lock()
	defer mw.mu.Unlock()
	b := NewCircle(pos, radius, mass)
	b.Velocity = vel
	if err := mw.world.Spawn(b); err != nil {
		return BodyState{}, err
	}
	return b.State(), nil
}

// Populate seeds the world with random particles and returns how many were
// spawned.
func (mw *ManagedWorld) Populate(cfg PopulationConfig) (int, error) {
	mw.mu.Lock()
	defer mw.mu.Unlock()
	bodies, err := Populate(mw.world, cfg)
	return len(bodies), err
}

// Step advances the world n times with the configured time step.
func (mw *ManagedWorld) Step(n int) Stats {
	mw.mu.Lock()
	defer mw.mu.Unlock()
	for range n {
		mw.step()
	}
	return mw.world.Stats()
}

func (mw *ManagedWorld) step() {
	mw.world.Simulate(mw.cfg.TimeStep)

	if mw.notifier == nil || mw.frameEvery <= 0 || mw.world.Tick()%int64(mw.frameEvery) != 0 {
		return
	}
	snap := mw.world.Snapshot()
	stats := mw.world.Stats()
	mw.notifier.Publish(NotificationEvent{
		WorldID:  mw.id,
		Kind:     EventFrame,
		Tick:     mw.world.Tick(),
		Snapshot: &snap,
		Stats:    &stats,
	})
}

// Snapshot captures the admitted bodies.
func (mw *ManagedWorld) Snapshot() Snapshot {
	mw.mu.Lock()
	defer mw.mu.Unlock()
	return mw.world.Snapshot()
}

// Stats returns the cumulative counters.
func (mw *ManagedWorld) Stats() Stats {
	mw.mu.Lock()
	defer mw.mu.Unlock()
	return mw.world.Stats()
}

// Tick returns the number of completed steps.
func (mw *ManagedWorld) Tick() int64 {
	mw.mu.Lock()
	defer mw.mu.Unlock()
	return mw.world.Tick()
}

// Run starts stepping the world in a goroutine every interval. Calling Run on
// a running world does nothing; a stopped world can be run again.
func (mw *ManagedWorld) Run(interval time.Duration) {
	mw.mu.Lock()
	if mw.isRunning {
		mw.mu.Unlock()
		return
	}
	stop := make(chan struct{})
	mw.stopCh = stop
	mw.isRunning = true
	mw.mu.Unlock()

	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()

		for {
			select {
			case <-ticker.C:
				mw.mu.Lock()
				if !mw.isRunning || mw.stopCh != stop {
					mw.mu.Unlock()
					return
				}
				mw.step()
				mw.mu.Unlock()
			case <-stop:
				return
			}
		}
	}()
}

// Stop halts the background ticker. It is safe to call on a stopped world.
func (mw *ManagedWorld) Stop() {
	mw.mu.Lock()
	defer mw.mu.Unlock()
	if !mw.isRunning {
		return
	}
	close(mw.stopCh)
	mw.isRunning = false
}

// IsRunning reports whether the background ticker is active.
func (mw *ManagedWorld) IsRunning() bool {
	mw.mu.Lock()
	defer mw.mu.Unlock()
	return mw.isRunning
}

// WorldManager manages multiple isolated worlds.
type WorldManager struct {
	mu       sync.RWMutex
	worlds   map[WorldID]*ManagedWorld
	logger   Logger
	notifier *NotificationManager
}

// NewWorldManager creates an empty manager.
func NewWorldManager() *WorldManager {
	return &WorldManager{
		worlds: make(map[WorldID]*ManagedWorld),
		logger: NewNoOpLogger(),
	}
}

// SetLogger sets the logger handed to every world created afterwards.
func (wm *WorldManager) SetLogger(logger Logger) {
	if logger == nil {
		logger = NewNoOpLogger()
	}
	wm.mu.Lock()
	defer wm.mu.Unlock()
	wm.logger = logger
}

// SetNotificationManager sets the manager handed to every world created afterwards.
func (wm *WorldManager) SetNotificationManager(nm *NotificationManager) {
	wm.mu.Lock()
	defer wm.mu.Unlock()
	wm.notifier = nm
}

// CreateWorld creates a world with the given ID. It fails with ErrWorldExists
// when the ID is taken.
func (wm *WorldManager) CreateWorld(id WorldID, cfg WorldConfig, rules RuleBook) (*ManagedWorld, error) {
	if id == "" {
		return nil, fmt.Errorf("world id cannot be empty")
	}

	wm.mu.Lock()
	defer wm.mu.Unlock()

	if _, exists := wm.worlds[id]; exists {
		return nil, fmt.Errorf("%w: %s", ErrWorldExists, id)
	}

	mw, err := newManagedWorld(id, cfg, rules)
	if err != nil {
		return nil, fmt.Errorf("cannot create world %s: %w", id, err)
	}
	mw.world.SetLogger(WithPrefix(wm.logger, "world "+string(id)))
	if wm.notifier != nil {
		mw.notifier = wm.notifier
		mw.world.SetNotificationManager(wm.notifier)
	}

	wm.worlds[id] = mw
	return mw, nil
}

// GetWorld retrieves a world by ID.
func (wm *WorldManager) GetWorld(id WorldID) (*ManagedWorld, bool) {
	wm.mu.RLock()
	defer wm.mu.RUnlock()
	mw, exists := wm.worlds[id]
	return mw, exists
}

// DeleteWorld stops and removes a world.
func (wm *WorldManager) DeleteWorld(id WorldID) error {
	wm.mu.Lock()
	mw, exists := wm.worlds[id]
	if exists {
		delete(wm.worlds, id)
	}
	wm.mu.Unlock()

	if !exists {
		return fmt.Errorf("%w: %s", ErrWorldNotFound, id)
	}
	mw.Stop()
	return nil
}

// ListWorlds returns all world IDs in sorted order.
func (wm *WorldManager) ListWorlds() []WorldID {
	wm.mu.RLock()
	defer wm.mu.RUnlock()
	ids := make([]WorldID, 0, len(wm.worlds))
	for id := range wm.worlds {
		ids = append(ids, id)
	}
	slices.Sort(ids)
	return ids
}

// UpdateWorldRules replaces the rules of an existing world. Bodies already in
// the world keep their parameters; rules that cannot serve them are rejected
// with ErrRulesConflict.
func (wm *WorldManager) UpdateWorldRules(id WorldID, rules RuleBook) error {
	mw, exists := wm.GetWorld(id)
	if !exists {
		return fmt.Errorf("%w: %s", ErrWorldNotFound, id)
	}
	return mw.SetRules(rules)
}

// StopAll stops every running world.
func (wm *WorldManager) StopAll() {
	wm.mu.RLock()
	defer wm.mu.RUnlock()
	for _, mw := range wm.worlds {
		mw.Stop()
	}
}
