package achem

import (
	"fmt"
	"math"

	"github.com/daniacca/achemsim/internal/geom"
)

// Defaults used by Populate and the binaries.
const (
	DefaultWidth    = 800.0
	DefaultHeight   = 600.0
	DefaultCellSize = 40.0
	DefaultTimeStep = 0.05
	DefaultDensity  = 0.0006
	DefaultMinSpeed = 50.0
	DefaultMaxSpeed = 100.0
)

// PopulationConfig describes a random initial population.
type PopulationConfig struct {
	// Density is the number of particles per square unit of the domain.
	Density float64 `json:"density"`

	// Species to draw from uniformly. Empty means every non-energy species
	// known to the rules, in registration order.
	Species []SpeciesName `json:"species,omitempty"`

	MinSpeed float64 `json:"min_speed"`
	MaxSpeed float64 `json:"max_speed"`
}

// DefaultPopulationConfig returns the stock density and speed range.
func DefaultPopulationConfig() PopulationConfig {
	return PopulationConfig{
		Density:  DefaultDensity,
		MinSpeed: DefaultMinSpeed,
		MaxSpeed: DefaultMaxSpeed,
	}
}

// speciesLister is implemented by rule sets that can enumerate their species.
type speciesLister interface {
	SpeciesList() []SpeciesName
}

// Populate spawns int(width·height·density) particles at uniformly random
// positions, with a random heading and a speed in [MinSpeed, MaxSpeed).
// Per particle the draws are: heading, speed, x, y, species.
func Populate(w *World, cfg PopulationConfig) ([]*Body, error) {
	if cfg.Density < 0 {
		return nil, fmt.Errorf("density must not be negative, got %g", cfg.Density)
	}
	if cfg.MinSpeed < 0 || cfg.MaxSpeed < cfg.MinSpeed {
		return nil, fmt.Errorf("invalid speed range [%g, %g)", cfg.MinSpeed, cfg.MaxSpeed)
	}

	species := cfg.Species
	if len(species) == 0 {
		lister, ok := w.rules.(speciesLister)
		if !ok {
			return nil, fmt.Errorf("rules cannot list species; set PopulationConfig.Species")
		}
		for _, sp := range lister.SpeciesList() {
			if sp != EnergySpecies {
				species = append(species, sp)
			}
		}
	}
	if len(species) == 0 {
		return nil, fmt.Errorf("no species to populate with")
	}
	for _, sp := range species {
		if _, err := w.rules.LookupSpecies(sp); err != nil {
			return nil, err
		}
	}

	n := int(w.width * w.height * cfg.Density)
	bodies := make([]*Body, 0, n)
	for range n {
		heading := w.rng.Float64() * 2 * math.Pi
		speed := cfg.MinSpeed + w.rng.Float64()*(cfg.MaxSpeed-cfg.MinSpeed)
		pos := geom.V(w.rng.Float64()*w.width, w.rng.Float64()*w.height)
		sp := species[pick(w.rng, len(species))]

		b, err := w.SpawnSpecies(sp, pos, geom.Polar(heading, speed))
		if err != nil {
			return bodies, err
		}
		bodies = append(bodies, b)
	}

	w.logger.Infof("world %s: populated %d particles from %d species", w.id, len(bodies), len(species))
	return bodies, nil
}
