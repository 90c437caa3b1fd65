package main

import (
	"fmt"

	"github.com/daniacca/achemsim/internal/achem"
	"github.com/daniacca/achemsim/internal/geom"
)

// runFission loads an unstable heavy particle past its energy limit and lets
// it split into two halves flying apart.
func runFission(logger achem.Logger) error {
	heavy := achem.NewBlueprint("Hv", 2, 2)
	heavy.MaxEnergy = 1
	heavy.FissionStability = 0
	light := achem.NewBlueprint("Lt", 1, 1)

	rules := achem.NewRules("decay").
		WithSpecies(heavy, light).
		WithFission("Hv", achem.FissionProducts{First: "Lt", Second: "Lt"})
	if err := rules.Validate(); err != nil {
		return err
	}

	w, err := newWorld("fission", rules, logger)
	if err != nil {
		return err
	}

	b := heavy.NewParticle(geom.V(50, 50))
	b.Velocity = geom.V(3, 0)
	b.Particle().InternalEnergy = 8
	if err := w.Spawn(b); err != nil {
		return err
	}

	// the split happens during the first tick, so report the parent directly
	fmt.Printf("before  kinetic=%8.3f internal=%8.3f total=%8.3f\n",
		b.KineticEnergy(), b.InternalEnergy(), b.TotalEnergy())
	w.Simulate(0.05)
	w.Simulate(0)
	printEnergy("after", w)

	stats := w.Stats()
	fmt.Printf("energy fissions=%d\n", stats.EnergyFissions)
	for _, p := range w.Bodies() {
		fmt.Printf("%s id=%d v=%v\n", p.Species(), p.ID(), p.Velocity)
	}
	return nil
}
