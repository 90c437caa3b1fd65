package main

import (
	"fmt"

	"github.com/daniacca/achemsim/internal/achem"
	"github.com/daniacca/achemsim/internal/geom"
)

func waterRules() *achem.Rules {
	h := achem.NewBlueprint("H", 1, 1)
	h.Color = achem.Color{R: 255, G: 255, B: 255}
	o := achem.NewBlueprint("O", 16, 2)
	o.Color = achem.Color{R: 255}
	oh := achem.NewBlueprint("OH", 17, 2.5)
	oh.Color = achem.Color{G: 128, B: 255}

	return achem.NewRules("water").
		WithSpecies(h, o, oh).
		WithReaction("H", "O", "OH")
}

// runMerge fires a hydrogen into an oxygen. The kinetic energy lost to the
// merge shows up as internal energy of the product.
func runMerge(logger achem.Logger) error {
	rules := waterRules()
	if err := rules.Validate(); err != nil {
		return err
	}
	w, err := newWorld("merge", rules, logger)
	if err != nil {
		return err
	}

	if _, err := w.SpawnSpecies("H", geom.V(30, 50), geom.V(20, 0)); err != nil {
		return err
	}
	if _, err := w.SpawnSpecies("O", geom.V(50, 50), geom.V(-1, 0)); err != nil {
		return err
	}

	w.Simulate(0)
	printEnergy("before", w)
	for w.Stats().Reactions == 0 && w.Tick() < 100 {
		w.Simulate(0.05)
	}
	w.Simulate(0)
	printEnergy("after", w)

	for _, b := range w.Bodies() {
		fmt.Printf("%s id=%d v=%v internal=%.3f\n", b.Species(), b.ID(), b.Velocity, b.InternalEnergy())
	}
	return nil
}
