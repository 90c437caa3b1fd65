package main

import (
	"fmt"

	"github.com/daniacca/achemsim/internal/achem"
	"github.com/daniacca/achemsim/internal/geom"
)

// runBounce sends two equal circles at each other; they swap velocities.
func runBounce(logger achem.Logger) error {
	w, err := newWorld("bounce", nil, logger)
	if err != nil {
		return err
	}

	left := achem.NewCircle(geom.V(40, 50), 2, 1)
	left.Velocity = geom.V(10, 0)
	right := achem.NewCircle(geom.V(60, 50), 2, 1)
	right.Velocity = geom.V(-10, 0)
	for _, b := range []*achem.Body{left, right} {
		if err := w.Spawn(b); err != nil {
			return err
		}
	}

	w.Simulate(0)
	printEnergy("before", w)
	for range 40 {
		w.Simulate(0.05)
	}
	printEnergy("after", w)

	fmt.Printf("left v=%v right v=%v collisions=%d\n", left.Velocity, right.Velocity, w.Stats().Collisions)
	return nil
}
