package achem

import "errors"

var (
	// ErrUnknownSpecies is returned when a species symbol has no blueprint.
	ErrUnknownSpecies = errors.New("unknown species")

	// ErrNoFissionProducts marks a split requested for a species without
	// registered products. Validated rules never trigger it.
	ErrNoFissionProducts = errors.New("no fission products registered")

	// ErrInvalidBody is returned when a body cannot join a world.
	ErrInvalidBody = errors.New("invalid body")

	// ErrRulesConflict is returned when a rule set cannot serve the bodies
	// already living in a world.
	ErrRulesConflict = errors.New("rules conflict with live bodies")

	ErrWorldExists   = errors.New("world already exists")
	ErrWorldNotFound = errors.New("world not found")
)
