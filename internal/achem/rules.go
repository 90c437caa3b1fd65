package achem

import (
	"cmp"
	"fmt"
	"maps"
	"slices"
)

// RuleBook is the read-only lookup a world needs from its data provider.
type RuleBook interface {
	// LookupSpecies returns the blueprint of a species, or an error wrapping
	// ErrUnknownSpecies.
	LookupSpecies(species SpeciesName) (Blueprint, error)

	// LookupReaction returns the product of a collision between a and b.
	// The lookup is symmetric.
	LookupReaction(a, b SpeciesName) (SpeciesName, bool)

	// LookupFissionProducts returns the possible splits of a species.
	LookupFissionProducts(species SpeciesName) ([]FissionProducts, bool)
}

type reactionKey struct {
	a, b SpeciesName
}

// keyFor orders the pair so (a, b) and (b, a) share a key.
func keyFor(a, b SpeciesName) reactionKey {
	if a <= b {
		return reactionKey{a, b}
	}
	return reactionKey{b, a}
}

// Rules is the concrete species/reaction/fission table set.
// It is built once (directly or from a RulesConfig) and then only read;
// worlds never mutate it.
type Rules struct {
	Name      string
	species   map[SpeciesName]Blueprint
	order     []SpeciesName
	reactions map[reactionKey]SpeciesName
	fissions  map[SpeciesName][]FissionProducts
}

// NewRules creates an empty rule set with the given name.
func NewRules(name string) *Rules {
	return &Rules{
		Name:      name,
		species:   make(map[SpeciesName]Blueprint),
		reactions: make(map[reactionKey]SpeciesName),
		fissions:  make(map[SpeciesName][]FissionProducts),
	}
}

// WithSpecies adds blueprints and returns the rules for chaining.
// A blueprint with an already known symbol replaces the old one.
func (r *Rules) WithSpecies(blueprints ...Blueprint) *Rules {
	for _, bp := range blueprints {
		if _, exists := r.species[bp.Species]; !exists {
			r.order = append(r.order, bp.Species)
		}
		r.species[bp.Species] = bp
	}
	return r
}

// WithReaction registers a + b -> product and returns the rules for chaining.
func (r *Rules) WithReaction(a, b, product SpeciesName) *Rules {
	r.reactions[keyFor(a, b)] = product
	return r
}

// WithFission registers possible splits of a species and returns the rules
// for chaining.
func (r *Rules) WithFission(species SpeciesName, products ...FissionProducts) *Rules {
	r.fissions[species] = append(r.fissions[species], products...)
	return r
}

// LookupSpecies implements RuleBook.
func (r *Rules) LookupSpecies(species SpeciesName) (Blueprint, error) {
	bp, ok := r.species[species]
	if !ok {
		return Blueprint{}, fmt.Errorf("%w: %q", ErrUnknownSpecies, species)
	}
	return bp, nil
}

// LookupReaction implements RuleBook.
func (r *Rules) LookupReaction(a, b SpeciesName) (SpeciesName, bool) {
	product, ok := r.reactions[keyFor(a, b)]
	return product, ok
}

// LookupFissionProducts implements RuleBook.
func (r *Rules) LookupFissionProducts(species SpeciesName) ([]FissionProducts, bool) {
	products, ok := r.fissions[species]
	if !ok || len(products) == 0 {
		return nil, false
	}
	return products, true
}

// SpeciesList returns all species symbols in registration order.
func (r *Rules) SpeciesList() []SpeciesName {
	return slices.Clone(r.order)
}

// ReactionCount returns the number of registered reaction pairs.
func (r *Rules) ReactionCount() int {
	return len(r.reactions)
}

// FissionCount returns the number of species with registered splits.
func (r *Rules) FissionCount() int {
	return len(r.fissions)
}

// Validate checks that every referenced species exists and that every
// fissile species has at least one registered split.
func (r *Rules) Validate() error {
	err := &ValidationError{}

	for _, sp := range r.order {
		bp := r.species[sp]
		if bp.Mass <= 0 {
			err.Add(fmt.Sprintf("species '%s': mass must be positive", sp))
		}
		if bp.Radius <= 0 {
			err.Add(fmt.Sprintf("species '%s': radius must be positive", sp))
		}
		if bp.Fissile() {
			if _, ok := r.LookupFissionProducts(sp); !ok {
				err.Add(fmt.Sprintf("species '%s' can split but has no fission products", sp))
			}
		}
	}

	keys := make([]reactionKey, 0, len(r.reactions))
	for k := range r.reactions {
		keys = append(keys, k)
	}
	slices.SortFunc(keys, func(x, y reactionKey) int {
		return cmp.Or(cmp.Compare(x.a, y.a), cmp.Compare(x.b, y.b))
	})
	for _, k := range keys {
		prefix := fmt.Sprintf("reaction %s + %s", k.a, k.b)
		for _, sp := range []SpeciesName{k.a, k.b, r.reactions[k]} {
			if _, ok := r.species[sp]; !ok {
				err.Add(prefix + ": species '" + string(sp) + "' does not exist")
			}
		}
	}

	for _, sp := range r.order {
		for _, fp := range r.fissions[sp] {
			for _, product := range []SpeciesName{fp.First, fp.Second} {
				if _, ok := r.species[product]; !ok {
					err.Add(fmt.Sprintf("fission of '%s': product species '%s' does not exist", sp, product))
				}
			}
		}
	}
	for _, sp := range slices.Sorted(maps.Keys(r.fissions)) {
		if _, ok := r.species[sp]; !ok {
			err.Add(fmt.Sprintf("fission entry for unknown species '%s'", sp))
		}
	}

	if err.HasIssues() {
		return err
	}
	return nil
}
