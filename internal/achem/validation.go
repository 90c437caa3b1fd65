package achem

import (
	"fmt"
	"math"
	"strings"
)

// ValidationError collects multiple validation issues
type ValidationError struct {
	Issues []string
}

// Error joins the collected issues.
func (e *ValidationError) Error() string {
	if len(e.Issues) == 0 {
		return "invalid rules: unknown validation error"
	}
	if len(e.Issues) == 1 {
		return e.Issues[0]
	}
	return "rules validation errors: " + strings.Join(e.Issues, "; ")
}

// Add records an issue.
func (e *ValidationError) Add(issue string) {
	e.Issues = append(e.Issues, issue)
}

// HasIssues reports whether any issue was recorded.
func (e *ValidationError) HasIssues() bool {
	return len(e.Issues) > 0
}

func validNumber(f float64) bool {
	return !math.IsNaN(f) && !math.IsInf(f, 0)
}

// ValidateRulesConfig performs comprehensive validation of a RulesConfig.
// Every issue is reported, not just the first one.
func ValidateRulesConfig(cfg RulesConfig) error {
	err := &ValidationError{}

	if cfg.Name == "" {
		err.Add("rules name is required")
	}

	species := make(map[string]SpeciesConfig)

	for i, sp := range cfg.Species {
		if sp.Symbol == "" {
			err.Add(fmt.Sprintf("species at index %d: symbol is required", i))
			continue
		}
		prefix := "species '" + sp.Symbol + "'"
		if _, dup := species[sp.Symbol]; dup {
			err.Add("duplicate species symbol: " + sp.Symbol)
			continue
		}
		species[sp.Symbol] = sp

		if !validNumber(sp.Mass) || sp.Mass <= 0 {
			err.Add(prefix + ": mass must be positive")
		}
		if !validNumber(sp.Radius) || sp.Radius <= 0 {
			err.Add(prefix + ": radius must be positive")
		}
		if !validNumber(sp.MaxEnergy) || sp.MaxEnergy < 0 {
			err.Add(prefix + ": max_energy must not be negative")
		}
		if s := sp.FissionStability; s != nil && (!validNumber(*s) || *s < 0) {
			err.Add(prefix + ": fission_stability must not be negative")
		}
		if s := sp.CollisionFissionStability; s != nil && (!validNumber(*s) || *s < 0) {
			err.Add(prefix + ": collision_fission_stability must not be negative")
		}
	}

	seenPairs := make(map[reactionKey]bool)
	for i, rc := range cfg.Reactions {
		a, b := rc.Reactants[0], rc.Reactants[1]
		prefix := fmt.Sprintf("reaction at index %d (%s + %s)", i, a, b)

		for _, sym := range []string{a, b} {
			if sym == "" {
				err.Add(prefix + ": reactant is required")
				continue
			}
			if SpeciesName(sym) == EnergySpecies {
				err.Add(prefix + ": energy cannot react")
				continue
			}
			if _, ok := species[sym]; !ok {
				err.Add(prefix + ": reactant species '" + sym + "' does not exist")
			}
		}

		if rc.Product == "" {
			err.Add(prefix + ": product is required")
		} else if _, ok := species[rc.Product]; !ok {
			err.Add(prefix + ": product species '" + rc.Product + "' does not exist")
		}

		key := keyFor(SpeciesName(a), SpeciesName(b))
		if seenPairs[key] {
			err.Add(prefix + ": duplicate reaction pair")
		}
		seenPairs[key] = true
	}

	withProducts := make(map[string]bool)
	for i, fc := range cfg.Fissions {
		prefix := fmt.Sprintf("fission at index %d", i)
		if fc.Species == "" {
			err.Add(prefix + ": species is required")
			continue
		}
		prefix = "fission of '" + fc.Species + "'"
		if _, ok := species[fc.Species]; !ok {
			err.Add(prefix + ": species does not exist")
		}
		if len(fc.Products) == 0 {
			err.Add(prefix + ": at least one product pair is required")
		}
		for _, pair := range fc.Products {
			for _, sym := range pair {
				if _, ok := species[sym]; !ok {
					err.Add(prefix + ": product species '" + sym + "' does not exist")
				}
			}
		}
		if len(fc.Products) > 0 {
			withProducts[fc.Species] = true
		}
	}

	for _, sp := range cfg.Species {
		if sp.Symbol == "" || withProducts[sp.Symbol] {
			continue
		}
		if sp.Blueprint().Fissile() {
			err.Add("species '" + sp.Symbol + "' can split but has no fission products")
		}
	}

	if err.HasIssues() {
		return err
	}
	return nil
}
