package achem

import (
	"encoding/json"
	"fmt"
	"os"
)

// BuildRulesFromConfig validates cfg and converts it to Rules.
func BuildRulesFromConfig(cfg RulesConfig) (*Rules, error) {
	if err := ValidateRulesConfig(cfg); err != nil {
		return nil, err
	}

	r := NewRules(cfg.Name)

	for _, sc := range cfg.Species {
		r.WithSpecies(sc.Blueprint())
	}

	for _, rc := range cfg.Reactions {
		r.WithReaction(SpeciesName(rc.Reactants[0]), SpeciesName(rc.Reactants[1]), SpeciesName(rc.Product))
	}

	for _, fc := range cfg.Fissions {
		products := make([]FissionProducts, 0, len(fc.Products))
		for _, pair := range fc.Products {
			products = append(products, FissionProducts{
				First:  SpeciesName(pair[0]),
				Second: SpeciesName(pair[1]),
			})
		}
		r.WithFission(SpeciesName(fc.Species), products...)
	}

	if err := r.Validate(); err != nil {
		return nil, err
	}
	return r, nil
}

// ParseRulesConfig decodes a JSON rules document.
func ParseRulesConfig(data []byte) (RulesConfig, error) {
	var cfg RulesConfig
	if err := json.Unmarshal(data, &cfg); err != nil {
		return RulesConfig{}, fmt.Errorf("invalid rules json: %w", err)
	}
	return cfg, nil
}

// LoadRulesFile reads, validates and builds a JSON rules file.
func LoadRulesFile(path string) (*Rules, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("cannot read rules file: %w", err)
	}
	cfg, err := ParseRulesConfig(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	rules, err := BuildRulesFromConfig(cfg)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return rules, nil
}
