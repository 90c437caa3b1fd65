package achem

// SpeciesConfig describes one species in a RulesConfig.
type SpeciesConfig struct {
	Symbol string   `json:"symbol"`
	Name   string   `json:"name,omitempty"`
	Mass   float64  `json:"mass"`
	Radius float64  `json:"radius"`
	Color  [3]uint8 `json:"color"`

	MaxEnergy float64 `json:"max_energy,omitempty"`

	// Nil stabilities default to 1 (never split).
	FissionStability          *float64 `json:"fission_stability,omitempty"`
	CollisionFissionStability *float64 `json:"collision_fission_stability,omitempty"`
}

// Blueprint converts the config entry, applying defaults.
func (sc SpeciesConfig) Blueprint() Blueprint {
	bp := NewBlueprint(SpeciesName(sc.Symbol), sc.Mass, sc.Radius)
	if sc.Name != "" {
		bp.Name = sc.Name
	}
	bp.Color = Color{R: sc.Color[0], G: sc.Color[1], B: sc.Color[2]}
	bp.MaxEnergy = sc.MaxEnergy
	if sc.FissionStability != nil {
		bp.FissionStability = *sc.FissionStability
	}
	if sc.CollisionFissionStability != nil {
		bp.CollisionFissionStability = *sc.CollisionFissionStability
	}
	return bp
}

// ReactionConfig is an unordered pair of reactants merging into one product.
type ReactionConfig struct {
	Reactants [2]string `json:"reactants"`
	Product   string    `json:"product"`
}

// FissionConfig lists the possible splits of one species.
type FissionConfig struct {
	Species  string      `json:"species"`
	Products [][2]string `json:"products"`
}

// RulesConfig is the JSON form of a rule set.
type RulesConfig struct {
	Name      string           `json:"name"`
	Species   []SpeciesConfig  `json:"species"`
	Reactions []ReactionConfig `json:"reactions,omitempty"`
	Fissions  []FissionConfig  `json:"fissions,omitempty"`
}
