package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"

	"github.com/daniacca/achemsim/internal/achem"
)

// RulesBuilder provides a fluent API for building rule sets.
// Use it to define the species of a world, the pairs that merge on contact
// and the ways unstable species split.
type RulesBuilder struct {
	name      string
	species   []*SpeciesBuilder
	reactions []achem.ReactionConfig
	fissions  []achem.FissionConfig
}

// NewRules creates a new rules builder with the given name.
func NewRules(name string) *RulesBuilder {
	return &RulesBuilder{name: name}
}

// Species adds one or more species definitions to the rule set.
func (rb *RulesBuilder) Species(sbs ...*SpeciesBuilder) *RulesBuilder {
	rb.species = append(rb.species, sbs...)
	return rb
}

// Reaction registers an unordered pair of reactants that merge into product.
func (rb *RulesBuilder) Reaction(a, b, product string) *RulesBuilder {
	rb.reactions = append(rb.reactions, achem.ReactionConfig{
		Reactants: [2]string{a, b},
		Product:   product,
	})
	return rb
}

// Fission adds a possible split of species into first and second. Calling it
// again for the same species adds another outcome; one is drawn uniformly
// when the particle splits.
func (rb *RulesBuilder) Fission(species, first, second string) *RulesBuilder {
	pair := [2]string{first, second}
	for i := range rb.fissions {
		if rb.fissions[i].Species == species {
			rb.fissions[i].Products = append(rb.fissions[i].Products, pair)
			return rb
		}
	}
	rb.fissions = append(rb.fissions, achem.FissionConfig{
		Species:  species,
		Products: [][2]string{pair},
	})
	return rb
}

// Build converts the builder to a RulesConfig that can be used
// with ApplyRules or achem.BuildRulesFromConfig.
func (rb *RulesBuilder) Build() achem.RulesConfig {
	species := make([]achem.SpeciesConfig, 0, len(rb.species))
	for _, sb := range rb.species {
		species = append(species, sb.Build())
	}
	return achem.RulesConfig{
		Name:      rb.name,
		Species:   species,
		Reactions: rb.reactions,
		Fissions:  rb.fissions,
	}
}

// SpeciesBuilder provides a fluent API for building a species definition.
// Species are stable until one of the stabilities is lowered below 1.
type SpeciesBuilder struct {
	cfg achem.SpeciesConfig
}

// NewSpecies creates a species with the given symbol, mass and radius.
func NewSpecies(symbol string, mass, radius float64) *SpeciesBuilder {
	return &SpeciesBuilder{cfg: achem.SpeciesConfig{
		Symbol: symbol,
		Mass:   mass,
		Radius: radius,
	}}
}

// Name sets the display name. It defaults to the symbol.
func (sb *SpeciesBuilder) Name(name string) *SpeciesBuilder {
	sb.cfg.Name = name
	return sb
}

// Color sets the RGB color used by renderers.
func (sb *SpeciesBuilder) Color(r, g, b uint8) *SpeciesBuilder {
	sb.cfg.Color = [3]uint8{r, g, b}
	return sb
}

// MaxEnergy sets the internal energy above which the particle may split.
func (sb *SpeciesBuilder) MaxEnergy(e float64) *SpeciesBuilder {
	sb.cfg.MaxEnergy = e
	return sb
}

// FissionStability sets the roll threshold for energy-driven splits.
func (sb *SpeciesBuilder) FissionStability(s float64) *SpeciesBuilder {
	sb.cfg.FissionStability = &s
	return sb
}

// CollisionFissionStability sets the roll threshold for splits caused by a
// lighter partner.
func (sb *SpeciesBuilder) CollisionFissionStability(s float64) *SpeciesBuilder {
	sb.cfg.CollisionFissionStability = &s
	return sb
}

// Build converts the builder to a SpeciesConfig.
func (sb *SpeciesBuilder) Build() achem.SpeciesConfig {
	return sb.cfg
}

// SpawnRequest describes a body to create in a remote world. A request with
// a species spawns a particle; without one it spawns a plain circle from
// Radius and Mass.
type SpawnRequest struct {
	Species string  `json:"species,omitempty"`
	X       float64 `json:"x"`
	Y       float64 `json:"y"`
	VX      float64 `json:"vx"`
	VY      float64 `json:"vy"`
	Radius  float64 `json:"radius,omitempty"`
	Mass    float64 `json:"mass,omitempty"`
}

// Particle builds a SpawnRequest for a particle of the given species.
func Particle(species string, x, y, vx, vy float64) SpawnRequest {
	return SpawnRequest{Species: species, X: x, Y: y, VX: vx, VY: vy}
}

// Circle builds a SpawnRequest for a plain physics circle.
func Circle(x, y, vx, vy, radius, mass float64) SpawnRequest {
	return SpawnRequest{X: x, Y: y, VX: vx, VY: vy, Radius: radius, Mass: mass}
}

// worldURL joins the world path segments onto baseURL.
func worldURL(baseURL, worldID string, elem ...string) (string, error) {
	u, err := url.JoinPath(baseURL, append([]string{"world", worldID}, elem...)...)
	if err != nil {
		return "", fmt.Errorf("failed to build URL: %w", err)
	}
	return u, nil
}

// do sends a request with an optional JSON body and decodes a JSON response
// into out when out is not nil.
func do(ctx context.Context, method, u string, in, out any) error {
	var body io.Reader
	if in != nil {
		jsonData, err := json.Marshal(in)
		if err != nil {
			return fmt.Errorf("failed to marshal request: %w", err)
		}
		body = bytes.NewReader(jsonData)
	}

	req, err := http.NewRequestWithContext(ctx, method, u, body)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return fmt.Errorf("failed to send request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		data, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("server returned status %d: %s", resp.StatusCode, string(data))
	}

	if out != nil {
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			return fmt.Errorf("failed to decode response: %w", err)
		}
	}
	return nil
}

// ApplyRules sends the rule set to an achemsim server.
// The baseURL is the server's base URL (e.g., "http://localhost:8080"). The
// world is created if it does not exist; otherwise its rules are replaced.
func ApplyRules(ctx context.Context, baseURL, worldID string, rules *RulesBuilder) error {
	u, err := worldURL(baseURL, worldID, "rules")
	if err != nil {
		return err
	}
	return do(ctx, http.MethodPost, u, rules.Build(), nil)
}

// Spawn creates a body in the world and returns its state.
func Spawn(ctx context.Context, baseURL, worldID string, req SpawnRequest) (achem.BodyState, error) {
	u, err := worldURL(baseURL, worldID, "spawn")
	if err != nil {
		return achem.BodyState{}, err
	}
	var state achem.BodyState
	if err := do(ctx, http.MethodPost, u, req, &state); err != nil {
		return achem.BodyState{}, err
	}
	return state, nil
}

// Populate seeds the world with random particles and returns how many were
// spawned.
func Populate(ctx context.Context, baseURL, worldID string, cfg achem.PopulationConfig) (int, error) {
	u, err := worldURL(baseURL, worldID, "populate")
	if err != nil {
		return 0, err
	}
	var resp struct {
		Spawned int `json:"spawned"`
	}
	if err := do(ctx, http.MethodPost, u, cfg, &resp); err != nil {
		return 0, err
	}
	return resp.Spawned, nil
}

// Tick advances the world n steps and returns its cumulative stats.
func Tick(ctx context.Context, baseURL, worldID string, n int) (achem.Stats, error) {
	u, err := worldURL(baseURL, worldID, "tick")
	if err != nil {
		return achem.Stats{}, err
	}
	u += "?n=" + strconv.Itoa(n)

	var stats achem.Stats
	if err := do(ctx, http.MethodPost, u, nil, &stats); err != nil {
		return achem.Stats{}, err
	}
	return stats, nil
}

// Bodies returns the admitted bodies of the world.
func Bodies(ctx context.Context, baseURL, worldID string) ([]achem.BodyState, error) {
	u, err := worldURL(baseURL, worldID, "bodies")
	if err != nil {
		return nil, err
	}
	var bodies []achem.BodyState
	if err := do(ctx, http.MethodGet, u, nil, &bodies); err != nil {
		return nil, err
	}
	return bodies, nil
}
