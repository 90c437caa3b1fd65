package client

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/daniacca/achemsim/internal/achem"
	"github.com/gorilla/websocket"
)

func TestRulesBuilder(t *testing.T) {
	rules := NewRules("test-rules").
		Species(
			NewSpecies("A", 1, 1).Name("Alpha").Color(255, 0, 0),
			NewSpecies("B", 2, 1),
			NewSpecies("AB", 3, 1.5).MaxEnergy(10).FissionStability(0.5).CollisionFissionStability(0.9),
		).
		Reaction("A", "B", "AB").
		Fission("AB", "A", "B").
		Fission("AB", "B", "A")

	cfg := rules.Build()

	if cfg.Name != "test-rules" {
		t.Errorf("Expected name 'test-rules', got '%s'", cfg.Name)
	}
	if len(cfg.Species) != 3 {
		t.Fatalf("Expected 3 species, got %d", len(cfg.Species))
	}
	if cfg.Species[0].Name != "Alpha" || cfg.Species[0].Color != [3]uint8{255, 0, 0} {
		t.Errorf("Unexpected first species: %+v", cfg.Species[0])
	}
	ab := cfg.Species[2]
	if ab.MaxEnergy != 10 || ab.FissionStability == nil || *ab.FissionStability != 0.5 ||
		ab.CollisionFissionStability == nil || *ab.CollisionFissionStability != 0.9 {
		t.Errorf("Unexpected AB species: %+v", ab)
	}
	if cfg.Species[1].FissionStability != nil {
		t.Error("Expected unset stability to stay nil")
	}

	if len(cfg.Reactions) != 1 || cfg.Reactions[0].Reactants != [2]string{"A", "B"} || cfg.Reactions[0].Product != "AB" {
		t.Errorf("Unexpected reactions: %+v", cfg.Reactions)
	}
	if len(cfg.Fissions) != 1 || len(cfg.Fissions[0].Products) != 2 {
		t.Fatalf("Expected one fission entry with two outcomes, got %+v", cfg.Fissions)
	}
}

func TestRulesBuilder_BuildsValidRules(t *testing.T) {
	cfg := NewRules("water").
		Species(NewSpecies("H", 1, 1), NewSpecies("O", 16, 2), NewSpecies("OH", 17, 2.5)).
		Reaction("H", "O", "OH").
		Build()

	rules, err := achem.BuildRulesFromConfig(cfg)
	if err != nil {
		t.Fatalf("BuildRulesFromConfig failed: %v", err)
	}
	if product, ok := rules.LookupReaction("O", "H"); !ok || product != "OH" {
		t.Errorf("Expected O+H -> OH, got %s, %v", product, ok)
	}
}

func TestSpawnRequests(t *testing.T) {
	p := Particle("H", 1, 2, 3, 4)
	if p != (SpawnRequest{Species: "H", X: 1, Y: 2, VX: 3, VY: 4}) {
		t.Errorf("Unexpected particle request: %+v", p)
	}
	c := Circle(1, 2, 0, 0, 5, 6)
	if c.Species != "" || c.Radius != 5 || c.Mass != 6 {
		t.Errorf("Unexpected circle request: %+v", c)
	}
}

// newMockServer answers the world endpoints of a single world "w1".
func newMockServer(t *testing.T) (*httptest.Server, func() []string) {
	t.Helper()
	var (
		mu    sync.Mutex
		calls []string
	)
	record := func(call string) {
		mu.Lock()
		defer mu.Unlock()
		calls = append(calls, call)
	}
	recorded := func() []string {
		mu.Lock()
		defer mu.Unlock()
		return append([]string(nil), calls...)
	}
	mux := http.NewServeMux()

	mux.HandleFunc("/world/w1/rules", func(w http.ResponseWriter, r *http.Request) {
		record(r.Method + " " + r.URL.Path)
		var cfg achem.RulesConfig
		if err := json.NewDecoder(r.Body).Decode(&cfg); err != nil || cfg.Name == "" {
			http.Error(w, "bad rules", http.StatusBadRequest)
			return
		}
		w.WriteHeader(http.StatusOK)
	})
	mux.HandleFunc("/world/w1/spawn", func(w http.ResponseWriter, r *http.Request) {
		record(r.Method + " " + r.URL.Path)
		var req SpawnRequest
		_ = json.NewDecoder(r.Body).Decode(&req)
		_ = json.NewEncoder(w).Encode(achem.BodyState{ID: 7, Kind: "particle", Species: achem.SpeciesName(req.Species), X: req.X, Y: req.Y})
	})
	mux.HandleFunc("/world/w1/populate", func(w http.ResponseWriter, r *http.Request) {
		record(r.Method + " " + r.URL.Path)
		_ = json.NewEncoder(w).Encode(map[string]int{"spawned": 12})
	})
	mux.HandleFunc("/world/w1/tick", func(w http.ResponseWriter, r *http.Request) {
		record(r.Method + " " + r.URL.Path + "?" + r.URL.RawQuery)
		_ = json.NewEncoder(w).Encode(achem.Stats{Ticks: 5, Reactions: 2})
	})
	mux.HandleFunc("/world/w1/bodies", func(w http.ResponseWriter, r *http.Request) {
		record(r.Method + " " + r.URL.Path)
		_ = json.NewEncoder(w).Encode([]achem.BodyState{{ID: 1}, {ID: 2}})
	})

	ts := httptest.NewServer(mux)
	t.Cleanup(ts.Close)
	return ts, recorded
}

func TestWorldEndpoints(t *testing.T) {
	ts, calls := newMockServer(t)
	ctx := context.Background()

	if err := ApplyRules(ctx, ts.URL, "w1", NewRules("r").Species(NewSpecies("H", 1, 1))); err != nil {
		t.Fatalf("ApplyRules failed: %v", err)
	}

	state, err := Spawn(ctx, ts.URL, "w1", Particle("H", 3, 4, 0, 0))
	if err != nil {
		t.Fatalf("Spawn failed: %v", err)
	}
	if state.ID != 7 || state.Species != "H" || state.X != 3 {
		t.Errorf("Unexpected state: %+v", state)
	}

	n, err := Populate(ctx, ts.URL, "w1", achem.DefaultPopulationConfig())
	if err != nil || n != 12 {
		t.Errorf("Populate = %d, %v", n, err)
	}

	stats, err := Tick(ctx, ts.URL, "w1", 5)
	if err != nil {
		t.Fatalf("Tick failed: %v", err)
	}
	if stats.Ticks != 5 || stats.Reactions != 2 {
		t.Errorf("Unexpected stats: %+v", stats)
	}

	bodies, err := Bodies(ctx, ts.URL, "w1")
	if err != nil || len(bodies) != 2 {
		t.Errorf("Bodies = %v, %v", bodies, err)
	}

	expected := []string{
		"POST /world/w1/rules",
		"POST /world/w1/spawn",
		"POST /world/w1/populate",
		"POST /world/w1/tick?n=5",
		"GET /world/w1/bodies",
	}
	if got := calls(); strings.Join(got, ",") != strings.Join(expected, ",") {
		t.Errorf("Unexpected calls: %v", got)
	}
}

func TestWorldEndpoints_Errors(t *testing.T) {
	ts, _ := newMockServer(t)
	ctx := context.Background()

	if err := ApplyRules(ctx, ts.URL, "w1", NewRules("")); err == nil || !strings.Contains(err.Error(), "400") {
		t.Errorf("Expected a 400 error, got %v", err)
	}
	if _, err := Bodies(ctx, ts.URL, "missing"); err == nil {
		t.Error("Expected an error for an unknown world")
	}
	if _, err := Tick(ctx, "http://127.0.0.1:1", "w1", 1); err == nil {
		t.Error("Expected a connection error")
	}
}

func TestStream(t *testing.T) {
	tests := []struct {
		format string
	}{
		{"json"},
		{"msgpack"},
	}

	for _, tt := range tests {
		t.Run(tt.format, func(t *testing.T) {
			upgrader := websocket.Upgrader{}
			ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				if r.URL.Path != "/world/w1/stream" {
					http.NotFound(w, r)
					return
				}
				conn, err := upgrader.Upgrade(w, r, nil)
				if err != nil {
					return
				}
				defer conn.Close()

				event := achem.NotificationEvent{WorldID: "w1", Kind: achem.EventReaction, Tick: 3}
				if r.URL.Query().Get("format") == "msgpack" {
					data, _ := event.MsgPack()
					_ = conn.WriteMessage(websocket.BinaryMessage, data)
				} else {
					data, _ := event.JSON()
					_ = conn.WriteMessage(websocket.TextMessage, data)
				}
				_, _, _ = conn.ReadMessage()
			}))
			defer ts.Close()

			ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
			defer cancel()

			stream, err := OpenStream(ctx, ts.URL, "w1", tt.format)
			if err != nil {
				t.Fatalf("OpenStream failed: %v", err)
			}
			defer stream.Close()

			event, err := stream.Next()
			if err != nil {
				t.Fatalf("Next failed: %v", err)
			}
			if event.WorldID != "w1" || event.Kind != achem.EventReaction || event.Tick != 3 {
				t.Errorf("Unexpected event: %+v", event)
			}
		})
	}
}

func TestStream_UnknownWorld(t *testing.T) {
	ts := httptest.NewServer(http.NotFoundHandler())
	defer ts.Close()

	if _, err := OpenStream(context.Background(), ts.URL, "w1", ""); err == nil || !strings.Contains(err.Error(), "404") {
		t.Errorf("Expected a 404 error, got %v", err)
	}
}
