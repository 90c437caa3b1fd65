package achem

import (
	"errors"
	"reflect"
	"testing"

	"github.com/daniacca/achemsim/internal/geom"
)

func TestWorld_Snapshot(t *testing.T) {
	w := newTestWorld(t, testRules(t), NewRandom(5))
	w.SetWorldID("snap")
	spawnCircle(t, w, geom.V(20, 20), geom.V(1, 0), 2, 3)
	p := spawn(t, w, "Bl", geom.V(70, 70), geom.V(0, 2))
	p.particle.InternalEnergy = 1.5

	pending := w.Snapshot()
	if len(pending.Bodies) != 0 {
		t.Errorf("Snapshot should skip pending bodies, got %d", len(pending.Bodies))
	}

	w.Simulate(0)
	snap := w.Snapshot()

	if snap.WorldID != "snap" || snap.Tick != 1 || snap.Width != 100 || snap.Height != 100 {
		t.Errorf("Unexpected header: %+v", snap)
	}
	if len(snap.Bodies) != 2 {
		t.Fatalf("Expected 2 bodies, got %d", len(snap.Bodies))
	}

	circle, particle := snap.Bodies[0], snap.Bodies[1]
	if circle.Kind != "circle" || circle.Species != "" || circle.Color != nil || circle.Mass != 3 {
		t.Errorf("Unexpected circle state: %+v", circle)
	}
	if particle.Kind != "particle" || particle.Species != "Bl" || particle.Color == nil || particle.Color.B != 255 {
		t.Errorf("Unexpected particle state: %+v", particle)
	}
	if particle.X != 70 || particle.VY != 2 || particle.InternalEnergy != 1.5 {
		t.Errorf("Unexpected particle kinematics: %+v", particle)
	}
	// ½·3·1 + ½·2·4
	if !near(snap.Kinetic, 5.5) || !near(snap.Internal, 1.5) {
		t.Errorf("Expected kinetic 5.5 and internal 1.5, got %g and %g", snap.Kinetic, snap.Internal)
	}

	if err := ValidateSnapshot(snap, w.Rules()); err != nil {
		t.Errorf("Expected valid snapshot, got %v", err)
	}
}

func TestValidateSnapshot(t *testing.T) {
	rules := testRules(t)
	tests := []struct {
		name   string
		bodies []BodyState
		ok     bool
	}{
		{"empty", nil, true},
		{"valid", []BodyState{{ID: 1, Species: "Re"}, {ID: 2}}, true},
		{"zero id", []BodyState{{ID: 0}}, false},
		{"duplicate id", []BodyState{{ID: 3}, {ID: 3}}, false},
		{"unknown species", []BodyState{{ID: 1, Species: "Zz"}}, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateSnapshot(Snapshot{Bodies: tt.bodies}, rules)
			if (err == nil) != tt.ok {
				t.Errorf("ValidateSnapshot() error = %v, want ok=%v", err, tt.ok)
			}
		})
	}

	err := ValidateSnapshot(Snapshot{Bodies: []BodyState{{ID: 1, Species: "Zz"}}}, rules)
	if !errors.Is(err, ErrUnknownSpecies) {
		t.Errorf("Expected ErrUnknownSpecies, got %v", err)
	}
	if err := ValidateSnapshot(Snapshot{Bodies: []BodyState{{ID: 1, Species: "Zz"}}}, nil); err != nil {
		t.Errorf("Species are not checked without rules, got %v", err)
	}
}

func TestSnapshotEncoding(t *testing.T) {
	w := newTestWorld(t, testRules(t), NewRandom(5))
	cfg := DefaultPopulationConfig()
	cfg.Density = 0.002
	if _, err := Populate(w, cfg); err != nil {
		t.Fatalf("Populate failed: %v", err)
	}
	w.Simulate(0.05)
	snap := w.Snapshot()

	data, err := EncodeSnapshotJSON(snap)
	if err != nil {
		t.Fatalf("EncodeSnapshotJSON failed: %v", err)
	}
	fromJSON, err := DecodeSnapshotJSON(data)
	if err != nil {
		t.Fatalf("DecodeSnapshotJSON failed: %v", err)
	}
	if !reflect.DeepEqual(snap, fromJSON) {
		t.Error("JSON snapshot differs after decoding")
	}

	packed, err := EncodeSnapshotMsgpack(snap)
	if err != nil {
		t.Fatalf("EncodeSnapshotMsgpack failed: %v", err)
	}
	if len(packed) >= len(data) {
		t.Errorf("Expected msgpack (%d bytes) to be smaller than JSON (%d bytes)", len(packed), len(data))
	}
	fromPack, err := DecodeSnapshotMsgpack(packed)
	if err != nil {
		t.Fatalf("DecodeSnapshotMsgpack failed: %v", err)
	}
	if !reflect.DeepEqual(snap, fromPack) {
		t.Error("msgpack snapshot differs after decoding")
	}

	if _, err := DecodeSnapshotJSON([]byte("{")); err == nil {
		t.Error("Expected error for invalid JSON")
	}
}
