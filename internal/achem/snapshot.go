package achem

import (
	"bytes"
	"encoding/json"
	"fmt"

	"github.com/vmihailenco/msgpack/v5"
)

// BodyState is a flat, serializable view of a body.
type BodyState struct {
	ID             BodyID      `json:"id"`
	Kind           string      `json:"kind"`
	Species        SpeciesName `json:"species,omitempty"`
	X              float64     `json:"x"`
	Y              float64     `json:"y"`
	VX             float64     `json:"vx"`
	VY             float64     `json:"vy"`
	Radius         float64     `json:"radius"`
	Mass           float64     `json:"mass"`
	InternalEnergy float64     `json:"internal_energy,omitempty"`
	Color          *Color      `json:"color,omitempty"`
}

// State captures the body as a BodyState.
func (b *Body) State() BodyState {
	s := BodyState{
		ID:     b.id,
		Kind:   b.kind.String(),
		X:      b.position.X,
		Y:      b.position.Y,
		VX:     b.Velocity.X,
		VY:     b.Velocity.Y,
		Radius: b.radius,
		Mass:   b.Mass,
	}
	if p := b.particle; p != nil {
		s.Species = p.Species
		s.InternalEnergy = p.InternalEnergy
		c := p.Color
		s.Color = &c
	}
	return s
}

// Snapshot is a point-in-time capture of the admitted bodies of a world.
// It is a telemetry frame; worlds are never restored from it.
type Snapshot struct {
	WorldID  WorldID     `json:"world_id"`
	Tick     int64       `json:"tick"`
	Width    float64     `json:"width"`
	Height   float64     `json:"height"`
	Bodies   []BodyState `json:"bodies"`
	Kinetic  float64     `json:"kinetic"`
	Internal float64     `json:"internal"`
}

// Snapshot captures the active bodies of the world.
func (w *World) Snapshot() Snapshot {
	snap := Snapshot{
		WorldID: w.id,
		Tick:    w.tick,
		Width:   w.width,
		Height:  w.height,
		Bodies:  make([]BodyState, 0, len(w.active)),
	}
	w.Each(func(b *Body) bool {
		snap.Bodies = append(snap.Bodies, b.State())
		return true
	})
	snap.Kinetic, snap.Internal = w.TotalEnergy()
	return snap
}

// ValidateSnapshot checks that every body has a non-zero unique ID and, when
// rules is not nil, that every particle species is known to the rules.
func ValidateSnapshot(snapshot Snapshot, rules RuleBook) error {
	seen := make(map[BodyID]struct{}, len(snapshot.Bodies))

	for i, b := range snapshot.Bodies {
		if b.ID == 0 {
			return fmt.Errorf("body at index %d has empty ID", i)
		}
		if _, dup := seen[b.ID]; dup {
			return fmt.Errorf("duplicate body ID: %d", b.ID)
		}
		seen[b.ID] = struct{}{}

		if rules != nil && b.Species != "" {
			if _, err := rules.LookupSpecies(b.Species); err != nil {
				return fmt.Errorf("body %d: %w", b.ID, err)
			}
		}
	}

	return nil
}

// EncodeSnapshotJSON encodes a snapshot to JSON format.
func EncodeSnapshotJSON(snapshot Snapshot) ([]byte, error) {
	data, err := json.Marshal(snapshot)
	if err != nil {
		return nil, fmt.Errorf("failed to encode snapshot: %w", err)
	}
	return data, nil
}

// DecodeSnapshotJSON decodes a snapshot from JSON format.
func DecodeSnapshotJSON(data []byte) (Snapshot, error) {
	var snapshot Snapshot
	if err := json.Unmarshal(data, &snapshot); err != nil {
		return Snapshot{}, fmt.Errorf("failed to decode snapshot: %w", err)
	}
	return snapshot, nil
}

// EncodeSnapshotMsgpack encodes a snapshot to MessagePack, reusing the JSON
// field names as map keys.
func EncodeSnapshotMsgpack(snapshot Snapshot) ([]byte, error) {
	data, err := marshalMsgpack(snapshot)
	if err != nil {
		return nil, fmt.Errorf("failed to encode snapshot: %w", err)
	}
	return data, nil
}

// DecodeSnapshotMsgpack decodes a snapshot encoded by EncodeSnapshotMsgpack.
func DecodeSnapshotMsgpack(data []byte) (Snapshot, error) {
	var snapshot Snapshot
	if err := unmarshalMsgpack(data, &snapshot); err != nil {
		return Snapshot{}, fmt.Errorf("failed to decode snapshot: %w", err)
	}
	return snapshot, nil
}

func marshalMsgpack(v any) ([]byte, error) {
	var buf bytes.Buffer
	enc := msgpack.NewEncoder(&buf)
	enc.SetCustomStructTag("json")
	if err := enc.Encode(v); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func unmarshalMsgpack(data []byte, v any) error {
	dec := msgpack.NewDecoder(bytes.NewReader(data))
	dec.SetCustomStructTag("json")
	return dec.Decode(v)
}
