package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/daniacca/achemsim/internal/achem"
	achemnotifiers "github.com/daniacca/achemsim/internal/achem/notifiers"
	"github.com/daniacca/achemsim/internal/geom"
)

// extractWorldID extracts the world ID from a path like "/world/{worldID}/..."
// Returns the world ID and the remaining path, or empty string if not found
func extractWorldID(path string) (achem.WorldID, string) {
	rest, ok := strings.CutPrefix(path, "/world/")
	if !ok {
		return "", ""
	}

	idx := strings.Index(rest, "/")
	if idx == -1 {
		return achem.WorldID(rest), ""
	}
	return achem.WorldID(rest[:idx]), rest[idx:]
}

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(v); err != nil {
		http.Error(w, "cannot encode: "+err.Error(), http.StatusInternalServerError)
	}
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ok"))
}

// GET /worlds
func (s *Server) handleListWorlds(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	ids := s.manager.ListWorlds()
	out := make([]string, len(ids))
	for i, id := range ids {
		out[i] = string(id)
	}
	writeJSON(w, map[string][]string{"worlds": out})
}

// lookupWorld resolves the world addressed by the request path and writes a
// 404 when it does not exist.
func (s *Server) lookupWorld(w http.ResponseWriter, id achem.WorldID) (*achem.ManagedWorld, bool) {
	mw, exists := s.manager.GetWorld(id)
	if !exists {
		http.Error(w, "world not found", http.StatusNotFound)
	}
	return mw, exists
}

// POST /world/{worldID}/rules
// Body: RulesConfig JSON
// Creates the world with the given rules, or swaps the rules of an existing one
func (s *Server) handleRules(w http.ResponseWriter, r *http.Request, id achem.WorldID) {
	defer r.Body.Close()

	var cfg achem.RulesConfig
	if err := json.NewDecoder(r.Body).Decode(&cfg); err != nil {
		http.Error(w, "invalid rules json: "+err.Error(), http.StatusBadRequest)
		return
	}

	rules, err := achem.BuildRulesFromConfig(cfg)
	if err != nil {
		http.Error(w, "cannot build rules: "+err.Error(), http.StatusBadRequest)
		return
	}

	if _, exists := s.manager.GetWorld(id); exists {
		if err := s.manager.UpdateWorldRules(id, rules); err != nil {
			if errors.Is(err, achem.ErrRulesConflict) {
				s.logger.Warnf("Rules rejected: world_id=%s error=%v", id, err)
				http.Error(w, err.Error(), http.StatusConflict)
				return
			}
			s.logger.Errorf("Failed to update world rules: world_id=%s error=%v", id, err)
			http.Error(w, "cannot update world: "+err.Error(), http.StatusInternalServerError)
			return
		}
		s.logger.Infof("World rules updated: world_id=%s rules=%s", id, cfg.Name)
	} else {
		if _, err := s.createWorld(id, s.worldCfg, rules); err != nil {
			s.logger.Errorf("Failed to create world: world_id=%s error=%v", id, err)
			http.Error(w, "cannot create world: "+err.Error(), http.StatusInternalServerError)
			return
		}
		s.logger.Infof("World created: world_id=%s rules=%s", id, cfg.Name)
	}

	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("rules loaded"))
}

// POST /world/{worldID}/spawn
// Body: { "species": "...", "x": 1, "y": 2, "vx": 0, "vy": 0 }
// Without a species a plain circle is spawned from "radius" and "mass".
type spawnRequest struct {
	Species string  `json:"species"`
	X       float64 `json:"x"`
	Y       float64 `json:"y"`
	VX      float64 `json:"vx"`
	VY      float64 `json:"vy"`
	Radius  float64 `json:"radius"`
	Mass    float64 `json:"mass"`
}

func (s *Server) handleSpawn(w http.ResponseWriter, r *http.Request, mw *achem.ManagedWorld) {
	defer r.Body.Close()

	var req spawnRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid json: "+err.Error(), http.StatusBadRequest)
		return
	}

	pos, vel := geom.V(req.X, req.Y), geom.V(req.VX, req.VY)
	var state achem.BodyState
	var err error
	if req.Species != "" {
		state, err = mw.Spawn(achem.SpeciesName(req.Species), pos, vel)
	} else {
		state, err = mw.SpawnCircle(pos, vel, req.Radius, req.Mass)
	}
	if err != nil {
		status := http.StatusInternalServerError
		if errors.Is(err, achem.ErrUnknownSpecies) || errors.Is(err, achem.ErrInvalidBody) {
			status = http.StatusBadRequest
		}
		http.Error(w, "cannot spawn: "+err.Error(), status)
		return
	}

	s.logger.Debugf("Body spawned: world_id=%s id=%d kind=%s species=%s", mw.ID(), state.ID, state.Kind, state.Species)
	writeJSON(w, state)
}

// POST /world/{worldID}/populate
// Body: optional PopulationConfig JSON; missing fields keep their defaults
func (s *Server) handlePopulate(w http.ResponseWriter, r *http.Request, mw *achem.ManagedWorld) {
	defer r.Body.Close()

	cfg := achem.DefaultPopulationConfig()
	if r.ContentLength != 0 {
		if err := json.NewDecoder(r.Body).Decode(&cfg); err != nil {
			http.Error(w, "invalid json: "+err.Error(), http.StatusBadRequest)
			return
		}
	}

	n, err := mw.Populate(cfg)
	if err != nil {
		http.Error(w, "cannot populate: "+err.Error(), http.StatusBadRequest)
		return
	}
	s.logger.Infof("World populated: world_id=%s spawned=%d", mw.ID(), n)
	writeJSON(w, map[string]int{"spawned": n})
}

// POST /world/{worldID}/tick
// Manually advance the world (useful for testing/debugging when auto-running is disabled)
// Query param: n (default: 1)
func (s *Server) handleTick(w http.ResponseWriter, r *http.Request, mw *achem.ManagedWorld) {
	n := 1
	if nStr := r.URL.Query().Get("n"); nStr != "" {
		v, err := strconv.Atoi(nStr)
		if err != nil || v <= 0 {
			http.Error(w, "invalid n: must be a positive integer", http.StatusBadRequest)
			return
		}
		n = v
	}
	writeJSON(w, mw.Step(n))
}

// POST /world/{worldID}/start
// Start the world auto-running with the specified interval (in milliseconds)
// Query param: interval (default: 50ms)
func (s *Server) handleStart(w http.ResponseWriter, r *http.Request, mw *achem.ManagedWorld) {
	interval := 50 * time.Millisecond
	if intervalStr := r.URL.Query().Get("interval"); intervalStr != "" {
		if ms, err := strconv.Atoi(intervalStr); err == nil && ms > 0 {
			interval = time.Duration(ms) * time.Millisecond
		} else {
			http.Error(w, "invalid interval: must be a positive integer (milliseconds)", http.StatusBadRequest)
			return
		}
	}

	mw.Run(interval)
	s.logger.Infof("World started: world_id=%s interval=%v", mw.ID(), interval)

	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("world started"))
}

// POST /world/{worldID}/stop
func (s *Server) handleStop(w http.ResponseWriter, r *http.Request, mw *achem.ManagedWorld) {
	mw.Stop()
	s.logger.Infof("World stopped: world_id=%s", mw.ID())

	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("world stopped"))
}

// GET /world/{worldID}/bodies
func (s *Server) handleBodies(w http.ResponseWriter, r *http.Request, mw *achem.ManagedWorld) {
	writeJSON(w, mw.Snapshot().Bodies)
}

// GET /world/{worldID}/stats
func (s *Server) handleStats(w http.ResponseWriter, r *http.Request, mw *achem.ManagedWorld) {
	writeJSON(w, mw.Stats())
}

// GET /world/{worldID}/snapshot
// Query param: format (json or msgpack, default json)
func (s *Server) handleSnapshot(w http.ResponseWriter, r *http.Request, mw *achem.ManagedWorld) {
	format, err := achemnotifiers.ParseFormat(r.URL.Query().Get("format"))
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	snap := mw.Snapshot()
	var data []byte
	if format == achemnotifiers.FormatMsgpack {
		data, err = achem.EncodeSnapshotMsgpack(snap)
		w.Header().Set("Content-Type", "application/msgpack")
	} else {
		data, err = achem.EncodeSnapshotJSON(snap)
		w.Header().Set("Content-Type", "application/json")
	}
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(data)
}

// GET /world/{worldID}/stream
// Upgrades to a websocket receiving the world's events
// Query param: format (json or msgpack, default json)
func (s *Server) handleStream(w http.ResponseWriter, r *http.Request, mw *achem.ManagedWorld) {
	format, err := achemnotifiers.ParseFormat(r.URL.Query().Get("format"))
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	s.logger.Debugf("Stream client connected: world_id=%s format=%s", mw.ID(), format)
	sub := achemnotifiers.Subscription{WorldID: mw.ID(), Format: format}
	if err := s.stream.Serve(w, r, sub); err != nil {
		s.logger.Warnf("Stream failed: world_id=%s error=%v", mw.ID(), err)
		return
	}
	s.logger.Debugf("Stream client disconnected: world_id=%s", mw.ID())
}

// DELETE /world/{worldID}
func (s *Server) handleDeleteWorld(w http.ResponseWriter, r *http.Request, id achem.WorldID) {
	if err := s.manager.DeleteWorld(id); err != nil {
		s.logger.Warnf("Failed to delete world: world_id=%s error=%v", id, err)
		http.Error(w, err.Error(), http.StatusNotFound)
		return
	}

	s.logger.Infof("World deleted: world_id=%s", id)

	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("world deleted"))
}

// handleWorldRoutes routes requests to world-specific handlers
// Handles paths like /world/{worldID}/rules, /world/{worldID}/tick, etc.
func (s *Server) handleWorldRoutes(w http.ResponseWriter, r *http.Request) {
	id, remainingPath := extractWorldID(r.URL.Path)
	if id == "" {
		http.Error(w, "world ID is required in path: /world/{worldID}/...", http.StatusBadRequest)
		return
	}

	switch {
	case remainingPath == "/rules" && r.Method == http.MethodPost:
		s.handleRules(w, r, id)
		return
	case remainingPath == "" && r.Method == http.MethodDelete:
		s.handleDeleteWorld(w, r, id)
		return
	}

	type route struct {
		method  string
		handler func(http.ResponseWriter, *http.Request, *achem.ManagedWorld)
	}
	routes := map[string]route{
		"/spawn":    {http.MethodPost, s.handleSpawn},
		"/populate": {http.MethodPost, s.handlePopulate},
		"/tick":     {http.MethodPost, s.handleTick},
		"/start":    {http.MethodPost, s.handleStart},
		"/stop":     {http.MethodPost, s.handleStop},
		"/bodies":   {http.MethodGet, s.handleBodies},
		"/stats":    {http.MethodGet, s.handleStats},
		"/snapshot": {http.MethodGet, s.handleSnapshot},
		"/stream":   {http.MethodGet, s.handleStream},
	}

	rt, ok := routes[remainingPath]
	if !ok || rt.method != r.Method {
		http.Error(w, "not found", http.StatusNotFound)
		return
	}
	mw, exists := s.lookupWorld(w, id)
	if !exists {
		return
	}
	rt.handler(w, r, mw)
}

// handleNotifiersRoutes handles notifier management endpoints
func (s *Server) handleNotifiersRoutes(w http.ResponseWriter, r *http.Request) {
	switch {
	case r.URL.Path == "/notifiers" && r.Method == http.MethodGet:
		s.handleListNotifiers(w, r)
	case r.URL.Path == "/notifiers" && r.Method == http.MethodPost:
		s.handleRegisterNotifier(w, r)
	case strings.HasPrefix(r.URL.Path, "/notifiers/") && r.Method == http.MethodDelete:
		s.handleUnregisterNotifier(w, r)
	default:
		http.Error(w, "not found", http.StatusNotFound)
	}
}

// GET /notifiers
// List all registered notifiers
func (s *Server) handleListNotifiers(w http.ResponseWriter, _ *http.Request) {
	notifierIDs := s.notifier.ListNotifiers()

	notifiers := make([]map[string]string, 0, len(notifierIDs))
	for _, id := range notifierIDs {
		notifier, exists := s.notifier.GetNotifier(id)
		if exists {
			notifiers = append(notifiers, map[string]string{
				"id":   id,
				"type": notifier.Type(),
			})
		}
	}

	writeJSON(w, map[string]any{"notifiers": notifiers, "dropped": s.notifier.Dropped()})
}

// POST /notifiers
// Register a new notifier
// Body: { "type": "webhook", "id": "my-webhook", "config": { "url": "http://...", "format": "msgpack", "kinds": ["reaction"] } }
type registerNotifierRequest struct {
	Type   string         `json:"type"`
	ID     string         `json:"id"`
	Config map[string]any `json:"config"`
}

func (s *Server) handleRegisterNotifier(w http.ResponseWriter, r *http.Request) {
	defer r.Body.Close()

	var req registerNotifierRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid json: "+err.Error(), http.StatusBadRequest)
		return
	}

	if req.ID == "" {
		http.Error(w, "notifier ID is required", http.StatusBadRequest)
		return
	}

	var notifier achem.Notifier

	switch req.Type {
	case "webhook":
		url, ok := req.Config["url"].(string)
		if !ok || url == "" {
			http.Error(w, "webhook URL is required", http.StatusBadRequest)
			return
		}
		wh := achemnotifiers.NewWebhookNotifier(req.ID, url)

		if headers, ok := req.Config["headers"].(map[string]any); ok {
			for k, v := range headers {
				if vStr, ok := v.(string); ok {
					wh.SetHeader(k, vStr)
				}
			}
		}
		if f, ok := req.Config["format"].(string); ok {
			format, err := achemnotifiers.ParseFormat(f)
			if err != nil {
				http.Error(w, err.Error(), http.StatusBadRequest)
				return
			}
			wh.SetFormat(format)
		}
		if kinds, ok := req.Config["kinds"].([]any); ok {
			accepted := make([]achem.EventKind, 0, len(kinds))
			for _, k := range kinds {
				kind, _ := k.(string)
				switch achem.EventKind(kind) {
				case achem.EventReaction, achem.EventFission, achem.EventFrame:
					accepted = append(accepted, achem.EventKind(kind))
				default:
					http.Error(w, fmt.Sprintf("unknown event kind: %v", k), http.StatusBadRequest)
					return
				}
			}
			wh.SetKinds(accepted...)
		}

		notifier = wh
	default:
		http.Error(w, "unknown notifier type: "+req.Type, http.StatusBadRequest)
		return
	}

	if err := s.notifier.RegisterNotifier(notifier); err != nil {
		http.Error(w, "cannot register notifier: "+err.Error(), http.StatusBadRequest)
		return
	}
	s.logger.Infof("Notifier registered: id=%s type=%s", req.ID, req.Type)

	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("notifier registered"))
}

// DELETE /notifiers/{id}
// Unregister a notifier
func (s *Server) handleUnregisterNotifier(w http.ResponseWriter, r *http.Request) {
	notifierID := strings.TrimPrefix(r.URL.Path, "/notifiers/")
	if notifierID == "" {
		http.Error(w, "notifier ID is required", http.StatusBadRequest)
		return
	}
	if notifierID == streamNotifierID {
		http.Error(w, "the stream notifier cannot be removed", http.StatusBadRequest)
		return
	}

	if err := s.notifier.UnregisterNotifier(notifierID); err != nil {
		http.Error(w, err.Error(), http.StatusNotFound)
		return
	}

	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("notifier unregistered"))
}
