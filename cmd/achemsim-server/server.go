package main

import (
	"net/http"

	"github.com/daniacca/achemsim/internal/achem"
	achemnotifiers "github.com/daniacca/achemsim/internal/achem/notifiers"
)

// streamNotifierID is the ID under which the built-in websocket broadcaster
// is registered.
const streamNotifierID = "stream"

// achemLoggerAdapter adapts the server's Logger to the achem.Logger interface
type achemLoggerAdapter struct {
	logger *Logger
}

func (a *achemLoggerAdapter) Debugf(format string, v ...any) {
	a.logger.Debugf(format, v...)
}

func (a *achemLoggerAdapter) Infof(format string, v ...any) {
	a.logger.Infof(format, v...)
}

func (a *achemLoggerAdapter) Warnf(format string, v ...any) {
	a.logger.Warnf(format, v...)
}

func (a *achemLoggerAdapter) Errorf(format string, v ...any) {
	a.logger.Errorf(format, v...)
}

// Server represents the HTTP server for achemsim
type Server struct {
	manager         *achem.WorldManager
	notifier        *achem.NotificationManager
	stream          *achemnotifiers.WebSocketNotifier
	worldCfg        achem.WorldConfig
	frameEveryTicks int
	logger          *Logger
}

// NewServer creates a server with a world manager, a notification manager and
// the websocket broadcaster behind /world/{id}/stream.
func NewServer(logger *Logger) *Server {
	achemLogger := &achemLoggerAdapter{logger: logger}

	nm := achem.NewNotificationManager()
	nm.SetLogger(achemLogger)

	stream := achemnotifiers.NewWebSocketNotifier(streamNotifierID)
	if err := nm.RegisterNotifier(stream); err != nil {
		logger.Errorf("Failed to register stream notifier: %v", err)
	}

	manager := achem.NewWorldManager()
	manager.SetLogger(achemLogger)
	manager.SetNotificationManager(nm)

	return &Server{
		manager:  manager,
		notifier: nm,
		stream:   stream,
		worldCfg: achem.DefaultWorldConfig(),
		logger:   logger,
	}
}

// SetWorldConfig sets the geometry used for worlds created through the API.
func (s *Server) SetWorldConfig(cfg achem.WorldConfig) {
	s.worldCfg = cfg
}

// SetFrameEveryTicks sets the frame event period for worlds created afterwards.
func (s *Server) SetFrameEveryTicks(ticks int) {
	s.frameEveryTicks = ticks
}

// createWorld creates a world with the server-wide frame settings.
func (s *Server) createWorld(id achem.WorldID, cfg achem.WorldConfig, rules achem.RuleBook) (*achem.ManagedWorld, error) {
	mw, err := s.manager.CreateWorld(id, cfg, rules)
	if err != nil {
		return nil, err
	}
	mw.SetFrameEveryTicks(s.frameEveryTicks)
	return mw, nil
}

// Handler returns the HTTP routes of the server.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/healthz", s.handleHealth)
	mux.HandleFunc("/worlds", s.handleListWorlds)
	mux.HandleFunc("/world/", s.handleWorldRoutes)
	mux.HandleFunc("/notifiers", s.handleNotifiersRoutes)
	mux.HandleFunc("/notifiers/", s.handleNotifiersRoutes)
	return mux
}

// Close stops every world and shuts down the notifiers.
func (s *Server) Close() error {
	s.manager.StopAll()
	return s.notifier.Close()
}
