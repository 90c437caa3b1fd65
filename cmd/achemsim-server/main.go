package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/daniacca/achemsim/internal/achem"
)

const shutdownTimeout = 5 * time.Second

func main() {
	cfg := loadServerConfig()
	logger := NewLogger(cfg.LogLevel)

	srv := NewServer(logger)
	srv.SetWorldConfig(cfg.WorldConfig())
	srv.SetFrameEveryTicks(cfg.FrameEveryTicks)

	rules, err := loadInitialRules(cfg)
	if err != nil {
		logger.Fatalf("Failed to load rules: %v", err)
	}
	if rules != nil {
		if err := applyInitialRules(srv, rules, achem.WorldID(cfg.DefaultWorldID)); err != nil {
			logger.Fatalf("Failed to create world %s: %v", cfg.DefaultWorldID, err)
		}
		logger.Infof("World created from startup rules: world_id=%s rules=%s species=%d reactions=%d fissions=%d",
			cfg.DefaultWorldID, rules.Name, len(rules.SpeciesList()), rules.ReactionCount(), rules.FissionCount())
	}

	httpServer := &http.Server{
		Addr:    cfg.Addr,
		Handler: srv.Handler(),
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	errCh := make(chan error, 1)
	go func() {
		logger.Infof("achemsim-server listening on %s (world %gx%g, cell=%g, dt=%g, frame_every=%d)",
			cfg.Addr, cfg.Width, cfg.Height, cfg.CellSize, cfg.TimeStep, cfg.FrameEveryTicks)
		errCh <- httpServer.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatalf("Server failed: %v", err)
		}
	case <-ctx.Done():
		logger.Infof("Shutting down")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		logger.Errorf("HTTP shutdown failed: %v", err)
	}
	if err := srv.Close(); err != nil {
		logger.Errorf("Notifier shutdown failed: %v", err)
	}
}
