package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/rs/zerolog/log"
	"golang.org/x/sync/errgroup"
)

const tickInterval = 50 * time.Millisecond

func main() {
	setupLogging(os.Stderr)
	if err := run(); err != nil {
		log.Fatal().Err(err).Str("component", "backend").Msg("backend exited")
	}
}

func run() error {
	config := LoadConfigFromEnv(DefaultConfig())
	configStore.Update(config)
	config = GetConfig()

	sigCtx, stopSignals := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stopSignals()

	leaderboard, err := OpenLeaderboard(sigCtx, config)
	if err != nil {
		return fmt.Errorf("open leaderboard: %w", err)
	}
	defer leaderboard.Close()

	hub := NewHub()
	controller := NewGameController(DefaultGameSettings(), ControllerDeps{
		Leaderboard: leaderboard,
		Preferences: NewPreferencesStore(filepath.Join(config.DataDir, "settings.json")),
		Events:      hub,
	})
	defer controller.Close()

	server := &http.Server{
		Addr:              fmt.Sprintf(":%d", config.HTTPPort),
		Handler:           newRouter(controller, hub),
		ReadHeaderTimeout: 5 * time.Second,
	}

	g, ctx := errgroup.WithContext(sigCtx)
	g.Go(func() error {
		hub.Run(ctx.Done())
		return nil
	})
	g.Go(func() error {
		ticker := time.NewTicker(tickInterval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return nil
			case <-ticker.C:
				controller.Tick()
			}
		}
	})
	g.Go(func() error {
		log.Info().Str("component", "backend").Str("addr", server.Addr).Str("data_dir", config.DataDir).Msg("listening")
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-ctx.Done()
		log.Info().Str("component", "backend").Msg("shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Warn().Err(err).Str("component", "backend").Msg("graceful shutdown failed")
			return server.Close()
		}
		return nil
	})
	return g.Wait()
}
