package main

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"syscall"

	"github.com/rs/zerolog"

	"github.com/its-coded-coder/Elevator-API/src/config"
	"github.com/its-coded-coder/Elevator-API/src/fleet"
	"github.com/its-coded-coder/Elevator-API/src/logger"
	"github.com/its-coded-coder/Elevator-API/src/store"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		logger.Get().Fatal().Err(err).Msg("invalid configuration")
	}

	level, err := zerolog.ParseLevel(cfg.LogLevel)
	if err != nil {
		level = zerolog.InfoLevel
	}
	log := logger.GetConfigured(level)
	log.Info().
		Int("elevators", cfg.ElevatorCount).
		Int("floors", cfg.TotalFloors).
		Str("algorithm", cfg.Algorithm.String()).
		Msg("starting elevator fleet")

	mem := store.NewMemStore()
	coordinator, err := fleet.New(cfg, mem, mem, *log)
	if err != nil {
		log.Fatal().Err(err).Msg("fleet startup failed")
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Drain telemetry so the broadcast buffer never saturates in a
	// headless run.
	go func() {
		for ev := range coordinator.Events() {
			log.Debug().
				Str("event", string(ev.Type)).
				Int("floor", ev.Floor).
				Str("state", ev.Status.State.String()).
				Msg("telemetry")
		}
	}()

	if err := coordinator.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
		log.Error().Err(err).Msg("fleet stopped with error")
		os.Exit(1)
	}
	log.Info().Msg("fleet stopped")
}
