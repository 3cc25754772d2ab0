// Package main is the entry point for the pivot daemon.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/Faultbox/pivot/internal/assets"
	"github.com/Faultbox/pivot/internal/config"
	"github.com/Faultbox/pivot/internal/logger"
	"github.com/Faultbox/pivot/internal/record"
	"github.com/Faultbox/pivot/internal/sim"
	"github.com/Faultbox/pivot/internal/transport"
)

func main() {
	// Parse CLI flags first
	config.ParseFlags()

	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Config error: %v\n", err)
		os.Exit(1)
	}

	// Initialize logger
	if err := logger.InitWithFileConfig(cfg.Logging.Level, logger.FileConfig{
		Path:       cfg.Logging.LogFile,
		MaxSizeMB:  cfg.Logging.MaxSizeMB,
		MaxBackups: cfg.Logging.MaxBackups,
		MaxAgeDays: cfg.Logging.MaxAgeDays,
		Compress:   cfg.Logging.Compress,
	}, true); err != nil {
		fmt.Fprintf(os.Stderr, "Logger error: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	logger.Info("=== pivot daemon ===")
	logger.Sugar.Debugf("Config: %+v", cfg)

	set, err := assets.NewLibrary(".", "assets").Load(cfg.Simulation.AnimSet)
	if err != nil {
		logger.Error("failed to load anim set", zap.Error(err))
		os.Exit(1)
	}

	world, err := sim.NewWorld(sim.Config{
		TickRate:   cfg.Simulation.TickRate,
		Characters: cfg.Simulation.Characters,
		Scenario:   cfg.Simulation.Scenario,
		Set:        set,
		Log:        logger.Named("sim"),
	})
	if err != nil {
		logger.Error("failed to build world", zap.Error(err))
		os.Exit(1)
	}

	hub := transport.NewHub(logger.Named("hub"))
	hub.SetSnapshot(world.Snapshot)
	world.Subscribe(hub.Broadcast)

	var rec *record.Recorder
	if cfg.Record.Enabled {
		rec, err = record.NewRecorder(cfg.Record.Dir, cfg.Record.Index(),
			world.TickRate(), len(world.Characters()), logger.Named("record"))
		if err != nil {
			logger.Error("failed to start recorder", zap.Error(err))
			os.Exit(1)
		}
		world.Subscribe(rec.OnPacket)
		logger.Info("recording session",
			zap.String("session", rec.SessionID()),
			zap.String("path", rec.Path()))
	}

	srv := transport.NewServer(hub, cfg.Server.Listen, cfg.Server.WriteTimeout, logger.Named("observe"))

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	srvc := make(chan error, 1)
	go func() { srvc <- srv.ListenAndServe() }()
	worldc := make(chan error, 1)
	go func() { worldc <- world.Run(ctx) }()

	var worldErr error
	worldDone := false
	select {
	case <-ctx.Done():
		logger.Info("shutting down")
	case err := <-srvc:
		if err != nil {
			logger.Error("observer endpoint error", zap.Error(err))
		}
	case worldErr = <-worldc:
		worldDone = true
	}
	stop()

	// The tick loop can finish one more step after the cancel. It must be
	// joined before the recorder closes so no packet lands behind the
	// journal's final flush.
	if !worldDone {
		worldErr = <-worldc
	}
	if worldErr != nil {
		logger.Error("world stopped", zap.Error(worldErr))
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Warn("observer endpoint shutdown", zap.Error(err))
	}
	if rec != nil {
		if err := rec.Close(); err != nil {
			logger.Warn("recorder close", zap.Error(err))
		}
	}

	logger.Info("daemon closed normally")
}
