package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/zappabad/marketbubbles/internal/app"
	"github.com/zappabad/marketbubbles/internal/config"
	"github.com/zappabad/marketbubbles/internal/server"
	"github.com/zappabad/marketbubbles/pkg/logger"
)

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		boot := logger.New(logger.Config{Level: "info", Pretty: true})
		boot.Fatal().Err(err).Msg("Failed to load configuration")
	}

	// Initialize logger
	log := logger.New(logger.Config{
		Level:  cfg.LogLevel,
		Pretty: cfg.LogPretty,
	})
	logger.SetGlobalLogger(log)

	log.Info().Bool("demo", cfg.DemoMode).Msg("Starting market bubbles server")

	// Build the simulation, catalog and refresh schedule
	a, err := app.New(app.FromEnv(cfg), log)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to initialize application")
	}

	startCtx, cancelStart := context.WithTimeout(context.Background(), cfg.FeedTimeout+5*time.Second)
	if err := a.Start(startCtx); err != nil {
		cancelStart()
		a.Close()
		log.Fatal().Err(err).Msg("Failed to start application")
	}
	cancelStart()

	// Initialize HTTP server
	srv := server.New(server.Config{
		Port:           cfg.Port,
		Log:            log,
		Simulation:     a.Simulation,
		Catalog:        a,
		StreamInterval: cfg.StreamInterval,
	})

	// Start server in goroutine
	go func() {
		if err := srv.Start(); err != nil {
			log.Fatal().Err(err).Msg("Failed to start server")
		}
	}()

	log.Info().Int("port", cfg.Port).Msg("Server started successfully")

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("Shutting down server...")

	// Stop the simulation first so open streams see the loop close
	a.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		log.Error().Err(err).Msg("Server forced to shutdown")
	}

	log.Info().Msg("Server stopped")
}
