package main

import (
	"fmt"
	"io"
	"os"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/zappabad/marketbubbles/internal/app"
	"github.com/zappabad/marketbubbles/internal/config"
	"github.com/zappabad/marketbubbles/internal/market/feed"
	marketservice "github.com/zappabad/marketbubbles/internal/market/service"
	"github.com/zappabad/marketbubbles/internal/scheduler"
	"github.com/zappabad/marketbubbles/pkg/logger"
	"github.com/zappabad/marketbubbles/tui"
)

func main() {
	os.Exit(run())
}

// run owns every deferred cleanup so it happens before the process exits.
func run() int {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error loading configuration: %v\n", err)
		return 1
	}

	// The terminal is the UI, so logs go to a file or nowhere.
	var out io.Writer = io.Discard
	if cfg.LogFile != "" {
		f, err := os.OpenFile(cfg.LogFile, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error opening log file: %v\n", err)
			return 1
		}
		defer f.Close()
		out = f
	}
	log := logger.New(logger.Config{Level: cfg.LogLevel, Pretty: cfg.LogPretty, Out: out})
	logger.SetGlobalLogger(log)

	appCfg := app.FromEnv(cfg)

	// Create catalog service
	var source feed.Source = feed.NewClient(appCfg.Feed, log)
	if cfg.DemoMode {
		source = feed.DemoCatalog()
	}
	catalog := marketservice.NewCatalogService(source, appCfg.CatalogConfig, log)
	defer catalog.Close()

	// Scheduled refreshes, if configured
	if cfg.RefreshSchedule != "" {
		sched := scheduler.New(log)
		if err := sched.AddJob(cfg.RefreshSchedule, scheduler.NewRefreshJob(catalog, appCfg.RefreshTimeout)); err != nil {
			fmt.Fprintf(os.Stderr, "Error scheduling refresh: %v\n", err)
			return 1
		}
		sched.Start()
		defer sched.Stop()
	}

	// Create and run TUI
	tuiCfg := tui.DefaultConfig()
	tuiCfg.FrameInterval = cfg.FrameInterval
	tuiCfg.RefreshTimeout = appCfg.RefreshTimeout
	model := tui.NewModel(catalog, tuiCfg, appCfg.BubbleConfig, log)
	defer model.Close()

	p := tea.NewProgram(model, tea.WithAltScreen(), tea.WithMouseAllMotion())
	if _, err := p.Run(); err != nil {
		log.Error().Err(err).Msg("TUI exited with error")
		fmt.Fprintf(os.Stderr, "Error running TUI: %v\n", err)
		return 1
	}
	log.Info().Msg("TUI exited")
	return 0
}
