package app

import (
	"context"
	"fmt"
	"sync"

	"github.com/rs/zerolog"

	bubbleservice "github.com/zappabad/marketbubbles/internal/bubble/service"
	"github.com/zappabad/marketbubbles/internal/loop"
	"github.com/zappabad/marketbubbles/internal/market/feed"
	marketservice "github.com/zappabad/marketbubbles/internal/market/service"
	"github.com/zappabad/marketbubbles/internal/scheduler"
)

// App owns the headless subsystems and manages their lifecycle.
type App struct {
	Catalog    *marketservice.CatalogService
	Loop       *loop.Loop
	Simulation *Simulation
	Scheduler  *scheduler.Scheduler

	lifecycle *bubbleservice.Lifecycle
	refresh   *scheduler.RefreshJob

	cfg Config
	log zerolog.Logger

	mu        sync.Mutex
	closed    bool
	forwarder sync.WaitGroup
}

// New creates an App with the given configuration. Nothing runs until
// Start.
func New(cfg Config, log zerolog.Logger) (*App, error) {
	a := &App{cfg: cfg, log: log}

	var source feed.Source
	if cfg.DemoMode {
		source = feed.DemoCatalog()
		log.Info().Msg("Demo mode: serving built-in catalog")
	} else {
		source = feed.NewClient(cfg.Feed, log)
	}

	a.Catalog = marketservice.NewCatalogService(source, cfg.CatalogConfig, log)
	a.refresh = scheduler.NewRefreshJob(a.Catalog, cfg.RefreshTimeout)

	a.Loop = loop.New(cfg.LoopConfig, log)
	a.lifecycle = bubbleservice.NewLifecycle(cfg.BubbleConfig, a.Loop, log)
	a.Simulation = &Simulation{loop: a.Loop, lc: a.lifecycle}

	if cfg.RefreshSchedule != "" {
		a.Scheduler = scheduler.New(log)
		if err := a.Scheduler.AddJob(cfg.RefreshSchedule, a.refresh); err != nil {
			a.Loop.Close()
			a.Catalog.Close()
			return nil, fmt.Errorf("register catalog refresh: %w", err)
		}
	}

	// Forward catalog updates onto the simulation loop
	a.forwarder.Add(1)
	go a.forwardCatalog()

	return a, nil
}

func (a *App) forwardCatalog() {
	defer a.forwarder.Done()

	for ev := range a.Catalog.Events() {
		items := ev.Instruments
		err := a.Loop.Post(func() {
			if err := a.lifecycle.SetInstruments(items); err != nil {
				a.log.Debug().Err(err).Msg("Catalog update ignored")
			}
		})
		if err != nil {
			return
		}
	}
}

// Start mounts the simulation, fetches the catalog once and starts the
// refresh schedule.
func (a *App) Start(ctx context.Context) error {
	var startErr error
	if err := a.Loop.Do(ctx, func() { startErr = a.lifecycle.Start() }); err != nil {
		return err
	}
	if startErr != nil {
		return startErr
	}

	if err := a.refresh.Run(); err != nil {
		a.log.Warn().Err(err).Msg("Initial catalog fetch failed")
	}
	if a.Scheduler != nil {
		a.Scheduler.Start()
	}
	return nil
}

// Refresh fetches the catalog now. The new instruments reach the
// simulation asynchronously.
func (a *App) Refresh(ctx context.Context) (int, error) {
	return a.Catalog.Refresh(ctx)
}

// Close shuts down all subsystems in reverse dependency order.
func (a *App) Close() {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.closed {
		return
	}
	a.closed = true

	// Stop refreshes first
	if a.Scheduler != nil {
		a.Scheduler.Stop()
	}

	// Stop the catalog; the forwarder drains and exits
	a.Catalog.Close()
	a.forwarder.Wait()

	// Tear down the simulation on its own goroutine, then the loop
	if err := a.Loop.Do(context.Background(), a.lifecycle.Stop); err != nil {
		a.log.Debug().Err(err).Msg("Lifecycle stop skipped")
	}
	a.Loop.Close()
}
