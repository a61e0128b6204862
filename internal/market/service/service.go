package service

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog"

	"github.com/zappabad/marketbubbles/internal/market"
	"github.com/zappabad/marketbubbles/internal/market/feed"
	marketview "github.com/zappabad/marketbubbles/internal/market/view"
)

var ErrClosed = errors.New("catalog service closed")

// CatalogService fetches the instrument catalog on demand and publishes
// every new catalog to subscribers.
type CatalogService struct {
	cfg    Config
	source feed.Source
	log    zerolog.Logger
	view   *marketview.CatalogView

	mu            sync.Mutex
	events        chan marketview.CatalogEvent
	droppedEvents atomic.Int64

	closed    chan struct{}
	closeOnce sync.Once
}

// NewCatalogService creates a CatalogService backed by source.
func NewCatalogService(source feed.Source, cfg Config, log zerolog.Logger) *CatalogService {
	if cfg.EventBuffer <= 0 {
		cfg.EventBuffer = DefaultConfig().EventBuffer
	}

	return &CatalogService{
		cfg:    cfg,
		source: source,
		log:    log.With().Str("service", "catalog").Logger(),
		view:   marketview.NewCatalogView(),
		events: make(chan marketview.CatalogEvent, cfg.EventBuffer),
		closed: make(chan struct{}),
	}
}

// Refresh fetches the catalog once and publishes it. A failed fetch yields
// an empty catalog, never an error; the error return only reports a closed
// service or a cancelled context.
func (s *CatalogService) Refresh(ctx context.Context) (int, error) {
	select {
	case <-s.closed:
		return 0, ErrClosed
	default:
	}

	items := s.source.FetchInstruments(ctx)
	if err := ctx.Err(); err != nil {
		return 0, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	select {
	case <-s.closed:
		return 0, ErrClosed
	default:
	}

	ev := s.view.Apply(items, time.Now().UnixNano())
	s.emit(ev)

	s.log.Info().
		Uint64("version", ev.Version).
		Int("instruments", len(items)).
		Msg("Catalog refreshed")

	return len(items), nil
}

func (s *CatalogService) emit(ev marketview.CatalogEvent) {
	if s.cfg.DropEvents {
		select {
		case s.events <- ev:
		default:
			s.droppedEvents.Add(1)
		}
		return
	}
	select {
	case s.events <- ev:
	case <-s.closed:
	}
}

// Snapshot returns the current catalog.
func (s *CatalogService) Snapshot() marketview.CatalogSnapshot {
	return s.view.Snapshot()
}

// Instruments returns the current catalog items.
func (s *CatalogService) Instruments() []market.Instrument {
	return s.view.Snapshot().Instruments
}

// Events returns the catalog events channel. It is closed by Close.
func (s *CatalogService) Events() <-chan marketview.CatalogEvent {
	return s.events
}

// DroppedEvents returns the count of dropped catalog events.
func (s *CatalogService) DroppedEvents() int64 {
	return s.droppedEvents.Load()
}

// Close shuts down the catalog service.
func (s *CatalogService) Close() {
	s.closeOnce.Do(func() {
		close(s.closed)

		s.mu.Lock()
		defer s.mu.Unlock()
		close(s.events)
	})
}
