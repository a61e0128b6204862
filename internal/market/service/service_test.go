package service

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/zappabad/marketbubbles/internal/market/feed"
)

func testLogger() zerolog.Logger {
	return zerolog.New(nil).Level(zerolog.Disabled)
}

func TestCatalogService_RefreshPublishes(t *testing.T) {
	source := feed.Static{
		{Symbol: "AAPL", Price: 189.5, PercentChange: 1.2},
		{Symbol: "TSLA", Price: 175, PercentChange: -3.4},
	}
	svc := NewCatalogService(source, DefaultConfig(), testLogger())
	defer svc.Close()

	n, err := svc.Refresh(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	ev := <-svc.Events()
	assert.Equal(t, uint64(1), ev.Version)
	assert.Len(t, ev.Instruments, 2)

	snap := svc.Snapshot()
	assert.Equal(t, uint64(1), snap.Version)
	inst, ok := snap.Lookup("TSLA")
	require.True(t, ok)
	assert.Equal(t, -3.4, inst.PercentChange)

	// Snapshots are copies.
	snap.Instruments[0].Symbol = "XXX"
	_, ok = svc.Snapshot().Lookup("AAPL")
	assert.True(t, ok)
}

func TestCatalogService_FailedFetchEmptiesCatalog(t *testing.T) {
	var status atomic.Int32
	status.Store(http.StatusOK)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(int(status.Load()))
		_, _ = w.Write([]byte(`[{"symbol":"AAPL","price":1,"percentChange":2,"marketCap":3}]`))
	}))
	defer srv.Close()

	cfg := feed.DefaultConfig()
	cfg.URL = srv.URL
	svc := NewCatalogService(feed.NewClient(cfg, testLogger()), DefaultConfig(), testLogger())
	defer svc.Close()

	n, err := svc.Refresh(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	status.Store(http.StatusBadGateway)
	n, err = svc.Refresh(context.Background())
	require.NoError(t, err, "fetch failures are not errors")
	assert.Equal(t, 0, n)
	assert.Empty(t, svc.Instruments())
	assert.Equal(t, uint64(2), svc.Snapshot().Version)
}

func TestCatalogService_DropsWhenNobodyListens(t *testing.T) {
	cfg := Config{EventBuffer: 1, DropEvents: true}
	svc := NewCatalogService(feed.Static{{Symbol: "AAPL"}}, cfg, testLogger())
	defer svc.Close()

	for i := 0; i < 3; i++ {
		_, err := svc.Refresh(context.Background())
		require.NoError(t, err)
	}
	assert.Equal(t, int64(2), svc.DroppedEvents())
}

func TestCatalogService_Close(t *testing.T) {
	svc := NewCatalogService(feed.Static{}, DefaultConfig(), testLogger())
	svc.Close()
	svc.Close()

	_, err := svc.Refresh(context.Background())
	assert.ErrorIs(t, err, ErrClosed)

	_, open := <-svc.Events()
	assert.False(t, open)
}

func TestCatalogService_CancelledContext(t *testing.T) {
	svc := NewCatalogService(feed.Static{{Symbol: "AAPL"}}, DefaultConfig(), testLogger())
	defer svc.Close()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := svc.Refresh(ctx)
	assert.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, uint64(0), svc.Snapshot().Version)
}
