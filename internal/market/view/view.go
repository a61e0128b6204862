package view

import (
	"sync"

	"github.com/zappabad/marketbubbles/internal/market"
)

// CatalogSnapshot is a point-in-time copy of the instrument catalog.
type CatalogSnapshot struct {
	Version     uint64
	UpdatedAt   int64
	Instruments []market.Instrument
}

// Lookup returns the instrument with the given symbol.
func (s CatalogSnapshot) Lookup(symbol string) (market.Instrument, bool) {
	for _, inst := range s.Instruments {
		if inst.Symbol == symbol {
			return inst, true
		}
	}
	return market.Instrument{}, false
}

// CatalogView maintains the latest catalog.
type CatalogView struct {
	mu        sync.RWMutex
	version   uint64
	updatedAt int64
	items     []market.Instrument
}

// NewCatalogView creates an empty CatalogView.
func NewCatalogView() *CatalogView {
	return &CatalogView{}
}

// Apply replaces the catalog and returns the event describing the change.
func (v *CatalogView) Apply(items []market.Instrument, now int64) CatalogEvent {
	v.mu.Lock()
	defer v.mu.Unlock()

	v.version++
	v.updatedAt = now
	v.items = append(v.items[:0:0], items...)

	return CatalogEvent{
		Version:     v.version,
		Time:        now,
		Instruments: append([]market.Instrument(nil), items...),
	}
}

// Snapshot returns a deep copy of the current catalog.
func (v *CatalogView) Snapshot() CatalogSnapshot {
	v.mu.RLock()
	defer v.mu.RUnlock()

	return CatalogSnapshot{
		Version:     v.version,
		UpdatedAt:   v.updatedAt,
		Instruments: append([]market.Instrument(nil), v.items...),
	}
}
