package view

import "github.com/zappabad/marketbubbles/internal/market"

// CatalogEvent announces a new instrument catalog.
type CatalogEvent struct {
	Version     uint64
	Time        int64
	Instruments []market.Instrument
}
