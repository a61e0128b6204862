package feed

import (
	"context"

	"github.com/zappabad/marketbubbles/internal/market"
)

// Static is a Source that always returns the same catalog.
type Static []market.Instrument

// FetchInstruments returns a copy of the fixed catalog.
func (s Static) FetchInstruments(ctx context.Context) []market.Instrument {
	out := make([]market.Instrument, len(s))
	copy(out, s)
	return out
}

// DemoCatalog is used when no feed is configured.
func DemoCatalog() Static {
	return Static{
		{Symbol: "AAPL", ID: "aapl", Name: "Apple Inc.", Price: 189.84, PercentChange: 1.25, MarketCap: 2950000000000},
		{Symbol: "GOOGL", ID: "googl", Name: "Alphabet Inc.", Price: 141.8, PercentChange: -0.84, MarketCap: 1780000000000},
		{Symbol: "MSFT", ID: "msft", Name: "Microsoft Corp.", Price: 374.51, PercentChange: 2.1, MarketCap: 2780000000000},
		{Symbol: "AMZN", ID: "amzn", Name: "Amazon.com Inc.", Price: 178.22, PercentChange: -3.4, MarketCap: 1850000000000},
		{Symbol: "TSLA", ID: "tsla", Name: "Tesla Inc.", Price: 248.5, PercentChange: 12.02, MarketCap: 790000000000},
		{Symbol: "NVDA", ID: "nvda", Name: "NVIDIA Corp.", Price: 495.22, PercentChange: 5.7, MarketCap: 1220000000000},
		{Symbol: "META", ID: "meta", Name: "Meta Platforms", Price: 352.96, PercentChange: -1.9, MarketCap: 907000000000},
		{Symbol: "NFLX", ID: "nflx", Name: "Netflix Inc.", Price: 486.88, PercentChange: 0.35, MarketCap: 213000000000},
		{Symbol: "INTC", ID: "intc", Name: "Intel Corp.", Price: 43.65, PercentChange: -7.8, MarketCap: 184000000000},
		{Symbol: "JPM", ID: "jpm", Name: "JPMorgan Chase", Price: 170.1, PercentChange: 0, MarketCap: 491000000000},
	}
}
