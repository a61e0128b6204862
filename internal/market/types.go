package market

// Instrument represents a tradeable instrument as delivered by the market feed.
type Instrument struct {
	Symbol        string
	ID            string
	Name          string // optional
	Price         float64
	PercentChange float64
	MarketCap     float64
	LogoURL       string // optional, display only
}

// DisplayName returns the instrument name, falling back to the symbol.
func (i Instrument) DisplayName() string {
	if i.Name != "" {
		return i.Name
	}
	return i.Symbol
}

// Negative reports whether the instrument is down on the period.
func (i Instrument) Negative() bool {
	return i.PercentChange < 0
}
