package feed

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"math"
	"net/http"
	"strconv"
	"strings"

	"github.com/rs/zerolog"

	"github.com/zappabad/marketbubbles/internal/market"
)

var (
	ErrEmptyPayload    = errors.New("empty payload")
	ErrUnexpectedShape = errors.New("unexpected payload shape")
)

// Source supplies the instrument catalog. Implementations never fail: any
// problem degrades to an empty list.
type Source interface {
	FetchInstruments(ctx context.Context) []market.Instrument
}

// Field-name variants seen on the wire, in lookup order.
var (
	percentKeys = []string{"percentChange", "percentchange", "percent_change", "changePercent", "change_percent"}
	capKeys     = []string{"marketCap", "marketcap", "market_cap"}
	logoKeys    = []string{"logo", "logoUrl", "logoURL", "logo_url"}
	priceKeys   = []string{"price", "lastPrice", "last_price"}
)

// Client fetches instruments from the market-data endpoint.
type Client struct {
	cfg    Config
	client *http.Client
	log    zerolog.Logger
}

// NewClient creates a new market feed client.
func NewClient(cfg Config, log zerolog.Logger) *Client {
	if cfg.Timeout <= 0 {
		cfg.Timeout = DefaultConfig().Timeout
	}
	if cfg.UserAgent == "" {
		cfg.UserAgent = DefaultConfig().UserAgent
	}
	return &Client{
		cfg: cfg,
		client: &http.Client{
			Timeout: cfg.Timeout,
		},
		log: log.With().Str("client", "market_feed").Logger(),
	}
}

// FetchInstruments performs one GET against the endpoint and returns the
// normalized catalog, or an empty list on any failure.
func (c *Client) FetchInstruments(ctx context.Context) []market.Instrument {
	items, err := c.fetch(ctx)
	if err != nil {
		c.log.Warn().Err(err).Str("url", c.cfg.URL).Msg("Market feed unavailable, rendering no bubbles")
		return []market.Instrument{}
	}

	c.log.Debug().Int("count", len(items)).Msg("Fetched instruments")
	return items
}

func (c *Client) fetch(ctx context.Context) ([]market.Instrument, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.cfg.URL, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", c.cfg.UserAgent)

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch instruments: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, fmt.Errorf("market feed returned status %d: %s", resp.StatusCode, strings.TrimSpace(string(body)))
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}

	return c.Decode(body)
}

// Decode normalizes a raw payload. It accepts a bare JSON array or an object
// wrapping the array under "data".
func (c *Client) Decode(body []byte) ([]market.Instrument, error) {
	if len(strings.TrimSpace(string(body))) == 0 {
		return nil, ErrEmptyPayload
	}

	var raw []map[string]interface{}
	if err := json.Unmarshal(body, &raw); err != nil {
		var envelope struct {
			Data []map[string]interface{} `json:"data"`
		}
		if envErr := json.Unmarshal(body, &envelope); envErr != nil || envelope.Data == nil {
			return nil, fmt.Errorf("failed to decode instruments: %w", errors.Join(ErrUnexpectedShape, err))
		}
		raw = envelope.Data
	}
	if len(raw) == 0 {
		return nil, ErrEmptyPayload
	}

	items := make([]market.Instrument, 0, len(raw))
	seen := make(map[string]struct{}, len(raw))
	for _, m := range raw {
		inst, ok := normalize(m)
		if !ok {
			c.log.Debug().Interface("item", m).Msg("Skipping instrument without symbol")
			continue
		}
		if _, dup := seen[inst.Symbol]; dup {
			c.log.Warn().Str("symbol", inst.Symbol).Msg("Duplicate symbol in payload, keeping first")
			continue
		}
		seen[inst.Symbol] = struct{}{}
		items = append(items, inst)
	}
	if len(items) == 0 {
		return nil, ErrEmptyPayload
	}
	return items, nil
}

func normalize(m map[string]interface{}) (market.Instrument, bool) {
	symbol := strings.TrimSpace(getString(m, "symbol"))
	if symbol == "" {
		return market.Instrument{}, false
	}

	id := getString(m, "id")
	if id == "" {
		id = symbol
	}

	return market.Instrument{
		Symbol:        symbol,
		ID:            id,
		Name:          getString(m, "name"),
		Price:         nonNegative(getFirstFloat(m, priceKeys)),
		PercentChange: getFirstFloat(m, percentKeys),
		MarketCap:     nonNegative(getFirstFloat(m, capKeys)),
		LogoURL:       getFirstString(m, logoKeys),
	}, true
}

func nonNegative(v float64) float64 {
	if v < 0 || math.IsNaN(v) || math.IsInf(v, 0) {
		return 0
	}
	return v
}

func getFirstFloat(m map[string]interface{}, keys []string) float64 {
	for _, k := range keys {
		if v, ok := getFloat64(m, k); ok {
			return v
		}
	}
	return 0
}

func getFirstString(m map[string]interface{}, keys []string) string {
	for _, k := range keys {
		if s := getString(m, k); s != "" {
			return s
		}
	}
	return ""
}

func getFloat64(m map[string]interface{}, key string) (float64, bool) {
	val, ok := m[key]
	if !ok || val == nil {
		return 0, false
	}
	var f float64
	switch v := val.(type) {
	case float64:
		f = v
	case string:
		parsed, err := strconv.ParseFloat(strings.TrimSuffix(strings.TrimSpace(v), "%"), 64)
		if err != nil {
			return 0, false
		}
		f = parsed
	default:
		return 0, false
	}
	// ParseFloat accepts "NaN" and "Inf"; neither is a usable quote.
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, false
	}
	return f, true
}

func getString(m map[string]interface{}, key string) string {
	val, ok := m[key]
	if !ok || val == nil {
		return ""
	}
	switch v := val.(type) {
	case string:
		return v
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64)
	}
	return ""
}
