package view

import (
	"math"
	"strconv"

	"github.com/dustin/go-humanize"

	"github.com/zappabad/marketbubbles/internal/bubble/core"
	"github.com/zappabad/marketbubbles/internal/market"
)

// Colors of the bubble ring and change label.
const (
	ColorGain = "#22c55e"
	ColorLoss = "#ef4444"
)

// BubbleFrame is everything a host needs to draw one bubble.
type BubbleFrame struct {
	ID            string  `json:"id" msgpack:"id"`
	X             float64 `json:"x" msgpack:"x"`
	Y             float64 `json:"y" msgpack:"y"`
	Size          float64 `json:"size" msgpack:"size"`
	PercentChange float64 `json:"percentChange" msgpack:"pc"`
	Color         string  `json:"color" msgpack:"color"`
	ChangeLabel   string  `json:"changeLabel" msgpack:"label"`
	FontSize      float64 `json:"fontSize" msgpack:"font"`
	LogoURL       string  `json:"logoUrl,omitempty" msgpack:"logo,omitempty"`
	Selected      bool    `json:"selected,omitempty" msgpack:"sel,omitempty"`
}

// Detail holds the display fields of the selected instrument.
type Detail struct {
	Symbol        string  `json:"symbol" msgpack:"symbol"`
	Title         string  `json:"title" msgpack:"title"`
	LogoURL       string  `json:"logoUrl,omitempty" msgpack:"logo,omitempty"`
	Price         string  `json:"price" msgpack:"price"`
	Change        string  `json:"change" msgpack:"change"`
	ChangeColor   string  `json:"changeColor" msgpack:"changeColor"`
	MarketCap     string  `json:"marketCap" msgpack:"cap"`
	PercentChange float64 `json:"percentChange" msgpack:"pc"`
	Popup         Rect    `json:"popup" msgpack:"popup"`
}

// Snapshot is a point-in-time render view of the simulation. Bubbles are in
// draw order: the selected bubble, if any, comes last.
type Snapshot struct {
	Frame   uint64        `json:"frame" msgpack:"frame"`
	Width   float64       `json:"width" msgpack:"w"`
	Height  float64       `json:"height" msgpack:"h"`
	Bubbles []BubbleFrame `json:"bubbles" msgpack:"bubbles"`
	Detail  *Detail       `json:"detail,omitempty" msgpack:"detail,omitempty"`
}

// Build renders state into a Snapshot. Bubbles without a matching
// instrument are skipped. The result shares no memory with state.
func Build(s *core.State, instruments map[string]market.Instrument, sel core.Selection, container core.Size, cfg PopupConfig) Snapshot {
	snap := Snapshot{
		Width:   container.Width,
		Height:  container.Height,
		Bubbles: make([]BubbleFrame, 0, s.Len()),
	}
	if s == nil {
		return snap
	}
	snap.Frame = s.Frame

	var top *BubbleFrame
	for _, b := range s.Bubbles() {
		inst, ok := instruments[b.ID]
		if !ok {
			continue
		}
		f := frameOf(b, inst)
		if sel.Is(b.ID) {
			f.Selected = true
			top = &f
			continue
		}
		snap.Bubbles = append(snap.Bubbles, f)
	}
	if top == nil {
		return snap
	}
	snap.Bubbles = append(snap.Bubbles, *top)

	b, _ := s.Get(top.ID)
	d := DetailOf(instruments[top.ID])
	d.Popup = ComputePopupRect(b, container, cfg)
	snap.Detail = &d
	return snap
}

func frameOf(b *core.Bubble, inst market.Instrument) BubbleFrame {
	return BubbleFrame{
		ID:            b.ID,
		X:             b.Pos.X,
		Y:             b.Pos.Y,
		Size:          b.Size,
		PercentChange: inst.PercentChange,
		Color:         ColorFor(inst.PercentChange),
		ChangeLabel:   FormatChange(inst.PercentChange),
		FontSize:      b.Size * 0.18,
		LogoURL:       inst.LogoURL,
	}
}

// DetailOf formats the popup fields of an instrument. Popup is left zero.
func DetailOf(inst market.Instrument) Detail {
	title := inst.Symbol
	if inst.Name != "" && inst.Name != inst.Symbol {
		title = inst.Name + " (" + inst.Symbol + ")"
	}
	return Detail{
		Symbol:        inst.Symbol,
		Title:         title,
		LogoURL:       inst.LogoURL,
		Price:         FormatNumber(inst.Price),
		Change:        FormatChange(inst.PercentChange),
		ChangeColor:   ColorFor(inst.PercentChange),
		MarketCap:     FormatNumber(inst.MarketCap),
		PercentChange: inst.PercentChange,
	}
}

// ColorFor returns the gain color for non-negative changes and the loss
// color otherwise.
func ColorFor(percentChange float64) string {
	if percentChange < 0 {
		return ColorLoss
	}
	return ColorGain
}

// FormatChange renders a percent change as "+12%", "-5%" or "0%".
func FormatChange(pc float64) string {
	if math.IsNaN(pc) || math.IsInf(pc, 0) {
		return "0%"
	}
	s := strconv.FormatFloat(pc, 'f', -1, 64) + "%"
	if pc > 0 {
		s = "+" + s
	}
	return s
}

// FormatNumber renders v with thousands separators and at most three
// decimals, e.g. 1234567.8912 -> "1,234,567.891".
func FormatNumber(v float64) string {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return "0"
	}
	return humanize.CommafWithDigits(v, 3)
}
