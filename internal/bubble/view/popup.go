package view

import (
	"math"

	"github.com/zappabad/marketbubbles/internal/bubble/core"
)

// PopupConfig is the fixed footprint of the detail popup.
type PopupConfig struct {
	Width        float64
	Height       float64
	Margin       float64
	HeaderOffset float64
}

// DefaultPopupConfig returns a PopupConfig with reasonable defaults.
func DefaultPopupConfig() PopupConfig {
	return PopupConfig{
		Width:        280,
		Height:       200,
		Margin:       10,
		HeaderOffset: 60,
	}
}

// Rect is a popup placement in container coordinates.
type Rect struct {
	Left   float64 `json:"left" msgpack:"left"`
	Top    float64 `json:"top" msgpack:"top"`
	Width  float64 `json:"width" msgpack:"width"`
	Height float64 `json:"height" msgpack:"height"`
}

// Right returns the x coordinate of the right edge.
func (r Rect) Right() float64 { return r.Left + r.Width }

// Bottom returns the y coordinate of the bottom edge.
func (r Rect) Bottom() float64 { return r.Top + r.Height }

// ComputePopupRect places the popup for b inside the container. It prefers
// the right side of the bubble, then the left side, and otherwise clamps
// horizontally. Vertically the popup starts level with the bubble centre,
// below the header band and above the bottom margin.
func ComputePopupRect(b *core.Bubble, container core.Size, cfg PopupConfig) Rect {
	r := Rect{Width: cfg.Width, Height: cfg.Height}
	if b == nil {
		r.Top = cfg.HeaderOffset
		return r
	}
	half := b.Radius()

	right := b.Pos.X + half + cfg.Margin
	left := b.Pos.X - half - cfg.Margin - cfg.Width
	switch {
	case right+cfg.Width <= container.Width:
		r.Left = right
	case left >= 0:
		r.Left = left
	default:
		r.Left = math.Max(0, math.Min(b.Pos.X-cfg.Width/2, container.Width-cfg.Width))
	}

	maxTop := container.Height - cfg.Height - cfg.Margin
	r.Top = math.Max(cfg.HeaderOffset, math.Min(b.Pos.Y, maxTop))
	return r
}
