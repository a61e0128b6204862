package core

import (
	"math"
	"math/rand"

	"gonum.org/v1/gonum/spatial/r2"

	"github.com/zappabad/marketbubbles/internal/market"
)

// Rand is the random source for jitter, initial velocities and kicks.
// *rand.Rand satisfies it.
type Rand interface {
	Float64() float64
}

type globalRand struct{}

func (globalRand) Float64() float64 { return rand.Float64() }

func orDefault(r Rand) Rand {
	if r == nil {
		return globalRand{}
	}
	return r
}

// SizeFor maps a percent change to a bubble diameter.
func SizeFor(percentChange float64, p Params) float64 {
	size := math.Abs(percentChange)*p.SizeFactor + p.BaseSize
	if math.IsNaN(size) {
		return p.MinSize
	}
	return math.Max(p.MinSize, math.Min(p.MaxSize, size))
}

// GridShape returns the layout grid for n items so that the grid
// approximates the container's aspect ratio.
func GridShape(n int, size Size) (columns, rows int) {
	if n <= 0 || !size.Valid() {
		return 0, 0
	}
	aspect := size.Width / size.Height
	columns = int(math.Ceil(math.Sqrt(float64(n) * aspect)))
	if columns < 1 {
		columns = 1
	}
	rows = int(math.Ceil(float64(n) / float64(columns)))
	return columns, rows
}

// Initialize builds a fresh state with one bubble per instrument laid out on
// a jittered grid. It returns ok=false when the container has no area yet;
// the caller should retry once a real size is known.
func Initialize(items []market.Instrument, size Size, p Params, rng Rand) (*State, bool) {
	if !size.Valid() {
		return nil, false
	}
	if len(items) == 0 {
		return NewState(0), true
	}
	rng = orDefault(rng)

	columns, rows := GridShape(len(items), size)
	cellW := size.Width / float64(columns)
	cellH := size.Height / float64(rows)

	state := NewState(len(items))
	for i, inst := range items {
		col := i % columns
		row := i / columns

		offX := (rng.Float64() - 0.5) * cellW * p.JitterFraction
		offY := (rng.Float64() - 0.5) * cellH * p.JitterFraction

		b := &Bubble{
			ID:   inst.Symbol,
			Size: SizeFor(inst.PercentChange, p),
			Pos: r2.Vec{
				X: (float64(col)+0.5)*cellW + offX,
				Y: (float64(row)+0.5)*cellH + offY + p.HeaderOffset,
			},
		}

		speed := p.MinInitSpeed + rng.Float64()*(p.MaxInitSpeed-p.MinInitSpeed)
		angle := rng.Float64() * 2 * math.Pi
		b.Vel = r2.Vec{X: math.Cos(angle) * speed, Y: math.Sin(angle) * speed}

		b.DriftPhase = rng.Float64() * 2 * math.Pi
		b.DriftRadius = p.DriftRadiusMin + rng.Float64()*(p.DriftRadiusMax-p.DriftRadiusMin)
		b.DriftSpeed = p.DriftSpeedMin + rng.Float64()*(p.DriftSpeedMax-p.DriftSpeedMin)
		if rng.Float64() < 0.5 {
			b.DriftSpeed = -b.DriftSpeed
		}

		// The header offset can push the bottom row past the floor.
		b.Pos, _ = clampInto(b, size, p)

		state.Put(b)
	}

	return state, true
}

// Bounds returns the permissible range of the bubble's center.
func Bounds(b *Bubble, size Size, p Params) (lo, hi r2.Vec) {
	r := b.Radius()
	lo = r2.Vec{X: r, Y: r + p.HeaderOffset}
	hi = r2.Vec{X: size.Width - r, Y: size.Height - r}
	// A container smaller than the bubble pins the bubble to the middle.
	if hi.X < lo.X {
		mid := (lo.X + hi.X) / 2
		lo.X, hi.X = mid, mid
	}
	if hi.Y < lo.Y {
		mid := (lo.Y + hi.Y) / 2
		lo.Y, hi.Y = mid, mid
	}
	return lo, hi
}

// clampInto returns the bubble position clamped to its bounds and, per axis,
// the side that was hit: -1 below the minimum, +1 above the maximum.
func clampInto(b *Bubble, size Size, p Params) (r2.Vec, [2]int) {
	lo, hi := Bounds(b, size, p)
	pos := b.Pos
	var hit [2]int
	switch {
	case pos.X < lo.X:
		pos.X, hit[0] = lo.X, -1
	case pos.X > hi.X:
		pos.X, hit[0] = hi.X, 1
	}
	switch {
	case pos.Y < lo.Y:
		pos.Y, hit[1] = lo.Y, -1
	case pos.Y > hi.Y:
		pos.Y, hit[1] = hi.Y, 1
	}
	return pos, hit
}
