package core

import (
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/spatial/r2"
)

func threeInARow() *State {
	s := NewState(3)
	s.Put(&Bubble{ID: "A", Size: 80, Pos: r2.Vec{X: 300, Y: 300}})
	s.Put(&Bubble{ID: "B", Size: 80, Pos: r2.Vec{X: 400, Y: 300}})
	s.Put(&Bubble{ID: "C", Size: 80, Pos: r2.Vec{X: 600, Y: 300}})
	return s
}

func TestInteract_PushesNeighboursAway(t *testing.T) {
	p := DefaultParams()
	s := threeInARow()

	require.True(t, Interact(s, "A", p, rand.New(rand.NewSource(1))))

	b, _ := s.Get("B")
	assert.Greater(t, b.Vel.X, 0.0, "B is pushed away from A")
	assert.InDelta(t, 0, b.Vel.Y, 1e-12)
	// d=100: min(100, 200/101) * 0.3
	assert.InDelta(t, 200.0/101.0*0.3, b.Vel.X, 1e-9)

	c, _ := s.Get("C")
	assert.Equal(t, r2.Vec{}, c.Vel, "C is outside the interaction radius")

	a, _ := s.Get("A")
	assert.LessOrEqual(t, a.Vel.X, p.SelfJitter/2)
	assert.GreaterOrEqual(t, a.Vel.X, -p.SelfJitter/2)
}

func TestInteract_ChangesOnlyVelocities(t *testing.T) {
	p := DefaultParams()
	s := threeInARow()
	before := s.Clone()

	Interact(s, "B", p, rand.New(rand.NewSource(9)))

	for _, b := range s.Bubbles() {
		old, _ := before.Get(b.ID)
		assert.Equal(t, old.Pos, b.Pos)
		assert.Equal(t, old.Size, b.Size)
	}
	assert.Equal(t, before.Frame, s.Frame)
}

func TestInteract_UnknownIDIsNoOp(t *testing.T) {
	p := DefaultParams()
	s := threeInARow()
	before := s.Clone()

	assert.False(t, Interact(s, "ZZZ", p, nil))
	assert.False(t, Interact(nil, "A", p, nil))
	assert.Equal(t, before, s)
}

func TestInteract_CoincidentNeighbourGetsFiniteKick(t *testing.T) {
	p := DefaultParams()
	s := NewState(2)
	s.Put(&Bubble{ID: "A", Size: 80, Pos: r2.Vec{X: 300, Y: 300}})
	s.Put(&Bubble{ID: "B", Size: 80, Pos: r2.Vec{X: 300, Y: 300}})

	Interact(s, "A", p, rand.New(rand.NewSource(2)))

	b, _ := s.Get("B")
	assert.True(t, finite(b.Vel))
	assert.InDelta(t, p.MaxForce*p.ForceScale, b.Vel.X, 1e-9)
}

func TestInteract_ThenStepRestoresSpeedBound(t *testing.T) {
	p := DefaultParams()
	size := Size{Width: 900, Height: 600}
	s := threeInARow()
	s.Put(&Bubble{ID: "D", Size: 80, Pos: r2.Vec{X: 301, Y: 300}})

	Interact(s, "A", p, rand.New(rand.NewSource(4)))
	d, _ := s.Get("D")
	require.Greater(t, d.Speed(), p.MaxSpeed)

	Step(s, size, p, rand.New(rand.NewSource(4)))
	for _, b := range s.Bubbles() {
		assert.LessOrEqual(t, b.Speed(), p.MaxSpeed+1e-9)
	}
}

func TestSelection_Toggle(t *testing.T) {
	var sel Selection

	_, ok := sel.ID()
	assert.False(t, ok)

	assert.True(t, sel.Toggle("AAPL"))
	assert.True(t, sel.Is("AAPL"))

	assert.True(t, sel.Toggle("MSFT"), "clicking another bubble switches")
	assert.False(t, sel.Is("AAPL"))
	id, ok := sel.ID()
	assert.True(t, ok)
	assert.Equal(t, "MSFT", id)

	assert.False(t, sel.Toggle("MSFT"), "clicking the selected bubble clears")
	_, ok = sel.ID()
	assert.False(t, ok)

	sel.Toggle("TSLA")
	sel.Clear()
	assert.False(t, sel.Is("TSLA"))
}

func TestHitTest(t *testing.T) {
	s := NewState(3)
	s.Put(&Bubble{ID: "A", Size: 100, Pos: r2.Vec{X: 100, Y: 100}})
	s.Put(&Bubble{ID: "B", Size: 100, Pos: r2.Vec{X: 150, Y: 100}})
	s.Put(&Bubble{ID: "C", Size: 80, Pos: r2.Vec{X: 400, Y: 400}})

	tests := []struct {
		name     string
		point    r2.Vec
		selected string
		want     string
		ok       bool
	}{
		{"only A", r2.Vec{X: 60, Y: 100}, "", "A", true},
		{"overlap prefers later", r2.Vec{X: 125, Y: 100}, "", "B", true},
		{"overlap prefers selected", r2.Vec{X: 125, Y: 100}, "A", "A", true},
		{"selected elsewhere", r2.Vec{X: 125, Y: 100}, "C", "B", true},
		{"empty space", r2.Vec{X: 300, Y: 250}, "", "", false},
		{"edge of C", r2.Vec{X: 440, Y: 400}, "", "C", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := HitTest(s, tt.point, tt.selected)
			assert.Equal(t, tt.ok, ok)
			assert.Equal(t, tt.want, got)
		})
	}

	_, ok := HitTest(nil, r2.Vec{}, "")
	assert.False(t, ok)
}
