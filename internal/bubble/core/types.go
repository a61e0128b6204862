package core

import (
	"math"

	"gonum.org/v1/gonum/spatial/r2"
)

// Size is a container size in world units.
type Size struct {
	Width  float64
	Height float64
}

// Valid reports whether the container has been laid out.
func (s Size) Valid() bool {
	return s.Width > 0 && s.Height > 0 &&
		!math.IsNaN(s.Width) && !math.IsNaN(s.Height) &&
		!math.IsInf(s.Width, 0) && !math.IsInf(s.Height, 0)
}

// Bubble is the mutable simulation state of one instrument.
type Bubble struct {
	ID   string
	Pos  r2.Vec
	Vel  r2.Vec
	Size float64 // diameter, fixed at creation

	DriftPhase  float64
	DriftRadius float64
	DriftSpeed  float64
}

// Radius returns half the diameter.
func (b *Bubble) Radius() float64 {
	return b.Size / 2
}

// Speed returns the velocity magnitude.
func (b *Bubble) Speed() float64 {
	return r2.Norm(b.Vel)
}

// State is the simulation state: bubbles keyed by id, kept in insertion
// order so pair processing is deterministic within a frame.
type State struct {
	bubbles []*Bubble
	index   map[string]int

	// Frame counts completed steps since initialization.
	Frame uint64
}

// NewState creates an empty state with room for n bubbles.
func NewState(n int) *State {
	return &State{
		bubbles: make([]*Bubble, 0, n),
		index:   make(map[string]int, n),
	}
}

// Len returns the number of bubbles.
func (s *State) Len() int {
	if s == nil {
		return 0
	}
	return len(s.bubbles)
}

// Get returns the bubble with the given id.
func (s *State) Get(id string) (*Bubble, bool) {
	if s == nil {
		return nil, false
	}
	i, ok := s.index[id]
	if !ok {
		return nil, false
	}
	return s.bubbles[i], true
}

// Bubbles returns the bubbles in processing order. The pointers are live;
// callers on the owning thread may read them but must not retain them
// across a re-initialization.
func (s *State) Bubbles() []*Bubble {
	if s == nil {
		return nil
	}
	return s.bubbles
}

// Put inserts or replaces a bubble.
func (s *State) Put(b *Bubble) {
	if i, ok := s.index[b.ID]; ok {
		s.bubbles[i] = b
		return
	}
	s.index[b.ID] = len(s.bubbles)
	s.bubbles = append(s.bubbles, b)
}

// Clone returns a deep copy.
func (s *State) Clone() *State {
	if s == nil {
		return nil
	}
	out := NewState(len(s.bubbles))
	for _, b := range s.bubbles {
		cp := *b
		out.Put(&cp)
	}
	out.Frame = s.Frame
	return out
}
