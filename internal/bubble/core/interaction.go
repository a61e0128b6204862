package core

import (
	"math"

	"gonum.org/v1/gonum/spatial/r2"
)

// Interact applies a hover/tap on the bubble id: every other bubble within
// the interaction radius is pushed away with a force that falls off with
// distance, and the bubble itself gets a small random jitter. Only
// velocities change. Unknown ids are ignored and reported as false.
func Interact(s *State, id string, p Params, rng Rand) bool {
	target, ok := s.Get(id)
	if !ok {
		return false
	}
	rng = orDefault(rng)

	for _, other := range s.bubbles {
		if other.ID == id {
			continue
		}
		delta := r2.Sub(other.Pos, target.Pos)
		dist := r2.Norm(delta)
		if dist >= p.InteractionRadius {
			continue
		}

		force := math.Min(p.MaxForce, (p.MaxForce*2)/(dist+1))
		dir := r2.Vec{X: 1}
		if dist >= p.Epsilon {
			dir = r2.Scale(1/dist, delta)
		}
		other.Vel = r2.Add(other.Vel, r2.Scale(force*p.ForceScale, dir))
	}

	target.Vel.X += (rng.Float64() - 0.5) * p.SelfJitter
	target.Vel.Y += (rng.Float64() - 0.5) * p.SelfJitter
	return true
}

// HitTest returns the bubble under point. Bubbles later in the order are
// drawn on top; the selected bubble, if any, is on top of everything.
func HitTest(s *State, point r2.Vec, selected string) (string, bool) {
	if s == nil {
		return "", false
	}
	if b, ok := s.Get(selected); ok && contains(b, point) {
		return b.ID, true
	}
	for i := len(s.bubbles) - 1; i >= 0; i-- {
		if b := s.bubbles[i]; contains(b, point) {
			return b.ID, true
		}
	}
	return "", false
}

func contains(b *Bubble, point r2.Vec) bool {
	return r2.Norm(r2.Sub(point, b.Pos)) <= b.Radius()
}
