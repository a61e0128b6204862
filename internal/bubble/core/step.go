package core

import (
	"math"

	"gonum.org/v1/gonum/spatial/r2"
)

// Step advances the simulation by one frame, mutating s in place. The order
// is fixed: integrate, walls, drift, anti-stall, speed clamp, pairwise
// collisions, then a final containment pass. It returns false (and leaves s
// untouched) when there is nothing to step or the container is not ready.
func Step(s *State, size Size, p Params, rng Rand) bool {
	if s == nil || !size.Valid() {
		return false
	}
	rng = orDefault(rng)
	s.Frame++

	for _, b := range s.bubbles {
		sanitize(b, size, p)

		b.Pos = r2.Add(b.Pos, b.Vel)
		resolveWalls(b, size, p)
		applyDrift(b, s.Frame, p)
		antiStall(b, p, rng)
		clampSpeed(b, p.MaxSpeed)
	}

	resolveCollisions(s.bubbles, p)

	// Collision pushes may cross a wall; correct within the same frame.
	for _, b := range s.bubbles {
		resolveWalls(b, size, p)
		clampSpeed(b, p.MaxSpeed)
	}

	return true
}

// resolveWalls clamps the bubble to the container and reflects the velocity
// component of every wall it touched, damped by the wall restitution.
func resolveWalls(b *Bubble, size Size, p Params) {
	pos, hit := clampInto(b, size, p)
	b.Pos = pos
	switch hit[0] {
	case -1:
		b.Vel.X = math.Abs(b.Vel.X) * p.WallRestitution
	case 1:
		b.Vel.X = -math.Abs(b.Vel.X) * p.WallRestitution
	}
	switch hit[1] {
	case -1:
		b.Vel.Y = math.Abs(b.Vel.Y) * p.WallRestitution
	case 1:
		b.Vel.Y = -math.Abs(b.Vel.Y) * p.WallRestitution
	}
}

// applyDrift adds the tangential velocity of the bubble's slow orbit. The
// magnitude is DriftRadius*|DriftSpeed|, a few hundredths of a unit.
func applyDrift(b *Bubble, frame uint64, p Params) {
	if b.DriftRadius == 0 || b.DriftSpeed == 0 {
		return
	}
	theta := b.DriftPhase + float64(frame)*b.DriftSpeed*p.DriftTimeScale
	amp := b.DriftRadius * b.DriftSpeed
	b.Vel.X += -math.Sin(theta) * amp
	b.Vel.Y += math.Cos(theta) * amp
}

func antiStall(b *Bubble, p Params, rng Rand) {
	if math.Abs(b.Vel.X) < p.StallThreshold {
		b.Vel.X += (rng.Float64() - 0.5) * p.StallKick
	}
	if math.Abs(b.Vel.Y) < p.StallThreshold {
		b.Vel.Y += (rng.Float64() - 0.5) * p.StallKick
	}
}

func clampSpeed(b *Bubble, maxSpeed float64) {
	speed := r2.Norm(b.Vel)
	if speed > maxSpeed {
		b.Vel = r2.Scale(maxSpeed/speed, b.Vel)
	}
}

// resolveCollisions separates every overlapping pair and exchanges the
// normal velocity components. Pairs are visited in index order; with many
// simultaneous contacts the result is sequential, not a global solve.
func resolveCollisions(bubbles []*Bubble, p Params) {
	for i := 0; i < len(bubbles); i++ {
		a := bubbles[i]
		for j := i + 1; j < len(bubbles); j++ {
			collide(a, bubbles[j], p)
		}
	}
}

// collide resolves a single pair and reports whether they were touching.
func collide(a, b *Bubble, p Params) bool {
	delta := r2.Sub(b.Pos, a.Pos)
	dist := r2.Norm(delta)
	minDist := (a.Size + b.Size) / 2
	if dist >= minDist {
		return false
	}

	// Coincident centers have no direction; pick +x.
	normal := r2.Vec{X: 1}
	if dist < p.Epsilon {
		dist = p.Epsilon
	} else {
		normal = r2.Scale(1/dist, delta)
	}

	overlap := minDist - dist
	push := r2.Scale(overlap*p.OverlapSplit, normal)
	a.Pos = r2.Sub(a.Pos, push)
	b.Pos = r2.Add(b.Pos, push)

	va := r2.Dot(a.Vel, normal)
	vb := r2.Dot(b.Vel, normal)
	e := p.CollisionRestitution
	v1 := va*(1-e) + vb*e
	v2 := vb*(1-e) + va*e

	a.Vel = r2.Add(a.Vel, r2.Scale(v1-va, normal))
	b.Vel = r2.Add(b.Vel, r2.Scale(v2-vb, normal))
	return true
}

// sanitize recovers a bubble whose state went non-finite, so a single bad
// frame cannot poison every following one.
func sanitize(b *Bubble, size Size, p Params) {
	if !finite(b.Pos) {
		lo, hi := Bounds(b, size, p)
		b.Pos = r2.Scale(0.5, r2.Add(lo, hi))
	}
	if !finite(b.Vel) {
		b.Vel = r2.Vec{}
	}
}

func finite(v r2.Vec) bool {
	return !math.IsNaN(v.X) && !math.IsNaN(v.Y) && !math.IsInf(v.X, 0) && !math.IsInf(v.Y, 0)
}
