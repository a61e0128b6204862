package app

import (
	"context"

	"gonum.org/v1/gonum/spatial/r2"

	"github.com/zappabad/marketbubbles/internal/bubble/core"
	bubbleservice "github.com/zappabad/marketbubbles/internal/bubble/service"
	"github.com/zappabad/marketbubbles/internal/bubble/view"
	"github.com/zappabad/marketbubbles/internal/loop"
)

// Simulation gives other goroutines access to the lifecycle by running
// each call on the loop.
type Simulation struct {
	loop *loop.Loop
	lc   *bubbleservice.Lifecycle
}

// Snapshot returns the current frame.
func (s *Simulation) Snapshot(ctx context.Context) (view.Snapshot, error) {
	var snap view.Snapshot
	err := s.loop.Do(ctx, func() { snap = s.lc.Snapshot() })
	return snap, err
}

// Resize reports a new container size.
func (s *Simulation) Resize(ctx context.Context, size core.Size) error {
	return s.call(ctx, func() error { return s.lc.Resize(size) })
}

// Hover pushes the neighbours of id away.
func (s *Simulation) Hover(ctx context.Context, id string) error {
	return s.call(ctx, func() error { return s.lc.Hover(id) })
}

// Click is a tap on id: it pushes the neighbours and toggles the selection.
func (s *Simulation) Click(ctx context.Context, id string) (bool, error) {
	var selected bool
	err := s.call(ctx, func() error {
		var err error
		selected, err = s.lc.Tap(id)
		return err
	})
	return selected, err
}

// ClearSelection closes the popup.
func (s *Simulation) ClearSelection(ctx context.Context) error {
	return s.call(ctx, s.lc.ClearSelection)
}

// SelectNext cycles the selection.
func (s *Simulation) SelectNext(ctx context.Context) (string, error) {
	var id string
	err := s.call(ctx, func() error {
		var err error
		id, err = s.lc.SelectNext()
		return err
	})
	return id, err
}

// HitTest returns the bubble under point.
func (s *Simulation) HitTest(ctx context.Context, point r2.Vec) (string, bool, error) {
	var (
		id string
		ok bool
	)
	err := s.loop.Do(ctx, func() { id, ok = s.lc.HitTest(point) })
	return id, ok, err
}

// Phase returns the lifecycle phase name.
func (s *Simulation) Phase(ctx context.Context) (string, error) {
	var phase string
	err := s.loop.Do(ctx, func() { phase = s.lc.Phase().String() })
	return phase, err
}

// Frames returns the number of frames the loop has run.
func (s *Simulation) Frames() uint64 {
	return s.loop.Frames()
}

func (s *Simulation) call(ctx context.Context, fn func() error) error {
	var callErr error
	if err := s.loop.Do(ctx, func() { callErr = fn() }); err != nil {
		return err
	}
	return callErr
}
