package service

import (
	"math/rand"
	"sort"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/spatial/r2"

	"github.com/zappabad/marketbubbles/internal/bubble/core"
	"github.com/zappabad/marketbubbles/internal/market"
)

// fakeScheduler runs frames and timers only when the test says so.
type fakeScheduler struct {
	now    time.Duration
	nextID Handle
	frames map[Handle]func()
	timers map[Handle]fakeTimer
}

type fakeTimer struct {
	at time.Duration
	fn func()
}

func newFakeScheduler() *fakeScheduler {
	return &fakeScheduler{
		frames: make(map[Handle]func()),
		timers: make(map[Handle]fakeTimer),
	}
}

func (f *fakeScheduler) RequestFrame(fn func()) Handle {
	f.nextID++
	f.frames[f.nextID] = fn
	return f.nextID
}

func (f *fakeScheduler) CancelFrame(h Handle) { delete(f.frames, h) }

func (f *fakeScheduler) AfterFunc(d time.Duration, fn func()) Handle {
	f.nextID++
	f.timers[f.nextID] = fakeTimer{at: f.now + d, fn: fn}
	return f.nextID
}

func (f *fakeScheduler) CancelTimer(h Handle) { delete(f.timers, h) }

// runFrames fires the pending frames n times.
func (f *fakeScheduler) runFrames(n int) {
	for i := 0; i < n; i++ {
		pending := f.frames
		f.frames = make(map[Handle]func())
		for _, fn := range pending {
			fn()
		}
	}
}

// advance moves the clock and fires due timers in deadline order.
func (f *fakeScheduler) advance(d time.Duration) {
	f.now += d
	var due []Handle
	for h, t := range f.timers {
		if t.at <= f.now {
			due = append(due, h)
		}
	}
	sort.Slice(due, func(i, j int) bool { return f.timers[due[i]].at < f.timers[due[j]].at })
	for _, h := range due {
		t := f.timers[h]
		delete(f.timers, h)
		t.fn()
	}
}

func (f *fakeScheduler) pending() int { return len(f.frames) + len(f.timers) }

func testInstruments() []market.Instrument {
	return []market.Instrument{
		{Symbol: "AAPL", Price: 189.5, PercentChange: -5, MarketCap: 2.9e12},
		{Symbol: "MSFT", Price: 410, PercentChange: 0, MarketCap: 3.1e12},
		{Symbol: "NVDA", Price: 880, PercentChange: 12, MarketCap: 2.2e12},
	}
}

func newTestLifecycle(t *testing.T) (*Lifecycle, *fakeScheduler) {
	t.Helper()
	sched := newFakeScheduler()
	log := zerolog.New(nil).Level(zerolog.Disabled)
	return NewLifecycle(DefaultConfig(), sched, log, WithRand(rand.New(rand.NewSource(1)))), sched
}

func TestLifecycle_InitializesWhenDataAndSizeKnown(t *testing.T) {
	l, sched := newTestLifecycle(t)
	assert.Equal(t, PhaseUninitialized, l.Phase())

	require.NoError(t, l.Start())
	require.NoError(t, l.SetInstruments(testInstruments()))
	assert.Equal(t, PhaseInitializing, l.Phase(), "no container size yet")
	assert.Equal(t, 0, sched.pending())

	require.NoError(t, l.Resize(core.Size{Width: 800, Height: 400}))
	assert.Equal(t, PhaseRunning, l.Phase())
	assert.Len(t, sched.frames, 1)
	assert.Empty(t, sched.timers, "the first measurable size is not debounced")

	sched.runFrames(5)
	snap := l.Snapshot()
	assert.Equal(t, uint64(5), snap.Frame)
	assert.Len(t, snap.Bubbles, 3)
	assert.Len(t, sched.frames, 1, "exactly one frame in flight")
}

func TestLifecycle_DeferredUntilStart(t *testing.T) {
	l, sched := newTestLifecycle(t)

	require.NoError(t, l.SetInstruments(testInstruments()))
	require.NoError(t, l.Resize(core.Size{Width: 800, Height: 400}))
	assert.Equal(t, PhaseInitializing, l.Phase())
	assert.Equal(t, 0, sched.pending())

	require.NoError(t, l.Start())
	require.NoError(t, l.Start())
	assert.Equal(t, PhaseRunning, l.Phase())
	assert.Len(t, sched.frames, 1)
}

func TestLifecycle_EmptyCatalogRunsEmpty(t *testing.T) {
	l, sched := newTestLifecycle(t)
	require.NoError(t, l.Start())
	require.NoError(t, l.SetInstruments(nil))
	require.NoError(t, l.Resize(core.Size{Width: 640, Height: 480}))

	sched.runFrames(3)
	assert.Empty(t, l.Snapshot().Bubbles)
	assert.Equal(t, PhaseRunning, l.Phase())
}

func TestLifecycle_ResizeIsDebounced(t *testing.T) {
	l, sched := newTestLifecycle(t)
	require.NoError(t, l.Start())
	require.NoError(t, l.SetInstruments(testInstruments()))
	require.NoError(t, l.Resize(core.Size{Width: 800, Height: 400}))
	sched.runFrames(10)

	for w := 810.0; w <= 900; w += 10 {
		require.NoError(t, l.Resize(core.Size{Width: w, Height: 600}))
		sched.advance(50 * time.Millisecond)
		sched.runFrames(1)
	}
	assert.Equal(t, PhaseResizing, l.Phase())
	assert.Len(t, sched.timers, 1, "a burst keeps a single timer")
	assert.Len(t, sched.frames, 1, "frames keep running while resizing")
	assert.Equal(t, core.Size{Width: 800, Height: 400}, l.Size())

	sched.advance(250 * time.Millisecond)
	assert.Equal(t, PhaseRunning, l.Phase())
	assert.Equal(t, core.Size{Width: 900, Height: 600}, l.Size())
	assert.Empty(t, sched.timers)
	assert.Equal(t, uint64(0), l.Snapshot().Frame, "state was rebuilt")
}

func TestLifecycle_SameSizeResizeIgnored(t *testing.T) {
	l, sched := newTestLifecycle(t)
	require.NoError(t, l.Start())
	require.NoError(t, l.SetInstruments(testInstruments()))
	require.NoError(t, l.Resize(core.Size{Width: 800, Height: 400}))

	require.NoError(t, l.Resize(core.Size{Width: 800, Height: 400}))
	assert.Empty(t, sched.timers)
	assert.Equal(t, PhaseRunning, l.Phase())
}

func TestLifecycle_DataChangeCancelsPendingResize(t *testing.T) {
	l, sched := newTestLifecycle(t)
	require.NoError(t, l.Start())
	require.NoError(t, l.SetInstruments(testInstruments()))
	require.NoError(t, l.Resize(core.Size{Width: 800, Height: 400}))
	require.NoError(t, l.Resize(core.Size{Width: 1000, Height: 500}))
	require.Len(t, sched.timers, 1)

	require.NoError(t, l.SetInstruments(testInstruments()[:2]))
	assert.Empty(t, sched.timers, "the debounce timer is cancelled")
	assert.Equal(t, core.Size{Width: 1000, Height: 500}, l.Size(), "pending size is applied with the rebuild")
	assert.Len(t, l.Snapshot().Bubbles, 2)
	assert.Len(t, sched.frames, 1)
}

func TestLifecycle_SelectionSurvivesOnlyIfInstrumentDoes(t *testing.T) {
	l, _ := newTestLifecycle(t)
	require.NoError(t, l.Start())
	require.NoError(t, l.SetInstruments(testInstruments()))
	require.NoError(t, l.Resize(core.Size{Width: 800, Height: 400}))

	selected, err := l.Click("NVDA")
	require.NoError(t, err)
	assert.True(t, selected)

	require.NoError(t, l.SetInstruments(testInstruments()))
	_, ok := l.Selected()
	assert.True(t, ok)

	require.NoError(t, l.SetInstruments(testInstruments()[:2]))
	_, ok = l.Selected()
	assert.False(t, ok)
}

func TestLifecycle_ClickTogglesAndPopupAppears(t *testing.T) {
	l, sched := newTestLifecycle(t)
	require.NoError(t, l.Start())
	require.NoError(t, l.SetInstruments(testInstruments()))
	require.NoError(t, l.Resize(core.Size{Width: 900, Height: 600}))

	selected, err := l.Click("AAPL")
	require.NoError(t, err)
	assert.True(t, selected)
	sched.runFrames(1)

	snap := l.Snapshot()
	require.NotNil(t, snap.Detail)
	assert.Equal(t, "AAPL", snap.Detail.Symbol)
	assert.LessOrEqual(t, snap.Detail.Popup.Right(), 900.0)

	selected, err = l.Click("AAPL")
	require.NoError(t, err)
	assert.False(t, selected)
	assert.Nil(t, l.Snapshot().Detail)

	_, err = l.Click("NOPE")
	assert.ErrorIs(t, err, ErrUnknownBubble)
	assert.ErrorIs(t, l.Hover("NOPE"), ErrUnknownBubble)
	assert.NoError(t, l.Hover("MSFT"))

	_, _ = l.Click("MSFT")
	require.NoError(t, l.ClearSelection())
	_, ok := l.Selected()
	assert.False(t, ok)
}

func TestLifecycle_TapPushesAndToggles(t *testing.T) {
	l, _ := newTestLifecycle(t)
	require.NoError(t, l.Start())
	require.NoError(t, l.SetInstruments(testInstruments()))
	require.NoError(t, l.Resize(core.Size{Width: 900, Height: 600}))

	aapl, ok := l.state.Get("AAPL")
	require.True(t, ok)
	msft, ok := l.state.Get("MSFT")
	require.True(t, ok)
	msft.Pos = r2.Vec{X: aapl.Pos.X + 100, Y: aapl.Pos.Y}
	msft.Vel = r2.Vec{}

	selected, err := l.Tap("AAPL")
	require.NoError(t, err)
	assert.True(t, selected)
	assert.Greater(t, msft.Vel.X, 0.0, "neighbour is pushed away from the tapped bubble")

	id, _ := l.Selected()
	assert.Equal(t, "AAPL", id)

	selected, err = l.Tap("AAPL")
	require.NoError(t, err)
	assert.False(t, selected)

	_, err = l.Tap("NOPE")
	assert.ErrorIs(t, err, ErrUnknownBubble)
	_, ok = l.Selected()
	assert.False(t, ok)
}

func TestLifecycle_SelectNextWraps(t *testing.T) {
	l, _ := newTestLifecycle(t)
	require.NoError(t, l.Start())
	require.NoError(t, l.SetInstruments(testInstruments()))
	require.NoError(t, l.Resize(core.Size{Width: 900, Height: 600}))

	var got []string
	for i := 0; i < 4; i++ {
		id, err := l.SelectNext()
		require.NoError(t, err)
		got = append(got, id)
	}
	assert.Equal(t, []string{"AAPL", "MSFT", "NVDA", "AAPL"}, got)
}

func TestLifecycle_InteractionsBeforeLayout(t *testing.T) {
	l, _ := newTestLifecycle(t)
	require.NoError(t, l.Start())
	require.NoError(t, l.SetInstruments(testInstruments()))

	assert.ErrorIs(t, l.Hover("AAPL"), ErrNotRunning)
	_, err := l.Click("AAPL")
	assert.ErrorIs(t, err, ErrNotRunning)
	_, ok := l.HitTest(r2.Vec{X: 100, Y: 100})
	assert.False(t, ok)
}

func TestLifecycle_StopLeavesNothingScheduled(t *testing.T) {
	l, sched := newTestLifecycle(t)
	require.NoError(t, l.Start())
	require.NoError(t, l.SetInstruments(testInstruments()))
	require.NoError(t, l.Resize(core.Size{Width: 800, Height: 400}))
	require.NoError(t, l.Resize(core.Size{Width: 1000, Height: 600}))
	require.Equal(t, 2, sched.pending())

	l.Stop()
	assert.Equal(t, 0, sched.pending(), "frame and debounce timer are both cancelled")
	assert.Equal(t, PhaseTornDown, l.Phase())

	l.Stop()
	assert.Equal(t, PhaseTornDown, l.Phase())

	assert.ErrorIs(t, l.Start(), ErrTornDown)
	assert.ErrorIs(t, l.SetInstruments(testInstruments()), ErrTornDown)
	assert.ErrorIs(t, l.Resize(core.Size{Width: 10, Height: 10}), ErrTornDown)
	assert.ErrorIs(t, l.Hover("AAPL"), ErrTornDown)
	assert.ErrorIs(t, l.ClearSelection(), ErrTornDown)
	assert.Empty(t, l.Snapshot().Bubbles)
	assert.Equal(t, 0, sched.pending())
}

func TestLifecycle_StaleCallbacksAfterStopAreInert(t *testing.T) {
	l, sched := newTestLifecycle(t)
	require.NoError(t, l.Start())
	require.NoError(t, l.SetInstruments(testInstruments()))
	require.NoError(t, l.Resize(core.Size{Width: 800, Height: 400}))

	// Capture the frame callback as a host that failed to cancel would.
	var stale func()
	for _, fn := range sched.frames {
		stale = fn
	}
	l.Stop()

	stale()
	assert.Equal(t, 0, sched.pending(), "a late frame does not reschedule")
}

func TestLifecycle_FrameHook(t *testing.T) {
	sched := newFakeScheduler()
	calls := 0
	l := NewLifecycle(DefaultConfig(), sched, zerolog.New(nil).Level(zerolog.Disabled), WithFrameHook(func() { calls++ }))
	require.NoError(t, l.Start())
	require.NoError(t, l.SetInstruments(testInstruments()))
	require.NoError(t, l.Resize(core.Size{Width: 800, Height: 400}))

	sched.runFrames(7)
	assert.Equal(t, 7, calls)
}

func TestLifecycle_CollapsedContainerFreezes(t *testing.T) {
	l, sched := newTestLifecycle(t)
	require.NoError(t, l.Start())
	require.NoError(t, l.SetInstruments(testInstruments()))
	require.NoError(t, l.Resize(core.Size{Width: 800, Height: 400}))
	sched.runFrames(2)

	require.NoError(t, l.Resize(core.Size{}))
	sched.advance(time.Second)
	assert.Equal(t, PhaseRunning, l.Phase())

	before := l.Snapshot()
	sched.runFrames(3)
	after := l.Snapshot()
	assert.Equal(t, before.Frame, after.Frame, "no steps while the container has no area")
	assert.Len(t, after.Bubbles, 3)
}
