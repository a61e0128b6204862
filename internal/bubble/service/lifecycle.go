package service

import (
	"errors"

	"github.com/rs/zerolog"
	"gonum.org/v1/gonum/spatial/r2"

	"github.com/zappabad/marketbubbles/internal/bubble/core"
	"github.com/zappabad/marketbubbles/internal/bubble/view"
	"github.com/zappabad/marketbubbles/internal/market"
)

var (
	ErrTornDown      = errors.New("lifecycle torn down")
	ErrUnknownBubble = errors.New("unknown bubble")
	ErrNotRunning    = errors.New("simulation not running")
)

// Phase is the lifecycle state.
type Phase int

const (
	PhaseUninitialized Phase = iota
	PhaseInitializing
	PhaseRunning
	PhaseResizing
	PhaseTornDown
)

func (p Phase) String() string {
	switch p {
	case PhaseUninitialized:
		return "uninitialized"
	case PhaseInitializing:
		return "initializing"
	case PhaseRunning:
		return "running"
	case PhaseResizing:
		return "resizing"
	case PhaseTornDown:
		return "torn_down"
	default:
		return "unknown"
	}
}

// Option configures a Lifecycle.
type Option func(*Lifecycle)

// WithRand sets the random source used for layout and kicks.
func WithRand(r core.Rand) Option {
	return func(l *Lifecycle) { l.rng = r }
}

// WithFrameHook registers fn to run after every completed step.
func WithFrameHook(fn func()) Option {
	return func(l *Lifecycle) { l.onFrame = fn }
}

// Lifecycle owns the simulation state, the selection, the single pending
// frame and the single pending resize timer. It is not safe for concurrent
// use: every method and every scheduler callback must run on one goroutine.
type Lifecycle struct {
	cfg   Config
	sched Scheduler
	log   zerolog.Logger
	rng   core.Rand

	phase   Phase
	started bool

	items []market.Instrument
	byID  map[string]market.Instrument
	size  core.Size

	state *core.State
	sel   core.Selection

	frame    Handle
	hasFrame bool

	timer       Handle
	hasTimer    bool
	pendingSize core.Size

	onFrame func()
}

// NewLifecycle creates a Lifecycle in the uninitialized phase. Nothing is
// scheduled until Start.
func NewLifecycle(cfg Config, sched Scheduler, log zerolog.Logger, opts ...Option) *Lifecycle {
	def := DefaultConfig()
	if cfg.ResizeDebounce <= 0 {
		cfg.ResizeDebounce = def.ResizeDebounce
	}
	if cfg.Params.MaxSpeed <= 0 {
		cfg.Params = def.Params
	}
	if cfg.Popup.Width <= 0 || cfg.Popup.Height <= 0 {
		cfg.Popup = def.Popup
	}

	l := &Lifecycle{
		cfg:   cfg,
		sched: sched,
		log:   log.With().Str("component", "bubble_lifecycle").Logger(),
		byID:  make(map[string]market.Instrument),
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// Phase returns the current lifecycle phase.
func (l *Lifecycle) Phase() Phase {
	return l.phase
}

// Start mounts the lifecycle. If data and a measured container are already
// known, the layout is built and the frame loop scheduled immediately.
func (l *Lifecycle) Start() error {
	if l.phase == PhaseTornDown {
		return ErrTornDown
	}
	if l.started {
		return nil
	}
	l.started = true
	l.log.Debug().Msg("Lifecycle started")
	l.tryInitialize()
	return nil
}

// SetInstruments replaces the item set and rebuilds the layout from scratch.
// Any pending resize is folded into this rebuild.
func (l *Lifecycle) SetInstruments(items []market.Instrument) error {
	if l.phase == PhaseTornDown {
		return ErrTornDown
	}

	l.items = append(l.items[:0:0], items...)
	l.byID = make(map[string]market.Instrument, len(items))
	for _, inst := range items {
		l.byID[inst.Symbol] = inst
	}
	if id, ok := l.sel.ID(); ok {
		if _, still := l.byID[id]; !still {
			l.sel.Clear()
		}
	}

	if l.hasTimer {
		l.cancelTimer()
		l.size = l.pendingSize
	}

	l.log.Debug().Int("count", len(items)).Msg("Instruments updated")
	l.tryInitialize()
	return nil
}

// Resize records the container size. The first measurable size lays out
// immediately; later changes are debounced so a drag-resize rebuilds once.
func (l *Lifecycle) Resize(size core.Size) error {
	if l.phase == PhaseTornDown {
		return ErrTornDown
	}

	if l.state == nil {
		l.size = size
		l.tryInitialize()
		return nil
	}
	if !l.hasTimer && size == l.size {
		return nil
	}

	l.pendingSize = size
	l.cancelTimer()
	l.timer = l.sched.AfterFunc(l.cfg.ResizeDebounce, l.applyResize)
	l.hasTimer = true
	l.phase = PhaseResizing
	return nil
}

func (l *Lifecycle) applyResize() {
	l.hasTimer = false
	if l.phase == PhaseTornDown {
		return
	}
	l.size = l.pendingSize
	l.log.Debug().
		Float64("width", l.size.Width).
		Float64("height", l.size.Height).
		Msg("Container resized")
	l.tryInitialize()
}

// tryInitialize rebuilds the state when started and measurable. Otherwise
// it leaves the lifecycle waiting in the initializing phase.
func (l *Lifecycle) tryInitialize() {
	if l.phase == PhaseUninitialized && (len(l.items) > 0 || l.size.Valid()) {
		l.phase = PhaseInitializing
	}
	if !l.started {
		return
	}

	st, ok := core.Initialize(l.items, l.size, l.cfg.Params, l.rng)
	if !ok {
		// Not measured; the next Resize retries. An existing layout is kept
		// and simply stops moving while the container has no area.
		if l.state != nil {
			l.phase = PhaseRunning
		}
		return
	}

	l.state = st
	l.phase = PhaseRunning
	l.log.Info().
		Int("bubbles", st.Len()).
		Float64("width", l.size.Width).
		Float64("height", l.size.Height).
		Msg("Layout initialized")

	if !l.hasFrame {
		l.requestFrame()
	}
}

func (l *Lifecycle) requestFrame() {
	l.frame = l.sched.RequestFrame(l.tick)
	l.hasFrame = true
}

func (l *Lifecycle) tick() {
	l.hasFrame = false
	if l.phase == PhaseTornDown {
		return
	}

	core.Step(l.state, l.size, l.cfg.Params, l.rng)
	if l.onFrame != nil {
		l.onFrame()
	}
	l.requestFrame()
}

// Hover applies the repulsion impulse around the bubble id.
func (l *Lifecycle) Hover(id string) error {
	if err := l.ready(); err != nil {
		return err
	}
	if !core.Interact(l.state, id, l.cfg.Params, l.rng) {
		return ErrUnknownBubble
	}
	return nil
}

// Click toggles the selection of id and reports whether id is selected
// afterwards. It does not push; see Tap.
func (l *Lifecycle) Click(id string) (bool, error) {
	if err := l.ready(); err != nil {
		return false, err
	}
	if _, ok := l.state.Get(id); !ok {
		return false, ErrUnknownBubble
	}
	return l.sel.Toggle(id), nil
}

// Tap is a press on a bubble: it pushes the neighbours like Hover and then
// toggles the selection like Click.
func (l *Lifecycle) Tap(id string) (bool, error) {
	if err := l.Hover(id); err != nil {
		return false, err
	}
	return l.sel.Toggle(id), nil
}

// ClearSelection closes the popup.
func (l *Lifecycle) ClearSelection() error {
	if l.phase == PhaseTornDown {
		return ErrTornDown
	}
	l.sel.Clear()
	return nil
}

// SelectNext moves the selection to the bubble after the selected one in
// processing order, wrapping around. With nothing selected it selects the
// first bubble.
func (l *Lifecycle) SelectNext() (string, error) {
	if err := l.ready(); err != nil {
		return "", err
	}
	bubbles := l.state.Bubbles()
	if len(bubbles) == 0 {
		return "", ErrUnknownBubble
	}

	next := 0
	if id, ok := l.sel.ID(); ok {
		for i, b := range bubbles {
			if b.ID == id {
				next = (i + 1) % len(bubbles)
				break
			}
		}
	}
	id := bubbles[next].ID
	l.sel.Clear()
	l.sel.Toggle(id)
	return id, nil
}

// HitTest returns the bubble drawn at point, honouring the selected bubble's
// place on top.
func (l *Lifecycle) HitTest(point r2.Vec) (string, bool) {
	if l.ready() != nil {
		return "", false
	}
	selected, _ := l.sel.ID()
	return core.HitTest(l.state, point, selected)
}

// Selected returns the selected bubble id.
func (l *Lifecycle) Selected() (string, bool) {
	return l.sel.ID()
}

// Size returns the container size the current layout uses.
func (l *Lifecycle) Size() core.Size {
	return l.size
}

// Instruments returns a copy of the current item set.
func (l *Lifecycle) Instruments() []market.Instrument {
	out := make([]market.Instrument, len(l.items))
	copy(out, l.items)
	return out
}

// Snapshot renders the current state. After teardown it is empty.
func (l *Lifecycle) Snapshot() view.Snapshot {
	if l.phase == PhaseTornDown {
		return view.Build(nil, nil, core.Selection{}, core.Size{}, l.cfg.Popup)
	}
	return view.Build(l.state, l.byID, l.sel, l.size, l.cfg.Popup)
}

// Stop cancels the pending frame and the pending resize timer and drops the
// state. It is safe to call more than once.
func (l *Lifecycle) Stop() {
	if l.phase == PhaseTornDown {
		return
	}
	if l.hasFrame {
		l.sched.CancelFrame(l.frame)
		l.hasFrame = false
	}
	l.cancelTimer()

	l.state = nil
	l.sel.Clear()
	l.phase = PhaseTornDown
	l.log.Debug().Msg("Lifecycle stopped")
}

func (l *Lifecycle) cancelTimer() {
	if !l.hasTimer {
		return
	}
	l.sched.CancelTimer(l.timer)
	l.hasTimer = false
}

func (l *Lifecycle) ready() error {
	switch {
	case l.phase == PhaseTornDown:
		return ErrTornDown
	case l.state == nil:
		return ErrNotRunning
	}
	return nil
}
