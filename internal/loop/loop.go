package loop

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog"

	"github.com/zappabad/marketbubbles/internal/bubble/service"
)

var ErrClosed = errors.New("loop closed")

// Loop is a single goroutine that runs posted tasks, frame callbacks and
// timer callbacks one at a time. It implements service.Scheduler; the
// scheduler methods must be called from tasks running on the loop.
type Loop struct {
	cfg Config
	log zerolog.Logger

	tasks  chan func()
	nextID atomic.Uint64

	// Owned by the loop goroutine.
	frames map[service.Handle]func()
	timers map[service.Handle]*time.Timer

	frameCount atomic.Uint64
	panics     atomic.Int64

	closed    chan struct{}
	closeOnce sync.Once
	wg        sync.WaitGroup
}

var _ service.Scheduler = (*Loop)(nil)

// New creates and starts a Loop.
func New(cfg Config, log zerolog.Logger) *Loop {
	if cfg.FrameInterval <= 0 {
		cfg.FrameInterval = DefaultConfig().FrameInterval
	}
	if cfg.TaskBuffer <= 0 {
		cfg.TaskBuffer = DefaultConfig().TaskBuffer
	}

	l := &Loop{
		cfg:    cfg,
		log:    log.With().Str("component", "loop").Logger(),
		tasks:  make(chan func(), cfg.TaskBuffer),
		frames: make(map[service.Handle]func()),
		timers: make(map[service.Handle]*time.Timer),
		closed: make(chan struct{}),
	}

	l.wg.Add(1)
	go l.run()

	return l
}

func (l *Loop) run() {
	defer l.wg.Done()
	defer l.stopTimers()

	ticker := time.NewTicker(l.cfg.FrameInterval)
	defer ticker.Stop()

	for {
		select {
		case <-l.closed:
			return
		case task := <-l.tasks:
			l.runTask(task)
		case <-ticker.C:
			l.runFrames()
		}
	}
}

func (l *Loop) runFrames() {
	if len(l.frames) == 0 {
		return
	}
	pending := l.frames
	l.frames = make(map[service.Handle]func(), len(pending))
	for _, fn := range pending {
		l.runTask(fn)
	}
	l.frameCount.Add(1)
}

func (l *Loop) runTask(fn func()) {
	defer func() {
		if r := recover(); r != nil {
			l.panics.Add(1)
			l.log.Error().Interface("panic", r).Msg("Task panicked")
		}
	}()
	fn()
}

func (l *Loop) stopTimers() {
	for h, t := range l.timers {
		t.Stop()
		delete(l.timers, h)
	}
}

// Post queues fn to run on the loop. It blocks while the queue is full and
// returns ErrClosed once the loop is shut down.
func (l *Loop) Post(fn func()) error {
	select {
	case <-l.closed:
		return ErrClosed
	default:
	}
	select {
	case l.tasks <- fn:
		return nil
	case <-l.closed:
		return ErrClosed
	}
}

// Do runs fn on the loop and waits for it to finish.
func (l *Loop) Do(ctx context.Context, fn func()) error {
	done := make(chan struct{})
	task := func() {
		defer close(done)
		fn()
	}

	select {
	case l.tasks <- task:
	case <-ctx.Done():
		return ctx.Err()
	case <-l.closed:
		return ErrClosed
	}

	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	case <-l.closed:
		return ErrClosed
	}
}

// RequestFrame runs fn on the next frame tick.
func (l *Loop) RequestFrame(fn func()) service.Handle {
	h := l.newHandle()
	l.frames[h] = fn
	return h
}

// CancelFrame drops a pending frame.
func (l *Loop) CancelFrame(h service.Handle) {
	delete(l.frames, h)
}

// AfterFunc runs fn on the loop after d.
func (l *Loop) AfterFunc(d time.Duration, fn func()) service.Handle {
	h := l.newHandle()
	l.timers[h] = time.AfterFunc(d, func() {
		// A timer cancelled after it fired finds its handle gone.
		_ = l.Post(func() {
			if _, ok := l.timers[h]; !ok {
				return
			}
			delete(l.timers, h)
			fn()
		})
	})
	return h
}

// CancelTimer stops a pending timer.
func (l *Loop) CancelTimer(h service.Handle) {
	if t, ok := l.timers[h]; ok {
		t.Stop()
		delete(l.timers, h)
	}
}

func (l *Loop) newHandle() service.Handle {
	return service.Handle(l.nextID.Add(1))
}

// Frames returns the number of frame ticks that ran at least one callback.
func (l *Loop) Frames() uint64 {
	return l.frameCount.Load()
}

// Panics returns the number of recovered task panics.
func (l *Loop) Panics() int64 {
	return l.panics.Load()
}

// Close stops the loop. Pending tasks, frames and timers are dropped.
func (l *Loop) Close() {
	l.closeOnce.Do(func() {
		close(l.closed)
	})
	l.wg.Wait()
}
