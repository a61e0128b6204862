package tui

import (
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/zappabad/marketbubbles/internal/bubble/service"
)

// frameMsg and timerMsg carry the handle of the callback they wake.
type frameMsg struct{ handle service.Handle }

type timerMsg struct{ handle service.Handle }

// Scheduler runs frame and timer callbacks inside the bubbletea update
// loop. Every request becomes a tea.Tick tagged with its handle; cancelling
// forgets the handle so the tick, when it arrives, is dropped.
type Scheduler struct {
	interval time.Duration
	next     service.Handle

	frames map[service.Handle]func()
	timers map[service.Handle]func()

	cmds []tea.Cmd
}

var _ service.Scheduler = (*Scheduler)(nil)

// NewScheduler creates a Scheduler that paces frames at interval.
func NewScheduler(interval time.Duration) *Scheduler {
	if interval <= 0 {
		interval = time.Second / 60
	}
	return &Scheduler{
		interval: interval,
		frames:   make(map[service.Handle]func()),
		timers:   make(map[service.Handle]func()),
	}
}

// RequestFrame schedules fn for the next frame tick.
func (s *Scheduler) RequestFrame(fn func()) service.Handle {
	s.next++
	h := s.next
	s.frames[h] = fn
	s.cmds = append(s.cmds, tea.Tick(s.interval, func(time.Time) tea.Msg {
		return frameMsg{handle: h}
	}))
	return h
}

// CancelFrame forgets a pending frame; its tick is dropped on arrival.
func (s *Scheduler) CancelFrame(h service.Handle) {
	delete(s.frames, h)
}

// AfterFunc schedules fn to run inside Update after d.
func (s *Scheduler) AfterFunc(d time.Duration, fn func()) service.Handle {
	s.next++
	h := s.next
	s.timers[h] = fn
	s.cmds = append(s.cmds, tea.Tick(d, func(time.Time) tea.Msg {
		return timerMsg{handle: h}
	}))
	return h
}

// CancelTimer forgets a pending timer; its tick is dropped on arrival.
func (s *Scheduler) CancelTimer(h service.Handle) {
	delete(s.timers, h)
}

// Handle runs the callback msg refers to. It reports whether msg was a
// scheduler message at all.
func (s *Scheduler) Handle(msg tea.Msg) bool {
	switch msg := msg.(type) {
	case frameMsg:
		fn, ok := s.frames[msg.handle]
		delete(s.frames, msg.handle)
		if ok {
			fn()
		}
		return true
	case timerMsg:
		fn, ok := s.timers[msg.handle]
		delete(s.timers, msg.handle)
		if ok {
			fn()
		}
		return true
	}
	return false
}

// Drain returns the ticks requested since the last call.
func (s *Scheduler) Drain() tea.Cmd {
	if len(s.cmds) == 0 {
		return nil
	}
	cmds := s.cmds
	s.cmds = nil
	return tea.Batch(cmds...)
}

// Pending returns the number of live frame and timer callbacks.
func (s *Scheduler) Pending() int {
	return len(s.frames) + len(s.timers)
}
