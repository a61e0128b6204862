package tui

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestScheduler_FrameRunsOnce(t *testing.T) {
	s := NewScheduler(time.Millisecond)

	runs := 0
	h := s.RequestFrame(func() { runs++ })
	assert.NotNil(t, s.Drain())
	assert.Nil(t, s.Drain(), "drain empties the queue")

	assert.True(t, s.Handle(frameMsg{handle: h}))
	assert.True(t, s.Handle(frameMsg{handle: h}))
	assert.Equal(t, 1, runs)
	assert.Equal(t, 0, s.Pending())
}

func TestScheduler_CancelledTicksAreDropped(t *testing.T) {
	s := NewScheduler(time.Millisecond)

	ran := false
	f := s.RequestFrame(func() { ran = true })
	tm := s.AfterFunc(time.Second, func() { ran = true })
	assert.Equal(t, 2, s.Pending())

	s.CancelFrame(f)
	s.CancelTimer(tm)
	assert.Equal(t, 0, s.Pending())

	s.Handle(frameMsg{handle: f})
	s.Handle(timerMsg{handle: tm})
	assert.False(t, ran)
}

func TestScheduler_IgnoresOtherMessages(t *testing.T) {
	s := NewScheduler(0)
	assert.False(t, s.Handle("not a tick"))
}

func TestScheduler_HandlesAreUnique(t *testing.T) {
	s := NewScheduler(time.Millisecond)
	a := s.RequestFrame(func() {})
	b := s.AfterFunc(time.Millisecond, func() {})
	c := s.RequestFrame(func() {})
	assert.NotEqual(t, a, b)
	assert.NotEqual(t, b, c)
	assert.NotEqual(t, a, c)
}
