package service

import "time"

// Handle identifies a pending frame or timer. The zero Handle is never
// issued.
type Handle uint64

// Scheduler is the host's frame and timer primitive. All callbacks must run
// on the same goroutine that calls into the Lifecycle.
type Scheduler interface {
	// RequestFrame runs fn once on the next frame.
	RequestFrame(fn func()) Handle
	// CancelFrame drops a pending frame. Unknown or fired handles are ignored.
	CancelFrame(h Handle)
	// AfterFunc runs fn once after d.
	AfterFunc(d time.Duration, fn func()) Handle
	// CancelTimer drops a pending timer. Unknown or fired handles are ignored.
	CancelTimer(h Handle)
}
