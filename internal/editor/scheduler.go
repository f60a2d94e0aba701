// Package editor holds the client-facing editing state machines: debounced
// autosave, banner repositioning, inline image resize, manual sort
// reconciliation, and the navigation selection reducer. Everything here is
// plain state plus timers so it can be driven and asserted without a UI.
package editor

import "time"

// Timer is a scheduled task that can be cancelled before it fires.
// *time.Timer satisfies it.
type Timer interface {
	Stop() bool
}

// Scheduler runs a function once after a delay. The autosave controller
// takes its timers from here so tests can fire them deterministically.
type Scheduler interface {
	AfterFunc(d time.Duration, fn func()) Timer
}

// SystemScheduler schedules on the runtime timer heap.
type SystemScheduler struct{}

func (SystemScheduler) AfterFunc(d time.Duration, fn func()) Timer {
	return time.AfterFunc(d, fn)
}
