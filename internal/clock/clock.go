// Package clock abstracts time and timer creation so components that arm
// deferred work (auto-removal chains, undo-window cleanup) can be driven
// deterministically in tests.
package clock

import "time"

// Clock supplies the current time and cancellable timers.
type Clock interface {
	Now() time.Time
	AfterFunc(d time.Duration, f func()) Timer
}

// Timer is a pending callback that can be cancelled.
type Timer interface {
	// Stop cancels the timer, reporting whether it was still pending.
	Stop() bool
}

// System returns the wall-clock implementation backed by the time package.
func System() Clock { return systemClock{} }

type systemClock struct{}

func (systemClock) Now() time.Time { return time.Now() }

func (systemClock) AfterFunc(d time.Duration, f func()) Timer {
	return time.AfterFunc(d, f)
}
