package timer

import "time"

// Handle is a scheduled callback that can be cancelled.
type Handle interface {
	Stop() bool
}

// Clock provides the time source and the one-shot scheduler the engine
// counts down with. Tests substitute a manual clock.
type Clock interface {
	AfterFunc(d time.Duration, f func()) Handle
	Now() time.Time
}

// SystemClock is the default Clock implementation using the standard library.
var SystemClock Clock = systemClock{}

type systemClock struct{}

func (systemClock) AfterFunc(d time.Duration, f func()) Handle {
	return time.AfterFunc(d, f)
}

func (systemClock) Now() time.Time {
	return time.Now()
}
