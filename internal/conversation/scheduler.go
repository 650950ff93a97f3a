package conversation

import "time"

// Timer is a cancelable scheduled callback. Stop reports whether the timer
// was stopped before firing.
type Timer interface {
	Stop() bool
}

// Scheduler schedules callbacks after a delay. The state machine owns two
// timers through this interface (collection timeout and ack debounce); tests
// substitute a virtual scheduler to advance time deterministically.
type Scheduler interface {
	AfterFunc(d time.Duration, fn func()) Timer
}

type realScheduler struct{}

// NewScheduler returns a Scheduler backed by time.AfterFunc.
func NewScheduler() Scheduler {
	return realScheduler{}
}

func (realScheduler) AfterFunc(d time.Duration, fn func()) Timer {
	return time.AfterFunc(d, fn)
}
