// Package timertest provides a manually advanced clock for driving the
// timer engine in tests.
package timertest

import (
	"sync"
	"time"

	"github.com/xvierd/studyx/internal/timer"
)

// Clock is a timer.Clock whose time only moves when Advance is called.
type Clock struct {
	mu      sync.Mutex
	now     time.Time
	handles []*handle
}

var _ timer.Clock = (*Clock)(nil)

type handle struct {
	clock   *Clock
	at      time.Time
	f       func()
	stopped bool
	fired   bool
}

func (h *handle) Stop() bool {
	h.clock.mu.Lock()
	defer h.clock.mu.Unlock()
	wasPending := !h.stopped && !h.fired
	h.stopped = true
	return wasPending
}

// NewClock returns a clock frozen at start.
func NewClock(start time.Time) *Clock {
	return &Clock{now: start}
}

// Now returns the clock's current time.
func (c *Clock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

// AfterFunc schedules f to run when the clock is advanced past d.
func (c *Clock) AfterFunc(d time.Duration, f func()) timer.Handle {
	c.mu.Lock()
	defer c.mu.Unlock()
	h := &handle{clock: c, at: c.now.Add(d), f: f}
	c.handles = append(c.handles, h)
	return h
}

// Advance moves time forward by d, running due callbacks in order on the
// calling goroutine. Callbacks scheduled while advancing also run if they
// fall due within d.
func (c *Clock) Advance(d time.Duration) {
	c.mu.Lock()
	target := c.now.Add(d)
	for {
		next := c.nextDue(target)
		if next == nil {
			break
		}
		c.now = next.at
		next.fired = true
		c.mu.Unlock()
		next.f()
		c.mu.Lock()
	}
	c.now = target
	c.compact()
	c.mu.Unlock()
}

// compact drops callbacks that have already run. Caller holds mu.
func (c *Clock) compact() {
	kept := c.handles[:0]
	for _, h := range c.handles {
		if !h.fired {
			kept = append(kept, h)
		}
	}
	for i := len(kept); i < len(c.handles); i++ {
		c.handles[i] = nil
	}
	c.handles = kept
}

// Tick advances the clock by n seconds.
func (c *Clock) Tick(n int) {
	c.Advance(time.Duration(n) * time.Second)
}

// Pending returns the number of scheduled callbacks that have neither fired
// nor been stopped.
func (c *Clock) Pending() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	n := 0
	for _, h := range c.handles {
		if !h.stopped && !h.fired {
			n++
		}
	}
	return n
}

// FireStopped runs every callback that was stopped before it fired, as if
// each had already been in flight when Stop was called. It returns how many
// ran.
func (c *Clock) FireStopped() int {
	c.mu.Lock()
	var late []*handle
	for _, h := range c.handles {
		if h.stopped && !h.fired {
			h.fired = true
			late = append(late, h)
		}
	}
	c.mu.Unlock()

	for _, h := range late {
		h.f()
	}
	return len(late)
}

func (c *Clock) nextDue(target time.Time) *handle {
	var next *handle
	for _, h := range c.handles {
		if h.stopped || h.fired || h.at.After(target) {
			continue
		}
		if next == nil || h.at.Before(next.at) {
			next = h
		}
	}
	return next
}
