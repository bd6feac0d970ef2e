package encounter

import (
	"sync"
	"time"
)

// continuation calls fn once after a delay unless stopped first.
// It is safe for concurrent use.
type continuation struct {
	mu      sync.Mutex
	timer   *time.Timer
	stopped bool
	fired   bool
}

// after schedules fn to run in its own goroutine once delay has elapsed.
//
// Precondition: fn must not be nil.
func after(delay time.Duration, fn func()) *continuation {
	c := &continuation{}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.timer = time.AfterFunc(delay, func() {
		c.mu.Lock()
		run := !c.stopped
		c.fired = true
		c.mu.Unlock()
		if run {
			fn()
		}
	})
	return c
}

// Stop prevents fn from running if it has not started. Safe to call
// multiple times.
func (c *continuation) Stop() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.stopped = true
	c.timer.Stop()
}

func (c *continuation) done() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.fired || c.stopped
}
