package testutil

import (
	"sync"
	"time"
)

// FakeClock is a manually advanced clock for deterministic timestamps
type FakeClock struct {
	mu  sync.Mutex
	now time.Time
}

// NewFakeClock creates a clock fixed at start
func NewFakeClock(start time.Time) *FakeClock {
	return &FakeClock{now: start}
}

// NewFakeClockMillis creates a clock fixed at the given unix milliseconds
func NewFakeClockMillis(ms int64) *FakeClock {
	return NewFakeClock(time.UnixMilli(ms))
}

// Now returns the current fake time
func (c *FakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

// Advance moves the clock forward by d
func (c *FakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

// Set moves the clock to t
func (c *FakeClock) Set(t time.Time) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = t
}
