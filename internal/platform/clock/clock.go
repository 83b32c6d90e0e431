// Package clock supplies the engine's notion of current time. Services take
// a Clock instead of calling time.Now so period keys, review schedules, and
// exam deadlines are deterministic under test.
package clock

import (
	"sync"
	"time"
)

// Clock yields the current instant.
type Clock interface {
	Now() time.Time
}

type systemClock struct{}

func (systemClock) Now() time.Time {
	return time.Now().UTC()
}

// System returns the wall clock, in UTC.
func System() Clock {
	return systemClock{}
}

// FrozenClock is a Clock fixed at a settable instant, for tests.
type FrozenClock struct {
	mu  sync.Mutex
	now time.Time
}

// Frozen returns a clock stopped at the given instant.
func Frozen(t time.Time) *FrozenClock {
	return &FrozenClock{now: t.UTC()}
}

// Now returns the frozen instant.
func (c *FrozenClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

// Advance moves the frozen instant forward.
func (c *FrozenClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

// Set moves the frozen instant to an absolute time.
func (c *FrozenClock) Set(t time.Time) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = t.UTC()
}
