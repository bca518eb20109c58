// Package testutil provides deterministic helpers for engine and
// harness tests: a fixed wall clock and a sequential id generator.
// With both injected, the same scenario produces byte-identical
// snapshots and diffs every run.
package testutil

import (
	"sync"
	"time"
)

// FixedClock is a controllable wall clock for tests.
//
// Unlike time.Now, it only moves when the test says so, which makes
// retention pruning and lastUpdate stamps reproducible.
//
// Thread-safety: all methods are safe for concurrent use.
type FixedClock struct {
	mu  sync.Mutex
	now time.Time
}

// NewFixedClock creates a clock frozen at the given instant.
func NewFixedClock(at time.Time) *FixedClock {
	return &FixedClock{now: at}
}

// Now returns the current frozen instant.
// Pass this method as engine.WithNow(clock.Now).
func (c *FixedClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

// Advance moves the clock forward by d.
func (c *FixedClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

// Set moves the clock to an absolute instant.
func (c *FixedClock) Set(at time.Time) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = at
}
