package core

import "time"

// Clock supplies the logical time the contract evaluates its windows
// against: the reveal delay and pause expiry. Time gating is evaluated
// instantaneously at call time, never awaited.
type Clock interface {
	Now() int64
}

// SystemClock reads the wall clock in whole seconds.
type SystemClock struct{}

// Now returns the current Unix timestamp.
func (SystemClock) Now() int64 { return time.Now().Unix() }

// ManualClock is a settable clock for tests and deterministic replay.
type ManualClock struct {
	now int64
}

// NewManualClock creates a manual clock starting at now.
func NewManualClock(now int64) *ManualClock {
	return &ManualClock{now: now}
}

// Now returns the configured instant.
func (c *ManualClock) Now() int64 { return c.now }

// Set moves the clock to now.
func (c *ManualClock) Set(now int64) { c.now = now }

// Advance moves the clock forward by d seconds.
func (c *ManualClock) Advance(d int64) { c.now += d }
