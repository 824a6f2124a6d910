// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package auth

import (
	"sync"
	"time"
)

// =============================================================================
// SESSION CLOCK
// =============================================================================

// Clock is a single-shot timer that fires exactly once at a scheduled
// wall-clock instant. Schedule replaces any previously scheduled callback;
// Cancel is safe to call with nothing scheduled.
//
// A generation counter guards the callback: a timer that was superseded or
// cancelled between firing and acquiring the lock becomes a no-op, so a
// stale timer can never fire against a later, unrelated session.
type Clock struct {
	mu    sync.Mutex
	timer *time.Timer
	gen   uint64
}

// NewClock creates an idle session clock.
func NewClock() *Clock {
	return &Clock{}
}

// Schedule arranges for fn to run once at fireAt, replacing any prior
// schedule. If fireAt is already in the past the callback fires on the next
// scheduling opportunity rather than never.
func (c *Clock) Schedule(fireAt time.Time, fn func()) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.timer != nil {
		c.timer.Stop()
		c.timer = nil
	}

	c.gen++
	gen := c.gen

	d := time.Until(fireAt)
	if d < 0 {
		d = 0
	}

	c.timer = time.AfterFunc(d, func() {
		c.mu.Lock()
		live := c.gen == gen
		if live {
			c.timer = nil
		}
		c.mu.Unlock()

		if live {
			fn()
		}
	})
}

// Cancel stops any pending callback. Safe to call repeatedly.
func (c *Clock) Cancel() {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.gen++
	if c.timer != nil {
		c.timer.Stop()
		c.timer = nil
	}
}

// Scheduled reports whether a callback is currently pending.
func (c *Clock) Scheduled() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.timer != nil
}
