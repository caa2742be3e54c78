// Package telemetry provides two small standalone helpers: Throttle, a
// rate limiter for repeated warning logs, and Redact, which scrubs
// sensitive fields from a string. No other package in this module calls
// either of them.
package telemetry

import (
	"sync"
	"time"
)

// Throttle rate-limits a repeated event to at most once per interval,
// counting suppressed occurrences in between. Zero value is not usable;
// use NewThrottle.
type Throttle struct {
	mu       sync.Mutex
	interval time.Duration
	last     time.Time
	dropped  uint64
}

// NewThrottle returns a Throttle that allows at most one Allow() per interval.
func NewThrottle(interval time.Duration) *Throttle {
	return &Throttle{interval: interval}
}

// Allow reports whether the caller should emit now, and resets the window.
// When it returns false, the event is counted as dropped.
func (t *Throttle) Allow() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	now := time.Now()
	if t.last.IsZero() || now.Sub(t.last) >= t.interval {
		t.last = now
		return true
	}
	t.dropped++
	return false
}

// Dropped returns and resets the number of suppressed Allow() calls since
// the last emitted one.
func (t *Throttle) Dropped() uint64 {
	t.mu.Lock()
	defer t.mu.Unlock()
	d := t.dropped
	t.dropped = 0
	return d
}
