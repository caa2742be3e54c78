// Package backoffx implements the exponential backoff-with-cap curve shared
// by the audio source watchdog (internal/audiosource) and the hub transport
// recovery coordinator (internal/hubtransport): double the delay on each
// failure, cap it, reset on a sustained success.
package backoffx

import (
	"context"
	"sync"
	"time"
)

// Backoff is a thread-safe exponential backoff counter.
type Backoff struct {
	mu           sync.Mutex
	initialDelay time.Duration
	maxDelay     time.Duration
	currentDelay time.Duration
	failures     int
}

// New returns a Backoff starting at initialDelay, doubling on each
// RecordFailure up to maxDelay.
func New(initialDelay, maxDelay time.Duration) *Backoff {
	return &Backoff{
		initialDelay: initialDelay,
		maxDelay:     maxDelay,
		currentDelay: initialDelay,
	}
}

// RecordFailure doubles the current delay (capped) and returns it.
func (b *Backoff) RecordFailure() time.Duration {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.failures++
	b.currentDelay *= 2
	if b.currentDelay > b.maxDelay {
		b.currentDelay = b.maxDelay
	}
	if b.currentDelay <= 0 {
		b.currentDelay = b.initialDelay
	}
	return b.currentDelay
}

// Reset returns the backoff to its initial delay and zeroes the failure count.
func (b *Backoff) Reset() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.currentDelay = b.initialDelay
	b.failures = 0
}

// Current returns the current delay without mutating state.
func (b *Backoff) Current() time.Duration {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.currentDelay
}

// Failures returns the consecutive failure count.
func (b *Backoff) Failures() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.failures
}

// Wait blocks for the current delay or until ctx is cancelled.
func (b *Backoff) Wait(ctx context.Context) error {
	select {
	case <-time.After(b.Current()):
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
