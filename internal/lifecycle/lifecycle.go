package lifecycle

import (
	"context"
	"errors"
	"log/slog"
	"time"
)

// ShutdownDeadline is the hard ceiling spec.md §4.9 imposes on stop():
// everything — flushing transport to REST, applying standalone "on-stop"
// updates, releasing the lock — must complete within this window.
const ShutdownDeadline = 10 * time.Second

// ErrAlreadyLocked is returned by Boot when the engine lock is already held.
var ErrAlreadyLocked = errors.New("lifecycle: engine already locked")

// Step is one named boot or shutdown action. Steps run in order; a boot
// step's error aborts the remaining steps, a shutdown step's error is
// logged but does not stop the rest from running (stop() must never get
// stuck behind one failed component).
type Step struct {
	Name string
	Run  func(ctx context.Context) error
}

// Orchestrator sequences boot and shutdown around the engine lock.
type Orchestrator struct {
	lock *Lock
}

// New returns an Orchestrator using lock for ownership.
func New(lock *Lock) *Orchestrator {
	return &Orchestrator{lock: lock}
}

// Boot acquires the lock under owner, then runs steps in order (spec.md
// §4.9: load configs → construct components → lock("engine") → start
// audio → emit idle intents → attempt STREAM). It aborts and releases the
// lock on the first failing step.
func (o *Orchestrator) Boot(ctx context.Context, owner string, steps ...Step) error {
	if !o.lock.TryLock(owner) {
		return ErrAlreadyLocked
	}
	for _, step := range steps {
		if err := step.Run(ctx); err != nil {
			slog.Error("lifecycle: boot step failed", "step", step.Name, "err", err)
			o.lock.Unlock(owner)
			return err
		}
		slog.Info("lifecycle: boot step complete", "step", step.Name)
	}
	return nil
}

// Shutdown runs steps in order under a hard ShutdownDeadline, best-effort:
// a failing or slow step is logged and skipped rather than blocking the
// remaining teardown, and the lock is always released at the end.
func (o *Orchestrator) Shutdown(owner string, steps ...Step) {
	ctx, cancel := context.WithTimeout(context.Background(), ShutdownDeadline)
	defer cancel()

	for _, step := range steps {
		done := make(chan error, 1)
		go func(s Step) { done <- s.Run(ctx) }(step)

		select {
		case err := <-done:
			if err != nil {
				slog.Warn("lifecycle: shutdown step failed", "step", step.Name, "err", err)
			}
		case <-ctx.Done():
			slog.Warn("lifecycle: shutdown deadline exceeded, forcing remaining teardown", "step", step.Name)
		}
	}

	o.lock.ForceUnlock()
}
