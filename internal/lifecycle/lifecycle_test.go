package lifecycle

import (
	"context"
	"errors"
	"testing"
)

func TestBootRunsStepsInOrderAndLocks(t *testing.T) {
	lock := NewLock()
	o := New(lock)
	var order []string

	err := o.Boot(context.Background(), "engine",
		Step{Name: "a", Run: func(ctx context.Context) error { order = append(order, "a"); return nil }},
		Step{Name: "b", Run: func(ctx context.Context) error { order = append(order, "b"); return nil }},
	)
	if err != nil {
		t.Fatalf("unexpected boot error: %v", err)
	}
	if len(order) != 2 || order[0] != "a" || order[1] != "b" {
		t.Fatalf("expected steps in order, got %v", order)
	}
	if !lock.IsLockedBy("engine") {
		t.Fatal("expected boot to acquire the lock")
	}
}

func TestBootAbortsOnFailingStepAndReleasesLock(t *testing.T) {
	lock := NewLock()
	o := New(lock)
	var ranSecond bool

	err := o.Boot(context.Background(), "engine",
		Step{Name: "a", Run: func(ctx context.Context) error { return errors.New("boom") }},
		Step{Name: "b", Run: func(ctx context.Context) error { ranSecond = true; return nil }},
	)
	if err == nil {
		t.Fatal("expected boot to fail")
	}
	if ranSecond {
		t.Fatal("expected remaining steps to be skipped after a failure")
	}
	if lock.IsLocked() {
		t.Fatal("expected lock to be released after a failed boot")
	}
}

func TestBootFailsWhenAlreadyLocked(t *testing.T) {
	lock := NewLock()
	lock.TryLock("other")
	o := New(lock)

	err := o.Boot(context.Background(), "engine", Step{Name: "a", Run: func(ctx context.Context) error { return nil }})
	if !errors.Is(err, ErrAlreadyLocked) {
		t.Fatalf("expected ErrAlreadyLocked, got %v", err)
	}
}

func TestShutdownRunsAllStepsAndUnlocks(t *testing.T) {
	lock := NewLock()
	lock.TryLock("engine")
	o := New(lock)

	var ran []string
	o.Shutdown("engine",
		Step{Name: "flush", Run: func(ctx context.Context) error { ran = append(ran, "flush"); return nil }},
		Step{Name: "stop-audio", Run: func(ctx context.Context) error { ran = append(ran, "stop-audio"); return nil }},
	)

	if len(ran) != 2 {
		t.Fatalf("expected both shutdown steps to run, got %v", ran)
	}
	if lock.IsLocked() {
		t.Fatal("expected shutdown to release the lock")
	}
}

func TestShutdownContinuesPastFailingStep(t *testing.T) {
	lock := NewLock()
	lock.TryLock("engine")
	o := New(lock)

	var secondRan bool
	o.Shutdown("engine",
		Step{Name: "a", Run: func(ctx context.Context) error { return errors.New("fail") }},
		Step{Name: "b", Run: func(ctx context.Context) error { secondRan = true; return nil }},
	)
	if !secondRan {
		t.Fatal("expected shutdown to continue past a failing step")
	}
}
