package lifecycle

import "testing"

// TestUnlockWrongOwnerIsNoOp is invariant 10.
func TestUnlockWrongOwnerIsNoOp(t *testing.T) {
	l := NewLock()
	if !l.TryLock("engine") {
		t.Fatal("expected initial lock to succeed")
	}
	if l.Unlock("someone-else") {
		t.Fatal("expected unlock with wrong owner to fail")
	}
	if !l.IsLockedBy("engine") {
		t.Fatal("expected lock to still be held by the original owner")
	}
}

func TestTryLockFailsWhenAlreadyHeld(t *testing.T) {
	l := NewLock()
	l.TryLock("engine")
	if l.TryLock("engine") {
		t.Fatal("expected second TryLock by same owner to fail (already locked)")
	}
}

func TestForceUnlockAlwaysSucceeds(t *testing.T) {
	l := NewLock()
	l.TryLock("engine")
	l.ForceUnlock()
	if l.IsLocked() {
		t.Fatal("expected lock to be released after ForceUnlock")
	}
	if !l.TryLock("other") {
		t.Fatal("expected lock to be acquirable after force unlock")
	}
}
