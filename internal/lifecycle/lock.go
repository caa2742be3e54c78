// Package lifecycle implements process-wide ownership locking and the
// boot/shutdown orchestration sequence (C9).
package lifecycle

import "sync/atomic"

// Lock is a single-owner, compare-and-set process lock.
type Lock struct {
	owner atomic.Value // string
}

// NewLock returns an unlocked Lock.
func NewLock() *Lock {
	l := &Lock{}
	l.owner.Store("")
	return l
}

// TryLock acquires the lock for owner if it is currently unlocked. Returns
// false without side effects if already held by anyone, including owner.
func (l *Lock) TryLock(owner string) bool {
	return l.owner.CompareAndSwap("", owner)
}

// Unlock releases the lock only if it is currently held by owner
// (invariant 10: wrong-owner unlock is a no-op and returns false).
func (l *Lock) Unlock(owner string) bool {
	return l.owner.CompareAndSwap(owner, "")
}

// ForceUnlock releases the lock unconditionally, for administrative use.
func (l *Lock) ForceUnlock() {
	l.owner.Store("")
}

// IsLocked reports whether any owner currently holds the lock.
func (l *Lock) IsLocked() bool {
	return l.owner.Load().(string) != ""
}

// IsLockedBy reports whether owner currently holds the lock.
func (l *Lock) IsLockedBy(owner string) bool {
	return owner != "" && l.owner.Load().(string) == owner
}
