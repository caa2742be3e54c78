package telemetry

import (
	"testing"
	"time"
)

func TestThrottleAllowsOncePerInterval(t *testing.T) {
	th := NewThrottle(50 * time.Millisecond)
	if !th.Allow() {
		t.Fatal("first call should be allowed")
	}
	if th.Allow() {
		t.Fatal("immediate second call should be throttled")
	}
	if th.Dropped() != 1 {
		t.Fatalf("expected 1 dropped, got %d", th.Dropped())
	}
	time.Sleep(60 * time.Millisecond)
	if !th.Allow() {
		t.Fatal("call after interval should be allowed")
	}
}
