package hubtransport

import (
	"context"
	"testing"
)

// TestNoConfiguredFixturesStaysRestOnly checks spec.md §4.5
// transition 1: requesting STREAM with no configured hub fixtures must
// stay RestOnly with an explicit fallback reason instead of attempting a
// connect.
func TestNoConfiguredFixturesStaysRestOnly(t *testing.T) {
	tr := New(func() []HubTarget { return nil }, false)

	err := tr.SetTransportMode(context.Background(), ModeStream, StreamTarget{}, nil)
	if err == nil {
		t.Fatal("expected error when no hub fixtures are configured")
	}
	tel := tr.Telemetry()
	if tel.State != StateRestOnly {
		t.Fatalf("expected RestOnly, got %v", tel.State)
	}
	if tel.FallbackReason == "" {
		t.Fatal("expected a fallback reason to be recorded")
	}
}

func TestSetTransportModeRestDrainsStream(t *testing.T) {
	tr := New(func() []HubTarget { return []HubTarget{{Host: "192.168.1.10", User: "abc", LightID: "3"}} }, false)
	tr.SetTransportMode(context.Background(), ModeRest, StreamTarget{}, nil)
	tel := tr.Telemetry()
	if tel.State != StateRestOnly || tel.Active != ModeRest {
		t.Fatalf("expected RestOnly/REST active, got %+v", tel)
	}
}

func TestSwitchesCounterIncrementsOnActiveChange(t *testing.T) {
	m := newMachine()
	m.transitionTo(StateStreamActive, ModeStream, "")
	if m.snapshot().Switches != 1 {
		t.Fatalf("expected one switch recorded, got %d", m.snapshot().Switches)
	}
	m.transitionTo(StateStreamActive, ModeStream, "")
	if m.snapshot().Switches != 1 {
		t.Fatal("expected no additional switch when active mode unchanged")
	}
}
