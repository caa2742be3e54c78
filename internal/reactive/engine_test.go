package reactive

import (
	"testing"

	"github.com/NameSRoby/ravelink-bridge/internal/intent"
)

func collect(t *testing.T) (*Engine, *[]intent.Intent) {
	t.Helper()
	var got []intent.Intent
	e := New(func(i intent.Intent) { got = append(got, i) })
	return e, &got
}

func TestForceDropEmitsHighIntensityWithForceDelta(t *testing.T) {
	e, got := collect(t)
	e.ForceDrop()
	e.Tick(intent.Snapshot{})

	if len(*got) != 2 {
		t.Fatalf("expected hub+udp intents, got %d", len(*got))
	}
	hub, ok := (*got)[0].(intent.HubState)
	if !ok {
		t.Fatalf("expected first intent to be HubState, got %T", (*got)[0])
	}
	if !hub.ForceDelta {
		t.Fatal("force-dropped intent must set ForceDelta")
	}
	if hub.State.Bri != 255 {
		t.Fatalf("expected max brightness on force drop, got %d", hub.State.Bri)
	}
}

func TestUnknownGenreFallsBackAndRecordsTelemetry(t *testing.T) {
	e, _ := collect(t)
	e.SetGenre("not-a-real-genre")
	if !e.Telemetry().GenreFallback {
		t.Fatal("expected GenreFallback to be recorded")
	}
	e.SetGenre("edm")
	if e.Telemetry().GenreFallback {
		t.Fatal("expected GenreFallback cleared after valid genre")
	}
}

func TestUnknownSceneFallsBackAndRecordsTelemetry(t *testing.T) {
	e, _ := collect(t)
	e.SetScene("not-a-real-scene")
	if !e.Telemetry().SceneFallback {
		t.Fatal("expected SceneFallback to be recorded")
	}
}

func TestDevTierRequiresUnsafeAck(t *testing.T) {
	e, _ := collect(t)
	if err := e.SetOverclock(TierDev30, false); err == nil {
		t.Fatal("expected error requesting dev tier without unsafe ack")
	}
	if err := e.SetOverclock(TierDev30, true); err != nil {
		t.Fatalf("expected dev tier to succeed with unsafe ack, got %v", err)
	}
}

// TestMetaAutoTakesPriorityOverOverclockAuto resolves the open question
// documented in SPEC_FULL.md §4.3: with both auto modes enabled, the
// active tier is attributed to meta_auto.
func TestMetaAutoTakesPriorityOverOverclockAuto(t *testing.T) {
	e, _ := collect(t)
	e.SetOverclockAutoEnabled(true)
	e.SetMetaAutoEnabled(true)
	e.Tick(intent.Snapshot{Level: 0.9})
	if got := e.Telemetry().OverclockSource; got != SourceMetaAuto {
		t.Fatalf("expected meta_auto to win, got %v", got)
	}
}

func TestOverclockAutoAloneIsAttributed(t *testing.T) {
	e, _ := collect(t)
	e.SetOverclockAutoEnabled(true)
	e.Tick(intent.Snapshot{Level: 0.9})
	if got := e.Telemetry().OverclockSource; got != SourceOverclockAuto {
		t.Fatalf("expected overclock_auto source, got %v", got)
	}
}

func TestManualOverclockIsAttributedWhenNoAutoEnabled(t *testing.T) {
	e, _ := collect(t)
	e.SetOverclock(Tier3, false)
	e.Tick(intent.Snapshot{})
	if got := e.Telemetry().OverclockSource; got != SourceManual {
		t.Fatalf("expected manual source, got %v", got)
	}
}

func TestSustainedSilenceDriftsToIdle(t *testing.T) {
	e, got := collect(t)
	for i := 0; i < absoluteQuietTicks+5; i++ {
		*got = nil
		e.Tick(intent.Snapshot{})
	}
	hub := (*got)[0].(intent.HubState)
	if hub.State.Bri != 0 {
		t.Fatalf("expected idle brightness to settle to 0, got %d", hub.State.Bri)
	}
	if e.Telemetry().IdleTicks == 0 {
		t.Fatal("expected idle ticks to be counted")
	}
}

func TestBeatAndDropCountersIncrement(t *testing.T) {
	e, _ := collect(t)
	for i := 0; i < 40; i++ {
		flux := 0.0
		transient := 0.0
		if i%3 == 0 {
			flux = 0.9
			transient = 0.95
		}
		e.Tick(intent.Snapshot{Level: 0.5, SpectralFlux: flux, Transient: transient})
	}
	if e.Telemetry().Beats == 0 {
		t.Fatal("expected at least one beat to be detected")
	}
	if e.Telemetry().Drops == 0 {
		t.Fatal("expected at least one drop to be detected")
	}
}

func TestZonesAreAppliedToEmittedIntents(t *testing.T) {
	e, got := collect(t)
	e.SetZones("stage", "desk")
	e.Tick(intent.Snapshot{Level: 0.5})
	hub := (*got)[0].(intent.HubState)
	udp := (*got)[1].(intent.UdpPulse)
	if hub.Zone() != "stage" {
		t.Fatalf("expected hub zone 'stage', got %q", hub.Zone())
	}
	if udp.Zone() != "desk" {
		t.Fatalf("expected udp zone 'desk', got %q", udp.Zone())
	}
}
