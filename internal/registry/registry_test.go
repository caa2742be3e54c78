package registry

import (
	"testing"

	"github.com/NameSRoby/ravelink-bridge/internal/intent"
)

func hubFixture(id, zone string) intent.Fixture {
	return intent.Fixture{
		ID: id, Brand: intent.BrandHub, Zone: zone, Enabled: true, EngineEnabled: true,
		Hub: intent.HubAddress{Host: "192.168.1.10", User: "abc", LightID: id},
	}
}

func TestUpsertAndRemoveBumpVersion(t *testing.T) {
	r := New()
	if r.Version() != 0 {
		t.Fatalf("expected version 0, got %d", r.Version())
	}
	r.UpsertFixture(hubFixture("1", "stage"))
	if r.Version() != 1 {
		t.Fatalf("expected version 1 after upsert, got %d", r.Version())
	}
	if !r.RemoveFixture("1") {
		t.Fatal("expected removal to succeed")
	}
	if r.Version() != 2 {
		t.Fatalf("expected version 2 after remove, got %d", r.Version())
	}
	if r.RemoveFixture("1") {
		t.Fatal("expected second removal of same id to be a no-op")
	}
}

// TestWildcardExpandsToRoutedEnabledZones is invariant 6: */all expands to
// exactly the zones of the enabled fixtures of the intent's brand.
func TestWildcardExpandsToRoutedEnabledZones(t *testing.T) {
	r := New()
	r.UpsertFixture(hubFixture("1", "stage"))
	r.UpsertFixture(hubFixture("2", "bar"))
	disabled := hubFixture("3", "booth")
	disabled.Enabled = false
	r.UpsertFixture(disabled)

	zones := r.ResolveZone(intent.KindHubState, "all")
	if len(zones) != 2 {
		t.Fatalf("expected 2 zones from wildcard, got %v", zones)
	}
}

func TestEmptyExpansionYieldsNoZones(t *testing.T) {
	r := New()
	zones := r.ResolveZone(intent.KindHubState, "nonexistent-zone")
	if len(zones) != 0 {
		t.Fatalf("expected no zones to match, got %v", zones)
	}
}

func TestExplicitZoneMatchesAliasSet(t *testing.T) {
	r := New()
	r.UpsertFixture(hubFixture("1", "stage"))
	zones := r.ResolveZone(intent.KindHubState, "hue")
	if len(zones) != 1 || zones[0] != "stage" {
		t.Fatalf("expected hub alias 'hue' to match fixture's zone, got %v", zones)
	}
}

func TestRouteTableFallbackWhenZoneUnset(t *testing.T) {
	r := New()
	r.UpsertFixture(hubFixture("1", "stage"))
	r.SetIntentRoute(intent.KindHubState, "stage")
	zones := r.ResolveZone(intent.KindHubState, "")
	if len(zones) != 1 || zones[0] != "stage" {
		t.Fatalf("expected route table zone to apply, got %v", zones)
	}
}

func TestSummaryCountsByBrand(t *testing.T) {
	r := New()
	r.UpsertFixture(hubFixture("1", "stage"))
	r.UpsertFixture(intent.Fixture{ID: "2", Brand: intent.BrandUDP, Zone: "desk", Enabled: true})
	s := r.Summary()
	if s.HueN != 1 || s.WizN != 1 {
		t.Fatalf("expected 1 hue and 1 wiz, got %+v", s)
	}
}
