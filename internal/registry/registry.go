// Package registry owns the fixture catalog and route table (C7):
// copy-on-write snapshots for readers, a single mutation gate for writers,
// and the zone-resolution algorithm that turns an intent into the set of
// fixtures it should reach.
package registry

import (
	"sort"
	"strings"
	"sync"

	"github.com/NameSRoby/ravelink-bridge/internal/intent"
)

// ListFilter narrows a fixture listing.
type ListFilter struct {
	Brand             intent.Brand
	HasBrand          bool
	Zone              string
	HasZone           bool
	RequireConfigured bool
}

// Summary is the registry's self-description (spec.md §4.7).
type Summary struct {
	Version int
	HueN    int
	WizN    int
	Routes  intent.RouteTable
}

// Registry is the fixture catalog and route table. Zero value is not
// usable; use New.
type Registry struct {
	mu       sync.RWMutex
	version  int
	fixtures map[string]intent.Fixture
	routes   intent.RouteTable
}

// New returns an empty registry at version 0.
func New() *Registry {
	return &Registry{
		fixtures: make(map[string]intent.Fixture),
		routes:   make(intent.RouteTable),
	}
}

// Version returns the current monotonic catalog version.
func (r *Registry) Version() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.version
}

// GetFixtures returns a copy-on-write snapshot of every fixture.
func (r *Registry) GetFixtures() []intent.Fixture {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]intent.Fixture, 0, len(r.fixtures))
	for _, f := range r.fixtures {
		out = append(out, f)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

// ListBy returns fixtures matching filter, always excluding disabled or
// unconfigured (when RequireConfigured) fixtures.
func (r *Registry) ListBy(f ListFilter) []intent.Fixture {
	var out []intent.Fixture
	for _, fx := range r.GetFixtures() {
		if !fx.Enabled {
			continue
		}
		if f.HasBrand && fx.Brand != f.Brand {
			continue
		}
		if f.HasZone && fx.Zone != f.Zone {
			continue
		}
		if f.RequireConfigured && !fx.Configured() {
			continue
		}
		out = append(out, fx)
	}
	return out
}

// ListEngineBy, ListTwitchBy, and ListCustomBy apply the mode-flag on top
// of ListBy, matching the reactive engine / chat-color / standalone-
// animator consumers respectively.
func (r *Registry) ListEngineBy(brand intent.Brand) []intent.Fixture {
	return filterFlag(r.ListBy(ListFilter{Brand: brand, HasBrand: true, RequireConfigured: true}), func(f intent.Fixture) bool { return f.EngineEnabled })
}

func (r *Registry) ListTwitchBy(brand intent.Brand) []intent.Fixture {
	return filterFlag(r.ListBy(ListFilter{Brand: brand, HasBrand: true, RequireConfigured: true}), func(f intent.Fixture) bool { return f.TwitchEnabled })
}

func (r *Registry) ListCustomBy(brand intent.Brand) []intent.Fixture {
	return filterFlag(r.ListBy(ListFilter{Brand: brand, HasBrand: true, RequireConfigured: true}), func(f intent.Fixture) bool { return f.CustomEnabled })
}

func filterFlag(fixtures []intent.Fixture, keep func(intent.Fixture) bool) []intent.Fixture {
	var out []intent.Fixture
	for _, f := range fixtures {
		if keep(f) {
			out = append(out, f)
		}
	}
	return out
}

// UpsertFixture inserts or replaces a fixture and bumps the catalog version.
func (r *Registry) UpsertFixture(f intent.Fixture) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.fixtures[f.ID] = f
	r.version++
}

// RemoveFixture deletes a fixture by id and bumps the catalog version if
// it existed.
func (r *Registry) RemoveFixture(id string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.fixtures[id]; !ok {
		return false
	}
	delete(r.fixtures, id)
	r.version++
	return true
}

// SetIntentRoute sets the zone token an intent kind routes to.
func (r *Registry) SetIntentRoute(kind intent.Kind, zone string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.routes[kind] = zone
	r.version++
}

// GetIntentRoutes returns a copy of the route table.
func (r *Registry) GetIntentRoutes() intent.RouteTable {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make(intent.RouteTable, len(r.routes))
	for k, v := range r.routes {
		out[k] = v
	}
	return out
}

// Summary returns the registry's self-description.
func (r *Registry) Summary() Summary {
	r.mu.RLock()
	defer r.mu.RUnlock()
	s := Summary{Version: r.version, Routes: make(intent.RouteTable, len(r.routes))}
	for k, v := range r.routes {
		s.Routes[k] = v
	}
	for _, f := range r.fixtures {
		switch f.Brand {
		case intent.BrandHub:
			s.HueN++
		case intent.BrandUDP:
			s.WizN++
		}
	}
	return s
}

func brandDefaultZone(kind intent.Kind) string {
	switch kind {
	case intent.KindUdpPulse, intent.KindChatUdpPulse:
		return "wiz"
	default:
		return "hue"
	}
}

func brandFor(kind intent.Kind) intent.Brand {
	switch kind {
	case intent.KindUdpPulse, intent.KindChatUdpPulse:
		return intent.BrandUDP
	default:
		return intent.BrandHub
	}
}

// aliasSet returns the full alias set a fixture matches zone tokens
// against: its own zone, the wildcard tokens, the brand name, and the
// family-specific aliases from spec.md §4.7.
func aliasSet(f intent.Fixture) map[string]struct{} {
	set := map[string]struct{}{
		f.Zone:      {},
		"all":       {},
		"*":         {},
		f.Brand.String(): {},
	}
	switch f.Brand {
	case intent.BrandHub:
		set["hue"] = struct{}{}
	case intent.BrandUDP:
		set["wiz"] = struct{}{}
		if f.CustomEnabled {
			set["custom"] = struct{}{}
		}
	}
	return set
}

// ResolveZone computes the destination zone list for an intent per
// spec.md §4.7: explicit zone or route-table fallback, token split and
// dedupe, wildcard expansion to the zone of every enabled fixture of the
// intent's brand, then alias matching. The engine/twitch/custom mode flags
// are not consulted.
func (r *Registry) ResolveZone(k intent.Kind, explicitZone string) []string {
	zoneSpec := explicitZone
	if zoneSpec == "" {
		r.mu.RLock()
		zoneSpec = r.routes[k]
		r.mu.RUnlock()
	}
	if zoneSpec == "" {
		zoneSpec = brandDefaultZone(k)
	}

	tokens := splitDedupe(zoneSpec)
	brand := brandFor(k)

	hasWildcard := false
	for _, tok := range tokens {
		if tok == "*" || tok == "all" {
			hasWildcard = true
			break
		}
	}

	fixtures := r.ListBy(ListFilter{Brand: brand, HasBrand: true})

	if hasWildcard {
		zoneSet := map[string]struct{}{}
		for _, f := range fixtures {
			zoneSet[f.Zone] = struct{}{}
		}
		return sortedKeys(zoneSet)
	}

	matched := map[string]struct{}{}
	for _, tok := range tokens {
		for _, f := range fixtures {
			if _, ok := aliasSet(f)[tok]; ok {
				matched[f.Zone] = struct{}{}
			}
		}
	}
	return sortedKeys(matched)
}

func splitDedupe(spec string) []string {
	parts := strings.FieldsFunc(spec, func(r rune) bool {
		return r == ',' || r == ';' || r == '|'
	})
	seen := map[string]struct{}{}
	var out []string
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p == "" {
			continue
		}
		if _, ok := seen[p]; ok {
			continue
		}
		seen[p] = struct{}{}
		out = append(out, p)
	}
	return out
}

func sortedKeys(set map[string]struct{}) []string {
	out := make([]string, 0, len(set))
	for k := range set {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}
