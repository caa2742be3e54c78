// Package scheduler implements the per-fixture rate-guard + delta-guard +
// forced-heartbeat gate (spec.md §4.4). Both light families share one
// generic Gate parameterized by a State and a delta function; the
// hub family's circular hue distance is the only family-specific wrinkle
// and lives in HueDelta, independently testable.
package scheduler

import (
	"sync"
	"time"
)

// State is a component-wise light state snapshot the scheduler gates on.
// Components are opaque float64s; the caller (hub or udp scheduler
// constructor) supplies the delta function that knows what each index means.
type State []float64

// Options configures one shouldSend decision, per spec.md §4.4.
type Options struct {
	MinIntervalMs int
	MaxSilenceMs  int
	ForceDelta    bool
	DeltaScale    float64
	TriggerBoost  float64 // [0,1]
}

// Telemetry holds the per-zone counters spec.md §3 requires.
type Telemetry struct {
	Sent            uint64
	SkippedRate     uint64
	SkippedDelta    uint64
	ForcedHeartbeat uint64
}

// DeltaFunc computes the component-wise absolute deltas between two states
// and returns, for each component, (delta, limit-at-scale-1). The hub and
// udp gates supply different implementations (HueDelta vs linear).
type DeltaFunc func(prev, next State) (deltas []float64, limits []float64)

// zoneState is the scheduler's per-zone memory.
type zoneState struct {
	last    State
	sentAt  time.Time
	hasLast bool
	tel     Telemetry
}

// Gate gates sends for a set of zones sharing one DeltaFunc. One Gate
// instance is created per light family (hub, udp); each zone within it
// gets independent state, matching spec.md §3's "scheduler state created
// on first use per zone" rule.
type Gate struct {
	mu     sync.Mutex
	delta  DeltaFunc
	zones  map[string]*zoneState
	nowFn  func() time.Time
}

// New returns a Gate using delta to compute component deltas/limits.
func New(delta DeltaFunc) *Gate {
	return &Gate{
		delta: delta,
		zones: make(map[string]*zoneState),
		nowFn: time.Now,
	}
}

func (g *Gate) zone(name string) *zoneState {
	z, ok := g.zones[name]
	if !ok {
		z = &zoneState{}
		g.zones[name] = z
	}
	return z
}

// rateReactiveScale implements the tuned-threshold table from spec.md §4.4.
func rateReactiveScale(minIntervalMs int) float64 {
	switch {
	case minIntervalMs <= 105:
		return 0.72
	case minIntervalMs <= 140:
		return 0.84
	case minIntervalMs <= 190:
		return 0.94
	default:
		return 1.0
	}
}

// ShouldSend implements the shouldSend(state, options) decision from
// spec.md §4.4, returning whether the caller should transmit next, and
// recording the new state if so.
func (g *Gate) ShouldSend(zoneName string, next State, opts Options) bool {
	g.mu.Lock()
	defer g.mu.Unlock()

	z := g.zone(zoneName)
	now := g.nowFn()

	if z.hasLast && !opts.ForceDelta {
		if now.Sub(z.sentAt) < time.Duration(opts.MinIntervalMs)*time.Millisecond {
			z.tel.SkippedRate++
			return false
		}
	}

	if !z.hasLast {
		z.last = append(State(nil), next...)
		z.sentAt = now
		z.hasLast = true
		z.tel.Sent++
		return true
	}

	deltas, limits := g.delta(z.last, next)
	scale := opts.DeltaScale
	if scale <= 0 {
		scale = 1
	}
	rrs := rateReactiveScale(opts.MinIntervalMs)
	boost := 1 - 0.22*opts.TriggerBoost

	withinLimits := true
	for i := range deltas {
		limit := limits[i] * scale * rrs * boost
		if deltas[i] > limit {
			withinLimits = false
			break
		}
	}

	if withinLimits && !opts.ForceDelta {
		if now.Sub(z.sentAt) >= time.Duration(opts.MaxSilenceMs)*time.Millisecond {
			z.tel.ForcedHeartbeat++
		} else {
			z.tel.SkippedDelta++
			return false
		}
	}

	z.last = append(State(nil), next...)
	z.sentAt = now
	z.tel.Sent++
	return true
}

// Reset zeroes state for the given zone (spec.md §4.4's reset()).
func (g *Gate) Reset(zoneName string) {
	g.mu.Lock()
	defer g.mu.Unlock()
	delete(g.zones, zoneName)
}

// ResetAll clears every zone, used on engine boot/reload.
func (g *Gate) ResetAll() {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.zones = make(map[string]*zoneState)
}

// GetTelemetry returns a copy of the zone's counters.
func (g *Gate) GetTelemetry(zoneName string) Telemetry {
	g.mu.Lock()
	defer g.mu.Unlock()
	if z, ok := g.zones[zoneName]; ok {
		return z.tel
	}
	return Telemetry{}
}
