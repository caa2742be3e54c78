// Package bridge wires the reactive engine, transports, registry, audio
// source, animator, and MIDI resolver together behind the operation set
// spec.md §6 names, mirroring the teacher's server package: one facade
// struct whose methods are the entire surface a control-surface host
// would bind HTTP handlers to.
package bridge

import (
	"log/slog"
	"time"

	"github.com/NameSRoby/ravelink-bridge/internal/hubtransport"
	"github.com/NameSRoby/ravelink-bridge/internal/intent"
	"github.com/NameSRoby/ravelink-bridge/internal/registry"
	"github.com/NameSRoby/ravelink-bridge/internal/scheduler"
	"github.com/NameSRoby/ravelink-bridge/internal/udptransport"
)

// Dispatcher turns one emitted Intent into gated, per-fixture wire sends.
// It never blocks the engine tick: scheduler decisions and transport sends
// both either fire-and-forget (UDP, REST mailbox) or drop (stream), so
// Dispatch always returns immediately.
type Dispatcher struct {
	registry *registry.Registry
	hub      *hubtransport.Transport
	udp      *udptransport.Sender

	hubGate *scheduler.Gate
	udpGate *scheduler.Gate
	hubOpts scheduler.Options
	udpOpts scheduler.Options

	logger *slog.Logger

	noTargetsLast map[intent.Kind]time.Time
}

// NewDispatcher wires a Dispatcher over an already-constructed registry and
// pair of transports.
func NewDispatcher(reg *registry.Registry, hub *hubtransport.Transport, udp *udptransport.Sender, logger *slog.Logger) *Dispatcher {
	if logger == nil {
		logger = slog.Default()
	}
	hubOpts, hubGate := scheduler.HubDefaults()
	udpOpts, udpGate := scheduler.UdpDefaults()
	return &Dispatcher{
		registry:      reg,
		hub:           hub,
		udp:           udp,
		hubGate:       hubGate,
		udpGate:       udpGate,
		hubOpts:       hubOpts,
		udpOpts:       udpOpts,
		logger:        logger,
		noTargetsLast: map[intent.Kind]time.Time{},
	}
}

// Dispatch is the EmitFunc the reactive engine calls on every tick.
func (d *Dispatcher) Dispatch(in intent.Intent) {
	switch v := in.(type) {
	case intent.HubState:
		d.dispatchHub(v)
	case intent.ChatHubState:
		d.dispatchHub(v.HubState)
	case intent.UdpPulse:
		d.dispatchUdp(v)
	case intent.ChatUdpPulse:
		d.dispatchUdp(v.UdpPulse)
	}
}

func (d *Dispatcher) dispatchHub(hs intent.HubState) {
	zones := d.registry.ResolveZone(intent.KindHubState, hs.Zone())
	if len(zones) == 0 {
		d.noTargets(intent.KindHubState)
		return
	}

	opts := d.hubOpts
	opts.ForceDelta = hs.ForceDelta
	if hs.DeltaScale > 0 {
		opts.DeltaScale = hs.DeltaScale
	}
	if hs.RateMs > 0 {
		opts.MinIntervalMs = hs.RateMs
	}

	for _, zone := range zones {
		fixtures := d.registry.ListBy(registry.ListFilter{
			Brand: intent.BrandHub, HasBrand: true,
			Zone: zone, HasZone: true,
			RequireConfigured: true,
		})
		if len(fixtures) == 0 {
			continue
		}

		state := scheduler.HubState(float64(hs.State.Hue), float64(hs.State.Sat), float64(hs.State.Bri))
		if !d.hubGate.ShouldSend(zone, state, opts) {
			continue
		}

		channels := make([]hubtransport.RGB, len(fixtures))
		for i := range fixtures {
			channels[i] = hubRGBFromColor(hs.State)
		}
		for _, f := range fixtures {
			target := hubtransport.HubTarget{Host: f.Hub.Host, User: f.Hub.User, LightID: f.Hub.LightID}
			d.hub.Send(zone, target, hs.State, channels)
		}
	}
}

func (d *Dispatcher) dispatchUdp(up intent.UdpPulse) {
	zones := d.registry.ResolveZone(intent.KindUdpPulse, up.Zone())
	if len(zones) == 0 {
		d.noTargets(intent.KindUdpPulse)
		return
	}

	opts := d.udpOpts
	opts.ForceDelta = up.ForceDelta
	if up.DeltaScale > 0 {
		opts.DeltaScale = up.DeltaScale
	}
	if up.RateMs > 0 {
		opts.MinIntervalMs = up.RateMs
	}
	policy := udptransport.RepeatPolicyFor(up, 18)

	for _, zone := range zones {
		fixtures := d.registry.ListBy(registry.ListFilter{
			Brand: intent.BrandUDP, HasBrand: true,
			Zone: zone, HasZone: true,
			RequireConfigured: true,
		})
		if len(fixtures) == 0 {
			continue
		}

		state := scheduler.UdpState(float64(up.Color.R), float64(up.Color.G), float64(up.Color.B), float64(up.Color.Dimming))
		if !d.udpGate.ShouldSend(zone, state, opts) {
			continue
		}

		for _, f := range fixtures {
			addr := udptransport.DeviceAddr(f.Udp.Host, f.Udp.Port)
			d.udp.Send(addr, up.Color, policy)
		}
	}
}

// noTargets logs Dispatcher.NoTargets throttled to once per 10s per kind,
// per spec.md §7's error propagation policy.
func (d *Dispatcher) noTargets(kind intent.Kind) {
	now := time.Now()
	if last, ok := d.noTargetsLast[kind]; ok && now.Sub(last) < 10*time.Second {
		return
	}
	d.noTargetsLast[kind] = now
	d.logger.Warn("dispatcher: no targets for intent", "kind", kind.String())
}

func hubRGBFromColor(c intent.HubColor) hubtransport.RGB {
	// The hub's entertainment protocol streams RGB triples; outside stream
	// mode this value is unused, so an approximate HSV->RGB roundtrip via
	// the hue/sat/bri the engine already computed is sufficient fidelity.
	r, g, b := hsvToRGB(float64(c.Hue)/65535, float64(c.Sat)/255, float64(c.Bri)/255)
	return hubtransport.RGB{R: r, G: g, B: b}
}
