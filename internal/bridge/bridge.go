package bridge

import (
	"context"
	"log/slog"

	"github.com/NameSRoby/ravelink-bridge/internal/animator"
	"github.com/NameSRoby/ravelink-bridge/internal/audiosource"
	"github.com/NameSRoby/ravelink-bridge/internal/config"
	"github.com/NameSRoby/ravelink-bridge/internal/hubtransport"
	"github.com/NameSRoby/ravelink-bridge/internal/intent"
	"github.com/NameSRoby/ravelink-bridge/internal/lifecycle"
	"github.com/NameSRoby/ravelink-bridge/internal/midi"
	"github.com/NameSRoby/ravelink-bridge/internal/reactive"
	"github.com/NameSRoby/ravelink-bridge/internal/registry"
	"github.com/NameSRoby/ravelink-bridge/internal/udptransport"
)

// lockOwner identifies this process's hold on the boot/shutdown lock.
const lockOwner = "engine"

// Bridge is the facade spec.md §6 describes: every method here is an
// operation the (out-of-scope) control surface would bind to an HTTP
// handler. Bridge owns construction and lifecycle of every component.
type Bridge struct {
	Registry *registry.Registry
	Engine   *reactive.Engine
	Hub      *hubtransport.Transport
	Udp      *udptransport.Sender
	Audio    *audiosource.Source
	Animator *animator.Animator
	Midi     *midi.Resolver

	dispatcher *Dispatcher
	lifecycle  *lifecycle.Orchestrator
	lock       *lifecycle.Lock

	cancelRun context.CancelFunc
	logger    *slog.Logger
}

// New constructs every component and wires the engine's emissions through
// the dispatcher to the two transports, but does not start anything —
// call Start to boot.
func New(root config.Root, logger *slog.Logger) (*Bridge, error) {
	if logger == nil {
		logger = slog.Default()
	}

	reg := registry.New()
	if err := root.Fixtures.Seed(reg); err != nil {
		return nil, err
	}

	hubFixturesFn := func() []hubtransport.HubTarget {
		fixtures := reg.ListBy(registry.ListFilter{Brand: intent.BrandHub, HasBrand: true, RequireConfigured: true})
		out := make([]hubtransport.HubTarget, len(fixtures))
		for i, f := range fixtures {
			out[i] = hubtransport.HubTarget{Host: f.Hub.Host, User: f.Hub.User, LightID: f.Hub.LightID}
		}
		return out
	}

	hub := hubtransport.New(hubFixturesFn, true)
	udp := udptransport.New()
	dispatcher := NewDispatcher(reg, hub, udp, logger)

	engine := reactive.New(dispatcher.Dispatch)

	audioSrc := audiosource.New(root.Audio, logger)

	midiResolver, err := midi.FromConfig(root.Midi)
	if err != nil {
		return nil, err
	}

	lock := lifecycle.NewLock()

	b := &Bridge{
		Registry:   reg,
		Engine:     engine,
		Hub:        hub,
		Udp:        udp,
		Audio:      audioSrc,
		Midi:       midiResolver,
		dispatcher: dispatcher,
		lifecycle:  lifecycle.New(lock),
		lock:       lock,
		logger:     logger,
	}
	b.Animator = animator.New(b.pushAnimatorState, b.audioEnergy)
	return b, nil
}

// audioEnergy reports the audio source's most recent level for animator
// fixtures configured to run at audio-reactive speed.
func (b *Bridge) audioEnergy() float64 {
	return b.Audio.GetTelemetry().Level
}

// Start boots the audio source and the engine's tick loop under the
// lifecycle orchestrator's single-owner lock.
func (b *Bridge) Start(ctx context.Context) error {
	return b.lifecycle.Boot(ctx, lockOwner,
		lifecycle.Step{Name: "audio", Run: func(context.Context) error { return b.Audio.Start() }},
		lifecycle.Step{Name: "engine", Run: func(context.Context) error {
			runCtx, cancel := context.WithCancel(context.Background())
			b.cancelRun = cancel
			go b.Engine.Run(runCtx.Done(), b.Audio.Output())
			return nil
		}},
	)
}

// Stop runs the full shutdown sequence within the hard deadline.
func (b *Bridge) Stop() {
	b.lifecycle.Shutdown(lockOwner,
		lifecycle.Step{Name: "engine", Run: func(context.Context) error {
			if b.cancelRun != nil {
				b.cancelRun()
			}
			return nil
		}},
		lifecycle.Step{Name: "audio", Run: func(context.Context) error { b.Audio.Stop(); return nil }},
		lifecycle.Step{Name: "animator", Run: func(context.Context) error { b.Animator.Stop(); return nil }},
		lifecycle.Step{Name: "hub", Run: func(ctx context.Context) error {
			return b.Hub.SetTransportMode(ctx, hubtransport.ModeRest, hubtransport.StreamTarget{}, nil)
		}},
		lifecycle.Step{Name: "udp", Run: func(context.Context) error { b.Udp.Close(); return nil }},
	)
}

// Reload re-seeds the registry from a freshly loaded configuration
// document without restarting the audio pipeline.
func (b *Bridge) Reload(root config.Root) error {
	return root.Fixtures.Seed(b.Registry)
}

// ForceDrop is the Engine.forceDrop operation (spec.md §6).
func (b *Bridge) ForceDrop() { b.Engine.ForceDrop() }

// SetHueTransportMode is the Transport.setHueTransportMode operation.
func (b *Bridge) SetHueTransportMode(ctx context.Context, mode hubtransport.Mode, target hubtransport.StreamTarget) error {
	candidates := b.Registry.ListBy(registry.ListFilter{Brand: intent.BrandHub, HasBrand: true, RequireConfigured: true})
	areas := make([]hubtransport.HubTarget, len(candidates))
	for i, f := range candidates {
		areas[i] = hubtransport.HubTarget{Host: f.Hub.Host, User: f.Hub.User, LightID: f.Hub.LightID}
	}
	return b.Hub.SetTransportMode(ctx, mode, target, areas)
}

// GetHueTelemetry is the Transport.getHueTelemetry operation.
func (b *Bridge) GetHueTelemetry() hubtransport.Telemetry { return b.Hub.Telemetry() }

// GetWizTelemetry is the Transport.getWizTelemetry operation. The UDP
// family has no connection state machine, so telemetry is simply the
// "host:port" address of each configured UDP fixture; it does not report
// whether a socket to that address is open.
func (b *Bridge) GetWizTelemetry() []string {
	fixtures := b.Registry.ListBy(registry.ListFilter{Brand: intent.BrandUDP, HasBrand: true, RequireConfigured: true})
	out := make([]string, len(fixtures))
	for i, f := range fixtures {
		out[i] = udptransport.DeviceAddr(f.Udp.Host, f.Udp.Port)
	}
	return out
}
