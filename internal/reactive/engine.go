// Package reactive implements the stateful mapping from feature snapshots
// to per-family lighting intents (C3). It owns genre palettes, scene
// motion policies, overclock tiering, and the beat/drop estimator, and
// emits intents synchronously through a caller-supplied callback so the
// engine tick never blocks on a dispatcher.
package reactive

import (
	"log/slog"
	"math/rand"
	"sync"
	"time"

	"github.com/NameSRoby/ravelink-bridge/internal/intent"
)

// EmitFunc receives one intent. Implementations must not block; the engine
// tick is not allowed to suspend on a dispatcher (SPEC_FULL.md §5).
type EmitFunc func(intent.Intent)

// Telemetry exposes the engine's observable counters and current decisions.
type Telemetry struct {
	OverclockSource OverclockSource
	EffectiveHz     float64
	SceneFallback   bool
	GenreFallback   bool
	Beats           uint64
	Drops           uint64
	ForcedDrops     uint64
	IdleTicks       uint64
}

// absoluteQuietTicks is how many consecutive silent ticks trigger the
// fail-safe idle drift described in spec.md §4.3.
const absoluteQuietTicks = 25

// Engine is the reactive state machine. Zero value is not usable; use New.
type Engine struct {
	mu sync.Mutex

	emit EmitFunc
	rng  *rand.Rand

	behavior      Behavior
	autoProfile   AutoProfile
	preset        ReactivityPreset
	genre         string
	scene         Scene
	flowIntensity float64

	overclockManual OverclockTier
	overclockAuto   bool
	metaAuto        bool

	hubZone string
	udpZone string

	motion     motionState
	beats      beatEstimator
	silence    int
	forceDrop  bool

	tel Telemetry
}

// New returns an Engine that calls emit for every intent it produces.
func New(emit EmitFunc) *Engine {
	return &Engine{
		emit:    emit,
		rng:     rand.New(rand.NewSource(1)),
		genre:   defaultPalette,
		scene:   SceneAuto,
		motion:  newMotionState(),
		hubZone: "all",
		udpZone: "all",
	}
}

// SetBehavior sets interpret/clamp/auto mode.
func (e *Engine) SetBehavior(b Behavior) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.behavior = b
}

// SetScene sets the motion policy by id, falling back to auto on an
// unrecognized value and recording the fallback in telemetry.
func (e *Engine) SetScene(id string) {
	e.mu.Lock()
	defer e.mu.Unlock()
	s, ok := parseScene(id)
	e.scene = s
	e.tel.SceneFallback = !ok
	if !ok {
		slog.Warn("reactive: unknown scene, falling back to auto", "scene", id)
	}
}

// SetAutoProfile sets the reactive/balanced/cinematic envelope weighting.
func (e *Engine) SetAutoProfile(p AutoProfile) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.autoProfile = p
}

// SetAudioReactivityPreset sets the gate-threshold/transient-weight preset.
func (e *Engine) SetAudioReactivityPreset(p ReactivityPreset) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.preset = p
}

// SetOverclock sets the manual tier. DEV tiers (>=20Hz) require unsafeAck.
func (e *Engine) SetOverclock(tier OverclockTier, unsafeAck bool) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if tier.IsDev() && !unsafeAck {
		return errUnsafeAckRequired
	}
	e.overclockManual = tier
	return nil
}

// SetOverclockAutoEnabled toggles automatic tier selection from recent
// audio energy.
func (e *Engine) SetOverclockAutoEnabled(b bool) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.overclockAuto = b
}

// SetMetaAutoEnabled toggles the higher-priority auto-tiering mode. Per
// SPEC_FULL.md §4.3, when both meta_auto and overclock_auto are enabled,
// meta_auto wins; the active decision is exposed via Telemetry().OverclockSource.
func (e *Engine) SetMetaAutoEnabled(b bool) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.metaAuto = b
}

// SetGenre sets the palette by name, falling back to the default palette
// on an unrecognized value and recording the fallback in telemetry.
func (e *Engine) SetGenre(name string) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if _, ok := lookupPalette(name); ok {
		e.genre = name
		e.tel.GenreFallback = false
		return
	}
	e.genre = defaultPalette
	e.tel.GenreFallback = true
	slog.Warn("reactive: unknown genre, falling back to default palette", "genre", name)
}

// SetGenreDecadeMode is a pass-through control the control surface exposes;
// the engine keeps no decade-mode state and discards mode, since decade
// playlists are the chat/config collaborator's concern.
func (e *Engine) SetGenreDecadeMode(mode string) {
	e.mu.Lock()
	defer e.mu.Unlock()
	_ = mode
}

// SetFlowIntensity sets the [0,1] flow intensity used to scale motion speed.
func (e *Engine) SetFlowIntensity(x float64) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.flowIntensity = clamp01(x)
}

// SetZones overrides the zone an emitted intent targets for each family.
func (e *Engine) SetZones(hubZone, udpZone string) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if hubZone != "" {
		e.hubZone = hubZone
	}
	if udpZone != "" {
		e.udpZone = udpZone
	}
}

// ForceDrop requests a single high-intensity intent be emitted on the very
// next Tick call, bypassing the normal level computation and any rate gate
// (forceDelta is set on the emitted intents).
func (e *Engine) ForceDrop() {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.forceDrop = true
	e.tel.ForcedDrops++
}

// Telemetry returns a copy of the engine's current counters/decisions.
func (e *Engine) Telemetry() Telemetry {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.tel
}

// activeTier resolves the overclock tier and records which control decided
// it, per the meta_auto > overclock_auto priority rule.
func (e *Engine) activeTier(snap intent.Snapshot) (OverclockTier, OverclockSource) {
	if e.metaAuto {
		return autoTierFor(snap), SourceMetaAuto
	}
	if e.overclockAuto {
		return autoTierFor(snap), SourceOverclockAuto
	}
	return e.overclockManual, SourceManual
}

// autoTierFor picks a tier from recent loudness: louder audio gets a
// higher tick rate so fast motion policies stay visually smooth.
func autoTierFor(snap intent.Snapshot) OverclockTier {
	switch {
	case snap.Level > 0.8:
		return Tier6
	case snap.Level > 0.6:
		return Tier4
	case snap.Level > 0.35:
		return Tier2
	default:
		return Tier0
	}
}

// EffectiveRateHz returns the tick rate the engine is currently configured
// to run at, given the last snapshot seen.
func (e *Engine) EffectiveRateHz(snap intent.Snapshot) float64 {
	e.mu.Lock()
	defer e.mu.Unlock()
	tier, src := e.activeTier(snap)
	hz := tier.Hz()
	if hz == 0 {
		hz = Tier2.Hz()
	}
	e.tel.EffectiveHz = hz
	e.tel.OverclockSource = src
	return hz
}

// Tick consumes one feature snapshot and emits zero or more intents. It
// never blocks: emit is expected to be a cheap handoff (channel send with
// coalescing, or a direct dispatcher call that itself does not block).
func (e *Engine) Tick(snap intent.Snapshot) {
	e.mu.Lock()

	hz, src := e.activeTier(snap)
	effHz := hz.Hz()
	if effHz == 0 {
		effHz = Tier2.Hz()
	}
	e.tel.EffectiveHz = effHz
	e.tel.OverclockSource = src
	rateMs := int(1000 / effHz)

	forceDrop := e.forceDrop
	e.forceDrop = false

	quiet := snap.Level == 0 && snap.BandLow == 0 && snap.BandMid == 0 && snap.BandHigh == 0
	if quiet && !forceDrop {
		e.silence++
	} else {
		e.silence = 0
	}
	idle := e.silence >= absoluteQuietTicks

	behavior, autoProfile, preset := e.behavior, e.autoProfile, e.preset

	weightedTransient := clamp01(snap.Transient * preset.transientWeight())
	beat, drop := e.beats.Step(snap.SpectralFlux, weightedTransient)
	if beat {
		e.tel.Beats++
	}
	if drop {
		e.tel.Drops++
	}

	pal, ok := lookupPalette(e.genre)
	if !ok {
		pal, _ = lookupPalette(defaultPalette)
	}
	policy := e.scene.motionPolicy()

	level := snap.Level
	if forceDrop {
		level = 1
	} else if idle {
		level = 0
	} else {
		level = behavior.apply(level, snap.SpectralFlux)
		if level < preset.gateThreshold() {
			level = 0
		}
	}

	speedHz := effHz * (0.4 + e.flowIntensity*0.6) * autoProfile.speedScale()
	phase := e.motion.advance(policy, speedHz, level)

	var r, g, b float64
	switch policy {
	case motionPulse:
		r, g, b = pal.sample(phase * 0.45)
	case motionSpark:
		if e.rng.Float64() < sparkChance(level, 0.05) {
			phase = e.rng.Float64()
		}
		r, g, b = pal.sample(phase)
	default:
		r, g, b = pal.sample(phase)
	}

	hue, sat, bri := rgbToHSV(r, g, b)
	if policy == motionPulse {
		briF := pulseBrightness(20, 255, phase)
		bri = uint8(clamp(briF, 0, 255))
	}
	if forceDrop {
		bri = 255
		sat = 255
	} else if idle {
		bri = 0
	}

	hubZone, udpZone := e.hubZone, e.udpZone
	emit := e.emit
	e.mu.Unlock()

	hubIntent := intent.HubState{
		State: intent.HubColor{
			Hue:            hue,
			Sat:            sat,
			Bri:            bri,
			On:             bri > 0,
			TransitionTime: uint16(clamp(float64(rateMs)/100*autoProfile.transitionScale(), 1, 50)),
		},
		ZoneName:   hubZone,
		RateMs:     rateMs,
		ForceDelta: forceDrop,
		DeltaScale: 1,
	}

	udpIntent := intent.UdpPulse{
		Color: intent.UdpColor{
			R:       toByte(r * level),
			G:       toByte(g * level),
			B:       toByte(b * level),
			Dimming: dimmingFromLevel(level),
		},
		ZoneName:   udpZone,
		RateMs:     rateMs,
		ForceDelta: forceDrop,
		DeltaScale: 1,
		Beat:       beat,
		Drop:       drop,
		Band:       dominantBand(snap),
	}

	if emit == nil {
		return
	}
	emit(hubIntent)
	emit(udpIntent)

	if idle {
		e.mu.Lock()
		e.tel.IdleTicks++
		e.mu.Unlock()
	}
}

func dominantBand(snap intent.Snapshot) string {
	switch {
	case snap.BandLow >= snap.BandMid && snap.BandLow >= snap.BandHigh:
		return "low"
	case snap.BandMid >= snap.BandHigh:
		return "mid"
	default:
		return "high"
	}
}

// Run drives Tick at the engine's current effective rate from snapshots
// produced by source, until ctx is cancelled. Only the most recent
// snapshot is kept between ticks; the feature extractor's cadence and the
// engine's tick cadence are allowed to differ.
func (e *Engine) Run(ctxDone <-chan struct{}, source <-chan intent.Snapshot) {
	var latest intent.Snapshot
	have := false

	ticker := time.NewTicker(time.Duration(1000/Tier2.Hz()) * time.Millisecond)
	defer ticker.Stop()

	for {
		select {
		case <-ctxDone:
			return
		case snap, ok := <-source:
			if !ok {
				return
			}
			latest = snap
			have = true
		case <-ticker.C:
			if !have {
				continue
			}
			e.Tick(latest)
			hz := e.EffectiveRateHz(latest)
			if hz <= 0 {
				hz = Tier2.Hz()
			}
			ticker.Reset(time.Duration(1000/hz) * time.Millisecond)
		}
	}
}
