package reactive

import "math"

// Behavior selects how aggressively the engine interprets feature envelopes
// into intents (spec.md §4.3).
type Behavior int

const (
	BehaviorAuto Behavior = iota
	BehaviorInterpret
	BehaviorClamp
)

func (b Behavior) String() string {
	switch b {
	case BehaviorInterpret:
		return "interpret"
	case BehaviorClamp:
		return "clamp"
	default:
		return "auto"
	}
}

// apply shapes a tick's level per spec.md §4.3: interpret passes the level
// straight through, clamp quantizes it into coarse steps to kill jitter,
// and auto is interpret with a flux-proportional damper applied on top.
func (b Behavior) apply(level, flux float64) float64 {
	switch b {
	case BehaviorClamp:
		return math.Round(level*4) / 4
	case BehaviorAuto:
		damp := 1 - clamp01(flux)*0.5
		return level * damp
	default:
		return level
	}
}

// AutoProfile shifts motion speed and hub transition lengths; it does not
// change envelope weightings.
type AutoProfile int

const (
	ProfileReactive AutoProfile = iota
	ProfileBalanced
	ProfileCinematic
)

// speedScale biases motion speed: reactive runs hot, cinematic runs slow
// and smooth, balanced is the engine's base speed.
func (p AutoProfile) speedScale() float64 {
	switch p {
	case ProfileReactive:
		return 1.3
	case ProfileCinematic:
		return 0.65
	default:
		return 1.0
	}
}

// transitionScale biases the hub's per-frame transition time: reactive
// snaps quickly, cinematic eases, balanced uses the rate-derived default.
func (p AutoProfile) transitionScale() float64 {
	switch p {
	case ProfileReactive:
		return 0.6
	case ProfileCinematic:
		return 1.8
	default:
		return 1.0
	}
}

// ReactivityPreset shifts gate thresholds and transient weight.
type ReactivityPreset int

const (
	PresetBalanced ReactivityPreset = iota
	PresetAggressive
	PresetPrecision
)

// gateThreshold is the minimum post-behavior level treated as audible;
// aggressive reacts to quieter passages, precision demands a clearer signal.
func (p ReactivityPreset) gateThreshold() float64 {
	switch p {
	case PresetAggressive:
		return 0.03
	case PresetPrecision:
		return 0.12
	default:
		return 0.06
	}
}

// transientWeight scales the transient energy fed to the beat estimator.
func (p ReactivityPreset) transientWeight() float64 {
	switch p {
	case PresetAggressive:
		return 1.4
	case PresetPrecision:
		return 0.7
	default:
		return 1.0
	}
}

// Scene selects the motion policy driving hue/brightness evolution.
type Scene int

const (
	// SceneAuto uses the sweep motion policy, like SceneIdleSoft.
	SceneAuto Scene = iota
	SceneIdleSoft
	SceneFlow
	ScenePulseDrive
)

func parseScene(id string) (Scene, bool) {
	switch id {
	case "", "auto":
		return SceneAuto, true
	case "idle_soft":
		return SceneIdleSoft, true
	case "flow":
		return SceneFlow, true
	case "pulse_drive":
		return ScenePulseDrive, true
	default:
		return SceneAuto, false
	}
}

// motionPolicy is the low-level hue/bounce/pulse/spark curve a scene maps to.
type motionPolicy int

const (
	motionSweep motionPolicy = iota
	motionBounce
	motionPulse
	motionSpark
)

func (s Scene) motionPolicy() motionPolicy {
	switch s {
	case SceneIdleSoft:
		return motionSweep
	case SceneFlow:
		return motionBounce
	case ScenePulseDrive:
		return motionPulse
	default:
		return motionSweep
	}
}

// OverclockTier is a named preset of effective engine tick rate. Tiers 0-7
// are the safe range; DEV tiers require an explicit unsafe acknowledgement.
type OverclockTier int

const (
	Tier0 OverclockTier = iota
	Tier1
	Tier2
	Tier3
	Tier4
	Tier5
	Tier6
	Tier7
	TierDev20
	TierDev30
	TierDev40
	TierDev50
	TierDev60
)

var tierHz = map[OverclockTier]float64{
	Tier0: 2, Tier1: 4, Tier2: 6, Tier3: 8, Tier4: 10, Tier5: 12, Tier6: 14, Tier7: 16,
	TierDev20: 20, TierDev30: 30, TierDev40: 40, TierDev50: 50, TierDev60: 60,
}

// Hz returns the tier's effective tick rate, 0 for an unrecognized tier.
func (t OverclockTier) Hz() float64 { return tierHz[t] }

// IsDev reports whether t is one of the unsafe-acknowledgement-gated tiers.
func (t OverclockTier) IsDev() bool { return t >= TierDev20 }

// OverclockSource records which control decided the active tier, resolving
// the engine's overclock_auto/meta_auto priority ambiguity: when both are
// enabled, meta_auto wins (see SPEC_FULL.md §4.3).
type OverclockSource int

const (
	SourceManual OverclockSource = iota
	SourceOverclockAuto
	SourceMetaAuto
)

func (s OverclockSource) String() string {
	switch s {
	case SourceOverclockAuto:
		return "overclock_auto"
	case SourceMetaAuto:
		return "meta_auto"
	default:
		return "manual"
	}
}
