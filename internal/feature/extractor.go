// Package feature implements the audio feature extractor (spec.md §4.2):
// one allocation-free Process call per raw frame, producing a Snapshot of
// level, band energies, transient/flux, and adaptive-normalization state.
//
// The extractor is composed of small single-purpose stateful processors in
// the style of the teacher's agc/vad/noisegate packages (a struct holding
// only the state it needs and one or two hot methods: bandSplitter.Split,
// envelope.Step, adaptiveRange.Update/Normalize) rather than one monolithic
// function — each sub-processor is independently testable.
package feature

import (
	"math"

	"github.com/NameSRoby/ravelink-bridge/internal/intent"
)

// Config holds the tunable extraction parameters (spec.md §4.2).
type Config struct {
	SampleRate  float64
	BandLowHz   float64
	BandMidHz   float64
	NoiseFloor  float64
	TargetRMS   float64
	MinGain     float64
	MaxGain     float64
	OutputGain  float64
	AutoGainOn  bool
}

// DefaultConfig returns the spec's suggested defaults.
func DefaultConfig() Config {
	return Config{
		SampleRate: 48000,
		BandLowHz:  150,
		BandMidHz:  2000,
		NoiseFloor: 0.0015,
		TargetRMS:  0.2,
		MinGain:    0.25,
		MaxGain:    4.0,
		OutputGain: 1.0,
		AutoGainOn: true,
	}
}

// Extractor holds all extractor state across frames. Zero value is not
// usable; use New.
type Extractor struct {
	cfg Config

	bands bandSplitter
	adapt adaptiveRange

	envFast envelope
	envMid  envelope
	envSlow envelope

	prevLowN, prevMidN, prevHighN float64
	transientLP                   float64

	loudnessEma float64
	autoGain    float64

	peakHold float64
}

// New returns an Extractor configured with cfg.
func New(cfg Config) *Extractor {
	e := &Extractor{
		cfg:      cfg,
		bands:    newBandSplitter(cfg.SampleRate, cfg.BandLowHz, cfg.BandMidHz),
		envFast:  envelope{attack: 0.68, release: 0.24},
		envMid:   envelope{attack: 0.24, release: 0.11},
		envSlow:  envelope{attack: 0.055, release: 0.038},
		autoGain: 1.0,
	}
	e.adapt.floor = cfg.NoiseFloor
	e.adapt.ceil = 0.05
	return e
}

// Process consumes one downmixed-to-mono frame and returns the Snapshot for
// this tick. The caller must not hold onto the returned Snapshot as a
// pointer to retained state — it is a plain value.
func (e *Extractor) Process(mono []float32) intent.Snapshot {
	if len(mono) == 0 {
		return intent.Snapshot{}
	}

	rms := rms64(mono)
	peak := peak64(mono)
	zcr := zcr64(mono)

	low, mid, high := e.bands.Split(mono)
	sum := low + mid + high
	if sum > 1e-9 {
		low, mid, high = low/sum, mid/sum, high/sum
	} else {
		low, mid, high = 0, 0, 0
	}

	flux := posDiff(low, e.prevLowN) + posDiff(mid, e.prevMidN) + posDiff(high, e.prevHighN)
	if flux > 1 {
		flux = 1
	}
	e.prevLowN, e.prevMidN, e.prevHighN = low, mid, high

	// Absolute-quiet gate.
	gateThresh := e.cfg.NoiseFloor * 8
	if gateThresh < 0.0045 {
		gateThresh = 0.0045
	}
	quiet := rms < gateThresh && peak < 3*gateThresh
	if quiet {
		low, mid, high, flux = 0, 0, 0, 0
	}

	e.adapt.Update(rms, peak, e.cfg.NoiseFloor)
	normalized := e.adapt.Normalize(rms)

	e.envFast.Step(normalized)
	e.envMid.Step(normalized)
	e.envSlow.Step(normalized)

	transient := clamp01((e.envFast.value - e.peakHold) * 2.3)
	e.peakHold = e.envFast.value
	e.transientLP += (transient - e.transientLP) * 0.5
	transient = e.transientLP

	if quiet {
		// Geometric decay toward zero keeps lights coherent on silence
		// (spec.md §4.3 fail-safe) without resetting adaptive state.
		e.envFast.value *= 0.9
		e.envMid.value *= 0.9
		e.envSlow.value *= 0.9
	}

	if e.cfg.AutoGainOn {
		e.loudnessEma += (normalized - e.loudnessEma) * 0.05
		target := e.cfg.TargetRMS / math.Max(e.loudnessEma, 1e-6)
		target = clamp(target, e.cfg.MinGain, e.cfg.MaxGain)
		coeff := 0.02
		if target < e.autoGain {
			coeff = 0.08
		}
		e.autoGain += (target - e.autoGain) * coeff
	} else {
		e.autoGain = 1.0
	}

	punch := clamp01(e.envFast.value - e.envMid.value)
	raw := e.peakHold*2.25 + transient*1.55 + e.envMid.value*1.35 + e.envSlow.value*1.1 + punch*0.35
	raw *= e.cfg.OutputGain * e.autoGain
	level := softLimit(raw, 0.72, 0.3)

	return intent.Snapshot{
		Level:         clamp01(level),
		Peak:          clamp01(peak),
		RMS:           clamp01(rms),
		BandLow:       low,
		BandMid:       mid,
		BandHigh:      high,
		Transient:     transient,
		SpectralFlux:  flux,
		ZCR:           zcr,
		AutoGain:      e.autoGain,
		AdaptiveFloor: e.adapt.floor,
		AdaptiveCeil:  e.adapt.ceil,
	}
}

func clamp(x, lo, hi float64) float64 {
	if x < lo {
		return lo
	}
	if x > hi {
		return hi
	}
	return x
}

func clamp01(x float64) float64 { return clamp(x, 0, 1) }

func posDiff(cur, prev float64) float64 {
	d := cur - prev
	if d < 0 {
		return 0
	}
	return d
}

// softLimit applies a knee-limited soft clip above threshold, per spec.md
// §4.2: softLimit(x) = threshold + (1-threshold)(1 - e^{-(x-threshold)/knee}).
func softLimit(x, threshold, knee float64) float64 {
	if x <= threshold {
		return x
	}
	return threshold + (1-threshold)*(1-math.Exp(-(x-threshold)/knee))
}

func rms64(frame []float32) float64 {
	var sum float64
	for _, s := range frame {
		v := float64(s)
		sum += v * v
	}
	return math.Sqrt(sum / float64(len(frame)))
}

func peak64(frame []float32) float64 {
	var m float64
	for _, s := range frame {
		v := math.Abs(float64(s))
		if v > m {
			m = v
		}
	}
	return m
}

func zcr64(frame []float32) float64 {
	if len(frame) < 2 {
		return 0
	}
	crossings := 0
	for i := 1; i < len(frame); i++ {
		if (frame[i-1] >= 0) != (frame[i] >= 0) {
			crossings++
		}
	}
	return float64(crossings) / float64(len(frame))
}
