package feature

import (
	"math"
	"testing"
)

func sineFrame(freq, sampleRate float64, n int, amp float32, phase *float64) []float32 {
	frame := make([]float32, n)
	step := 2 * math.Pi * freq / sampleRate
	for i := range frame {
		frame[i] = amp * float32(math.Sin(*phase))
		*phase += step
	}
	return frame
}

// TestAdaptiveNormalizationBounds is invariant 9 from spec.md §8: floor >=
// noiseFloorMin, ceil in [0.01, 0.65], level always in [0,1].
func TestAdaptiveNormalizationBounds(t *testing.T) {
	cfg := DefaultConfig()
	ex := New(cfg)
	phase := 0.0
	for i := 0; i < 500; i++ {
		frame := sineFrame(440, cfg.SampleRate, 960, 0.3, &phase)
		snap := ex.Process(frame)
		if snap.Level < 0 || snap.Level > 1 {
			t.Fatalf("tick %d: level out of bounds: %v", i, snap.Level)
		}
		if snap.AdaptiveFloor < cfg.NoiseFloor-1e-9 {
			t.Fatalf("tick %d: floor below noise floor min: %v", i, snap.AdaptiveFloor)
		}
		if snap.AdaptiveCeil < 0.01 || snap.AdaptiveCeil > 0.65 {
			t.Fatalf("tick %d: ceil out of bounds: %v", i, snap.AdaptiveCeil)
		}
	}
}

func TestSilenceProducesZeroSnapshot(t *testing.T) {
	ex := New(DefaultConfig())
	silence := make([]float32, 960)
	var lastLevel float64
	for i := 0; i < 50; i++ {
		snap := ex.Process(silence)
		lastLevel = snap.Level
		if snap.BandLow != 0 || snap.BandMid != 0 || snap.BandHigh != 0 {
			t.Fatalf("tick %d: expected gated bands to be zero, got %v/%v/%v", i, snap.BandLow, snap.BandMid, snap.BandHigh)
		}
	}
	if lastLevel > 0.05 {
		t.Fatalf("expected level to settle near zero on silence, got %v", lastLevel)
	}
}

func TestEmptyFrameIsZeroValue(t *testing.T) {
	ex := New(DefaultConfig())
	snap := ex.Process(nil)
	if snap.Level != 0 || snap.RMS != 0 {
		t.Fatalf("expected zero snapshot for empty frame, got %+v", snap)
	}
}

func TestSoftLimitClampsAboveThreshold(t *testing.T) {
	v := softLimit(5.0, 0.72, 0.3)
	if v <= 0.72 || v > 1.0001 {
		t.Fatalf("softLimit should stay close to/above threshold but bounded, got %v", v)
	}
	if got := softLimit(0.5, 0.72, 0.3); got != 0.5 {
		t.Fatalf("below threshold should pass through unchanged, got %v", got)
	}
}

func TestBandSplitterYieldsNonzeroBandEnergy(t *testing.T) {
	bs := newBandSplitter(48000, 150, 2000)
	phase := 0.0
	frame := sineFrame(1000, 48000, 960, 0.5, &phase)
	low, mid, high := bs.Split(frame)
	sum := low + mid + high
	if sum <= 0 {
		t.Fatalf("expected nonzero band energy, got sum=%v", sum)
	}
}
