package animator

import (
	"math"
	"math/rand"
)

func lerp(lo, hi, t float64) float64 { return lo + (hi-lo)*t }

// stepMotion advances one fixture's phase/direction and derives its
// hue/sat/bri (or cct/bri) output for the current tick, implementing the
// four motion policies from spec.md §4.8.
func stepMotion(s *State, step float64, rng *rand.Rand, energy float64) {
	switch s.Scene {
	case SceneBounce:
		s.MotionPhase += step * s.MotionDirection
		if s.MotionPhase >= 1 {
			s.MotionPhase = 1
			s.MotionDirection = -1
		} else if s.MotionPhase <= 0 {
			s.MotionPhase = 0
			s.MotionDirection = 1
		}
		applyLinear(s, s.MotionPhase)

	case ScenePulse:
		s.MotionPhase += step * 0.45
		s.MotionPhase -= math.Floor(s.MotionPhase)
		floorB, ceilB := s.RangeMins[2], s.RangeMaxs[2]
		bri := floorB + (ceilB-floorB)*(0.5+0.5*math.Sin(2*math.Pi*s.MotionPhase))
		s.Bri = toByte(bri)
		if s.ColorMode == ColorModeHSV {
			s.Hue = toByte(lerp(s.RangeMins[0], s.RangeMaxs[0], s.MotionPhase))
		} else {
			s.CCTKelvin = int(lerp(s.RangeMins[0], s.RangeMaxs[0], s.MotionPhase))
		}

	case SceneSpark:
		chance := clamp01((0.18+0.65*energy)*step*2.4)
		if rng.Float64() < chance {
			s.MotionPhase = rng.Float64()
			applyLinear(s, s.MotionPhase)
		}

	default: // SceneSweep
		s.MotionPhase += step
		s.MotionPhase -= math.Floor(s.MotionPhase)
		applyLinear(s, s.MotionPhase)
	}
}

// applyLinear interpolates hue/sat/bri (or cct/bri) linearly across the
// fixture's configured ranges at the given phase.
func applyLinear(s *State, phase float64) {
	if s.ColorMode == ColorModeHSV {
		s.Hue = toByte(lerp(s.RangeMins[0], s.RangeMaxs[0], phase))
		s.Sat = toByte(lerp(s.RangeMins[1], s.RangeMaxs[1], phase))
	} else {
		s.CCTKelvin = int(lerp(s.RangeMins[0], s.RangeMaxs[0], phase))
	}
	s.Bri = toByte(lerp(s.RangeMins[2], s.RangeMaxs[2], phase))
}

func toByte(v float64) uint8 {
	return uint8(clamp(v, 0, 255))
}
