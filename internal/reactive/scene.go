package reactive

import "math"

// motionState is the evolving phase/direction carried between ticks for
// the active motion policy.
type motionState struct {
	phase     float64
	direction float64
}

func newMotionState() motionState {
	return motionState{phase: 0, direction: 1}
}

// advance steps phase by clamp(hz*level/10, 0.002, 0.2) (scaled by 0.45 for
// pulse, reflected at the ends for bounce) and returns the sample point in
// [0,1) the palette should be evaluated at for this tick.
func (m *motionState) advance(policy motionPolicy, hz, level float64) float64 {
	step := clamp(hz*level/10, 0.002, 0.2)
	switch policy {
	case motionBounce:
		m.phase += step * m.direction
		if m.phase >= 1 {
			m.phase = 1
			m.direction = -1
		} else if m.phase <= 0 {
			m.phase = 0
			m.direction = 1
		}
	case motionPulse:
		m.phase += step * 0.45
	default: // sweep, spark share a monotone phase advance
		m.phase += step
	}
	m.phase -= math.Floor(m.phase)
	return m.phase
}

// pulseBrightness implements the pulse scene's brightness curve.
func pulseBrightness(floorB, ceilB, phase float64) float64 {
	return floorB + (ceilB-floorB)*(0.5+0.5*math.Sin(2*math.Pi*phase))
}

// sparkChance implements the spark scene's jump probability.
func sparkChance(energy, step float64) float64 {
	return clamp01((0.18+0.65*energy)*step*2.4)
}
