package reactive

import "math"

// rgbToHSV converts a linear RGB triple in [0,1] to the hub's hue/sat/bri
// space: hue as a 16-bit ring value, sat/bri as 8-bit.
func rgbToHSV(r, g, b float64) (hue uint16, sat, bri uint8) {
	max := math.Max(r, math.Max(g, b))
	min := math.Min(r, math.Min(g, b))
	delta := max - min

	var h float64
	switch {
	case delta == 0:
		h = 0
	case max == r:
		h = math.Mod((g-b)/delta, 6)
	case max == g:
		h = (b-r)/delta + 2
	default:
		h = (r-g)/delta + 4
	}
	h *= 60
	if h < 0 {
		h += 360
	}

	var s float64
	if max > 0 {
		s = delta / max
	}

	hue = uint16(clamp(h/360*65535, 0, 65535))
	sat = uint8(clamp(s*255, 0, 255))
	bri = uint8(clamp(max*255, 0, 255))
	return hue, sat, bri
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

func clamp01(v float64) float64 { return clamp(v, 0, 1) }

func toByte(v float64) uint8 { return uint8(clamp(v*255, 0, 255)) }

// dimmingFromLevel maps a [0,1] output level to the udp family's 10-100
// dimming range.
func dimmingFromLevel(level float64) uint8 {
	return uint8(clamp(10+level*90, 10, 100))
}
