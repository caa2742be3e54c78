package bridge

import "math"

// hsvToRGB converts normalized HSV (each in [0,1]) to 8-bit RGB, the
// inverse of the reactive engine's rgbToHSV, grounded in the same
// sector-based conversion.
func hsvToRGB(h, s, v float64) (r, g, b uint8) {
	if s <= 0 {
		byteV := toByte(v)
		return byteV, byteV, byteV
	}

	h6 := h * 6
	sector := int(math.Floor(h6))
	frac := h6 - float64(sector)

	p := v * (1 - s)
	q := v * (1 - s*frac)
	t := v * (1 - s*(1-frac))

	var rf, gf, bf float64
	switch sector % 6 {
	case 0:
		rf, gf, bf = v, t, p
	case 1:
		rf, gf, bf = q, v, p
	case 2:
		rf, gf, bf = p, v, t
	case 3:
		rf, gf, bf = p, q, v
	case 4:
		rf, gf, bf = t, p, v
	default:
		rf, gf, bf = v, p, q
	}

	return toByte(rf), toByte(gf), toByte(bf)
}

func toByte(v float64) uint8 { return uint8(clamp(v*255, 0, 255)) }

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
