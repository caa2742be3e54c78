package feature

import "math"

// bandSplitter tracks two parallel first-order low-pass filters (both fed
// the raw sample) and derives
// low/mid/high band energy from their outputs, per spec.md §4.2: low = lpLow,
// mid = lpMid - lpLow, high = sample - lpMid. Grounded in the teacher's
// single-purpose small-processor style (agc.go, noisegate.go): one struct,
// one hot method.
type bandSplitter struct {
	alphaLow, alphaMid float64
	lpLow, lpMid       float64
}

func newBandSplitter(sampleRate, lowHz, midHz float64) bandSplitter {
	return bandSplitter{
		alphaLow: lpAlpha(lowHz, sampleRate),
		alphaMid: lpAlpha(midHz, sampleRate),
	}
}

func lpAlpha(fc, sampleRate float64) float64 {
	if sampleRate <= 0 {
		return 1
	}
	return 1 - math.Exp(-2*math.Pi*fc/sampleRate)
}

// Split runs every sample in frame through both filters and returns the RMS
// energy of the low/mid/high bands over the frame.
func (b *bandSplitter) Split(frame []float32) (low, mid, high float64) {
	var sumLow, sumMid, sumHigh float64
	for _, s := range frame {
		x := float64(s)
		b.lpLow += (x - b.lpLow) * b.alphaLow
		b.lpMid += (x - b.lpMid) * b.alphaMid

		l := b.lpLow
		m := b.lpMid - b.lpLow
		h := x - b.lpMid

		sumLow += l * l
		sumMid += m * m
		sumHigh += h * h
	}
	n := float64(len(frame))
	if n == 0 {
		return 0, 0, 0
	}
	return math.Sqrt(sumLow / n), math.Sqrt(sumMid / n), math.Sqrt(sumHigh / n)
}
