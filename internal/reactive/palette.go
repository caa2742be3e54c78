package reactive

// anchor is one RGB palette point assigned to a frequency band.
type anchor struct {
	R, G, B float64
}

// palette is a genre's per-band color anchor set.
type palette struct {
	name    string
	anchors []anchor
}

// palettes holds the per-genre anchor sets (two to five anchors each) and
// single-anchor color-family palettes (red, yellow, green, cyan, blue).
// Each entry has a fixed anchor count; there is no count-constrained variant.
var palettes = map[string]palette{
	"edm":      {name: "edm", anchors: []anchor{{0, 1, 1}, {1, 0, 1}, {1, 1, 0}, {0, 1, 0}, {0, 0.4, 1}}},
	"house":    {name: "house", anchors: []anchor{{1, 0.2, 0.6}, {0.6, 0, 1}, {0, 0.8, 1}}},
	"dnb":      {name: "dnb", anchors: []anchor{{1, 0, 0}, {1, 0.5, 0}, {1, 1, 0}, {0.6, 0, 1}}},
	"ambient":  {name: "ambient", anchors: []anchor{{0.2, 0.3, 1}, {0.4, 0.1, 0.6}}},
	"trap":     {name: "trap", anchors: []anchor{{0.8, 0, 1}, {0, 1, 0.8}, {1, 0, 0.4}}},
	"red":      {name: "red", anchors: []anchor{{1, 0, 0}}},
	"yellow":   {name: "yellow", anchors: []anchor{{1, 1, 0}}},
	"green":    {name: "green", anchors: []anchor{{0, 1, 0}}},
	"cyan":     {name: "cyan", anchors: []anchor{{0, 1, 1}}},
	"blue":     {name: "blue", anchors: []anchor{{0, 0, 1}}},
}

// defaultPalette is the engine's fallback when a genre is unrecognized,
// per spec.md §4.3: "falls back to auto/edm and reports via telemetry."
const defaultPalette = "edm"

func lookupPalette(genre string) (palette, bool) {
	p, ok := palettes[genre]
	return p, ok
}

// sample interpolates the palette's anchors by a phase in [0,1) and returns
// an RGB triple used to derive hue for hub intents and r/g/b for udp ones.
func (p palette) sample(phase float64) (r, g, b float64) {
	n := len(p.anchors)
	if n == 0 {
		return 1, 1, 1
	}
	if n == 1 {
		a := p.anchors[0]
		return a.R, a.G, a.B
	}
	phase = phase - float64(int(phase))
	if phase < 0 {
		phase++
	}
	scaled := phase * float64(n)
	i := int(scaled) % n
	j := (i + 1) % n
	frac := scaled - float64(int(scaled))
	a, bnext := p.anchors[i], p.anchors[j]
	return a.R + (bnext.R-a.R)*frac, a.G + (bnext.G-a.G)*frac, a.B + (bnext.B-a.B)*frac
}
