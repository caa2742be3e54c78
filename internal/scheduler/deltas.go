package scheduler

import "math"

// Hub state vector indices for HueDelta-based scheduling.
const (
	HubIdxHue = iota
	HubIdxSat
	HubIdxBri
	hubComponents
)

// Udp state vector indices.
const (
	UdpIdxR = iota
	UdpIdxG
	UdpIdxB
	UdpIdxDim
	udpComponents
)

// HueDelta computes the circular distance between two hues on the 65535
// ring, per spec.md §4.4 and its recurring-bug-surface note in §9:
// min(|Δ|, 65535 - |Δ|).
func HueDelta(a, b float64) float64 {
	d := math.Abs(a - b)
	if d > 65535-d {
		return 65535 - d
	}
	return d
}

// HubDefaults returns the spec's default hub scheduler Options
// (minInterval=218ms, maxSilence=900ms) and a Gate using hub deltas
// (Δhue=300, Δbri=5, Δsat=5 at scale 1).
func HubDefaults() (Options, *Gate) {
	opts := Options{MinIntervalMs: 218, MaxSilenceMs: 900, DeltaScale: 1}
	gate := New(hubDeltaFunc)
	return opts, gate
}

func hubDeltaFunc(prev, next State) ([]float64, []float64) {
	deltas := make([]float64, hubComponents)
	limits := make([]float64, hubComponents)
	deltas[HubIdxHue] = HueDelta(prev[HubIdxHue], next[HubIdxHue])
	limits[HubIdxHue] = 300
	deltas[HubIdxSat] = math.Abs(prev[HubIdxSat] - next[HubIdxSat])
	limits[HubIdxSat] = 5
	deltas[HubIdxBri] = math.Abs(prev[HubIdxBri] - next[HubIdxBri])
	limits[HubIdxBri] = 5
	return deltas, limits
}

// UdpDefaults returns the spec's default udp scheduler Options
// (minInterval=90ms, maxSilence=700ms) and a Gate using udp deltas
// (Δr=Δg=Δb=4, Δdim=1 at scale 1).
func UdpDefaults() (Options, *Gate) {
	opts := Options{MinIntervalMs: 90, MaxSilenceMs: 700, DeltaScale: 1}
	gate := New(udpDeltaFunc)
	return opts, gate
}

func udpDeltaFunc(prev, next State) ([]float64, []float64) {
	deltas := make([]float64, udpComponents)
	limits := make([]float64, udpComponents)
	deltas[UdpIdxR] = math.Abs(prev[UdpIdxR] - next[UdpIdxR])
	limits[UdpIdxR] = 4
	deltas[UdpIdxG] = math.Abs(prev[UdpIdxG] - next[UdpIdxG])
	limits[UdpIdxG] = 4
	deltas[UdpIdxB] = math.Abs(prev[UdpIdxB] - next[UdpIdxB])
	limits[UdpIdxB] = 4
	deltas[UdpIdxDim] = math.Abs(prev[UdpIdxDim] - next[UdpIdxDim])
	limits[UdpIdxDim] = 1
	return deltas, limits
}

// HubState packs a hub color into a scheduler State vector.
func HubState(hue, sat, bri float64) State {
	return State{hue, sat, bri}
}

// UdpState packs a udp color into a scheduler State vector.
func UdpState(r, g, b, dim float64) State {
	return State{r, g, b, dim}
}
