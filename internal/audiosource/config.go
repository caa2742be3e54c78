// Package audiosource implements PCM capture (C1): a native loopback
// driver backend, an external muxer subprocess backend, device selection
// policy, optional per-application isolation, and a stall watchdog.
package audiosource

import "time"

// Backend selects which capture implementation a Source uses.
type Backend int

const (
	BackendAuto Backend = iota
	BackendNative
	BackendMuxer
)

// IsolationConfig configures per-application capture isolation.
type IsolationConfig struct {
	Enabled     bool
	PrimaryApp  string
	FallbackApp string
	Strict      bool
	ScanInterval time.Duration
}

// Config is the full audio configuration persisted/consumed per spec.md §6.
type Config struct {
	Backend Backend

	DeviceID     int // explicit device id, -1 = unset
	DeviceMatch  string // case-insensitive substring match
	SampleRate   float64
	Channels     int
	FramesPerBuffer int

	MuxerCommand []string // e.g. ["ffmpeg", "-f", "...", "-i", "..."]

	Isolation IsolationConfig

	WatchdogMs int
	RestartMs  int
}

// keywordPriority is the device auto-pick priority list from spec.md §4.1.
var keywordPriority = []string{"loopback", "stereo mix", "cable output", "monitor of", "mix"}

// DefaultConfig returns sensible capture defaults.
func DefaultConfig() Config {
	return Config{
		Backend:         BackendAuto,
		DeviceID:        -1,
		SampleRate:      48000,
		Channels:        2,
		FramesPerBuffer: 960,
		WatchdogMs:      2000,
		RestartMs:       1500,
	}
}
