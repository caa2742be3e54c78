package audiosource

import (
	"sync"
	"testing"
	"time"
)

func withFakeClock(start time.Time) func() {
	orig := nowFn
	cur := start
	nowFn = func() time.Time { return cur }
	return func() { nowFn = orig }
}

func advance(d time.Duration) {
	cur := nowFn().Add(d)
	nowFn = func() time.Time { return cur }
}

func TestSelectDeviceExplicitIDWins(t *testing.T) {
	devices := []Device{{ID: 0, Name: "Built-in Mic"}, {ID: 2, Name: "Loopback"}}
	cfg := Config{DeviceID: 0}
	got, ok := selectDevice(devices, cfg)
	if !ok || got.ID != 0 {
		t.Fatalf("expected explicit device id 0, got %+v ok=%v", got, ok)
	}
}

func TestSelectDeviceFallsBackToKeywordPriority(t *testing.T) {
	devices := []Device{{ID: 0, Name: "Built-in Mic"}, {ID: 1, Name: "CABLE Output (VB-Audio)"}}
	cfg := Config{DeviceID: -1}
	got, ok := selectDevice(devices, cfg)
	if !ok || got.ID != 1 {
		t.Fatalf("expected keyword-priority match on CABLE Output, got %+v ok=%v", got, ok)
	}
}

func TestSelectDeviceFirstAvailableWhenNoMatch(t *testing.T) {
	devices := []Device{{ID: 3, Name: "Built-in Mic"}}
	cfg := Config{DeviceID: -1}
	got, ok := selectDevice(devices, cfg)
	if !ok || got.ID != 3 {
		t.Fatalf("expected first available device, got %+v ok=%v", got, ok)
	}
}

func TestSelectDeviceNoneAvailable(t *testing.T) {
	if _, ok := selectDevice(nil, Config{DeviceID: -1}); ok {
		t.Fatal("expected no device to be selectable from an empty list")
	}
}

func TestEvaluateIsolationPrefersPrimaryOverFallback(t *testing.T) {
	cfg := IsolationConfig{Enabled: true, PrimaryApp: "spotify", FallbackApp: "vlc"}
	apps := []RunningApp{{Name: "Spotify.exe"}, {Name: "vlc"}}
	st := evaluateIsolation(cfg, apps)
	if !st.primaryFound || st.fallbackUsed {
		t.Fatalf("expected primary match to win, got %+v", st)
	}
}

func TestEvaluateIsolationUsesFallbackWhenPrimaryAbsent(t *testing.T) {
	cfg := IsolationConfig{Enabled: true, PrimaryApp: "spotify", FallbackApp: "vlc"}
	apps := []RunningApp{{Name: "vlc"}}
	st := evaluateIsolation(cfg, apps)
	if st.primaryFound || !st.fallbackUsed {
		t.Fatalf("expected fallback match, got %+v", st)
	}
}

// TestStrictIsolationSilencesWhenNeitherAppPresent is the strict-mode
// silencing clause: strict mode with no primary/fallback match mutes
// capture rather than letting an unrelated source drive lighting.
func TestStrictIsolationSilencesWhenNeitherAppPresent(t *testing.T) {
	cfg := IsolationConfig{Enabled: true, Strict: true, PrimaryApp: "spotify"}
	st := evaluateIsolation(cfg, []RunningApp{{Name: "chrome"}})
	if !st.silenced(cfg) {
		t.Fatal("expected strict isolation to silence capture when no configured app is running")
	}
}

func TestNonStrictIsolationNeverSilences(t *testing.T) {
	cfg := IsolationConfig{Enabled: true, Strict: false, PrimaryApp: "spotify"}
	st := evaluateIsolation(cfg, []RunningApp{{Name: "chrome"}})
	if st.silenced(cfg) {
		t.Fatal("non-strict isolation must never silence capture")
	}
}

// TestWatchdogSchedulesRestartWithinBound is invariant 8: the watchdog must
// schedule a restart attempt within max(watchdogMs/3, 250ms) of detecting a
// stall.
func TestWatchdogSchedulesRestartWithinBound(t *testing.T) {
	defer withFakeClock(time.Now())()

	var mu sync.Mutex
	var fired bool
	var reason string
	done := make(chan struct{})

	wd := newWatchdog(900, func(r string) {
		mu.Lock()
		fired = true
		reason = r
		mu.Unlock()
		close(done)
	})

	advance(2 * time.Second)
	wd.check()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("expected watchdog restart callback to fire")
	}

	mu.Lock()
	defer mu.Unlock()
	if !fired || reason != "watchdog-stall" {
		t.Fatalf("expected a watchdog-stall restart, got fired=%v reason=%q", fired, reason)
	}
}

func TestWatchdogTouchPreventsRestart(t *testing.T) {
	defer withFakeClock(time.Now())()

	fired := make(chan struct{}, 1)
	wd := newWatchdog(900, func(string) { fired <- struct{}{} })

	advance(100 * time.Millisecond)
	wd.touch()
	wd.check()

	select {
	case <-fired:
		t.Fatal("watchdog should not fire while data keeps arriving")
	case <-time.After(50 * time.Millisecond):
	}
}

func TestWatchdogCoalescesRepeatedStallChecks(t *testing.T) {
	defer withFakeClock(time.Now())()

	var count int
	var mu sync.Mutex
	wd := newWatchdog(300, func(string) {
		mu.Lock()
		count++
		mu.Unlock()
	})

	advance(time.Second)
	wd.check()
	wd.check()
	wd.check()

	time.Sleep(150 * time.Millisecond)
	mu.Lock()
	defer mu.Unlock()
	if count != 1 {
		t.Fatalf("expected exactly one coalesced restart, got %d", count)
	}
}

func TestDownmixAveragesChannels(t *testing.T) {
	frame := []float32{1, 3, 0, 2} // 2 frames, 2 channels
	mono := downmix(frame, 2)
	if len(mono) != 2 || mono[0] != 2 || mono[1] != 1 {
		t.Fatalf("unexpected downmix result: %v", mono)
	}
}

func TestDownmixMonoIsNoOp(t *testing.T) {
	frame := []float32{1, 2, 3}
	mono := downmix(frame, 1)
	if len(mono) != 3 {
		t.Fatalf("expected mono passthrough, got %v", mono)
	}
}

var errBackendClosed = errStr("fake backend closed")

type errStr string

func (e errStr) Error() string { return string(e) }

// fakeBackend lets Source tests drive Start/Stop/Restart without a real
// audio device.
type fakeBackend struct {
	mu     sync.Mutex
	frames chan []float32
	closed bool
}

func newFakeBackend() *fakeBackend {
	return &fakeBackend{frames: make(chan []float32, 4)}
}

func (f *fakeBackend) Open(cfg Config) error { return nil }

func (f *fakeBackend) Read() ([]float32, error) {
	frame, ok := <-f.frames
	if !ok {
		return nil, errBackendClosed
	}
	return frame, nil
}

func (f *fakeBackend) Close() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if !f.closed {
		f.closed = true
		close(f.frames)
	}
	return nil
}

func TestSourceUnavailableWhenBackendFailsToOpen(t *testing.T) {
	s := New(DefaultConfig(), nil)
	s.openBackendFn = func(Config) (captureBackend, error) { return nil, ErrUnavailable }

	if err := s.Start(); err != nil {
		t.Fatalf("Start should not return an error on backend unavailability, got %v", err)
	}
	tel := s.GetTelemetry()
	if !tel.Unavailable || tel.Running {
		t.Fatalf("expected Unavailable telemetry and Running=false, got %+v", tel)
	}
}

func TestSourceStartPushesSnapshots(t *testing.T) {
	fb := newFakeBackend()
	s := New(DefaultConfig(), nil)
	s.openBackendFn = func(Config) (captureBackend, error) { return fb, nil }

	if err := s.Start(); err != nil {
		t.Fatalf("Start failed: %v", err)
	}
	defer s.Stop()

	fb.frames <- make([]float32, 960*2)

	select {
	case <-s.Output():
	case <-time.After(time.Second):
		t.Fatal("expected a Snapshot to be pushed after a frame arrives")
	}

	tel := s.GetTelemetry()
	if !tel.Running {
		t.Fatal("expected Running telemetry to be true")
	}
}

func TestSourceStopClosesBackend(t *testing.T) {
	fb := newFakeBackend()
	s := New(DefaultConfig(), nil)
	s.openBackendFn = func(Config) (captureBackend, error) { return fb, nil }

	if err := s.Start(); err != nil {
		t.Fatalf("Start failed: %v", err)
	}
	s.Stop()

	fb.mu.Lock()
	closed := fb.closed
	fb.mu.Unlock()
	if !closed {
		t.Fatal("expected Stop to close the backend")
	}
	if s.GetTelemetry().Running {
		t.Fatal("expected Running telemetry to be false after Stop")
	}
}
