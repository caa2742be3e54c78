package audiosource

import (
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/NameSRoby/ravelink-bridge/internal/feature"
	"github.com/NameSRoby/ravelink-bridge/internal/intent"
)

// nowFn is an injectable clock seam so isolation and watchdog tests don't
// depend on wall-clock timing.
var nowFn = time.Now

// Telemetry reports the source's current operating state.
type Telemetry struct {
	Running        bool
	Backend        Backend
	DeviceName     string
	Unavailable    bool
	UnavailableErr string
	LastFrameAt    time.Time
	RestartCount   uint64
	LastRestartAt  time.Time
	IsolationOK    bool
	IsolationApp   string
	Silenced       bool
	Level          float64
}

// Source is the top-level audio capture orchestrator: it owns a capture
// backend, a feature extractor, an isolation scanner, and a stall
// watchdog, and pushes Snapshots to the reactive engine over a channel.
// Mirrors the teacher's Manager in internal/stream: a single struct that
// owns the subprocess/stream lifecycle and exposes start/stop/restart.
type Source struct {
	mu  sync.Mutex
	cfg Config

	backend  captureBackend
	extractor *feature.Extractor
	lister   *appLister
	watchdog *watchdog

	out    chan intent.Snapshot
	stop   chan struct{}
	done   chan struct{}
	running bool

	tel Telemetry

	logger *slog.Logger

	// openBackendFn is a seam over openBackend so tests can substitute a
	// fake backend without a real audio device.
	openBackendFn func(Config) (captureBackend, error)
}

// New returns a Source with the given initial config. Snapshots are
// delivered on the channel Output returns, which Engine.Run consumes
// directly.
func New(cfg Config, logger *slog.Logger) *Source {
	if logger == nil {
		logger = slog.Default()
	}
	s := &Source{
		cfg:       cfg,
		extractor: feature.New(feature.DefaultConfig()),
		lister:    newAppLister(),
		out:       make(chan intent.Snapshot, 8),
		logger:    logger,
	}
	s.openBackendFn = s.openBackend
	return s
}

// Output returns the channel Snapshots are published on.
func (s *Source) Output() <-chan intent.Snapshot {
	return s.out
}

// GetConfig returns the current configuration.
func (s *Source) GetConfig() Config {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.cfg
}

// SetConfig replaces the whole configuration with cfg (fields are not
// merged with the previous config) and restarts capture if it is currently
// running, since backend/device/channel settings only take effect at
// Open().
func (s *Source) SetConfig(cfg Config) error {
	s.mu.Lock()
	wasRunning := s.running
	s.cfg = cfg
	s.mu.Unlock()

	if wasRunning {
		return s.Restart("config-changed")
	}
	return nil
}

// ListDevices enumerates the native (portaudio) input devices, whichever
// backend is configured.
func (s *Source) ListDevices() ([]Device, error) {
	var lister deviceLister = nativeLister{}
	return lister.ListInputDevices()
}

// ListRunningApps enumerates processes visible to the isolation scanner.
func (s *Source) ListRunningApps() ([]RunningApp, error) {
	return s.lister.ListRunningApps()
}

// GetTelemetry returns a snapshot of current operating state.
func (s *Source) GetTelemetry() Telemetry {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.tel
}

// Start opens the configured backend and begins pushing Snapshots. If no
// backend is available, Source stays callable, emits a single zero
// Snapshot and reports the reason via telemetry, per the Unavailable
// contract.
func (s *Source) Start() error {
	s.mu.Lock()
	if s.running {
		s.mu.Unlock()
		return nil
	}
	cfg := s.cfg
	s.mu.Unlock()

	backend, err := s.openBackendFn(cfg)
	if err != nil {
		s.mu.Lock()
		s.tel.Unavailable = true
		s.tel.UnavailableErr = err.Error()
		s.tel.Running = false
		s.mu.Unlock()
		s.logger.Warn("audiosource unavailable", "error", err)
		select {
		case s.out <- intent.Snapshot{}:
		default:
		}
		return nil
	}

	stop := make(chan struct{})
	done := make(chan struct{})
	s.mu.Lock()
	s.backend = backend
	s.stop = stop
	s.done = done
	s.running = true
	s.tel.Running = true
	s.tel.Unavailable = false
	s.tel.Backend = cfg.Backend
	s.mu.Unlock()

	s.watchdog = newWatchdog(cfg.WatchdogMs, func(reason string) { s.handleRestart(reason) })
	go s.watchdog.run(stop)
	if cfg.Isolation.Enabled {
		go s.isolationLoop(stop, cfg)
	}

	go s.captureLoop(backend, stop, done, cfg)
	return nil
}

func (s *Source) openBackend(cfg Config) (captureBackend, error) {
	switch cfg.Backend {
	case BackendMuxer:
		b := &muxerBackend{}
		if err := b.Open(cfg); err != nil {
			return nil, err
		}
		return b, nil
	case BackendNative, BackendAuto:
		b := &nativeBackend{}
		if err := b.Open(cfg); err != nil {
			if cfg.Backend == BackendAuto && len(cfg.MuxerCommand) > 0 {
				mb := &muxerBackend{}
				if merr := mb.Open(cfg); merr == nil {
					return mb, nil
				}
			}
			return nil, fmt.Errorf("audiosource: %w", ErrUnavailable)
		}
		return b, nil
	default:
		return nil, fmt.Errorf("audiosource: unknown backend %d", cfg.Backend)
	}
}

func (s *Source) captureLoop(backend captureBackend, stop <-chan struct{}, done chan<- struct{}, cfg Config) {
	defer close(done)
	defer backend.Close()

	for {
		select {
		case <-stop:
			return
		default:
		}

		frame, err := backend.Read()
		if err != nil {
			select {
			case <-stop:
				// Backend was closed by an intentional Stop; not a stall.
				return
			default:
			}
			s.logger.Warn("audiosource read error", "error", err)
			go s.handleRestart("read-error")
			return
		}

		s.watchdog.touch()

		s.mu.Lock()
		silenced := s.tel.Silenced
		s.mu.Unlock()

		mono := downmix(frame, cfg.Channels)
		var snap intent.Snapshot
		if !silenced {
			snap = s.extractor.Process(mono)
		}

		s.mu.Lock()
		s.tel.LastFrameAt = nowFn()
		s.tel.Level = snap.Level
		s.mu.Unlock()

		select {
		case s.out <- snap:
		case <-stop:
			return
		default:
			// Drop the frame rather than block capture; the engine ticks
			// independently and a stale Snapshot is worse than a skipped one.
		}
	}
}

func (s *Source) isolationLoop(stop <-chan struct{}, cfg Config) {
	interval := cfg.Isolation.ScanInterval
	if interval <= 0 {
		interval = 5 * time.Second
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-stop:
			return
		case <-ticker.C:
			apps, err := s.lister.ListRunningApps()
			if err != nil {
				continue
			}
			st := evaluateIsolation(cfg.Isolation, apps)
			s.mu.Lock()
			s.tel.IsolationOK = st.primaryFound || st.fallbackUsed
			s.tel.IsolationApp = st.matched
			s.tel.Silenced = st.silenced(cfg.Isolation)
			s.mu.Unlock()
		}
	}
}

func (s *Source) handleRestart(reason string) {
	s.logger.Info("audiosource restarting", "reason", reason)
	if err := s.Restart(reason); err != nil {
		s.logger.Warn("audiosource restart failed", "error", err)
	}
}

// Restart stops and reopens the capture backend, tracking the event in
// telemetry.
func (s *Source) Restart(reason string) error {
	s.Stop()
	time.Sleep(time.Duration(s.GetConfig().RestartMs) * time.Millisecond)

	s.mu.Lock()
	s.tel.RestartCount++
	s.tel.LastRestartAt = nowFn()
	s.mu.Unlock()

	return s.Start()
}

// Stop halts capture and releases the backend. Safe to call when not
// running. The backend is closed here (not just signaled via stop) because
// a capture backend's Read can block past the next select; closing it is
// what actually unblocks a pending Read call.
func (s *Source) Stop() {
	s.mu.Lock()
	if !s.running {
		s.mu.Unlock()
		return
	}
	stop := s.stop
	done := s.done
	backend := s.backend
	s.running = false
	s.tel.Running = false
	s.mu.Unlock()

	close(stop)
	if backend != nil {
		backend.Close()
	}
	<-done
}

// downmix averages interleaved channel samples to mono. A no-op copy when
// channels == 1.
func downmix(frame []float32, channels int) []float32 {
	if channels <= 1 {
		return frame
	}
	n := len(frame) / channels
	mono := make([]float32, n)
	for i := 0; i < n; i++ {
		var sum float32
		for c := 0; c < channels; c++ {
			sum += frame[i*channels+c]
		}
		mono[i] = sum / float32(channels)
	}
	return mono
}
