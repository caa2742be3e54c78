package audiosource

import (
	"sync"
	"time"

	"github.com/NameSRoby/ravelink-bridge/internal/backoffx"
)

// watchdog restarts capture when no frame has arrived for longer than
// cfg.WatchdogMs, grounded in the teacher's stream monitor's restart-on-
// stall pattern. Restart requests are coalesced through a single pending
// flag so a burst of missed ticks only triggers one restart. Source.Start
// builds a new watchdog (and with it a new backoff) after every restart,
// so the restart delay does not escalate across repeated stalls.
type watchdog struct {
	mu          sync.Mutex
	lastData    time.Time
	pending     bool
	backoff     *backoffx.Backoff
	restartFn   func(reason string)
	watchdogMs  int
}

func newWatchdog(watchdogMs int, restartFn func(reason string)) *watchdog {
	return &watchdog{
		lastData:   nowFn(),
		backoff:    backoffx.New(time.Duration(watchdogMs/3)*time.Millisecond, 30*time.Second),
		restartFn:  restartFn,
		watchdogMs: watchdogMs,
	}
}

func (w *watchdog) touch() {
	w.mu.Lock()
	w.lastData = nowFn()
	w.mu.Unlock()
}

// check runs on each watchdog tick; it fires restartFn at most once per
// stall episode until touch() resets the clock.
func (w *watchdog) check() {
	w.mu.Lock()
	stalled := nowFn().Sub(w.lastData) > time.Duration(w.watchdogMs)*time.Millisecond
	already := w.pending
	if stalled && !already {
		w.pending = true
	}
	w.mu.Unlock()

	if stalled && !already {
		// The first restart for a stall episode fires at the base interval;
		// RecordFailure only grows the delay for a *subsequent* stall, so a
		// single miss is never penalized with an already-doubled wait.
		delay := w.backoff.Current()
		w.backoff.RecordFailure()
		time.AfterFunc(delay, func() {
			w.mu.Lock()
			w.pending = false
			w.mu.Unlock()
			w.restartFn("watchdog-stall")
		})
	}
}

// recovered clears the backoff curve after a clean run, mirroring the hub
// transport's reset-on-success behavior.
func (w *watchdog) recovered() {
	w.backoff.Reset()
}

func (w *watchdog) run(stop <-chan struct{}) {
	interval := time.Duration(w.watchdogMs/3) * time.Millisecond
	if interval < 250*time.Millisecond {
		interval = 250 * time.Millisecond
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-stop:
			return
		case <-ticker.C:
			w.check()
		}
	}
}
