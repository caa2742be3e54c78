package audiosource

import (
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"
)

// RunningApp describes one process visible to the isolation scanner.
type RunningApp struct {
	PID  int
	Name string
}

// appLister enumerates running process names; procPath is an injectable
// seam so tests can point it at a fixture tree instead of the real /proc,
// mirroring the teacher's resource monitor's procPath option.
type appLister struct {
	procPath string
}

func newAppLister() *appLister {
	return &appLister{procPath: "/proc"}
}

func (a *appLister) ListRunningApps() ([]RunningApp, error) {
	entries, err := os.ReadDir(a.procPath)
	if err != nil {
		return nil, err
	}

	var apps []RunningApp
	for _, e := range entries {
		pid, err := strconv.Atoi(e.Name())
		if err != nil {
			continue
		}
		commPath := filepath.Join(a.procPath, e.Name(), "comm")
		data, err := os.ReadFile(commPath)
		if err != nil {
			continue
		}
		apps = append(apps, RunningApp{PID: pid, Name: strings.TrimSpace(string(data))})
	}
	return apps, nil
}

// isolationState tracks the outcome of the most recent isolation scan so
// Source can decide whether to gate capture (strict mode) or just report
// the mismatch via telemetry.
type isolationState struct {
	lastScan     time.Time
	primaryFound bool
	fallbackUsed bool
	matched      string
}

// evaluateIsolation scans running apps against the configured primary and
// fallback app name tokens. A match is a case-insensitive substring of the
// process name, matching the same matching style as the device selector.
func evaluateIsolation(cfg IsolationConfig, apps []RunningApp) isolationState {
	st := isolationState{lastScan: nowFn()}
	if cfg.PrimaryApp != "" && containsApp(apps, cfg.PrimaryApp) {
		st.primaryFound = true
		st.matched = cfg.PrimaryApp
		return st
	}
	if cfg.FallbackApp != "" && containsApp(apps, cfg.FallbackApp) {
		st.fallbackUsed = true
		st.matched = cfg.FallbackApp
	}
	return st
}

func containsApp(apps []RunningApp, needle string) bool {
	n := strings.ToLower(needle)
	for _, a := range apps {
		if strings.Contains(strings.ToLower(a.Name), n) {
			return true
		}
	}
	return false
}

// silenced reports whether strict isolation should mute capture: strict
// mode with neither the primary nor the fallback app present.
func (s isolationState) silenced(cfg IsolationConfig) bool {
	return cfg.Enabled && cfg.Strict && !s.primaryFound && !s.fallbackUsed
}
