package hubtransport

import "sync"

// Mode is the transport mode the control surface can request or observe.
type Mode int

const (
	ModeRest Mode = iota
	ModeStream
)

func (m Mode) String() string {
	if m == ModeStream {
		return "stream"
	}
	return "rest"
}

// State is the serialized transport state machine from spec.md §4.5.
type State int

const (
	StateRestOnly State = iota
	StateStreamConnecting
	StateStreamActive
	StateStreamFailing
	StateStreamClosed
)

func (s State) String() string {
	switch s {
	case StateStreamConnecting:
		return "StreamConnecting"
	case StateStreamActive:
		return "StreamActive"
	case StateStreamFailing:
		return "StreamFailing"
	case StateStreamClosed:
		return "StreamClosed"
	default:
		return "RestOnly"
	}
}

// Telemetry is the observable snapshot of the transport state machine.
type Telemetry struct {
	Desired        Mode
	Active         Mode
	State          State
	FallbackReason string
	Switches       uint64
	Errors         uint64
	ConsecutiveErr int
}

// machine guards the transport state machine fields behind one RWMutex.
// Transport mutates them through its methods (from SetTransportMode,
// connect, Send and the recovery coordinator); readers take a copy via
// snapshot.
type machine struct {
	mu             sync.RWMutex
	desired        Mode
	active         Mode
	state          State
	fallbackReason string
	switches       uint64
	errors         uint64
	consecutiveErr int
}

func newMachine() *machine {
	return &machine{state: StateRestOnly, active: ModeRest}
}

func (m *machine) snapshot() Telemetry {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return Telemetry{
		Desired:        m.desired,
		Active:         m.active,
		State:          m.state,
		FallbackReason: m.fallbackReason,
		Switches:       m.switches,
		Errors:         m.errors,
		ConsecutiveErr: m.consecutiveErr,
	}
}

func (m *machine) transitionTo(s State, active Mode, reason string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.active != active {
		m.switches++
	}
	m.state = s
	m.active = active
	if reason != "" {
		m.fallbackReason = reason
	}
}

func (m *machine) setDesired(mode Mode) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.desired = mode
}

func (m *machine) recordError() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.errors++
	m.consecutiveErr++
}

func (m *machine) clearConsecutiveErrors() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.consecutiveErr = 0
}

func (m *machine) isActiveRest() bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.active == ModeRest
}
