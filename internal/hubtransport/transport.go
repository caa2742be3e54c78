// Package hubtransport implements the hub family's dual-mode dispatcher
// (C5): a REST PUT path with per-zone LIFO coalescing, a DTLS-PSK
// low-latency streaming path, and the recovery state machine that falls
// back from one to the other.
package hubtransport

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/NameSRoby/ravelink-bridge/internal/backoffx"
	"github.com/NameSRoby/ravelink-bridge/internal/intent"
)

const (
	recoveryInitialDelay = 5 * time.Second
	recoveryMaxDelay      = 60 * time.Second
)

// Transport is the hub dispatcher. Zero value is not usable; use New.
type Transport struct {
	machine *machine
	rest    *restSender
	backoff *backoffx.Backoff

	fixturesFn func() []HubTarget
	allowLegacy bool

	mu           sync.Mutex
	stream       *streamConn
	streamTarget StreamTarget
	recoverOnce  sync.Once
	cancelRec    context.CancelFunc
}

// New returns a Transport in RestOnly state. fixturesFn supplies the
// currently configured hub fixtures, used to decide whether a STREAM
// connect attempt has anything to connect to.
func New(fixturesFn func() []HubTarget, allowLegacy bool) *Transport {
	rewriter := NewURLRewriter()
	t := &Transport{
		machine:     newMachine(),
		rest:        newRestSender(rewriter),
		backoff:     backoffx.New(recoveryInitialDelay, recoveryMaxDelay),
		fixturesFn:  fixturesFn,
		allowLegacy: allowLegacy,
	}
	t.rest.onFatal = func(zone string, err *TransportError) {
		t.machine.recordError()
		t.machine.transitionTo(StateRestOnly, ModeRest, err.Kind.String())
		slog.Error("hubtransport: rest put rejected on cert trust failure, not retrying", "zone", zone, "err", err)
	}
	return t
}

// Telemetry returns the current transport state machine snapshot.
func (t *Transport) Telemetry() Telemetry { return t.machine.snapshot() }

// SetTransportMode implements setHueTransportMode(rest|entertainment).
// Requesting REST force-drains any active streaming session; requesting
// STREAM attempts a connect (after pre-clearing candidate areas) unless no
// hub fixtures are configured, in which case the transport stays RestOnly
// with an explicit fallback reason.
func (t *Transport) SetTransportMode(ctx context.Context, mode Mode, target StreamTarget, candidateAreas []HubTarget) error {
	t.machine.setDesired(mode)

	if mode == ModeRest {
		t.drainStream()
		t.machine.transitionTo(StateRestOnly, ModeRest, "")
		return nil
	}

	fixtures := t.fixturesFn()
	if len(fixtures) == 0 {
		t.machine.transitionTo(StateRestOnly, ModeRest, "no configured hub fixtures")
		return classify(ErrNotConfigured, errNoConfiguredFixtures)
	}

	t.mu.Lock()
	t.streamTarget = target
	t.mu.Unlock()

	t.preClear(ctx, candidateAreas)
	return t.connect(ctx)
}

// preClear queues a REST off-state PUT (on=false) to the light of each of
// up to the first two candidate targets and waits the window spec.md §4.5
// requires before a streaming connect attempt, to avoid racing a prior
// session's teardown. It does not call a hub "stop area" endpoint.
func (t *Transport) preClear(ctx context.Context, candidateAreas []HubTarget) {
	n := len(candidateAreas)
	if n > 2 {
		n = 2
	}
	for _, area := range candidateAreas[:n] {
		t.rest.enqueue(area.LightID, putRequest{target: area, body: putBody{On: false}})
	}
	wait := 220 * time.Millisecond
	select {
	case <-time.After(wait):
	case <-ctx.Done():
	}
}

func (t *Transport) connect(ctx context.Context) error {
	t.machine.transitionTo(StateStreamConnecting, ModeRest, "")

	t.mu.Lock()
	target := t.streamTarget
	allowLegacy := t.allowLegacy
	t.mu.Unlock()

	conn, err := connectWithLadder(ctx, target, allowLegacy)
	if err != nil {
		t.machine.recordError()
		kind := classifyErr(err)
		t.machine.transitionTo(StateStreamFailing, ModeRest, kind.String())
		if !isFatal(kind) {
			t.scheduleRecovery(ctx)
		}
		return err
	}

	t.mu.Lock()
	t.stream = conn
	t.mu.Unlock()

	t.backoff.Reset()
	t.machine.clearConsecutiveErrors()
	t.machine.transitionTo(StateStreamActive, ModeStream, "")
	slog.Info("hubtransport: stream active", "host", target.Host)
	return nil
}

func classifyErr(err error) ErrKind {
	if te, ok := err.(*TransportError); ok {
		return te.Kind
	}
	return ErrUnknown
}

// isFatal reports whether kind must surface as a terminal config error
// rather than feed the exponential-backoff recovery loop: CertUntrusted
// is a trust failure that won't self-heal on retry, and NotConfigured
// means there is nothing to connect to in the first place.
func isFatal(kind ErrKind) bool {
	return kind == ErrCertUntrusted || kind == ErrNotConfigured
}

// scheduleRecovery arms the exponential-backoff recovery coordinator; at
// most one recovery attempt is ever in flight (SPEC_FULL.md §5).
func (t *Transport) scheduleRecovery(parent context.Context) {
	t.mu.Lock()
	if t.cancelRec != nil {
		t.mu.Unlock()
		return
	}
	ctx, cancel := context.WithCancel(parent)
	t.cancelRec = cancel
	t.mu.Unlock()

	go func() {
		retry := false
		defer func() {
			t.mu.Lock()
			t.cancelRec = nil
			t.mu.Unlock()
			// Re-arm only after the slot is free, otherwise the retry
			// would see this attempt still in flight and do nothing.
			if retry {
				t.scheduleRecovery(parent)
			}
		}()
		// The first attempt waits the initial delay; each failure doubles
		// the next wait up to the cap.
		wait := t.backoff.Current()
		t.backoff.RecordFailure()
		select {
		case <-time.After(wait):
		case <-ctx.Done():
			return
		}
		if t.machine.snapshot().Desired != ModeStream {
			return
		}
		if err := t.connect(ctx); err != nil && !isFatal(classifyErr(err)) {
			retry = true
		}
	}()
}

// drainStream force-closes any active streaming session.
func (t *Transport) drainStream() {
	t.mu.Lock()
	conn := t.stream
	t.stream = nil
	cancel := t.cancelRec
	t.cancelRec = nil
	t.mu.Unlock()

	if cancel != nil {
		cancel()
	}
	if conn != nil {
		conn.Close()
	}
}

// Send dispatches one hub color to zone, preferring the active streaming
// session and falling back to REST per the pre-emission gate: if the
// stream socket looks unusable, this call marks active=REST and routes via
// REST instead of blocking the caller.
func (t *Transport) Send(zone string, target HubTarget, color intent.HubColor, channels []RGB) {
	t.mu.Lock()
	conn := t.stream
	t.mu.Unlock()

	if conn != nil && t.machine.snapshot().State == StateStreamActive {
		if err := conn.send(channels); err != nil {
			t.machine.recordError()
			kind := classifyErr(err)
			t.machine.transitionTo(StateStreamFailing, ModeRest, kind.String())
			t.drainStream()
			if !isFatal(kind) {
				t.scheduleRecovery(context.Background())
			}
		} else {
			return
		}
	}

	t.rest.enqueue(zone, putRequest{target: target, body: colorToBody(color)})
}

func (c *streamConn) send(channels []RGB) error {
	_, err := c.Write(encodeFrame(channels))
	if err != nil {
		return classify(ErrSocketFault, err)
	}
	return nil
}
