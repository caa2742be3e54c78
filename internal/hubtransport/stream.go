package hubtransport

import (
	"context"
	"encoding/hex"
	"net"
	"strconv"
	"time"

	"github.com/pion/dtls/v3"
)

// StreamTarget is the addressing/credentials for the hub's low-latency
// entertainment streaming endpoint.
type StreamTarget struct {
	Host         string
	Port         int
	Identity     string // PSK identity, the hub user id
	PSKHex       string // hex-encoded client key
	ChannelCount int    // N channel tuples advertised by the selected area
}

// streamAttempt is one entry in the escalating-timeout connect ladder from
// spec.md §4.5: "forced" mode first, then legacy retries with longer
// timeouts when enabled.
type streamAttempt struct {
	timeout time.Duration
	legacy  bool
	label   string
}

// defaultAttempts is the forced-then-legacy ladder: two forced attempts,
// then two legacy attempts when allowLegacy is set. dialStream does not read
// the legacy flag, so every attempt performs the same PSK handshake with the
// same cipher suite; legacy attempts differ only in timeout and label.
func defaultAttempts(allowLegacy bool) []streamAttempt {
	attempts := []streamAttempt{
		{timeout: 6500 * time.Millisecond, legacy: false, label: "forced-1"},
		{timeout: 9000 * time.Millisecond, legacy: false, label: "forced-2"},
	}
	if allowLegacy {
		attempts = append(attempts,
			streamAttempt{timeout: 8000 * time.Millisecond, legacy: true, label: "legacy-1"},
			streamAttempt{timeout: 12000 * time.Millisecond, legacy: true, label: "legacy-2"},
		)
	}
	return attempts
}

type streamConn struct {
	*dtls.Conn
}

// dialStream performs one DTLS-PSK handshake attempt against target.
func dialStream(ctx context.Context, target StreamTarget, timeout time.Duration) (*streamConn, error) {
	// PSK mode has no certificate exchange; a bad PSKHex is a config typo,
	// not a trust failure, so it classifies as NotConfigured.
	psk, err := hex.DecodeString(target.PSKHex)
	if err != nil {
		return nil, classify(ErrNotConfigured, err)
	}

	raddr, err := net.ResolveUDPAddr("udp", net.JoinHostPort(target.Host, portString(target.Port)))
	if err != nil {
		return nil, classify(ErrSocketFault, err)
	}

	cfg := &dtls.Config{
		PSK: func([]byte) ([]byte, error) { return psk, nil },
		PSKIdentityHint: []byte(target.Identity),
		CipherSuites:    []dtls.CipherSuiteID{dtls.TLS_PSK_WITH_AES_128_CCM_8},
	}

	dialCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	conn, err := dtls.DialWithContext(dialCtx, "udp", raddr, cfg)
	if err != nil {
		if dialCtx.Err() != nil {
			return nil, classify(ErrHandshakeTimeout, err)
		}
		return nil, classify(ErrSocketFault, err)
	}
	return &streamConn{conn}, nil
}

// connectWithLadder runs the escalating-timeout/backoff attempt list from
// spec.md §4.5, tearing down each partial session between attempts.
func connectWithLadder(ctx context.Context, target StreamTarget, allowLegacy bool) (*streamConn, error) {
	var lastErr error
	for i, attempt := range defaultAttempts(allowLegacy) {
		conn, err := dialStream(ctx, target, attempt.timeout)
		if err == nil {
			return conn, nil
		}
		lastErr = err
		if classifyErr(err) == ErrNotConfigured {
			// Deterministic failure (bad PSK hex); retrying the ladder
			// would just repeat it N times for no gain.
			return nil, lastErr
		}

		wait := time.Duration(280+i*180) * time.Millisecond
		select {
		case <-time.After(wait):
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	return nil, lastErr
}

// frame encodes N channel RGB tuples into the entertainment payload: a
// contiguous sequence of 3-byte (R,G,B) values, one per advertised channel,
// in channel order.
func encodeFrame(channels []RGB) []byte {
	buf := make([]byte, 0, len(channels)*3)
	for _, c := range channels {
		buf = append(buf, c.R, c.G, c.B)
	}
	return buf
}

// RGB is one channel's color in an entertainment stream frame.
type RGB struct{ R, G, B uint8 }

func portString(p int) string {
	if p == 0 {
		p = 2100
	}
	return strconv.Itoa(p)
}
