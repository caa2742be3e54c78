// Package udptransport implements the fire-and-forget UDP family sender
// (C6): one persistent socket per device, a configurable repeat burst, and
// no fallback — lost packets are tolerated because the next reactive tick
// supersedes whatever was dropped.
package udptransport

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"net"
	"sync"
	"time"

	"github.com/NameSRoby/ravelink-bridge/internal/intent"
)

// envelope is the per-device JSON command body, holding the fields
// spec.md §6 requires: dimming in 10-100, optional kelvin, optional RGB.
type envelope struct {
	R       *uint8 `json:"r,omitempty"`
	G       *uint8 `json:"g,omitempty"`
	B       *uint8 `json:"b,omitempty"`
	Dimming uint8  `json:"dimming"`
	Temp    *int   `json:"temp,omitempty"`
	On      bool   `json:"on"`
}

// RepeatPolicy controls how many times a state is retransmitted and the
// spacing between repeats.
type RepeatPolicy struct {
	Repeats       int
	RepeatDelayMs int
}

// NoRepeat is the zero policy: a single transmission, no repeat.
var NoRepeat = RepeatPolicy{Repeats: 1, RepeatDelayMs: 0}

// device is one persistent per-device UDP socket.
type device struct {
	mu   sync.Mutex
	conn *net.UDPConn
}

// Sender maintains one persistent UDP socket per device address.
type Sender struct {
	mu      sync.Mutex
	devices map[string]*device
}

// New returns an empty Sender.
func New() *Sender {
	return &Sender{devices: make(map[string]*device)}
}

func (s *Sender) deviceFor(addr string) (*device, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if d, ok := s.devices[addr]; ok {
		return d, nil
	}

	udpAddr, err := net.ResolveUDPAddr("udp", addr)
	if err != nil {
		return nil, err
	}
	conn, err := net.DialUDP("udp", nil, udpAddr)
	if err != nil {
		return nil, err
	}
	d := &device{conn: conn}
	s.devices[addr] = d
	return d, nil
}

// Send serializes color into the device's JSON envelope and transmits it
// over UDP, repeating per policy. A repeat burst for a given device is
// monotonic in time (spec.md §5); no acknowledgement is expected or
// retried on failure.
func (s *Sender) Send(addr string, color intent.UdpColor, policy RepeatPolicy) {
	d, err := s.deviceFor(addr)
	if err != nil {
		slog.Debug("udptransport: device dial failed", "addr", addr, "err", err)
		return
	}

	payload, err := json.Marshal(envToWire(color))
	if err != nil {
		slog.Debug("udptransport: marshal failed", "addr", addr, "err", err)
		return
	}

	repeats := policy.Repeats
	if repeats < 1 {
		repeats = 1
	}

	d.mu.Lock()
	defer d.mu.Unlock()
	for i := 0; i < repeats; i++ {
		if _, err := d.conn.Write(payload); err != nil {
			slog.Debug("udptransport: write failed", "addr", addr, "err", err)
			return
		}
		if i < repeats-1 && policy.RepeatDelayMs > 0 {
			time.Sleep(time.Duration(policy.RepeatDelayMs) * time.Millisecond)
		}
	}
}

// RepeatPolicyFor derives the repeat burst from an intent's beat/drop
// flags, per spec.md §4.3: 2 repeats on beat, 3 on drop, 1 otherwise.
func RepeatPolicyFor(pulse intent.UdpPulse, repeatDelayMs int) RepeatPolicy {
	switch {
	case pulse.Drop:
		return RepeatPolicy{Repeats: 3, RepeatDelayMs: repeatDelayMs}
	case pulse.Beat:
		return RepeatPolicy{Repeats: 2, RepeatDelayMs: repeatDelayMs}
	default:
		return RepeatPolicy{Repeats: 1, RepeatDelayMs: repeatDelayMs}
	}
}

func envToWire(c intent.UdpColor) envelope {
	r, g, b := c.R, c.G, c.B
	return envelope{
		R:       &r,
		G:       &g,
		B:       &b,
		Dimming: c.Dimming,
		On:      c.Dimming > 0,
	}
}

// Close tears down every open device socket.
func (s *Sender) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	for addr, d := range s.devices {
		d.conn.Close()
		delete(s.devices, addr)
	}
}

func deviceAddr(host string, port int) string {
	return fmt.Sprintf("%s:%d", host, port)
}

// DeviceAddr builds the "host:port" address string for a udp fixture.
func DeviceAddr(host string, port int) string { return deviceAddr(host, port) }
