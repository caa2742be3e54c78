package udptransport

import (
	"encoding/json"
	"net"
	"testing"
	"time"

	"github.com/NameSRoby/ravelink-bridge/internal/intent"
)

func listen(t *testing.T) (*net.UDPConn, string) {
	t.Helper()
	conn, err := net.ListenUDP("udp", &net.UDPAddr{IP: net.ParseIP("127.0.0.1"), Port: 0})
	if err != nil {
		t.Fatalf("listen: %v", err)
	}
	t.Cleanup(func() { conn.Close() })
	return conn, conn.LocalAddr().String()
}

func TestSendDeliversEnvelope(t *testing.T) {
	conn, addr := listen(t)
	s := New()
	defer s.Close()

	s.Send(addr, intent.UdpColor{R: 10, G: 20, B: 30, Dimming: 80}, NoRepeat)

	conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	buf := make([]byte, 256)
	n, _, err := conn.ReadFromUDP(buf)
	if err != nil {
		t.Fatalf("expected a datagram, got error: %v", err)
	}

	var env envelope
	if err := json.Unmarshal(buf[:n], &env); err != nil {
		t.Fatalf("invalid envelope json: %v", err)
	}
	if env.Dimming != 80 {
		t.Fatalf("expected dimming 80, got %d", env.Dimming)
	}
	if env.R == nil || *env.R != 10 {
		t.Fatalf("expected r=10, got %+v", env.R)
	}
}

func TestRepeatBurstSendsMultipleDatagrams(t *testing.T) {
	conn, addr := listen(t)
	s := New()
	defer s.Close()

	s.Send(addr, intent.UdpColor{Dimming: 50}, RepeatPolicy{Repeats: 3, RepeatDelayMs: 5})

	conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	buf := make([]byte, 256)
	count := 0
	for i := 0; i < 3; i++ {
		if _, _, err := conn.ReadFromUDP(buf); err != nil {
			break
		}
		count++
	}
	if count != 3 {
		t.Fatalf("expected 3 datagrams from repeat burst, got %d", count)
	}
}

func TestRepeatPolicyForMatchesBeatAndDrop(t *testing.T) {
	if p := RepeatPolicyFor(intent.UdpPulse{Beat: true}, 10); p.Repeats != 2 {
		t.Fatalf("expected 2 repeats on beat, got %d", p.Repeats)
	}
	if p := RepeatPolicyFor(intent.UdpPulse{Drop: true}, 10); p.Repeats != 3 {
		t.Fatalf("expected 3 repeats on drop, got %d", p.Repeats)
	}
	if p := RepeatPolicyFor(intent.UdpPulse{}, 10); p.Repeats != 1 {
		t.Fatalf("expected 1 repeat by default, got %d", p.Repeats)
	}
}

func TestDeviceAddrFormatsHostPort(t *testing.T) {
	if got := DeviceAddr("192.168.1.20", 38899); got != "192.168.1.20:38899" {
		t.Fatalf("unexpected address: %q", got)
	}
}
