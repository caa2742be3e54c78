package intent

import "net"

// isPrivateIPv4Host reports whether host resolves (by literal parse only —
// no DNS lookup) to an RFC1918 private IPv4 address. Hostnames that are not
// literal IPv4 addresses are rejected: fixture addressing must be explicit,
// and resolving hostnames here would reintroduce the "DNS shim" pattern
// spec.md §9 calls out as something to replace with an explicit rewriter
// (see internal/hubtransport), not duplicate here.
func isPrivateIPv4Host(host string) bool {
	ip := net.ParseIP(host)
	if ip == nil {
		return false
	}
	ip4 := ip.To4()
	if ip4 == nil {
		return false
	}
	switch {
	case ip4[0] == 10:
		return true
	case ip4[0] == 172 && ip4[1] >= 16 && ip4[1] <= 31:
		return true
	case ip4[0] == 192 && ip4[1] == 168:
		return true
	default:
		return false
	}
}
