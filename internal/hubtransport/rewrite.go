package hubtransport

import (
	"context"
	"net"
	"sync"
	"time"
)

// URLRewriter resolves a hub's identity host to its LAN IP and dials the IP
// directly, while leaving the *address* http.Transport hands to the TLS
// layer untouched — net/http derives tls.Config.ServerName from the
// original request host before DialContext ever runs, so substituting the
// connection target here does not disturb certificate-hostname validation
// against the hub's real identity name. This is the explicit, inspectable
// stand-in for the monkey-patched DNS shim the design notes call out
// (SPEC_FULL.md §9): resolution goes through a real net.Resolver and the
// cache the caller populates via Set, not an interposed global resolver.
type URLRewriter struct {
	resolver *net.Resolver
	ttl      time.Duration

	mu    sync.RWMutex
	toIP  map[string]string
	until map[string]time.Time
}

// NewURLRewriter returns a rewriter that resolves hosts with the default
// system resolver and caches results for ttl.
func NewURLRewriter() *URLRewriter {
	return &URLRewriter{
		resolver: net.DefaultResolver,
		ttl:      5 * time.Minute,
		toIP:     make(map[string]string),
		until:    make(map[string]time.Time),
	}
}

// Set registers that requests to host should be rewritten to target ip,
// bypassing resolution until the entry expires. Tests and static
// configuration use this to seed the cache directly.
func (r *URLRewriter) Set(host, ip string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.toIP[host] = ip
	r.until[host] = time.Now().Add(r.ttl)
}

func (r *URLRewriter) cached(host string) (string, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	ip, ok := r.toIP[host]
	if !ok || time.Now().After(r.until[host]) {
		return "", false
	}
	return ip, true
}

// resolve returns host's LAN IP, consulting the cache before the resolver.
func (r *URLRewriter) resolve(ctx context.Context, host string) (string, error) {
	if ip, ok := r.cached(host); ok {
		return ip, nil
	}
	addrs, err := r.resolver.LookupHost(ctx, host)
	if err != nil || len(addrs) == 0 {
		return "", err
	}
	r.Set(host, addrs[0])
	return addrs[0], nil
}

// DialContext is an http.Transport.DialContext replacement that resolves
// addr's host to a LAN IP and dials that instead, without touching the TLS
// ServerName net/http already derived from the request's original host.
func (r *URLRewriter) DialContext(ctx context.Context, network, addr string) (net.Conn, error) {
	host, port, err := net.SplitHostPort(addr)
	if err != nil {
		host, port = addr, ""
	}
	ip, err := r.resolve(ctx, host)
	if err != nil || ip == "" {
		// Resolution failed or this isn't a rewritten host; dial as given.
		var d net.Dialer
		return d.DialContext(ctx, network, addr)
	}
	target := ip
	if port != "" {
		target = net.JoinHostPort(ip, port)
	}
	var d net.Dialer
	return d.DialContext(ctx, network, target)
}
