package hubtransport

import (
	"bytes"
	"context"
	"crypto/tls"
	"crypto/x509"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/NameSRoby/ravelink-bridge/internal/intent"
)

// restTimeout bounds a single PUT to the hub, per spec.md §4.5.
const restTimeout = 1500 * time.Millisecond

// putBody is the wire body of the hub REST PUT.
type putBody struct {
	On             bool     `json:"on"`
	Hue            uint16   `json:"hue"`
	Sat            uint8    `json:"sat"`
	Bri            uint8    `json:"bri"`
	XY             *[2]float64 `json:"xy,omitempty"`
	CT             *uint16  `json:"ct,omitempty"`
	TransitionTime uint16   `json:"transitiontime"`
}

type putRequest struct {
	target HubTarget
	body   putBody
}

// HubTarget is the destination address for one hub REST write.
type HubTarget struct {
	Host    string
	User    string
	LightID string
}

func (t HubTarget) url() string {
	return fmt.Sprintf("https://%s/api/%s/lights/%s/state", t.Host, t.User, t.LightID)
}

// restSender maintains one capacity-1, LIFO-coalescing mailbox per zone so
// that at most one PUT per zone is ever in flight; a newer state always
// replaces a still-pending one instead of queuing behind it.
type restSender struct {
	client  *http.Client
	rewrite *URLRewriter

	// onFatal reports a REST-path error that must surface as a terminal
	// config failure instead of a per-request log line, e.g. a hub
	// presenting a certificate no CA in the bundle trusts.
	onFatal func(zone string, err *TransportError)

	mu     sync.Mutex
	queues map[string]chan putRequest
}

func newRestSender(rewrite *URLRewriter) *restSender {
	return &restSender{
		client: &http.Client{
			Timeout: restTimeout,
			Transport: &http.Transport{
				MaxIdleConnsPerHost: 4,
				IdleConnTimeout:     30 * time.Second,
				DialContext:         rewrite.DialContext,
				TLSClientConfig:     &tls.Config{RootCAs: bundledCAPool()},
			},
		},
		rewrite: rewrite,
		queues:  make(map[string]chan putRequest),
	}
}

func (r *restSender) enqueue(zone string, req putRequest) {
	r.mu.Lock()
	ch, ok := r.queues[zone]
	if !ok {
		ch = make(chan putRequest, 1)
		r.queues[zone] = ch
		go r.worker(zone, ch)
	}
	r.mu.Unlock()

	select {
	case ch <- req:
		return
	default:
	}
	// Mailbox full: drop the stale pending entry, keep only the newest.
	select {
	case <-ch:
	default:
	}
	select {
	case ch <- req:
	default:
	}
}

func (r *restSender) worker(zone string, ch chan putRequest) {
	for req := range ch {
		if err := r.send(req); err != nil {
			if te, ok := err.(*TransportError); ok && te.Kind == ErrCertUntrusted && r.onFatal != nil {
				r.onFatal(zone, te)
				continue
			}
			slog.Debug("hubtransport: rest put failed", "zone", zone, "target", req.target.Host, "err", err)
		}
	}
}

// send issues the PUT. Address rewriting to the hub's LAN IP happens inside
// the client's Transport.DialContext, so targetURL always carries the
// hub's real identity host — that is what net/http uses to derive
// tls.Config.ServerName for certificate validation.
func (r *restSender) send(req putRequest) error {
	payload, err := json.Marshal(req.body)
	if err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(context.Background(), restTimeout)
	defer cancel()

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPut, req.target.url(), bytes.NewReader(payload))
	if err != nil {
		return err
	}
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := r.client.Do(httpReq)
	if err != nil {
		return classifyRestErr(err)
	}
	defer resp.Body.Close()
	return nil
}

// classifyRestErr maps a certificate trust failure to ErrCertUntrusted
// (spec.md §4.5/§7: fatal, no retry) and everything else to ErrSocketFault.
func classifyRestErr(err error) error {
	var hostErr x509.HostnameError
	var authErr x509.UnknownAuthorityError
	var certErr x509.CertificateInvalidError
	if errors.As(err, &hostErr) || errors.As(err, &authErr) || errors.As(err, &certErr) {
		return classify(ErrCertUntrusted, err)
	}
	return classify(ErrSocketFault, err)
}

// colorToBody converts a HubColor intent state to the wire body.
func colorToBody(c intent.HubColor) putBody {
	return putBody{
		On:             c.On,
		Hue:            c.Hue,
		Sat:            c.Sat,
		Bri:            c.Bri,
		XY:             c.XY,
		CT:             c.CT,
		TransitionTime: c.TransitionTime,
	}
}
