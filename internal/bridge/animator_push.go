package bridge

import (
	"github.com/NameSRoby/ravelink-bridge/internal/animator"
	"github.com/NameSRoby/ravelink-bridge/internal/hubtransport"
	"github.com/NameSRoby/ravelink-bridge/internal/intent"
	"github.com/NameSRoby/ravelink-bridge/internal/registry"
	"github.com/NameSRoby/ravelink-bridge/internal/udptransport"
)

// pushAnimatorState delivers one standalone fixture's animator state to
// whichever transport owns its address, bypassing the scheduler gate: a
// standalone fixture's own ticker already paces its updates, so there is
// no separate rate limit to apply on top of it.
func (b *Bridge) pushAnimatorState(fixtureID string, s animator.State) {
	fixtures := b.Registry.ListBy(registry.ListFilter{})
	var f intent.Fixture
	found := false
	for _, cand := range fixtures {
		if cand.ID == fixtureID {
			f, found = cand, true
			break
		}
	}
	if !found || !f.CustomEnabled {
		return
	}

	switch f.Brand {
	case intent.BrandHub:
		hue := uint16(s.Hue) << 8 // scale 0-255 up into the hub's 0-65535 range
		color := intent.HubColor{Hue: hue, Sat: s.Sat, Bri: s.Bri, On: s.On}
		b.Hub.Send(f.Zone, hubTargetOf(f), color, []hubtransport.RGB{hubRGBFromColor(color)})
	case intent.BrandUDP:
		r, g, bl := hsvToRGB(float64(s.Hue)/255, float64(s.Sat)/255, float64(s.Bri)/255)
		dim := uint8(10 + (s.Bri*90)/255)
		color := intent.UdpColor{R: r, G: g, B: bl, Dimming: dim}
		addr := udptransport.DeviceAddr(f.Udp.Host, f.Udp.Port)
		b.Udp.Send(addr, color, udptransport.NoRepeat)
	}
}

func hubTargetOf(f intent.Fixture) hubtransport.HubTarget {
	return hubtransport.HubTarget{Host: f.Hub.Host, User: f.Hub.User, LightID: f.Hub.LightID}
}
