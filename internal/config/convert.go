package config

import (
	"fmt"
	"strings"

	"github.com/NameSRoby/ravelink-bridge/internal/intent"
	"github.com/NameSRoby/ravelink-bridge/internal/registry"
)

// kindByName is the inverse of intent.Kind.String(), used to parse the
// persisted {KIND→zone} route table keys.
var kindByName = map[string]intent.Kind{
	"HubState":     intent.KindHubState,
	"UdpPulse":     intent.KindUdpPulse,
	"ChatHubState": intent.KindChatHubState,
	"ChatUdpPulse": intent.KindChatUdpPulse,
}

func brandFromString(s string) intent.Brand {
	switch strings.ToLower(s) {
	case "udp":
		return intent.BrandUDP
	case "mod":
		return intent.BrandMod
	default:
		return intent.BrandHub
	}
}

// ToFixture converts one persisted fixture entry into the runtime type the
// registry owns. Placeholder address fields (see IsPlaceholder) are
// blanked, so Fixture.Configured() reports such a fixture as unset.
func (e FixtureEntry) ToFixture() intent.Fixture {
	unset := func(v string) string {
		if IsPlaceholder(v) {
			return ""
		}
		return v
	}
	return intent.Fixture{
		ID:            e.ID,
		Brand:         brandFromString(e.Brand),
		Zone:          e.Zone,
		Enabled:       e.Enabled,
		EngineEnabled: e.EngineEnabled,
		TwitchEnabled: e.TwitchEnabled,
		CustomEnabled: e.CustomEnabled,
		Hub: intent.HubAddress{
			Host:    unset(e.HubHost),
			User:    unset(e.HubUser),
			LightID: unset(e.HubLightID),
		},
		Udp: intent.UdpAddress{
			Host: unset(e.UdpHost),
			Port: e.UdpPort,
		},
	}
}

// Seed populates a fresh registry from the loaded fixtures document.
func (c FixturesConfig) Seed(r *registry.Registry) error {
	for _, entry := range c.Fixtures {
		r.UpsertFixture(entry.ToFixture())
	}
	for name, zone := range c.IntentRoutes {
		kind, ok := kindByName[name]
		if !ok {
			return fmt.Errorf("config: unknown intent route kind %q", name)
		}
		r.SetIntentRoute(kind, zone)
	}
	return nil
}
