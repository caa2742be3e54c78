package intent

import "testing"

func TestFixtureConfigured(t *testing.T) {
	cases := []struct {
		name string
		f    Fixture
		want bool
	}{
		{
			name: "hub configured private ip",
			f: Fixture{Brand: BrandHub, Hub: HubAddress{Host: "192.168.1.10", User: "abc", LightID: "3"}},
			want: true,
		},
		{
			name: "hub missing user",
			f:    Fixture{Brand: BrandHub, Hub: HubAddress{Host: "192.168.1.10", LightID: "3"}},
			want: false,
		},
		{
			name: "hub public ip rejected",
			f:    Fixture{Brand: BrandHub, Hub: HubAddress{Host: "8.8.8.8", User: "abc", LightID: "3"}},
			want: false,
		},
		{
			name: "udp configured",
			f:    Fixture{Brand: BrandUDP, Udp: UdpAddress{Host: "10.0.0.5", Port: 38899}},
			want: true,
		},
		{
			name: "udp missing port",
			f:    Fixture{Brand: BrandUDP, Udp: UdpAddress{Host: "10.0.0.5"}},
			want: false,
		},
		{
			name: "mod brand never configured here",
			f:    Fixture{Brand: BrandMod},
			want: false,
		},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			if got := c.f.Configured(); got != c.want {
				t.Errorf("Configured() = %v, want %v", got, c.want)
			}
		})
	}
}

func TestIntentKindRouting(t *testing.T) {
	var i Intent = HubState{ZoneName: "bedroom"}
	if i.IntentKind() != KindHubState {
		t.Errorf("got %v", i.IntentKind())
	}
	var u Intent = UdpPulse{ZoneName: "kitchen"}
	if u.IntentKind() != KindUdpPulse {
		t.Errorf("got %v", u.IntentKind())
	}
	var ch Intent = ChatHubState{HubState{ZoneName: "bedroom"}}
	if ch.IntentKind() != KindChatHubState {
		t.Errorf("got %v", ch.IntentKind())
	}
	if ch.Zone() != "bedroom" {
		t.Errorf("zone passthrough broken: %v", ch.Zone())
	}
}
