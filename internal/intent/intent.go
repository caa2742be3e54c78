// Package intent defines the shared data model that flows between the
// reactive engine, the per-fixture schedulers, the fixture registry, and
// the transports: audio frames, feature snapshots, intents, fixtures, and
// the route table.
package intent

// Frame is a contiguous block of interleaved float32 PCM samples.
type Frame []float32

// Snapshot is the per-tick output of the feature extractor. It is a value
// type on purpose: the spec requires consumers not retain references to a
// snapshot beyond one tick, and a value type makes that the natural thing
// to do (there is nothing to alias).
type Snapshot struct {
	Level    float64
	Peak     float64
	RMS      float64
	BandLow  float64
	BandMid  float64
	BandHigh float64
	Transient    float64
	SpectralFlux float64
	ZCR          float64

	AutoGain      float64
	AdaptiveFloor float64
	AdaptiveCeil  float64

	BPMEstimate    float64
	HasBPMEstimate bool
	BeatConfidence float64
}

// Kind identifies an Intent's wire/route family.
type Kind int

const (
	KindHubState Kind = iota
	KindUdpPulse
	KindChatHubState
	KindChatUdpPulse
)

func (k Kind) String() string {
	switch k {
	case KindHubState:
		return "HubState"
	case KindUdpPulse:
		return "UdpPulse"
	case KindChatHubState:
		return "ChatHubState"
	case KindChatUdpPulse:
		return "ChatUdpPulse"
	default:
		return "Unknown"
	}
}

// Intent is a single desired light state emitted by the reactive engine
// (or the chat-color collaborator) for one light family.
type Intent interface {
	IntentKind() Kind
	Zone() string
}

// HubColor is the hub ecosystem's native state representation.
type HubColor struct {
	Hue            uint16
	Sat            uint8
	Bri            uint8
	XY             *[2]float64
	CT             *uint16
	On             bool
	TransitionTime uint16 // in the hub's 100ms units
}

// HubState is an Intent targeting the hub family.
type HubState struct {
	State       HubColor
	ZoneName    string
	RateMs      int
	ForceDelta  bool
	DeltaScale  float64
}

func (HubState) IntentKind() Kind   { return KindHubState }
func (h HubState) Zone() string     { return h.ZoneName }

// UdpColor is the UDP ecosystem's native per-device color command.
type UdpColor struct {
	R, G, B uint8
	Dimming uint8 // 10-100
}

// UdpPulse is an Intent targeting the UDP family.
type UdpPulse struct {
	Color      UdpColor
	ZoneName   string
	RateMs     int
	ForceDelta bool
	DeltaScale float64
	Beat       bool
	Drop       bool
	Band       string // "low" | "mid" | "high" | ""
}

func (UdpPulse) IntentKind() Kind { return KindUdpPulse }
func (u UdpPulse) Zone() string   { return u.ZoneName }

// ChatHubState is a HubState routed from the chat-color collaborator
// instead of the reactive engine; identical shape, different route key.
type ChatHubState struct{ HubState }

func (ChatHubState) IntentKind() Kind { return KindChatHubState }

// ChatUdpPulse is a UdpPulse routed from the chat-color collaborator.
type ChatUdpPulse struct{ UdpPulse }

func (ChatUdpPulse) IntentKind() Kind { return KindChatUdpPulse }

// Brand identifies a fixture's ecosystem.
type Brand int

const (
	BrandHub Brand = iota
	BrandUDP
	BrandMod
)

func (b Brand) String() string {
	switch b {
	case BrandHub:
		return "hub"
	case BrandUDP:
		return "udp"
	case BrandMod:
		return "mod"
	default:
		return "unknown"
	}
}

// HubAddress is the brand-specific addressing for a hub fixture.
type HubAddress struct {
	Host   string
	User   string
	LightID string
}

// UdpAddress is the brand-specific addressing for a UDP fixture.
type UdpAddress struct {
	Host string
	Port int
}

// Fixture is one addressable light, exclusively owned by the registry.
// Consumers receive read-only copies (Fixture is a value type).
type Fixture struct {
	ID             string
	Brand          Brand
	Zone           string
	Enabled        bool
	EngineEnabled  bool
	TwitchEnabled  bool
	CustomEnabled  bool
	Hub            HubAddress
	Udp            UdpAddress
}

// Configured reports whether all brand-specific address fields are present
// and, for network-addressed brands, whether the host passes a private-IPv4
// check (fixtures are never auto-enrolled against a public address).
func (f Fixture) Configured() bool {
	switch f.Brand {
	case BrandHub:
		return f.Hub.Host != "" && f.Hub.User != "" && f.Hub.LightID != "" && isPrivateIPv4Host(f.Hub.Host)
	case BrandUDP:
		return f.Udp.Host != "" && f.Udp.Port > 0 && isPrivateIPv4Host(f.Udp.Host)
	default:
		return false
	}
}

// RouteTable maps an intent kind to a zone token ("all", an explicit zone,
// or a list joined by [,;|]). Versioned by the registry that owns it.
type RouteTable map[Kind]string
