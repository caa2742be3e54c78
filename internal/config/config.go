// Package config loads the bridge's layered configuration (audio, fixture
// routing, Twitch color text defaults, and MIDI bindings) through koanf,
// grounded in the teacher's internal/config/koanf.go: a YAML file provides
// the base, environment variables prefixed RAVELINK_ override it, and
// built-in defaults fill anything left unset.
package config

import (
	"fmt"
	"strings"
	"sync"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env/v2"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"

	"github.com/NameSRoby/ravelink-bridge/internal/audiosource"
)

// FixtureEntry is the on-disk shape of one configured fixture.
type FixtureEntry struct {
	ID            string `koanf:"id"`
	Brand         string `koanf:"brand"` // "hub", "udp", "mod"
	Zone          string `koanf:"zone"`
	Enabled       bool   `koanf:"enabled"`
	EngineEnabled bool   `koanf:"engineEnabled"`
	TwitchEnabled bool   `koanf:"twitchEnabled"`
	CustomEnabled bool   `koanf:"customEnabled"`
	HubHost       string `koanf:"hubHost"`
	HubUser       string `koanf:"hubUser"`
	HubLightID    string `koanf:"hubLightId"`
	UdpHost       string `koanf:"udpHost"`
	UdpPort       int    `koanf:"udpPort"`
}

// FixturesConfig is the persisted fixture+routing document (spec.md §6).
type FixturesConfig struct {
	IntentRoutes map[string]string `koanf:"intentRoutes"`
	Fixtures     []FixtureEntry    `koanf:"fixtures"`
}

// TwitchRaveOff configures the chat "lights off" rave-stop phrase set.
type TwitchRaveOff struct {
	Phrases []string `koanf:"phrases"`
}

// TwitchColorConfig is the persisted chat color-text document.
type TwitchColorConfig struct {
	Version           int               `koanf:"version"`
	DefaultTarget     string            `koanf:"defaultTarget"`
	AutoDefaultTarget bool              `koanf:"autoDefaultTarget"`
	Prefixes          map[string]string `koanf:"prefixes"`
	FixturePrefixes   map[string]string `koanf:"fixturePrefixes"`
	RaveOff           TwitchRaveOff     `koanf:"raveOff"`
}

// MidiBinding maps one logical action to a MIDI message descriptor.
type MidiBinding struct {
	Type     string `koanf:"type"` // "note" or "cc"
	Number   int    `koanf:"number"`
	Channel  int    `koanf:"channel"` // 0 means "any channel"; see midi.FromConfig
	MinValue int    `koanf:"minValue"`
}

// MidiConfig is the persisted MIDI bindings document.
type MidiConfig struct {
	Version           int                    `koanf:"version"`
	Enabled           bool                   `koanf:"enabled"`
	DeviceIndex       int                    `koanf:"deviceIndex"`
	DeviceMatch       string                 `koanf:"deviceMatch"`
	VelocityThreshold int                    `koanf:"velocityThreshold"`
	Bindings          map[string]MidiBinding `koanf:"bindings"`
}

// Root is the full layered configuration document.
type Root struct {
	Audio    audiosource.Config `koanf:"audio"`
	Fixtures FixturesConfig     `koanf:"fixtures"`
	Twitch   TwitchColorConfig  `koanf:"twitch"`
	Midi     MidiConfig         `koanf:"midi"`
}

// DefaultRoot returns a fully-populated default configuration.
func DefaultRoot() Root {
	return Root{
		Audio: audiosource.DefaultConfig(),
		Fixtures: FixturesConfig{
			IntentRoutes: map[string]string{},
			Fixtures:     nil,
		},
		Twitch: TwitchColorConfig{
			Version:           1,
			DefaultTarget:     "all",
			AutoDefaultTarget: true,
			Prefixes:          map[string]string{"hue": "hue", "wiz": "wiz", "other": "all"},
			FixturePrefixes:   map[string]string{},
			RaveOff:           TwitchRaveOff{Phrases: []string{"lights off", "rave stop"}},
		},
		Midi: MidiConfig{
			Version:           1,
			Enabled:           false,
			DeviceIndex:       -1,
			VelocityThreshold: 1,
			Bindings:          map[string]MidiBinding{},
		},
	}
}

// Loader wraps koanf the way the teacher's KoanfConfig does: atomic
// reload-on-demand, env override precedence over YAML, RWMutex-guarded
// access to the live instance.
type Loader struct {
	mu        sync.RWMutex
	k         *koanf.Koanf
	filePath  string
	envPrefix string
}

// Option configures a Loader.
type Option func(*Loader)

// WithYAMLFile sets the YAML configuration file path.
func WithYAMLFile(path string) Option {
	return func(l *Loader) { l.filePath = path }
}

// WithEnvPrefix overrides the default "RAVELINK" environment prefix.
func WithEnvPrefix(prefix string) Option {
	return func(l *Loader) { l.envPrefix = prefix }
}

// NewLoader constructs a Loader and performs its initial load.
func NewLoader(opts ...Option) (*Loader, error) {
	l := &Loader{envPrefix: "RAVELINK"}
	for _, opt := range opts {
		opt(l)
	}
	if err := l.reload(); err != nil {
		return nil, err
	}
	return l, nil
}

func (l *Loader) reload() error {
	newK := koanf.New(".")

	if l.filePath != "" {
		if err := newK.Load(file.Provider(l.filePath), yaml.Parser()); err != nil {
			return fmt.Errorf("config: loading %s: %w", l.filePath, err)
		}
	}

	envProvider := env.Provider(".", env.Opt{
		Prefix: l.envPrefix + "_",
		TransformFunc: func(k, v string) (string, any) {
			k = strings.TrimPrefix(k, l.envPrefix+"_")
			return strings.ReplaceAll(strings.ToLower(k), "_", "."), v
		},
	})
	if err := newK.Load(envProvider, nil); err != nil {
		return fmt.Errorf("config: loading environment overrides: %w", err)
	}

	l.mu.Lock()
	l.k = newK
	l.mu.Unlock()
	return nil
}

// Reload re-reads the YAML file and environment on top of defaults.
func (l *Loader) Reload() error {
	return l.reload()
}

// Load unmarshals and validates the current configuration. Fields absent
// from both the YAML file and the environment keep their default values,
// since Unmarshal decodes onto a struct pre-populated by DefaultRoot
// rather than a zero value.
func (l *Loader) Load() (Root, error) {
	l.mu.RLock()
	k := l.k
	l.mu.RUnlock()

	root := DefaultRoot()
	if err := k.Unmarshal("", &root); err != nil {
		return Root{}, fmt.Errorf("config: unmarshal: %w", err)
	}
	if err := Validate(root); err != nil {
		return Root{}, fmt.Errorf("%w: %v", ErrInvalid, err)
	}
	return root, nil
}
