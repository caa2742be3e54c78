package midi

import (
	"fmt"

	"github.com/NameSRoby/ravelink-bridge/internal/config"
)

// FromConfig builds a Resolver from the persisted MIDI bindings document.
func FromConfig(cfg config.MidiConfig) (*Resolver, error) {
	bindings := make([]Binding, 0, len(cfg.Bindings))
	for action, b := range cfg.Bindings {
		var typ MessageType
		switch b.Type {
		case "note":
			typ = NoteOn
		case "cc":
			typ = ControlChange
		default:
			return nil, fmt.Errorf("midi: binding %q has unknown type %q", action, b.Type)
		}
		channel := b.Channel
		if channel == 0 {
			channel = -1 // unset in config means "any channel"
		}
		bindings = append(bindings, Binding{
			Action:   action,
			Type:     typ,
			Number:   b.Number,
			Channel:  channel,
			MinValue: b.MinValue,
		})
	}
	return NewResolver(bindings, cfg.VelocityThreshold), nil
}
