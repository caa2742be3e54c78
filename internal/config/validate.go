package config

import (
	"errors"
	"fmt"
	"strings"
)

// ErrInvalid wraps a structural validation failure (Config.Invalid).
var ErrInvalid = errors.New("config: invalid")

// placeholderTokens mirrors spec.md's Config.Placeholder error kind: values
// matching these are treated as "not configured" rather than invalid.
var placeholderTokens = []string{"replace_with", "x.x.x.x", "example"}

// IsPlaceholder reports whether a configured string is an unfilled
// template placeholder rather than a real value.
func IsPlaceholder(v string) bool {
	lv := strings.ToLower(v)
	for _, tok := range placeholderTokens {
		if strings.Contains(lv, tok) {
			return true
		}
	}
	return false
}

// Validate checks structural invariants that must hold before a Root is
// handed to the runtime. Placeholder addresses are not an error here —
// FixtureEntry.ToFixture blanks them, so Fixture.Configured()
// (internal/intent) treats them as unset.
func Validate(r Root) error {
	seen := make(map[string]bool, len(r.Fixtures.Fixtures))
	for _, f := range r.Fixtures.Fixtures {
		if f.ID == "" {
			return fmt.Errorf("fixtures: entry with empty id")
		}
		if seen[f.ID] {
			return fmt.Errorf("fixtures: duplicate id %q", f.ID)
		}
		seen[f.ID] = true

		switch f.Brand {
		case "hub", "udp", "mod":
		default:
			return fmt.Errorf("fixtures[%s]: unknown brand %q", f.ID, f.Brand)
		}
	}

	for action, b := range r.Midi.Bindings {
		switch b.Type {
		case "note", "cc":
		default:
			return fmt.Errorf("midi.bindings[%s]: unknown type %q", action, b.Type)
		}
		if b.Number < 0 || b.Number > 127 {
			return fmt.Errorf("midi.bindings[%s]: number %d out of MIDI 7-bit range", action, b.Number)
		}
	}

	if r.Audio.Channels <= 0 {
		return fmt.Errorf("audio: channels must be positive, got %d", r.Audio.Channels)
	}
	if r.Audio.SampleRate <= 0 {
		return fmt.Errorf("audio: sampleRate must be positive, got %v", r.Audio.SampleRate)
	}

	return nil
}
