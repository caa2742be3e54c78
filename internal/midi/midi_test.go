package midi

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/NameSRoby/ravelink-bridge/internal/config"
)

func TestDecodeNoteOn(t *testing.T) {
	msg, ok, err := Decode([]byte{0x90, 60, 100})
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, NoteOn, msg.Type)
	require.Equal(t, 0, msg.Channel)
	require.Equal(t, 60, msg.Number)
	require.Equal(t, 100, msg.Value)
}

func TestDecodeNoteOnWithZeroVelocityIsNoteOff(t *testing.T) {
	msg, ok, err := Decode([]byte{0x91, 40, 0})
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, NoteOff, msg.Type)
	require.Equal(t, 1, msg.Channel)
}

func TestDecodeNoteOff(t *testing.T) {
	msg, ok, err := Decode([]byte{0x82, 40, 64})
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, NoteOff, msg.Type)
	require.Equal(t, 2, msg.Channel)
}

func TestDecodeControlChange(t *testing.T) {
	msg, ok, err := Decode([]byte{0xB3, 20, 127})
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, ControlChange, msg.Type)
	require.Equal(t, 3, msg.Channel)
	require.Equal(t, 20, msg.Number)
	require.Equal(t, 127, msg.Value)
}

func TestDecodeIgnoresUnknownStatus(t *testing.T) {
	_, ok, err := Decode([]byte{0xF8, 0, 0})
	require.NoError(t, err)
	require.False(t, ok)
}

func TestDecodeRejectsTruncatedMessage(t *testing.T) {
	_, _, err := Decode([]byte{0x90, 60})
	require.Error(t, err)
}

func TestResolverAppliesVelocityGate(t *testing.T) {
	r := NewResolver([]Binding{{Action: "strobe", Type: NoteOn, Number: 60, Channel: -1}}, 10)

	_, ok := r.Resolve(Message{Type: NoteOn, Number: 60, Value: 5})
	require.False(t, ok, "messages below the velocity threshold must not resolve")

	action, ok := r.Resolve(Message{Type: NoteOn, Number: 60, Value: 50})
	require.True(t, ok)
	require.Equal(t, "strobe", action)
}

func TestResolverRespectsChannelFilter(t *testing.T) {
	r := NewResolver([]Binding{{Action: "drop", Type: ControlChange, Number: 20, Channel: 3, MinValue: 1}}, 0)

	_, ok := r.Resolve(Message{Type: ControlChange, Number: 20, Channel: 2, Value: 80})
	require.False(t, ok, "a binding pinned to channel 3 must not match channel 2")

	action, ok := r.Resolve(Message{Type: ControlChange, Number: 20, Channel: 3, Value: 80})
	require.True(t, ok)
	require.Equal(t, "drop", action)
}

func TestResolverMinValueOverridesGlobalThreshold(t *testing.T) {
	r := NewResolver([]Binding{{Action: "bigHit", Type: NoteOn, Number: 36, Channel: -1, MinValue: 100}}, 1)

	_, ok := r.Resolve(Message{Type: NoteOn, Number: 36, Value: 50})
	require.False(t, ok, "a per-binding MinValue must gate even when the global threshold would pass")
}

func TestFromConfigBuildsResolver(t *testing.T) {
	cfg := config.MidiConfig{
		VelocityThreshold: 2,
		Bindings: map[string]config.MidiBinding{
			"strobe": {Type: "cc", Number: 20, MinValue: 64},
		},
	}
	r, err := FromConfig(cfg)
	require.NoError(t, err)

	action, ok := r.Resolve(Message{Type: ControlChange, Number: 20, Value: 90})
	require.True(t, ok)
	require.Equal(t, "strobe", action)
}

func TestFromConfigRejectsUnknownBindingType(t *testing.T) {
	cfg := config.MidiConfig{Bindings: map[string]config.MidiBinding{"x": {Type: "sysex"}}}
	_, err := FromConfig(cfg)
	require.Error(t, err)
}
