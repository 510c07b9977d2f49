package domain_test

import (
	"testing"

	"github.com/Amund211/censusoverlay/internal/domaintest"
	"github.com/stretchr/testify/require"
)

func TestPayloadFlag(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		value    any
		expected bool
	}{
		{name: "string one", value: "1", expected: true},
		{name: "string zero", value: "0", expected: false},
		{name: "string true", value: "TRUE", expected: true},
		{name: "string false", value: "false", expected: false},
		{name: "bool", value: true, expected: true},
		{name: "number one", value: 1, expected: true},
		{name: "number two", value: 2, expected: false},
		{name: "null", value: nil, expected: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			payload := domaintest.NewDeathBuilder(t, "1", "2").With("is_headshot", tt.value).Build()
			require.Equal(t, tt.expected, payload.Flag("is_headshot"))
		})
	}
}

func TestPayloadWorldID(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		value    any
		expected uint32
		ok       bool
	}{
		{name: "string", value: "40", expected: 40, ok: true},
		{name: "number", value: 40, expected: 40, ok: true},
		{name: "merged 17", value: "17", expected: 1, ok: true},
		{name: "merged 13", value: 13, expected: 10, ok: true},
		{name: "negative", value: -1, ok: false},
		{name: "garbage", value: "x", ok: false},
		{name: "missing", value: nil, ok: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			builder := domaintest.NewPayloadBuilder(t, "PlayerLogin")
			if tt.value != nil {
				builder = builder.With("world_id", tt.value)
			}
			worldID, ok := builder.Build().WorldID()
			require.Equal(t, tt.ok, ok)
			require.Equal(t, tt.expected, worldID)
		})
	}
}

func TestPayloadCharacterID(t *testing.T) {
	t.Parallel()

	for _, value := range []any{"0", "", "  ", 123} {
		payload := domaintest.NewPayloadBuilder(t, "GainExperience").With("character_id", value).Build()
		_, ok := payload.CharacterID()
		require.False(t, ok, "value %v", value)
	}

	payload := domaintest.NewPayloadBuilder(t, "GainExperience").With("character_id", " 100 ").Build()
	id, ok := payload.CharacterID()
	require.True(t, ok)
	require.Equal(t, "100", id)
}

func TestPayloadTimestamp(t *testing.T) {
	t.Parallel()

	ts, ok := domaintest.NewPayloadBuilder(t, "Death").WithTimestamp(1700000000).Build().Timestamp()
	require.True(t, ok)
	require.InDelta(t, 1700000000.0, ts, 1e-9)

	ts, ok = domaintest.NewPayloadBuilder(t, "Death").With("timestamp", 1700000000.5).Build().Timestamp()
	require.True(t, ok)
	require.InDelta(t, 1700000000.5, ts, 1e-9)

	_, ok = domaintest.NewPayloadBuilder(t, "Death").Build().Timestamp()
	require.False(t, ok)
}
