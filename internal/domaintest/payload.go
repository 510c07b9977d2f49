package domaintest

import (
	"encoding/json"
	"strconv"
	"testing"

	"github.com/Amund211/censusoverlay/internal/domain"
	"github.com/stretchr/testify/require"
	"github.com/tidwall/gjson"
)

type PayloadBuilder struct {
	t      *testing.T
	fields map[string]any
}

func NewPayloadBuilder(t *testing.T, eventName string) *PayloadBuilder {
	return &PayloadBuilder{
		t: t,
		fields: map[string]any{
			"event_name": eventName,
		},
	}
}

func NewDeathBuilder(t *testing.T, attackerID, victimID string) *PayloadBuilder {
	return NewPayloadBuilder(t, "Death").
		With("attacker_character_id", attackerID).
		With("character_id", victimID)
}

func NewExperienceBuilder(t *testing.T, characterID, experienceID, otherID string) *PayloadBuilder {
	return NewPayloadBuilder(t, "GainExperience").
		With("character_id", characterID).
		With("experience_id", experienceID).
		With("other_id", otherID)
}

func (b *PayloadBuilder) With(key string, value any) *PayloadBuilder {
	b.fields[key] = value
	return b
}

func (b *PayloadBuilder) Without(key string) *PayloadBuilder {
	delete(b.fields, key)
	return b
}

// WithTimestamp sets the timestamp the way the push service sends it, as a string
func (b *PayloadBuilder) WithTimestamp(unix int64) *PayloadBuilder {
	return b.With("timestamp", strconv.FormatInt(unix, 10))
}

func (b *PayloadBuilder) JSON() []byte {
	data, err := json.Marshal(b.fields)
	require.NoError(b.t, err)
	return data
}

// Frame wraps the payload in a push service frame
func (b *PayloadBuilder) Frame() []byte {
	data, err := json.Marshal(map[string]any{
		"payload": json.RawMessage(b.JSON()),
		"service": "event",
		"type":    "serviceMessage",
	})
	require.NoError(b.t, err)
	return data
}

func (b *PayloadBuilder) Build() domain.Payload {
	return domain.NewPayload(gjson.ParseBytes(b.JSON()))
}
