package domain

import (
	"strings"

	"github.com/Amund211/censusoverlay/internal/jsonfield"
	"github.com/tidwall/gjson"
)

// Payload is the `payload` object of a push frame
type Payload struct {
	raw gjson.Result
}

// ParseFrame extracts the payload object from a raw push frame.
// Frames that are not valid JSON or carry no payload are rejected.
func ParseFrame(data []byte) (Payload, bool) {
	if !gjson.ValidBytes(data) {
		return Payload{}, false
	}
	payload := gjson.GetBytes(data, "payload")
	if !payload.IsObject() {
		return Payload{}, false
	}
	return Payload{raw: payload}, true
}

// NewPayload wraps an already parsed payload object
func NewPayload(raw gjson.Result) Payload {
	return Payload{raw: raw}
}

func (p Payload) Get(key string) gjson.Result {
	return p.raw.Get(gjson.Escape(key))
}

func (p Payload) Raw() string {
	return p.raw.Raw
}

// EventName is empty when the payload carries no string event_name
func (p Payload) EventName() string {
	name, _ := jsonfield.Str(p.Get("event_name"))
	return name
}

func (p Payload) Kind() EventKind {
	return ParseEventKind(p.EventName())
}

// Str returns the field if it is a JSON string
func (p Payload) Str(key string) (string, bool) {
	return jsonfield.Str(p.Get(key))
}

// StrOr returns the string field or the fallback
func (p Payload) StrOr(key, fallback string) string {
	value, ok := p.Str(key)
	if !ok {
		return fallback
	}
	return value
}

// Text returns strings as-is and numbers as their literal
func (p Payload) Text(key string) (string, bool) {
	return jsonfield.TextLoose(p.Get(key))
}

func (p Payload) TextOr(key, fallback string) string {
	value, ok := p.Text(key)
	if !ok {
		return fallback
	}
	return value
}

func (p Payload) Uint32(key string) (uint32, bool) {
	return jsonfield.Uint32Loose(p.Get(key))
}

func (p Payload) Float(key string) (float64, bool) {
	return jsonfield.FloatLoose(p.Get(key))
}

// Flag reads census style booleans: "1", "true", true or 1
func (p Payload) Flag(key string) bool {
	value := p.Get(key)
	switch value.Type {
	case gjson.String:
		return value.Str == "1" || strings.EqualFold(value.Str, "true")
	case gjson.True:
		return true
	case gjson.Number:
		v, ok := jsonfield.IntLoose(value)
		return ok && v == 1
	default:
		return false
	}
}

// CharacterID returns the trimmed character_id unless it is empty or "0"
func (p Payload) CharacterID() (string, bool) {
	id, ok := jsonfield.TrimmedStr(p.Get("character_id"))
	if !ok || id == "0" {
		return "", false
	}
	return id, true
}

// WorldID returns the world_id with merged servers normalized
func (p Payload) WorldID() (uint32, bool) {
	worldID, ok := p.Uint32("world_id")
	if !ok {
		return 0, false
	}
	return NormalizeWorldID(worldID), true
}

// Timestamp is the event time in unix seconds
func (p Payload) Timestamp() (float64, bool) {
	return p.Float("timestamp")
}
