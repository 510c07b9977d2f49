package domain

import (
	"fmt"
	"strconv"
)

// UID derives the identity used to drop replayed payloads.
// Payloads without an event name have no identity.
func (p Payload) UID() (string, bool) {
	eventName, ok := p.Str("event_name")
	if !ok {
		return "", false
	}
	timestamp := p.TextOr("timestamp", "0")
	worldID := func() string {
		worldID, _ := p.WorldID()
		return strconv.FormatUint(uint64(worldID), 10)
	}

	switch ParseEventKind(eventName) {
	case EventGainExperience:
		return fmt.Sprintf(
			"EXP_%s_%s_%s_%s",
			timestamp,
			p.StrOr("character_id", "0"),
			p.StrOr("experience_id", "0"),
			p.StrOr("other_id", "0"),
		), true
	case EventDeath:
		return fmt.Sprintf(
			"DTH_%s_%s_%s_%s",
			timestamp,
			p.StrOr("character_id", "0"),
			p.StrOr("attacker_character_id", "0"),
			p.StrOr("attacker_weapon_id", "0"),
		), true
	case EventMetagame:
		return fmt.Sprintf(
			"MTG_%s_%s_%s_%s",
			timestamp,
			worldID(),
			p.TextOr("metagame_event_id", "0"),
			p.TextOr("metagame_event_state_name", "unknown"),
		), true
	case EventFacilityCapture, EventFacilityDefend:
		return fmt.Sprintf(
			"FAC_%s_%s_%s_%s_%s_%s",
			eventName,
			timestamp,
			p.StrOr("character_id", "0"),
			p.TextOr("facility_id", "0"),
			worldID(),
			p.TextOr("zone_id", "0"),
		), true
	default:
		return fmt.Sprintf(
			"%s_%s_%s_%s",
			eventName,
			timestamp,
			p.StrOr("character_id", "0"),
			p.StrOr("attacker_character_id", "0"),
		), true
	}
}
