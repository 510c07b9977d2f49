package session

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/Amund211/censusoverlay/internal/domain"
	"github.com/Amund211/censusoverlay/internal/jsonfield"
	"github.com/Amund211/censusoverlay/internal/logging"
)

func (e *Engine) applyLogin(acc *Accumulator, work Work) []domain.Message {
	if payloadID(work.Payload, "character_id") != work.CharacterID {
		return nil
	}
	if worldID, ok := work.Payload.WorldID(); ok {
		acc.worldID = worldID
	}
	acc.ensureStarted(work.Now)

	return []domain.Message{
		e.sessionRaw(acc),
		e.event("Login " + domain.FactionTag(loginFaction(work.Payload))),
	}
}

// loginFaction prefers a non-zero team over the faction of the character
func loginFaction(payload domain.Payload) uint32 {
	if teamID, ok := payload.Uint32("team_id"); ok && teamID != 0 {
		return teamID
	}
	if factionID, ok := payload.Uint32("faction_id"); ok {
		return factionID
	}
	if factionID, ok := jsonfield.Uint32Loose(payload.Get("character").Get("faction_id")); ok {
		return factionID
	}
	return 0
}

func (e *Engine) applyLogout(acc *Accumulator, work Work) []domain.Message {
	if payloadID(work.Payload, "character_id") != work.CharacterID {
		return nil
	}
	acc.pause(work.Now)

	return []domain.Message{e.sessionRaw(acc)}
}

func (e *Engine) applyFacility(ctx context.Context, acc *Accumulator, work Work) {
	if payloadID(work.Payload, "character_id") != work.CharacterID {
		return
	}
	acc.updateLocation(work.Payload)

	facilityID := work.Payload.TextOr("facility_id", "")
	name, ok := e.facilities.Name(facilityID)
	if !ok {
		name = fmt.Sprintf("Facility %s", facilityID)
	}
	logging.FromContext(ctx).InfoContext(
		ctx,
		"Facility event",
		slog.String("event", work.Payload.EventName()),
		slog.String("facility", name),
	)
}

func (e *Engine) applyMetagame(acc *Accumulator, work Work) []domain.Message {
	payload := work.Payload

	state, _ := payload.Str("metagame_event_state_name")
	if !strings.EqualFold(state, "ended") {
		return nil
	}

	worldID, _ := payload.WorldID()
	zoneID, _ := payload.Uint32("zone_id")
	if worldID == 0 || zoneID == 0 {
		return nil
	}
	if acc.worldID == 0 || acc.zoneID == 0 || acc.teamID == 0 {
		return nil
	}
	if acc.worldID != worldID || acc.zoneID != zoneID {
		return nil
	}

	if metagameWinner(payload) == acc.teamID {
		return []domain.Message{e.event("Alert Win")}
	}
	return []domain.Message{e.event("Alert End")}
}

// metagameWinner is the team holding the strictly largest territory share, or 0 on a tie
func metagameWinner(payload domain.Payload) uint32 {
	vs, _ := payload.Float("faction_vs")
	nc, _ := payload.Float("faction_nc")
	tr, _ := payload.Float("faction_tr")

	switch {
	case vs > nc && vs > tr:
		return 1
	case nc > vs && nc > tr:
		return 2
	case tr > vs && tr > nc:
		return 3
	default:
		return 0
	}
}
