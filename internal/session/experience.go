package session

import (
	"fmt"

	"github.com/Amund211/censusoverlay/internal/domain"
)

func (e *Engine) applyExperience(acc *Accumulator, work Work) []domain.Message {
	self := work.CharacterID
	payload := work.Payload

	experienceID := payload.StrOr("experience_id", "")
	characterID := payloadID(payload, "character_id")
	otherID := payloadID(payload, "other_id")

	revive := isReviveExperience(experienceID)
	if revive {
		acc.recordEncounterRevive(otherID)
	}

	var out []domain.Message

	if revive && otherID == self {
		acc.ensureStarted(work.Now)
		acc.revivesReceived = saturatingInc(acc.revivesReceived)
		acc.state = acc.state.afterReviveTaken()
		count, _ := acc.incrementSupport("Revive Taken")

		out = append(out,
			e.sessionRaw(acc),
			e.event("Revive Taken"),
			e.voice(voiceRevived),
		)
		if acc.killstreak > 0 {
			out = append(out, e.streak(acc, acc.killstreak, true))
		}
		out = append(out, e.event(fmt.Sprintf("Revive Taken %d", count)))
	}

	if characterID == self {
		if teamID, ok := payload.Uint32("team_id"); ok {
			acc.teamID = teamID
		}
		acc.updateLocation(payload)
		out = append(out, e.ownExperience(acc, experienceID, revive)...)
	}

	if otherID == self && experienceID == experienceRoadkilled {
		out = append(out, e.event("Get RoadKilled"))
	}

	return out
}

func (e *Engine) ownExperience(acc *Accumulator, experienceID string, revive bool) []domain.Message {
	var out []domain.Message

	if vehicle, ok := e.vehicles.GunnerKill(experienceID); ok {
		out = append(out, e.presenter.SubsetEvent("Gunner Vehicle Destruction", "Gunner Kill "+vehicle))
	}
	if vehicle, ok := e.vehicles.VehicleKill(experienceID); ok {
		out = append(out, e.presenter.SubsetEvent("Vehicle Destruction", "Kill "+vehicle))
	}
	if e.vehicles.IsRepair(experienceID) {
		count, _ := acc.incrementSupport("Repair")
		out = append(out,
			e.event("Repair"),
			e.event(fmt.Sprintf("Repair %d", count)),
		)
	}

	switch {
	case revive:
		count, _ := acc.incrementSupport("Revive Given")
		out = append(out,
			e.event("Revive Given"),
			e.event(fmt.Sprintf("Revive Given %d", count)),
		)
	case isAssistExperience(experienceID):
		out = append(out, e.event("Assist"))
	default:
		name, ok := mappedExperienceEvent(experienceID)
		if !ok {
			break
		}
		out = append(out, e.event(name))
		if count, counted := acc.incrementSupport(name); counted {
			out = append(out, e.event(fmt.Sprintf("%s %d", name, count)))
		}
	}

	return out
}
