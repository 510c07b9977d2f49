package session

import (
	"context"
	"log/slog"

	"github.com/Amund211/censusoverlay/internal/domain"
	"github.com/Amund211/censusoverlay/internal/logging"
)

type death struct {
	attackerID string
	victimID   string
	headshot   bool
	teamkill   bool
	weaponID   string
	hasWeapon  bool
	loadoutID  string
}

func readDeath(payload domain.Payload) death {
	attackerID := payload.StrOr("attacker_character_id", "0")
	victimID := payload.StrOr("character_id", "0")

	attackerTeam, attackerTeamOK := payload.Str("attacker_team_id")
	victimTeam, victimTeamOK := payload.Str("team_id")

	weaponID, hasWeapon := trimmedID(payload, "attacker_weapon_id")
	loadoutID, _ := trimmedID(payload, "character_loadout_id")

	return death{
		attackerID: attackerID,
		victimID:   victimID,
		headshot:   payload.Flag("is_headshot"),
		teamkill:   attackerTeamOK && victimTeamOK && attackerTeam == victimTeam && attackerID != victimID,
		weaponID:   weaponID,
		hasWeapon:  hasWeapon,
		loadoutID:  loadoutID,
	}
}

func (e *Engine) applyDeath(ctx context.Context, acc *Accumulator, work Work) []domain.Message {
	self := work.CharacterID
	d := readDeath(work.Payload)

	if d.attackerID == self || d.victimID == self {
		acc.updateLocation(work.Payload)
	}
	acc.recordEncounterDeath(d.attackerID, d.victimID)

	if d.attackerID == self && !isPlaceholderID(d.victimID) && d.victimID != self {
		return e.applyKill(ctx, acc, work, d)
	}
	if d.victimID == self {
		return e.applyVictim(ctx, acc, work, d)
	}
	return nil
}

func (e *Engine) weaponLookup(ctx context.Context, work Work, d death) domain.WeaponLookup {
	return awaitOr(ctx, work.lookups.weapon, domain.ApplyWeaponOverrides(d.weaponID, domain.WeaponLookup{}))
}

func (e *Engine) applyKill(ctx context.Context, acc *Accumulator, work Work, d death) []domain.Message {
	now := work.Now

	if acc.lastVictimID == d.victimID && now-acc.lastVictimAt < e.cfg.DuplicateKillWindow.Seconds() {
		logging.FromContext(ctx).DebugContext(ctx, "Ignoring duplicate kill", slog.String("victimID", d.victimID))
		return nil
	}
	acc.lastVictimID = d.victimID
	acc.lastVictimAt = now

	if teamID, ok := work.Payload.Uint32("attacker_team_id"); ok {
		acc.teamID = teamID
	}

	if d.teamkill {
		return []domain.Message{
			e.voice(voiceTeamkill),
			e.event("Team Kill"),
		}
	}

	weapon := e.weaponLookup(ctx, work, d)

	acc.ensureStarted(now)
	next, reset := acc.state.afterKill()
	if reset {
		acc.resetStreakState()
	}
	acc.state = next

	acc.killstreak = saturatingInc(acc.killstreak)
	if acc.lastKillAt > 0 && now-acc.lastKillAt <= e.multiKillWindow() {
		acc.multiKills = saturatingInc(acc.multiKills)
	} else {
		acc.multiKills = 1
	}
	acc.lastKillAt = now

	if victimTeam, ok := work.Payload.Uint32("team_id"); ok {
		acc.recordStreakFaction(domain.FactionTag(victimTeam))
	} else {
		acc.recordStreakFaction("NSO")
	}

	acc.kills = saturatingInc(acc.kills)
	if weapon.HSREligible {
		acc.hsrKills = saturatingInc(acc.hsrKills)
		if d.headshot {
			acc.headshots = saturatingInc(acc.headshots)
		}
	}

	var weaponID *string
	if d.hasWeapon {
		id := d.weaponID
		weaponID = &id
	}

	victimName := awaitOr(ctx, work.lookups.victimName, d.victimID)

	out := []domain.Message{
		domain.KillEvent{
			Victim:   victimName,
			Weapon:   weaponID,
			Headshot: d.headshot,
			Streak:   acc.killstreak,
			At:       unixTime(now),
		},
		e.sessionRaw(acc),
		e.presenter.Hitmarker(d.headshot),
	}
	if d.headshot {
		out = append(out, e.event("Headshot"))
	}
	if name, ok := multiKillEvent(acc.multiKills); ok {
		out = append(out, e.event(name))
	}
	if name, ok := streakEvent(acc.killstreak); ok {
		out = append(out, e.event(name))
	}
	if weapon.EventName != nil {
		out = append(out, e.event(*weapon.EventName))
	}
	if class, ok := classKillEvent(d.loadoutID); ok {
		out = append(out, e.presenter.SubsetEvent("Kill", class))
	} else {
		out = append(out, e.event("Kill"))
	}

	if isMAXLoadout(d.loadoutID) {
		out = append(out, e.voice(voiceKillMAX))
	}
	if isInfilLoadout(d.loadoutID) {
		out = append(out, e.voice(voiceKillInfil))
	}
	if kd, ok := acc.encounterKD(d.victimID); ok && kd >= highKDThreshold {
		out = append(out, e.voice(voiceKillHighKD))
	} else if d.headshot {
		out = append(out, e.voice(voiceKillHS))
	}

	out = append(out, e.streak(acc, acc.killstreak, true))
	return out
}

func (e *Engine) applyVictim(ctx context.Context, acc *Accumulator, work Work, d death) []domain.Message {
	now := work.Now

	next, reset := acc.state.afterDeath(d.teamkill)
	if reset {
		acc.resetStreakState()
	}
	if teamID, ok := work.Payload.Uint32("team_id"); ok {
		acc.teamID = teamID
	}
	acc.ensureStarted(now)

	if !d.teamkill {
		weapon := e.weaponLookup(ctx, work, d)
		acc.deaths = saturatingInc(acc.deaths)
		if weapon.HSREligible {
			acc.hsrDeaths = saturatingInc(acc.hsrDeaths)
			if d.headshot {
				acc.deathHeadshots = saturatingInc(acc.deathHeadshots)
			}
		}
	}

	killerName := awaitOr(ctx, work.lookups.killerName, d.attackerID)

	out := []domain.Message{
		domain.DeathEvent{
			Killer: killerName,
			At:     unixTime(now),
		},
		e.sessionRaw(acc),
	}

	if d.teamkill {
		acc.state = next
		out = append(out, e.event("Team Kill Victim"))
		if acc.killstreak > 0 {
			out = append(out, e.streak(acc, acc.killstreak, true))
		}
		return out
	}

	acc.state = next
	out = append(out, e.streak(acc, 0, false))
	switch {
	case d.attackerID == work.CharacterID:
		out = append(out, e.event("Suicide"))
	case d.headshot:
		out = append(out, e.presenter.SubsetEvent("Death", "Headshot Death"))
	default:
		out = append(out, e.event("Death"))
	}
	return out
}
