package session

import (
	"strings"
	"time"

	"github.com/Amund211/censusoverlay/internal/domain"
	"github.com/Amund211/censusoverlay/internal/overlay"
)

// Streak history entries kept for the knife ring
const maxStreakHistory = 500

type encounterStats struct {
	kills           uint32
	deaths          uint32
	revivesReceived uint32
}

type supportCounters struct {
	heal        uint32
	resupply    uint32
	reviveGiven uint32
	reviveTaken uint32
	repair      uint32
}

// Accumulator is the running session of one tracked character.
// Times are unix seconds, a zero start means the clock is paused.
type Accumulator struct {
	kills           uint32
	deaths          uint32
	headshots       uint32
	hsrKills        uint32
	deathHeadshots  uint32
	hsrDeaths       uint32
	revivesReceived uint32
	start           float64
	accumulated     float64

	killstreak   uint32
	multiKills   uint32
	lastKillAt   float64
	lastVictimID string
	lastVictimAt float64
	state        LifeState

	support supportCounters

	streakFactions []string
	streakSlots    []uint32
	nextSlot       uint32

	teamID  uint32
	worldID uint32
	zoneID  uint32

	kdModeRevive bool
	encounters   map[string]*encounterStats
}

func NewAccumulator() *Accumulator {
	return &Accumulator{
		encounters: make(map[string]*encounterStats),
	}
}

func (a *Accumulator) State() LifeState {
	return a.state
}

func (a *Accumulator) Killstreak() uint32 {
	return a.killstreak
}

func (a *Accumulator) ensureStarted(now float64) {
	if a.start <= 0 {
		a.start = max(now, 1)
	}
}

func (a *Accumulator) pause(now float64) {
	if a.start > 0 {
		a.accumulated += max(now-a.start, 0)
		a.start = 0
	}
}

// Raw snapshots the counters, stamped with the wall clock
func (a *Accumulator) Raw(at time.Time) domain.SessionRaw {
	at = at.UTC()
	return domain.SessionRaw{
		K:               a.kills,
		D:               a.deaths,
		HS:              a.headshots,
		HSRKill:         a.hsrKills,
		DHS:             a.deathHeadshots,
		DHSEligible:     a.hsrDeaths,
		Start:           a.start,
		AccT:            a.accumulated,
		RevivesReceived: a.revivesReceived,
		At:              &at,
	}
}

func (a *Accumulator) resetStreakState() {
	a.killstreak = 0
	a.multiKills = 0
	a.streakFactions = a.streakFactions[:0]
	a.streakSlots = a.streakSlots[:0]
	a.nextSlot = 0
	a.support = supportCounters{}
}

func (a *Accumulator) recordStreakFaction(faction string) {
	a.streakFactions = append(a.streakFactions, faction)
	a.streakSlots = append(a.streakSlots, a.nextSlot)
	if a.nextSlot < ^uint32(0) {
		a.nextSlot++
	}
	if excess := len(a.streakFactions) - maxStreakHistory; excess > 0 {
		a.streakFactions = append(a.streakFactions[:0], a.streakFactions[excess:]...)
	}
	if excess := len(a.streakSlots) - maxStreakHistory; excess > 0 {
		a.streakSlots = append(a.streakSlots[:0], a.streakSlots[excess:]...)
	}
}

func (a *Accumulator) streakHistory() overlay.StreakHistory {
	return overlay.StreakHistory{
		Factions: a.streakFactions,
		Slots:    a.streakSlots,
	}
}

func (a *Accumulator) encounter(characterID string) *encounterStats {
	stats, ok := a.encounters[characterID]
	if !ok {
		stats = &encounterStats{}
		a.encounters[characterID] = stats
	}
	return stats
}

func isPlaceholderID(characterID string) bool {
	return characterID == "" || characterID == "0"
}

func (a *Accumulator) recordEncounterDeath(attackerID, victimID string) {
	attackerID = strings.TrimSpace(attackerID)
	victimID = strings.TrimSpace(victimID)
	if !isPlaceholderID(attackerID) && attackerID != victimID {
		stats := a.encounter(attackerID)
		stats.kills = saturatingInc(stats.kills)
	}
	if !isPlaceholderID(victimID) {
		stats := a.encounter(victimID)
		stats.deaths = saturatingInc(stats.deaths)
	}
}

func (a *Accumulator) recordEncounterRevive(revivedID string) {
	revivedID = strings.TrimSpace(revivedID)
	if isPlaceholderID(revivedID) {
		return
	}
	stats := a.encounter(revivedID)
	stats.revivesReceived = saturatingInc(stats.revivesReceived)
}

// encounterKD is the kill/death ratio of another character as seen on the stream.
// It is unknown until they have a kill.
func (a *Accumulator) encounterKD(characterID string) (float64, bool) {
	stats, ok := a.encounters[characterID]
	if !ok || stats.kills == 0 {
		return 0, false
	}
	deaths := stats.deaths
	if a.kdModeRevive {
		deaths = saturatingSub(deaths, stats.revivesReceived)
	}
	return float64(stats.kills) / float64(max(deaths, 1)), true
}

// incrementSupport bumps the milestone counter of a counted support action
func (a *Accumulator) incrementSupport(eventName string) (uint32, bool) {
	var counter *uint32
	switch eventName {
	case "Heal":
		counter = &a.support.heal
	case "Resupply":
		counter = &a.support.resupply
	case "Revive Given":
		counter = &a.support.reviveGiven
	case "Revive Taken":
		counter = &a.support.reviveTaken
	case "Repair":
		counter = &a.support.repair
	default:
		return 0, false
	}
	*counter = saturatingInc(*counter)
	return *counter, true
}

func saturatingInc(v uint32) uint32 {
	if v == ^uint32(0) {
		return v
	}
	return v + 1
}

func saturatingSub(a, b uint32) uint32 {
	if b > a {
		return 0
	}
	return a - b
}
